package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"staffbot/internal/model"
	"staffbot/internal/repository"
)

// ── 班次模块业务错误 ──

var ErrShiftNotFound = errors.New("班次不存在")

// ShiftUpdate 部分更新班次；nil 字段不修改
type ShiftUpdate struct {
	Date          *time.Time
	Description   *string
	CompletedInfo *string
}

// ShiftService 班次管理业务接口（管理员操作）
type ShiftService interface {
	// Create 创建班次；时间不做过去/未来校验，由对话层负责提示
	Create(ctx context.Context, date time.Time, description string) (*model.Shift, error)
	GetByID(ctx context.Context, id int64) (*model.Shift, error)
	// Update 部分更新班次（时间 / 描述 / 完成记录）
	Update(ctx context.Context, id int64, upd *ShiftUpdate) (*model.Shift, error)
	// Archive 归档班次（软删除）；幂等：重复归档直接返回成功
	Archive(ctx context.Context, id int64) (*model.Shift, error)
}

type shiftService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewShiftService 创建 ShiftService 实例
func NewShiftService(repo *repository.Repository, logger *zap.Logger) ShiftService {
	return &shiftService{repo: repo, logger: logger}
}

func (s *shiftService) Create(ctx context.Context, date time.Time, description string) (*model.Shift, error) {
	shift := &model.Shift{
		Date:        date,
		Description: description,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Shift.Create(ctx, shift); err != nil {
		s.logger.Error("创建班次失败", zap.Time("date", date), zap.Error(err))
		return nil, err
	}
	s.logger.Info("班次已创建", zap.Int64("shift_id", shift.ID), zap.Time("date", date))
	return shift, nil
}

func (s *shiftService) GetByID(ctx context.Context, id int64) (*model.Shift, error) {
	shift, err := s.repo.Shift.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		s.logger.Error("查询班次失败", zap.Int64("shift_id", id), zap.Error(err))
		return nil, err
	}
	return shift, nil
}

func (s *shiftService) Update(ctx context.Context, id int64, upd *ShiftUpdate) (*model.Shift, error) {
	shift, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Date != nil {
		shift.Date = *upd.Date
	}
	if upd.Description != nil {
		shift.Description = *upd.Description
	}
	if upd.CompletedInfo != nil {
		shift.CompletedInfo = *upd.CompletedInfo
	}

	if err := s.repo.Shift.Update(ctx, shift); err != nil {
		s.logger.Error("更新班次失败", zap.Int64("shift_id", id), zap.Error(err))
		return nil, err
	}
	return shift, nil
}

func (s *shiftService) Archive(ctx context.Context, id int64) (*model.Shift, error) {
	shift, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// 已归档则为无操作成功
	if !shift.IsActive {
		return shift, nil
	}

	shift.IsActive = false
	if err := s.repo.Shift.Update(ctx, shift); err != nil {
		s.logger.Error("归档班次失败", zap.Int64("shift_id", id), zap.Error(err))
		return nil, err
	}
	s.logger.Info("班次已归档", zap.Int64("shift_id", id))
	return shift, nil
}
