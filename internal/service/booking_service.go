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

// ── 预约模块业务错误 ──

// ErrAlreadyBooked 不是故障：调用方（对话层）将其转化为用户提示
var ErrAlreadyBooked = errors.New("已报名该班次")

// BookingService 预约引擎：唯一负责跨实体一致性的业务组件
type BookingService interface {
	// Book 用户报名班次。
	// 用户不存在返回 ErrUserNotFound；班次不存在或已归档返回 ErrShiftNotFound；
	// 已有未取消报名返回 ErrAlreadyBooked（幂等，不产生重复记录）。
	// 查询-插入在同一事务内执行，并发下由部分唯一索引兜底。
	Book(ctx context.Context, telegramID, shiftID int64) (*model.ShiftAssignment, error)
	// Cancel 取消报名。无未取消记录时返回 (false, nil)，视为良性无操作
	Cancel(ctx context.Context, telegramID, shiftID int64) (bool, error)
}

type bookingService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewBookingService 创建 BookingService 实例
func NewBookingService(repo *repository.Repository, logger *zap.Logger) BookingService {
	return &bookingService{repo: repo, logger: logger}
}

func (s *bookingService) Book(ctx context.Context, telegramID, shiftID int64) (*model.ShiftAssignment, error) {
	user, err := s.repo.User.GetByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	shift, err := s.repo.Shift.GetByID(ctx, shiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, err
	}
	if !shift.IsActive {
		return nil, ErrShiftNotFound
	}

	// 查询-插入必须在同一事务内，防止并发报名绕过唯一性检查
	var assignment *model.ShiftAssignment
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if _, err := txRepo.Assignment.GetActive(ctx, user.ID, shiftID); err == nil {
			return ErrAlreadyBooked
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		assignment = &model.ShiftAssignment{
			UserID:    user.ID,
			ShiftID:   shiftID,
			CreatedAt: time.Now().UTC(),
		}
		if err := txRepo.Assignment.Create(ctx, assignment); err != nil {
			// 并发写入触发部分唯一索引冲突，等价于「已报名」
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyBooked
			}
			s.logger.Error("创建报名记录失败",
				zap.Int64("telegram_id", telegramID),
				zap.Int64("shift_id", shiftID),
				zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("报名成功",
		zap.Int64("telegram_id", telegramID),
		zap.Int64("shift_id", shiftID))
	return assignment, nil
}

func (s *bookingService) Cancel(ctx context.Context, telegramID, shiftID int64) (bool, error) {
	user, err := s.repo.User.GetByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	assignment, err := s.repo.Assignment.GetActive(ctx, user.ID, shiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	now := time.Now().UTC()
	assignment.IsCancelled = true
	assignment.CancelledAt = &now

	if err := s.repo.Assignment.Update(ctx, assignment); err != nil {
		s.logger.Error("取消报名失败",
			zap.Int64("telegram_id", telegramID),
			zap.Int64("shift_id", shiftID),
			zap.Error(err))
		return false, err
	}

	s.logger.Info("报名已取消",
		zap.Int64("telegram_id", telegramID),
		zap.Int64("shift_id", shiftID))
	return true, nil
}
