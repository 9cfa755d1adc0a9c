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

// RosterService 名册只读视图：活动班次、班次参与者、用户的未来班次
type RosterService interface {
	// ActiveShifts 活动班次列表；from 非 nil 时仅含 date >= from，按时间升序。
	// 展示「可报名班次」与管理端「全部活动班次」共用此视图，区别仅在是否传 from
	ActiveShifts(ctx context.Context, from *time.Time) ([]model.Shift, error)
	// UpcomingShifts 当前时刻之后的活动班次，即用户可报名的视图；
	// 已开始的班次不再出现
	UpcomingShifts(ctx context.Context) ([]model.Shift, error)
	// ShiftParticipants 某班次所有未取消报名的用户（顺序不保证）
	ShiftParticipants(ctx context.Context, shiftID int64) ([]model.User, error)
	// UserFutureShifts 用户持有未取消报名、date >= now 的活动班次，按时间升序。
	// 用户不存在时返回空列表
	UserFutureShifts(ctx context.Context, telegramID int64) ([]model.Shift, error)
}

type rosterService struct {
	repo   *repository.Repository
	logger *zap.Logger
	// now 可注入以便测试固定时间
	now func() time.Time
}

// NewRosterService 创建 RosterService 实例
func NewRosterService(repo *repository.Repository, logger *zap.Logger) RosterService {
	return &rosterService{repo: repo, logger: logger, now: time.Now}
}

func (s *rosterService) ActiveShifts(ctx context.Context, from *time.Time) ([]model.Shift, error) {
	shifts, err := s.repo.Shift.ListActive(ctx, from)
	if err != nil {
		s.logger.Error("查询活动班次失败", zap.Error(err))
		return nil, err
	}
	return shifts, nil
}

func (s *rosterService) UpcomingShifts(ctx context.Context) ([]model.Shift, error) {
	now := s.now().UTC()
	return s.ActiveShifts(ctx, &now)
}

func (s *rosterService) ShiftParticipants(ctx context.Context, shiftID int64) ([]model.User, error) {
	users, err := s.repo.Assignment.ListParticipants(ctx, shiftID)
	if err != nil {
		s.logger.Error("查询班次参与者失败", zap.Int64("shift_id", shiftID), zap.Error(err))
		return nil, err
	}
	return users, nil
}

func (s *rosterService) UserFutureShifts(ctx context.Context, telegramID int64) ([]model.Shift, error) {
	user, err := s.repo.User.GetByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []model.Shift{}, nil
		}
		return nil, err
	}

	now := s.now().UTC()
	shifts, err := s.repo.Assignment.ListUserShifts(ctx, user.ID, &now)
	if err != nil {
		s.logger.Error("查询用户班次失败", zap.Int64("telegram_id", telegramID), zap.Error(err))
		return nil, err
	}
	return shifts, nil
}
