package service

import (
	"go.uber.org/zap"

	"staffbot/config"
	"staffbot/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	User      UserService
	Shift     ShiftService
	Booking   BookingService
	Roster    RosterService
	Setting   SettingService
	Broadcast BroadcastService
	Export    ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	logger *zap.Logger,
) *Service {
	setting := NewSettingService(cfg, repo, logger)
	roster := NewRosterService(repo, logger)
	return &Service{
		User:      NewUserService(repo, logger),
		Shift:     NewShiftService(repo, logger),
		Booking:   NewBookingService(repo, logger),
		Roster:    roster,
		Setting:   setting,
		Broadcast: NewBroadcastService(repo, logger),
		Export:    NewExportService(roster, repo, logger),
	}
}
