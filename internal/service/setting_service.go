package service

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"staffbot/config"
	"staffbot/internal/model"
	"staffbot/internal/repository"
)

// 群发目标解析使用的设置键
const (
	SettingWorkGroupID           = "work_group_id"
	SettingNotificationChannelID = "notification_channel_id"
)

// SettingService 系统设置业务接口
type SettingService interface {
	// Set 按 key 创建或覆盖设置
	Set(ctx context.Context, key, value string) (*model.Setting, error)
	// Get 按 key 查询；不存在时返回 ("", false, nil)
	Get(ctx context.Context, key string) (string, bool, error)
	// WorkGroupID 解析工作群目标：数据库设置优先，缺失或非法时回退静态配置
	WorkGroupID(ctx context.Context) int64
	// NotificationChannelID 解析通知频道目标，规则同上
	NotificationChannelID(ctx context.Context) int64
}

type settingService struct {
	cfg    *config.Config
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSettingService 创建 SettingService 实例
func NewSettingService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) SettingService {
	return &settingService{cfg: cfg, repo: repo, logger: logger}
}

func (s *settingService) Set(ctx context.Context, key, value string) (*model.Setting, error) {
	setting, err := s.repo.Setting.Upsert(ctx, key, value)
	if err != nil {
		s.logger.Error("写入设置失败", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	s.logger.Info("设置已更新", zap.String("key", key))
	return setting, nil
}

func (s *settingService) Get(ctx context.Context, key string) (string, bool, error) {
	setting, err := s.repo.Setting.Get(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		s.logger.Error("读取设置失败", zap.String("key", key), zap.Error(err))
		return "", false, err
	}
	return setting.Value, true, nil
}

func (s *settingService) WorkGroupID(ctx context.Context) int64 {
	return s.resolveTarget(ctx, SettingWorkGroupID, s.cfg.Bot.WorkGroupID)
}

func (s *settingService) NotificationChannelID(ctx context.Context) int64 {
	return s.resolveTarget(ctx, SettingNotificationChannelID, s.cfg.Bot.NotificationChannelID)
}

// resolveTarget 统一的「持久化设置优先，否则回退静态配置」解析规则
func (s *settingService) resolveTarget(ctx context.Context, key string, fallback int64) int64 {
	value, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return fallback
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		s.logger.Warn("设置值不是合法的会话 ID，回退静态配置",
			zap.String("key", key), zap.String("value", value))
		return fallback
	}
	return id
}
