package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"staffbot/config"
)

func setupSettingTest(cfg *config.Config) SettingService {
	repo, _, _, _ := newTestRepository()
	if cfg == nil {
		cfg = &config.Config{}
	}
	return NewSettingService(cfg, repo, zap.NewNop())
}

func TestSetting_SetAndGet(t *testing.T) {
	svc := setupSettingTest(nil)
	ctx := context.Background()

	if _, err := svc.Set(ctx, SettingWorkGroupID, "-100200300"); err != nil {
		t.Fatalf("写入设置失败: %v", err)
	}

	value, ok, err := svc.Get(ctx, SettingWorkGroupID)
	if err != nil {
		t.Fatalf("读取设置失败: %v", err)
	}
	if !ok || value != "-100200300" {
		t.Errorf("期望读到 -100200300，实际 (%q, %v)", value, ok)
	}

	// 同 key 覆盖写入
	if _, err := svc.Set(ctx, SettingWorkGroupID, "-100999999"); err != nil {
		t.Fatalf("覆盖写入失败: %v", err)
	}
	value, _, _ = svc.Get(ctx, SettingWorkGroupID)
	if value != "-100999999" {
		t.Errorf("覆盖后期望 -100999999，实际 %q", value)
	}
}

func TestSetting_GetMissing(t *testing.T) {
	svc := setupSettingTest(nil)

	value, ok, err := svc.Get(context.Background(), "no_such_key")
	if err != nil {
		t.Fatalf("缺失的 key 不应报错: %v", err)
	}
	if ok || value != "" {
		t.Errorf("缺失的 key 期望 (\"\", false)，实际 (%q, %v)", value, ok)
	}
}

// ── Test: 目标会话解析规则 ──

func TestResolveTarget_PersistedWins(t *testing.T) {
	cfg := &config.Config{Bot: config.BotConfig{WorkGroupID: -111}}
	svc := setupSettingTest(cfg)
	ctx := context.Background()

	// 无持久化设置时回退静态配置
	if got := svc.WorkGroupID(ctx); got != -111 {
		t.Errorf("期望回退配置值 -111，实际 %d", got)
	}

	// 持久化设置优先于静态配置
	if _, err := svc.Set(ctx, SettingWorkGroupID, "-222"); err != nil {
		t.Fatalf("写入设置失败: %v", err)
	}
	if got := svc.WorkGroupID(ctx); got != -222 {
		t.Errorf("期望持久化值 -222，实际 %d", got)
	}
}

func TestResolveTarget_InvalidValueFallsBack(t *testing.T) {
	cfg := &config.Config{Bot: config.BotConfig{NotificationChannelID: -333}}
	svc := setupSettingTest(cfg)
	ctx := context.Background()

	if _, err := svc.Set(ctx, SettingNotificationChannelID, "不是数字"); err != nil {
		t.Fatalf("写入设置失败: %v", err)
	}
	if got := svc.NotificationChannelID(ctx); got != -333 {
		t.Errorf("非法设置值应回退配置 -333，实际 %d", got)
	}
}
