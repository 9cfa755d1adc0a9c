package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

// 2026-09-06 是周日
func sunday(hour, minute, second int) time.Time {
	return time.Date(2026, 9, 6, hour, minute, second, 0, time.UTC)
}

func TestNextFire_SameDayBefore(t *testing.T) {
	// 周日 09:59 请求周日 10:00 → 当天
	got := NextFire(sunday(9, 59, 0), time.Sunday, 10, 0)
	want := sunday(10, 0, 0)
	if !got.Equal(want) {
		t.Errorf("期望 %v，实际 %v", want, got)
	}
}

func TestNextFire_SameDayAfter(t *testing.T) {
	// 周日 10:00:01 请求周日 10:00 → 推到下周日
	got := NextFire(sunday(10, 0, 1), time.Sunday, 10, 0)
	want := sunday(10, 0, 0).AddDate(0, 0, 7)
	if !got.Equal(want) {
		t.Errorf("期望 %v，实际 %v", want, got)
	}
}

func TestNextFire_ExactMoment(t *testing.T) {
	// 恰好等于目标时刻也视为已过去
	got := NextFire(sunday(10, 0, 0), time.Sunday, 10, 0)
	want := sunday(10, 0, 0).AddDate(0, 0, 7)
	if !got.Equal(want) {
		t.Errorf("期望 %v，实际 %v", want, got)
	}
}

func TestNextFire_Midweek(t *testing.T) {
	// 周三请求周五 → 两天后
	wednesday := time.Date(2026, 9, 2, 8, 0, 0, 0, time.UTC)
	got := NextFire(wednesday, time.Friday, 10, 30)
	want := time.Date(2026, 9, 4, 10, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("期望 %v，实际 %v", want, got)
	}
}

func TestNextFire_WrapsWeek(t *testing.T) {
	// 周五请求周三 → 下周三
	friday := time.Date(2026, 9, 4, 8, 0, 0, 0, time.UTC)
	got := NextFire(friday, time.Wednesday, 10, 0)
	want := time.Date(2026, 9, 9, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("期望 %v，实际 %v", want, got)
	}
}

func TestRun_CancelStopsLoop(t *testing.T) {
	trigger := NewWeeklyTrigger(time.Sunday, 10, 0, time.UTC,
		func(context.Context) error { return nil }, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- trigger.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("期望 context.Canceled，实际: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("取消后循环未退出")
	}
}

func TestRun_CallbackErrorIsFatal(t *testing.T) {
	fatal := errors.New("下游不可用")
	trigger := NewWeeklyTrigger(time.Sunday, 10, 0, time.UTC,
		func(context.Context) error { return fatal }, zap.NewNop())

	// 固定 now 在目标时刻前一瞬，使首轮等待几乎为零
	trigger.now = func() time.Time {
		return time.Date(2026, 9, 6, 9, 59, 59, 999_000_000, time.UTC)
	}

	done := make(chan error, 1)
	go func() { done <- trigger.Run(context.Background()) }()

	select {
	case err := <-done:
		if !errors.Is(err, fatal) {
			t.Errorf("期望回调错误透传，实际: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("回调失败后循环未终止")
	}
}
