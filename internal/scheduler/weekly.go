// Package scheduler 实现每周固定时刻触发的后台循环。
// 下次触发时刻每轮由当前挂钟时间重新计算，不做任何持久化；
// 进程停机期间错过的触发直接跳过，不补发。
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// 两次触发之间的固定间隔
const weekInterval = 7 * 24 * time.Hour

// Callback 每次触发执行的回调。
// 回调内部自行处理逐收件人失败；返回非 nil 错误将终止整个循环
type Callback func(ctx context.Context) error

// WeeklyTrigger 每周在固定的星期与时刻触发一次回调
type WeeklyTrigger struct {
	weekday  time.Weekday
	hour     int
	minute   int
	location *time.Location
	callback Callback
	logger   *zap.Logger

	// now 可注入以便测试固定时间
	now func() time.Time
}

// NewWeeklyTrigger 创建每周触发器
func NewWeeklyTrigger(
	weekday time.Weekday,
	hour, minute int,
	location *time.Location,
	callback Callback,
	logger *zap.Logger,
) *WeeklyTrigger {
	return &WeeklyTrigger{
		weekday:  weekday,
		hour:     hour,
		minute:   minute,
		location: location,
		callback: callback,
		logger:   logger,
		now:      time.Now,
	}
}

// NextFire 计算 now 之后最近一次目标时刻。
// 当天即目标星期且目标时刻尚未过去时取当天，否则取下一个目标星期；
// 恰好等于目标时刻也视为已过去（推到下一周）
func NextFire(now time.Time, weekday time.Weekday, hour, minute int) time.Time {
	daysUntil := (int(weekday) - int(now.Weekday()) + 7) % 7
	candidate := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location()).
		AddDate(0, 0, daysUntil)
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate
}

// Run 启动触发循环，阻塞直到 ctx 取消或回调返回错误
func (t *WeeklyTrigger) Run(ctx context.Context) error {
	for {
		now := t.now().In(t.location)
		next := NextFire(now, t.weekday, t.hour, t.minute)

		t.logger.Info("下一次每周触发已排定",
			zap.Time("next_fire", next),
			zap.Duration("wait", next.Sub(now)))

		if err := t.sleep(ctx, next.Sub(now)); err != nil {
			return err
		}

		if err := t.callback(ctx); err != nil {
			// 回调失败对循环是致命的；监督重启由外部负责
			t.logger.Error("每周触发回调失败，循环终止", zap.Error(err))
			return err
		}

		// 触发后固定等待一周，再回到循环顶部重新计算
		if err := t.sleep(ctx, weekInterval); err != nil {
			return err
		}
	}
}

// sleep 可被 ctx 取消的等待
func (t *WeeklyTrigger) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
