package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"staffbot/internal/model"
)

func setupRosterTest() (*rosterService, *mockUserRepo, *mockShiftRepo, *mockAssignmentRepo) {
	repo, users, shifts, assignments := newTestRepository()
	svc := NewRosterService(repo, zap.NewNop()).(*rosterService)
	return svc, users, shifts, assignments
}

// ── Test: 活动班次 ──

func TestActiveShifts_FilterAndOrder(t *testing.T) {
	svc, _, shifts, _ := setupRosterTest()
	ctx := context.Background()

	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	// 乱序插入，查询结果必须按时间升序
	seedShift(t, shifts, base.AddDate(0, 0, 5), true)
	seedShift(t, shifts, base.AddDate(0, 0, 1), true)
	seedShift(t, shifts, base.AddDate(0, 0, 3), false) // 已归档
	seedShift(t, shifts, base.AddDate(0, 0, 2), true)

	result, err := svc.ActiveShifts(ctx, nil)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("已归档班次不应出现，期望 3 实际 %d", len(result))
	}
	for i := 1; i < len(result); i++ {
		if result[i].Date.Before(result[i-1].Date) {
			t.Error("班次列表未按时间升序")
		}
	}

	// from 过滤
	from := base.AddDate(0, 0, 2)
	result, err = svc.ActiveShifts(ctx, &from)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(result) != 2 {
		t.Errorf("from 过滤后期望 2 个班次，实际 %d", len(result))
	}
}

func TestUpcomingShifts_ExcludesPast(t *testing.T) {
	svc, _, shifts, _ := setupRosterTest()
	ctx := context.Background()

	now := time.Date(2026, 9, 6, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	past := seedShift(t, shifts, now.Add(-2*time.Hour), true)
	future := seedShift(t, shifts, now.Add(2*time.Hour), true)
	seedShift(t, shifts, now.Add(4*time.Hour), false) // 已归档

	result, err := svc.UpcomingShifts(ctx)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("已开始的班次不应出现在报名视图，期望 1 实际 %d", len(result))
	}
	if result[0].ID != future.ID {
		t.Errorf("期望班次 %d，实际 %d", future.ID, result[0].ID)
	}
	for _, s := range result {
		if s.ID == past.ID {
			t.Error("过期班次混入了报名视图")
		}
	}
}

// ── Test: 班次参与者 ──

func TestShiftParticipants(t *testing.T) {
	svc, users, shifts, assignments := setupRosterTest()
	ctx := context.Background()

	u1 := seedUser(t, users, 42)
	u2 := seedUser(t, users, 43)
	shift := seedShift(t, shifts, time.Now().Add(24*time.Hour), true)

	mustCreate := func(a *model.ShiftAssignment) {
		if err := assignments.Create(ctx, a); err != nil {
			t.Fatalf("预置报名失败: %v", err)
		}
	}
	mustCreate(&model.ShiftAssignment{UserID: u1.ID, ShiftID: shift.ID})
	mustCreate(&model.ShiftAssignment{UserID: u2.ID, ShiftID: shift.ID})

	// 取消 u2 的报名，名册中不再出现
	a, err := assignments.GetActive(ctx, u2.ID, shift.ID)
	if err != nil {
		t.Fatalf("查询报名失败: %v", err)
	}
	a.IsCancelled = true

	participants, err := svc.ShiftParticipants(ctx, shift.ID)
	if err != nil {
		t.Fatalf("查询参与者失败: %v", err)
	}
	if len(participants) != 1 || participants[0].TelegramID != 42 {
		t.Errorf("期望仅用户 42 在名册中，实际 %d 人", len(participants))
	}
}

// ── Test: 用户未来班次 ──

func TestUserFutureShifts(t *testing.T) {
	svc, users, shifts, assignments := setupRosterTest()
	ctx := context.Background()

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	user := seedUser(t, users, 42)
	past := seedShift(t, shifts, now.Add(-24*time.Hour), true)
	future := seedShift(t, shifts, now.Add(24*time.Hour), true)
	archived := seedShift(t, shifts, now.Add(48*time.Hour), false)

	for _, s := range []*model.Shift{past, future, archived} {
		if err := assignments.Create(ctx, &model.ShiftAssignment{UserID: user.ID, ShiftID: s.ID}); err != nil {
			t.Fatalf("预置报名失败: %v", err)
		}
	}

	result, err := svc.UserFutureShifts(ctx, 42)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(result) != 1 || result[0].ID != future.ID {
		t.Errorf("期望仅未来的活动班次，实际 %d 个", len(result))
	}
}

func TestUserFutureShifts_UnknownUser(t *testing.T) {
	svc, _, _, _ := setupRosterTest()

	// 未知用户返回空列表而非错误
	result, err := svc.UserFutureShifts(context.Background(), 999)
	if err != nil {
		t.Fatalf("期望无错误，实际: %v", err)
	}
	if result == nil || len(result) != 0 {
		t.Errorf("期望空列表，实际: %v", result)
	}
}
