package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"staffbot/internal/model"
)

func setupExportTest() (ExportService, *rosterService, *mockUserRepo, *mockShiftRepo, *mockAssignmentRepo) {
	repo, users, shifts, assignments := newTestRepository()
	roster := NewRosterService(repo, zap.NewNop()).(*rosterService)
	svc := NewExportService(roster, repo, zap.NewNop())
	return svc, roster, users, shifts, assignments
}

func TestRosterWorkbook(t *testing.T) {
	svc, _, users, shifts, assignments := setupExportTest()
	ctx := context.Background()

	user := seedUser(t, users, 42)
	shift := seedShift(t, shifts, time.Date(2026, 9, 5, 14, 0, 0, 0, time.UTC), true)
	if err := assignments.Create(ctx, &model.ShiftAssignment{UserID: user.ID, ShiftID: shift.ID}); err != nil {
		t.Fatalf("预置报名失败: %v", err)
	}

	data, err := svc.RosterWorkbook(ctx)
	if err != nil {
		t.Fatalf("导出名册失败: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("生成的文件不是合法的 xlsx: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("班次名册")
	if err != nil {
		t.Fatalf("读取工作表失败: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("期望表头 + 1 行数据，实际 %d 行", len(rows))
	}
	if rows[1][4] != "测试用户" {
		t.Errorf("参与者列期望「测试用户」，实际 %q", rows[1][4])
	}
}

func TestUserCalendar(t *testing.T) {
	svc, roster, users, shifts, assignments := setupExportTest()
	ctx := context.Background()

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	roster.now = func() time.Time { return now }

	user := seedUser(t, users, 42)
	shift := seedShift(t, shifts, now.Add(48*time.Hour), true)
	shift.Description = "器材室值班"
	if err := assignments.Create(ctx, &model.ShiftAssignment{UserID: user.ID, ShiftID: shift.ID}); err != nil {
		t.Fatalf("预置报名失败: %v", err)
	}

	ical, err := svc.UserCalendar(ctx, 42)
	if err != nil {
		t.Fatalf("导出日历失败: %v", err)
	}
	if !strings.Contains(ical, "BEGIN:VCALENDAR") || !strings.Contains(ical, "BEGIN:VEVENT") {
		t.Error("输出不是合法的 iCalendar 文本")
	}
	if !strings.Contains(ical, "shift-1@staffbot") {
		t.Error("事件 UID 缺失")
	}
}

func TestUserCalendar_NoShifts(t *testing.T) {
	svc, _, users, _, _ := setupExportTest()

	seedUser(t, users, 42)

	// 无班次时返回空串，不产出空日历文件
	ical, err := svc.UserCalendar(context.Background(), 42)
	if err != nil {
		t.Fatalf("期望无错误，实际: %v", err)
	}
	if ical != "" {
		t.Errorf("期望空串，实际长度 %d", len(ical))
	}
}
