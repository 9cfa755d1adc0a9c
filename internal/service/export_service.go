package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"staffbot/internal/repository"
)

// 班次默认时长，用于生成日历事件的结束时间
const shiftDuration = 4 * time.Hour

// ExportService 导出功能：管理端名册 Excel、用户班次日历 (.ics)
type ExportService interface {
	// RosterWorkbook 导出全部活动班次及其参与者为 xlsx 文件内容
	RosterWorkbook(ctx context.Context) ([]byte, error)
	// UserCalendar 导出用户未来班次为 iCalendar 文本；无班次时返回 ("", nil)
	UserCalendar(ctx context.Context, telegramID int64) (string, error)
}

type exportService struct {
	roster RosterService
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(roster RosterService, repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{roster: roster, repo: repo, logger: logger}
}

func (s *exportService) RosterWorkbook(ctx context.Context) ([]byte, error) {
	shifts, err := s.roster.ActiveShifts(ctx, nil)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "班次名册"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"班次ID", "时间", "描述", "参与人数", "参与者"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, shift := range shifts {
		participants, err := s.roster.ShiftParticipants(ctx, shift.ID)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(participants))
		for _, p := range participants {
			names = append(names, p.FullName)
		}

		values := []interface{}{
			shift.ID,
			shift.Date.Format("2006-01-02 15:04"),
			shift.Description,
			len(participants),
			strings.Join(names, "、"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		s.logger.Error("生成名册 Excel 失败", zap.Error(err))
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *exportService) UserCalendar(ctx context.Context, telegramID int64) (string, error) {
	shifts, err := s.roster.UserFutureShifts(ctx, telegramID)
	if err != nil {
		return "", err
	}
	if len(shifts) == 0 {
		return "", nil
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//staffbot//shift calendar//CN")

	now := time.Now().UTC()
	for _, shift := range shifts {
		event := cal.AddEvent(fmt.Sprintf("shift-%d@staffbot", shift.ID))
		event.SetCreatedTime(now)
		event.SetDtStampTime(now)
		event.SetStartAt(shift.Date)
		event.SetEndAt(shift.Date.Add(shiftDuration))
		event.SetSummary("值班")
		if shift.Description != "" {
			event.SetDescription(shift.Description)
		}
	}

	return cal.Serialize(), nil
}
