package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"staffbot/internal/model"
	"staffbot/internal/service"
)

// ── /start 与入职登记 ──

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	user, err := b.svc.User.GetByTelegramID(ctx, chatID)
	if err != nil && !errors.Is(err, service.ErrUserNotFound) {
		b.logger.Error("查询用户失败", zap.Int64("telegram_id", chatID), zap.Error(err))
		b.reply(chatID, "系统繁忙，请稍后重试")
		return
	}

	if user != nil && user.IsRegistered {
		b.replyWithKeyboard(chatID,
			fmt.Sprintf("你好，%s！请选择操作：", user.FullName), mainMenuKeyboard())
		return
	}

	// 未登记：开始入职对话
	if err := b.states.Set(ctx, chatID, &DialogState{Step: StepRegName}); err != nil {
		b.logger.Error("保存对话状态失败", zap.Int64("chat_id", chatID), zap.Error(err))
		b.reply(chatID, "系统繁忙，请稍后重试")
		return
	}
	b.reply(chatID, "👋 欢迎加入值班系统！\n\n开始登记，请输入你的姓名：")
}

// handleRegistrationMessage 逐步收集入职资料；非法输入原地重问，不推进环节
func (b *Bot) handleRegistrationMessage(ctx context.Context, msg *tgbotapi.Message, state *DialogState) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	switch state.Step {
	case StepRegName:
		if text == "" {
			b.reply(chatID, "姓名不能为空，请重新输入：")
			return
		}
		state.Draft.FullName = text
		state.Step = StepRegSkills
		b.saveState(ctx, chatID, state)
		b.reply(chatID, "请简单描述你的技能（例如：摄影、音响、主持）：")

	case StepRegSkills:
		state.Draft.Skills = text
		state.Step = StepRegExperience
		b.saveState(ctx, chatID, state)
		b.reply(chatID, "你参加过多少次值班？请输入数字（没有请填 0）：")

	case StepRegExperience:
		exp, ok := ParseExperience(text)
		if !ok {
			b.reply(chatID, "请输入非负整数，例如 0 或 3：")
			return
		}
		state.Draft.ExperienceShifts = exp
		state.Step = StepRegCourse
		b.saveState(ctx, chatID, state)
		b.reply(chatID, "你目前的年级是？请输入 1-5：")

	case StepRegCourse:
		course, ok := ParseCourse(text)
		if !ok {
			b.reply(chatID, "年级必须是 1-5 之间的数字，请重新输入：")
			return
		}
		state.Draft.Course = course
		state.Step = StepRegPhone
		b.saveState(ctx, chatID, state)
		b.reply(chatID, "请输入你的联系电话：")

	case StepRegPhone:
		if !ValidatePhone(text) {
			b.reply(chatID, "电话格式不正确（至少 10 位数字），请重新输入：")
			return
		}
		state.Draft.Phone = text
		state.Step = StepRegDays
		state.SelectedDays = nil
		b.saveState(ctx, chatID, state)
		b.replyWithKeyboard(chatID,
			"最后一步：选择你通常可以值班的星期，选完点「完成」：",
			daysKeyboard(nil, ""))
	}
}

// ── 星期多选（登记 / 主菜单更新共用）──

func (b *Bot) handleDayToggle(ctx context.Context, cq *tgbotapi.CallbackQuery, day string) {
	chatID := cq.Message.Chat.ID

	state, err := b.states.Get(ctx, chatID)
	if err != nil || state == nil ||
		(state.Step != StepRegDays && state.Step != StepUpdateDays) {
		b.answerCallback(cq.ID, "会话已过期，请重新开始")
		return
	}

	state.SelectedDays = ToggleDay(state.SelectedDays, day)
	b.saveState(ctx, chatID, state)
	b.answerCallback(cq.ID, "")
	b.editMessage(chatID, cq.Message.MessageID,
		cq.Message.Text, daysKeyboard(state.SelectedDays, ""))
}

func (b *Bot) handleDaysDone(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID

	state, err := b.states.Get(ctx, chatID)
	if err != nil || state == nil {
		b.answerCallback(cq.ID, "会话已过期，请重新开始")
		return
	}

	switch state.Step {
	case StepRegDays:
		b.finishRegistration(ctx, cq, state)
	case StepUpdateDays:
		b.finishAvailabilityUpdate(ctx, cq, state.SelectedDays)
	default:
		b.answerCallback(cq.ID, "会话已过期，请重新开始")
	}
}

func (b *Bot) finishRegistration(ctx context.Context, cq *tgbotapi.CallbackQuery, state *DialogState) {
	chatID := cq.Message.Chat.ID

	req := &service.RegisterRequest{
		TelegramID:       chatID,
		FullName:         state.Draft.FullName,
		Skills:           state.Draft.Skills,
		ExperienceShifts: state.Draft.ExperienceShifts,
		Course:           state.Draft.Course,
		Phone:            state.Draft.Phone,
		PreferredDays:    state.SelectedDays,
	}
	user, err := b.svc.User.Register(ctx, req)
	if err != nil {
		b.logger.Error("入职登记失败", zap.Int64("telegram_id", chatID), zap.Error(err))
		b.answerCallback(cq.ID, "登记失败，请稍后重试")
		return
	}

	if err := b.states.Clear(ctx, chatID); err != nil {
		b.logger.Warn("清除对话状态失败", zap.Int64("chat_id", chatID), zap.Error(err))
	}

	b.answerCallback(cq.ID, "登记完成")
	b.editMessage(chatID, cq.Message.MessageID,
		fmt.Sprintf("✅ 登记完成，%s！", user.FullName), mainMenuKeyboard())
	b.sendGroupInvite(ctx, chatID)
}

func (b *Bot) finishAvailabilityUpdate(ctx context.Context, cq *tgbotapi.CallbackQuery, days []string) {
	chatID := cq.Message.Chat.ID

	if _, err := b.svc.User.UpdatePreferredDays(ctx, chatID, days); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			b.answerCallback(cq.ID, "请先完成登记")
			b.reply(chatID, "你还未登记，请先使用 /start 完成登记")
			return
		}
		b.logger.Error("更新可用时间失败", zap.Int64("telegram_id", chatID), zap.Error(err))
		b.answerCallback(cq.ID, "更新失败，请稍后重试")
		return
	}

	if err := b.states.Clear(ctx, chatID); err != nil {
		b.logger.Warn("清除对话状态失败", zap.Int64("chat_id", chatID), zap.Error(err))
	}

	b.answerCallback(cq.ID, "已更新")
	b.editMessage(chatID, cq.Message.MessageID,
		"✅ 可用时间已更新："+formatDays(days), mainMenuKeyboard())
}

// handleDaysMessage 星期环节的文字输入：从自由文本解析星期
func (b *Bot) handleDaysMessage(ctx context.Context, msg *tgbotapi.Message, state *DialogState) {
	chatID := msg.Chat.ID

	days := ParsePreferredDays(msg.Text)
	if days == nil {
		b.reply(chatID, "未识别出星期，请点击键盘按钮，或输入例如「周一和周三」：")
		return
	}
	state.SelectedDays = days

	switch state.Step {
	case StepRegDays:
		req := &service.RegisterRequest{
			TelegramID:       chatID,
			FullName:         state.Draft.FullName,
			Skills:           state.Draft.Skills,
			ExperienceShifts: state.Draft.ExperienceShifts,
			Course:           state.Draft.Course,
			Phone:            state.Draft.Phone,
			PreferredDays:    days,
		}
		user, err := b.svc.User.Register(ctx, req)
		if err != nil {
			b.logger.Error("入职登记失败", zap.Int64("telegram_id", chatID), zap.Error(err))
			b.reply(chatID, "登记失败，请稍后重试")
			return
		}
		b.clearState(ctx, chatID)
		b.replyWithKeyboard(chatID,
			fmt.Sprintf("✅ 登记完成，%s！可用时间：%s", user.FullName, formatDays(days)),
			mainMenuKeyboard())
		b.sendGroupInvite(ctx, chatID)

	case StepUpdateDays:
		if _, err := b.svc.User.UpdatePreferredDays(ctx, chatID, days); err != nil {
			b.logger.Error("更新可用时间失败", zap.Int64("telegram_id", chatID), zap.Error(err))
			b.reply(chatID, "更新失败，请稍后重试")
			return
		}
		b.clearState(ctx, chatID)
		b.replyWithKeyboard(chatID, "✅ 可用时间已更新："+formatDays(days), mainMenuKeyboard())
	}
}

// ── 每周提醒键盘（无前置状态，收到点击时惰性建立状态）──

func (b *Bot) handleWeeklyDayToggle(ctx context.Context, cq *tgbotapi.CallbackQuery, day string) {
	chatID := cq.Message.Chat.ID

	state, err := b.states.Get(ctx, chatID)
	if err != nil {
		b.answerCallback(cq.ID, "系统繁忙，请稍后重试")
		return
	}
	if state == nil || state.Step != StepUpdateDays {
		state = &DialogState{Step: StepUpdateDays}
	}

	state.SelectedDays = ToggleDay(state.SelectedDays, day)
	b.saveState(ctx, chatID, state)
	b.answerCallback(cq.ID, "")
	b.editMessage(chatID, cq.Message.MessageID,
		cq.Message.Text, daysKeyboard(state.SelectedDays, "update_"))
}

func (b *Bot) handleWeeklyDaysDone(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID

	var days []string
	if state, err := b.states.Get(ctx, chatID); err == nil &&
		state != nil && state.Step == StepUpdateDays {
		days = state.SelectedDays
	}
	// 未点过任何星期直接点完成 = 本周不可用，清空偏好
	b.finishAvailabilityUpdate(ctx, cq, days)
}

// ── 主菜单 ──

func (b *Bot) handleMainMenu(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID
	if err := b.states.Clear(ctx, chatID); err != nil {
		b.logger.Warn("清除对话状态失败", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	b.answerCallback(cq.ID, "")
	b.editMessage(chatID, cq.Message.MessageID, "请选择操作：", mainMenuKeyboard())
}

func (b *Bot) handleViewShifts(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID

	// 仅展示尚未开始的班次，已开始/过期的班次不可再报名
	shifts, err := b.svc.Roster.UpcomingShifts(ctx)
	if err != nil {
		b.answerCallback(cq.ID, "查询失败，请稍后重试")
		return
	}
	b.answerCallback(cq.ID, "")
	if len(shifts) == 0 {
		b.editMessage(chatID, cq.Message.MessageID,
			"当前没有可报名的班次", mainMenuKeyboard())
		return
	}
	b.editMessage(chatID, cq.Message.MessageID,
		"📋 可报名班次（点击查看详情）：", shiftListKeyboard(shifts, "shift_info_"))
}

func (b *Bot) handleShiftInfo(ctx context.Context, cq *tgbotapi.CallbackQuery, shiftID int64) {
	chatID := cq.Message.Chat.ID

	shift, err := b.svc.Shift.GetByID(ctx, shiftID)
	if err != nil {
		b.answerCallback(cq.ID, "班次不存在或已归档")
		return
	}

	booked := false
	if mine, err := b.svc.Roster.UserFutureShifts(ctx, chatID); err == nil {
		for _, s := range mine {
			if s.ID == shiftID {
				booked = true
				break
			}
		}
	}

	b.answerCallback(cq.ID, "")
	b.editMessage(chatID, cq.Message.MessageID,
		formatShift(shift), shiftDetailKeyboard(shiftID, booked))
}

func (b *Bot) handleBookShift(ctx context.Context, cq *tgbotapi.CallbackQuery, shiftID int64) {
	chatID := cq.Message.Chat.ID

	_, err := b.svc.Booking.Book(ctx, chatID, shiftID)
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		b.answerCallback(cq.ID, "请先完成登记")
		b.reply(chatID, "你还未登记，请先使用 /start 完成登记")
		return
	case errors.Is(err, service.ErrShiftNotFound):
		b.answerCallback(cq.ID, "班次不存在或已归档")
		return
	case errors.Is(err, service.ErrAlreadyBooked):
		b.answerCallback(cq.ID, "你已报名该班次")
		return
	case err != nil:
		b.logger.Error("报名失败",
			zap.Int64("telegram_id", chatID), zap.Int64("shift_id", shiftID), zap.Error(err))
		b.answerCallback(cq.ID, "报名失败，请稍后重试")
		return
	}

	b.answerCallback(cq.ID, "报名成功")
	b.editMessage(chatID, cq.Message.MessageID,
		"✅ 报名成功！", shiftDetailKeyboard(shiftID, true))
}

func (b *Bot) handleCancelShift(ctx context.Context, cq *tgbotapi.CallbackQuery, shiftID int64) {
	chatID := cq.Message.Chat.ID

	cancelled, err := b.svc.Booking.Cancel(ctx, chatID, shiftID)
	if err != nil {
		b.logger.Error("取消报名失败",
			zap.Int64("telegram_id", chatID), zap.Int64("shift_id", shiftID), zap.Error(err))
		b.answerCallback(cq.ID, "取消失败，请稍后重试")
		return
	}
	if !cancelled {
		b.answerCallback(cq.ID, "你未报名该班次")
		return
	}

	b.answerCallback(cq.ID, "已取消报名")
	b.editMessage(chatID, cq.Message.MessageID,
		"❌ 已取消报名", shiftDetailKeyboard(shiftID, false))
}

func (b *Bot) handleMyShifts(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID

	shifts, err := b.svc.Roster.UserFutureShifts(ctx, chatID)
	if err != nil {
		b.answerCallback(cq.ID, "查询失败，请稍后重试")
		return
	}
	b.answerCallback(cq.ID, "")
	if len(shifts) == 0 {
		b.editMessage(chatID, cq.Message.MessageID,
			"你还没有已报名的班次", mainMenuKeyboard())
		return
	}
	b.editMessage(chatID, cq.Message.MessageID,
		"📝 我的班次（点击查看详情）：", shiftListKeyboard(shifts, "shift_info_"))
}

func (b *Bot) handleUpdateAvailability(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID

	user, err := b.svc.User.GetByTelegramID(ctx, chatID)
	if err != nil {
		b.answerCallback(cq.ID, "请先完成登记")
		return
	}

	state := &DialogState{Step: StepUpdateDays, SelectedDays: user.PreferredDays}
	b.saveState(ctx, chatID, state)
	b.answerCallback(cq.ID, "")
	b.editMessage(chatID, cq.Message.MessageID,
		"选择你可以值班的星期，选完点「完成」：",
		daysKeyboard(state.SelectedDays, ""))
}

func (b *Bot) handleExportCalendar(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID

	ics, err := b.svc.Export.UserCalendar(ctx, chatID)
	if err != nil {
		b.logger.Error("导出日历失败", zap.Int64("telegram_id", chatID), zap.Error(err))
		b.answerCallback(cq.ID, "导出失败，请稍后重试")
		return
	}
	if ics == "" {
		b.answerCallback(cq.ID, "你还没有已报名的班次")
		return
	}

	b.answerCallback(cq.ID, "")
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  "my_shifts.ics",
		Bytes: []byte(ics),
	})
	doc.Caption = "📅 我的班次日历，导入手机日历即可"
	if _, err := b.api.Send(doc); err != nil {
		b.logger.Warn("发送日历文件失败", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// ── 格式化辅助 ──

func (b *Bot) saveState(ctx context.Context, chatID int64, state *DialogState) {
	if err := b.states.Set(ctx, chatID, state); err != nil {
		b.logger.Error("保存对话状态失败", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func formatShift(shift *model.Shift) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🗓 班次 #%d\n时间：%s\n", shift.ID, shift.Date.Format("2006-01-02 15:04"))
	if shift.Description != "" {
		fmt.Fprintf(&sb, "描述：%s\n", shift.Description)
	}
	return sb.String()
}

func formatDays(days []string) string {
	if len(days) == 0 {
		return "（暂无）"
	}
	return strings.Join(days, "、")
}
