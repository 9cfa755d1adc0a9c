package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"staffbot/internal/model"
	"staffbot/internal/service"
)

// skipToken 管理员对话中表示"跳过当前输入"的文本
const skipToken = "跳过"

// handleAdminCommand /admin 入口，仅配置中的管理员可用
func (b *Bot) handleAdminCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if !b.cfg.Bot.IsAdmin(chatID) {
		b.reply(chatID, "你没有管理员权限")
		return
	}
	if err := b.states.Clear(ctx, chatID); err != nil {
		b.logger.Warn("清除对话状态失败", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	b.replyWithKeyboard(chatID, "🛠 管理菜单：", adminMenuKeyboard())
}

// handleAdminCallback 管理端回调路由；精确匹配优先于前缀匹配
func (b *Bot) handleAdminCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID
	if !b.cfg.Bot.IsAdmin(chatID) {
		b.answerCallback(cq.ID, "你没有管理员权限")
		return
	}

	data := cq.Data
	switch {
	case data == "admin_back":
		b.adminShowMenu(ctx, cq, "🛠 管理菜单：", adminMenuKeyboard())
	case data == "admin_shifts":
		b.adminShowMenu(ctx, cq, "📅 班次管理：", adminShiftsMenuKeyboard())
	case data == "admin_users":
		b.adminShowMenu(ctx, cq, "👥 人员管理：", adminUsersMenuKeyboard())
	case data == "admin_settings":
		b.adminShowSettings(ctx, cq)

	case data == "admin_add_shift":
		b.adminBeginAddShift(ctx, cq)
	case data == "admin_edit_shift_list":
		b.adminShiftPicker(ctx, cq, "✏️ 选择要编辑的班次：", "admin_edit_shift_", true)
	case data == "admin_archive_list":
		b.adminShiftPicker(ctx, cq, "🗄 选择要归档的班次：", "admin_archive_", true)
	case data == "admin_participants_list":
		b.adminShiftPicker(ctx, cq, "👥 选择班次查看参与者：", "admin_participants_", false)
	case data == "admin_completed_list":
		b.adminShiftPicker(ctx, cq, "📝 选择要记录完成情况的班次：", "admin_completed_", false)
	case data == "admin_export_roster":
		b.adminExportRoster(ctx, cq)

	case data == "admin_users_list":
		b.adminListUsers(ctx, cq)
	case data == "admin_change_rating":
		b.adminBeginRating(ctx, cq)
	case data == "admin_broadcast":
		b.adminBeginBroadcast(ctx, cq)
	case data == "admin_set_work_group":
		b.adminBeginSetting(ctx, cq, service.SettingWorkGroupID, "请输入工作群的 Chat ID（负数）：")
	case data == "admin_set_channel":
		b.adminBeginSetting(ctx, cq, service.SettingNotificationChannelID, "请输入通知频道的 Chat ID（负数）：")

	case strings.HasPrefix(data, "admin_edit_shift_"):
		b.adminShowEditShift(ctx, cq, parseID(data, "admin_edit_shift_"))
	case strings.HasPrefix(data, "edit_date_"):
		b.adminBeginEditField(ctx, cq, parseID(data, "edit_date_"), StepAdminEditDate,
			"请输入新的班次时间，格式 2006-01-02 15:04：")
	case strings.HasPrefix(data, "edit_desc_"):
		b.adminBeginEditField(ctx, cq, parseID(data, "edit_desc_"), StepAdminEditDesc,
			"请输入新的班次描述：")
	case strings.HasPrefix(data, "admin_archive_"):
		b.adminArchiveShift(ctx, cq, parseID(data, "admin_archive_"))
	case strings.HasPrefix(data, "admin_participants_"):
		b.adminShowParticipants(ctx, cq, parseID(data, "admin_participants_"))
	case strings.HasPrefix(data, "admin_completed_"):
		b.adminBeginEditField(ctx, cq, parseID(data, "admin_completed_"), StepAdminCompletedInfo,
			"请输入该班次的完成情况记录：")

	default:
		b.answerCallback(cq.ID, "")
	}
}

// handleAdminMessage 管理员对话环节的文本/媒体输入
func (b *Bot) handleAdminMessage(ctx context.Context, msg *tgbotapi.Message, state *DialogState) {
	chatID := msg.Chat.ID
	if !b.cfg.Bot.IsAdmin(chatID) {
		b.reply(chatID, "你没有管理员权限")
		return
	}
	text := strings.TrimSpace(msg.Text)

	switch state.Step {
	case StepAdminShiftDate:
		date, ok := ParseShiftDate(text, b.cfg.Bot.Location())
		if !ok {
			b.reply(chatID, "时间格式不正确，请按 2006-01-02 15:04 重新输入：")
			return
		}
		state.Step = StepAdminShiftDesc
		state.PendingDate = date.UTC().Format(time.RFC3339)
		b.saveState(ctx, chatID, state)
		b.reply(chatID, "请输入班次描述，或发送「"+skipToken+"」留空：")

	case StepAdminShiftDesc:
		b.adminCreateShift(ctx, msg, state, text)

	case StepAdminEditDate:
		date, ok := ParseShiftDate(text, b.cfg.Bot.Location())
		if !ok {
			b.reply(chatID, "时间格式不正确，请按 2006-01-02 15:04 重新输入：")
			return
		}
		utc := date.UTC()
		b.adminApplyShiftUpdate(ctx, chatID, state.ShiftID, &service.ShiftUpdate{Date: &utc})

	case StepAdminEditDesc:
		b.adminApplyShiftUpdate(ctx, chatID, state.ShiftID, &service.ShiftUpdate{Description: &text})

	case StepAdminCompletedInfo:
		b.adminApplyShiftUpdate(ctx, chatID, state.ShiftID, &service.ShiftUpdate{CompletedInfo: &text})

	case StepAdminRatingUser:
		target, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			b.reply(chatID, "请输入数字形式的 Telegram ID：")
			return
		}
		user, err := b.svc.User.GetByTelegramID(ctx, target)
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				b.reply(chatID, "找不到该用户，请重新输入 Telegram ID：")
				return
			}
			b.reply(chatID, "查询失败，请稍后重试")
			return
		}
		state.TargetTelegramID = target
		state.Step = StepAdminRatingValue
		b.saveState(ctx, chatID, state)
		b.reply(chatID, fmt.Sprintf("用户 %s 当前评分 %d，请输入新评分（1-5）：",
			user.FullName, user.Rating))

	case StepAdminRatingValue:
		rating, ok := ParseRating(text)
		if !ok {
			// 非法评分不改动原值，留在当前环节重试
			b.reply(chatID, "评分必须是 1-5 之间的数字，请重新输入：")
			return
		}
		user, err := b.svc.User.SetRating(ctx, state.TargetTelegramID, rating)
		if err != nil {
			b.logger.Error("修改评分失败",
				zap.Int64("target", state.TargetTelegramID), zap.Error(err))
			b.reply(chatID, "修改失败，请稍后重试")
			return
		}
		b.clearState(ctx, chatID)
		b.replyWithKeyboard(chatID,
			fmt.Sprintf("✅ 已将 %s 的评分修改为 %d", user.FullName, user.Rating),
			adminUsersMenuKeyboard())

	case StepAdminSettingValue:
		if _, err := strconv.ParseInt(text, 10, 64); err != nil {
			b.reply(chatID, "Chat ID 必须是整数，请重新输入：")
			return
		}
		if _, err := b.svc.Setting.Set(ctx, state.SettingKey, text); err != nil {
			b.logger.Error("保存设置失败", zap.String("key", state.SettingKey), zap.Error(err))
			b.reply(chatID, "保存失败，请稍后重试")
			return
		}
		b.clearState(ctx, chatID)
		b.replyWithKeyboard(chatID, "✅ 设置已保存\n\n"+b.settingsSummary(ctx),
			adminSettingsMenuKeyboard())

	case StepAdminBroadcast:
		b.adminRunBroadcast(ctx, msg)
	}
}

// ── 班次管理 ──

func (b *Bot) adminBeginAddShift(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID
	b.saveState(ctx, chatID, &DialogState{Step: StepAdminShiftDate})
	b.answerCallback(cq.ID, "")
	b.reply(chatID, "请输入班次时间，格式 2006-01-02 15:04（例如 2026-09-05 14:30）：")
}

func (b *Bot) adminCreateShift(ctx context.Context, msg *tgbotapi.Message, state *DialogState, text string) {
	chatID := msg.Chat.ID

	date, err := time.Parse(time.RFC3339, state.PendingDate)
	if err != nil {
		b.clearState(ctx, chatID)
		b.reply(chatID, "会话已过期，请重新开始")
		return
	}

	desc := text
	if desc == skipToken {
		desc = ""
	}

	shift, err := b.svc.Shift.Create(ctx, date, desc)
	if err != nil {
		b.logger.Error("创建班次失败", zap.Error(err))
		b.reply(chatID, "创建失败，请稍后重试")
		return
	}

	b.clearState(ctx, chatID)
	b.replyWithKeyboard(chatID,
		fmt.Sprintf("✅ 班次已创建\n%s", formatShift(shift)), adminShiftsMenuKeyboard())
	b.announceShift(ctx, shift.ID)
}

// announceShift 新班次创建后向通知频道发布公告
func (b *Bot) announceShift(ctx context.Context, shiftID int64) {
	channelID := b.svc.Setting.NotificationChannelID(ctx)
	if channelID == 0 {
		return
	}
	shift, err := b.svc.Shift.GetByID(ctx, shiftID)
	if err != nil {
		return
	}
	text := "📢 新班次开放报名！\n\n" + formatShift(shift) +
		"\n打开机器人点「查看可报名班次」即可报名。"
	if _, err := b.api.Send(tgbotapi.NewMessage(channelID, text)); err != nil {
		b.logger.Warn("发布班次公告失败", zap.Int64("channel_id", channelID), zap.Error(err))
	}
}

// adminShiftPicker 展示活动班次列表供管理员挑选；
// upcomingOnly 为 true 时只列尚未开始的班次（编辑、归档用），
// 查看参与者和记录完成情况则需要包含已开始的班次
func (b *Bot) adminShiftPicker(ctx context.Context, cq *tgbotapi.CallbackQuery, title, prefix string, upcomingOnly bool) {
	chatID := cq.Message.Chat.ID

	var (
		shifts []model.Shift
		err    error
	)
	if upcomingOnly {
		shifts, err = b.svc.Roster.UpcomingShifts(ctx)
	} else {
		shifts, err = b.svc.Roster.ActiveShifts(ctx, nil)
	}
	if err != nil {
		b.answerCallback(cq.ID, "查询失败，请稍后重试")
		return
	}
	b.answerCallback(cq.ID, "")
	if len(shifts) == 0 {
		b.editMessage(chatID, cq.Message.MessageID,
			"当前没有活动班次", adminShiftsMenuKeyboard())
		return
	}
	b.editMessage(chatID, cq.Message.MessageID, title, adminShiftListKeyboard(shifts, prefix))
}

func (b *Bot) adminShowEditShift(ctx context.Context, cq *tgbotapi.CallbackQuery, shiftID int64) {
	chatID := cq.Message.Chat.ID

	shift, err := b.svc.Shift.GetByID(ctx, shiftID)
	if err != nil {
		b.answerCallback(cq.ID, "班次不存在")
		return
	}
	b.answerCallback(cq.ID, "")
	b.editMessage(chatID, cq.Message.MessageID,
		formatShift(shift)+"选择要修改的字段：", editShiftKeyboard(shiftID))
}

func (b *Bot) adminBeginEditField(
	ctx context.Context, cq *tgbotapi.CallbackQuery, shiftID int64, step Step, prompt string,
) {
	chatID := cq.Message.Chat.ID
	b.saveState(ctx, chatID, &DialogState{Step: step, ShiftID: shiftID})
	b.answerCallback(cq.ID, "")
	b.reply(chatID, prompt)
}

func (b *Bot) adminApplyShiftUpdate(ctx context.Context, chatID, shiftID int64, upd *service.ShiftUpdate) {
	shift, err := b.svc.Shift.Update(ctx, shiftID, upd)
	if err != nil {
		if errors.Is(err, service.ErrShiftNotFound) {
			b.clearState(ctx, chatID)
			b.reply(chatID, "班次不存在或已归档")
			return
		}
		b.logger.Error("更新班次失败", zap.Int64("shift_id", shiftID), zap.Error(err))
		b.reply(chatID, "更新失败，请稍后重试")
		return
	}
	b.clearState(ctx, chatID)
	b.replyWithKeyboard(chatID, "✅ 班次已更新\n"+formatShift(shift), adminShiftsMenuKeyboard())
}

func (b *Bot) adminArchiveShift(ctx context.Context, cq *tgbotapi.CallbackQuery, shiftID int64) {
	chatID := cq.Message.Chat.ID

	shift, err := b.svc.Shift.Archive(ctx, shiftID)
	if err != nil {
		if errors.Is(err, service.ErrShiftNotFound) {
			b.answerCallback(cq.ID, "班次不存在")
			return
		}
		b.logger.Error("归档班次失败", zap.Int64("shift_id", shiftID), zap.Error(err))
		b.answerCallback(cq.ID, "归档失败，请稍后重试")
		return
	}

	b.answerCallback(cq.ID, "已归档")
	b.editMessage(chatID, cq.Message.MessageID,
		fmt.Sprintf("🗄 班次 #%d（%s）已归档，不再对外开放",
			shift.ID, shift.Date.Format("2006-01-02 15:04")),
		adminShiftsMenuKeyboard())
}

func (b *Bot) adminShowParticipants(ctx context.Context, cq *tgbotapi.CallbackQuery, shiftID int64) {
	chatID := cq.Message.Chat.ID

	users, err := b.svc.Roster.ShiftParticipants(ctx, shiftID)
	if err != nil {
		b.answerCallback(cq.ID, "查询失败，请稍后重试")
		return
	}
	b.answerCallback(cq.ID, "")

	if len(users) == 0 {
		b.editMessage(chatID, cq.Message.MessageID,
			fmt.Sprintf("班次 #%d 暂无参与者", shiftID), adminShiftsMenuKeyboard())
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "👥 班次 #%d 参与者（%d 人）：\n\n", shiftID, len(users))
	for i, u := range users {
		fmt.Fprintf(&sb, "%d. %s ⭐%d\n   📞 %s\n", i+1, u.FullName, u.Rating, u.Phone)
	}
	b.editMessage(chatID, cq.Message.MessageID, sb.String(), adminShiftsMenuKeyboard())
}

func (b *Bot) adminExportRoster(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID

	data, err := b.svc.Export.RosterWorkbook(ctx)
	if err != nil {
		b.logger.Error("导出名册失败", zap.Error(err))
		b.answerCallback(cq.ID, "导出失败，请稍后重试")
		return
	}

	b.answerCallback(cq.ID, "")
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  "roster.xlsx",
		Bytes: data,
	})
	doc.Caption = "📊 班次名册"
	if _, err := b.api.Send(doc); err != nil {
		b.logger.Warn("发送名册文件失败", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// ── 人员管理 ──

func (b *Bot) adminListUsers(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID

	users, err := b.svc.User.List(ctx)
	if err != nil {
		b.answerCallback(cq.ID, "查询失败，请稍后重试")
		return
	}
	b.answerCallback(cq.ID, "")

	if len(users) == 0 {
		b.editMessage(chatID, cq.Message.MessageID, "暂无人员记录", adminUsersMenuKeyboard())
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "👥 人员列表（%d 人）：\n\n", len(users))
	for i, u := range users {
		status := "已登记"
		if !u.IsRegistered {
			status = "未完成登记"
		}
		fmt.Fprintf(&sb, "%d. %s ⭐%d（%s）\n   ID %d · 年级 %d · 📞 %s\n   可值班：%s\n",
			i+1, u.FullName, u.Rating, status,
			u.TelegramID, u.Course, u.Phone, formatDays(u.PreferredDays))
	}
	b.editMessage(chatID, cq.Message.MessageID, sb.String(), adminUsersMenuKeyboard())
}

func (b *Bot) adminBeginRating(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID
	b.saveState(ctx, chatID, &DialogState{Step: StepAdminRatingUser})
	b.answerCallback(cq.ID, "")
	b.reply(chatID, "请输入要修改评分的用户 Telegram ID（人员列表中可查）：")
}

// ── 系统设置 ──

func (b *Bot) adminShowSettings(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	b.answerCallback(cq.ID, "")
	b.editMessage(cq.Message.Chat.ID, cq.Message.MessageID,
		"⚙️ 系统设置\n\n"+b.settingsSummary(ctx), adminSettingsMenuKeyboard())
}

func (b *Bot) settingsSummary(ctx context.Context) string {
	return fmt.Sprintf("工作群 ID：%s\n通知频道 ID：%s",
		formatChatID(b.svc.Setting.WorkGroupID(ctx)),
		formatChatID(b.svc.Setting.NotificationChannelID(ctx)))
}

func formatChatID(id int64) string {
	if id == 0 {
		return "未设置"
	}
	return strconv.FormatInt(id, 10)
}

func (b *Bot) adminBeginSetting(ctx context.Context, cq *tgbotapi.CallbackQuery, key, prompt string) {
	chatID := cq.Message.Chat.ID
	b.saveState(ctx, chatID, &DialogState{Step: StepAdminSettingValue, SettingKey: key})
	b.answerCallback(cq.ID, "")
	b.reply(chatID, prompt)
}

// ── 群发 ──

func (b *Bot) adminBeginBroadcast(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID
	b.saveState(ctx, chatID, &DialogState{Step: StepAdminBroadcast})
	b.answerCallback(cq.ID, "")
	b.reply(chatID, "请发送要群发的内容（支持文字、图片、视频、文件）：")
}

// adminRunBroadcast 将收到的消息原样群发给所有已登记用户
func (b *Bot) adminRunBroadcast(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	bm, ok := broadcastMessageFrom(msg)
	if !ok {
		b.reply(chatID, "不支持该消息类型，请发送文字、图片、视频或文件：")
		return
	}

	report, err := b.svc.Broadcast.Broadcast(ctx, b, bm)
	if err != nil {
		b.logger.Error("群发失败", zap.Error(err))
		b.reply(chatID, "群发失败，请稍后重试")
		return
	}

	b.clearState(ctx, chatID)
	b.replyWithKeyboard(chatID,
		fmt.Sprintf("📢 群发完成（批次 %s）\n收件人 %d，成功 %d，失败 %d",
			report.BroadcastID, report.Total, report.Succeeded, report.Failed),
		adminMenuKeyboard())
}

// broadcastMessageFrom 从 Telegram 消息提取群发内容
func broadcastMessageFrom(msg *tgbotapi.Message) (service.Message, bool) {
	switch {
	case len(msg.Photo) > 0:
		// Photo 数组按分辨率升序，取最高清版本
		return service.Message{
			Kind:    service.MessagePhoto,
			FileID:  msg.Photo[len(msg.Photo)-1].FileID,
			Caption: msg.Caption,
		}, true
	case msg.Video != nil:
		return service.Message{
			Kind:    service.MessageVideo,
			FileID:  msg.Video.FileID,
			Caption: msg.Caption,
		}, true
	case msg.Document != nil:
		return service.Message{
			Kind:    service.MessageDocument,
			FileID:  msg.Document.FileID,
			Caption: msg.Caption,
		}, true
	case msg.Text != "":
		return service.Message{Kind: service.MessageText, Text: msg.Text}, true
	default:
		return service.Message{}, false
	}
}

func (b *Bot) clearState(ctx context.Context, chatID int64) {
	if err := b.states.Clear(ctx, chatID); err != nil {
		b.logger.Warn("清除对话状态失败", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) adminShowMenu(ctx context.Context, cq *tgbotapi.CallbackQuery, title string, kb tgbotapi.InlineKeyboardMarkup) {
	b.clearState(ctx, cq.Message.Chat.ID)
	b.answerCallback(cq.ID, "")
	b.editMessage(cq.Message.Chat.ID, cq.Message.MessageID, title, kb)
}
