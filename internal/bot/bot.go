// Package bot 实现 Telegram 传输层：长轮询更新循环、
// 回调路由、多轮对话处理与消息投递。
package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"staffbot/config"
	"staffbot/internal/service"
)

// Bot Telegram 机器人
type Bot struct {
	api    *tgbotapi.BotAPI
	cfg    *config.Config
	svc    *service.Service
	states DialogStore
	logger *zap.Logger
}

// New 创建机器人实例并校验 Token
func New(
	cfg *config.Config,
	svc *service.Service,
	states DialogStore,
	logger *zap.Logger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		return nil, fmt.Errorf("初始化 Telegram API 失败: %w", err)
	}

	logger.Info("Telegram 机器人已授权", zap.String("username", api.Self.UserName))

	return &Bot{
		api:    api,
		cfg:    cfg,
		svc:    svc,
		states: states,
		logger: logger,
	}, nil
}

// Run 启动长轮询更新循环，阻塞直到 ctx 取消
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			// 每条更新独立处理；人机对话节奏下不需要工作池
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("处理更新时发生 panic", zap.Any("panic", r))
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

// handleMessage 处理文本/媒体消息：命令优先，其余按对话状态分发
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			b.handleStart(ctx, msg)
		case "admin":
			b.handleAdminCommand(ctx, msg)
		default:
			b.reply(chatID, "未知命令，请使用 /start 打开主菜单")
		}
		return
	}

	state, err := b.states.Get(ctx, chatID)
	if err != nil {
		b.logger.Error("读取对话状态失败", zap.Int64("chat_id", chatID), zap.Error(err))
		b.reply(chatID, "系统繁忙，请稍后重试")
		return
	}
	if state == nil {
		b.reply(chatID, "请使用 /start 打开主菜单")
		return
	}

	switch state.Step {
	case StepRegName, StepRegSkills, StepRegExperience, StepRegCourse, StepRegPhone:
		b.handleRegistrationMessage(ctx, msg, state)
	case StepRegDays, StepUpdateDays:
		// 除键盘点选外也接受文字输入（如「周一和周三」）
		b.handleDaysMessage(ctx, msg, state)
	case StepAdminShiftDate, StepAdminShiftDesc, StepAdminEditDate, StepAdminEditDesc,
		StepAdminCompletedInfo, StepAdminRatingUser, StepAdminRatingValue,
		StepAdminSettingValue, StepAdminBroadcast:
		b.handleAdminMessage(ctx, msg, state)
	default:
		b.reply(chatID, "请使用 /start 打开主菜单")
	}
}

// handleCallback 按回调数据路由；精确匹配优先于前缀匹配
func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil {
		b.answerCallback(cq.ID, "")
		return
	}

	data := cq.Data
	switch {
	// ── 每周可用性提醒（无前置状态）──
	case data == "update_days_done":
		b.handleWeeklyDaysDone(ctx, cq)
	case strings.HasPrefix(data, "update_day_"):
		b.handleWeeklyDayToggle(ctx, cq, strings.TrimPrefix(data, "update_day_"))

	// ── 登记 / 可用性更新共用的星期键盘（按状态区分）──
	case data == "days_done":
		b.handleDaysDone(ctx, cq)
	case strings.HasPrefix(data, "day_"):
		b.handleDayToggle(ctx, cq, strings.TrimPrefix(data, "day_"))

	// ── 用户菜单 ──
	case data == "main_menu":
		b.handleMainMenu(ctx, cq)
	case data == "view_shifts":
		b.handleViewShifts(ctx, cq)
	case data == "my_shifts":
		b.handleMyShifts(ctx, cq)
	case data == "update_availability":
		b.handleUpdateAvailability(ctx, cq)
	case data == "export_calendar":
		b.handleExportCalendar(ctx, cq)
	case strings.HasPrefix(data, "shift_info_"):
		b.handleShiftInfo(ctx, cq, parseID(data, "shift_info_"))
	case strings.HasPrefix(data, "book_shift_"):
		b.handleBookShift(ctx, cq, parseID(data, "book_shift_"))
	case strings.HasPrefix(data, "cancel_shift_"):
		b.handleCancelShift(ctx, cq, parseID(data, "cancel_shift_"))

	// ── 管理员 ──
	default:
		b.handleAdminCallback(ctx, cq)
	}
}

// ── 投递辅助 ──

// reply 发送纯文本回复
func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("发送消息失败", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// replyWithKeyboard 发送带内联键盘的回复
func (b *Bot) replyWithKeyboard(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("发送消息失败", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// editMessage 原地更新消息文本和键盘
func (b *Bot) editMessage(chatID int64, messageID int, text string, kb tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, kb)
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Warn("编辑消息失败", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// answerCallback 响应回调（消除按钮加载态）
func (b *Bot) answerCallback(id, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		b.logger.Warn("响应回调失败", zap.Error(err))
	}
}

// ── service.Notifier 实现 ──

// Send 向单个收件人投递群发内容
func (b *Bot) Send(chatID int64, msg service.Message) error {
	var c tgbotapi.Chattable
	switch msg.Kind {
	case service.MessagePhoto:
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(msg.FileID))
		photo.Caption = msg.Caption
		c = photo
	case service.MessageVideo:
		video := tgbotapi.NewVideo(chatID, tgbotapi.FileID(msg.FileID))
		video.Caption = msg.Caption
		c = video
	case service.MessageDocument:
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileID(msg.FileID))
		doc.Caption = msg.Caption
		c = doc
	default:
		c = tgbotapi.NewMessage(chatID, msg.Text)
	}
	_, err := b.api.Send(c)
	return err
}

// ── 每周可用性提醒 ──

// SendWeeklyAvailabilityPrompt 向所有已登记用户发送可用性更新提醒。
// 逐收件人失败仅记录与计数，不中断整体发送；作为每周触发器的回调
func (b *Bot) SendWeeklyAvailabilityPrompt(ctx context.Context) error {
	users, err := b.svc.User.ListRegistered(ctx)
	if err != nil {
		return fmt.Errorf("查询提醒收件人失败: %w", err)
	}

	text := "📅 可用性更新\n\n" +
		"请更新你下周的可用值班时间。\n" +
		"点击星期进行选择/取消，然后点「完成」。"

	sent, failed := 0, 0
	for _, user := range users {
		msg := tgbotapi.NewMessage(user.TelegramID, text)
		msg.ReplyMarkup = daysKeyboard(nil, "update_")
		if _, err := b.api.Send(msg); err != nil {
			failed++
			b.logger.Warn("发送每周提醒失败",
				zap.Int64("telegram_id", user.TelegramID), zap.Error(err))
			continue
		}
		sent++
	}

	b.logger.Info("每周可用性提醒已发送",
		zap.Int("sent", sent), zap.Int("failed", failed))
	return nil
}

// sendGroupInvite 登记完成后向用户发送工作群邀请链接
func (b *Bot) sendGroupInvite(ctx context.Context, telegramID int64) {
	groupID := b.svc.Setting.WorkGroupID(ctx)
	if groupID == 0 {
		return
	}

	invite := tgbotapi.CreateChatInviteLinkConfig{
		ChatConfig:  tgbotapi.ChatConfig{ChatID: groupID},
		MemberLimit: 1,
	}
	resp, err := b.api.Request(invite)
	if err != nil || !resp.Ok {
		b.logger.Warn("创建工作群邀请链接失败",
			zap.Int64("group_id", groupID), zap.Error(err))
		return
	}

	var link struct {
		InviteLink string `json:"invite_link"`
	}
	if err := json.Unmarshal(resp.Result, &link); err != nil || link.InviteLink == "" {
		b.logger.Warn("解析邀请链接失败", zap.Error(err))
		return
	}

	b.reply(telegramID, "🎉 欢迎加入！点击链接进入工作群：\n"+link.InviteLink)
}

func parseID(data, prefix string) int64 {
	id, _ := strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
	return id
}
