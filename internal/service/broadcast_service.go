package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"staffbot/internal/repository"
)

// MessageKind 群发内容类型
type MessageKind string

const (
	MessageText     MessageKind = "text"
	MessagePhoto    MessageKind = "photo"
	MessageVideo    MessageKind = "video"
	MessageDocument MessageKind = "document"
)

// Message 群发内容：纯文本，或带说明文字的媒体（photo/video/document）
type Message struct {
	Kind    MessageKind
	Text    string
	FileID  string // Telegram 文件 ID（媒体消息）
	Caption string
}

// Notifier 消息投递接口，由传输层（Telegram）实现
// 每次调用负责一个收件人，返回该收件人的投递结果
type Notifier interface {
	Send(chatID int64, msg Message) error
}

// BroadcastReport 一次群发的统计结果
type BroadcastReport struct {
	BroadcastID string
	Total       int
	Succeeded   int
	Failed      int
}

// BroadcastService 向所有已登记用户扇出消息；逐收件人统计成败，不做重试
type BroadcastService interface {
	Broadcast(ctx context.Context, notifier Notifier, msg Message) (*BroadcastReport, error)
}

type broadcastService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewBroadcastService 创建 BroadcastService 实例
func NewBroadcastService(repo *repository.Repository, logger *zap.Logger) BroadcastService {
	return &broadcastService{repo: repo, logger: logger}
}

func (s *broadcastService) Broadcast(ctx context.Context, notifier Notifier, msg Message) (*BroadcastReport, error) {
	registered := true
	users, err := s.repo.User.List(ctx, &registered)
	if err != nil {
		s.logger.Error("查询群发收件人失败", zap.Error(err))
		return nil, err
	}

	// broadcast_id 用于在日志中关联同一次群发的逐收件人结果
	report := &BroadcastReport{
		BroadcastID: uuid.NewString(),
		Total:       len(users),
	}

	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := notifier.Send(user.TelegramID, msg); err != nil {
			report.Failed++
			s.logger.Warn("群发投递失败",
				zap.String("broadcast_id", report.BroadcastID),
				zap.Int64("telegram_id", user.TelegramID),
				zap.Error(err))
			continue
		}
		report.Succeeded++
	}

	s.logger.Info("群发完成",
		zap.String("broadcast_id", report.BroadcastID),
		zap.Int("total", report.Total),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed))
	return report, nil
}
