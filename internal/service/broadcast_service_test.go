package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"staffbot/internal/model"
)

// fakeNotifier 记录发送目标，按 failFor 指定失败收件人
type fakeNotifier struct {
	sent    []int64
	failFor map[int64]bool
}

func (f *fakeNotifier) Send(chatID int64, _ Message) error {
	if f.failFor[chatID] {
		return errors.New("chat not found")
	}
	f.sent = append(f.sent, chatID)
	return nil
}

func TestBroadcast_TalliesResults(t *testing.T) {
	repo, users, _, _ := newTestRepository()
	svc := NewBroadcastService(repo, zap.NewNop())
	ctx := context.Background()

	for _, id := range []int64{42, 43, 44} {
		seedUser(t, users, id)
	}

	notifier := &fakeNotifier{failFor: map[int64]bool{43: true}}
	report, err := svc.Broadcast(ctx, notifier, Message{Kind: MessageText, Text: "通知"})
	if err != nil {
		t.Fatalf("群发失败: %v", err)
	}

	if report.Total != 3 || report.Succeeded != 2 || report.Failed != 1 {
		t.Errorf("统计错误: total=%d succeeded=%d failed=%d",
			report.Total, report.Succeeded, report.Failed)
	}
	if report.BroadcastID == "" {
		t.Error("群发批次 ID 不能为空")
	}
	// 单收件人失败不中断后续投递
	if len(notifier.sent) != 2 {
		t.Errorf("期望成功投递 2 人，实际 %d", len(notifier.sent))
	}
}

func TestBroadcast_OnlyRegisteredRecipients(t *testing.T) {
	repo, users, _, _ := newTestRepository()
	svc := NewBroadcastService(repo, zap.NewNop())
	ctx := context.Background()

	seedUser(t, users, 42)
	// 未完成登记的用户不收群发
	if err := users.Create(ctx, &model.User{TelegramID: 43, FullName: "路人", Course: 1}); err != nil {
		t.Fatalf("预置用户失败: %v", err)
	}

	notifier := &fakeNotifier{}
	report, err := svc.Broadcast(ctx, notifier, Message{Kind: MessageText, Text: "通知"})
	if err != nil {
		t.Fatalf("群发失败: %v", err)
	}
	if report.Total != 1 || len(notifier.sent) != 1 || notifier.sent[0] != 42 {
		t.Errorf("期望仅向已登记用户投递，实际 %v", notifier.sent)
	}
}

func TestBroadcast_ContextCancelled(t *testing.T) {
	repo, users, _, _ := newTestRepository()
	svc := NewBroadcastService(repo, zap.NewNop())

	seedUser(t, users, 42)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Broadcast(ctx, &fakeNotifier{}, Message{Kind: MessageText, Text: "通知"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("期望 context.Canceled，实际: %v", err)
	}
}
