package bot

import (
	"context"
	"testing"
)

func TestMemoryDialogStore(t *testing.T) {
	store := NewMemoryDialogStore()
	ctx := context.Background()

	// 不存在的会话返回 (nil, nil)
	state, err := store.Get(ctx, 42)
	if err != nil || state != nil {
		t.Fatalf("期望 (nil, nil)，实际 (%v, %v)", state, err)
	}

	in := &DialogState{
		Step:         StepRegDays,
		Draft:        RegistrationDraft{FullName: "张三", Course: 3},
		SelectedDays: []string{"周一"},
	}
	if err := store.Set(ctx, 42, in); err != nil {
		t.Fatalf("写入失败: %v", err)
	}

	out, err := store.Get(ctx, 42)
	if err != nil {
		t.Fatalf("读取失败: %v", err)
	}
	if out.Step != StepRegDays || out.Draft.FullName != "张三" {
		t.Errorf("读回的状态不一致: %+v", out)
	}

	// 读出的是副本，修改不回写存储
	out.Draft.FullName = "被改掉"
	again, _ := store.Get(ctx, 42)
	if again.Draft.FullName != "张三" {
		t.Error("Get 应返回状态副本")
	}

	if err := store.Clear(ctx, 42); err != nil {
		t.Fatalf("清除失败: %v", err)
	}
	state, _ = store.Get(ctx, 42)
	if state != nil {
		t.Error("清除后状态仍可读到")
	}

	// 清除不存在的会话不是错误
	if err := store.Clear(ctx, 999); err != nil {
		t.Errorf("清除不存在的会话不应报错: %v", err)
	}
}
