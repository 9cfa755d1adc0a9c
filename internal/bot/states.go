package bot

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"staffbot/pkg/redis"
)

// Step 多轮对话所处的环节
type Step string

const (
	// 入职登记
	StepRegName       Step = "reg_name"
	StepRegSkills     Step = "reg_skills"
	StepRegExperience Step = "reg_experience"
	StepRegCourse     Step = "reg_course"
	StepRegPhone      Step = "reg_phone"
	StepRegDays       Step = "reg_days"

	// 更新可用性（主菜单入口）
	StepUpdateDays Step = "update_days"

	// 管理员对话
	StepAdminShiftDate     Step = "admin_shift_date"
	StepAdminShiftDesc     Step = "admin_shift_desc"
	StepAdminEditDate      Step = "admin_edit_date"
	StepAdminEditDesc      Step = "admin_edit_desc"
	StepAdminCompletedInfo Step = "admin_completed_info"
	StepAdminRatingUser    Step = "admin_rating_user"
	StepAdminRatingValue   Step = "admin_rating_value"
	StepAdminSettingValue  Step = "admin_setting_value"
	StepAdminBroadcast     Step = "admin_broadcast"
)

// RegistrationDraft 入职对话逐步累积的资料
type RegistrationDraft struct {
	FullName         string   `json:"full_name"`
	Skills           string   `json:"skills"`
	ExperienceShifts int      `json:"experience_shifts"`
	Course           int      `json:"course"`
	Phone            string   `json:"phone"`
	PreferredDays    []string `json:"preferred_days"`
}

// DialogState 单个会话的对话状态：当前环节 + 已收集的数据。
// 状态始终显式传入各处理函数，不依赖任何全局可变会话
type DialogState struct {
	Step  Step              `json:"step"`
	Draft RegistrationDraft `json:"draft"`

	// 可用性更新时暂存的已选星期
	SelectedDays []string `json:"selected_days,omitempty"`
	// 管理员对话上下文
	ShiftID          int64  `json:"shift_id,omitempty"`
	TargetTelegramID int64  `json:"target_telegram_id,omitempty"`
	SettingKey       string `json:"setting_key,omitempty"`
	// 新建班次对话中暂存的时间（RFC3339）
	PendingDate string `json:"pending_date,omitempty"`
}

// DialogStore 对话状态存储接口
type DialogStore interface {
	// Get 读取会话状态；不存在时返回 (nil, nil)
	Get(ctx context.Context, chatID int64) (*DialogState, error)
	Set(ctx context.Context, chatID int64, state *DialogState) error
	Clear(ctx context.Context, chatID int64) error
}

// ── Redis 实现 ──

// 长时间无交互的对话状态自动过期
const dialogTTL = 24 * time.Hour

type redisDialogStore struct {
	client *redis.Client
}

// NewRedisDialogStore 创建基于 Redis 的对话状态存储
func NewRedisDialogStore(client *redis.Client) DialogStore {
	return &redisDialogStore{client: client}
}

func (s *redisDialogStore) Get(ctx context.Context, chatID int64) (*DialogState, error) {
	data, err := s.client.GetDialogState(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	var state DialogState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *redisDialogStore) Set(ctx context.Context, chatID int64, state *DialogState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.SetDialogState(ctx, chatID, data, dialogTTL)
}

func (s *redisDialogStore) Clear(ctx context.Context, chatID int64) error {
	return s.client.ClearDialogState(ctx, chatID)
}

// ── 内存实现（Redis 不可用时的降级方案）──

type memoryDialogStore struct {
	mu     sync.RWMutex
	states map[int64]*DialogState
}

// NewMemoryDialogStore 创建内存对话状态存储
func NewMemoryDialogStore() DialogStore {
	return &memoryDialogStore{states: make(map[int64]*DialogState)}
}

func (s *memoryDialogStore) Get(_ context.Context, chatID int64) (*DialogState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[chatID]
	if !ok {
		return nil, nil
	}
	clone := *state
	return &clone, nil
}

func (s *memoryDialogStore) Set(_ context.Context, chatID int64, state *DialogState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *state
	s.states[chatID] = &clone
	return nil
}

func (s *memoryDialogStore) Clear(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, chatID)
	return nil
}
