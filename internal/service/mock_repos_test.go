package service

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"staffbot/internal/model"
	"staffbot/internal/repository"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users  []*model.User
	nextID int64
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{nextID: 1}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	user.ID = m.nextID
	m.nextID++
	m.users = append(m.users, user)
	return nil
}

func (m *mockUserRepo) GetByTelegramID(_ context.Context, telegramID int64) (*model.User, error) {
	for _, u := range m.users {
		if u.TelegramID == telegramID {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	for i, u := range m.users {
		if u.ID == user.ID {
			m.users[i] = user
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockUserRepo) List(_ context.Context, isRegistered *bool) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		if isRegistered != nil && u.IsRegistered != *isRegistered {
			continue
		}
		result = append(result, *u)
	}
	return result, nil
}

// ── Mock ShiftRepository ──

type mockShiftRepo struct {
	shifts map[int64]*model.Shift
	nextID int64
}

func newMockShiftRepo() *mockShiftRepo {
	return &mockShiftRepo{shifts: make(map[int64]*model.Shift), nextID: 1}
}

func (m *mockShiftRepo) Create(_ context.Context, shift *model.Shift) error {
	shift.ID = m.nextID
	m.nextID++
	m.shifts[shift.ID] = shift
	return nil
}

func (m *mockShiftRepo) GetByID(_ context.Context, id int64) (*model.Shift, error) {
	if s, ok := m.shifts[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftRepo) Update(_ context.Context, shift *model.Shift) error {
	if _, ok := m.shifts[shift.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.shifts[shift.ID] = shift
	return nil
}

func (m *mockShiftRepo) ListActive(_ context.Context, from *time.Time) ([]model.Shift, error) {
	var result []model.Shift
	for _, s := range m.shifts {
		if !s.IsActive {
			continue
		}
		if from != nil && s.Date.Before(*from) {
			continue
		}
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

// ── Mock AssignmentRepository ──

type mockAssignmentRepo struct {
	assignments []*model.ShiftAssignment
	nextID      int64

	users  *mockUserRepo
	shifts *mockShiftRepo
}

func newMockAssignmentRepo(users *mockUserRepo, shifts *mockShiftRepo) *mockAssignmentRepo {
	return &mockAssignmentRepo{nextID: 1, users: users, shifts: shifts}
}

func (m *mockAssignmentRepo) Create(_ context.Context, assignment *model.ShiftAssignment) error {
	// 模拟部分唯一索引：同一 (用户, 班次) 不允许第二条未取消记录
	for _, a := range m.assignments {
		if a.UserID == assignment.UserID && a.ShiftID == assignment.ShiftID && !a.IsCancelled {
			return gorm.ErrDuplicatedKey
		}
	}
	assignment.ID = m.nextID
	m.nextID++
	m.assignments = append(m.assignments, assignment)
	return nil
}

func (m *mockAssignmentRepo) GetActive(_ context.Context, userID, shiftID int64) (*model.ShiftAssignment, error) {
	for _, a := range m.assignments {
		if a.UserID == userID && a.ShiftID == shiftID && !a.IsCancelled {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAssignmentRepo) Update(_ context.Context, assignment *model.ShiftAssignment) error {
	for i, a := range m.assignments {
		if a.ID == assignment.ID {
			m.assignments[i] = assignment
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockAssignmentRepo) ListParticipants(_ context.Context, shiftID int64) ([]model.User, error) {
	var result []model.User
	for _, a := range m.assignments {
		if a.ShiftID != shiftID || a.IsCancelled {
			continue
		}
		for _, u := range m.users.users {
			if u.ID == a.UserID {
				result = append(result, *u)
			}
		}
	}
	return result, nil
}

func (m *mockAssignmentRepo) ListUserShifts(_ context.Context, userID int64, from *time.Time) ([]model.Shift, error) {
	var result []model.Shift
	for _, a := range m.assignments {
		if a.UserID != userID || a.IsCancelled {
			continue
		}
		s, ok := m.shifts.shifts[a.ShiftID]
		if !ok || !s.IsActive {
			continue
		}
		if from != nil && s.Date.Before(*from) {
			continue
		}
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

// ── Mock SettingRepository ──

type mockSettingRepo struct {
	settings map[string]*model.Setting
	nextID   int64
}

func newMockSettingRepo() *mockSettingRepo {
	return &mockSettingRepo{settings: make(map[string]*model.Setting), nextID: 1}
}

func (m *mockSettingRepo) Get(_ context.Context, key string) (*model.Setting, error) {
	if s, ok := m.settings[key]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSettingRepo) Upsert(_ context.Context, key, value string) (*model.Setting, error) {
	if s, ok := m.settings[key]; ok {
		s.Value = value
		s.UpdatedAt = time.Now().UTC()
		return s, nil
	}
	s := &model.Setting{ID: m.nextID, Key: key, Value: value}
	m.nextID++
	m.settings[key] = s
	return s, nil
}

// ── 测试用 Repository 组装 ──

// newTestRepository 用内存 Mock 组装 Repository；事务为直通实现
func newTestRepository() (*repository.Repository, *mockUserRepo, *mockShiftRepo, *mockAssignmentRepo) {
	users := newMockUserRepo()
	shifts := newMockShiftRepo()
	assignments := newMockAssignmentRepo(users, shifts)

	repo := &repository.Repository{
		User:       users,
		Shift:      shifts,
		Assignment: assignments,
		Setting:    newMockSettingRepo(),
	}
	repo.Transaction = func(ctx context.Context, fn func(*repository.Repository) error) error {
		return fn(repo)
	}
	return repo, users, shifts, assignments
}
