package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"staffbot/internal/model"
)

// AssignmentRepository 报名记录数据访问接口
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *model.ShiftAssignment) error
	// GetActive 查找 (用户, 班次) 的未取消报名记录；不存在时返回 gorm.ErrRecordNotFound
	GetActive(ctx context.Context, userID, shiftID int64) (*model.ShiftAssignment, error)
	Update(ctx context.Context, assignment *model.ShiftAssignment) error
	// ListParticipants 列出某班次所有未取消报名的用户
	ListParticipants(ctx context.Context, shiftID int64) ([]model.User, error)
	// ListUserShifts 列出用户持有未取消报名的活动班次；from 为 nil 时不限制起始时间
	ListUserShifts(ctx context.Context, userID int64, from *time.Time) ([]model.Shift, error)
}

// assignmentRepo AssignmentRepository 的 GORM 实现
type assignmentRepo struct {
	db *gorm.DB
}

// NewAssignmentRepo 创建 AssignmentRepository 实例
func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

func (r *assignmentRepo) Create(ctx context.Context, assignment *model.ShiftAssignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepo) GetActive(ctx context.Context, userID, shiftID int64) (*model.ShiftAssignment, error) {
	var assignment model.ShiftAssignment
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND shift_id = ? AND is_cancelled = ?", userID, shiftID, false).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepo) Update(ctx context.Context, assignment *model.ShiftAssignment) error {
	return r.db.WithContext(ctx).Save(assignment).Error
}

func (r *assignmentRepo) ListParticipants(ctx context.Context, shiftID int64) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Joins("JOIN shift_assignments sa ON sa.user_id = users.id").
		Where("sa.shift_id = ? AND sa.is_cancelled = ?", shiftID, false).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *assignmentRepo) ListUserShifts(ctx context.Context, userID int64, from *time.Time) ([]model.Shift, error) {
	var shifts []model.Shift
	db := r.db.WithContext(ctx).
		Model(&model.Shift{}).
		Joins("JOIN shift_assignments sa ON sa.shift_id = shifts.id").
		Where("sa.user_id = ? AND sa.is_cancelled = ?", userID, false).
		Where("shifts.is_active = ?", true)
	if from != nil {
		db = db.Where("shifts.date >= ?", *from)
	}
	if err := db.Order("shifts.date ASC").Find(&shifts).Error; err != nil {
		return nil, err
	}
	return shifts, nil
}
