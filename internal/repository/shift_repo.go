package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"staffbot/internal/model"
)

// ShiftRepository 班次数据访问接口
type ShiftRepository interface {
	Create(ctx context.Context, shift *model.Shift) error
	GetByID(ctx context.Context, id int64) (*model.Shift, error)
	Update(ctx context.Context, shift *model.Shift) error
	// ListActive 列出活动班次；from 为 nil 时不限制起始时间，结果按时间升序
	ListActive(ctx context.Context, from *time.Time) ([]model.Shift, error)
}

// shiftRepo ShiftRepository 的 GORM 实现
type shiftRepo struct {
	db *gorm.DB
}

// NewShiftRepo 创建 ShiftRepository 实例
func NewShiftRepo(db *gorm.DB) ShiftRepository {
	return &shiftRepo{db: db}
}

func (r *shiftRepo) Create(ctx context.Context, shift *model.Shift) error {
	return r.db.WithContext(ctx).Create(shift).Error
}

func (r *shiftRepo) GetByID(ctx context.Context, id int64) (*model.Shift, error) {
	var shift model.Shift
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepo) Update(ctx context.Context, shift *model.Shift) error {
	return r.db.WithContext(ctx).Save(shift).Error
}

func (r *shiftRepo) ListActive(ctx context.Context, from *time.Time) ([]model.Shift, error) {
	var shifts []model.Shift
	db := r.db.WithContext(ctx).Where("is_active = ?", true)
	if from != nil {
		db = db.Where("date >= ?", *from)
	}
	if err := db.Order("date ASC").Find(&shifts).Error; err != nil {
		return nil, err
	}
	return shifts, nil
}
