package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"staffbot/internal/model"
)

// SettingRepository 系统设置数据访问接口
type SettingRepository interface {
	// Get 按 key 查询设置；不存在时返回 gorm.ErrRecordNotFound
	Get(ctx context.Context, key string) (*model.Setting, error)
	// Upsert 按 key 创建或覆盖设置
	Upsert(ctx context.Context, key, value string) (*model.Setting, error)
}

// settingRepo SettingRepository 的 GORM 实现
type settingRepo struct {
	db *gorm.DB
}

// NewSettingRepo 创建 SettingRepository 实例
func NewSettingRepo(db *gorm.DB) SettingRepository {
	return &settingRepo{db: db}
}

func (r *settingRepo) Get(ctx context.Context, key string) (*model.Setting, error) {
	var setting model.Setting
	err := r.db.WithContext(ctx).
		Where("key = ?", key).
		First(&setting).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *settingRepo) Upsert(ctx context.Context, key, value string) (*model.Setting, error) {
	setting := model.Setting{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&setting).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}
