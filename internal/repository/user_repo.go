package repository

import (
	"context"

	"gorm.io/gorm"

	"staffbot/internal/model"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	// List 列出用户；isRegistered 为 nil 时不过滤注册状态
	List(ctx context.Context, isRegistered *bool) ([]model.User, error)
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("telegram_id = ?", telegramID).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepo) List(ctx context.Context, isRegistered *bool) ([]model.User, error) {
	var users []model.User
	db := r.db.WithContext(ctx).Model(&model.User{})
	if isRegistered != nil {
		db = db.Where("is_registered = ?", *isRegistered)
	}
	if err := db.Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
