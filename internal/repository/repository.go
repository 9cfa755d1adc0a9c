package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User       UserRepository
	Shift      ShiftRepository
	Assignment AssignmentRepository
	Setting    SettingRepository

	// Transaction 在单个数据库事务内执行 fn，fn 收到绑定事务连接的
	// Repository 副本；fn 返回错误时回滚，否则提交。
	// 保留为字段以便测试注入直通实现
	Transaction func(ctx context.Context, fn func(*Repository) error) error

	db *gorm.DB
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	r := &Repository{
		User:       NewUserRepo(db),
		Shift:      NewShiftRepo(db),
		Assignment: NewAssignmentRepo(db),
		Setting:    NewSettingRepo(db),
		db:         db,
	}
	r.Transaction = func(ctx context.Context, fn func(*Repository) error) error {
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(NewRepository(tx))
		})
	}
	return r
}
