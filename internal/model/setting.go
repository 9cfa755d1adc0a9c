package model

import "time"

// Setting 系统设置表 — 对应 settings（key/value，按 key 覆盖写入）
type Setting struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"           json:"id"`
	Key       string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"key"`
	Value     string    `gorm:"type:text;not null;default:''"      json:"value"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName 指定表名
func (Setting) TableName() string { return "settings" }
