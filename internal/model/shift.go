package model

import "time"

// Shift 班次表 — 对应 shifts
// 班次永不物理删除：归档仅将 is_active 置为 false，历史记录全部保留
type Shift struct {
	ID            int64     `gorm:"primaryKey;autoIncrement"           json:"id"`
	Date          time.Time `gorm:"not null;index"                     json:"date"`
	Description   string    `gorm:"type:text;not null;default:''"      json:"description"`
	CompletedInfo string    `gorm:"type:text;not null;default:''"      json:"completed_info"` // 班次完成后的工作记录
	IsActive      bool      `gorm:"not null;default:true"              json:"is_active"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	// 关联
	Assignments []ShiftAssignment `gorm:"foreignKey:ShiftID" json:"assignments,omitempty"`
}

// TableName 指定表名
func (Shift) TableName() string { return "shifts" }

// ShiftAssignment 报名记录表 — 对应 shift_assignments
// 同一 (用户, 班次) 最多存在一条 is_cancelled=false 的记录；
// 取消后重新报名会插入新行，旧行永久保留作为审计痕迹
type ShiftAssignment struct {
	ID          int64      `gorm:"primaryKey;autoIncrement"           json:"id"`
	UserID      int64      `gorm:"not null"                           json:"user_id"`
	ShiftID     int64      `gorm:"not null"                           json:"shift_id"`
	CreatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	IsCancelled bool       `gorm:"not null;default:false"             json:"is_cancelled"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	// 关联
	User  *User  `gorm:"foreignKey:UserID;references:ID"  json:"user,omitempty"`
	Shift *Shift `gorm:"foreignKey:ShiftID;references:ID" json:"shift,omitempty"`
}

// TableName 指定表名
func (ShiftAssignment) TableName() string { return "shift_assignments" }
