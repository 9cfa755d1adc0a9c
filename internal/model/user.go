package model

import "time"

// 用户字段取值范围
const (
	CourseMin = 1
	CourseMax = 5
	RatingMin = 1
	RatingMax = 5

	// DefaultRating 新用户的初始评分
	DefaultRating = 3
)

// User 员工表 — 对应 users
type User struct {
	ID               int64       `gorm:"primaryKey;autoIncrement"            json:"id"`
	TelegramID       int64       `gorm:"not null;uniqueIndex"                json:"telegram_id"`
	FullName         string      `gorm:"type:varchar(255);not null"          json:"full_name"`
	Skills           string      `gorm:"type:text;not null;default:''"       json:"skills"`
	ExperienceShifts int         `gorm:"not null;default:0"                  json:"experience_shifts"`
	Course           int         `gorm:"type:smallint;not null"              json:"course"` // 1-5
	Phone            string      `gorm:"type:varchar(20);not null;default:''" json:"phone"`
	PreferredDays    StringArray `gorm:"type:text[]"                         json:"preferred_days"`
	Rating           int         `gorm:"type:smallint;not null;default:3"    json:"rating"` // 1-5
	IsRegistered     bool        `gorm:"not null;default:false"              json:"is_registered"`
	CreatedAt        time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP"  json:"created_at"`
	UpdatedAt        time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP"  json:"updated_at"`

	// 关联
	Assignments []ShiftAssignment `gorm:"foreignKey:UserID" json:"assignments,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }
