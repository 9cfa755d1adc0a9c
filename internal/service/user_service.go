package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"staffbot/internal/model"
	"staffbot/internal/repository"
)

// ── 用户模块业务错误 ──

var (
	ErrUserNotFound      = errors.New("用户不存在")
	ErrUserExists        = errors.New("用户已存在")
	ErrInvalidCourse     = errors.New("年级必须在 1-5 之间")
	ErrInvalidRating     = errors.New("评分必须在 1-5 之间")
	ErrInvalidExperience = errors.New("值班经验次数不能为负数")
)

// RegisterRequest 完成入职对话后收集到的全部资料
type RegisterRequest struct {
	TelegramID       int64
	FullName         string
	Skills           string
	ExperienceShifts int
	Course           int
	Phone            string
	PreferredDays    []string
}

// UserUpdate 部分更新用户资料；nil 字段不修改
type UserUpdate struct {
	FullName         *string
	Skills           *string
	ExperienceShifts *int
	Course           *int
	Phone            *string
	PreferredDays    []string
}

// UserService 用户业务接口
type UserService interface {
	// Create 创建新用户；telegram_id 已存在时返回 ErrUserExists
	Create(ctx context.Context, req *RegisterRequest) (*model.User, error)
	// Register 入职登记：不存在则创建，已存在则用新资料覆盖（同一身份重新登记）
	Register(ctx context.Context, req *RegisterRequest) (*model.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	// Update 部分更新资料；用户不存在时返回 ErrUserNotFound
	Update(ctx context.Context, telegramID int64, upd *UserUpdate) (*model.User, error)
	// SetRating 修改评分，范围外返回 ErrInvalidRating 且不改动原值
	SetRating(ctx context.Context, telegramID int64, rating int) (*model.User, error)
	// UpdatePreferredDays 更新偏好值班日（每周可用性）；
	// 传 nil 等同于清空，表示本周没有可用时间
	UpdatePreferredDays(ctx context.Context, telegramID int64, days []string) (*model.User, error)
	// ListRegistered 列出所有已完成登记的用户（群发收件人）
	ListRegistered(ctx context.Context) ([]model.User, error)
	List(ctx context.Context) ([]model.User, error)
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// validateRegister 校验登记资料的字段范围
func validateRegister(req *RegisterRequest) error {
	if req.Course < model.CourseMin || req.Course > model.CourseMax {
		return ErrInvalidCourse
	}
	if req.ExperienceShifts < 0 {
		return ErrInvalidExperience
	}
	return nil
}

func (s *userService) Create(ctx context.Context, req *RegisterRequest) (*model.User, error) {
	if err := validateRegister(req); err != nil {
		return nil, err
	}

	// 检查身份唯一性
	if _, err := s.repo.User.GetByTelegramID(ctx, req.TelegramID); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user := newUserFromRequest(req)
	if err := s.repo.User.Create(ctx, user); err != nil {
		s.logger.Error("创建用户失败", zap.Int64("telegram_id", req.TelegramID), zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (s *userService) Register(ctx context.Context, req *RegisterRequest) (*model.User, error) {
	if err := validateRegister(req); err != nil {
		return nil, err
	}

	existing, err := s.repo.User.GetByTelegramID(ctx, req.TelegramID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		// 首次登记
		user := newUserFromRequest(req)
		if err := s.repo.User.Create(ctx, user); err != nil {
			s.logger.Error("登记用户失败", zap.Int64("telegram_id", req.TelegramID), zap.Error(err))
			return nil, err
		}
		s.logger.Info("新用户完成登记", zap.Int64("telegram_id", req.TelegramID))
		return user, nil
	}

	// 重新登记：覆盖资料，保留既有评分
	existing.FullName = req.FullName
	existing.Skills = req.Skills
	existing.ExperienceShifts = req.ExperienceShifts
	existing.Course = req.Course
	existing.Phone = req.Phone
	existing.PreferredDays = req.PreferredDays
	existing.IsRegistered = true
	existing.UpdatedAt = time.Now().UTC()

	if err := s.repo.User.Update(ctx, existing); err != nil {
		s.logger.Error("更新登记资料失败", zap.Int64("telegram_id", req.TelegramID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("用户重新登记", zap.Int64("telegram_id", req.TelegramID))
	return existing, nil
}

func (s *userService) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := s.repo.User.GetByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Int64("telegram_id", telegramID), zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (s *userService) Update(ctx context.Context, telegramID int64, upd *UserUpdate) (*model.User, error) {
	user, err := s.repo.User.GetByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// 仅应用非 nil 字段
	if upd.FullName != nil {
		user.FullName = *upd.FullName
	}
	if upd.Skills != nil {
		user.Skills = *upd.Skills
	}
	if upd.ExperienceShifts != nil {
		if *upd.ExperienceShifts < 0 {
			return nil, ErrInvalidExperience
		}
		user.ExperienceShifts = *upd.ExperienceShifts
	}
	if upd.Course != nil {
		if *upd.Course < model.CourseMin || *upd.Course > model.CourseMax {
			return nil, ErrInvalidCourse
		}
		user.Course = *upd.Course
	}
	if upd.Phone != nil {
		user.Phone = *upd.Phone
	}
	if upd.PreferredDays != nil {
		user.PreferredDays = upd.PreferredDays
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新用户失败", zap.Int64("telegram_id", telegramID), zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (s *userService) SetRating(ctx context.Context, telegramID int64, rating int) (*model.User, error) {
	if rating < model.RatingMin || rating > model.RatingMax {
		return nil, ErrInvalidRating
	}

	user, err := s.repo.User.GetByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	user.Rating = rating
	user.UpdatedAt = time.Now().UTC()

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("修改评分失败", zap.Int64("telegram_id", telegramID), zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (s *userService) UpdatePreferredDays(ctx context.Context, telegramID int64, days []string) (*model.User, error) {
	// nil 视为清空：取消所有勾选后保存，意味着本周不可用
	if days == nil {
		days = []string{}
	}
	return s.Update(ctx, telegramID, &UserUpdate{PreferredDays: days})
}

func (s *userService) ListRegistered(ctx context.Context) ([]model.User, error) {
	registered := true
	return s.repo.User.List(ctx, &registered)
}

func (s *userService) List(ctx context.Context) ([]model.User, error) {
	return s.repo.User.List(ctx, nil)
}

// newUserFromRequest 由登记资料构造用户实体（评分取默认值）
func newUserFromRequest(req *RegisterRequest) *model.User {
	now := time.Now().UTC()
	return &model.User{
		TelegramID:       req.TelegramID,
		FullName:         req.FullName,
		Skills:           req.Skills,
		ExperienceShifts: req.ExperienceShifts,
		Course:           req.Course,
		Phone:            req.Phone,
		PreferredDays:    req.PreferredDays,
		Rating:           model.DefaultRating,
		IsRegistered:     true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}
