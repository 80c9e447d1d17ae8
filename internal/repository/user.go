package repository

import (
	"context"
	"errors"
	"time"

	"github.com/akwaba-digital/auth-service/internal/model"
	"github.com/akwaba-digital/auth-service/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no user matches the lookup key.
var ErrNotFound = errors.New("user not found")

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID finds a user by primary key
func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User

	result := r.db.WithContext(ctx).Where("id = ?", id).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		logger.GetLogger().Error("Failed to get user by ID",
			zap.Uint("user_id", id),
			zap.Error(result.Error),
		)
		return nil, result.Error
	}

	return &user, nil
}

// GetByPhone finds a user by canonical phone number
func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*model.User, error) {
	var user model.User

	result := r.db.WithContext(ctx).Where("phone = ?", phone).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		logger.GetLogger().Error("Failed to get user by phone",
			zap.Error(result.Error),
		)
		return nil, result.Error
	}

	return &user, nil
}

// Create inserts a new user row. Phone uniqueness is enforced by the database
// constraint; a concurrent duplicate registration surfaces here as an error.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	start := time.Now()
	result := r.db.WithContext(ctx).Create(user)

	if result.Error != nil {
		logger.GetLogger().Error("Failed to create user",
			zap.Duration("duration", time.Since(start)),
			zap.Error(result.Error),
		)
		return result.Error
	}

	logger.GetLogger().Info("User created",
		zap.Uint("user_id", user.ID),
		zap.Duration("duration", time.Since(start)),
	)

	return nil
}

// SetVerificationCode overwrites the pending verification code and its expiry.
// Last writer wins; there is no optimistic locking on these fields.
func (r *UserRepository) SetVerificationCode(ctx context.Context, id uint, code string, expiresAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"verification_code":            code,
		"verification_code_expires_at": expiresAt,
	})

	if result.Error != nil {
		logger.GetLogger().Error("Failed to set verification code",
			zap.Uint("user_id", id),
			zap.Error(result.Error),
		)
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkVerified flips is_verified and clears the consumed code and expiry in one
// update.
func (r *UserRepository) MarkVerified(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"is_verified":                  true,
		"verification_code":            nil,
		"verification_code_expires_at": nil,
	})

	if result.Error != nil {
		logger.GetLogger().Error("Failed to mark user verified",
			zap.Uint("user_id", id),
			zap.Error(result.Error),
		)
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	logger.GetLogger().Info("User verified",
		zap.Uint("user_id", id),
	)

	return nil
}

// UpdatePassword replaces the stored password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, id uint, hashedPassword string) error {
	result := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("password", hashedPassword)

	if result.Error != nil {
		logger.GetLogger().Error("Failed to update user password",
			zap.Uint("user_id", id),
			zap.Error(result.Error),
		)
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	logger.GetLogger().Info("User password updated",
		zap.Uint("user_id", id),
	)

	return nil
}
