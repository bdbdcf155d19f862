package repository

import (
	"context"

	"github.com/commonapply/verification-backend/internal/app/model"
	"github.com/commonapply/verification-backend/pkg/logger"
	"gorm.io/gorm"
)

// UserDirectory is the narrow view of the user store the verification
// workflow depends on.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	UpdateVerificationFlags(ctx context.Context, id string, profile model.UserProfile) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserDirectory {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	logger.Debug("Creating user in database", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		logger.Error("Failed to create user in database", err, map[string]interface{}{
			"email": user.Email,
		})
		return err
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateVerificationFlags overwrites the verification part of the profile
func (r *userRepository) UpdateVerificationFlags(ctx context.Context, id string, profile model.UserProfile) error {
	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"profile_is_verified":             profile.IsVerified,
			"profile_verification_status":     profile.VerificationStatus,
			"profile_verification_request_id": profile.VerificationRequestID,
		})
	if result.Error != nil {
		logger.Error("Failed to update verification flags", result.Error, map[string]interface{}{
			"user_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	logger.Debug("User verification flags updated", map[string]interface{}{
		"user_id":             id,
		"is_verified":         profile.IsVerified,
		"verification_status": profile.VerificationStatus,
	})
	return nil
}
