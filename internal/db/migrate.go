package db

import (
	"errors"
	"os"

	"github.com/commonapply/verification-backend/internal/app/model"
	"github.com/commonapply/verification-backend/pkg/logger"
	"gorm.io/gorm"
)

// Models lists every table owned by the service, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.VerificationRequest{},
		&model.Document{},
		&model.Notification{},
	}
}

// Migrate runs database migrations
func Migrate() error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := DB.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// Seed adds initial data to the database (optional)
func Seed() error {
	return seedSystemAdmin(DB, os.Getenv("SYSTEM_ADMIN_EMAIL"))
}

// seedSystemAdmin 인증 심사용 시스템 관리자 계정 생성
func seedSystemAdmin(db *gorm.DB, email string) error {
	if email == "" {
		email = "admin@commonapply.et"
	}

	var existing model.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		logger.Info("System admin already seeded, skipping...", map[string]interface{}{
			"user_id": existing.ID,
		})
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	admin := &model.User{
		ID:    "system-admin",
		Email: email,
		Name:  "System Administrator",
		Role:  model.RoleSystemAdmin,
	}
	if err := db.Create(admin).Error; err != nil {
		logger.Error("Failed to seed system admin", err)
		return err
	}

	logger.Info("System admin seeded", map[string]interface{}{
		"email": email,
	})
	return nil
}
