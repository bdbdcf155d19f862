package repository

import (
	"context"

	"github.com/commonapply/verification-backend/internal/app/model"
	"gorm.io/gorm"
)

// NotificationRepository 알림 저장소 인터페이스
type NotificationRepository interface {
	Create(ctx context.Context, notification *model.Notification) error
	FindByID(ctx context.Context, id string) (*model.Notification, error)
	FindForRecipient(ctx context.Context, userID string, role model.RecipientRole) ([]model.Notification, error)
	CountUnread(ctx context.Context, userID string, role model.RecipientRole) (int64, error)
	MarkAsRead(ctx context.Context, id string) error
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 알림 저장소 생성자
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *model.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *notificationRepository) FindByID(ctx context.Context, id string) (*model.Notification, error) {
	var notification model.Notification
	if err := r.db.WithContext(ctx).First(&notification, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &notification, nil
}

// recipientScope admin 알림은 역할 단위, 대학 알림은 수신자 ID까지 일치해야 함
func recipientScope(userID string, role model.RecipientRole) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("recipient_role = ?", role)
		if role == model.RecipientRoleUniversity {
			db = db.Where("recipient_id = ?", userID)
		}
		return db
	}
}

// FindForRecipient 수신자 알림 목록 (최신순)
func (r *notificationRepository) FindForRecipient(ctx context.Context, userID string, role model.RecipientRole) ([]model.Notification, error) {
	var notifications []model.Notification
	err := r.db.WithContext(ctx).
		Scopes(recipientScope(userID, role)).
		Order("created_at DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID string, role model.RecipientRole) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Scopes(recipientScope(userID, role)).
		Where("is_read = ?", false).
		Count(&count).Error
	return count, err
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ?", id).
		Update("is_read", true).Error
}
