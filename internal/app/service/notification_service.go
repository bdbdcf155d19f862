package service

import (
	"context"
	"errors"

	"github.com/commonapply/verification-backend/internal/app/model"
	"github.com/commonapply/verification-backend/internal/app/repository"
	"github.com/commonapply/verification-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrNotificationNotFound     = errors.New("notification not found")
	ErrNotificationAccessDenied = errors.New("notification belongs to another recipient")
)

// NotificationDispatcher delivers persisted notifications asynchronously
type NotificationDispatcher interface {
	Enqueue(notification model.Notification) bool
}

// NotificationService 알림 서비스 인터페이스
type NotificationService interface {
	Record(ctx context.Context, notification *model.Notification) error
	Dispatch(notifications ...model.Notification)

	GetNotifications(ctx context.Context, userID string, role model.RecipientRole) ([]model.Notification, error)
	GetUnreadCount(ctx context.Context, userID string, role model.RecipientRole) (int64, error)
	MarkAsRead(ctx context.Context, notificationID, userID string, role model.RecipientRole) (*model.Notification, error)
}

type notificationService struct {
	repo       repository.NotificationRepository
	dispatcher NotificationDispatcher
}

// NewNotificationService 알림 서비스 생성자. dispatcher may be nil.
func NewNotificationService(repo repository.NotificationRepository, dispatcher NotificationDispatcher) NotificationService {
	return &notificationService{
		repo:       repo,
		dispatcher: dispatcher,
	}
}

// RecipientRoleFor maps an account role to the notification audience it reads
func RecipientRoleFor(role model.UserRole) (model.RecipientRole, bool) {
	switch role {
	case model.RoleSystemAdmin, model.RoleAdmin:
		return model.RecipientRoleAdmin, true
	case model.RoleUniversity:
		return model.RecipientRoleUniversity, true
	default:
		return "", false
	}
}

// Record persists a standalone notification and dispatches it
func (s *notificationService) Record(ctx context.Context, notification *model.Notification) error {
	if err := s.repo.Create(ctx, notification); err != nil {
		logger.Error("Failed to record notification", err, map[string]interface{}{
			"type":           notification.Type,
			"recipient_role": notification.RecipientRole,
		})
		return err
	}

	s.Dispatch(*notification)
	return nil
}

// Dispatch hands already persisted notifications to the delivery workers
func (s *notificationService) Dispatch(notifications ...model.Notification) {
	if s.dispatcher == nil {
		return
	}

	for _, n := range notifications {
		if !s.dispatcher.Enqueue(n) {
			logger.Warn("Notification not queued for delivery", map[string]interface{}{
				"notification_id": n.ID,
				"type":            n.Type,
			})
		}
	}
}

func (s *notificationService) GetNotifications(ctx context.Context, userID string, role model.RecipientRole) ([]model.Notification, error) {
	return s.repo.FindForRecipient(ctx, userID, role)
}

func (s *notificationService) GetUnreadCount(ctx context.Context, userID string, role model.RecipientRole) (int64, error) {
	return s.repo.CountUnread(ctx, userID, role)
}

// MarkAsRead 알림 읽음 처리
func (s *notificationService) MarkAsRead(ctx context.Context, notificationID, userID string, role model.RecipientRole) (*model.Notification, error) {
	notification, err := s.repo.FindByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}

	// 권한 확인
	if notification.RecipientRole != role ||
		(role == model.RecipientRoleUniversity && notification.RecipientID != userID) {
		logger.Warn("Notification access denied", map[string]interface{}{
			"notification_id": notificationID,
			"user_id":         userID,
		})
		return nil, ErrNotificationAccessDenied
	}

	if notification.IsRead {
		return notification, nil
	}

	if err := s.repo.MarkAsRead(ctx, notificationID); err != nil {
		return nil, err
	}

	notification.IsRead = true
	return notification, nil
}
