package model

import (
	"time"
)

type NotificationType string

const (
	NotificationTypeNewRequest       NotificationType = "new_request"
	NotificationTypeStatusUpdate     NotificationType = "status_update"
	NotificationTypeApproval         NotificationType = "approval"
	NotificationTypeRejection        NotificationType = "rejection"
	NotificationTypeDocumentRequired NotificationType = "document_required"
)

type RecipientRole string

const (
	RecipientRoleAdmin      RecipientRole = "admin"
	RecipientRoleUniversity RecipientRole = "university"
)

// Notification 알림 모델
// Rows are history: the only mutation after creation is IsRead.
type Notification struct {
	ID string `gorm:"primaryKey;type:varchar(64)" json:"id"`

	Type    NotificationType `gorm:"type:varchar(30);not null;index" json:"type"`
	Title   string           `gorm:"type:text;not null" json:"title"`
	Message string           `gorm:"type:text;not null" json:"message"`

	// 수신자
	RecipientRole RecipientRole `gorm:"type:varchar(20);not null;index" json:"recipient_role"`
	RecipientID   string        `gorm:"type:varchar(64);index" json:"recipient_id,omitempty"`

	VerificationRequestID string   `gorm:"type:varchar(64);index" json:"verification_request_id"`
	Priority              Priority `gorm:"type:varchar(10);default:'medium'" json:"priority"`
	ActionURL             string   `gorm:"type:text" json:"action_url,omitempty"`

	IsRead    bool      `gorm:"default:false;index" json:"is_read"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
