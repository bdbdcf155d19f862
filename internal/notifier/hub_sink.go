package notifier

import (
	"context"
	"errors"

	"github.com/commonapply/verification-backend/internal/app/model"
	"github.com/commonapply/verification-backend/internal/websocket"
	"github.com/commonapply/verification-backend/pkg/logger"
)

// Pusher is the subset of websocket.Hub used for realtime delivery
type Pusher interface {
	SendToUser(userID string, message interface{}) error
	SendToRole(role string, message interface{}) (int, error)
}

// adminRoles are the user roles that receive admin-scoped notifications
var adminRoles = []model.UserRole{model.RoleSystemAdmin, model.RoleAdmin}

// HubSink pushes notifications to connected websocket sessions
type HubSink struct {
	hub Pusher
}

func NewHubSink(hub Pusher) *HubSink {
	return &HubSink{hub: hub}
}

func (s *HubSink) Name() string { return "websocket" }

func (s *HubSink) Deliver(ctx context.Context, notification *model.Notification) error {
	message := map[string]interface{}{
		"type":         "new_notification",
		"notification": notification,
	}

	if notification.RecipientRole == model.RecipientRoleAdmin {
		delivered := 0
		for _, role := range adminRoles {
			n, err := s.hub.SendToRole(string(role), message)
			if err != nil {
				return Permanent(err)
			}
			delivered += n
		}
		logger.Debug("Pushed admin notification", map[string]interface{}{
			"notification_id": notification.ID,
			"sessions":        delivered,
		})
		return nil
	}

	err := s.hub.SendToUser(notification.RecipientID, message)
	if errors.Is(err, websocket.ErrUserOffline) {
		// stored notification is fetched on next login
		return nil
	}
	if err != nil {
		return Permanent(err)
	}
	return nil
}
