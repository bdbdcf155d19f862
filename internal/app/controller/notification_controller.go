package controller

import (
	"errors"
	"net/http"

	"github.com/commonapply/verification-backend/internal/app/model"
	"github.com/commonapply/verification-backend/internal/app/service"
	apperrors "github.com/commonapply/verification-backend/internal/errors"
	"github.com/commonapply/verification-backend/internal/middleware"
	ws "github.com/commonapply/verification-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// NotificationController 알림 컨트롤러
type NotificationController struct {
	service  service.NotificationService
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

// NewNotificationController 알림 컨트롤러 생성자.
// Websocket upgrades are accepted only from allowedOrigins.
func NewNotificationController(service service.NotificationService, hub *ws.Hub, allowedOrigins []string) *NotificationController {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	return &NotificationController{
		service: service,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return origins[r.Header.Get("Origin")]
			},
		},
	}
}

// recipient resolves the caller's notification audience
func recipient(c *gin.Context) (string, model.RecipientRole, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return "", "", false
	}

	userRole, _ := middleware.GetUserRole(c)
	role, ok := service.RecipientRoleFor(userRole)
	if !ok {
		apperrors.Forbidden(c, "Notifications are not available for this account")
		return "", "", false
	}
	return userID, role, true
}

// GetNotifications GET /api/v1/notifications
func (ctrl *NotificationController) GetNotifications(c *gin.Context) {
	userID, role, ok := recipient(c)
	if !ok {
		return
	}

	notifications, err := ctrl.service.GetNotifications(c.Request.Context(), userID, role)
	if err != nil {
		apperrors.ParseAndRespond(c, err, "list notification")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"count":         len(notifications),
	})
}

// GetUnreadCount GET /api/v1/notifications/unread-count
func (ctrl *NotificationController) GetUnreadCount(c *gin.Context) {
	userID, role, ok := recipient(c)
	if !ok {
		return
	}

	count, err := ctrl.service.GetUnreadCount(c.Request.Context(), userID, role)
	if err != nil {
		apperrors.ParseAndRespond(c, err, "count notification")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"unread_count": count,
	})
}

// MarkAsRead PUT /api/v1/notifications/:id/read
func (ctrl *NotificationController) MarkAsRead(c *gin.Context) {
	userID, role, ok := recipient(c)
	if !ok {
		return
	}

	notification, err := ctrl.service.MarkAsRead(c.Request.Context(), c.Param("id"), userID, role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotificationNotFound):
			apperrors.NotFound(c, apperrors.NotificationNotFound, "Notification not found")
		case errors.Is(err, service.ErrNotificationAccessDenied):
			apperrors.RespondWithError(c, http.StatusForbidden, apperrors.AuthzAccessDenied, "This notification belongs to another account")
		default:
			apperrors.ParseAndRespond(c, err, "update notification")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notification": notification,
	})
}

// WebSocketHandler GET /api/v1/notifications/ws
// The token arrives as a query parameter and is never logged.
func (ctrl *NotificationController) WebSocketHandler(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}
	role, _ := middleware.GetUserRole(c)

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err)
		return
	}

	ws.NewClient(ctrl.hub, conn, userID, string(role)).Serve()

	log.Info("WebSocket connection established", map[string]interface{}{
		"user_id": userID,
		"role":    role,
	})
}
