package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/commonapply/verification-backend/internal/app/model"
	apperrors "github.com/commonapply/verification-backend/internal/errors"
	"github.com/commonapply/verification-backend/internal/middleware"
	ws "github.com/commonapply/verification-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notificationList struct {
	Notifications []model.Notification `json:"notifications"`
	Count         int                  `json:"count"`
}

func (f *controllerFixture) listNotifications(t *testing.T, token string) notificationList {
	t.Helper()

	w := f.do(t, http.MethodGet, "/notifications", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp notificationList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (f *controllerFixture) unreadCount(t *testing.T, token string) int64 {
	t.Helper()

	w := f.do(t, http.MethodGet, "/notifications/unread-count", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		UnreadCount int64 `json:"unread_count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.UnreadCount
}

func TestNotificationController_ListByAudience(t *testing.T) {
	f := setupControllerTest(t)
	f.submit(t, "univ-aau")

	universityToken := testToken(t, "univ-aau", model.RoleUniversity)
	adminToken := testToken(t, "reviewer-1", model.RoleSystemAdmin)

	uni := f.listNotifications(t, universityToken)
	require.Equal(t, 1, uni.Count)
	assert.Equal(t, model.NotificationTypeStatusUpdate, uni.Notifications[0].Type)
	assert.Equal(t, "univ-aau", uni.Notifications[0].RecipientID)

	admin := f.listNotifications(t, adminToken)
	require.Equal(t, 1, admin.Count)
	assert.Equal(t, model.NotificationTypeNewRequest, admin.Notifications[0].Type)

	other := f.listNotifications(t, testToken(t, "univ-other", model.RoleUniversity))
	assert.Zero(t, other.Count)

	w := f.do(t, http.MethodGet, "/notifications", testToken(t, "student-1", model.RoleStudent), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodGet, "/notifications", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNotificationController_MarkAsRead(t *testing.T) {
	f := setupControllerTest(t)
	f.submit(t, "univ-aau")

	universityToken := testToken(t, "univ-aau", model.RoleUniversity)
	adminToken := testToken(t, "reviewer-1", model.RoleSystemAdmin)

	own := f.listNotifications(t, universityToken).Notifications[0]
	adminOnly := f.listNotifications(t, adminToken).Notifications[0]

	assert.Equal(t, int64(1), f.unreadCount(t, universityToken))

	tests := []struct {
		name       string
		id         string
		token      string
		wantStatus int
		wantCode   string
	}{
		{name: "unknown", id: "missing", token: universityToken, wantStatus: http.StatusNotFound, wantCode: apperrors.NotificationNotFound},
		{name: "other audience", id: adminOnly.ID, token: universityToken, wantStatus: http.StatusForbidden, wantCode: apperrors.AuthzAccessDenied},
		{name: "other university", id: own.ID, token: testToken(t, "univ-other", model.RoleUniversity), wantStatus: http.StatusForbidden, wantCode: apperrors.AuthzAccessDenied},
		{name: "own", id: own.ID, token: universityToken, wantStatus: http.StatusOK},
		{name: "already read", id: own.ID, token: universityToken, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPut, "/notifications/"+tt.id+"/read", tt.token, nil)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeErrorCode(t, w))
				return
			}

			var resp struct {
				Notification model.Notification `json:"notification"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.True(t, resp.Notification.IsRead)
		})
	}

	assert.Zero(t, f.unreadCount(t, universityToken))
	assert.Equal(t, int64(1), f.unreadCount(t, adminToken))
}

func TestNotificationController_WebSocket(t *testing.T) {
	gin.SetMode(gin.TestMode)

	hub := ws.NewHub()
	go hub.Run()

	const origin = "http://localhost:3000"
	ctrl := NewNotificationController(nil, hub, []string{origin})
	authMiddleware := middleware.NewAuthMiddleware(testJWTSecret)

	router := gin.New()
	router.GET("/notifications/ws", authMiddleware.Authenticate(), ctrl.WebSocketHandler)

	server := httptest.NewServer(router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/notifications/ws?token="

	t.Run("rejects unknown origin", func(t *testing.T) {
		header := http.Header{"Origin": []string{"https://evil.example"}}
		_, resp, err := websocket.DefaultDialer.Dial(wsURL+testToken(t, "univ-aau", model.RoleUniversity), header)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("rejects missing token", func(t *testing.T) {
		header := http.Header{"Origin": []string{origin}}
		_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("delivers pushed messages", func(t *testing.T) {
		header := http.Header{"Origin": []string{origin}}
		conn, _, err := websocket.DefaultDialer.Dial(wsURL+testToken(t, "univ-aau", model.RoleUniversity), header)
		require.NoError(t, err)
		defer conn.Close()

		require.Eventually(t, func() bool {
			return hub.IsUserOnline("univ-aau")
		}, time.Second, 10*time.Millisecond)

		require.NoError(t, hub.SendToUser("univ-aau", map[string]string{"type": "new_notification"}))

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"new_notification"}`, string(data))
	})
}
