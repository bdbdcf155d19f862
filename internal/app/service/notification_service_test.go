package service

import (
	"context"
	"testing"
	"time"

	"github.com/commonapply/verification-backend/internal/app/model"
	"github.com/commonapply/verification-backend/internal/app/repository"
	"github.com/commonapply/verification-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupNotificationService(t *testing.T) (NotificationService, *recordingDispatcher) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	dispatcher := &recordingDispatcher{}
	return NewNotificationService(repository.NewNotificationRepository(testDB), dispatcher), dispatcher
}

func TestNotificationService_RecordDispatches(t *testing.T) {
	svc, dispatcher := setupNotificationService(t)
	ctx := context.Background()

	n := &model.Notification{
		ID:            "n-1",
		Type:          model.NotificationTypeStatusUpdate,
		Title:         "Daily verification report",
		Message:       "3 requests pending",
		RecipientRole: model.RecipientRoleAdmin,
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, svc.Record(ctx, n))

	queued := dispatcher.all()
	require.Len(t, queued, 1)
	assert.Equal(t, "n-1", queued[0].ID)

	count, err := svc.GetUnreadCount(ctx, "system-admin", model.RecipientRoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestNotificationService_MarkAsRead(t *testing.T) {
	svc, _ := setupNotificationService(t)
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, &model.Notification{
		ID:            "n-uni",
		Type:          model.NotificationTypeApproval,
		Title:         "University Verified!",
		Message:       "Congratulations!",
		RecipientRole: model.RecipientRoleUniversity,
		RecipientID:   "uni-1",
		CreatedAt:     time.Now().UTC(),
	}))

	tests := []struct {
		name    string
		id      string
		userID  string
		role    model.RecipientRole
		wantErr error
	}{
		{"other university", "n-uni", "uni-2", model.RecipientRoleUniversity, ErrNotificationAccessDenied},
		{"admin reading a university notification", "n-uni", "system-admin", model.RecipientRoleAdmin, ErrNotificationAccessDenied},
		{"missing", "n-404", "uni-1", model.RecipientRoleUniversity, ErrNotificationNotFound},
		{"owner", "n-uni", "uni-1", model.RecipientRoleUniversity, nil},
		{"owner again is a no-op", "n-uni", "uni-1", model.RecipientRoleUniversity, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := svc.MarkAsRead(ctx, tt.id, tt.userID, tt.role)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, n.IsRead)
		})
	}

	count, err := svc.GetUnreadCount(ctx, "uni-1", model.RecipientRoleUniversity)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestRecipientRoleFor(t *testing.T) {
	tests := []struct {
		role   model.UserRole
		want   model.RecipientRole
		wantOK bool
	}{
		{model.RoleSystemAdmin, model.RecipientRoleAdmin, true},
		{model.RoleAdmin, model.RecipientRoleAdmin, true},
		{model.RoleUniversity, model.RecipientRoleUniversity, true},
		{model.RoleStudent, "", false},
	}

	for _, tt := range tests {
		got, ok := RecipientRoleFor(tt.role)
		assert.Equal(t, tt.want, got, tt.role)
		assert.Equal(t, tt.wantOK, ok, tt.role)
	}
}
