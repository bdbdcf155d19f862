package notifier

import (
	"context"
	"errors"
	"testing"

	"github.com/commonapply/verification-backend/internal/app/model"
	"github.com/commonapply/verification-backend/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePusher struct {
	userErr  error
	users    []string
	roles    []string
	messages []interface{}
}

func (p *fakePusher) SendToUser(userID string, message interface{}) error {
	p.users = append(p.users, userID)
	p.messages = append(p.messages, message)
	return p.userErr
}

func (p *fakePusher) SendToRole(role string, message interface{}) (int, error) {
	p.roles = append(p.roles, role)
	p.messages = append(p.messages, message)
	return 1, nil
}

func TestHubSink_University(t *testing.T) {
	pusher := &fakePusher{}
	sink := NewHubSink(pusher)

	n := &model.Notification{ID: "n-1", RecipientRole: model.RecipientRoleUniversity, RecipientID: "uni-1"}
	require.NoError(t, sink.Deliver(context.Background(), n))

	assert.Equal(t, []string{"uni-1"}, pusher.users)
	assert.Empty(t, pusher.roles)

	msg, ok := pusher.messages[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "new_notification", msg["type"])
	assert.Equal(t, n, msg["notification"])
}

func TestHubSink_Admin(t *testing.T) {
	pusher := &fakePusher{}
	sink := NewHubSink(pusher)

	n := &model.Notification{ID: "n-1", RecipientRole: model.RecipientRoleAdmin}
	require.NoError(t, sink.Deliver(context.Background(), n))

	assert.Equal(t, []string{"system_admin", "admin"}, pusher.roles)
	assert.Empty(t, pusher.users)
}

func TestHubSink_OfflineIsNotAFailure(t *testing.T) {
	sink := NewHubSink(&fakePusher{userErr: websocket.ErrUserOffline})

	n := &model.Notification{ID: "n-1", RecipientRole: model.RecipientRoleUniversity, RecipientID: "uni-1"}
	assert.NoError(t, sink.Deliver(context.Background(), n))
}

func TestHubSink_MarshalErrorIsPermanent(t *testing.T) {
	sink := NewHubSink(&fakePusher{userErr: errors.New("json: unsupported value")})

	n := &model.Notification{ID: "n-1", RecipientRole: model.RecipientRoleUniversity, RecipientID: "uni-1"}
	assert.ErrorIs(t, sink.Deliver(context.Background(), n), ErrPermanent)
}
