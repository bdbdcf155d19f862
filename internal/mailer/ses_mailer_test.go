package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/commonapply/verification-backend/config"
	"github.com/commonapply/verification-backend/internal/app/model"
	"github.com/commonapply/verification-backend/internal/notifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeSES struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

type fakeUsers map[string]*model.User

func (u fakeUsers) FindByID(ctx context.Context, id string) (*model.User, error) {
	if user, ok := u[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func newTestMailer(client EmailAPI) *SESMailer {
	users := fakeUsers{"uni-1": {ID: "uni-1", Email: "registrar@mu.edu.et"}}
	return NewSESMailer(client, users, config.MailConfig{
		Sender:          "no-reply@commonapply.et",
		AdminRecipients: []string{"verifications@commonapply.et"},
		BaseURL:         "https://commonapply.et/",
	})
}

func TestSESMailer_UniversityRecipient(t *testing.T) {
	ses := &fakeSES{}
	m := newTestMailer(ses)

	err := m.Deliver(context.Background(), &model.Notification{
		ID:            "n-1",
		Title:         "University Verified!",
		Message:       "Congratulations!",
		RecipientRole: model.RecipientRoleUniversity,
		RecipientID:   "uni-1",
		ActionURL:     "/admin/dashboard",
	})
	require.NoError(t, err)
	require.Len(t, ses.inputs, 1)

	in := ses.inputs[0]
	assert.Equal(t, "no-reply@commonapply.et", *in.FromEmailAddress)
	assert.Equal(t, []string{"registrar@mu.edu.et"}, in.Destination.ToAddresses)
	assert.Equal(t, "University Verified!", *in.Content.Simple.Subject.Data)
	assert.Contains(t, *in.Content.Simple.Body.Text.Data, "https://commonapply.et/admin/dashboard")
}

func TestSESMailer_AdminRecipients(t *testing.T) {
	ses := &fakeSES{}
	m := newTestMailer(ses)

	err := m.Deliver(context.Background(), &model.Notification{
		ID:            "n-1",
		Title:         "New University Verification Request",
		RecipientRole: model.RecipientRoleAdmin,
	})
	require.NoError(t, err)
	require.Len(t, ses.inputs, 1)
	assert.Equal(t, []string{"verifications@commonapply.et"}, ses.inputs[0].Destination.ToAddresses)
}

func TestSESMailer_NoAdminRecipientsSkips(t *testing.T) {
	ses := &fakeSES{}
	m := NewSESMailer(ses, fakeUsers{}, config.MailConfig{Sender: "no-reply@commonapply.et"})

	err := m.Deliver(context.Background(), &model.Notification{ID: "n-1", RecipientRole: model.RecipientRoleAdmin})
	require.NoError(t, err)
	assert.Empty(t, ses.inputs)
}

func TestSESMailer_UnknownUserIsPermanent(t *testing.T) {
	m := newTestMailer(&fakeSES{})

	err := m.Deliver(context.Background(), &model.Notification{
		ID:            "n-1",
		RecipientRole: model.RecipientRoleUniversity,
		RecipientID:   "uni-404",
	})
	assert.ErrorIs(t, err, notifier.ErrPermanent)
}

func TestSESMailer_SendFailureIsRetryable(t *testing.T) {
	m := newTestMailer(&fakeSES{err: errors.New("throttling")})

	err := m.Deliver(context.Background(), &model.Notification{
		ID:            "n-1",
		RecipientRole: model.RecipientRoleUniversity,
		RecipientID:   "uni-1",
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, notifier.ErrPermanent)
}
