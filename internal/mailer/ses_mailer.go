package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/commonapply/verification-backend/config"
	"github.com/commonapply/verification-backend/internal/app/model"
	"github.com/commonapply/verification-backend/internal/notifier"
	"github.com/commonapply/verification-backend/pkg/logger"
	"gorm.io/gorm"
)

// EmailAPI is the part of the SES v2 client the mailer calls
type EmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// UserLookup resolves a university recipient to its account email
type UserLookup interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// SESMailer delivers notifications by email through Amazon SES
type SESMailer struct {
	client          EmailAPI
	users           UserLookup
	sender          string
	adminRecipients []string
	baseURL         string
}

func NewSESMailer(client EmailAPI, users UserLookup, cfg config.MailConfig) *SESMailer {
	return &SESMailer{
		client:          client,
		users:           users,
		sender:          cfg.Sender,
		adminRecipients: cfg.AdminRecipients,
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// NewSESClient builds an SES client from the default AWS credential chain
func NewSESClient(ctx context.Context, region string) (*sesv2.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return sesv2.NewFromConfig(cfg), nil
}

func (m *SESMailer) Name() string { return "email" }

func (m *SESMailer) Deliver(ctx context.Context, notification *model.Notification) error {
	recipients, err := m.recipients(ctx, notification)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		logger.Debug("No email recipients for notification", map[string]interface{}{
			"notification_id": notification.ID,
			"recipient_role":  notification.RecipientRole,
		})
		return nil
	}

	_, err = m.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.sender),
		Destination:      &types.Destination{ToAddresses: recipients},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(notification.Title), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(m.body(notification)), Charset: aws.String("UTF-8")},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send failed: %w", err)
	}

	logger.Info("Notification email sent", map[string]interface{}{
		"notification_id": notification.ID,
		"recipients":      len(recipients),
	})
	return nil
}

func (m *SESMailer) recipients(ctx context.Context, notification *model.Notification) ([]string, error) {
	if notification.RecipientRole == model.RecipientRoleAdmin {
		return m.adminRecipients, nil
	}

	user, err := m.users.FindByID(ctx, notification.RecipientID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notifier.Permanent(fmt.Errorf("recipient %s not found", notification.RecipientID))
	}
	if err != nil {
		return nil, err
	}
	if user.Email == "" {
		return nil, nil
	}
	return []string{user.Email}, nil
}

func (m *SESMailer) body(notification *model.Notification) string {
	var b strings.Builder
	b.WriteString(notification.Message)
	if notification.ActionURL != "" {
		b.WriteString("\n\n")
		b.WriteString(m.baseURL + notification.ActionURL)
	}
	b.WriteString("\n\nCommonApply")
	return b.String()
}
