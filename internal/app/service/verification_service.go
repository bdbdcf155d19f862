package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/commonapply/verification-backend/internal/app/model"
	"github.com/commonapply/verification-backend/internal/app/repository"
	"github.com/commonapply/verification-backend/internal/lock"
	"github.com/commonapply/verification-backend/pkg/logger"
	"github.com/commonapply/verification-backend/pkg/util"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrVerificationNotFound  = errors.New("verification request not found")
	ErrDocumentNotFound      = model.ErrDocumentNotFound
	ErrInvalidTransition     = model.ErrInvalidTransition
	ErrInvalidDecision       = errors.New("decision must be approve or reject")
	ErrInvalidDocumentStatus = errors.New("invalid document status")
	ErrInvalidRegistration   = errors.New("invalid university registration")
	ErrDuplicateSubmission   = errors.New("university already has an open or approved verification request")
)

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// VerificationDecision is the reviewer's verdict on a request
type VerificationDecision struct {
	Decision   Decision `json:"decision" binding:"required,oneof=approve reject"`
	Notes      string   `json:"notes"`
	Conditions []string `json:"conditions"`
}

// VerificationReport 인증 현황 통계
type VerificationReport struct {
	TotalRequests int `json:"total_requests"`
	Pending       int `json:"pending"`
	UnderReview   int `json:"under_review"`
	Approved      int `json:"approved"`
	Rejected      int `json:"rejected"`

	// days from submission to decision
	AverageReviewTime float64 `json:"average_review_time"`
	// percentage of documents marked verified
	DocumentVerificationRate float64 `json:"document_verification_rate"`

	GeneratedAt time.Time `json:"generated_at"`
}

// DocumentURLBuilder builds the stored URL of a submitted document
type DocumentURLBuilder interface {
	DocumentURL(requestID, documentID, filename string) string
}

type VerificationService interface {
	SubmitVerificationRequest(ctx context.Context, data model.UniversityRegistration, files []model.UploadedFile) (string, error)
	StartReview(ctx context.Context, requestID, reviewerID string) error
	UpdateVerificationStatus(ctx context.Context, requestID string, decision VerificationDecision, reviewerID string) error
	UpdateDocumentStatus(ctx context.Context, requestID, documentID string, status model.DocumentStatus, notes string) (*model.VerificationRequest, error)

	GetVerificationRequest(ctx context.Context, id string) (*model.VerificationRequest, error)
	GetVerificationRequestByUniversityID(ctx context.Context, universityID string) (*model.VerificationRequest, error)
	GetVerificationRequests(ctx context.Context, filter repository.VerificationFilter) ([]model.VerificationRequest, error)
	GetNotifications(ctx context.Context, userID string, role model.RecipientRole) ([]model.Notification, error)
	IsUniversityVerified(ctx context.Context, universityID string) (bool, error)
	GetUniversityVerificationStatus(ctx context.Context, universityID string) (model.VerificationStatus, error)
	GenerateVerificationReport(ctx context.Context) (*VerificationReport, error)
	ExportVerificationReport(ctx context.Context) (*VerificationReport, []model.VerificationRequest, error)
}

type verificationService struct {
	repos         repository.Repositories
	tx            repository.Transactor
	notifications NotificationService
	urls          DocumentURLBuilder
	locker        lock.Locker
	now           func() time.Time
	newID         func() string
}

type VerificationOption func(*verificationService)

// WithClock replaces time.Now
func WithClock(now func() time.Time) VerificationOption {
	return func(s *verificationService) { s.now = now }
}

// WithIDGenerator replaces uuid generation
func WithIDGenerator(newID func() string) VerificationOption {
	return func(s *verificationService) { s.newID = newID }
}

func NewVerificationService(
	repos repository.Repositories,
	tx repository.Transactor,
	notifications NotificationService,
	urls DocumentURLBuilder,
	locker lock.Locker,
	opts ...VerificationOption,
) VerificationService {
	s := &verificationService{
		repos:         repos,
		tx:            tx,
		notifications: notifications,
		urls:          urls,
		locker:        locker,
		now:           func() time.Time { return time.Now().UTC() },
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// calculatePriority has no scoring rule yet; every request is medium.
func calculatePriority(model.UniversityRegistration) model.Priority {
	return model.PriorityMedium
}

func (s *verificationService) SubmitVerificationRequest(ctx context.Context, data model.UniversityRegistration, files []model.UploadedFile) (string, error) {
	if data.CollegeName == "" || data.Email == "" {
		return "", fmt.Errorf("%w: college name and email are required", ErrInvalidRegistration)
	}

	now := s.now()
	requestID := s.newID()

	universityID := data.ID
	if universityID == "" {
		universityID = s.newID()
	}

	var passwordHash string
	if data.Password != "" {
		hash, err := util.HashPassword(data.Password)
		if err != nil {
			return "", fmt.Errorf("failed to hash password: %w", err)
		}
		passwordHash = hash
	}

	stored := data
	stored.ID = universityID
	stored.Password = ""

	documents := make([]model.Document, 0, len(files))
	for i, f := range files {
		docID := s.newID()
		documents = append(documents, model.Document{
			ID:                    docID,
			VerificationRequestID: requestID,
			Position:              i,
			Type:                  model.InferDocumentType(f.Name),
			Name:                  f.Name,
			URL:                   s.urls.DocumentURL(requestID, docID, f.Name),
			Size:                  f.Size,
			Status:                model.DocumentStatusPending,
			UploadedAt:            now,
		})
	}

	req := &model.VerificationRequest{
		ID:             requestID,
		UniversityID:   universityID,
		UniversityName: data.CollegeName,
		AdminEmail:     data.Email,
		AdminName:      data.AdminName(),
		Status:         model.VerificationStatusPending,
		Priority:       calculatePriority(data),
		SubmittedAt:    now,
		UniversityData: datatypes.NewJSONType(stored),
		Documents:      documents,
	}
	notifications := s.submittedNotifications(req, now)

	profile := model.UserProfile{
		IsVerified:            false,
		VerificationStatus:    model.VerificationStatusPending,
		VerificationRequestID: requestID,
	}

	err := s.tx.WithinTransaction(ctx, func(repos repository.Repositories) error {
		if err := checkResubmission(ctx, repos, universityID, data.Email); err != nil {
			return err
		}
		if err := repos.Verifications.Create(ctx, req); err != nil {
			return err
		}

		// resubmission keeps the existing account
		_, err := repos.Users.FindByID(ctx, universityID)
		switch {
		case err == nil:
			if err := repos.Users.UpdateVerificationFlags(ctx, universityID, profile); err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			user := &model.User{
				ID:           universityID,
				Email:        data.Email,
				PasswordHash: passwordHash,
				Name:         data.CollegeName,
				Phone:        data.Phone1,
				Role:         model.RoleUniversity,
				Profile:      profile,
			}
			if err := repos.Users.Create(ctx, user); err != nil {
				return err
			}
		default:
			return err
		}

		return createNotifications(ctx, repos, notifications)
	})
	if errors.Is(err, ErrDuplicateSubmission) {
		logger.Warn("Verification submission refused", map[string]interface{}{
			"university_id": universityID,
			"email":         data.Email,
		})
		return "", err
	}
	if err != nil {
		logger.Error("Failed to submit verification request", err, map[string]interface{}{
			"university_id": universityID,
			"email":         data.Email,
		})
		return "", err
	}

	s.notifications.Dispatch(notifications...)

	logger.Info("Verification request submitted", map[string]interface{}{
		"request_id":    requestID,
		"university_id": universityID,
		"documents":     len(documents),
	})
	return requestID, nil
}

// checkResubmission allows a new request for an existing university id only
// when the account is a university account with the same email and its
// latest request was rejected.
func checkResubmission(ctx context.Context, repos repository.Repositories, universityID, email string) error {
	user, err := repos.Users.FindByID(ctx, universityID)
	switch {
	case err == nil:
		if user.Role != model.RoleUniversity || !strings.EqualFold(user.Email, email) {
			return ErrDuplicateSubmission
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	latest, err := repos.Verifications.FindLatestByUniversityID(ctx, universityID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	case err != nil:
		return err
	case latest.Status != model.VerificationStatusRejected:
		return ErrDuplicateSubmission
	}
	return nil
}

func (s *verificationService) StartReview(ctx context.Context, requestID, reviewerID string) error {
	_, err := s.mutate(ctx, requestID, func(repos repository.Repositories, req *model.VerificationRequest, now time.Time) ([]model.Notification, error) {
		if err := req.StartReview(reviewerID, now); err != nil {
			return nil, err
		}
		return []model.Notification{s.reviewStartedNotification(req, now)}, nil
	})
	if err != nil {
		return err
	}

	logger.Info("Verification review started", map[string]interface{}{
		"request_id":  requestID,
		"reviewer_id": reviewerID,
	})
	return nil
}

func (s *verificationService) UpdateVerificationStatus(ctx context.Context, requestID string, decision VerificationDecision, reviewerID string) error {
	if decision.Decision != DecisionApprove && decision.Decision != DecisionReject {
		return ErrInvalidDecision
	}

	req, err := s.mutate(ctx, requestID, func(repos repository.Repositories, req *model.VerificationRequest, now time.Time) ([]model.Notification, error) {
		var err error
		if decision.Decision == DecisionApprove {
			err = req.Approve(reviewerID, decision.Notes, decision.Conditions, now)
		} else {
			err = req.Reject(reviewerID, decision.Notes, now)
		}
		if err != nil {
			return nil, err
		}

		err = repos.Users.UpdateVerificationFlags(ctx, req.UniversityID, model.UserProfile{
			IsVerified:            req.Status == model.VerificationStatusApproved,
			VerificationStatus:    req.Status,
			VerificationRequestID: req.ID,
		})
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("No user account linked to verification request", map[string]interface{}{
				"request_id":    req.ID,
				"university_id": req.UniversityID,
			})
		} else if err != nil {
			return nil, err
		}

		return s.decisionNotifications(req, now), nil
	})
	if err != nil {
		return err
	}

	if req.Status == model.VerificationStatusApproved {
		s.grantAdminAccess(req)
	}

	logger.Info("Verification decision recorded", map[string]interface{}{
		"request_id":  requestID,
		"status":      req.Status,
		"reviewer_id": reviewerID,
	})
	return nil
}

// grantAdminAccess opens the university admin dashboard. Access is derived
// from the user profile, so this only records the event.
func (s *verificationService) grantAdminAccess(req *model.VerificationRequest) {
	logger.Info("Granted admin access to verified university", map[string]interface{}{
		"university_id": req.UniversityID,
		"admin_email":   req.AdminEmail,
	})
}

func (s *verificationService) UpdateDocumentStatus(ctx context.Context, requestID, documentID string, status model.DocumentStatus, notes string) (*model.VerificationRequest, error) {
	if !status.IsValid() {
		return nil, ErrInvalidDocumentStatus
	}

	return s.mutate(ctx, requestID, func(repos repository.Repositories, req *model.VerificationRequest, now time.Time) ([]model.Notification, error) {
		doc, err := req.ApplyDocumentStatus(documentID, status, notes)
		if err != nil {
			return nil, err
		}
		if err := repos.Verifications.UpdateDocument(ctx, doc); err != nil {
			return nil, err
		}

		if status == model.DocumentStatusRejected {
			return []model.Notification{s.documentRejectedNotification(req, doc, now)}, nil
		}
		return nil, nil
	})
}

type mutation func(repos repository.Repositories, req *model.VerificationRequest, now time.Time) ([]model.Notification, error)

// mutate loads, changes and saves one request under its lock. Notifications
// returned by fn are written in the same transaction and dispatched after commit.
func (s *verificationService) mutate(ctx context.Context, requestID string, fn mutation) (*model.VerificationRequest, error) {
	unlock, err := s.locker.Lock(ctx, "verification:"+requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock verification request: %w", err)
	}
	defer unlock()

	var (
		updated *model.VerificationRequest
		pending []model.Notification
	)
	err = s.tx.WithinTransaction(ctx, func(repos repository.Repositories) error {
		req, err := repos.Verifications.FindByID(ctx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVerificationNotFound
			}
			return err
		}

		notifications, err := fn(repos, req, s.now())
		if err != nil {
			return err
		}
		if err := repos.Verifications.Save(ctx, req); err != nil {
			return err
		}
		if err := createNotifications(ctx, repos, notifications); err != nil {
			return err
		}

		updated, pending = req, notifications
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrVerificationNotFound) && !errors.Is(err, ErrInvalidTransition) && !errors.Is(err, ErrDocumentNotFound) {
			logger.Error("Failed to update verification request", err, map[string]interface{}{
				"request_id": requestID,
			})
		}
		return nil, err
	}

	s.notifications.Dispatch(pending...)
	return updated, nil
}

func createNotifications(ctx context.Context, repos repository.Repositories, notifications []model.Notification) error {
	for i := range notifications {
		if err := repos.Notifications.Create(ctx, &notifications[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *verificationService) GetVerificationRequest(ctx context.Context, id string) (*model.VerificationRequest, error) {
	req, err := s.repos.Verifications.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVerificationNotFound
	}
	return req, err
}

func (s *verificationService) GetVerificationRequestByUniversityID(ctx context.Context, universityID string) (*model.VerificationRequest, error) {
	req, err := s.repos.Verifications.FindLatestByUniversityID(ctx, universityID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVerificationNotFound
	}
	return req, err
}

func (s *verificationService) GetVerificationRequests(ctx context.Context, filter repository.VerificationFilter) ([]model.VerificationRequest, error) {
	return s.repos.Verifications.FindAll(ctx, filter)
}

func (s *verificationService) GetNotifications(ctx context.Context, userID string, role model.RecipientRole) ([]model.Notification, error) {
	return s.notifications.GetNotifications(ctx, userID, role)
}

func (s *verificationService) IsUniversityVerified(ctx context.Context, universityID string) (bool, error) {
	req, err := s.GetVerificationRequestByUniversityID(ctx, universityID)
	if errors.Is(err, ErrVerificationNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return req.Status == model.VerificationStatusApproved, nil
}

func (s *verificationService) GetUniversityVerificationStatus(ctx context.Context, universityID string) (model.VerificationStatus, error) {
	req, err := s.GetVerificationRequestByUniversityID(ctx, universityID)
	if err != nil {
		return "", err
	}
	return req.Status, nil
}

func (s *verificationService) GenerateVerificationReport(ctx context.Context) (*VerificationReport, error) {
	report, _, err := s.ExportVerificationReport(ctx)
	return report, err
}

// ExportVerificationReport returns the report together with the requests it
// was computed from.
func (s *verificationService) ExportVerificationReport(ctx context.Context) (*VerificationReport, []model.VerificationRequest, error) {
	requests, err := s.repos.Verifications.FindAll(ctx, repository.VerificationFilter{})
	if err != nil {
		return nil, nil, err
	}
	return BuildVerificationReport(requests, s.now()), requests, nil
}

// BuildVerificationReport aggregates status counts, mean review time and
// the share of verified documents. Empty input yields zeros.
func BuildVerificationReport(requests []model.VerificationRequest, generatedAt time.Time) *VerificationReport {
	report := &VerificationReport{
		TotalRequests: len(requests),
		GeneratedAt:   generatedAt,
	}

	var (
		reviewed     int
		reviewDays   float64
		totalDocs    int
		verifiedDocs int
	)
	for _, req := range requests {
		switch req.Status {
		case model.VerificationStatusPending:
			report.Pending++
		case model.VerificationStatusUnderReview:
			report.UnderReview++
		case model.VerificationStatusApproved:
			report.Approved++
		case model.VerificationStatusRejected:
			report.Rejected++
		}

		if req.ReviewedAt != nil && !req.SubmittedAt.IsZero() {
			reviewed++
			reviewDays += req.ReviewedAt.Sub(req.SubmittedAt).Hours() / 24
		}

		for _, doc := range req.Documents {
			totalDocs++
			if doc.Status == model.DocumentStatusVerified {
				verifiedDocs++
			}
		}
	}

	if reviewed > 0 {
		report.AverageReviewTime = reviewDays / float64(reviewed)
	}
	if totalDocs > 0 {
		report.DocumentVerificationRate = float64(verifiedDocs) / float64(totalDocs) * 100
	}
	return report
}
