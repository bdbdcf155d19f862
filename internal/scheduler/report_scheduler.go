package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/commonapply/verification-backend/internal/app/model"
	"github.com/commonapply/verification-backend/internal/app/service"
	"github.com/commonapply/verification-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

const (
	DefaultReportSpec = "0 6 * * *"

	backlogActionURL = "/system-admin/verifications"
	runTimeout       = time.Minute
)

// ReportGenerator builds the aggregate verification report
type ReportGenerator interface {
	GenerateVerificationReport(ctx context.Context) (*service.VerificationReport, error)
}

// NotificationRecorder persists and dispatches a standalone notification
type NotificationRecorder interface {
	Record(ctx context.Context, notification *model.Notification) error
}

// ReportScheduler 인증 현황 리포트 주기 생성 스케줄러
type ReportScheduler struct {
	cron     *cron.Cron
	spec     string
	reports  ReportGenerator
	notifier NotificationRecorder
	now      func() time.Time

	mu     sync.RWMutex
	latest *service.VerificationReport
}

// NewReportScheduler 리포트 스케줄러 생성. notifier may be nil.
func NewReportScheduler(spec string, reports ReportGenerator, notifier NotificationRecorder) *ReportScheduler {
	if spec == "" {
		spec = DefaultReportSpec
	}
	return &ReportScheduler{
		cron:     cron.New(),
		spec:     spec,
		reports:  reports,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start 스케줄러 시작
func (s *ReportScheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		if _, err := s.Run(ctx); err != nil {
			logger.Error("Scheduled verification report failed", err)
		}
	})
	if err != nil {
		logger.Error("Failed to add cron job for verification report", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Verification report scheduler started", map[string]interface{}{
		"spec": s.spec,
	})
	return nil
}

// Stop 스케줄러 중지. Waits for a running job to finish.
func (s *ReportScheduler) Stop() {
	logger.Info("Stopping verification report scheduler...", nil)
	<-s.cron.Stop().Done()
	logger.Info("Verification report scheduler stopped", nil)
}

// Run generates one report snapshot and stores it as the latest.
func (s *ReportScheduler) Run(ctx context.Context) (*service.VerificationReport, error) {
	report, err := s.reports.GenerateVerificationReport(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.latest = report
	s.mu.Unlock()

	logger.Info("Verification report generated", map[string]interface{}{
		"total":                      report.TotalRequests,
		"pending":                    report.Pending,
		"under_review":               report.UnderReview,
		"approved":                   report.Approved,
		"rejected":                   report.Rejected,
		"average_review_time_days":   report.AverageReviewTime,
		"document_verification_rate": report.DocumentVerificationRate,
	})

	s.notifyBacklog(ctx, report)
	return report, nil
}

// Latest returns the most recent snapshot, or nil before the first run.
func (s *ReportScheduler) Latest() *service.VerificationReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

func (s *ReportScheduler) notifyBacklog(ctx context.Context, report *service.VerificationReport) {
	open := report.Pending + report.UnderReview
	if s.notifier == nil || open == 0 {
		return
	}

	n := &model.Notification{
		ID:            uuid.NewString(),
		Type:          model.NotificationTypeStatusUpdate,
		Title:         "Verification Backlog",
		Message:       fmt.Sprintf("%d verification request(s) are awaiting a decision (%d pending, %d under review).", open, report.Pending, report.UnderReview),
		RecipientRole: model.RecipientRoleAdmin,
		Priority:      model.PriorityLow,
		ActionURL:     backlogActionURL,
		CreatedAt:     s.now(),
	}
	if err := s.notifier.Record(ctx, n); err != nil {
		logger.Warn("Failed to record backlog notification", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
