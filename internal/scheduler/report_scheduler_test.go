package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/commonapply/verification-backend/internal/app/model"
	"github.com/commonapply/verification-backend/internal/app/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReports struct {
	report *service.VerificationReport
	err    error
}

func (s *stubReports) GenerateVerificationReport(ctx context.Context) (*service.VerificationReport, error) {
	return s.report, s.err
}

type recordingNotifier struct {
	recorded []*model.Notification
	err      error
}

func (r *recordingNotifier) Record(ctx context.Context, n *model.Notification) error {
	r.recorded = append(r.recorded, n)
	return r.err
}

func TestReportScheduler_Run(t *testing.T) {
	report := &service.VerificationReport{TotalRequests: 4, Pending: 2, UnderReview: 1, Approved: 1}
	notifier := &recordingNotifier{}
	s := NewReportScheduler("", &stubReports{report: report}, notifier)

	assert.Nil(t, s.Latest())

	got, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Same(t, report, got)
	assert.Same(t, report, s.Latest())

	require.Len(t, notifier.recorded, 1)
	n := notifier.recorded[0]
	assert.Equal(t, model.RecipientRoleAdmin, n.RecipientRole)
	assert.Equal(t, model.NotificationTypeStatusUpdate, n.Type)
	assert.Contains(t, n.Message, "3 verification request(s)")
	assert.NotEmpty(t, n.ID)
}

func TestReportScheduler_RunWithoutBacklog(t *testing.T) {
	notifier := &recordingNotifier{}
	s := NewReportScheduler("", &stubReports{report: &service.VerificationReport{TotalRequests: 1, Approved: 1}}, notifier)

	_, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, notifier.recorded)
}

func TestReportScheduler_RunKeepsPreviousOnError(t *testing.T) {
	reports := &stubReports{report: &service.VerificationReport{TotalRequests: 1}}
	s := NewReportScheduler("", reports, nil)

	_, err := s.Run(context.Background())
	require.NoError(t, err)
	first := s.Latest()

	reports.err = errors.New("database unavailable")
	_, err = s.Run(context.Background())
	assert.Error(t, err)
	assert.Same(t, first, s.Latest())
}

func TestReportScheduler_NotifyFailureDoesNotFailRun(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("insert failed")}
	s := NewReportScheduler("", &stubReports{report: &service.VerificationReport{Pending: 1}}, notifier)

	_, err := s.Run(context.Background())
	assert.NoError(t, err)
	assert.Len(t, notifier.recorded, 1)
}

func TestReportScheduler_StartRejectsInvalidSpec(t *testing.T) {
	s := NewReportScheduler("not a cron spec", &stubReports{}, nil)
	assert.Error(t, s.Start())
}

func TestReportScheduler_StartStop(t *testing.T) {
	s := NewReportScheduler("@every 1h", &stubReports{report: &service.VerificationReport{}}, nil)
	require.NoError(t, s.Start())

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
