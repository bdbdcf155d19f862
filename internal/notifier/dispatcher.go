package notifier

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/commonapply/verification-backend/internal/app/model"
	"github.com/commonapply/verification-backend/pkg/logger"
)

const maxBackoff = 30 * time.Second

// ErrPermanent marks a delivery failure that retrying cannot fix
var ErrPermanent = errors.New("permanent delivery failure")

// Permanent wraps err so the dispatcher dead-letters it without retrying
func Permanent(err error) error {
	return &permanentError{err: err}
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() []error { return []error{ErrPermanent, e.err} }

// Sink delivers a recorded notification over one channel (websocket, email)
type Sink interface {
	Name() string
	Deliver(ctx context.Context, notification *model.Notification) error
}

type Config struct {
	Workers     int
	QueueSize   int
	MaxAttempts int
	BaseBackoff time.Duration
}

// DeadLetter is a delivery that exhausted its attempts
type DeadLetter struct {
	NotificationID string    `json:"notification_id"`
	Sink           string    `json:"sink"`
	Attempts       int       `json:"attempts"`
	Error          string    `json:"error"`
	FailedAt       time.Time `json:"failed_at"`
}

// Dispatcher fans recorded notifications out to sinks on a worker pool
type Dispatcher struct {
	cfg   Config
	sinks []Sink
	queue chan model.Notification

	wg      sync.WaitGroup
	cancel  context.CancelFunc
	mu      sync.Mutex
	stopped bool

	deadMu      sync.Mutex
	deadLetters []DeadLetter
}

func NewDispatcher(cfg Config, sinks ...Sink) *Dispatcher {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 100
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 500 * time.Millisecond
	}

	return &Dispatcher{
		cfg:   cfg,
		sinks: sinks,
		queue: make(chan model.Notification, cfg.QueueSize),
	}
}

// Start launches the workers. Cancelling ctx aborts in-flight retries.
func (d *Dispatcher) Start(ctx context.Context) {
	ctx, d.cancel = context.WithCancel(ctx)

	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}

	sinkNames := make([]string, 0, len(d.sinks))
	for _, s := range d.sinks {
		sinkNames = append(sinkNames, s.Name())
	}
	logger.Info("Notification dispatcher started", map[string]interface{}{
		"workers": d.cfg.Workers,
		"sinks":   sinkNames,
	})
}

// Enqueue hands a notification to the workers without blocking.
// It returns false when the dispatcher is stopped or the queue is full.
func (d *Dispatcher) Enqueue(notification model.Notification) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return false
	}

	select {
	case d.queue <- notification:
		return true
	default:
		d.recordDeadLetter(notification.ID, "queue", 0, errors.New("notification queue is full"))
		return false
	}
}

// Stop closes the queue and waits for queued notifications to drain.
// When ctx ends first, pending retries are aborted and dead-lettered.
func (d *Dispatcher) Stop(ctx context.Context) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-ctx.Done():
		logger.Warn("Notification drain deadline reached, aborting retries", nil)
		if d.cancel != nil {
			d.cancel()
		}
		<-drained
	}

	if d.cancel != nil {
		d.cancel()
	}
	logger.Info("Notification dispatcher stopped", nil)
}

// DeadLetters returns a copy of the failed deliveries
func (d *Dispatcher) DeadLetters() []DeadLetter {
	d.deadMu.Lock()
	defer d.deadMu.Unlock()

	out := make([]DeadLetter, len(d.deadLetters))
	copy(out, d.deadLetters)
	return out
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()

	for notification := range d.queue {
		for _, sink := range d.sinks {
			d.deliver(ctx, sink, &notification)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, sink Sink, notification *model.Notification) {
	var err error
	attempt := 0

	for attempt < d.cfg.MaxAttempts {
		attempt++

		if err = sink.Deliver(ctx, notification); err == nil {
			return
		}
		if errors.Is(err, ErrPermanent) {
			break
		}

		logger.Warn("Notification delivery failed", map[string]interface{}{
			"notification_id": notification.ID,
			"sink":            sink.Name(),
			"attempt":         attempt,
			"error":           err.Error(),
		})

		if attempt < d.cfg.MaxAttempts && !sleep(ctx, d.backoff(attempt)) {
			break
		}
	}

	d.recordDeadLetter(notification.ID, sink.Name(), attempt, err)
}

func (d *Dispatcher) backoff(attempt int) time.Duration {
	wait := d.cfg.BaseBackoff << (attempt - 1)
	if wait <= 0 || wait > maxBackoff {
		return maxBackoff
	}
	return wait
}

func (d *Dispatcher) recordDeadLetter(notificationID, sink string, attempts int, err error) {
	d.deadMu.Lock()
	d.deadLetters = append(d.deadLetters, DeadLetter{
		NotificationID: notificationID,
		Sink:           sink,
		Attempts:       attempts,
		Error:          err.Error(),
		FailedAt:       time.Now(),
	})
	d.deadMu.Unlock()

	logger.Error("Notification dead-lettered", err, map[string]interface{}{
		"notification_id": notificationID,
		"sink":            sink,
		"attempts":        attempts,
	})
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
