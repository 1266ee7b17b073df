// Package pipeline implements the queue-backed half of the alert delivery
// pipeline: a recurring poll against the fetch-next-alert endpoint, per-poll
// bookkeeping, deduplication, and delivery into the console mailbox.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kuntur-security/kuntur-console/internal/alert"
)

const (
	// DefaultPollInterval is the poll cadence used when none is configured.
	DefaultPollInterval = 2 * time.Second

	// MinPollInterval is the lowest poll cadence accepted from configuration.
	MinPollInterval = 250 * time.Millisecond

	// MaxConsecutiveFailures is the number of consecutive polling failures
	// before the poller disables itself. This prevents runaway error
	// conditions and excessive calls to a failing backend.
	MaxConsecutiveFailures = 30
)

// AlertFetcher is an interface for fetching the next pending alert from the
// queue backend. A nil alert with a nil error means nothing is pending.
type AlertFetcher interface {
	FetchNext(ctx context.Context) (*alert.Alert, alert.DeliveryHandle, error)
}

// Sink receives poll results. It reports whether the write was accepted; a
// rejected write (teardown, acknowledgement in flight) is discarded.
type Sink interface {
	Deliver(a *alert.Alert, handle alert.DeliveryHandle) bool
}

// Poller manages the scheduled polling job against the queue backend.
// It polls once immediately on Start, then on a fixed interval until Stop.
type Poller struct {
	logger     *slog.Logger
	interval   time.Duration
	client     AlertFetcher
	processor  *AlertProcessor
	stateStore *StateStore
	sink       Sink
	scheduler  JobScheduler
	job        Job
	cancel     context.CancelFunc
}

// NewPoller creates a new poller instance
func NewPoller(
	logger *slog.Logger,
	interval time.Duration,
	client AlertFetcher,
	processor *AlertProcessor,
	stateStore *StateStore,
	sink Sink,
) *Poller {
	if interval < MinPollInterval {
		interval = DefaultPollInterval
	}

	return &Poller{
		logger:     logger,
		interval:   interval,
		client:     client,
		processor:  processor,
		stateStore: stateStore,
		sink:       sink,
		scheduler:  NewTickerScheduler(),
	}
}

// SetScheduler sets a custom job scheduler (useful for testing)
func (p *Poller) SetScheduler(scheduler JobScheduler) {
	p.scheduler = scheduler
}

// Name implements the console source contract.
func (p *Poller) Name() string {
	return "queue-poller"
}

// Start begins the polling job.
func (p *Poller) Start() error {
	if p.job != nil {
		return fmt.Errorf("poller already running")
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	job, err := p.scheduler.Schedule("queue_poll", p.interval, func() {
		p.run(ctx)
	})
	if err != nil {
		cancel()
		p.cancel = nil
		return fmt.Errorf("failed to schedule poll job: %w", err)
	}

	p.job = job
	p.stateStore.SetDisabled(false)
	p.logger.Info("poller started", slog.Duration("interval", p.interval))
	return nil
}

// Stop gracefully stops the polling job. In-flight requests are abandoned via
// context cancellation; a response that still arrives is rejected by the sink.
func (p *Poller) Stop() error {
	if p.job == nil {
		return nil
	}

	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}

	err := p.job.Close()
	p.job = nil

	if err != nil {
		p.logger.Error("failed to close poll job", slog.Any("error", err))
		return fmt.Errorf("failed to close poll job: %w", err)
	}

	p.logger.Info("poller stopped")
	return nil
}

// run executes a single poll cycle.
func (p *Poller) run(ctx context.Context) {
	if p.stateStore.IsDisabled() {
		return
	}

	p.stateStore.SaveLastPoll(time.Now())

	a, handle, err := p.client.FetchNext(ctx)
	if err != nil {
		// A cancelled poll during teardown is not a backend failure
		if ctx.Err() != nil {
			return
		}
		p.handlePollError(fmt.Errorf("failed to fetch alert: %w", err))
		return
	}

	if a != nil {
		p.processor.Process(*a)
	}

	if !p.sink.Deliver(a, handle) {
		p.logger.Debug("poll result discarded by sink")
	}

	p.stateStore.SaveLastSuccess(time.Now())
	p.stateStore.ResetFailures()
	p.stateStore.SaveLastError("")
}

// handlePollError records the failure, clears the pending alert slot, and
// disables the poller when the failure threshold is exceeded. Errors are not
// fatal to the loop below the threshold; the next tick retries.
func (p *Poller) handlePollError(err error) {
	errMsg := err.Error()

	p.logger.Error("poll cycle failed", slog.String("error", errMsg))

	p.stateStore.SaveLastError(errMsg)

	// The failed fetch leaves no trustworthy pending alert
	p.sink.Deliver(nil, 0)

	failureCount := p.stateStore.IncrementFailures()
	if failureCount >= MaxConsecutiveFailures {
		p.logger.Error("poller reached max consecutive failures, disabling",
			slog.Int("consecutiveFailures", failureCount),
			slog.String("lastError", errMsg))
		p.stateStore.SetDisabled(true)
	}
}
