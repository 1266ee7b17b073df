// Package console composes the alert delivery pipeline: it owns the mailbox
// holding the current unacknowledged alert, the registry of alert sources
// feeding it, and the fan-out of alert events to UI subscribers. The operator
// HTTP API talks to this package, not to the sources directly.
package console

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pkg/errors"

	"github.com/kuntur-security/kuntur-console/internal/alert"
)

// Acker confirms consumption of a delivered alert against the queue backend.
type Acker interface {
	Ack(ctx context.Context, handle alert.DeliveryHandle) error
}

// AckPolicy decides what an acknowledgement failure does to the caller.
type AckPolicy string

const (
	// AckPolicySilent logs the failure and reports success to the caller.
	// This matches the historical fire-and-forget behavior.
	AckPolicySilent AckPolicy = "silent"

	// AckPolicySurfaced returns the failure to the caller.
	AckPolicySurfaced AckPolicy = "surfaced"
)

// Console ties the alert sources, the mailbox, and the acknowledgement client
// together behind one lifecycle.
type Console struct {
	logger    *slog.Logger
	mailbox   *Mailbox
	notifier  *Notifier
	registry  *Registry
	acker     Acker
	ackPolicy AckPolicy

	mu      sync.RWMutex
	running bool
}

// New creates a console around the given acknowledgement client.
func New(logger *slog.Logger, acker Acker, ackPolicy AckPolicy) *Console {
	return &Console{
		logger:    logger,
		mailbox:   NewMailbox(),
		notifier:  NewNotifier(),
		registry:  NewRegistry(),
		acker:     acker,
		ackPolicy: ackPolicy,
	}
}

// AddSource registers an alert source. Sources must be added before Start.
func (c *Console) AddSource(source Source) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return errors.New("cannot add a source while running")
	}
	return c.registry.Register(source)
}

// Start starts every registered source.
func (c *Console) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return errors.New("console already running")
	}

	if err := c.registry.StartAll(); err != nil {
		return errors.Wrap(err, "failed to start alert sources")
	}

	c.running = true
	c.logger.Info("console started", slog.Int("sources", c.registry.Count()))
	return nil
}

// Stop stops all sources, seals the mailbox, and disconnects subscribers.
// Alert state is per-session and is discarded, not persisted.
func (c *Console) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil
	}

	err := c.registry.StopAll()
	c.mailbox.Close()
	c.notifier.Close()
	c.running = false

	if err != nil {
		c.logger.Error("console stopped with errors", slog.Any("error", err))
		return errors.Wrap(err, "failed to stop alert sources")
	}

	c.logger.Info("console stopped")
	return nil
}

// Mailbox exposes the alert slot to sources.
func (c *Console) Mailbox() *Mailbox {
	return c.mailbox
}

// Notify publishes an alert event to all UI subscribers.
func (c *Console) Notify(a alert.Alert) {
	c.notifier.Publish(a)
}

// Subscribe attaches a UI subscriber to the alert event stream.
func (c *Console) Subscribe() (<-chan alert.Alert, func()) {
	return c.notifier.Subscribe()
}

// Current returns the held alert and its delivery handle, or nil when the
// operator has nothing pending.
func (c *Console) Current() (*alert.Alert, alert.DeliveryHandle) {
	return c.mailbox.Current()
}

// Acknowledge confirms consumption of the current alert. With no alert held
// it is a no-op, so acknowledging twice never fails. Alerts delivered over
// the push socket carry no delivery handle; those are cleared locally without
// a backend call.
//
// The reason string only feeds the audit log; "false alarm" and an acted-on
// alert take the same acknowledgement path.
func (c *Console) Acknowledge(ctx context.Context, reason string) error {
	handle, ok := c.mailbox.BeginAck()
	if !ok {
		if c.mailbox.DropUnhandled() {
			c.logger.Info("cleared alert without delivery handle", slog.String("reason", reason))
		}
		return nil
	}

	err := c.acker.Ack(ctx, handle)
	c.mailbox.FinishAck(err == nil)

	if err != nil {
		c.logger.Error("acknowledgement failed",
			slog.Int64("deliveryTag", int64(handle)),
			slog.String("reason", reason),
			slog.Any("error", err))
		if c.ackPolicy == AckPolicySurfaced {
			return errors.Wrap(err, "failed to acknowledge alert")
		}
		return nil
	}

	c.logger.Info("alert acknowledged",
		slog.Int64("deliveryTag", int64(handle)),
		slog.String("reason", reason))
	return nil
}
