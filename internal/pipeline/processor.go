package pipeline

import (
	"log/slog"

	"github.com/kuntur-security/kuntur-console/internal/alert"
)

// AlertProcessor orchestrates deduplication and subscriber notification for
// alerts arriving from any source. The mailbox is updated regardless of
// deduplication: a redelivered alert is still the current alert, it just is
// not announced twice.
type AlertProcessor struct {
	logger       *slog.Logger
	sourceName   string
	deduplicator *Deduplicator
	alertHandler func(alert.Alert)
}

// NewAlertProcessor creates a new alert processor. The handler is invoked for
// every alert not seen before, typically to fan it out to UI subscribers.
func NewAlertProcessor(logger *slog.Logger, sourceName string, deduplicator *Deduplicator, alertHandler func(alert.Alert)) *AlertProcessor {
	return &AlertProcessor{
		logger:       logger,
		sourceName:   sourceName,
		deduplicator: deduplicator,
		alertHandler: alertHandler,
	}
}

// Process runs one alert through deduplication and reports whether it was
// new. New alerts are passed to the handler.
func (p *AlertProcessor) Process(a alert.Alert) bool {
	key := a.Key()

	if p.deduplicator.Observe(key) {
		p.logger.Debug("skipping duplicate alert",
			slog.String("source", p.sourceName),
			slog.String("key", key))
		return false
	}

	p.logger.Info("new alert received",
		slog.String("source", p.sourceName),
		slog.String("device", a.Device.ID),
		slog.String("location", a.Location),
		slog.String("classification", a.Classification))

	if p.alertHandler != nil {
		p.alertHandler(a)
	}

	return true
}
