package socket

import (
	"encoding/json"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/kuntur-security/kuntur-console/internal/alert"
	"github.com/kuntur-security/kuntur-console/internal/pipeline"
)

var errAlreadyStarted = errors.New("listener already started")

// AlertSource adapts the listener into a console alert source: object frames
// are normalized and delivered to the mailbox, everything else is logged and
// ignored. Pushed alerts carry no delivery handle; acknowledging them is a
// local-only operation.
type AlertSource struct {
	listener  *Listener
	processor *pipeline.AlertProcessor
	sink      pipeline.Sink
	logger    *slog.Logger
}

// NewAlertSource wires a listener for the given endpoint into the processor
// and sink.
func NewAlertSource(url string, reconnect bool, processor *pipeline.AlertProcessor, sink pipeline.Sink, logger *slog.Logger) *AlertSource {
	s := &AlertSource{
		processor: processor,
		sink:      sink,
		logger:    logger,
	}

	s.listener = NewListener(url, Events{
		OnOpen: func() {
			logger.Info("push socket connected", slog.String("url", url))
		},
		OnMessage: s.handleFrame,
		OnError: func(err error) {
			logger.Warn("push socket error", slog.Any("error", err))
		},
		OnClose: func() {
			logger.Info("push socket disconnected")
		},
	}, reconnect, logger)

	return s
}

// Name implements the console source contract.
func (s *AlertSource) Name() string {
	return "push-socket"
}

// Start implements the console source contract.
func (s *AlertSource) Start() error {
	if err := s.listener.Start(); err != nil {
		return errors.Wrap(err, "failed to connect push socket")
	}
	return nil
}

// Stop implements the console source contract.
func (s *AlertSource) Stop() error {
	return s.listener.Stop()
}

// State returns the underlying connection state.
func (s *AlertSource) State() State {
	return s.listener.State()
}

// handleFrame turns an inbound frame into an alert delivery. Frames that are
// not JSON objects (plain text, arrays, scalars) are not alerts; they are
// logged and dropped without error.
func (s *AlertSource) handleFrame(data interface{}) {
	obj, ok := data.(map[string]interface{})
	if !ok {
		s.logger.Debug("ignoring non-alert frame")
		return
	}

	// Round-trip through JSON so the one-or-many normalization applies
	// exactly as it does for polled payloads
	raw, err := json.Marshal(obj)
	if err != nil {
		s.logger.Warn("failed to re-encode pushed frame", slog.Any("error", err))
		return
	}

	a, err := alert.Parse(raw)
	if err != nil {
		s.logger.Warn("failed to normalize pushed alert", slog.Any("error", err))
		return
	}

	s.processor.Process(a)

	if !s.sink.Deliver(&a, 0) {
		s.logger.Debug("pushed alert discarded by sink")
	}
}
