// Package components wires the alert sources, the console, and the HTTP
// server together from configuration.
package components

import (
	"log/slog"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/kuntur-security/kuntur-console/internal/api"
	"github.com/kuntur-security/kuntur-console/internal/config"
	"github.com/kuntur-security/kuntur-console/internal/console"
	"github.com/kuntur-security/kuntur-console/internal/pipeline"
	"github.com/kuntur-security/kuntur-console/internal/queue"
	"github.com/kuntur-security/kuntur-console/internal/report"
	"github.com/kuntur-security/kuntur-console/internal/roster"
	"github.com/kuntur-security/kuntur-console/internal/socket"
)

type Components struct {
	logger       *slog.Logger
	HttpServer   *api.Server
	Console      *console.Console
	deduplicator *pipeline.Deduplicator
}

// sourceStatus bridges the poller bookkeeping and the socket state into the
// status endpoint.
type sourceStatus struct {
	state  *pipeline.StateStore
	socket *socket.AlertSource
}

func (s *sourceStatus) PollerStatus() pipeline.Status {
	return s.state.Snapshot()
}

func (s *sourceStatus) SocketState() string {
	if s.socket == nil {
		return "disabled"
	}
	return string(s.socket.State())
}

func InitComponents(cfg *config.Config, logger *slog.Logger) (*Components, error) {
	queueClient := queue.NewClient(cfg.Queue.URL, logger)

	cons := console.New(logger, queueClient, console.AckPolicy(cfg.AckPolicy))

	stateStore := pipeline.NewStateStore()
	deduplicator := pipeline.NewDeduplicator(logger)

	pollProcessor := pipeline.NewAlertProcessor(logger, "queue", deduplicator, cons.Notify)
	poller := pipeline.NewPoller(logger, cfg.Queue.PollInterval, queueClient, pollProcessor, stateStore, cons.Mailbox())

	if err := cons.AddSource(poller); err != nil {
		return nil, errors.Wrap(err, "failed to register queue poller")
	}

	var socketSource *socket.AlertSource
	if cfg.Socket.Enabled {
		pushProcessor := pipeline.NewAlertProcessor(logger, "socket", deduplicator, cons.Notify)
		socketSource = socket.NewAlertSource(cfg.SocketEndpoint(), cfg.Socket.Reconnect, pushProcessor, cons.Mailbox(), logger)

		if err := cons.AddSource(socketSource); err != nil {
			return nil, errors.Wrap(err, "failed to register push socket")
		}
	}

	reportClient := report.NewClient(cfg.Report.URL, logger)
	rosterClient := roster.NewClient(cfg.Roster.URL, logger)

	handler := api.NewHandler(logger, cons, reportClient, rosterClient, &sourceStatus{
		state:  stateStore,
		socket: socketSource,
	})
	httpServer := api.NewServer(cfg, logger, handler)

	logger.Info("components initialized",
		slog.Bool("socket_enabled", cfg.Socket.Enabled),
		slog.Duration("poll_interval", cfg.Queue.PollInterval))

	return &Components{
		logger:       logger,
		HttpServer:   httpServer,
		Console:      cons,
		deduplicator: deduplicator,
	}, nil
}

func SetupLogger(env string) *slog.Logger {
	switch env {
	case "local":
		return slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	case "dev":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	default:
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	}
}

func (c *Components) ShutdownAll() {
	start := time.Now()
	c.logger.Info("shutting down components")

	if err := c.Console.Stop(); err != nil {
		c.logger.Error("console stop failed", slog.Any("error", err))
	}
	c.deduplicator.Stop()

	c.logger.Info("all components stopped",
		slog.Duration("latency", time.Since(start)))
}
