package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/kuntur-security/kuntur-console/internal/config"
)

// Server serves the operator API.
type Server struct {
	logger *slog.Logger
	router *mux.Router
	cfg    config.HttpConfig
}

func NewServer(cfg *config.Config, logger *slog.Logger, handler *Handler) *Server {
	return &Server{
		logger: logger,
		router: InitRouter(cfg, handler, logger),
		cfg:    cfg.Http,
	}
}

func InitRouter(cfg *config.Config, handler *Handler, logger *slog.Logger) *mux.Router {
	router := mux.NewRouter()

	// mux falls through to 404 on a method mismatch unless this is set
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	router.Use(APIKeyRequired(cfg.APIKey))
	router.Use(Limit(cfg.Http.RateLimit, cfg.Http.RateLimit*2, 10*time.Minute, logger))

	apiRouter := router.PathPrefix("/api/v1").Subrouter()

	apiRouter.HandleFunc("/alert", handler.GetAlert).Methods(http.MethodGet)
	apiRouter.HandleFunc("/alert/ack", handler.AckAlert).Methods(http.MethodPost)
	apiRouter.HandleFunc("/alert/false-alarm", handler.FalseAlarm).Methods(http.MethodPost)
	apiRouter.HandleFunc("/reports", handler.SubmitReport).Methods(http.MethodPost)
	apiRouter.HandleFunc("/reports/complete-fields", handler.CompleteFields).Methods(http.MethodPost)
	apiRouter.HandleFunc("/officers", handler.ListOfficers).Methods(http.MethodGet)
	apiRouter.HandleFunc("/status", handler.GetStatus).Methods(http.MethodGet)
	apiRouter.HandleFunc("/ws", handler.StreamAlerts).Methods(http.MethodGet)

	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully within the
// configured timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  30 * time.Second,
	}

	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("starting HTTP server",
			slog.String("addr", srv.Addr),
			slog.Duration("read_timeout", s.cfg.ReadTimeout),
			slog.Duration("write_timeout", s.cfg.WriteTimeout),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("ListenAndServe error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server", slog.String("reason", ctx.Err().Error()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("server shutdown failed", slog.Any("error", err))
			return err
		}
		return nil

	case err := <-errChan:
		return err
	}
}
