package cmd

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/kuntur-security/kuntur-console/internal/components"
	"github.com/kuntur-security/kuntur-console/internal/config"
)

func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := components.SetupLogger(cfg.Env)

	comps, err := components.InitComponents(cfg, logger)
	if err != nil {
		logger.Error("could not init components", "err", err)
		return err
	}

	if err := comps.Console.Start(); err != nil {
		logger.Error("could not start alert sources", "err", err)
		return err
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := comps.HttpServer.Run(ctx); err != nil {
			logger.Error("http server failed", "err", err)
		}
		logger.Info("http server stopped")
	}()

	quitChan := make(chan os.Signal, 1)
	signal.Notify(quitChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quitChan

	stop()
	logger.Info("captured signal, initiating shutdown", "signal", sig.String())

	wg.Wait()

	comps.ShutdownAll()
	logger.Info("shutdown complete")

	return nil
}
