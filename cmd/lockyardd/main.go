// Command lockyardd runs the lock coordination daemon: an in-memory
// lock arbitration engine behind an HTTP REST adapter.
//
// Usage:
//
//	lockyardd [-interval=1s] [-port=8000] [-authentication=user:pass]
//	          [-certificate=cert.pem -key=key.pem] [-config=lockyard.yaml]
//
// The process serves until interrupted (SIGINT/SIGTERM) and persists
// no state across restarts.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aalhour/lockyard/internal/config"
	"github.com/aalhour/lockyard/internal/httpapi"
	"github.com/aalhour/lockyard/internal/lockengine"
	"github.com/aalhour/lockyard/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "lockyardd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := logging.NewDefaultLogger(logging.LevelInfo)

	engineOpts := lockengine.DefaultEngineOptions()
	engineOpts.WakeupInterval = cfg.Interval
	engineOpts.Logger = logger
	engine := lockengine.NewEngine(engineOpts)

	server := httpapi.NewServer(engine, httpapi.Options{
		Authentication: cfg.Authentication,
		Logger:         logger,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)

	errCh := make(chan error, 1)
	go func() {
		if cfg.TLSEnabled() {
			logger.Infof("[lockyardd] serving HTTPS on %s", addr)
			errCh <- server.ListenAndServeTLS(addr, cfg.Certificate, cfg.Key)
			return
		}
		logger.Infof("[lockyardd] serving HTTP on %s", addr)
		errCh <- server.ListenAndServe(addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Infof("[lockyardd] received %s, shutting down", sig)
		return nil
	}
}
