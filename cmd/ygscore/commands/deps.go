package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/wonny/ygscore/internal/collector"
	"github.com/wonny/ygscore/internal/sessionconfig"
	"github.com/wonny/ygscore/pkg/config"
	"github.com/wonny/ygscore/pkg/database"
	"github.com/wonny/ygscore/pkg/logger"
)

// initBase loads config and builds the process logger.
func initBase() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, logger.New(cfg), nil
}

// initDB opens the connection pool and verifies it.
func initDB(cfg *config.Config, log *logger.Logger) (*database.DB, error) {
	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	log.Info("Database connected")
	return db, nil
}

// resolveWindow picks the session window for one loop from the YAML file
// (or built-in defaults) and the --session flag.
func resolveWindow(cfg *config.Config, loopName string) (sessionconfig.Window, error) {
	sessions, err := sessionconfig.Load(cfg.SessionsFile)
	if err != nil {
		return sessionconfig.Window{}, fmt.Errorf("load session windows: %w", err)
	}
	return sessions.Resolve(loopName, sessionName)
}

// loopOptions maps the shared flags onto loop options.
func loopOptions() collector.Options {
	return collector.Options{
		Once:     runOnce,
		Interval: time.Duration(intervalSecs) * time.Second,
	}
}

// runLoop drives one loop until it finishes or SIGINT/SIGTERM arrives.
func runLoop(loop *collector.Loop) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := loop.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
