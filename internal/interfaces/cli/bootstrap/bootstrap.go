// Package bootstrap prepares what every command needs: configuration,
// logging, the database and, for commands that ingest or query, the
// application container.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/orris-inc/helpdesk/internal/infrastructure/config"
	"github.com/orris-inc/helpdesk/internal/infrastructure/database"
	httpapi "github.com/orris-inc/helpdesk/internal/interfaces/http"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

// Env is the loaded runtime environment of one command invocation.
type Env struct {
	Loader *config.Loader
	Config *config.Config
	Log    logger.Interface

	db *gorm.DB
}

// Setup loads the configuration at path and initializes logging.
func Setup(path string) (*Env, error) {
	loader := config.NewLoader(path)
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	log := logger.NewLogger()
	if file := loader.ConfigFile(); file != "" {
		log.Debugw("configuration loaded", "file", file)
	}

	return &Env{Loader: loader, Config: cfg, Log: log}, nil
}

// DB opens the configured database on first use.
func (e *Env) DB() (*gorm.DB, error) {
	if e.db != nil {
		return e.db, nil
	}
	if err := database.Init(&e.Config.Database); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	e.db = database.Get()
	return e.db, nil
}

// Container opens the database and wires the application.
func (e *Env) Container(ctx context.Context) (*httpapi.Container, error) {
	gdb, err := e.DB()
	if err != nil {
		return nil, err
	}
	c, err := httpapi.NewContainer(ctx, e.Config, gdb, e.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to build application: %w", err)
	}
	return c, nil
}

// Close releases the database and flushes the logger.
func (e *Env) Close() error {
	var err error
	if e.db != nil {
		err = database.Close()
		e.db = nil
	}
	return errors.Join(err, logger.Sync())
}
