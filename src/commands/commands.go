// Package commands holds the pricefolio subcommands.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/subcommands"
	"github.com/username/pricefolio/src/config"
	"github.com/username/pricefolio/src/database"
	"github.com/username/pricefolio/src/importer"
	"github.com/username/pricefolio/src/logger"
	"github.com/username/pricefolio/src/routing"
)

// env is shared by every subcommand: the loaded configuration and where results are printed.
type env struct {
	cfg *config.AppConfig
	out io.Writer // command output; logs go to stderr and the log file
	err io.Writer
}

// Register adds the subcommands to c.
func Register(c *subcommands.Commander, cfg *config.AppConfig) {
	e := &env{cfg: cfg, out: os.Stdout, err: os.Stderr}

	c.Register(&importCmd{env: e}, "prices")
	c.Register(&targetsCmd{env: e}, "prices")
	c.Register(&historyCmd{env: e}, "prices")

	c.Register(&assetsCmd{env: e}, "catalog")
	c.Register(&addAssetCmd{env: e}, "catalog")
}

// newLogger writes to stderr and, when a log file is configured, appends to it as well.
// The returned func closes the log file.
func (e *env) newLogger() (*slog.Logger, func(), error) {
	if e.cfg.LogFile == "" {
		return logger.New(e.cfg.LogLevel, e.cfg.LogFormat, e.err), func() {}, nil
	}
	f, err := os.OpenFile(e.cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return logger.New(e.cfg.LogLevel, e.cfg.LogFormat, io.MultiWriter(e.err, f)), func() { f.Close() }, nil
}

func (e *env) openStore(ctx context.Context, log *slog.Logger) (*database.Store, error) {
	return database.Open(ctx, e.cfg.DatabasePath, e.cfg.DatabaseTimeout, log)
}

// connector opens the configured SQLite store for an import run.
func (e *env) connector(log *slog.Logger) importer.Connector {
	return func(ctx context.Context) (importer.Store, error) {
		s, err := e.openStore(ctx, log)
		if err != nil {
			return nil, err
		}
		return sqliteStore{s}, nil
	}
}

func (e *env) loadRoutes() (*routing.Table, error) {
	return routing.Load(e.cfg.RoutesPath)
}

// sqliteStore adapts *database.Store to importer.Store.
type sqliteStore struct {
	*database.Store
}

func (s sqliteStore) Begin(ctx context.Context) (importer.Batch, error) {
	b, err := s.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return b, nil
}
