package storage

import (
	"context"
	"errors"
	"strings"

	logx "restreamctl/pkg/logx"
)

// Store is the minimal persistence API used by the controller and console.
type Store interface {
	AppendCommand(ctx context.Context, e CommandEntry) error
	RecentCommands(ctx context.Context, limit int) ([]CommandEntry, error)
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
