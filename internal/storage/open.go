package storage

import (
	"context"
	"errors"
	"strings"

	"hotkeyd/pkg/logx"
)

// Store is the minimal persistence API used by core and modules.
type Store interface {
	PutTarget(ctx context.Context, t TargetRecord) error
	DeleteTarget(ctx context.Context, name string) error
	ListTargets(ctx context.Context) ([]TargetRecord, error)
	AppendAudit(ctx context.Context, e AuditEntry) error
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
