// Package storage keeps the bounded history of generated goal plans in a
// key-value backend.
package storage

import (
	"context"
	"fmt"

	"github.com/goalcal/goalcal/internal/storage/sqlite"
)

// KV is the byte-oriented backend a PlanStore persists through.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Backend names a KV implementation
type Backend string

const (
	BackendSQLite Backend = "sqlite"
	BackendMemory Backend = "memory"
)

// Config holds store configuration
type Config struct {
	// Backend selects the KV implementation (default: sqlite)
	Backend Backend

	// Path is the SQLite database file. sqlite.MemoryPath opens a private
	// in-memory database.
	Path string

	// Capacity is the maximum number of plans kept (default: 20)
	Capacity int
}

// Open creates the configured backend and wraps it in a PlanStore.
func Open(ctx context.Context, cfg *Config) (*PlanStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("storage config is required")
	}

	var kv KV
	switch cfg.Backend {
	case BackendMemory:
		kv = NewMemoryKV()
	case BackendSQLite, "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("database path is required")
		}
		s, err := sqlite.New(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		kv = s
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	return NewPlanStore(kv, &Options{Capacity: cfg.Capacity}), nil
}
