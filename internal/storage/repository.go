// Package storage contains storage-agnostic contracts and utilities shared by
// every backend: the Repository interface, a factory registry keyed by
// storage kind, per-kind reset hooks, and the batched loader.
//
// Backends register themselves from init(); callers import
// bankload/internal/storage/all (usually as a blank import) and then stay
// backend-agnostic by going through New and Reset.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Config selects and parameterises a backend.
type Config struct {
	// Kind is the registered backend name, e.g. "sqlite" or "postgres".
	Kind string

	// DSN is the backend connection string. For sqlite it is a file path
	// (or ":memory:").
	DSN string
}

// Repository is the minimal surface the importer needs from a backend. One
// Repository wraps exactly one logical connection.
type Repository interface {
	// CopyFrom inserts rows (aligned to columns) into table using a single
	// statement inside its own transaction and commits it. Either every row
	// of the call is committed or none is.
	CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// Exec runs a SQL text verbatim (typically a DDL script).
	Exec(ctx context.Context, sql string) error

	// Count returns SELECT COUNT(*) for table.
	Count(ctx context.Context, table string) (int64, error)

	// Close releases the connection.
	Close()
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

// Resetter destroys any existing storage addressed by cfg so that a fresh,
// empty store can be created. tables lists the tables the caller owns in
// foreign-key-safe creation order; backends that cannot delete the whole
// store drop them in reverse.
type Resetter func(ctx context.Context, cfg Config, tables []string) error

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
	resetters = map[string]Resetter{}
)

// Register registers (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// RegisterReset registers (or replaces) the reset hook for kind.
func RegisterReset(kind string, r Resetter) {
	mu.Lock()
	defer mu.Unlock()
	resetters[kind] = r
}

// New opens a Repository for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// Reset invokes the reset hook registered for cfg.Kind.
func Reset(ctx context.Context, cfg Config, tables []string) error {
	mu.RLock()
	r, ok := resetters[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return fmt.Errorf("no reset registered for storage.kind=%q", cfg.Kind)
	}
	return r(ctx, cfg, tables)
}

// ListKinds returns a sorted snapshot of the registered kinds.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Reversed returns a copy of tables in reverse order. Backends use it to
// drop tables child-first.
func Reversed(tables []string) []string {
	out := make([]string, len(tables))
	for i, t := range tables {
		out[len(tables)-1-i] = t
	}
	return out
}
