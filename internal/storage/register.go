package storage

import "context"

// Conn is a Repository minus Close. Backend constructors return one together
// with the func that releases it.
type Conn interface {
	CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
	Exec(ctx context.Context, sql string) error
	Count(ctx context.Context, table string) (int64, error)
}

// TableDropper is a Conn that can drop tables it owns.
type TableDropper interface {
	Conn
	DropTables(ctx context.Context, tables []string) error
}

type releasing struct {
	Conn
	release func()
}

// Close calls the release func once.
func (r *releasing) Close() {
	if r.release != nil {
		r.release()
		r.release = nil
	}
}

// WithRelease binds c to the func that frees it.
func WithRelease(c Conn, release func()) Repository {
	return &releasing{Conn: c, release: release}
}

// Opener is a backend constructor keyed by DSN.
type Opener[C Conn] func(ctx context.Context, dsn string) (C, func(), error)

// RegisterOpener registers a factory for kind built on open.
func RegisterOpener[C Conn](kind string, open Opener[C]) {
	Register(kind, func(ctx context.Context, cfg Config) (Repository, error) {
		c, release, err := open(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return WithRelease(c, release), nil
	})
}

// RegisterServer registers a factory for a server backend plus a reset hook
// that drops the owned tables child-first on a fresh connection. A server
// database cannot be deleted the way a file can.
func RegisterServer[C TableDropper](kind string, open Opener[C]) {
	RegisterOpener(kind, open)
	RegisterReset(kind, func(ctx context.Context, cfg Config, tables []string) error {
		c, release, err := open(ctx, cfg.DSN)
		if err != nil {
			return err
		}
		defer release()
		return c.DropTables(ctx, Reversed(tables))
	})
}
