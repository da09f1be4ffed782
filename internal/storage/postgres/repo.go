// Package postgres implements a Postgres repository using pgx v5. Each batch
// is written with COPY inside its own transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN string // connection string for pgx.Connect
}

// conn is the subset of *pgx.Conn the repository uses.
type conn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close(ctx context.Context) error
}

// Repository is a Postgres-backed implementation of storage.Repository. It
// holds a single connection rather than a pool: the importer is strictly
// sequential.
type Repository struct {
	conn conn
}

// NewRepository connects and returns a Repository plus a Close function.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("postgres: DSN must not be empty")
	}
	c, err := pgx.Connect(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: connect: %w", err)
	}
	closeFn := func() { _ = c.Close(context.Background()) }
	return &Repository{conn: c}, closeFn, nil
}

// CopyFrom streams rows into table with COPY and commits.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	n, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, describe("copy into "+table, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, describe("commit", err)
	}
	return n, nil
}

// Exec runs sqlText. Without arguments pgx uses the simple protocol, so a
// multi-statement script executes in one round trip.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	if strings.TrimSpace(sqlText) == "" {
		return nil
	}
	if _, err := r.conn.Exec(ctx, sqlText); err != nil {
		return describe("exec", err)
	}
	return nil
}

// Count returns SELECT COUNT(*) for table.
func (r *Repository) Count(ctx context.Context, table string) (int64, error) {
	var n int64
	if err := r.conn.QueryRow(ctx, "SELECT COUNT(*) FROM "+pgIdent(table)).Scan(&n); err != nil {
		return 0, describe("count "+table, err)
	}
	return n, nil
}

// DropTables drops the given tables (if present) in the order supplied.
func (r *Repository) DropTables(ctx context.Context, tables []string) error {
	for _, t := range tables {
		if _, err := r.conn.Exec(ctx, "DROP TABLE IF EXISTS "+pgIdent(t)); err != nil {
			return describe("drop "+t, err)
		}
	}
	return nil
}

// describe wraps err, surfacing the server's detail and SQLSTATE when present.
func describe(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("postgres: %s: %s (%s): %w", op, pgErr.Detail, pgErr.SQLState(), err)
	}
	return fmt.Errorf("postgres: %s: %w", op, err)
}

// pgIdent quotes a possibly schema-qualified identifier.
func pgIdent(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}
