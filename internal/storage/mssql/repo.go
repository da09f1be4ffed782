// Package mssql stores bank tables in Microsoft SQL Server. Batches go
// through the TDS bulk-copy protocol, one transaction per batch.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"
)

// Config holds the connection settings.
type Config struct {
	DSN string
}

// Repository writes to one SQL Server database over a single connection.
type Repository struct {
	db *sql.DB
}

// bulkOptions keep foreign keys checked and NULLs stored as NULL rather than
// replaced by column defaults, matching plain INSERT semantics.
var bulkOptions = mssql.BulkOptions{CheckConstraints: true, KeepNulls: true}

// NewRepository validates the DSN, connects and pings. The returned func
// closes the pool.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open mssql: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping mssql: %w", err)
	}
	return &Repository{db: db}, func() { db.Close() }, nil
}

// CopyFrom bulk-copies rows into table and commits. A constraint violation
// anywhere in the batch rolls back the whole batch.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (n int64, err error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(table, bulkOptions, columns...))
	if err != nil {
		return 0, fmt.Errorf("prepare bulk %s: %w", table, err)
	}
	n, err = bulkSend(ctx, stmt, rows)
	if cerr := stmt.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("bulk %s: %w", table, err)
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit %s: %w", table, err)
	}
	return n, nil
}

// bulkSend buffers every row then sends them with the final empty Exec.
func bulkSend(ctx context.Context, stmt *sql.Stmt, rows [][]any) (int64, error) {
	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return 0, fmt.Errorf("row %d: %w", i, err)
		}
	}
	res, err := stmt.ExecContext(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Exec runs a script as one batch; GO separators are not supported.
func (r *Repository) Exec(ctx context.Context, script string) error {
	_, err := r.db.ExecContext(ctx, script)
	return err
}

// Count returns the number of rows in table.
func (r *Repository) Count(ctx context.Context, table string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT_BIG(*) FROM "+quoteName(table)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// DropTables drops each table that exists, in the given order.
func (r *Repository) DropTables(ctx context.Context, tables []string) error {
	for _, t := range tables {
		if _, err := r.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteName(t)); err != nil {
			return fmt.Errorf("drop %s: %w", t, err)
		}
	}
	return nil
}

// quoteName brackets every part of a possibly schema-qualified name.
func quoteName(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = "[" + strings.ReplaceAll(p, "]", "]]") + "]"
	}
	return strings.Join(parts, ".")
}
