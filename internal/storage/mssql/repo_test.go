package mssql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"sync"
	"testing"

	"bankload/internal/storage"
)

func TestQuoteName(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"clients":          "[clients]",
		"dbo.transactions": "[dbo].[transactions]",
		"odd]name":         "[odd]]name]",
		"":                 "[]",
	}
	for in, want := range cases {
		if got := quoteName(in); got != want {
			t.Errorf("quoteName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBulkOptionsKeepNullsAndChecks(t *testing.T) {
	t.Parallel()

	if !bulkOptions.KeepNulls || !bulkOptions.CheckConstraints {
		t.Fatalf("bulkOptions = %+v, want KeepNulls and CheckConstraints", bulkOptions)
	}
}

func TestNewRepositoryRejectsBadDSN(t *testing.T) {
	t.Parallel()

	_, _, err := NewRepository(context.Background(), Config{DSN: "sqlserver://host?connection+timeout=soon"})
	if err == nil || !strings.Contains(err.Error(), "mssql dsn") {
		t.Fatalf("NewRepository error = %v, want dsn error", err)
	}
}

func TestCopyFromNoRowsSkipsDatabase(t *testing.T) {
	t.Parallel()

	r := &Repository{}
	if n, err := r.CopyFrom(context.Background(), "clients", []string{"id"}, nil); n != 0 || err != nil {
		t.Fatalf("CopyFrom(nil) = %d, %v", n, err)
	}
}

// downConn is a database/sql driver connection where every operation fails,
// standing in for a server that went away mid-run.
type downConn struct{}

var errDown = errors.New("server unavailable")

func (downConn) Prepare(string) (driver.Stmt, error) { return nil, errDown }
func (downConn) Close() error                        { return nil }
func (downConn) Begin() (driver.Tx, error)           { return nil, errDown }
func (downConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	return nil, errDown
}
func (downConn) ExecContext(context.Context, string, []driver.NamedValue) (driver.Result, error) {
	return nil, errDown
}
func (downConn) QueryContext(context.Context, string, []driver.NamedValue) (driver.Rows, error) {
	return nil, errDown
}

type downDriver struct{}

func (downDriver) Open(string) (driver.Conn, error) { return downConn{}, nil }

var registerDown sync.Once

func downRepo(t *testing.T) *Repository {
	t.Helper()
	registerDown.Do(func() { sql.Register("mssql_down", downDriver{}) })
	db, err := sql.Open("mssql_down", "")
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &Repository{db: db}
}

func TestErrorsNameTheTable(t *testing.T) {
	t.Parallel()
	r := downRepo(t)
	ctx := context.Background()

	if _, err := r.Count(ctx, "clients"); !errors.Is(err, errDown) || !strings.Contains(err.Error(), "count clients") {
		t.Errorf("Count error = %v", err)
	}
	if err := r.Exec(ctx, "CREATE TABLE categories (id INT)"); !errors.Is(err, errDown) {
		t.Errorf("Exec error = %v", err)
	}
	n, err := r.CopyFrom(ctx, "subscriptions", []string{"id", "client_id"}, [][]any{{1, 1}})
	if n != 0 || !errors.Is(err, errDown) || !strings.HasPrefix(err.Error(), "begin tx:") {
		t.Errorf("CopyFrom = %d, %v", n, err)
	}
	if err := r.DropTables(ctx, []string{"transactions", "clients"}); err == nil || !strings.Contains(err.Error(), "drop transactions") {
		t.Errorf("DropTables error = %v, want failure on the first table", err)
	}
}

// TestRegisteredBackend routes storage.New through the package hook. It swaps
// package state and so does not run in parallel.
func TestRegisteredBackend(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()

	var got Config
	closed := 0
	newRepository = func(_ context.Context, cfg Config) (*Repository, func(), error) {
		got = cfg
		return &Repository{}, func() { closed++ }, nil
	}

	dsn := "sqlserver://sa:pw@localhost:1433?database=bank"
	repo, err := storage.New(context.Background(), storage.Config{Kind: "mssql", DSN: dsn})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	repo.Close()
	if got.DSN != dsn || closed != 1 {
		t.Fatalf("dsn = %q closed = %d", got.DSN, closed)
	}
}
