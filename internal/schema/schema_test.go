package schema

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"bankload/internal/domain"
	"bankload/internal/storage"
	_ "bankload/internal/storage/sqlite"
)

// shippedScript is the SQLite DDL at the repository root.
var shippedScript = filepath.Join("..", "..", "create_tables.sql")

func sqliteCfg(t *testing.T) storage.Config {
	t.Helper()
	return storage.Config{Kind: "sqlite", DSN: filepath.Join(t.TempDir(), "bank.db")}
}

func count(t *testing.T, cfg storage.Config, table string) int64 {
	t.Helper()
	repo, err := storage.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer repo.Close()
	n, err := repo.Count(context.Background(), table)
	if err != nil {
		t.Fatalf("Count(%s): %v", table, err)
	}
	return n
}

// TestInitialize_CreatesEveryTable runs the shipped script against a fresh
// SQLite file and checks each table is queryable and empty.
func TestInitialize_CreatesEveryTable(t *testing.T) {
	t.Parallel()

	cfg := sqliteCfg(t)
	if err := Initialize(context.Background(), cfg, shippedScript, domain.Tables); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	for _, table := range domain.Tables {
		if n := count(t, cfg, table); n != 0 {
			t.Fatalf("%s has %d rows, want 0", table, n)
		}
	}
}

// TestInitialize_RecreatesExistingDatabase verifies that rows from a previous
// run are gone after a second Initialize.
func TestInitialize_RecreatesExistingDatabase(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cfg := sqliteCfg(t)
	if err := Initialize(ctx, cfg, shippedScript, domain.Tables); err != nil {
		t.Fatalf("first Initialize: %v", err)
	}

	repo, err := storage.New(ctx, cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	c := domain.Category{ID: 1, Name: "Food", Description: "groceries", MCCCode: "5411"}
	if _, err := repo.CopyFrom(ctx, domain.TableCategories, domain.CategoryColumns, [][]any{c.Values()}); err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}
	repo.Close()
	if n := count(t, cfg, domain.TableCategories); n != 1 {
		t.Fatalf("seed row missing: %d", n)
	}

	if err := Initialize(ctx, cfg, shippedScript, domain.Tables); err != nil {
		t.Fatalf("second Initialize: %v", err)
	}
	if n := count(t, cfg, domain.TableCategories); n != 0 {
		t.Fatalf("categories = %d after re-init, want 0", n)
	}
}

func TestInitialize_ScriptErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.sql")
	if err := os.WriteFile(empty, []byte("  \n\t"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Initialize(ctx, sqliteCfg(t), empty, domain.Tables); !errors.Is(err, ErrEmptyScript) {
		t.Fatalf("empty script: got %v, want ErrEmptyScript", err)
	}

	if err := Initialize(ctx, sqliteCfg(t), filepath.Join(dir, "missing.sql"), domain.Tables); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing script: got %v, want ErrNotExist", err)
	}

	broken := filepath.Join(dir, "broken.sql")
	if err := os.WriteFile(broken, []byte("CREATE TABLE categories (id INTEGER PRIMARY KEY);\nCREAT TABLE oops;"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Initialize(ctx, sqliteCfg(t), broken, domain.Tables); err == nil {
		t.Fatal("malformed script: expected error")
	}
}

// TestInitialize_UnreadableScriptKeepsDatabase checks the existing database
// survives when the script cannot be read.
func TestInitialize_UnreadableScriptKeepsDatabase(t *testing.T) {
	t.Parallel()

	cfg := sqliteCfg(t)
	if err := os.WriteFile(cfg.DSN, []byte("not really sqlite"), 0o644); err != nil {
		t.Fatal(err)
	}
	_ = Initialize(context.Background(), cfg, filepath.Join(t.TempDir(), "nope.sql"), domain.Tables)
	if _, err := os.Stat(cfg.DSN); err != nil {
		t.Fatalf("database removed despite unreadable script: %v", err)
	}
}

func TestInitialize_UnknownKind(t *testing.T) {
	t.Parallel()

	err := Initialize(context.Background(), storage.Config{Kind: "nope", DSN: "x"}, shippedScript, domain.Tables)
	if err == nil {
		t.Fatal("expected error for unregistered kind")
	}
}
