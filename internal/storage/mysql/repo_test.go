package mysql

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"

	"bankload/internal/storage"
)

func TestNormalizeDSNEnablesMultiStatements(t *testing.T) {
	t.Parallel()

	got, err := normalizeDSN("bank:secret@tcp(db:3306)/bank?charset=utf8mb4")
	if err != nil {
		t.Fatalf("normalizeDSN: %v", err)
	}
	c, err := mysql.ParseDSN(got)
	if err != nil {
		t.Fatalf("reparse %q: %v", got, err)
	}
	if !c.MultiStatements {
		t.Fatalf("multiStatements not enabled in %q", got)
	}
	if c.User != "bank" || c.DBName != "bank" || c.Addr != "db:3306" {
		t.Fatalf("DSN fields lost: %+v", c)
	}
	if !strings.Contains(got, "charset=utf8mb4") {
		t.Fatalf("extra params lost: %q", got)
	}

	if _, err := normalizeDSN("not a dsn"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestInsertSQLAndQuoting(t *testing.T) {
	t.Parallel()

	got := insertSQL("transactions", []string{"id", "client_id"})
	want := "INSERT INTO `transactions` (`id`, `client_id`) VALUES (?, ?)"
	if got != want {
		t.Fatalf("insertSQL = %q, want %q", got, want)
	}
	if q := quoteIdent("bank.odd`name"); q != "`bank`.`odd``name`" {
		t.Fatalf("quoteIdent = %q", q)
	}
}

func TestDescribeAddsErrorNumber(t *testing.T) {
	t.Parallel()

	me := &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"}
	err := describe("insert into transactions", me)
	if !errors.Is(err, me) || !strings.Contains(err.Error(), "1452") {
		t.Fatalf("describe = %v", err)
	}
}

func TestCopyFromEmptyBatchIsNoop(t *testing.T) {
	t.Parallel()

	r := &Repository{}
	if n, err := r.CopyFrom(context.Background(), "t", []string{"id"}, nil); err != nil || n != 0 {
		t.Fatalf("CopyFrom(nil) = %d, %v", n, err)
	}
}

func TestAdapterRegistration(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()

	var got Config
	closed := 0
	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		got = cfg
		return &Repository{}, func() { closed++ }, nil
	}

	repo, err := storage.New(context.Background(), storage.Config{Kind: "mysql", DSN: "u:p@tcp(h:3306)/bank"})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	if got.DSN != "u:p@tcp(h:3306)/bank" {
		t.Fatalf("DSN = %q", got.DSN)
	}
	repo.Close()
	if closed != 1 {
		t.Fatalf("closeFn calls = %d, want 1", closed)
	}
}
