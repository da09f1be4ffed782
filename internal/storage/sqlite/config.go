// Package sqlite implements a SQLite-backed storage.Repository.
package sqlite

import (
	"strings"
)

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite file path or connection string, e.g.:
	//   "bank.db"
	//   "file:bank.db?_pragma=foreign_keys(1)"
	//   ":memory:"
	DSN string
}

// pragmas applied to every connection opened from a plain file path.
const pragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// connString turns a plain path into a modernc DSN with foreign keys enforced.
// Values that already use the file: URI form are passed through untouched.
func connString(dsn string) string {
	switch {
	case dsn == ":memory:":
		return dsn
	case strings.HasPrefix(dsn, "file:"):
		return dsn
	default:
		return "file:" + dsn + "?" + pragmas
	}
}

// filePath extracts the on-disk path from a DSN. It returns "" for in-memory
// databases.
func filePath(dsn string) string {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return ""
	}
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	return clean
}
