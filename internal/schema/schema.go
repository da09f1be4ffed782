// Package schema recreates the target database from a DDL script before an
// import. It is backend-agnostic: the reset and the connection both go through
// the storage registry.
package schema

import (
	"context"
	"os"
	"strings"

	"github.com/pkg/errors"

	"bankload/internal/logger"
	"bankload/internal/storage"
)

// ErrEmptyScript is returned when the DDL script contains no statements.
var ErrEmptyScript = errors.New("schema script is empty")

// ReadScript loads the DDL script at path. A script holding only whitespace
// is rejected with ErrEmptyScript.
func ReadScript(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(err, "read schema script")
	}
	script := string(b)
	if strings.TrimSpace(script) == "" {
		return "", errors.Wrapf(ErrEmptyScript, "%s", path)
	}
	return script, nil
}

// Initialize destroys whatever storage cfg addresses, opens a fresh
// connection, and executes the script at scriptPath verbatim. tables lists
// the tables the script creates in foreign-key order; backends that cannot
// delete the whole store drop them child-first.
//
// The script is read before anything is reset so that an unreadable script
// leaves the existing database untouched.
func Initialize(ctx context.Context, cfg storage.Config, scriptPath string, tables []string) error {
	log := logger.FromContext(ctx)

	script, err := ReadScript(scriptPath)
	if err != nil {
		return err
	}

	if err := storage.Reset(ctx, cfg, tables); err != nil {
		return errors.Wrap(err, "reset database")
	}

	repo, err := storage.New(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, "open database")
	}
	defer repo.Close()

	if err := repo.Exec(ctx, script); err != nil {
		return errors.Wrapf(err, "execute %s", scriptPath)
	}

	log.Info().
		Str("kind", cfg.Kind).
		Str("script", scriptPath).
		Int("tables", len(tables)).
		Msg("database created")
	return nil
}
