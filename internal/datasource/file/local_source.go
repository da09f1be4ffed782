// Package file opens the CSV inputs of an import from local disk and runs
// the read-only preflight that happens before the database is touched.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Local is one CSV file on local disk.
type Local struct{ path string }

// NewLocal binds a Local to path. Nothing is opened until Open.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the bound path.
func (l *Local) Path() string { return l.path }

// Open returns the file for a single sequential pass. A context that is
// already done wins over the filesystem; open errors keep their cause for
// errors.Is (os.ErrNotExist, os.ErrPermission).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	adviseSequential(f)
	return f, nil
}
