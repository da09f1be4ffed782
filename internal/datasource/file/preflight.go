package file

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"
)

// readBufSize is the read buffer used while hashing.
const readBufSize = 1 << 20

// Fingerprint identifies the exact content of a source file.
type Fingerprint struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
	XXH3 string `json:"xxh3"`
}

// CheckExists verifies every path names a readable regular file. All
// problems are reported together.
func CheckExists(paths ...string) error {
	var errs []error
	for _, p := range paths {
		st, err := os.Stat(p)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("preflight: %w", err))
		case !st.Mode().IsRegular():
			errs = append(errs, fmt.Errorf("preflight: %s is not a regular file", p))
		}
	}
	return errors.Join(errs...)
}

// FingerprintFile returns the size and xxh3-64 hash of path.
func FingerprintFile(ctx context.Context, path string) (Fingerprint, error) {
	rc, err := NewLocal(path).Open(ctx)
	if err != nil {
		return Fingerprint{}, err
	}
	defer rc.Close()

	h := xxh3.New()
	n, err := io.Copy(h, &ctxReader{ctx: ctx, r: bufio.NewReaderSize(rc, readBufSize)})
	if err != nil {
		return Fingerprint{}, fmt.Errorf("hash %s: %w", path, err)
	}
	return Fingerprint{Path: path, Size: n, XXH3: fmt.Sprintf("%016x", h.Sum64())}, nil
}

// FingerprintAll hashes files (name -> path) concurrently. The first error
// cancels the remaining work.
func FingerprintAll(ctx context.Context, files map[string]string) (map[string]Fingerprint, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]Fingerprint, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, name := range names {
		g.Go(func() error {
			fp, err := FingerprintFile(gctx, files[name])
			if err != nil {
				return err
			}
			results[i] = fp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]Fingerprint, len(names))
	for i, name := range names {
		out[name] = results[i]
	}
	return out, nil
}

// ctxReader aborts a long read once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
