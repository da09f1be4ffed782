// Package skiplog counts rows that an import deliberately skipped and, when
// given a path, records each one as a CSV row for later inspection.
package skiplog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Header is the first row of every skip file.
var Header = []string{"reason", "line_number", "field", "raw_line"}

// Stats accumulates skip counts per reason. Not safe for concurrent use.
type Stats struct {
	reasons map[string]int
	f       *os.File
	w       *csv.Writer
}

// New returns Stats that write to path. An empty path only counts.
func New(path string) (*Stats, error) {
	s := &Stats{reasons: make(map[string]int)}
	if path == "" {
		return s, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create dir %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	s.f, s.w = f, w
	return s, nil
}

// Add counts one skipped row and, when a file is attached, records it.
func (s *Stats) Add(reason string, lineNum int, field string, raw string) {
	s.reasons[reason]++
	if s.w != nil {
		_ = s.w.Write([]string{reason, strconv.Itoa(lineNum), field, raw})
	}
}

// Counts returns a copy of the per-reason counters.
func (s *Stats) Counts() map[string]int {
	out := make(map[string]int, len(s.reasons))
	for k, v := range s.reasons {
		out[k] = v
	}
	return out
}

// Total returns the number of skipped rows across all reasons.
func (s *Stats) Total() int {
	n := 0
	for _, v := range s.reasons {
		n += v
	}
	return n
}

// Close flushes and closes the skip file. It is safe to call more than once.
func (s *Stats) Close() error {
	if s.f == nil {
		return nil
	}
	s.w.Flush()
	err := s.w.Error()
	if cerr := s.f.Close(); err == nil {
		err = cerr
	}
	s.f, s.w = nil, nil
	return err
}
