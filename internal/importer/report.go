package importer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"bankload/internal/datasource/file"
)

// Report summarises one run. It is filled in as the run progresses, so a
// failed run still carries everything that happened before the failure.
type Report struct {
	RunID      string        `json:"run_id"`
	State      State         `json:"state"`
	Database   string        `json:"database"`
	BatchSize  int           `json:"batch_size"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration_ns"`

	Sources  map[string]file.Fingerprint `json:"sources,omitempty"`
	Entities []EntityReport              `json:"entities"`

	// Counts holds SELECT COUNT(*) per table; only set once every load
	// succeeded.
	Counts map[string]int64 `json:"counts,omitempty"`

	Error string `json:"error,omitempty"`
}

// EntityReport is the outcome of loading one table.
type EntityReport struct {
	Entity   string         `json:"entity"`
	File     string         `json:"file"`
	Inserted int64          `json:"inserted"`
	Batches  int64          `json:"batches"`
	Skipped  int            `json:"skipped"`
	Reasons  map[string]int `json:"skipped_by_reason,omitempty"`
	Duration time.Duration  `json:"duration_ns"`
}

// Entity returns the report for table, if it was started.
func (r *Report) Entity(table string) (EntityReport, bool) {
	for _, e := range r.Entities {
		if e.Entity == table {
			return e, true
		}
	}
	return EntityReport{}, false
}

// WriteJSON writes the report to path, creating parent directories.
func (r *Report) WriteJSON(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create report dir")
	}
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode report")
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return errors.Wrap(err, "write report")
	}
	return nil
}
