// Package metrics records what an import run did: step outcomes and
// durations, rows inserted or skipped per entity, committed batches and the
// final table sizes.
//
// Callers use the package-level Record* helpers; they forward to the
// installed Backend, which is a no-op until SetBackend is called. Concrete
// backends (Prometheus Pushgateway, DogStatsD) live in subpackages.
package metrics

import (
	"sync"
	"time"
)

// Metric names shared by every backend.
const (
	StepTotal           = "bankload_step_total"
	StepDurationSeconds = "bankload_step_duration_seconds"
	RecordsTotal        = "bankload_records_total"
	BatchesTotal        = "bankload_batches_total"
	TableRows           = "bankload_table_rows"
	LastSuccessSeconds  = "bankload_last_success_timestamp_seconds"
)

// Step outcomes.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Row kinds.
const (
	KindInserted = "inserted"
	KindSkipped  = "skipped"
)

// StepImport is the step name covering a whole run.
const StepImport = "import"

// Backend receives measurements. Implementations must be safe for
// concurrent use.
type Backend interface {
	Step(job, step, status string, d time.Duration)
	Rows(job, entity, kind string, n int64)
	Batches(job, entity string, n int64)
	TableRows(job, table string, n int64)
	Flush() error
}

type nopBackend struct{}

func (nopBackend) Step(string, string, string, time.Duration) {}
func (nopBackend) Rows(string, string, string, int64)         {}
func (nopBackend) Batches(string, string, int64)              {}
func (nopBackend) TableRows(string, string, int64)            {}
func (nopBackend) Flush() error                               { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// SetBackend installs b and returns the backend it replaced. A nil b
// restores the no-op backend.
func SetBackend(b Backend) Backend {
	if b == nil {
		b = nopBackend{}
	}
	mu.Lock()
	prev := backend
	backend = b
	mu.Unlock()
	return prev
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordStep reports one finished step and how long it took.
func RecordStep(job, step string, err error, d time.Duration) {
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}
	current().Step(job, step, status, d)
}

// RecordRow adds n rows of the given kind for an entity. Non-positive n is
// dropped.
func RecordRow(job, entity, kind string, n int64) {
	if n <= 0 {
		return
	}
	current().Rows(job, entity, kind, n)
}

// RecordBatches adds n committed batches for an entity.
func RecordBatches(job, entity string, n int64) {
	if n <= 0 {
		return
	}
	current().Batches(job, entity, n)
}

// RecordTableRows reports the row count of each table after a run.
func RecordTableRows(job string, counts map[string]int64) {
	b := current()
	for table, n := range counts {
		b.TableRows(job, table, n)
	}
}
