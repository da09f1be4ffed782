package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type call struct {
	method string
	job    string
	key    string // step, entity or table
	label  string // status or kind
	n      int64
	d      time.Duration
}

type recorder struct {
	mu      sync.Mutex
	calls   []call
	flushes int
}

func (r *recorder) add(c call) {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()
}

func (r *recorder) Step(job, step, status string, d time.Duration) {
	r.add(call{method: "step", job: job, key: step, label: status, d: d})
}

func (r *recorder) Rows(job, entity, kind string, n int64) {
	r.add(call{method: "rows", job: job, key: entity, label: kind, n: n})
}

func (r *recorder) Batches(job, entity string, n int64) {
	r.add(call{method: "batches", job: job, key: entity, n: n})
}

func (r *recorder) TableRows(job, table string, n int64) {
	r.add(call{method: "table", job: job, key: table, n: n})
}

func (r *recorder) Flush() error {
	r.mu.Lock()
	r.flushes++
	r.mu.Unlock()
	return nil
}

// install swaps in a fresh recorder for the duration of the test. Tests
// using it must not run in parallel.
func install(t *testing.T) *recorder {
	t.Helper()
	r := &recorder{}
	prev := SetBackend(r)
	t.Cleanup(func() { SetBackend(prev) })
	return r
}

func TestRecordStep(t *testing.T) {
	r := install(t)

	RecordStep("bankload", "schema", nil, 2*time.Second)
	RecordStep("bankload", "clients", errors.New("fk violation"), 1500*time.Millisecond)

	want := []call{
		{method: "step", job: "bankload", key: "schema", label: StatusSuccess, d: 2 * time.Second},
		{method: "step", job: "bankload", key: "clients", label: StatusFailure, d: 1500 * time.Millisecond},
	}
	if len(r.calls) != len(want) {
		t.Fatalf("calls = %+v", r.calls)
	}
	for i := range want {
		if r.calls[i] != want[i] {
			t.Errorf("call[%d] = %+v, want %+v", i, r.calls[i], want[i])
		}
	}
}

func TestRecordRowAndBatchesDropNonPositive(t *testing.T) {
	r := install(t)

	RecordRow("bankload", "transactions", KindInserted, 3)
	RecordRow("bankload", "transactions", KindSkipped, 0)
	RecordBatches("bankload", "clients", 2)
	RecordBatches("bankload", "clients", -1)

	want := []call{
		{method: "rows", job: "bankload", key: "transactions", label: KindInserted, n: 3},
		{method: "batches", job: "bankload", key: "clients", n: 2},
	}
	if len(r.calls) != len(want) {
		t.Fatalf("calls = %+v", r.calls)
	}
	for i := range want {
		if r.calls[i] != want[i] {
			t.Errorf("call[%d] = %+v, want %+v", i, r.calls[i], want[i])
		}
	}
}

func TestRecordTableRowsKeepsZeroCounts(t *testing.T) {
	r := install(t)

	RecordTableRows("bankload", map[string]int64{"categories": 4, "transactions": 0})

	got := map[string]int64{}
	for _, c := range r.calls {
		if c.method != "table" {
			t.Fatalf("unexpected call %+v", c)
		}
		got[c.key] = c.n
	}
	if len(got) != 2 || got["categories"] != 4 || got["transactions"] != 0 {
		t.Fatalf("table rows = %v", got)
	}
}

func TestSetBackendNilRestoresNop(t *testing.T) {
	r := install(t)

	if err := Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if r.flushes != 1 {
		t.Fatalf("flushes = %d, want 1", r.flushes)
	}

	if prev := SetBackend(nil); prev != r {
		t.Fatalf("SetBackend returned %T, want the recorder", prev)
	}
	RecordRow("bankload", "clients", KindInserted, 1)
	if len(r.calls) != 0 {
		t.Fatalf("recorder still receiving after reset: %+v", r.calls)
	}
	if _, ok := current().(nopBackend); !ok {
		t.Fatalf("current() = %T, want nopBackend", current())
	}
}
