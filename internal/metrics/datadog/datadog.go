// Package datadog sends import metrics to a DogStatsD agent.
package datadog

import (
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/pkg/errors"

	"bankload/internal/metrics"
)

// Config describes the agent connection.
type Config struct {
	// Addr is "host:port" or "unix:///path/to/dsd.socket".
	Addr string
	// Namespace prefixes every metric name, e.g. "bankload.".
	Namespace string
	// GlobalTags are added to every metric, e.g. "env:prod".
	GlobalTags []string
}

// Backend is a metrics.Backend over a statsd client. The job becomes a
// "job:<name>" tag.
type Backend struct {
	client statsd.ClientInterface
}

// NewBackend connects a statsd client for cfg.
func NewBackend(cfg Config) (*Backend, error) {
	if cfg.Addr == "" {
		return nil, errors.New("datadog: agent address is required")
	}
	opts := []statsd.Option{statsd.WithoutTelemetry()}
	if cfg.Namespace != "" {
		opts = append(opts, statsd.WithNamespace(cfg.Namespace))
	}
	if len(cfg.GlobalTags) > 0 {
		opts = append(opts, statsd.WithTags(cfg.GlobalTags))
	}
	c, err := statsd.New(cfg.Addr, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "datadog: connect %s", cfg.Addr)
	}
	return &Backend{client: c}, nil
}

// Errors from the statsd client are dropped: metrics never fail an import.

func (b *Backend) Step(job, step, status string, d time.Duration) {
	tags := []string{"job:" + job, "step:" + step, "status:" + status}
	_ = b.client.Incr(metrics.StepTotal, tags, 1)
	_ = b.client.Distribution(metrics.StepDurationSeconds, d.Seconds(), tags, 1)
	if step == metrics.StepImport && status == metrics.StatusSuccess {
		_ = b.client.Gauge(metrics.LastSuccessSeconds, float64(time.Now().Unix()), []string{"job:" + job}, 1)
	}
}

func (b *Backend) Rows(job, entity, kind string, n int64) {
	_ = b.client.Count(metrics.RecordsTotal, n, []string{"job:" + job, "entity:" + entity, "kind:" + kind}, 1)
}

func (b *Backend) Batches(job, entity string, n int64) {
	_ = b.client.Count(metrics.BatchesTotal, n, []string{"job:" + job, "entity:" + entity}, 1)
}

func (b *Backend) TableRows(job, table string, n int64) {
	_ = b.client.Gauge(metrics.TableRows, float64(n), []string{"job:" + job, "table:" + table}, 1)
}

// Flush sends buffered metrics; the client stays usable for the next run.
func (b *Backend) Flush() error {
	return errors.Wrap(b.client.Flush(), "datadog: flush")
}

// Close flushes and releases the client.
func (b *Backend) Close() error {
	return errors.Wrap(b.client.Close(), "datadog: close")
}
