// Package prompush pushes import metrics to a Prometheus Pushgateway.
//
// An import is a batch job with no long-lived HTTP endpoint to scrape, so the
// collectors live in a private registry that Flush pushes under the job
// grouping key. The push replaces the whole group, so the gateway always
// holds the latest run.
package prompush

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"bankload/internal/metrics"
)

// DefaultJob is the grouping key used when none is configured.
const DefaultJob = "bankload"

// Backend is a metrics.Backend that pushes to a Pushgateway.
type Backend struct {
	gatewayURL string
	job        string
	reg        *prometheus.Registry

	steps       *prometheus.CounterVec   // step, status
	stepSeconds *prometheus.HistogramVec // step, status
	records     *prometheus.CounterVec   // entity, kind
	batches     *prometheus.CounterVec   // entity
	tableRows   *prometheus.GaugeVec     // table
	lastSuccess prometheus.Gauge
}

// NewBackend builds a backend pushing to gatewayURL under job.
func NewBackend(job, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, errors.New("prompush: gateway URL is required")
	}
	if job == "" {
		job = DefaultJob
	}

	b := &Backend{
		gatewayURL: gatewayURL,
		job:        job,
		reg:        prometheus.NewRegistry(),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Import steps run, by step and status.",
		}, []string{"step", "status"}),
		stepSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metrics.StepDurationSeconds,
			Help:    "Import step duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"step", "status"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.RecordsTotal,
			Help: "CSV records per entity, by kind (inserted or skipped).",
		}, []string{"entity", "kind"}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.BatchesTotal,
			Help: "Committed insert batches per entity.",
		}, []string{"entity"}),
		tableRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: metrics.TableRows,
			Help: "Rows in each table after the last import.",
		}, []string{"table"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metrics.LastSuccessSeconds,
			Help: "Unix time of the last successful import.",
		}),
	}

	for _, c := range []prometheus.Collector{b.steps, b.stepSeconds, b.records, b.batches, b.tableRows, b.lastSuccess} {
		if err := b.reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "prompush: register collector")
		}
	}
	return b, nil
}

func (b *Backend) Step(_, step, status string, d time.Duration) {
	b.steps.WithLabelValues(step, status).Inc()
	b.stepSeconds.WithLabelValues(step, status).Observe(d.Seconds())
	if step == metrics.StepImport && status == metrics.StatusSuccess {
		b.lastSuccess.SetToCurrentTime()
	}
}

func (b *Backend) Rows(_, entity, kind string, n int64) {
	b.records.WithLabelValues(entity, kind).Add(float64(n))
}

func (b *Backend) Batches(_, entity string, n int64) {
	b.batches.WithLabelValues(entity).Add(float64(n))
}

func (b *Backend) TableRows(_, table string, n int64) {
	b.tableRows.WithLabelValues(table).Set(float64(n))
}

// Flush pushes the registry, replacing the job's group on the gateway.
func (b *Backend) Flush() error {
	err := push.New(b.gatewayURL, b.job).Gatherer(b.reg).Push()
	return errors.Wrapf(err, "prompush: push to %s", b.gatewayURL)
}
