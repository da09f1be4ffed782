// Package importer runs a full bank dataset import: preflight, schema reset,
// the four table loads in foreign-key order, and the final row counts.
//
// The import is strictly sequential and reuses one connection for every
// load and for the counts. Each batch commits on its own, so a failure
// leaves earlier batches and earlier tables in place.
package importer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"bankload/internal/coerce"
	"bankload/internal/config"
	"bankload/internal/datasource/file"
	"bankload/internal/domain"
	"bankload/internal/logger"
	"bankload/internal/metrics"
	"bankload/internal/parser/csv"
	"bankload/internal/schema"
	"bankload/internal/skiplog"
	"bankload/internal/storage"
)

// Run executes one import described by cfg. The returned Report is never
// nil; on failure it is in the Failed state and carries the error text.
func Run(ctx context.Context, cfg *config.Config) (*Report, error) {
	runID := uuid.NewString()
	log := logger.FromContext(ctx).With().Str("run_id", runID).Logger()
	ctx = logger.WithContext(ctx, log)

	im := &importer{
		cfg: cfg,
		job: cfg.Metrics.Job,
		report: &Report{
			RunID:     runID,
			State:     NotStarted,
			Database:  cfg.Database.Kind,
			BatchSize: cfg.Runtime.BatchSize,
			StartedAt: time.Now().UTC(),
		},
	}

	err := im.run(ctx)

	r := im.report
	r.FinishedAt = time.Now().UTC()
	r.Duration = r.FinishedAt.Sub(r.StartedAt)
	if err != nil {
		_ = r.State.advance(Failed)
		r.Error = err.Error()
		log.Error().Stack().Err(err).Str("state", r.State.String()).Msg("import failed")
	}
	metrics.RecordStep(im.job, metrics.StepImport, err, r.Duration)

	if path := cfg.ReportFile(); path != "" {
		if werr := r.WriteJSON(path); werr != nil {
			log.Warn().Err(werr).Str("path", path).Msg("report not written")
		} else {
			log.Info().Str("path", path).Msg("report written")
		}
	}
	if ferr := metrics.Flush(); ferr != nil {
		log.Warn().Err(ferr).Msg("metrics flush failed")
	}
	return r, err
}

type importer struct {
	cfg    *config.Config
	job    string
	report *Report
}

func (im *importer) run(ctx context.Context) error {
	if err := im.step(ctx, "preflight", im.preflight); err != nil {
		return err
	}

	err := im.step(ctx, "schema", func(ctx context.Context) error {
		return schema.Initialize(ctx, im.cfg.Storage(), im.cfg.SchemaPath(), domain.Tables)
	})
	if err != nil {
		return err
	}
	if err := im.report.State.advance(SchemaCreated); err != nil {
		return err
	}

	repo, err := storage.New(ctx, im.cfg.Storage())
	if err != nil {
		return errors.Wrap(err, "open database")
	}
	// Released on every path, including failures mid-load.
	defer repo.Close()

	for _, e := range entities {
		err := im.step(ctx, e.table, func(ctx context.Context) error {
			return im.load(ctx, repo, e)
		})
		if err != nil {
			return err
		}
		if err := im.report.State.advance(e.loaded); err != nil {
			return err
		}
	}

	err = im.step(ctx, "report", func(ctx context.Context) error {
		counts, err := TableCounts(ctx, repo, domain.Tables)
		if err != nil {
			return err
		}
		im.report.Counts = counts
		metrics.RecordTableRows(im.job, counts)
		return nil
	})
	if err != nil {
		return err
	}
	if err := im.report.State.advance(Reported); err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	ev := log.Info()
	for _, t := range domain.Tables {
		ev = ev.Int64(t, im.report.Counts[t])
	}
	ev.Msg("import finished")
	return nil
}

// step runs fn and records its duration and outcome.
func (im *importer) step(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	metrics.RecordStep(im.job, name, err, time.Since(start))
	return err
}

// preflight checks every input exists and fingerprints the CSV files. It
// runs before the reset so a missing file never costs the old database.
func (im *importer) preflight(ctx context.Context) error {
	sources := make(map[string]string, len(entities))
	paths := []string{im.cfg.SchemaPath()}
	for _, e := range entities {
		p := im.cfg.SourcePath(e.table)
		sources[e.table] = p
		paths = append(paths, p)
	}
	if err := file.CheckExists(paths...); err != nil {
		return errors.WithStack(err)
	}
	fps, err := file.FingerprintAll(ctx, sources)
	if err != nil {
		return errors.Wrap(err, "fingerprint sources")
	}
	im.report.Sources = fps

	log := logger.FromContext(ctx)
	for _, e := range entities {
		fp := fps[e.table]
		log.Debug().Str("entity", e.table).Str("path", fp.Path).Int64("size", fp.Size).Str("xxh3", fp.XXH3).Msg("source ok")
	}
	return nil
}

// load streams one CSV file into its table.
func (im *importer) load(ctx context.Context, repo storage.Repository, e entity) error {
	start := time.Now()
	path := im.cfg.SourcePath(e.table)
	log := logger.FromContext(ctx).With().Str("entity", e.table).Logger()
	log.Info().Str("file", path).Msg("import started")

	im.report.Entities = append(im.report.Entities, EntityReport{Entity: e.table, File: path})
	rep := &im.report.Entities[len(im.report.Entities)-1]

	rc, err := file.NewLocal(path).Open(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	defer rc.Close()

	p := im.cfg.Parser
	r, err := csv.NewReader(rc, csv.Options{
		Comma:      p.CommaRune(),
		TrimSpace:  p.TrimSpace,
		LazyQuotes: p.LazyQuotes,
		HeaderMap:  p.HeaderMap,
	})
	if err != nil {
		return errors.Wrapf(err, "%s: %s", e.table, path)
	}
	if err := coerce.CheckHeader(e.table, r.HasColumn, e.header); err != nil {
		return errors.WithStack(err)
	}

	skipPath := ""
	if e.skipReason != "" {
		skipPath = im.cfg.SkippedPath()
	}
	skips, err := skiplog.New(skipPath)
	if err != nil {
		return errors.WithStack(err)
	}
	defer func() {
		if cerr := skips.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("skip log not closed cleanly")
		}
	}()

	rows := func(yield func([]any, error) bool) {
		for rec, err := range r.Records() {
			if err != nil {
				yield(nil, errors.Wrapf(err, "%s: %s", e.table, path))
				return
			}
			row, skip, err := e.convert(rec)
			if err != nil {
				yield(nil, errors.WithStack(err))
				return
			}
			if skip {
				skips.Add(e.skipReason, rec.Line, e.skipField, rec.Raw())
				continue
			}
			if !yield(row, nil) {
				return
			}
		}
	}

	copyFn := func(ctx context.Context, columns []string, batch [][]any) (int64, error) {
		return repo.CopyFrom(ctx, e.table, columns, batch)
	}
	stats, err := storage.LoadBatches(ctx, e.table, e.columns, rows, im.cfg.Runtime.BatchSize, copyFn)

	rep.Inserted = stats.Rows
	rep.Batches = stats.Batches
	rep.Skipped = skips.Total()
	if rep.Skipped > 0 {
		rep.Reasons = skips.Counts()
	}
	rep.Duration = time.Since(start)

	metrics.RecordRow(im.job, e.table, metrics.KindInserted, stats.Rows)
	metrics.RecordRow(im.job, e.table, metrics.KindSkipped, int64(rep.Skipped))
	metrics.RecordBatches(im.job, e.table, stats.Batches)

	if err != nil {
		return err
	}
	ev := log.Info().Int64("total", stats.Rows).Int64("batches", stats.Batches).Dur("elapsed", rep.Duration.Truncate(time.Millisecond))
	if rep.Skipped > 0 {
		ev = ev.Int("skipped", rep.Skipped)
	}
	ev.Msgf("imported %s total: %d", e.table, stats.Rows)
	return nil
}

// TableCounts returns SELECT COUNT(*) for each table.
func TableCounts(ctx context.Context, repo storage.Repository, tables []string) (map[string]int64, error) {
	out := make(map[string]int64, len(tables))
	for _, t := range tables {
		n, err := repo.Count(ctx, t)
		if err != nil {
			return nil, errors.Wrapf(err, "count %s", t)
		}
		out[t] = n
	}
	return out, nil
}
