package storage

// This file implements the generic batched loader. It drains coerced rows from
// a lazy sequence, groups them into batches, and hands each batch to a CopyFn
// which is expected to insert and commit it atomically.
//
// Logging: on every successful flush a progress line is emitted with the
// running total and rows/sec since the previous flush.

import (
	"context"
	"iter"
	"time"

	"github.com/pkg/errors"

	"bankload/internal/logger"
)

// DefaultBatchSize is the number of rows per insert+commit.
const DefaultBatchSize = 10_000

// CopyFn abstracts a backend's bulk insert capability. Implementations insert
// the provided rows (aligned to 'columns') and commit them, returning the
// number of rows reported as inserted.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadStats summarises a LoadBatches call.
type LoadStats struct {
	Rows    int64 // rows committed
	Batches int64 // CopyFn calls that committed
}

// LoadBatches drains 'in', groups rows into batches of 'batchSize', and calls
// copyFn once per batch. The trailing partial batch is flushed after 'in' is
// exhausted; an empty trailing batch is not flushed. The number of copyFn
// calls is therefore ceil(N/batchSize).
//
// The first error from 'in' or copyFn stops the load. Batches committed before
// the failure stay committed and are reflected in the returned stats.
func LoadBatches(
	ctx context.Context,
	label string,
	columns []string,
	in iter.Seq2[[]any, error],
	batchSize int,
	copyFn CopyFn,
) (LoadStats, error) {
	var stats LoadStats
	if batchSize <= 0 {
		return stats, errors.New("batchSize must be > 0")
	}
	if copyFn == nil {
		return stats, errors.New("copyFn must not be nil")
	}

	log := logger.FromContext(ctx).With().Str("entity", label).Logger()

	var (
		batch       = make([][]any, 0, min(batchSize, 1024))
		start       = time.Now()
		lastFlushTS = start
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := copyFn(ctx, columns, batch)
		// Reuse allocated slice; keep capacity to avoid churn.
		batch = batch[:0]
		if err != nil {
			log.Error().Err(err).
				Int64("batch", stats.Batches+1).
				Int64("total_inserted", stats.Rows).
				Msg("loader: batch failed")
			return errors.Wrapf(err, "%s: batch #%d", label, stats.Batches+1)
		}

		stats.Rows += n
		stats.Batches++
		now := time.Now()
		sinceLast := now.Sub(lastFlushTS)
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(n) / sinceLast.Seconds()
		}
		log.Info().
			Int64("batch", stats.Batches).
			Int64("inserted", n).
			Int64("total_inserted", stats.Rows).
			Float64("rps", float64(int64(rps))).
			Dur("elapsed", now.Sub(start).Truncate(time.Millisecond)).
			Msgf("imported %s: %d", label, stats.Rows)
		lastFlushTS = now
		return nil
	}

	for row, err := range in {
		if err != nil {
			return stats, err
		}
		batch = append(batch, row)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}
	if err := flush(); err != nil {
		return stats, err
	}
	log.Debug().Int64("total_inserted", stats.Rows).Msg("loader: input exhausted")
	return stats, nil
}
