package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"bankload/internal/config"
	"bankload/internal/domain"
	"bankload/internal/importer"
	"bankload/internal/logger"
	"bankload/internal/metrics"
)

// runFlags override config values for import and schedule.
type runFlags struct {
	batchSize  int
	dbKind     string
	dsn        string
	reportPath string
	skippedDir string
}

func (f *runFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.IntVar(&f.batchSize, "batch-size", 0, "rows per insert+commit (overrides runtime.batch_size)")
	fs.StringVar(&f.dbKind, "db-kind", "", "storage backend: sqlite, postgres, mysql or mssql")
	fs.StringVar(&f.dsn, "dsn", "", "database DSN (sqlite: file path)")
	fs.StringVar(&f.reportPath, "report", "", "write the JSON run report to this path")
	fs.StringVar(&f.skippedDir, "skipped-dir", "", "directory for transactions_skipped.csv")
}

// apply copies every flag the user set onto cfg.
func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	fs := cmd.Flags()
	if fs.Changed("batch-size") {
		cfg.Runtime.BatchSize = f.batchSize
	}
	if fs.Changed("db-kind") {
		cfg.Database.Kind = f.dbKind
	}
	if fs.Changed("dsn") {
		cfg.Database.DSN = f.dsn
	}
	if fs.Changed("report") {
		cfg.ReportPath = f.reportPath
	}
	if fs.Changed("skipped-dir") {
		cfg.SkippedDir = f.skippedDir
	}
}

func (a *app) importCmd() *cobra.Command {
	var rf runFlags
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Recreate the database and load every CSV file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			rf.apply(cmd, cfg)
			if err := checkConfig(cmd.ErrOrStderr(), cfg); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx = withLogger(ctx, cfg)
			defer installMetrics(ctx, cfg.Metrics)()

			rep, err := importer.Run(ctx, cfg)
			printReport(cmd.OutOrStdout(), rep)
			return err
		},
	}
	rf.register(cmd)
	return cmd
}

// checkConfig prints every lint issue and fails when any is an error.
func checkConfig(w io.Writer, cfg *config.Config) error {
	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintf(w, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return fmt.Errorf("configuration is invalid")
	}
	return nil
}

// installMetrics swaps in the configured backend. A backend that cannot be
// built is logged and metrics stay disabled. The returned func restores the
// previous backend and releases the installed one.
func installMetrics(ctx context.Context, m config.Metrics) func() {
	log := logger.FromContext(ctx)
	b, err := newMetricsBackend(m)
	if err != nil {
		log.Warn().Err(err).Str("backend", m.Backend).Msg("metrics disabled")
		return func() {}
	}
	if b == nil {
		log.Debug().Msg("metrics disabled")
		return func() {}
	}
	prev := metrics.SetBackend(b)
	log.Debug().Str("backend", m.Backend).Str("job", m.Job).Msg("metrics enabled")
	return func() {
		metrics.SetBackend(prev)
		if c, ok := b.(io.Closer); ok {
			if err := c.Close(); err != nil {
				log.Warn().Err(err).Msg("metrics backend not closed cleanly")
			}
		}
	}
}

// printReport writes the per-table statistics of a finished run.
func printReport(w io.Writer, rep *importer.Report) {
	if rep == nil {
		return
	}
	if rep.Counts == nil {
		fmt.Fprintf(w, "import %s (run %s)\n", rep.State, rep.RunID)
		return
	}
	fmt.Fprintf(w, "import finished (run %s)\n", rep.RunID)
	printCounts(w, rep.Counts)
}

func printCounts(w io.Writer, counts map[string]int64) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tROWS")
	for _, t := range domain.Tables {
		fmt.Fprintf(tw, "%s\t%d\n", t, counts[t])
	}
	tw.Flush()
}
