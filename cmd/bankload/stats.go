package main

import (
	"strings"

	"github.com/spf13/cobra"

	"bankload/internal/datasource/file"
	"bankload/internal/domain"
	"bankload/internal/importer"
	"bankload/internal/storage"
)

func (a *app) statsCmd() *cobra.Command {
	var dsn string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print row counts of an existing database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("dsn") {
				cfg.Database.DSN = dsn
			}
			ctx := withLogger(cmd.Context(), cfg)

			sc := cfg.Storage()
			// Opening a missing SQLite file would create an empty one.
			if sc.Kind == "sqlite" && sc.DSN != ":memory:" && !strings.HasPrefix(sc.DSN, "file:") {
				if err := file.CheckExists(sc.DSN); err != nil {
					return err
				}
			}

			repo, err := storage.New(ctx, sc)
			if err != nil {
				return err
			}
			defer repo.Close()

			counts, err := importer.TableCounts(ctx, repo, domain.Tables)
			if err != nil {
				return err
			}
			printCounts(cmd.OutOrStdout(), counts)
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", "", "database DSN (sqlite: file path)")
	return cmd
}
