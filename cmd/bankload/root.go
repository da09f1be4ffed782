package main

import (
	"context"

	"github.com/spf13/cobra"

	"bankload/internal/config"
	"bankload/internal/logger"
)

// app carries state shared by every subcommand.
type app struct {
	getenv func(string) string

	configPath string
	baseDir    string
	verbose    bool
}

func newRootCmd(getenv func(string) string) *cobra.Command {
	a := &app{getenv: getenv}

	root := &cobra.Command{
		Use:   "bankload",
		Short: "Bulk-load the bank dataset CSV files into a relational database",
		Long: `bankload recreates the target database from a DDL script and loads
categories, clients, subscriptions and transactions in foreign-key order,
committing every batch on its own.

Configuration is read from a YAML file, a .env file next to it and
BANKLOAD_* environment variables; flags override all of them.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", config.DefaultFileName, "config file (YAML or JSON); a missing file means defaults")
	pf.StringVar(&a.baseDir, "base-dir", "", "root for relative paths (overrides base_dir)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		a.importCmd(),
		a.statsCmd(),
		a.validateCmd(),
		a.scheduleCmd(),
	)
	return root
}

// loadConfig builds the effective configuration and applies the persistent
// flags on top of it.
func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.configPath, a.getenv)
	if err != nil {
		return nil, err
	}
	if a.baseDir != "" {
		cfg.BaseDir = a.baseDir
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// withLogger installs the configured logger as the process default and on
// the returned context.
func withLogger(ctx context.Context, cfg *config.Config) context.Context {
	l := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	logger.SetDefault(l)
	return logger.WithContext(ctx, l)
}
