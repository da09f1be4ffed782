// Package config defines the configuration model for bankload and the
// layered loader that builds it.
//
// Precedence, lowest first:
//
//  1. Built-in defaults (Default), which reproduce the fixed layout
//     bank.db, create_tables.sql and data/*.csv under the working directory.
//  2. The YAML config file, when present. JSON is valid YAML.
//  3. A .env file next to the config file, read with godotenv. Values already
//     present in the process environment win over .env values.
//  4. BANKLOAD_* environment variables.
//  5. CLI flags, applied by the command layer after Load returns.
//
// For tests, Load takes a getenv function so the process environment is never
// touched:
//
//	env := map[string]string{"BANKLOAD_BATCH_SIZE": "2"}
//	cfg, err := config.Load("testdata/bankload.yaml", func(k string) string { return env[k] })
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"bankload/internal/domain"
	"bankload/internal/storage"
)

// DefaultFileName is the config file looked up when --config is not given.
const DefaultFileName = "bankload.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BANKLOAD_"

// SkippedFileName is the skip log written under SkippedDir.
const SkippedFileName = "transactions_skipped.csv"

// Config is the full, resolved-on-demand configuration of one import.
type Config struct {
	// BaseDir is the root every relative path resolves against.
	BaseDir string `yaml:"base_dir"`

	Database Database `yaml:"database"`

	// SchemaScript is the DDL script executed after the reset.
	SchemaScript string `yaml:"schema_script"`

	// DataDir holds the four CSV files. Relative to BaseDir.
	DataDir string `yaml:"data_dir"`
	Files   Files  `yaml:"files"`

	Runtime Runtime `yaml:"runtime"`
	Parser  Parser  `yaml:"parser"`

	// SkippedDir, when set, receives transactions_skipped.csv.
	SkippedDir string `yaml:"skipped_dir"`

	// ReportPath, when set, receives the JSON run report.
	ReportPath string `yaml:"report_path"`

	Metrics  Metrics  `yaml:"metrics"`
	Log      Log      `yaml:"log"`
	Schedule Schedule `yaml:"schedule"`
}

// Database selects the storage backend.
type Database struct {
	// Kind is a registered storage kind: sqlite, postgres, mysql or mssql.
	Kind string `yaml:"kind"`

	// DSN is the connection string. For sqlite it is a file path relative
	// to BaseDir, a file: URI, or ":memory:".
	DSN string `yaml:"dsn"`
}

// Files names the CSV file of each entity inside DataDir.
type Files struct {
	Categories    string `yaml:"categories"`
	Clients       string `yaml:"clients"`
	Subscriptions string `yaml:"subscriptions"`
	Transactions  string `yaml:"transactions"`
}

// Runtime holds throughput tunables.
type Runtime struct {
	BatchSize int `yaml:"batch_size"`
}

// Parser configures the CSV reader.
type Parser struct {
	Comma      string            `yaml:"comma"`
	TrimSpace  bool              `yaml:"trim_space"`
	LazyQuotes bool              `yaml:"lazy_quotes"`
	HeaderMap  map[string]string `yaml:"header_map"`
}

// Metrics selects where run metrics go.
type Metrics struct {
	// Backend is none, pushgateway or datadog.
	Backend        string   `yaml:"backend"`
	Job            string   `yaml:"job"`
	PushgatewayURL string   `yaml:"pushgateway_url"`
	DatadogAddr    string   `yaml:"datadog_addr"`
	Namespace      string   `yaml:"namespace"`
	Tags           []string `yaml:"tags"`
}

// Log configures the zerolog logger.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Schedule configures the schedule command.
type Schedule struct {
	Cron string `yaml:"cron"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		BaseDir:      ".",
		Database:     Database{Kind: "sqlite", DSN: "bank.db"},
		SchemaScript: "create_tables.sql",
		DataDir:      "data",
		Files: Files{
			Categories:    domain.TableCategories + ".csv",
			Clients:       domain.TableClients + ".csv",
			Subscriptions: domain.TableSubscriptions + ".csv",
			Transactions:  domain.TableTransactions + ".csv",
		},
		Runtime: Runtime{BatchSize: storage.DefaultBatchSize},
		Parser:  Parser{Comma: ","},
		Metrics: Metrics{Backend: "none", Job: "bankload"},
		Log:     Log{Level: "info", Format: "console"},
	}
}

// Load builds a Config from defaults, the YAML file at path, a sibling .env
// file and BANKLOAD_* variables looked up through getenv. A missing config
// file is not an error; an unreadable or malformed one is.
func Load(path string, getenv func(string) string) (*Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	dotenv, err := readDotenv(filepath.Join(filepath.Dir(path), ".env"))
	if err != nil {
		return nil, err
	}
	lookup := func(k string) string {
		if v := getenv(k); v != "" {
			return v
		}
		return dotenv[k]
	}
	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}

// readDotenv parses a .env file without exporting it into the process
// environment. A missing file yields an empty map.
func readDotenv(path string) (map[string]string, error) {
	m, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return m, nil
}

// applyEnv overlays BANKLOAD_* values onto cfg.
func applyEnv(cfg *Config, getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}
	str("BASE_DIR", &cfg.BaseDir)
	str("DB_KIND", &cfg.Database.Kind)
	str("DB_DSN", &cfg.Database.DSN)
	str("SCHEMA_SCRIPT", &cfg.SchemaScript)
	str("DATA_DIR", &cfg.DataDir)
	str("SKIPPED_DIR", &cfg.SkippedDir)
	str("REPORT_PATH", &cfg.ReportPath)
	str("METRICS_BACKEND", &cfg.Metrics.Backend)
	str("METRICS_JOB", &cfg.Metrics.Job)
	str("PUSHGATEWAY_URL", &cfg.Metrics.PushgatewayURL)
	str("DATADOG_ADDR", &cfg.Metrics.DatadogAddr)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	str("SCHEDULE_CRON", &cfg.Schedule.Cron)

	if v := getenv(EnvPrefix + "BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sBATCH_SIZE=%q: %w", EnvPrefix, v, err)
		}
		cfg.Runtime.BatchSize = n
	}
	if v := getenv(EnvPrefix + "TRIM_SPACE"); v != "" {
		b, ok := parseBool(v)
		if !ok {
			return fmt.Errorf("%sTRIM_SPACE=%q: not a boolean", EnvPrefix, v)
		}
		cfg.Parser.TrimSpace = b
	}
	return nil
}

// parseBool accepts the common truthy/falsey spellings, case-insensitive.
func parseBool(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}

// Resolve returns p joined to BaseDir unless p is absolute or empty.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

// Storage returns the backend selection with a sqlite file path resolved
// against BaseDir.
func (c *Config) Storage() storage.Config {
	dsn := c.Database.DSN
	if c.Database.Kind == "sqlite" && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		dsn = c.Resolve(dsn)
	}
	return storage.Config{Kind: c.Database.Kind, DSN: dsn}
}

// SchemaPath is the resolved DDL script path.
func (c *Config) SchemaPath() string { return c.Resolve(c.SchemaScript) }

// SourcePath returns the resolved CSV path for a table name, or "" when the
// table is unknown.
func (c *Config) SourcePath(table string) string {
	var name string
	switch table {
	case domain.TableCategories:
		name = c.Files.Categories
	case domain.TableClients:
		name = c.Files.Clients
	case domain.TableSubscriptions:
		name = c.Files.Subscriptions
	case domain.TableTransactions:
		name = c.Files.Transactions
	default:
		return ""
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Resolve(c.DataDir), name)
}

// SkippedPath is the skip log path, or "" when skipped rows are only counted.
func (c *Config) SkippedPath() string {
	if c.SkippedDir == "" {
		return ""
	}
	return filepath.Join(c.Resolve(c.SkippedDir), SkippedFileName)
}

// ReportFile is the resolved report path, or "" when no report is written.
func (c *Config) ReportFile() string { return c.Resolve(c.ReportPath) }

// CommaRune returns the first rune of Parser.Comma, defaulting to ','.
func (p Parser) CommaRune() rune {
	for _, r := range p.Comma {
		return r
	}
	return ','
}
