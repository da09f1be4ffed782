package config

// This file adds a lightweight linter for Config values. It performs static
// checks over a loaded Config and returns a list of issues (errors and
// warnings) that the validate command and the import preflight surface.

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"bankload/internal/domain"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding.
//
// Path is a dotted path into the config (e.g. "database.kind",
// "files.clients"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate performs static validation of c. It does not touch the filesystem
// or the database; missing files are caught by the import preflight.
func Validate(c *Config) []Issue {
	var issues []Issue
	issues = append(issues, validateDatabase(c.Database)...)
	issues = append(issues, validatePaths(c)...)
	issues = append(issues, validateRuntime(c.Runtime)...)
	issues = append(issues, validateParser(c.Parser)...)
	issues = append(issues, validateMetrics(c.Metrics)...)
	issues = append(issues, validateLog(c.Log)...)
	issues = append(issues, validateSchedule(c.Schedule)...)
	return issues
}

func validateDatabase(d Database) []Issue {
	var issues []Issue

	if strings.TrimSpace(d.Kind) == "" {
		return append(issues, Issue{
			Severity: SeverityError,
			Path:     "database.kind",
			Message:  "database.kind must not be empty",
		})
	}

	known := map[string]struct{}{
		"sqlite":   {},
		"postgres": {},
		"mysql":    {},
		"mssql":    {},
	}
	if _, ok := known[d.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "database.kind",
			Message:  fmt.Sprintf("unknown database kind %q; ensure a matching backend is registered", d.Kind),
		})
	}

	if strings.TrimSpace(d.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "database.dsn",
			Message:  "database.dsn must not be empty",
		})
	}
	return issues
}

func validatePaths(c *Config) []Issue {
	var issues []Issue

	required := []struct{ path, val string }{
		{"schema_script", c.SchemaScript},
		{"files.categories", c.Files.Categories},
		{"files.clients", c.Files.Clients},
		{"files.subscriptions", c.Files.Subscriptions},
		{"files.transactions", c.Files.Transactions},
	}
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     r.path,
				Message:  r.path + " must not be empty",
			})
		}
	}

	seen := map[string]string{}
	for _, table := range domain.Tables {
		p := c.SourcePath(table)
		if p == "" {
			continue
		}
		if other, dup := seen[p]; dup {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "files." + table,
				Message:  fmt.Sprintf("same file as files.%s: %s", other, p),
			})
		}
		seen[p] = table
	}
	return issues
}

func validateRuntime(r Runtime) []Issue {
	if r.BatchSize <= 0 {
		return []Issue{{
			Severity: SeverityError,
			Path:     "runtime.batch_size",
			Message:  fmt.Sprintf("batch_size=%d; must be positive", r.BatchSize),
		}}
	}
	return nil
}

func validateParser(p Parser) []Issue {
	var issues []Issue

	if p.Comma != "" {
		r, size := utf8.DecodeRuneInString(p.Comma)
		switch {
		case size != len(p.Comma):
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "parser.comma",
				Message:  fmt.Sprintf("comma %q must be a single character", p.Comma),
			})
		case r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError:
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "parser.comma",
				Message:  fmt.Sprintf("comma %q is not a valid CSV delimiter", p.Comma),
			})
		}
	}

	for from, to := range p.HeaderMap {
		if strings.TrimSpace(to) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "parser.header_map." + from,
				Message:  "header_map target must not be empty",
			})
		}
	}
	if p.LazyQuotes {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "parser.lazy_quotes",
			Message:  "lazy_quotes accepts malformed quoting; bad rows may load with shifted fields",
		})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue

	switch m.Backend {
	case "", "none":
	case "pushgateway":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  "pushgateway backend requires pushgateway_url",
			})
		}
	case "datadog":
		if strings.TrimSpace(m.DatadogAddr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.datadog_addr",
				Message:  "datadog backend requires datadog_addr",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; want none, pushgateway or datadog", m.Backend),
		})
	}

	if strings.TrimSpace(m.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "metrics.job",
			Message:  "metrics.job is empty; it is used for metrics labeling and identifying runs",
		})
	}
	return issues
}

func validateLog(l Log) []Issue {
	var issues []Issue

	if l.Level != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(l.Level)); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "log.level",
				Message:  fmt.Sprintf("unknown log level %q; info is used", l.Level),
			})
		}
	}
	switch strings.ToLower(l.Format) {
	case "", "console", "json":
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "log.format",
			Message:  fmt.Sprintf("unknown log format %q; console is used", l.Format),
		})
	}
	return issues
}

func validateSchedule(s Schedule) []Issue {
	if s.Cron == "" {
		return nil
	}
	if _, err := cron.ParseStandard(s.Cron); err != nil {
		return []Issue{{
			Severity: SeverityError,
			Path:     "schedule.cron",
			Message:  fmt.Sprintf("invalid cron expression: %v", err),
		}}
	}
	return nil
}
