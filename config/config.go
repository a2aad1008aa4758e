package config

import (
	"fmt"
	"time"

	"github.com/gorhill/cronexpr"
)

const (
	SelfHostedSource = "selfhosted"
	SyntheticSource  = "synthetic"
)

const DefaultReportSchedule = "0 * * * * * *"

// Config - How often and from where memory telemetry is sampled, and how
// snapshots are handed to consumers
type Config struct {
	// Seconds between two sampling ticks (fractions allowed, defaults to 1)
	Interval float64 `ini:"interval"`

	// Either "selfhosted" (query the running OS) or "synthetic" (deterministic
	// generated data, useful for demos and tests)
	Source string `ini:"source"`

	// Processes whose page residency and segment table gets sampled. Names are
	// matched against the executable name. Without any, the collector samples itself.
	TargetPids      []int    `ini:"target_pids" delim:","`
	TargetProcesses []string `ini:"target_processes" delim:","`

	// Upper bounds for the per-snapshot page and segment samples
	MaxPages    int `ini:"max_pages"`
	MaxSegments int `ini:"max_segments"`

	// Number of snapshots buffered per subscriber before the oldest gets replaced
	SubscriberQueueSize int `ini:"subscriber_queue_size"`

	// Skip publishing a snapshot if a component has never been collected successfully
	RequireComplete bool `ini:"require_complete"`

	// Check model invariants of every collected component, treating violations
	// like a failed query
	ValidateSnapshots bool `ini:"validate_snapshots"`

	// Write every snapshot as a logfmt line to stdout
	ExportLogfmt bool `ini:"export_logfmt"`

	// Cron expression (with seconds) for the periodic summary report, empty disables it
	ReportSchedule string `ini:"report_schedule"`

	SentryDsn string `ini:"sentry_dsn"`

	SyntheticSeed int64 `ini:"synthetic_seed"`
}

// IntervalDuration - The sampling interval as a time.Duration
func (config Config) IntervalDuration() time.Duration {
	return time.Duration(config.Interval * float64(time.Second))
}

// Validate - Checks the config for values the collector can't work with
func (config Config) Validate() error {
	if config.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", config.Interval)
	}
	if config.Source != SelfHostedSource && config.Source != SyntheticSource {
		return fmt.Errorf("unknown source %q, expected %q or %q", config.Source, SelfHostedSource, SyntheticSource)
	}
	for _, pid := range config.TargetPids {
		if pid <= 0 {
			return fmt.Errorf("invalid target pid %d", pid)
		}
	}
	if config.MaxPages < 0 {
		return fmt.Errorf("max_pages must not be negative, got %d", config.MaxPages)
	}
	if config.MaxSegments < 0 {
		return fmt.Errorf("max_segments must not be negative, got %d", config.MaxSegments)
	}
	if config.SubscriberQueueSize <= 0 {
		return fmt.Errorf("subscriber_queue_size must be positive, got %d", config.SubscriberQueueSize)
	}
	if config.ReportSchedule != "" {
		if _, err := cronexpr.Parse(config.ReportSchedule); err != nil {
			return fmt.Errorf("invalid report_schedule %q: %s", config.ReportSchedule, err)
		}
	}
	return nil
}
