// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Loading layers defaults, an optional YAML file and AQF_* env vars.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/aqframes/internal/domain/aggregate"
	"github.com/okian/aqframes/internal/domain/chart"
	"github.com/okian/aqframes/internal/domain/normalize"
	"github.com/okian/aqframes/pkg/metrics"
)

// Record sources.
const (
	SourceSample   = "sample"
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Source selects where rows come from: sample, csv or postgres.
	Source string `koanf:"source"`

	// DataPath is the CSV file read by the csv source.
	DataPath string `koanf:"data_path"`

	// PostgresDSN and PostgresTable configure the postgres source.
	PostgresDSN   string `koanf:"postgres_dsn"`
	PostgresTable string `koanf:"postgres_table"`

	// SampleRows and SampleSeed drive the generated sample source.
	SampleRows int   `koanf:"sample_rows"`
	SampleSeed int64 `koanf:"sample_seed"`

	// DateColumn names the column parsed as the record date.
	DateColumn string `koanf:"date_column"`

	// TickIntervalMS is the playback interval of charts without their own.
	TickIntervalMS int `koanf:"tick_interval_ms"`

	// FrameQueueSize bounds the queue between controllers and frame sinks.
	FrameQueueSize int `koanf:"frame_queue_size"`

	// MetricsNamespace and MetricsSubsystem prefix every metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`

	// MetricsBuckets are the latency histogram buckets in milliseconds.
	MetricsBuckets []float64 `koanf:"metrics_buckets"`

	// MetricsLabels are constant labels added to every metric.
	MetricsLabels map[string]string `koanf:"metrics_labels"`

	// Autoplay starts every chart's playback when the service starts.
	Autoplay bool `koanf:"autoplay"`

	// Categorical lists columns kept as text.
	Categorical []string `koanf:"categorical"`

	// Thresholds is the per-field limit table of threshold charts.
	Thresholds map[string]float64 `koanf:"thresholds"`

	// Weekend names the days classed as Weekend, e.g. ["Friday", "Saturday"].
	Weekend []string `koanf:"weekend"`

	// Bands derive Low/High categories from numeric fields.
	Bands []normalize.Band `koanf:"bands"`

	// Charts lists the animated charts.
	Charts []chart.Definition `koanf:"charts"`
}

// New creates a Config with defaults that reproduce the built-in chart set.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		Source:           SourceSample,
		PostgresTable:    "air_quality",
		SampleRows:       5000,
		SampleSeed:       1,
		DateColumn:       normalize.DefaultDateColumn,
		TickIntervalMS:   1500,
		FrameQueueSize:   1024,
		MetricsNamespace: "aqframes",
		MetricsSubsystem: "charts",
		Categorical:      append([]string(nil), normalize.DefaultCategorical...),
		Thresholds:       aggregate.DefaultThresholds(),
		Weekend:          []string{"Friday", "Saturday"},
		Bands:            normalize.DefaultBands(),
		Charts:           chart.Defaults(),
	}
}

// fill copies defaults into fields left unset by the loaded layers.
// Lists and maps are replaced as a whole, never merged element-wise.
func (c *Config) fill(d *Config) {
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = d.LogFormat
	}
	if c.Addr == "" {
		c.Addr = d.Addr
	}
	if c.Source == "" {
		c.Source = d.Source
	}
	if c.PostgresTable == "" {
		c.PostgresTable = d.PostgresTable
	}
	if c.SampleRows == 0 {
		c.SampleRows = d.SampleRows
	}
	if c.SampleSeed == 0 {
		c.SampleSeed = d.SampleSeed
	}
	if c.DateColumn == "" {
		c.DateColumn = d.DateColumn
	}
	if c.TickIntervalMS == 0 {
		c.TickIntervalMS = d.TickIntervalMS
	}
	if c.FrameQueueSize == 0 {
		c.FrameQueueSize = d.FrameQueueSize
	}
	if c.MetricsNamespace == "" {
		c.MetricsNamespace = d.MetricsNamespace
	}
	if c.MetricsSubsystem == "" {
		c.MetricsSubsystem = d.MetricsSubsystem
	}
	if len(c.Categorical) == 0 {
		c.Categorical = d.Categorical
	}
	if len(c.Thresholds) == 0 {
		c.Thresholds = d.Thresholds
	}
	if len(c.Weekend) == 0 {
		c.Weekend = d.Weekend
	}
	if c.Bands == nil {
		c.Bands = d.Bands
	}
	if len(c.Charts) == 0 {
		c.Charts = d.Charts
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	c.Source = strings.ToLower(strings.TrimSpace(c.Source))
	switch c.Source {
	case SourceSample:
		if c.SampleRows < 0 {
			return fmt.Errorf("%w: sample_rows must not be negative", ErrInvalidConfig)
		}
	case SourceCSV:
		if c.DataPath == "" {
			return fmt.Errorf("%w: data_path is required for the csv source", ErrInvalidConfig)
		}
	case SourcePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: postgres_dsn is required for the postgres source", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown source %q", ErrInvalidConfig, c.Source)
	}
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.TickIntervalMS <= 0 {
		return fmt.Errorf("%w: tick_interval_ms must be positive", ErrInvalidConfig)
	}
	if c.FrameQueueSize <= 0 {
		return fmt.Errorf("%w: frame_queue_size must be positive", ErrInvalidConfig)
	}
	for i := 1; i < len(c.MetricsBuckets); i++ {
		if c.MetricsBuckets[i] <= c.MetricsBuckets[i-1] {
			return fmt.Errorf("%w: metrics_buckets must be strictly increasing", ErrInvalidConfig)
		}
	}
	if _, err := normalize.ParseWeekdays(c.Weekend); err != nil {
		return fmt.Errorf("%w: weekend: %w", ErrInvalidConfig, err)
	}
	seen := make(map[string]struct{}, len(c.Charts))
	for _, def := range c.Charts {
		if err := def.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		if _, dup := seen[def.ID]; dup {
			return fmt.Errorf("%w: duplicate chart id %q", ErrInvalidConfig, def.ID)
		}
		seen[def.ID] = struct{}{}
	}
	return nil
}

// WeekendDays returns Weekend as weekdays. Invalid names are skipped;
// Validate reports them.
func (c *Config) WeekendDays() []time.Weekday {
	days := make([]time.Weekday, 0, len(c.Weekend))
	for _, name := range c.Weekend {
		if d, err := normalize.ParseWeekdays([]string{name}); err == nil {
			days = append(days, d...)
		}
	}
	return days
}

// MetricsOptions maps the metrics settings onto manager options.
func (c *Config) MetricsOptions() []metrics.Option {
	return []metrics.Option{
		metrics.WithNamespace(c.MetricsNamespace),
		metrics.WithSubsystem(c.MetricsSubsystem),
		metrics.WithHistogramBuckets(c.MetricsBuckets),
		metrics.WithCustomLabels(c.MetricsLabels),
	}
}
