package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/vstore/internal/errors"
)

// Config file names, in lookup order.
var ConfigFileNames = []string{"vstore.json", "vstore.yaml", "vstore.yml"}

const (
	// DefaultAddr is the default inspector listen address.
	DefaultAddr = "localhost:7070"

	// DefaultMetricsPath is where the inspector serves Prometheus metrics.
	DefaultMetricsPath = "/metrics"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "vstore"

	// DefaultListeners is the default listener count for vstore bench.
	DefaultListeners = 100

	// DefaultWrites is the default write count for vstore bench.
	DefaultWrites = 10000

	// DefaultMaxPasses is the default render pass limit per Flush.
	DefaultMaxPasses = 100
)

// Config represents the complete vstore configuration.
type Config struct {
	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty" yaml:"log,omitempty"`

	// Inspect contains inspector server configuration.
	Inspect InspectConfig `json:"inspect,omitempty" yaml:"inspect,omitempty"`

	// Bench contains defaults for vstore bench.
	Bench BenchConfig `json:"bench,omitempty" yaml:"bench,omitempty"`

	// Scheduler contains render scheduler configuration.
	Scheduler SchedulerConfig `json:"scheduler,omitempty" yaml:"scheduler,omitempty"`

	// Tracing contains OpenTelemetry configuration.
	Tracing TracingConfig `json:"tracing,omitempty" yaml:"tracing,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// InspectConfig contains inspector server settings.
type InspectConfig struct {
	// Addr is the host:port the inspector listens on.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`

	// Metrics enables the Prometheus endpoint.
	Metrics *bool `json:"metrics,omitempty" yaml:"metrics,omitempty"`

	// MetricsPath is the URL path of the Prometheus endpoint.
	MetricsPath string `json:"metricsPath,omitempty" yaml:"metricsPath,omitempty"`

	// Namespace is the Prometheus metrics namespace.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// BenchConfig contains benchmark defaults.
type BenchConfig struct {
	// Listeners is the number of subscriptions on the benchmark store.
	Listeners int `json:"listeners,omitempty" yaml:"listeners,omitempty"`

	// Writes is the number of writes to perform.
	Writes int `json:"writes,omitempty" yaml:"writes,omitempty"`

	// Writers is the number of concurrent writer goroutines.
	Writers int `json:"writers,omitempty" yaml:"writers,omitempty"`
}

// SchedulerConfig contains render scheduler settings.
type SchedulerConfig struct {
	// MaxPasses bounds the render passes of a single Flush.
	MaxPasses int `json:"maxPasses,omitempty" yaml:"maxPasses,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	// Enabled attaches the tracing observer to demo and inspector stores.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// TracerName is the OpenTelemetry tracer name.
	TracerName string `json:"tracerName,omitempty" yaml:"tracerName,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from the specified directory, trying each of
// ConfigFileNames in order. A directory without a config file yields the
// defaults.
func Load(dir string) (*Config, error) {
	for _, name := range ConfigFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return New(), nil
}

// LoadFile reads configuration from the specified file path. The format is
// chosen by extension.
func LoadFile(path string) (*Config, error) {
	format, err := formatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigNotFound).
				WithDetail("No config file at " + path).
				WithSuggestion("Create " + filepath.Base(path) + " or drop the --config flag to use defaults")
		}
		return nil, errors.New(errors.CodeConfigNotFound).Wrap(err)
	}

	cfg := &Config{}
	switch format {
	case "yaml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New(errors.CodeConfigSyntax).
			WithLocationFromError(path, err).
			WithDetail(fmt.Sprintf("Failed to parse %s: %v", filepath.Base(path), err)).
			WithSuggestion("Check that " + filepath.Base(path) + " is valid " + strings.ToUpper(format))
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// formatOf returns "json" or "yaml" for a config file path.
func formatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json", nil
	case ".yaml", ".yml":
		return "yaml", nil
	}
	return "", errors.New(errors.CodeConfigFormat).
		WithDetail("Config file " + path + " has an unsupported extension")
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path, in the format its
// extension names.
func (c *Config) SaveTo(path string) error {
	format, err := formatOf(path)
	if err != nil {
		return err
	}

	var data []byte
	switch format {
	case "yaml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Inspect.Addr == "" {
		c.Inspect.Addr = DefaultAddr
	}
	if c.Inspect.Metrics == nil {
		enabled := true
		c.Inspect.Metrics = &enabled
	}
	if c.Inspect.MetricsPath == "" {
		c.Inspect.MetricsPath = DefaultMetricsPath
	}
	if c.Inspect.Namespace == "" {
		c.Inspect.Namespace = DefaultNamespace
	}

	if c.Bench.Listeners == 0 {
		c.Bench.Listeners = DefaultListeners
	}
	if c.Bench.Writes == 0 {
		c.Bench.Writes = DefaultWrites
	}
	if c.Bench.Writers == 0 {
		c.Bench.Writers = 1
	}

	if c.Scheduler.MaxPasses == 0 {
		c.Scheduler.MaxPasses = DefaultMaxPasses
	}

	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = "vstore"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Inspect.Addr); err != nil {
		return errors.New(errors.CodeConfigInvalidAddr).
			Wrap(err).
			WithSuggestion("Use host:port, for example " + DefaultAddr)
	}
	if !strings.HasPrefix(c.Inspect.MetricsPath, "/") {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("inspect.metricsPath must start with /")
	}
	if c.Bench.Listeners < 0 || c.Bench.Writes < 0 || c.Bench.Writers < 0 {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("bench.listeners, bench.writes and bench.writers must not be negative")
	}
	if c.Scheduler.MaxPasses < 0 {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("scheduler.maxPasses must not be negative")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail(fmt.Sprintf("log.format must be text or json, got %q", c.Log.Format))
	}
	return nil
}

// MetricsEnabled reports whether the inspector serves Prometheus metrics.
func (c *Config) MetricsEnabled() bool {
	return c.Inspect.Metrics == nil || *c.Inspect.Metrics
}

// Logger builds a slog.Logger writing to w as the Log section describes.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, errors.New(errors.CodeConfigInvalid).
			WithDetail(fmt.Sprintf("log.level must be debug, info, warn or error, got %q", s))
	}
	return level, nil
}
