// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for the lancet CLI. It is populated by
// Viper from (in order of precedence) command-line flags, environment
// variables prefixed with LANCET_, and an optional YAML config file.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	Engine   EngineConfig   `mapstructure:"engine" yaml:"engine"`
	Report   ReportConfig   `mapstructure:"report" yaml:"report"`
}

// LoggerConfig controls the global Zap logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// AnalysisConfig tunes the per-file JavaScript analyzer.
type AnalysisConfig struct {
	// Module parses sources as ES modules when true, scripts otherwise.
	Module bool `mapstructure:"module" yaml:"module"`
	// MaxFileSize is the largest source file the analyzer will accept, in bytes.
	MaxFileSize int64 `mapstructure:"max_file_size" yaml:"max_file_size"`
	// SuspiciousThreshold is the Shannon entropy (bits per byte) above which
	// a string literal is reported as suspicious.
	SuspiciousThreshold float64 `mapstructure:"suspicious_threshold" yaml:"suspicious_threshold"`
	// MinLiteralLength is the minimum string literal length considered for
	// entropy scoring. Short literals are too noisy to score.
	MinLiteralLength int `mapstructure:"min_literal_length" yaml:"min_literal_length"`
	// Extensions lists the file extensions treated as JavaScript sources
	// during directory walks.
	Extensions []string     `mapstructure:"extensions" yaml:"extensions"`
	Minify     MinifyConfig `mapstructure:"minify" yaml:"minify"`
}

// MinifyConfig tunes the minified-code detector.
type MinifyConfig struct {
	MaxAvgIdentifierLength float64 `mapstructure:"max_avg_identifier_length" yaml:"max_avg_identifier_length"`
	MinIdentifierCount     int     `mapstructure:"min_identifier_count" yaml:"min_identifier_count"`
}

// EngineConfig holds settings for the file-scanning worker pool.
type EngineConfig struct {
	WorkerConcurrency  int           `mapstructure:"worker_concurrency" yaml:"worker_concurrency"`
	DefaultTaskTimeout time.Duration `mapstructure:"default_task_timeout" yaml:"default_task_timeout"`
}

// ReportConfig controls report generation.
type ReportConfig struct {
	// Format selects the report encoder: "json", "sarif" or "checkstyle".
	Format string `mapstructure:"format" yaml:"format"`
	// Output is the report file path. Empty writes to stdout.
	Output string `mapstructure:"output" yaml:"output"`
	// FailOnWarning makes the scan command exit non-zero when any file
	// produced at least one warning.
	FailOnWarning bool `mapstructure:"fail_on_warning" yaml:"fail_on_warning"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "lancet")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Analysis --
	v.SetDefault("analysis.module", false)
	v.SetDefault("analysis.max_file_size", 10*1024*1024)
	v.SetDefault("analysis.suspicious_threshold", 3.9)
	v.SetDefault("analysis.min_literal_length", 24)
	v.SetDefault("analysis.extensions", []string{".js", ".mjs", ".cjs"})
	v.SetDefault("analysis.minify.max_avg_identifier_length", 1.5)
	v.SetDefault("analysis.minify.min_identifier_count", 5)

	// -- Engine --
	v.SetDefault("engine.worker_concurrency", 8)
	v.SetDefault("engine.default_task_timeout", "2m")

	// -- Report --
	v.SetDefault("report.format", "json")
	v.SetDefault("report.output", "")
	v.SetDefault("report.fail_on_warning", false)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Engine.WorkerConcurrency <= 0 {
		return fmt.Errorf("engine.worker_concurrency must be a positive integer")
	}
	if c.Analysis.MaxFileSize <= 0 {
		return fmt.Errorf("analysis.max_file_size must be a positive integer")
	}
	if c.Analysis.SuspiciousThreshold <= 0 {
		return fmt.Errorf("analysis.suspicious_threshold must be positive")
	}
	if c.Analysis.MinLiteralLength < 0 {
		return fmt.Errorf("analysis.min_literal_length must not be negative")
	}
	switch c.Report.Format {
	case "json", "sarif", "checkstyle":
	default:
		return fmt.Errorf("report.format must be one of json, sarif or checkstyle, got %q", c.Report.Format)
	}
	return nil
}
