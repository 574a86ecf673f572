package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds the benchmark configuration. It is read once at startup
// and treated as read-only for the rest of the run; components receive
// the values they need explicitly rather than reading shared state.
type Config struct {
	Remote RemoteCfg `mapstructure:"remote" yaml:"remote"`
	Local  LocalCfg  `mapstructure:"local" yaml:"local"`
	Bench  BenchCfg  `mapstructure:"bench" yaml:"bench"`
	Report ReportCfg `mapstructure:"report" yaml:"report"`
}

// RemoteCfg configures the remote document-parse client.
type RemoteCfg struct {
	BaseURL      string        `mapstructure:"base_url" yaml:"base_url"`
	APIKey       string        `mapstructure:"api_key" yaml:"api_key"` // supports ${ENV_VAR} syntax
	Profile      string        `mapstructure:"profile" yaml:"profile"`
	OutputFormat string        `mapstructure:"output_format" yaml:"output_format"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	JobTimeout   time.Duration `mapstructure:"job_timeout" yaml:"job_timeout"`
	MaxRetries   int           `mapstructure:"max_retries" yaml:"max_retries"`
	RateLimit    float64       `mapstructure:"rate_limit" yaml:"rate_limit"` // requests per second
}

// LocalCfg configures the local Tesseract engine.
type LocalCfg struct {
	DefaultProfile string `mapstructure:"default_profile" yaml:"default_profile"`
	TessdataDir    string `mapstructure:"tessdata_dir" yaml:"tessdata_dir"`
}

// BenchCfg configures the orchestrator.
type BenchCfg struct {
	MaxConcurrency int `mapstructure:"max_concurrency" yaml:"max_concurrency"`
}

// ReportCfg configures the report sink.
type ReportCfg struct {
	Output string `mapstructure:"output" yaml:"output"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Remote: RemoteCfg{
			APIKey:       "${OCRBENCH_REMOTE_API_KEY}",
			Profile:      "ocr-default",
			OutputFormat: "md",
			PollInterval: 2 * time.Second,
			JobTimeout:   120 * time.Second,
			MaxRetries:   3,
			RateLimit:    6.0,
		},
		Local: LocalCfg{
			DefaultProfile: "eng",
		},
		Bench: BenchCfg{
			MaxConcurrency: 4,
		},
		Report: ReportCfg{
			Output: "results.xlsx",
		},
	}
}

// Validate checks the configuration before any document is processed.
// Errors here are fatal to the run; everything past startup is isolated
// at the (document, engine) pair level instead.
func (c *Config) Validate() error {
	if c.Remote.BaseURL == "" {
		return fmt.Errorf("remote.base_url is required")
	}
	if _, err := url.ParseRequestURI(c.Remote.BaseURL); err != nil {
		return fmt.Errorf("remote.base_url is not a valid URL: %w", err)
	}
	if ResolveEnvVars(c.Remote.APIKey) == "" {
		return fmt.Errorf("remote.api_key is required (checked %s)", c.Remote.APIKey)
	}
	if c.Remote.PollInterval <= 0 {
		return fmt.Errorf("remote.poll_interval must be positive")
	}
	if c.Remote.JobTimeout <= c.Remote.PollInterval {
		return fmt.Errorf("remote.job_timeout must exceed remote.poll_interval")
	}
	if c.Remote.MaxRetries < 1 {
		return fmt.Errorf("remote.max_retries must be at least 1")
	}
	if c.Bench.MaxConcurrency < 1 {
		return fmt.Errorf("bench.max_concurrency must be at least 1")
	}
	return nil
}
