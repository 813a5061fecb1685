// Package config loads and validates Codesworth configuration from YAML,
// with optional .env loading and CODESWORTH_* environment overrides. The
// loaded Config is an immutable snapshot: components receive it by value or
// through narrow sub-structs, never as ambient global state.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the conventional configuration file name.
const DefaultFileName = "codesworth.yaml"

// Config is the root configuration.
type Config struct {
	Project    ProjectConfig    `yaml:"project"`
	Parsing    ParsingConfig    `yaml:"parsing"`
	Generation GenerationConfig `yaml:"generation"`
	LLM        LLMConfig        `yaml:"llm"`
	Daemon     DaemonConfig     `yaml:"daemon"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Events     EventsConfig     `yaml:"events"`
	History    HistoryConfig    `yaml:"history"`
}

// ProjectConfig identifies the project and its layout.
type ProjectConfig struct {
	Name           string   `yaml:"name"`
	SourceDirs     []string `yaml:"source_dirs"`
	DocsDir        string   `yaml:"docs_dir"`
	IgnorePatterns []string `yaml:"ignore_patterns"`
}

// ParsingConfig controls source discovery and parsing.
type ParsingConfig struct {
	Languages   []string `yaml:"languages"`
	MaxFileSize int64    `yaml:"max_file_size"`

	// OrderSignificant flags unit kinds whose member declaration order is
	// semantically significant and must be preserved in the fingerprint.
	OrderSignificant map[string]bool `yaml:"order_significant"`
}

// GenerationConfig controls document generation and merging.
type GenerationConfig struct {
	// Workers bounds the per-unit worker pool.
	Workers int `yaml:"workers"`

	// PreserveEdits toggles protected-region merging. Disabling it is only
	// useful for throwaway output; protected content is still never deleted
	// from existing files because unchanged units are not rewritten.
	PreserveEdits bool `yaml:"preserve_edits"`

	// TemplateDir points at custom generator templates, empty for built-in.
	TemplateDir string `yaml:"template_dir"`
}

// LLMConfig configures the optional LLM-backed content generator.
type LLMConfig struct {
	Enabled     bool        `yaml:"enabled"`
	Provider    string      `yaml:"provider"`
	Model       string      `yaml:"model"`
	APIKey      string      `yaml:"api_key"`
	BaseURL     string      `yaml:"base_url"`
	MaxTokens   int         `yaml:"max_tokens"`
	Temperature float32     `yaml:"temperature"`
	// MaxConcurrent caps in-flight generator calls; the remote service's
	// rate limits are the only shared resource in the pipeline.
	MaxConcurrent int         `yaml:"max_concurrent"`
	Retry         RetryConfig `yaml:"retry"`
}

// RetryConfig configures backoff for generator calls.
type RetryConfig struct {
	Mode       string        `yaml:"mode"` // fixed|linear|exponential
	Initial    time.Duration `yaml:"initial"`
	Max        time.Duration `yaml:"max"`
	MaxRetries int           `yaml:"max_retries"`
}

// DaemonConfig configures watch mode.
type DaemonConfig struct {
	Debounce   time.Duration `yaml:"debounce"`
	Schedule   string        `yaml:"schedule"` // cron expression, empty disables
	ListenAddr string        `yaml:"listen_addr"`
}

// MetricsConfig toggles the Prometheus recorder.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// EventsConfig configures the optional NATS publisher.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// HistoryConfig configures the sqlite run-history store.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads configuration from path. A missing file yields defaults. A .env
// file next to the working directory is loaded best-effort before reading
// environment overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = DefaultFileName
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults plus env overrides.
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants that defaults cannot repair.
func (c *Config) Validate() error {
	if len(c.Project.SourceDirs) == 0 {
		return fmt.Errorf("config: project.source_dirs must not be empty")
	}
	if c.Project.DocsDir == "" {
		return fmt.Errorf("config: project.docs_dir must not be empty")
	}
	if c.Generation.Workers < 1 {
		return fmt.Errorf("config: generation.workers must be >= 1")
	}
	if c.LLM.Enabled && c.LLM.Model == "" {
		return fmt.Errorf("config: llm.model is required when llm.enabled")
	}
	if c.Events.Enabled && c.Events.URL == "" {
		return fmt.Errorf("config: events.url is required when events.enabled")
	}
	return nil
}

// Save writes the configuration as YAML, used by `codesworth init`.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
