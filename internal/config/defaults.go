package config

import "time"

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Project: ProjectConfig{
			Name:       "Unnamed Project",
			SourceDirs: []string{"."},
			DocsDir:    "docs",
			IgnorePatterns: []string{
				"vendor",
				"node_modules",
				".git",
				"testdata",
			},
		},
		Parsing: ParsingConfig{
			Languages:   []string{"go"},
			MaxFileSize: 1 << 20,
		},
		Generation: GenerationConfig{
			Workers:       4,
			PreserveEdits: true,
		},
		LLM: LLMConfig{
			Enabled:       false,
			Provider:      "openai",
			Model:         "gpt-4o-mini",
			MaxTokens:     2000,
			Temperature:   0.3,
			MaxConcurrent: 2,
			Retry: RetryConfig{
				Mode:       "linear",
				Initial:    time.Second,
				Max:        30 * time.Second,
				MaxRetries: 2,
			},
		},
		Daemon: DaemonConfig{
			Debounce:   2 * time.Second,
			ListenAddr: ":9180",
		},
		Events: EventsConfig{
			Subject: "codesworth.docs",
		},
		History: HistoryConfig{
			Path: ".codesworth/history.db",
		},
	}
}

// applyDefaults repairs zero values after YAML overlay so partial config
// files stay valid.
func applyDefaults(c *Config) {
	d := Default()

	if len(c.Project.SourceDirs) == 0 {
		c.Project.SourceDirs = d.Project.SourceDirs
	}
	if c.Project.DocsDir == "" {
		c.Project.DocsDir = d.Project.DocsDir
	}
	if len(c.Parsing.Languages) == 0 {
		c.Parsing.Languages = d.Parsing.Languages
	}
	if c.Parsing.MaxFileSize <= 0 {
		c.Parsing.MaxFileSize = d.Parsing.MaxFileSize
	}
	if c.Generation.Workers <= 0 {
		c.Generation.Workers = d.Generation.Workers
	}
	if c.LLM.MaxConcurrent <= 0 {
		c.LLM.MaxConcurrent = d.LLM.MaxConcurrent
	}
	if c.LLM.Retry.Initial <= 0 {
		c.LLM.Retry.Initial = d.LLM.Retry.Initial
	}
	if c.LLM.Retry.Max <= 0 {
		c.LLM.Retry.Max = d.LLM.Retry.Max
	}
	if c.LLM.Retry.Mode == "" {
		c.LLM.Retry.Mode = d.LLM.Retry.Mode
	}
	if c.Daemon.Debounce <= 0 {
		c.Daemon.Debounce = d.Daemon.Debounce
	}
	if c.Daemon.ListenAddr == "" {
		c.Daemon.ListenAddr = d.Daemon.ListenAddr
	}
	if c.Events.Subject == "" {
		c.Events.Subject = d.Events.Subject
	}
	if c.History.Path == "" {
		c.History.Path = d.History.Path
	}
}
