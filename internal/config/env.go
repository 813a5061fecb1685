package config

import (
	"os"
	"strconv"
)

// applyEnvOverrides overlays CODESWORTH_* environment variables onto the
// configuration. Secrets (the LLM API key, the NATS URL) are the common case;
// a few operational knobs are included for container deployments.
func applyEnvOverrides(c *Config) {
	if v := os.Getenv("CODESWORTH_DOCS_DIR"); v != "" {
		c.Project.DocsDir = v
	}
	if v := os.Getenv("CODESWORTH_LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("CODESWORTH_LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("CODESWORTH_LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("CODESWORTH_LLM_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.LLM.Enabled = b
		}
	}
	if v := os.Getenv("CODESWORTH_NATS_URL"); v != "" {
		c.Events.URL = v
	}
	if v := os.Getenv("CODESWORTH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Generation.Workers = n
		}
	}
	if v := os.Getenv("CODESWORTH_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Metrics.Enabled = b
		}
	}
}
