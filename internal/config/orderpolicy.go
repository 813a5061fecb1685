package config

import "github.com/neural-chilli/codesworth/internal/docunit"

// OrderPolicy converts the parsing configuration into the fingerprinter's
// per-kind order-significance policy.
func (c *Config) OrderPolicy() docunit.OrderPolicy {
	policy := docunit.DefaultOrderPolicy()
	for kind, significant := range c.Parsing.OrderSignificant {
		policy[docunit.Kind(kind)] = significant
	}
	return policy
}
