package http

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// BypassRules lists request paths the demo session middleware skips
// entirely: static assets, probes, and the metrics scrape endpoint.
type BypassRules struct {
	Exact    []string `yaml:"exact"`
	Prefixes []string `yaml:"prefixes"`
	Suffixes []string `yaml:"suffixes"`
}

// DefaultBypassRules covers health checks, metrics, and static assets.
func DefaultBypassRules() BypassRules {
	return BypassRules{
		Exact:    []string{"/healthz", "/readyz", "/metrics"},
		Prefixes: []string{"/static/"},
		Suffixes: []string{".css", ".js", ".ico", ".png", ".svg"},
	}
}

// Match reports whether path is exempt from session binding.
func (b BypassRules) Match(path string) bool {
	for _, p := range b.Exact {
		if path == p {
			return true
		}
	}
	for _, p := range b.Prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	for _, s := range b.Suffixes {
		if strings.HasSuffix(path, s) {
			return true
		}
	}
	return false
}

// LoadBypassRules reads rules from a YAML file, for deployments that need to
// exempt more paths than the defaults.
func LoadBypassRules(path string) (BypassRules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BypassRules{}, fmt.Errorf("failed to read bypass rules file: %w", err)
	}

	var rules BypassRules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return BypassRules{}, fmt.Errorf("failed to parse bypass rules file: %w", err)
	}

	return rules, nil
}
