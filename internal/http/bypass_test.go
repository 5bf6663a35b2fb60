package http

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBypassRulesMatch(t *testing.T) {
	rules := DefaultBypassRules()

	tests := []struct {
		path string
		want bool
	}{
		{"/healthz", true},
		{"/metrics", true},
		{"/static/app.css", true},
		{"/favicon.ico", true},
		{"/js/htmx.min.js", true},
		{"/", false},
		{"/api/v1/recipes", false},
		{"/healthz/extra", false},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			require.Equal(t, tc.want, rules.Match(tc.path))
		})
	}
}

func TestLoadBypassRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bypass.yaml")
	content := `exact:
  - /ping
prefixes:
  - /assets/
suffixes:
  - .webp
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	rules, err := LoadBypassRules(path)
	require.NoError(t, err)
	require.True(t, rules.Match("/ping"))
	require.True(t, rules.Match("/assets/logo.webp"))
	require.False(t, rules.Match("/healthz"))
}

func TestLoadBypassRulesMissingFile(t *testing.T) {
	_, err := LoadBypassRules(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
