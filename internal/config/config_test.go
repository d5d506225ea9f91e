package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.BaseURL)
	assert.Equal(t, 200, cfg.Limits.GetMaxRoutes())
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crudprobe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
base_url: https://app.example.com
manifest: routes.json
browser:
  headless: true
  navigation_timeout_ms: 5000
limits:
  max_routes: 50
  keep_alive_every: 5
output:
  report_path: out/report.csv
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://app.example.com", cfg.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Browser.NavigationTimeout())
	assert.Equal(t, 50, cfg.Limits.GetMaxRoutes())
	assert.Equal(t, 5, cfg.Limits.GetKeepAliveEvery())
	assert.Equal(t, "out/report.csv", cfg.Output.GetReportPath())
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{{not yaml"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestZeroValueGetters(t *testing.T) {
	var cfg Run

	assert.Equal(t, 1920, cfg.Browser.GetViewportWidth())
	assert.Equal(t, 1080, cfg.Browser.GetViewportHeight())
	assert.Equal(t, 30*time.Second, cfg.Browser.NavigationTimeout())
	assert.Equal(t, 10*time.Second, cfg.Browser.ElementTimeout())
	assert.Equal(t, 30*time.Second, cfg.Browser.LoginTimeout())
	assert.Equal(t, "/login", cfg.Browser.GetLoginPath())
	assert.Equal(t, "/admin", cfg.Browser.GetLandingPath())

	assert.Equal(t, 150, cfg.Limits.GetMaxSimpleRoutes())
	assert.Equal(t, 50, cfg.Limits.GetMaxParamRoutes())
	assert.Equal(t, 15, cfg.Limits.GetMaxCrudResources())
	assert.Equal(t, 20, cfg.Limits.GetKeepAliveEvery())
	assert.Equal(t, time.Second, cfg.Limits.SettleDelay())
	assert.Equal(t, 3*time.Second, cfg.Limits.SubmitSettle())

	assert.Equal(t, "reports/crudprobe.csv", cfg.Output.GetReportPath())
}
