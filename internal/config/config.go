// Package config holds the run configuration for crudprobe.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Run is the top-level configuration for one exercise run.
type Run struct {
	// Target application.
	BaseURL      string `yaml:"base_url"`
	ManifestPath string `yaml:"manifest"`

	// Credentials are supplied by the caller and never written back out.
	Identifier string `yaml:"identifier"`
	Secret     string `yaml:"secret"`

	Browser Browser `yaml:"browser"`
	Limits  Limits  `yaml:"limits"`
	Output  Output  `yaml:"output"`
}

// Browser configures the single automated session.
type Browser struct {
	Headless            bool   `yaml:"headless"`
	ViewportWidth       int    `yaml:"viewport_width"`
	ViewportHeight      int    `yaml:"viewport_height"`
	NavigationTimeoutMs int    `yaml:"navigation_timeout_ms"`
	ElementTimeoutMs    int    `yaml:"element_timeout_ms"`
	LoginTimeoutMs      int    `yaml:"login_timeout_ms"`
	LoginPath           string `yaml:"login_path"`
	LandingPath         string `yaml:"landing_path"`
}

// Limits bounds the run so it completes in predictable time.
type Limits struct {
	MaxRoutes        int `yaml:"max_routes"`
	MaxSimpleRoutes  int `yaml:"max_simple_routes"`
	MaxParamRoutes   int `yaml:"max_param_routes"`
	MaxCrudResources int `yaml:"max_crud_resources"`
	KeepAliveEvery   int `yaml:"keep_alive_every"`
	SettleDelayMs    int `yaml:"settle_delay_ms"`
	SubmitSettleMs   int `yaml:"submit_settle_ms"`
}

// Output configures the report sink and the optional run history store.
type Output struct {
	ReportPath  string `yaml:"report_path"`
	HistoryPath string `yaml:"history_path"`
}

// Load reads a YAML config file. A missing file yields defaults.
func Load(path string) (Run, error) {
	var cfg Run
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Getter methods fill zero values so a partially specified config behaves.

func (b Browser) GetViewportWidth() int {
	if b.ViewportWidth == 0 {
		return 1920
	}
	return b.ViewportWidth
}

func (b Browser) GetViewportHeight() int {
	if b.ViewportHeight == 0 {
		return 1080
	}
	return b.ViewportHeight
}

// NavigationTimeout bounds a single page load.
func (b Browser) NavigationTimeout() time.Duration {
	if b.NavigationTimeoutMs == 0 {
		return 30 * time.Second
	}
	return time.Duration(b.NavigationTimeoutMs) * time.Millisecond
}

// ElementTimeout bounds a single element lookup.
func (b Browser) ElementTimeout() time.Duration {
	if b.ElementTimeoutMs == 0 {
		return 10 * time.Second
	}
	return time.Duration(b.ElementTimeoutMs) * time.Millisecond
}

// LoginTimeout bounds the post-submit redirect poll.
func (b Browser) LoginTimeout() time.Duration {
	if b.LoginTimeoutMs == 0 {
		return 30 * time.Second
	}
	return time.Duration(b.LoginTimeoutMs) * time.Millisecond
}

func (b Browser) GetLoginPath() string {
	if b.LoginPath == "" {
		return "/login"
	}
	return b.LoginPath
}

func (b Browser) GetLandingPath() string {
	if b.LandingPath == "" {
		return "/admin"
	}
	return b.LandingPath
}

func (l Limits) GetMaxRoutes() int {
	if l.MaxRoutes == 0 {
		return 200
	}
	return l.MaxRoutes
}

func (l Limits) GetMaxSimpleRoutes() int {
	if l.MaxSimpleRoutes == 0 {
		return 150
	}
	return l.MaxSimpleRoutes
}

func (l Limits) GetMaxParamRoutes() int {
	if l.MaxParamRoutes == 0 {
		return 50
	}
	return l.MaxParamRoutes
}

func (l Limits) GetMaxCrudResources() int {
	if l.MaxCrudResources == 0 {
		return 15
	}
	return l.MaxCrudResources
}

// GetKeepAliveEvery is the route cadence for session keep-alive probes.
func (l Limits) GetKeepAliveEvery() int {
	if l.KeepAliveEvery == 0 {
		return 20
	}
	return l.KeepAliveEvery
}

// SettleDelay is the pause after navigation before inspecting the page.
func (l Limits) SettleDelay() time.Duration {
	if l.SettleDelayMs == 0 {
		return time.Second
	}
	return time.Duration(l.SettleDelayMs) * time.Millisecond
}

// SubmitSettle is the pause after a form submit before classifying the result.
func (l Limits) SubmitSettle() time.Duration {
	if l.SubmitSettleMs == 0 {
		return 3 * time.Second
	}
	return time.Duration(l.SubmitSettleMs) * time.Millisecond
}

func (o Output) GetReportPath() string {
	if o.ReportPath == "" {
		return "reports/crudprobe.csv"
	}
	return o.ReportPath
}
