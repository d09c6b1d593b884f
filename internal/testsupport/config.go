package testsupport

import (
	"path/filepath"
	"testing"

	"kbaudit/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// Pacing is zeroed so pipeline tests do not sleep.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths = config.Paths{
		DataDir:   filepath.Join(base, "data"),
		ReportDir: filepath.Join(base, "reports"),
		LogDir:    filepath.Join(base, "logs"),
	}
	cfg.Site.RequestIntervalMS = 0
	cfg.Site.RateLimitWaitSeconds = 0
	cfg.Workflow = config.Workflow{}
	cfg.Dashboard.Bind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithLLMKey sets the analysis credential.
func WithLLMKey(key string) ConfigOption {
	return func(c *config.Config) {
		c.LLM.APIKey = key
	}
}

// WithLLMBaseURL points the analysis client at a test server.
func WithLLMBaseURL(url string) ConfigOption {
	return func(c *config.Config) {
		c.LLM.BaseURL = url
	}
}

// WithSiteURL points the scraper at a test server.
func WithSiteURL(url string) ConfigOption {
	return func(c *config.Config) {
		c.Site.BaseURL = url
	}
}

// WithModels replaces the analysis roster.
func WithModels(models ...string) ConfigOption {
	return func(c *config.Config) {
		c.LLM.Models = models
	}
}
