package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

const (
	defaultConfigPath = "~/.config/kbaudit/config.toml"
	projectConfigName = "kbaudit.toml"
	databaseFileName  = "kbaudit.db"
	runLockFileName   = "kbaudit.lock"
	contentFormatText = "text"
	contentFormatMD   = "markdown"
)

// Paths contains directory configuration.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	ReportDir string `toml:"report_dir"`
	LogDir    string `toml:"log_dir"`
}

// Site describes the help center being audited and how politely to crawl it.
type Site struct {
	BaseURL              string `toml:"base_url"`
	UserAgent            string `toml:"user_agent"`
	RequestIntervalMS    int    `toml:"request_interval_ms"`
	RateLimitWaitSeconds int    `toml:"rate_limit_wait_seconds"`
	MaxRateLimitRetries  int    `toml:"max_rate_limit_retries"`
	TimeoutSeconds       int    `toml:"timeout_seconds"`
	ContentFormat        string `toml:"content_format"`
}

// LLM contains the analysis provider settings. Models are tried in order when
// the provider rate limits a request.
type LLM struct {
	APIKey          string   `toml:"api_key"`
	BaseURL         string   `toml:"base_url"`
	Models          []string `toml:"models"`
	TimeoutSeconds  int      `toml:"timeout_seconds"`
	MaxContentChars int      `toml:"max_content_chars"`
	JSONMode        bool     `toml:"json_mode"`
}

// Workflow contains pacing between pipeline steps.
type Workflow struct {
	ArticlePauseMS  int `toml:"article_pause_ms"`
	AnalysisPauseMS int `toml:"analysis_pause_ms"`
}

// Dashboard contains the web dashboard settings.
type Dashboard struct {
	Bind  string `toml:"bind"`
	// Token, when set, is required as a bearer token on POST endpoints.
	Token string `toml:"token"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for kbaudit.
//
// Configuration sections by subsystem:
//   - Paths: database, report, and log directories
//   - Site: help center location and crawl pacing
//   - LLM: analysis provider credentials and model roster
//   - Workflow: pauses between articles
//   - Dashboard: web dashboard bind address
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Site      Site      `toml:"site"`
	LLM       LLM       `toml:"llm"`
	Workflow  Workflow  `toml:"workflow"`
	Dashboard Dashboard `toml:"dashboard"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the data, report, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.ReportDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, databaseFileName)
}

// RunLockPath returns the file lock guarding pipeline runs.
func (c *Config) RunLockPath() string {
	return filepath.Join(c.Paths.LogDir, runLockFileName)
}

// LogPath returns the shared log file location.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "kbaudit.log")
}

// RequestInterval is the minimum spacing between scraper requests.
func (c *Config) RequestInterval() time.Duration {
	return time.Duration(c.Site.RequestIntervalMS) * time.Millisecond
}

// RateLimitWait is how long the scraper waits after an HTTP 429.
func (c *Config) RateLimitWait() time.Duration {
	return time.Duration(c.Site.RateLimitWaitSeconds) * time.Second
}

// ArticlePause is the pause after storing each newly collected article.
func (c *Config) ArticlePause() time.Duration {
	return time.Duration(c.Workflow.ArticlePauseMS) * time.Millisecond
}

// AnalysisPause is the pause between analyzed articles.
func (c *Config) AnalysisPause() time.Duration {
	return time.Duration(c.Workflow.AnalysisPauseMS) * time.Millisecond
}

// MarkdownContent reports whether article bodies are stored as markdown.
func (c *Config) MarkdownContent() bool {
	return c.Site.ContentFormat == contentFormatMD
}

// LLMConfigured reports whether an analysis credential is available.
func (c *Config) LLMConfigured() bool {
	return strings.TrimSpace(c.LLM.APIKey) != ""
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
