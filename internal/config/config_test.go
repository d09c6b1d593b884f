package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"kbaudit/internal/config"
)

func clearKeyEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"GROQ_API_KEY", "GROK_API_KEY", "AI_API_KEY"} {
		t.Setenv(name, "")
	}
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	clearKeyEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if resolved != filepath.Join(tempHome, ".config", "kbaudit", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if cfg.Paths.DataDir != filepath.Join(tempHome, ".local", "share", "kbaudit") {
		t.Fatalf("unexpected data dir %q", cfg.Paths.DataDir)
	}
	if cfg.DatabasePath() != filepath.Join(cfg.Paths.DataDir, "kbaudit.db") {
		t.Fatalf("unexpected database path %q", cfg.DatabasePath())
	}
	if cfg.LLMConfigured() {
		t.Fatal("expected no LLM credential by default")
	}
	if len(cfg.LLM.Models) != 6 || cfg.LLM.Models[0] != "llama-3.3-70b-versatile" {
		t.Fatalf("unexpected default roster %v", cfg.LLM.Models)
	}
	if cfg.RequestInterval().Milliseconds() != 500 || cfg.AnalysisPause().Milliseconds() != 1000 {
		t.Fatalf("unexpected pacing defaults %s %s", cfg.RequestInterval(), cfg.AnalysisPause())
	}
}

func TestLoadAPIKeyEnvFallbackOrder(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GROK_API_KEY", "grok-key")
	t.Setenv("AI_API_KEY", "generic-key")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.APIKey != "grok-key" {
		t.Fatalf("expected GROK_API_KEY to win over AI_API_KEY, got %q", cfg.LLM.APIKey)
	}

	t.Setenv("GROQ_API_KEY", "groq-key")
	cfg, _, _, err = config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.APIKey != "groq-key" {
		t.Fatalf("expected GROQ_API_KEY first, got %q", cfg.LLM.APIKey)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	clearKeyEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "kbaudit.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"

[site]
base_url = "https://docs.example.com/"
content_format = "Markdown"

[llm]
api_key = "  file-key "
models = ["a", " ", "b"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("unexpected resolution %q %v", resolved, exists)
	}
	if cfg.Site.BaseURL != "https://docs.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Site.BaseURL)
	}
	if !cfg.MarkdownContent() {
		t.Fatal("expected markdown content format")
	}
	if cfg.LLM.APIKey != "file-key" {
		t.Fatalf("unexpected api key %q", cfg.LLM.APIKey)
	}
	if strings.Join(cfg.LLM.Models, ",") != "a,b" {
		t.Fatalf("unexpected models %v", cfg.LLM.Models)
	}
	if cfg.Paths.DataDir != filepath.Join(dir, "data") {
		t.Fatalf("unexpected data dir %q", cfg.Paths.DataDir)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kbaudit.toml")
	if err := os.WriteFile(path, []byte("[site]\nbase_urll = \"x\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestValidateFailures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"empty roster", func(c *config.Config) { c.LLM.Models = nil }, "llm.models"},
		{"relative base url", func(c *config.Config) { c.Site.BaseURL = "help.example.com" }, "site.base_url"},
		{"bad content format", func(c *config.Config) { c.Site.ContentFormat = "pdf" }, "site.content_format"},
		{"negative pause", func(c *config.Config) { c.Workflow.AnalysisPauseMS = -1 }, "workflow.analysis_pause_ms"},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"zero content budget", func(c *config.Config) { c.LLM.MaxContentChars = 0 }, "llm.max_content_chars"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestSampleConfigMatchesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "kbaudit.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var parsed config.Config
	if err := toml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	defaults := config.Default()
	if strings.Join(parsed.LLM.Models, ",") != strings.Join(defaults.LLM.Models, ",") {
		t.Fatalf("sample roster %v differs from defaults %v", parsed.LLM.Models, defaults.LLM.Models)
	}
	if parsed.Site.BaseURL != defaults.Site.BaseURL || parsed.Dashboard.Bind != defaults.Dashboard.Bind {
		t.Fatalf("sample site/dashboard settings differ from defaults: %+v %+v", parsed.Site, parsed.Dashboard)
	}
}

func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths = config.Paths{
		DataDir:   filepath.Join(root, "data"),
		ReportDir: filepath.Join(root, "reports"),
		LogDir:    filepath.Join(root, "logs"),
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.ReportDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}
