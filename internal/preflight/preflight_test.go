package preflight

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kbaudit/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckSite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "kbaudit-test" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	if result := CheckSite(context.Background(), srv.URL, "kbaudit-test"); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if result := CheckSite(context.Background(), srv.URL, "other"); result.Passed {
		t.Fatal("expected failure for 403")
	}
	if result := CheckSite(context.Background(), "", ""); result.Passed {
		t.Fatal("expected failure for missing url")
	}
}

func llmServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": body}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckLLM(t *testing.T) {
	srv := llmServer(t, http.StatusOK, `{"ok":true}`)
	cfg := testsupport.NewConfig(t, testsupport.WithLLMKey("key"), testsupport.WithModels("m1", "m2"))
	cfg.LLM.BaseURL = srv.URL

	result := CheckLLM(context.Background(), cfg)
	if !result.Passed || !strings.Contains(result.Detail, "m1") {
		t.Fatalf("expected pass naming the first model, got %+v", result)
	}
}

func TestCheckLLMBadKey(t *testing.T) {
	srv := llmServer(t, http.StatusUnauthorized, `{"error":{"message":"Invalid API Key","code":"invalid_api_key"}}`)
	cfg := testsupport.NewConfig(t, testsupport.WithLLMKey("bad"))
	cfg.LLM.BaseURL = srv.URL

	result := CheckLLM(context.Background(), cfg)
	if result.Passed || result.Detail != "auth failed (invalid api key)" {
		t.Fatalf("expected auth failure, got %+v", result)
	}
}

func TestCheckLLMRateLimitedStillPasses(t *testing.T) {
	srv := llmServer(t, http.StatusTooManyRequests, `{"error":{"message":"try again in 2s","code":"rate_limit_exceeded"}}`)
	cfg := testsupport.NewConfig(t, testsupport.WithLLMKey("key"))
	cfg.LLM.BaseURL = srv.URL

	if result := CheckLLM(context.Background(), cfg); !result.Passed {
		t.Fatalf("expected pass while rate limited, got %+v", result)
	}
}

func TestRunAllWithoutKeyIsOptional(t *testing.T) {
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer site.Close()
	cfg := testsupport.NewConfig(t, testsupport.WithSiteURL(site.URL))
	cfg.LLM.APIKey = ""
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	results := RunAll(context.Background(), cfg)
	if len(results) != 5 {
		t.Fatalf("expected 5 checks, got %d", len(results))
	}
	last := results[len(results)-1]
	if last.Passed || !last.Optional {
		t.Fatalf("expected optional llm failure, got %+v", last)
	}
	if Failed(results) {
		t.Fatalf("optional failure must not fail the run: %+v", results)
	}
}
