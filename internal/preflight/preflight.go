package preflight

import (
	"context"

	"kbaudit/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Report directory", cfg.Paths.ReportDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckSite(ctx, cfg.Site.BaseURL, cfg.Site.UserAgent),
	}
	if cfg.LLMConfigured() && len(cfg.LLM.Models) > 0 {
		results = append(results, CheckLLM(ctx, cfg))
	} else {
		results = append(results, Result{
			Name:     "LLM API",
			Optional: true,
			Detail:   "API key missing (analyze will leave articles pending)",
		})
	}
	return results
}

// Failed reports whether any required check failed.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed && !r.Optional {
			return true
		}
	}
	return false
}
