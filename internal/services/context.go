package services

import "context"

type contextKey string

const (
	articleIDKey contextKey = "article_id"
	stageKey     contextKey = "stage"
	runIDKey     contextKey = "run_id"
)

// WithArticleID annotates context with the stored article identifier.
func WithArticleID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, articleIDKey, id)
}

// ArticleIDFromContext extracts the article identifier if present.
func ArticleIDFromContext(ctx context.Context) (int64, bool) {
	switch val := ctx.Value(articleIDKey).(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(stageKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRunID annotates context with the pipeline run correlation identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
