package analysis

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"kbaudit/internal/logging"
)

// Provider sends one chat completion to a named model and returns the raw text.
type Provider interface {
	Complete(ctx context.Context, model, systemPrompt, userPrompt string) (string, error)
}

// rateLimiter is implemented by provider errors that know their own class.
type rateLimiter interface {
	RateLimited() bool
}

// retryAfterer is implemented by provider errors carrying a Retry-After hint.
type retryAfterer interface {
	RetryAfter() time.Duration
}

// Config tunes an Analyzer.
type Config struct {
	// Configured is false when no credential is available; Analyze then
	// returns the not-configured marker without calling the provider.
	Configured      bool
	MaxContentChars int
}

// Analyzer runs the gap-analysis prompt against a provider, rotating models
// on rate limits. It is safe for sequential use; the roster cursor persists
// across calls.
type Analyzer struct {
	provider Provider
	roster   *Roster
	cfg      Config
	logger   *slog.Logger
	sleep    func(context.Context, time.Duration) error
}

// Option customizes an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger used for rotation and backoff events.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithSleeper overrides how backoff waits are performed (useful for tests).
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(a *Analyzer) {
		if sleep != nil {
			a.sleep = sleep
		}
	}
}

// NewAnalyzer wires a provider to a roster. provider may be nil, in which case
// every call yields the not-configured marker.
func NewAnalyzer(provider Provider, roster *Roster, cfg Config, opts ...Option) *Analyzer {
	if cfg.MaxContentChars == 0 {
		cfg.MaxContentChars = DefaultMaxContentChars
	}
	a := &Analyzer{
		provider: provider,
		roster:   roster,
		cfg:      cfg,
		logger:   logging.NewNop(),
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = logging.NewComponentLogger(a.logger, "analyzer")
	return a
}

// Roster exposes the model roster.
func (a *Analyzer) Roster() *Roster {
	return a.roster
}

// Analyze returns the gap analysis for one article. It never fails: problems
// are reported through marker strings in the Result.
func (a *Analyzer) Analyze(ctx context.Context, title, content string) Result {
	if a == nil || a.provider == nil || a.roster == nil || !a.cfg.Configured {
		return notConfiguredResult()
	}
	logger := logging.WithContext(ctx, a.logger)
	userPrompt := buildUserPrompt(title, truncateRunes(content, a.cfg.MaxContentChars))

	for {
		model := a.roster.Current()
		raw, err := a.provider.Complete(ctx, model, systemPrompt, userPrompt)
		if err == nil {
			return Normalize(raw)
		}
		if ctx.Err() != nil {
			return errorResult(ctx.Err())
		}
		if !IsRateLimited(err) {
			logger.Warn("analysis request failed",
				logging.String("model", model),
				logging.Error(err),
			)
			return errorResult(err)
		}

		next, wrapped := a.roster.Rotate()
		if !wrapped {
			logger.Info("model rate limited, switching",
				logging.String("model", model),
				logging.String("next_model", a.roster.Models()[next]),
			)
			continue
		}

		wait := a.backoffFor(err)
		if Unparsed(err.Error()) {
			logger.Warn("rate limit delay not understood, using default",
				logging.String("error_text", err.Error()),
				logging.Duration("wait", wait),
			)
		}
		logger.Warn("all models rate limited, waiting",
			logging.Int("models", a.roster.Len()),
			logging.Duration("wait", wait),
		)
		if err := a.sleep(ctx, wait); err != nil {
			return errorResult(err)
		}
	}
}

// backoffFor prefers a delay spelled out in the error text, then a structured
// Retry-After hint, then the default.
func (a *Analyzer) backoffFor(err error) time.Duration {
	text := err.Error()
	if d, ok := parseBackoff(text); ok {
		return d + BackoffBuffer
	}
	var hinted retryAfterer
	if errors.As(err, &hinted) {
		if d := hinted.RetryAfter(); d > 0 {
			return d + BackoffBuffer
		}
	}
	return DefaultBackoff
}

// IsRateLimited classifies err as a quota rejection. Structured provider
// errors decide for themselves; otherwise the text is searched for the
// rate_limit_exceeded code.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var rl rateLimiter
	if errors.As(err, &rl) {
		if rl.RateLimited() {
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "rate_limit_exceeded")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
