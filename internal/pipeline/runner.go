package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"kbaudit/internal/analysis"
	"kbaudit/internal/config"
	"kbaudit/internal/logging"
	"kbaudit/internal/scraper"
	"kbaudit/internal/services"
	"kbaudit/internal/store"
)

// Stage names accepted by Run and used in log context.
const (
	StageCollect = "collect"
	StageAnalyze = "analyze"
	StageReport  = "report"
	StageAll     = "run"
)

// ErrBusy is returned when another process holds the run lock.
var ErrBusy = errors.New("another kbaudit run is in progress")

// Fetcher catalogs the help-center site.
type Fetcher interface {
	Categories(ctx context.Context) ([]scraper.Category, error)
	Articles(ctx context.Context, categoryURL string) ([]scraper.ArticleLink, error)
	ArticleContent(ctx context.Context, articleURL string) (scraper.Content, error)
}

// Analyzer produces a gap analysis for one article. It reports failures in
// the result rather than as an error.
type Analyzer interface {
	Analyze(ctx context.Context, title, content string) analysis.Result
}

// Runner executes pipeline stages against the store.
type Runner struct {
	cfg      *config.Config
	store    *store.Store
	fetcher  Fetcher
	analyzer Analyzer
	logger   *slog.Logger
	sleep    func(context.Context, time.Duration) error
	now      func() time.Time
	lockPath string
}

// Option customizes a Runner.
type Option func(*Runner)

// WithLogger sets the runner logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithSleeper overrides how pauses between articles are performed.
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(r *Runner) {
		if sleep != nil {
			r.sleep = sleep
		}
	}
}

// WithClock overrides the time source used for timestamps and report names.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRunner wires the stage collaborators. fetcher and analyzer may be nil
// when the caller only runs stages that do not need them.
func NewRunner(cfg *config.Config, st *store.Store, fetcher Fetcher, analyzer Analyzer, opts ...Option) (*Runner, error) {
	if cfg == nil || st == nil {
		return nil, errors.New("pipeline requires config and store")
	}
	r := &Runner{
		cfg:      cfg,
		store:    st,
		fetcher:  fetcher,
		analyzer: analyzer,
		logger:   logging.NewNop(),
		sleep:    sleepContext,
		now:      time.Now,
		lockPath: cfg.RunLockPath(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "pipeline")
	return r, nil
}

// RunSummary aggregates the outcome of a full run.
type RunSummary struct {
	RunID   string
	Collect CollectSummary
	Analyze AnalyzeSummary
	Report  ReportSummary
}

// Collect catalogs new articles into the store.
func (r *Runner) Collect(ctx context.Context) (CollectSummary, error) {
	var summary CollectSummary
	err := r.withRun(ctx, StageCollect, func(ctx context.Context) error {
		var err error
		summary, err = r.collect(ctx)
		return err
	})
	return summary, err
}

// Analyze runs every pending article through the analyzer.
func (r *Runner) Analyze(ctx context.Context) (AnalyzeSummary, error) {
	var summary AnalyzeSummary
	err := r.withRun(ctx, StageAnalyze, func(ctx context.Context) error {
		var err error
		summary, err = r.analyze(ctx)
		return err
	})
	return summary, err
}

// Report exports the store to a new workbook.
func (r *Runner) Report(ctx context.Context) (ReportSummary, error) {
	var summary ReportSummary
	err := r.withRun(ctx, StageReport, func(ctx context.Context) error {
		var err error
		summary, err = r.report(ctx)
		return err
	})
	return summary, err
}

// RunAll runs collect, analyze and report in order under a single lock,
// stopping at the first stage error.
func (r *Runner) RunAll(ctx context.Context) (RunSummary, error) {
	var summary RunSummary
	err := r.withRun(ctx, StageAll, func(ctx context.Context) error {
		summary.RunID, _ = services.RunIDFromContext(ctx)
		var err error
		if summary.Collect, err = r.collect(services.WithStage(ctx, StageCollect)); err != nil {
			return err
		}
		if summary.Analyze, err = r.analyze(services.WithStage(ctx, StageAnalyze)); err != nil {
			return err
		}
		summary.Report, err = r.report(services.WithStage(ctx, StageReport))
		return err
	})
	return summary, err
}

// withRun acquires the run lock, stamps a run ID and stage into ctx, and
// logs the stage boundaries.
func (r *Runner) withRun(ctx context.Context, stage string, fn func(context.Context) error) error {
	lock, err := acquireLock(r.lockPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			r.logger.Warn("failed to release run lock", logging.Error(err))
		}
	}()

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	ctx = services.WithStage(ctx, stage)
	logger := logging.WithContext(ctx, r.logger)

	start := r.now()
	logger.Info("stage started", logging.String("lock", r.lockPath))
	err = fn(ctx)
	elapsed := r.now().Sub(start).Round(time.Millisecond)
	if err != nil {
		logger.Error("stage failed", logging.Duration("elapsed", elapsed), logging.Error(err))
		return err
	}
	logger.Info("stage completed", logging.Duration("elapsed", elapsed))
	return nil
}

// Busy reports whether a run currently holds the lock for cfg.
func Busy(cfg *config.Config) (bool, error) {
	lock, err := acquireLock(cfg.RunLockPath())
	if errors.Is(err, ErrBusy) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, lock.Unlock()
}

func acquireLock(path string) (*flock.Flock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, ErrBusy
	}
	return lock, nil
}

func (r *Runner) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	return r.sleep(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
