package pipeline

import (
	"context"

	"kbaudit/internal/analysis"
	"kbaudit/internal/logging"
	"kbaudit/internal/services"
)

// AnalyzeSummary counts what an analyze pass did. Skipped articles were left
// pending because no AI credential is configured.
type AnalyzeSummary struct {
	Pending  int
	Analyzed int
	Failed   int
	Skipped  int
}

func (r *Runner) analyze(ctx context.Context) (AnalyzeSummary, error) {
	var summary AnalyzeSummary
	if r.analyzer == nil {
		return summary, services.Wrap(services.ErrConfiguration, StageAnalyze, "start", "no analyzer configured", nil)
	}
	logger := logging.WithContext(ctx, r.logger)

	pending, err := r.store.PendingArticles(ctx)
	if err != nil {
		return summary, services.Wrap(services.ErrTransient, StageAnalyze, "list pending", "", err)
	}
	summary.Pending = len(pending)
	if len(pending) == 0 {
		logger.Info("no articles pending analysis")
		return summary, nil
	}
	logger.Info("analyzing articles", logging.Int("pending", len(pending)))

	for i, article := range pending {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		articleCtx := services.WithArticleID(ctx, article.ID)
		articleLogger := logging.WithContext(articleCtx, r.logger)
		articleLogger.Info("analyzing article",
			logging.String("title", article.Title),
			logging.Int("position", i+1),
			logging.Int("total", len(pending)),
		)

		result := r.analyzer.Analyze(articleCtx, article.Title, article.ContentText)
		if err := ctx.Err(); err != nil {
			// Interrupted mid-request; the article stays pending.
			return summary, err
		}
		if result.Gap == analysis.NotConfiguredGap {
			// Every remaining article would get the same marker; keep them pending.
			summary.Skipped = len(pending) - i
			logger.Warn("no AI credential configured, leaving articles pending",
				logging.Int("skipped", summary.Skipped),
			)
			return summary, nil
		}
		if err := r.store.SaveAnalysis(ctx, article.ID, result); err != nil {
			return summary, services.Wrap(services.ErrTransient, StageAnalyze, "save analysis", article.URL, err)
		}
		summary.Analyzed++
		if result.Failed() {
			summary.Failed++
			articleLogger.Warn("analysis failed", logging.String("gap", result.Gap))
		} else {
			articleLogger.Info("analysis saved", logging.String("content_type", result.ContentType))
		}

		if i < len(pending)-1 {
			if err := r.pause(ctx, r.cfg.AnalysisPause()); err != nil {
				return summary, err
			}
		}
	}

	logger.Info("analysis complete",
		logging.Int("analyzed", summary.Analyzed),
		logging.Int("failed", summary.Failed),
	)
	return summary, nil
}
