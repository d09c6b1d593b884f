package pipeline

import (
	"context"

	"kbaudit/internal/logging"
	"kbaudit/internal/scraper"
	"kbaudit/internal/services"
	"kbaudit/internal/store"
)

// CollectSummary counts what a collect pass did.
type CollectSummary struct {
	Categories int
	Discovered int
	Inserted   int
	Existing   int
	Failed     int
}

func (r *Runner) collect(ctx context.Context) (CollectSummary, error) {
	var summary CollectSummary
	if r.fetcher == nil {
		return summary, services.Wrap(services.ErrConfiguration, StageCollect, "start", "no fetcher configured", nil)
	}
	logger := logging.WithContext(ctx, r.logger)

	categories, err := r.fetcher.Categories(ctx)
	if err != nil {
		return summary, services.Wrap(services.ErrExternal, StageCollect, "list categories", "", err)
	}
	logger.Info("categories found", logging.Int("count", len(categories)))

	for _, found := range categories {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		cat, err := r.store.UpsertCategory(ctx, found.Name, found.URL, found.Count)
		if err != nil {
			return summary, services.Wrap(services.ErrTransient, StageCollect, "save category", found.URL, err)
		}
		summary.Categories++

		links, err := r.fetcher.Articles(ctx, cat.URL)
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			logger.Warn("category listing failed; skipping",
				logging.String("category", cat.Name),
				logging.Error(err),
			)
			continue
		}
		logger.Info("category articles found",
			logging.String("category", cat.Name),
			logging.Int("count", len(links)),
		)
		summary.Discovered += len(links)

		for _, link := range links {
			outcome, err := r.collectArticle(ctx, cat, link)
			if err != nil {
				return summary, err
			}
			switch outcome {
			case articleInserted:
				summary.Inserted++
				if err := r.pause(ctx, r.cfg.ArticlePause()); err != nil {
					return summary, err
				}
			case articleExisting:
				summary.Existing++
			case articleSkipped:
				if err := ctx.Err(); err != nil {
					return summary, err
				}
				summary.Failed++
			}
		}
	}

	logger.Info("collection complete",
		logging.Int("categories", summary.Categories),
		logging.Int("inserted", summary.Inserted),
		logging.Int("existing", summary.Existing),
		logging.Int("failed", summary.Failed),
	)
	return summary, nil
}

type articleOutcome int

const (
	articleInserted articleOutcome = iota
	articleExisting
	articleSkipped
)

// collectArticle fetches and stores one article unless it is already known.
// Fetch failures are logged and left for the next run; only store failures
// are returned.
func (r *Runner) collectArticle(ctx context.Context, cat store.Category, link scraper.ArticleLink) (articleOutcome, error) {
	logger := logging.WithContext(ctx, r.logger)
	exists, err := r.store.ArticleExists(ctx, link.URL)
	if err != nil {
		return articleSkipped, services.Wrap(services.ErrTransient, StageCollect, "lookup article", link.URL, err)
	}
	if exists {
		return articleExisting, nil
	}

	content, err := r.fetcher.ArticleContent(ctx, link.URL)
	if err != nil {
		logger.Warn("article fetch failed; will retry next run",
			logging.String("url", link.URL),
			logging.Error(err),
		)
		return articleSkipped, nil
	}
	id, err := r.store.InsertArticle(ctx, store.NewArticle{
		Title:          link.Title,
		URL:            link.URL,
		CategoryID:     cat.ID,
		ContentText:    content.Text,
		WordCount:      content.WordCount,
		CustomID:       scraper.ExtractID(link.URL),
		HasScreenshots: content.HasScreenshots,
		LastUpdated:    r.now().UTC(),
	})
	if err != nil {
		return articleSkipped, services.Wrap(services.ErrTransient, StageCollect, "save article", link.URL, err)
	}
	logging.WithContext(services.WithArticleID(ctx, id), r.logger).Info("article collected",
		logging.String("title", link.Title),
		logging.Int("words", content.WordCount),
	)
	return articleInserted, nil
}
