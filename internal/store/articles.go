package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"kbaudit/internal/analysis"
)

const pendingCondition = "(gap_analysis IS NULL OR gap_analysis LIKE 'Error%')"

// ArticleExists reports whether an article with url has been collected.
func (s *Store) ArticleExists(ctx context.Context, url string) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM articles WHERE url = ?", strings.TrimSpace(url)).Scan(&count); err != nil {
		return false, fmt.Errorf("check article %s: %w", url, err)
	}
	return count > 0, nil
}

// InsertArticle stores a newly collected article and returns its ID.
func (s *Store) InsertArticle(ctx context.Context, a NewArticle) (int64, error) {
	if strings.TrimSpace(a.URL) == "" {
		return 0, fmt.Errorf("insert article: url required")
	}
	if a.LastUpdated.IsZero() {
		a.LastUpdated = time.Now()
	}
	customID := strings.TrimSpace(a.CustomID)
	if customID == "" {
		customID = "N/A"
	}
	var categoryID any
	if a.CategoryID > 0 {
		categoryID = a.CategoryID
	}
	res, err := s.execWithRetry(ctx, `
		INSERT INTO articles (title, url, category_id, content_text, word_count, last_updated, article_custom_id, has_screenshots)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		strings.TrimSpace(a.Title), strings.TrimSpace(a.URL), categoryID, a.ContentText,
		a.WordCount, formatTime(a.LastUpdated), customID, boolToInt(a.HasScreenshots),
	)
	if err != nil {
		return 0, fmt.Errorf("insert article %s: %w", a.URL, err)
	}
	return res.LastInsertId()
}

// PendingArticles returns articles never analyzed or whose last analysis
// failed with a provider error, oldest first.
func (s *Store) PendingArticles(ctx context.Context) ([]PendingArticle, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, url, content_text FROM articles WHERE "+pendingCondition+" ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list pending articles: %w", err)
	}
	defer rows.Close()

	var out []PendingArticle
	for rows.Next() {
		var p PendingArticle
		if err := rows.Scan(&p.ID, &p.Title, &p.URL, &p.ContentText); err != nil {
			return nil, fmt.Errorf("scan pending article: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SaveAnalysis records an analysis result for one article.
func (s *Store) SaveAnalysis(ctx context.Context, id int64, result analysis.Result) error {
	res, err := s.execWithRetry(ctx, `
		UPDATE articles
		SET gap_analysis = ?, suggested_topics = ?, topics_covered = ?, content_type = ?, analyzed_at = ?
		WHERE id = ?`,
		result.Gap, result.Suggestions, result.Topics, result.ContentType, formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("save analysis for article %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("save analysis: article %d not found", id)
	}
	return nil
}

// Articles returns every stored article joined to its category, in ID order.
func (s *Store) Articles(ctx context.Context) ([]Article, error) {
	return s.queryArticles(ctx, "ORDER BY a.id")
}

// RecentArticles returns the most recently collected articles, newest first.
func (s *Store) RecentArticles(ctx context.Context, limit int) ([]Article, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.queryArticles(ctx, "ORDER BY a.id DESC LIMIT ?", limit)
}

func (s *Store) queryArticles(ctx context.Context, suffix string, args ...any) ([]Article, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.title, a.url, COALESCE(c.name, ''), a.word_count, a.article_custom_id,
		       a.has_screenshots, a.last_updated, a.gap_analysis, a.suggested_topics,
		       a.topics_covered, a.content_type, a.analyzed_at
		FROM articles a
		LEFT JOIN categories c ON c.id = a.category_id
		`+suffix, args...)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var out []Article
	for rows.Next() {
		var a Article
		var screenshots int
		var lastUpdated string
		var gap, suggestions, topics, contentType, at sql.NullString
		if err := rows.Scan(&a.ID, &a.Title, &a.URL, &a.Category, &a.WordCount, &a.CustomID,
			&screenshots, &lastUpdated, &gap, &suggestions, &topics, &contentType, &at); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		a.HasScreenshots = screenshots != 0
		a.LastUpdated = parseTime(lastUpdated)
		a.Analyzed = gap.Valid
		a.Gap = gap.String
		a.Suggestions = suggestions.String
		a.Topics = topics.String
		a.ContentType = contentType.String
		if at.Valid {
			a.AnalyzedAt = parseTime(at.String)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Stats returns corpus counts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(1) FROM categories),
			COUNT(1),
			COALESCE(SUM(CASE WHEN gap_analysis IS NOT NULL THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN gap_analysis LIKE 'Error%' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN `+pendingCondition+` THEN 1 ELSE 0 END), 0)
		FROM articles`,
	).Scan(&st.Categories, &st.Total, &st.Analyzed, &st.Failed, &st.Pending)
	if err != nil {
		return Stats{}, fmt.Errorf("article stats: %w", err)
	}
	return st, nil
}
