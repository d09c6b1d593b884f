package store

import (
	"context"
	"fmt"
	"strings"
)

// UpsertCategory inserts a category, or refreshes the article count of an
// existing one with the same URL. An existing category keeps its stored name.
func (s *Store) UpsertCategory(ctx context.Context, name, url string, articleCount int) (Category, error) {
	cat := Category{
		Name:         strings.TrimSpace(name),
		URL:          strings.TrimSpace(url),
		ArticleCount: articleCount,
	}
	if cat.URL == "" {
		return Category{}, fmt.Errorf("upsert category: url required")
	}
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, `
			INSERT INTO categories (name, url, article_count) VALUES (?, ?, ?)
			ON CONFLICT(url) DO UPDATE SET article_count = excluded.article_count
			RETURNING id, name`,
			cat.Name, cat.URL, cat.ArticleCount,
		).Scan(&cat.ID, &cat.Name)
	})
	if err != nil {
		return Category{}, fmt.Errorf("upsert category %s: %w", cat.URL, err)
	}
	return cat, nil
}

// Categories lists stored categories in insertion order.
func (s *Store) Categories(ctx context.Context) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, url, article_count FROM categories ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.URL, &c.ArticleCount); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
