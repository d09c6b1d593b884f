package testsupport

import (
	"context"
	"testing"
	"time"

	"kbaudit/internal/config"
	"kbaudit/internal/store"
)

// MustOpenStore opens the article store and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()
	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// SeedArticle stores a category (upserted by URL) and one article under it.
func SeedArticle(t testing.TB, st *store.Store, categoryName, title, url string) int64 {
	t.Helper()
	ctx := context.Background()
	cat, err := st.UpsertCategory(ctx, categoryName, "https://help.example.com/category/"+categoryName, 1)
	if err != nil {
		t.Fatalf("UpsertCategory: %v", err)
	}
	id, err := st.InsertArticle(ctx, store.NewArticle{
		Title:       title,
		URL:         url,
		CategoryID:  cat.ID,
		ContentText: "Body of " + title,
		WordCount:   3,
		CustomID:    "N/A",
		LastUpdated: time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("InsertArticle: %v", err)
	}
	return id
}
