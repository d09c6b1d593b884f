package store

import (
	"strings"
	"time"
)

// Category is a help-center section grouping articles.
type Category struct {
	ID           int64
	Name         string
	URL          string
	ArticleCount int
}

// NewArticle holds the fields captured when an article is first collected.
type NewArticle struct {
	Title          string
	URL            string
	CategoryID     int64
	ContentText    string
	WordCount      int
	CustomID       string
	HasScreenshots bool
	LastUpdated    time.Time
}

// PendingArticle is an article awaiting (re-)analysis.
type PendingArticle struct {
	ID          int64
	Title       string
	URL         string
	ContentText string
}

// Article is a stored article joined to its category name.
type Article struct {
	ID             int64
	Title          string
	URL            string
	Category       string
	WordCount      int
	CustomID       string
	HasScreenshots bool
	LastUpdated    time.Time
	Gap            string
	Suggestions    string
	Topics         string
	ContentType    string
	Analyzed       bool
	AnalyzedAt     time.Time
}

// Status summarizes an article's analysis state for display.
func (a Article) Status() string {
	switch {
	case !a.Analyzed:
		return "pending"
	case strings.HasPrefix(a.Gap, "Error"):
		return "error"
	default:
		return "analyzed"
	}
}

// Stats aggregates corpus counts for the dashboard and status command.
type Stats struct {
	Categories int
	Total      int
	Analyzed   int
	Failed     int
	Pending    int
}

// Percent is the share of articles with any stored analysis, 0-100.
func (s Stats) Percent() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Analyzed) / float64(s.Total) * 100
}
