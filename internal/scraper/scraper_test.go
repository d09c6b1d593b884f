package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"kbaudit/internal/services"
)

const homePage = `<html><body>
<a class="category" href="/category/12-getting-started">
  <h3>Getting Started</h3>
  <p class="article-count"><span>14 articles</span></p>
</a>
<a class="category" href="/category/34-billing-and-payments">
  <p class="article-count">3 articles</p>
</a>
<a href="/about">About</a>
</body></html>`

const categoryPage = `<html><body>
<a href="/">Home</a>
<a href="/article/63-how-to-login">How to login</a>
<a href="/article/63-how-to-login">How to login (again)</a>
<a href="#">Jump</a>
<a href="/article/64-reset-password">  </a>
<a href="https://help.example.com/help/widgets">Widgets</a>
<a href="/pricing">Pricing</a>
<a href="/category/12-getting-started">Getting Started help</a>
</body></html>`

const articlePage = `<html><head><title>t</title></head><body>
<nav>Navigation</nav>
<article>
  <h1>How to login</h1>
  <p>Open the app and tap <strong>Sign in</strong>.</p>
  <script>var tracking = true;</script>
  <img src="/shot.png" alt="screen">
</article>
</body></html>`

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, homePage)
	})
	mux.HandleFunc("/category/12-getting-started", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, categoryPage)
	})
	mux.HandleFunc("/article/63-how-to-login", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "kbaudit-test" {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		fmt.Fprint(w, articlePage)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newScraper(t *testing.T, baseURL string, mutate ...func(*Config)) *Scraper {
	t.Helper()
	cfg := Config{BaseURL: baseURL + "/", UserAgent: "kbaudit-test", MaxRateLimitRetries: 2}
	for _, fn := range mutate {
		fn(&cfg)
	}
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestCategories(t *testing.T) {
	server := newSite(t)
	s := newScraper(t, server.URL)

	cats, err := s.Categories(context.Background())
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if len(cats) != 2 {
		t.Fatalf("expected 2 categories, got %+v", cats)
	}
	if cats[0].Name != "Getting Started" || cats[0].Count != 14 {
		t.Fatalf("unexpected first category %+v", cats[0])
	}
	if cats[0].URL != server.URL+"/category/12-getting-started" {
		t.Fatalf("unexpected category url %q", cats[0].URL)
	}
	if cats[1].Name != "Billing And Payments" || cats[1].Count != 3 {
		t.Fatalf("expected slug-derived name and count, got %+v", cats[1])
	}
}

func TestArticlesFiltersAndDeduplicates(t *testing.T) {
	server := newSite(t)
	s := newScraper(t, server.URL)
	categoryURL := server.URL + "/category/12-getting-started"

	links, err := s.Articles(context.Background(), categoryURL)
	if err != nil {
		t.Fatalf("Articles: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("expected 2 links, got %+v", links)
	}
	if links[0].Title != "How to login" || links[0].URL != server.URL+"/article/63-how-to-login" {
		t.Fatalf("unexpected first link %+v", links[0])
	}
	if links[1].URL != "https://help.example.com/help/widgets" {
		t.Fatalf("unexpected second link %+v", links[1])
	}
}

func TestArticleContentPlainText(t *testing.T) {
	server := newSite(t)
	s := newScraper(t, server.URL)

	content, err := s.ArticleContent(context.Background(), server.URL+"/article/63-how-to-login")
	if err != nil {
		t.Fatalf("ArticleContent: %v", err)
	}
	want := "How to login\nOpen the app and tap\nSign in\n."
	if content.Text != want {
		t.Fatalf("unexpected text %q", content.Text)
	}
	if strings.Contains(content.Text, "tracking") || strings.Contains(content.Text, "Navigation") {
		t.Fatalf("expected script and nav excluded, got %q", content.Text)
	}
	if content.WordCount != 11 {
		t.Fatalf("unexpected word count %d", content.WordCount)
	}
	if !content.HasScreenshots {
		t.Fatal("expected screenshot detection")
	}
}

func TestArticleContentMarkdown(t *testing.T) {
	server := newSite(t)
	s := newScraper(t, server.URL, func(c *Config) { c.Markdown = true })

	content, err := s.ArticleContent(context.Background(), server.URL+"/article/63-how-to-login")
	if err != nil {
		t.Fatalf("ArticleContent: %v", err)
	}
	if !strings.Contains(content.Text, "# How to login") || !strings.Contains(content.Text, "**Sign in**") {
		t.Fatalf("expected markdown rendering, got %q", content.Text)
	}
	if content.WordCount != 11 {
		t.Fatalf("word count should follow visible text, got %d", content.WordCount)
	}
}

func TestArticleContentFallsBackToBody(t *testing.T) {
	s := newScraper(t, "https://help.example.com")
	doc := mustDocument(t, `<html><body><div class="article-body"><p>Inner</p></div><p>Outer</p></body></html>`)
	if got := s.extractContent(doc).Text; got != "Inner" {
		t.Fatalf("expected article-body selection, got %q", got)
	}
	doc = mustDocument(t, `<html><body><p>Only body</p><style>p{}</style></body></html>`)
	if got := s.extractContent(doc).Text; got != "Only body" {
		t.Fatalf("expected body fallback, got %q", got)
	}
}

func TestFetchRetriesSiteRateLimit(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `<html><body><article><p>ok</p></article></body></html>`)
	}))
	defer server.Close()
	s := newScraper(t, server.URL)

	content, err := s.ArticleContent(context.Background(), server.URL+"/article/1-x")
	if err != nil {
		t.Fatalf("ArticleContent: %v", err)
	}
	if content.Text != "ok" {
		t.Fatalf("unexpected text %q", content.Text)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 calls, got %d", got)
	}
}

func TestFetchGivesUpAfterRateLimitRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()
	s := newScraper(t, server.URL)

	_, err := s.ArticleContent(context.Background(), server.URL+"/article/1-x")
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected initial call plus 2 retries, got %d", got)
	}
}

func TestFetchHTTPErrorNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()
	s := newScraper(t, server.URL)

	_, err := s.ArticleContent(context.Background(), server.URL+"/article/1-x")
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 HTTPError, got %v", err)
	}
	if !errors.Is(err, services.ErrExternal) {
		t.Fatalf("expected external marker, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected a single call, got %d", got)
	}
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	if _, err := New(Config{BaseURL: "not a url"}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestExtractID(t *testing.T) {
	cases := map[string]string{
		"https://help.example.com/article/63-how-to-login":  "63",
		"https://help.example.com/article/7-x?utm=1":        "7",
		"https://help.example.com/article/how-to-login":     "N/A",
		"https://help.example.com/category/12-getting-help": "N/A",
	}
	for input, want := range cases {
		if got := ExtractID(input); got != want {
			t.Errorf("ExtractID(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestNameFromSlug(t *testing.T) {
	if got := nameFromSlug("https://help.example.com/category/12-getting-started/"); got != "Getting Started" {
		t.Fatalf("unexpected name %q", got)
	}
}
