package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"kbaudit/internal/config"
	"kbaudit/internal/logging"
	"kbaudit/internal/services"
)

// Config captures crawl settings.
type Config struct {
	BaseURL             string
	UserAgent           string
	RequestInterval     time.Duration
	RateLimitWait       time.Duration
	MaxRateLimitRetries int
	Timeout             time.Duration
	Markdown            bool
}

// ConfigFrom derives crawl settings from the application config.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		BaseURL:             cfg.Site.BaseURL,
		UserAgent:           cfg.Site.UserAgent,
		RequestInterval:     cfg.RequestInterval(),
		RateLimitWait:       cfg.RateLimitWait(),
		MaxRateLimitRetries: cfg.Site.MaxRateLimitRetries,
		Timeout:             time.Duration(cfg.Site.TimeoutSeconds) * time.Second,
		Markdown:            cfg.MarkdownContent(),
	}
}

// HTTPError reports a non-2xx page response.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("fetch %s: http %d", e.URL, e.StatusCode)
}

var errSiteRateLimited = errors.New("site rate limited")

// Scraper fetches and parses help-center pages.
type Scraper struct {
	cfg        Config
	base       *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Option customizes a Scraper.
type Option func(*Scraper)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Scraper) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithLogger sets the logger for fetch and retry events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scraper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a scraper for the site at cfg.BaseURL.
func New(cfg Config, opts ...Option) (*Scraper, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"))
	if err != nil || base.Host == "" {
		return nil, services.Wrap(services.ErrConfiguration, "scraper", "parse base url", cfg.BaseURL, err)
	}
	cfg.BaseURL = base.String()
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestInterval > 0 {
		limit = rate.Every(cfg.RequestInterval)
	}
	s := &Scraper{
		cfg:        cfg,
		base:       base,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "scraper")
	return s, nil
}

// BaseURL returns the normalized site root.
func (s *Scraper) BaseURL() string {
	return s.cfg.BaseURL
}

// fetch retrieves and parses one page. Site rate limits are retried after
// RateLimitWait, up to MaxRateLimitRetries times.
func (s *Scraper) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	var doc *goquery.Document
	op := func() error {
		if err := s.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		s.logger.Debug("fetching page", logging.String("url", pageURL))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		req.Header.Set("User-Agent", s.cfg.UserAgent)
		resp, err := s.httpClient.Do(req)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("fetch %s: %w", pageURL, err))
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			_, _ = io.Copy(io.Discard, resp.Body)
			return errSiteRateLimited
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return backoff.Permanent(&HTTPError{URL: pageURL, StatusCode: resp.StatusCode})
		}
		parsed, err := goquery.NewDocumentFromReader(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("parse %s: %w", pageURL, err))
		}
		doc = parsed
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.cfg.RateLimitWait), uint64(max(s.cfg.MaxRateLimitRetries, 0))),
		ctx,
	)
	notify := func(err error, wait time.Duration) {
		s.logger.Warn("site rate limited, waiting",
			logging.String("url", pageURL),
			logging.Duration("wait", wait),
		)
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		if errors.Is(err, errSiteRateLimited) {
			return nil, services.Wrap(services.ErrTransient, "scraper", "fetch", pageURL, err)
		}
		return nil, services.Wrap(services.ErrExternal, "scraper", "fetch", pageURL, err)
	}
	return doc, nil
}

// resolve turns an href into an absolute URL on the site.
func (s *Scraper) resolve(href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return s.base.ResolveReference(ref).String()
}

func (s *Scraper) isSiteRoot(candidate string) bool {
	trimmed := strings.TrimRight(candidate, "/")
	return trimmed == s.cfg.BaseURL
}
