package scraper

import (
	"context"
	"path"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category is a section listed on the help-center home page.
type Category struct {
	Name  string
	URL   string
	Count int
}

// ArticleLink is an article listed on a category page.
type ArticleLink struct {
	Title string
	URL   string
}

var (
	articleIDPattern = regexp.MustCompile(`^(\d+)-`)
	slugIDPrefix     = regexp.MustCompile(`^\d+-`)
	titleCaser       = cases.Title(language.English)
)

// Categories lists the category tiles on the site home page.
func (s *Scraper) Categories(ctx context.Context) ([]Category, error) {
	doc, err := s.fetch(ctx, s.cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	var out []Category
	doc.Find("a.category").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		categoryURL := ""
		if strings.TrimSpace(href) != "" {
			categoryURL = s.resolve(href)
		}
		if categoryURL == "" {
			return
		}
		name := strings.TrimSpace(link.Find("h3").First().Text())
		if name == "" {
			name = nameFromSlug(categoryURL)
		}
		countSel := link.Find(".article-count span").First()
		if countSel.Length() == 0 {
			countSel = link.Find(".article-count").First()
		}
		out = append(out, Category{
			Name:  name,
			URL:   categoryURL,
			Count: digitsOnly(countSel.Text()),
		})
	})
	return out, nil
}

// Articles lists article links on a category page: anchors whose href
// mentions "article" or "help", excluding the category itself and the site
// root. Duplicates keep their first occurrence.
func (s *Scraper) Articles(ctx context.Context, categoryURL string) ([]ArticleLink, error) {
	doc, err := s.fetch(ctx, categoryURL)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	var out []ArticleLink
	doc.Find("a").Each(func(_ int, link *goquery.Selection) {
		href, ok := link.Attr("href")
		if !ok || href == "#" || (!strings.Contains(href, "article") && !strings.Contains(href, "help")) {
			return
		}
		title := strings.TrimSpace(link.Text())
		if title == "" {
			return
		}
		full := s.resolve(href)
		if full == "" || full == categoryURL || s.isSiteRoot(full) {
			return
		}
		if _, dup := seen[full]; dup {
			return
		}
		seen[full] = struct{}{}
		out = append(out, ArticleLink{Title: title, URL: full})
	})
	return out, nil
}

// ExtractID returns the numeric prefix of the slug following /article/,
// e.g. "63" for .../article/63-how-to-login, or "N/A".
func ExtractID(articleURL string) string {
	_, slug, found := strings.Cut(articleURL, "/article/")
	if !found {
		return "N/A"
	}
	if m := articleIDPattern.FindStringSubmatch(slug); m != nil {
		return m[1]
	}
	return "N/A"
}

func digitsOnly(text string) int {
	var b strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return 0
	}
	return n
}

// nameFromSlug derives "Getting Started" from .../category/12-getting-started.
func nameFromSlug(categoryURL string) string {
	slug := path.Base(strings.TrimRight(categoryURL, "/"))
	slug = slugIDPrefix.ReplaceAllString(slug, "")
	words := strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_' || unicode.IsSpace(r)
	})
	if len(words) == 0 || slug == "" || slug == "." || slug == "/" {
		return "Unknown"
	}
	return titleCaser.String(strings.Join(words, " "))
}
