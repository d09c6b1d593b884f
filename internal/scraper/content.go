package scraper

import (
	"context"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Content is the extracted body of one article.
type Content struct {
	Text           string
	WordCount      int
	HasScreenshots bool
}

var skippedTextElements = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"template": {},
}

// ArticleContent fetches an article and extracts its main body: the first
// <article>, else div.article-body, else <body>.
func (s *Scraper) ArticleContent(ctx context.Context, articleURL string) (Content, error) {
	doc, err := s.fetch(ctx, articleURL)
	if err != nil {
		return Content{}, err
	}
	return s.extractContent(doc), nil
}

func (s *Scraper) extractContent(doc *goquery.Document) Content {
	body := doc.Find("article").First()
	if body.Length() == 0 {
		body = doc.Find("div.article-body").First()
	}
	if body.Length() == 0 {
		body = doc.Find("body").First()
	}
	if body.Length() == 0 {
		return Content{}
	}

	text := visibleText(body)
	content := Content{
		Text:           text,
		WordCount:      len(strings.Fields(text)),
		HasScreenshots: body.Find("img").Length() > 0,
	}
	if s.cfg.Markdown {
		converter := md.NewConverter(s.base.Host, true, nil)
		if markdown := strings.TrimSpace(converter.Convert(body)); markdown != "" {
			content.Text = markdown
		}
	}
	return content
}

// visibleText joins the trimmed, non-empty text nodes under sel with newlines.
func visibleText(sel *goquery.Selection) string {
	var lines []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if trimmed := strings.TrimSpace(n.Data); trimmed != "" {
				lines = append(lines, trimmed)
			}
			return
		case html.ElementNode:
			if _, skip := skippedTextElements[n.Data]; skip {
				return
			}
		case html.CommentNode:
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for _, node := range sel.Nodes {
		walk(node)
	}
	return strings.Join(lines, "\n")
}
