// Package extract turns HTML documents into plain text ready for summarization.
package extract

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// ErrNoContent indicates that no readable text could be extracted.
var ErrNoContent = errors.New("no readable content found")

// defaultPageURL resolves relative links when the caller gives no base URL.
const defaultPageURL = "http://localhost/"

// HTMLExtractor extracts the main text of an HTML page.
// Readability is tried first; pages it cannot handle fall back to the
// visible text of the document body.
//
// Thread safety: HTMLExtractor is safe for concurrent use.
type HTMLExtractor struct {
	pageURL *url.URL
}

// NewHTMLExtractor creates an extractor. pageURL is the address the HTML was
// served from and may be empty.
func NewHTMLExtractor(pageURL string) (*HTMLExtractor, error) {
	if pageURL == "" {
		pageURL = defaultPageURL
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	return &HTMLExtractor{pageURL: u}, nil
}

// Extract returns the readable text of html.
func (e *HTMLExtractor) Extract(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", ErrNoContent
	}

	return readableText(html, e.pageURL)
}

// Transform implements pipeline.TextTransform. Input that yields no text is
// returned unchanged.
func (e *HTMLExtractor) Transform(s string) string {
	text, err := e.Extract(s)
	if err != nil {
		slog.Warn("html extraction produced no text, using raw input",
			slog.Int("input_bytes", len(s)),
			slog.Any("error", err))
		return s
	}
	return text
}

// readableText runs readability against pageURL and falls back to the
// visible body text.
func readableText(html string, pageURL *url.URL) (string, error) {
	article, err := readability.FromReader(strings.NewReader(html), pageURL)
	if err == nil {
		if text := tidy(article.TextContent); text != "" {
			return text, nil
		}
	} else {
		slog.Debug("readability extraction failed, falling back to body text",
			slog.Any("error", err))
	}
	return bodyText(html)
}

// bodyText returns the visible text of the document without scripts or styles.
func bodyText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoContent, err)
	}
	doc.Find("script, style, noscript, template, head").Remove()

	// Block elements end a line so paragraphs survive text concatenation.
	doc.Find("p, div, br, li, h1, h2, h3, h4, h5, h6, tr, section, article").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	text := tidy(doc.Text())
	if text == "" {
		return "", ErrNoContent
	}
	return text, nil
}

// tidy collapses runs of spaces inside lines and runs of blank lines.
func tidy(s string) string {
	var (
		lines []string
		blank bool
	)
	for _, line := range strings.Split(s, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			blank = len(lines) > 0
			continue
		}
		if blank {
			lines = append(lines, "")
			blank = false
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
