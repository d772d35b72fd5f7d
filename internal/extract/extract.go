package extract

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/maplewav/newslens/internal/sources"
	"github.com/maplewav/newslens/internal/types"
)

// DefaultMinLength is the minimum body length (in runes) for an extraction
// to count as the article text rather than boilerplate.
const DefaultMinLength = 200

// Extraction methods, recorded on the result for diagnostics.
const (
	MethodCSS         = "css"
	MethodXPath       = "xpath"
	MethodFallback    = "fallback"
	MethodReadability = "readability"
)

// Result is the extracted article body.
type Result struct {
	Title    string
	Text     string
	RuleName string
	Method   string
}

// Extractor pulls article text out of fetched HTML pages. Pages are decoded
// to UTF-8 first, so GBK and GB18030 sources work transparently.
type Extractor struct {
	registry  *sources.Registry
	minLength int
	logger    *slog.Logger
}

// New creates an extractor using the given rule registry. minLength 0 means
// DefaultMinLength.
func New(registry *sources.Registry, minLength int, logger *slog.Logger) *Extractor {
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	return &Extractor{
		registry:  registry,
		minLength: minLength,
		logger:    logger.With("component", "extract"),
	}
}

// Extract pulls the article body from an HTML page. The matched source rule
// is tried first (CSS selectors, then XPath), then the generic selector
// chain, then readability. The first candidate long enough wins.
func (e *Extractor) Extract(pageURL string, body []byte, contentType string) (*Result, error) {
	utf8Body, err := decodeToUTF8(body, contentType)
	if err != nil {
		return nil, &types.ExtractError{URL: pageURL, Err: fmt.Errorf("decode charset: %w", err)}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(utf8Body))
	if err != nil {
		return nil, &types.ExtractError{URL: pageURL, Err: fmt.Errorf("parse html: %w", err)}
	}

	parsed, _ := url.Parse(pageURL)
	host := ""
	if parsed != nil {
		host = parsed.Host
	}
	rule := e.registry.Match(host)

	minLen := rule.MinLength
	if minLen <= 0 {
		minLen = e.minLength
	}

	title := extractTitle(doc)
	best := 0

	// 1. Source rule, CSS selectors in order.
	for _, selector := range rule.Selectors {
		text := textForSelector(doc, selector)
		if n := utf8.RuneCountInString(text); n >= minLen {
			e.logger.Debug("extracted", "url", pageURL, "rule", rule.Name, "method", MethodCSS, "selector", selector, "runes", n)
			return &Result{Title: title, Text: text, RuleName: rule.Name, Method: MethodCSS}, nil
		} else if n > best {
			best = n
		}
	}

	// 2. Source rule, XPath expressions.
	if len(rule.XPaths) > 0 {
		xdoc, err := html.Parse(bytes.NewReader(utf8Body))
		if err == nil {
			for _, xp := range rule.XPaths {
				nodes, err := htmlquery.QueryAll(xdoc, xp)
				if err != nil {
					e.logger.Warn("invalid xpath", "rule", rule.Name, "xpath", xp, "error", err)
					continue
				}
				text := cleanLines(collectText(nodes))
				if n := utf8.RuneCountInString(text); n >= minLen {
					e.logger.Debug("extracted", "url", pageURL, "rule", rule.Name, "method", MethodXPath, "runes", n)
					return &Result{Title: title, Text: text, RuleName: rule.Name, Method: MethodXPath}, nil
				} else if n > best {
					best = n
				}
			}
		}
	}

	// 3. Generic selector chain, unless that was already the matched rule.
	if rule.Name != sources.GenericName {
		for _, selector := range e.registry.Generic().Selectors {
			text := textForSelector(doc, selector)
			if n := utf8.RuneCountInString(text); n >= minLen {
				e.logger.Debug("extracted", "url", pageURL, "rule", rule.Name, "method", MethodFallback, "selector", selector, "runes", n)
				return &Result{Title: title, Text: text, RuleName: rule.Name, Method: MethodFallback}, nil
			} else if n > best {
				best = n
			}
		}
	}

	// 4. Readability as the last resort.
	if parsed != nil {
		article, err := readability.FromReader(bytes.NewReader(utf8Body), parsed)
		if err == nil {
			text := cleanLines(article.TextContent)
			if n := utf8.RuneCountInString(text); n >= minLen {
				if title == "" {
					title = strings.TrimSpace(article.Title)
				}
				e.logger.Debug("extracted", "url", pageURL, "rule", rule.Name, "method", MethodReadability, "runes", n)
				return &Result{Title: title, Text: text, RuleName: rule.Name, Method: MethodReadability}, nil
			} else if n > best {
				best = n
			}
		}
	}

	return nil, &types.ExtractError{
		URL:  pageURL,
		Rule: rule.Name,
		Err:  fmt.Errorf("%w: best candidate %d runes, need %d", types.ErrBodyTooShort, best, minLen),
	}
}

// decodeToUTF8 converts the raw body to UTF-8 using the Content-Type header
// and the document's own charset declarations.
func decodeToUTF8(body []byte, contentType string) ([]byte, error) {
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(reader)
}

// textForSelector returns the cleaned text of the first match of a CSS
// selector, or "" when nothing matches.
func textForSelector(doc *goquery.Document, selector string) string {
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return ""
	}
	return cleanLines(collectText(sel.Nodes))
}

// collectText walks the nodes depth-first, emitting one line per text node.
// Script, style, and chrome elements are skipped entirely.
func collectText(nodes []*html.Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		walkText(n, &sb)
	}
	return sb.String()
}

func walkText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		if t := strings.TrimSpace(n.Data); t != "" {
			sb.WriteString(t)
			sb.WriteByte('\n')
		}
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "nav", "footer", "header", "aside", "noscript", "iframe":
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkText(c, sb)
	}
}

// cleanLines collapses whitespace within each line and drops empty lines.
func cleanLines(raw string) string {
	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// extractTitle picks the article headline, preferring on-page h1 over the
// document title.
func extractTitle(doc *goquery.Document) string {
	for _, selector := range []string{"h1", ".article-title", "title"} {
		if t := strings.TrimSpace(doc.Find(selector).First().Text()); t != "" {
			return t
		}
	}
	return ""
}
