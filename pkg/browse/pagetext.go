package browse

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/entrhq/stepwise/pkg/driver"
	"github.com/entrhq/stepwise/pkg/step"
)

// DefaultPageTextLength bounds the text returned by PageText.
const DefaultPageTextLength = 20000

// outerHTMLScript returns the serialized document.
const outerHTMLScript = "document.documentElement.outerHTML"

// PageContent is the readable content of a page.
type PageContent struct {
	Title       string
	Description string
	Text        string
	Truncated   bool
}

// PageText reads the current page and returns its readable text.
func PageText() step.Step[PageContent] {
	return step.WithSession("read page text", func(ctx context.Context, s driver.Session) (PageContent, error) {
		raw, err := s.ExecuteScript(ctx, outerHTMLScript)
		if err != nil {
			return PageContent{}, err
		}
		doc, ok := raw.(string)
		if !ok {
			return PageContent{}, fmt.Errorf("page html: unexpected %T", raw)
		}
		return ExtractText(doc, DefaultPageTextLength)
	})
}

// ExtractText renders HTML as plain text, one line per block element, with
// scripts, styles and embedded content removed. Text beyond maxLength bytes
// is cut and marked with "...".
func ExtractText(rawHTML string, maxLength int) (PageContent, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return PageContent{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	out := PageContent{
		Title:       findTitle(doc),
		Description: findMetaDescription(doc),
	}

	var b strings.Builder
	writeText(doc, &b)

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	out.Text = strings.Join(lines, "\n")

	if maxLength > 0 && len(out.Text) > maxLength {
		out.Text = out.Text[:maxLength] + "..."
		out.Truncated = true
	}
	return out, nil
}

func writeText(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.CommentNode:
		return
	case html.TextNode:
		b.WriteString(n.Data)
		b.WriteString(" ")
		return
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if isSkippedElement(tag) || tag == "head" {
			return
		}
		if tag == "br" || isBlockElement(tag) {
			b.WriteString("\n")
			defer b.WriteString("\n")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(c, b)
	}
}

var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"iframe":   true,
	"embed":    true,
	"object":   true,
	"svg":      true,
}

func isSkippedElement(tag string) bool { return skippedElements[tag] }

var blockElements = map[string]bool{
	"div": true, "p": true, "section": true, "article": true, "header": true,
	"footer": true, "nav": true, "main": true, "aside": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "li": true, "table": true, "tr": true,
	"form": true, "fieldset": true, "blockquote": true, "pre": true,
	"dl": true, "dt": true, "dd": true, "figure": true, "figcaption": true,
}

func isBlockElement(tag string) bool { return blockElements[tag] }

func findTitle(doc *html.Node) string {
	if n := findElement(doc, func(n *html.Node) bool { return n.Data == "title" }); n != nil {
		if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
			return strings.TrimSpace(n.FirstChild.Data)
		}
	}
	return ""
}

func findMetaDescription(doc *html.Node) string {
	n := findElement(doc, func(n *html.Node) bool {
		return n.Data == "meta" && attr(n, "name") == "description" && attr(n, "content") != ""
	})
	if n == nil {
		return ""
	}
	return strings.TrimSpace(attr(n, "content"))
}

func findElement(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, match); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
