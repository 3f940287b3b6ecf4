package browser

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// DefaultExcerptLength caps the page text attached to assertion failures.
const DefaultExcerptLength = 600

// VisibleText is the user-readable text of a document.
type VisibleText struct {
	Title     string
	Text      string
	Truncated bool
}

// ExtractVisibleText returns the text a user would read on the page,
// whitespace-collapsed, block elements separated by " | ", capped at
// maxLength bytes.
func ExtractVisibleText(rawHTML string, maxLength int) (*VisibleText, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	w := &textWriter{max: maxLength}
	result := &VisibleText{Title: findTitle(doc)}
	collectText(doc, w)
	result.Text = strings.TrimSpace(w.b.String())
	result.Truncated = w.truncated
	return result, nil
}

type textWriter struct {
	b          strings.Builder
	max        int
	pendingSep bool
	truncated  bool
}

func (w *textWriter) full() bool {
	return w.max > 0 && w.b.Len() >= w.max
}

func (w *textWriter) block() {
	if w.b.Len() > 0 {
		w.pendingSep = true
	}
}

func (w *textWriter) write(text string) {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" || w.truncated {
		return
	}
	if w.b.Len() > 0 {
		if w.pendingSep {
			w.b.WriteString(" | ")
		} else {
			w.b.WriteString(" ")
		}
	}
	w.pendingSep = false

	if w.max > 0 && w.b.Len()+len(text) > w.max {
		remaining := w.max - w.b.Len()
		if remaining < 0 {
			remaining = 0
		}
		w.b.WriteString(truncateUTF8(text, remaining))
		w.b.WriteString("...")
		w.truncated = true
		return
	}
	w.b.WriteString(text)
}

func collectText(n *html.Node, w *textWriter) {
	if w.truncated || w.full() {
		w.truncated = w.truncated || w.full()
		return
	}
	switch n.Type {
	case html.CommentNode:
		return
	case html.TextNode:
		w.write(n.Data)
		return
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if isHiddenElement(tag) || hasHiddenAttr(n) {
			return
		}
		if isBlockElement(tag) {
			w.block()
		}
		if tag == "input" || tag == "textarea" {
			if v := attr(n, "value"); v != "" {
				w.write(v)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, w)
	}
	if n.Type == html.ElementNode && isBlockElement(strings.ToLower(n.Data)) {
		w.block()
	}
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
		return strings.TrimSpace(n.FirstChild.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func hasHiddenAttr(n *html.Node) bool {
	for _, a := range n.Attr {
		switch strings.ToLower(a.Key) {
		case "hidden":
			return true
		case "aria-hidden":
			if a.Val == "true" {
				return true
			}
		}
	}
	return false
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && n < len(s) && s[n]&0xC0 == 0x80 {
		n--
	}
	return s[:n]
}

// isHiddenElement returns true for elements whose content is never shown
func isHiddenElement(tag string) bool {
	switch tag {
	case "script", "style", "noscript", "template", "head", "svg", "iframe", "object", "embed":
		return true
	}
	return false
}

// isBlockElement returns true for block-level elements
func isBlockElement(tag string) bool {
	switch tag {
	case "div", "p", "section", "article", "header", "footer", "nav", "main", "aside",
		"h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "li", "table", "tr", "td", "th",
		"form", "fieldset", "blockquote", "pre", "button", "label", "br":
		return true
	}
	return false
}
