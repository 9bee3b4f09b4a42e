package browser

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultMaxContentLength caps extracted text when no maxLength is given.
const DefaultMaxContentLength = 10000

// PageContent is the readable content of a page.
type PageContent struct {
	Title       string
	Description string
	Text        string
	Truncated   bool
}

// ExtractContent parses rawHTML and returns its title, meta description and
// visible text. Block elements start new lines. Text beyond maxLength bytes
// is cut and Truncated is set.
func ExtractContent(rawHTML string, maxLength int) (*PageContent, error) {
	if maxLength <= 0 {
		maxLength = DefaultMaxContentLength
	}
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	content := &PageContent{}
	w := &textWriter{max: maxLength}
	walkContent(doc, content, w)
	content.Text = strings.TrimSpace(w.String())
	content.Truncated = w.truncated
	return content, nil
}

func walkContent(n *html.Node, content *PageContent, w *textWriter) {
	switch n.Type {
	case html.CommentNode:
		return
	case html.TextNode:
		w.text(n.Data)
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Iframe, atom.Svg, atom.Template:
			return
		case atom.Title:
			if content.Title == "" {
				content.Title = strings.TrimSpace(nodeText(n))
			}
			return
		case atom.Meta:
			if content.Description == "" && attr(n, "name") == "description" {
				content.Description = strings.TrimSpace(attr(n, "content"))
			}
			return
		case atom.Br:
			w.newline()
			return
		}
		if isBlock(n.DataAtom) {
			w.newline()
			defer w.newline()
		}
	}
	for c := n.FirstChild; c != nil && !w.truncated; c = c.NextSibling {
		walkContent(c, content, w)
	}
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.Div, atom.P, atom.Section, atom.Article, atom.Header, atom.Footer,
		atom.Nav, atom.Main, atom.Aside, atom.H1, atom.H2, atom.H3, atom.H4,
		atom.H5, atom.H6, atom.Ul, atom.Ol, atom.Li, atom.Table, atom.Tr,
		atom.Form, atom.Blockquote, atom.Pre, atom.Hr:
		return true
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

// textWriter collapses whitespace and enforces the length cap.
type textWriter struct {
	b         strings.Builder
	max       int
	truncated bool
	lineOpen  bool
}

func (w *textWriter) text(s string) {
	fields := strings.Fields(s)
	if len(fields) == 0 || w.truncated {
		return
	}
	chunk := strings.Join(fields, " ")
	if w.lineOpen {
		chunk = " " + chunk
	}
	remaining := max(w.max-w.b.Len(), 0)
	if len(chunk) > remaining {
		// cut on a byte boundary, dropping any partial rune
		chunk = strings.ToValidUTF8(chunk[:remaining], "")
		w.truncated = true
	}
	w.b.WriteString(chunk)
	w.lineOpen = true
}

func (w *textWriter) newline() {
	if !w.lineOpen || w.truncated {
		return
	}
	w.b.WriteByte('\n')
	w.lineOpen = false
}

func (w *textWriter) String() string {
	return w.b.String()
}
