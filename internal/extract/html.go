package extract

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// HTML handles standalone HTML files.
type HTML struct{}

func (e *HTML) Name() string { return "html" }

func (e *HTML) Extract(r io.Reader) (string, error) {
	text, err := htmlToText(r)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}

// htmlToText reduces an HTML document to plain text. Headings and
// paragraph-level elements each become their own block so heading lines
// survive for structure detection. Also used for EPUB spine documents.
func htmlToText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "nav", "footer", "header":
				return
			case "h1", "h2", "h3", "h4", "h5", "h6",
				"p", "li", "td", "blockquote", "pre":
				if t := textContent(n); t != "" {
					writeBlock(&b, t)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	root := doc
	if body := findBody(doc); body != nil {
		root = body
	}
	walk(root)

	out := b.String()
	// Documents that carry text outside block elements fall back to a
	// whole-tree text pass.
	if strings.TrimSpace(out) == "" {
		out = textContent(root)
	}
	return out, nil
}

func writeBlock(b *strings.Builder, t string) {
	if b.Len() > 0 {
		b.WriteString("\n\n")
	}
	b.WriteString(t)
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return strings.TrimSpace(buf.String())
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
