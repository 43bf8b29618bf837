package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Markdown handles Markdown files using goldmark. Headings become their own
// lines; other blocks are joined with blank lines.
type Markdown struct{}

func (e *Markdown) Name() string { return "markdown" }

func (e *Markdown) Extract(r io.Reader) (string, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read markdown: %w", err)
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var b strings.Builder
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			if t := strings.TrimSpace(string(node.Text(src))); t != "" {
				writeBlock(&b, t)
			}
		default:
			if t := mdText(n, src); t != "" {
				writeBlock(&b, t)
			}
		}
	}

	out := b.String()
	if strings.TrimSpace(out) == "" {
		return "", ErrNoText
	}
	return out, nil
}

// mdText gets the text content of a goldmark AST node. Nodes with inline
// children (paragraphs, emphasis) are walked; childless blocks (fenced code)
// are read from their source lines.
func mdText(n ast.Node, src []byte) string {
	var buf bytes.Buffer

	if !n.HasChildren() {
		if n.Type() == ast.TypeBlock {
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				buf.Write(lines.At(i).Value(src))
			}
		}
		return strings.TrimSpace(buf.String())
	}

	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
			continue
		}
		if s := mdText(c, src); s != "" {
			if c.Type() == ast.TypeBlock && buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString(s)
		}
	}
	return strings.TrimSpace(buf.String())
}
