package document

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// markdownText flattens a markdown document into plain text using the
// goldmark AST.
func markdownText(src []byte) (string, error) {
	md := goldmark.New()
	reader := text.NewReader(src)
	doc := md.Parser().Parse(reader)

	var blocks []string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if t := extractText(n, src); t != "" {
			blocks = append(blocks, t)
		}
	}
	return strings.Join(blocks, "\n\n"), nil
}

// extractText gets the text content of a goldmark AST node. Blocks
// with inline children (paragraphs, headings, list items) are walked
// through their text segments, so emphasis and code markers never
// reach the output. Childless blocks (code blocks) keep their raw
// source lines.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if !n.HasChildren() {
		if n.Type() == ast.TypeBlock {
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				buf.Write(seg.Value(src))
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
		if s := extractText(c, src); s != "" {
			if c.Type() == ast.TypeBlock && buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString(s)
		}
	}
	return strings.TrimSpace(buf.String())
}
