package ingest

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/deckseg/internal/asset"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownReader handles Markdown files using goldmark. Each heading
// starts a new section block; body text accumulates under the most
// recent heading.
type MarkdownReader struct{}

func (p *MarkdownReader) Read(r io.Reader, docID, filename string) ([]asset.Asset, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	reader := text.NewReader(src)
	doc := md.Parser().Parse(reader)

	var assets []asset.Asset
	heading := ""
	var paragraphs []string

	flush := func() {
		if heading == "" && len(paragraphs) == 0 {
			return
		}
		assets = append(assets, sectionAsset(docID, filename, len(assets), heading, paragraphs))
		heading = ""
		paragraphs = nil
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			flush()
			heading = string(node.Text(src))
		default:
			if t := extractText(n, src); t != "" {
				paragraphs = append(paragraphs, t)
			}
		}
	}
	flush()

	return assets, nil
}

// extractText gets the text content of a goldmark AST node.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
	}
	// Also handle inline children.
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		} else {
			buf.WriteString(extractText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
