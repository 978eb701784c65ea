package ingest

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgallion1/deckseg/internal/asset"
	"github.com/fumiama/go-docx"
)

// DOCXReader handles .docx files. Heading-styled paragraphs start new
// section blocks; everything else accumulates under the current one.
type DOCXReader struct{}

func (p *DOCXReader) Read(r io.Reader, docID, filename string) ([]asset.Asset, error) {
	// go-docx needs a ReadSeeker+size, so write to a temp file.
	tmp, err := os.CreateTemp("", "deckseg-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}
	defer tmp.Close()

	doc, err := docx.Parse(tmp, size)
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

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

	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		if text == "" {
			continue
		}
		if docxHeadingLevel(para) > 0 {
			flush()
			heading = text
		} else {
			paragraphs = append(paragraphs, text)
		}
	}
	flush()

	return assets, nil
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := para.Properties.Style.Val
	for lvl := 1; lvl <= 6; lvl++ {
		if strings.EqualFold(style, fmt.Sprintf("Heading%d", lvl)) ||
			strings.EqualFold(style, fmt.Sprintf("heading %d", lvl)) {
			return lvl
		}
	}
	return 0
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
