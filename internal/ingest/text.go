package ingest

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/deckseg/internal/asset"
)

// TextReader handles plain text files. Blank-line-separated paragraph
// runs become word-like section blocks.
type TextReader struct{}

func (p *TextReader) Read(r io.Reader, docID, filename string) ([]asset.Asset, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// Each paragraph becomes one block.
	assets := make([]asset.Asset, 0, len(paragraphs))
	for i, para := range paragraphs {
		assets = append(assets, sectionAsset(docID, filename, i, "", []string{para}))
	}
	return assets, nil
}
