package ingest

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/deckseg/internal/asset"
)

// Reader converts raw document bytes into per-page/per-block assets
// ready for classification.
type Reader interface {
	Read(r io.Reader, docID, filename string) ([]asset.Asset, error)
}

// SupportedExtensions lists file extensions this service can ingest.
var SupportedExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".csv":  true,
	".html": true,
	".htm":  true,
	".pdf":  true,
	".docx": true,
}

// Options carries reader configuration that some formats need.
type Options struct {
	// PDFFallbackPdftotext shells out to pdftotext when the Go
	// library cannot extract text.
	PDFFallbackPdftotext bool
}

// ForFile returns the appropriate reader for a filename.
func ForFile(filename string, opts Options) (Reader, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextReader{}, nil
	case ".md", ".markdown":
		return &MarkdownReader{}, nil
	case ".csv":
		return &CSVReader{}, nil
	case ".html", ".htm":
		return &HTMLReader{}, nil
	case ".pdf":
		return &PDFReader{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXReader{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Quality-source tags stamped on ingested assets.
const (
	sourceWordLike = "office_docx"
	sourceSheet    = "office_xlsx"
	sourceVision   = "vision_ocr"
)

func sectionAsset(docID, filename string, idx int, heading string, paragraphs []string) asset.Asset {
	page := idx
	return asset.Asset{
		ID:            fmt.Sprintf("%s-b%d", docID, idx),
		DocumentID:    docID,
		PageIndex:     &page,
		QualitySource: sourceWordLike,
		Filename:      filename,
		Structured: &asset.Structured{
			Kind: asset.KindSection,
			Section: &asset.SectionPayload{
				Heading:    heading,
				Paragraphs: paragraphs,
			},
		},
	}
}

func visionAsset(docID, filename string, idx int, text string) asset.Asset {
	page := idx
	return asset.Asset{
		ID:            fmt.Sprintf("%s-p%d", docID, idx),
		DocumentID:    docID,
		PageIndex:     &page,
		QualitySource: sourceVision,
		Filename:      filename,
		OCRText:       text,
	}
}

func trimExt(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
