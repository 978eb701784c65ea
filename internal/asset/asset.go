package asset

import (
	"time"
)

// Asset is one page/slide/sheet extraction record, as delivered by the
// upstream extraction collaborators. It is immutable input: nothing in
// the pipeline mutates an Asset after it is decoded.
type Asset struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`

	// PageIndex is 0-based and optional; nil means the extractor did not
	// report a position.
	PageIndex *int      `json:"page_index,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`

	// Raw OCR output for image/vision pages.
	OCRText    string     `json:"ocr_text,omitempty"`
	OCRBlocks  []OCRBlock `json:"ocr_blocks,omitempty"`
	PageWidth  float64    `json:"page_width,omitempty"`
	PageHeight float64    `json:"page_height,omitempty"`

	// Structured extraction payload for office documents.
	Structured *Structured `json:"structured,omitempty"`

	ExtractorVersion string   `json:"extractor_version,omitempty"`
	QualitySource    string   `json:"quality_source,omitempty"`
	AssetType        string   `json:"asset_type,omitempty"`
	Labels           []string `json:"labels,omitempty"`
	Evidence         []string `json:"evidence,omitempty"`

	// Document-level metadata.
	DocTitle string `json:"doc_title,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Filename string `json:"filename,omitempty"`

	// Brand suppression inputs.
	BrandName      string   `json:"brand_name,omitempty"`
	BrandBlacklist []string `json:"brand_blacklist,omitempty"`
}

// OCRBlock is a single word box in normalized page coordinates (0..1).
// LineID, when present, groups words that the OCR engine already placed
// on the same visual line.
type OCRBlock struct {
	Text   string  `json:"text"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	W      float64 `json:"w"`
	H      float64 `json:"h"`
	LineID string  `json:"line_id,omitempty"`
}

// Page returns the page index, or -1 when the extractor did not report one.
func (a *Asset) Page() int {
	if a.PageIndex == nil {
		return -1
	}
	return *a.PageIndex
}
