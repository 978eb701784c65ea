package features

import (
	"path/filepath"
	"strings"

	"github.com/dgallion1/deckseg/internal/asset"
	"github.com/dgallion1/deckseg/internal/segment"
	"github.com/dgallion1/deckseg/internal/title"
)

// DocKind identifies the source format a page was extracted from.
type DocKind string

const (
	KindVision DocKind = "vision"
	KindPPTX   DocKind = "pptx"
	KindDOCX   DocKind = "docx"
	KindXLSX   DocKind = "xlsx"
	KindImage  DocKind = "image"
)

// Title provenance tags.
const (
	TitleFromStructured = "structured"
	TitleFromSheetName  = "sheet_name"
	TitleFromHeading    = "heading"
	TitleFromInference  = "ocr_infer"
	TitleFromFirstLine  = "ocr_first_line"
	TitleNone           = "none"
)

// Features is the canonical, source-kind-agnostic view of one page that
// the classifier consumes. All text fields are whitespace-normalized,
// length-capped and never empty-by-nil. A Features value is built once
// per asset and never mutated afterward.
type Features struct {
	TitleText   string `json:"title_text"`
	TitleSource string `json:"title_source"`

	BodyText     string   `json:"body_text"`
	EvidenceText string   `json:"evidence_text"`
	Headings     []string `json:"headings,omitempty"`

	DocKind     DocKind `json:"doc_kind"`
	PageIndex   int     `json:"page_index"`
	SlideNumber int     `json:"slide_number,omitempty"`
	HasTable    bool    `json:"has_table"`

	// StructuredHint is a segment parsed directly out of the structured
	// payload, when the extractor embedded one.
	StructuredHint segment.Segment `json:"structured_segment_hint,omitempty"`

	// BrandTerms carries the document's brand name and blacklist phrases
	// so the classifier can strip branding before matching.
	BrandTerms []string `json:"brand_terms,omitempty"`
}

// Per-field caps. Lists keep first-seen order when deduplicated.
const (
	maxTitleLen    = 120
	maxBodyLen     = 1400
	maxEvidenceLen = 1000
	maxHeadingLen  = 100
	maxHeadings    = 12
	maxEvidence    = 8
)

// Extract converts a raw asset into Features. It is a total function:
// every optional or malformed field coerces to a safe zero value.
// brand may be nil; it is only consulted on the vision/image path where
// the slide title has to be inferred from OCR layout.
func Extract(a *asset.Asset, brand *title.BrandModel) Features {
	if a == nil {
		return Features{TitleSource: TitleNone, DocKind: KindVision, PageIndex: -1}
	}

	f := Features{
		TitleSource: TitleNone,
		DocKind:     ResolveKind(a),
		PageIndex:   a.Page(),
		HasTable:    detectTable(a),
	}
	if a.Structured != nil {
		f.StructuredHint = segment.Parse(a.Structured.Segment)
	}
	if a.BrandName != "" {
		f.BrandTerms = append(f.BrandTerms, a.BrandName)
	}
	f.BrandTerms = append(f.BrandTerms, a.BrandBlacklist...)

	switch f.DocKind {
	case KindPPTX:
		extractSlide(a, &f)
	case KindDOCX:
		extractSection(a, &f)
	case KindXLSX:
		extractSheet(a, &f)
	default:
		extractVision(a, brand, &f)
	}

	f.TitleText = capText(collapse(f.TitleText), maxTitleLen)
	f.BodyText = capText(collapse(f.BodyText), maxBodyLen)
	f.Headings = capList(dedupe(f.Headings, maxHeadingLen), maxHeadings)
	f.EvidenceText = capText(collapse(strings.Join(capList(dedupe(a.Evidence, maxEvidenceLen), maxEvidence), " ")), maxEvidenceLen)
	if f.TitleText == "" {
		f.TitleSource = TitleNone
	}
	return f
}

func extractSlide(a *asset.Asset, f *Features) {
	s := a.Structured.Slide
	if s == nil {
		s = &asset.SlidePayload{}
	}
	f.SlideNumber = s.SlideNumber
	if s.Title != "" {
		f.TitleText = s.Title
		f.TitleSource = TitleFromStructured
	}
	var parts []string
	parts = append(parts, s.Bullets...)
	if s.Notes != "" {
		parts = append(parts, s.Notes)
	}
	if s.Snippet != "" {
		parts = append(parts, s.Snippet)
	}
	f.BodyText = strings.Join(parts, "\n")
	f.Headings = s.Bullets
}

func extractSection(a *asset.Asset, f *Features) {
	s := a.Structured.Section
	if s == nil {
		s = &asset.SectionPayload{}
	}
	if s.Heading != "" {
		f.TitleText = s.Heading
		f.TitleSource = TitleFromHeading
		f.Headings = []string{s.Heading}
	}
	var parts []string
	parts = append(parts, s.Paragraphs...)
	if s.Snippet != "" {
		parts = append(parts, s.Snippet)
	}
	if s.TablePreview != "" {
		parts = append(parts, s.TablePreview)
	}
	f.BodyText = strings.Join(parts, "\n")
}

func extractSheet(a *asset.Asset, f *Features) {
	s := a.Structured.Sheet
	if s == nil {
		s = &asset.SheetPayload{}
	}
	if s.Name != "" {
		f.TitleText = s.Name
		f.TitleSource = TitleFromSheetName
	}
	f.Headings = s.Headers
	var rows []string
	for _, row := range s.SampleRows {
		rows = append(rows, strings.Join(row, " | "))
	}
	f.BodyText = strings.Join(rows, "\n")
}

func extractVision(a *asset.Asset, brand *title.BrandModel, f *Features) {
	// Office payloads occasionally arrive mislabeled as vision. Honor a
	// structured title if one exists before falling back to layout.
	if a.Structured != nil {
		if s := a.Structured.Slide; s != nil && s.Title != "" {
			f.TitleText = s.Title
			f.TitleSource = TitleFromStructured
		}
	}

	f.BodyText = a.OCRText
	if f.TitleText != "" {
		return
	}

	lines := title.BuildLines(a.OCRBlocks, a.PageWidth, a.PageHeight, a.OCRText)
	res := title.Infer(lines, brand, false)
	if res.Title != "" {
		f.TitleText = res.Title
		f.TitleSource = TitleFromInference
		return
	}
	// Inference found nothing usable: degrade to the first non-empty
	// OCR line rather than reporting a failure.
	for _, l := range lines {
		if strings.TrimSpace(l.Text) != "" {
			f.TitleText = l.Text
			f.TitleSource = TitleFromFirstLine
			return
		}
	}
}

// ResolveKind determines the source format of an asset. Structured
// extractor tags win, disambiguated by the payload kind discriminator;
// then mime-type prefix, then filename extension, then vision.
func ResolveKind(a *asset.Asset) DocKind {
	if k, ok := kindFromTags(a); ok {
		return k
	}
	if k, ok := kindFromMime(a.MimeType); ok {
		return k
	}
	if k, ok := kindFromExtension(a.Filename); ok {
		return k
	}
	return KindVision
}

// Quality-source / extractor-version tags emitted by the known
// structured extractors.
var officeTags = map[string]bool{
	"office_pptx": true,
	"office_docx": true,
	"office_xlsx": true,
	"office":      true,
}

var visionTags = map[string]bool{
	"vision_ocr": true,
	"vision":     true,
	"image_ocr":  true,
}

func kindFromTags(a *asset.Asset) (DocKind, bool) {
	for _, tag := range []string{a.QualitySource, a.ExtractorVersion} {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if officeTags[tag] {
			return officeKind(a, tag), true
		}
		if visionTags[tag] {
			return KindVision, true
		}
	}
	return "", false
}

// officeKind disambiguates an office tag via the embedded payload kind.
func officeKind(a *asset.Asset, tag string) DocKind {
	if a.Structured != nil {
		switch a.Structured.Kind {
		case asset.KindSlide:
			return KindPPTX
		case asset.KindSection, asset.KindTable:
			return KindDOCX
		case asset.KindSheet:
			return KindXLSX
		}
	}
	switch tag {
	case "office_pptx":
		return KindPPTX
	case "office_docx":
		return KindDOCX
	case "office_xlsx":
		return KindXLSX
	}
	return KindDOCX
}

func kindFromMime(mime string) (DocKind, bool) {
	mime = strings.ToLower(strings.TrimSpace(mime))
	switch {
	case mime == "":
		return "", false
	case strings.Contains(mime, "presentationml"), strings.Contains(mime, "ms-powerpoint"):
		return KindPPTX, true
	case strings.Contains(mime, "wordprocessingml"), strings.Contains(mime, "msword"):
		return KindDOCX, true
	case strings.Contains(mime, "spreadsheetml"), strings.Contains(mime, "ms-excel"):
		return KindXLSX, true
	case strings.HasPrefix(mime, "image/"):
		return KindImage, true
	case mime == "application/pdf":
		return KindVision, true
	}
	return "", false
}

func kindFromExtension(filename string) (DocKind, bool) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pptx", ".ppt":
		return KindPPTX, true
	case ".docx", ".doc":
		return KindDOCX, true
	case ".xlsx", ".xls", ".csv":
		return KindXLSX, true
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".tiff":
		return KindImage, true
	case ".pdf":
		return KindVision, true
	}
	return "", false
}

func detectTable(a *asset.Asset) bool {
	if strings.EqualFold(a.AssetType, "table") {
		return true
	}
	if a.Structured == nil {
		return false
	}
	if a.Structured.Kind == asset.KindTable {
		return true
	}
	return len(a.Structured.Table) > 0
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func capText(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func dedupe(items []string, maxItem int) []string {
	var out []string
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		t := capText(collapse(it), maxItem)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

func capList(items []string, max int) []string {
	if len(items) > max {
		return items[:max]
	}
	return items
}
