package features

import (
	"strings"
	"testing"

	"github.com/dgallion1/deckseg/internal/asset"
	"github.com/dgallion1/deckseg/internal/segment"
)

func intPtr(v int) *int { return &v }

func TestResolveKind_TagBeatsMimeAndExtension(t *testing.T) {
	a := &asset.Asset{
		QualitySource: "office_pptx",
		MimeType:      "image/png",
		Filename:      "deck.xlsx",
	}
	if got := ResolveKind(a); got != KindPPTX {
		t.Errorf("expected pptx from tag, got %s", got)
	}
}

func TestResolveKind_MimeBeatsExtension(t *testing.T) {
	a := &asset.Asset{
		MimeType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		Filename: "export.pptx",
	}
	if got := ResolveKind(a); got != KindDOCX {
		t.Errorf("expected docx from mime, got %s", got)
	}
}

func TestResolveKind_ExtensionFallback(t *testing.T) {
	tests := []struct {
		filename string
		want     DocKind
	}{
		{"deck.PPTX", KindPPTX},
		{"memo.docx", KindDOCX},
		{"model.csv", KindXLSX},
		{"scan.jpeg", KindImage},
		{"deck.pdf", KindVision},
		{"no-extension", KindVision},
	}
	for _, tt := range tests {
		a := &asset.Asset{Filename: tt.filename}
		if got := ResolveKind(a); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.filename, tt.want, got)
		}
	}
}

func TestResolveKind_GenericOfficeTagUsesPayloadKind(t *testing.T) {
	tests := []struct {
		kind string
		want DocKind
	}{
		{asset.KindSlide, KindPPTX},
		{asset.KindSection, KindDOCX},
		{asset.KindTable, KindDOCX},
		{asset.KindSheet, KindXLSX},
	}
	for _, tt := range tests {
		a := &asset.Asset{
			QualitySource: "office",
			Structured:    &asset.Structured{Kind: tt.kind},
		}
		if got := ResolveKind(a); got != tt.want {
			t.Errorf("kind %s: expected %s, got %s", tt.kind, tt.want, got)
		}
	}
}

func TestExtract_Slide(t *testing.T) {
	a := &asset.Asset{
		PageIndex:     intPtr(3),
		QualitySource: "office_pptx",
		Structured: &asset.Structured{
			Kind: asset.KindSlide,
			Slide: &asset.SlidePayload{
				Title:       "Business Model",
				Bullets:     []string{"SaaS subscription", "Annual contracts"},
				Notes:       "Talk through pricing tiers.",
				SlideNumber: 4,
			},
		},
	}
	f := Extract(a, nil)
	if f.DocKind != KindPPTX {
		t.Fatalf("expected pptx, got %s", f.DocKind)
	}
	if f.TitleText != "Business Model" || f.TitleSource != TitleFromStructured {
		t.Errorf("title: got %q from %s", f.TitleText, f.TitleSource)
	}
	if !strings.Contains(f.BodyText, "SaaS subscription") || !strings.Contains(f.BodyText, "pricing tiers") {
		t.Errorf("body missing slide content: %q", f.BodyText)
	}
	if len(f.Headings) != 2 {
		t.Errorf("expected bullets as headings, got %v", f.Headings)
	}
	if f.SlideNumber != 4 || f.PageIndex != 3 {
		t.Errorf("expected slide 4 on page 3, got %d/%d", f.SlideNumber, f.PageIndex)
	}
}

func TestExtract_Section(t *testing.T) {
	a := &asset.Asset{
		QualitySource: "office_docx",
		Structured: &asset.Structured{
			Kind: asset.KindSection,
			Section: &asset.SectionPayload{
				Heading:      "Risk Factors",
				Paragraphs:   []string{"Regulatory exposure in two markets.", "Key-person dependency."},
				TablePreview: "Risk | Likelihood",
			},
		},
	}
	f := Extract(a, nil)
	if f.TitleText != "Risk Factors" || f.TitleSource != TitleFromHeading {
		t.Errorf("title: got %q from %s", f.TitleText, f.TitleSource)
	}
	if !strings.Contains(f.BodyText, "Regulatory exposure") || !strings.Contains(f.BodyText, "Risk | Likelihood") {
		t.Errorf("body missing section content: %q", f.BodyText)
	}
	if f.HasTable {
		t.Error("a table preview alone must not set has_table")
	}
}

func TestExtract_Sheet(t *testing.T) {
	a := &asset.Asset{
		QualitySource: "office_xlsx",
		Structured: &asset.Structured{
			Kind: asset.KindSheet,
			Sheet: &asset.SheetPayload{
				Name:       "Projections",
				Headers:    []string{"Year", "Revenue"},
				SampleRows: [][]string{{"2026", "1.2M"}, {"2027", "3.4M"}},
			},
		},
	}
	f := Extract(a, nil)
	if f.TitleText != "Projections" || f.TitleSource != TitleFromSheetName {
		t.Errorf("title: got %q from %s", f.TitleText, f.TitleSource)
	}
	if !strings.Contains(f.BodyText, "2026 | 1.2M") {
		t.Errorf("body missing joined rows: %q", f.BodyText)
	}
	if len(f.Headings) != 2 || f.Headings[0] != "Year" {
		t.Errorf("expected column headers as headings, got %v", f.Headings)
	}
}

func TestExtract_VisionInfersTitle(t *testing.T) {
	a := &asset.Asset{
		QualitySource: "vision_ocr",
		OCRText:       "Our Solution\nWe automate reconciliation end to end",
	}
	f := Extract(a, nil)
	if f.DocKind != KindVision {
		t.Fatalf("expected vision, got %s", f.DocKind)
	}
	if f.TitleText != "Our Solution" || f.TitleSource != TitleFromInference {
		t.Errorf("title: got %q from %s", f.TitleText, f.TitleSource)
	}
	if !strings.Contains(f.BodyText, "automate reconciliation") {
		t.Errorf("body should carry full OCR text: %q", f.BodyText)
	}
}

func TestExtract_VisionFirstLineFallback(t *testing.T) {
	a := &asset.Asset{
		QualitySource: "vision_ocr",
		OCRText:       "www.acme.com\n12 34",
	}
	f := Extract(a, nil)
	if f.TitleText != "www.acme.com" || f.TitleSource != TitleFromFirstLine {
		t.Errorf("expected first-line fallback, got %q from %s", f.TitleText, f.TitleSource)
	}
}

func TestExtract_VisionHonorsMislabeledStructuredTitle(t *testing.T) {
	a := &asset.Asset{
		QualitySource: "vision_ocr",
		OCRText:       "assorted body text",
		Structured: &asset.Structured{
			Kind:  asset.KindSlide,
			Slide: &asset.SlidePayload{Title: "Competition"},
		},
	}
	f := Extract(a, nil)
	if f.TitleText != "Competition" || f.TitleSource != TitleFromStructured {
		t.Errorf("expected structured title, got %q from %s", f.TitleText, f.TitleSource)
	}
}

func TestExtract_NilAsset(t *testing.T) {
	f := Extract(nil, nil)
	if f.DocKind != KindVision || f.PageIndex != -1 || f.TitleSource != TitleNone {
		t.Errorf("unexpected zero extraction: %+v", f)
	}
}

func TestExtract_TableDetection(t *testing.T) {
	tests := []struct {
		name string
		a    *asset.Asset
		want bool
	}{
		{"asset type", &asset.Asset{AssetType: "Table"}, true},
		{"payload kind", &asset.Asset{Structured: &asset.Structured{Kind: asset.KindTable}}, true},
		{"raw table", &asset.Asset{Structured: &asset.Structured{Kind: asset.KindSection, Table: []byte(`[["a"]]`)}}, true},
		{"plain section", &asset.Asset{Structured: &asset.Structured{Kind: asset.KindSection}}, false},
		{"no payload", &asset.Asset{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Extract(tt.a, nil).HasTable; got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestExtract_CapsAndCollapses(t *testing.T) {
	long := strings.Repeat("word  \t ", 400)
	a := &asset.Asset{
		QualitySource: "office_docx",
		Structured: &asset.Structured{
			Kind:    asset.KindSection,
			Section: &asset.SectionPayload{Paragraphs: []string{long}},
		},
	}
	f := Extract(a, nil)
	if strings.Contains(f.BodyText, "  ") {
		t.Error("body whitespace should collapse to single spaces")
	}
	if n := len([]rune(f.BodyText)); n != 1400 {
		t.Errorf("expected body capped at 1400 runes, got %d", n)
	}
}

func TestExtract_HeadingsDeduped(t *testing.T) {
	a := &asset.Asset{
		QualitySource: "office_pptx",
		Structured: &asset.Structured{
			Kind:  asset.KindSlide,
			Slide: &asset.SlidePayload{Bullets: []string{"Growth", "growth", "GROWTH", "Other", ""}},
		},
	}
	f := Extract(a, nil)
	if len(f.Headings) != 2 || f.Headings[0] != "Growth" || f.Headings[1] != "Other" {
		t.Errorf("expected case-insensitive dedupe keeping first form, got %v", f.Headings)
	}
}

func TestExtract_EvidenceJoined(t *testing.T) {
	a := &asset.Asset{
		QualitySource: "vision_ocr",
		OCRText:       "body",
		Evidence:      []string{"ARR $2M", "arr $2m", "Churn 2%"},
	}
	f := Extract(a, nil)
	if f.EvidenceText != "ARR $2M Churn 2%" {
		t.Errorf("expected deduped joined evidence, got %q", f.EvidenceText)
	}
}

func TestExtract_BrandTermsAndHint(t *testing.T) {
	a := &asset.Asset{
		QualitySource:  "office_pptx",
		BrandName:      "Acme",
		BrandBlacklist: []string{"Acme Confidential"},
		Structured: &asset.Structured{
			Kind:    asset.KindSlide,
			Segment: "team",
			Slide:   &asset.SlidePayload{Title: "Who We Are"},
		},
	}
	f := Extract(a, nil)
	if len(f.BrandTerms) != 2 || f.BrandTerms[0] != "Acme" {
		t.Errorf("expected brand name plus blacklist, got %v", f.BrandTerms)
	}
	if f.StructuredHint != segment.Team {
		t.Errorf("expected team hint, got %s", f.StructuredHint)
	}

	a.Structured.Segment = "not-a-segment"
	if got := Extract(a, nil).StructuredHint; got != segment.Unknown {
		t.Errorf("expected unknown for bad hint, got %s", got)
	}
}
