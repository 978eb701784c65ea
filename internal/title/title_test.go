package title

import (
	"math"
	"testing"

	"github.com/dgallion1/deckseg/internal/asset"
)

func TestBuildLines_GroupsByLineID(t *testing.T) {
	blocks := []asset.OCRBlock{
		{Text: "Opportunity", X: 0.4, Y: 0.1, W: 0.2, H: 0.05, LineID: "l1"},
		{Text: "Market", X: 0.2, Y: 0.1, W: 0.15, H: 0.05, LineID: "l1"},
		{Text: "TAM of $4B", X: 0.2, Y: 0.3, W: 0.3, H: 0.03, LineID: "l2"},
	}
	lines := BuildLines(blocks, 0, 0, "")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Text != "Market Opportunity" {
		t.Errorf("expected left-to-right join, got %q", lines[0].Text)
	}
	if lines[1].Text != "TAM of $4B" {
		t.Errorf("expected second line, got %q", lines[1].Text)
	}
	if lines[0].Index != 0 || lines[1].Index != 1 {
		t.Errorf("expected reading-order indexes, got %d/%d", lines[0].Index, lines[1].Index)
	}
}

func TestBuildLines_ClustersByQuantizedY(t *testing.T) {
	// 0.101 and 0.108 land in the same 0.02-wide bucket; 0.30 does not.
	blocks := []asset.OCRBlock{
		{Text: "Team", X: 0.3, Y: 0.108, W: 0.1, H: 0.04},
		{Text: "Our", X: 0.1, Y: 0.101, W: 0.08, H: 0.04},
		{Text: "Founded 2021", X: 0.1, Y: 0.30, W: 0.2, H: 0.03},
	}
	lines := BuildLines(blocks, 0, 0, "")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Text != "Our Team" {
		t.Errorf("expected clustered line %q, got %q", "Our Team", lines[0].Text)
	}
	if !lines[0].HasBox {
		t.Error("expected merged line to carry a box")
	}
}

func TestBuildLines_NormalizesPixelCoordinates(t *testing.T) {
	blocks := []asset.OCRBlock{
		{Text: "Traction", X: 192, Y: 54, W: 384, H: 43},
	}
	lines := BuildLines(blocks, 1920, 1080, "")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	l := lines[0]
	if math.Abs(l.X-0.1) > 1e-9 || math.Abs(l.Y-0.05) > 1e-9 {
		t.Errorf("expected normalized origin (0.1, 0.05), got (%.3f, %.3f)", l.X, l.Y)
	}
	if math.Abs(l.W-0.2) > 1e-9 {
		t.Errorf("expected normalized width 0.2, got %.3f", l.W)
	}
}

func TestBuildLines_RawTextFallback(t *testing.T) {
	lines := BuildLines(nil, 0, 0, "Our Team\n\n  Alice, CEO  \nBob, CTO")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0].Text != "Our Team" || lines[1].Text != "Alice, CEO" {
		t.Errorf("unexpected lines: %q, %q", lines[0].Text, lines[1].Text)
	}
	for i, l := range lines {
		if l.HasBox {
			t.Errorf("line %d: fallback lines must not carry boxes", i)
		}
		if l.Index != i {
			t.Errorf("line %d: expected sequential index, got %d", i, l.Index)
		}
	}
}

func TestNormalizePhrase(t *testing.T) {
	got := NormalizePhrase("  Acme, Inc. — Confidential!  ")
	if got != "acme inc confidential" {
		t.Errorf("got %q", got)
	}
	if NormalizePhrase("@#$%") != "" {
		t.Errorf("punctuation-only input should normalize to empty")
	}
}

func TestBuildBrandModel_RecurrenceAndRegion(t *testing.T) {
	footer := func(jitter float64) Line {
		return Line{Text: "Acme Corp Confidential", X: 0.30 + jitter, Y: 0.92, W: 0.25, H: 0.03, HasBox: true}
	}
	pages := [][]Line{
		{footer(0), {Text: "Problem", X: 0.2, Y: 0.05, W: 0.3, H: 0.06, HasBox: true}},
		{footer(0.01), {Text: "Solution", X: 0.2, Y: 0.05, W: 0.3, H: 0.06, HasBox: true}},
		{footer(-0.01), {Text: "Traction", X: 0.2, Y: 0.05, W: 0.3, H: 0.06, HasBox: true}},
		{{Text: "Team", X: 0.2, Y: 0.05, W: 0.3, H: 0.06, HasBox: true}},
	}
	m := BuildBrandModel(pages, []string{"Acme Corp"})

	if !m.HasPhrase("Acme Corp Confidential") {
		t.Error("recurring footer phrase should be in the model")
	}
	if !m.HasPhrase("acme corp") {
		t.Error("blacklist phrase should always be in the model")
	}
	if m.HasPhrase("Problem") {
		t.Error("one-off page title must not become a brand phrase")
	}
	if len(m.Regions) == 0 {
		t.Fatal("expected a region for the position-stable footer")
	}
	if !m.InRegion(0.425, 0.935) {
		t.Error("footer center should fall inside the recorded region")
	}
	if m.InRegion(0.5, 0.1) {
		t.Error("page top should be outside the footer region")
	}
}

func TestBuildBrandModel_SinglePage(t *testing.T) {
	pages := [][]Line{
		{{Text: "Acme Corp Confidential", X: 0.3, Y: 0.92, W: 0.25, H: 0.03, HasBox: true}},
	}
	m := BuildBrandModel(pages, []string{"Acme Corp"})
	if !m.HasPhrase("acme corp") {
		t.Error("blacklist phrase missing")
	}
	if m.HasPhrase("Acme Corp Confidential") {
		t.Error("no recurrence can be established from a single page")
	}
	if len(m.Regions) != 0 {
		t.Errorf("expected no regions, got %d", len(m.Regions))
	}
}

func TestTokenOverlap(t *testing.T) {
	m := &BrandModel{Phrases: map[string]struct{}{"acme corp": {}}}
	if got := m.TokenOverlap("Acme Roadmap"); got != 0.5 {
		t.Errorf("expected 0.5, got %.3f", got)
	}
	if got := m.TokenOverlap("Quarterly Results"); got != 0 {
		t.Errorf("expected 0, got %.3f", got)
	}
	var nilModel *BrandModel
	if got := nilModel.TokenOverlap("anything"); got != 0 {
		t.Errorf("nil model should report 0 overlap, got %.3f", got)
	}
}

func TestInfer_PicksProminentTopLine(t *testing.T) {
	lines := []Line{
		{Text: "Market Opportunity", X: 0.25, Y: 0.05, W: 0.5, H: 0.06, HasBox: true, Index: 0},
		{Text: "The TAM for workflow tools keeps growing", X: 0.1, Y: 0.40, W: 0.6, H: 0.025, HasBox: true, Index: 1},
	}
	got := Infer(lines, nil, true)
	if got.Title != "Market Opportunity" {
		t.Fatalf("expected title, got %q", got.Title)
	}
	if got.Source != SourceLayout {
		t.Errorf("expected source %s, got %s", SourceLayout, got.Source)
	}
	// Score saturates the formula; with no runner-up the margin term is 0.
	if math.Abs(got.Confidence-0.8) > 1e-9 {
		t.Errorf("expected confidence 0.8, got %.4f", got.Confidence)
	}
	if got.Debug == nil || got.Debug.Picked != "Market Opportunity" {
		t.Error("expected debug trace with picked line")
	}
}

func TestInfer_BrandRegionCapsConfidence(t *testing.T) {
	m := &BrandModel{
		Phrases: map[string]struct{}{"acme corp": {}},
		Regions: []Region{{CenterX: 0.5, CenterY: 0.08, RadiusX: 0.1, RadiusY: 0.1}},
	}
	lines := []Line{
		{Text: "Traction Update", X: 0.25, Y: 0.05, W: 0.5, H: 0.06, HasBox: true, Index: 0},
	}
	got := Infer(lines, m, false)
	if got.Title != "Traction Update" {
		t.Fatalf("expected title, got %q", got.Title)
	}
	if got.Confidence != 0.65 {
		t.Errorf("expected in-region cap 0.65, got %.4f", got.Confidence)
	}
}

func TestInfer_TallFilteredLineDoesNotSuppressTitle(t *testing.T) {
	// A filtered hero figure is taller than every real candidate; the
	// tallest-candidate guard must measure against candidates only, so
	// the genuine title survives even inside a brand region.
	m := &BrandModel{
		Phrases: map[string]struct{}{"acme corp": {}},
		Regions: []Region{{CenterX: 0.5, CenterY: 0.08, RadiusX: 0.1, RadiusY: 0.1}},
	}
	lines := []Line{
		{Text: "$123,456,789", X: 0.2, Y: 0.30, W: 0.6, H: 0.2, HasBox: true, Index: 0},
		{Text: "Our Team", X: 0.3, Y: 0.05, W: 0.4, H: 0.05, HasBox: true, Index: 1},
		{Text: "Founders and advisors", X: 0.1, Y: 0.55, W: 0.5, H: 0.03, HasBox: true, Index: 2},
	}
	got := Infer(lines, m, false)
	if got.Title != "Our Team" {
		t.Fatalf("expected tallest candidate despite brand region, got %q", got.Title)
	}
}

func TestInfer_BrandOverlapCapsConfidence(t *testing.T) {
	m := &BrandModel{Phrases: map[string]struct{}{"acme corp": {}}}
	lines := []Line{
		{Text: "Acme Roadmap", X: 0.2, Y: 0.02, W: 0.6, H: 0.07, HasBox: true, Index: 0},
	}
	got := Infer(lines, m, false)
	if got.Title != "Acme Roadmap" {
		t.Fatalf("expected title, got %q", got.Title)
	}
	if got.Confidence != 0.55 {
		t.Errorf("expected overlap cap 0.55, got %.4f", got.Confidence)
	}
}

func TestInfer_ExactBrandPhraseFallsBack(t *testing.T) {
	m := &BrandModel{Phrases: map[string]struct{}{"acme corp": {}}}
	lines := []Line{
		{Text: "Acme Corp", X: 0.25, Y: 0.03, W: 0.5, H: 0.06, HasBox: true, Index: 0},
		{Text: "Competitive Landscape", X: 0.2, Y: 0.45, W: 0.5, H: 0.05, HasBox: true, Index: 1},
	}
	got := Infer(lines, m, true)
	if got.Title != "Competitive Landscape" {
		t.Fatalf("expected fallback to tallest non-brand line, got %q", got.Title)
	}
	if !got.Debug.Fallback {
		t.Error("expected fallback marker in debug trace")
	}
}

func TestInfer_FiltersJunkLines(t *testing.T) {
	lines := []Line{
		{Text: "www.acme.com", Index: 0},
		{Text: "hi@acme.com", Index: 1},
		{Text: "Page 3 of 12", Index: 2},
		{Text: "$12,000,000", Index: 3},
		{Text: "ab", Index: 4},
	}
	got := Infer(lines, nil, false)
	if got.Title != "" {
		t.Fatalf("expected no title, got %q", got.Title)
	}
	if got.Source != SourceNone {
		t.Errorf("expected source %s, got %s", SourceNone, got.Source)
	}
}

func TestInfer_NoGeometryUsesLineOrder(t *testing.T) {
	lines := BuildLines(nil, 0, 0, "Our Team\nAlice, CEO\nBob, CTO")
	got := Infer(lines, nil, false)
	if got.Title != "Our Team" {
		t.Fatalf("expected first heading-like line, got %q", got.Title)
	}
	if got.Source != SourceLine {
		t.Errorf("expected source %s, got %s", SourceLine, got.Source)
	}
	if got.Confidence <= 0.5 {
		t.Errorf("expected confident pick, got %.4f", got.Confidence)
	}
}
