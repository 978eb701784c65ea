package grouper

import (
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/deckseg/internal/asset"
	"github.com/dgallion1/deckseg/internal/segment"
)

func sectionBlock(id string, page int, heading string, paragraphs ...string) *asset.Asset {
	p := page
	return &asset.Asset{
		ID:         id,
		DocumentID: "doc1",
		PageIndex:  &p,
		Structured: &asset.Structured{
			Kind: asset.KindSection,
			Section: &asset.SectionPayload{
				Heading:    heading,
				Paragraphs: paragraphs,
			},
		},
	}
}

func TestGroup_PartitionsAndOrdersByDisplayPriority(t *testing.T) {
	blocks := []Input{
		{Asset: sectionBlock("a1", 5, "Team", "Two founders with prior exits."), Segment: segment.Team},
		{Asset: sectionBlock("a2", 1, "Problem", "Budgeting is painful for SMBs."), Segment: segment.Problem},
		{Asset: sectionBlock("a3", 6, "Advisors", "Three advisors from the industry."), Segment: segment.Team},
	}
	groups, stats := Group(blocks, DefaultConfig())
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].SegmentKey != segment.Problem || groups[1].SegmentKey != segment.Team {
		t.Errorf("expected problem before team, got %s then %s", groups[0].SegmentKey, groups[1].SegmentKey)
	}
	team := groups[1]
	if len(team.MemberAssetIDs) != 2 {
		t.Fatalf("expected merged team group, got members %v", team.MemberAssetIDs)
	}
	if !sort.IntsAreSorted(team.PageIndexes) {
		t.Errorf("page indexes must be non-decreasing: %v", team.PageIndexes)
	}
	if team.GroupID != "doc1:team:0" {
		t.Errorf("unexpected group id %q", team.GroupID)
	}
	if team.Heading != "team" {
		t.Errorf("unexpected heading %q", team.Heading)
	}
	if stats.GroupsEmitted != 2 || stats.BlocksIn != 3 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestGroup_SortsByPageThenCreatedAtThenID(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	b1 := sectionBlock("z-late", 0, "", "First paragraph of the section.")
	b1.CreatedAt = t0.Add(time.Minute)
	b2 := sectionBlock("a-early", 0, "", "Second paragraph of the section.")
	b2.CreatedAt = t0
	b3 := sectionBlock("m-mid", 2, "", "Third paragraph of the section.")
	b3.CreatedAt = t0

	groups, _ := Group([]Input{
		{Asset: b1, Segment: segment.Problem},
		{Asset: b3, Segment: segment.Problem},
		{Asset: b2, Segment: segment.Problem},
	}, DefaultConfig())
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	want := []string{"a-early", "z-late", "m-mid"}
	for i, id := range want {
		if groups[0].MemberAssetIDs[i] != id {
			t.Fatalf("expected member order %v, got %v", want, groups[0].MemberAssetIDs)
		}
	}
}

func TestGroup_FlushesAtMaxBlocks(t *testing.T) {
	var blocks []Input
	for i := 0; i < 10; i++ {
		id := string(rune('a' + i))
		blocks = append(blocks, Input{
			Asset:   sectionBlock(id, i, "", "Paragraph for page number "+id+"."),
			Segment: segment.Traction,
		})
	}
	groups, _ := Group(blocks, DefaultConfig())
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if len(groups[0].MemberAssetIDs) != 8 || len(groups[1].MemberAssetIDs) != 2 {
		t.Errorf("expected 8+2 split, got %d+%d", len(groups[0].MemberAssetIDs), len(groups[1].MemberAssetIDs))
	}
	if groups[0].Heading != "traction" {
		t.Errorf("first chunk heading: got %q", groups[0].Heading)
	}
	if groups[1].Heading != "traction (part 2)" {
		t.Errorf("second chunk heading: got %q", groups[1].Heading)
	}
	if groups[1].GroupID != "doc1:traction:1" {
		t.Errorf("second chunk id: got %q", groups[1].GroupID)
	}
}

func TestGroup_FlushesAtMaxChars(t *testing.T) {
	cfg := Config{MaxBlocks: 8, MaxChars: 60, MaxEvidence: 8}
	para := "This paragraph describes the problem space well." // 48 chars
	blocks := []Input{
		{Asset: sectionBlock("a1", 0, "", para), Segment: segment.Problem},
		{Asset: sectionBlock("a2", 1, "", para), Segment: segment.Problem},
	}
	groups, _ := Group(blocks, cfg)
	if len(groups) != 2 {
		t.Fatalf("expected char-budget flush into 2 groups, got %d", len(groups))
	}
}

func TestGroup_TruncatesOversizedBlock(t *testing.T) {
	cfg := Config{MaxBlocks: 8, MaxChars: 30, MaxEvidence: 8}
	blocks := []Input{
		{Asset: sectionBlock("a1", 0, "", "- pricing model detail repeated many times over"), Segment: segment.BusinessModel},
	}
	groups, _ := Group(blocks, cfg)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	text := groups[0].CapturedText
	if !strings.HasSuffix(text, "…") {
		t.Errorf("expected truncation marker, got %q", text)
	}
	if len(text) > cfg.MaxChars+len("…") {
		t.Errorf("captured text exceeds budget: %d bytes", len(text))
	}
}

func TestGroup_DiscardsHeadingOnlyChunks(t *testing.T) {
	cfg := Config{MaxBlocks: 1, MaxChars: 1500, MaxEvidence: 8}
	blocks := []Input{
		{Asset: sectionBlock("a1", 0, "Team"), Segment: segment.Team},
		{Asset: sectionBlock("a2", 1, "", "Our founding team has shipped three products."), Segment: segment.Team},
	}
	groups, stats := Group(blocks, cfg)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if stats.ChunksDiscarded != 1 {
		t.Errorf("expected 1 discarded chunk, got %d", stats.ChunksDiscarded)
	}
	// A discarded chunk does not consume a chunk index.
	if groups[0].GroupID != "doc1:team:0" || groups[0].Heading != "team" {
		t.Errorf("expected first emitted chunk at index 0, got %q / %q", groups[0].GroupID, groups[0].Heading)
	}
}

func TestGroup_KeepsHeadingOnlyChunkWithTable(t *testing.T) {
	a := sectionBlock("a1", 0, "Financials")
	a.Structured.Section.TablePreview = "Year | Revenue"
	groups, _ := Group([]Input{{Asset: a, Segment: segment.Financials}}, DefaultConfig())
	if len(groups) != 1 {
		t.Fatalf("expected table chunk to survive, got %d groups", len(groups))
	}
}

func TestGroup_FiltersNonWordLikeBlocks(t *testing.T) {
	p := 0
	slide := &asset.Asset{
		ID: "s1", DocumentID: "doc1", PageIndex: &p,
		Structured: &asset.Structured{Kind: asset.KindSlide, Slide: &asset.SlidePayload{Title: "Traction"}},
	}
	sheet := &asset.Asset{
		ID: "s2", DocumentID: "doc1",
		Structured: &asset.Structured{Kind: asset.KindSheet, Sheet: &asset.SheetPayload{Name: "Model"}},
	}
	vision := &asset.Asset{ID: "v1", DocumentID: "doc1", OCRText: "scanned page text"}
	section := sectionBlock("w1", 1, "", "A real word-processor paragraph.")

	groups, stats := Group([]Input{
		{Asset: slide, Segment: segment.Traction},
		{Asset: sheet, Segment: segment.Financials},
		{Asset: vision, Segment: segment.Problem},
		{Asset: section, Segment: segment.Problem},
		{Asset: nil, Segment: segment.Team},
	}, DefaultConfig())
	if stats.BlocksFiltered != 4 {
		t.Errorf("expected 4 filtered blocks, got %d", stats.BlocksFiltered)
	}
	if len(groups) != 1 || groups[0].MemberAssetIDs[0] != "w1" {
		t.Fatalf("expected only the section block to group, got %+v", groups)
	}
}

func TestGroup_EvidenceDedupedAndCapped(t *testing.T) {
	cfg := Config{MaxBlocks: 8, MaxChars: 1500, MaxEvidence: 2}
	a1 := sectionBlock("a1", 0, "", "Traction summary for the quarter.")
	a1.Evidence = []string{"ARR $2M", "arr $2m", "Churn 2%"}
	a2 := sectionBlock("a2", 1, "", "More traction detail for the quarter.")
	a2.Evidence = []string{"Churn 2%", "NPS 60"}

	groups, _ := Group([]Input{
		{Asset: a1, Segment: segment.Traction},
		{Asset: a2, Segment: segment.Traction},
	}, cfg)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	g := groups[0]
	if g.EvidenceCountTotal != 5 {
		t.Errorf("expected raw evidence count 5, got %d", g.EvidenceCountTotal)
	}
	if len(g.EvidenceSnippets) != 2 {
		t.Fatalf("expected capped snippets, got %v", g.EvidenceSnippets)
	}
	if g.EvidenceSnippets[0] != "ARR $2M" || g.EvidenceSnippets[1] != "Churn 2%" {
		t.Errorf("expected first-seen forms kept, got %v", g.EvidenceSnippets)
	}
}
