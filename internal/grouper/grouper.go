package grouper

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dgallion1/deckseg/internal/asset"
	"github.com/dgallion1/deckseg/internal/features"
	"github.com/dgallion1/deckseg/internal/segment"
)

// Input is one already-classified block of a document.
type Input struct {
	Asset   *asset.Asset
	Segment segment.Segment
}

// Config bounds chunk accumulation.
type Config struct {
	MaxBlocks   int // blocks per chunk
	MaxChars    int // captured text budget per chunk
	MaxEvidence int // deduplicated evidence snippets kept per chunk
}

// DefaultConfig returns the standard grouping limits.
func DefaultConfig() Config {
	return Config{
		MaxBlocks:   8,
		MaxChars:    1500,
		MaxEvidence: 8,
	}
}

// GroupedSection is one merged, display-ready chunk. It is never
// mutated after emission.
type GroupedSection struct {
	DocumentID string          `json:"document_id"`
	GroupID    string          `json:"group_id"`
	SegmentKey segment.Segment `json:"segment_key"`
	Heading    string          `json:"heading,omitempty"`

	MemberAssetIDs []string `json:"member_asset_ids"`
	PageIndex      int      `json:"page_index"`
	PageIndexes    []int    `json:"page_indexes"`

	CapturedText       string   `json:"captured_text"`
	EvidenceCountTotal int      `json:"evidence_count_total"`
	EvidenceSnippets   []string `json:"evidence_snippets,omitempty"`
}

// Stats summarizes one grouping run.
type Stats struct {
	BlocksIn        int `json:"blocks_in"`
	BlocksFiltered  int `json:"blocks_filtered"`
	ChunksDiscarded int `json:"chunks_discarded"`
	GroupsEmitted   int `json:"groups_emitted"`
}

// Group merges the classified blocks of one document into per-segment
// chunks. Only structured word-like blocks participate; everything else
// is filtered before grouping. Output ordering follows the fixed
// segment display priority, then chunk order within each segment.
func Group(blocks []Input, cfg Config) ([]GroupedSection, Stats) {
	if cfg.MaxBlocks <= 0 {
		cfg.MaxBlocks = 8
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = 1500
	}
	if cfg.MaxEvidence <= 0 {
		cfg.MaxEvidence = 8
	}

	stats := Stats{BlocksIn: len(blocks)}

	bySegment := make(map[segment.Segment][]Input)
	for _, b := range blocks {
		if b.Asset == nil || !isWordLike(b.Asset) {
			stats.BlocksFiltered++
			continue
		}
		bySegment[b.Segment] = append(bySegment[b.Segment], b)
	}

	var groups []GroupedSection
	for _, seg := range segment.DisplayOrder {
		members := bySegment[seg]
		if len(members) == 0 {
			continue
		}
		sortBlocks(members)
		segGroups := buildChunks(members, seg, cfg, &stats)
		groups = append(groups, segGroups...)
	}
	stats.GroupsEmitted = len(groups)
	return groups, stats
}

func sortBlocks(members []Input) {
	sort.SliceStable(members, func(i, j int) bool {
		a, b := members[i].Asset, members[j].Asset
		if a.Page() != b.Page() {
			return a.Page() < b.Page()
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

type chunkAccum struct {
	members   []Input
	text      strings.Builder
	truncated bool
}

func buildChunks(members []Input, seg segment.Segment, cfg Config, stats *Stats) []GroupedSection {
	var out []GroupedSection
	cur := &chunkAccum{}

	flush := func() {
		if len(cur.members) == 0 {
			cur = &chunkAccum{}
			return
		}
		g, ok := emit(cur, seg, cfg, len(out))
		if ok {
			out = append(out, g)
		} else {
			stats.ChunksDiscarded++
		}
		cur = &chunkAccum{}
	}

	for _, m := range members {
		text := blockText(m.Asset)
		if len(cur.members) >= cfg.MaxBlocks ||
			(cur.text.Len() > 0 && cur.text.Len()+len(text) > cfg.MaxChars) {
			flush()
		}
		cur.members = append(cur.members, m)
		appendCapped(cur, text, cfg.MaxChars)
	}
	flush()
	return out
}

func appendCapped(cur *chunkAccum, text string, maxChars int) {
	if text == "" || cur.truncated {
		return
	}
	if cur.text.Len() > 0 {
		cur.text.WriteString("\n")
	}
	room := maxChars - cur.text.Len()
	if len(text) > room {
		cur.text.WriteString(text[:maxByteBoundary(text, room)])
		cur.text.WriteString("…")
		cur.truncated = true
		return
	}
	cur.text.WriteString(text)
}

// maxByteBoundary backs off to a rune boundary so truncation never
// splits a multi-byte character.
func maxByteBoundary(s string, n int) int {
	if n >= len(s) {
		return len(s)
	}
	for n > 0 && (s[n]&0xC0) == 0x80 {
		n--
	}
	return n
}

// emit finalizes one chunk. Empty and heading-only chunks without table
// content are discarded rather than emitted.
func emit(cur *chunkAccum, seg segment.Segment, cfg Config, chunkIdx int) (GroupedSection, bool) {
	text := strings.TrimSpace(cur.text.String())
	hasTable := false
	for _, m := range cur.members {
		if blockHasTable(m.Asset) {
			hasTable = true
			break
		}
	}
	if !hasTable && (text == "" || headingOnly(text)) {
		return GroupedSection{}, false
	}

	first := cur.members[0].Asset
	g := GroupedSection{
		DocumentID:   first.DocumentID,
		GroupID:      fmt.Sprintf("%s:%s:%d", first.DocumentID, seg, chunkIdx),
		SegmentKey:   seg,
		Heading:      chunkLabel(seg, chunkIdx),
		PageIndex:    first.Page(),
		CapturedText: text,
	}

	seen := make(map[string]struct{})
	for _, m := range cur.members {
		a := m.Asset
		g.MemberAssetIDs = append(g.MemberAssetIDs, a.ID)
		g.PageIndexes = append(g.PageIndexes, a.Page())
		g.EvidenceCountTotal += len(a.Evidence)
		for _, ev := range a.Evidence {
			ev = strings.TrimSpace(ev)
			if ev == "" {
				continue
			}
			key := strings.ToLower(ev)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			if len(g.EvidenceSnippets) < cfg.MaxEvidence {
				g.EvidenceSnippets = append(g.EvidenceSnippets, ev)
			}
		}
	}
	return g, true
}

func chunkLabel(seg segment.Segment, chunkIdx int) string {
	if chunkIdx == 0 {
		return string(seg)
	}
	return fmt.Sprintf("%s (part %d)", seg, chunkIdx+1)
}

// isWordLike reports whether an asset is a structured word-processor
// extraction. Only these participate in grouping.
func isWordLike(a *asset.Asset) bool {
	if a.Structured != nil {
		switch a.Structured.Kind {
		case asset.KindSection, asset.KindTable:
			return true
		case asset.KindSlide, asset.KindSheet:
			return false
		}
	}
	return features.ResolveKind(a) == features.KindDOCX
}

func blockHasTable(a *asset.Asset) bool {
	if a.Structured == nil {
		return false
	}
	if a.Structured.Kind == asset.KindTable || len(a.Structured.Table) > 0 {
		return true
	}
	if s := a.Structured.Section; s != nil && s.TablePreview != "" {
		return true
	}
	return false
}

// blockText is the display text of one word-like block.
func blockText(a *asset.Asset) string {
	if a.Structured == nil || a.Structured.Section == nil {
		return strings.TrimSpace(a.OCRText)
	}
	s := a.Structured.Section
	var parts []string
	if s.Heading != "" {
		parts = append(parts, s.Heading)
	}
	parts = append(parts, s.Paragraphs...)
	if s.Snippet != "" {
		parts = append(parts, s.Snippet)
	}
	if s.TablePreview != "" {
		parts = append(parts, s.TablePreview)
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

var bulletPrefixes = []string{"- ", "* ", "• ", "· "}

// headingOnly detects short label-like blocks: one or two lines, no
// bullet or numbered content, nothing sentence-like.
func headingOnly(text string) bool {
	if len(text) >= 80 {
		return false
	}
	lines := strings.Split(text, "\n")
	if len(lines) > 2 {
		return false
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		for _, b := range bulletPrefixes {
			if strings.HasPrefix(line, b) {
				return false
			}
		}
		if numberedLine(line) {
			return false
		}
		if strings.HasSuffix(line, ".") {
			return false
		}
	}
	return true
}

func numberedLine(line string) bool {
	if len(line) < 3 {
		return false
	}
	if line[0] < '0' || line[0] > '9' {
		return false
	}
	return line[1] == '.' || line[1] == ')' || (line[1] >= '0' && line[1] <= '9' && (line[2] == '.' || line[2] == ')'))
}
