package title

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dgallion1/deckseg/internal/asset"
)

// Line is one reconstructed visual line of OCR text. Geometry is in
// normalized page coordinates (0..1) and is only meaningful when HasBox
// is true; lines recovered from raw text carry order only.
type Line struct {
	Text   string
	Index  int
	X      float64
	Y      float64
	W      float64
	H      float64
	HasBox bool
}

// CenterX returns the horizontal center of the line box.
func (l Line) CenterX() float64 { return l.X + l.W/2 }

// CenterY returns the vertical center of the line box.
func (l Line) CenterY() float64 { return l.Y + l.H/2 }

// yBucket quantizes normalized y so that words on the same visual line
// land in the same cluster even when their boxes jitter slightly.
const yBucket = 0.02

// BuildLines reconstructs visual lines from OCR word boxes. When the OCR
// engine tagged words with a line identifier, grouping follows it;
// otherwise words are clustered by quantized y and ordered left to right.
// With no boxes at all, rawText is split on newlines.
func BuildLines(blocks []asset.OCRBlock, pageW, pageH float64, rawText string) []Line {
	if len(blocks) == 0 {
		return linesFromText(rawText)
	}

	norm := normalizeBlocks(blocks, pageW, pageH)

	hasLineIDs := false
	for _, b := range norm {
		if b.LineID != "" {
			hasLineIDs = true
			break
		}
	}

	var groups map[string][]asset.OCRBlock
	if hasLineIDs {
		groups = make(map[string][]asset.OCRBlock)
		for _, b := range norm {
			key := b.LineID
			if key == "" {
				key = bucketKey(b.Y)
			}
			groups[key] = append(groups[key], b)
		}
	} else {
		groups = make(map[string][]asset.OCRBlock)
		for _, b := range norm {
			key := bucketKey(b.Y)
			groups[key] = append(groups[key], b)
		}
	}

	lines := make([]Line, 0, len(groups))
	for _, g := range groups {
		sort.SliceStable(g, func(i, j int) bool { return g[i].X < g[j].X })
		lines = append(lines, mergeGroup(g))
	}

	// Reading order: top to bottom, then left to right.
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].Y != lines[j].Y {
			return lines[i].Y < lines[j].Y
		}
		return lines[i].X < lines[j].X
	})
	for i := range lines {
		lines[i].Index = i
	}
	return lines
}

func bucketKey(y float64) string {
	return "y:" + strconv.Itoa(int(y/yBucket))
}

func mergeGroup(g []asset.OCRBlock) Line {
	var texts []string
	minX, minY := g[0].X, g[0].Y
	maxX, maxY := g[0].X+g[0].W, g[0].Y+g[0].H
	for _, b := range g {
		t := strings.TrimSpace(b.Text)
		if t != "" {
			texts = append(texts, t)
		}
		if b.X < minX {
			minX = b.X
		}
		if b.Y < minY {
			minY = b.Y
		}
		if b.X+b.W > maxX {
			maxX = b.X + b.W
		}
		if b.Y+b.H > maxY {
			maxY = b.Y + b.H
		}
	}
	return Line{
		Text:   strings.Join(texts, " "),
		X:      minX,
		Y:      minY,
		W:      maxX - minX,
		H:      maxY - minY,
		HasBox: true,
	}
}

// normalizeBlocks converts absolute pixel coordinates to the 0..1 range
// when page dimensions are known. Blocks that already look normalized
// pass through unchanged.
func normalizeBlocks(blocks []asset.OCRBlock, pageW, pageH float64) []asset.OCRBlock {
	absolute := false
	for _, b := range blocks {
		if b.X > 1.5 || b.Y > 1.5 || b.W > 1.5 || b.H > 1.5 {
			absolute = true
			break
		}
	}
	if !absolute || pageW <= 0 || pageH <= 0 {
		return blocks
	}
	out := make([]asset.OCRBlock, len(blocks))
	for i, b := range blocks {
		out[i] = asset.OCRBlock{
			Text:   b.Text,
			X:      b.X / pageW,
			Y:      b.Y / pageH,
			W:      b.W / pageW,
			H:      b.H / pageH,
			LineID: b.LineID,
		}
	}
	return out
}

func linesFromText(raw string) []Line {
	var lines []Line
	idx := 0
	for _, part := range strings.Split(raw, "\n") {
		t := strings.TrimSpace(part)
		if t == "" {
			continue
		}
		lines = append(lines, Line{Text: t, Index: idx})
		idx++
	}
	return lines
}

var (
	wsRe    = regexp.MustCompile(`\s+`)
	punctRe = regexp.MustCompile(`[^\p{L}\p{N} ]+`)
)

// NormalizePhrase lowercases, strips punctuation and collapses whitespace
// so that recurring boilerplate compares equal across pages.
func NormalizePhrase(s string) string {
	s = strings.ToLower(s)
	s = punctRe.ReplaceAllString(s, " ")
	s = wsRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Tokens splits a normalized phrase into words.
func Tokens(s string) []string {
	n := NormalizePhrase(s)
	if n == "" {
		return nil
	}
	return strings.Fields(n)
}
