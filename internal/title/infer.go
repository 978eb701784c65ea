package title

import (
	"math"
	"regexp"
	"sort"
	"unicode"
)

// Source tags recorded in inference results.
const (
	SourceLayout = "ocr_layout"
	SourceLine   = "ocr_line"
	SourceNone   = "none"
)

// Result is the outcome of title inference for one page.
type Result struct {
	Title      string  `json:"title"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
	Debug      *Debug  `json:"debug,omitempty"`
}

// Debug traces every candidate and the score terms that produced it.
type Debug struct {
	Candidates []CandidateTrace `json:"candidates"`
	Picked     string           `json:"picked"`
	Fallback   bool             `json:"fallback,omitempty"`
}

// CandidateTrace records one scored line.
type CandidateTrace struct {
	Text          string             `json:"text"`
	Score         float64            `json:"score"`
	Terms         map[string]float64 `json:"terms"`
	BrandOverlap  float64            `json:"brand_overlap"`
	InBrandRegion bool               `json:"in_brand_region"`
	Eligible      bool               `json:"eligible"`
}

var (
	urlRe     = regexp.MustCompile(`(?i)(https?://|www\.|\.com\b|\.io\b|\.ai\b)`)
	emailRe   = regexp.MustCompile(`\S+@\S+\.\S+`)
	phoneRe   = regexp.MustCompile(`(\+?\d[\d\s().-]{7,}\d)`)
	pageNumRe = regexp.MustCompile(`(?i)^\s*(page\s*)?\d+(\s*(/|of)\s*\d+)?\s*$`)

	headingVocabRe = regexp.MustCompile(`(?i)\b(problem|solution|product|market|traction|team|competition|business\s+model|financials?|roadmap|vision|mission|overview|milestones|go[\s-]?to[\s-]?market|the\s+ask|why\s+now|about\s+us|revenue|customers)\b`)
)

// Selection window: a title must sit in the top share of the page, or in
// the first few lines when no geometry exists.
const (
	topPageShare   = 0.35
	topLineIndex   = 6
	minTitleLen    = 3
	maxTitleLen    = 120
	minAlphaRatio  = 0.25
	weakAlphaRatio = 0.45
)

type candidate struct {
	line     Line
	score    float64
	overlap  float64
	inRegion bool
	eligible bool
	terms    map[string]float64
}

// Infer picks the most likely slide title from reconstructed lines.
// brand may be nil. withDebug attaches the full scoring trace.
func Infer(lines []Line, brand *BrandModel, withDebug bool) Result {
	cands := make([]candidate, 0, len(lines))
	for _, l := range lines {
		if !plausibleTitle(l.Text) {
			continue
		}
		c := score(l, brand)
		c.eligible = inSelectionWindow(l) && !brand.HasPhrase(l.Text)
		cands = append(cands, c)
	}

	// A line materially shorter than the tallest candidate on the page
	// that also sits in a brand region is recurring boilerplate, not a
	// title, no matter how well it scored. The reference height comes
	// from the candidates, so a filtered banner or hero figure cannot
	// suppress the genuine tallest title.
	maxHeight := 0.0
	anyBox := false
	for _, c := range cands {
		if c.line.HasBox {
			anyBox = true
			if c.line.H > maxHeight {
				maxHeight = c.line.H
			}
		}
	}
	if anyBox && maxHeight > 0 {
		for i := range cands {
			l := cands[i].line
			if l.HasBox && l.H < 0.9*maxHeight && cands[i].inRegion {
				cands[i].eligible = false
			}
		}
	}

	eligible := make([]candidate, 0, len(cands))
	for _, c := range cands {
		if c.eligible {
			eligible = append(eligible, c)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].score != eligible[j].score {
			return eligible[i].score > eligible[j].score
		}
		return vertical(eligible[i].line) < vertical(eligible[j].line)
	})

	fallback := false
	var pick *candidate
	var runnerUp *candidate
	if len(eligible) > 0 {
		pick = &eligible[0]
		if len(eligible) > 1 {
			runnerUp = &eligible[1]
		}
	} else {
		// Tallest non-brand candidate anywhere on the page.
		fallback = true
		tallest := -1
		for i := range cands {
			if brand.HasPhrase(cands[i].line.Text) {
				continue
			}
			if tallest < 0 || height(cands[i].line) > height(cands[tallest].line) {
				tallest = i
			}
		}
		if tallest >= 0 {
			pick = &cands[tallest]
		}
	}

	var dbg *Debug
	if withDebug {
		dbg = &Debug{Fallback: fallback}
		for _, c := range cands {
			dbg.Candidates = append(dbg.Candidates, CandidateTrace{
				Text:          c.line.Text,
				Score:         c.score,
				Terms:         c.terms,
				BrandOverlap:  c.overlap,
				InBrandRegion: c.inRegion,
				Eligible:      c.eligible,
			})
		}
	}

	if pick == nil {
		if dbg != nil {
			dbg.Picked = ""
		}
		return Result{Source: SourceNone, Debug: dbg}
	}

	margin := 0.0
	if runnerUp != nil {
		margin = pick.score - runnerUp.score
	}
	conf := clamp(0.35+0.45*clamp(pick.score/5, 0, 1)+0.1*clamp(margin, 0, 2), 0, 1)
	if pick.inRegion && conf > 0.65 {
		conf = 0.65
	}
	if pick.overlap > 0.4 && conf > 0.55 {
		conf = 0.55
	}

	source := SourceLine
	if pick.line.HasBox {
		source = SourceLayout
	}
	if dbg != nil {
		dbg.Picked = pick.line.Text
	}
	return Result{
		Title:      pick.line.Text,
		Confidence: conf,
		Source:     source,
		Debug:      dbg,
	}
}

func plausibleTitle(text string) bool {
	n := len([]rune(text))
	if n < minTitleLen || n > maxTitleLen {
		return false
	}
	if urlRe.MatchString(text) || emailRe.MatchString(text) || phoneRe.MatchString(text) || pageNumRe.MatchString(text) {
		return false
	}
	if mostlyNumeric(text) {
		return false
	}
	return alphaRatio(text) >= minAlphaRatio
}

func score(l Line, brand *BrandModel) candidate {
	terms := make(map[string]float64)

	if l.HasBox {
		terms["height"] = math.Min(l.H*30, 2.0)
		terms["width"] = math.Min(l.W*2, 1.0)
		terms["top"] = (1 - clamp(l.Y/topPageShare, 0, 1)) * 1.5
		terms["center"] = (1 - math.Min(math.Abs(l.CenterX()-0.5)*2, 1)) * 0.5
	} else if l.Index == 0 {
		terms["top"] = 1.0
	}

	if headingVocabRe.MatchString(l.Text) {
		terms["heading_vocab"] = 1.5
	}

	overlap := brand.TokenOverlap(l.Text)
	switch {
	case overlap >= 0.7:
		terms["brand_overlap"] = -2
	case overlap >= 0.5:
		terms["brand_overlap"] = -1.2
	case overlap >= 0.3:
		terms["brand_overlap"] = -0.6
	}

	inRegion := l.HasBox && brand.InRegion(l.CenterX(), l.CenterY())
	if inRegion {
		terms["brand_region"] = -1.5
	}

	if alphaRatio(l.Text) < weakAlphaRatio {
		terms["low_alpha"] = -0.75
	}

	total := 0.0
	for _, v := range terms {
		total += v
	}
	return candidate{line: l, score: total, overlap: overlap, inRegion: inRegion, terms: terms}
}

func inSelectionWindow(l Line) bool {
	if l.HasBox {
		return l.Y <= topPageShare
	}
	return l.Index <= topLineIndex
}

func vertical(l Line) float64 {
	if l.HasBox {
		return l.Y
	}
	return float64(l.Index)
}

func height(l Line) float64 {
	if l.HasBox {
		return l.H
	}
	return 0
}

func alphaRatio(s string) float64 {
	total := 0
	alpha := 0
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) {
			alpha++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(alpha) / float64(total)
}

func mostlyNumeric(s string) bool {
	total := 0
	digits := 0
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			total++
			if unicode.IsDigit(r) {
				digits++
			}
		}
	}
	return total > 0 && float64(digits)/float64(total) > 0.6
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
