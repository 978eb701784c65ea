package title

import "math"

// Region is an elliptical area of the page where a recurring brand
// phrase reliably appears. Coordinates are normalized (0..1).
type Region struct {
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`
	RadiusX float64 `json:"radius_x"`
	RadiusY float64 `json:"radius_y"`
}

// Contains does an ellipse containment test for a point.
func (r Region) Contains(x, y float64) bool {
	if r.RadiusX <= 0 || r.RadiusY <= 0 {
		return false
	}
	dx := (x - r.CenterX) / r.RadiusX
	dy := (y - r.CenterY) / r.RadiusY
	return dx*dx+dy*dy <= 1
}

// BrandModel holds the recurring boilerplate phrases of one document and
// the on-page regions where they cluster. It is computed once per
// document and then passed read-only into every page's title inference.
type BrandModel struct {
	Phrases map[string]struct{} `json:"phrases"`
	Regions []Region            `json:"regions"`
}

// A phrase must recur on at least max(2, ceil(35% of pages)) pages to
// qualify as brand boilerplate.
const brandRecurrenceShare = 0.35

// A region is only recorded when the phrase's positions cluster with a
// standard deviation of at most this much on both axes.
const brandPositionStdDev = 0.08

// Header/footer bands scanned for recurring phrases.
const (
	brandHeaderBand = 0.35
	brandFooterBand = 0.85
)

const minRegionRadius = 0.04

// HasPhrase reports whether s (after normalization) is an exact brand
// phrase.
func (m *BrandModel) HasPhrase(s string) bool {
	if m == nil || len(m.Phrases) == 0 {
		return false
	}
	_, ok := m.Phrases[NormalizePhrase(s)]
	return ok
}

// InRegion reports whether a point lies inside any brand region.
func (m *BrandModel) InRegion(x, y float64) bool {
	if m == nil {
		return false
	}
	for _, r := range m.Regions {
		if r.Contains(x, y) {
			return true
		}
	}
	return false
}

// TokenOverlap returns the share of s's tokens that appear in any brand
// phrase, in [0,1].
func (m *BrandModel) TokenOverlap(s string) float64 {
	if m == nil || len(m.Phrases) == 0 {
		return 0
	}
	toks := Tokens(s)
	if len(toks) == 0 {
		return 0
	}
	brand := make(map[string]struct{})
	for p := range m.Phrases {
		for _, t := range Tokens(p) {
			brand[t] = struct{}{}
		}
	}
	hit := 0
	for _, t := range toks {
		if _, ok := brand[t]; ok {
			hit++
		}
	}
	return float64(hit) / float64(len(toks))
}

type phraseStat struct {
	pages map[int]struct{}
	xs    []float64
	ys    []float64
}

// BuildBrandModel scans every page's header and footer lines for phrases
// that recur across the document, and records a region for each phrase
// whose positions cluster tightly. Extra blacklist phrases (for example
// the company name supplied by the caller) are always included.
func BuildBrandModel(pages [][]Line, blacklist []string) *BrandModel {
	model := &BrandModel{Phrases: make(map[string]struct{})}
	for _, b := range blacklist {
		if n := NormalizePhrase(b); n != "" {
			model.Phrases[n] = struct{}{}
		}
	}
	if len(pages) < 2 {
		return model
	}

	stats := make(map[string]*phraseStat)
	for pageIdx, lines := range pages {
		seen := make(map[string]struct{})
		for _, l := range lines {
			if !inBrandBand(l) {
				continue
			}
			phrase := NormalizePhrase(l.Text)
			if phrase == "" || len(phrase) > 80 {
				continue
			}
			if _, dup := seen[phrase]; dup {
				continue
			}
			seen[phrase] = struct{}{}

			st := stats[phrase]
			if st == nil {
				st = &phraseStat{pages: make(map[int]struct{})}
				stats[phrase] = st
			}
			st.pages[pageIdx] = struct{}{}
			if l.HasBox {
				st.xs = append(st.xs, l.CenterX())
				st.ys = append(st.ys, l.CenterY())
			}
		}
	}

	minPages := int(math.Ceil(brandRecurrenceShare * float64(len(pages))))
	if minPages < 2 {
		minPages = 2
	}

	for phrase, st := range stats {
		if len(st.pages) < minPages {
			continue
		}
		model.Phrases[phrase] = struct{}{}

		if len(st.xs) < 2 {
			continue
		}
		mx, sx := meanStdDev(st.xs)
		my, sy := meanStdDev(st.ys)
		if sx <= brandPositionStdDev && sy <= brandPositionStdDev {
			model.Regions = append(model.Regions, Region{
				CenterX: mx,
				CenterY: my,
				RadiusX: math.Max(minRegionRadius, 2*sx),
				RadiusY: math.Max(minRegionRadius, 2*sy),
			})
		}
	}
	return model
}

func inBrandBand(l Line) bool {
	if l.HasBox {
		return l.Y <= brandHeaderBand || l.Y+l.H >= brandFooterBand
	}
	// Without geometry only the first couple of lines are header-like.
	return l.Index <= 2
}

func meanStdDev(vals []float64) (mean, sd float64) {
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	var sum float64
	for _, v := range vals {
		d := v - mean
		sum += d * d
	}
	sd = math.Sqrt(sum / float64(len(vals)))
	return mean, sd
}
