package segment

import "strings"

// Segment is one of the fixed pitch-deck content categories.
type Segment string

const (
	Problem       Segment = "problem"
	Solution      Segment = "solution"
	Product       Segment = "product"
	Market        Segment = "market"
	Traction      Segment = "traction"
	BusinessModel Segment = "business_model"
	Distribution  Segment = "distribution"
	Team          Segment = "team"
	Competition   Segment = "competition"
	Risks         Segment = "risks"
	Financials    Segment = "financials"
	RaiseTerms    Segment = "raise_terms"
	Exit          Segment = "exit"
	Overview      Segment = "overview"
	Unknown       Segment = "unknown"
)

// ReasonCode explains why a classification came back unknown.
type ReasonCode string

const (
	ReasonNoText       ReasonCode = "NO_TEXT"
	ReasonLowSignal    ReasonCode = "LOW_SIGNAL"
	ReasonAmbiguousTie ReasonCode = "AMBIGUOUS_TIE"
)

// All lists every segment except Unknown, in no particular order.
// Scoring iterates this; Overview is intentionally excluded because it
// is only ever assigned by title match, never by keyword scoring.
var All = []Segment{
	Problem, Solution, Product, Market, Traction, BusinessModel,
	Distribution, Team, Competition, Risks, Financials, RaiseTerms, Exit,
}

// DisplayOrder is the fixed priority used when ordering grouped sections
// for analyst display.
var DisplayOrder = []Segment{
	Overview, Problem, Solution, Product, Market, Traction, BusinessModel,
	Competition, Team, Distribution, RaiseTerms, Exit, Risks, Financials,
	Unknown,
}

var valid = func() map[Segment]bool {
	m := make(map[Segment]bool, len(DisplayOrder))
	for _, s := range DisplayOrder {
		m[s] = true
	}
	return m
}()

// Parse coerces an arbitrary string to a Segment. Unrecognized or empty
// values become Unknown.
func Parse(s string) Segment {
	seg := Segment(strings.ToLower(strings.TrimSpace(s)))
	if valid[seg] {
		return seg
	}
	return Unknown
}

// IsKnown reports whether s is a real segment (not Unknown).
func IsKnown(s Segment) bool {
	return s != Unknown && valid[s]
}

// DisplayRank returns the position of s in DisplayOrder. Unrecognized
// segments sort last.
func DisplayRank(s Segment) int {
	for i, seg := range DisplayOrder {
		if seg == s {
			return i
		}
	}
	return len(DisplayOrder)
}
