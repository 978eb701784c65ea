package classify

import (
	"regexp"
	"sort"
	"strings"

	"github.com/dgallion1/deckseg/internal/features"
	"github.com/dgallion1/deckseg/internal/segment"
)

// Rule names recorded in the trace.
const (
	RuleTitleMatch  = "title_match"
	RuleTitleIntent = "title_intent"
	RuleTableRoute  = "table_routing"
	RuleKeywords    = "keyword_scoring"
	RuleNoText      = "no_text"
)

// Fixed confidences and scoring parameters of the cascade.
const (
	titleMatchConfidence  = 0.95
	titleIntentConfidence = 0.8
	tableRouteConfidence  = 0.85
	scoreThreshold        = 0.5
	tieWindow             = 0.1
	scoreScale            = 5.0
	minVisibleText        = 18
	hintBoost             = 0.5
	nudgeBoost            = 0.08
	placeholderBoost      = 0.2
	overrideConfidence    = 0.5
)

// Result is a finished classification. Segment "unknown" always pairs
// with a reason code in the trace unless a hint override replaced it.
type Result struct {
	Segment    segment.Segment `json:"segment"`
	Confidence float64         `json:"confidence"`
	Debug      *Trace          `json:"debug,omitempty"`
}

// Trace is the audit record of one classification: the rule that fired,
// every matched term, and every per-segment score.
type Trace struct {
	Rule           string                      `json:"rule"`
	MatchedPattern string                      `json:"matched_pattern,omitempty"`
	Scores         map[segment.Segment]float64 `json:"scores,omitempty"`
	Matches        map[segment.Segment][]string `json:"matches,omitempty"`
	Adjustments    []string                    `json:"adjustments,omitempty"`
	Reason         segment.ReasonCode          `json:"reason,omitempty"`

	// Hint override bookkeeping.
	HintApplied      bool               `json:"hint_applied,omitempty"`
	SuppressedReason segment.ReasonCode `json:"suppressed_reason,omitempty"`
}

// Options tunes a single classification call.
type Options struct {
	// Hint is a caller-supplied segment (for example a persisted human
	// override). It takes precedence over the structured-payload hint.
	Hint segment.Segment

	// Debug attaches the full trace to the result.
	Debug bool
}

// Classify runs the ordered rule cascade over extracted features. It is
// total and deterministic: identical input always produces an identical
// result, and no input can make it fail.
func Classify(f features.Features, opts Options) Result {
	trace := &Trace{}

	hint := opts.Hint
	if !segment.IsKnown(hint) {
		hint = f.StructuredHint
	}

	title := stripBrand(f.TitleText, f.BrandTerms)
	body := stripBrand(f.BodyText+" "+strings.Join(f.Headings, " "), f.BrandTerms)

	// 1. Hard title match.
	if title != "" {
		for _, rule := range titleRules {
			if rule.pattern.MatchString(title) {
				trace.Rule = RuleTitleMatch
				trace.MatchedPattern = rule.pattern.String()
				return finish(rule.seg, titleMatchConfidence, trace, opts)
			}
		}
	}

	// 2. Title-intent match.
	if title != "" && titleIntentRe.MatchString(title) {
		trace.Rule = RuleTitleIntent
		switch {
		case painBodyRe.MatchString(body):
			trace.MatchedPattern = painBodyRe.String()
			return finish(segment.Problem, titleIntentConfidence, trace, opts)
		case benefitBodyRe.MatchString(body):
			trace.MatchedPattern = benefitBodyRe.String()
			return finish(segment.Solution, titleIntentConfidence, trace, opts)
		case funcVerbRe.MatchString(body):
			trace.MatchedPattern = funcVerbRe.String()
			return finish(segment.Solution, titleIntentConfidence, trace, opts)
		default:
			return finish(segment.Problem, titleIntentConfidence, trace, opts)
		}
	}

	// 3. Table routing.
	if f.HasTable {
		trace.Rule = RuleTableRoute
		return finish(segment.Financials, tableRouteConfidence, trace, opts)
	}

	// 4. Weighted keyword scoring.
	if len(strings.TrimSpace(body))+len(strings.TrimSpace(f.EvidenceText)) < minVisibleText && title == "" {
		trace.Rule = RuleNoText
		trace.Reason = segment.ReasonNoText
		return unknown(trace, hint, opts)
	}

	trace.Rule = RuleKeywords
	scores := make(map[segment.Segment]float64, len(keywordRules))
	matches := make(map[segment.Segment][]string)

	for seg, terms := range keywordRules {
		raw := 0.0
		for _, t := range terms {
			if t.pattern.MatchString(body) {
				raw += t.weight
				matches[seg] = append(matches[seg], t.name)
			}
			// Evidence hits count flat, independent of term weight.
			if f.EvidenceText != "" && t.pattern.MatchString(f.EvidenceText) {
				raw += 1.0
				matches[seg] = append(matches[seg], t.name+":evidence")
			}
		}
		if seg == segment.Financials && f.HasTable {
			// Rule 3 fires first in practice; kept for safety.
			raw += 1.0
			trace.Adjustments = append(trace.Adjustments, "financials_table_bonus")
		}
		scores[seg] = clamp01(raw / scoreScale)
	}

	// Product-vs-solution nudge: whichever side has the clearly larger
	// feature/benefit vocabulary lead gets a small bump.
	featHits := len(featureVocabRe.FindAllString(body, -1))
	benHits := len(benefitVocabRe.FindAllString(body, -1))
	switch {
	case featHits-benHits > 1:
		scores[segment.Product] += nudgeBoost
		trace.Adjustments = append(trace.Adjustments, "product_feature_lead")
	case benHits-featHits > 1:
		scores[segment.Solution] += nudgeBoost
		trace.Adjustments = append(trace.Adjustments, "solution_benefit_lead")
	}

	if segment.IsKnown(hint) {
		scores[hint] += hintBoost
		trace.Adjustments = append(trace.Adjustments, "hint_boost:"+string(hint))
	}

	if productPlaceholderRe.MatchString(body) && (isOfficeKind(f.DocKind) || segment.IsKnown(hint)) {
		scores[segment.Product] += placeholderBoost
		trace.Adjustments = append(trace.Adjustments, "product_placeholder")
	}

	ranked := rank(scores)
	trace.Scores = scores
	trace.Matches = matches

	top := ranked[0]
	if len(ranked) > 1 {
		second := ranked[1]
		if scores[top] >= scoreThreshold && scores[second] >= scoreThreshold &&
			scores[top]-scores[second] <= tieWindow {
			trace.Reason = segment.ReasonAmbiguousTie
			return unknown(trace, hint, opts)
		}
	}
	if scores[top] < scoreThreshold {
		trace.Reason = segment.ReasonLowSignal
		return unknown(trace, hint, opts)
	}
	// Boosts can push a score past 1; confidence never exceeds it.
	return finish(top, clamp01(scores[top]), trace, opts)
}

// rank orders segments by score descending with a stable, deterministic
// name tiebreak so that identical inputs always rank identically.
func rank(scores map[segment.Segment]float64) []segment.Segment {
	out := make([]segment.Segment, 0, len(scores))
	for seg := range scores {
		out = append(out, seg)
	}
	sort.Slice(out, func(i, j int) bool {
		if scores[out[i]] != scores[out[j]] {
			return scores[out[i]] > scores[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

func finish(seg segment.Segment, conf float64, trace *Trace, opts Options) Result {
	r := Result{Segment: seg, Confidence: conf}
	if opts.Debug {
		r.Debug = trace
	}
	return r
}

// unknown resolves a would-be unknown result. A trustworthy hint always
// wins over unknown: the hint segment is returned instead and the
// suppressed reason code is kept in the trace.
func unknown(trace *Trace, hint segment.Segment, opts Options) Result {
	if segment.IsKnown(hint) {
		trace.HintApplied = true
		trace.SuppressedReason = trace.Reason
		trace.Reason = ""
		return finish(hint, overrideConfidence, trace, opts)
	}
	return finish(segment.Unknown, 0, trace, opts)
}

func isOfficeKind(k features.DocKind) bool {
	return k == features.KindPPTX || k == features.KindDOCX || k == features.KindXLSX
}

var brandStripWS = regexp.MustCompile(`\s+`)

// stripBrand removes brand terms (company name, blacklist phrases) from
// text so recurring branding never feeds title or keyword matches.
// Matching is case-insensitive on the original string; lowering a copy
// and splicing by byte offset would garble runes whose byte length
// changes under case folding.
func stripBrand(text string, brandTerms []string) string {
	text = strings.TrimSpace(text)
	if text == "" || len(brandTerms) == 0 {
		return text
	}
	for _, term := range brandTerms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(term))
		text = re.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(brandStripWS.ReplaceAllString(text, " "))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
