package classify

import (
	"regexp"

	"github.com/dgallion1/deckseg/internal/segment"
)

// titleRule maps a title pattern to a segment. Rules are evaluated in
// slice order and the first match wins, so overlapping terms are
// disambiguated by position ("market problem" is tested before the bare
// "market" pattern ever gets a chance).
type titleRule struct {
	pattern *regexp.Regexp
	seg     segment.Segment
}

func tr(expr string, seg segment.Segment) titleRule {
	return titleRule{pattern: regexp.MustCompile(`(?i)\b(` + expr + `)\b`), seg: seg}
}

// titleRules is an ordered dictionary. Do not reorder: position is a
// load-bearing invariant of the classifier.
var titleRules = []titleRule{
	tr(`market\s+problem|problem\s+statement`, segment.Problem),
	tr(`business\s+model|revenue\s+model|how\s+we\s+make\s+money|monetization|pricing\s+model`, segment.BusinessModel),
	tr(`problems?|pain\s+points?`, segment.Problem),
	tr(`solutions?|our\s+approach|how\s+we\s+solve\s+it`, segment.Solution),
	tr(`products?|platform|technology|how\s+it\s+works|demo|roadmap`, segment.Product),
	tr(`traction|milestones|key\s+metrics|growth\s+to\s+date|progress`, segment.Traction),
	tr(`go[\s-]?to[\s-]?market|gtm|distribution|channels?|sales\s+strategy|marketing\s+plan|customer\s+acquisition`, segment.Distribution),
	tr(`market\s+size|market\s+opportunity|tam|total\s+addressable\s+market|markets?`, segment.Market),
	tr(`teams?|founders?|advisors?|leadership|management|who\s+we\s+are`, segment.Team),
	tr(`competition|competitive\s+landscape|competitors?|alternatives`, segment.Competition),
	tr(`risks?|risk\s+factors|challenges`, segment.Risks),
	tr(`financials?|financial\s+projections|projections|unit\s+economics|p\s*&\s*l|income\s+statement|revenue\s+forecast`, segment.Financials),
	tr(`the\s+ask|raise|raising|funding|use\s+of\s+funds|investment\s+opportunity|round|term\s+sheet`, segment.RaiseTerms),
	tr(`exit\s+strategy|exit|acquisition\s+strategy|liquidity\s+event`, segment.Exit),
	tr(`overview|agenda|executive\s+summary|company\s+overview|about\s+us|vision|mission|introduction|elevator\s+pitch|summary`, segment.Overview),
}

// Intent titles ("why this matters") say nothing on their own; the body
// decides whether the slide sells the pain or the cure.
var (
	titleIntentRe = regexp.MustCompile(`(?i)\b(why\s+(this|it)\s+matters|value|impact)\b`)
	painBodyRe    = regexp.MustCompile(`(?i)\b(pain|problems?|struggl\w*|frustrat\w*|broken|fail\w*|wast\w*|inefficien\w*|costly|slow|manual)\b`)
	benefitBodyRe = regexp.MustCompile(`(?i)\b(benefit\w*|improv\w*|sav\w*|faster|streamlin\w*|enable\w*|boost\w*|automat\w*|simplif\w*|deliver\w*)\b`)
	funcVerbRe    = regexp.MustCompile(`(?i)\b(we\s+(built|provide|offer|deliver)|our\s+(product|platform|solution)\s+(does|lets|allows))\b`)
)

// term is one weighted keyword for a segment.
type term struct {
	name    string
	pattern *regexp.Regexp
	weight  float64
}

func kw(name, expr string, weight float64) term {
	return term{name: name, pattern: regexp.MustCompile(`(?i)\b(` + expr + `)\b`), weight: weight}
}

// keywordRules are the weighted vocabularies for the 13 scorable
// segments. Overview and unknown are never assigned by scoring.
var keywordRules = map[segment.Segment][]term{
	segment.Problem: {
		kw("pain", `pain(\s+points?)?`, 1.5),
		kw("problem", `problems?`, 1.5),
		kw("struggle", `struggl\w*`, 1),
		kw("frustration", `frustrat\w*`, 1),
		kw("inefficient", `inefficien\w*`, 1),
		kw("broken", `broken`, 1),
		kw("manual", `manual(ly)?`, 1),
		kw("time_consuming", `time[\s-]consuming`, 1),
		kw("costly", `costly|expensive`, 1),
		kw("fragmented", `fragmented|siloed`, 1),
		kw("underserved", `underserved|overlooked`, 1),
	},
	segment.Solution: {
		kw("solution", `solutions?`, 1.5),
		kw("solve", `solves?|solving`, 1.5),
		kw("eliminate", `eliminat\w*`, 1),
		kw("simplify", `simplif\w*`, 1),
		kw("streamline", `streamlin\w*`, 1),
		kw("enable", `enabl\w*`, 1),
		kw("reduce", `reduc\w*`, 1),
		kw("automate", `automat\w*`, 1),
		kw("seamless", `seamless(ly)?`, 1),
		kw("approach", `our\s+approach`, 1),
	},
	segment.Product: {
		kw("product", `products?`, 1.5),
		kw("platform", `platform`, 1.5),
		kw("feature", `features?`, 1),
		kw("dashboard", `dashboards?`, 1),
		kw("api", `apis?`, 1),
		kw("integration", `integrations?`, 1),
		kw("app", `apps?|application`, 1),
		kw("architecture", `architecture`, 1),
		kw("workflow", `workflows?`, 1),
		kw("interface", `interface`, 1),
		kw("roadmap", `roadmap`, 1),
	},
	segment.Market: {
		kw("market", `markets?`, 1.5),
		kw("tam", `tam`, 2),
		kw("sam", `sam`, 2),
		kw("som", `som`, 2),
		kw("addressable", `addressable`, 1.5),
		kw("billion", `billions?|\$\d+(\.\d+)?\s*b`, 1),
		kw("industry", `industry`, 1),
		kw("cagr", `cagr`, 1.5),
		kw("opportunity", `opportunity`, 1),
		kw("growing", `growing|fast[\s-]growing`, 1),
	},
	segment.Traction: {
		kw("traction", `traction`, 2),
		kw("arr", `arr`, 1),
		kw("mrr", `mrr`, 1),
		kw("customers", `customers?`, 1.5),
		kw("users", `(active\s+)?users?`, 1),
		kw("retention", `retention`, 1),
		kw("churn", `churn`, 1),
		kw("pilots", `pilots?`, 1),
		kw("waitlist", `waitlist`, 1),
		kw("growth_rate", `(mom|yoy|month[\s-]over[\s-]month|year[\s-]over[\s-]year)`, 1),
	},
	segment.BusinessModel: {
		kw("business_model", `business\s+model`, 2),
		kw("pricing", `pricing`, 1.5),
		kw("subscription", `subscriptions?`, 1.5),
		kw("saas", `saas`, 1),
		kw("license", `licens\w*`, 1),
		kw("unit_economics", `unit\s+economics`, 2),
		kw("margin", `margins?`, 1),
		kw("ltv", `ltv`, 1.5),
		kw("cac", `cac`, 1.5),
		kw("recurring", `recurring\s+revenue`, 1.5),
		kw("freemium", `freemium|take\s+rate`, 1),
	},
	segment.Distribution: {
		kw("gtm", `go[\s-]?to[\s-]?market|gtm`, 2),
		kw("channel", `channels?`, 1.5),
		kw("partnership", `partnerships?|partners?`, 1),
		kw("sales", `sales\s+(team|motion|cycle)`, 1),
		kw("distribution", `distribution`, 1.5),
		kw("marketing", `marketing`, 1),
		kw("funnel", `funnel`, 1),
		kw("outbound", `outbound|inbound`, 1),
		kw("reseller", `resellers?`, 1),
	},
	segment.Team: {
		kw("team", `teams?`, 1.5),
		kw("founder", `founders?|co[\s-]?founders?`, 2),
		kw("exec", `ceo|cto|coo|cfo`, 1),
		kw("phd", `phd`, 1),
		kw("previously", `previously|formerly|ex[\s-][a-z]+`, 1),
		kw("advisor", `advisors?`, 1),
		kw("board", `board`, 1),
		kw("experience", `years\s+of\s+experience`, 1),
	},
	segment.Competition: {
		kw("competitor", `competitors?`, 2),
		kw("competitive", `competitive`, 1.5),
		kw("versus", `versus|vs\.?`, 1),
		kw("alternative", `alternatives?`, 1),
		kw("incumbent", `incumbents?`, 1),
		kw("differentiation", `differentiat\w*`, 1),
		kw("moat", `moat`, 1.5),
		kw("landscape", `landscape`, 1),
	},
	segment.Risks: {
		kw("risk", `risks?`, 2),
		kw("regulatory", `regulatory|regulation`, 1),
		kw("compliance", `compliance`, 1),
		kw("mitigation", `mitigat\w*`, 1.5),
		kw("dependency", `dependenc\w*`, 1),
		kw("uncertainty", `uncertaint\w*`, 1),
		kw("litigation", `litigation`, 1),
		kw("barrier", `barriers?`, 1),
	},
	segment.Financials: {
		kw("revenue", `revenues?`, 1.5),
		kw("forecast", `forecasts?`, 1.5),
		kw("projection", `projections?`, 1.5),
		kw("ebitda", `ebitda`, 2),
		kw("gross_margin", `gross\s+margin`, 1.5),
		kw("pnl", `p\s*&\s*l|profit\s+and\s+loss`, 2),
		kw("cash_flow", `cash\s+flow`, 1.5),
		kw("burn", `burn\s+rate`, 1.5),
		kw("runway", `runway`, 1.5),
		kw("income", `income\s+statement`, 2),
		kw("cogs", `cogs|operating\s+expenses`, 1),
	},
	segment.RaiseTerms: {
		kw("raise", `raising|raise`, 2),
		kw("round", `(seed|series\s+[a-c]|bridge)\s+round|round`, 1.5),
		kw("valuation", `valuation`, 2),
		kw("term_sheet", `term\s+sheet`, 2),
		kw("use_of_funds", `use\s+of\s+funds`, 2),
		kw("investment", `investments?|investors?`, 1.5),
		kw("equity", `equity`, 1),
		kw("safe", `safe|convertible\s+note`, 1),
		kw("money", `pre[\s-]money|post[\s-]money`, 1.5),
	},
	segment.Exit: {
		kw("exit", `exits?`, 2),
		kw("acquisition", `acquisitions?`, 1.5),
		kw("acquirer", `acquirers?|strategic\s+buyers?`, 1.5),
		kw("ipo", `ipo`, 2),
		kw("ma", `m\s*&\s*a`, 2),
		kw("liquidity", `liquidity`, 1.5),
	},
}

// Feature-vs-benefit vocabularies for the product/solution nudge.
var (
	featureVocabRe = regexp.MustCompile(`(?i)\b(features?|dashboards?|apis?|integrations?|modules?|interface|architecture|screens?|spec(ification)?s?)\b`)
	benefitVocabRe = regexp.MustCompile(`(?i)\b(benefits?|sav(e|es|ing|ings)|faster|cheaper|improv\w*|reduc\w*|eliminat\w*|roi|outcomes?)\b`)
)

var productPlaceholderRe = regexp.MustCompile(`(?i)\bproduct\s+name\b`)
