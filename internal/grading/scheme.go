package grading

import (
	"regexp"
	"strings"
)

// Mode tells how a question's marks are distributed over its options.
type Mode string

const (
	ModeEqual     Mode = "equal"     // one total, shared equally by the correct options
	ModeWeightage Mode = "weightage" // every option carries its own mark
)

// DefaultMarks is the total used when a marks annotation is missing or unreadable.
const DefaultMarks = 1.0

// Scheme is a parsed marking scheme.
type Scheme struct {
	Mode       Mode               `json:"mode"`
	TotalMarks float64            `json:"total_marks,omitempty"`
	Weights    map[string]float64 `json:"weights,omitempty"`
}

// Equal returns an equal-credit scheme worth total marks.
func Equal(total float64) Scheme {
	if total < 0 {
		total = 0
	}
	return Scheme{Mode: ModeEqual, TotalMarks: total}
}

// Weightage returns a per-option scheme. Keys must be canonical options.
func Weightage(weights map[string]float64) Scheme {
	w := make(map[string]float64, len(weights))
	for k, v := range weights {
		if v < 0 {
			v = 0
		}
		w[k] = v
	}
	return Scheme{Mode: ModeWeightage, Weights: w}
}

// Weight is the mark carried by option; options without a weight are worth 0.
func (s Scheme) Weight(option string) float64 { return s.Weights[option] }

// MaxMarks is what a fully correct answer earns given the correct options.
func (s Scheme) MaxMarks(correct []string) float64 {
	if s.Mode != ModeWeightage {
		return s.TotalMarks
	}
	sum := 0.0
	for o := range toSet(correct) {
		sum += s.Weight(o)
	}
	return sum
}

// ParserConfig carries the parser's fallbacks.
type ParserConfig struct {
	DefaultMarks float64
}

func DefaultParserConfig() ParserConfig {
	return ParserConfig{DefaultMarks: DefaultMarks}
}

// Parser turns free-text marks annotations into schemes. It holds no mutable
// state and may be shared between goroutines.
type Parser struct {
	cfg ParserConfig
}

func NewParser(cfg ParserConfig) *Parser {
	if cfg.DefaultMarks < 0 {
		cfg.DefaultMarks = DefaultMarks
	}
	return &Parser{cfg: cfg}
}

var defaultParser = NewParser(DefaultParserConfig())

// ParseScheme parses text with the default configuration.
func ParseScheme(text string) Scheme { return defaultParser.Parse(text) }

var marksPrefix = regexp.MustCompile(`^(?:marks?|points?|score)[:=\-\s]*`)

// Parse classifies text as a weightage scheme when at least one option/value
// pair is found, otherwise as an equal scheme. It never fails: text that
// matches nothing yields the configured default.
func (p *Parser) Parse(text string) Scheme {
	text = strings.TrimSpace(strings.ToLower(text))
	text = strings.TrimSpace(marksPrefix.ReplaceAllString(text, ""))
	if text == "" {
		return Equal(p.cfg.DefaultMarks)
	}
	if w := parseWeights(text); len(w) > 0 {
		return Weightage(w)
	}
	if v, ok := parseTotal(text); ok {
		return Equal(v)
	}
	return Equal(p.cfg.DefaultMarks)
}

// --- weightage ---

const (
	optTok = `([\p{L}\d]+)`
	numTok = `(\d+(?:\.\d+)?)`
)

type pairMatcher struct {
	name string
	re   *regexp.Regexp
	// valueFirst marks patterns that capture the value before the option.
	valueFirst bool
}

// pairMatchers are tried in this order; see parseWeights for duplicates.
var pairMatchers = []pairMatcher{
	{name: "equals", re: regexp.MustCompile(optTok + `\s*=\s*` + numTok)},
	{name: "colon", re: regexp.MustCompile(optTok + `\s*:\s*` + numTok)},
	{name: "dash", re: regexp.MustCompile(optTok + `\s*-\s*` + numTok)},
	{name: "paren", re: regexp.MustCompile(optTok + `\s*\(\s*` + numTok + `\s*\)`)},
	{name: "bracket", re: regexp.MustCompile(optTok + `\s*\[\s*` + numTok + `\s*\]`)},
	{name: "option-word", re: regexp.MustCompile(`(?:option|choice)\s+` + optTok + `\s*[=:]\s*` + numTok)},
	{name: "verb", re: regexp.MustCompile(optTok + `\s+(?:gets?|is)\s+` + numTok)},
	{name: "space", re: regexp.MustCompile(optTok + `\s+` + numTok)},
	{name: "for-give", re: regexp.MustCompile(`(?:for|give|gets?)\s+` + optTok + `\s+(?:give|gets?|is)?\s*` + numTok)},
	{name: "value-for", re: regexp.MustCompile(numTok + `\s*(?:marks?|points?|pts?)?\s+(?:for|to)\s+` + optTok), valueFirst: true},
}

// schemeWords never name an option.
var schemeWords = map[string]bool{
	"mark": true, "marks": true, "point": true, "points": true, "pt": true, "pts": true,
	"total": true, "max": true, "maximum": true, "worth": true, "value": true,
	"for": true, "give": true, "get": true, "gets": true, "is": true, "to": true,
	"each": true, "option": true, "choice": true, "and": true, "score": true,
}

// PairMatchers returns the weightage matcher names in priority order.
func PairMatchers() []string {
	out := make([]string, len(pairMatchers))
	for i, m := range pairMatchers {
		out[i] = m.name
	}
	return out
}

// parseWeights collects option=value pairs. The first value seen for a
// canonical option wins: matchers run in priority order, each left to right.
func parseWeights(text string) map[string]float64 {
	weights := map[string]float64{}
	for _, m := range pairMatchers {
		for _, g := range m.re.FindAllStringSubmatch(text, -1) {
			opt, val := g[1], g[2]
			if m.valueFirst {
				opt, val = g[2], g[1]
			}
			if schemeWords[opt] {
				continue
			}
			o, ok := NormalizeOption(opt)
			if !ok {
				continue
			}
			v, ok := parseMarks(val)
			if !ok {
				continue
			}
			if _, seen := weights[o]; !seen {
				weights[o] = v
			}
		}
	}
	return weights
}

// --- equal ---

type totalMatcher struct {
	name string
	re   *regexp.Regexp
}

var totalMatchers = []totalMatcher{
	{name: "unit", re: regexp.MustCompile(numTok + `\s*(?:marks?|points?|pts?)\b`)},
	{name: "total", re: regexp.MustCompile(`(?:total|maximum|max)\s*[:=]?\s*` + numTok)},
	{name: "worth", re: regexp.MustCompile(`(?:worth|value)\s*[:=]?\s*` + numTok)},
	{name: "bare", re: regexp.MustCompile(`^` + numTok + `$`)},
	{name: "trailing", re: regexp.MustCompile(numTok + `\s*$`)},
}

// TotalMatchers returns the equal-mode matcher names in priority order.
func TotalMatchers() []string {
	out := make([]string, len(totalMatchers))
	for i, m := range totalMatchers {
		out[i] = m.name
	}
	return out
}

func parseTotal(text string) (float64, bool) {
	for _, m := range totalMatchers {
		g := m.re.FindStringSubmatch(text)
		if g == nil {
			continue
		}
		if v, ok := parseMarks(g[1]); ok {
			return v, true
		}
	}
	return 0, false
}
