package grading

import (
	"fmt"
	"strings"
)

// Result is the outcome of scoring a single question.
type Result struct {
	MarksAwarded       float64  `json:"marks_awarded"`
	MaxMarks           float64  `json:"max_marks"`
	IsFullyCorrect     bool     `json:"is_fully_correct"`
	IsPartiallyCorrect bool     `json:"is_partially_correct"`
	HasWrongOptions    bool     `json:"has_wrong_options"`
	Explanation        string   `json:"explanation"`
	MarkingMode        Mode     `json:"marking_mode"`
	Selected           []string `json:"selected,omitempty"`
	Correct            []string `json:"correct,omitempty"`
	Wrong              []string `json:"wrong,omitempty"`
	Missing            []string `json:"missing,omitempty"`
}

// Engine options

type Option func(*config)

type config struct {
	DefaultMarks        float64 // marks for an empty or unreadable annotation
	LenientSingleAnswer bool    // half credit on single-answer questions despite a wrong pick
}

// WithDefaultMarks overrides DefaultMarks for the parser used by an Evaluator.
func WithDefaultMarks(v float64) Option { return func(c *config) { c.DefaultMarks = v } }

// WithLenientSingleAnswer enables half credit on a question with exactly one
// correct option when that option was picked together with wrong ones.
func WithLenientSingleAnswer(b bool) Option { return func(c *config) { c.LenientSingleAnswer = b } }

func newConfig(opts []Option) *config {
	cfg := &config{DefaultMarks: DefaultMarks}
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

// Scorer applies the marking policy to one question.
type Scorer struct {
	lenientSingle bool
}

func NewScorer(opts ...Option) *Scorer {
	cfg := newConfig(opts)
	return &Scorer{lenientSingle: cfg.LenientSingleAnswer}
}

var defaultScorer = NewScorer()

// Score scores student against correct with the strict-penalty policy.
func Score(student, correct []string, scheme Scheme) Result {
	return defaultScorer.Score(student, correct, scheme)
}

// Score classifies the selection against the correct options. Both slices hold
// canonical options; duplicates are ignored. Selecting any option outside
// correct forfeits the question in both modes.
func (s *Scorer) Score(student, correct []string, scheme Scheme) Result {
	studentSet, correctSet := toSet(student), toSet(correct)
	res := Result{
		MarkingMode: scheme.Mode,
		Selected:    sortedKeys(studentSet),
		Correct:     sortedKeys(correctSet),
	}
	if res.MarkingMode == "" {
		res.MarkingMode = ModeEqual
	}
	res.MaxMarks = scheme.MaxMarks(res.Correct)

	if len(studentSet) == 0 {
		res.Explanation = "No options selected"
		return res
	}
	if len(correctSet) == 0 {
		res.HasWrongOptions = true
		res.Explanation = "No correct options defined"
		return res
	}

	wrong, hit := map[string]struct{}{}, map[string]struct{}{}
	for o := range studentSet {
		if _, ok := correctSet[o]; ok {
			hit[o] = struct{}{}
		} else {
			wrong[o] = struct{}{}
		}
	}
	missing := map[string]struct{}{}
	for o := range correctSet {
		if _, ok := studentSet[o]; !ok {
			missing[o] = struct{}{}
		}
	}
	res.Wrong = sortedKeys(wrong)
	res.Missing = sortedKeys(missing)

	if len(wrong) > 0 {
		res.HasWrongOptions = true
		if s.lenientSingle && len(correctSet) == 1 && len(hit) == 1 {
			res.MarksAwarded = round2(res.MaxMarks * 0.5)
			res.IsPartiallyCorrect = true
			res.Explanation = fmt.Sprintf("Single-answer question: %s correct but wrong option(s) %s also selected. Half credit: %s of %s",
				strings.Join(res.Correct, ", "), strings.Join(res.Wrong, ", "),
				formatMarks(res.MarksAwarded), formatMarks(res.MaxMarks))
			return res
		}
		res.Explanation = fmt.Sprintf("Selected wrong option(s): %s. Strict penalty: zero marks awarded",
			strings.Join(res.Wrong, ", "))
		return res
	}

	full := setEqual(studentSet, correctSet)
	res.IsFullyCorrect = full
	res.IsPartiallyCorrect = !full

	if scheme.Mode == ModeWeightage {
		res.MarksAwarded = weightSum(scheme, res.Selected)
		if full {
			res.Explanation = fmt.Sprintf("All correct options selected. Weightage total: %s (%s)",
				formatMarks(res.MarksAwarded), weightTerms(scheme, res.Selected))
		} else {
			res.Explanation = fmt.Sprintf("Partial weightage: %s (%s). Missing: %s",
				formatMarks(res.MarksAwarded), weightTerms(scheme, res.Selected), weightTerms(scheme, res.Missing))
		}
		return res
	}

	if full {
		res.MarksAwarded = scheme.TotalMarks
		res.Explanation = fmt.Sprintf("All correct options selected (%s). Full marks: %s",
			strings.Join(res.Selected, ", "), formatMarks(scheme.TotalMarks))
		return res
	}
	res.MarksAwarded = round2(scheme.TotalMarks * float64(len(hit)) / float64(len(correctSet)))
	res.Explanation = fmt.Sprintf("Partial marks: %d/%d correct x %s = %s (%s selected). Missing: %s",
		len(hit), len(correctSet), formatMarks(scheme.TotalMarks), formatMarks(res.MarksAwarded),
		strings.Join(res.Selected, ", "), strings.Join(res.Missing, ", "))
	return res
}

func weightSum(scheme Scheme, options []string) float64 {
	sum := 0.0
	for _, o := range options {
		sum += scheme.Weight(o)
	}
	return sum
}

// weightTerms renders "D=3 + E=1" in option order.
func weightTerms(scheme Scheme, options []string) string {
	terms := make([]string, len(options))
	for i, o := range options {
		terms[i] = o + "=" + formatMarks(scheme.Weight(o))
	}
	return strings.Join(terms, " + ")
}
