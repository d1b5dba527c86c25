package grading

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidInput reports structurally invalid key or response records.
var ErrInvalidInput = errors.New("invalid input")

// KeyItem is one question of the answer key.
type KeyItem struct {
	QuestionNumber int      `json:"question_number"`
	CorrectOptions []string `json:"correct_options"`
	MarksText      string   `json:"marks_text,omitempty"`
	// Marks is used as an equal-mode total when MarksText is blank.
	Marks *float64 `json:"marks,omitempty"`
}

// Response is a student's selection for one question.
type Response struct {
	QuestionNumber  int      `json:"question_number"`
	SelectedOptions []string `json:"selected_options"`
}

// SheetResult aggregates the scored questions of one sheet.
type SheetResult struct {
	PerQuestion map[int]float64 `json:"per_question"`
	Details     map[int]Result  `json:"details"`
	Total       float64         `json:"total"`
	MaxTotal    float64         `json:"max_total"`
	Questions   int             `json:"questions"`
	Attempted   int             `json:"attempted"`
	Order       []int           `json:"order"`
}

// Percentage is Total over MaxTotal in percent, 0 for an empty key.
func (r SheetResult) Percentage() float64 {
	if r.MaxTotal == 0 {
		return 0
	}
	return r.Total / r.MaxTotal * 100
}

// Evaluator grades whole sheets. It is immutable and safe for concurrent use.
type Evaluator struct {
	parser *Parser
	scorer *Scorer
}

func NewEvaluator(opts ...Option) *Evaluator {
	cfg := newConfig(opts)
	return &Evaluator{
		parser: NewParser(ParserConfig{DefaultMarks: cfg.DefaultMarks}),
		scorer: &Scorer{lenientSingle: cfg.LenientSingleAnswer},
	}
}

var defaultEvaluator = NewEvaluator()

// Evaluate grades responses against key with the default policy.
func Evaluate(key []KeyItem, responses []Response) (SheetResult, error) {
	return defaultEvaluator.Evaluate(key, responses)
}

// ValidateKey checks the structural constraints Evaluate enforces on a key.
func ValidateKey(items []KeyItem) error {
	for _, it := range items {
		if it.QuestionNumber <= 0 {
			return fmt.Errorf("%w: question number %d must be positive", ErrInvalidInput, it.QuestionNumber)
		}
		if it.Marks != nil && *it.Marks < 0 {
			return fmt.Errorf("%w: question %d has negative marks", ErrInvalidInput, it.QuestionNumber)
		}
	}
	return nil
}

func validateResponses(rs []Response) error {
	for _, r := range rs {
		if r.QuestionNumber <= 0 {
			return fmt.Errorf("%w: response question number %d must be positive", ErrInvalidInput, r.QuestionNumber)
		}
	}
	return nil
}

// Scheme resolves the marking scheme of a key item.
func (e *Evaluator) Scheme(it KeyItem) Scheme {
	if strings.TrimSpace(it.MarksText) == "" && it.Marks != nil {
		return Equal(*it.Marks)
	}
	return e.parser.Parse(it.MarksText)
}

// Evaluate scores every question of key. Duplicate question numbers in either
// input collapse with the last record winning. Responses to questions not in
// the key are ignored.
func (e *Evaluator) Evaluate(key []KeyItem, responses []Response) (SheetResult, error) {
	if err := ValidateKey(key); err != nil {
		return SheetResult{}, err
	}
	if err := validateResponses(responses); err != nil {
		return SheetResult{}, err
	}

	keyByQ := make(map[int]KeyItem, len(key))
	for _, it := range key {
		keyByQ[it.QuestionNumber] = it
	}
	respByQ := make(map[int]Response, len(responses))
	for _, r := range responses {
		respByQ[r.QuestionNumber] = r
	}

	out := SheetResult{
		PerQuestion: make(map[int]float64, len(keyByQ)),
		Details:     make(map[int]Result, len(keyByQ)),
		Order:       make([]int, 0, len(keyByQ)),
	}
	for q := range keyByQ {
		out.Order = append(out.Order, q)
	}
	sort.Ints(out.Order)

	for _, q := range out.Order {
		it := keyByQ[q]
		correct := NormalizeOptions(it.CorrectOptions)
		scheme := e.Scheme(it)

		var res Result
		r, answered := respByQ[q]
		if !answered {
			res = Result{
				MaxMarks:    scheme.MaxMarks(correct),
				Explanation: "Question not answered",
				MarkingMode: scheme.Mode,
				Correct:     correct,
			}
		} else {
			selected := NormalizeOptions(r.SelectedOptions)
			if len(selected) > 0 {
				out.Attempted++
			}
			res = e.scorer.Score(selected, correct, scheme)
		}

		out.PerQuestion[q] = res.MarksAwarded
		out.Details[q] = res
		out.Total += res.MarksAwarded
		out.MaxTotal += res.MaxMarks
	}
	out.Total = round2(out.Total)
	out.MaxTotal = round2(out.MaxTotal)
	out.Questions = len(out.Order)
	return out, nil
}
