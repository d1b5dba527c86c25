package exam

import "github.com/mind-engage/mindengage-sheetgrader/internal/grading"

// AnswerKey is a teacher's key: the correct options and marks annotation of
// every question on the paper.
type AnswerKey struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Questions []grading.KeyItem `json:"questions"`
	CreatedAt int64             `json:"created_at,omitempty"`
}

// StudentSheet is what a student marked. RollNumber and Section are carried
// through to the evaluation untouched.
type StudentSheet struct {
	RollNumber string             `json:"roll_number,omitempty"`
	Section    string             `json:"section,omitempty"`
	Answers    []grading.Response `json:"answers"`
}

// Evaluation is a graded sheet as persisted.
type Evaluation struct {
	ID         string              `json:"id"`
	KeyID      string              `json:"key_id"`
	RollNumber string              `json:"roll_number,omitempty"`
	Section    string              `json:"section,omitempty"`
	Score      float64             `json:"score"`
	MaxScore   float64             `json:"max_score"`
	Result     grading.SheetResult `json:"result"`
	ScanKey    string              `json:"scan_key,omitempty"` // blob key of the uploaded scan, if any
	CreatedAt  int64               `json:"created_at"`
}

type KeySummary struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Questions int     `json:"questions"`
	MaxScore  float64 `json:"max_score"`
	CreatedAt int64   `json:"created_at"`
}

// Summary reports the key's size and the score of a perfect sheet under ev.
func (k AnswerKey) Summary(ev *grading.Evaluator) KeySummary {
	sum := KeySummary{ID: k.ID, Title: k.Title, Questions: len(k.Questions), CreatedAt: k.CreatedAt}
	if res, err := ev.Evaluate(k.Questions, nil); err == nil {
		sum.MaxScore = res.MaxTotal
	}
	return sum
}
