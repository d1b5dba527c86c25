package exam

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

type ListOpts struct {
	Q      string // case-insensitive title filter
	Limit  int
	Offset int
}

type EvaluationListOpts struct {
	KeyID      string // filter by answer key
	RollNumber string // filter by student
	Limit      int
	Offset     int
}

// Store persists answer keys and evaluations. Lookups of unknown IDs return
// an error wrapping ErrNotFound. Keys are immutable once stored: PutKey with
// an existing ID returns an error wrapping ErrConflict.
type Store interface {
	PutKey(ctx context.Context, k AnswerKey) error
	GetKey(ctx context.Context, id string) (AnswerKey, error)
	ListKeys(ctx context.Context, opts ListOpts) ([]AnswerKey, error) // newest first

	SaveEvaluation(ctx context.Context, ev Evaluation) error
	GetEvaluation(ctx context.Context, id string) (Evaluation, error)
	ListEvaluations(ctx context.Context, opts EvaluationListOpts) ([]Evaluation, error) // newest first
}

func clampLimit(n int) int {
	if n <= 0 || n > 200 {
		return 50
	}
	return n
}
