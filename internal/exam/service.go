package exam

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-sheetgrader/internal/grading"
	syncx "github.com/mind-engage/mindengage-sheetgrader/internal/sync"
)

// Service ties the evaluator to persistence and the event log.
type Service struct {
	store     Store
	events    syncx.Log // optional
	evaluator *grading.Evaluator
	now       func() time.Time
}

func NewService(store Store, events syncx.Log, ev *grading.Evaluator) *Service {
	if ev == nil {
		ev = grading.NewEvaluator()
	}
	return &Service{store: store, events: events, evaluator: ev, now: time.Now}
}

func (s *Service) Store() Store                  { return s.store }
func (s *Service) Evaluator() *grading.Evaluator { return s.evaluator }

// StoreKey validates k, assigns an ID when it has none and persists it.
// A key whose ID is already taken is rejected with ErrConflict.
func (s *Service) StoreKey(ctx context.Context, k AnswerKey) (AnswerKey, error) {
	if len(k.Questions) == 0 {
		return AnswerKey{}, fmt.Errorf("%w: answer key has no questions", grading.ErrInvalidInput)
	}
	if err := grading.ValidateKey(k.Questions); err != nil {
		return AnswerKey{}, err
	}
	k.ID = strings.TrimSpace(k.ID)
	if k.ID == "" {
		k.ID = uuid.NewString()
	}
	if k.CreatedAt == 0 {
		k.CreatedAt = s.now().Unix()
	}
	if err := s.store.PutKey(ctx, k); err != nil {
		return AnswerKey{}, err
	}
	s.emit(ctx, syncx.TypeKeyStored, k.ID, k.Summary(s.evaluator))
	return k, nil
}

// Grade evaluates sheet against the stored key and persists the evaluation.
// scanKey is the blob key of the uploaded image, empty for JSON submissions.
func (s *Service) Grade(ctx context.Context, keyID string, sheet StudentSheet, scanKey string) (Evaluation, error) {
	k, err := s.store.GetKey(ctx, keyID)
	if err != nil {
		return Evaluation{}, err
	}
	res, err := s.evaluator.Evaluate(k.Questions, sheet.Answers)
	if err != nil {
		return Evaluation{}, err
	}
	ev := Evaluation{
		ID:         uuid.NewString(),
		KeyID:      k.ID,
		RollNumber: strings.TrimSpace(sheet.RollNumber),
		Section:    strings.TrimSpace(sheet.Section),
		Score:      res.Total,
		MaxScore:   res.MaxTotal,
		Result:     res,
		ScanKey:    scanKey,
		CreatedAt:  s.now().Unix(),
	}
	if err := s.store.SaveEvaluation(ctx, ev); err != nil {
		return Evaluation{}, err
	}
	log.Printf("graded sheet key=%s roll=%q total=%g/%g", k.ID, ev.RollNumber, ev.Score, ev.MaxScore)
	s.emit(ctx, syncx.TypeSheetEvaluated, ev.ID, map[string]any{
		"key_id":      ev.KeyID,
		"roll_number": ev.RollNumber,
		"score":       ev.Score,
		"max_score":   ev.MaxScore,
	})
	return ev, nil
}

// Preview grades without touching the store.
func (s *Service) Preview(k AnswerKey, sheet StudentSheet) (grading.SheetResult, error) {
	return s.evaluator.Evaluate(k.Questions, sheet.Answers)
}

// emit appends to the event log; failures are logged and never fail the request.
func (s *Service) emit(ctx context.Context, typ, key string, data any) {
	if s.events == nil {
		return
	}
	e, err := syncx.NewEvent(typ, key, data)
	if err == nil {
		err = s.events.Append(ctx, e)
	}
	if err != nil {
		log.Printf("event %s %s: %v", typ, key, err)
	}
}
