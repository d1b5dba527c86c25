package exam

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

type memoryStore struct {
	mu    sync.RWMutex
	keys  map[string]AnswerKey
	evals map[string]Evaluation
}

func NewInMemoryStore() Store {
	return &memoryStore{
		keys:  map[string]AnswerKey{},
		evals: map[string]Evaluation{},
	}
}

func (m *memoryStore) PutKey(_ context.Context, k AnswerKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[k.ID]; ok {
		return errors.Wrapf(ErrConflict, "answer key %s", k.ID)
	}
	m.keys[k.ID] = k
	return nil
}

func (m *memoryStore) GetKey(_ context.Context, id string) (AnswerKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	k, ok := m.keys[id]
	if !ok {
		return AnswerKey{}, errors.Wrapf(ErrNotFound, "answer key %s", id)
	}
	return k, nil
}

func (m *memoryStore) ListKeys(_ context.Context, opts ListOpts) ([]AnswerKey, error) {
	m.mu.RLock()
	q := strings.ToLower(strings.TrimSpace(opts.Q))
	out := make([]AnswerKey, 0, len(m.keys))
	for _, k := range m.keys {
		if q != "" && !strings.Contains(strings.ToLower(k.Title), q) {
			continue
		}
		out = append(out, k)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return page(out, opts.Limit, opts.Offset), nil
}

func (m *memoryStore) SaveEvaluation(_ context.Context, ev Evaluation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[ev.KeyID]; !ok {
		return errors.Wrapf(ErrNotFound, "answer key %s", ev.KeyID)
	}
	m.evals[ev.ID] = ev
	return nil
}

func (m *memoryStore) GetEvaluation(_ context.Context, id string) (Evaluation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ev, ok := m.evals[id]
	if !ok {
		return Evaluation{}, errors.Wrapf(ErrNotFound, "evaluation %s", id)
	}
	return ev, nil
}

func (m *memoryStore) ListEvaluations(_ context.Context, opts EvaluationListOpts) ([]Evaluation, error) {
	m.mu.RLock()
	out := make([]Evaluation, 0, len(m.evals))
	for _, ev := range m.evals {
		if opts.KeyID != "" && ev.KeyID != opts.KeyID {
			continue
		}
		if opts.RollNumber != "" && ev.RollNumber != opts.RollNumber {
			continue
		}
		out = append(out, ev)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return page(out, opts.Limit, opts.Offset), nil
}

func page[T any](items []T, limit, offset int) []T {
	limit = clampLimit(limit)
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
