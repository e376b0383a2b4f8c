package memory

import (
	"context"
	"sync"

	"quizmaster-service/internal/domain"
)

// HistoryStore is an in-memory implementation of app.HistoryStore.
type HistoryStore struct {
	mu      sync.RWMutex
	results []domain.Result
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{}
}

func (s *HistoryStore) Save(_ context.Context, result domain.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

// List returns results newest first, up to limit (<=0 means all).
func (s *HistoryStore) List(_ context.Context, limit int) ([]domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.results)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]domain.Result, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.results[i])
	}
	return out, nil
}
