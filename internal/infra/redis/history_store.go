package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quizmaster-service/internal/domain"
)

const (
	historyKey = "quiz:results"
	// historyCap bounds the list so an immortal process cannot grow it
	// without limit.
	historyCap = 100
)

// HistoryStore keeps completed results in a capped Redis list, newest first.
type HistoryStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewHistoryStore(client *redis.Client, ttl time.Duration) *HistoryStore {
	return &HistoryStore{client: client, ttl: ttl}
}

func (s *HistoryStore) Save(ctx context.Context, result domain.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	pipe := s.client.Pipeline()
	pipe.LPush(ctx, historyKey, data)
	pipe.LTrim(ctx, historyKey, 0, historyCap-1)
	if s.ttl > 0 {
		pipe.Expire(ctx, historyKey, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

// List returns up to limit results, newest first (<=0 means all retained).
func (s *HistoryStore) List(ctx context.Context, limit int) ([]domain.Result, error) {
	end := int64(limit - 1)
	if limit <= 0 {
		end = -1
	}
	raw, err := s.client.LRange(ctx, historyKey, 0, end).Result()
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	results := make([]domain.Result, 0, len(raw))
	for _, item := range raw {
		var result domain.Result
		if err := json.Unmarshal([]byte(item), &result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
		results = append(results, result)
	}
	return results, nil
}
