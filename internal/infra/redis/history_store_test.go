package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quizmaster-service/internal/domain"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestHistoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewHistoryStore(newTestClient(t), time.Minute)

	first := domain.Result{
		SessionID:  "s1",
		Score:      3,
		Percentage: 75,
		Questions: []domain.QuestionResult{
			{UserAnswer: "Paris", IsCorrect: true},
			{UserAnswer: domain.NotAnswered, IsCorrect: false},
		},
	}
	second := domain.Result{SessionID: "s2", Score: 1, Percentage: 50}

	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("save: %v", err)
	}

	results, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].SessionID != "s2" {
		t.Fatalf("expected newest first, got %q", results[0].SessionID)
	}
	if results[1].Score != 3 || results[1].Percentage != 75 {
		t.Fatalf("score/percentage not preserved: %+v", results[1])
	}
	if results[1].Questions[0].UserAnswer != "Paris" || !results[1].Questions[0].IsCorrect {
		t.Fatalf("per-question outcome not preserved: %+v", results[1].Questions)
	}
}

func TestHistoryStoreLimit(t *testing.T) {
	ctx := context.Background()
	store := NewHistoryStore(newTestClient(t), 0)

	for _, id := range []string{"a", "b", "c"} {
		_ = store.Save(ctx, domain.Result{SessionID: id})
	}

	results, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected limit respected, got %d", len(results))
	}
}
