package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"quizzardo-service/internal/domain"
)

func TestResultStoreInsertOnce(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewResultStore(newClient(mr))
	completed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	first := domain.Result{QuizID: "quiz-1", UserID: "u1", UserName: "Alice", Score: 30, TimeSpent: 95, Answers: []int{1, -1}, CompletedAt: completed}
	if err := store.SaveResult(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveResult(ctx, first); !errors.Is(err, domain.ErrResultExists) {
		t.Fatalf("expected ErrResultExists, got %v", err)
	}
	if err := store.SaveResult(ctx, domain.Result{QuizID: "quiz-1", UserID: "u2", Score: 10, CompletedAt: completed}); err != nil {
		t.Fatalf("save u2: %v", err)
	}

	results, err := store.ListResults(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.UserID == "u1" && (r.Score != 30 || len(r.Answers) != 2 || !r.CompletedAt.Equal(completed)) {
			t.Fatalf("round-tripped result differs: %+v", r)
		}
	}

	has, err := store.HasResult(ctx, "quiz-1", "u2")
	if err != nil || !has {
		t.Fatalf("expected u2 result, has=%v err=%v", has, err)
	}
}

func TestParticipantStoreSets(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewParticipantStore(newClient(mr))
	_ = store.AddParticipant(ctx, "quiz-1", "u1")
	_ = store.AddParticipant(ctx, "quiz-1", "u1")

	if n, _ := store.CountParticipants(ctx, "quiz-1"); n != 1 {
		t.Fatalf("expected 1 participant, got %d", n)
	}
	if ok, _ := store.IsParticipant(ctx, "quiz-1", "u1"); !ok {
		t.Fatalf("expected u1 to be a participant")
	}
	if ok, _ := mr.SIsMember("quiz:quiz-1:participants", "u1"); !ok {
		t.Fatalf("expected redis set membership")
	}
}
