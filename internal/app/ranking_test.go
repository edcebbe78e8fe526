package app_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"quizzardo-service/internal/app"
	"quizzardo-service/internal/domain"
)

func TestRankResultsOrdersByScoreThenTime(t *testing.T) {
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	entries := app.RankResults([]domain.Result{
		{UserID: "A", Score: 80, TimeSpent: 100, CompletedAt: at},
		{UserID: "B", Score: 80, TimeSpent: 90, CompletedAt: at},
		{UserID: "C", Score: 90, TimeSpent: 200, CompletedAt: at},
	})

	want := []string{"C", "B", "A"}
	for i, e := range entries {
		if e.UserID != want[i] || e.Rank != i+1 {
			t.Fatalf("position %d: got %s rank %d, want %s rank %d", i, e.UserID, e.Rank, want[i], i+1)
		}
	}
}

func TestRankResultsBreaksFullTiesDeterministically(t *testing.T) {
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	entries := app.RankResults([]domain.Result{
		{UserID: "z", Score: 50, TimeSpent: 60, CompletedAt: at},
		{UserID: "y", Score: 50, TimeSpent: 60, CompletedAt: at.Add(-time.Second)},
		{UserID: "a", Score: 50, TimeSpent: 60, CompletedAt: at},
	})
	if entries[0].UserID != "y" || entries[1].UserID != "a" || entries[2].UserID != "z" {
		t.Fatalf("unexpected order: %+v", entries)
	}
}

func TestBuildLeaderboardPrizeTable(t *testing.T) {
	quiz := domain.Quiz{
		ID:         "quiz-1",
		PrizeMoney: []decimal.Decimal{decimal.NewFromInt(500), decimal.NewFromInt(300)},
	}
	now := time.Now()
	lb := app.BuildLeaderboard(quiz, []domain.Result{
		{UserID: "A", Score: 80, TimeSpent: 100},
		{UserID: "B", Score: 80, TimeSpent: 90},
		{UserID: "C", Score: 90, TimeSpent: 200},
	}, app.PrizeTable, now)

	want := map[string]int64{"C": 500, "B": 300, "A": 0}
	for _, e := range lb.Entries {
		if !e.Prize.Equal(decimal.NewFromInt(want[e.UserID])) {
			t.Fatalf("%s: prize %s, want %d", e.UserID, e.Prize, want[e.UserID])
		}
	}
	if lb.QuizID != "quiz-1" || !lb.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected leaderboard header: %+v", lb)
	}
}

func TestBuildLeaderboardSplitAndDisqualified(t *testing.T) {
	quiz := domain.Quiz{ID: "quiz-1", PrizePool: decimal.NewFromInt(1000)}
	lb := app.BuildLeaderboard(quiz, []domain.Result{
		{UserID: "first", Score: 30},
		{UserID: "cheat", Score: 0, Disqualified: true},
		{UserID: "second", Score: 20},
		{UserID: "third", Score: 10},
	}, app.PrizeSplit, time.Now())

	want := map[string]string{"first": "500", "second": "300", "third": "200", "cheat": "0"}
	for _, e := range lb.Entries {
		if !e.Prize.Equal(decimal.RequireFromString(want[e.UserID])) {
			t.Fatalf("%s (rank %d): prize %s, want %s", e.UserID, e.Rank, e.Prize, want[e.UserID])
		}
	}
	last := lb.Entries[len(lb.Entries)-1]
	if last.UserID != "cheat" || last.Rank != 4 || !last.Disqualified {
		t.Fatalf("disqualified entry should rank last: %+v", last)
	}
}

func TestPrizeForOutOfRange(t *testing.T) {
	quiz := domain.Quiz{PrizeMoney: []decimal.Decimal{decimal.NewFromInt(10)}, PrizePool: decimal.NewFromInt(100)}
	if !app.PrizeFor(quiz, 2, app.PrizeTable).IsZero() || !app.PrizeFor(quiz, 0, app.PrizeTable).IsZero() {
		t.Fatalf("ranks outside the table must pay nothing")
	}
	if !app.PrizeFor(quiz, 4, app.PrizeSplit).IsZero() {
		t.Fatalf("split pays only the top three")
	}
}

func TestParsePrizeFormula(t *testing.T) {
	if f, err := app.ParsePrizeFormula(""); err != nil || f != app.PrizeTable {
		t.Fatalf("empty formula: %v %v", f, err)
	}
	if f, err := app.ParsePrizeFormula("split"); err != nil || f != app.PrizeSplit {
		t.Fatalf("split formula: %v %v", f, err)
	}
	if _, err := app.ParsePrizeFormula("lottery"); err == nil {
		t.Fatalf("expected error for unknown formula")
	}
}
