package mongo

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"quizzardo-service/internal/domain"
)

func TestDocumentConversionKeepsQuizContent(t *testing.T) {
	start := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	quiz := domain.Quiz{
		ID:         "quiz-1",
		Title:      "Cricket",
		Type:       domain.QuizPaid,
		EntryFee:   decimal.RequireFromString("49.5"),
		PrizeMoney: []decimal.Decimal{decimal.NewFromInt(500), decimal.NewFromInt(250)},
		PrizePool:  decimal.NewFromInt(1000),
		Duration:   10,
		StartTime:  start,
		Questions: []domain.Question{
			{Text: "Overs in a T20 innings?", Options: []string{"20", "50"}, CorrectOption: 0, Points: 10, TimeLimit: 30},
		},
		TotalPoints: 10,
		AntiCheat:   domain.AntiCheat{TabSwitchLimit: 2},
	}

	raw, err := bson.Marshal(toDocument(quiz))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc quizDocument
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := fromDocument(doc)

	if got.ID != "quiz-1" || got.Type != domain.QuizPaid || got.AntiCheat.TabSwitchLimit != 2 {
		t.Fatalf("unexpected quiz header: %+v", got)
	}
	if !got.EntryFee.Equal(quiz.EntryFee) || !got.PrizeMoney[1].Equal(decimal.NewFromInt(250)) {
		t.Fatalf("money not preserved: fee=%s prizes=%v", got.EntryFee, got.PrizeMoney)
	}
	if !got.StartTime.Equal(start) {
		t.Fatalf("start time changed: %v", got.StartTime)
	}
	if len(got.Questions) != 1 || got.Questions[0].CorrectOption != 0 || got.Questions[0].Options[1] != "50" {
		t.Fatalf("questions not preserved: %+v", got.Questions)
	}
}

func TestFromDocumentDefaultsToFree(t *testing.T) {
	got := fromDocument(quizDocument{ID: "legacy"})
	if got.Type != domain.QuizFree {
		t.Fatalf("expected free quiz, got %q", got.Type)
	}
}
