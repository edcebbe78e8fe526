package app_test

import (
	"testing"

	"quizzardo-service/internal/app"
	"quizzardo-service/internal/domain"
)

func TestScorecardRecordsOneEntryPerQuestion(t *testing.T) {
	card := app.NewScorecard([]domain.Question{
		{CorrectOption: 1, Points: 10},
		{CorrectOption: 0, Points: 5},
		{CorrectOption: 2, Points: 20},
	})

	if correct, awarded, ok := card.Record(0, 1); !ok || !correct || awarded != 10 {
		t.Fatalf("first answer: correct=%v awarded=%d ok=%v", correct, awarded, ok)
	}
	if _, _, ok := card.Record(0, 1); ok {
		t.Fatalf("second answer for the same question must be refused")
	}
	if _, _, ok := card.Record(2, 2); ok {
		t.Fatalf("answer out of order must be refused")
	}
	if !card.RecordUnanswered(1) {
		t.Fatalf("unanswered entry refused")
	}
	if correct, awarded, _ := card.Record(2, 0); correct || awarded != 0 {
		t.Fatalf("wrong answer must award nothing")
	}

	answers := card.Answers()
	if card.Score() != 10 || len(answers) != 3 || answers[1] != domain.Unanswered {
		t.Fatalf("unexpected card: score=%d answers=%v", card.Score(), answers)
	}
	answers[0] = 99
	if card.Answers()[0] != 1 {
		t.Fatalf("Answers must return a copy")
	}

	card.Forfeit()
	if card.Score() != 0 {
		t.Fatalf("forfeit must zero the score")
	}
}
