package amqp

import (
	"encoding/json"
	"testing"
	"time"

	"quizzardo-service/internal/domain"
)

func TestEncodeResultWrapsPayload(t *testing.T) {
	at := time.Date(2026, 5, 1, 18, 30, 0, 0, time.UTC)
	body, err := encodeResult(domain.Result{QuizID: "quiz-1", UserID: "u1", Score: 20, Answers: []int{1, -1}}, at)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var decoded struct {
		Type       string    `json:"type"`
		OccurredAt time.Time `json:"occurredAt"`
		Payload    struct {
			QuizID  string `json:"quizId"`
			UserID  string `json:"userId"`
			Score   int    `json:"score"`
			Answers []int  `json:"answers"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Type != ResultRecorded || !decoded.OccurredAt.Equal(at) {
		t.Fatalf("unexpected envelope: %+v", decoded)
	}
	if decoded.Payload.QuizID != "quiz-1" || decoded.Payload.Score != 20 || decoded.Payload.Answers[1] != domain.Unanswered {
		t.Fatalf("unexpected payload: %+v", decoded.Payload)
	}
}
