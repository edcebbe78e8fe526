package postgres

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"quizzardo-service/internal/domain"
)

func TestResultInsertBindsEmptyAnswersArray(t *testing.T) {
	// sql.OpenDB does not dial until a query runs
	db := bun.NewDB(sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN("postgres://quiz@localhost:5432/quizdb?sslmode=disable"))), pgdialect.New())
	defer db.Close()

	row := toRow(domain.Result{QuizID: "quiz-1", UserID: "u1", Disqualified: true, CompletedAt: time.Now()})
	if row.Answers == nil {
		t.Fatalf("answers must not be nil")
	}
	query := db.NewInsert().Model(row).On("CONFLICT (quiz_id, user_id) DO NOTHING").String()
	if !strings.Contains(query, "'{}'") {
		t.Fatalf("expected empty array literal in %s", query)
	}
	if strings.Contains(query, "NULL") {
		t.Fatalf("answers bound as NULL: %s", query)
	}
}

func TestResultRowRoundTrip(t *testing.T) {
	completed := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	in := domain.Result{QuizID: "quiz-1", UserID: "u1", UserName: "Alice", Score: 20, TimeSpent: 42, Answers: []int{1, domain.Unanswered}, CompletedAt: completed}

	out := toRow(in).toDomain()
	if out.Score != 20 || out.TimeSpent != 42 || len(out.Answers) != 2 || out.Answers[1] != domain.Unanswered || !out.CompletedAt.Equal(completed) {
		t.Fatalf("unexpected result: %+v", out)
	}
}
