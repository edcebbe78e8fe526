package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"quizzardo-service/internal/domain"
)

type resultRow struct {
	bun.BaseModel `bun:"table:quiz_results"`

	QuizID       string    `bun:"quiz_id,pk"`
	UserID       string    `bun:"user_id,pk"`
	UserName     string    `bun:"user_name"`
	Score        int       `bun:"score"`
	TimeSpent    int       `bun:"time_spent"`
	Disqualified bool      `bun:"disqualified"`
	Answers      []int     `bun:"answers,array"`
	CompletedAt  time.Time `bun:"completed_at"`
}

func toRow(r domain.Result) *resultRow {
	answers := r.Answers
	if answers == nil {
		// the column is NOT NULL; bun binds a nil slice as NULL
		answers = []int{}
	}
	return &resultRow{
		QuizID:       r.QuizID,
		UserID:       r.UserID,
		UserName:     r.UserName,
		Score:        r.Score,
		TimeSpent:    r.TimeSpent,
		Disqualified: r.Disqualified,
		Answers:      answers,
		CompletedAt:  r.CompletedAt,
	}
}

func (row resultRow) toDomain() domain.Result {
	return domain.Result{
		QuizID:       row.QuizID,
		UserID:       row.UserID,
		UserName:     row.UserName,
		Score:        row.Score,
		TimeSpent:    row.TimeSpent,
		Disqualified: row.Disqualified,
		Answers:      row.Answers,
		CompletedAt:  row.CompletedAt.UTC(),
	}
}

// ResultStore persists final results, one row per (quiz, user).
type ResultStore struct {
	db *bun.DB
}

func NewResultStore(db *bun.DB) *ResultStore {
	return &ResultStore{db: db}
}

func (s *ResultStore) SaveResult(ctx context.Context, result domain.Result) error {
	res, err := s.db.NewInsert().
		Model(toRow(result)).
		On("CONFLICT (quiz_id, user_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	if n == 0 {
		return domain.ErrResultExists
	}
	return nil
}

func (s *ResultStore) ListResults(ctx context.Context, quizID string) ([]domain.Result, error) {
	var rows []resultRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("quiz_id = ?", quizID).
		Order("completed_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	results := make([]domain.Result, 0, len(rows))
	for _, row := range rows {
		results = append(results, row.toDomain())
	}
	return results, nil
}

func (s *ResultStore) HasResult(ctx context.Context, quizID, userID string) (bool, error) {
	ok, err := s.db.NewSelect().
		Model((*resultRow)(nil)).
		Where("quiz_id = ? AND user_id = ?", quizID, userID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check result: %w", err)
	}
	return ok, nil
}
