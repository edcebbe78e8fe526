package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"quizzardo-service/internal/domain"
)

// ResultStore keeps results in a hash per quiz: HSETNX quiz:{quizID}:results {userID} {json}
type ResultStore struct {
	client *redis.Client
}

func NewResultStore(client *redis.Client) *ResultStore {
	return &ResultStore{client: client}
}

func (s *ResultStore) SaveResult(ctx context.Context, result domain.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	created, err := s.client.HSetNX(ctx, resultsKey(result.QuizID), result.UserID, data).Result()
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	if !created {
		return domain.ErrResultExists
	}
	return nil
}

func (s *ResultStore) ListResults(ctx context.Context, quizID string) ([]domain.Result, error) {
	raw, err := s.client.HVals(ctx, resultsKey(quizID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	results := make([]domain.Result, 0, len(raw))
	for _, item := range raw {
		var r domain.Result
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
		results = append(results, r)
	}
	return results, nil
}

func (s *ResultStore) HasResult(ctx context.Context, quizID, userID string) (bool, error) {
	ok, err := s.client.HExists(ctx, resultsKey(quizID), userID).Result()
	if err != nil {
		return false, fmt.Errorf("check result: %w", err)
	}
	return ok, nil
}

func resultsKey(quizID string) string {
	return "quiz:" + quizID + ":results"
}

// ParticipantStore keeps participants in a set per quiz: SADD quiz:{quizID}:participants {userID}
type ParticipantStore struct {
	client *redis.Client
}

func NewParticipantStore(client *redis.Client) *ParticipantStore {
	return &ParticipantStore{client: client}
}

func (s *ParticipantStore) AddParticipant(ctx context.Context, quizID, userID string) error {
	if err := s.client.SAdd(ctx, participantsKey(quizID), userID).Err(); err != nil {
		return fmt.Errorf("add participant: %w", err)
	}
	return nil
}

func (s *ParticipantStore) IsParticipant(ctx context.Context, quizID, userID string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, participantsKey(quizID), userID).Result()
	if err != nil {
		return false, fmt.Errorf("check participant: %w", err)
	}
	return ok, nil
}

func (s *ParticipantStore) CountParticipants(ctx context.Context, quizID string) (int, error) {
	n, err := s.client.SCard(ctx, participantsKey(quizID)).Result()
	if err != nil {
		return 0, fmt.Errorf("count participants: %w", err)
	}
	return int(n), nil
}

func participantsKey(quizID string) string {
	return "quiz:" + quizID + ":participants"
}
