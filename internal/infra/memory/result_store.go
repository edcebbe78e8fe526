package memory

import (
	"context"
	"sync"

	"quizzardo-service/internal/domain"
)

// ResultStore keeps results in process, one per (quiz, user).
type ResultStore struct {
	mu      sync.RWMutex
	results map[string]map[string]domain.Result
	// FailWith makes SaveResult fail; used to exercise persistence failures.
	FailWith error
}

func NewResultStore() *ResultStore {
	return &ResultStore{results: make(map[string]map[string]domain.Result)}
}

func (s *ResultStore) SaveResult(_ context.Context, result domain.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	byUser, ok := s.results[result.QuizID]
	if !ok {
		byUser = make(map[string]domain.Result)
		s.results[result.QuizID] = byUser
	}
	if _, exists := byUser[result.UserID]; exists {
		return domain.ErrResultExists
	}
	result.Answers = append([]int(nil), result.Answers...)
	byUser[result.UserID] = result
	return nil
}

func (s *ResultStore) ListResults(_ context.Context, quizID string) ([]domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]domain.Result, 0, len(s.results[quizID]))
	for _, r := range s.results[quizID] {
		results = append(results, r)
	}
	return results, nil
}

func (s *ResultStore) HasResult(_ context.Context, quizID, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.results[quizID][userID]
	return ok, nil
}

// ParticipantStore keeps quiz participants in process.
type ParticipantStore struct {
	mu           sync.RWMutex
	participants map[string]map[string]struct{}
}

func NewParticipantStore() *ParticipantStore {
	return &ParticipantStore{participants: make(map[string]map[string]struct{})}
}

func (s *ParticipantStore) AddParticipant(_ context.Context, quizID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, ok := s.participants[quizID]
	if !ok {
		users = make(map[string]struct{})
		s.participants[quizID] = users
	}
	users[userID] = struct{}{}
	return nil
}

func (s *ParticipantStore) IsParticipant(_ context.Context, quizID, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.participants[quizID][userID]
	return ok, nil
}

func (s *ParticipantStore) CountParticipants(_ context.Context, quizID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.participants[quizID]), nil
}
