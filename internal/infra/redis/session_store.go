package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"quizzardo-service/internal/app"
	"quizzardo-service/internal/domain"
)

// SessionStore is a Redis-aware implementation of SessionRepository.
// Notes:
//   - Sessions own timers and channels, so the live objects stay in a local map.
//   - Redis holds a liveness key per (quiz, user) so a second instance refuses a
//     concurrent attempt by the same user. Keys expire after ttl in case an instance dies.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Add(session *app.Session) error {
	quizID, userID := session.QuizID(), session.Identity().UserID
	local := quizID + "/" + userID

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[local]; ok {
		return domain.ErrSessionActive
	}
	claimed, err := s.client.SetNX(context.Background(), s.key(quizID, userID), session.ID(), s.ttl).Result()
	if err != nil {
		return fmt.Errorf("claim session: %w", err)
	}
	if !claimed {
		return domain.ErrSessionActive
	}
	s.sessions[local] = session
	return nil
}

func (s *SessionStore) Get(quizID, userID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[quizID+"/"+userID]
	return session, ok
}

func (s *SessionStore) Remove(quizID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[quizID+"/"+userID]; !ok {
		return
	}
	delete(s.sessions, quizID+"/"+userID)
	// best-effort; the key expires on its own otherwise
	_ = s.client.Del(context.Background(), s.key(quizID, userID)).Err()
}

func (s *SessionStore) key(quizID, userID string) string {
	return "quiz:session:" + quizID + ":" + userID
}
