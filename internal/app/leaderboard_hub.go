package app

import (
	"sync"

	"quizzardo-service/internal/domain"
)

// leaderboardHub fans recomputed leaderboards out to subscribers per quiz.
type leaderboardHub struct {
	mu          sync.Mutex
	subscribers map[string]map[chan domain.Leaderboard]struct{}
}

func newLeaderboardHub() *leaderboardHub {
	return &leaderboardHub{subscribers: make(map[string]map[chan domain.Leaderboard]struct{})}
}

func (h *leaderboardHub) subscribe(quizID string, initial domain.Leaderboard) (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)
	ch <- initial

	h.mu.Lock()
	subs, ok := h.subscribers[quizID]
	if !ok {
		subs = make(map[chan domain.Leaderboard]struct{})
		h.subscribers[quizID] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs := h.subscribers[quizID]
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(h.subscribers, quizID)
			}
		}
	}
	return ch, cancel
}

func (h *leaderboardHub) hasSubscribers(quizID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[quizID]) > 0
}

func (h *leaderboardHub) broadcast(lb domain.Leaderboard) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[lb.QuizID] {
		select {
		case ch <- lb:
		default:
			// drop the stale board so a slow reader never blocks a publish
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}
