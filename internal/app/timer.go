package app

import (
	"context"
	"sync"
	"time"
)

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// QuestionTimer counts a question's time limit down on a fixed cadence.
// Starting a new countdown cancels the previous one.
type QuestionTimer struct {
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewQuestionTimer returns a timer ticking every interval (one second when interval <= 0).
func NewQuestionTimer(interval time.Duration) *QuestionTimer {
	if interval <= 0 {
		interval = time.Second
	}
	return &QuestionTimer{interval: interval}
}

// Start counts down from seconds. onTick receives every remaining value above zero;
// onExpire runs once when the count reaches zero, after which the countdown stops.
func (t *QuestionTimer) Start(seconds int, onTick func(remaining int), onExpire func()) {
	ctx, cancel := context.WithCancel(context.Background())

	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
	}
	t.cancel = cancel
	t.mu.Unlock()

	go t.run(ctx, seconds, onTick, onExpire)
}

// Stop cancels the running countdown, if any.
func (t *QuestionTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

func (t *QuestionTimer) run(ctx context.Context, seconds int, onTick func(int), onExpire func()) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	remaining := seconds
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			remaining--
			if remaining <= 0 {
				if onExpire != nil {
					onExpire()
				}
				return
			}
			if onTick != nil {
				onTick(remaining)
			}
		}
	}
}
