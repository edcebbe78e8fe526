package app_test

import (
	"sync"
	"testing"
	"time"

	"quizzardo-service/internal/app"
)

func TestQuestionTimerCountsDownAndExpiresOnce(t *testing.T) {
	timer := app.NewQuestionTimer(2 * time.Millisecond)

	var (
		mu    sync.Mutex
		ticks []int
	)
	expired := make(chan struct{}, 2)
	timer.Start(3, func(remaining int) {
		mu.Lock()
		ticks = append(ticks, remaining)
		mu.Unlock()
	}, func() {
		expired <- struct{}{}
	})

	select {
	case <-expired:
	case <-time.After(time.Second):
		t.Fatalf("timer never expired")
	}
	select {
	case <-expired:
		t.Fatalf("expire fired twice")
	case <-time.After(20 * time.Millisecond):
	}

	mu.Lock()
	defer mu.Unlock()
	if len(ticks) != 2 || ticks[0] != 2 || ticks[1] != 1 {
		t.Fatalf("expected ticks [2 1], got %v", ticks)
	}
}

func TestQuestionTimerStop(t *testing.T) {
	timer := app.NewQuestionTimer(2 * time.Millisecond)
	expired := make(chan struct{}, 1)
	timer.Start(5, nil, func() { expired <- struct{}{} })
	timer.Stop()

	select {
	case <-expired:
		t.Fatalf("stopped timer expired")
	case <-time.After(30 * time.Millisecond):
	}
}

func TestQuestionTimerRestartCancelsPrevious(t *testing.T) {
	timer := app.NewQuestionTimer(2 * time.Millisecond)
	first := make(chan struct{}, 1)
	second := make(chan struct{}, 1)

	timer.Start(50, nil, func() { first <- struct{}{} })
	timer.Start(2, nil, func() { second <- struct{}{} })

	select {
	case <-second:
	case <-time.After(time.Second):
		t.Fatalf("second countdown never expired")
	}
	select {
	case <-first:
		t.Fatalf("replaced countdown still expired")
	case <-time.After(150 * time.Millisecond):
	}
}
