package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"quizzardo-service/internal/domain"
)

const sessionEventBuffer = 32

// SessionConfig wires a session to its collaborators.
type SessionConfig struct {
	TickInterval   time.Duration
	ViolationLimit int
	Clock          Clock
	// Admit is checked before waiting -> started, outside the session lock.
	Admit func(ctx context.Context) error
	// OnEnd receives the final result exactly once. It must eventually call Settle.
	OnEnd func(s *Session, result domain.Result)
}

// Session drives one participant through a quiz: waiting -> started -> ended.
type Session struct {
	id    string
	quiz  domain.Quiz
	who   domain.Identity
	clock Clock
	admit func(ctx context.Context) error
	onEnd func(s *Session, result domain.Result)

	mu        sync.Mutex
	status    domain.SessionStatus
	index     int
	remaining int
	card      *Scorecard
	monitor   *IntegrityMonitor
	timer     *QuestionTimer
	startedAt time.Time
	reason    domain.EndReason
	result    *domain.Result
	saveErr   error

	events       chan domain.SessionEvent
	eventsClosed bool
	settled      chan struct{}
}

// NewSession creates a waiting session for the given participant.
func NewSession(quiz domain.Quiz, who domain.Identity, cfg SessionConfig) *Session {
	clock := cfg.Clock
	if clock == nil {
		clock = systemClock{}
	}
	limit := cfg.ViolationLimit
	if quiz.AntiCheat.TabSwitchLimit > 0 {
		limit = quiz.AntiCheat.TabSwitchLimit
	}
	return &Session{
		id:      uuid.NewString(),
		quiz:    quiz,
		who:     who,
		clock:   clock,
		admit:   cfg.Admit,
		onEnd:   cfg.OnEnd,
		status:  domain.StatusWaiting,
		card:    NewScorecard(quiz.Questions),
		monitor: NewIntegrityMonitor(limit),
		timer:   NewQuestionTimer(cfg.TickInterval),
		events:  make(chan domain.SessionEvent, sessionEventBuffer),
		settled: make(chan struct{}),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) QuizID() string { return s.quiz.ID }

func (s *Session) Identity() domain.Identity { return s.who }

// Events streams session notifications. The channel is closed once the session settles.
// Slow readers lose the oldest buffered events.
func (s *Session) Events() <-chan domain.SessionEvent { return s.events }

// Settled is closed after the final result has been persisted or failed to persist.
func (s *Session) Settled() <-chan struct{} { return s.settled }

// Start moves a waiting session to started and presents the first question.
// Starting an already started session is a no-op.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	switch s.status {
	case domain.StatusStarted:
		s.mu.Unlock()
		return nil
	case domain.StatusEnded:
		s.mu.Unlock()
		return domain.ErrSessionEnded
	}
	if s.clock.Now().Before(s.quiz.StartTime) {
		s.mu.Unlock()
		return domain.ErrQuizNotStarted
	}
	s.mu.Unlock()

	if s.admit != nil {
		if err := s.admit(ctx); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.StatusWaiting {
		if s.status == domain.StatusEnded {
			return domain.ErrSessionEnded
		}
		return nil
	}
	s.status = domain.StatusStarted
	s.startedAt = s.clock.Now()
	s.presentLocked(0)
	return nil
}

// Answer submits option for questionIndex. Answers for any question other than the
// current one are ignored and reported as not accepted.
func (s *Session) Answer(questionIndex, option int) (domain.AnswerOutcome, error) {
	s.mu.Lock()
	if err := s.requireStartedLocked(); err != nil {
		s.mu.Unlock()
		return domain.AnswerOutcome{}, err
	}
	outcome := domain.AnswerOutcome{QuestionIndex: questionIndex, TotalScore: s.card.Score()}
	if questionIndex != s.index || s.card.Answered(questionIndex) {
		s.mu.Unlock()
		return outcome, nil
	}
	q := s.quiz.Questions[questionIndex]
	if option < 0 || option >= len(q.Options) {
		s.mu.Unlock()
		return outcome, domain.ErrOptionOutOfRange
	}

	correct, awarded, _ := s.card.Record(questionIndex, option)
	outcome.Accepted = true
	outcome.Correct = correct
	outcome.Awarded = awarded
	outcome.TotalScore = s.card.Score()
	outcome.CorrectOption = q.CorrectOption
	s.emitLocked(domain.EventAnswer, outcome)

	final := s.advanceLocked()
	s.mu.Unlock()

	s.finish(final)
	return outcome, nil
}

// Expire handles the timer running out on questionIndex. It reports whether the call
// advanced the session; repeated or stale calls do nothing.
func (s *Session) Expire(questionIndex int) bool {
	s.mu.Lock()
	if s.status != domain.StatusStarted || questionIndex != s.index {
		s.mu.Unlock()
		return false
	}
	if !s.card.Answered(questionIndex) {
		s.card.RecordUnanswered(questionIndex)
	}
	s.remaining = 0
	final := s.advanceLocked()
	s.mu.Unlock()

	s.finish(final)
	return true
}

// Signal records an integrity signal. Signals outside the started state are ignored.
func (s *Session) Signal(sig domain.Signal) (domain.SignalOutcome, error) {
	if !sig.Known() {
		return domain.SignalOutcome{}, domain.ErrUnknownSignal
	}

	s.mu.Lock()
	outcome := domain.SignalOutcome{
		Signal:     sig,
		Violations: s.monitor.Violations(),
		Limit:      s.monitor.Limit(),
	}
	switch s.status {
	case domain.StatusWaiting:
		s.mu.Unlock()
		return outcome, nil
	case domain.StatusEnded:
		s.mu.Unlock()
		return outcome, domain.ErrSessionEnded
	}

	penalized, disqualify := s.monitor.Observe(sig)
	outcome.Penalized = penalized
	outcome.Violations = s.monitor.Violations()
	outcome.Disqualified = disqualify
	if penalized {
		s.emitLocked(domain.EventViolation, outcome)
	}

	var final *domain.Result
	if disqualify {
		final = s.endLocked(domain.EndDisqualified)
	}
	s.mu.Unlock()

	s.finish(final)
	return outcome, nil
}

// Close tears the session down. A started session ends as abandoned and its partial
// result is persisted; a waiting session ends without a result.
func (s *Session) Close() {
	s.mu.Lock()
	switch s.status {
	case domain.StatusEnded:
		s.mu.Unlock()
		return
	case domain.StatusWaiting:
		s.status = domain.StatusEnded
		s.reason = domain.EndAbandoned
		s.settleLocked(nil)
		s.mu.Unlock()
		return
	}
	final := s.endLocked(domain.EndAbandoned)
	s.mu.Unlock()

	s.finish(final)
}

// Settle records the outcome of persisting the final result. Only the first call counts.
func (s *Session) Settle(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settleLocked(err)
}

// Snapshot returns the current state of the session.
func (s *Session) Snapshot() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() domain.SessionState {
	state := domain.SessionState{
		SessionID:      s.id,
		QuizID:         s.quiz.ID,
		UserID:         s.who.UserID,
		Status:         s.status,
		QuestionIndex:  s.index,
		TotalQuestions: len(s.quiz.Questions),
		Remaining:      s.remaining,
		Score:          s.card.Score(),
		TotalPoints:    s.quiz.TotalPoints,
		Answers:        s.card.Answers(),
		Violations:     s.monitor.Violations(),
		Blocked:        s.monitor.Blocked(),
		Disqualified:   s.reason == domain.EndDisqualified,
		EndReason:      s.reason,
	}
	switch s.status {
	case domain.StatusWaiting:
		if wait := s.quiz.StartTime.Sub(s.clock.Now()); wait > 0 {
			state.StartsIn = int((wait + time.Second - 1) / time.Second)
		}
	case domain.StatusStarted:
		view := s.quiz.Questions[s.index].View(s.index)
		state.Question = &view
	}
	if s.result != nil {
		res := *s.result
		state.Result = &res
	}
	if s.saveErr != nil {
		state.SaveError = s.saveErr.Error()
	}
	return state
}

func (s *Session) requireStartedLocked() error {
	switch s.status {
	case domain.StatusWaiting:
		return domain.ErrSessionNotStarted
	case domain.StatusEnded:
		return domain.ErrSessionEnded
	}
	return nil
}

// presentLocked makes question index current and restarts the countdown for it.
func (s *Session) presentLocked(index int) {
	s.index = index
	q := s.quiz.Questions[index]
	s.remaining = q.TimeLimit
	s.timer.Start(q.TimeLimit,
		func(remaining int) { s.tick(index, remaining) },
		func() { s.Expire(index) },
	)
	s.emitLocked(domain.EventQuestion, q.View(index))
}

func (s *Session) tick(index, remaining int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.StatusStarted || index != s.index {
		return
	}
	s.remaining = remaining
	s.emitLocked(domain.EventTick, domain.TickPayload{QuestionIndex: index, Remaining: remaining})
}

// advanceLocked moves to the next question or ends the session after the last one.
func (s *Session) advanceLocked() *domain.Result {
	if s.index < len(s.quiz.Questions)-1 {
		s.presentLocked(s.index + 1)
		return nil
	}
	return s.endLocked(domain.EndCompleted)
}

func (s *Session) endLocked(reason domain.EndReason) *domain.Result {
	s.timer.Stop()
	s.status = domain.StatusEnded
	s.reason = reason
	s.remaining = 0
	if reason == domain.EndDisqualified {
		s.card.Forfeit()
	}

	now := s.clock.Now()
	res := domain.Result{
		QuizID:       s.quiz.ID,
		UserID:       s.who.UserID,
		UserName:     s.who.DisplayName,
		Score:        s.card.Score(),
		TimeSpent:    s.timeSpent(now),
		Disqualified: reason == domain.EndDisqualified,
		Answers:      s.card.Answers(),
		CompletedAt:  now,
	}
	s.result = &res
	s.emitLocked(domain.EventEnded, s.snapshotLocked())
	return &res
}

// timeSpent is the whole seconds elapsed since start, capped at the quiz duration.
func (s *Session) timeSpent(now time.Time) int {
	spent := int(now.Sub(s.startedAt) / time.Second)
	if spent < 0 {
		spent = 0
	}
	if limit := s.quiz.DurationSeconds(); limit > 0 && spent > limit {
		spent = limit
	}
	return spent
}

func (s *Session) finish(final *domain.Result) {
	if final == nil {
		return
	}
	if s.onEnd == nil {
		s.Settle(nil)
		return
	}
	s.onEnd(s, *final)
}

func (s *Session) settleLocked(err error) {
	select {
	case <-s.settled:
		return
	default:
	}
	s.saveErr = err
	if s.result != nil {
		if err != nil {
			s.emitLocked(domain.EventSaveFailed, map[string]string{"message": err.Error()})
		} else {
			s.emitLocked(domain.EventResultSaved, *s.result)
		}
	}
	close(s.settled)
	s.eventsClosed = true
	close(s.events)
}

func (s *Session) emitLocked(typ domain.EventType, payload any) {
	if s.eventsClosed {
		return
	}
	evt := domain.SessionEvent{Type: typ, Payload: payload}
	select {
	case s.events <- evt:
	default:
		select {
		case <-s.events:
		default:
		}
		select {
		case s.events <- evt:
		default:
		}
	}
}
