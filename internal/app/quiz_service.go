package app

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"quizzardo-service/internal/domain"
)

// QuizRepository loads and stores quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	SaveQuiz(ctx context.Context, quiz domain.Quiz) error
}

// ResultRepository persists one result per (quiz, user).
type ResultRepository interface {
	// SaveResult returns domain.ErrResultExists if the user already has a result.
	SaveResult(ctx context.Context, result domain.Result) error
	ListResults(ctx context.Context, quizID string) ([]domain.Result, error)
	HasResult(ctx context.Context, quizID, userID string) (bool, error)
}

// ParticipantRepository tracks who joined a quiz.
type ParticipantRepository interface {
	AddParticipant(ctx context.Context, quizID, userID string) error
	IsParticipant(ctx context.Context, quizID, userID string) (bool, error)
	CountParticipants(ctx context.Context, quizID string) (int, error)
}

// SessionRepository abstracts where open sessions are registered (in-memory, Redis, etc).
type SessionRepository interface {
	// Add returns domain.ErrSessionActive if the user already has an open session for the quiz.
	Add(session *Session) error
	Get(quizID, userID string) (*Session, bool)
	Remove(quizID, userID string)
}

// ResultPublisher notifies downstream consumers about recorded results.
type ResultPublisher interface {
	PublishResult(ctx context.Context, result domain.Result) error
}

// Settings tune the engine.
type Settings struct {
	TickInterval   time.Duration
	ViolationLimit int
	SaveTimeout    time.Duration
	PrizeFormula   PrizeFormula
	MinQuestions   int
}

// DefaultSettings mirrors the production defaults.
func DefaultSettings() Settings {
	return Settings{
		TickInterval:   time.Second,
		ViolationLimit: DefaultViolationLimit,
		SaveTimeout:    10 * time.Second,
		PrizeFormula:   PrizeTable,
		MinQuestions:   5,
	}
}

// Deps are the collaborators of QuizService. Publisher and Clock are optional.
type Deps struct {
	Sessions     SessionRepository
	Quizzes      QuizRepository
	Results      ResultRepository
	Participants ParticipantRepository
	Publisher    ResultPublisher
	Clock        Clock
}

// QuizService contains the core quiz use cases.
type QuizService struct {
	sessions     SessionRepository
	quizzes      QuizRepository
	results      ResultRepository
	participants ParticipantRepository
	publisher    ResultPublisher
	clock        Clock
	settings     Settings
	boards       *leaderboardHub
}

func NewQuizService(deps Deps, settings Settings) *QuizService {
	defaults := DefaultSettings()
	if settings.TickInterval <= 0 {
		settings.TickInterval = defaults.TickInterval
	}
	if settings.ViolationLimit <= 0 {
		settings.ViolationLimit = defaults.ViolationLimit
	}
	if settings.SaveTimeout <= 0 {
		settings.SaveTimeout = defaults.SaveTimeout
	}
	if settings.PrizeFormula == "" {
		settings.PrizeFormula = defaults.PrizeFormula
	}
	if settings.MinQuestions <= 0 {
		settings.MinQuestions = defaults.MinQuestions
	}
	clock := deps.Clock
	if clock == nil {
		clock = systemClock{}
	}
	return &QuizService{
		sessions:     deps.Sessions,
		quizzes:      deps.Quizzes,
		results:      deps.Results,
		participants: deps.Participants,
		publisher:    deps.Publisher,
		clock:        clock,
		settings:     settings,
		boards:       newLeaderboardHub(),
	}
}

// CreateQuiz validates and stores an admin-authored quiz.
func (s *QuizService) CreateQuiz(ctx context.Context, admin domain.Identity, draft domain.Quiz) (domain.Quiz, error) {
	if !admin.Admin {
		return domain.Quiz{}, domain.ErrForbidden
	}
	now := s.clock.Now()
	if err := domain.ValidateDraft(draft, s.settings.MinQuestions, now); err != nil {
		return domain.Quiz{}, err
	}
	if draft.ID == "" {
		draft.ID = uuid.NewString()
	}
	draft.TotalPoints = draft.SumPoints()
	draft.CreatedBy = admin.UserID
	draft.CreatedAt = now
	if err := s.quizzes.SaveQuiz(ctx, draft); err != nil {
		return domain.Quiz{}, err
	}
	log.Printf("quiz %s created by %s", draft.ID, admin.UserID)
	return draft, nil
}

// GetQuiz returns quiz content.
func (s *QuizService) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.quizzes.GetQuiz(ctx, quizID)
}

// Join registers the user as a participant. Paid quizzes need a payment reference
// issued by the payment gateway.
func (s *QuizService) Join(ctx context.Context, quizID string, who domain.Identity, paymentRef string) error {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	if quiz.Type == domain.QuizPaid && paymentRef == "" {
		return domain.ErrPaymentRequired
	}
	joined, err := s.participants.IsParticipant(ctx, quizID, who.UserID)
	if err != nil {
		return err
	}
	if joined {
		return nil
	}
	if quiz.MaxParticipants > 0 {
		count, err := s.participants.CountParticipants(ctx, quizID)
		if err != nil {
			return err
		}
		if count >= quiz.MaxParticipants {
			return domain.ErrQuizFull
		}
	}
	if err := s.participants.AddParticipant(ctx, quizID, who.UserID); err != nil {
		return err
	}
	if paymentRef != "" {
		log.Printf("user %s joined quiz %s (payment %s)", who.UserID, quizID, paymentRef)
	} else {
		log.Printf("user %s joined quiz %s", who.UserID, quizID)
	}
	return nil
}

// OpenSession prepares a waiting session for the user. Data errors surface here and
// the session is never created.
func (s *QuizService) OpenSession(ctx context.Context, quizID string, who domain.Identity) (*Session, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckPlayable(quiz); err != nil {
		return nil, err
	}
	quiz.TotalPoints = quiz.SumPoints()

	if _, ok := s.sessions.Get(quizID, who.UserID); ok {
		return nil, domain.ErrSessionActive
	}
	done, err := s.results.HasResult(ctx, quizID, who.UserID)
	if err != nil {
		return nil, err
	}
	if done {
		return nil, domain.ErrAlreadyAttempted
	}

	session := NewSession(quiz, who, SessionConfig{
		TickInterval:   s.settings.TickInterval,
		ViolationLimit: s.settings.ViolationLimit,
		Clock:          s.clock,
		Admit:          s.admitter(quiz, who.UserID),
		OnEnd:          s.onSessionEnd,
	})
	if err := s.sessions.Add(session); err != nil {
		return nil, err
	}
	return session, nil
}

// Session looks up the open session for a user.
func (s *QuizService) Session(quizID, userID string) (*Session, error) {
	session, ok := s.sessions.Get(quizID, userID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// StartSession moves the user's session from waiting to started.
func (s *QuizService) StartSession(ctx context.Context, quizID, userID string) (domain.SessionState, error) {
	session, err := s.Session(quizID, userID)
	if err != nil {
		return domain.SessionState{}, err
	}
	if err := session.Start(ctx); err != nil {
		return domain.SessionState{}, err
	}
	return session.Snapshot(), nil
}

// SubmitAnswer records an answer for the current question of the user's session.
func (s *QuizService) SubmitAnswer(_ context.Context, quizID, userID string, questionIndex, option int) (domain.AnswerOutcome, error) {
	session, err := s.Session(quizID, userID)
	if err != nil {
		return domain.AnswerOutcome{}, err
	}
	return session.Answer(questionIndex, option)
}

// ReportSignal feeds an integrity signal into the user's session.
func (s *QuizService) ReportSignal(_ context.Context, quizID, userID string, sig domain.Signal) (domain.SignalOutcome, error) {
	session, err := s.Session(quizID, userID)
	if err != nil {
		return domain.SignalOutcome{}, err
	}
	return session.Signal(sig)
}

// CloseSession tears down the user's session, if any.
func (s *QuizService) CloseSession(_ context.Context, quizID, userID string) {
	session, ok := s.sessions.Get(quizID, userID)
	if !ok {
		return
	}
	session.Close()
	if session.Snapshot().Result == nil {
		s.sessions.Remove(quizID, userID)
	}
}

// Leaderboard ranks every recorded result for a quiz.
func (s *QuizService) Leaderboard(ctx context.Context, quizID string) (domain.Leaderboard, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	results, err := s.results.ListResults(ctx, quizID)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return BuildLeaderboard(quiz, results, s.settings.PrizeFormula, s.clock.Now()), nil
}

// SubscribeLeaderboard returns a channel that receives the current leaderboard and every
// recomputation after a result is recorded. The caller must invoke cancel to avoid leaks.
func (s *QuizService) SubscribeLeaderboard(ctx context.Context, quizID string) (<-chan domain.Leaderboard, func(), error) {
	initial, err := s.Leaderboard(ctx, quizID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.boards.subscribe(quizID, initial)
	return ch, cancel, nil
}

func (s *QuizService) admitter(quiz domain.Quiz, userID string) func(ctx context.Context) error {
	if quiz.Type != domain.QuizPaid {
		return nil
	}
	return func(ctx context.Context) error {
		ok, err := s.participants.IsParticipant(ctx, quiz.ID, userID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrNotParticipant
		}
		return nil
	}
}

func (s *QuizService) onSessionEnd(session *Session, result domain.Result) {
	go s.persist(session, result)
}

// persist saves the final result once. Failures are reported to the session, never retried.
func (s *QuizService) persist(session *Session, result domain.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), s.settings.SaveTimeout)
	defer cancel()

	err := s.results.SaveResult(ctx, result)
	s.sessions.Remove(result.QuizID, result.UserID)
	if err != nil {
		log.Printf("save result quiz=%s user=%s: %v", result.QuizID, result.UserID, err)
		session.Settle(err)
		return
	}
	log.Printf("result recorded quiz=%s user=%s score=%d disqualified=%v", result.QuizID, result.UserID, result.Score, result.Disqualified)

	if s.publisher != nil {
		if err := s.publisher.PublishResult(ctx, result); err != nil {
			log.Printf("publish result quiz=%s user=%s: %v", result.QuizID, result.UserID, err)
		}
	}
	if s.boards.hasSubscribers(result.QuizID) {
		if lb, err := s.Leaderboard(ctx, result.QuizID); err != nil {
			log.Printf("recompute leaderboard quiz=%s: %v", result.QuizID, err)
		} else {
			s.boards.broadcast(lb)
		}
	}
	session.Settle(nil)
}
