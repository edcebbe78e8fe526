package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrNotEnoughQuestions is returned when a quiz has no playable questions.
	ErrNotEnoughQuestions = errors.New("quiz has too few questions")
	// ErrInvalidQuiz wraps quiz validation failures.
	ErrInvalidQuiz = errors.New("invalid quiz")
	// ErrQuizNotStarted is returned when a session is started before the quiz start time.
	ErrQuizNotStarted = errors.New("quiz has not started yet")
	// ErrNotParticipant is returned when a paid quiz is started by a user who has not joined.
	ErrNotParticipant = errors.New("user has not joined this quiz")
	// ErrPaymentRequired is returned when joining a paid quiz without a payment reference.
	ErrPaymentRequired = errors.New("payment required to join this quiz")
	// ErrQuizFull is returned when a quiz has reached its participant limit.
	ErrQuizFull = errors.New("quiz is full")
	// ErrAlreadyAttempted is returned when the user already has a recorded result.
	ErrAlreadyAttempted = errors.New("quiz already attempted")
	// ErrResultExists is returned by result stores when a result is already recorded.
	ErrResultExists = errors.New("result already recorded")
	// ErrSessionActive is returned when the user already has an open session for the quiz.
	ErrSessionActive = errors.New("session already active")
	// ErrSessionNotFound is returned when a quiz session has not been opened.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionNotStarted is returned for actions that need a started session.
	ErrSessionNotStarted = errors.New("quiz session not started")
	// ErrSessionEnded is returned for actions attempted after the session ended.
	ErrSessionEnded = errors.New("quiz session ended")
	// ErrOptionOutOfRange indicates a submitted option index is invalid.
	ErrOptionOutOfRange = errors.New("option out of range")
	// ErrUnknownSignal indicates an integrity signal the monitor does not recognise.
	ErrUnknownSignal = errors.New("unknown signal")
	// ErrUnauthenticated is returned when no identity could be established.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned when the caller lacks the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrReadOnlyCatalog is returned when the quiz backend cannot store quizzes.
	ErrReadOnlyCatalog = errors.New("quiz catalogue is read-only")
)
