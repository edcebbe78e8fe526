package domain

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError lists every problem found in a quiz draft.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid quiz: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidQuiz
}

// ValidateQuestion checks a single question.
func ValidateQuestion(q Question) []string {
	var problems []string
	if strings.TrimSpace(q.Text) == "" {
		problems = append(problems, "text is empty")
	}
	if len(q.Options) < 2 {
		problems = append(problems, "needs at least 2 options")
	}
	for i, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			problems = append(problems, fmt.Sprintf("option %d is empty", i))
		}
	}
	if q.CorrectOption < 0 || q.CorrectOption >= len(q.Options) {
		problems = append(problems, "correct option out of range")
	}
	if q.Points <= 0 {
		problems = append(problems, "points must be positive")
	}
	if q.TimeLimit <= 0 {
		problems = append(problems, "time limit must be positive")
	}
	return problems
}

// ValidateDraft checks an admin-submitted quiz before it is stored.
func ValidateDraft(q Quiz, minQuestions int, now time.Time) error {
	var problems []string
	if strings.TrimSpace(q.Title) == "" {
		problems = append(problems, "title is empty")
	}
	switch q.Type {
	case QuizFree:
	case QuizPaid:
		if !q.EntryFee.IsPositive() {
			problems = append(problems, "paid quiz needs a positive entry fee")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown quiz type %q", q.Type))
	}
	if q.EntryFee.IsNegative() {
		problems = append(problems, "entry fee is negative")
	}
	for i, prize := range q.PrizeMoney {
		if prize.IsNegative() {
			problems = append(problems, fmt.Sprintf("prize %d is negative", i+1))
		}
	}
	if q.PrizePool.IsNegative() {
		problems = append(problems, "prize pool is negative")
	}
	if q.Duration <= 0 {
		problems = append(problems, "duration must be positive")
	}
	if q.MaxParticipants < 0 {
		problems = append(problems, "max participants is negative")
	}
	if q.StartTime.IsZero() || !q.StartTime.After(now) {
		problems = append(problems, "start time must be in the future")
	}
	if len(q.Questions) < minQuestions {
		problems = append(problems, fmt.Sprintf("quiz must have at least %d questions", minQuestions))
	}
	for i, question := range q.Questions {
		for _, p := range ValidateQuestion(question) {
			problems = append(problems, fmt.Sprintf("question %d: %s", i+1, p))
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// CheckPlayable verifies a stored quiz can drive a session.
func CheckPlayable(q Quiz) error {
	if len(q.Questions) == 0 {
		return ErrNotEnoughQuestions
	}
	for i, question := range q.Questions {
		if problems := ValidateQuestion(question); len(problems) > 0 {
			return &ValidationError{Problems: []string{fmt.Sprintf("question %d: %s", i+1, strings.Join(problems, ", "))}}
		}
	}
	return nil
}
