package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuizType distinguishes open quizzes from ones that require an entry fee.
type QuizType string

const (
	QuizFree QuizType = "free"
	QuizPaid QuizType = "paid"
)

// Unanswered marks a question whose timer expired before an option was selected.
const Unanswered = -1

// Question models an MCQ question with exactly one correct option.
type Question struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correctOption"`
	Points        int      `json:"points"`
	TimeLimit     int      `json:"timeLimit"` // seconds
}

// AntiCheat holds per-quiz integrity settings.
type AntiCheat struct {
	TabSwitchLimit int `json:"tabSwitchLimit,omitempty"`
}

// Quiz is a scheduled, timed collection of questions.
type Quiz struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	Description     string            `json:"description,omitempty"`
	Type            QuizType          `json:"type"`
	EntryFee        decimal.Decimal   `json:"entryFee"`
	PrizeMoney      []decimal.Decimal `json:"prizeMoney"`
	PrizePool       decimal.Decimal   `json:"prizePool"`
	Duration        int               `json:"duration"` // minutes
	StartTime       time.Time         `json:"startTime"`
	MaxParticipants int               `json:"maxParticipants,omitempty"`
	Questions       []Question        `json:"questions"`
	TotalPoints     int               `json:"totalPoints"`
	AntiCheat       AntiCheat         `json:"antiCheat"`
	CreatedBy       string            `json:"createdBy,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// SumPoints adds up the points of every question.
func (q Quiz) SumPoints() int {
	total := 0
	for _, question := range q.Questions {
		total += question.Points
	}
	return total
}

// DurationSeconds is the quiz duration expressed in seconds.
func (q Quiz) DurationSeconds() int {
	return q.Duration * 60
}

// QuestionView is a question as shown to a participant, without the answer.
type QuestionView struct {
	Index     int      `json:"index"`
	Text      string   `json:"text"`
	Options   []string `json:"options"`
	Points    int      `json:"points"`
	TimeLimit int      `json:"timeLimit"`
}

// View strips the correct option from a question.
func (q Question) View(index int) QuestionView {
	return QuestionView{
		Index:     index,
		Text:      q.Text,
		Options:   append([]string(nil), q.Options...),
		Points:    q.Points,
		TimeLimit: q.TimeLimit,
	}
}

// QuizView is the public projection of a quiz.
type QuizView struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	Description     string            `json:"description,omitempty"`
	Type            QuizType          `json:"type"`
	EntryFee        decimal.Decimal   `json:"entryFee"`
	PrizeMoney      []decimal.Decimal `json:"prizeMoney"`
	Duration        int               `json:"duration"`
	StartTime       time.Time         `json:"startTime"`
	MaxParticipants int               `json:"maxParticipants,omitempty"`
	Questions       []QuestionView    `json:"questions"`
	TotalPoints     int               `json:"totalPoints"`
}

// View strips answers from every question.
func (q Quiz) View() QuizView {
	questions := make([]QuestionView, 0, len(q.Questions))
	for i, question := range q.Questions {
		questions = append(questions, question.View(i))
	}
	return QuizView{
		ID:              q.ID,
		Title:           q.Title,
		Description:     q.Description,
		Type:            q.Type,
		EntryFee:        q.EntryFee,
		PrizeMoney:      q.PrizeMoney,
		Duration:        q.Duration,
		StartTime:       q.StartTime,
		MaxParticipants: q.MaxParticipants,
		Questions:       questions,
		TotalPoints:     q.TotalPoints,
	}
}

// Identity is the authenticated caller as supplied by the identity provider.
type Identity struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Admin       bool   `json:"admin,omitempty"`
}

// Result is the persisted outcome of one participant's attempt.
type Result struct {
	QuizID       string    `json:"quizId"`
	UserID       string    `json:"userId"`
	UserName     string    `json:"userName"`
	Score        int       `json:"score"`
	TimeSpent    int       `json:"timeSpent"` // seconds
	Disqualified bool      `json:"disqualified"`
	Answers      []int     `json:"answers"`
	CompletedAt  time.Time `json:"completedAt"`
}

// LeaderboardEntry is a ranked view of a result.
type LeaderboardEntry struct {
	UserID       string          `json:"userId"`
	UserName     string          `json:"userName"`
	Score        int             `json:"score"`
	TimeSpent    int             `json:"timeSpent"`
	Rank         int             `json:"rank"`
	Prize        decimal.Decimal `json:"prize"`
	Disqualified bool            `json:"disqualified,omitempty"`
}

// Leaderboard captures the ordered scoreboard for a quiz.
type Leaderboard struct {
	QuizID    string             `json:"quizId"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// SessionStatus is the lifecycle state of one attempt.
type SessionStatus string

const (
	StatusWaiting SessionStatus = "waiting"
	StatusStarted SessionStatus = "started"
	StatusEnded   SessionStatus = "ended"
)

// EndReason says why a session ended.
type EndReason string

const (
	EndCompleted    EndReason = "completed"
	EndDisqualified EndReason = "disqualified"
	EndAbandoned    EndReason = "abandoned"
)

// Signal is an integrity event reported by the participant's client.
type Signal string

const (
	SignalVisibilityLost   Signal = "visibility_lost"
	SignalFullscreenExited Signal = "fullscreen_exited"
	SignalContextMenu      Signal = "context_menu"
	SignalShortcutKey      Signal = "shortcut_key"
)

// Penalized reports whether the signal counts as a violation.
func (s Signal) Penalized() bool {
	return s == SignalVisibilityLost || s == SignalFullscreenExited
}

// Known reports whether the signal is one the monitor understands.
func (s Signal) Known() bool {
	switch s {
	case SignalVisibilityLost, SignalFullscreenExited, SignalContextMenu, SignalShortcutKey:
		return true
	}
	return false
}

// SessionState is a point-in-time snapshot of a session.
type SessionState struct {
	SessionID      string        `json:"sessionId"`
	QuizID         string        `json:"quizId"`
	UserID         string        `json:"userId"`
	Status         SessionStatus `json:"status"`
	QuestionIndex  int           `json:"questionIndex"`
	TotalQuestions int           `json:"totalQuestions"`
	Question       *QuestionView `json:"question,omitempty"`
	Remaining      int           `json:"remaining"`
	StartsIn       int           `json:"startsIn"`
	Score          int           `json:"score"`
	TotalPoints    int           `json:"totalPoints"`
	Answers        []int         `json:"answers"`
	Violations     int           `json:"violations"`
	Blocked        int           `json:"blocked"`
	Disqualified   bool          `json:"disqualified"`
	EndReason      EndReason     `json:"endReason,omitempty"`
	Result         *Result       `json:"result,omitempty"`
	SaveError      string        `json:"saveError,omitempty"`
}

// AnswerOutcome summarizes the effect of one answer submission.
type AnswerOutcome struct {
	QuestionIndex int  `json:"questionIndex"`
	Accepted      bool `json:"accepted"`
	Correct       bool `json:"correct"`
	Awarded       int  `json:"awarded"`
	TotalScore    int  `json:"totalScore"`
	CorrectOption int  `json:"correctOption"`
}

// SignalOutcome summarizes the effect of one integrity signal.
type SignalOutcome struct {
	Signal       Signal `json:"signal"`
	Penalized    bool   `json:"penalized"`
	Violations   int    `json:"violations"`
	Limit        int    `json:"limit"`
	Disqualified bool   `json:"disqualified"`
}

// EventType names the messages a session pushes to its owner.
type EventType string

const (
	EventQuestion    EventType = "question"
	EventTick        EventType = "tick"
	EventAnswer      EventType = "answerResult"
	EventViolation   EventType = "violation"
	EventEnded       EventType = "ended"
	EventResultSaved EventType = "resultSaved"
	EventSaveFailed  EventType = "saveFailed"
)

// SessionEvent is a typed notification emitted by a session.
type SessionEvent struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

// TickPayload carries the remaining seconds of the current question.
type TickPayload struct {
	QuestionIndex int `json:"questionIndex"`
	Remaining     int `json:"remaining"`
}
