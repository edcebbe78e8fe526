package app

import "quizzardo-service/internal/domain"

// Scorecard accumulates points and the selected option per question.
type Scorecard struct {
	questions []domain.Question
	score     int
	answers   []int
}

func NewScorecard(questions []domain.Question) *Scorecard {
	return &Scorecard{
		questions: questions,
		answers:   make([]int, 0, len(questions)),
	}
}

// Record stores the answer for question index. ok is false when that question already
// has an entry or is not the next one to be answered.
func (c *Scorecard) Record(index, selected int) (correct bool, awarded int, ok bool) {
	if index != len(c.answers) || index >= len(c.questions) {
		return false, 0, false
	}
	c.answers = append(c.answers, selected)
	q := c.questions[index]
	if selected == q.CorrectOption {
		c.score += q.Points
		return true, q.Points, true
	}
	return false, 0, true
}

// RecordUnanswered stores the unanswered sentinel for question index.
func (c *Scorecard) RecordUnanswered(index int) bool {
	_, _, ok := c.Record(index, domain.Unanswered)
	return ok
}

// Answered reports whether question index has an entry.
func (c *Scorecard) Answered(index int) bool {
	return index < len(c.answers)
}

// Forfeit zeroes the score.
func (c *Scorecard) Forfeit() {
	c.score = 0
}

func (c *Scorecard) Score() int { return c.score }

// Answers returns a copy of the per-question entries, never nil.
func (c *Scorecard) Answers() []int {
	answers := make([]int, len(c.answers))
	copy(answers, c.answers)
	return answers
}
