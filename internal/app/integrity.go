package app

import "quizzardo-service/internal/domain"

// DefaultViolationLimit is the number of penalized signals that disqualifies a participant.
const DefaultViolationLimit = 3

// IntegrityMonitor counts client integrity signals for one session.
// It is not safe for concurrent use; the owning Session serializes access.
type IntegrityMonitor struct {
	limit      int
	violations int
	blocked    int
	tripped    bool
}

func NewIntegrityMonitor(limit int) *IntegrityMonitor {
	if limit <= 0 {
		limit = DefaultViolationLimit
	}
	return &IntegrityMonitor{limit: limit}
}

// Observe records a signal. disqualify is true only for the violation that reaches the limit.
func (m *IntegrityMonitor) Observe(sig domain.Signal) (penalized, disqualify bool) {
	if !sig.Penalized() {
		m.blocked++
		return false, false
	}
	m.violations++
	if !m.tripped && m.violations >= m.limit {
		m.tripped = true
		return true, true
	}
	return true, false
}

func (m *IntegrityMonitor) Violations() int { return m.violations }

func (m *IntegrityMonitor) Blocked() int { return m.blocked }

func (m *IntegrityMonitor) Limit() int { return m.limit }

// Tripped reports whether the limit has been reached.
func (m *IntegrityMonitor) Tripped() bool { return m.tripped }
