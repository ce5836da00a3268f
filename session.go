package graft

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jward/graft/internal/transact"
)

// SessionLimits are soft bounds checked at commit time. Zero means
// unbounded. Exceeding a limit fails the commit as a whole with
// ErrSessionLimit; nothing is partially applied.
type SessionLimits struct {
	MaxTransactions int
	MaxSeconds      int
	MaxAIRequests   int
}

// Session owns the transaction queue for one editing episode.
// Concurrent callers staging edits share the queue; application order
// is decided by priority and span, never submission order.
type Session struct {
	id         uuid.UUID
	started    time.Time
	limits     SessionLimits
	queue      *transact.Queue
	aiRequests int
}

func newSession(limits SessionLimits) *Session {
	return &Session{
		id:      uuid.New(),
		started: time.Now(),
		limits:  limits,
		queue:   transact.NewQueue(),
	}
}

func (s *Session) ID() string {
	return s.id.String()
}

// Stage adds one transaction to the queue.
func (s *Session) Stage(tx Transaction) {
	s.queue.Add(tx)
}

// Staged returns the number of queued transactions.
func (s *Session) Staged() int {
	return s.queue.Len()
}

// RecordAIRequest counts one model call against the session's budget.
func (s *Session) RecordAIRequest() {
	s.aiRequests++
}

// Discard drops every staged transaction with no partial effect.
func (s *Session) Discard() {
	s.queue.Discard()
}

// reset starts a fresh episode after a commit.
func (s *Session) reset() {
	s.id = uuid.New()
	s.started = time.Now()
	s.aiRequests = 0
	s.queue.Discard()
}

// checkLimits enforces the soft bounds. Called once per commit.
func (s *Session) checkLimits() error {
	if s.limits.MaxTransactions > 0 && s.queue.Len() > s.limits.MaxTransactions {
		return fmt.Errorf("%d transactions staged, limit %d: %w",
			s.queue.Len(), s.limits.MaxTransactions, ErrSessionLimit)
	}
	if s.limits.MaxSeconds > 0 {
		elapsed := time.Since(s.started)
		if elapsed > time.Duration(s.limits.MaxSeconds)*time.Second {
			return fmt.Errorf("session open %s, limit %ds: %w",
				elapsed.Round(time.Second), s.limits.MaxSeconds, ErrSessionLimit)
		}
	}
	if s.limits.MaxAIRequests > 0 && s.aiRequests > s.limits.MaxAIRequests {
		return fmt.Errorf("%d model requests, limit %d: %w",
			s.aiRequests, s.limits.MaxAIRequests, ErrSessionLimit)
	}
	return nil
}
