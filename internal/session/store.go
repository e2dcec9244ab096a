package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/danielpatrickdp/motion-safety/internal/alert"
)

// #region types

// Summary counts the alerts accumulated in one session.
type Summary struct {
	TotalAlerts   int            `json:"total_alerts"`
	BySeverity    map[string]int `json:"by_severity"`
	ByType        map[string]int `json:"by_type"`
	CriticalCount int            `json:"critical_count"` // CRITICAL + EMERGENCY
}

// Persister is the log side of Flush.
type Persister interface {
	Append(ctx context.Context, a alert.Alert) error
}

// #endregion types

// #region store

// Store holds the alerts of the current monitoring run, in generation order.
type Store struct {
	mu      sync.Mutex
	alerts  []alert.Alert
	flushed int // alerts[:flushed] already considered by Flush
}

// NewStore creates an empty session.
func NewStore() *Store {
	return &Store{}
}

// Append implements alert.SessionAppender.
func (s *Store) Append(a alert.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, a)
}

// Clear discards every alert. Alerts not yet flushed are lost.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = nil
	s.flushed = 0
}

// Alerts returns a copy of the session in generation order.
func (s *Store) Alerts() []alert.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]alert.Alert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

// Len returns the number of alerts in the session.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.alerts)
}

// Summarize counts the session by severity and type.
func (s *Store) Summarize() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := Summary{
		TotalAlerts: len(s.alerts),
		BySeverity:  map[string]int{},
		ByType:      map[string]int{},
	}
	for _, a := range s.alerts {
		sum.BySeverity[a.Severity.String()]++
		sum.ByType[string(a.Type)]++
		if a.Severity.AutoPersist() {
			sum.CriticalCount++
		}
	}
	return sum
}

// Flush persists the alerts that were not auto-persisted at generation time
// (severity below CRITICAL) and have not been flushed before. It stops at the
// first failure; a later Flush resumes from the failed alert.
func (s *Store) Flush(ctx context.Context, p Persister) (int, error) {
	if p == nil {
		return 0, errors.New("flush: no persistence log")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	written := 0
	for s.flushed < len(s.alerts) {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		a := s.alerts[s.flushed]
		if !a.Severity.AutoPersist() {
			if err := p.Append(ctx, a); err != nil {
				return written, fmt.Errorf("flush alert %d: %w", s.flushed, err)
			}
			written++
		}
		s.flushed++
	}
	return written, nil
}

// #endregion store
