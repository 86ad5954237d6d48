package agent

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Manager hands out one Session per session ID and expires sessions that
// stay parked on a pending invocation past the TTL.
type Manager struct {
	gw     Gateway
	ttl    time.Duration
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a manager. Sessions parked in AwaitingResult longer
// than ttl are reset to Idle by Sweep; a zero ttl disables expiry.
func NewManager(gw Gateway, ttl time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		gw:       gw,
		ttl:      ttl,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Session returns the session for id, creating it on first use.
func (m *Manager) Session(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		s = NewSession(id, m.gw)
		m.sessions[id] = s
	}
	return s
}

// StartTurn runs a new turn on the named session.
func (m *Manager) StartTurn(ctx context.Context, sessionID, prompt string) (TurnResult, error) {
	return m.Session(sessionID).StartTurn(ctx, prompt)
}

// ResumeTurn completes a pending invocation on the named session.
func (m *Manager) ResumeTurn(ctx context.Context, sessionID string, res Result) (TurnResult, error) {
	return m.Session(sessionID).ResumeTurn(ctx, res)
}

// Sweep expires sessions parked since before now minus the TTL and returns
// how many it reset.
func (m *Manager) Sweep(now time.Time) int {
	if m.ttl <= 0 {
		return 0
	}
	cutoff := now.Add(-m.ttl)
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	var n int
	for _, s := range sessions {
		if s.expireIfParkedBefore(cutoff) {
			m.logger.Info("expired pending invocation", "session_id", s.ID())
			n++
		}
	}
	return n
}

// Run sweeps on the given interval until the context is canceled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.Sweep(now)
		}
	}
}
