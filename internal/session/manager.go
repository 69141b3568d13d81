// Package session keeps the opaque user identity bound to a browser session.
// Sessions live in process memory only.
package session

import (
	"context"
	"sync"
	"time"

	"grouprank/domain/core"
	"grouprank/internal"
)

type entry struct {
	userID    core.UserID
	expiresAt time.Time
}

// Manager maps session ids to user ids with a sliding expiry.
type Manager struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]entry
	ttl      time.Duration
	now      func() time.Time
	logger   *internal.Logger
}

// NewManager creates a manager whose sessions expire ttl after their last write.
func NewManager(ttl time.Duration, logger *internal.Logger) *Manager {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Manager{
		sessions: make(map[core.SessionID]entry),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

// TTL returns the configured lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// SetUser binds userID to the session.
func (m *Manager) SetUser(id core.SessionID, userID core.UserID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = entry{userID: userID, expiresAt: m.now().Add(m.ttl)}
}

// User returns the user bound to the session, if any and not expired.
func (m *Manager) User(id core.SessionID) (core.UserID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[id]
	if !ok || !m.now().Before(e.expiresAt) {
		return "", false
	}
	return e.userID, true
}

// Clear forgets the session.
func (m *Manager) Clear(id core.SessionID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Len returns the number of stored sessions, expired ones included.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops expired sessions and returns how many were removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for id, e := range m.sessions {
		if !now.Before(e.expiresAt) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Debug("[Session] Swept %d expired sessions", n)
			}
		}
	}
}
