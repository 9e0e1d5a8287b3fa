package viewer

import (
	"context"
	"sync"
	"time"

	"humandetector/internal/logger"
)

// Manager owns the sessions of every connected browser and drops the ones
// that have been idle longer than the TTL.
type Manager struct {
	detector Detector
	observe  Observer
	ttl      time.Duration
	logger   *logger.Logger

	sessions map[string]*Session
	mu       sync.RWMutex
}

func NewManager(detector Detector, observe Observer, ttl time.Duration, logger *logger.Logger) *Manager {
	return &Manager{
		detector: detector,
		observe:  observe,
		ttl:      ttl,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Session returns the session for id, creating it in Idle on first use.
func (m *Manager) Session(id string) *Session {
	m.mu.RLock()
	session, exists := m.sessions[id]
	m.mu.RUnlock()

	if exists {
		session.Touch()
		return session
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if session, exists = m.sessions[id]; exists {
		session.Touch()
		return session
	}

	session = NewSession(id, m.detector, m.observe, m.logger)
	m.sessions[id] = session
	m.logger.Info("Session %s created", id)
	return session
}

// Lookup returns an existing session without creating one.
func (m *Manager) Lookup(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	return session, ok
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep removes sessions unused since now-ttl. Sessions with a run in
// flight are kept. It returns how many were removed.
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, session := range m.sessions {
		lastSeen, busy := session.idleSince()
		if busy || now.Sub(lastSeen) < m.ttl {
			continue
		}
		delete(m.sessions, id)
		removed++
	}
	if removed > 0 {
		m.logger.Info("Expired %d idle sessions, %d remaining", removed, len(m.sessions))
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is done.
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
