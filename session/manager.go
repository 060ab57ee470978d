package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrNotFound is returned for an unknown or expired session id
var ErrNotFound = errors.New("session not found")

// Manager creates sessions and expires the idle ones.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	opts     Options
	logger   *slog.Logger
}

// NewManager creates a manager whose sessions expire after ttl without use.
// A zero ttl keeps sessions until they are closed.
func NewManager(logger *slog.Logger, ttl time.Duration, opts Options) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.now == nil {
		opts.now = time.Now
	}
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		opts:     opts,
		logger:   logger,
	}
}

// Create starts a new session.
func (m *Manager) Create() *Session {
	s := New(m.logger, m.opts)

	m.mu.Lock()
	m.sessions[s.ID()] = s
	n := len(m.sessions)
	m.mu.Unlock()

	m.logger.Info("session created", "session", s.ID(), "active", n)
	return s
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok || m.expired(s, m.opts.now()) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	s.touch()
	return s, nil
}

// Close ends a session and drops its tables.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	m.logger.Info("session closed", "session", id)
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Expire drops every session idle for longer than the ttl at now and
// returns how many were dropped.
func (m *Manager) Expire(now time.Time) int {
	if m.ttl <= 0 {
		return 0
	}

	m.mu.Lock()
	var expired []string
	for id, s := range m.sessions {
		if m.expired(s, now) {
			expired = append(expired, id)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, id := range expired {
		m.logger.Info("session expired", "session", id, "ttl", m.ttl)
	}
	return len(expired)
}

func (m *Manager) expired(s *Session, now time.Time) bool {
	return m.ttl > 0 && now.Sub(s.LastUsed()) > m.ttl
}

// Run expires idle sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if m.ttl <= 0 || interval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Expire(m.opts.now())
		}
	}
}
