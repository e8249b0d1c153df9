package stockle

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"stockle-bot/internal/model"
)

// Store holds at most one game per user.
// Implementations must make Update atomic and must never keep a session
// whose status is terminal.
type Store interface {
	// Create starts a session for userID. Fails with ErrAlreadyActive.
	Create(userID int64, answer model.TickerInfo) (Session, error)
	// Get returns a copy of the user's session. Fails with ErrNoActiveGame.
	Get(userID int64) (Session, error)
	// Update applies fn to the user's session and commits the result when fn
	// returns nil. A session left in a terminal status is removed instead of
	// being stored. Fails with ErrNoActiveGame.
	Update(userID int64, fn func(s *Session) error) (Session, error)
	// Remove deletes the user's session. Removing a missing session is a no-op.
	Remove(userID int64)
	// Len returns the number of active sessions.
	Len() int
	// Sweep removes sessions idle since before cutoff and returns how many.
	Sweep(cutoff time.Time) int
}

// MemoryStore is an in-process Store. State does not survive a restart.
type MemoryStore struct {
	sessions map[int64]*Session
	mu       sync.RWMutex
	now      func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[int64]*Session),
		now:      time.Now,
	}
}

// Create starts a session for userID.
func (m *MemoryStore) Create(userID int64, answer model.TickerInfo) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[userID]; exists {
		return Session{}, ErrAlreadyActive
	}

	now := m.now()
	s := &Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		Answer:       answer,
		Status:       InProgress,
		StartedAt:    now,
		LastActivity: now,
	}
	m.sessions[userID] = s
	return s.clone(), nil
}

// Get returns a copy of the user's session.
func (m *MemoryStore) Get(userID int64) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[userID]
	if !ok {
		return Session{}, ErrNoActiveGame
	}
	return s.clone(), nil
}

// Update applies fn to a copy of the user's session and commits it on success.
func (m *MemoryStore) Update(userID int64, fn func(s *Session) error) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.sessions[userID]
	if !ok {
		return Session{}, ErrNoActiveGame
	}

	next := current.clone()
	if err := fn(&next); err != nil {
		return Session{}, err
	}
	next.LastActivity = m.now()

	if next.Status.Terminal() {
		delete(m.sessions, userID)
	} else {
		m.sessions[userID] = &next
	}
	return next.clone(), nil
}

// Remove deletes the user's session if present.
func (m *MemoryStore) Remove(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// Len returns the number of active sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep removes sessions whose last activity is before cutoff.
func (m *MemoryStore) Sweep(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for userID, s := range m.sessions {
		if s.LastActivity.Before(cutoff) {
			delete(m.sessions, userID)
			removed++
		}
	}
	return removed
}
