package memory

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/foodhub/internal/domain/product"
	"github.com/xenking/foodhub/internal/domain/session"
)

var (
	// ErrSessionNotFound is returned for unknown or expired session ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionLimit is returned by Create when the store is full.
	ErrSessionLimit = errors.New("too many active sessions")
)

// SessionConfig configures a SessionStore.
type SessionConfig struct {
	// TTL is how long an untouched session is kept.
	TTL time.Duration
	// Limit caps the number of live sessions. Zero means unlimited.
	Limit int
	// Options are applied to every new session state.
	Options []session.Option
}

type sessionEntry struct {
	state    session.State
	lastSeen time.Time
}

// SessionStore keeps session snapshots in memory. Updates are applied
// atomically: a reducer sees the latest snapshot and its result replaces it
// only when it returns no error.
type SessionStore struct {
	cfg SessionConfig
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

// NewSessionStore returns an empty store.
func NewSessionStore(cfg SessionConfig) *SessionStore {
	return &SessionStore{
		cfg:      cfg,
		now:      time.Now,
		sessions: make(map[string]*sessionEntry),
	}
}

// Create starts a new session over catalog and returns its initial state.
func (s *SessionStore) Create(_ context.Context, catalog []product.Product) (session.State, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.Limit > 0 && len(s.sessions) >= s.cfg.Limit {
		s.evictLocked(now)
		if len(s.sessions) >= s.cfg.Limit {
			return session.State{}, ErrSessionLimit
		}
	}

	st := session.New(uuid.New().String(), catalog, now, s.cfg.Options...)
	s.sessions[st.ID()] = &sessionEntry{state: st, lastSeen: now}
	return st, nil
}

// Get returns the current snapshot of session id.
func (s *SessionStore) Get(_ context.Context, id string) (session.State, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookupLocked(id, now)
	if err != nil {
		return session.State{}, err
	}
	e.lastSeen = now
	return e.state, nil
}

// Update applies fn to the current snapshot of session id and stores the
// result. If fn fails the stored snapshot is left untouched.
func (s *SessionStore) Update(_ context.Context, id string, fn func(session.State) (session.State, error)) (session.State, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookupLocked(id, now)
	if err != nil {
		return session.State{}, err
	}
	next, err := fn(e.state)
	if err != nil {
		return e.state, err
	}
	e.state = next
	e.lastSeen = now
	return next, nil
}

// Delete removes session id. Deleting an unknown id is a no-op.
func (s *SessionStore) Delete(_ context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of stored sessions, including expired ones not yet
// evicted.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionStore) lookupLocked(id string, now time.Time) (*sessionEntry, error) {
	e, ok := s.sessions[id]
	if !ok {
		return nil, errors.Wrapf(ErrSessionNotFound, "session %q", id)
	}
	if s.expired(e, now) {
		delete(s.sessions, id)
		return nil, errors.Wrapf(ErrSessionNotFound, "session %q expired", id)
	}
	return e, nil
}

func (s *SessionStore) expired(e *sessionEntry, now time.Time) bool {
	return s.cfg.TTL > 0 && now.Sub(e.lastSeen) >= s.cfg.TTL
}

// evictLocked removes expired sessions and returns how many were removed.
func (s *SessionStore) evictLocked(now time.Time) int {
	n := 0
	for id, e := range s.sessions {
		if s.expired(e, now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Cleanup removes expired sessions.
func (s *SessionStore) Cleanup() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evictLocked(now)
}

// RunCleanup evicts expired sessions every interval until ctx is done.
func (s *SessionStore) RunCleanup(ctx context.Context, lg *zap.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Cleanup(); n > 0 {
				lg.Debug("Evicted idle sessions", zap.Int("count", n))
			}
		}
	}
}
