package usecase

import (
	"context"
	"sync"

	"github.com/flowdeck-dev/flowdeck/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// SessionManager holds the live sessions, one per session ID. Sessions
// are created on open and dropped on close; there is no process-wide
// singleton session.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[types.SessionID]*Session
	factory  func(ctx context.Context, id types.SessionID, eventID types.EventID) *Session
}

func newSessionManager(factory func(ctx context.Context, id types.SessionID, eventID types.EventID) *Session) *SessionManager {
	return &SessionManager{
		sessions: make(map[types.SessionID]*Session),
		factory:  factory,
	}
}

// Open returns the session for the ID, creating and starting it on first
// open. Reopening an existing session with a different event is an error.
func (m *SessionManager) Open(ctx context.Context, id types.SessionID, eventID types.EventID) (*Session, error) {
	if id == "" {
		return nil, goerr.New("session ID is required")
	}
	if err := eventID.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		if s.EventID() != eventID {
			return nil, goerr.New("session is bound to another event",
				goerr.V("sessionID", id),
				goerr.V("boundEventID", s.EventID()),
				goerr.V("requestedEventID", eventID),
			)
		}
		return s, nil
	}

	s := m.factory(ctx, id, eventID)
	m.sessions[id] = s
	s.Start()
	return s, nil
}

// Get returns an open session by ID
func (m *SessionManager) Get(id types.SessionID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, goerr.Wrap(ErrSessionNotFound, "unknown session", goerr.V("sessionID", id))
	}
	return s, nil
}

// Close closes and drops the session. Closing an unknown session is an
// error so callers notice double closes.
func (m *SessionManager) Close(id types.SessionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return goerr.Wrap(ErrSessionNotFound, "unknown session", goerr.V("sessionID", id))
	}
	s.Close()
	delete(m.sessions, id)
	return nil
}

// CloseAll closes every open session, used on server shutdown
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range m.sessions {
		s.Close()
		delete(m.sessions, id)
	}
}
