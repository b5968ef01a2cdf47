package session

import (
	"context"
	"sync"

	"visionchat/pkg/domain"
)

// MemoryStore keeps the session in-process. Used by tests and as a
// no-persistence mode; state is lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	sess domain.Session
}

// NewMemoryStore initializes an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sess: domain.NewSession()}
}

// Load returns a copy of the current session.
func (m *MemoryStore) Load(_ context.Context) (domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copySession(m.sess), nil
}

// Save replaces the current session.
func (m *MemoryStore) Save(_ context.Context, s domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = copySession(s)
	return nil
}

// Reset replaces the session with an empty one.
func (m *MemoryStore) Reset(ctx context.Context) error {
	return m.Save(ctx, domain.NewSession())
}

func copySession(s domain.Session) domain.Session {
	out := s
	out.Messages = make([]domain.Message, len(s.Messages))
	copy(out.Messages, s.Messages)
	return out
}
