package session

import (
	"context"
	"sync"
	"time"

	"rentawheel/pkg/model"
)

// Store persists sessions. Checkout and edit state are written separately so
// that concurrent actions on one session do not overwrite each other.
// SaveCheckout only replaces a stored checkout with a higher version and
// returns ErrStaleCheckout otherwise; a nil checkout always clears it.
type Store interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	SaveCheckout(ctx context.Context, id string, checkout *model.CheckoutSession) error
	SaveEdit(ctx context.Context, id string, edit *model.EditSession) error
	Delete(ctx context.Context, id string) error
}

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

func (m *MemoryStore) Create(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s.clone()
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !m.now().Before(s.ExpiresAt) {
		delete(m.sessions, id)
		return nil, ErrNotFound
	}
	return s.clone(), nil
}

func (m *MemoryStore) SaveCheckout(_ context.Context, id string, checkout *model.CheckoutSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	if checkout == nil {
		s.Checkout = nil
		return nil
	}
	if s.Checkout != nil && checkout.Version <= s.Checkout.Version {
		return ErrStaleCheckout
	}
	c := *checkout
	s.Checkout = &c
	return nil
}

func (m *MemoryStore) SaveEdit(_ context.Context, id string, edit *model.EditSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	if edit == nil {
		s.Edit = nil
		return nil
	}
	e := *edit
	s.Edit = &e
	return nil
}

// DeleteExpired removes sessions that expired before now and returns their
// ids.
func (m *MemoryStore) DeleteExpired(now time.Time) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []string
	for id, s := range m.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(m.sessions, id)
			ids = append(ids, id)
		}
	}
	return ids
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
