package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	apperrors "rentawheel/pkg/errors"
	httputil "rentawheel/pkg/http"
	"rentawheel/pkg/logger"
	"rentawheel/pkg/middleware"
	"rentawheel/pkg/model"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
)

type Manager struct {
	store  Store
	tokens *TokenService
	ttl    time.Duration
	log    *logger.Logger
	now    func() time.Time

	mu      sync.Mutex
	locks   map[string]*sync.Mutex
	expires map[string]time.Time
	onEnd   []func(sessionID string)

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewManager(store Store, tokens *TokenService, ttl time.Duration, log *logger.Logger) *Manager {
	return &Manager{
		store:   store,
		tokens:  tokens,
		ttl:     ttl,
		log:     log,
		now:     time.Now,
		locks:   make(map[string]*sync.Mutex),
		expires: make(map[string]time.Time),
		stopCh:  make(chan struct{}),
	}
}

// OnEnd registers a hook run after a session is destroyed.
func (m *Manager) OnEnd(fn func(sessionID string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEnd = append(m.onEnd, fn)
}

// StartCustomer opens a session for a customer and returns its bearer token.
func (m *Manager) StartCustomer(ctx context.Context, customer model.Customer) (*Session, string, error) {
	return m.start(ctx, &Session{Role: RoleCustomer, Customer: &customer})
}

func (m *Manager) StartEmployee(ctx context.Context, employee model.Employee) (*Session, string, error) {
	return m.start(ctx, &Session{Role: RoleEmployee, Employee: &employee})
}

func (m *Manager) start(ctx context.Context, s *Session) (*Session, string, error) {
	now := m.now().UTC()
	s.ID = uuid.NewString()
	s.CreatedAt = now
	s.ExpiresAt = now.Add(m.ttl)

	token, err := m.tokens.Issue(s.ID, s.Role, s.ExpiresAt)
	if err != nil {
		return nil, "", apperrors.Internal("Failed to start session", err)
	}
	if err := m.store.Create(ctx, s); err != nil {
		m.log.Error("Failed to store session", "error", err)
		return nil, "", apperrors.Internal("Failed to start session", err)
	}

	m.track(s.ID, s.ExpiresAt)
	m.log.Info("Session started", "session_id", s.ID, "role", s.Role)
	return s, token, nil
}

// Resolve validates a bearer token and loads its session.
func (m *Manager) Resolve(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, apperrors.Unauthorized("Please log in")
	}
	claims, err := m.tokens.Parse(token)
	if err != nil {
		if errors.Is(err, ErrExpiredToken) {
			m.expire(ctx, claims.ID)
			return nil, apperrors.Unauthorized("Your session has expired. Please log in again.")
		}
		return nil, apperrors.Unauthorized("Please log in")
	}

	s, err := m.store.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			m.release(claims.ID)
			return nil, apperrors.Unauthorized("Your session has expired. Please log in again.")
		}
		m.log.Error("Failed to load session", "session_id", claims.ID, "error", err)
		return nil, apperrors.Internal("Failed to load session", err)
	}
	if s.Role != claims.Role {
		return nil, apperrors.Unauthorized("Please log in")
	}
	m.track(s.ID, s.ExpiresAt)
	return s, nil
}

// End destroys the session and runs the registered hooks.
func (m *Manager) End(ctx context.Context, sessionID string) error {
	if err := m.store.Delete(ctx, sessionID); err != nil {
		m.log.Error("Failed to delete session", "session_id", sessionID, "error", err)
		return apperrors.Internal("Failed to end session", err)
	}

	m.release(sessionID)
	m.log.Info("Session ended", "session_id", sessionID)
	return nil
}

// track records when a session served by this process expires so the
// sweeper can release its per-process state.
func (m *Manager) track(sessionID string, expiresAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expires[sessionID] = expiresAt
}

func (m *Manager) expire(ctx context.Context, sessionID string) {
	if err := m.store.Delete(ctx, sessionID); err != nil {
		m.log.Warn("Failed to delete expired session", "session_id", sessionID, "error", err)
	}
	m.release(sessionID)
}

// release drops the per-process state of a session that is gone from the
// store and runs the end hooks.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	delete(m.locks, sessionID)
	delete(m.expires, sessionID)
	hooks := append([]func(string){}, m.onEnd...)
	m.mu.Unlock()

	for _, hook := range hooks {
		hook(sessionID)
	}
}

// expiredSweeper is implemented by stores that do not expire sessions on
// their own.
type expiredSweeper interface {
	DeleteExpired(now time.Time) []string
}

// Sweep removes every session that expired before now, releases its
// per-process state and returns how many were released.
func (m *Manager) Sweep(ctx context.Context) int {
	now := m.now()

	m.mu.Lock()
	var expired []string
	for id, expiresAt := range m.expires {
		if !now.Before(expiresAt) {
			expired = append(expired, id)
		}
	}
	m.mu.Unlock()

	if sweeper, ok := m.store.(expiredSweeper); ok {
		expired = append(expired, sweeper.DeleteExpired(now)...)
	}

	seen := make(map[string]bool, len(expired))
	for _, id := range expired {
		if seen[id] {
			continue
		}
		seen[id] = true
		m.expire(ctx, id)
	}
	if len(seen) > 0 {
		m.log.Info("Expired sessions released", "count", len(seen))
	}
	return len(seen)
}

// StartSweeper runs Sweep every interval until Stop is called.
func (m *Manager) StartSweeper(interval time.Duration) {
	go m.sweep(interval)
}

func (m *Manager) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sweep(context.Background())
		case <-m.stopCh:
			return
		}
	}
}

func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Manager) SaveCheckout(ctx context.Context, sessionID string, checkout *model.CheckoutSession) error {
	if err := m.store.SaveCheckout(ctx, sessionID, checkout); err != nil {
		if errors.Is(err, ErrStaleCheckout) {
			m.log.Debug("Newer checkout state already saved", "session_id", sessionID, "version", checkout.Version)
			return nil
		}
		m.log.Error("Failed to save checkout state", "session_id", sessionID, "error", err)
		return apperrors.Internal("Failed to save checkout state", err)
	}
	return nil
}

func (m *Manager) SaveEdit(ctx context.Context, sessionID string, edit *model.EditSession) error {
	if err := m.store.SaveEdit(ctx, sessionID, edit); err != nil {
		m.log.Error("Failed to save edit state", "session_id", sessionID, "error", err)
		return apperrors.Internal("Failed to save edit state", err)
	}
	return nil
}

// TryLock claims the session for one action without waiting. The caller
// must call unlock when ok is true.
func (m *Manager) TryLock(sessionID string) (unlock func(), ok bool) {
	m.mu.Lock()
	lock, exists := m.locks[sessionID]
	if !exists {
		lock = &sync.Mutex{}
		m.locks[sessionID] = lock
	}
	m.mu.Unlock()

	if !lock.TryLock() {
		return nil, false
	}
	return lock.Unlock, true
}

// Require wraps next so it only runs for a valid session of the given role.
// An empty role admits any logged-in user.
func (m *Manager) Require(role Role, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		s, err := m.Resolve(r.Context(), middleware.BearerToken(r))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		if role != "" && s.Role != role {
			m.log.Warn("Role not permitted",
				"request_id", middleware.GetRequestID(r.Context()),
				"session_id", s.ID,
				"role", s.Role,
				"required", role,
				"path", r.URL.Path,
			)
			httputil.WriteError(w, apperrors.Forbidden("You do not have access to this page"))
			return
		}
		next(w, r.WithContext(WithSession(r.Context(), s)), ps)
	}
}
