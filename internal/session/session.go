package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// View is the page a session is currently on. The machine is cyclic:
// there is no terminal view.
type View string

const (
	ViewLogin         View = "login"
	ViewSignup        View = "signup"
	ViewForgot        View = "forgot"
	ViewAuthenticated View = "authenticated"
)

// ValidView reports whether v names a known view.
func ValidView(v View) bool {
	switch v {
	case ViewLogin, ViewSignup, ViewForgot, ViewAuthenticated:
		return true
	}
	return false
}

var (
	// ErrNotFound signals an unknown session id.
	ErrNotFound = errors.New("session: not found")
	// ErrExpired signals that the inactivity timeout elapsed. The
	// session has already been hard-reset to the login view with no
	// user by the time callers see this.
	ErrExpired = errors.New("session: expired")
	// ErrBadTransition signals a navigation the machine does not allow.
	ErrBadTransition = errors.New("session: transition not allowed")
	// ErrWrongView signals an operation attempted from a view that does
	// not offer it.
	ErrWrongView = errors.New("session: operation not available from current view")
)

// Principal identifies the user bound to an authenticated session.
type Principal struct {
	Phone string
	Name  string
	Role  string
}

// Session is per-connection state: who is logged in, which view is
// active, and when the client last interacted.
type Session struct {
	ID         string
	User       *Principal
	View       View
	LastActive time.Time
}

// navigable lists the explicit user-action transitions. Authentication
// and logout go through Authenticate/Logout, not Navigate.
var navigable = map[View][]View{
	ViewLogin:         {ViewSignup, ViewForgot},
	ViewSignup:        {ViewLogin},
	ViewForgot:        {ViewLogin},
	ViewAuthenticated: {},
}

// Manager owns every live session. Each interaction goes through a
// touch that compares idle time against the timeout: once exceeded,
// the session is cleared back to {no user, login} unconditionally.
type Manager struct {
	timeout time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a Manager with the given inactivity timeout.
func NewManager(timeout time.Duration) *Manager {
	return &Manager{
		timeout:  timeout,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Start creates a new anonymous session on the login view.
func (m *Manager) Start() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &Session{
		ID:         uuid.NewString(),
		View:       ViewLogin,
		LastActive: m.now(),
	}
	m.sessions[s.ID] = s
	return *s
}

// Get touches the session and returns a snapshot of it. ErrExpired
// still returns the (reset) snapshot so callers can show the login
// view.
func (m *Manager) Get(id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.touch(id)
	if s == nil {
		return Session{}, err
	}
	return *s, err
}

// Require touches the session and additionally checks that its view is
// one of views, failing with ErrWrongView otherwise.
func (m *Manager) Require(id string, views ...View) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.touch(id)
	if err != nil {
		if s == nil {
			return Session{}, err
		}
		return *s, err
	}
	for _, v := range views {
		if s.View == v {
			return *s, nil
		}
	}
	return *s, fmt.Errorf("%w: on %s", ErrWrongView, s.View)
}

// Navigate applies an explicit view change: login -> signup, login ->
// forgot, and back to login from either.
func (m *Manager) Navigate(id string, target View) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.touch(id)
	if err != nil {
		if s == nil {
			return Session{}, err
		}
		return *s, err
	}
	for _, v := range navigable[s.View] {
		if v == target {
			s.View = target
			return *s, nil
		}
	}
	return *s, fmt.Errorf("%w: %s -> %s", ErrBadTransition, s.View, target)
}

// Authenticate binds a user to the session and moves it to the
// authenticated view. Reachable from any pre-auth view, covering both
// plain login and signup-then-login.
func (m *Manager) Authenticate(id string, p Principal) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.touch(id)
	if err != nil {
		if s == nil {
			return Session{}, err
		}
		return *s, err
	}
	if s.View == ViewAuthenticated {
		return *s, fmt.Errorf("%w: already authenticated", ErrBadTransition)
	}
	user := p
	s.User = &user
	s.View = ViewAuthenticated
	return *s, nil
}

// Logout clears the bound user and returns the session to the login
// view. Safe to call from any state.
func (m *Manager) Logout(id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.touch(id)
	if err != nil {
		if s == nil {
			return Session{}, err
		}
		return *s, err
	}
	s.User = nil
	s.View = ViewLogin
	return *s, nil
}

// touch enforces the inactivity timeout and advances LastActive. Must
// be called with the manager lock held. On expiry the session is reset
// in place, not deleted: the client keeps its id and lands on login.
func (m *Manager) touch(id string) (*Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	now := m.now()
	if now.Sub(s.LastActive) > m.timeout {
		s.User = nil
		s.View = ViewLogin
		s.LastActive = now
		return s, ErrExpired
	}
	s.LastActive = now
	return s, nil
}
