// Package session holds the signed-in user and the token pair, and keeps
// the tokens in durable credential storage.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/nhle/civic-dashboard/internal/credential"
	"github.com/nhle/civic-dashboard/internal/model"
)

// State is a snapshot of the session.
type State struct {
	User         *model.User
	Token        string
	RefreshToken string

	IsAuthenticated bool

	// IsLoading is set while the profile of a restored session is fetched.
	IsLoading bool

	Err string
}

// Role returns the signed-in user's role, or "" when there is no user.
func (s State) Role() model.Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

// Can returns the capabilities of the signed-in user. A session without a
// user has none.
func (s State) Can() model.Capabilities {
	return s.Role().Capabilities()
}

// Manager is the single writer of session state. Every method is safe for
// concurrent use.
type Manager struct {
	store credential.Store
	log   logrus.FieldLogger

	mu      sync.RWMutex
	state   State
	subs    map[int]func(State)
	nextSub int
}

// New returns a logged-out manager backed by store.
func New(store credential.Store, log logrus.FieldLogger) *Manager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Manager{
		store: store,
		log:   log.WithField("component", "session"),
		subs:  make(map[int]func(State)),
	}
}

// Initialize loads a persisted token pair. With a token present the session
// is treated as authenticated and loading until Bootstrap resolves it.
func (m *Manager) Initialize() error {
	token, err := m.load(credential.KeyToken)
	if err != nil {
		return err
	}
	refresh, err := m.load(credential.KeyRefreshToken)
	if err != nil {
		return err
	}

	m.update(func(s *State) {
		*s = State{}
		if token != "" {
			s.Token = token
			s.RefreshToken = refresh
			s.IsAuthenticated = true
			s.IsLoading = true
		}
	})
	return nil
}

func (m *Manager) load(key string) (string, error) {
	v, err := m.store.Get(key)
	if err == credential.ErrNotFound {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("loading %s: %w", key, err)
	}
	return v, nil
}

// SetCredentials records a new token pair and persists it. A nil user keeps
// the current one.
func (m *Manager) SetCredentials(user *model.User, token, refreshToken string) error {
	m.update(func(s *State) {
		if user != nil {
			u := *user
			s.User = &u
		}
		s.Token = token
		s.RefreshToken = refreshToken
		s.IsAuthenticated = true
		s.Err = ""
	})

	if err := m.store.Set(credential.KeyToken, token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	if err := m.store.Set(credential.KeyRefreshToken, refreshToken); err != nil {
		return fmt.Errorf("saving refresh token: %w", err)
	}
	return nil
}

// SetUser records the fetched profile and ends loading.
func (m *Manager) SetUser(user model.User) {
	m.update(func(s *State) {
		s.User = &user
		s.IsLoading = false
	})
}

// UpdateUser merges patch into the current user. It does nothing when no
// user is set.
func (m *Manager) UpdateUser(patch model.UserPatch) {
	m.update(func(s *State) {
		if s.User == nil {
			return
		}
		u := s.User.Merge(patch)
		s.User = &u
	})
}

func (m *Manager) SetLoading(loading bool) {
	m.update(func(s *State) { s.IsLoading = loading })
}

func (m *Manager) SetError(msg string) {
	m.update(func(s *State) { s.Err = msg })
}

// Logout clears the session and the persisted tokens.
func (m *Manager) Logout() error {
	m.update(func(s *State) { *s = State{} })

	if err := m.store.Delete(credential.KeyToken); err != nil {
		return fmt.Errorf("deleting token: %w", err)
	}
	if err := m.store.Delete(credential.KeyRefreshToken); err != nil {
		return fmt.Errorf("deleting refresh token: %w", err)
	}
	m.log.Info("logged out")
	return nil
}

// Tokens returns the current token pair.
func (m *Manager) Tokens() (token, refreshToken string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Token, m.state.RefreshToken
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyState(m.state)
}

// Subscribe calls fn with every new state until the returned func is
// called. fn runs on the goroutine that changed the state and must not call
// back into the manager.
func (m *Manager) Subscribe(fn func(State)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

func (m *Manager) update(fn func(*State)) {
	m.mu.Lock()
	fn(&m.state)
	snap := copyState(m.state)
	subs := make([]func(State), 0, len(m.subs))
	for _, s := range m.subs {
		subs = append(subs, s)
	}
	m.mu.Unlock()

	for _, s := range subs {
		s(snap)
	}
}

func copyState(s State) State {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// ProfileFetcher loads the signed-in user's profile.
type ProfileFetcher interface {
	Me(ctx context.Context) (model.User, error)
}

// Bootstrap resolves a restored session. Without a token it does nothing.
// Otherwise it fetches the profile; any failure logs the user out and is
// returned for reporting.
func (m *Manager) Bootstrap(ctx context.Context, profiles ProfileFetcher) error {
	if token, _ := m.Tokens(); token == "" {
		m.SetLoading(false)
		return nil
	}

	user, err := profiles.Me(ctx)
	if err != nil {
		m.log.WithError(err).Warn("profile fetch failed, logging out")
		if lerr := m.Logout(); lerr != nil {
			m.log.WithError(lerr).Error("clearing session")
		}
		return fmt.Errorf("restoring session: %w", err)
	}
	m.SetUser(user)
	m.log.WithField("user", user.Email).Info("session restored")
	return nil
}
