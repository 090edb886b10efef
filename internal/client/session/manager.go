package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/vendpair/vendpair-go/internal/client/api"
	apperrors "github.com/vendpair/vendpair-go/internal/errors"
	"github.com/vendpair/vendpair-go/internal/model"
)

// Manager owns the authentication state of the client. It moves between
// anonymous and authenticated, persists the token across runs, and tears
// the session down centrally when the server stops honoring it. The epoch
// counter increments on every teardown so views can discard responses that
// belong to a previous session.
type Manager struct {
	client *api.Client
	store  CredentialStore

	mu        sync.RWMutex
	user      *model.User
	epoch     uint64
	listeners []func()
}

func NewManager(client *api.Client, store CredentialStore) *Manager {
	m := &Manager{client: client, store: store}
	client.OnUnauthorized = m.expire
	return m
}

// Restore tries to resume the previous session from the stored token. A
// missing or rejected token leaves the manager anonymous without error;
// only transport failures are reported.
func (m *Manager) Restore(ctx context.Context) error {
	token, err := m.store.Load()
	if err != nil {
		return fmt.Errorf("load stored token: %w", err)
	}
	if token == "" {
		return nil
	}

	m.client.SetToken(token)
	user, err := m.client.ResolveIdentity(ctx)
	if err != nil {
		m.client.SetToken("")
		if apperrors.HasCode(err, apperrors.ErrCodeUnauthorized) {
			if clearErr := m.store.Clear(); clearErr != nil {
				log.Warn().Err(clearErr).Msg("failed to discard stale token")
			}
			return nil
		}
		return err
	}

	m.setUser(user)
	return nil
}

// Login authenticates and stores the resulting token. On failure the
// manager stays in its previous state.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	token, err := m.client.Authenticate(ctx, email, password)
	if err != nil {
		return err
	}
	return m.adoptToken(ctx, token)
}

// Register creates an account and logs straight into it.
func (m *Manager) Register(ctx context.Context, name, email, password string) error {
	token, err := m.client.RegisterAccount(ctx, name, email, password)
	if err != nil {
		return err
	}
	return m.adoptToken(ctx, token)
}

func (m *Manager) adoptToken(ctx context.Context, token string) error {
	m.client.SetToken(token)
	user, err := m.client.ResolveIdentity(ctx)
	if err != nil {
		m.client.SetToken("")
		return err
	}

	if err := m.store.Save(token); err != nil {
		log.Warn().Err(err).Msg("failed to persist token, session will not survive restart")
	}

	m.setUser(user)
	return nil
}

// Logout drops the session locally. The token is stateless on the server
// side, so there is nothing to revoke.
func (m *Manager) Logout() error {
	m.teardown()
	return m.store.Clear()
}

// expire handles the server rejecting our token mid-session.
func (m *Manager) expire() {
	m.mu.RLock()
	active := m.user != nil
	m.mu.RUnlock()
	if !active {
		return
	}

	log.Info().Msg("session rejected by server, returning to anonymous")
	m.teardown()
	if err := m.store.Clear(); err != nil {
		log.Warn().Err(err).Msg("failed to discard rejected token")
	}
}

func (m *Manager) teardown() {
	m.client.SetToken("")

	m.mu.Lock()
	m.user = nil
	m.epoch++
	listeners := append([]func(){}, m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

func (m *Manager) setUser(user *model.User) {
	m.mu.Lock()
	m.user = user
	m.epoch++
	listeners := append([]func(){}, m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// Subscribe registers a callback invoked after every session change.
func (m *Manager) Subscribe(fn func()) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

func (m *Manager) Authenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil
}

// CurrentUser returns a copy of the authenticated user, or nil.
func (m *Manager) CurrentUser() *model.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Epoch identifies the current session generation. Responses started under
// an older epoch must be discarded.
func (m *Manager) Epoch() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.epoch
}
