package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinic-client/internal/api/metrics"
	"github.com/clinicdesk/clinic-client/internal/core/domain"
	"github.com/clinicdesk/clinic-client/internal/core/ports"
)

const (
	pathLogin          = "/auth/login"
	pathRegister       = "/auth/register"
	pathMe             = "/auth/me"
	pathChangePassword = "/auth/change-password"
)

// SessionService owns the login lifecycle and the current-user state.
// It is the only writer of session state; the credential itself lives in
// the CredentialStore.
type SessionService struct {
	dispatcher ports.Dispatcher
	store      ports.CredentialStore
	log        zerolog.Logger
	now        func() time.Time

	bootMu sync.Mutex

	mu        sync.RWMutex
	status    domain.SessionStatus
	user      *domain.User
	ready     chan struct{}
	observers map[int]func(domain.Session)
	nextObs   int
}

// NewSessionService returns a service in the loading state. Call Bootstrap
// before serving protected content.
func NewSessionService(dispatcher ports.Dispatcher, store ports.CredentialStore, logger zerolog.Logger) *SessionService {
	return &SessionService{
		dispatcher: dispatcher,
		store:      store,
		log:        logger.With().Str("component", "session").Logger(),
		now:        time.Now,
		status:     domain.StatusLoading,
		ready:      make(chan struct{}),
		observers:  make(map[int]func(domain.Session)),
	}
}

// Bootstrap resolves the initial session. With a persisted token it asks
// the server who the token belongs to; any failure clears the token. Without
// one it settles on anonymous without touching the network. Calls after the
// first completed bootstrap are no-ops.
func (s *SessionService) Bootstrap(ctx context.Context) error {
	s.bootMu.Lock()
	defer s.bootMu.Unlock()

	if !s.Loading() {
		return nil
	}

	if _, ok := s.store.Get(); !ok {
		s.transition(domain.StatusAnonymous, nil)
		return nil
	}

	user, err := s.fetchMe(ctx)
	if err != nil {
		if clearErr := s.store.Clear(); clearErr != nil {
			s.log.Error().Err(clearErr).Msg("failed to clear credential after bootstrap failure")
		}
		s.transition(domain.StatusAnonymous, nil)
		s.log.Info().Str("reason", domain.Reason(err)).Msg("persisted session could not be restored")
		return fmt.Errorf("restore session: %w", err)
	}

	s.transition(domain.StatusAuthenticated, user)
	s.log.Info().Int64("user_id", user.ID).Msg("session restored")
	return nil
}

// Login exchanges credentials for a token. On success the session becomes
// authenticated with a user built from the submitted email; the server's
// profile is not fetched. On failure the session is left as it was and the
// reason is returned.
func (s *SessionService) Login(ctx context.Context, email, password string) (bool, error) {
	resp, err := s.dispatcher.Send(ctx, http.MethodPost, pathLogin, domain.Credentials{Email: email, Password: password})
	if err != nil {
		s.log.Info().Str("reason", domain.Reason(err)).Msg("login failed")
		return false, err
	}

	var tok domain.Token
	if err := resp.Decode(&tok); err != nil {
		return false, fmt.Errorf("login: %w", err)
	}
	if tok.AccessToken == "" {
		return false, errors.New("login: server returned an empty access token")
	}

	if err := s.store.Set(tok.AccessToken); err != nil {
		return false, fmt.Errorf("login: %w", err)
	}

	s.transition(domain.StatusAuthenticated, &domain.User{
		Email:     email,
		CreatedAt: domain.NewTimestamp(s.now()),
	})
	s.log.Info().Msg("login successful")
	return true, nil
}

// Register creates an account. It never authenticates; callers log in
// afterwards.
func (s *SessionService) Register(ctx context.Context, email, password string) (bool, error) {
	if _, err := s.dispatcher.Send(ctx, http.MethodPost, pathRegister, domain.Credentials{Email: email, Password: password}); err != nil {
		s.log.Info().Str("reason", domain.Reason(err)).Msg("registration failed")
		return false, err
	}
	s.log.Info().Msg("registration successful")
	return true, nil
}

// Logout clears the credential and the user. It always succeeds.
func (s *SessionService) Logout() {
	if err := s.store.Clear(); err != nil {
		s.log.Error().Err(err).Msg("failed to clear persisted credential on logout")
	}
	s.transition(domain.StatusAnonymous, nil)
	s.log.Info().Msg("logged out")
}

// OnAuthenticationExpired handles a forced logout reported by the
// dispatcher, which has already cleared the credential.
func (s *SessionService) OnAuthenticationExpired() {
	if s.Status() == domain.StatusAnonymous {
		return
	}
	s.transition(domain.StatusAnonymous, nil)
	s.log.Warn().Msg("session expired")
}

// RefreshUser replaces the session user with the server's record.
func (s *SessionService) RefreshUser(ctx context.Context) (*domain.User, error) {
	if err := s.RequireAuthenticated(); err != nil {
		return nil, err
	}
	user, err := s.fetchMe(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.status != domain.StatusAuthenticated {
		s.mu.Unlock()
		return nil, domain.ErrNotAuthenticated
	}
	s.user = user
	s.mu.Unlock()

	s.notify()
	return cloneUser(user), nil
}

// ChangePassword updates the account password.
func (s *SessionService) ChangePassword(ctx context.Context, current, next string) error {
	if err := s.RequireAuthenticated(); err != nil {
		return err
	}
	_, err := s.dispatcher.Send(ctx, http.MethodPost, pathChangePassword, domain.PasswordChange{
		CurrentPassword: current,
		NewPassword:     next,
	})
	return err
}

// RequireAuthenticated returns domain.ErrNotAuthenticated unless the
// session is authenticated with a credential present.
func (s *SessionService) RequireAuthenticated() error {
	if !s.Snapshot().Authenticated() {
		return domain.ErrNotAuthenticated
	}
	return nil
}

// Snapshot returns the current session.
func (s *SessionService) Snapshot() domain.Session {
	token, _ := s.store.Get()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Session{Token: token, User: cloneUser(s.user), Status: s.status}
}

func (s *SessionService) Status() domain.SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// User returns a copy of the session user, or nil.
func (s *SessionService) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneUser(s.user)
}

// Loading reports whether the initial bootstrap is still pending.
func (s *SessionService) Loading() bool {
	return s.Status() == domain.StatusLoading
}

// Ready returns a channel closed once the session has left the loading state.
func (s *SessionService) Ready() <-chan struct{} { return s.ready }

// Subscribe registers fn to receive every state change. The returned
// function removes the subscription.
func (s *SessionService) Subscribe(fn func(domain.Session)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *SessionService) fetchMe(ctx context.Context) (*domain.User, error) {
	resp, err := s.dispatcher.Send(ctx, http.MethodGet, pathMe, nil)
	if err != nil {
		return nil, err
	}
	var user domain.User
	if err := resp.Decode(&user); err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	return &user, nil
}

// transition moves to status. Loading is never re-entered.
func (s *SessionService) transition(status domain.SessionStatus, user *domain.User) {
	if status == domain.StatusLoading {
		return
	}

	s.mu.Lock()
	wasLoading := s.status == domain.StatusLoading
	s.status = status
	s.user = cloneUser(user)
	s.mu.Unlock()

	if wasLoading {
		close(s.ready)
	}
	metrics.SessionTransitionsTotal.WithLabelValues(string(status)).Inc()
	s.notify()
}

func (s *SessionService) notify() {
	snap := s.Snapshot()
	s.mu.RLock()
	observers := make([]func(domain.Session), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.mu.RUnlock()

	for _, fn := range observers {
		fn(snap)
	}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

var (
	_ ports.ExpiryListener = (*SessionService)(nil)
	_ ports.SessionGuard   = (*SessionService)(nil)
)
