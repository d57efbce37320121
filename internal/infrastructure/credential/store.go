// Package credential implements the process-wide credential store: the one
// place that reads and writes the persisted session token.
package credential

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinic-client/internal/core/ports"
)

const defaultBackendTimeout = 5 * time.Second

// Store keeps the current token in memory and mirrors every change to a
// durable backend before returning.
type Store struct {
	mu      sync.RWMutex
	token   string
	backend ports.TokenBackend
	timeout time.Duration
	log     zerolog.Logger
}

// NewStore creates an empty Store. Call Load to restore a persisted token.
func NewStore(backend ports.TokenBackend, log zerolog.Logger) *Store {
	return &Store{
		backend: backend,
		timeout: defaultBackendTimeout,
		log:     log.With().Str("component", "credential").Logger(),
	}
}

// Load restores the persisted token, if any. It reports whether one was found.
func (s *Store) Load(ctx context.Context) (bool, error) {
	token, ok, err := s.backend.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load credential: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !ok || token == "" {
		s.token = ""
		return false, nil
	}
	s.token = token
	s.log.Debug().Msg("persisted credential restored")
	return true, nil
}

// Get returns the current token.
func (s *Store) Get() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// Set persists token and makes it current. The token is opaque; an empty
// token is the same as Clear. On a persistence failure the previous token
// stays current.
func (s *Store) Set(token string) error {
	if token == "" {
		return s.Clear()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.backend.Save(ctx, token); err != nil {
		return fmt.Errorf("persist credential: %w", err)
	}
	s.token = token
	return nil
}

// Clear drops the token. The in-memory copy is dropped even when the
// backend delete fails, so a rejected token is never sent again by this
// process.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.backend.Delete(ctx); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

// ClearIf drops the token only if it is still token. A concurrent Set that
// replaced it wins.
func (s *Store) ClearIf(token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == "" || s.token != token {
		return false, nil
	}
	s.token = ""
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.backend.Delete(ctx); err != nil {
		return true, fmt.Errorf("delete credential: %w", err)
	}
	return true, nil
}

var _ ports.CredentialStore = (*Store)(nil)
