package credential

import (
	"context"
	"sync"
)

// MemoryBackend keeps the token in process memory only. Used in tests and
// for throwaway sessions.
type MemoryBackend struct {
	mu    sync.Mutex
	token string

	// SaveErr and DeleteErr, when set, are returned by Save and Delete.
	SaveErr   error
	DeleteErr error
}

// NewMemoryBackend returns a backend pre-seeded with token (may be empty).
func NewMemoryBackend(token string) *MemoryBackend {
	return &MemoryBackend{token: token}
}

func (b *MemoryBackend) Load(_ context.Context) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.token, b.token != "", nil
}

func (b *MemoryBackend) Save(_ context.Context, token string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.SaveErr != nil {
		return b.SaveErr
	}
	b.token = token
	return nil
}

func (b *MemoryBackend) Delete(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.DeleteErr != nil {
		return b.DeleteErr
	}
	b.token = ""
	return nil
}

// Token returns what is currently persisted.
func (b *MemoryBackend) Token() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.token
}
