package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/clinicdesk/clinic-client/internal/core/domain"
	"github.com/clinicdesk/clinic-client/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type sentRequest struct {
	method string
	path   string
	body   any
}

type stubDispatcher struct {
	mu     sync.Mutex
	sent   []sentRequest
	sendFn func(ctx context.Context, method, path string, body any) (*ports.Response, error)
}

func (d *stubDispatcher) Send(ctx context.Context, method, path string, body any) (*ports.Response, error) {
	d.mu.Lock()
	d.sent = append(d.sent, sentRequest{method: method, path: path, body: body})
	d.mu.Unlock()
	if d.sendFn == nil {
		return nil, errors.New("unexpected request " + method + " " + path)
	}
	return d.sendFn(ctx, method, path, body)
}

func (d *stubDispatcher) requests() []sentRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]sentRequest(nil), d.sent...)
}

func (d *stubDispatcher) count(method, path string) int {
	n := 0
	for _, r := range d.requests() {
		if r.method == method && r.path == path {
			n++
		}
	}
	return n
}

type stubStore struct {
	mu       sync.Mutex
	token    string
	setErr   error
	clearErr error
	clears   int
}

func (s *stubStore) Get() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

func (s *stubStore) Set(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.token = token
	return nil
}

func (s *stubStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	s.token = ""
	return s.clearErr
}

func (s *stubStore) ClearIf(token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" || s.token != token {
		return false, nil
	}
	s.clears++
	s.token = ""
	return true, s.clearErr
}

type stubGuard struct{ err error }

func (g stubGuard) RequireAuthenticated() error { return g.err }

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func jsonResponse(t *testing.T, v any) *ports.Response {
	t.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return &ports.Response{Status: http.StatusOK, Body: body}
}

func rawResponse(body string) *ports.Response {
	return &ports.Response{Status: http.StatusOK, Body: []byte(body)}
}

func requestError(kind domain.ErrorKind, status int, message string) error {
	return &domain.RequestError{Kind: kind, Status: status, Message: message}
}

func patient(id int64, first string) domain.Patient {
	return domain.Patient{
		ID:            id,
		PatientFields: domain.PatientFields{FirstName: domain.String(first), LastName: domain.String("Doe")},
	}
}
