// Package httpclient implements the request dispatcher: every call to the
// clinic service goes through Dispatcher.Send, which attaches the bearer
// credential and turns 401s on protected paths into a forced logout.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinic-client/internal/api/metrics"
	"github.com/clinicdesk/clinic-client/internal/core/domain"
	"github.com/clinicdesk/clinic-client/internal/core/ports"
)

const (
	DefaultTimeout = 10 * time.Second
	MinTimeout     = 10 * time.Second
	MaxTimeout     = 30 * time.Second

	// maxResponseSize bounds how much of a response body is read.
	maxResponseSize = 10 * 1024 * 1024

	HeaderRequestID = "X-Request-ID"
)

// ErrResponseTooLarge is wrapped when a response body exceeds the read limit.
var ErrResponseTooLarge = errors.New("response too large")

// Paths that legitimately answer 401 for bad credentials.
const (
	PathLogin    = "/auth/login"
	PathRegister = "/auth/register"
)

// Options configures a Dispatcher.
type Options struct {
	// BaseURL is prefixed to every request path, e.g. "http://localhost:8000/api".
	BaseURL string
	// Timeout bounds each request. Clamped to [MinTimeout, MaxTimeout];
	// zero selects DefaultTimeout.
	Timeout time.Duration
	// HTTPClient overrides the transport. Its own Timeout is ignored.
	HTTPClient *http.Client
	// Navigator receives the redirect after a forced logout. Optional.
	Navigator ports.Navigator
	UserAgent string
}

// Dispatcher sends requests to the clinic service.
type Dispatcher struct {
	baseURL   string
	timeout   time.Duration
	client    *http.Client
	store     ports.CredentialStore
	navigator ports.Navigator
	userAgent string
	maxBody   int64
	log       zerolog.Logger

	mu        sync.RWMutex
	listeners []ports.ExpiryListener
}

// NewDispatcher creates a Dispatcher reading the credential from store.
func NewDispatcher(store ports.CredentialStore, opts Options, log zerolog.Logger) (*Dispatcher, error) {
	if store == nil {
		return nil, errors.New("dispatcher: credential store is required")
	}
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("dispatcher: base URL is required")
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Transport: http.DefaultTransport}
	}

	return &Dispatcher{
		baseURL:   base,
		timeout:   ClampTimeout(opts.Timeout),
		client:    client,
		store:     store,
		navigator: opts.Navigator,
		userAgent: opts.UserAgent,
		maxBody:   maxResponseSize,
		log:       log.With().Str("component", "dispatcher").Logger(),
	}, nil
}

// ClampTimeout applies the default and the allowed range to d.
func ClampTimeout(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultTimeout
	case d < MinTimeout:
		return MinTimeout
	case d > MaxTimeout:
		return MaxTimeout
	}
	return d
}

// Timeout returns the effective per-request bound.
func (d *Dispatcher) Timeout() time.Duration { return d.timeout }

// AddExpiryListener registers l to be told about forced logouts.
func (d *Dispatcher) AddExpiryListener(l ports.ExpiryListener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, l)
}

// Send performs one request. body, when non-nil, is encoded as JSON.
// Nothing is retried.
func (d *Dispatcher) Send(ctx context.Context, method, path string, body any) (*ports.Response, error) {
	route := routeLabel(path)
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := d.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	sentToken, _ := d.store.Get()
	if sentToken != "" {
		req.Header.Set("Authorization", "Bearer "+sentToken)
	}
	requestID := req.Header.Get(HeaderRequestID)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, d.transportFailure(ctx, method, path, route, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBody+1))
	if err != nil {
		return nil, d.transportFailure(ctx, method, path, route, err)
	}
	if int64(len(data)) > d.maxBody {
		metrics.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(resp.StatusCode)).Inc()
		d.log.Warn().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("response too large")
		return nil, &domain.RequestError{
			Kind:    domain.KindServer,
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("response too large (over %d bytes)", d.maxBody),
			Err:     ErrResponseTooLarge,
		}
	}

	metrics.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(resp.StatusCode)).Inc()
	metrics.RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())

	d.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Str("request_id", requestID).
		Dur("duration", time.Since(start)).
		Msg("request completed")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &ports.Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
	}

	reqErr := &domain.RequestError{
		Method:  method,
		Path:    path,
		Status:  resp.StatusCode,
		Message: extractMessage(resp.StatusCode, data),
		Body:    data,
	}

	if resp.StatusCode == http.StatusUnauthorized && !IsAuthEndpoint(path) {
		reqErr.Kind = domain.KindAuthenticationExpired
		d.expire(sentToken, method, path)
		return nil, reqErr
	}

	reqErr.Kind = classify(resp.StatusCode, path)
	return nil, reqErr
}

func (d *Dispatcher) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req, err := http.NewRequestWithContext(ctx, method, d.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}
	req.Header.Set(HeaderRequestID, uuid.New().String())
	return req, nil
}

// expire performs the forced logout. A 401 for a request sent with an
// older token than the one now stored (the user logged in again while it
// was in flight) does not touch the new session.
func (d *Dispatcher) expire(sentToken, method, path string) {
	cleared, err := d.store.ClearIf(sentToken)
	if err != nil {
		d.log.Error().Err(err).Msg("failed to clear credential after 401")
	}
	if !cleared {
		d.log.Debug().Str("method", method).Str("path", path).Msg("401 for superseded credential ignored")
		return
	}
	metrics.ForcedLogoutsTotal.Inc()
	d.log.Warn().Str("method", method).Str("path", path).Msg("credential rejected, forcing logout")

	d.mu.RLock()
	listeners := append([]ports.ExpiryListener(nil), d.listeners...)
	d.mu.RUnlock()
	for _, l := range listeners {
		l.OnAuthenticationExpired()
	}

	if d.navigator != nil {
		d.navigator.RedirectToLogin()
	}
}

func (d *Dispatcher) transportFailure(ctx context.Context, method, path, route string, err error) error {
	kind := domain.KindNetworkUnavailable
	if isTimeout(ctx, err) {
		kind = domain.KindTimeout
	}
	metrics.RequestsTotal.WithLabelValues(method, route, string(kind)).Inc()
	d.log.Warn().Err(err).Str("method", method).Str("path", path).Str("kind", string(kind)).Msg("request failed")

	return &domain.RequestError{
		Kind:   kind,
		Method: method,
		Path:   path,
		Err:    err,
	}
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// IsAuthEndpoint reports whether path is the login or registration endpoint.
func IsAuthEndpoint(path string) bool {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimRight(path, "/")
	return path == PathLogin || path == PathRegister
}

// classify maps a non-2xx status (other than a protected 401) to an error kind.
func classify(status int, path string) domain.ErrorKind {
	switch {
	case IsAuthEndpoint(path) && rejectsCredentials(status):
		return domain.KindAuthenticationRejected
	case status == http.StatusNotFound:
		return domain.KindNotFound
	case status >= 400 && status < 500:
		return domain.KindValidationFailure
	default:
		return domain.KindServer
	}
}

func rejectsCredentials(status int) bool {
	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden,
		http.StatusConflict, http.StatusUnprocessableEntity:
		return true
	}
	return false
}

// extractMessage pulls the human message out of an error body. The
// service answers {"detail": "..."}; validation errors carry a list.
func extractMessage(status int, body []byte) string {
	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Error   string          `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if len(envelope.Detail) > 0 {
			var s string
			if json.Unmarshal(envelope.Detail, &s) == nil && s != "" {
				return s
			}
			var items []struct {
				Msg string `json:"msg"`
			}
			if json.Unmarshal(envelope.Detail, &items) == nil && len(items) > 0 {
				msgs := make([]string, 0, len(items))
				for _, it := range items {
					if it.Msg != "" {
						msgs = append(msgs, it.Msg)
					}
				}
				if len(msgs) > 0 {
					return strings.Join(msgs, "; ")
				}
			}
		}
		if envelope.Error != "" {
			return envelope.Error
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 && !strings.HasPrefix(text, "{") {
		return text
	}
	return http.StatusText(status)
}

// routeLabel collapses numeric path segments so metrics stay low-cardinality.
func routeLabel(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if _, err := strconv.ParseInt(p, 10, 64); err == nil {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}

var _ ports.Dispatcher = (*Dispatcher)(nil)
