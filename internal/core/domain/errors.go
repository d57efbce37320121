package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed request.
type ErrorKind string

const (
	KindAuthenticationExpired  ErrorKind = "authentication_expired"
	KindAuthenticationRejected ErrorKind = "authentication_rejected"
	KindValidationFailure      ErrorKind = "validation_failure"
	KindTimeout                ErrorKind = "timeout"
	KindNetworkUnavailable     ErrorKind = "network_unavailable"
	KindNotFound               ErrorKind = "not_found"
	KindServer                 ErrorKind = "server"
)

var (
	ErrAuthenticationExpired  = errors.New("authentication expired")
	ErrAuthenticationRejected = errors.New("authentication rejected")
	ErrValidationFailure      = errors.New("validation failure")
	ErrTimeout                = errors.New("request timed out")
	ErrNetworkUnavailable     = errors.New("network unavailable")
	ErrNotFound               = errors.New("not found")
	ErrServer                 = errors.New("server error")

	// ErrNotAuthenticated is returned before a protected call fires when the
	// session is not authenticated. Nothing is sent.
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrEmptyMessage     = errors.New("message is empty")
)

var kindSentinels = map[ErrorKind]error{
	KindAuthenticationExpired:  ErrAuthenticationExpired,
	KindAuthenticationRejected: ErrAuthenticationRejected,
	KindValidationFailure:      ErrValidationFailure,
	KindTimeout:                ErrTimeout,
	KindNetworkUnavailable:     ErrNetworkUnavailable,
	KindNotFound:               ErrNotFound,
	KindServer:                 ErrServer,
}

// RequestError is the error returned by the dispatcher for every failed
// request. Status and Body are the server's, unmodified; Status is zero
// when no response was received.
type RequestError struct {
	Kind    ErrorKind
	Method  string
	Path    string
	Status  int
	Message string
	Body    []byte
	Err     error
}

func (e *RequestError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.Status, e.Kind, msg)
	}
	return fmt.Sprintf("%s %s: %s: %s", e.Method, e.Path, e.Kind, msg)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Is matches the sentinel that corresponds to e.Kind.
func (e *RequestError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// KindOf returns the ErrorKind carried by err, or "" if err is not a RequestError.
func KindOf(err error) ErrorKind {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}

// Reason returns the user-facing message of err: the server's message
// when one was supplied, otherwise err's text.
func Reason(err error) string {
	var re *RequestError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
