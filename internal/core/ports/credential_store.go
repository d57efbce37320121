package ports

import "context"

// CredentialStore holds the session token for the whole process. Every
// mutating call is persisted before it returns.
type CredentialStore interface {
	Get() (token string, ok bool)
	Set(token string) error
	Clear() error
	// ClearIf clears only when token is still the current one, atomically.
	ClearIf(token string) (cleared bool, err error)
}

// TokenBackend is the durable storage behind a CredentialStore. A missing
// token is reported as ok == false, not as an error.
type TokenBackend interface {
	Load(ctx context.Context) (token string, ok bool, err error)
	Save(ctx context.Context, token string) error
	Delete(ctx context.Context) error
}
