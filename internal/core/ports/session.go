package ports

// Navigator moves the user to the anonymous entry point (the login
// screen) after a forced logout.
type Navigator interface {
	RedirectToLogin()
}

// ExpiryListener is notified when a protected request is rejected with 401
// and the credential has been cleared.
type ExpiryListener interface {
	OnAuthenticationExpired()
}

// SessionGuard is consulted before every protected call is fired.
type SessionGuard interface {
	RequireAuthenticated() error
}
