package domain

import "errors"

// Account is the server-side view of a user, including the password hash.
// It never leaves the stub server.
type Account struct {
	User
	PasswordHash string `json:"-"`
}

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrPatientNotFound    = errors.New("patient not found")
)
