package domain

// SessionStatus is the lifecycle state of the client session.
type SessionStatus string

const (
	StatusLoading       SessionStatus = "loading"
	StatusAuthenticated SessionStatus = "authenticated"
	StatusAnonymous     SessionStatus = "anonymous"
)

// User is the account record returned by the auth endpoints.
type User struct {
	ID        int64      `json:"id"`
	Email     string     `json:"email"`
	CreatedAt Timestamp  `json:"created_at"`
	UpdatedAt *Timestamp `json:"updated_at,omitempty"`
}

// Session is a point-in-time view of the client session. Status is
// authenticated only while both Token and User are present.
type Session struct {
	Token  string
	User   *User
	Status SessionStatus
}

// Authenticated reports whether the snapshot satisfies the authenticated invariant.
func (s Session) Authenticated() bool {
	return s.Status == StatusAuthenticated && s.Token != "" && s.User != nil
}

// Credentials is the login/register payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Token is the login response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// PasswordChange is the change-password payload.
type PasswordChange struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
