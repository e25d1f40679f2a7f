package domain

import (
	"fmt"
	"time"
)

// AuthMethod tells how a user proves their identity.
type AuthMethod string

const (
	AuthLocal     AuthMethod = "local"
	AuthFederated AuthMethod = "federated"
)

// ProviderGitHub is the only federation provider wired today.
const ProviderGitHub = "github"

// User models an authenticated actor in the system.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	AuthMethod   AuthMethod `json:"auth_method"`
	Provider     string     `json:"provider,omitempty"`
	FederatedID  string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CheckInvariant reports whether exactly one credential kind is attached,
// matching the user's AuthMethod.
func (u *User) CheckInvariant() error {
	switch u.AuthMethod {
	case AuthLocal:
		if u.PasswordHash == "" || u.FederatedID != "" {
			return fmt.Errorf("local user %q: %w", u.Username, ErrInvalidIdentity)
		}
	case AuthFederated:
		if u.FederatedID == "" || u.Provider == "" || u.PasswordHash != "" {
			return fmt.Errorf("federated user %q: %w", u.Username, ErrInvalidIdentity)
		}
	default:
		return fmt.Errorf("auth method %q: %w", u.AuthMethod, ErrInvalidIdentity)
	}
	return nil
}

// FederatedProfile is what an identity provider asserts about a user after a
// successful sign-in.
type FederatedProfile struct {
	Provider string
	ID       string
	Username string
	Email    string
}

// Principal is the identity an operation runs on behalf of.
type Principal struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// Session is an open login returned to the caller as an opaque token.
type Session struct {
	ID        string
	Token     string
	User      *User
	ExpiresAt time.Time
}
