package ports

import (
	"context"

	"github.com/fitlog/workout-tracker/internal/core/domain"
)

// UserRepository defines persistence for identity records.
type UserRepository interface {
	// Create inserts the user and returns it with its assigned ID. Fails with
	// domain.ErrDuplicateKey when username, email or federated identity is taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByFederatedID(ctx context.Context, provider, federatedID string) (*domain.User, error)
}

// SessionStore keeps the server side of login sessions so they can be revoked.
type SessionStore interface {
	Save(ctx context.Context, sessionID, userID string) error
	// Lookup returns the user owning sessionID, or domain.ErrUnauthorized when
	// the session expired or was revoked.
	Lookup(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
}
