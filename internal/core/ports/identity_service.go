package ports

import (
	"context"

	"github.com/fitlog/workout-tracker/internal/core/domain"
)

// NewUserInput carries the data needed to create an identity record. Secret is
// the plaintext password for local users and the provider-asserted account id
// for federated ones.
type NewUserInput struct {
	Username   string
	Email      string
	Secret     string
	AuthMethod domain.AuthMethod
	Provider   string
}

// IdentityService owns user records, credential checks and sessions.
type IdentityService interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByFederatedID(ctx context.Context, provider, federatedID string) (*domain.User, error)
	Create(ctx context.Context, input NewUserInput) (*domain.User, error)
	VerifyCredential(user *domain.User, candidate string) bool

	Register(ctx context.Context, username, email, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*domain.Session, error)
	FederatedLogin(ctx context.Context, profile domain.FederatedProfile) (*domain.Session, error)
	ResolvePrincipal(ctx context.Context, token string) (*domain.Principal, error)
	Logout(ctx context.Context, token string) error
}
