package service

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"

	"github.com/fitlog/workout-tracker/internal/core/domain"
)

// CredentialVerifier checks a candidate secret against one kind of stored
// credential.
type CredentialVerifier interface {
	Method() domain.AuthMethod
	Verify(user *domain.User, candidate string) bool
}

// passwordVerifier checks local users' bcrypt hashes.
type passwordVerifier struct{}

func (passwordVerifier) Method() domain.AuthMethod { return domain.AuthLocal }

func (passwordVerifier) Verify(user *domain.User, candidate string) bool {
	if user.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(candidate)) == nil
}

// federatedVerifier checks the account id a provider asserted for the user.
type federatedVerifier struct{}

func (federatedVerifier) Method() domain.AuthMethod { return domain.AuthFederated }

func (federatedVerifier) Verify(user *domain.User, candidate string) bool {
	if user.FederatedID == "" || candidate == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(user.FederatedID), []byte(candidate)) == 1
}

// defaultVerifiers returns one verifier per AuthMethod.
func defaultVerifiers() map[domain.AuthMethod]CredentialVerifier {
	out := make(map[domain.AuthMethod]CredentialVerifier, 2)
	for _, v := range []CredentialVerifier{passwordVerifier{}, federatedVerifier{}} {
		out[v.Method()] = v
	}
	return out
}
