package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/fitlog/workout-tracker/internal/core/domain"
	"github.com/fitlog/workout-tracker/internal/core/ports"
)

const minPasswordLen = 6

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

// IdentityConfig is the explicit configuration the identity service needs.
type IdentityConfig struct {
	// SessionSecret signs session tokens.
	SessionSecret string
	SessionTTL    time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost   int
	StoreTimeout time.Duration
}

// IdentityService implements registration, credential checks and sessions.
type IdentityService struct {
	users     ports.UserRepository
	sessions  ports.SessionStore
	cfg       IdentityConfig
	verifiers map[domain.AuthMethod]CredentialVerifier
	validate  *validator.Validate
	now       func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

func NewIdentityService(users ports.UserRepository, sessions ports.SessionStore, cfg IdentityConfig) *IdentityService {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &IdentityService{
		users:     users,
		sessions:  sessions,
		cfg:       cfg,
		verifiers: defaultVerifiers(),
		validate:  newFieldValidator(),
		now:       time.Now,
	}
}

type newUserRules struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"omitempty,min=6"`
}

func (s *IdentityService) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	ctx, cancel := withStoreTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, storeErr("find user", err)
	}
	return user, nil
}

func (s *IdentityService) FindByFederatedID(ctx context.Context, provider, federatedID string) (*domain.User, error) {
	ctx, cancel := withStoreTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	user, err := s.users.FindByFederatedID(ctx, provider, federatedID)
	if err != nil {
		return nil, storeErr("find federated user", err)
	}
	return user, nil
}

// Create stores a new identity. Local secrets are hashed here and never
// persisted in plaintext.
func (s *IdentityService) Create(ctx context.Context, in ports.NewUserInput) (*domain.User, error) {
	rules := newUserRules{
		Username: strings.TrimSpace(in.Username),
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
	}
	if in.AuthMethod == domain.AuthLocal {
		rules.Password = in.Secret
	}
	verr := &domain.ValidationError{}
	if err := validateStruct(s.validate, rules); err != nil {
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			return nil, err
		}
		verr = ve
	}
	if in.AuthMethod == domain.AuthLocal && in.Secret == "" {
		verr.Add("password", fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}
	if in.AuthMethod == domain.AuthLocal && len(in.Secret) > maxPasswordBytes {
		verr.Add("password", fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes))
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &domain.User{
		Username:   rules.Username,
		Email:      rules.Email,
		AuthMethod: in.AuthMethod,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	switch in.AuthMethod {
	case domain.AuthLocal:
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Secret), s.cfg.BcryptCost)
		if err != nil {
			return nil, fmt.Errorf("%w: hash credential: %w", domain.ErrValidation, err)
		}
		user.PasswordHash = string(hash)
	case domain.AuthFederated:
		user.Provider = in.Provider
		user.FederatedID = in.Secret
	}
	if err := user.CheckInvariant(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	ctx, cancel := withStoreTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, storeErr("create user", err)
	}
	return created, nil
}

// VerifyCredential dispatches to the verifier registered for the user's
// auth method.
func (s *IdentityService) VerifyCredential(user *domain.User, candidate string) bool {
	if user == nil {
		return false
	}
	v, ok := s.verifiers[user.AuthMethod]
	if !ok {
		return false
	}
	return v.Verify(user, candidate)
}

func (s *IdentityService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	return s.Create(ctx, ports.NewUserInput{
		Username:   username,
		Email:      email,
		Secret:     password,
		AuthMethod: domain.AuthLocal,
	})
}

// Login checks a local password and opens a session. An unknown user costs
// the same bcrypt comparison as a wrong password.
func (s *IdentityService) Login(ctx context.Context, username, password string) (*domain.Session, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.burnComparison(password)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if user.AuthMethod != domain.AuthLocal {
		s.burnComparison(password)
		return nil, domain.ErrInvalidCredentials
	}
	if !s.VerifyCredential(user, password) {
		return nil, domain.ErrInvalidCredentials
	}

	return s.openSession(ctx, user)
}

// FederatedLogin signs in the user a provider vouched for, creating the
// account on first sight.
func (s *IdentityService) FederatedLogin(ctx context.Context, profile domain.FederatedProfile) (*domain.Session, error) {
	if profile.Provider == "" || profile.ID == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.FindByFederatedID(ctx, profile.Provider, profile.ID)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		user, err = s.Create(ctx, ports.NewUserInput{
			Username:   profile.Username,
			Email:      profile.Email,
			Secret:     profile.ID,
			AuthMethod: domain.AuthFederated,
			Provider:   profile.Provider,
		})
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	if !s.VerifyCredential(user, profile.ID) {
		return nil, domain.ErrInvalidCredentials
	}
	return s.openSession(ctx, user)
}

type sessionClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// ResolvePrincipal turns a session token back into the acting identity.
func (s *IdentityService) ResolvePrincipal(ctx context.Context, token string) (*domain.Principal, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withStoreTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	userID, err := s.sessions.Lookup(ctx, claims.ID)
	if err != nil {
		return nil, storeErr("lookup session", err)
	}
	if userID != claims.Subject {
		return nil, domain.ErrUnauthorized
	}

	// A session outliving its account must not resolve.
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, storeErr("find session user", err)
	}
	return &domain.Principal{UserID: user.ID, Username: user.Username}, nil
}

// Logout revokes the session behind token.
func (s *IdentityService) Logout(ctx context.Context, token string) error {
	claims, err := s.parseToken(token)
	if err != nil {
		return err
	}

	ctx, cancel := withStoreTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	if err := s.sessions.Delete(ctx, claims.ID); err != nil {
		return storeErr("delete session", err)
	}
	return nil
}

func (s *IdentityService) openSession(ctx context.Context, user *domain.User) (*domain.Session, error) {
	now := s.now().UTC()
	sess := &domain.Session{
		ID:        uuid.NewString(),
		User:      user,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
	}

	claims := sessionClaims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.SessionSecret))
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}
	sess.Token = token

	ctx, cancel := withStoreTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	if err := s.sessions.Save(ctx, sess.ID, user.ID); err != nil {
		return nil, storeErr("save session", err)
	}
	return sess, nil
}

func (s *IdentityService) parseToken(token string) (*sessionClaims, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(s.cfg.SessionSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid || claims.ID == "" || claims.Subject == "" {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}

// burnComparison spends one bcrypt comparison so a missing account takes as
// long to reject as a wrong password.
func (s *IdentityService) burnComparison(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte(uuid.NewString()), s.cfg.BcryptCost)
	})
	_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
}
