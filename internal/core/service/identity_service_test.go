package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/fitlog/workout-tracker/internal/core/domain"
	"github.com/fitlog/workout-tracker/internal/core/ports"
	"github.com/fitlog/workout-tracker/internal/infrastructure/db/memory"
)

const testSecret = "test-session-secret"

func newIdentityService(t *testing.T) *IdentityService {
	t.Helper()
	return NewIdentityService(memory.NewUserRepository(), memory.NewSessionStore(time.Hour), IdentityConfig{
		SessionSecret: testSecret,
		SessionTTL:    time.Hour,
		BcryptCost:    bcrypt.MinCost,
		StoreTimeout:  time.Second,
	})
}

func TestRegister_HashesPasswordAndNormalizesEmail(t *testing.T) {
	svc := newIdentityService(t)

	u, err := svc.Register(context.Background(), "  alice ", " Alice@Example.COM ", "hunter22")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Username != "alice" || u.Email != "alice@example.com" {
		t.Fatalf("not normalized: %q %q", u.Username, u.Email)
	}
	if u.AuthMethod != domain.AuthLocal || u.PasswordHash == "" || u.PasswordHash == "hunter22" {
		t.Fatalf("password not hashed: %+v", u)
	}
	if err := u.CheckInvariant(); err != nil {
		t.Fatalf("invariant: %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := newIdentityService(t)
	cases := []struct {
		name, username, email, password string
		field                           string
	}{
		{"missing username", "", "a@example.com", "hunter22", "username"},
		{"bad email", "alice", "not-an-email", "hunter22", "email"},
		{"short password", "alice", "a@example.com", "12345", "password"},
		{"empty password", "alice", "a@example.com", "", "password"},
		{"password over 72 bytes", "alice", "a@example.com", strings.Repeat("x", 80), "password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.username, tc.email, tc.password)
			got := fieldNames(err)
			if len(got) != 1 || got[0] != tc.field {
				t.Fatalf("expected validation on %q, got %v", tc.field, err)
			}
		})
	}
}

func TestRegister_DuplicateUsernameOrEmail(t *testing.T) {
	svc := newIdentityService(t)
	if _, err := svc.Register(context.Background(), "alice", "a@example.com", "hunter22"); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := svc.Register(context.Background(), "alice", "other@example.com", "hunter22")
	if !errors.Is(err, domain.ErrDuplicateKey) {
		t.Fatalf("duplicate username: expected ErrDuplicateKey, got %v", err)
	}
	_, err = svc.Register(context.Background(), "alice2", "A@example.com", "hunter22")
	if !errors.Is(err, domain.ErrDuplicateKey) {
		t.Fatalf("duplicate email: expected ErrDuplicateKey, got %v", err)
	}
}

func TestLogin_ResolveAndLogout(t *testing.T) {
	svc := newIdentityService(t)
	u, err := svc.Register(context.Background(), "alice", "a@example.com", "hunter22")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	sess, err := svc.Login(context.Background(), "alice", "hunter22")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.Token == "" || sess.User.ID != u.ID {
		t.Fatalf("unexpected session: %+v", sess)
	}

	p, err := svc.ResolvePrincipal(context.Background(), sess.Token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.UserID != u.ID || p.Username != "alice" {
		t.Fatalf("unexpected principal: %+v", p)
	}

	if err := svc.Logout(context.Background(), sess.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.ResolvePrincipal(context.Background(), sess.Token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("revoked session: expected ErrUnauthorized, got %v", err)
	}
}

func TestLogin_UnknownUserAndWrongPasswordLookAlike(t *testing.T) {
	svc := newIdentityService(t)
	if _, err := svc.Register(context.Background(), "alice", "a@example.com", "hunter22"); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, errWrong := svc.Login(context.Background(), "alice", "wrong-password")
	_, errUnknown := svc.Login(context.Background(), "mallory", "hunter22")

	if !errors.Is(errWrong, domain.ErrInvalidCredentials) || !errors.Is(errUnknown, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for both, got %v / %v", errWrong, errUnknown)
	}
	if errWrong.Error() != errUnknown.Error() {
		t.Fatalf("errors must not reveal which check failed: %q vs %q", errWrong, errUnknown)
	}
}

func TestResolvePrincipal_RejectsBadTokens(t *testing.T) {
	svc := newIdentityService(t)
	if _, err := svc.Register(context.Background(), "alice", "a@example.com", "hunter22"); err != nil {
		t.Fatalf("register: %v", err)
	}
	sess, err := svc.Login(context.Background(), "alice", "hunter22")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	forged, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:      sess.ID,
		Subject: sess.User.ID,
	}).SignedString([]byte("another-secret"))

	for name, token := range map[string]string{
		"empty":  "",
		"junk":   "not-a-token",
		"forged": forged,
	} {
		if _, err := svc.ResolvePrincipal(context.Background(), token); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("%s: expected ErrUnauthorized, got %v", name, err)
		}
	}

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := svc.ResolvePrincipal(context.Background(), sess.Token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expired: expected ErrUnauthorized, got %v", err)
	}
}

// vanishingUsers hides one account from FindByID, as if it had been removed.
type vanishingUsers struct {
	*memory.UserRepository
	gone string
	down bool
}

func (r *vanishingUsers) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if r.down {
		return nil, errors.New("connection reset")
	}
	if id == r.gone {
		return nil, domain.ErrUserNotFound
	}
	return r.UserRepository.FindByID(ctx, id)
}

func TestResolvePrincipal_RequiresLiveAccount(t *testing.T) {
	users := &vanishingUsers{UserRepository: memory.NewUserRepository()}
	svc := NewIdentityService(users, memory.NewSessionStore(time.Hour), IdentityConfig{
		SessionSecret: testSecret,
		BcryptCost:    bcrypt.MinCost,
		StoreTimeout:  time.Second,
	})
	if _, err := svc.Register(context.Background(), "alice", "a@example.com", "hunter22"); err != nil {
		t.Fatalf("register: %v", err)
	}
	sess, err := svc.Login(context.Background(), "alice", "hunter22")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	p, err := svc.ResolvePrincipal(context.Background(), sess.Token)
	if err != nil || p.Username != "alice" {
		t.Fatalf("resolve: %+v %v", p, err)
	}

	users.down = true
	if _, err := svc.ResolvePrincipal(context.Background(), sess.Token); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("store down: expected ErrStoreUnavailable, got %v", err)
	}

	users.down = false
	users.gone = sess.User.ID
	if _, err := svc.ResolvePrincipal(context.Background(), sess.Token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("removed account: expected ErrUnauthorized, got %v", err)
	}
}

func TestFederatedLogin_FindsOrCreates(t *testing.T) {
	svc := newIdentityService(t)
	profile := domain.FederatedProfile{
		Provider: domain.ProviderGitHub,
		ID:       "583231",
		Username: "octocat",
		Email:    "octocat@github.com",
	}

	first, err := svc.FederatedLogin(context.Background(), profile)
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	second, err := svc.FederatedLogin(context.Background(), profile)
	if err != nil {
		t.Fatalf("second login: %v", err)
	}

	if first.User.ID != second.User.ID {
		t.Fatalf("expected the same account, got %s and %s", first.User.ID, second.User.ID)
	}
	u := first.User
	if u.AuthMethod != domain.AuthFederated || u.Provider != domain.ProviderGitHub || u.PasswordHash != "" {
		t.Fatalf("unexpected federated user: %+v", u)
	}

	// A federated account cannot be used with the password form.
	if _, err := svc.Login(context.Background(), "octocat", "583231"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestFederatedLogin_RejectsIncompleteProfile(t *testing.T) {
	svc := newIdentityService(t)
	_, err := svc.FederatedLogin(context.Background(), domain.FederatedProfile{Provider: domain.ProviderGitHub})
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestVerifyCredential_DispatchesOnAuthMethod(t *testing.T) {
	svc := newIdentityService(t)
	local, err := svc.Create(context.Background(), ports.NewUserInput{
		Username: "alice", Email: "a@example.com", Secret: "hunter22", AuthMethod: domain.AuthLocal,
	})
	if err != nil {
		t.Fatalf("create local: %v", err)
	}
	fed, err := svc.Create(context.Background(), ports.NewUserInput{
		Username: "octocat", Email: "o@example.com", Secret: "583231",
		AuthMethod: domain.AuthFederated, Provider: domain.ProviderGitHub,
	})
	if err != nil {
		t.Fatalf("create federated: %v", err)
	}

	cases := []struct {
		name      string
		user      *domain.User
		candidate string
		want      bool
	}{
		{"local ok", local, "hunter22", true},
		{"local wrong", local, "hunter23", false},
		{"local given federated id", local, "583231", false},
		{"federated ok", fed, "583231", true},
		{"federated wrong", fed, "583232", false},
		{"federated empty", fed, "", false},
		{"nil user", nil, "x", false},
		{"unknown method", &domain.User{AuthMethod: "saml"}, "x", false},
	}
	for _, tc := range cases {
		if got := svc.VerifyCredential(tc.user, tc.candidate); got != tc.want {
			t.Fatalf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestCreate_RejectsUnknownAuthMethod(t *testing.T) {
	svc := newIdentityService(t)
	_, err := svc.Create(context.Background(), ports.NewUserInput{
		Username: "x", Email: "x@example.com", Secret: "s", AuthMethod: "saml",
	})
	if !errors.Is(err, domain.ErrValidation) || !errors.Is(err, domain.ErrInvalidIdentity) {
		t.Fatalf("expected invalid identity validation error, got %v", err)
	}
}
