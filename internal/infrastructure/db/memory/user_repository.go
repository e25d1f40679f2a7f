package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fitlog/workout-tracker/internal/core/domain"
)

// UserRepository keeps identities in memory with the same uniqueness rules
// as the MongoDB indexes.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]domain.User)}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return nil, domain.ErrDuplicateKey
		}
		if user.FederatedID != "" && u.Provider == user.Provider && u.FederatedID == user.FederatedID {
			return nil, domain.ErrDuplicateKey
		}
	}

	stored := *user
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	r.users[stored.ID] = stored
	out := stored
	return &out, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.find(ctx, func(u *domain.User) bool { return u.ID == id })
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.find(ctx, func(u *domain.User) bool { return u.Username == username })
}

func (r *UserRepository) FindByFederatedID(ctx context.Context, provider, federatedID string) (*domain.User, error) {
	return r.find(ctx, func(u *domain.User) bool {
		return u.AuthMethod == domain.AuthFederated && u.Provider == provider && u.FederatedID == federatedID
	})
}

func (r *UserRepository) find(ctx context.Context, match func(*domain.User) bool) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if match(&u) {
			out := u
			return &out, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// SessionStore keeps sessions in memory until they expire or are deleted.
type SessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]sessionEntry
	now      func() time.Time
}

type sessionEntry struct {
	userID    string
	expiresAt time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{ttl: ttl, sessions: make(map[string]sessionEntry), now: time.Now}
}

func (s *SessionStore) Save(_ context.Context, sessionID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = sessionEntry{userID: userID, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *SessionStore) Lookup(_ context.Context, sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[sessionID]
	if !ok {
		return "", domain.ErrUnauthorized
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.sessions, sessionID)
		return "", domain.ErrUnauthorized
	}
	return e.userID, nil
}

func (s *SessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
