package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fitlog/workout-tracker/internal/core/domain"
)

// SessionStore keeps login sessions in Redis so they survive restarts and
// can be revoked. Key format: session:<session_id> → user id.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore creates a SessionStore whose entries expire after ttl.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Save(ctx context.Context, sessionID, userID string) error {
	return unavailable("save session", s.client.Set(ctx, s.key(sessionID), userID, s.ttl).Err())
}

// Lookup returns the session's user, or domain.ErrUnauthorized once it has
// expired or been deleted.
func (s *SessionStore) Lookup(ctx context.Context, sessionID string) (string, error) {
	userID, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrUnauthorized
	}
	if err != nil {
		return "", unavailable("lookup session", err)
	}
	return userID, nil
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	return unavailable("delete session", s.client.Del(ctx, s.key(sessionID)).Err())
}

func (s *SessionStore) key(sessionID string) string {
	return "session:" + sessionID
}
