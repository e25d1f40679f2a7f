package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/fitlog/workout-tracker/internal/core/domain"
)

const stateTTL = 10 * time.Minute

// StateStore issues single-use OAuth state values.
// Key format: oauth_state:<state>
type StateStore struct {
	client *redis.Client
}

func NewStateStore(client *redis.Client) *StateStore {
	return &StateStore{client: client}
}

// Issue returns a fresh state value valid for stateTTL.
func (s *StateStore) Issue(ctx context.Context) (string, error) {
	state := uuid.NewString()
	if err := s.client.Set(ctx, s.key(state), "1", stateTTL).Err(); err != nil {
		return "", unavailable("issue oauth state", err)
	}
	return state, nil
}

// Consume deletes state and fails with domain.ErrUnauthorized when it was
// never issued, already used or expired.
func (s *StateStore) Consume(ctx context.Context, state string) error {
	if state == "" {
		return domain.ErrUnauthorized
	}
	_, err := s.client.GetDel(ctx, s.key(state)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.ErrUnauthorized
	}
	return unavailable("consume oauth state", err)
}

func (s *StateStore) key(state string) string {
	return "oauth_state:" + state
}
