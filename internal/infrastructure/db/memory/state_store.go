package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fitlog/workout-tracker/internal/core/domain"
)

const stateTTL = 10 * time.Minute

// StateStore issues single-use OAuth state values held in memory.
type StateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
	now    func() time.Time
}

func NewStateStore() *StateStore {
	return &StateStore{states: make(map[string]time.Time), now: time.Now}
}

func (s *StateStore) Issue(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := uuid.NewString()
	s.states[state] = s.now().Add(stateTTL)
	return state, nil
}

func (s *StateStore) Consume(_ context.Context, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.states[state]
	delete(s.states, state)
	if !ok || !s.now().Before(exp) {
		return domain.ErrUnauthorized
	}
	return nil
}
