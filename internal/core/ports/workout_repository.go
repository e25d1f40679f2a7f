package ports

import (
	"context"
	"time"

	"github.com/fitlog/workout-tracker/internal/core/domain"
)

// WorkoutQuery carries the parameters for listing and searching workouts.
type WorkoutQuery struct {
	OwnerID string // empty = all owners (public scope)
	Text    string // optional free-text query; empty lists by date
	Page    int    // 1-based
	Limit   int    // rows per page
}

// WorkoutRepository defines persistence operations for workouts. Every
// record-scoped call takes the owner so the ownership check is part of the
// lookup itself; a foreign record is reported as domain.ErrWorkoutNotFound.
type WorkoutRepository interface {
	Create(ctx context.Context, w *domain.Workout) (*domain.Workout, error)
	FindOwned(ctx context.Context, id, ownerID string) (*domain.Workout, error)
	// UpdateOwned replaces the mutable fields in a single atomic write. A zero
	// fields.Date keeps the stored date.
	UpdateOwned(ctx context.Context, id, ownerID string, fields domain.WorkoutFields, updatedAt time.Time) (*domain.Workout, error)
	DeleteOwned(ctx context.Context, id, ownerID string) error
	// Search returns a page of workouts matching q and the total match count.
	// Results are ordered by relevance (when q.Text is set), then date
	// descending, then id ascending.
	Search(ctx context.Context, q WorkoutQuery) ([]*domain.Workout, int64, error)
}

// IdempotencyStore remembers which workout a client-supplied key produced.
type IdempotencyStore interface {
	Lookup(ctx context.Context, ownerID, key string) (string, bool, error)
	Remember(ctx context.Context, ownerID, key, workoutID string) error
}
