package ports

import (
	"context"

	"github.com/fitlog/workout-tracker/internal/core/domain"
)

// EventRepository persists the workout change feed.
type EventRepository interface {
	// InsertEvent appends an event to the workout_events audit collection.
	InsertEvent(ctx context.Context, event domain.WorkoutEvent) error
}
