package ports

import "github.com/fitlog/workout-tracker/internal/core/domain"

// EventSink receives workout change events after a successful mutation.
// Publish must not block the caller.
type EventSink interface {
	Publish(event domain.WorkoutEvent)
}
