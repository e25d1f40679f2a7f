package ports

import (
	"context"

	"github.com/fitlog/workout-tracker/internal/core/domain"
)

// CreateWorkoutInput carries the data needed to create a workout.
type CreateWorkoutInput struct {
	Fields domain.WorkoutFields
	// IdempotencyKey, when set, makes retries of the same create return the
	// workout produced by the first attempt.
	IdempotencyKey string
}

// CreateWorkoutResult is returned by Create.
type CreateWorkoutResult struct {
	Workout *domain.Workout
	// Replayed is true when the idempotency key matched an earlier create.
	Replayed bool
}

// ListWorkoutsInput carries the optional query and paging for list/search.
type ListWorkoutsInput struct {
	Query string
	Page  int
	Limit int
}

// ListWorkoutsResult is returned by List and Search.
type ListWorkoutsResult struct {
	Items      []*domain.Workout
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// WorkoutService defines the ownership-scoped workout operations. A nil
// principal means the caller is anonymous.
type WorkoutService interface {
	Create(ctx context.Context, principal *domain.Principal, input CreateWorkoutInput) (*CreateWorkoutResult, error)
	Get(ctx context.Context, principal *domain.Principal, id string) (*domain.Workout, error)
	Update(ctx context.Context, principal *domain.Principal, id string, fields domain.WorkoutFields) (*domain.Workout, error)
	Delete(ctx context.Context, principal *domain.Principal, id string) error
	List(ctx context.Context, principal *domain.Principal, input ListWorkoutsInput) (*ListWorkoutsResult, error)
	Search(ctx context.Context, principal *domain.Principal, scope domain.SearchScope, input ListWorkoutsInput) (*ListWorkoutsResult, error)
}
