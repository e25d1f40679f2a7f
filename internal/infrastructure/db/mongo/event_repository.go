package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fitlog/workout-tracker/internal/core/domain"
	"github.com/fitlog/workout-tracker/internal/core/ports"
)

const collectionWorkoutEvents = "workout_events"

// EventRepository implements ports.EventRepository using MongoDB.
type EventRepository struct {
	col *mongo.Collection
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *mongo.Database) ports.EventRepository {
	return &EventRepository{col: db.Collection(collectionWorkoutEvents)}
}

// InsertEvent persists a workout change to the workout_events audit collection.
func (r *EventRepository) InsertEvent(ctx context.Context, event domain.WorkoutEvent) error {
	doc := bson.M{
		"workout_id":   event.WorkoutID,
		"owner_id":     event.OwnerID,
		"type":         string(event.Type),
		"occurred_at":  event.OccurredAt.UTC(),
		"processed_at": time.Now().UTC(),
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return classify("insert workout event", err, domain.ErrWorkoutNotFound)
	}
	return nil
}
