package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fitlog/workout-tracker/internal/core/domain"
	"github.com/fitlog/workout-tracker/internal/core/ports"
)

const collectionWorkouts = "workouts"

type WorkoutRepository struct {
	col *mongo.Collection
}

func NewWorkoutRepository(db *mongo.Database) *WorkoutRepository {
	return &WorkoutRepository{col: db.Collection(collectionWorkouts)}
}

type mongoWorkout struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Title           string             `bson:"title"`
	Description     string             `bson:"description,omitempty"`
	Category        string             `bson:"category"`
	DurationMinutes int                `bson:"duration_minutes"`
	Intensity       string             `bson:"intensity"`
	Date            time.Time          `bson:"date"`
	Calories        *int               `bson:"calories,omitempty"`
	Notes           string             `bson:"notes,omitempty"`
	OwnerID         primitive.ObjectID `bson:"owner_id"`
	CreatedAt       time.Time          `bson:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at"`
}

func (m *mongoWorkout) toDomain() *domain.Workout {
	return &domain.Workout{
		ID:              m.ID.Hex(),
		Title:           m.Title,
		Description:     m.Description,
		Category:        domain.Category(m.Category),
		DurationMinutes: m.DurationMinutes,
		Intensity:       domain.Intensity(m.Intensity),
		Date:            m.Date.UTC(),
		Calories:        m.Calories,
		Notes:           m.Notes,
		OwnerID:         m.OwnerID.Hex(),
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
}

// Create inserts a new workout document and returns it with its assigned ID.
func (r *WorkoutRepository) Create(ctx context.Context, w *domain.Workout) (*domain.Workout, error) {
	owner, err := primitive.ObjectIDFromHex(w.OwnerID)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	doc := mongoWorkout{
		ID:              primitive.NewObjectID(),
		Title:           w.Title,
		Description:     w.Description,
		Category:        string(w.Category),
		DurationMinutes: w.DurationMinutes,
		Intensity:       string(w.Intensity),
		Date:            w.Date.UTC(),
		Calories:        w.Calories,
		Notes:           w.Notes,
		OwnerID:         owner,
		CreatedAt:       w.CreatedAt.UTC(),
		UpdatedAt:       w.UpdatedAt.UTC(),
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, classify("insert workout", err, domain.ErrWorkoutNotFound)
	}
	return doc.toDomain(), nil
}

// ownedFilter matches a workout by id and owner in one predicate, so a
// foreign record and a missing one are the same miss.
func ownedFilter(id, ownerID string) (bson.M, error) {
	oid, err := objectID(id, domain.ErrWorkoutNotFound)
	if err != nil {
		return nil, err
	}
	owner, err := objectID(ownerID, domain.ErrWorkoutNotFound)
	if err != nil {
		return nil, err
	}
	return bson.M{"_id": oid, "owner_id": owner}, nil
}

func (r *WorkoutRepository) FindOwned(ctx context.Context, id, ownerID string) (*domain.Workout, error) {
	filter, err := ownedFilter(id, ownerID)
	if err != nil {
		return nil, err
	}

	var m mongoWorkout
	if err := r.col.FindOne(ctx, filter).Decode(&m); err != nil {
		return nil, classify("find workout", err, domain.ErrWorkoutNotFound)
	}
	return m.toDomain(), nil
}

// UpdateOwned sets the mutable fields with a single findOneAndUpdate.
func (r *WorkoutRepository) UpdateOwned(ctx context.Context, id, ownerID string, f domain.WorkoutFields, updatedAt time.Time) (*domain.Workout, error) {
	filter, err := ownedFilter(id, ownerID)
	if err != nil {
		return nil, err
	}

	set := bson.M{
		"title":            f.Title,
		"description":      f.Description,
		"category":         string(f.Category),
		"duration_minutes": f.DurationMinutes,
		"intensity":        string(f.Intensity),
		"notes":            f.Notes,
		"updated_at":       updatedAt.UTC(),
	}
	if !f.Date.IsZero() {
		set["date"] = f.Date.UTC()
	}
	update := bson.M{"$set": set}
	if f.Calories != nil {
		set["calories"] = *f.Calories
	} else {
		update["$unset"] = bson.M{"calories": ""}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var m mongoWorkout
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&m); err != nil {
		return nil, classify("update workout", err, domain.ErrWorkoutNotFound)
	}
	return m.toDomain(), nil
}

func (r *WorkoutRepository) DeleteOwned(ctx context.Context, id, ownerID string) error {
	filter, err := ownedFilter(id, ownerID)
	if err != nil {
		return err
	}

	res, err := r.col.DeleteOne(ctx, filter)
	if err != nil {
		return classify("delete workout", err, domain.ErrWorkoutNotFound)
	}
	if res.DeletedCount == 0 {
		return domain.ErrWorkoutNotFound
	}
	return nil
}

// Search runs a $text query when q.Text is set, ranking by textScore, and a
// plain scan otherwise. Both end with date desc, _id asc so pages are stable.
func (r *WorkoutRepository) Search(ctx context.Context, q ports.WorkoutQuery) ([]*domain.Workout, int64, error) {
	filter := bson.M{}
	if q.OwnerID != "" {
		owner, err := primitive.ObjectIDFromHex(q.OwnerID)
		if err != nil {
			return []*domain.Workout{}, 0, nil
		}
		filter["owner_id"] = owner
	}

	sort := bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: 1}}
	findOpts := options.Find()
	if q.Text != "" {
		filter["$text"] = bson.M{"$search": q.Text}
		score := bson.M{"$meta": "textScore"}
		sort = append(bson.D{{Key: "score", Value: score}}, sort...)
		findOpts.SetProjection(bson.M{"score": score})
	}
	findOpts.SetSort(sort)
	if q.Limit > 0 {
		findOpts.SetLimit(int64(q.Limit))
		if q.Page > 1 {
			findOpts.SetSkip(int64((q.Page - 1) * q.Limit))
		}
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, classify("count workouts", err, domain.ErrWorkoutNotFound)
	}

	cur, err := r.col.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, classify("find workouts", err, domain.ErrWorkoutNotFound)
	}
	defer cur.Close(ctx)

	var docs []mongoWorkout
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, classify("decode workouts", err, domain.ErrWorkoutNotFound)
	}

	out := make([]*domain.Workout, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, total, nil
}

// EnsureIndexes creates the owner/date index and the weighted text index
// over the searchable fields.
func (r *WorkoutRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	weights := bson.M{}
	for field, w := range domain.SearchWeights {
		weights[field] = w
	}

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "date", Value: -1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: 1}}},
		{
			Keys: bson.D{
				{Key: "title", Value: "text"},
				{Key: "category", Value: "text"},
				{Key: "description", Value: "text"},
				{Key: "notes", Value: "text"},
			},
			Options: options.Index().SetName("workout_text").SetWeights(weights),
		},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
