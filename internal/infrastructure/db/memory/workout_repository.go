// Package memory holds in-process stores used for local development
// (STORE_DRIVER=memory) and tests. They follow the same ownership and
// ordering rules as the MongoDB repositories.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/fitlog/workout-tracker/internal/core/domain"
	"github.com/fitlog/workout-tracker/internal/core/ports"
)

// WorkoutRepository stores workouts in a map guarded by a RWMutex.
type WorkoutRepository struct {
	mu       sync.RWMutex
	workouts map[string]domain.Workout
}

func NewWorkoutRepository() *WorkoutRepository {
	return &WorkoutRepository{workouts: make(map[string]domain.Workout)}
}

func (r *WorkoutRepository) Create(ctx context.Context, w *domain.Workout) (*domain.Workout, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneWorkout(w)
	if strings.TrimSpace(stored.ID) == "" {
		stored.ID = uuid.NewString()
	}
	r.workouts[stored.ID] = *stored
	return cloneWorkout(stored), nil
}

func (r *WorkoutRepository) FindOwned(ctx context.Context, id, ownerID string) (*domain.Workout, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.workouts[id]
	if !ok || w.OwnerID != ownerID {
		return nil, domain.ErrWorkoutNotFound
	}
	return cloneWorkout(&w), nil
}

func (r *WorkoutRepository) UpdateOwned(ctx context.Context, id, ownerID string, fields domain.WorkoutFields, updatedAt time.Time) (*domain.Workout, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.workouts[id]
	if !ok || w.OwnerID != ownerID {
		return nil, domain.ErrWorkoutNotFound
	}
	fields.Apply(&w)
	w.Calories = cloneInt(fields.Calories)
	w.UpdatedAt = updatedAt.UTC()
	r.workouts[id] = w
	return cloneWorkout(&w), nil
}

func (r *WorkoutRepository) DeleteOwned(ctx context.Context, id, ownerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.workouts[id]
	if !ok || w.OwnerID != ownerID {
		return domain.ErrWorkoutNotFound
	}
	delete(r.workouts, id)
	return nil
}

type scored struct {
	w     domain.Workout
	score int
}

// Search scores each candidate with the weighted term count and orders by
// score, date descending, then id.
func (r *WorkoutRepository) Search(ctx context.Context, q ports.WorkoutQuery) ([]*domain.Workout, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	terms := Tokenize(q.Text)
	matched := make([]scored, 0, len(r.workouts))
	for _, w := range r.workouts {
		if q.OwnerID != "" && w.OwnerID != q.OwnerID {
			continue
		}
		score := 0
		if len(terms) > 0 {
			score = Score(&w, terms)
			if score == 0 {
				continue
			}
		}
		matched = append(matched, scored{w: w, score: score})
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if !a.w.Date.Equal(b.w.Date) {
			return a.w.Date.After(b.w.Date)
		}
		return a.w.ID < b.w.ID
	})

	total := int64(len(matched))
	skip := (q.Page - 1) * q.Limit
	if skip < 0 {
		skip = 0
	}
	if skip >= len(matched) {
		return []*domain.Workout{}, total, nil
	}
	end := len(matched)
	if q.Limit > 0 && skip+q.Limit < end {
		end = skip + q.Limit
	}

	out := make([]*domain.Workout, 0, end-skip)
	for i := skip; i < end; i++ {
		out = append(out, cloneWorkout(&matched[i].w))
	}
	return out, total, nil
}

// Tokenize lowercases s and splits it into distinct letter/digit runs.
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// Score is the weighted number of query term occurrences across the
// searchable fields of w.
func Score(w *domain.Workout, terms []string) int {
	text := map[string]string{
		"title":       w.Title,
		"category":    string(w.Category),
		"description": w.Description,
		"notes":       w.Notes,
	}
	total := 0
	for field, weight := range domain.SearchWeights {
		tokens := strings.FieldsFunc(strings.ToLower(text[field]), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, tok := range tokens {
			for _, term := range terms {
				if tok == term {
					total += weight
				}
			}
		}
	}
	return total
}

func cloneWorkout(w *domain.Workout) *domain.Workout {
	c := *w
	c.Calories = cloneInt(w.Calories)
	return &c
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
