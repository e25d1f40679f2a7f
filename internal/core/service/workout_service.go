package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fitlog/workout-tracker/internal/core/domain"
	"github.com/fitlog/workout-tracker/internal/core/ports"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// WorkoutService implements ownership-scoped workout CRUD and search.
type WorkoutService struct {
	repo     ports.WorkoutRepository
	idem     ports.IdempotencyStore
	events   ports.EventSink
	timeout  time.Duration
	validate *validator.Validate
	now      func() time.Time
}

// NewWorkoutService returns a WorkoutService. idem and events are optional.
// storeTimeout bounds every repository call.
func NewWorkoutService(
	repo ports.WorkoutRepository,
	idem ports.IdempotencyStore,
	events ports.EventSink,
	storeTimeout time.Duration,
) *WorkoutService {
	return &WorkoutService{
		repo:     repo,
		idem:     idem,
		events:   events,
		timeout:  boundedTimeout(storeTimeout),
		validate: newFieldValidator(),
		now:      time.Now,
	}
}

// ValidateFields normalizes f in place and reports every rule it breaks.
func (s *WorkoutService) ValidateFields(f *domain.WorkoutFields) error {
	f.Normalize()
	return validateStruct(s.validate, f)
}

// Create stores a new workout owned by principal.
func (s *WorkoutService) Create(ctx context.Context, principal *domain.Principal, in ports.CreateWorkoutInput) (*ports.CreateWorkoutResult, error) {
	if principal == nil {
		return nil, domain.ErrUnauthorized
	}
	fields := in.Fields
	if err := s.ValidateFields(&fields); err != nil {
		return nil, err
	}

	if replay := s.replay(ctx, principal.UserID, in.IdempotencyKey); replay != nil {
		return &ports.CreateWorkoutResult{Workout: replay, Replayed: true}, nil
	}

	now := s.now().UTC()
	w := &domain.Workout{
		OwnerID:   principal.UserID,
		Date:      now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	fields.Apply(w)

	created, err := s.withTimeout(ctx, func(ctx context.Context) (*domain.Workout, error) {
		return s.repo.Create(ctx, w)
	})
	if err != nil {
		return nil, storeErr("create workout", err)
	}

	// Remembering the key is best effort: the workout is already stored, and a
	// lost key only means a retry creates a second record.
	if in.IdempotencyKey != "" && s.idem != nil {
		rctx, cancel := withStoreTimeout(ctx, s.timeout)
		_ = s.idem.Remember(rctx, principal.UserID, in.IdempotencyKey, created.ID)
		cancel()
	}

	s.publish(created, domain.WorkoutCreated)
	return &ports.CreateWorkoutResult{Workout: created}, nil
}

// replay returns the workout an earlier create with the same key produced.
// Any failure, including a since-deleted workout, counts as a miss.
func (s *WorkoutService) replay(ctx context.Context, ownerID, key string) *domain.Workout {
	if key == "" || s.idem == nil {
		return nil
	}
	ctx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()

	id, ok, err := s.idem.Lookup(ctx, ownerID, key)
	if err != nil || !ok {
		return nil
	}
	w, err := s.repo.FindOwned(ctx, id, ownerID)
	if err != nil {
		return nil
	}
	return w
}

// Get returns the workout when principal owns it.
func (s *WorkoutService) Get(ctx context.Context, principal *domain.Principal, id string) (*domain.Workout, error) {
	if principal == nil {
		return nil, domain.ErrUnauthorized
	}
	w, err := s.withTimeout(ctx, func(ctx context.Context) (*domain.Workout, error) {
		return s.repo.FindOwned(ctx, id, principal.UserID)
	})
	if err != nil {
		return nil, storeErr("get workout", err)
	}
	return w, nil
}

// Update replaces the mutable fields of an owned workout.
func (s *WorkoutService) Update(ctx context.Context, principal *domain.Principal, id string, fields domain.WorkoutFields) (*domain.Workout, error) {
	if principal == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := s.ValidateFields(&fields); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	w, err := s.withTimeout(ctx, func(ctx context.Context) (*domain.Workout, error) {
		return s.repo.UpdateOwned(ctx, id, principal.UserID, fields, now)
	})
	if err != nil {
		return nil, storeErr("update workout", err)
	}

	s.publish(w, domain.WorkoutUpdated)
	return w, nil
}

// Delete physically removes an owned workout.
func (s *WorkoutService) Delete(ctx context.Context, principal *domain.Principal, id string) error {
	if principal == nil {
		return domain.ErrUnauthorized
	}
	ctx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.repo.DeleteOwned(ctx, id, principal.UserID); err != nil {
		return storeErr("delete workout", err)
	}

	s.publish(&domain.Workout{ID: id, OwnerID: principal.UserID}, domain.WorkoutDeleted)
	return nil
}

// List returns principal's workouts, optionally filtered by a text query.
func (s *WorkoutService) List(ctx context.Context, principal *domain.Principal, in ports.ListWorkoutsInput) (*ports.ListWorkoutsResult, error) {
	if principal == nil {
		return nil, domain.ErrUnauthorized
	}
	return s.query(ctx, principal.UserID, in)
}

// Search lists workouts across all owners (public) or principal's own (mine).
func (s *WorkoutService) Search(ctx context.Context, principal *domain.Principal, scope domain.SearchScope, in ports.ListWorkoutsInput) (*ports.ListWorkoutsResult, error) {
	switch scope {
	case domain.ScopePublic:
		return s.query(ctx, "", in)
	case domain.ScopeMine:
		if principal == nil {
			return nil, domain.ErrUnauthorized
		}
		return s.query(ctx, principal.UserID, in)
	default:
		verr := &domain.ValidationError{}
		verr.Add("scope", "scope must be one of: mine public")
		return nil, verr
	}
}

func (s *WorkoutService) query(ctx context.Context, ownerID string, in ports.ListWorkoutsInput) (*ports.ListWorkoutsResult, error) {
	page, limit := normalizePage(in.Page, in.Limit)

	ctx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()

	items, total, err := s.repo.Search(ctx, ports.WorkoutQuery{
		OwnerID: ownerID,
		Text:    strings.TrimSpace(in.Query),
		Page:    page,
		Limit:   limit,
	})
	if err != nil {
		return nil, storeErr("search workouts", err)
	}
	if items == nil {
		items = []*domain.Workout{}
	}

	totalPages := int(total) / limit
	if int(total)%limit != 0 {
		totalPages++
	}

	return &ports.ListWorkoutsResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

func (s *WorkoutService) withTimeout(ctx context.Context, fn func(context.Context) (*domain.Workout, error)) (*domain.Workout, error) {
	ctx, cancel := withStoreTimeout(ctx, s.timeout)
	defer cancel()
	return fn(ctx)
}

func (s *WorkoutService) publish(w *domain.Workout, typ domain.WorkoutEventType) {
	if s.events == nil {
		return
	}
	s.events.Publish(domain.WorkoutEvent{
		WorkoutID:  w.ID,
		OwnerID:    w.OwnerID,
		Type:       typ,
		OccurredAt: s.now().UTC(),
	})
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}
