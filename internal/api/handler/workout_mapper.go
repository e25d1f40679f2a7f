package handler

import (
	"strings"
	"time"

	"github.com/fitlog/workout-tracker/internal/core/domain"
	"github.com/fitlog/workout-tracker/internal/core/ports"
)

const dayLayout = "2006-01-02"

// --- Request → Service input ---

func toWorkoutFields(req workoutRequest) (domain.WorkoutFields, error) {
	f := domain.WorkoutFields{
		Title:           req.Title,
		Description:     req.Description,
		Category:        domain.Category(req.Category),
		DurationMinutes: req.DurationMinutes,
		Intensity:       domain.Intensity(req.Intensity),
		Calories:        req.Calories,
		Notes:           req.Notes,
	}
	if raw := strings.TrimSpace(req.Date); raw != "" {
		d, err := parseDate(raw)
		if err != nil {
			verr := &domain.ValidationError{}
			verr.Add("date", "date must be RFC 3339 or YYYY-MM-DD")
			return f, verr
		}
		f.Date = d
	}
	return f, nil
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(dayLayout, raw)
}

// --- Service result → HTTP response ---

func toWorkoutResponse(w *domain.Workout) workoutResponse {
	return workoutResponse{
		ID:              w.ID,
		Title:           w.Title,
		Description:     w.Description,
		Category:        string(w.Category),
		DurationMinutes: w.DurationMinutes,
		Intensity:       string(w.Intensity),
		Date:            w.Date.UTC(),
		Calories:        w.Calories,
		Notes:           w.Notes,
		OwnerID:         w.OwnerID,
		CreatedAt:       w.CreatedAt.UTC(),
		UpdatedAt:       w.UpdatedAt.UTC(),
		Links:           workoutLinks{Self: "/v1/workouts/" + w.ID},
	}
}

func toPagination(r *ports.ListWorkoutsResult) paginationResponse {
	return paginationResponse{
		Total:      r.Total,
		Page:       r.Page,
		Limit:      r.Limit,
		TotalPages: r.TotalPages,
	}
}

func toListResponse(r *ports.ListWorkoutsResult) listWorkoutsResponse {
	items := make([]workoutResponse, len(r.Items))
	for i, w := range r.Items {
		items[i] = toWorkoutResponse(w)
	}
	return listWorkoutsResponse{Data: items, Pagination: toPagination(r)}
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		AuthMethod: string(u.AuthMethod),
		Provider:   u.Provider,
		CreatedAt:  u.CreatedAt.UTC(),
	}
}

func toSessionResponse(s *domain.Session) sessionResponse {
	return sessionResponse{
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt.UTC(),
		User:      toUserResponse(s.User),
	}
}
