package handler

import (
	"time"

	"github.com/fitlog/workout-tracker/internal/core/domain"
)

// errorResponse documents the error envelope rendered by the API error handler.
type errorResponse struct {
	Error  string              `json:"error"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

// --- Request / Response types ---

// workoutRequest is the body of create and update. Date accepts RFC 3339 or
// a plain YYYY-MM-DD day; omitted means now on create and unchanged on update.
type workoutRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Category        string `json:"category"`
	DurationMinutes int    `json:"duration_minutes"`
	Intensity       string `json:"intensity"`
	Date            string `json:"date"`
	Calories        *int   `json:"calories"`
	Notes           string `json:"notes"`
}

type workoutLinks struct {
	Self string `json:"self"`
}

type workoutResponse struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Description     string       `json:"description,omitempty"`
	Category        string       `json:"category"`
	DurationMinutes int          `json:"duration_minutes"`
	Intensity       string       `json:"intensity"`
	Date            time.Time    `json:"date"`
	Calories        *int         `json:"calories,omitempty"`
	Notes           string       `json:"notes,omitempty"`
	OwnerID         string       `json:"owner_id"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	Links           workoutLinks `json:"_links"`
}

type paginationResponse struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

type listWorkoutsResponse struct {
	Data       []workoutResponse  `json:"data"`
	Pagination paginationResponse `json:"pagination"`
}

// --- Auth ---

type registerRequest struct {
	Username        string `json:"username"         validate:"required"`
	Email           string `json:"email"            validate:"required,email"`
	Password        string `json:"password"         validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	AuthMethod string    `json:"auth_method"`
	Provider   string    `json:"provider,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type sessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

type principalResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}
