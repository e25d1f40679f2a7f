package domain

import (
	"strings"
	"time"
)

// Category classifies a workout.
type Category string

const (
	CategoryCardio      Category = "Cardio"
	CategoryStrength    Category = "Strength"
	CategoryFlexibility Category = "Flexibility"
	CategorySports      Category = "Sports"
	CategoryOther       Category = "Other"
)

// Intensity is the perceived effort of a workout.
type Intensity string

const (
	IntensityLow    Intensity = "Low"
	IntensityMedium Intensity = "Medium"
	IntensityHigh   Intensity = "High"
)

// Field bounds.
const (
	TitleMaxLen       = 100
	DescriptionMaxLen = 500
	NotesMaxLen       = 1000
	DurationMin       = 1
	DurationMax       = 480
	CaloriesMin       = 0
	CaloriesMax       = 2000
)

// Workout is the core aggregate root. OwnerID is fixed at creation.
type Workout struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	Category        Category  `json:"category"`
	DurationMinutes int       `json:"duration_minutes"`
	Intensity       Intensity `json:"intensity"`
	Date            time.Time `json:"date"`
	Calories        *int      `json:"calories,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	OwnerID         string    `json:"owner_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// WorkoutFields are the caller-controlled attributes of a workout. The
// validate tags are the full rule set applied on create and update.
type WorkoutFields struct {
	Title           string    `json:"title"            validate:"required,max=100"`
	Description     string    `json:"description"      validate:"max=500"`
	Category        Category  `json:"category"         validate:"required,oneof=Cardio Strength Flexibility Sports Other"`
	DurationMinutes int       `json:"duration_minutes" validate:"min=1,max=480"`
	Intensity       Intensity `json:"intensity"        validate:"required,oneof=Low Medium High"`
	Date            time.Time `json:"date"`
	Calories        *int      `json:"calories"         validate:"omitempty,min=0,max=2000"`
	Notes           string    `json:"notes"            validate:"max=1000"`
}

// Normalize trims free text and fills the defaults a blank form would get.
func (f *WorkoutFields) Normalize() {
	f.Title = strings.TrimSpace(f.Title)
	f.Description = strings.TrimSpace(f.Description)
	f.Notes = strings.TrimSpace(f.Notes)
	f.Category = Category(strings.TrimSpace(string(f.Category)))
	f.Intensity = Intensity(strings.TrimSpace(string(f.Intensity)))
	if f.Intensity == "" {
		f.Intensity = IntensityMedium
	}
}

// Apply copies the fields onto w. A zero Date leaves the stored date alone.
func (f WorkoutFields) Apply(w *Workout) {
	w.Title = f.Title
	w.Description = f.Description
	w.Category = f.Category
	w.DurationMinutes = f.DurationMinutes
	w.Intensity = f.Intensity
	if !f.Date.IsZero() {
		w.Date = f.Date.UTC()
	}
	w.Calories = f.Calories
	w.Notes = f.Notes
}

// Fields extracts the caller-controlled part of a stored workout.
func (w *Workout) Fields() WorkoutFields {
	return WorkoutFields{
		Title:           w.Title,
		Description:     w.Description,
		Category:        w.Category,
		DurationMinutes: w.DurationMinutes,
		Intensity:       w.Intensity,
		Date:            w.Date,
		Calories:        w.Calories,
		Notes:           w.Notes,
	}
}

// SearchScope selects which owners a search covers.
type SearchScope string

const (
	ScopeMine   SearchScope = "mine"
	ScopePublic SearchScope = "public"
)

// WorkoutEventType names a mutation recorded in the change feed.
type WorkoutEventType string

const (
	WorkoutCreated WorkoutEventType = "created"
	WorkoutUpdated WorkoutEventType = "updated"
	WorkoutDeleted WorkoutEventType = "deleted"
)

// WorkoutEvent records a successful mutation of a workout.
type WorkoutEvent struct {
	WorkoutID  string
	OwnerID    string
	Type       WorkoutEventType
	OccurredAt time.Time
}

// SearchWeights are the relative weights of the text-searchable fields. A
// query term found in the title counts ten times one found in the notes.
var SearchWeights = map[string]int{
	"title":       10,
	"category":    5,
	"description": 3,
	"notes":       1,
}
