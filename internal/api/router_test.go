package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/fitlog/workout-tracker/internal/core/service"
	"github.com/fitlog/workout-tracker/internal/infrastructure/db/memory"
)

// The prometheus middleware registers its collectors globally, so the whole
// flow runs against one router.
func newTestRouter(t *testing.T) *echo.Echo {
	t.Helper()
	identity := service.NewIdentityService(memory.NewUserRepository(), memory.NewSessionStore(time.Hour), service.IdentityConfig{
		SessionSecret: "router-test-secret",
		SessionTTL:    time.Hour,
		BcryptCost:    bcrypt.MinCost,
		StoreTimeout:  time.Second,
	})
	workouts := service.NewWorkoutService(memory.NewWorkoutRepository(), nil, nil, time.Second)
	return NewRouter(Deps{
		Identity: identity,
		Workouts: workouts,
		Log:      zerolog.Nop(),
	})
}

type client struct {
	t     *testing.T
	e     *echo.Echo
	token string
}

func (c client) do(method, path, body string, out any) *httptest.ResponseRecorder {
	c.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if c.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	c.e.ServeHTTP(rec, req)
	if out != nil && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			c.t.Fatalf("%s %s: invalid json %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec
}

type session struct {
	Token string `json:"token"`
	User  struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
}

type workout struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	OwnerID string `json:"owner_id"`
}

type page struct {
	Data       []workout `json:"data"`
	Pagination struct {
		Total int64 `json:"total"`
	} `json:"pagination"`
}

func register(t *testing.T, e *echo.Echo, name string) client {
	t.Helper()
	var s session
	body := `{"username":"` + name + `","email":"` + name + `@example.com","password":"secret123","confirm_password":"secret123"}`
	rec := client{t: t, e: e}.do(http.MethodPost, "/auth/register", body, &s)
	if rec.Code != http.StatusCreated || s.Token == "" {
		t.Fatalf("register %s: %d %s", name, rec.Code, rec.Body.String())
	}
	return client{t: t, e: e, token: s.Token}
}

func TestRouter_WorkoutFlow(t *testing.T) {
	e := newTestRouter(t)
	anon := client{t: t, e: e}
	alice := register(t, e, "alice")
	bob := register(t, e, "bob")

	var created workout
	rec := alice.do(http.MethodPost, "/v1/workouts",
		`{"title":"Tempo run","category":"Cardio","duration_minutes":40,"intensity":"High","date":"2025-03-01"}`, &created)
	if rec.Code != http.StatusCreated || created.ID == "" {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	bob.do(http.MethodPost, "/v1/workouts", `{"title":"Bench press","category":"Strength","duration_minutes":30}`, nil)

	t.Run("anonymous create is rejected", func(t *testing.T) {
		rec := anon.do(http.MethodPost, "/v1/workouts", `{"title":"x","category":"Cardio","duration_minutes":5}`, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("invalid workout lists every field", func(t *testing.T) {
		var resp errorResponse
		rec := alice.do(http.MethodPost, "/v1/workouts", `{"title":"","category":"Dance","duration_minutes":0}`, &resp)
		if rec.Code != http.StatusUnprocessableEntity || len(resp.Fields) < 3 {
			t.Fatalf("expected 422 with three fields, got %d %+v", rec.Code, resp)
		}
	})

	t.Run("list is scoped to the caller", func(t *testing.T) {
		var p page
		alice.do(http.MethodGet, "/v1/workouts", "", &p)
		if p.Pagination.Total != 1 || p.Data[0].ID != created.ID {
			t.Fatalf("unexpected list: %+v", p)
		}
	})

	t.Run("foreign workout is not found", func(t *testing.T) {
		if rec := bob.do(http.MethodGet, "/v1/workouts/"+created.ID, "", nil); rec.Code != http.StatusNotFound {
			t.Fatalf("get: expected 404, got %d", rec.Code)
		}
		if rec := bob.do(http.MethodDelete, "/v1/workouts/"+created.ID, "", nil); rec.Code != http.StatusNotFound {
			t.Fatalf("delete: expected 404, got %d", rec.Code)
		}
	})

	t.Run("public search sees everyone", func(t *testing.T) {
		var p page
		rec := anon.do(http.MethodGet, "/v1/workouts/public", "", &p)
		if rec.Code != http.StatusOK || p.Pagination.Total != 2 {
			t.Fatalf("public: %d %+v", rec.Code, p)
		}

		anon.do(http.MethodGet, "/v1/workouts/search?q=tempo", "", &p)
		if len(p.Data) != 1 || p.Data[0].ID != created.ID {
			t.Fatalf("search tempo: %+v", p)
		}
	})

	t.Run("update and delete own workout", func(t *testing.T) {
		var updated workout
		rec := alice.do(http.MethodPut, "/v1/workouts/"+created.ID,
			`{"title":"Long run","category":"Cardio","duration_minutes":90}`, &updated)
		if rec.Code != http.StatusOK || updated.Title != "Long run" {
			t.Fatalf("update: %d %s", rec.Code, rec.Body.String())
		}
		if rec := alice.do(http.MethodDelete, "/v1/workouts/"+created.ID, "", nil); rec.Code != http.StatusNoContent {
			t.Fatalf("delete: expected 204, got %d", rec.Code)
		}
		if rec := alice.do(http.MethodGet, "/v1/workouts/"+created.ID, "", nil); rec.Code != http.StatusNotFound {
			t.Fatalf("get after delete: expected 404, got %d", rec.Code)
		}
	})

	t.Run("logout revokes the token", func(t *testing.T) {
		if rec := bob.do(http.MethodPost, "/auth/logout", "", nil); rec.Code != http.StatusNoContent {
			t.Fatalf("logout: expected 204, got %d", rec.Code)
		}
		if rec := bob.do(http.MethodGet, "/auth/me", "", nil); rec.Code != http.StatusUnauthorized {
			t.Fatalf("me after logout: expected 401, got %d", rec.Code)
		}
	})

	t.Run("duplicate registration conflicts", func(t *testing.T) {
		body := `{"username":"alice","email":"other@example.com","password":"secret123","confirm_password":"secret123"}`
		if rec := anon.do(http.MethodPost, "/auth/register", body, nil); rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("overlong password is a validation error", func(t *testing.T) {
		pw := strings.Repeat("x", 80)
		body := `{"username":"carol","email":"carol@example.com","password":"` + pw + `","confirm_password":"` + pw + `"}`
		var resp errorResponse
		rec := anon.do(http.MethodPost, "/auth/register", body, &resp)
		if rec.Code != http.StatusUnprocessableEntity || len(resp.Fields) != 1 || resp.Fields[0].Field != "password" {
			t.Fatalf("expected 422 on password, got %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("login sets a working session cookie", func(t *testing.T) {
		rec := anon.do(http.MethodPost, "/auth/login", `{"username":"alice","password":"secret123"}`, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
		}
		cookies := rec.Result().Cookies()
		if len(cookies) == 0 {
			t.Fatalf("no session cookie set")
		}

		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.AddCookie(cookies[0])
		me := httptest.NewRecorder()
		e.ServeHTTP(me, req)
		if me.Code != http.StatusOK || !strings.Contains(me.Body.String(), `"username":"alice"`) {
			t.Fatalf("me via cookie: %d %s", me.Code, me.Body.String())
		}
	})

	t.Run("github sign-in is off without a provider", func(t *testing.T) {
		if rec := anon.do(http.MethodGet, "/auth/github", "", nil); rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("health", func(t *testing.T) {
		if rec := anon.do(http.MethodGet, "/health/ready", "", nil); rec.Code != http.StatusOK {
			t.Fatalf("ready: expected 200, got %d", rec.Code)
		}
	})
}
