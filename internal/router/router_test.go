package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"timetrack/backend/internal/db"
	"timetrack/backend/internal/handler"
	"timetrack/backend/internal/model"
	"timetrack/backend/internal/repository"
	"timetrack/backend/internal/router"
	"timetrack/backend/internal/service"
)

type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

type activityEnvelope struct {
	Activity *struct {
		ID        string     `json:"id"`
		Title     string     `json:"title"`
		Category  string     `json:"category"`
		StartTime time.Time  `json:"startTime"`
		EndTime   *time.Time `json:"endTime"`
		Duration  *int64     `json:"duration"`
	} `json:"activity"`
}

type historyEnvelope struct {
	Activities []struct {
		ID       string `json:"id"`
		Duration *int64 `json:"duration"`
	} `json:"activities"`
}

type analyticsEnvelope struct {
	CategoryTotals []struct {
		Category string `json:"category"`
		Hours    int    `json:"hours"`
	} `json:"categoryTotals"`
	DailyTotals []struct {
		Date string `json:"date"`
	} `json:"dailyTotals"`
}

type stateEnvelope struct {
	State struct {
		Phase            string  `json:"phase"`
		Status           string  `json:"status"`
		RemainingSeconds int     `json:"remainingSeconds"`
		ActivityID       *string `json:"activityId"`
	} `json:"state"`
}

type apiErrorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestActivityTrackingFlow(t *testing.T) {
	engine := setupTestEngine(t)

	user := registerUser(t, engine, "tracker@example.com", "123456")

	// Start tracking.
	status, body := requestJSON(t, engine, http.MethodPost, "/api/activities/start", user.Token, map[string]string{
		"title":    "Deep work",
		"category": "Work",
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201 on start, got %d: %s", status, string(body))
	}
	var started activityEnvelope
	if err := json.Unmarshal(body, &started); err != nil {
		t.Fatalf("unmarshal start response: %v", err)
	}
	if started.Activity == nil || started.Activity.EndTime != nil {
		t.Fatal("expected a running activity")
	}

	// A second start in the same context conflicts.
	status, body = requestJSON(t, engine, http.MethodPost, "/api/activities/start", user.Token, map[string]string{
		"title":    "Another",
		"category": "Work",
	})
	if status != http.StatusConflict {
		t.Fatalf("expected 409 on double start, got %d: %s", status, string(body))
	}
	var conflict apiErrorEnvelope
	if err := json.Unmarshal(body, &conflict); err != nil {
		t.Fatalf("unmarshal conflict response: %v", err)
	}
	if conflict.Error.Code != "already_tracking" {
		t.Fatalf("expected already_tracking, got %s", conflict.Error.Code)
	}

	// Stop produces end time and duration.
	status, body = requestJSON(t, engine, http.MethodPost, "/api/activities/stop", user.Token, map[string]string{})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on stop, got %d: %s", status, string(body))
	}
	var stopped activityEnvelope
	if err := json.Unmarshal(body, &stopped); err != nil {
		t.Fatalf("unmarshal stop response: %v", err)
	}
	if stopped.Activity == nil || stopped.Activity.EndTime == nil || stopped.Activity.Duration == nil {
		t.Fatal("expected a stopped activity with end time and duration")
	}
	if !stopped.Activity.EndTime.After(stopped.Activity.StartTime) {
		t.Fatal("expected endTime after startTime")
	}

	// Stopping again is a no-op, not an error.
	status, body = requestJSON(t, engine, http.MethodPost, "/api/activities/stop", user.Token, map[string]string{})
	if status != http.StatusOK {
		t.Fatalf("expected 200 for no-op stop, got %d: %s", status, string(body))
	}
	var noop activityEnvelope
	if err := json.Unmarshal(body, &noop); err != nil {
		t.Fatalf("unmarshal no-op stop response: %v", err)
	}
	if noop.Activity != nil {
		t.Fatal("expected nil activity for no-op stop")
	}

	// History has exactly one record.
	status, body = requestJSON(t, engine, http.MethodGet, "/api/activities", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 for history, got %d: %s", status, string(body))
	}
	var history historyEnvelope
	if err := json.Unmarshal(body, &history); err != nil {
		t.Fatalf("unmarshal history: %v", err)
	}
	if len(history.Activities) != 1 {
		t.Fatalf("expected one activity, got %d", len(history.Activities))
	}

	// Analytics always carries the full fixed category set.
	status, body = requestJSON(t, engine, http.MethodGet, "/api/analytics?range=week", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 for analytics, got %d: %s", status, string(body))
	}
	var analyticsResp analyticsEnvelope
	if err := json.Unmarshal(body, &analyticsResp); err != nil {
		t.Fatalf("unmarshal analytics: %v", err)
	}
	if len(analyticsResp.CategoryTotals) != 5 {
		t.Fatalf("expected 5 category buckets, got %d", len(analyticsResp.CategoryTotals))
	}

	// Delete, then delete again: idempotent.
	target := history.Activities[0].ID
	status, _ = requestJSON(t, engine, http.MethodDelete, "/api/activities/"+target, user.Token, nil)
	if status != http.StatusNoContent {
		t.Fatalf("expected 204 on delete, got %d", status)
	}
	status, _ = requestJSON(t, engine, http.MethodDelete, "/api/activities/"+target, user.Token, nil)
	if status != http.StatusNoContent {
		t.Fatalf("expected 204 on repeat delete, got %d", status)
	}

	status, body = requestJSON(t, engine, http.MethodGet, "/api/activities", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 for history, got %d", status)
	}
	if err := json.Unmarshal(body, &history); err != nil {
		t.Fatalf("unmarshal history: %v", err)
	}
	if len(history.Activities) != 0 {
		t.Fatalf("expected empty history after delete, got %d", len(history.Activities))
	}
}

func TestValidationRejectedLocally(t *testing.T) {
	engine := setupTestEngine(t)
	user := registerUser(t, engine, "validate@example.com", "123456")

	status, body := requestJSON(t, engine, http.MethodPost, "/api/activities/start", user.Token, map[string]string{
		"title":    "",
		"category": "Work",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty title, got %d", status)
	}
	var resp apiErrorEnvelope
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal validation response: %v", err)
	}
	if resp.Error.Code != "validation_error" {
		t.Fatalf("expected validation_error, got %s", resp.Error.Code)
	}
}

func TestPomodoroEndpoints(t *testing.T) {
	engine := setupTestEngine(t)
	user := registerUser(t, engine, "pomodoro@example.com", "123456")

	status, body := requestJSON(t, engine, http.MethodGet, "/api/pomodoro", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 for state, got %d: %s", status, string(body))
	}
	var state stateEnvelope
	if err := json.Unmarshal(body, &state); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if state.State.Phase != model.PhaseWork || state.State.Status != model.StatusIdle {
		t.Fatalf("unexpected initial state: %+v", state.State)
	}

	status, body = requestJSON(t, engine, http.MethodPost, "/api/pomodoro/start", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on start, got %d: %s", status, string(body))
	}
	// Fresh envelope per response: omitted fields must read as absent, not
	// as leftovers from the previous decode.
	var running stateEnvelope
	if err := json.Unmarshal(body, &running); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if running.State.Status != model.StatusRunning || running.State.ActivityID == nil {
		t.Fatalf("expected running state with open activity, got %+v", running.State)
	}

	status, body = requestJSON(t, engine, http.MethodPost, "/api/pomodoro/reset", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on reset, got %d: %s", status, string(body))
	}
	var reset stateEnvelope
	if err := json.Unmarshal(body, &reset); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if reset.State.Status != model.StatusIdle || reset.State.ActivityID != nil {
		t.Fatalf("expected idle state with no activity after reset, got %+v", reset.State)
	}
}

func TestUnauthorizedWithoutToken(t *testing.T) {
	engine := setupTestEngine(t)

	status, _ := requestJSON(t, engine, http.MethodGet, "/api/activities", "", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}
}

func TestCORSPreflight(t *testing.T) {
	engine := setupTestEngine(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	recorder := httptest.NewRecorder()

	engine.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", recorder.Code)
	}
	if recorder.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("unexpected allow-origin header: %s", recorder.Header().Get("Access-Control-Allow-Origin"))
	}
}

func setupTestEngine(t *testing.T) http.Handler {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	_, currentFile, _, _ := runtime.Caller(0)
	migrationsDir := filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")
	if err := db.RunMigrations(database, migrationsDir); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	userRepo := repository.NewUserRepository(database)
	activityRepo := repository.NewActivityRepository(database)
	stateRepo := repository.NewStateRepository(database)

	settings := model.DefaultPomodoroSettings()
	authService := service.NewAuthService(userRepo, stateRepo, settings, "test-secret", 24*time.Hour)
	trackerService := service.NewTrackerService(activityRepo, stateRepo)
	pomodoroService := service.NewPomodoroService(stateRepo, activityRepo, trackerService, settings, service.LogNotifier{})

	authHandler := handler.NewAuthHandler(authService)
	activityHandler := handler.NewActivityHandler(trackerService)
	pomodoroHandler := handler.NewPomodoroHandler(pomodoroService)
	analyticsHandler := handler.NewAnalyticsHandler(trackerService)

	return router.New(authService, authHandler, activityHandler, pomodoroHandler, analyticsHandler, []string{"http://localhost:5173"})
}

func registerUser(t *testing.T, server http.Handler, email, password string) authResponse {
	t.Helper()
	status, body := requestJSON(t, server, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if status != http.StatusCreated {
		t.Fatalf("register %s failed with status %d: %s", email, status, string(body))
	}
	var resp authResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal register response: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("empty token for user %s", email)
	}
	return resp
}

func requestJSON(
	t *testing.T,
	server http.Handler,
	method, path, token string,
	body interface{},
) (int, []byte) {
	t.Helper()

	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		payload = raw
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	return recorder.Code, recorder.Body.Bytes()
}
