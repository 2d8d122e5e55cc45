package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"timetrack/backend/internal/db"
	"timetrack/backend/internal/model"
	"timetrack/backend/internal/repository"
)

type testEnv struct {
	db           *sql.DB
	userRepo     *repository.UserRepository
	activityRepo *repository.ActivityRepository
	stateRepo    *repository.StateRepository
	settings     model.PomodoroSettings
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close()
	})

	_, currentFile, _, _ := runtime.Caller(0)
	migrationsDir := filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")
	require.NoError(t, db.RunMigrations(database, migrationsDir))

	return &testEnv{
		db:           database,
		userRepo:     repository.NewUserRepository(database),
		activityRepo: repository.NewActivityRepository(database),
		stateRepo:    repository.NewStateRepository(database),
		settings:     model.DefaultPomodoroSettings(),
	}
}

func (e *testEnv) createUser(t *testing.T) string {
	t.Helper()

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "irrelevant",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, e.userRepo.Create(context.Background(), &user))
	require.NoError(t, e.stateRepo.CreateInitialState(context.Background(), user.ID, e.settings))
	return user.ID
}

func (e *testEnv) tracker() *TrackerService {
	return NewTrackerService(e.activityRepo, e.stateRepo)
}

func (e *testEnv) pomodoro(notifier Notifier) *PomodoroService {
	return NewPomodoroService(e.stateRepo, e.activityRepo, e.tracker(), e.settings, notifier)
}

// rewind shifts the running pomodoro countdown and any open activities back
// in time, simulating wall-clock progress without sleeping.
func (e *testEnv) rewind(t *testing.T, userID string, d time.Duration) {
	t.Helper()

	var startedAt sql.NullString
	require.NoError(t, e.db.QueryRow(
		`SELECT started_at FROM pomodoro_states WHERE user_id = ?`, userID,
	).Scan(&startedAt))
	if startedAt.Valid {
		started, err := time.Parse(time.RFC3339Nano, startedAt.String)
		require.NoError(t, err)
		_, err = e.db.Exec(
			`UPDATE pomodoro_states SET started_at = ? WHERE user_id = ?`,
			started.Add(-d).UTC().Format(time.RFC3339Nano), userID,
		)
		require.NoError(t, err)
	}

	rows, err := e.db.Query(
		`SELECT id, start_time FROM activities WHERE user_id = ? AND end_time IS NULL`, userID,
	)
	require.NoError(t, err)
	defer rows.Close()

	type shift struct {
		id    string
		start time.Time
	}
	var shifts []shift
	for rows.Next() {
		var id, raw string
		require.NoError(t, rows.Scan(&id, &raw))
		start, parseErr := time.Parse(time.RFC3339Nano, raw)
		require.NoError(t, parseErr)
		shifts = append(shifts, shift{id: id, start: start})
	}
	require.NoError(t, rows.Err())

	for _, s := range shifts {
		_, err := e.db.Exec(
			`UPDATE activities SET start_time = ? WHERE id = ?`,
			s.start.Add(-d).UTC().Format(time.RFC3339Nano), s.id,
		)
		require.NoError(t, err)
	}
}

// recordingNotifier captures phase transitions for assertions.
type recordingNotifier struct {
	phases []string
}

func (n *recordingNotifier) PhaseChanged(userID, phase string) {
	n.phases = append(n.phases, phase)
}
