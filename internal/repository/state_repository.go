package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"timetrack/backend/internal/model"
)

// StateRepository persists the per-context current-activity slots and the
// pomodoro cycle state. Mutations go through transactions so a read-check-
// write (start, stop, phase transition) is atomic.
type StateRepository struct {
	db *sql.DB
}

func NewStateRepository(db *sql.DB) *StateRepository {
	return &StateRepository{db: db}
}

func (r *StateRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return tx, nil
}

// CreateInitialState seeds both tracking context slots and the pomodoro
// state for a new user.
func (r *StateRepository) CreateInitialState(ctx context.Context, userID string, settings model.PomodoroSettings) error {
	now := formatTime(time.Now())

	for _, trackingContext := range []string{model.ContextTracker, model.ContextPomodoro} {
		if _, err := r.db.ExecContext(
			ctx,
			`INSERT INTO tracking_contexts (user_id, context, current_activity_id, updated_at)
			 VALUES (?, ?, NULL, ?)`,
			userID,
			trackingContext,
			now,
		); err != nil {
			return fmt.Errorf("create tracking context: %w", err)
		}
	}

	if _, err := r.db.ExecContext(
		ctx,
		`INSERT INTO pomodoro_states (
			user_id, phase, status, remaining_seconds, completed_work_count, started_at, updated_at
		) VALUES (?, ?, ?, ?, 0, NULL, ?)`,
		userID,
		model.PhaseWork,
		model.StatusIdle,
		settings.DurationSeconds(model.PhaseWork),
		now,
	); err != nil {
		return fmt.Errorf("create pomodoro state: %w", err)
	}
	return nil
}

func (r *StateRepository) GetContextTx(ctx context.Context, tx *sql.Tx, userID, trackingContext string) (*model.TrackingContext, error) {
	row := tx.QueryRowContext(
		ctx,
		`SELECT user_id, context, current_activity_id, updated_at
		 FROM tracking_contexts
		 WHERE user_id = ? AND context = ?`,
		userID,
		trackingContext,
	)

	slot := model.TrackingContext{}
	var currentActivityID sql.NullString
	var updatedAt string
	if err := row.Scan(&slot.UserID, &slot.Context, &currentActivityID, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get tracking context: %w", err)
	}

	if currentActivityID.Valid {
		value := currentActivityID.String
		slot.CurrentActivityID = &value
	}
	parsedUpdatedAt, err := parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse tracking context updated_at: %w", err)
	}
	slot.UpdatedAt = parsedUpdatedAt
	return &slot, nil
}

func (r *StateRepository) SetContextActivityTx(ctx context.Context, tx *sql.Tx, userID, trackingContext string, activityID *string) error {
	var value interface{}
	if activityID != nil {
		value = *activityID
	}
	result, err := tx.ExecContext(
		ctx,
		`UPDATE tracking_contexts
		 SET current_activity_id = ?, updated_at = ?
		 WHERE user_id = ? AND context = ?`,
		value,
		formatTime(time.Now()),
		userID,
		trackingContext,
	)
	if err != nil {
		return fmt.Errorf("set context activity: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set context activity rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearActivityRefsTx empties every slot pointing at the activity, for
// deletes that race an open session.
func (r *StateRepository) ClearActivityRefsTx(ctx context.Context, tx *sql.Tx, userID, activityID string) error {
	if _, err := tx.ExecContext(
		ctx,
		`UPDATE tracking_contexts
		 SET current_activity_id = NULL, updated_at = ?
		 WHERE user_id = ? AND current_activity_id = ?`,
		formatTime(time.Now()),
		userID,
		activityID,
	); err != nil {
		return fmt.Errorf("clear activity refs: %w", err)
	}
	return nil
}

func (r *StateRepository) GetPomodoroStateTx(ctx context.Context, tx *sql.Tx, userID string) (*model.PomodoroState, error) {
	row := tx.QueryRowContext(
		ctx,
		`SELECT user_id, phase, status, remaining_seconds, completed_work_count, started_at, updated_at
		 FROM pomodoro_states
		 WHERE user_id = ?`,
		userID,
	)

	state := model.PomodoroState{}
	var startedAt sql.NullString
	var updatedAt string
	err := row.Scan(
		&state.UserID,
		&state.Phase,
		&state.Status,
		&state.RemainingSeconds,
		&state.CompletedWorkCount,
		&startedAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan pomodoro state: %w", err)
	}

	if startedAt.Valid {
		parsedStartedAt, parseErr := parseTime(startedAt.String)
		if parseErr != nil {
			return nil, fmt.Errorf("parse pomodoro started_at: %w", parseErr)
		}
		state.StartedAt = &parsedStartedAt
	}
	parsedUpdatedAt, err := parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse pomodoro updated_at: %w", err)
	}
	state.UpdatedAt = parsedUpdatedAt
	return &state, nil
}

func (r *StateRepository) UpdatePomodoroStateTx(ctx context.Context, tx *sql.Tx, state *model.PomodoroState) error {
	var startedAt interface{}
	if state.StartedAt != nil {
		startedAt = formatTime(*state.StartedAt)
	}

	_, err := tx.ExecContext(
		ctx,
		`UPDATE pomodoro_states
		 SET phase = ?,
		     status = ?,
		     remaining_seconds = ?,
		     completed_work_count = ?,
		     started_at = ?,
		     updated_at = ?
		 WHERE user_id = ?`,
		state.Phase,
		state.Status,
		state.RemainingSeconds,
		state.CompletedWorkCount,
		startedAt,
		formatTime(state.UpdatedAt),
		state.UserID,
	)
	if err != nil {
		return fmt.Errorf("update pomodoro state: %w", err)
	}
	return nil
}
