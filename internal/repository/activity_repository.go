package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"timetrack/backend/internal/model"
)

type ActivityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return tx, nil
}

const activityColumns = `id, user_id, title, category, start_time, end_time,
	duration_seconds, is_pomodoro, pomodoro_count, created_at, updated_at`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (r *ActivityRepository) CreateTx(ctx context.Context, tx *sql.Tx, activity *model.Activity) error {
	var pomodoroCount interface{}
	if activity.PomodoroCount != nil {
		pomodoroCount = *activity.PomodoroCount
	}

	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO activities (
			id, user_id, title, category, start_time, end_time,
			duration_seconds, is_pomodoro, pomodoro_count, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, NULL, NULL, ?, ?, ?, ?)`,
		activity.ID,
		activity.UserID,
		activity.Title,
		string(activity.Category),
		formatTime(activity.StartTime),
		activity.IsPomodoro,
		pomodoroCount,
		formatTime(activity.CreatedAt),
		formatTime(activity.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create activity: %w", err)
	}
	return nil
}

func (r *ActivityRepository) GetByID(ctx context.Context, id string) (*model.Activity, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT `+activityColumns+` FROM activities WHERE id = ?`,
		id,
	)
	return scanActivity(row)
}

func (r *ActivityRepository) GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (*model.Activity, error) {
	row := tx.QueryRowContext(
		ctx,
		`SELECT `+activityColumns+` FROM activities WHERE id = ?`,
		id,
	)
	return scanActivity(row)
}

// SetEndTx closes the activity: the single mutation stamping end_time and the
// derived duration. The caller computes the duration from the record it read
// by id, never from a secondary query.
func (r *ActivityRepository) SetEndTx(ctx context.Context, tx *sql.Tx, id string, endTime time.Time, durationSeconds int64) error {
	result, err := tx.ExecContext(
		ctx,
		`UPDATE activities
		 SET end_time = ?, duration_seconds = ?, updated_at = ?
		 WHERE id = ? AND end_time IS NULL`,
		formatTime(endTime),
		durationSeconds,
		formatTime(endTime),
		id,
	)
	if err != nil {
		return fmt.Errorf("stop activity: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("stop activity rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ActivityPatch carries the mergeable fields of a partial update. StartTime
// is immutable and deliberately not part of the patch.
type ActivityPatch struct {
	Title         *string
	Category      *model.Category
	PomodoroCount *int
}

func (p ActivityPatch) empty() bool {
	return p.Title == nil && p.Category == nil && p.PomodoroCount == nil
}

func (r *ActivityRepository) UpdatePartial(ctx context.Context, id string, patch ActivityPatch) error {
	return updatePartial(ctx, r.db, id, patch)
}

func (r *ActivityRepository) UpdatePartialTx(ctx context.Context, tx *sql.Tx, id string, patch ActivityPatch) error {
	return updatePartial(ctx, tx, id, patch)
}

func updatePartial(ctx context.Context, e execer, id string, patch ActivityPatch) error {
	if patch.empty() {
		return nil
	}

	assignments := make([]string, 0, 4)
	args := make([]interface{}, 0, 5)
	if patch.Title != nil {
		assignments = append(assignments, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Category != nil {
		assignments = append(assignments, "category = ?")
		args = append(args, string(*patch.Category))
	}
	if patch.PomodoroCount != nil {
		assignments = append(assignments, "pomodoro_count = ?")
		args = append(args, *patch.PomodoroCount)
	}
	assignments = append(assignments, "updated_at = ?")
	args = append(args, formatTime(time.Now()), id)

	result, err := e.ExecContext(
		ctx,
		`UPDATE activities SET `+strings.Join(assignments, ", ")+` WHERE id = ?`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("update activity: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update activity rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTx removes the record. Deleting an unknown id is a no-op, not an
// error.
func (r *ActivityRepository) DeleteTx(ctx context.Context, tx *sql.Tx, id string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	return nil
}

// ListByUser returns every activity owned by the user, newest start first.
// In-progress records come back with nil EndTime and DurationSeconds.
func (r *ActivityRepository) ListByUser(ctx context.Context, userID string) ([]model.Activity, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT `+activityColumns+`
		 FROM activities
		 WHERE user_id = ?
		 ORDER BY start_time DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	activities := make([]model.Activity, 0, 16)
	for rows.Next() {
		activity, scanErr := scanActivity(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		activities = append(activities, *activity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}

	return activities, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanActivity(s scanner) (*model.Activity, error) {
	activity := model.Activity{}
	var category string
	var startTime string
	var endTime sql.NullString
	var durationSeconds sql.NullInt64
	var pomodoroCount sql.NullInt64
	var createdAt string
	var updatedAt string

	err := s.Scan(
		&activity.ID,
		&activity.UserID,
		&activity.Title,
		&category,
		&startTime,
		&endTime,
		&durationSeconds,
		&activity.IsPomodoro,
		&pomodoroCount,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan activity: %w", err)
	}

	activity.Category = model.Category(category)

	parsedStartTime, err := parseTime(startTime)
	if err != nil {
		return nil, fmt.Errorf("parse activity start_time: %w", err)
	}
	activity.StartTime = parsedStartTime

	if endTime.Valid {
		parsedEndTime, parseErr := parseTime(endTime.String)
		if parseErr != nil {
			return nil, fmt.Errorf("parse activity end_time: %w", parseErr)
		}
		activity.EndTime = &parsedEndTime
	}
	if durationSeconds.Valid {
		value := durationSeconds.Int64
		activity.DurationSeconds = &value
	}
	if pomodoroCount.Valid {
		value := int(pomodoroCount.Int64)
		activity.PomodoroCount = &value
	}

	parsedCreatedAt, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse activity created_at: %w", err)
	}
	activity.CreatedAt = parsedCreatedAt

	parsedUpdatedAt, err := parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse activity updated_at: %w", err)
	}
	activity.UpdatedAt = parsedUpdatedAt

	return &activity, nil
}
