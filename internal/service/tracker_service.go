package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "timetrack/backend/internal/errors"
	"timetrack/backend/internal/model"
	"timetrack/backend/internal/observability"
	"timetrack/backend/internal/repository"
)

// TrackerService is the activity lifecycle controller. Each (user, context)
// pair moves Idle -> Running -> Idle, with the current-activity slot persisted
// so at most one activity is open per context. The main tracker and the
// pomodoro engine are separate contexts and may both be open at once.
type TrackerService struct {
	activityRepo *repository.ActivityRepository
	stateRepo    *repository.StateRepository
}

func NewTrackerService(
	activityRepo *repository.ActivityRepository,
	stateRepo *repository.StateRepository,
) *TrackerService {
	return &TrackerService{
		activityRepo: activityRepo,
		stateRepo:    stateRepo,
	}
}

// CurrentView augments an open activity with its elapsed seconds. Elapsed is
// derived from the server-stamped start time on every read; the client's
// ticking counter is cosmetic.
type CurrentView struct {
	Activity       model.Activity `json:"activity"`
	ElapsedSeconds int64          `json:"elapsedSeconds"`
}

func (s *TrackerService) Start(ctx context.Context, userID, trackingContext, title string, category model.Category) (*model.Activity, *apperrors.APIError) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.Validation("activity title is required")
	}
	if !model.IsValidCategory(category) {
		return nil, apperrors.Validation("unknown activity category")
	}
	if !model.IsValidContext(trackingContext) {
		return nil, apperrors.Validation("unknown tracking context")
	}

	activity, apiErr := s.startInContext(ctx, userID, trackingContext, title, category, trackingContext == model.ContextPomodoro)
	if apiErr != nil {
		return nil, apiErr
	}
	observability.RecordActivityStarted(trackingContext)
	return activity, nil
}

func (s *TrackerService) startInContext(ctx context.Context, userID, trackingContext, title string, category model.Category, isPomodoro bool) (*model.Activity, *apperrors.APIError) {
	tx, err := s.activityRepo.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	slot, err := s.stateRepo.GetContextTx(ctx, tx, userID, trackingContext)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("context_not_found", "tracking context not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to read tracking context")
	}

	if slot.CurrentActivityID != nil {
		return nil, apperrors.Conflict("already_tracking", "an activity is already running in this context", nil)
	}

	now := time.Now().UTC()
	activity := model.Activity{
		ID:         uuid.NewString(),
		UserID:     userID,
		Title:      title,
		Category:   category,
		StartTime:  now,
		IsPomodoro: isPomodoro,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.activityRepo.CreateTx(ctx, tx, &activity); err != nil {
		return nil, apperrors.Internal("failed to start activity tracking")
	}
	if err := s.stateRepo.SetContextActivityTx(ctx, tx, userID, trackingContext, &activity.ID); err != nil {
		return nil, apperrors.Internal("failed to update tracking context")
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}
	return &activity, nil
}

// Stop closes the context's current activity. With nothing running it is a
// no-op: no store write, nil activity, nil error.
func (s *TrackerService) Stop(ctx context.Context, userID, trackingContext string) (*model.Activity, *apperrors.APIError) {
	if !model.IsValidContext(trackingContext) {
		return nil, apperrors.Validation("unknown tracking context")
	}

	tx, err := s.activityRepo.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	slot, err := s.stateRepo.GetContextTx(ctx, tx, userID, trackingContext)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("context_not_found", "tracking context not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to read tracking context")
	}

	if slot.CurrentActivityID == nil {
		return nil, nil
	}

	now := time.Now().UTC()
	activity, apiErr := s.closeActivityTx(ctx, tx, *slot.CurrentActivityID, now)
	if apiErr != nil {
		return nil, apiErr
	}
	if err := s.stateRepo.SetContextActivityTx(ctx, tx, userID, trackingContext, nil); err != nil {
		return nil, apperrors.Internal("failed to update tracking context")
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}

	if activity != nil {
		observability.RecordActivityStopped(trackingContext)
	}
	return activity, nil
}

// closeActivityTx reads the target record directly by its identifier and
// stamps end time plus the derived duration. A dangling slot (activity
// deleted underneath it) is tolerated: the slot is cleared by the caller and
// no error surfaces.
func (s *TrackerService) closeActivityTx(ctx context.Context, tx *sql.Tx, activityID string, now time.Time) (*model.Activity, *apperrors.APIError) {
	activity, err := s.activityRepo.GetByIDTx(ctx, tx, activityID)
	if err == repository.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Internal("failed to read activity")
	}
	if !activity.Running() {
		return activity, nil
	}

	durationSeconds := int64(now.Sub(activity.StartTime).Seconds())
	if durationSeconds < 0 {
		durationSeconds = 0
	}

	if err := s.activityRepo.SetEndTx(ctx, tx, activity.ID, now, durationSeconds); err != nil {
		if err == repository.ErrNotFound {
			return activity, nil
		}
		return nil, apperrors.Internal("failed to stop activity")
	}

	endTime := now
	activity.EndTime = &endTime
	activity.DurationSeconds = &durationSeconds
	activity.UpdatedAt = now
	return activity, nil
}

// Current returns the context's open activity with derived elapsed seconds,
// or nil when idle.
func (s *TrackerService) Current(ctx context.Context, userID, trackingContext string) (*CurrentView, *apperrors.APIError) {
	if !model.IsValidContext(trackingContext) {
		return nil, apperrors.Validation("unknown tracking context")
	}

	tx, err := s.activityRepo.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	slot, err := s.stateRepo.GetContextTx(ctx, tx, userID, trackingContext)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("context_not_found", "tracking context not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to read tracking context")
	}
	if slot.CurrentActivityID == nil {
		return nil, nil
	}

	activity, err := s.activityRepo.GetByIDTx(ctx, tx, *slot.CurrentActivityID)
	if err == repository.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Internal("failed to read activity")
	}

	elapsed := int64(time.Now().UTC().Sub(activity.StartTime).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}
	return &CurrentView{Activity: *activity, ElapsedSeconds: elapsed}, nil
}

// History returns every activity owned by the user, newest first. Records
// still in progress come back without end time or duration; rendering them
// as such is the history view's job.
func (s *TrackerService) History(ctx context.Context, userID string) ([]model.Activity, *apperrors.APIError) {
	activities, err := s.activityRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to load activities")
	}
	return activities, nil
}

// Update merges the patch into an activity owned by the user. Start time is
// immutable and not patchable.
func (s *TrackerService) Update(ctx context.Context, userID, activityID string, patch repository.ActivityPatch) (*model.Activity, *apperrors.APIError) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, apperrors.Validation("activity title is required")
	}
	if patch.Category != nil && !model.IsValidCategory(*patch.Category) {
		return nil, apperrors.Validation("unknown activity category")
	}

	activity, err := s.activityRepo.GetByID(ctx, activityID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("activity_not_found", "activity not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to read activity")
	}
	if activity.UserID != userID {
		return nil, apperrors.Forbidden("activity belongs to another user")
	}

	if err := s.activityRepo.UpdatePartial(ctx, activityID, patch); err != nil && err != repository.ErrNotFound {
		return nil, apperrors.Internal("failed to update activity")
	}

	updated, err := s.activityRepo.GetByID(ctx, activityID)
	if err != nil {
		return nil, apperrors.Internal("failed to read activity")
	}
	return updated, nil
}

// Delete removes an activity owned by the user and clears any tracking slot
// still pointing at it. Unknown ids succeed silently so the operation stays
// idempotent.
func (s *TrackerService) Delete(ctx context.Context, userID, activityID string) *apperrors.APIError {
	activity, err := s.activityRepo.GetByID(ctx, activityID)
	if err == repository.ErrNotFound {
		return nil
	}
	if err != nil {
		return apperrors.Internal("failed to read activity")
	}
	if activity.UserID != userID {
		return apperrors.Forbidden("activity belongs to another user")
	}

	tx, err := s.activityRepo.BeginTx(ctx)
	if err != nil {
		return apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	if err := s.activityRepo.DeleteTx(ctx, tx, activityID); err != nil {
		return apperrors.Internal("failed to delete activity")
	}
	if err := s.stateRepo.ClearActivityRefsTx(ctx, tx, userID, activityID); err != nil {
		return apperrors.Internal("failed to clear tracking context")
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Internal("failed to commit transaction")
	}

	observability.RecordActivityDeleted()
	return nil
}
