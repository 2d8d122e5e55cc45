package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	apperrors "timetrack/backend/internal/errors"
	"timetrack/backend/internal/model"
	"timetrack/backend/internal/observability"
	"timetrack/backend/internal/repository"
)

// PomodoroService drives the work / short break / long break cycle. The
// countdown is derived from the persisted started_at on every read instead of
// a ticking goroutine, so a client that was away sees the state it would have
// reached, with each missed phase transition applied in order.
//
// Work phases open an activity record in the pomodoro tracking context;
// breaks never do. Pausing freezes the countdown in place and closes the open
// work record; resuming continues from the frozen value with a fresh record.
type PomodoroService struct {
	stateRepo    *repository.StateRepository
	activityRepo *repository.ActivityRepository
	tracker      *TrackerService
	settings     model.PomodoroSettings
	notifier     Notifier
}

func NewPomodoroService(
	stateRepo *repository.StateRepository,
	activityRepo *repository.ActivityRepository,
	tracker *TrackerService,
	settings model.PomodoroSettings,
	notifier Notifier,
) *PomodoroService {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &PomodoroService{
		stateRepo:    stateRepo,
		activityRepo: activityRepo,
		tracker:      tracker,
		settings:     settings,
		notifier:     notifier,
	}
}

type PomodoroView struct {
	Phase              string     `json:"phase"`
	Status             string     `json:"status"`
	RemainingSeconds   int        `json:"remainingSeconds"`
	CompletedWorkCount int        `json:"completedWorkCount"`
	ActivityID         *string    `json:"activityId,omitempty"`
	StartedAt          *time.Time `json:"startedAt,omitempty"`
	ServerTime         time.Time  `json:"serverTime"`

	WorkSeconds       int `json:"workSeconds"`
	ShortBreakSeconds int `json:"shortBreakSeconds"`
	LongBreakSeconds  int `json:"longBreakSeconds"`
}

func (s *PomodoroService) Get(ctx context.Context, userID string) (*PomodoroView, *apperrors.APIError) {
	now := time.Now().UTC()
	return s.mutate(ctx, userID, now, nil)
}

// Start runs the countdown. From idle it counts the full phase duration; from
// paused it continues at the frozen value. Starting an already running cycle
// changes nothing. A work phase with no open pomodoro activity opens one.
func (s *PomodoroService) Start(ctx context.Context, userID string) (*PomodoroView, *apperrors.APIError) {
	now := time.Now().UTC()
	return s.mutate(ctx, userID, now, func(state *model.PomodoroState, slot *model.TrackingContext, tx *sql.Tx) *apperrors.APIError {
		if state.Status == model.StatusRunning {
			return nil
		}

		if state.Status == model.StatusIdle {
			state.RemainingSeconds = s.settings.DurationSeconds(state.Phase)
		}
		if state.Phase == model.PhaseWork && slot.CurrentActivityID == nil {
			if apiErr := s.openWorkActivityTx(ctx, tx, state.UserID, slot, now); apiErr != nil {
				return apiErr
			}
		}

		state.Status = model.StatusRunning
		started := now
		state.StartedAt = &started
		return nil
	})
}

// Pause freezes the countdown so a later Start resumes from the frozen value.
// Pause doubles as stop: a running work record is closed here and resuming
// opens a fresh one.
func (s *PomodoroService) Pause(ctx context.Context, userID string) (*PomodoroView, *apperrors.APIError) {
	now := time.Now().UTC()
	return s.mutate(ctx, userID, now, func(state *model.PomodoroState, slot *model.TrackingContext, tx *sql.Tx) *apperrors.APIError {
		if state.Status != model.StatusRunning {
			return nil
		}

		remaining := state.RemainingSeconds
		if state.StartedAt != nil {
			remaining -= int(now.Sub(*state.StartedAt).Seconds())
		}
		if remaining < 0 {
			remaining = 0
		}

		if state.Phase == model.PhaseWork {
			if apiErr := s.closeWorkActivityTx(ctx, tx, state.UserID, slot, now, nil); apiErr != nil {
				return apiErr
			}
		}

		state.Status = model.StatusPaused
		state.RemainingSeconds = remaining
		state.StartedAt = nil
		return nil
	})
}

// Reset forces the cycle back to an idle work phase with a full countdown and
// a zeroed completion counter. An open work record is closed on the way,
// stamped with the count accumulated before zeroing.
func (s *PomodoroService) Reset(ctx context.Context, userID string) (*PomodoroView, *apperrors.APIError) {
	now := time.Now().UTC()
	return s.mutate(ctx, userID, now, func(state *model.PomodoroState, slot *model.TrackingContext, tx *sql.Tx) *apperrors.APIError {
		count := state.CompletedWorkCount
		if apiErr := s.closeWorkActivityTx(ctx, tx, state.UserID, slot, now, &count); apiErr != nil {
			return apiErr
		}

		state.Phase = model.PhaseWork
		state.Status = model.StatusIdle
		state.RemainingSeconds = s.settings.DurationSeconds(model.PhaseWork)
		state.CompletedWorkCount = 0
		state.StartedAt = nil
		return nil
	})
}

// mutate loads state and slot in one transaction, applies any phase
// transitions the wall clock has already passed, runs op, and persists.
func (s *PomodoroService) mutate(
	ctx context.Context,
	userID string,
	now time.Time,
	op func(state *model.PomodoroState, slot *model.TrackingContext, tx *sql.Tx) *apperrors.APIError,
) (*PomodoroView, *apperrors.APIError) {
	tx, err := s.stateRepo.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	state, err := s.stateRepo.GetPomodoroStateTx(ctx, tx, userID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("state_not_found", "pomodoro state not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to read pomodoro state")
	}

	slot, err := s.stateRepo.GetContextTx(ctx, tx, userID, model.ContextPomodoro)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("context_not_found", "tracking context not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to read tracking context")
	}

	if apiErr := s.applyElapsedTx(ctx, tx, state, slot, now); apiErr != nil {
		return nil, apiErr
	}
	if op != nil {
		if apiErr := op(state, slot, tx); apiErr != nil {
			return nil, apiErr
		}
	}

	state.UpdatedAt = now
	if err := s.stateRepo.UpdatePomodoroStateTx(ctx, tx, state); err != nil {
		return nil, apperrors.Internal("failed to persist pomodoro state")
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}

	view := s.toView(state, slot, now)
	return &view, nil
}

// applyElapsedTx replays every countdown that has already hit zero. Each
// completed work phase bumps the counter, stamps it on the closing record,
// and picks the break per the long-break interval; each completed break
// re-enters work with a fresh record. The cycle keeps running across
// transitions.
func (s *PomodoroService) applyElapsedTx(
	ctx context.Context,
	tx *sql.Tx,
	state *model.PomodoroState,
	slot *model.TrackingContext,
	now time.Time,
) *apperrors.APIError {
	if state.Status != model.StatusRunning || state.StartedAt == nil {
		return nil
	}

	phaseEnd := state.StartedAt.Add(time.Duration(state.RemainingSeconds) * time.Second)
	for !phaseEnd.After(now) {
		if state.Phase == model.PhaseWork {
			state.CompletedWorkCount++
			count := state.CompletedWorkCount
			if apiErr := s.closeWorkActivityTx(ctx, tx, state.UserID, slot, phaseEnd, &count); apiErr != nil {
				return apiErr
			}
			interval := s.settings.LongBreakInterval
			if interval > 0 && state.CompletedWorkCount%interval == 0 {
				state.Phase = model.PhaseLongBreak
			} else {
				state.Phase = model.PhaseShortBreak
			}
		} else {
			state.Phase = model.PhaseWork
			if apiErr := s.openWorkActivityTx(ctx, tx, state.UserID, slot, phaseEnd); apiErr != nil {
				return apiErr
			}
		}

		s.notifier.PhaseChanged(state.UserID, state.Phase)
		observability.RecordPomodoroTransition(state.Phase)

		duration := s.settings.DurationSeconds(state.Phase)
		if duration <= 0 {
			state.Status = model.StatusIdle
			state.StartedAt = nil
			state.RemainingSeconds = 0
			return nil
		}

		state.RemainingSeconds = duration
		started := phaseEnd
		state.StartedAt = &started
		phaseEnd = started.Add(time.Duration(duration) * time.Second)
	}
	return nil
}

func (s *PomodoroService) openWorkActivityTx(
	ctx context.Context,
	tx *sql.Tx,
	userID string,
	slot *model.TrackingContext,
	at time.Time,
) *apperrors.APIError {
	if slot.CurrentActivityID != nil {
		return nil
	}

	activity := model.Activity{
		ID:         uuid.NewString(),
		UserID:     userID,
		Title:      "Pomodoro Session",
		Category:   model.CategoryWork,
		StartTime:  at,
		IsPomodoro: true,
		CreatedAt:  at,
		UpdatedAt:  at,
	}
	if err := s.activityRepo.CreateTx(ctx, tx, &activity); err != nil {
		return apperrors.Internal("failed to start pomodoro session")
	}
	if err := s.stateRepo.SetContextActivityTx(ctx, tx, userID, model.ContextPomodoro, &activity.ID); err != nil {
		return apperrors.Internal("failed to update tracking context")
	}

	slot.CurrentActivityID = &activity.ID
	observability.RecordActivityStarted(model.ContextPomodoro)
	return nil
}

func (s *PomodoroService) closeWorkActivityTx(
	ctx context.Context,
	tx *sql.Tx,
	userID string,
	slot *model.TrackingContext,
	at time.Time,
	pomodoroCount *int,
) *apperrors.APIError {
	if slot.CurrentActivityID == nil {
		return nil
	}
	activityID := *slot.CurrentActivityID

	closed, apiErr := s.tracker.closeActivityTx(ctx, tx, activityID, at)
	if apiErr != nil {
		return apiErr
	}
	if closed != nil && pomodoroCount != nil {
		err := s.activityRepo.UpdatePartialTx(ctx, tx, activityID, repository.ActivityPatch{PomodoroCount: pomodoroCount})
		if err != nil && err != repository.ErrNotFound {
			return apperrors.Internal("failed to update pomodoro session")
		}
	}

	if err := s.stateRepo.SetContextActivityTx(ctx, tx, userID, model.ContextPomodoro, nil); err != nil {
		return apperrors.Internal("failed to update tracking context")
	}

	slot.CurrentActivityID = nil
	if closed != nil {
		observability.RecordActivityStopped(model.ContextPomodoro)
	}
	return nil
}

func (s *PomodoroService) toView(state *model.PomodoroState, slot *model.TrackingContext, now time.Time) PomodoroView {
	view := PomodoroView{
		Phase:              state.Phase,
		Status:             state.Status,
		RemainingSeconds:   state.RemainingSeconds,
		CompletedWorkCount: state.CompletedWorkCount,
		ActivityID:         slot.CurrentActivityID,
		ServerTime:         now,
		WorkSeconds:        s.settings.DurationSeconds(model.PhaseWork),
		ShortBreakSeconds:  s.settings.DurationSeconds(model.PhaseShortBreak),
		LongBreakSeconds:   s.settings.DurationSeconds(model.PhaseLongBreak),
	}

	if state.Status == model.StatusRunning && state.StartedAt != nil {
		remaining := state.RemainingSeconds - int(now.Sub(*state.StartedAt).Seconds())
		if remaining < 0 {
			remaining = 0
		}
		view.RemainingSeconds = remaining
		view.StartedAt = state.StartedAt
	}

	return view
}
