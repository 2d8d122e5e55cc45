package model

import "time"

// Category is the closed set of activity categories. Aggregations emit a
// bucket for every category, including zero-valued ones.
type Category string

const (
	CategoryWork     Category = "Work"
	CategoryExercise Category = "Exercise"
	CategoryLeisure  Category = "Leisure"
	CategoryStudy    Category = "Study"
	CategoryPersonal Category = "Personal"
)

func AllCategories() []Category {
	return []Category{
		CategoryWork,
		CategoryExercise,
		CategoryLeisure,
		CategoryStudy,
		CategoryPersonal,
	}
}

func IsValidCategory(c Category) bool {
	switch c {
	case CategoryWork, CategoryExercise, CategoryLeisure, CategoryStudy, CategoryPersonal:
		return true
	}
	return false
}

// Activity is a tracked span of time. EndTime and DurationSeconds are both
// nil while the activity is running and both set once it is stopped;
// DurationSeconds equals EndTime minus StartTime in whole seconds.
type Activity struct {
	ID              string     `json:"id"`
	UserID          string     `json:"userId"`
	Title           string     `json:"title"`
	Category        Category   `json:"category"`
	StartTime       time.Time  `json:"startTime"`
	EndTime         *time.Time `json:"endTime,omitempty"`
	DurationSeconds *int64     `json:"duration,omitempty"`
	IsPomodoro      bool       `json:"isPomodoro"`
	PomodoroCount   *int       `json:"pomodoroCount,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Running reports whether the activity has not been stopped yet.
func (a *Activity) Running() bool {
	return a.EndTime == nil
}
