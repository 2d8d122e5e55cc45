// Package analytics buckets activity durations for presentation. Everything
// here is a pure function of its inputs and safe to recompute on every poll.
package analytics

import (
	"math"
	"sort"
	"time"

	"timetrack/backend/internal/model"
)

// Range selects the aggregation window containing "now".
type Range string

const (
	RangeWeek  Range = "week"
	RangeMonth Range = "month"
)

func IsValidRange(r Range) bool {
	return r == RangeWeek || r == RangeMonth
}

// WindowBounds returns the inclusive start and end of the ISO week (Monday
// through Sunday) or calendar month containing now, in now's location.
func WindowBounds(r Range, now time.Time) (time.Time, time.Time) {
	if r == RangeMonth {
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
		return start, end
	}

	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start := day.AddDate(0, 0, -(weekday - 1))
	end := start.AddDate(0, 0, 7).Add(-time.Nanosecond)
	return start, end
}

// Filter keeps activities whose start falls inside the window and whose end,
// when present, does not overrun it. In-progress activities are retained: they
// contribute zero duration but stay visible.
func Filter(activities []model.Activity, r Range, now time.Time) []model.Activity {
	start, end := WindowBounds(r, now)

	filtered := make([]model.Activity, 0, len(activities))
	for _, activity := range activities {
		if activity.StartTime.Before(start) || activity.StartTime.After(end) {
			continue
		}
		if activity.EndTime != nil && activity.EndTime.After(end) {
			continue
		}
		filtered = append(filtered, activity)
	}
	return filtered
}

// CategoryBucket is one slice of the category breakdown. Hours are whole,
// rounded half away from zero.
type CategoryBucket struct {
	Category model.Category `json:"category"`
	Hours    int            `json:"hours"`
}

// CategoryTotals sums duration per category over the given activities. Every
// category appears exactly once, zero-valued ones included, so charts always
// render the full fixed set. Activities without a duration contribute nothing.
func CategoryTotals(activities []model.Activity) []CategoryBucket {
	seconds := make(map[model.Category]int64, 5)
	for _, activity := range activities {
		if activity.DurationSeconds == nil {
			continue
		}
		seconds[activity.Category] += *activity.DurationSeconds
	}

	buckets := make([]CategoryBucket, 0, 5)
	for _, category := range model.AllCategories() {
		buckets = append(buckets, CategoryBucket{
			Category: category,
			Hours:    int(math.Round(float64(seconds[category]) / 3600)),
		})
	}
	return buckets
}

// DailyRow is one calendar day's per-category hours, fractional.
type DailyRow struct {
	Date  string                     `json:"date"`
	Hours map[model.Category]float64 `json:"hours"`
}

// DailyTotals groups activities by the calendar day of their start time and
// sums fractional hours per category within each day. Only days with at least
// one stopped activity appear; rows come back in date order.
func DailyTotals(activities []model.Activity) []DailyRow {
	days := make(map[string]map[model.Category]float64)
	for _, activity := range activities {
		if activity.DurationSeconds == nil {
			continue
		}
		date := activity.StartTime.Format("2006-01-02")
		if days[date] == nil {
			days[date] = make(map[model.Category]float64, 5)
		}
		days[date][activity.Category] += float64(*activity.DurationSeconds) / 3600
	}

	dates := make([]string, 0, len(days))
	for date := range days {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	rows := make([]DailyRow, 0, len(dates))
	for _, date := range dates {
		rows = append(rows, DailyRow{Date: date, Hours: days[date]})
	}
	return rows
}
