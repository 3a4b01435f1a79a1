package timeline

import "time"

// WeekStart returns the most recent Monday at or before t, truncated to a
// date in UTC.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	monday := t.AddDate(0, 0, -daysSinceMonday)
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, time.UTC)
}

// PreviousWeekStart returns the Monday of the calendar week before t.
// Used by the recurring build job, which summarizes the week that just ended.
func PreviousWeekStart(t time.Time) time.Time {
	return WeekStart(t).AddDate(0, 0, -7)
}

// WeekEnd returns the Sunday ending the week that starts on weekStart.
func WeekEnd(weekStart time.Time) time.Time {
	return weekStart.AddDate(0, 0, 6)
}
