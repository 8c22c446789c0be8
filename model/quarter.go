package model

import "time"

const (
	MinYear = 2000
	MaxYear = 2100
)

// QuarterOf returns the calendar quarter (1-4) of t.
func QuarterOf(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

// Date truncates t to a calendar date in UTC.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
