package timewindow

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

var errInvalidRangeHours = errors.New("invalid range hours")

// validHours are the fixed-hour windows the view layer offers.
var validHours = []int{1, 6, 12, 24, 48, 72}

// Range is the user-selected display window: a fixed number of hours
// back from now, or everything since local midnight ("today"). The zero
// value is not valid; construct through Hours or SinceLocalMidnight.
type Range struct {
	hours int // 0 means since local midnight
	today bool
}

// Hours returns the fixed-hour range for n, which must be one of
// 1, 6, 12, 24, 48 or 72.
func Hours(n int) (Range, error) {
	for _, h := range validHours {
		if h == n {
			return Range{hours: n}, nil
		}
	}

	return Range{}, fmt.Errorf("%w: %d", errInvalidRangeHours, n)
}

// SinceLocalMidnight returns the "today" range.
func SinceLocalMidnight() Range {
	return Range{today: true}
}

// IsToday reports whether this is the since-local-midnight range.
func (r Range) IsToday() bool {
	return r.today
}

// QueryHours derives the hours parameter for a REST fetch issued at now.
// For the today range this is the hours elapsed since local midnight,
// rounded up, and never less than 1 so the fetch always requests at
// least one hour of data.
func (r Range) QueryHours(now time.Time) int {
	if !r.today {
		return r.hours
	}

	elapsed := now.Sub(midnightOf(now))

	hours := int(elapsed / time.Hour)
	if elapsed%time.Hour != 0 {
		hours++
	}

	if hours < 1 {
		hours = 1
	}

	return hours
}

// Cutoff derives the earliest instant a retained or incoming reading
// must satisfy, evaluated at now. For the today range this is the local
// midnight of now, recomputed on every call so the cutoff advances
// across a midnight rollover while a session stays open.
func (r Range) Cutoff(now time.Time) time.Time {
	if r.today {
		return midnightOf(now)
	}

	return now.Add(-time.Duration(r.hours) * time.Hour)
}

// String renders the range the way the view layer labels it.
func (r Range) String() string {
	if r.today {
		return "today"
	}

	return strconv.Itoa(r.hours) + "h"
}

// Parse accepts "today" or an hour count, with or without a trailing
// "h", as produced by String.
func Parse(s string) (Range, error) {
	if s == "today" {
		return SinceLocalMidnight(), nil
	}

	trimmed := s
	if n := len(s); n > 0 && s[n-1] == 'h' {
		trimmed = s[:n-1]
	}

	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q", errInvalidRangeHours, s)
	}

	return Hours(n)
}

// midnightOf returns the local midnight of t, in t's location.
func midnightOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
