package kpi

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidMonth is returned for month selections that are not YYYY-MM.
var ErrInvalidMonth = errors.New("invalid month")

// MonthLayout is the selection format for a reporting month.
const MonthLayout = "2006-01"

// DateRange is an inclusive pair of calendar days.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// MonthRange returns the first and last day of month ("YYYY-MM") in loc.
func MonthRange(month string, loc *time.Location) (DateRange, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(MonthLayout, month, loc)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w %q: %v", ErrInvalidMonth, month, err)
	}
	return monthOf(t), nil
}

// CurrentMonth returns the range of the month containing now.
func CurrentMonth(now time.Time) DateRange {
	return monthOf(now)
}

func monthOf(t time.Time) DateRange {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	end := start.AddDate(0, 1, -1)
	return DateRange{Start: start, End: end}
}

// Month returns the YYYY-MM label of the range start.
func (r DateRange) Month() string {
	return r.Start.Format(MonthLayout)
}

// Contains reports whether t falls on a day within the range, both ends included.
func (r DateRange) Contains(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	loc := r.Start.Location()
	day := SnapToDay(t.In(loc))
	return !day.Before(SnapToDay(r.Start)) && !day.After(SnapToDay(r.End.In(loc)))
}

// ContainsPtr is Contains for nullable dates; nil is never contained.
func (r DateRange) ContainsPtr(t *time.Time) bool {
	return t != nil && r.Contains(*t)
}

// PreviousYear shifts both ends back one calendar year. Feb 29 becomes Feb 28.
func PreviousYear(r DateRange) DateRange {
	return DateRange{Start: shiftYear(r.Start, -1), End: shiftYear(r.End, -1)}
}

func shiftYear(t time.Time, years int) time.Time {
	y := t.Year() + years
	d := t.Day()
	if t.Month() == time.February && d == 29 && !isLeap(y) {
		d = 28
	}
	return time.Date(y, t.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func isLeap(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

// DaysBetween is the whole number of days from a to b, rounded down.
func DaysBetween(a, b time.Time) int {
	return int(math.Floor(b.Sub(a).Hours() / 24))
}

// SnapToDay normalizes a timestamp to the beginning of its day.
func SnapToDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
