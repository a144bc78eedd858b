// Package subjective maps wall-clock instants onto "subjective" days: days
// that start at a configurable boundary time rather than at midnight.
package subjective

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/dcalt/internal/constants"
	"github.com/julianstephens/dcalt/internal/utils"
)

// ErrInvalidBoundary is returned when a day-start hour or minute is out of range.
var ErrInvalidBoundary = errors.New("invalid day-start boundary")

// Boundary is the local time of day at which a new day bucket begins.
type Boundary struct {
	Hour   int
	Minute int
}

// Midnight is the boundary under which buckets are plain calendar dates.
var Midnight = Boundary{}

// NewBoundary validates hour (0-23) and minute (0-59). Out-of-range values are
// rejected, never clamped.
func NewBoundary(hour, minute int) (Boundary, error) {
	b := Boundary{Hour: hour, Minute: minute}
	if err := b.Validate(); err != nil {
		return Boundary{}, err
	}
	return b, nil
}

// ParseBoundary parses an HH:MM day-start setting.
func ParseBoundary(s string) (Boundary, error) {
	t, err := utils.ParseTime(s)
	if err != nil {
		return Boundary{}, fmt.Errorf("%w: %q is not HH:MM", ErrInvalidBoundary, s)
	}
	return NewBoundary(t.Hour(), t.Minute())
}

func (b Boundary) Validate() error {
	if b.Hour < 0 || b.Hour > 23 {
		return fmt.Errorf("%w: hour %d outside 0-23", ErrInvalidBoundary, b.Hour)
	}
	if b.Minute < 0 || b.Minute > 59 {
		return fmt.Errorf("%w: minute %d outside 0-59", ErrInvalidBoundary, b.Minute)
	}
	return nil
}

func (b Boundary) String() string {
	return fmt.Sprintf("%02d:%02d", b.Hour, b.Minute)
}

func (b Boundary) minutes() int {
	return b.Hour*60 + b.Minute
}

// Resolve returns the day bucket (YYYY-MM-DD) and time key (HH:MM) for t.
// Local time is the location carried by t. When t's time of day falls before
// the boundary the bucket is the previous calendar date. The time key is
// always t's own local time of day.
func Resolve(t time.Time, b Boundary) (day string, timeOfDay string, err error) {
	if err := b.Validate(); err != nil {
		return "", "", err
	}

	y, m, d := t.Date()
	if t.Hour()*60+t.Minute() < b.minutes() {
		d--
	}
	bucket := time.Date(y, m, d, 0, 0, 0, 0, t.Location())

	return bucket.Format(constants.DateFormat), t.Format(constants.TimeFormat), nil
}

// Merge reconstructs the instant a (day, timeOfDay) pair was resolved from.
// It is the left inverse of Resolve at minute granularity: a time key before
// the boundary belongs to the calendar day after the bucket.
func Merge(day, timeOfDay string, b Boundary, loc *time.Location) (time.Time, error) {
	if err := b.Validate(); err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.Local
	}

	t, err := utils.CombineDateAndTime(day, timeOfDay, loc)
	if err != nil {
		return time.Time{}, err
	}
	if t.Hour()*60+t.Minute() < b.minutes() {
		t = time.Date(t.Year(), t.Month(), t.Day()+1, t.Hour(), t.Minute(), 0, 0, loc)
	}
	return t, nil
}

// Today returns the day bucket that now falls into.
func Today(now time.Time, b Boundary) (string, error) {
	day, _, err := Resolve(now, b)
	return day, err
}
