package models

import (
	"fmt"
	"strings"
	"time"
)

// Category groups servings, e.g. "Fruit" or "Entrees".
type Category struct {
	ID        string
	ArchiveID string
	Name      string
	UserOrder int
	CreatedAt time.Time
}

// Serving is a named item that can be logged, with a default calorie count.
type Serving struct {
	ID           string
	ArchiveID    string
	CategoryID   string
	CategoryName string
	Name         string
	Calories     int
	CreatedAt    time.Time
}

// ServingRun is one logged consumption event.
type ServingRun struct {
	ID               string
	ServingArchiveID string
	ServingName      string
	CategoryName     string
	ConsumedDay      string // day bucket, YYYY-MM-DD
	ConsumedTime     string // local time of day, HH:MM
	Calories         int
	UserRemoved      bool
	CreatedAt        time.Time
}

// Key returns the cross-partition identity of the run.
func (r ServingRun) Key() RunKey {
	return RunKey{
		ServingArchiveID: r.ServingArchiveID,
		ConsumedDay:      r.ConsumedDay,
		ConsumedTime:     r.ConsumedTime,
	}
}

// DayRun is the running calorie total for one day bucket in one partition.
type DayRun struct {
	ConsumedDay string
	Calories    int
	Color       string
	UpdatedAt   time.Time
}

// RunKey locates "the same" serving run across partitions. Row IDs are
// partition-local, so the archive-stable serving ID plus the consumed day and
// time form the join key.
type RunKey struct {
	ServingArchiveID string
	ConsumedDay      string
	ConsumedTime     string
}

const runKeySep = "@"

func (k RunKey) String() string {
	return strings.Join([]string{k.ServingArchiveID, k.ConsumedDay, k.ConsumedTime}, runKeySep)
}

func (k RunKey) Validate() error {
	if k.ServingArchiveID == "" {
		return fmt.Errorf("run key: serving archive id is required")
	}
	if k.ConsumedDay == "" {
		return fmt.Errorf("run key: consumed day is required")
	}
	if k.ConsumedTime == "" {
		return fmt.Errorf("run key: consumed time is required")
	}
	return nil
}

// ParseRunKey is the inverse of RunKey.String.
func ParseRunKey(s string) (RunKey, error) {
	parts := strings.Split(s, runKeySep)
	if len(parts) != 3 {
		return RunKey{}, fmt.Errorf("invalid run key %q (expected archiveID@YYYY-MM-DD@HH:MM)", s)
	}
	k := RunKey{ServingArchiveID: parts[0], ConsumedDay: parts[1], ConsumedTime: parts[2]}
	if err := k.Validate(); err != nil {
		return RunKey{}, err
	}
	return k, nil
}
