// Package dayrun maintains the per-partition running calorie total of a day
// bucket.
package dayrun

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/dcalt/internal/constants"
	"github.com/julianstephens/dcalt/internal/models"
	"github.com/julianstephens/dcalt/internal/storage"
)

// ErrCalorieOverflow is returned when a day total would leave the
// representable range. The stored total is left as it was.
var ErrCalorieOverflow = errors.New("day calorie total out of range")

// Sum adds the calories of every non-removed run. max <= 0 selects
// constants.MaxDayCalories.
func Sum(runs []models.ServingRun, max int) (int, error) {
	if max <= 0 {
		max = constants.MaxDayCalories
	}

	total := 0
	for _, run := range runs {
		if run.UserRemoved {
			continue
		}
		if run.Calories < 0 {
			return 0, fmt.Errorf("serving run %s has negative calories %d", run.ID, run.Calories)
		}
		if run.Calories > max-total {
			return 0, fmt.Errorf("%w: adding %d to %d exceeds %d", ErrCalorieOverflow, run.Calories, total, max)
		}
		total += run.Calories
	}
	return total, nil
}

// Recompute sums the live runs of day inside tx and stores the result on the
// day run, creating it when missing. On overflow nothing is written.
func Recompute(ctx context.Context, tx storage.Tx, day string, max int) (int, error) {
	runs, err := tx.FindServingRuns(ctx, day, false)
	if err != nil {
		return 0, err
	}

	total, err := Sum(runs, max)
	if err != nil {
		return 0, err
	}

	run, err := tx.GetDayRun(ctx, day)
	if errors.Is(err, storage.ErrNotFound) {
		run = models.DayRun{ConsumedDay: day}
	} else if err != nil {
		return 0, err
	}

	run.Calories = total
	run.UpdatedAt = time.Now()
	if err := tx.SaveDayRun(ctx, run); err != nil {
		return 0, err
	}
	return total, nil
}

// Verify reports whether the stored total of day matches a fresh sum.
func Verify(ctx context.Context, r storage.Reader, day string, max int) (stored, computed int, err error) {
	run, err := r.GetDayRun(ctx, day)
	if err != nil {
		return 0, 0, err
	}
	runs, err := r.FindServingRuns(ctx, day, false)
	if err != nil {
		return run.Calories, 0, err
	}
	computed, err = Sum(runs, max)
	return run.Calories, computed, err
}
