// Package coordinator applies user mutations to the main and archive
// partitions, keeps each partition's day totals in step and publishes the
// result for widgets.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/julianstephens/dcalt/internal/dayrun"
	"github.com/julianstephens/dcalt/internal/keylock"
	"github.com/julianstephens/dcalt/internal/logger"
	"github.com/julianstephens/dcalt/internal/models"
	"github.com/julianstephens/dcalt/internal/snapshot"
	"github.com/julianstephens/dcalt/internal/storage"
	"github.com/julianstephens/dcalt/internal/subjective"
	"github.com/julianstephens/dcalt/internal/utils"
)

// ErrAllPartitionsMissing is returned when a removal matched nothing in any
// partition.
var ErrAllPartitionsMissing = errors.New("serving run not found in any partition")

type Coordinator struct {
	stores    *storage.Set
	publisher *snapshot.Publisher
	settings  models.Settings
	boundary  subjective.Boundary
	loc       *time.Location
	locks     keylock.Locker

	now func() time.Time
}

// New validates settings and returns a coordinator over stores. publisher may
// be nil, in which case nothing is published.
func New(stores *storage.Set, publisher *snapshot.Publisher, settings models.Settings) (*Coordinator, error) {
	models.ApplyDefaultSettings(&settings)

	boundary, err := subjective.ParseBoundary(settings.DayStart)
	if err != nil {
		return nil, err
	}
	loc, err := utils.LoadLocation(settings.Timezone)
	if err != nil {
		return nil, err
	}

	return &Coordinator{
		stores:    stores,
		publisher: publisher,
		settings:  settings,
		boundary:  boundary,
		loc:       loc,
		now:       time.Now,
	}, nil
}

func (c *Coordinator) Settings() models.Settings {
	return c.settings
}

func (c *Coordinator) Boundary() subjective.Boundary {
	return c.boundary
}

// TodayBucket returns the day bucket now falls into under the configured
// boundary and timezone.
func (c *Coordinator) TodayBucket(now time.Time) (string, error) {
	return subjective.Today(now.In(c.loc), c.boundary)
}

// ListServings returns the live runs of day in partition ordered by time.
func (c *Coordinator) ListServings(ctx context.Context, day string, partition models.Partition) ([]models.ServingRun, error) {
	p, err := c.partition(partition)
	if err != nil {
		return nil, err
	}
	return p.FindServingRuns(ctx, day, false)
}

// Total returns the stored total of day in partition, 0 when the day has no
// aggregate yet.
func (c *Coordinator) Total(ctx context.Context, day string, partition models.Partition) (int, error) {
	p, err := c.partition(partition)
	if err != nil {
		return 0, err
	}
	run, err := p.GetDayRun(ctx, day)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return run.Calories, nil
}

// RemoveServing tombstones the run identified by key in every partition that
// holds it and recomputes the affected day totals. It returns the partitions
// that were changed.
func (c *Coordinator) RemoveServing(ctx context.Context, key models.RunKey) ([]models.Partition, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	var (
		found []models.Partition
		errs  []error
	)
	for _, p := range c.stores.All() {
		err := c.mutate(ctx, p, key.ConsumedDay, func(tx storage.Tx) error {
			return tx.MarkServingRunRemoved(ctx, key)
		})
		switch {
		case err == nil:
			found = append(found, p.Name())
		case errors.Is(err, storage.ErrNotFound):
			logger.Debug("Serving run not in partition", "partition", p.Name(), "key", key.String())
		default:
			logger.Error("Failed to remove serving run", "partition", p.Name(), "key", key.String(), "error", err)
			errs = append(errs, fmt.Errorf("%s partition: %w", p.Name(), err))
		}
	}

	if len(found) == 0 && len(errs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrAllPartitionsMissing, key)
	}

	if slices.Contains(found, models.PartitionMain) {
		c.publishIfToday(ctx, key.ConsumedDay)
	}
	return found, errors.Join(errs...)
}

// mutate runs fn and a recompute of day in one transaction on p while
// holding the (partition, day) lock.
func (c *Coordinator) mutate(ctx context.Context, p storage.Partition, day string, fn func(storage.Tx) error) error {
	unlock := c.locks.Lock(lockKey(p.Name(), day))
	defer unlock()

	return p.WithTx(ctx, func(tx storage.Tx) error {
		if err := fn(tx); err != nil {
			return err
		}
		total, err := dayrun.Recompute(ctx, tx, day, c.settings.MaxDayCalories)
		if err != nil {
			return err
		}
		logger.Debug("Recomputed day total", "partition", p.Name(), "day", day, "calories", total)
		return nil
	})
}

// Publish writes today's main-partition total to the shared surface.
func (c *Coordinator) Publish(ctx context.Context, reload bool) error {
	if c.publisher == nil {
		return nil
	}
	today, err := c.TodayBucket(c.now())
	if err != nil {
		return err
	}
	current, err := c.Total(ctx, today, models.PartitionMain)
	if err != nil {
		return err
	}
	return c.publisher.Publish(ctx, snapshot.Snapshot{
		Target:  c.settings.TargetCalories,
		Current: current,
		Accent:  c.settings.AccentColor,
	}, reload)
}

// publishIfToday republishes after a committed change to day. A failure to
// publish never undoes the change.
func (c *Coordinator) publishIfToday(ctx context.Context, day string) {
	today, err := c.TodayBucket(c.now())
	if err != nil || today != day {
		return
	}
	if err := c.Publish(ctx, true); err != nil {
		logger.Warn("Failed to publish snapshot", "day", day, "error", err)
	}
}

func (c *Coordinator) partition(name models.Partition) (storage.Partition, error) {
	p := c.stores.Get(name)
	if p == nil {
		return nil, fmt.Errorf("unknown partition %q", name)
	}
	return p, nil
}

func lockKey(p models.Partition, day string) string {
	return string(p) + "/" + day
}
