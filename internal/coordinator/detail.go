package coordinator

import (
	"context"
	"time"

	"github.com/julianstephens/dcalt/internal/models"
	"github.com/julianstephens/dcalt/internal/storage"
	"github.com/julianstephens/dcalt/internal/subjective"
)

// Detail describes one serving run for a deep-link view.
type Detail struct {
	URI        storage.RunURI
	Run        models.ServingRun
	ConsumedAt time.Time
	DayTotal   int
	// Percent is the run's share of the day total, 0 when the total is 0.
	Percent float64
}

// ServingDetail resolves a dcalt:// serving run reference.
func (c *Coordinator) ServingDetail(ctx context.Context, uri string) (Detail, error) {
	ref, run, err := c.stores.ResolveURI(ctx, uri)
	if err != nil {
		return Detail{}, err
	}

	at, err := subjective.Merge(run.ConsumedDay, run.ConsumedTime, c.boundary, c.loc)
	if err != nil {
		return Detail{}, err
	}

	total, err := c.Total(ctx, run.ConsumedDay, ref.Partition)
	if err != nil {
		return Detail{}, err
	}

	d := Detail{
		URI:        ref,
		Run:        run,
		ConsumedAt: at,
		DayTotal:   total,
	}
	if total > 0 && !run.UserRemoved {
		d.Percent = float64(run.Calories) / float64(total) * 100
	}
	return d, nil
}
