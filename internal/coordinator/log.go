package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/dcalt/internal/dayrun"
	"github.com/julianstephens/dcalt/internal/logger"
	"github.com/julianstephens/dcalt/internal/models"
	"github.com/julianstephens/dcalt/internal/storage"
	"github.com/julianstephens/dcalt/internal/subjective"
)

// LogRequest describes one consumption to record.
type LogRequest struct {
	// Serving is a catalog serving ID, archive ID or name.
	Serving string
	// Calories overrides the serving's default when non-nil.
	Calories *int
	// At is when the serving was consumed. Zero means now.
	At time.Time
}

// LogServing records a consumption in the main partition and updates the
// day total in the same transaction.
func (c *Coordinator) LogServing(ctx context.Context, req LogRequest) (models.ServingRun, storage.RunURI, error) {
	main, err := c.partition(models.PartitionMain)
	if err != nil {
		return models.ServingRun{}, storage.RunURI{}, err
	}

	serving, err := main.GetServing(ctx, req.Serving)
	if err != nil {
		return models.ServingRun{}, storage.RunURI{}, err
	}

	calories := serving.Calories
	if req.Calories != nil {
		calories = *req.Calories
	}
	if calories < 0 {
		return models.ServingRun{}, storage.RunURI{}, fmt.Errorf("calories must be non-negative, got %d", calories)
	}
	if calories > c.settings.MaxDayCalories {
		return models.ServingRun{}, storage.RunURI{}, fmt.Errorf("%w: serving of %d exceeds %d", dayrun.ErrCalorieOverflow, calories, c.settings.MaxDayCalories)
	}

	at := req.At
	if at.IsZero() {
		at = c.now()
	}
	day, timeOfDay, err := subjective.Resolve(at.In(c.loc), c.boundary)
	if err != nil {
		return models.ServingRun{}, storage.RunURI{}, err
	}

	var created models.ServingRun
	err = c.mutate(ctx, main, day, func(tx storage.Tx) error {
		if _, err := tx.EnsureDayRun(ctx, day, c.settings.AccentColor); err != nil {
			return err
		}
		run, err := tx.CreateServingRun(ctx, models.ServingRun{
			ServingArchiveID: serving.ArchiveID,
			ServingName:      serving.Name,
			CategoryName:     serving.CategoryName,
			ConsumedDay:      day,
			ConsumedTime:     timeOfDay,
			Calories:         calories,
		})
		created = run
		return err
	})
	if err != nil {
		return models.ServingRun{}, storage.RunURI{}, err
	}

	logger.Info("Logged serving", "serving", serving.Name, "day", day, "time", timeOfDay, "calories", calories)
	c.publishIfToday(ctx, day)

	return created, storage.RunURI{Partition: models.PartitionMain, ID: created.ID}, nil
}
