package coordinator

import (
	"context"

	"github.com/julianstephens/dcalt/internal/logger"
	"github.com/julianstephens/dcalt/internal/models"
	"github.com/julianstephens/dcalt/internal/storage"
)

// SyncResult reports what ArchiveSync copied.
type SyncResult struct {
	Runs int
	Days []string
}

// ArchiveSync copies main-partition runs the archive does not hold yet,
// matched by RunKey, and recomputes only the archive days it copied into.
// Tombstones are copied as they are.
func (c *Coordinator) ArchiveSync(ctx context.Context) (SyncResult, error) {
	main, err := c.partition(models.PartitionMain)
	if err != nil {
		return SyncResult{}, err
	}
	archive, err := c.partition(models.PartitionArchive)
	if err != nil {
		return SyncResult{}, err
	}

	days, err := main.ListDayRuns(ctx)
	if err != nil {
		return SyncResult{}, err
	}

	var result SyncResult
	for _, day := range days {
		runs, err := main.FindServingRuns(ctx, day.ConsumedDay, true)
		if err != nil {
			return result, err
		}

		missing, err := missingRuns(ctx, archive, runs)
		if err != nil {
			return result, err
		}
		if len(missing) == 0 {
			continue
		}

		copied := 0
		err = c.mutate(ctx, archive, day.ConsumedDay, func(tx storage.Tx) error {
			if _, err := tx.EnsureDayRun(ctx, day.ConsumedDay, day.Color); err != nil {
				return err
			}
			// Re-check under the lock; another writer may have copied some.
			missing, err := missingRuns(ctx, tx, missing)
			if err != nil {
				return err
			}
			for _, run := range missing {
				run.ID = ""
				if _, err := tx.CreateServingRun(ctx, run); err != nil {
					return err
				}
				copied++
			}
			return nil
		})
		if err != nil {
			return result, err
		}

		if copied > 0 {
			logger.Debug("Synced day to archive", "day", day.ConsumedDay, "runs", copied)
			result.Runs += copied
			result.Days = append(result.Days, day.ConsumedDay)
		}
	}

	logger.Info("Archive sync complete", "runs", result.Runs, "days", len(result.Days))
	return result, nil
}

// missingRuns returns the runs whose key r does not hold, tombstoned or not.
func missingRuns(ctx context.Context, r storage.Reader, runs []models.ServingRun) ([]models.ServingRun, error) {
	var missing []models.ServingRun
	for _, run := range runs {
		existing, err := r.FindServingRunsByKey(ctx, run.Key(), true)
		if err != nil {
			return nil, err
		}
		if len(existing) == 0 {
			missing = append(missing, run)
		}
	}
	return missing, nil
}
