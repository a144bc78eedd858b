package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/julianstephens/dcalt/internal/constants"
	"github.com/julianstephens/dcalt/internal/models"
	"github.com/julianstephens/dcalt/internal/storage"
)

// TestStore_Integration tests the PostgreSQL partitions with a real database.
// Set POSTGRES_TEST_URL to run it, e.g.
// POSTGRES_TEST_URL="postgres://dcalt_user@localhost:5432/dcalt_test?sslmode=disable"
func TestStore_Integration(t *testing.T) {
	connStr := os.Getenv("POSTGRES_TEST_URL")
	if connStr == "" {
		t.Skip("POSTGRES_TEST_URL not set, skipping PostgreSQL integration test")
	}
	ctx := context.Background()

	store := New(connStr, models.PartitionMain)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Failed to initialize store: %v", err)
	}
	defer store.Close()

	t.Run("Settings", func(t *testing.T) {
		settings, err := store.GetSettings(ctx)
		if err != nil {
			t.Fatalf("Failed to get settings: %v", err)
		}
		if settings.DayStart == "" {
			t.Errorf("Expected day start to be seeded, got empty")
		}

		settings.TargetCalories = 2400
		if err := store.SaveSettings(ctx, settings); err != nil {
			t.Fatalf("Failed to save settings: %v", err)
		}
		updated, err := store.GetSettings(ctx)
		if err != nil {
			t.Fatalf("Failed to get updated settings: %v", err)
		}
		if updated.TargetCalories != 2400 {
			t.Errorf("Expected target 2400, got %d", updated.TargetCalories)
		}
	})

	t.Run("ServingRuns", func(t *testing.T) {
		day := "2023-02-01"
		archiveID := uuid.New().String()

		err := store.WithTx(ctx, func(tx storage.Tx) error {
			if _, err := tx.EnsureDayRun(ctx, day, constants.DefaultAccentColor); err != nil {
				return err
			}
			_, err := tx.CreateServingRun(ctx, models.ServingRun{
				ServingArchiveID: archiveID,
				ServingName:      "Banana",
				ConsumedDay:      day,
				ConsumedTime:     "16:05",
				Calories:         120,
			})
			return err
		})
		if err != nil {
			t.Fatalf("Failed to create serving run: %v", err)
		}

		key := models.RunKey{ServingArchiveID: archiveID, ConsumedDay: day, ConsumedTime: "16:05"}
		if err := store.WithTx(ctx, func(tx storage.Tx) error {
			return tx.MarkServingRunRemoved(ctx, key)
		}); err != nil {
			t.Fatalf("Failed to remove serving run: %v", err)
		}

		err = store.WithTx(ctx, func(tx storage.Tx) error {
			return tx.MarkServingRunRemoved(ctx, key)
		})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound on second removal, got %v", err)
		}
	})
}
