package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/julianstephens/dcalt/internal/constants"
	"github.com/julianstephens/dcalt/internal/models"
	"github.com/julianstephens/dcalt/internal/storage"
)

func setupTestStore(t *testing.T, partition models.Partition) *Store {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), string(partition)+".db"), partition)
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("failed to initialize test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func logRun(t *testing.T, store *Store, run models.ServingRun) models.ServingRun {
	t.Helper()
	ctx := context.Background()
	var created models.ServingRun
	err := store.WithTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.EnsureDayRun(ctx, run.ConsumedDay, "#ff0000"); err != nil {
			return err
		}
		var err error
		created, err = tx.CreateServingRun(ctx, run)
		return err
	})
	if err != nil {
		t.Fatalf("failed to log serving run: %v", err)
	}
	return created
}

func TestInitSeedsDefaultSettings(t *testing.T) {
	store := setupTestStore(t, models.PartitionMain)

	settings, err := store.GetSettings(context.Background())
	if err != nil {
		t.Fatalf("GetSettings() error = %v", err)
	}
	if settings.DayStart != constants.DefaultDayStart {
		t.Errorf("DayStart = %q, want %q", settings.DayStart, constants.DefaultDayStart)
	}
	if settings.TargetCalories != constants.DefaultTargetCalories {
		t.Errorf("TargetCalories = %d, want %d", settings.TargetCalories, constants.DefaultTargetCalories)
	}
	if settings.MaxDayCalories != constants.MaxDayCalories {
		t.Errorf("MaxDayCalories = %d, want %d", settings.MaxDayCalories, constants.MaxDayCalories)
	}
}

func TestArchivePartitionHasNoSettings(t *testing.T) {
	store := setupTestStore(t, models.PartitionArchive)

	_, err := store.GetSettings(context.Background())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetSettings() on archive error = %v, want ErrNotFound", err)
	}
}

func TestSaveSettingsRoundTrip(t *testing.T) {
	store := setupTestStore(t, models.PartitionMain)
	ctx := context.Background()

	settings, _ := store.GetSettings(ctx)
	settings.DayStart = "05:30"
	settings.TargetCalories = 1800
	settings.AccentColor = "#00ff00"
	if err := store.SaveSettings(ctx, settings); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}

	got, err := store.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings() error = %v", err)
	}
	if got != settings {
		t.Errorf("GetSettings() = %+v, want %+v", got, settings)
	}
}

func TestFindServingRunsOrderingAndTombstones(t *testing.T) {
	store := setupTestStore(t, models.PartitionMain)
	ctx := context.Background()
	day := "2023-02-01"

	logRun(t, store, models.ServingRun{ServingArchiveID: "steak", ConsumedDay: day, ConsumedTime: "18:30", Calories: 450})
	logRun(t, store, models.ServingRun{ServingArchiveID: "banana", ConsumedDay: day, ConsumedTime: "07:15", Calories: 120})
	logRun(t, store, models.ServingRun{ServingArchiveID: "late", ConsumedDay: day, ConsumedTime: "01:00", Calories: 300})
	logRun(t, store, models.ServingRun{ServingArchiveID: "other", ConsumedDay: "2023-02-02", ConsumedTime: "09:00", Calories: 80})

	runs, err := store.FindServingRuns(ctx, day, false)
	if err != nil {
		t.Fatalf("FindServingRuns() error = %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	wantOrder := []string{"01:00", "07:15", "18:30"}
	for i, run := range runs {
		if run.ConsumedTime != wantOrder[i] {
			t.Errorf("runs[%d].ConsumedTime = %s, want %s", i, run.ConsumedTime, wantOrder[i])
		}
	}

	key := models.RunKey{ServingArchiveID: "steak", ConsumedDay: day, ConsumedTime: "18:30"}
	if err := store.WithTx(ctx, func(tx storage.Tx) error {
		return tx.MarkServingRunRemoved(ctx, key)
	}); err != nil {
		t.Fatalf("MarkServingRunRemoved() error = %v", err)
	}

	runs, _ = store.FindServingRuns(ctx, day, false)
	if len(runs) != 2 {
		t.Errorf("expected 2 live runs after removal, got %d", len(runs))
	}

	all, _ := store.FindServingRuns(ctx, day, true)
	if len(all) != 3 {
		t.Errorf("expected tombstone to be kept, got %d runs", len(all))
	}

	removed, err := store.FindServingRunsByKey(ctx, key, true)
	if err != nil {
		t.Fatalf("FindServingRunsByKey() error = %v", err)
	}
	if len(removed) != 1 || !removed[0].UserRemoved {
		t.Errorf("expected the run to be tombstoned, got %+v", removed)
	}
}

func TestMarkServingRunRemovedNotFound(t *testing.T) {
	store := setupTestStore(t, models.PartitionArchive)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx storage.Tx) error {
		return tx.MarkServingRunRemoved(ctx, models.RunKey{
			ServingArchiveID: "missing", ConsumedDay: "2023-02-01", ConsumedTime: "10:00",
		})
	})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	store := setupTestStore(t, models.PartitionMain)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.EnsureDayRun(ctx, "2023-02-01", ""); err != nil {
			return err
		}
		if _, err := tx.CreateServingRun(ctx, models.ServingRun{
			ServingArchiveID: "banana", ConsumedDay: "2023-02-01", ConsumedTime: "10:00", Calories: 120,
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx() error = %v, want boom", err)
	}

	runs, _ := store.FindServingRuns(ctx, "2023-02-01", true)
	if len(runs) != 0 {
		t.Errorf("expected no runs after rollback, got %d", len(runs))
	}
	if _, err := store.GetDayRun(ctx, "2023-02-01"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected day run to be rolled back, got %v", err)
	}
}

func TestCreateServingRunValidation(t *testing.T) {
	store := setupTestStore(t, models.PartitionMain)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx storage.Tx) error {
		_, err := tx.CreateServingRun(ctx, models.ServingRun{
			ServingArchiveID: "x", ConsumedDay: "2023-02-01", ConsumedTime: "10:00", Calories: -5,
		})
		return err
	})
	if err == nil {
		t.Error("expected negative calories to be rejected")
	}
}

func TestDayRunUpsert(t *testing.T) {
	store := setupTestStore(t, models.PartitionMain)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx storage.Tx) error {
		first, err := tx.EnsureDayRun(ctx, "2023-02-01", "#123456")
		if err != nil {
			return err
		}
		first.Calories = 570
		if err := tx.SaveDayRun(ctx, first); err != nil {
			return err
		}
		again, err := tx.EnsureDayRun(ctx, "2023-02-01", "#ffffff")
		if err != nil {
			return err
		}
		if again.Calories != 570 || again.Color != "#123456" {
			t.Errorf("EnsureDayRun() overwrote existing run: %+v", again)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}

	runs, err := store.ListDayRuns(ctx)
	if err != nil {
		t.Fatalf("ListDayRuns() error = %v", err)
	}
	if len(runs) != 1 || runs[0].Calories != 570 {
		t.Errorf("ListDayRuns() = %+v", runs)
	}
}

func TestCatalog(t *testing.T) {
	store := setupTestStore(t, models.PartitionMain)
	ctx := context.Background()

	if err := store.AddCategory(ctx, models.Category{Name: "Fruit", UserOrder: 1}); err != nil {
		t.Fatalf("AddCategory() error = %v", err)
	}
	if err := store.AddCategory(ctx, models.Category{Name: "Entrees", UserOrder: 0}); err != nil {
		t.Fatalf("AddCategory() error = %v", err)
	}

	fruit, err := store.GetCategory(ctx, "Fruit")
	if err != nil {
		t.Fatalf("GetCategory() error = %v", err)
	}
	if err := store.AddServing(ctx, models.Serving{CategoryID: fruit.ID, Name: "Banana", Calories: 120}); err != nil {
		t.Fatalf("AddServing() error = %v", err)
	}

	banana, err := store.GetServing(ctx, "Banana")
	if err != nil {
		t.Fatalf("GetServing() error = %v", err)
	}
	if banana.CategoryName != "Fruit" || banana.Calories != 120 || banana.ArchiveID == "" {
		t.Errorf("GetServing() = %+v", banana)
	}

	byArchive, err := store.GetServing(ctx, banana.ArchiveID)
	if err != nil || byArchive.ID != banana.ID {
		t.Errorf("GetServing(archiveID) = %+v, %v", byArchive, err)
	}

	categories, _ := store.ListCategories(ctx)
	if len(categories) != 2 || categories[0].Name != "Entrees" {
		t.Errorf("ListCategories() = %+v", categories)
	}

	if _, err := store.GetServing(ctx, "Steak"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetServing(missing) error = %v, want ErrNotFound", err)
	}
	if err := store.AddServing(ctx, models.Serving{Name: "Orphan"}); err == nil {
		t.Error("expected serving without category to be rejected")
	}
}

func TestLoadRequiresInit(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.db"), models.PartitionMain)
	if err := store.Load(context.Background()); !errors.Is(err, storage.ErrNotInitialized) {
		t.Errorf("Load() error = %v, want ErrNotInitialized", err)
	}
}

func TestLoadAfterInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.db")
	ctx := context.Background()

	store := NewStore(path, models.PartitionMain)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	store.Close()

	reopened := NewStore(path, models.PartitionMain)
	if err := reopened.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer reopened.Close()

	pending, err := reopened.PendingMigrations(ctx)
	if err != nil {
		t.Fatalf("PendingMigrations() error = %v", err)
	}
	if pending != 0 {
		t.Errorf("PendingMigrations() = %d, want 0", pending)
	}
	if reopened.Location() != path {
		t.Errorf("Location() = %q, want %q", reopened.Location(), path)
	}
}
