package storage

import (
	"context"

	"github.com/julianstephens/dcalt/internal/models"
)

// Reader is the query surface shared by a partition and its transactions.
type Reader interface {
	// FindServingRuns returns the runs in a day bucket ordered by consumed
	// time ascending.
	FindServingRuns(ctx context.Context, day string, includeRemoved bool) ([]models.ServingRun, error)
	FindServingRunsByKey(ctx context.Context, key models.RunKey, includeRemoved bool) ([]models.ServingRun, error)
	GetServingRun(ctx context.Context, id string) (models.ServingRun, error)
	GetDayRun(ctx context.Context, day string) (models.DayRun, error)
	ListDayRuns(ctx context.Context) ([]models.DayRun, error)
}

// Tx is one atomically committed unit of work against a single partition.
type Tx interface {
	Reader

	CreateServingRun(ctx context.Context, run models.ServingRun) (models.ServingRun, error)
	// MarkServingRunRemoved tombstones every non-removed run matching key.
	// It returns ErrNotFound when nothing in the partition matches.
	MarkServingRunRemoved(ctx context.Context, key models.RunKey) error
	// EnsureDayRun creates the day run for day if it does not exist yet.
	EnsureDayRun(ctx context.Context, day, color string) (models.DayRun, error)
	SaveDayRun(ctx context.Context, run models.DayRun) error
}

// Catalog holds the categories and servings a run can be logged from.
type Catalog interface {
	AddCategory(ctx context.Context, category models.Category) error
	GetCategory(ctx context.Context, idOrName string) (models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	AddServing(ctx context.Context, serving models.Serving) error
	GetServing(ctx context.Context, idOrName string) (models.Serving, error)
	ListServings(ctx context.Context) ([]models.Serving, error)
}

type SettingsStore interface {
	GetSettings(ctx context.Context) (models.Settings, error)
	SaveSettings(ctx context.Context, settings models.Settings) error
}

// Partition is one independently queryable record set (main or archive).
type Partition interface {
	Reader
	Catalog
	SettingsStore

	// Lifecycle
	Init(ctx context.Context) error
	Load(ctx context.Context) error
	Close() error

	// WithTx runs fn inside a transaction and commits when fn returns nil.
	// Commit failures are reported as ErrPersistence and nothing from fn
	// becomes visible.
	WithTx(ctx context.Context, fn func(Tx) error) error

	Name() models.Partition
	ValidateSchema(ctx context.Context) error
	PendingMigrations(ctx context.Context) (int, error)

	// Location returns a non-sensitive description of where the partition lives.
	Location() string
}
