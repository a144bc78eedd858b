// Package sqlstore implements the partition queries over database/sql for
// every SQL backend. Backends own connection setup and migrations and hand
// the opened database to New.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/julianstephens/dcalt/internal/logger"
	"github.com/julianstephens/dcalt/internal/models"
	"github.com/julianstephens/dcalt/internal/storage"
)

// Store carries the SQL shared by the sqlite and postgres partitions.
type Store struct {
	db        *sqlx.DB
	partition models.Partition
}

// New wraps an opened database. driverName selects the placeholder style.
func New(db *sql.DB, driverName string, partition models.Partition) *Store {
	return &Store{
		db:        sqlx.NewDb(db, driverName),
		partition: partition,
	}
}

func (s *Store) Name() models.Partition {
	return s.partition
}

// DB exposes the underlying connection for backend-specific work.
func (s *Store) DB() *sql.DB {
	return s.db.DB
}

func (s *Store) WithTx(ctx context.Context, fn func(storage.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storage.Persistence(fmt.Sprintf("begin %s transaction", s.partition), err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			logger.Warn("Rollback failed", "partition", s.partition, "error", err)
		}
	}()

	if err := fn(&queries{ext: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storage.Persistence(fmt.Sprintf("commit %s transaction", s.partition), err)
	}
	return nil
}

func (s *Store) reader() *queries {
	return &queries{ext: s.db}
}

func (s *Store) FindServingRuns(ctx context.Context, day string, includeRemoved bool) ([]models.ServingRun, error) {
	return s.reader().FindServingRuns(ctx, day, includeRemoved)
}

func (s *Store) FindServingRunsByKey(ctx context.Context, key models.RunKey, includeRemoved bool) ([]models.ServingRun, error) {
	return s.reader().FindServingRunsByKey(ctx, key, includeRemoved)
}

func (s *Store) GetServingRun(ctx context.Context, id string) (models.ServingRun, error) {
	return s.reader().GetServingRun(ctx, id)
}

func (s *Store) GetDayRun(ctx context.Context, day string) (models.DayRun, error) {
	return s.reader().GetDayRun(ctx, day)
}

func (s *Store) ListDayRuns(ctx context.Context) ([]models.DayRun, error) {
	return s.reader().ListDayRuns(ctx)
}
