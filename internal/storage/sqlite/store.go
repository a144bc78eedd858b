package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/julianstephens/dcalt/internal/logger"
	"github.com/julianstephens/dcalt/internal/migration"
	"github.com/julianstephens/dcalt/internal/models"
	"github.com/julianstephens/dcalt/internal/storage"
	"github.com/julianstephens/dcalt/internal/storage/sqlstore"
	"github.com/julianstephens/dcalt/migrations"
)

const driverName = "sqlite"

func init() {
	sqlx.BindDriver(driverName, sqlx.QUESTION)
}

// Store is a partition kept in its own SQLite database file.
type Store struct {
	*sqlstore.Store

	path      string
	partition models.Partition
	db        *sql.DB
}

var _ storage.Partition = (*Store)(nil)

func NewStore(path string, partition models.Partition) *Store {
	return &Store{
		path:      path,
		partition: partition,
	}
}

func (s *Store) Name() models.Partition {
	return s.partition
}

func (s *Store) open() error {
	db, err := sql.Open(driverName, "file:"+s.path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// A single writer connection keeps SQLite from reporting SQLITE_BUSY
	// between transactions of the same process.
	db.SetMaxOpenConns(1)
	s.db = db
	s.Store = sqlstore.New(db, driverName, s.partition)
	return nil
}

func (s *Store) Init(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if s.db == nil {
		if err := s.open(); err != nil {
			return err
		}
	}

	if err := s.runMigrations(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Settings live in the main partition only.
	if s.partition == models.PartitionMain {
		settings, err := s.GetSettings(ctx)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		models.ApplyDefaultSettings(&settings)
		if err := s.SaveSettings(ctx, settings); err != nil {
			return fmt.Errorf("failed to save default settings: %w", err)
		}
	}

	return nil
}

func (s *Store) Load(ctx context.Context) error {
	if s.db != nil {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return storage.ErrNotInitialized
	}

	if err := s.open(); err != nil {
		return err
	}

	return s.ValidateSchema(ctx)
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) runner() (*migration.Runner, error) {
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("failed to access sqlite migrations: %w", err)
	}
	return migration.NewRunner(s.db, subFS), nil
}

func (s *Store) runMigrations(ctx context.Context) error {
	runner, err := s.runner()
	if err != nil {
		return err
	}
	_, err = runner.Apply(ctx, func(msg string) {
		logger.Info(msg, "partition", s.partition)
	})
	return err
}

func (s *Store) ValidateSchema(ctx context.Context) error {
	runner, err := s.runner()
	if err != nil {
		return err
	}
	return runner.ValidateVersion(ctx)
}

func (s *Store) PendingMigrations(ctx context.Context) (int, error) {
	runner, err := s.runner()
	if err != nil {
		return 0, err
	}
	return runner.Pending(ctx)
}

func (s *Store) Location() string {
	return s.path
}

// Path returns the database file backing the partition.
func (s *Store) Path() string {
	return s.path
}
