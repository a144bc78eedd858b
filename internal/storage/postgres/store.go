package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	pq "github.com/lib/pq"

	"github.com/julianstephens/dcalt/internal/constants"
	"github.com/julianstephens/dcalt/internal/logger"
	"github.com/julianstephens/dcalt/internal/migration"
	"github.com/julianstephens/dcalt/internal/models"
	"github.com/julianstephens/dcalt/internal/storage"
	"github.com/julianstephens/dcalt/internal/storage/sqlstore"
	"github.com/julianstephens/dcalt/migrations"
)

const driverName = "postgres"

// Store is a partition kept in its own schema of a PostgreSQL database.
type Store struct {
	*sqlstore.Store

	connStr   string
	schema    string
	partition models.Partition
	db        *sql.DB
}

var _ storage.Partition = (*Store)(nil)

var (
	ErrInvalidConnectionString = errors.New("invalid PostgreSQL connection string")
	ErrEmbeddedCredentials     = errors.New("connection string must not contain a password")
)

// SchemaFor returns the schema that backs a partition.
func SchemaFor(partition models.Partition) string {
	if partition == models.PartitionArchive {
		return constants.ArchiveSchema
	}
	return constants.MainSchema
}

func New(connStr string, partition models.Partition) *Store {
	schema := SchemaFor(partition)
	return &Store{
		connStr:   withSearchPath(connStr, schema),
		schema:    schema,
		partition: partition,
	}
}

func (s *Store) Name() models.Partition {
	return s.partition
}

// withSearchPath points unqualified table names at schema unless the
// connection string already chooses a search_path.
func withSearchPath(connStr, schema string) string {
	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		u, err := url.Parse(connStr)
		if err != nil {
			logger.Warn("Failed to parse Postgres connection string", "error", err)
			return connStr
		}
		q := u.Query()
		if q.Get("search_path") == "" {
			q.Set("search_path", schema)
			u.RawQuery = q.Encode()
		}
		return u.String()
	}

	if !hasParam(connStr, "search_path") {
		return strings.TrimSpace(connStr) + " search_path=" + schema
	}
	return connStr
}

// hasParam reports whether a connection string sets key (case-insensitive).
// It supports both URL-style and DSN-style connection strings.
func hasParam(connStr, key string) bool {
	if u, err := url.Parse(connStr); err == nil && u.Scheme != "" {
		for k := range u.Query() {
			if strings.EqualFold(k, key) {
				return true
			}
		}
	}

	for _, part := range strings.Fields(connStr) {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) == 2 && strings.EqualFold(kv[0], key) {
			return true
		}
	}
	return false
}

// ValidateConnString checks that connStr is a well-formed PostgreSQL
// connection string (URI or DSN) that does not carry a password.
func ValidateConnString(connStr string) error {
	if strings.TrimSpace(connStr) == "" {
		return fmt.Errorf("%w: connection string cannot be empty", ErrInvalidConnectionString)
	}

	if _, err := pq.NewConnector(connStr); err != nil {
		return fmt.Errorf("%w: invalid connection string format: %v", ErrInvalidConnectionString, err)
	}

	if IsConnString(connStr) {
		parsedURL, err := url.Parse(connStr)
		if err != nil {
			return fmt.Errorf("%w: failed to parse connection URL: %v", ErrInvalidConnectionString, err)
		}
		if _, isSet := parsedURL.User.Password(); isSet {
			return ErrEmbeddedCredentials
		}
		if parsedURL.Host == "" && parsedURL.User == nil && (parsedURL.Path == "" || parsedURL.Path == "/") {
			return fmt.Errorf("%w: connection URL is incomplete", ErrInvalidConnectionString)
		}
		return nil
	}

	for _, pair := range strings.Fields(connStr) {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) == 2 && strings.EqualFold(strings.TrimSpace(parts[0]), "password") {
			return ErrEmbeddedCredentials
		}
	}
	return nil
}

// IsConnString reports whether s is a PostgreSQL URL rather than a file path.
func IsConnString(s string) bool {
	return strings.HasPrefix(s, "postgres://") || strings.HasPrefix(s, "postgresql://")
}

func (s *Store) open(ctx context.Context) error {
	db, err := sql.Open(driverName, s.connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool parameters to avoid connection exhaustion
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		if strings.Contains(err.Error(), "SSL is not enabled on the server") && !hasParam(s.connStr, "sslmode") {
			return fmt.Errorf("failed to connect to database: %w (hint: try adding ?sslmode=disable to your connection string)", err)
		}
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	s.db = db
	s.Store = sqlstore.New(db, driverName, s.partition)
	return nil
}

func (s *Store) Init(ctx context.Context) error {
	if s.db == nil {
		if err := s.open(ctx); err != nil {
			return err
		}
	}

	if _, err := s.db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+pq.QuoteIdentifier(s.schema)); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if err := s.runMigrations(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

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
	if err := s.open(ctx); err != nil {
		return err
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)", s.schema).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check schema: %w", err)
	}
	if !exists {
		return storage.ErrNotInitialized
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
	subFS, err := fs.Sub(migrations.FS, "postgres")
	if err != nil {
		return nil, fmt.Errorf("failed to access postgres migrations: %w", err)
	}
	return migration.NewRunner(s.db, subFS), nil
}

func (s *Store) runMigrations(ctx context.Context) error {
	runner, err := s.runner()
	if err != nil {
		return err
	}
	_, err = runner.Apply(ctx, func(msg string) {
		logger.Info(msg, "partition", s.partition, "schema", s.schema)
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

// Location returns a non-sensitive identifier instead of the connection string.
func (s *Store) Location() string {
	return "postgresql/" + s.schema
}
