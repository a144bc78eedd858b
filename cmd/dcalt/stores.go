package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/dcalt/internal/constants"
	"github.com/julianstephens/dcalt/internal/keyring"
	"github.com/julianstephens/dcalt/internal/logger"
	"github.com/julianstephens/dcalt/internal/models"
	"github.com/julianstephens/dcalt/internal/storage"
	"github.com/julianstephens/dcalt/internal/storage/postgres"
	"github.com/julianstephens/dcalt/internal/storage/sqlite"
)

var (
	keyringGetFunc = keyring.GetConnectionString
	getenvFunc     = os.Getenv
)

var errCredentialsInFlag = errors.New("PostgreSQL connection strings with embedded credentials are not allowed on the command line")

// connectionString picks the PostgreSQL connection for this run: the
// --database flag, then the keyring, then DCALT_DB_CONNECTION. An empty
// result selects the SQLite partitions.
func connectionString(flag string) (string, string, error) {
	if flag != "" {
		if err := postgres.ValidateConnString(flag); err != nil {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return "", "", errCredentialsInFlag
			}
			return "", "", err
		}
		return flag, "flag", nil
	}

	connStr, err := keyringGetFunc()
	switch {
	case err == nil && connStr != "":
		return connStr, "keyring", nil
	case err != nil && !errors.Is(err, keyring.ErrNotFound):
		logger.Debug("Keyring lookup failed", "error", err)
	}

	if connStr := getenvFunc(constants.EnvDBConnection); connStr != "" {
		return connStr, "environment", nil
	}
	return "", "", nil
}

// openStores builds the partition set without touching the databases.
func openStores(configDir, database string) (*storage.Set, error) {
	connStr, source, err := connectionString(database)
	if err != nil {
		return nil, err
	}

	if connStr != "" {
		if err := postgres.ValidateConnString(connStr); err != nil && !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return nil, fmt.Errorf("invalid connection string from %s: %w", source, err)
		}
		logger.Debug("Using PostgreSQL partitions", "source", source)
		return &storage.Set{
			Main:    postgres.New(connStr, models.PartitionMain),
			Archive: postgres.New(connStr, models.PartitionArchive),
		}, nil
	}

	logger.Debug("Using SQLite partitions", "dir", configDir)
	return &storage.Set{
		Main:    sqlite.NewStore(filepath.Join(configDir, constants.MainDBFile), models.PartitionMain),
		Archive: sqlite.NewStore(filepath.Join(configDir, constants.ArchiveDBFile), models.PartitionArchive),
	}, nil
}
