// Package backup keeps rotated copies of the SQLite partition files.
package backup

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/dcalt/internal/constants"
	"github.com/julianstephens/dcalt/internal/logger"
	"github.com/julianstephens/dcalt/internal/models"
)

const (
	minuteLayout = "20060102-1504"
	secondLayout = "20060102-150405"
)

type Info struct {
	Partition models.Partition
	Path      string
	Timestamp time.Time
	Size      int64
}

// Manager backs up one partition's database file into the shared backup
// directory next to it. Backup names are prefixed with the partition.
type Manager struct {
	dbPath    string
	partition models.Partition
	backupDir string
}

func NewManager(dbPath string, partition models.Partition) *Manager {
	return &Manager{
		dbPath:    dbPath,
		partition: partition,
		backupDir: filepath.Join(filepath.Dir(dbPath), constants.BackupDirName),
	}
}

func (m *Manager) Dir() string {
	return m.backupDir
}

func (m *Manager) prefix() string {
	return string(m.partition) + "-"
}

// Create writes a new backup and prunes the partition's oldest backups
// beyond constants.MaxBackups.
func (m *Manager) Create(ctx context.Context) (string, error) {
	path, err := m.create(ctx)
	if err != nil {
		return "", err
	}
	if err := m.rotate(); err != nil {
		logger.Warn("Failed to rotate old backups", "partition", m.partition, "error", err)
	}
	return path, nil
}

func (m *Manager) create(ctx context.Context) (string, error) {
	if err := os.MkdirAll(m.backupDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	if _, err := os.Stat(m.dbPath); os.IsNotExist(err) {
		return "", fmt.Errorf("%s partition database does not exist: %s", m.partition, m.dbPath)
	}

	path, err := m.nextPath(time.Now())
	if err != nil {
		return "", err
	}
	if err := m.vacuumInto(ctx, path); err != nil {
		return "", fmt.Errorf("failed to back up %s partition: %w", m.partition, err)
	}

	logger.Info("Created backup", "partition", m.partition, "path", path)
	return path, nil
}

// nextPath picks an unused backup name, widening to seconds and then a
// counter when backups are taken in quick succession.
func (m *Manager) nextPath(now time.Time) (string, error) {
	candidate := func(stamp string) string {
		return filepath.Join(m.backupDir, m.prefix()+stamp+constants.BackupFileSuffix)
	}
	exists := func(path string) bool {
		_, err := os.Stat(path)
		return err == nil
	}

	path := candidate(now.Format(minuteLayout))
	if !exists(path) {
		return path, nil
	}
	stamp := now.Format(secondLayout)
	path = candidate(stamp)
	for counter := 1; exists(path); counter++ {
		if counter > 100 {
			return "", fmt.Errorf("failed to generate unique backup filename")
		}
		path = candidate(fmt.Sprintf("%s-%d", stamp, counter))
	}
	return path, nil
}

func (m *Manager) vacuumInto(ctx context.Context, dest string) error {
	db, err := sql.Open("sqlite", m.dbPath+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer db.Close()

	if err := verify(ctx, db); err != nil {
		return fmt.Errorf("source database appears to be corrupted: %w", err)
	}
	if _, err := db.ExecContext(ctx, "VACUUM INTO ?", dest); err != nil {
		db.Close()
		logger.Debug("VACUUM INTO failed, copying file", "error", err)
		return copyFile(m.dbPath, dest)
	}
	return nil
}

// List returns the partition's backups, newest first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.backupDir)
	if os.IsNotExist(err) {
		return []Info{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var backups []Info
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, m.prefix()) || !strings.HasSuffix(name, constants.BackupFileSuffix) {
			continue
		}
		stamp, ok := parseStamp(strings.TrimSuffix(strings.TrimPrefix(name, m.prefix()), constants.BackupFileSuffix))
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Info{
			Partition: m.partition,
			Path:      filepath.Join(m.backupDir, name),
			Timestamp: stamp,
			Size:      info.Size(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		if backups[i].Timestamp.Equal(backups[j].Timestamp) {
			return backups[i].Path > backups[j].Path
		}
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// parseStamp accepts YYYYMMDD-HHMM or YYYYMMDD-HHMMSS with an optional
// -N counter.
func parseStamp(s string) (time.Time, bool) {
	parts := strings.Split(s, "-")
	if len(parts) == 3 {
		s = parts[0] + "-" + parts[1]
	}
	for _, layout := range []string{minuteLayout, secondLayout} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (m *Manager) rotate() error {
	backups, err := m.List()
	if err != nil {
		return err
	}
	for i := constants.MaxBackups; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
	}
	return nil
}

// Restore replaces the partition file with backupPath after taking an
// unrotated backup of the current file. The partition must be closed.
func (m *Manager) Restore(ctx context.Context, backupPath string) error {
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return fmt.Errorf("backup file does not exist: %s", backupPath)
	}

	db, err := sql.Open("sqlite", backupPath+"?mode=ro")
	if err != nil {
		return fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}
	err = verify(ctx, db)
	db.Close()
	if err != nil {
		return fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}

	if _, err := os.Stat(m.dbPath); err == nil {
		current, err := m.create(ctx)
		if err != nil {
			return fmt.Errorf("failed to back up current database before restore: %w", err)
		}
		logger.Info("Backed up current partition before restore", "partition", m.partition, "path", current)
	}

	tempPath := m.dbPath + ".restore.tmp"
	if err := copyFile(backupPath, tempPath); err != nil {
		return fmt.Errorf("failed to copy backup file: %w", err)
	}
	if err := os.Rename(tempPath, m.dbPath); err != nil {
		if removeErr := os.Remove(tempPath); removeErr != nil {
			logger.Warn("Failed to remove temporary file", "path", tempPath, "error", removeErr)
		}
		return fmt.Errorf("failed to restore database: %w", err)
	}
	return nil
}

func verify(ctx context.Context, db *sql.DB) error {
	var count int
	return db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master").Scan(&count)
}

func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := destFile.ReadFrom(sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}
