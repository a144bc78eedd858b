package backups

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/dcalt/internal/backup"
	"github.com/julianstephens/dcalt/internal/cli"
	"github.com/julianstephens/dcalt/internal/constants"
	"github.com/julianstephens/dcalt/internal/models"
	"github.com/julianstephens/dcalt/internal/storage/sqlite"
)

var errNoSQLite = errors.New("backups are only kept for SQLite partitions; back up PostgreSQL with pg_dump")

// confirmFunc asks before a restore. Tests replace it.
var confirmFunc = func(title string) (bool, error) {
	var confirmed bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Restore").
		Negative("Cancel").
		Value(&confirmed).
		Run()
	return confirmed, err
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	managers := ctx.BackupManagers()
	if len(managers) == 0 {
		return errNoSQLite
	}

	cmdCtx, cancel := ctx.Command()
	defer cancel()

	for _, mgr := range managers {
		path, err := mgr.Create(cmdCtx)
		if err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}
		ctx.Printf("✓ Backup created: %s\n", filepath.Base(path))
	}
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	managers := ctx.BackupManagers()
	if len(managers) == 0 {
		return errNoSQLite
	}

	var all []backup.Info
	for _, mgr := range managers {
		backups, err := mgr.List()
		if err != nil {
			return fmt.Errorf("failed to list backups: %w", err)
		}
		all = append(all, backups...)
	}

	dir := managers[0].Dir()
	if len(all) == 0 {
		ctx.Println("No backups found.")
		ctx.Printf("Backups are stored in: %s\n", dir)
		return nil
	}

	ctx.Printf("Available backups (%d total, keeping most recent %d per partition):\n\n", len(all), constants.MaxBackups)
	for _, b := range all {
		ctx.Printf("  %-8s %s  %s  (%.1f KB)\n",
			b.Partition, b.Timestamp.Format("2006-01-02 15:04:05"), filepath.Base(b.Path), float64(b.Size)/1024.0)
	}
	ctx.Printf("\nBackup directory: %s\n", dir)
	return nil
}

type BackupRestoreCmd struct {
	Partition  string `required:"" enum:"main,archive" help:"Partition to restore (main or archive)."`
	BackupFile string `arg:"" help:"Path or filename of the backup to restore."`
	Yes        bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	partition, err := models.ParsePartition(c.Partition)
	if err != nil {
		return err
	}
	store, ok := ctx.Stores.Get(partition).(*sqlite.Store)
	if !ok {
		return errNoSQLite
	}
	mgr := backup.NewManager(store.Path(), partition)

	backupPath, err := locate(c.BackupFile, mgr.Dir())
	if err != nil {
		return err
	}

	if !c.Yes {
		ctx.Printf("⚠️  WARNING: This will replace the %s partition with the backup.\n", partition)
		ctx.Println("⚠️  IMPORTANT: Stop the widget host and other dcalt processes before restoring.")
		ctx.Println("A backup of the current partition will be created before restoring.")
		ctx.Printf("\nRestore from: %s\n", backupPath)
		ok, err := confirmFunc("Continue with restore?")
		if err != nil {
			return fmt.Errorf("confirmation failed: %w", err)
		}
		if !ok {
			ctx.Println("Restore cancelled.")
			return nil
		}
	}

	if err := store.Close(); err != nil {
		ctx.Printf("Warning: failed to close database connection: %v\n", err)
	}

	cmdCtx, cancel := ctx.Command()
	defer cancel()

	if err := mgr.Restore(cmdCtx, backupPath); err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	ctx.Printf("✓ %s partition restored successfully!\n", partition)
	ctx.Println("  Run 'dcalt doctor' to check day totals against the restored runs.")
	return nil
}

// locate resolves name as a path, then as a file in the backup directory.
func locate(name, dir string) (string, error) {
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err != nil {
			return "", fmt.Errorf("backup file not found: %s", name)
		}
		return name, nil
	}
	if _, err := os.Stat(name); err == nil {
		return filepath.Abs(name)
	}
	candidate := filepath.Join(dir, name)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	return "", fmt.Errorf("backup file not found: tried current directory and %s", dir)
}
