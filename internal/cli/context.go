// Package cli holds the state shared by dcalt's commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/julianstephens/dcalt/internal/backup"
	"github.com/julianstephens/dcalt/internal/constants"
	"github.com/julianstephens/dcalt/internal/coordinator"
	"github.com/julianstephens/dcalt/internal/logger"
	"github.com/julianstephens/dcalt/internal/models"
	"github.com/julianstephens/dcalt/internal/notifier"
	"github.com/julianstephens/dcalt/internal/snapshot"
	"github.com/julianstephens/dcalt/internal/storage"
	"github.com/julianstephens/dcalt/internal/storage/sqlite"
)

type Context struct {
	Stores    *storage.Set
	ConfigDir string
	Timeout   time.Duration
	Out       io.Writer

	// Reloader overrides the widget notifier, mainly for tests.
	Reloader snapshot.Reloader
}

// Command returns the context a single command's storage work runs under.
func (c *Context) Command() (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), c.Timeout)
}

func (c *Context) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Context) Printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out(), format, args...)
}

func (c *Context) Println(args ...interface{}) {
	fmt.Fprintln(c.out(), args...)
}

// SurfaceDir is the directory shared with widget hosts.
func (c *Context) SurfaceDir() string {
	return filepath.Join(c.ConfigDir, constants.SurfaceDirName)
}

func (c *Context) Surface() *snapshot.DiskvSurface {
	return snapshot.NewDiskvSurface(c.SurfaceDir())
}

// Settings reads the installation settings from the main partition.
func (c *Context) Settings(ctx context.Context) (models.Settings, error) {
	settings, err := c.Stores.Main.GetSettings(ctx)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return models.Settings{}, fmt.Errorf("failed to get settings: %w", err)
	}
	models.ApplyDefaultSettings(&settings)
	return settings, nil
}

// Coordinator builds a coordinator that publishes to the shared surface. The
// returned flush must be called before the process exits so a pending
// widget reload is delivered.
func (c *Context) Coordinator(ctx context.Context) (*coordinator.Coordinator, func(), error) {
	settings, err := c.Settings(ctx)
	if err != nil {
		return nil, nil, err
	}

	reloader := c.Reloader
	if reloader == nil {
		reloader = notifier.New(c.SurfaceDir())
	}
	coalescer := snapshot.NewCoalescer(reloader, constants.ReloadCoalesceWindow)

	coord, err := coordinator.New(c.Stores, snapshot.NewPublisher(c.Surface(), coalescer), settings)
	if err != nil {
		return nil, nil, err
	}
	return coord, coalescer.Flush, nil
}

// BackupManagers returns one manager per SQLite-backed partition. Server
// partitions are backed up by the database server and yield none.
func (c *Context) BackupManagers() []*backup.Manager {
	var managers []*backup.Manager
	for _, p := range c.Stores.All() {
		if s, ok := p.(*sqlite.Store); ok {
			managers = append(managers, backup.NewManager(s.Path(), s.Name()))
		}
	}
	return managers
}

// PerformAutomaticBackup backs up every SQLite partition, logging failures
// instead of interrupting the command.
func (c *Context) PerformAutomaticBackup(ctx context.Context) {
	for _, mgr := range c.BackupManagers() {
		if _, err := mgr.Create(ctx); err != nil {
			logger.Warn("Automatic backup failed", "error", err)
		}
	}
}
