package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/peterbourgon/diskv/v3"

	"github.com/julianstephens/dcalt/internal/constants"
	"github.com/julianstephens/dcalt/internal/logger"
)

// DiskvSurface keeps one file per key in a directory shared by every process
// of the installation.
type DiskvSurface struct {
	d        *diskv.Diskv
	basePath string
}

var _ Surface = (*DiskvSurface)(nil)

func NewDiskvSurface(basePath string) *DiskvSurface {
	return &DiskvSurface{
		d: diskv.New(diskv.Options{
			BasePath:          basePath,
			AdvancedTransform: flatTransform,
			InverseTransform:  func(pk *diskv.PathKey) string { return pk.FileName },
			CacheSizeMax:      constants.SurfaceCacheSizeMax,
			TempDir:           basePath + ".tmp",
		}),
		basePath: basePath,
	}
}

func flatTransform(key string) *diskv.PathKey {
	return &diskv.PathKey{Path: []string{}, FileName: key}
}

// BasePath returns the shared directory.
func (s *DiskvSurface) BasePath() string {
	return s.basePath
}

func (s *DiskvSurface) Write(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.d.Write(key, []byte(value))
}

// Read always goes to disk so values written by other processes are seen.
func (s *DiskvSurface) Read(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	rc, err := s.d.ReadStream(key, true)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read surface key %s: %w", key, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", false, fmt.Errorf("failed to read surface key %s: %w", key, err)
	}
	return string(data), true, nil
}

// Watch emits once per burst of writes to the surface until ctx is done.
// Bursts are folded together over window.
func (s *DiskvSurface) Watch(ctx context.Context, window time.Duration) (<-chan struct{}, error) {
	if err := os.MkdirAll(s.basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create surface directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create surface watcher: %w", err)
	}
	if err := watcher.Add(filepath.Clean(s.basePath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", s.basePath, err)
	}

	changes := make(chan struct{}, 1)

	go func() {
		defer close(changes)
		defer watcher.Close()

		var flush <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case <-flush:
				flush = nil
				select {
				case changes <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Debug("Surface watcher error", "error", err)
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 && flush == nil {
					flush = time.After(window)
				}
			}
		}
	}()

	return changes, nil
}
