package widget

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/dcalt/internal/constants"
	"github.com/julianstephens/dcalt/internal/logger"
	"github.com/julianstephens/dcalt/internal/notifier"
	"github.com/julianstephens/dcalt/internal/snapshot"
)

// Host re-renders the snapshot whenever it is asked to over the webhook,
// whenever the surface changes on disk, and on a fixed cadence.
type Host struct {
	surface  *snapshot.DiskvSurface
	out      io.Writer
	Interval time.Duration
	Window   time.Duration

	secret   string
	requests chan struct{}
	mu       sync.Mutex
}

func NewHost(surface *snapshot.DiskvSurface, out io.Writer) *Host {
	return &Host{
		surface:  surface,
		out:      out,
		Interval: constants.WidgetRefreshInterval,
		Window:   constants.ReloadCoalesceWindow,
		secret:   uuid.New().String(),
		requests: make(chan struct{}, 1),
	}
}

// Draw renders the current surface contents once.
func (h *Host) Draw(ctx context.Context) error {
	snap, err := snapshot.Read(ctx, h.surface)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = fmt.Fprintln(h.out, Render(snap))
	return err
}

func (h *Host) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /reload", func(w http.ResponseWriter, r *http.Request) {
		if subtle.ConstantTimeCompare([]byte(r.Header.Get(constants.WidgetSecretHeader)), []byte(h.secret)) != 1 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		select {
		case h.requests <- struct{}{}:
		default:
		}
		w.WriteHeader(http.StatusAccepted)
	})
	return mux
}

// Serve advertises the host in the surface directory's lockfile and renders
// until ctx is cancelled.
func (h *Host) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to listen for reloads: %w", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	pid := os.Getpid()

	dir := h.surface.BasePath()
	if err := notifier.WriteLockfile(dir, port, pid, h.secret); err != nil {
		listener.Close()
		return err
	}
	defer func() {
		if err := notifier.RemoveLockfile(dir, pid); err != nil {
			logger.Warn("Failed to remove widget lockfile", "error", err)
		}
	}()

	server := &http.Server{Handler: h.handler(), ReadHeaderTimeout: constants.ReloadRequestTimeout}
	serveErr := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ReloadRequestTimeout)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	changes, err := h.surface.Watch(ctx, h.Window)
	if err != nil {
		logger.Warn("Surface watch unavailable, relying on reloads", "error", err)
		changes = nil
	}

	logger.Info("Widget host listening", "port", port, "pid", pid)

	if err := h.Draw(ctx); err != nil {
		logger.Warn("Failed to render widget", "error", err)
	}

	ticker := time.NewTicker(h.Interval)
	defer ticker.Stop()

	var flush <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-serveErr:
			if ok {
				return fmt.Errorf("reload listener failed: %w", err)
			}
			serveErr = nil
		case <-h.requests:
			if flush == nil {
				flush = time.After(h.Window)
			}
		case _, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			if flush == nil {
				flush = time.After(h.Window)
			}
		case <-flush:
			flush = nil
			if err := h.Draw(ctx); err != nil {
				logger.Warn("Failed to render widget", "error", err)
			}
		case <-ticker.C:
			if err := h.Draw(ctx); err != nil {
				logger.Warn("Failed to render widget", "error", err)
			}
		}
	}
}
