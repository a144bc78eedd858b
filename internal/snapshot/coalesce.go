package snapshot

import (
	"context"
	"sync"
	"time"

	"github.com/julianstephens/dcalt/internal/constants"
	"github.com/julianstephens/dcalt/internal/logger"
)

// Coalescer folds reload requests arriving within one window into a single
// signal sent at the end of the window.
type Coalescer struct {
	next    Reloader
	window  time.Duration
	timeout time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	wg      sync.WaitGroup
}

var _ Reloader = (*Coalescer)(nil)

func NewCoalescer(next Reloader, window time.Duration) *Coalescer {
	return &Coalescer{
		next:    next,
		window:  window,
		timeout: constants.ReloadRequestTimeout,
	}
}

// Reload schedules a signal and returns immediately. It never fails.
func (c *Coalescer) Reload(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending {
		return nil
	}
	c.pending = true
	c.wg.Add(1)
	c.timer = time.AfterFunc(c.window, func() {
		defer c.wg.Done()
		c.fire()
	})
	return nil
}

func (c *Coalescer) fire() {
	c.mu.Lock()
	if !c.pending {
		c.mu.Unlock()
		return
	}
	c.pending = false
	c.timer = nil
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if err := c.next.Reload(ctx); err != nil {
		logger.Debug("Reload signal failed", "error", err)
	}
}

// Flush sends any pending signal now and waits for in-flight signals.
func (c *Coalescer) Flush() {
	c.mu.Lock()
	stopped := c.timer != nil && c.timer.Stop()
	c.mu.Unlock()

	if stopped {
		c.fire()
		c.wg.Done()
	}
	c.wg.Wait()
}
