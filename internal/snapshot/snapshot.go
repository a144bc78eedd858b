// Package snapshot publishes the day's target and current calorie totals to a
// surface shared with widget processes.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/julianstephens/dcalt/internal/constants"
	"github.com/julianstephens/dcalt/internal/logger"
)

// ErrMalformedValue is returned by Read when a surface key holds something
// other than an integer.
var ErrMalformedValue = errors.New("malformed surface value")

// Snapshot is what a widget renders.
type Snapshot struct {
	Target  int
	Current int
	Accent  string
}

// Remaining is target minus current and goes negative once the target is
// exceeded.
func (s Snapshot) Remaining() int {
	return s.Target - s.Current
}

// Percent is current over target, not clamped above 1. A non-positive target
// yields 0.
func (s Snapshot) Percent() float64 {
	if s.Target <= 0 {
		return 0
	}
	return float64(s.Current) / float64(s.Target)
}

// Surface is a last-write-wins key/value area readable by other processes.
type Surface interface {
	Write(ctx context.Context, key, value string) error
	// Read reports ok=false for keys never written.
	Read(ctx context.Context, key string) (value string, ok bool, err error)
}

// Reloader asks widget hosts to re-render.
type Reloader interface {
	Reload(ctx context.Context) error
}

type Publisher struct {
	surface  Surface
	reloader Reloader
}

// NewPublisher writes to surface and, when reloader is non-nil, signals it
// on publishes that request a reload.
func NewPublisher(surface Surface, reloader Reloader) *Publisher {
	return &Publisher{surface: surface, reloader: reloader}
}

// Publish stores snap on the surface. The reload signal is best effort: its
// failures are logged and never returned.
func (p *Publisher) Publish(ctx context.Context, snap Snapshot, reload bool) error {
	fields := []struct {
		key   string
		value string
	}{
		{constants.SurfaceKeyTarget, strconv.Itoa(snap.Target)},
		{constants.SurfaceKeyCurrent, strconv.Itoa(snap.Current)},
		{constants.SurfaceKeyAccent, snap.Accent},
	}
	for _, f := range fields {
		if err := p.surface.Write(ctx, f.key, f.value); err != nil {
			return fmt.Errorf("failed to publish %s: %w", f.key, err)
		}
	}

	logger.Debug("Published snapshot", "target", snap.Target, "current", snap.Current)

	if reload && p.reloader != nil {
		if err := p.reloader.Reload(ctx); err != nil {
			logger.Debug("Widget reload not delivered", "error", err)
		}
	}
	return nil
}

// Read loads a snapshot from surface. Absent keys read as zero.
func Read(ctx context.Context, surface Surface) (Snapshot, error) {
	target, err := readInt(ctx, surface, constants.SurfaceKeyTarget)
	if err != nil {
		return Snapshot{}, err
	}
	current, err := readInt(ctx, surface, constants.SurfaceKeyCurrent)
	if err != nil {
		return Snapshot{}, err
	}
	accent, _, err := surface.Read(ctx, constants.SurfaceKeyAccent)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Target: target, Current: current, Accent: accent}, nil
}

func readInt(ctx context.Context, surface Surface, key string) (int, error) {
	raw, ok, err := surface.Read(ctx, key)
	if err != nil {
		return 0, err
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrMalformedValue, key, raw)
	}
	return n, nil
}
