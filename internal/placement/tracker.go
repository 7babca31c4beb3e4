package placement

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-overlay/internal/domain"
	"github.com/park285/cheese-overlay/internal/obslog"
)

const (
	PhasePress   = "press"
	PhaseMove    = "move"
	PhaseRelease = "release"
)

// Tracker follows drag gestures. It is not safe for concurrent use; call it
// from the ui loop, which is also where the window move is applied.
type Tracker struct {
	pos      domain.OverlayPosition
	dragging bool
	offX     int
	offY     int
	locked   bool

	store       Store
	apply       func(domain.OverlayPosition)
	saveTimeout time.Duration
	logger      *zap.Logger
}

type Option func(*Tracker)

// WithApply is called with every new position (move the window, redraw).
func WithApply(f func(domain.OverlayPosition)) Option {
	return func(t *Tracker) { t.apply = f }
}

func WithLocked(locked bool) Option { return func(t *Tracker) { t.locked = locked } }

func WithLogger(l *zap.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

func NewTracker(start domain.OverlayPosition, store Store, opts ...Option) *Tracker {
	t := &Tracker{
		pos:         start,
		store:       store,
		apply:       func(domain.OverlayPosition) {},
		saveTimeout: 2 * time.Second,
		logger:      obslog.L().Named("placement"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) Position() domain.OverlayPosition { return t.pos }
func (t *Tracker) Dragging() bool                   { return t.dragging }
func (t *Tracker) Locked() bool                     { return t.locked }

// SetLocked ends any drag in progress without saving.
func (t *Tracker) SetLocked(locked bool) {
	t.locked = locked
	if locked {
		t.dragging = false
	}
}

// Press starts a drag at screen point (x, y). Ignored while locked.
func (t *Tracker) Press(x, y int) bool {
	if t.locked {
		return false
	}
	t.dragging = true
	t.offX, t.offY = x-t.pos.X, y-t.pos.Y
	return true
}

func (t *Tracker) Move(x, y int) {
	if !t.dragging {
		return
	}
	t.set(domain.OverlayPosition{X: x - t.offX, Y: y - t.offY})
}

// Release finishes the drag and persists the final position.
func (t *Tracker) Release(x, y int) error {
	if !t.dragging {
		return nil
	}
	t.Move(x, y)
	t.dragging = false
	return t.save()
}

// Apply dispatches a gesture phase (press, move, release).
func (t *Tracker) Apply(phase string, x, y int) error {
	switch phase {
	case PhasePress:
		t.Press(x, y)
	case PhaseMove:
		t.Move(x, y)
	case PhaseRelease:
		return t.Release(x, y)
	default:
		return fmt.Errorf("unknown drag phase %q", phase)
	}
	return nil
}

// Restore loads the saved position once at startup.
func (t *Tracker) Restore(ctx context.Context) error {
	if t.store == nil {
		return nil
	}
	p, ok, err := t.store.Load(ctx)
	if err != nil {
		return err
	}
	if ok {
		t.set(p)
		t.logger.Info("position_restored", zap.Int("x", p.X), zap.Int("y", p.Y))
	}
	return nil
}

// ResetToCenter centres a w x h overlay on a screen of sw x sh and saves it.
func (t *Tracker) ResetToCenter(sw, sh, w, h int) error {
	t.dragging = false
	t.set(domain.OverlayPosition{X: (sw - w) / 2, Y: (sh - h) / 2})
	return t.save()
}

func (t *Tracker) set(p domain.OverlayPosition) {
	t.pos = p
	t.apply(p)
}

func (t *Tracker) save() error {
	if t.store == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), t.saveTimeout)
	defer cancel()
	if err := t.store.Save(ctx, t.pos); err != nil {
		t.logger.Warn("position_save_failed", zap.Error(err))
		return err
	}
	t.logger.Debug("position_saved", zap.Int("x", t.pos.X), zap.Int("y", t.pos.Y))
	return nil
}
