package overlay

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/park285/cheese-overlay/internal/domain"
	"github.com/park285/cheese-overlay/internal/obslog"
)

// LabelFilter reports whether a label should be shown at all.
type LabelFilter func(domain.MoveQuality) bool

// Dispatcher hands MoveUpdates from producer goroutines to the bound Renderer
// on the ui loop. The mutex covers the bind transition and the enqueue, never
// the render call itself.
type Dispatcher struct {
	loop   *Loop
	logger *zap.Logger

	mu       sync.Mutex
	bound    bool
	renderer Renderer
	filter   LabelFilter

	queued   atomic.Uint64
	dropped  atomic.Uint64
	filtered atomic.Uint64
}

type DispatcherOption func(*Dispatcher)

func WithDispatcherLogger(l *zap.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

func WithLabelFilter(f LabelFilter) DispatcherOption {
	return func(d *Dispatcher) { d.filter = f }
}

func NewDispatcher(loop *Loop, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{loop: loop, logger: obslog.L()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Loop() *Loop { return d.loop }

// Bind attaches r. It must be called from a task on the dispatcher's loop.
// A second Bind keeps the first renderer and creates no extra delivery path.
func (d *Dispatcher) Bind(o *Owner, r Renderer) error {
	if r == nil {
		return ErrNilRenderer
	}
	if !o.Valid() || o.Loop() != d.loop {
		d.logger.Error("dispatcher_bind_off_loop", zap.Error(ErrWrongThreadBind))
		return ErrWrongThreadBind
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.bound {
		d.logger.Debug("dispatcher_already_bound")
		return nil
	}
	d.renderer = r
	d.bound = true
	d.logger.Info("dispatcher_bound")
	return nil
}

func (d *Dispatcher) Bound() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bound
}

// SetLabelFilter replaces the label filter; nil shows every label.
func (d *Dispatcher) SetLabelFilter(f LabelFilter) {
	d.mu.Lock()
	d.filter = f
	d.mu.Unlock()
}

// Dispatch is safe from any goroutine and returns once the update is queued.
// Updates before Bind, for disabled labels, or after the loop closed are
// dropped and logged.
func (d *Dispatcher) Dispatch(u domain.MoveUpdate) {
	if u.IsZero() {
		d.dropped.Add(1)
		d.logger.Warn("dispatch_dropped_invalid", zap.Error(domain.ErrInvalidLabel))
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.bound {
		d.dropped.Add(1)
		d.logger.Warn("dispatch_dropped_not_bound", zap.Error(ErrNotBound), zap.Stringer("update", u))
		return
	}
	if d.filter != nil && !d.filter(u.Label()) {
		d.filtered.Add(1)
		d.logger.Debug("dispatch_label_disabled", zap.String("label", u.Label().String()))
		return
	}

	r := d.renderer
	err := d.loop.Post(func(*Owner) {
		if err := r.Render(u); err != nil {
			d.logger.Warn("render_failed", zap.Error(err), zap.String("label", u.Label().String()))
		}
	})
	if err != nil {
		d.dropped.Add(1)
		d.logger.Warn("dispatch_dropped_loop_closed", zap.Error(err))
		return
	}
	d.queued.Add(1)
}

// DispatchStats counts what happened to dispatched updates.
type DispatchStats struct {
	Queued   uint64
	Dropped  uint64
	Filtered uint64
}

func (d *Dispatcher) Stats() DispatchStats {
	return DispatchStats{
		Queued:   d.queued.Load(),
		Dropped:  d.dropped.Load(),
		Filtered: d.filtered.Load(),
	}
}
