package overlay

import (
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-overlay/internal/obslog"
)

type Visibility int

const (
	Hidden Visibility = iota
	Visible
	PendingHide
)

func (v Visibility) String() string {
	switch v {
	case Hidden:
		return "hidden"
	case Visible:
		return "visible"
	case PendingHide:
		return "pending_hide"
	default:
		return "unknown"
	}
}

// AfterFunc arms a single-shot timer. stop reports whether the timer was
// stopped before firing, like time.Timer.Stop.
type AfterFunc func(d time.Duration, f func()) (stop func() bool)

func realAfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// AutoHide hides the overlay a fixed delay after the latest render.
// Every method except the timer callback runs on the ui loop, so the state
// needs no lock. Timer expiry is posted back to the loop and compared against
// the generation that armed it; a render in between makes it stale.
type AutoHide struct {
	loop   *Loop
	delay  time.Duration
	after  AfterFunc
	hide   func() error
	logger *zap.Logger

	state Visibility
	gen   uint64
	stop  func() bool
}

type AutoHideOption func(*AutoHide)

func WithAfterFunc(f AfterFunc) AutoHideOption {
	return func(a *AutoHide) {
		if f != nil {
			a.after = f
		}
	}
}

func WithAutoHideLogger(l *zap.Logger) AutoHideOption {
	return func(a *AutoHide) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAutoHide; delay <= 0 disables hiding.
func NewAutoHide(loop *Loop, delay time.Duration, hide func() error, opts ...AutoHideOption) *AutoHide {
	if delay < 0 {
		delay = 0
	}
	a := &AutoHide{
		loop:   loop,
		delay:  delay,
		after:  realAfterFunc,
		hide:   hide,
		logger: obslog.L(),
		state:  Hidden,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *AutoHide) State() Visibility     { return a.state }
func (a *AutoHide) Delay() time.Duration { return a.delay }

// Generation increases with every cancel; tests use it to spot stale fires.
func (a *AutoHide) Generation() uint64 { return a.gen }

// Cancel stops the pending timer, if any, and invalidates in-flight fires.
func (a *AutoHide) Cancel() {
	a.gen++
	if a.stop != nil {
		a.stop()
		a.stop = nil
	}
	if a.state == PendingHide {
		a.state = Visible
	}
}

// Rearm marks the overlay shown and starts the countdown for the current
// generation. Call after Cancel and the render.
func (a *AutoHide) Rearm() {
	if a.delay == 0 {
		a.state = Visible
		return
	}
	gen := a.gen
	a.state = PendingHide
	a.stop = a.after(a.delay, func() {
		if err := a.loop.Post(func(*Owner) { a.expire(gen) }); err != nil {
			a.logger.Debug("autohide_fire_dropped", zap.Error(err))
		}
	})
}

// MarkHidden records an explicit hide.
func (a *AutoHide) MarkHidden() {
	a.Cancel()
	a.state = Hidden
}

func (a *AutoHide) expire(gen uint64) {
	if gen != a.gen || a.state != PendingHide {
		a.logger.Debug("autohide_stale_fire", zap.Uint64("gen", gen), zap.Uint64("current", a.gen))
		return
	}
	a.stop = nil
	a.state = Hidden
	a.logger.Debug("autohide_fired", zap.Uint64("gen", gen), zap.Duration("delay", a.delay))
	if a.hide == nil {
		return
	}
	if err := a.hide(); err != nil {
		a.logger.Warn("hide_failed", zap.Error(err))
	}
}
