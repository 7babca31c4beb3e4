package overlay

import (
	"time"

	"github.com/park285/cheese-overlay/internal/domain"
)

// Overlay is the Renderer bound to the dispatcher. It wraps the pixel sink
// with the auto-hide state machine: cancel pending hide, render, rearm.
type Overlay struct {
	sink     Renderer
	autohide *AutoHide
	last     domain.MoveUpdate
	renders  int
}

func NewOverlay(loop *Loop, sink Renderer, delay time.Duration, opts ...AutoHideOption) *Overlay {
	o := &Overlay{sink: sink}
	o.autohide = NewAutoHide(loop, delay, sink.Hide, opts...)
	return o
}

// Render rearms even when the sink fails, so a broken frame still hides.
func (o *Overlay) Render(u domain.MoveUpdate) error {
	o.autohide.Cancel()
	err := o.sink.Render(u)
	o.last = u
	o.renders++
	o.autohide.Rearm()
	return err
}

func (o *Overlay) Hide() error {
	o.autohide.MarkHidden()
	return o.sink.Hide()
}

func (o *Overlay) Visibility() Visibility { return o.autohide.State() }

func (o *Overlay) AutoHide() *AutoHide { return o.autohide }

// Last returns the most recently rendered update.
func (o *Overlay) Last() (domain.MoveUpdate, bool) { return o.last, !o.last.IsZero() }

func (o *Overlay) Renders() int { return o.renders }
