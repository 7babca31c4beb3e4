package relay

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-overlay/internal/domain"
	"github.com/park285/cheese-overlay/internal/obslog"
	"github.com/park285/cheese-overlay/internal/render"
	"github.com/park285/cheese-overlay/pkg/overlaydto"
)

var (
	ErrQueueFull = errors.New("relay queue full")
	ErrClosed    = errors.New("relay renderer closed")
)

const defaultQueueSize = 64

// Renderer mirrors the overlay to a remote surface. Render and Hide only
// enqueue; a background sender does the network I/O off the ui loop.
type Renderer struct {
	egress Egress
	room   string
	origin string
	views  *render.ViewBuilder
	logger *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	closed bool
	seq    uint64
	frames chan *overlaydto.Frame
	done   chan struct{}
}

type RendererOption func(*Renderer)

func WithQueueSize(n int) RendererOption {
	return func(r *Renderer) {
		if n > 0 {
			r.frames = make(chan *overlaydto.Frame, n)
		}
	}
}

func WithRendererLogger(l *zap.Logger) RendererOption {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithOrigin overrides the origin stamped on every frame (default Origin()).
func WithOrigin(id string) RendererOption {
	return func(r *Renderer) {
		if id != "" {
			r.origin = id
		}
	}
}

// WithViews adds localised caption and colour to each frame.
func WithViews(v *render.ViewBuilder) RendererOption {
	return func(r *Renderer) { r.views = v }
}

func NewRenderer(egress Egress, room string, opts ...RendererOption) *Renderer {
	r := &Renderer{
		egress: egress,
		room:   room,
		origin: Origin(),
		logger: obslog.L().Named("relay"),
		now:    time.Now,
		frames: make(chan *overlaydto.Frame, defaultQueueSize),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	go r.sendLoop()
	return r
}

func (r *Renderer) Render(u domain.MoveUpdate) error {
	dto := ToDTO(u)
	if r.views != nil {
		v := r.views.Build(u)
		dto.Caption, dto.Color = v.Caption, v.Color
	}
	return r.enqueue(&overlaydto.Frame{Type: overlaydto.FrameRender, Update: &dto})
}

func (r *Renderer) Hide() error {
	return r.enqueue(&overlaydto.Frame{Type: overlaydto.FrameHide})
}

// Move sends the overlay's new position to the remote surface.
func (r *Renderer) Move(p domain.OverlayPosition) error {
	return r.enqueue(&overlaydto.Frame{Type: overlaydto.FramePosition, Position: &overlaydto.Position{X: p.X, Y: p.Y}})
}

func (r *Renderer) enqueue(f *overlaydto.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	r.seq++
	f.Seq = r.seq
	f.Room = r.room
	f.Origin = r.origin
	f.SentAt = r.now().UTC()
	select {
	case r.frames <- f:
		return nil
	default:
		r.logger.Warn("relay_frame_dropped", zap.String("type", f.Type), zap.Uint64("seq", f.Seq))
		return ErrQueueFull
	}
}

func (r *Renderer) sendLoop() {
	defer close(r.done)
	for f := range r.frames {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := r.egress.Send(ctx, f)
		cancel()
		if err != nil {
			r.logger.Warn("relay_send_failed", zap.String("type", f.Type), zap.Uint64("seq", f.Seq), zap.Error(err))
			continue
		}
		r.logger.Debug("relay_frame_sent", zap.String("type", f.Type), zap.Uint64("seq", f.Seq))
	}
}

// Close stops accepting frames and waits for queued ones to be sent.
func (r *Renderer) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.frames)
	}
	r.mu.Unlock()
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ToDTO converts an update to its wire form.
func ToDTO(u domain.MoveUpdate) overlaydto.Update {
	d := overlaydto.Update{Label: u.Label().String(), BestMove: u.BestMove()}
	if opp, ok := u.OpponentMove(); ok {
		d.OpponentMove = opp
	}
	if cp, ok := u.EvaluationCP(); ok {
		d.EvaluationCP = &cp
	}
	if depth, ok := u.Depth(); ok {
		d.Depth = &depth
	}
	return d
}

// FromDTO rebuilds an update received from a relay peer.
func FromDTO(d overlaydto.Update) (domain.MoveUpdate, error) {
	var opts []domain.MoveOption
	if d.OpponentMove != "" {
		opts = append(opts, domain.WithOpponentMove(d.OpponentMove))
	}
	if d.EvaluationCP != nil {
		opts = append(opts, domain.WithEvaluation(*d.EvaluationCP))
	}
	if d.Depth != nil {
		opts = append(opts, domain.WithDepth(*d.Depth))
	}
	return domain.ParseMoveUpdate(d.Label, d.BestMove, opts...)
}
