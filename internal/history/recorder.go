package history

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/cheese-overlay/internal/domain"
	"github.com/park285/cheese-overlay/internal/obslog"
)

var ErrRecorderClosed = errors.New("history recorder closed")

// Recorder is an overlay renderer that stores each rendered update. Inserts
// run on a background goroutine so the ui loop never waits on the database.
type Recorder struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	session string
	ply     int
	closed  bool
	queue   chan domain.Annotation
	done    chan struct{}
}

type RecorderOption func(*Recorder)

func WithBuffer(n int) RecorderOption {
	return func(r *Recorder) {
		if n > 0 {
			r.queue = make(chan domain.Annotation, n)
		}
	}
}

func WithRecorderLogger(l *zap.Logger) RecorderOption {
	return func(r *Recorder) {
		if l != nil {
			r.logger = l
		}
	}
}

func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) { r.now = now }
}

func NewRecorder(repo Repository, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		repo:    repo,
		logger:  obslog.L().Named("history"),
		now:     time.Now,
		session: uuid.NewString(),
		queue:   make(chan domain.Annotation, 64),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	go r.writeLoop()
	return r
}

// Session is the uuid rows are currently recorded under.
func (r *Recorder) Session() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session
}

// NewSession starts a fresh session at ply 0 and returns its id.
func (r *Recorder) NewSession() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session = uuid.NewString()
	r.ply = 0
	return r.session
}

func (r *Recorder) Render(u domain.MoveUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRecorderClosed
	}
	r.ply++
	a := domain.AnnotationFromUpdate(r.session, r.ply, u, r.now().UTC())
	select {
	case r.queue <- a:
		return nil
	default:
		r.logger.Warn("history_dropped", zap.String("session", a.SessionUUID), zap.Int("ply", a.Ply))
		return nil
	}
}

func (r *Recorder) Hide() error { return nil }

func (r *Recorder) writeLoop() {
	defer close(r.done)
	for a := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, err := r.repo.InsertAnnotation(ctx, &a)
		cancel()
		if err != nil {
			r.logger.Warn("history_insert_failed", zap.String("session", a.SessionUUID), zap.Int("ply", a.Ply), zap.Error(err))
		}
	}
}

// Close flushes queued rows.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
