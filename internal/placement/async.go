package placement

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-overlay/internal/domain"
	"github.com/park285/cheese-overlay/internal/obslog"
)

var ErrStoreClosed = errors.New("placement store closed")

// AsyncStore writes positions to store on a background goroutine so a drag
// release never blocks the ui loop. Only the latest pending position is kept.
type AsyncStore struct {
	store   Store
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	pending domain.OverlayPosition
	dirty   bool
	closed  bool
	waiters []chan struct{}
	wake    chan struct{}
	done    chan struct{}
}

type AsyncOption func(*AsyncStore)

func WithSaveTimeout(d time.Duration) AsyncOption {
	return func(s *AsyncStore) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithAsyncLogger(l *zap.Logger) AsyncOption {
	return func(s *AsyncStore) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewAsyncStore(store Store, opts ...AsyncOption) *AsyncStore {
	s := &AsyncStore{
		store:   store,
		timeout: 2 * time.Second,
		logger:  obslog.L().Named("placement"),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.writeLoop()
	return s
}

// Load reads through to the wrapped store.
func (s *AsyncStore) Load(ctx context.Context) (domain.OverlayPosition, bool, error) {
	return s.store.Load(ctx)
}

// Save queues p and returns at once. Write errors are logged.
func (s *AsyncStore) Save(_ context.Context, p domain.OverlayPosition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	s.pending, s.dirty = p, true
	s.signalLocked()
	return nil
}

// Flush waits until every position queued before the call has been written.
func (s *AsyncStore) Flush(ctx context.Context) error {
	w := make(chan struct{})
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		select {
		case <-s.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.waiters = append(s.waiters, w)
	s.signalLocked()
	s.mu.Unlock()
	select {
	case <-w:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close writes the last queued position and stops the writer.
func (s *AsyncStore) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.wake)
	}
	s.mu.Unlock()
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *AsyncStore) signalLocked() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *AsyncStore) writeLoop() {
	defer close(s.done)
	for range s.wake {
		for s.drain() {
		}
	}
	for s.drain() {
	}
}

// drain writes one pending position and releases the waiters queued with it.
func (s *AsyncStore) drain() bool {
	s.mu.Lock()
	p, dirty := s.pending, s.dirty
	s.dirty = false
	waiters := s.waiters
	s.waiters = nil
	s.mu.Unlock()

	if dirty {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		err := s.store.Save(ctx, p)
		cancel()
		if err != nil {
			s.logger.Warn("position_save_failed", zap.Int("x", p.X), zap.Int("y", p.Y), zap.Error(err))
		} else {
			s.logger.Debug("position_written", zap.Int("x", p.X), zap.Int("y", p.Y))
		}
	}
	for _, w := range waiters {
		close(w)
	}
	return dirty || len(waiters) > 0
}
