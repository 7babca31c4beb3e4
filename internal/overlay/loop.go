package overlay

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/park285/cheese-overlay/internal/obslog"
)

// Task runs on the ui loop. The Owner is valid only for the duration of the call.
type Task func(o *Owner)

// Owner proves that code is running inside a Loop task. Widget-owning state
// (renderers, the auto-hide state machine, placement) is touched only while
// holding a valid Owner.
type Owner struct {
	loop  *Loop
	valid atomic.Bool
}

func (o *Owner) Valid() bool { return o != nil && o.valid.Load() }

func (o *Owner) Loop() *Loop {
	if o == nil {
		return nil
	}
	return o.loop
}

// Post schedules a follow-up task on the same loop.
func (o *Owner) Post(task Task) error {
	if o == nil || o.loop == nil {
		return ErrLoopClosed
	}
	return o.loop.Post(task)
}

// Loop is the single owner of all ui state. Any goroutine may Post; only the
// goroutine inside Run executes tasks, in FIFO order.
type Loop struct {
	mu      sync.Mutex
	queue   []Task
	closed  bool
	wake    chan struct{}
	done    chan struct{}
	running atomic.Bool
	logger  *zap.Logger
}

type LoopOption func(*Loop)

func WithLoopLogger(l *zap.Logger) LoopOption {
	return func(lp *Loop) {
		if l != nil {
			lp.logger = l
		}
	}
}

func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: obslog.L(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Post never blocks on task execution.
func (l *Loop) Post(task Task) error {
	if task == nil {
		return nil
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrLoopClosed
	}
	l.queue = append(l.queue, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// Pending reports queued, not yet started tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Close stops accepting tasks. Run drains what is already queued and returns.
func (l *Loop) Close() {
	l.mu.Lock()
	already := l.closed
	l.closed = true
	l.mu.Unlock()
	if already {
		return
	}
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Run executes tasks on the calling goroutine until ctx is cancelled or Close
// is called. Queued tasks are dropped on cancellation.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer close(l.done)

	for {
		batch, closed := l.take()
		for i, task := range batch {
			if ctx.Err() != nil {
				l.discard(len(batch) - i)
				return nil
			}
			l.exec(task)
		}
		if len(batch) > 0 {
			continue
		}
		if closed {
			return nil
		}
		select {
		case <-ctx.Done():
			l.mu.Lock()
			l.closed = true
			n := len(l.queue)
			l.queue = nil
			l.mu.Unlock()
			if n > 0 {
				l.logger.Warn("loop_tasks_dropped", zap.Int("count", n))
			}
			return nil
		case <-l.wake:
		}
	}
}

// Do runs fn on the loop and waits for it. Calling Do from a task deadlocks
// until ctx ends; use Owner.Post there.
func (l *Loop) Do(ctx context.Context, fn func(o *Owner) error) error {
	res := make(chan error, 1)
	if err := l.Post(func(o *Owner) { res <- fn(o) }); err != nil {
		return err
	}
	select {
	case err := <-res:
		return err
	case <-l.done:
		select {
		case err := <-res:
			return err
		default:
			return ErrLoopClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) take() ([]Task, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	batch := l.queue
	l.queue = nil
	return batch, l.closed
}

func (l *Loop) discard(n int) {
	l.mu.Lock()
	l.closed = true
	n += len(l.queue)
	l.queue = nil
	l.mu.Unlock()
	l.logger.Warn("loop_tasks_dropped", zap.Int("count", n))
}

func (l *Loop) exec(task Task) {
	o := &Owner{loop: l}
	o.valid.Store(true)
	defer func() {
		o.valid.Store(false)
		if r := recover(); r != nil {
			l.logger.Error("loop_task_panic", zap.String("panic", fmt.Sprint(r)))
		}
	}()
	task(o)
}
