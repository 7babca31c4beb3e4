package overlay

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/park285/cheese-overlay/internal/domain"
)

func newObserved() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

// startLoop runs l on a background goroutine for the duration of the test.
func startLoop(t *testing.T, l *Loop) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errc:
			if err != nil {
				t.Errorf("Run: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Errorf("loop did not stop")
		}
	})
}

// flush waits until every task posted before it has run.
func flush(t *testing.T, l *Loop) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.Do(ctx, func(*Owner) error { return nil }); err != nil {
		t.Fatalf("flush: %v", err)
	}
}

func onLoop(t *testing.T, l *Loop, fn func(o *Owner) error) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return l.Do(ctx, fn)
}

func mustUpdate(t *testing.T, label domain.MoveQuality, best string, opts ...domain.MoveOption) domain.MoveUpdate {
	t.Helper()
	u, err := domain.NewMoveUpdate(label, best, opts...)
	if err != nil {
		t.Fatalf("NewMoveUpdate: %v", err)
	}
	return u
}

type recordingRenderer struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (r *recordingRenderer) Render(u domain.MoveUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf("render:%s:%s", u.Label(), u.BestMove()))
	return r.err
}

func (r *recordingRenderer) Hide() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "hide")
	return nil
}

func (r *recordingRenderer) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recordingRenderer) count(prefix string) int {
	n := 0
	for _, e := range r.Events() {
		if len(e) >= len(prefix) && e[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

// fakeClock drives AfterFunc timers by hand.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) func() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	ft := &fakeTimer{at: c.now + d, f: f}
	c.timers = append(c.timers, ft)
	return func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		if ft.fired || ft.stopped {
			return false
		}
		ft.stopped = true
		return true
	}
}

// Advance moves time forward and fires due timers in deadline order.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	for _, ft := range c.timers {
		if !ft.fired && !ft.stopped && ft.at <= c.now {
			ft.fired = true
			due = append(due, ft)
		}
	}
	c.mu.Unlock()
	sort.Slice(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, ft := range due {
		ft.f()
	}
}

func (c *fakeClock) Armed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (c *fakeClock) timer(i int) *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timers[i]
}

var errTest = fmt.Errorf("sink failed")

func mustUpdateNoT(label domain.MoveQuality, best string) domain.MoveUpdate {
	u, _ := domain.NewMoveUpdate(label, best)
	return u
}
