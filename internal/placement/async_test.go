package placement

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/park285/cheese-overlay/internal/domain"
)

// gatedStore blocks every Save until gate is closed.
type gatedStore struct {
	gate chan struct{}
	err  error

	mu    sync.Mutex
	saved []domain.OverlayPosition
}

func (g *gatedStore) Load(context.Context) (domain.OverlayPosition, bool, error) {
	return domain.OverlayPosition{X: 1, Y: 2}, true, nil
}

func (g *gatedStore) Save(_ context.Context, p domain.OverlayPosition) error {
	<-g.gate
	g.mu.Lock()
	defer g.mu.Unlock()
	g.saved = append(g.saved, p)
	return g.err
}

func (g *gatedStore) writes() []domain.OverlayPosition {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.OverlayPosition(nil), g.saved...)
}

func withTimeout(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestAsyncStoreReleaseDoesNotBlock(t *testing.T) {
	inner := &gatedStore{gate: make(chan struct{})}
	s := NewAsyncStore(inner)
	tr := NewTracker(domain.OverlayPosition{}, s)

	tr.Press(0, 0)
	returned := make(chan error, 1)
	go func() { returned <- tr.Release(40, 30) }()
	select {
	case err := <-returned:
		if err != nil {
			t.Fatalf("Release: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Release blocked on a slow store")
	}

	close(inner.gate)
	if err := s.Flush(withTimeout(t)); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if w := inner.writes(); len(w) != 1 || w[0] != (domain.OverlayPosition{X: 40, Y: 30}) {
		t.Fatalf("writes = %+v", w)
	}
	if err := s.Close(withTimeout(t)); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestAsyncStoreKeepsLatestAndFlushesOnClose(t *testing.T) {
	inner := &gatedStore{gate: make(chan struct{})}
	s := NewAsyncStore(inner)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		if err := s.Save(ctx, domain.OverlayPosition{X: i, Y: i}); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	close(inner.gate)
	if err := s.Close(withTimeout(t)); err != nil {
		t.Fatalf("Close: %v", err)
	}
	w := inner.writes()
	if len(w) == 0 || w[len(w)-1] != (domain.OverlayPosition{X: 5, Y: 5}) {
		t.Fatalf("last write = %+v", w)
	}
	if len(w) > 2 {
		t.Fatalf("pending positions not coalesced: %+v", w)
	}
	if err := s.Save(ctx, domain.OverlayPosition{}); !errors.Is(err, ErrStoreClosed) {
		t.Fatalf("save after close err = %v", err)
	}
}

func TestAsyncStoreLogsWriteFailure(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	gate := make(chan struct{})
	close(gate)
	s := NewAsyncStore(&gatedStore{gate: gate, err: errors.New("redis down")}, WithAsyncLogger(zap.New(core)))

	if err := s.Save(context.Background(), domain.OverlayPosition{X: 3}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Flush(withTimeout(t)); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if logs.FilterMessage("position_save_failed").Len() != 1 {
		t.Fatalf("failure not logged")
	}
	p, ok, err := s.Load(context.Background())
	if err != nil || !ok || p != (domain.OverlayPosition{X: 1, Y: 2}) {
		t.Fatalf("Load = %+v %v %v", p, ok, err)
	}
	_ = s.Close(withTimeout(t))
}
