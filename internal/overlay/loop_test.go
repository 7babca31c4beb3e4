package overlay

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLoopRunsTasksInOrder(t *testing.T) {
	l := NewLoop()
	var got []int
	for i := 0; i < 5; i++ {
		i := i
		if err := l.Post(func(*Owner) { got = append(got, i) }); err != nil {
			t.Fatalf("Post: %v", err)
		}
	}
	if l.Pending() != 5 {
		t.Fatalf("expected 5 pending, got %d", l.Pending())
	}
	startLoop(t, l)
	flush(t, l)
	for i, v := range got {
		if v != i {
			t.Fatalf("order broken: %v", got)
		}
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 tasks, got %d", len(got))
	}
}

func TestLoopSecondRunRejected(t *testing.T) {
	l := NewLoop()
	startLoop(t, l)
	flush(t, l)
	if err := l.Run(context.Background()); !errors.Is(err, ErrLoopRunning) {
		t.Fatalf("expected ErrLoopRunning, got %v", err)
	}
}

func TestLoopCloseDrainsThenStops(t *testing.T) {
	l := NewLoop()
	ran := 0
	_ = l.Post(func(*Owner) { ran++ })
	_ = l.Post(func(*Owner) { ran++ })
	l.Close()
	if err := l.Post(func(*Owner) { ran++ }); !errors.Is(err, ErrLoopClosed) {
		t.Fatalf("expected ErrLoopClosed, got %v", err)
	}
	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ran != 2 {
		t.Fatalf("expected queued tasks to drain, ran=%d", ran)
	}
	select {
	case <-l.Done():
	default:
		t.Fatalf("Done not closed after Run")
	}
}

func TestLoopCancelReturnsNil(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()
	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
	if err := l.Post(func(*Owner) {}); !errors.Is(err, ErrLoopClosed) {
		t.Fatalf("expected ErrLoopClosed after cancel, got %v", err)
	}
}

func TestLoopRecoversTaskPanic(t *testing.T) {
	logger, logs := newObserved()
	l := NewLoop(WithLoopLogger(logger))
	startLoop(t, l)
	_ = l.Post(func(*Owner) { panic("boom") })
	ok := false
	_ = l.Post(func(*Owner) { ok = true })
	flush(t, l)
	if !ok {
		t.Fatalf("loop stopped after panic")
	}
	if logs.FilterMessage("loop_task_panic").Len() != 1 {
		t.Fatalf("expected one panic log, got %d", logs.FilterMessage("loop_task_panic").Len())
	}
}

func TestOwnerValidOnlyInsideTask(t *testing.T) {
	l := NewLoop()
	startLoop(t, l)
	var kept *Owner
	err := onLoop(t, l, func(o *Owner) error {
		if !o.Valid() || o.Loop() != l {
			t.Errorf("owner should be valid inside task")
		}
		kept = o
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if kept.Valid() {
		t.Fatalf("owner must expire with its task")
	}
	var nilOwner *Owner
	if nilOwner.Valid() || nilOwner.Loop() != nil {
		t.Fatalf("nil owner must be invalid")
	}
}

func TestDoReturnsTaskError(t *testing.T) {
	l := NewLoop()
	startLoop(t, l)
	want := errors.New("nope")
	if err := onLoop(t, l, func(*Owner) error { return want }); !errors.Is(err, want) {
		t.Fatalf("expected task error, got %v", err)
	}
}
