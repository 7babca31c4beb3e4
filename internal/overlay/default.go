package overlay

import (
	"sync"

	"github.com/park285/cheese-overlay/internal/domain"
)

var (
	defaultMu         sync.Mutex
	defaultLoop       *Loop
	defaultDispatcher *Dispatcher
)

// DefaultLoop returns the process ui loop, creating it on first use.
func DefaultLoop() *Loop {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultLoopLocked()
}

func defaultLoopLocked() *Loop {
	if defaultLoop == nil {
		defaultLoop = NewLoop()
	}
	return defaultLoop
}

// Default returns the process dispatcher bound to DefaultLoop.
func Default() *Dispatcher {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultDispatcher == nil {
		defaultDispatcher = NewDispatcher(defaultLoopLocked())
	}
	return defaultDispatcher
}

// DispatchData sends u through the process dispatcher.
func DispatchData(u domain.MoveUpdate) { Default().Dispatch(u) }

// InitDispatcher binds r to the process dispatcher. Call from a DefaultLoop task.
func InitDispatcher(o *Owner, r Renderer) error { return Default().Bind(o, r) }

// ResetDefault drops the singletons and closes their loop.
func ResetDefault() {
	defaultMu.Lock()
	l := defaultLoop
	defaultLoop = nil
	defaultDispatcher = nil
	defaultMu.Unlock()
	if l != nil {
		l.Close()
	}
}
