package overlay

import "errors"

var (
	// ErrNotBound is logged when an update arrives before a renderer is bound.
	// It is never returned to producers.
	ErrNotBound        = errors.New("overlay: dispatcher not bound")
	ErrWrongThreadBind = errors.New("overlay: bind must run on the ui loop")
	ErrNilRenderer     = errors.New("overlay: nil renderer")
	ErrLoopClosed      = errors.New("overlay: loop closed")
	ErrLoopRunning     = errors.New("overlay: loop already running")
)
