package relay

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/cheese-overlay/internal/domain"
	"github.com/park285/cheese-overlay/pkg/overlaydto"
)

var (
	originOnce sync.Once
	originID   string
)

// Origin is this process's relay identity, stamped on outgoing frames.
func Origin() string {
	originOnce.Do(func() { originID = uuid.NewString() })
	return originID
}

// Inbound routes frames received for room. Either handler may be nil.
// Frames whose Origin equals Self (default Origin()) are echoes and dropped.
type Inbound struct {
	Room     string
	Self     string
	OnDrag   func(overlaydto.Drag)
	OnUpdate func(domain.MoveUpdate)
	Logger   *zap.Logger
}

// Handle is a FrameCallback.
func (in Inbound) Handle(f *overlaydto.Frame) {
	if f == nil || (in.Room != "" && f.Room != in.Room) {
		return
	}
	logger := in.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	self := in.Self
	if self == "" {
		self = Origin()
	}
	if f.Origin == self {
		logger.Debug("relay_echo_skipped", zap.String("type", f.Type), zap.Uint64("seq", f.Seq))
		return
	}
	switch f.Type {
	case overlaydto.FrameDrag:
		if f.Drag != nil && in.OnDrag != nil {
			in.OnDrag(*f.Drag)
		}
	case overlaydto.FrameRender:
		if f.Update == nil || in.OnUpdate == nil {
			return
		}
		u, err := FromDTO(*f.Update)
		if err != nil {
			logger.Warn("relay_inbound_rejected", zap.Uint64("seq", f.Seq), zap.Error(err))
			return
		}
		in.OnUpdate(u)
	}
}
