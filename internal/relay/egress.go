package relay

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/park285/cheese-overlay/pkg/overlaydto"
)

// Egress abstracts frame delivery over HTTP or WebSocket.
type Egress interface {
	Send(ctx context.Context, f *overlaydto.Frame) error
}

const (
	ModeHTTP = "http"
	ModeWS   = "ws"
	ModeAuto = "auto"
)

// NewEgress picks the transport for mode. Auto prefers WS when connected and
// falls back to HTTP once per frame. Dry-run logs instead of sending.
func NewEgress(mode string, dryrun bool, c *Client, ws *WebSocket, logger *zap.Logger) Egress {
	if logger == nil {
		logger = zap.NewNop()
	}
	var e Egress
	switch mode {
	case ModeWS:
		e = &wsEgress{ws: ws}
	case ModeAuto:
		e = &autoEgress{ws: &wsEgress{ws: ws}, http: &httpEgress{c: c}, logger: logger}
	default:
		e = &httpEgress{c: c}
	}
	if dryrun {
		return &dryrunEgress{mode: mode, logger: logger}
	}
	return e
}

type httpEgress struct{ c *Client }

func (h *httpEgress) Send(ctx context.Context, f *overlaydto.Frame) error {
	if h == nil || h.c == nil {
		return errors.New("http egress not available")
	}
	return h.c.PostFrame(ctx, f)
}

type wsEgress struct{ ws *WebSocket }

func (w *wsEgress) Send(ctx context.Context, f *overlaydto.Frame) error {
	if w == nil || w.ws == nil {
		return errors.New("ws egress not available")
	}
	return w.ws.WriteFrame(ctx, f)
}

type autoEgress struct {
	ws     *wsEgress
	http   *httpEgress
	logger *zap.Logger
}

func (a *autoEgress) Send(ctx context.Context, f *overlaydto.Frame) error {
	if a.ws.ws != nil && a.ws.ws.Connected() {
		err := a.ws.Send(ctx, f)
		if err == nil {
			return nil
		}
		a.logger.Warn("egress_fallback", zap.String("type", f.Type), zap.String("room", f.Room), zap.Error(err))
	}
	return a.http.Send(ctx, f)
}

type dryrunEgress struct {
	mode   string
	logger *zap.Logger
}

func (d *dryrunEgress) Send(_ context.Context, f *overlaydto.Frame) error {
	d.logger.Info("relay_egress_dryrun",
		zap.String("mode", d.mode),
		zap.String("type", f.Type),
		zap.String("room", f.Room),
		zap.Uint64("seq", f.Seq))
	return nil
}
