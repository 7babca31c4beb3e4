// Package screen reports the primary screen size for centring the overlay.
package screen

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

var ErrNoDisplay = errors.New("no display")

type Size struct {
	Width  int
	Height int
}

// Provider answers the current screen size.
type Provider interface {
	Size() (Size, error)
}

// Fixed is a constant size, used headless and in tests.
type Fixed Size

func (f Fixed) Size() (Size, error) { return Size(f), nil }

// X11 queries the default screen of an X display.
type X11 struct {
	Display string
}

// Size opens a short-lived connection; the call is rare (reset-position).
func (x X11) Size() (Size, error) {
	display := x.Display
	if display == "" {
		display = os.Getenv("DISPLAY")
	}
	if display == "" {
		return Size{}, ErrNoDisplay
	}
	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return Size{}, fmt.Errorf("x11 connect %s: %w", display, err)
	}
	defer conn.Close()
	scr := xproto.Setup(conn).DefaultScreen(conn)
	return Size{Width: int(scr.WidthInPixels), Height: int(scr.HeightInPixels)}, nil
}

// Fallback tries each provider in order.
type Fallback []Provider

func (f Fallback) Size() (Size, error) {
	var errs []error
	for _, p := range f {
		s, err := p.Size()
		if err == nil && s.Width > 0 && s.Height > 0 {
			return s, nil
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return Size{}, ErrNoDisplay
	}
	return Size{}, errors.Join(errs...)
}

// Default prefers X11 and falls back to 1920x1080.
func Default(display string) Provider {
	return Fallback{X11{Display: display}, Fixed{Width: 1920, Height: 1080}}
}
