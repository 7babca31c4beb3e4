// Package card writes the overlay as a PNG snapshot, suitable for an OBS
// image source that reloads on change.
package card

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/park285/cheese-overlay/internal/domain"
	"github.com/park285/cheese-overlay/internal/obslog"
	"github.com/park285/cheese-overlay/internal/render"
)

// Card implements overlay.Renderer. Calls come from the ui loop only.
type Card struct {
	path   string
	views  *render.ViewBuilder
	logger *zap.Logger

	width, height int
}

type Option func(*Card)

func WithLogger(l *zap.Logger) Option {
	return func(c *Card) {
		if l != nil {
			c.logger = l
		}
	}
}

func New(path string, views *render.ViewBuilder, opts ...Option) (*Card, error) {
	if path == "" {
		return nil, fmt.Errorf("card output path required")
	}
	c := &Card{path: path, views: views, logger: obslog.L().Named("card")}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Card) Path() string { return c.path }

func (c *Card) Render(u domain.MoveUpdate) error {
	v := c.views.Build(u)
	img, err := Draw(v)
	if err != nil {
		return fmt.Errorf("draw card: %w", err)
	}
	c.width, c.height = v.Width, v.Height
	if err := c.write(img); err != nil {
		return err
	}
	c.logger.Debug("card_written", zap.String("path", c.path), zap.String("label", u.Label().String()))
	return nil
}

// Hide replaces the snapshot with a fully transparent image of the same size.
func (c *Card) Hide() error {
	w, h := c.width, c.height
	if w <= 0 || h <= 0 {
		w, h = 1, 1
	}
	return c.write(image.NewRGBA(image.Rect(0, 0, w, h)))
}

func (c *Card) write(img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".card-*.png")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	// rename 으로 교체해 읽는 쪽이 반쯤 쓴 파일을 보지 않게 함
	if err := os.Rename(tmpName, c.path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
