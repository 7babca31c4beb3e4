package card

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

const badgeSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 64 64" width="64" height="64">
<circle cx="32" cy="32" r="30" fill="%[1]s"/>
<circle cx="32" cy="32" r="26" fill="none" stroke="#f3f4f6" stroke-width="3"/>
</svg>`

type badgeKey struct {
	color string
	size  int
}

var (
	badgeCache   = map[badgeKey]image.Image{}
	badgeCacheMu sync.RWMutex
)

// renderBadge rasterises the round label badge at size x size.
func renderBadge(hex string, size int) (image.Image, error) {
	key := badgeKey{color: hex, size: size}

	badgeCacheMu.RLock()
	if img, ok := badgeCache[key]; ok {
		badgeCacheMu.RUnlock()
		return img, nil
	}
	badgeCacheMu.RUnlock()

	icon, err := oksvg.ReadIconStream(bytes.NewReader([]byte(fmt.Sprintf(badgeSVG, hex))))
	if err != nil {
		return nil, fmt.Errorf("parse badge svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	badgeCacheMu.Lock()
	badgeCache[key] = img
	badgeCacheMu.Unlock()
	return img, nil
}
