package card

import (
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/park285/cheese-overlay/internal/domain"
	"github.com/park285/cheese-overlay/internal/render"
)

const (
	panelRadius   = 14
	panelPadding  = 18
	shadowOffsetY = 6
	lineGap       = 6
)

var (
	darkPanel   = color.NRGBA{R: 28, G: 31, B: 46, A: 250}
	lightPanel  = color.NRGBA{R: 245, G: 246, B: 250, A: 250}
	glassPanel  = color.NRGBA{R: 20, G: 22, B: 32, A: 110}
	shadowColor = color.NRGBA{0, 0, 0, 50}

	darkText      = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	darkTextDim   = color.NRGBA{R: 160, G: 168, B: 196, A: 255}
	lightText     = color.NRGBA{R: 28, G: 31, B: 46, A: 255}
	lightTextDim  = color.NRGBA{R: 96, G: 102, B: 124, A: 255}
	badgeGlyphClr = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

type palette struct {
	panel, text, dim color.NRGBA
}

func paletteFor(theme string, opacity float64) palette {
	p := palette{panel: darkPanel, text: darkText, dim: darkTextDim}
	switch theme {
	case "light":
		p = palette{panel: lightPanel, text: lightText, dim: lightTextDim}
	case "transparent":
		p.panel = glassPanel
	}
	if opacity > 0 && opacity < 1 {
		p.panel.A = uint8(float64(p.panel.A) * opacity)
	}
	return p
}

// Draw paints v onto a fresh transparent canvas of v.Width x v.Height.
func Draw(v render.View) (*image.RGBA, error) {
	w, h := v.Width, v.Height
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("card size %dx%d", w, h)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	pal := paletteFor(v.Theme, v.Opacity)

	panel := image.Rect(0, 0, w, h-shadowOffsetY)
	drawRoundedPanel(img, panel.Add(image.Pt(0, shadowOffsetY)), panelRadius, shadowColor)
	drawRoundedPanel(img, panel, panelRadius, pal.panel)

	fontSize := float64(v.FontSize)
	if fontSize <= 0 {
		fontSize = 16
	}
	captionFace, err := newFace(true, fontSize*1.5)
	if err != nil {
		return nil, err
	}
	bodyFace, err := newFace(false, fontSize)
	if err != nil {
		return nil, err
	}

	accent, err := parseHex(v.Color)
	if err != nil {
		return nil, err
	}

	// badge + caption row
	icon := v.IconSize
	if icon <= 0 {
		icon = 32
	}
	badgeRect := image.Rect(panelPadding, panelPadding, panelPadding+icon, panelPadding+icon)
	badge, err := renderBadge(v.Color, icon)
	if err != nil {
		return nil, err
	}
	imagedraw.Draw(img, badgeRect, badge, image.Point{}, imagedraw.Over)

	glyphFace, err := newFace(true, float64(icon)*0.45)
	if err != nil {
		return nil, err
	}
	drawCenteredString(&font.Drawer{Dst: img, Face: glyphFace}, badgeRect, badgeGlyph(v.Label), badgeGlyphClr)

	captionX := badgeRect.Max.X + panelPadding/2
	captionRect := image.Rect(captionX, badgeRect.Min.Y, w-panelPadding, badgeRect.Max.Y)
	caption := truncateWithEllipsis(captionFace, v.Caption, captionRect.Dx())
	drawLeftString(&font.Drawer{Dst: img, Face: captionFace}, captionRect, caption, accent)

	// divider
	divY := badgeRect.Max.Y + panelPadding/2
	divider := accent
	divider.A = 140
	imagedraw.Draw(img, image.Rect(panelPadding, divY, w-panelPadding, divY+2), image.NewUniform(divider), image.Point{}, imagedraw.Over)

	body := &font.Drawer{Dst: img, Face: bodyFace}
	lineH := bodyFace.Metrics().Height.Ceil() + lineGap
	y := divY + panelPadding/2
	for _, ln := range v.Lines {
		if y+lineH > panel.Max.Y-panelPadding/2 {
			break
		}
		row := image.Rect(panelPadding, y, w-panelPadding, y+lineH)
		title := ln.Title + ":"
		drawLeftString(body, row, title, pal.dim)
		tw := body.MeasureString(title+" ").Round()
		valueRect := image.Rect(row.Min.X+tw, row.Min.Y, row.Max.X, row.Max.Y)
		drawLeftString(body, valueRect, truncateWithEllipsis(bodyFace, ln.Value, valueRect.Dx()), pal.text)
		y += lineH
	}

	if v.Depth != "" {
		dw := body.MeasureString(v.Depth).Round()
		r := image.Rect(w-panelPadding-dw, panel.Max.Y-panelPadding-lineH, w-panelPadding, panel.Max.Y-panelPadding)
		drawLeftString(body, r, v.Depth, pal.dim)
	}
	return img, nil
}

func badgeGlyph(q domain.MoveQuality) string {
	switch q {
	case domain.QualityBrilliant:
		return "!!"
	case domain.QualityGreat:
		return "!"
	case domain.QualityBest:
		return "*"
	case domain.QualityExcellent:
		return "+"
	case domain.QualityGood:
		return "="
	case domain.QualityTheory:
		return "B"
	case domain.QualityInaccuracy:
		return "?!"
	case domain.QualityMistake:
		return "?"
	case domain.QualityMiss:
		return "x"
	case domain.QualityBlunder:
		return "??"
	case domain.QualityForced:
		return ">"
	}
	return ""
}

func parseHex(s string) (color.NRGBA, error) {
	var c color.NRGBA
	c.A = 255
	if _, err := fmt.Sscanf(strings.TrimPrefix(s, "#"), "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return color.NRGBA{}, fmt.Errorf("colour %q: %w", s, err)
	}
	return c, nil
}

func truncateWithEllipsis(face font.Face, text string, maxWidth int) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || maxWidth <= 0 || face == nil {
		return trimmed
	}
	drawer := font.Drawer{Face: face}
	if drawer.MeasureString(trimmed).Round() <= maxWidth {
		return trimmed
	}
	ellipsis := "..."
	if drawer.MeasureString(ellipsis).Round() > maxWidth {
		return ""
	}
	runes := []rune(trimmed)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + ellipsis
		if drawer.MeasureString(candidate).Round() <= maxWidth {
			return candidate
		}
	}
	return ellipsis
}

func drawRoundedPanel(img *image.RGBA, rect image.Rectangle, radius int, clr color.Color) {
	if img == nil || rect.Empty() {
		return
	}
	if radius < 0 {
		radius = 0
	}
	maxRadius := rect.Dx() / 2
	if r := rect.Dy() / 2; r < maxRadius {
		maxRadius = r
	}
	if radius > maxRadius {
		radius = maxRadius
	}
	fill := image.NewUniform(clr)
	if radius == 0 {
		imagedraw.Draw(img, rect, fill, image.Point{}, imagedraw.Over)
		return
	}

	// 세 개의 띠가 겹치지 않게 채운 뒤 모서리 원을 그림
	imagedraw.Draw(img, image.Rect(rect.Min.X+radius, rect.Min.Y, rect.Max.X-radius, rect.Max.Y), fill, image.Point{}, imagedraw.Over)
	imagedraw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y+radius, rect.Min.X+radius, rect.Max.Y-radius), fill, image.Point{}, imagedraw.Over)
	imagedraw.Draw(img, image.Rect(rect.Max.X-radius, rect.Min.Y+radius, rect.Max.X, rect.Max.Y-radius), fill, image.Point{}, imagedraw.Over)

	corners := []image.Point{
		{rect.Min.X + radius, rect.Min.Y + radius},
		{rect.Max.X - radius - 1, rect.Min.Y + radius},
		{rect.Min.X + radius, rect.Max.Y - radius - 1},
		{rect.Max.X - radius - 1, rect.Max.Y - radius - 1},
	}
	for _, center := range corners {
		drawQuarter(img, center, radius, rect, clr)
	}
}

// drawQuarter fills the disc at center, clipped to the corner square outside
// the bands already painted.
func drawQuarter(img *image.RGBA, center image.Point, radius int, rect image.Rectangle, clr color.Color) {
	rSquared := radius * radius
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			if x*x+y*y > rSquared {
				continue
			}
			px, py := center.X+x, center.Y+y
			inCornerX := px < rect.Min.X+radius || px >= rect.Max.X-radius
			inCornerY := py < rect.Min.Y+radius || py >= rect.Max.Y-radius
			if !inCornerX || !inCornerY {
				continue
			}
			blendPixel(img, px, py, clr)
		}
	}
}

func drawCenteredString(drawer *font.Drawer, rect image.Rectangle, text string, clr color.Color) {
	text = strings.TrimSpace(text)
	if drawer == nil || text == "" {
		return
	}
	metrics := drawer.Face.Metrics()
	width := drawer.MeasureString(text).Round()
	x := rect.Min.X + (rect.Dx()-width)/2
	if x < rect.Min.X {
		x = rect.Min.X
	}
	baseline := rect.Min.Y + (rect.Dy()+metrics.Ascent.Ceil()-metrics.Descent.Ceil())/2
	drawer.Src = image.NewUniform(clr)
	drawer.Dot = fixed.P(x, baseline)
	drawer.DrawString(text)
}

func drawLeftString(drawer *font.Drawer, rect image.Rectangle, text string, clr color.Color) {
	if drawer == nil || text == "" {
		return
	}
	metrics := drawer.Face.Metrics()
	baseline := rect.Min.Y + (rect.Dy()+metrics.Ascent.Ceil()-metrics.Descent.Ceil())/2
	drawer.Src = image.NewUniform(clr)
	drawer.Dot = fixed.P(rect.Min.X, baseline)
	drawer.DrawString(text)
}

func blendPixel(img *image.RGBA, x, y int, clr color.Color) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}
	sr, sg, sb, sa := clr.RGBA()
	if sa == 0 {
		return
	}
	dst := img.RGBAAt(x, y)
	// premultiplied "over"
	inv := 65535 - sa
	img.SetRGBA(x, y, color.RGBA{
		R: uint8((sr + uint32(dst.R)*0x101*inv/65535) >> 8),
		G: uint8((sg + uint32(dst.G)*0x101*inv/65535) >> 8),
		B: uint8((sb + uint32(dst.B)*0x101*inv/65535) >> 8),
		A: uint8((sa + uint32(dst.A)*0x101*inv/65535) >> 8),
	})
}
