package render

import (
	"github.com/park285/cheese-overlay/internal/chess/uci"
	"github.com/park285/cheese-overlay/internal/config"
	"github.com/park285/cheese-overlay/internal/domain"
	"github.com/park285/cheese-overlay/internal/msgcat"
)

// labelColors are the badge colours per quality.
var labelColors = map[domain.MoveQuality]string{
	domain.QualityBrilliant:  "#06b6d4",
	domain.QualityGreat:      "#3b82f6",
	domain.QualityBest:       "#22c55e",
	domain.QualityExcellent:  "#14b8a6",
	domain.QualityGood:       "#84cc16",
	domain.QualityTheory:     "#a78bfa",
	domain.QualityInaccuracy: "#facc15",
	domain.QualityMistake:    "#f97316",
	domain.QualityMiss:       "#ef4444",
	domain.QualityBlunder:    "#dc2626",
	domain.QualityForced:     "#9ca3af",
}

const fallbackColor = "#9ca3af"

// LabelColor returns the badge colour as #rrggbb.
func LabelColor(q domain.MoveQuality) string {
	if c, ok := labelColors[q]; ok {
		return c
	}
	return fallbackColor
}

// Line is one "title: value" row of the card.
type Line struct {
	Title string
	Value string
}

// View is the localised, toggle-filtered content of one card.
type View struct {
	Label   domain.MoveQuality
	Caption string
	Color   string
	Lines   []Line
	Depth   string

	Theme    string
	Opacity  float64
	Width    int
	Height   int
	FontSize int
	IconSize int
}

// ViewBuilder turns updates into views. Settings are copied at construction.
type ViewBuilder struct {
	cat      *msgcat.Catalog
	settings config.OverlaySettings
}

func NewViewBuilder(cat *msgcat.Catalog, s *config.OverlaySettings) *ViewBuilder {
	if s == nil {
		s = config.DefaultSettings()
	}
	return &ViewBuilder{cat: cat, settings: *s.Clone()}
}

func (b *ViewBuilder) Build(u domain.MoveUpdate) View {
	s := &b.settings
	lang := s.Language
	v := View{
		Label:    u.Label(),
		Caption:  b.cat.Label(lang, string(u.Label())),
		Color:    LabelColor(u.Label()),
		Theme:    s.Theme,
		Opacity:  s.Opacity,
		Width:    s.OverlayWidth,
		Height:   s.OverlayHeight,
		FontSize: s.FontSize,
		IconSize: s.IconSize,
	}
	if s.ShowBestMove && u.BestMove() != "" {
		v.Lines = append(v.Lines, Line{Title: b.cat.Title(lang, "engine_suggests"), Value: u.BestMove()})
	}
	if opp, ok := u.OpponentMove(); ok && s.ShowOpponentBest {
		v.Lines = append(v.Lines, Line{Title: b.cat.Title(lang, "opponent_best"), Value: opp})
	}
	if cp, ok := u.EvaluationCP(); ok && s.ShowEvaluation {
		v.Lines = append(v.Lines, Line{Title: b.cat.Title(lang, "evaluation"), Value: b.formatEval(cp)})
	}
	if d, ok := u.Depth(); ok && s.ShowEvaluation {
		v.Depth = b.cat.Depth(d)
	}
	return v
}

func (b *ViewBuilder) formatEval(cp int) string {
	if n, ok := uci.MateIn(cp); ok {
		return b.cat.Mate(n)
	}
	return b.cat.Evaluation(cp)
}
