package render

import (
	"errors"
	"testing"

	"github.com/park285/cheese-overlay/internal/chess/uci"
	"github.com/park285/cheese-overlay/internal/config"
	"github.com/park285/cheese-overlay/internal/domain"
	"github.com/park285/cheese-overlay/internal/msgcat"
)

func newCatalog(t *testing.T) *msgcat.Catalog {
	t.Helper()
	cat, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat.New: %v", err)
	}
	return cat
}

func mustUpdate(t *testing.T, label domain.MoveQuality, best string, opts ...domain.MoveOption) domain.MoveUpdate {
	t.Helper()
	u, err := domain.NewMoveUpdate(label, best, opts...)
	if err != nil {
		t.Fatalf("NewMoveUpdate: %v", err)
	}
	return u
}

func TestBuildViewAllLines(t *testing.T) {
	vb := NewViewBuilder(newCatalog(t), config.DefaultSettings())
	v := vb.Build(mustUpdate(t, domain.QualityBlunder, "Rd1",
		domain.WithOpponentMove("Qxf2#"), domain.WithEvaluation(-950), domain.WithDepth(18)))

	if v.Caption != "BLUNDER!!" || v.Color != "#dc2626" {
		t.Fatalf("caption/color = %q %q", v.Caption, v.Color)
	}
	if len(v.Lines) != 3 {
		t.Fatalf("lines = %+v", v.Lines)
	}
	if v.Lines[0].Value != "Rd1" || v.Lines[1].Value != "Qxf2#" || v.Lines[2].Value != "-9.50" {
		t.Fatalf("lines = %+v", v.Lines)
	}
	if v.Depth != "d18" {
		t.Fatalf("depth = %q", v.Depth)
	}
}

func TestBuildViewToggles(t *testing.T) {
	s := config.DefaultSettings()
	s.ShowBestMove = false
	s.ShowEvaluation = false
	vb := NewViewBuilder(newCatalog(t), s)

	// later edits to s must not leak into the builder
	s.ShowOpponentBest = false

	v := vb.Build(mustUpdate(t, domain.QualityMistake, "f3",
		domain.WithOpponentMove("Qh4+"), domain.WithEvaluation(-200), domain.WithDepth(10)))
	if len(v.Lines) != 1 || v.Lines[0].Value != "Qh4+" {
		t.Fatalf("lines = %+v", v.Lines)
	}
	if v.Depth != "" {
		t.Fatalf("depth shown with evaluation off")
	}
}

func TestBuildViewMateAndLanguage(t *testing.T) {
	s := config.DefaultSettings()
	s.Language = "de"
	vb := NewViewBuilder(newCatalog(t), s)
	v := vb.Build(mustUpdate(t, domain.QualityBest, "Qh7", domain.WithEvaluation(uci.MateScore-3)))
	if v.Caption != "BESTER ZUG" || v.Lines[0].Title != "ENGINE SCHLÄGT VOR" {
		t.Fatalf("german captions missing: %+v", v)
	}
	last := v.Lines[len(v.Lines)-1]
	if last.Value != "#3" {
		t.Fatalf("mate eval = %q", last.Value)
	}
}

func TestLabelColorCoversAll(t *testing.T) {
	seen := map[string]domain.MoveQuality{}
	for _, q := range domain.AllQualities() {
		c := LabelColor(q)
		if len(c) != 7 || c[0] != '#' {
			t.Fatalf("%s colour %q", q, c)
		}
		if prev, dup := seen[c]; dup {
			t.Fatalf("%s and %s share %s", q, prev, c)
		}
		seen[c] = q
	}
	if LabelColor("nope") != fallbackColor {
		t.Fatalf("unknown label colour")
	}
}

type stubTarget struct {
	renders, hides int
	err            error
}

func (s *stubTarget) Render(domain.MoveUpdate) error { s.renders++; return s.err }
func (s *stubTarget) Hide() error                    { s.hides++; return s.err }

func TestMultiKeepsGoingOnError(t *testing.T) {
	boom := errors.New("boom")
	a, b := &stubTarget{err: boom}, &stubTarget{}
	m := NewMulti(a, nil, b)
	if m.Len() != 2 {
		t.Fatalf("len = %d", m.Len())
	}
	err := m.Render(mustUpdate(t, domain.QualityGood, "O-O"))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if a.renders != 1 || b.renders != 1 {
		t.Fatalf("renders a=%d b=%d", a.renders, b.renders)
	}
	if err := m.Hide(); !errors.Is(err, boom) || b.hides != 1 {
		t.Fatalf("hide err=%v hides=%d", err, b.hides)
	}
}
