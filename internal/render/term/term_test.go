package term

import (
	"bytes"
	"strings"
	"testing"

	"github.com/park285/cheese-overlay/internal/config"
	"github.com/park285/cheese-overlay/internal/domain"
	"github.com/park285/cheese-overlay/internal/msgcat"
	"github.com/park285/cheese-overlay/internal/render"
)

func newTerminal(t *testing.T, buf *bytes.Buffer, opts ...Option) *Terminal {
	t.Helper()
	cat, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat.New: %v", err)
	}
	return New(buf, render.NewViewBuilder(cat, config.DefaultSettings()), opts...)
}

func TestRenderPrintsCard(t *testing.T) {
	var buf bytes.Buffer
	term := newTerminal(t, &buf)
	u, _ := domain.NewMoveUpdate(domain.QualityBrilliant, "Nxe5", domain.WithOpponentMove("Qd4"))
	if err := term.Render(u); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"BRILLIANT!!", "ENGINE SUGGESTS:", "Nxe5", "Qd4", "╭"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestHideErasesPreviousCard(t *testing.T) {
	var buf bytes.Buffer
	term := newTerminal(t, &buf)
	if err := term.Hide(); err != nil || buf.Len() != 0 {
		t.Fatalf("hide before render wrote %q (%v)", buf.String(), err)
	}
	u, _ := domain.NewMoveUpdate(domain.QualityGood, "O-O")
	if err := term.Render(u); err != nil {
		t.Fatalf("Render: %v", err)
	}
	buf.Reset()
	if err := term.Hide(); err != nil {
		t.Fatalf("Hide: %v", err)
	}
	if !strings.HasSuffix(buf.String(), "\x1b[J") {
		t.Fatalf("hide output %q", buf.String())
	}
	buf.Reset()
	if err := term.Hide(); err != nil || buf.Len() != 0 {
		t.Fatalf("second hide wrote %q", buf.String())
	}
}

func TestClearDisabled(t *testing.T) {
	var buf bytes.Buffer
	term := newTerminal(t, &buf, WithClear(false))
	u, _ := domain.NewMoveUpdate(domain.QualityForced, "Kg1")
	_ = term.Render(u)
	_ = term.Render(u)
	_ = term.Hide()
	if strings.Contains(buf.String(), "\x1b[J") {
		t.Fatalf("erase written with clear off")
	}
}
