// Package term prints the overlay card to a terminal.
package term

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/park285/cheese-overlay/internal/domain"
	"github.com/park285/cheese-overlay/internal/render"
)

// Terminal implements overlay.Renderer on top of an io.Writer.
type Terminal struct {
	out   io.Writer
	views *render.ViewBuilder
	r     *lipgloss.Renderer
	clear bool

	mu    sync.Mutex
	lines int
}

type Option func(*Terminal)

// WithClear erases the previous card on Hide and before the next Render.
func WithClear(on bool) Option { return func(t *Terminal) { t.clear = on } }

func New(out io.Writer, views *render.ViewBuilder, opts ...Option) *Terminal {
	t := &Terminal{out: out, views: views, r: lipgloss.NewRenderer(out), clear: true}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Card renders v as a bordered box.
func (t *Terminal) Card(v render.View) string {
	accent := lipgloss.Color(v.Color)
	caption := t.r.NewStyle().Bold(true).Foreground(accent).Render(v.Caption)
	dim := t.r.NewStyle().Faint(true)

	rows := []string{caption}
	for _, ln := range v.Lines {
		rows = append(rows, dim.Render(ln.Title+":")+" "+ln.Value)
	}
	if v.Depth != "" {
		rows = append(rows, dim.Render(v.Depth))
	}

	box := t.r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1)
	return box.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (t *Terminal) Render(u domain.MoveUpdate) error {
	card := t.Card(t.views.Build(u))
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.eraseLocked(); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(t.out, card); err != nil {
		return err
	}
	t.lines = strings.Count(card, "\n") + 1
	return nil
}

func (t *Terminal) Hide() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.eraseLocked()
}

func (t *Terminal) eraseLocked() error {
	if !t.clear || t.lines == 0 {
		return nil
	}
	// 커서를 카드 첫 줄로 올리고 아래를 지움
	_, err := fmt.Fprintf(t.out, "\x1b[%dA\x1b[J", t.lines)
	t.lines = 0
	return err
}
