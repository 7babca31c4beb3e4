package render

import (
	"errors"
	"fmt"

	"github.com/park285/cheese-overlay/internal/domain"
)

// Target matches overlay.Renderer.
type Target interface {
	Render(u domain.MoveUpdate) error
	Hide() error
}

// Multi fans one update out to every target; one failing target does not stop
// the others.
type Multi struct {
	targets []Target
}

func NewMulti(targets ...Target) *Multi {
	m := &Multi{}
	for _, t := range targets {
		if t != nil {
			m.targets = append(m.targets, t)
		}
	}
	return m
}

func (m *Multi) Len() int { return len(m.targets) }

func (m *Multi) Render(u domain.MoveUpdate) error {
	var errs []error
	for _, t := range m.targets {
		if err := t.Render(u); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", t, err))
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) Hide() error {
	var errs []error
	for _, t := range m.targets {
		if err := t.Hide(); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", t, err))
		}
	}
	return errors.Join(errs...)
}
