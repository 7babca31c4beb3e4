// Package placement tracks the overlay's on-screen position and persists it.
package placement

import (
	"context"
	"errors"
	"sync"

	"github.com/park285/cheese-overlay/internal/config"
	"github.com/park285/cheese-overlay/internal/domain"
)

// Store persists one position. Load reports ok=false when nothing is saved.
type Store interface {
	Load(ctx context.Context) (p domain.OverlayPosition, ok bool, err error)
	Save(ctx context.Context, p domain.OverlayPosition) error
}

// SettingsStore keeps the position inside the overlay settings file.
type SettingsStore struct {
	path string

	mu       sync.Mutex
	settings *config.OverlaySettings
}

func NewSettingsStore(path string, s *config.OverlaySettings) *SettingsStore {
	if s == nil {
		s = config.DefaultSettings()
	}
	return &SettingsStore{path: path, settings: s.Clone()}
}

func (s *SettingsStore) Load(context.Context) (domain.OverlayPosition, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Position(), true, nil
}

func (s *SettingsStore) Save(_ context.Context, p domain.OverlayPosition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.SetPosition(p)
	return s.settings.Save(s.path)
}

// Chain saves to every store and loads from the first one that has a value.
type Chain []Store

func (c Chain) Load(ctx context.Context) (domain.OverlayPosition, bool, error) {
	var errs []error
	for _, s := range c {
		p, ok, err := s.Load(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			return p, true, nil
		}
	}
	return domain.OverlayPosition{}, false, errors.Join(errs...)
}

func (c Chain) Save(ctx context.Context, p domain.OverlayPosition) error {
	var errs []error
	for _, s := range c {
		if err := s.Save(ctx, p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
