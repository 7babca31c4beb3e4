package history

import (
	"context"
	"sort"
	"sync"

	"github.com/park285/cheese-overlay/internal/domain"
)

// memrepo backs history when no database is configured.
type memrepo struct {
	mu        sync.RWMutex
	nextID    int64
	bySession map[string][]*domain.Annotation
}

func NewMemoryRepository() Repository {
	return &memrepo{bySession: make(map[string][]*domain.Annotation)}
}

func (m *memrepo) InsertAnnotation(_ context.Context, a *domain.Annotation) (int64, error) {
	if a == nil {
		return 0, ErrDuplicateAnnotation
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.bySession[a.SessionUUID] {
		if existing.Ply == a.Ply {
			return 0, ErrDuplicateAnnotation
		}
	}
	m.nextID++
	cp := *a
	cp.ID = m.nextID
	m.bySession[a.SessionUUID] = append(m.bySession[a.SessionUUID], &cp)
	return cp.ID, nil
}

func (m *memrepo) ListSession(_ context.Context, sessionUUID string, labels []domain.MoveQuality, limit int) ([]*domain.Annotation, error) {
	if limit <= 0 {
		limit = 100
	}
	want := make(map[domain.MoveQuality]bool, len(labels))
	for _, l := range labels {
		want[l] = true
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Annotation, 0)
	for _, a := range m.bySession[sessionUUID] {
		if len(want) > 0 && !want[a.Label] {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ply < out[j].Ply })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memrepo) CountLabels(_ context.Context, sessionUUID string) ([]domain.LabelCount, error) {
	m.mu.RLock()
	counts := map[domain.MoveQuality]int{}
	for _, a := range m.bySession[sessionUUID] {
		counts[a.Label]++
	}
	m.mu.RUnlock()

	out := make([]domain.LabelCount, 0, len(counts))
	for l, n := range counts {
		out = append(out, domain.LabelCount{Label: l, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out, nil
}
