package overlay

import "github.com/park285/cheese-overlay/internal/domain"

// Renderer owns the pixels. Both methods are called on the ui loop only.
type Renderer interface {
	Render(u domain.MoveUpdate) error
	Hide() error
}
