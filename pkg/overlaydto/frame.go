// Package overlaydto holds the JSON frames exchanged with a remote overlay
// (browser source, second screen) over the relay.
package overlaydto

import "time"

const (
	FrameRender = "render"
	FrameHide   = "hide"
	FrameDrag   = "drag"
	// FramePosition moves the remote surface to a new screen position.
	FramePosition = "position"
)

const (
	DragPress   = "press"
	DragMove    = "move"
	DragRelease = "release"
)

// Frame is one relay message. Update, Drag and Position are set for render,
// drag and position frames respectively; hide frames carry none of them.
// Origin identifies the sending process so echoed frames can be skipped.
type Frame struct {
	Type     string    `json:"type"`
	Room     string    `json:"room"`
	Origin   string    `json:"origin,omitempty"`
	Seq      uint64    `json:"seq,omitempty"`
	Update   *Update   `json:"update,omitempty"`
	Drag     *Drag     `json:"drag,omitempty"`
	Position *Position `json:"position,omitempty"`
	SentAt   time.Time `json:"sent_at"`
}

type Update struct {
	Label        string `json:"label"`
	Caption      string `json:"caption,omitempty"`
	Color        string `json:"color,omitempty"`
	BestMove     string `json:"best_move"`
	OpponentMove string `json:"opponent_move,omitempty"`
	EvaluationCP *int   `json:"evaluation_cp,omitempty"`
	Depth        *int   `json:"depth,omitempty"`
}

// Drag is a pointer gesture reported by the remote surface, in screen pixels.
type Drag struct {
	Phase string `json:"phase"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
}

// Position is the overlay's top-left corner in screen pixels.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Health struct {
	Status string `json:"status"`
	Rooms  int    `json:"rooms,omitempty"`
}
