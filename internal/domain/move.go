package domain

import (
	"fmt"
	"strings"
)

// MoveUpdate 는 오버레이에 표시할 한 수의 평가 결과입니다.
// 생성 후 변경되지 않으며 == 로 비교할 수 있습니다.
type MoveUpdate struct {
	label        MoveQuality
	bestMove     string
	opponentMove string
	hasOpponent  bool
	evalCP       int
	hasEval      bool
	depth        int
	hasDepth     bool
}

type MoveOption func(*MoveUpdate)

func WithOpponentMove(mv string) MoveOption {
	return func(u *MoveUpdate) {
		mv = strings.TrimSpace(mv)
		if mv == "" {
			return
		}
		u.opponentMove = mv
		u.hasOpponent = true
	}
}

// WithEvaluation sets the score in centipawns from the mover's side.
func WithEvaluation(cp int) MoveOption {
	return func(u *MoveUpdate) {
		u.evalCP = cp
		u.hasEval = true
	}
}

func WithDepth(depth int) MoveOption {
	return func(u *MoveUpdate) {
		if depth <= 0 {
			return
		}
		u.depth = depth
		u.hasDepth = true
	}
}

// NewMoveUpdate validates label against the closed vocabulary.
func NewMoveUpdate(label MoveQuality, bestMove string, opts ...MoveOption) (MoveUpdate, error) {
	if !label.Valid() {
		return MoveUpdate{}, fmt.Errorf("%w: %q", ErrInvalidLabel, string(label))
	}
	u := MoveUpdate{label: label, bestMove: strings.TrimSpace(bestMove)}
	for _, opt := range opts {
		if opt != nil {
			opt(&u)
		}
	}
	return u, nil
}

// ParseMoveUpdate is NewMoveUpdate for untyped labels.
func ParseMoveUpdate(label, bestMove string, opts ...MoveOption) (MoveUpdate, error) {
	q, err := ParseMoveQuality(label)
	if err != nil {
		return MoveUpdate{}, fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}
	return NewMoveUpdate(q, bestMove, opts...)
}

func (u MoveUpdate) Label() MoveQuality { return u.label }
func (u MoveUpdate) BestMove() string   { return u.bestMove }

func (u MoveUpdate) OpponentMove() (string, bool) { return u.opponentMove, u.hasOpponent }
func (u MoveUpdate) EvaluationCP() (int, bool)    { return u.evalCP, u.hasEval }
func (u MoveUpdate) Depth() (int, bool)           { return u.depth, u.hasDepth }

// IsZero reports an update that never went through NewMoveUpdate.
func (u MoveUpdate) IsZero() bool { return u.label == "" }

func (u MoveUpdate) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "MoveUpdate(label=%s, best=%s", u.label, u.bestMove)
	if u.hasOpponent {
		fmt.Fprintf(&b, ", opp_best=%s", u.opponentMove)
	}
	if u.hasEval {
		fmt.Fprintf(&b, ", eval=%+dcp", u.evalCP)
	}
	if u.hasDepth {
		fmt.Fprintf(&b, ", depth=%d", u.depth)
	}
	b.WriteString(")")
	return b.String()
}

// OverlayPosition 은 화면 좌표(px)입니다. 범위는 강제하지 않습니다.
type OverlayPosition struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

func (p OverlayPosition) Add(dx, dy int) OverlayPosition {
	return OverlayPosition{X: p.X + dx, Y: p.Y + dy}
}
