package analysis

import (
	"errors"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"github.com/corentings/chess/v2/opening"
)

var (
	ErrInvalidMove = errors.New("invalid move")
	ErrInvalidFEN  = errors.New("invalid fen")
	ErrGameOver    = errors.New("game already finished")
)

var pieceValues = map[nchess.PieceType]int{
	nchess.Pawn:   1,
	nchess.Knight: 3,
	nchess.Bishop: 3,
	nchess.Rook:   5,
	nchess.Queen:  9,
}

// Game is the move history being annotated, kept as UCI from a start FEN.
type Game struct {
	startFEN string
	moves    []string
	game     *nchess.Game
}

func NewGame() *Game {
	return &Game{game: nchess.NewGame()}
}

// NewGameFromFEN starts from an arbitrary position.
func NewGameFromFEN(fen string) (*Game, error) {
	fen = strings.TrimSpace(fen)
	if fen == "" || fen == "startpos" {
		return NewGame(), nil
	}
	opt, err := nchess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	return &Game{startFEN: fen, game: nchess.NewGame(opt)}, nil
}

func (g *Game) StartFEN() string { return g.startFEN }

func (g *Game) MovesUCI() []string { return append([]string(nil), g.moves...) }

func (g *Game) Ply() int { return len(g.moves) }

// Position returns the current position.
func (g *Game) Position() *nchess.Position { return g.game.Position() }

func (g *Game) Over() bool { return g.game.Outcome() != nchess.NoOutcome }

// Decode accepts SAN first, then UCI, against the current position.
func (g *Game) Decode(text string) (*nchess.Move, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrInvalidMove
	}
	pos := g.game.Position()
	if mv, err := (nchess.AlgebraicNotation{}).Decode(pos, text); err == nil {
		if isLegal(pos, mv) {
			return mv, nil
		}
	}
	if mv, err := (nchess.UCINotation{}).Decode(pos, strings.ToLower(text)); err == nil {
		if isLegal(pos, mv) {
			return mv, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrInvalidMove, text)
}

func isLegal(pos *nchess.Position, mv *nchess.Move) bool {
	if mv == nil {
		return false
	}
	for _, v := range pos.ValidMoves() {
		if v.S1() == mv.S1() && v.S2() == mv.S2() && v.Promo() == mv.Promo() {
			return true
		}
	}
	return false
}

// Push plays mv and returns its UCI text.
func (g *Game) Push(mv *nchess.Move) (string, error) {
	if g.Over() {
		return "", ErrGameOver
	}
	uciText := strings.ToLower(nchess.UCINotation{}.Encode(g.game.Position(), mv))
	if err := g.game.PushNotationMove(uciText, nchess.UCINotation{}, nil); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidMove, err)
	}
	g.moves = append(g.moves, uciText)
	return uciText, nil
}

// Undo drops the last move by replaying the rest.
func (g *Game) Undo() error {
	if len(g.moves) == 0 {
		return nil
	}
	rest := g.moves[:len(g.moves)-1]
	fresh, err := NewGameFromFEN(g.startFEN)
	if err != nil {
		return err
	}
	for _, m := range rest {
		mv, err := fresh.Decode(m)
		if err != nil {
			return err
		}
		if _, err := fresh.Push(mv); err != nil {
			return err
		}
	}
	*g = *fresh
	return nil
}

// Clone copies the history.
func (g *Game) Clone() *Game {
	return &Game{startFEN: g.startFEN, moves: g.MovesUCI(), game: g.game.Clone()}
}

// Notation renders a UCI move in SAN or UCI against pos. Unparseable input
// is returned unchanged.
func Notation(pos *nchess.Position, uciMove, style string) string {
	uciMove = strings.ToLower(strings.TrimSpace(uciMove))
	if uciMove == "" || style == "uci" || pos == nil {
		return uciMove
	}
	mv, err := (nchess.UCINotation{}).Decode(pos, uciMove)
	if err != nil {
		return uciMove
	}
	return nchess.AlgebraicNotation{}.Encode(pos, mv)
}

// material sums piece values for each side.
func material(pos *nchess.Position) (white, black int) {
	if pos == nil {
		return 0, 0
	}
	for _, piece := range pos.Board().SquareMap() {
		v := pieceValues[piece.Type()]
		if piece.Color() == nchess.White {
			white += v
		} else {
			black += v
		}
	}
	return white, black
}

// balance is the mover's material minus the opponent's.
func balance(pos *nchess.Position, side nchess.Color) int {
	w, b := material(pos)
	if side == nchess.White {
		return w - b
	}
	return b - w
}

// materialGiven replays line from pos and reports how much material side
// loses (pawns) after the first two plies.
func materialGiven(pos *nchess.Position, side nchess.Color, line []string) int {
	if pos == nil || len(line) < 2 {
		return 0
	}
	before := balance(pos, side)
	cur := pos
	for _, m := range line[:2] {
		mv, err := (nchess.UCINotation{}).Decode(cur, m)
		if err != nil {
			return 0
		}
		cur = cur.Update(mv)
	}
	given := before - balance(cur, side)
	if given < 0 {
		return 0
	}
	return given
}

var ecoBook = opening.NewBookECO()

// bookOpening names the ECO line reached by moves, if any.
func bookOpening(g *nchess.Game) (code, title string) {
	if ecoBook == nil || g == nil {
		return "", ""
	}
	if eco := ecoBook.Find(g.Moves()); eco != nil {
		return eco.Code(), eco.Title()
	}
	return "", ""
}

// isBookMove reports whether playing mv reaches a new named ECO line.
// Games set up from a FEN are never in book.
func (g *Game) isBookMove(mv *nchess.Move, maxPly int) bool {
	if g.startFEN != "" || len(g.moves) >= maxPly {
		return false
	}
	beforeCode, beforeTitle := bookOpening(g.game)
	clone := g.game.Clone()
	uciText := nchess.UCINotation{}.Encode(g.game.Position(), mv)
	if err := clone.PushNotationMove(uciText, nchess.UCINotation{}, nil); err != nil {
		return false
	}
	code, title := bookOpening(clone)
	if code == "" {
		return false
	}
	return code != beforeCode || title != beforeTitle
}

// Opening names the current ECO line.
func (g *Game) Opening() (code, title string) { return bookOpening(g.game) }

// FEN of the current position.
func (g *Game) FEN() string { return g.game.FEN() }
