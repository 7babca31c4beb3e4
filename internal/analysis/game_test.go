package analysis

import (
	"errors"
	"testing"

	nchess "github.com/corentings/chess/v2"
)

const italianFEN = "r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R w KQkq - 2 3"

func TestGameDecodeSANAndUCI(t *testing.T) {
	g := NewGame()
	for _, text := range []string{"e4", "e7e5", "Nf3"} {
		mv, err := g.Decode(text)
		if err != nil {
			t.Fatalf("Decode(%q): %v", text, err)
		}
		if _, err := g.Push(mv); err != nil {
			t.Fatalf("Push(%q): %v", text, err)
		}
	}
	want := []string{"e2e4", "e7e5", "g1f3"}
	got := g.MovesUCI()
	if len(got) != len(want) {
		t.Fatalf("moves = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("moves = %v, want %v", got, want)
		}
	}
	if g.Position().Turn() != nchess.Black {
		t.Fatalf("turn = %v", g.Position().Turn())
	}
}

func TestGameDecodeRejectsIllegal(t *testing.T) {
	g := NewGame()
	for _, text := range []string{"", "e5", "e2e5", "Qxh7"} {
		if _, err := g.Decode(text); !errors.Is(err, ErrInvalidMove) {
			t.Fatalf("Decode(%q) err = %v", text, err)
		}
	}
}

func TestGameUndo(t *testing.T) {
	g := NewGame()
	start := g.FEN()
	mv, _ := g.Decode("d4")
	if _, err := g.Push(mv); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := g.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if g.Ply() != 0 || g.FEN() != start {
		t.Fatalf("after undo ply=%d fen=%s", g.Ply(), g.FEN())
	}
	if err := g.Undo(); err != nil {
		t.Fatalf("Undo on empty: %v", err)
	}
}

func TestGameFromFEN(t *testing.T) {
	g, err := NewGameFromFEN(italianFEN)
	if err != nil {
		t.Fatalf("NewGameFromFEN: %v", err)
	}
	if g.StartFEN() != italianFEN {
		t.Fatalf("StartFEN = %q", g.StartFEN())
	}
	if _, err := NewGameFromFEN("not a fen"); !errors.Is(err, ErrInvalidFEN) {
		t.Fatalf("err = %v", err)
	}
	if g, err := NewGameFromFEN("startpos"); err != nil || g.StartFEN() != "" {
		t.Fatalf("startpos: %v %q", err, g.StartFEN())
	}
}

func TestCloneIsIndependent(t *testing.T) {
	g := NewGame()
	c := g.Clone()
	mv, _ := c.Decode("e4")
	if _, err := c.Push(mv); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if g.Ply() != 0 || c.Ply() != 1 {
		t.Fatalf("ply g=%d c=%d", g.Ply(), c.Ply())
	}
}

func TestNotation(t *testing.T) {
	pos := NewGame().Position()
	if got := Notation(pos, "g1f3", "san"); got != "Nf3" {
		t.Fatalf("san = %q", got)
	}
	if got := Notation(pos, "G1F3", "uci"); got != "g1f3" {
		t.Fatalf("uci = %q", got)
	}
	if got := Notation(pos, "zz", "san"); got != "zz" {
		t.Fatalf("garbage = %q", got)
	}
}

func TestMaterialGiven(t *testing.T) {
	g, err := NewGameFromFEN(italianFEN)
	if err != nil {
		t.Fatalf("NewGameFromFEN: %v", err)
	}
	pos := g.Position()
	// Bxf7+ Kxf7: bishop for a pawn
	if got := materialGiven(pos, nchess.White, []string{"c4f7", "e8f7"}); got != 2 {
		t.Fatalf("sacrifice = %d, want 2", got)
	}
	if got := materialGiven(pos, nchess.White, []string{"d2d3", "g8f6"}); got != 0 {
		t.Fatalf("quiet = %d", got)
	}
	if got := materialGiven(pos, nchess.White, []string{"c4f7"}); got != 0 {
		t.Fatalf("short line = %d", got)
	}
}

func TestBookMove(t *testing.T) {
	g := NewGame()
	mv, _ := g.Decode("e4")
	if !g.isBookMove(mv, 24) {
		t.Fatalf("1.e4 should be book")
	}
	if g.isBookMove(mv, -1) {
		t.Fatalf("book disabled but e4 reported")
	}
	fg, _ := NewGameFromFEN(italianFEN)
	mv, _ = fg.Decode("d3")
	if fg.isBookMove(mv, 24) {
		t.Fatalf("FEN games are never in book")
	}
}
