package analysis

import (
	"context"
	"strings"
	"testing"

	"github.com/park285/cheese-overlay/internal/chess"
	"github.com/park285/cheese-overlay/internal/chess/uci"
	"github.com/park285/cheese-overlay/internal/domain"
)

type collected struct{ updates []domain.MoveUpdate }

func (c *collected) sink(u domain.MoveUpdate) { c.updates = append(c.updates, u) }

func TestFeedShowDispatchesWithoutEngine(t *testing.T) {
	eng := &scriptedEngine{}
	var got collected
	f := NewFeed(NewAnalyzer(eng, Options{}), got.sink)

	if err := f.Handle(context.Background(), "show blunder Rd1 Qxf2#"); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if err := f.Handle(context.Background(), "show FORCED Kg1 -"); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(got.updates) != 2 {
		t.Fatalf("updates = %d", len(got.updates))
	}
	if opp, _ := got.updates[0].OpponentMove(); got.updates[0].Label() != domain.QualityBlunder || opp != "Qxf2#" {
		t.Fatalf("first = %s", got.updates[0])
	}
	if _, ok := got.updates[1].OpponentMove(); ok {
		t.Fatalf("dash should mean no opponent move")
	}
	if err := f.Handle(context.Background(), "show awesome e4"); err == nil {
		t.Fatalf("unknown label accepted")
	}
	if eng.calls() != 0 {
		t.Fatalf("engine called")
	}
}

func TestFeedRunSkipsBadLines(t *testing.T) {
	eng := &scriptedEngine{answers: []chess.AnalyseResult{
		lines(uci.Candidate{Move: "e7e5", EvalCP: -20}),
		lines(uci.Candidate{Move: "b8c6", EvalCP: 30}),
	}}
	var got collected
	f := NewFeed(NewAnalyzer(eng, Options{}), got.sink)

	input := strings.Join([]string{
		"# warm up",
		"",
		"e4 e5",
		"Qxh7",
		"undo",
		"e5",
	}, "\n")
	if err := f.Run(context.Background(), strings.NewReader(input)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got.updates) != 3 {
		t.Fatalf("updates = %d", len(got.updates))
	}
	if f.Game().Ply() != 2 {
		t.Fatalf("ply = %d", f.Game().Ply())
	}
}

func TestFeedNewAndFEN(t *testing.T) {
	f := NewFeed(NewAnalyzer(&scriptedEngine{}, Options{}), func(domain.MoveUpdate) {})
	if err := f.Handle(context.Background(), "fen "+backRankFEN); err != nil {
		t.Fatalf("fen: %v", err)
	}
	if f.Game().StartFEN() != backRankFEN {
		t.Fatalf("start = %q", f.Game().StartFEN())
	}
	if err := f.Handle(context.Background(), "fen nonsense"); err == nil {
		t.Fatalf("bad fen accepted")
	}
	if err := f.Handle(context.Background(), "NEW"); err != nil {
		t.Fatalf("new: %v", err)
	}
	if f.Game().StartFEN() != "" {
		t.Fatalf("new game kept fen")
	}
}

func TestFeedExtraCommand(t *testing.T) {
	eng := &scriptedEngine{}
	var got collected
	f := NewFeed(NewAnalyzer(eng, Options{}), got.sink)

	var calls [][]string
	f.Command("center", func(_ context.Context, args []string) error {
		calls = append(calls, args)
		return nil
	})
	if err := f.Handle(context.Background(), "CENTER now"); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(calls) != 1 || len(calls[0]) != 1 || calls[0][0] != "now" {
		t.Fatalf("calls = %v", calls)
	}
	if eng.calls() != 0 || len(got.updates) != 0 {
		t.Fatalf("command treated as a move")
	}
}
