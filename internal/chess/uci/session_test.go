package uci

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestParseInfoMultiPV(t *testing.T) {
	pv, c, ok := parseInfo("info depth 18 seldepth 24 multipv 2 score cp -35 nodes 1000 pv e7e5 g1f3 b8c6")
	if !ok || pv != 2 {
		t.Fatalf("parse failed: %v %d", ok, pv)
	}
	if c.Move != "e7e5" || c.EvalCP != -35 || c.Depth != 18 || c.Mate != 0 || len(c.Principal) != 3 {
		t.Fatalf("unexpected candidate %+v", c)
	}

	_, m, ok := parseInfo("info depth 12 score mate -3 pv d8h4")
	if !ok || m.Mate != -3 || m.EvalCP != -(MateScore-3) || !m.IsMate() {
		t.Fatalf("unexpected mate candidate %+v", m)
	}

	if _, _, ok := parseInfo("info string NNUE evaluation using nn.nnue"); ok {
		t.Fatalf("info without pv should be ignored")
	}
}

func TestBuildCommands(t *testing.T) {
	if got := buildPositionCommand("", []string{"e2e4", "e7e5"}); got != "position startpos moves e2e4 e7e5\n" {
		t.Fatalf("position = %q", got)
	}
	fen := "8/8/8/8/8/8/8/K6k w - - 0 1"
	if got := buildPositionCommand(fen, nil); got != "position fen "+fen+"\n" {
		t.Fatalf("position = %q", got)
	}
	toks, err := buildGoTokens(Limits{Depth: 16, MoveTimeMillis: 500}, []string{"g1f3"})
	if err != nil || strings.Join(toks, " ") != "go depth 16 movetime 500 searchmoves g1f3" {
		t.Fatalf("go = %v %v", toks, err)
	}
	if _, err := buildGoTokens(Limits{}, nil); !errors.Is(err, ErrNoLimits) {
		t.Fatalf("expected ErrNoLimits, got %v", err)
	}
	if err := validateOptions(Options{HashMB: 0, MultiPV: 1}); err == nil {
		t.Fatalf("zero hash must be rejected")
	}
}

func TestSessionSearchAgainstFakeEngine(t *testing.T) {
	f := &fakeEngine{
		infos: []string{
			"info depth 10 multipv 1 score cp 40 pv e2e4 e7e5",
			"info depth 10 multipv 2 score cp 20 pv d2d4 d7d5",
			"info depth 12 multipv 1 score cp 45 pv e2e4 c7c5",
		},
		best: "e2e4 ponder c7c5",
	}
	s := startFake(t, f)
	resp, err := s.Search(context.Background(), SearchRequest{Limits: Limits{Depth: 12}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.BestMove != "e2e4" || len(resp.Candidates) != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}
	best, ok := resp.Best()
	if !ok || best.EvalCP != 45 || best.Depth != 12 {
		t.Fatalf("latest info line should win: %+v", best)
	}
	if resp.Candidates[1].Move != "d2d4" {
		t.Fatalf("second line = %+v", resp.Candidates[1])
	}

	got := strings.Join(f.Received(), "\n")
	for _, want := range []string{"setoption name MultiPV value 2", "position startpos", "go depth 12"} {
		if !strings.Contains(got, want) {
			t.Fatalf("engine never received %q:\n%s", want, got)
		}
	}
}

func TestSessionNoLegalMoves(t *testing.T) {
	f := &fakeEngine{best: "(none)"}
	s := startFake(t, f)
	resp, err := s.Search(context.Background(), SearchRequest{FEN: "k7/8/1Q6/8/8/8/8/K7 b - - 0 1", Limits: Limits{Depth: 1}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.BestMove != "" || len(resp.Candidates) != 0 {
		t.Fatalf("expected empty response, got %+v", resp)
	}
}

func TestMateIn(t *testing.T) {
	cases := []struct {
		cp   int
		want int
		ok   bool
	}{
		{MateScore - 2, 2, true},
		{-(MateScore - 5), -5, true},
		{-MateScore, 0, true},
		{350, 0, false},
		{-1200, 0, false},
	}
	for _, tc := range cases {
		got, ok := MateIn(tc.cp)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("MateIn(%d) = %d %v, want %d %v", tc.cp, got, ok, tc.want, tc.ok)
		}
	}
}
