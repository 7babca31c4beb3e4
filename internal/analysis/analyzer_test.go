package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/park285/cheese-overlay/internal/chess"
	"github.com/park285/cheese-overlay/internal/chess/uci"
	"github.com/park285/cheese-overlay/internal/domain"
)

// scriptedEngine answers searches in call order.
type scriptedEngine struct {
	mu      sync.Mutex
	answers []chess.AnalyseResult
	err     error
	reqs    []chess.AnalyseRequest
}

func (e *scriptedEngine) Analyse(_ context.Context, req chess.AnalyseRequest) (chess.AnalyseResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reqs = append(e.reqs, req)
	if e.err != nil {
		return chess.AnalyseResult{}, e.err
	}
	if len(e.answers) == 0 {
		return chess.AnalyseResult{}, nil
	}
	res := e.answers[0]
	e.answers = e.answers[1:]
	return res, nil
}

func (e *scriptedEngine) calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.reqs)
}

func lines(c ...uci.Candidate) chess.AnalyseResult { return chess.AnalyseResult{Candidates: c} }

// back-rank mate available with Rd8#
const backRankFEN = "6k1/5ppp/8/8/8/8/5PPP/3R2K1 w - - 0 1"

func TestAnalyzeMissedMate(t *testing.T) {
	eng := &scriptedEngine{answers: []chess.AnalyseResult{
		lines(
			uci.Candidate{Move: "d1d8", Mate: 1, EvalCP: uci.MateScore - 1, Depth: 20},
			uci.Candidate{Move: "g1f1", EvalCP: 10, Depth: 20},
		),
		lines(uci.Candidate{Move: "g8f8", EvalCP: -10, Depth: 18}),
	}}
	g, err := NewGameFromFEN(backRankFEN)
	if err != nil {
		t.Fatalf("NewGameFromFEN: %v", err)
	}
	a := NewAnalyzer(eng, Options{})

	res, err := a.AnalyzeMove(context.Background(), g, "Kf1")
	if err != nil {
		t.Fatalf("AnalyzeMove: %v", err)
	}
	if res.Update.Label() != domain.QualityMiss {
		t.Fatalf("label = %s, verdict %+v", res.Update.Label(), res.Verdict)
	}
	if !strings.HasPrefix(res.Update.BestMove(), "Rd8") {
		t.Fatalf("best = %q", res.Update.BestMove())
	}
	if opp, ok := res.Update.OpponentMove(); !ok || opp != "Kf8" {
		t.Fatalf("opponent = %q %v", opp, ok)
	}
	if cp, ok := res.Update.EvaluationCP(); !ok || cp != 10 {
		t.Fatalf("eval = %d %v", cp, ok)
	}
	if d, ok := res.Update.Depth(); !ok || d != 18 {
		t.Fatalf("depth = %d %v", d, ok)
	}
	if g.Ply() != 1 || res.Played != "g1f1" {
		t.Fatalf("game not advanced: ply=%d played=%s", g.Ply(), res.Played)
	}
	if eng.calls() != 2 {
		t.Fatalf("engine calls = %d", eng.calls())
	}
}

func TestAnalyzePlayedBestUCI(t *testing.T) {
	eng := &scriptedEngine{answers: []chess.AnalyseResult{
		lines(
			uci.Candidate{Move: "d1d8", Mate: 1, EvalCP: uci.MateScore - 1},
			uci.Candidate{Move: "g1f1", EvalCP: 10},
		),
	}}
	g, _ := NewGameFromFEN(backRankFEN)
	a := NewAnalyzer(eng, Options{Notation: "uci"})

	res, err := a.AnalyzeMove(context.Background(), g, "d1d8")
	if err != nil {
		t.Fatalf("AnalyzeMove: %v", err)
	}
	// mate ends the game, so only the first search runs
	if eng.calls() != 1 {
		t.Fatalf("engine calls = %d", eng.calls())
	}
	if res.Update.Label() != domain.QualityBest && res.Update.Label() != domain.QualityGreat {
		t.Fatalf("label = %s", res.Update.Label())
	}
	if res.Update.BestMove() != "d1d8" {
		t.Fatalf("best = %q", res.Update.BestMove())
	}
	if _, ok := res.Update.OpponentMove(); ok {
		t.Fatalf("no reply after mate")
	}
	if !g.Over() {
		t.Fatalf("game should be over")
	}
	if _, err := a.AnalyzeMove(context.Background(), g, "Kf8"); !errors.Is(err, ErrGameOver) {
		t.Fatalf("err = %v", err)
	}
}

func TestAnalyzeForcedSkipsFirstSearch(t *testing.T) {
	eng := &scriptedEngine{answers: []chess.AnalyseResult{
		lines(uci.Candidate{Move: "h7h5", EvalCP: 300, Depth: 12}),
	}}
	// Kxb2 is white's only legal move
	g, _ := NewGameFromFEN("k7/7p/8/8/8/8/1r6/K7 w - - 0 1")
	a := NewAnalyzer(eng, Options{})

	res, err := a.AnalyzeMove(context.Background(), g, "a1b2")
	if err != nil {
		t.Fatalf("AnalyzeMove: %v", err)
	}
	if res.Update.Label() != domain.QualityForced {
		t.Fatalf("label = %s", res.Update.Label())
	}
	if res.Update.BestMove() != "Kxb2" {
		t.Fatalf("best = %q", res.Update.BestMove())
	}
	if cp, _ := res.Update.EvaluationCP(); cp != -300 {
		t.Fatalf("eval = %d", cp)
	}
	if eng.calls() != 1 {
		t.Fatalf("engine calls = %d", eng.calls())
	}
}

func TestAnalyzeBookMove(t *testing.T) {
	eng := &scriptedEngine{answers: []chess.AnalyseResult{
		lines(uci.Candidate{Move: "e7e5", EvalCP: -30, Depth: 14}),
	}}
	g := NewGame()
	a := NewAnalyzer(eng, Options{})

	res, err := a.AnalyzeMove(context.Background(), g, "e4")
	if err != nil {
		t.Fatalf("AnalyzeMove: %v", err)
	}
	if res.Update.Label() != domain.QualityTheory {
		t.Fatalf("label = %s", res.Update.Label())
	}
	if res.Update.BestMove() != "e4" {
		t.Fatalf("best = %q", res.Update.BestMove())
	}
}

func TestAnalyzeEngineFailureLeavesGame(t *testing.T) {
	boom := errors.New("engine crashed")
	eng := &scriptedEngine{err: boom}
	g, _ := NewGameFromFEN(backRankFEN)
	a := NewAnalyzer(eng, Options{})

	_, err := a.AnalyzeMove(context.Background(), g, "Kf1")
	if !errors.Is(err, ErrEngineUnavailable) {
		t.Fatalf("err = %v", err)
	}
	if g.Ply() != 0 {
		t.Fatalf("game advanced on failure")
	}
}

func TestAnalyzeRejectsIllegal(t *testing.T) {
	eng := &scriptedEngine{}
	a := NewAnalyzer(eng, Options{})
	if _, err := a.AnalyzeMove(context.Background(), NewGame(), "Ke2"); !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("err = %v", err)
	}
	if eng.calls() != 0 {
		t.Fatalf("engine called for an illegal move")
	}
}

func TestAnalyzeEngineErrorKeepsCause(t *testing.T) {
	cases := []struct {
		name string
		fen  string
		move string
	}{
		{"best move search", backRankFEN, "Kf1"},
		// book move: only the reply is searched
		{"reply search", "", "e4"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := NewGame()
			if tc.fen != "" {
				var err error
				if g, err = NewGameFromFEN(tc.fen); err != nil {
					t.Fatalf("fen: %v", err)
				}
			}
			eng := &scriptedEngine{err: context.DeadlineExceeded}
			_, err := NewAnalyzer(eng, Options{}).AnalyzeMove(context.Background(), g, tc.move)
			if !errors.Is(err, ErrEngineUnavailable) || !errors.Is(err, context.DeadlineExceeded) {
				t.Fatalf("err = %v", err)
			}
			if eng.calls() != 1 {
				t.Fatalf("engine calls = %d", eng.calls())
			}
		})
	}
}
