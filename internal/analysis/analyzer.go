package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"go.uber.org/zap"

	"github.com/park285/cheese-overlay/internal/chess"
	"github.com/park285/cheese-overlay/internal/chess/uci"
	"github.com/park285/cheese-overlay/internal/domain"
	"github.com/park285/cheese-overlay/internal/obslog"
)

var ErrEngineUnavailable = errors.New("engine unavailable")

// Evaluator is the engine surface the analyzer needs.
type Evaluator interface {
	Analyse(ctx context.Context, req chess.AnalyseRequest) (chess.AnalyseResult, error)
}

type Options struct {
	// Notation is "san" or "uci".
	Notation   string
	Thresholds Thresholds
	// BookMaxPly bounds theory detection; negative disables it.
	BookMaxPly int
}

type Analyzer struct {
	engine Evaluator
	opts   Options
	logger *zap.Logger
}

func NewAnalyzer(engine Evaluator, opts Options) *Analyzer {
	if opts.Notation != "uci" {
		opts.Notation = "san"
	}
	if opts.Thresholds == (Thresholds{}) {
		opts.Thresholds = DefaultThresholds()
	}
	if opts.BookMaxPly == 0 {
		opts.BookMaxPly = 24
	}
	return &Analyzer{engine: engine, opts: opts, logger: obslog.L().Named("analysis")}
}

// Result is one annotated move.
type Result struct {
	Update  domain.MoveUpdate
	Played  string
	Verdict Verdict
}

// AnalyzeMove classifies playedText (SAN or UCI) in g's current position and
// plays it on g when the analysis succeeds.
func (a *Analyzer) AnalyzeMove(ctx context.Context, g *Game, playedText string) (Result, error) {
	if g.Over() {
		return Result{}, ErrGameOver
	}
	mv, err := g.Decode(playedText)
	if err != nil {
		return Result{}, err
	}
	before := g.Position()
	mover := before.Turn()
	playedUCI := strings.ToLower(nchess.UCINotation{}.Encode(before, mv))

	v := Verdict{
		LegalMoves: len(before.ValidMoves()),
		BookMove:   g.isBookMove(mv, a.opts.BookMaxPly),
	}

	bestUCI := playedUCI
	if v.LegalMoves > 1 && !v.BookMove {
		res, err := a.engine.Analyse(ctx, chess.AnalyseRequest{FEN: g.StartFEN(), Moves: g.MovesUCI()})
		if err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrEngineUnavailable, err)
		}
		if len(res.Candidates) > 0 {
			best := res.Candidates[0]
			bestUCI = best.Move
			v.BestEval = best.EvalCP
			v.BestMate = best.Mate
			if len(res.Candidates) > 1 {
				v.SecondEval = res.Candidates[1].EvalCP
				v.HasSecond = true
			}
			v.PlayedBest = strings.EqualFold(best.Move, playedUCI)
			if v.PlayedBest {
				v.MaterialGiven = materialGiven(before, mover, best.Principal)
			}
		}
	}

	after := g.Clone()
	if _, err := after.Push(mv); err != nil {
		return Result{}, err
	}

	var (
		reply      uci.Candidate
		haveReply  bool
		afterDepth int
	)
	if !after.Over() {
		res, err := a.engine.Analyse(ctx, chess.AnalyseRequest{FEN: after.StartFEN(), Moves: after.MovesUCI()})
		if err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrEngineUnavailable, err)
		}
		if len(res.Candidates) > 0 {
			reply = res.Candidates[0]
			haveReply = true
			afterDepth = reply.Depth
			// 상대 관점 점수를 두는 쪽 관점으로
			v.PlayedEval = -reply.EvalCP
		}
	} else {
		v.PlayedEval = terminalEval(after)
	}
	if v.LegalMoves <= 1 || v.BookMove {
		v.BestEval = v.PlayedEval
	}

	label := Classify(v, a.opts.Thresholds)

	opts := []domain.MoveOption{domain.WithEvaluation(v.PlayedEval)}
	if haveReply {
		opts = append(opts, domain.WithOpponentMove(Notation(after.Position(), reply.Move, a.opts.Notation)))
	}
	if afterDepth > 0 {
		opts = append(opts, domain.WithDepth(afterDepth))
	}
	u, err := domain.NewMoveUpdate(label, Notation(before, bestUCI, a.opts.Notation), opts...)
	if err != nil {
		return Result{}, err
	}

	*g = *after
	a.logger.Debug("move_classified",
		zap.Int("ply", g.Ply()),
		zap.String("played", playedUCI),
		zap.String("best", bestUCI),
		zap.String("label", label.String()),
		zap.Int("loss", v.Loss()))
	return Result{Update: u, Played: playedUCI, Verdict: v}, nil
}

// terminalEval scores a finished game from the side that just moved.
func terminalEval(g *Game) int {
	switch g.game.Method() {
	case nchess.Checkmate:
		return uci.MateScore
	default:
		return 0
	}
}
