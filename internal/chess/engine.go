package chess

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-overlay/internal/chess/uci"
	"github.com/park285/cheese-overlay/internal/obslog"
)

var ErrNoCandidates = errors.New("engine returned no candidates")

type EngineConfig struct {
	BinaryPath string
	Threads    int
	HashMB     int
	MultiPV    int
	PoolSize   int
	Limits     uci.Limits
}

// Engine runs full-strength searches on pooled uci sessions.
type Engine struct {
	pool   *uci.Pool
	limits uci.Limits
	logger *zap.Logger
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	pool, err := uci.NewPool(uci.PoolConfig{
		BinaryPath: cfg.BinaryPath,
		Options:    uci.Options{Threads: cfg.Threads, HashMB: cfg.HashMB, MultiPV: cfg.MultiPV},
		Capacity:   cfg.PoolSize,
	})
	if err != nil {
		return nil, err
	}
	return NewEngineWithPool(pool, cfg.Limits), nil
}

func NewEngineWithPool(pool *uci.Pool, limits uci.Limits) *Engine {
	if limits.Depth <= 0 && limits.MoveTimeMillis <= 0 && limits.NodeCap <= 0 {
		limits.Depth = 16
	}
	return &Engine{pool: pool, limits: limits, logger: obslog.L().Named("engine")}
}

type AnalyseRequest struct {
	FEN         string
	Moves       []string
	SearchMoves []string
}

type AnalyseResult struct {
	Candidates []uci.Candidate
	BestMove   string
	Duration   time.Duration
}

// Analyse searches the position reached by FEN+Moves.
func (e *Engine) Analyse(ctx context.Context, req AnalyseRequest) (AnalyseResult, error) {
	session, err := e.pool.Acquire(ctx)
	if err != nil {
		return AnalyseResult{}, fmt.Errorf("acquire engine: %w", err)
	}
	var releaseErr error
	defer func() { e.pool.Release(session, releaseErr) }()

	start := time.Now()
	resp, err := session.Search(ctx, uci.SearchRequest{
		FEN:         req.FEN,
		Moves:       req.Moves,
		Limits:      e.limits,
		SearchMoves: req.SearchMoves,
	})
	if err != nil {
		releaseErr = err
		return AnalyseResult{}, err
	}
	dur := time.Since(start)
	e.logger.Debug("engine_search_done",
		zap.Int("plies", len(req.Moves)),
		zap.Int("lines", len(resp.Candidates)),
		zap.Duration("took", dur))

	if len(resp.Candidates) == 0 && resp.BestMove != "" {
		return AnalyseResult{}, ErrNoCandidates
	}
	return AnalyseResult{Candidates: resp.Candidates, BestMove: resp.BestMove, Duration: dur}, nil
}

// NewGame clears the hash of one pooled session.
func (e *Engine) NewGame(ctx context.Context) error {
	session, err := e.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	err = session.NewGame(ctx)
	e.pool.Release(session, err)
	return err
}

func (e *Engine) Close() error {
	if e.pool == nil {
		return nil
	}
	return e.pool.Close()
}
