package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/park285/cheese-overlay/internal/analysis"
	"github.com/park285/cheese-overlay/internal/domain"
	"github.com/park285/cheese-overlay/internal/obslog"
	"github.com/park285/cheese-overlay/internal/overlay"
	"github.com/park285/cheese-overlay/internal/overlaybuilder"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Analyse moves read from stdin",
	Long: `Reads one command per line from stdin:
  e4 e5 Nf3 | e2e4                 moves in SAN or UCI
  new | fen <FEN> | undo
  show <label> <best> [opponent]   display without analysis
  center                           move the overlay to the screen centre`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOverlay(false)
	},
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Show the sample annotations one after another",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if d, _ := cmd.Flags().GetDuration("interval"); d > 0 {
			appCfg.DemoIntervalMS = int(d / time.Millisecond)
		}
		return runOverlay(true)
	},
}

func init() {
	rootCmd.AddCommand(runCmd, demoCmd)
	demoCmd.Flags().Duration("interval", 0, "delay between samples (default $DEMO_INTERVAL_MS)")
}

func runOverlay(demo bool) error {
	logger := obslog.L()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := overlaybuilder.New(ctx, appCfg, settings, logger, os.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := deps.Close(cctx); err != nil {
			logger.Warn("overlay_close_failed", zap.Error(err))
		}
	}()

	loop := overlay.DefaultLoop()

	var produce func(ctx context.Context) error
	if demo {
		interval := time.Duration(appCfg.DemoIntervalMS) * time.Millisecond
		produce = func(ctx context.Context) error { return runDemo(ctx, interval) }
	} else {
		analyzer, engine, err := overlaybuilder.NewAnalyzer(appCfg, settings)
		if err != nil {
			return err
		}
		defer func() { _ = engine.Close() }()
		feed := analysis.NewFeed(analyzer, overlay.DispatchData)
		feed.Command("center", func(ctx context.Context, _ []string) error {
			return loop.Do(ctx, func(*overlay.Owner) error { return deps.ResetPosition() })
		})
		produce = func(ctx context.Context) error { return feed.Run(ctx, os.Stdin) }
	}

	bound := make(chan error, 1)
	if err := loop.Post(func(o *overlay.Owner) { bound <- deps.Bind(ctx, o) }); err != nil {
		return err
	}

	// producer
	go func() {
		if err := <-bound; err != nil {
			logger.Error("overlay_bind_failed", zap.Error(err))
			stop()
			return
		}
		if err := produce(ctx); err != nil {
			logger.Warn("producer_stopped", zap.Error(err))
		}
		if ctx.Err() != nil {
			return
		}
		// 마지막 카드가 자동으로 숨겨질 때까지 대기
		select {
		case <-ctx.Done():
		case <-time.After(settings.AutoHideDelay() + 500*time.Millisecond):
		}
		stop()
	}()

	logger.Info("overlay_started",
		zap.Bool("demo", demo),
		zap.Duration("auto_hide", settings.AutoHideDelay()),
		zap.String("language", settings.Language))
	err = loop.Run(ctx)
	st := overlay.Default().Stats()
	logger.Info("overlay_stopped",
		zap.Uint64("queued", st.Queued),
		zap.Uint64("filtered", st.Filtered),
		zap.Uint64("dropped", st.Dropped))
	return err
}

type sample struct {
	label    domain.MoveQuality
	best     string
	opponent string
}

var demoMoves = []sample{
	{domain.QualityBrilliant, "Nxe5", "Qd4"},
	{domain.QualityBest, "e4", "Nc6"},
	{domain.QualityExcellent, "Bc4", "Bb4"},
	{domain.QualityGood, "O-O", "d5"},
	{domain.QualityInaccuracy, "Qh5", "Nf6"},
	{domain.QualityMistake, "f3", "Qh4+"},
	{domain.QualityBlunder, "Ke2", "Qxf2#"},
	{domain.QualityForced, "Kg1", ""},
}

func runDemo(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for i, s := range demoMoves {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
			}
		}
		var opts []domain.MoveOption
		if s.opponent != "" {
			opts = append(opts, domain.WithOpponentMove(s.opponent))
		}
		u, err := domain.NewMoveUpdate(s.label, s.best, opts...)
		if err != nil {
			return err
		}
		overlay.DispatchData(u)
	}
	return nil
}
