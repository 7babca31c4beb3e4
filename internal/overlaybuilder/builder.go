package overlaybuilder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-overlay/internal/analysis"
	corechess "github.com/park285/cheese-overlay/internal/chess"
	"github.com/park285/cheese-overlay/internal/chess/uci"
	"github.com/park285/cheese-overlay/internal/config"
	"github.com/park285/cheese-overlay/internal/domain"
	"github.com/park285/cheese-overlay/internal/history"
	"github.com/park285/cheese-overlay/internal/msgcat"
	"github.com/park285/cheese-overlay/internal/overlay"
	"github.com/park285/cheese-overlay/internal/placement"
	"github.com/park285/cheese-overlay/internal/relay"
	"github.com/park285/cheese-overlay/internal/render"
	"github.com/park285/cheese-overlay/internal/render/card"
	"github.com/park285/cheese-overlay/internal/render/term"
	"github.com/park285/cheese-overlay/internal/screen"
	"github.com/park285/cheese-overlay/pkg/overlaydto"
)

// Deps holds every collaborator around the overlay core.
type Deps struct {
	Settings *config.OverlaySettings
	Catalog  *msgcat.Catalog
	Views    *render.ViewBuilder
	Sink     *render.Multi

	Card     *card.Card
	Terminal *term.Terminal
	Relay    *relay.Renderer
	RelayWS  *relay.WebSocket
	Recorder *history.Recorder
	History  history.Repository

	DB *sql.DB
	// Store is Positions over the redis/settings chain.
	Store     placement.Store
	Positions *placement.AsyncStore
	Redis     *placement.RedisStore
	Screen screen.Provider

	Overlay *overlay.Overlay
	Tracker *placement.Tracker

	cfg    *config.AppConfig
	logger *zap.Logger
}

// New wires renderers, persistence and relay from cfg. Nothing touches the ui
// loop until Bind.
func New(ctx context.Context, cfg *config.AppConfig, settings *config.OverlaySettings, logger *zap.Logger, stdout io.Writer) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if settings == nil {
		settings = config.DefaultSettings()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Deps{Settings: settings, cfg: cfg, logger: logger}

	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	if len(settings.Labels) > 0 {
		cat.Override(settings.Language, settings.Labels)
	}
	d.Catalog = cat
	d.Views = render.NewViewBuilder(cat, settings)

	var targets []render.Target
	if strings.TrimSpace(cfg.CardOutputPath) != "" {
		c, err := card.New(cfg.CardOutputPath, d.Views, card.WithLogger(logger.Named("card")))
		if err != nil {
			return nil, fmt.Errorf("init card: %w", err)
		}
		d.Card = c
		targets = append(targets, c)
	}
	if cfg.TerminalOverlay && stdout != nil {
		d.Terminal = term.New(stdout, d.Views)
		targets = append(targets, d.Terminal)
	}

	if cfg.RelayEnabled() {
		if err := d.initRelay(ctx); err != nil {
			_ = d.Close(ctx)
			return nil, err
		}
		targets = append(targets, d.Relay)
	}

	// History (Postgres optional, in-memory otherwise)
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		db, err := history.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			_ = d.Close(ctx)
			return nil, err
		}
		d.DB = db
		if err := history.Migrate(ctx, db); err != nil {
			_ = d.Close(ctx)
			return nil, fmt.Errorf("migrate history: %w", err)
		}
		d.History = history.NewRepository(db)
	} else {
		d.History = history.NewMemoryRepository()
	}
	d.Recorder = history.NewRecorder(d.History,
		history.WithBuffer(cfg.HistoryBuffer),
		history.WithRecorderLogger(logger.Named("history")))
	targets = append(targets, d.Recorder)

	store, rs, err := NewPositionStore(ctx, cfg, settings)
	if err != nil {
		_ = d.Close(ctx)
		return nil, err
	}
	d.Redis = rs
	d.Positions = placement.NewAsyncStore(store, placement.WithAsyncLogger(logger.Named("placement")))
	d.Store = d.Positions
	d.Screen = screen.Default(cfg.Display)

	d.Sink = render.NewMulti(targets...)
	logger.Info("overlay_deps_ready",
		zap.Int("targets", d.Sink.Len()),
		zap.Bool("card", d.Card != nil),
		zap.Bool("terminal", d.Terminal != nil),
		zap.String("relay_mode", cfg.RelayMode),
		zap.Bool("postgres", d.DB != nil),
		zap.Bool("redis", d.Redis != nil))
	return d, nil
}

func (d *Deps) initRelay(ctx context.Context) error {
	cfg := d.cfg
	var client *relay.Client
	if cfg.RelayHTTPURL != "" {
		client = relay.NewClient(cfg.RelayHTTPURL, relay.WithHeaderProvider(cfg.RelayHeaders))
	}
	if cfg.RelayWSURL != "" {
		d.RelayWS = relay.NewWebSocket(cfg.RelayWSURL, 5, time.Second)
		d.RelayWS.SetHeaderProvider(cfg.RelayHeaders)
		d.RelayWS.OnStateChange(func(state relay.WebSocketState) {
			d.logger.Info("relay_ws_state", zap.String("state", state.String()))
		})
		if !cfg.RelayDryRun {
			cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := d.RelayWS.Connect(cctx)
			cancel()
			if err != nil {
				if cfg.RelayMode == relay.ModeWS {
					return fmt.Errorf("relay ws connect: %w", err)
				}
				d.logger.Warn("relay_ws_connect_failed", zap.Error(err))
			}
		}
	}
	egress := relay.NewEgress(cfg.RelayMode, cfg.RelayDryRun, client, d.RelayWS, d.logger.Named("relay"))
	d.Relay = relay.NewRenderer(egress, cfg.RelayRoom,
		relay.WithViews(d.Views),
		relay.WithRendererLogger(d.logger.Named("relay")))
	return nil
}

// NewPositionStore chains the shared redis store (when REDIS_URL is set) in
// front of the settings file. The returned RedisStore may be nil.
func NewPositionStore(ctx context.Context, cfg *config.AppConfig, settings *config.OverlaySettings) (placement.Store, *placement.RedisStore, error) {
	chain := placement.Chain{}
	var rs *placement.RedisStore
	if strings.TrimSpace(cfg.RedisURL) != "" {
		var err error
		rs, err = placement.NewRedisStoreFromURL(ctx, cfg.RedisURL, cfg.Profile)
		if err != nil {
			return nil, nil, fmt.Errorf("init placement store: %w", err)
		}
		chain = append(chain, rs)
	}
	chain = append(chain, placement.NewSettingsStore(cfg.SettingsPath, settings))
	return chain, rs, nil
}

// Bind builds the overlay and placement tracker and binds the process
// dispatcher. It must run inside a DefaultLoop task.
func (d *Deps) Bind(ctx context.Context, o *overlay.Owner) error {
	ov := overlay.NewOverlay(o.Loop(), d.Sink, d.Settings.AutoHideDelay(),
		overlay.WithAutoHideLogger(d.logger.Named("autohide")))
	if err := overlay.InitDispatcher(o, ov); err != nil {
		return err
	}
	overlay.Default().SetLabelFilter(d.Settings.LabelEnabled)
	d.Overlay = ov

	d.Tracker = placement.NewTracker(d.Settings.Position(), d.Store,
		placement.WithLocked(d.Settings.LockPosition),
		placement.WithLogger(d.logger.Named("placement")),
		placement.WithApply(d.moved))
	if err := d.Tracker.Restore(ctx); err != nil {
		d.logger.Warn("position_restore_failed", zap.Error(err))
	}

	if d.RelayWS != nil {
		loop := o.Loop()
		in := relay.Inbound{
			Room:   d.cfg.RelayRoom,
			Self:   relay.Origin(),
			Logger: d.logger.Named("relay_inbound"),
			OnDrag: func(g overlaydto.Drag) {
				_ = loop.Post(func(*overlay.Owner) {
					if err := d.Tracker.Apply(g.Phase, g.X, g.Y); err != nil {
						d.logger.Debug("relay_drag_rejected", zap.Error(err))
					}
				})
			},
		}
		if d.cfg.RelayInbound {
			in.OnUpdate = overlay.DispatchData
		}
		d.RelayWS.OnFrame(in.Handle)
	}
	return nil
}

// moved forwards a new overlay position to the remote surface. Loop only.
func (d *Deps) moved(p domain.OverlayPosition) {
	d.logger.Debug("overlay_moved", zap.Int("x", p.X), zap.Int("y", p.Y))
	if d.Relay == nil {
		return
	}
	if err := d.Relay.Move(p); err != nil {
		d.logger.Debug("overlay_move_not_sent", zap.Error(err))
	}
}

// FlushPositions waits for queued position saves to reach redis and the
// settings file.
func (d *Deps) FlushPositions(ctx context.Context) error {
	if d.Positions == nil {
		return nil
	}
	return d.Positions.Flush(ctx)
}

// ResetPosition centres the overlay on the current screen. Loop only.
func (d *Deps) ResetPosition() error {
	if d.Tracker == nil {
		return fmt.Errorf("overlay not bound")
	}
	sz, err := d.Screen.Size()
	if err != nil {
		return err
	}
	return d.Tracker.ResetToCenter(sz.Width, sz.Height, d.Settings.OverlayWidth, d.Settings.OverlayHeight)
}

// Close flushes background writers and releases connections.
func (d *Deps) Close(ctx context.Context) error {
	var errs []error
	if d.Relay != nil {
		errs = append(errs, d.Relay.Close(ctx))
	}
	if d.RelayWS != nil {
		errs = append(errs, d.RelayWS.Close(ctx))
	}
	if d.Recorder != nil {
		errs = append(errs, d.Recorder.Close(ctx))
	}
	if d.Positions != nil {
		errs = append(errs, d.Positions.Close(ctx))
	}
	if d.Redis != nil {
		errs = append(errs, d.Redis.Close())
	}
	if d.DB != nil {
		errs = append(errs, d.DB.Close())
	}
	return errors.Join(errs...)
}

// NewAnalyzer starts the engine pool and the move classifier on top of it.
func NewAnalyzer(cfg *config.AppConfig, settings *config.OverlaySettings) (*analysis.Analyzer, *corechess.Engine, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("nil config")
	}
	if strings.TrimSpace(cfg.StockfishPath) == "" {
		return nil, nil, fmt.Errorf("STOCKFISH_PATH is required for analysis")
	}
	engine, err := corechess.NewEngine(corechess.EngineConfig{
		BinaryPath: cfg.StockfishPath,
		Threads:    cfg.AnalysisThreads,
		HashMB:     cfg.AnalysisHashMB,
		MultiPV:    cfg.AnalysisMultiPV,
		PoolSize:   cfg.AnalysisPoolSize,
		Limits:     uci.Limits{Depth: cfg.AnalysisDepth, MoveTimeMillis: cfg.AnalysisMoveTimeMS},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init engine: %w", err)
	}
	notation := "san"
	if settings != nil {
		notation = settings.MoveNotation
	}
	return analysis.NewAnalyzer(engine, analysis.Options{Notation: notation}), engine, nil
}
