package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

// AppConfig 는 프로세스 환경변수 설정. 오버레이 외형/라벨은 OverlaySettings(YAML) 참조.
type AppConfig struct {
	SettingsPath string
	Profile      string

	StockfishPath      string
	AnalysisDepth      int
	AnalysisMoveTimeMS int
	AnalysisThreads    int
	AnalysisHashMB     int
	AnalysisMultiPV    int
	AnalysisPoolSize   int

	RedisURL    string
	DatabaseURL string

	CardOutputPath  string
	TerminalOverlay bool
	MessagesDir     string
	Display         string

	RelayHTTPURL string
	RelayWSURL   string
	RelayMode    string
	RelayDryRun  bool
	RelayRoom    string
	RelayToken   string
	// RelayInbound accepts render frames from the relay as producer input.
	RelayInbound bool

	HistoryBuffer  int
	DemoIntervalMS int
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		SettingsPath:     "overlay/overlay_config.yaml",
		Profile:          "default",
		StockfishPath:    "stockfish",
		AnalysisDepth:    16,
		AnalysisThreads:  1,
		AnalysisHashMB:   64,
		AnalysisMultiPV:  2,
		AnalysisPoolSize: 1,
		TerminalOverlay:  true,
		HistoryBuffer:    64,
		DemoIntervalMS:   6000,
	}

	if v := strings.TrimSpace(os.Getenv("OVERLAY_SETTINGS_PATH")); v != "" {
		cfg.SettingsPath = v
	}
	if v := strings.TrimSpace(os.Getenv("OVERLAY_PROFILE")); v != "" {
		cfg.Profile = v
	}

	// Analysis
	if v := strings.TrimSpace(os.Getenv("STOCKFISH_PATH")); v != "" {
		cfg.StockfishPath = v
	}
	cfg.AnalysisDepth = positiveInt("ANALYSIS_DEPTH", cfg.AnalysisDepth)
	cfg.AnalysisMoveTimeMS = positiveInt("ANALYSIS_MOVETIME_MS", cfg.AnalysisMoveTimeMS)
	cfg.AnalysisThreads = positiveInt("ANALYSIS_THREADS", cfg.AnalysisThreads)
	cfg.AnalysisHashMB = positiveInt("ANALYSIS_HASH_MB", cfg.AnalysisHashMB)
	cfg.AnalysisMultiPV = positiveInt("ANALYSIS_MULTIPV", cfg.AnalysisMultiPV)
	cfg.AnalysisPoolSize = positiveInt("ANALYSIS_POOL_SIZE", cfg.AnalysisPoolSize)
	if cfg.AnalysisMultiPV < 2 {
		// 2순위 후보와의 격차로 great 판정
		cfg.AnalysisMultiPV = 2
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	cfg.CardOutputPath = strings.TrimSpace(os.Getenv("CARD_OUTPUT_PATH"))
	if v := strings.TrimSpace(os.Getenv("TERMINAL_OVERLAY")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.TerminalOverlay = b
		}
	}
	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))
	cfg.Display = strings.TrimSpace(os.Getenv("DISPLAY"))

	// Relay
	cfg.RelayHTTPURL = strings.TrimSpace(os.Getenv("RELAY_HTTP_URL"))
	cfg.RelayWSURL = strings.TrimSpace(os.Getenv("RELAY_WS_URL"))
	cfg.RelayMode = strings.ToLower(strings.TrimSpace(os.Getenv("RELAY_MODE")))
	if cfg.RelayMode == "" {
		switch {
		case cfg.RelayWSURL != "" && cfg.RelayHTTPURL != "":
			cfg.RelayMode = "auto"
		case cfg.RelayWSURL != "":
			cfg.RelayMode = "ws"
		case cfg.RelayHTTPURL != "":
			cfg.RelayMode = "http"
		default:
			cfg.RelayMode = "off"
		}
	}
	if v := strings.TrimSpace(os.Getenv("RELAY_DRYRUN")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.RelayDryRun = b
		}
	}
	if v := strings.TrimSpace(os.Getenv("RELAY_ACCEPT_UPDATES")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.RelayInbound = b
		}
	}
	cfg.RelayToken = strings.TrimSpace(os.Getenv("RELAY_TOKEN"))
	cfg.RelayRoom = strings.TrimSpace(os.Getenv("RELAY_ROOM"))
	if cfg.RelayRoom == "" {
		cfg.RelayRoom = cfg.Profile
	}

	cfg.HistoryBuffer = positiveInt("HISTORY_BUFFER", cfg.HistoryBuffer)
	cfg.DemoIntervalMS = positiveInt("DEMO_INTERVAL_MS", cfg.DemoIntervalMS)

	switch cfg.RelayMode {
	case "off":
	case "http":
		if cfg.RelayHTTPURL == "" {
			return nil, errors.New("RELAY_HTTP_URL is required for RELAY_MODE=http")
		}
	case "ws":
		if cfg.RelayWSURL == "" {
			return nil, errors.New("RELAY_WS_URL is required for RELAY_MODE=ws")
		}
	case "auto":
		if cfg.RelayWSURL == "" || cfg.RelayHTTPURL == "" {
			return nil, errors.New("RELAY_WS_URL and RELAY_HTTP_URL are required for RELAY_MODE=auto")
		}
	default:
		return nil, errors.New("RELAY_MODE must be one of off, http, ws, auto")
	}

	return cfg, nil
}

// RelayHeaders returns the per-request headers sent to the relay.
func (c *AppConfig) RelayHeaders() map[string]string {
	h := map[string]string{}
	if c.RelayToken != "" {
		h["Authorization"] = "Bearer " + c.RelayToken
	}
	if c.Profile != "" {
		h["X-Overlay-Profile"] = c.Profile
	}
	return h
}

// RelayEnabled reports whether a relay egress should be built.
func (c *AppConfig) RelayEnabled() bool { return c.RelayMode != "off" }

func positiveInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
