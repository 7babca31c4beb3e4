package obslog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// 전역 로거. 콘솔(stderr)+파일 동시 출력 지원.
// stdout 은 터미널 카드 렌더러가 사용한다.
var (
	mu           sync.RWMutex
	globalLogger = zap.NewNop()
	closeFile    func() error
)

// L는 전역 로거를 반환.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return globalLogger
}

// Set 은 전역 로거를 교체하고 이전 로거로 되돌리는 함수를 반환한다. (테스트용)
func Set(l *zap.Logger) (restore func()) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	prev := globalLogger
	globalLogger = l
	mu.Unlock()
	return func() {
		mu.Lock()
		globalLogger = prev
		mu.Unlock()
	}
}

// Options 는 LOG_* 환경변수에서 읽은 로거 설정.
type Options struct {
	Level     zapcore.Level
	Console   bool
	ToFile    bool
	File      string
	Format    string // legacy|json|console
	Caller    bool
	Color     bool
	ConsoleTo io.Writer
}

// OptionsFromEnv 는 환경변수를 해석한다.
func OptionsFromEnv() Options {
	format := strings.ToLower(strings.TrimSpace(getenvDefault("LOG_FORMAT", "legacy")))
	if format != "legacy" && format != "json" && format != "console" {
		format = "legacy"
	}
	return Options{
		Level:   parseLevel(getenvDefault("LOG_LEVEL", "info")),
		Console: getenvBool("LOG_TO_CONSOLE", true),
		ToFile:  getenvBool("LOG_TO_FILE", true),
		File:    strings.TrimSpace(getenvDefault("LOG_FILE", filepath.Join("logs", "overlay.log"))),
		Format:  format,
		Caller:  getenvBool("LOG_CALLER", false),
		Color:   getenvBool("LOG_COLOR", false),
	}
}

// InitFromEnv는 환경설정으로 전역 zap 로거를 초기화.
func InitFromEnv() error {
	logger, closer, err := New(OptionsFromEnv())
	if err != nil {
		return err
	}
	mu.Lock()
	globalLogger = logger
	closeFile = closer
	mu.Unlock()
	return nil
}

// Sync 는 버퍼를 비우고 로그 파일을 닫는다.
func Sync() error {
	mu.Lock()
	l, c := globalLogger, closeFile
	closeFile = nil
	mu.Unlock()
	_ = l.Sync()
	if c != nil {
		return c()
	}
	return nil
}

// New 는 Options 로 로거를 만든다. closer 는 파일 핸들을 닫는다.
func New(opts Options) (*zap.Logger, func() error, error) {
	var cores []zapcore.Core
	closer := func() error { return nil }

	if opts.Console {
		w := opts.ConsoleTo
		if w == nil {
			w = os.Stderr
		}
		cores = append(cores, zapcore.NewCore(newEncoder(opts.Format, opts.Color), zapcore.AddSync(w), opts.Level))
	}

	if opts.ToFile && opts.File != "" {
		if err := ensureDir(filepath.Dir(opts.File)); err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		closer = f.Close
		// 파일에는 색상 코드를 쓰지 않는다
		cores = append(cores, zapcore.NewCore(newEncoder(opts.Format, false), zapcore.AddSync(f), opts.Level))
	}

	if len(cores) == 0 {
		enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(os.Stderr), opts.Level))
	}

	logger := zap.New(zapcore.NewTee(cores...))
	if opts.Caller || opts.Format == "legacy" {
		logger = logger.WithOptions(zap.AddCaller())
	}
	logger = logger.WithOptions(zap.AddStacktrace(zapcore.ErrorLevel))
	return logger, closer, nil
}

func newEncoder(format string, color bool) zapcore.Encoder {
	switch format {
	case "json":
		return zapcore.NewJSONEncoder(jsonEncoderConfig())
	case "console":
		return zapcore.NewConsoleEncoder(consoleEncoderConfig(color))
	default:
		return zapcore.NewConsoleEncoder(legacyEncoderConfig())
	}
}

func ensureDir(dir string) error {
	if strings.TrimSpace(dir) == "" || dir == "." {
		return nil
	}
	if _, err := os.Stat(dir); err == nil {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvBool(k string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(k)))
	switch v {
	case "":
		return def
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// 인코더 설정들
func legacyEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.ConsoleSeparator = " | "
	return cfg
}

func consoleEncoderConfig(color bool) zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if color {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return cfg
}

func jsonEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	return cfg
}
