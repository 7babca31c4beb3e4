package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/park285/cheese-overlay/internal/domain"
)

var (
	ErrInvalidSettings = errors.New("invalid overlay settings")
	ErrUnknownKey      = errors.New("unknown settings key")
)

// OverlaySettings 는 사용자가 편집하는 오버레이 설정 파일(YAML).
type OverlaySettings struct {
	// Appearance
	IconSize       int     `yaml:"icon_size"`
	FontSize       int     `yaml:"font_size"`
	OverlayWidth   int     `yaml:"overlay_width"`
	OverlayHeight  int     `yaml:"overlay_height"`
	Opacity        float64 `yaml:"opacity"`
	AnimationSpeed float64 `yaml:"animation_speed"`

	// Positioning
	PositionX    int  `yaml:"position_x"`
	PositionY    int  `yaml:"position_y"`
	LockPosition bool `yaml:"lock_position"`
	AlwaysOnTop  bool `yaml:"always_on_top"`

	// Display
	ShowBestMove     bool `yaml:"show_best_move"`
	ShowOpponentBest bool `yaml:"show_opponent_best"`
	ShowEvaluation   bool `yaml:"show_evaluation"`
	AutoHideDelayMS  int  `yaml:"auto_hide_delay"`

	Language     string `yaml:"language"`
	MoveNotation string `yaml:"move_notation"`

	// Labels overrides the catalog caption per key (brilliant, engine_suggests, ...).
	Labels        map[string]string `yaml:"labels,omitempty"`
	EnabledLabels map[string]bool   `yaml:"enabled_labels"`

	AllowedCountries []string `yaml:"allowed_countries"`
	BlockedCountries []string `yaml:"blocked_countries"`
	ShowCountryFlags bool     `yaml:"show_country_flags"`

	Theme          string `yaml:"theme"`
	BlurBackground bool   `yaml:"blur_background"`
	EnableSound    bool   `yaml:"enable_sound"`
}

func DefaultSettings() *OverlaySettings {
	enabled := make(map[string]bool)
	for _, q := range domain.AllQualities() {
		enabled[string(q)] = true
	}
	return &OverlaySettings{
		IconSize:         32,
		FontSize:         16,
		OverlayWidth:     400,
		OverlayHeight:    250,
		Opacity:          0.95,
		AnimationSpeed:   1.0,
		PositionX:        100,
		PositionY:        100,
		AlwaysOnTop:      true,
		ShowBestMove:     true,
		ShowOpponentBest: true,
		ShowEvaluation:   true,
		AutoHideDelayMS:  5000,
		Language:         "en",
		MoveNotation:     "san",
		EnabledLabels:    enabled,
		AllowedCountries: []string{},
		BlockedCountries: []string{},
		ShowCountryFlags: true,
		Theme:            "dark",
		BlurBackground:   true,
	}
}

// Validate enforces the editable ranges.
func (s *OverlaySettings) Validate() error {
	switch {
	case s.IconSize < 16 || s.IconSize > 64:
		return fmt.Errorf("%w: icon_size must be between 16 and 64", ErrInvalidSettings)
	case s.FontSize < 10 || s.FontSize > 32:
		return fmt.Errorf("%w: font_size must be between 10 and 32", ErrInvalidSettings)
	case s.OverlayWidth < 300 || s.OverlayWidth > 800:
		return fmt.Errorf("%w: overlay_width must be between 300 and 800", ErrInvalidSettings)
	case s.OverlayHeight < 200 || s.OverlayHeight > 600:
		return fmt.Errorf("%w: overlay_height must be between 200 and 600", ErrInvalidSettings)
	case s.Opacity < 0 || s.Opacity > 1:
		return fmt.Errorf("%w: opacity must be between 0.0 and 1.0", ErrInvalidSettings)
	case s.AnimationSpeed < 0.5 || s.AnimationSpeed > 2:
		return fmt.Errorf("%w: animation_speed must be between 0.5 and 2.0", ErrInvalidSettings)
	case s.AutoHideDelayMS < 0:
		return fmt.Errorf("%w: auto_hide_delay must not be negative", ErrInvalidSettings)
	}
	switch s.Theme {
	case "dark", "light", "transparent":
	default:
		return fmt.Errorf("%w: theme must be 'dark', 'light', or 'transparent'", ErrInvalidSettings)
	}
	switch s.MoveNotation {
	case "san", "uci":
	default:
		return fmt.Errorf("%w: move_notation must be 'san' or 'uci'", ErrInvalidSettings)
	}
	return nil
}

// LoadSettings never returns nil settings. A missing file is created with
// defaults; an unreadable or invalid file yields defaults and the error.
func LoadSettings(path string) (*OverlaySettings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		s := DefaultSettings()
		if err := s.Save(path); err != nil {
			return s, err
		}
		return s, nil
	}
	if err != nil {
		return DefaultSettings(), fmt.Errorf("read settings: %w", err)
	}

	s := DefaultSettings()
	// enabled_labels 가 파일에 있으면 그대로 사용 (없는 라벨은 비활성)
	s.EnabledLabels = nil
	if err := yaml.Unmarshal(data, s); err != nil {
		return DefaultSettings(), fmt.Errorf("parse settings: %w", err)
	}
	if s.EnabledLabels == nil {
		s.EnabledLabels = DefaultSettings().EnabledLabels
	}
	if err := s.Validate(); err != nil {
		return DefaultSettings(), err
	}
	s.normalize()
	return s, nil
}

// Save writes atomically (temp file + rename).
func (s *OverlaySettings) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create settings dir: %w", err)
		}
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Reset overwrites s with defaults in place.
func (s *OverlaySettings) Reset() { *s = *DefaultSettings() }

func (s *OverlaySettings) Clone() *OverlaySettings {
	c := *s
	c.Labels = cloneMap(s.Labels)
	c.EnabledLabels = cloneMap(s.EnabledLabels)
	c.AllowedCountries = append([]string(nil), s.AllowedCountries...)
	c.BlockedCountries = append([]string(nil), s.BlockedCountries...)
	return &c
}

// AutoHideDelay; zero disables auto-hide.
func (s *OverlaySettings) AutoHideDelay() time.Duration {
	if s.AutoHideDelayMS <= 0 {
		return 0
	}
	return time.Duration(s.AutoHideDelayMS) * time.Millisecond
}

func (s *OverlaySettings) Position() domain.OverlayPosition {
	return domain.OverlayPosition{X: s.PositionX, Y: s.PositionY}
}

func (s *OverlaySettings) SetPosition(p domain.OverlayPosition) {
	s.PositionX, s.PositionY = p.X, p.Y
}

// LabelEnabled: a label missing from enabled_labels is disabled.
func (s *OverlaySettings) LabelEnabled(q domain.MoveQuality) bool {
	return s.EnabledLabels[strings.ToLower(string(q))]
}

// IsCountryAllowed: the blocked list wins, an empty allowed list allows all.
func (s *OverlaySettings) IsCountryAllowed(code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range s.BlockedCountries {
		if strings.EqualFold(c, code) {
			return false
		}
	}
	if len(s.AllowedCountries) == 0 {
		return true
	}
	for _, c := range s.AllowedCountries {
		if strings.EqualFold(c, code) {
			return true
		}
	}
	return false
}

// Set assigns one key by its YAML name (labels.<key> and enabled_labels.<key>
// address map entries) and validates the result. On error s is unchanged.
func (s *OverlaySettings) Set(key, value string) error {
	next := s.Clone()
	if err := next.set(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	next.normalize()
	*s = *next
	return nil
}

func (s *OverlaySettings) set(key, value string) error {
	if k, ok := strings.CutPrefix(key, "labels."); ok {
		if s.Labels == nil {
			s.Labels = map[string]string{}
		}
		if value == "" {
			delete(s.Labels, k)
			return nil
		}
		s.Labels[k] = value
		return nil
	}
	if k, ok := strings.CutPrefix(key, "enabled_labels."); ok {
		q, err := domain.ParseMoveQuality(k)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		s.EnabledLabels[string(q)] = b
		return nil
	}

	if p, ok := s.intField(key); ok {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*p = n
		return nil
	}
	if p, ok := s.boolField(key); ok {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*p = b
		return nil
	}
	switch key {
	case "opacity", "animation_speed":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if key == "opacity" {
			s.Opacity = f
		} else {
			s.AnimationSpeed = f
		}
	case "language":
		s.Language = strings.ToLower(value)
	case "move_notation":
		s.MoveNotation = strings.ToLower(value)
	case "theme":
		s.Theme = strings.ToLower(value)
	case "allowed_countries":
		s.AllowedCountries = splitList(value)
	case "blocked_countries":
		s.BlockedCountries = splitList(value)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return nil
}

func (s *OverlaySettings) intField(key string) (*int, bool) {
	switch key {
	case "icon_size":
		return &s.IconSize, true
	case "font_size":
		return &s.FontSize, true
	case "overlay_width":
		return &s.OverlayWidth, true
	case "overlay_height":
		return &s.OverlayHeight, true
	case "position_x":
		return &s.PositionX, true
	case "position_y":
		return &s.PositionY, true
	case "auto_hide_delay":
		return &s.AutoHideDelayMS, true
	}
	return nil, false
}

func (s *OverlaySettings) boolField(key string) (*bool, bool) {
	switch key {
	case "lock_position":
		return &s.LockPosition, true
	case "always_on_top":
		return &s.AlwaysOnTop, true
	case "show_best_move":
		return &s.ShowBestMove, true
	case "show_opponent_best":
		return &s.ShowOpponentBest, true
	case "show_evaluation":
		return &s.ShowEvaluation, true
	case "show_country_flags":
		return &s.ShowCountryFlags, true
	case "blur_background":
		return &s.BlurBackground, true
	case "enable_sound":
		return &s.EnableSound, true
	}
	return nil, false
}

func (s *OverlaySettings) normalize() {
	s.Language = strings.ToLower(strings.TrimSpace(s.Language))
	if s.Language == "" {
		s.Language = "en"
	}
	enabled := make(map[string]bool, len(s.EnabledLabels))
	for k, v := range s.EnabledLabels {
		enabled[strings.ToLower(strings.TrimSpace(k))] = v
	}
	s.EnabledLabels = enabled
	for i, c := range s.AllowedCountries {
		s.AllowedCountries[i] = strings.ToUpper(strings.TrimSpace(c))
	}
	for i, c := range s.BlockedCountries {
		s.BlockedCountries[i] = strings.ToUpper(strings.TrimSpace(c))
	}
}

func splitList(v string) []string {
	out := []string{}
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, strings.ToUpper(s))
		}
	}
	return out
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return nil
	}
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
