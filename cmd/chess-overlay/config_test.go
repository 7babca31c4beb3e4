package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/park285/cheese-overlay/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, k := range []string{"RELAY_MODE", "RELAY_HTTP_URL", "RELAY_WS_URL", "REDIS_URL", "OVERLAY_SETTINGS_PATH"} {
		t.Setenv(k, "")
	}
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestConfigSetPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlay_config.yaml")
	if _, err := execute(t, "config", "set", "auto_hide_delay", "2500", "--settings", path); err != nil {
		t.Fatalf("config set: %v", err)
	}
	s, err := config.LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.AutoHideDelayMS != 2500 {
		t.Fatalf("auto_hide_delay = %d", s.AutoHideDelayMS)
	}

	out, err := execute(t, "config", "show", "--settings", path)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "auto_hide_delay: 2500") {
		t.Fatalf("show output:\n%s", out)
	}
}

func TestConfigSetRejectsOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlay_config.yaml")
	if _, err := execute(t, "config", "set", "font_size", "99", "--settings", path); err == nil {
		t.Fatalf("font_size 99 must be rejected")
	}
}

func TestConfigReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlay_config.yaml")
	if _, err := execute(t, "config", "set", "theme", "light", "--settings", path); err != nil {
		t.Fatalf("config set: %v", err)
	}
	if _, err := execute(t, "config", "reset", "--settings", path); err != nil {
		t.Fatalf("config reset: %v", err)
	}
	s, err := config.LoadSettings(path)
	if err != nil || s.Theme != "dark" {
		t.Fatalf("theme after reset = %q (%v)", s.Theme, err)
	}
}
