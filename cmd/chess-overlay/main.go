package main

import (
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/park285/cheese-overlay/internal/config"
	"github.com/park285/cheese-overlay/internal/obslog"
)

// ui loop 은 메인 스레드에서 돈다
func init() { runtime.LockOSThread() }

var (
	appCfg   *config.AppConfig
	settings *config.OverlaySettings
)

var rootCmd = &cobra.Command{
	Use:   "chess-overlay",
	Short: "Move-quality overlay for chess streams",
	Long: `Shows move-quality annotations (brilliant, blunder, ...) with the engine's
suggested move. Output goes to a PNG card, the terminal and an optional relay.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if p, _ := cmd.Flags().GetString("settings"); p != "" {
			cfg.SettingsPath = p
		}
		s, err := config.LoadSettings(cfg.SettingsPath)
		if err != nil {
			return fmt.Errorf("settings: %w", err)
		}
		appCfg, settings = cfg, s
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOverlay(false)
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("settings", "s", "", "settings file (default $OVERLAY_SETTINGS_PATH or overlay/overlay_config.yaml)")
}

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	err := rootCmd.Execute()
	if err != nil {
		obslog.L().Error("command_failed", zap.Error(err))
	}
	_ = obslog.Sync()
	if err != nil {
		os.Exit(1)
	}
}
