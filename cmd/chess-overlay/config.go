package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/park285/cheese-overlay/internal/overlaybuilder"
	"github.com/park285/cheese-overlay/internal/placement"
	"github.com/park285/cheese-overlay/internal/screen"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or edit the overlay settings file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := yaml.Marshal(settings)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", appCfg.SettingsPath, b)
		return nil
	},
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings.Reset()
		return settings.Save(appCfg.SettingsPath)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Change one setting",
	Long: `Change one setting by its file key, e.g.
  config set auto_hide_delay 3000
  config set enabled_labels.theory false
  config set labels.blunder "OOPS"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := settings.Set(args[0], args[1]); err != nil {
			return err
		}
		return settings.Save(appCfg.SettingsPath)
	},
}

var configResetPositionCmd = &cobra.Command{
	Use:   "reset-position",
	Short: "Centre the overlay on the screen",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()
		store, rs, err := overlaybuilder.NewPositionStore(ctx, appCfg, settings)
		if err != nil {
			return err
		}
		if rs != nil {
			defer func() { _ = rs.Close() }()
		}
		sz, err := screen.Default(appCfg.Display).Size()
		if err != nil {
			return err
		}
		tr := placement.NewTracker(settings.Position(), store)
		if err := tr.ResetToCenter(sz.Width, sz.Height, settings.OverlayWidth, settings.OverlayHeight); err != nil {
			return err
		}
		p := tr.Position()
		fmt.Fprintf(cmd.OutOrStdout(), "position reset to %d,%d (screen %dx%d)\n", p.X, p.Y, sz.Width, sz.Height)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configResetCmd, configSetCmd, configResetPositionCmd)
}
