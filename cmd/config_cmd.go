// Package cmd implements the ccline CLI commands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cclinedev/ccline/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Fprintln(out, "  Status: loaded")
	} else {
		fmt.Fprintln(out, "  Status: using defaults (no config file)")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  [General]")
	fmt.Fprintf(out, "    Claude directory: %s\n", config.ResolveClaudeDir(cfg))
	fmt.Fprintf(out, "    Theme:            %s\n", cfg.General.Theme)
	fmt.Fprintf(out, "    Cache directory:  %s\n", config.CacheDir())
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  [Quota]")
	if key := config.SessionKey(cfg); key != "" {
		fmt.Fprintf(out, "    Session key: %s\n", maskKey(key))
	} else {
		fmt.Fprintln(out, "    Session key: not configured")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  [Segments]")
	fmt.Fprintf(out, "    model=%v cost=%v tokens=%v burn_rate=%v agents=%v quota=%v\n",
		cfg.Segments.Model, cfg.Segments.Cost, cfg.Segments.Tokens,
		cfg.Segments.BurnRate, cfg.Segments.Agents, cfg.Segments.Quota)

	if len(cfg.Pricing.Overrides) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "  [Pricing overrides]")
		for model := range cfg.Pricing.Overrides {
			fmt.Fprintf(out, "    %s\n", model)
		}
	}

	return nil
}

func maskKey(key string) string {
	if len(key) > 16 {
		return key[:12] + "..." + key[len(key)-4:]
	}
	if len(key) > 4 {
		return key[:4] + "..."
	}
	return "****"
}
