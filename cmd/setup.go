package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/cclinedev/ccline/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, _ []string) error {
	cfg, _ := config.Load()

	sessionKey := cfg.Quota.SessionKey
	claudeDir := cfg.General.ClaudeDir
	theme := cfg.General.Theme
	segments := enabledSegments(cfg.Segments)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("claude.ai session key").
				Description("Enables the quota segment. Leave blank to skip.").
				Placeholder("sk-ant-sid01-...").
				EchoMode(huh.EchoModePassword).
				Validate(validateSessionKey).
				Value(&sessionKey),
			huh.NewInput().
				Title("Claude data directory").
				Description("Where transcripts live. Blank uses ~/.claude.").
				Value(&claudeDir),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(
					huh.NewOption("Flexoki Dark", "flexoki-dark"),
					huh.NewOption("Terminal (ANSI 16)", "terminal"),
				).
				Value(&theme),
			huh.NewMultiSelect[string]().
				Title("Statusline segments").
				Options(
					huh.NewOption("Model", "model"),
					huh.NewOption("Cost", "cost"),
					huh.NewOption("Tokens", "tokens"),
					huh.NewOption("Burn rate", "burn_rate"),
					huh.NewOption("Agents", "agents"),
					huh.NewOption("Quota", "quota"),
				).
				Value(&segments),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Quota.SessionKey = strings.TrimSpace(sessionKey)
	cfg.General.ClaudeDir = strings.TrimSpace(claudeDir)
	cfg.General.Theme = theme
	cfg.Segments = segmentsFromNames(segments)

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved to %s\n", config.ConfigPath())
	return nil
}

func validateSessionKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	if !strings.HasPrefix(key, "sk-ant-sid") {
		return fmt.Errorf("session keys start with sk-ant-sid")
	}
	return nil
}

func enabledSegments(s config.SegmentsConfig) []string {
	var out []string
	for name, on := range map[string]bool{
		"model": s.Model, "cost": s.Cost, "tokens": s.Tokens,
		"burn_rate": s.BurnRate, "agents": s.Agents, "quota": s.Quota,
	} {
		if on {
			out = append(out, name)
		}
	}
	return out
}

func segmentsFromNames(names []string) config.SegmentsConfig {
	var s config.SegmentsConfig
	for _, n := range names {
		switch n {
		case "model":
			s.Model = true
		case "cost":
			s.Cost = true
		case "tokens":
			s.Tokens = true
		case "burn_rate":
			s.BurnRate = true
		case "agents":
			s.Agents = true
		case "quota":
			s.Quota = true
		}
	}
	return s
}
