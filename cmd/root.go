package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/cclinedev/ccline/internal/config"
	"github.com/cclinedev/ccline/internal/engine"
	"github.com/cclinedev/ccline/internal/input"
	"github.com/cclinedev/ccline/internal/logging"
)

var (
	flagWidth   int
	flagNoColor bool
	flagSession string
	flagDataDir string
)

var rootCmd = &cobra.Command{
	Use:   "ccline",
	Short: "Claude Code statusline",
	Long: "Render a one-line usage summary for the current Claude Code session.\n" +
		"Reads the host payload from stdin and prints the statusline to stdout.",
	RunE:          runRender,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "", "Claude data directory (default ~/.claude)")
	rootCmd.Flags().IntVarP(&flagWidth, "width", "w", 0, "Max line width (0 = detect terminal)")
	rootCmd.Flags().BoolVar(&flagNoColor, "no-color", false, "Disable ANSI styling")
}

func runRender(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()

	if flagNoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	log, closer := logging.Setup(config.CacheDir())
	if closer != nil {
		defer closer.Close()
	}

	p, err := input.Read(cmd.InOrStdin())
	if err != nil {
		// A broken payload still gets a line, just an empty one.
		log.Debug().Err(err).Msg("payload unreadable")
	}

	width := flagWidth
	if width == 0 {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			width = w
		}
	}

	eng := engine.New(cfg, log)
	fmt.Fprintln(cmd.OutOrStdout(), eng.Render(cmd.Context(), p, width))
	return nil
}

// loadConfig reads the config file, applies pricing overrides, and
// folds in command-line overrides. A corrupt config degrades to
// defaults rather than aborting the render.
func loadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}
	if flagDataDir != "" {
		cfg.General.ClaudeDir = flagDataDir
	}
	config.ApplyPricing(cfg)
	return cfg
}
