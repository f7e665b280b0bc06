package cmd

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/cclinedev/ccline/internal/config"
	"github.com/cclinedev/ccline/internal/engine"
	"github.com/cclinedev/ccline/internal/input"
	"github.com/cclinedev/ccline/internal/logging"
	"github.com/cclinedev/ccline/internal/source"
	"github.com/cclinedev/ccline/internal/tui"
)

var flagTranscript string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live statusline that follows the transcript",
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVarP(&flagSession, "session", "s", "", "Session id to follow")
	watchCmd.Flags().StringVarP(&flagTranscript, "transcript", "t", "", "Transcript path (overrides --session lookup)")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()

	log, closer := logging.Setup(config.CacheDir())
	if closer != nil {
		defer closer.Close()
	}

	payload := input.Payload{SessionID: flagSession, TranscriptPath: flagTranscript}
	if flagSession == "" && flagTranscript == "" {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("nothing to watch: pass --session or --transcript, or pipe the host payload")
		}
		p, err := input.Read(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading payload: %w", err)
		}
		payload = p
	}

	transcript := payload.TranscriptPath
	if transcript == "" {
		transcript = source.Locate(config.ResolveClaudeDir(cfg), payload.SessionID)
	}
	if transcript == "" {
		return fmt.Errorf("no transcript found for session %q", payload.SessionID)
	}
	payload.TranscriptPath = transcript

	// Force TrueColor so styling renders inside the alt screen.
	lipgloss.SetColorProfile(termenv.TrueColor)

	model, err := tui.NewWatch(engine.New(cfg, log), payload, transcript)
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}

	if _, err := tea.NewProgram(model).Run(); err != nil {
		return fmt.Errorf("watch error: %w", err)
	}
	return nil
}
