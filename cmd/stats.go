package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/cclinedev/ccline/internal/config"
	"github.com/cclinedev/ccline/internal/input"
	"github.com/cclinedev/ccline/internal/metrics"
	"github.com/cclinedev/ccline/internal/render"
	"github.com/cclinedev/ccline/internal/source"
)

var flagBlocks bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Per-day or per-billing-block usage for a session",
	Long: "Aggregate the session transcript into calendar-day windows, or\n" +
		"five-hour billing blocks with --blocks. Always reads the full\n" +
		"transcript, never the tail.",
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVarP(&flagSession, "session", "s", "", "Session id (default: read host payload from stdin)")
	statsCmd.Flags().BoolVar(&flagBlocks, "blocks", false, "Bucket into 5-hour billing blocks instead of days")
}

func runStats(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()

	payload := input.Payload{SessionID: flagSession}
	if flagSession == "" {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("no session: pass --session or pipe the host payload on stdin")
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

	entries, err := source.Entries(transcript)
	if err != nil {
		return fmt.Errorf("reading transcript: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No usage entries in this transcript.")
		return nil
	}

	var windows []metrics.WindowStats
	var label string
	if flagBlocks {
		windows, label = metrics.BillingBlocks(entries), "Block"
	} else {
		windows, label = metrics.DailyStats(entries), "Day"
	}

	table := tablewriter.NewTable(cmd.OutOrStdout(),
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Settings: tw.Settings{Separators: tw.Separators{BetweenRows: tw.Off}},
		})))
	table.Header([]string{label, "Entries", "Tokens", "Cost"})

	for _, w := range windows {
		start := w.Start.Format("2006-01-02")
		if flagBlocks {
			start = w.Start.Format("01-02 15:04") + " - " + w.End.Format("15:04")
		}
		table.Append([]string{
			start,
			render.FormatNumber(int64(w.Entries)),
			render.FormatTokens(w.Tokens.Total()),
			render.FormatCost(w.Cost),
		})
	}
	table.Render()
	return nil
}
