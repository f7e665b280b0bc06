package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/cclinedev/ccline/internal/config"
	"github.com/cclinedev/ccline/internal/engine"
	"github.com/cclinedev/ccline/internal/input"
	"github.com/cclinedev/ccline/internal/logging"
	"github.com/cclinedev/ccline/internal/model"
	"github.com/cclinedev/ccline/internal/render"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List tracked subtasks for a session",
	Long: "Show every subtask the session launched via the Task tool, with\n" +
		"status, runtime, and per-agent usage where a transcript exists.",
	RunE: runAgents,
}

func init() {
	rootCmd.AddCommand(agentsCmd)
	agentsCmd.Flags().StringVarP(&flagSession, "session", "s", "", "Session id (default: read host payload from stdin)")
}

func runAgents(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()

	log, closer := logging.Setup(config.CacheDir())
	if closer != nil {
		defer closer.Close()
	}

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

	eng := engine.New(cfg, log)
	records := eng.AgentList(payload)
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No agent activity for this session.")
		return nil
	}

	printAgentTable(cmd, records)
	return nil
}

func printAgentTable(cmd *cobra.Command, records []model.AgentRecord) {
	table := tablewriter.NewTable(cmd.OutOrStdout(),
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Settings: tw.Settings{Separators: tw.Separators{BetweenRows: tw.Off}},
		})))

	headers := []string{"Agent", "Type", "Status", "Runtime", "Tokens", "Cost"}
	table.Header(headers)

	alignments := make([]tw.Align, len(headers))
	for i := range alignments {
		alignments[i] = tw.AlignLeft
		if i >= 3 {
			alignments[i] = tw.AlignRight
		}
	}
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.PerColumn = alignments
	})

	now := time.Now()
	for _, r := range records {
		end := r.EndTime
		if r.Running() {
			end = now
		}
		runtime := render.FormatDuration(int64(end.Sub(r.StartTime).Seconds()))

		tokens, cost := "-", "-"
		if r.Tokens != nil {
			tokens = render.FormatTokens(*r.Tokens)
		}
		if r.Cost != nil {
			cost = render.FormatCost(*r.Cost)
		}

		name := r.Description
		if name == "" {
			name = r.ID
		}
		typ := r.Type
		if typ == "" {
			typ = "task"
		}

		table.Append([]string{name, typ, string(r.Status), runtime, tokens, cost})
	}
	table.Render()
}
