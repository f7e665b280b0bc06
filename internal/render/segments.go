package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cclinedev/ccline/internal/config"
	"github.com/cclinedev/ccline/internal/model"
	"github.com/cclinedev/ccline/internal/quota"
)

// Theme colors (Flexoki Dark)
var (
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
	ColorBlue      = lipgloss.Color("#4385BE")
	ColorYellow    = lipgloss.Color("#D0A215")
)

var (
	modelStyle = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	costStyle  = lipgloss.NewStyle().Foreground(ColorGreen)
	tokenStyle = lipgloss.NewStyle().Foreground(ColorBlue)
	mutedStyle = lipgloss.NewStyle().Foreground(ColorTextMuted)
	dimStyle   = lipgloss.NewStyle().Foreground(ColorTextDim)
	warnStyle  = lipgloss.NewStyle().Foreground(ColorOrange)
	alertStyle = lipgloss.NewStyle().Foreground(ColorRed)
	okStyle    = lipgloss.NewStyle().Foreground(ColorGreen)
)

const separator = " │ "

// noData is rendered when a segment has nothing meaningful to show.
const noData = "–"

// Snapshot is everything one invocation computed for display.
type Snapshot struct {
	ModelName string
	Session   model.SessionInfo
	Agents    []model.AgentRecord
	Quota     *quota.Usage
}

// Statusline assembles the enabled segments into one line, dropping
// trailing segments until the line fits the given width. Width <= 0
// disables truncation.
func Statusline(snap Snapshot, seg config.SegmentsConfig, width int) string {
	var parts []string

	if seg.Model {
		parts = append(parts, modelSegment(snap.ModelName))
	}
	if seg.Cost {
		parts = append(parts, costSegment(snap.Session))
	}
	if seg.Tokens {
		parts = append(parts, tokenSegment(snap.Session))
	}
	if seg.BurnRate {
		parts = append(parts, burnSegment(snap.Session.BurnRate))
	}
	if seg.Agents && len(snap.Agents) > 0 {
		parts = append(parts, agentSegment(snap.Agents))
	}
	if seg.Quota && snap.Quota != nil {
		parts = append(parts, quotaSegment(snap.Quota))
	}

	sep := dimStyle.Render(separator)
	for len(parts) > 1 {
		line := strings.Join(parts, sep)
		if width <= 0 || lipgloss.Width(line) <= width {
			return line
		}
		parts = parts[:len(parts)-1]
	}
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

func modelSegment(name string) string {
	if name == "" {
		return mutedStyle.Render(noData)
	}
	return modelStyle.Render(FormatModel(name))
}

func costSegment(s model.SessionInfo) string {
	if s.Cost == nil {
		return mutedStyle.Render(noData)
	}
	out := costStyle.Render(FormatCost(*s.Cost))
	if s.IsOutputEstimated {
		out += mutedStyle.Render("~")
	}
	return out
}

func tokenSegment(s model.SessionInfo) string {
	if s.Tokens == nil {
		return mutedStyle.Render(noData)
	}
	out := tokenStyle.Render(FormatTokens(*s.Tokens) + " tok")
	if s.CacheHitRate != nil {
		out += mutedStyle.Render(fmt.Sprintf(" (%.0f%% cache)", *s.CacheHitRate))
	}
	return out
}

func burnSegment(rate *float64) string {
	if rate == nil {
		return mutedStyle.Render(noData)
	}
	style := costStyle
	if *rate >= 30 {
		style = alertStyle
	} else if *rate >= 10 {
		style = warnStyle
	}
	return style.Render(FormatRate(*rate))
}

func agentSegment(agents []model.AgentRecord) string {
	var running, done int
	for i := range agents {
		if agents[i].Running() {
			running++
		} else {
			done++
		}
	}

	var b strings.Builder
	if running > 0 {
		b.WriteString(warnStyle.Render(fmt.Sprintf("⚒ %d", running)))
	}
	if done > 0 {
		if running > 0 {
			b.WriteString(" ")
		}
		b.WriteString(okStyle.Render(fmt.Sprintf("✓ %d", done)))
	}
	return b.String()
}

func quotaSegment(u *quota.Usage) string {
	var parts []string
	if u.FiveHour != nil {
		parts = append(parts, "5h "+pctStyle(u.FiveHour.Pct).Render(fmt.Sprintf("%.0f%%", u.FiveHour.Pct*100)))
	}
	if u.SevenDay != nil {
		parts = append(parts, "7d "+pctStyle(u.SevenDay.Pct).Render(fmt.Sprintf("%.0f%%", u.SevenDay.Pct*100)))
	}
	if len(parts) == 0 {
		return mutedStyle.Render(noData)
	}
	return strings.Join(parts, " ")
}

func pctStyle(pct float64) lipgloss.Style {
	switch {
	case pct >= 0.9:
		return alertStyle
	case pct >= 0.7:
		return warnStyle
	default:
		return okStyle
	}
}
