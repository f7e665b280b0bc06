// Package tui implements the live watch view: the statusline rendered
// continuously, re-computed whenever the transcript grows.
package tui

import (
	"context"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"

	"github.com/cclinedev/ccline/internal/engine"
	"github.com/cclinedev/ccline/internal/input"
)

// debounce coalesces the burst of write events a single transcript
// append produces.
const debounce = 300 * time.Millisecond

// fallbackRefresh re-renders even without file events, so burn rate
// and quota stay current while the session idles.
const fallbackRefresh = 30 * time.Second

var (
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#575653"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#D14D41"))
)

type transcriptChangedMsg struct{}

type renderedMsg struct{ line string }

type tickMsg struct{}

type watchErrMsg struct{ err error }

// WatchModel is the bubbletea model for `ccline watch`.
type WatchModel struct {
	eng     *engine.Engine
	payload input.Payload

	spinner spinner.Model
	watcher *fsnotify.Watcher

	width   int
	line    string
	loading bool
	err     error
}

// NewWatch builds the model and starts watching the transcript's
// directory. Watching the directory rather than the file survives the
// host's write-then-rename updates.
func NewWatch(eng *engine.Engine, payload input.Payload, transcriptPath string) (WatchModel, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return WatchModel{}, err
	}
	if transcriptPath != "" {
		if err := watcher.Add(filepath.Dir(transcriptPath)); err != nil {
			watcher.Close()
			return WatchModel{}, err
		}
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#3AA99F"))

	return WatchModel{
		eng:     eng,
		payload: payload,
		spinner: sp,
		watcher: watcher,
		loading: true,
	}, nil
}

// Init implements tea.Model.
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.refresh(), m.listen(), tick())
}

// Update implements tea.Model.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.watcher.Close()
			return m, tea.Quit
		case "r":
			m.loading = true
			return m, m.refresh()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, m.refresh()

	case transcriptChangedMsg:
		m.loading = true
		return m, tea.Batch(m.refresh(), m.listen())

	case tickMsg:
		return m, tea.Batch(m.refresh(), tick())

	case renderedMsg:
		m.line = msg.line
		m.loading = false
		m.err = nil
		return m, nil

	case watchErrMsg:
		m.err = msg.err
		m.loading = false
		return m, m.listen()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m WatchModel) View() string {
	var out string
	switch {
	case m.err != nil:
		out = errorStyle.Render("watch: " + m.err.Error())
	case m.line == "" && m.loading:
		out = m.spinner.View() + " loading session..."
	default:
		out = m.line
		if m.loading {
			out += " " + m.spinner.View()
		}
	}
	return out + "\n" + helpStyle.Render("r refresh · q quit") + "\n"
}

// refresh recomputes the statusline off the Update loop.
func (m WatchModel) refresh() tea.Cmd {
	eng, payload, width := m.eng, m.payload, m.width
	return func() tea.Msg {
		return renderedMsg{line: eng.Render(context.Background(), payload, width)}
	}
}

// listen blocks on the next relevant file event, debounced.
func (m WatchModel) listen() tea.Cmd {
	watcher := m.watcher
	return func() tea.Msg {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				time.Sleep(debounce)
				drain(watcher)
				return transcriptChangedMsg{}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				return watchErrMsg{err: err}
			}
		}
	}
}

func drain(w *fsnotify.Watcher) {
	for {
		select {
		case <-w.Events:
		default:
			return
		}
	}
}

func tick() tea.Cmd {
	return tea.Tick(fallbackRefresh, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}
