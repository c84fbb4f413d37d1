package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/focal-sh/focal/internal/core"
	"github.com/focal-sh/focal/internal/storage"
	"github.com/focal-sh/focal/pkg/models"
	"github.com/spf13/cobra"
)

// Style definitions.
var (
	timerTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	countdownStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("46")).
			Padding(1, 2)

	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	gateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpDim   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type tickMsg time.Time

// stateChangedMsg carries one remote or local mutation batch from the
// state store watcher into the Update loop.
type stateChangedMsg map[string]storage.Change

type submitResultMsg struct{ err error }

type timerModel struct {
	state   models.TimerState
	summary textarea.Model

	width   int
	height  int
	ticking bool
	errMsg  string

	// changes is fed by the state store watcher; waitForChange re-arms
	// after every delivery.
	changes chan map[string]storage.Change
}

func newTimerModel(changes chan map[string]storage.Change) timerModel {
	ta := textarea.New()
	ta.Placeholder = fmt.Sprintf("What did you accomplish? (%d words minimum)", models.MinSummaryWords)
	ta.SetHeight(8)
	ta.CharLimit = 0

	m := timerModel{
		summary: ta,
		changes: changes,
	}

	state, err := Timer.Load()
	if err != nil {
		if errors.Is(err, core.ErrCorruptState) {
			m.errMsg = "Timer state was corrupt and has been reset."
		} else {
			m.errMsg = err.Error()
		}
	}
	m.state = state
	m.ticking = state.Phase == models.PhaseRunning
	if state.Phase == models.PhaseEnd {
		m.summary.SetValue(state.CurrentSummary)
		m.summary.Focus()
	}
	return m
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForChange(ch chan map[string]storage.Change) tea.Cmd {
	return func() tea.Msg {
		changes, ok := <-ch
		if !ok {
			return nil
		}
		return stateChangedMsg(changes)
	}
}

func (m timerModel) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForChange(m.changes), textarea.Blink}
	if m.ticking {
		cmds = append(cmds, tickCmd())
	}
	return tea.Batch(cmds...)
}

func (m timerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if msg.Width > 10 {
			m.summary.SetWidth(msg.Width - 6)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		if m.state.Phase != models.PhaseRunning {
			// Countdown tick stops when the phase is left.
			m.ticking = false
			return m, nil
		}
		state, finished, err := Timer.Advance()
		if err != nil {
			if errors.Is(err, core.ErrCorruptState) {
				m.errMsg = "Timer state was corrupt and has been reset."
			} else {
				m.errMsg = err.Error()
			}
		}
		m.state = state
		if finished {
			m.ticking = false
			m.summary.Reset()
			m.summary.Focus()
			return m, textarea.Blink
		}
		if m.state.Phase != models.PhaseRunning {
			m.ticking = false
			return m, nil
		}
		return m, tickCmd()

	case stateChangedMsg:
		return m.handleRemoteChange(msg)

	case submitResultMsg:
		if msg.err != nil {
			switch {
			case errors.Is(msg.err, storage.ErrAborted):
				m.errMsg = "Journal binding cancelled; summary kept."
			case errors.Is(msg.err, storage.ErrNotBound):
				m.errMsg = "Journal not bound: press ctrl+b or run 'focal journal bind'."
			default:
				m.errMsg = msg.err.Error()
			}
			return m, nil
		}
		m.errMsg = ""
		m.summary.Reset()
		m.summary.Blur()
		if state, err := Timer.Load(); err == nil {
			m.state = state
		}
		return m, nil
	}

	return m, nil
}

func (m timerModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "ctrl+r":
		if err := Timer.Reset(); err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.state = models.TimerState{Phase: models.PhaseStart}
		m.ticking = false
		m.errMsg = ""
		m.summary.Reset()
		m.summary.Blur()
		return m, nil
	}

	switch m.state.Phase {
	case models.PhaseStart:
		switch msg.String() {
		case "q", "esc":
			return m, tea.Quit
		case "1", "2", "3", "4", "5":
			idx := int(msg.String()[0] - '1')
			state, err := Timer.Start(models.AllowedDurations[idx])
			if err != nil {
				m.errMsg = err.Error()
				return m, nil
			}
			m.state = state
			m.errMsg = ""
			if !m.ticking {
				m.ticking = true
				return m, tickCmd()
			}
			return m, nil
		}
		return m, nil

	case models.PhaseRunning:
		switch msg.String() {
		case "q", "esc":
			return m, tea.Quit
		}
		return m, nil

	case models.PhaseEnd:
		switch msg.String() {
		case "esc":
			return m, tea.Quit
		case "ctrl+b":
			binding := models.JournalBinding{
				Path:    Config.Journal.DefaultPath,
				Mode:    models.ModeReadWrite,
				BoundAt: time.Now().UTC(),
			}
			if err := Caps.Store(binding); err != nil {
				m.errMsg = err.Error()
			} else {
				m.errMsg = ""
			}
			return m, nil
		case "ctrl+s":
			summary := m.summary.Value()
			if !core.SubmitReady(summary) {
				m.errMsg = fmt.Sprintf("Summary has %d of %d required words.",
					core.WordCount(summary), models.MinSummaryWords)
				return m, nil
			}
			return m, func() tea.Msg {
				return submitResultMsg{err: Timer.SubmitSession(summary)}
			}
		}

		// Everything else edits the summary, which is mirrored to the
		// shared state so other instances see it live.
		var cmd tea.Cmd
		before := m.summary.Value()
		m.summary, cmd = m.summary.Update(msg)
		if after := m.summary.Value(); after != before {
			if err := Timer.SetSummary(after); err != nil {
				m.errMsg = err.Error()
			}
		}
		return m, cmd
	}

	return m, nil
}

// handleRemoteChange reloads the shared state after a watcher delivery.
// The summary editor only follows remote edits; the local keystroke that
// caused a mirror write diffs to nothing and is left alone.
func (m timerModel) handleRemoteChange(changes stateChangedMsg) (tea.Model, tea.Cmd) {
	state, err := Timer.Load()
	if err != nil && errors.Is(err, core.ErrCorruptState) {
		m.errMsg = "Timer state was corrupt and has been reset."
	}
	prevPhase := m.state.Phase
	m.state = state

	cmds := []tea.Cmd{waitForChange(m.changes)}

	if _, ok := changes[models.KeyCurrentSummary]; ok {
		if state.CurrentSummary != m.summary.Value() {
			m.summary.SetValue(state.CurrentSummary)
		}
	}

	if state.Phase == models.PhaseRunning && !m.ticking {
		m.ticking = true
		cmds = append(cmds, tickCmd())
	}
	if state.Phase == models.PhaseEnd && prevPhase != models.PhaseEnd {
		m.summary.Focus()
		cmds = append(cmds, textarea.Blink)
	}
	if state.Phase == models.PhaseStart && prevPhase != models.PhaseStart {
		m.summary.Reset()
		m.summary.Blur()
	}

	return m, tea.Batch(cmds...)
}

func (m timerModel) View() string {
	title := timerTitleStyle.Render(" focal ")

	var body, help string
	switch m.state.Phase {
	case models.PhaseRunning:
		remaining := m.state.Remaining(time.Now())
		body = countdownStyle.Render(formatRemaining(remaining)) +
			"\n" + dimStyle.Render(fmt.Sprintf("  %d minute session  %s", m.state.Duration, m.state.SessionID))
		help = helpDim.Render("q: leave (timer keeps running) | ctrl+r: reset")

	case models.PhaseEnd:
		words := core.WordCount(m.summary.Value())
		gate := gateStyle.Render(fmt.Sprintf("%d/%d words", words, models.MinSummaryWords))
		if core.SubmitReady(m.summary.Value()) {
			gate = okStyle.Render(fmt.Sprintf("%d/%d words - ready", words, models.MinSummaryWords))
		}
		body = "  Session finished. What did you accomplish?\n\n" +
			m.summary.View() + "\n\n  " + gate
		help = helpDim.Render("ctrl+s: submit | ctrl+b: bind default journal | ctrl+r: discard | esc: leave")

	default:
		var menu string
		for i, d := range models.AllowedDurations {
			menu += fmt.Sprintf("  %d) %d minutes\n", i+1, d)
		}
		body = "  Choose a session length:\n\n" + menu
		help = helpDim.Render("1-5: start | q: quit")
	}

	out := fmt.Sprintf("%s\n\n%s\n", title, body)
	if m.errMsg != "" {
		out += "\n" + errStyle.Render("  "+m.errMsg) + "\n"
	}
	return out + "\n" + help
}

var timerCmd = &cobra.Command{
	Use:   "timer",
	Short: "Interactive timer view",
	Long: `Launch the interactive timer. On the start phase pick a session
length; while running the countdown updates every second and tracks the
shared end time, so two open timers always agree; when the session ends
the summary editor opens and submission unlocks at the minimum word
count.

State changes made by other focal processes appear live.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		changes := make(chan map[string]storage.Change, 8)
		cancel, err := Store.Watch(func(batch map[string]storage.Change) {
			// Drop rather than block: the reload on the next delivery
			// picks up the coalesced state anyway.
			select {
			case changes <- batch:
			default:
			}
		})
		if err != nil {
			return fmt.Errorf("watching state store: %w", err)
		}
		defer cancel()

		p := tea.NewProgram(newTimerModel(changes), tea.WithAltScreen())
		_, err = p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(timerCmd)
}
