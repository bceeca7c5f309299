package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	sessiondto "streakd/internal/modules/session/dto"
	apperrors "streakd/internal/platform/errors"
	"streakd/internal/ui/components"
	"streakd/internal/ui/theme"
)

// sessionPort is the slice of the session engine the timer drives.
type sessionPort interface {
	Open(ctx context.Context, userID, streakID string) (sessiondto.RunView, error)
	Do(ctx context.Context, userID, streakID, op string) (sessiondto.ApplyOutput, error)
	Move(ctx context.Context, userID, streakID string, dx, dy int) (sessiondto.RunView, error)
}

// ─── async messages ───────────────────────────────────────────────────────────

type openedMsg struct {
	view sessiondto.RunView
	err  error
}

type tickMsg time.Time

type appliedMsg struct {
	op  sessiondto.Operation
	out sessiondto.ApplyOutput
	err error
}

type movedMsg struct {
	view sessiondto.RunView
	err  error
}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Pause   key.Binding
	Break   key.Binding
	Skip    key.Binding
	Focus   key.Binding
	Cancel  key.Binding
	End     key.Binding
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Pause:   key.NewBinding(key.WithKeys(" ", "space", "p"), key.WithHelp("space", "pause/resume")),
		Break:   key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "take break")),
		Skip:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "skip break")),
		Focus:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "back to focus")),
		Cancel:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c c", "cancel")),
		End:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e e", "end")),
		Up:      key.NewBinding(key.WithKeys("up"), key.WithHelp("↑/↓/←/→", "move")),
		Down:    key.NewBinding(key.WithKeys("down")),
		Left:    key.NewBinding(key.WithKeys("left")),
		Right:   key.NewBinding(key.WithKeys("right")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "command")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Break, k.End, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pause, k.Break, k.Skip, k.Focus},
		{k.Cancel, k.End, k.Up},
		{k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the floating timer widget. Engine state lives behind sessionPort;
// the model only renders the last RunView and forwards intents.
type Model struct {
	session  sessionPort
	userID   string
	streakID string
	interval time.Duration

	view    sessiondto.RunView
	loaded  bool
	done    bool
	confirm sessiondto.Operation

	keys     keyMap
	help     help.Model
	showHelp bool
	palette  components.Palette
	status   string
	width    int
	height   int
}

func NewModel(session sessionPort, userID, streakID string) Model {
	return Model{
		session:  session,
		userID:   userID,
		streakID: streakID,
		interval: time.Second,
		keys:     defaultKeys(),
		help:     help.New(),
		palette:  components.NewPalette(),
		status:   "opening session…",
	}
}

func (m Model) Init() tea.Cmd {
	return m.openCmd()
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.palette.Visible() {
		if _, isKey := msg.(tea.KeyMsg); isKey {
			var cmd tea.Cmd
			m.palette, cmd = m.palette.Update(msg)
			return m, cmd
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.palette.SetWidth(min(m.width-4, 48))

	case openedMsg:
		if msg.err != nil {
			m.done = true
			m.status = "open failed: " + msg.err.Error()
			return m, nil
		}
		m.view = msg.view
		m.loaded = true
		m.status = "focus"
		if msg.view.Resumed {
			m.status = "resumed where you left off"
		}
		return m, m.tickCmd()

	case tickMsg:
		if !m.loaded || m.done {
			return m, nil
		}
		return m, tea.Batch(m.applyCmd(sessiondto.OpTick), m.tickCmd())

	case appliedMsg:
		return m.applied(msg), nil

	case movedMsg:
		if msg.err != nil {
			m.status = "move failed: " + msg.err.Error()
		} else {
			m.view = msg.view
		}

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		if key.Matches(msg, m.keys.Help) || msg.String() == "esc" {
			m.showHelp = false
		}
		return m, nil
	}
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if key.Matches(msg, m.keys.Help) {
		m.showHelp = true
		return m, nil
	}
	if m.done || !m.loaded {
		return m, nil
	}

	pending := m.confirm
	m.confirm = ""
	switch {
	case key.Matches(msg, m.keys.Palette):
		return m, m.palette.Open()
	case key.Matches(msg, m.keys.Pause):
		if m.view.Running {
			return m, m.applyCmd(sessiondto.OpPause)
		}
		return m, m.applyCmd(sessiondto.OpResume)
	case key.Matches(msg, m.keys.Break):
		return m, m.applyCmd(sessiondto.OpTakeBreak)
	case key.Matches(msg, m.keys.Skip):
		return m, m.applyCmd(sessiondto.OpSkipBreak)
	case key.Matches(msg, m.keys.Focus):
		return m, m.applyCmd(sessiondto.OpBackToFocus)
	case key.Matches(msg, m.keys.Cancel):
		return m.confirmed(pending, sessiondto.OpCancel, "press c again to cancel")
	case key.Matches(msg, m.keys.End):
		return m.confirmed(pending, sessiondto.OpEnd, "press e again to end and record")
	case key.Matches(msg, m.keys.Up):
		return m, m.moveCmd(0, -1)
	case key.Matches(msg, m.keys.Down):
		return m, m.moveCmd(0, 1)
	case key.Matches(msg, m.keys.Left):
		return m, m.moveCmd(-1, 0)
	case key.Matches(msg, m.keys.Right):
		return m, m.moveCmd(1, 0)
	}
	return m, nil
}

// confirmed runs op on the second consecutive press.
func (m Model) confirmed(pending, op sessiondto.Operation, prompt string) (tea.Model, tea.Cmd) {
	if pending == op {
		return m, m.applyCmd(op)
	}
	m.confirm = op
	m.status = prompt
	return m, nil
}

func (m Model) applied(msg appliedMsg) Model {
	if msg.err != nil {
		if errors.Is(msg.err, apperrors.ErrNoSnapshot) {
			m.done = true
			m.status = "session is no longer active"
			return m
		}
		m.status = string(msg.op) + " failed: " + msg.err.Error()
		return m
	}
	m.view = msg.out.View
	if !msg.out.Applied && msg.op != sessiondto.OpTick {
		m.status = strings.ReplaceAll(string(msg.op), "_", " ") + " is not available now"
		return m
	}
	if m.view.Outcome != "" {
		m.done = true
		m.status = outcomeStatus(m.view)
		return m
	}
	if msg.op != sessiondto.OpTick {
		m.status = modeLabel(m.view)
	}
	return m
}

func outcomeStatus(v sessiondto.RunView) string {
	if v.LedgerError != "" {
		return "not recorded: " + v.LedgerError
	}
	minutes := 0
	if v.RecordedDurationMinutes != nil {
		minutes = *v.RecordedDurationMinutes
	}
	switch v.Outcome {
	case "discarded":
		return "cancelled before 10 minutes, nothing recorded"
	case "cancelled_kept":
		return fmt.Sprintf("cancelled, kept %d min", minutes)
	default:
		return fmt.Sprintf("session recorded: %d min", minutes)
	}
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.showHelp {
		return m.help.View(m.keys)
	}
	if m.palette.Visible() {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.palette.View())
	}

	widget := m.renderWidget()
	placed := lipgloss.NewStyle().
		MarginLeft(max(0, m.view.UIX)).
		MarginTop(max(0, m.view.UIY)).
		Render(widget)
	return lipgloss.JoinVertical(lipgloss.Left, placed, "", theme.Muted.Render(m.status), m.help.View(m.keys))
}

func (m Model) renderWidget() string {
	if !m.loaded {
		return theme.WidgetDone.Render(theme.Muted.Render("streakd"))
	}
	v := m.view
	style := theme.WidgetFocus
	switch {
	case m.done:
		style = theme.WidgetDone
	case v.Mode == "on_break":
		style = theme.WidgetBreak
	}

	label := theme.Hot.Render(modeLabel(v))
	if m.done {
		label = theme.Good.Render("done")
		if v.LedgerError != "" {
			label = theme.Bad.Render("not recorded")
		}
	}
	lines := []string{
		theme.Title.Render(v.Title),
		label,
		"",
		theme.Clock.Render(formatClock(v.RemainingSeconds)),
		progressBar(v, 24),
		"",
		theme.Muted.Render(fmt.Sprintf("focused %s · breaks left %d", formatClock(v.TotalFocusSeconds), v.RemainingBreakReps)),
	}
	return style.Render(lipgloss.JoinVertical(lipgloss.Center, lines...))
}

func modeLabel(v sessiondto.RunView) string {
	switch {
	case v.Mode == "on_break" && v.Running:
		return "break"
	case v.Mode == "on_break":
		return "break paused"
	case v.Mode == "focusing" && v.Running:
		return "focus"
	case v.Mode == "focusing":
		return "paused"
	}
	return v.Mode
}

func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func progressBar(v sessiondto.RunView, width int) string {
	total := v.FocusSeconds
	if v.Mode == "on_break" {
		total = v.BreakSeconds
	}
	filled := width
	if total > 0 {
		filled = width * (total - v.RemainingSeconds) / total
	}
	filled = max(0, min(width, filled))
	return theme.Hot.Render(strings.Repeat("█", filled)) + theme.Muted.Render(strings.Repeat("░", width-filled))
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 || m.done || !m.loaded {
		return m, nil
	}
	switch parts[0] {
	case "pause":
		return m, m.applyCmd(sessiondto.OpPause)
	case "resume":
		return m, m.applyCmd(sessiondto.OpResume)
	case "take-break":
		return m, m.applyCmd(sessiondto.OpTakeBreak)
	case "skip-break":
		return m, m.applyCmd(sessiondto.OpSkipBreak)
	case "back-to-focus":
		return m, m.applyCmd(sessiondto.OpBackToFocus)
	case "cancel":
		return m, m.applyCmd(sessiondto.OpCancel)
	case "end":
		if len(parts) < 2 || parts[1] != "END" {
			m.status = "usage: end END"
			return m, nil
		}
		return m, m.applyCmd(sessiondto.OpEnd)
	case "move":
		if len(parts) < 3 {
			m.status = "usage: move <dx> <dy>"
			return m, nil
		}
		dx, errX := strconv.Atoi(parts[1])
		dy, errY := strconv.Atoi(parts[2])
		if errX != nil || errY != nil {
			m.status = "move offsets must be integers"
			return m, nil
		}
		return m, m.moveCmd(dx, dy)
	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// ─── async commands ───────────────────────────────────────────────────────────

func (m Model) openCmd() tea.Cmd {
	return func() tea.Msg {
		view, err := m.session.Open(context.Background(), m.userID, m.streakID)
		return openedMsg{view: view, err: err}
	}
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) applyCmd(op sessiondto.Operation) tea.Cmd {
	return func() tea.Msg {
		out, err := m.session.Do(context.Background(), m.userID, m.streakID, string(op))
		return appliedMsg{op: op, out: out, err: err}
	}
}

func (m Model) moveCmd(dx, dy int) tea.Cmd {
	return func() tea.Msg {
		view, err := m.session.Move(context.Background(), m.userID, m.streakID, dx, dy)
		return movedMsg{view: view, err: err}
	}
}
