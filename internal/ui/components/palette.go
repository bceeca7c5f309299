package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"streakd/internal/ui/theme"
)

// PaletteSubmitMsg carries the typed command line when the user presses enter.
type PaletteSubmitMsg struct{ Input string }

// PaletteCancelMsg is emitted when the user dismisses the palette with esc.
type PaletteCancelMsg struct{}

// Command describes one timer action the palette can run.
type Command struct {
	Name    string
	Args    string
	Summary string
}

// Commands lists what app.Model.executePalette understands, in display order.
var Commands = []Command{
	{Name: "pause", Summary: "stop the countdown"},
	{Name: "resume", Summary: "continue the countdown"},
	{Name: "take-break", Summary: "spend one break repetition"},
	{Name: "skip-break", Summary: "return to focus before the break starts"},
	{Name: "back-to-focus", Summary: "end the break early"},
	{Name: "cancel", Summary: "stop; runs under 10 minutes leave no record"},
	{Name: "end", Args: "END", Summary: "finish and record the run"},
	{Name: "move", Args: "<dx> <dy>", Summary: "shift the timer widget"},
}

const maxShownCommands = 4

var (
	paletteStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Lavender).
			Background(theme.Mantle).
			Foreground(theme.Text).
			Padding(0, 1)

	commandStyle = lipgloss.NewStyle().Foreground(theme.Peach)
	argStyle     = lipgloss.NewStyle().Foreground(theme.Sapphire)
)

// Palette is the ":" prompt over the timer. Tab completes a unique command
// name.
type Palette struct {
	input   textinput.Model
	visible bool
	width   int
}

func NewPalette() Palette {
	ti := textinput.New()
	ti.Placeholder = "pause, end END, move 2 0…"
	ti.Prompt = ": "
	ti.CharLimit = 32
	return Palette{input: ti}
}

func (p Palette) Visible() bool { return p.visible }

// Open shows an empty prompt and returns the cursor blink command.
func (p *Palette) Open() tea.Cmd {
	p.visible = true
	p.input.SetValue("")
	return p.input.Focus()
}

func (p *Palette) SetWidth(w int) { p.width = w }

// Value is the current command line.
func (p Palette) Value() string { return p.input.Value() }

func (p Palette) Update(msg tea.Msg) (Palette, tea.Cmd) {
	if !p.visible {
		return p, nil
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			p.close()
			return p, func() tea.Msg { return PaletteCancelMsg{} }
		case "enter":
			line := strings.Join(strings.Fields(p.input.Value()), " ")
			p.close()
			return p, func() tea.Msg { return PaletteSubmitMsg{Input: line} }
		case "tab":
			if matches := matchCommands(p.input.Value()); len(matches) == 1 {
				p.input.SetValue(matches[0].Name + " ")
				p.input.CursorEnd()
			}
			return p, nil
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p *Palette) close() {
	p.visible = false
	p.input.Blur()
}

func (p Palette) View() string {
	if !p.visible {
		return ""
	}
	lines := []string{theme.Title.Render("Timer command"), p.input.View()}
	matches := matchCommands(p.input.Value())
	if len(matches) > 0 {
		lines = append(lines, "")
	}
	for i, c := range matches {
		if i == maxShownCommands {
			lines = append(lines, theme.Muted.Render(fmt.Sprintf("  +%d more", len(matches)-i)))
			break
		}
		usage := commandStyle.Render(c.Name)
		if c.Args != "" {
			usage += " " + argStyle.Render(c.Args)
		}
		lines = append(lines, "  "+usage+"  "+theme.Muted.Render(c.Summary))
	}

	w := p.width
	if w < 20 {
		w = 48
	}
	return paletteStyle.Width(w - 2).Render(strings.Join(lines, "\n"))
}

// matchCommands filters by the first word typed so far. Once arguments are
// being typed only the exact command stays.
func matchCommands(input string) []Command {
	fields := strings.Fields(strings.ToLower(input))
	if len(fields) == 0 {
		return Commands
	}
	exact := len(fields) > 1 || strings.HasSuffix(input, " ")
	var out []Command
	for _, c := range Commands {
		if c.Name == fields[0] || (!exact && strings.HasPrefix(c.Name, fields[0])) {
			out = append(out, c)
		}
	}
	return out
}
