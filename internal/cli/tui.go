package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	inputStyle  = lipgloss.NewStyle().Foreground(colorWhite)
	hintStyle   = lipgloss.NewStyle().Foreground(colorDim)
)

// confirmWord must be typed in full to confirm a destructive action.
const confirmWord = "yes"

// =============================================================================
// ConfirmModel - Typed confirmation for destructive commands
// =============================================================================

// ConfirmModel asks the user to type "yes" before a destructive action.
type ConfirmModel struct {
	Prompt    string
	Input     string
	Confirmed bool
	Done      bool
}

// NewConfirmModel creates a confirmation prompt.
func NewConfirmModel(prompt string) ConfirmModel {
	return ConfirmModel{Prompt: prompt}
}

func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.Done = true
		return m, tea.Quit
	case tea.KeyEnter:
		m.Confirmed = strings.EqualFold(strings.TrimSpace(m.Input), confirmWord)
		m.Done = true
		return m, tea.Quit
	case tea.KeyBackspace:
		if len(m.Input) > 0 {
			r := []rune(m.Input)
			m.Input = string(r[:len(r)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		m.Input += string(key.Runes)
	}
	return m, nil
}

func (m ConfirmModel) View() string {
	if m.Done {
		return ""
	}
	var b strings.Builder
	b.WriteString(promptStyle.Render(m.Prompt))
	b.WriteString("\n")
	b.WriteString(hintStyle.Render("type " + confirmWord + " to continue, esc to cancel"))
	b.WriteString("\n> ")
	b.WriteString(inputStyle.Render(m.Input))
	return b.String()
}

// errAborted is returned when the user declines a confirmation.
var errAborted = errors.New("aborted")

// confirm runs the prompt on the terminal and reports whether the user
// confirmed. It reads from in and draws to out.
func confirm(ctx context.Context, in io.Reader, out io.Writer, prompt string) (bool, error) {
	p := tea.NewProgram(NewConfirmModel(prompt),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return false, err
	}
	return final.(ConfirmModel).Confirmed, nil
}

// confirmTerminal prompts on stdin and stderr.
func confirmTerminal(ctx context.Context, prompt string) (bool, error) {
	return confirm(ctx, os.Stdin, os.Stderr, prompt)
}
