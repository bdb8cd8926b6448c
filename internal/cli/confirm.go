package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// confirmKeys are the answers a confirmation prompt accepts. Anything other
// than yes declines, so a stray enter never commits.
var confirmKeys = struct {
	Yes key.Binding
	No  key.Binding
}{
	Yes: key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "commit")),
	No:  key.NewBinding(key.WithKeys("n", "N", "enter", "esc", "q", "ctrl+c", "ctrl+d"), key.WithHelp("n", "discard")),
}

// confirmModel is a single y/N question.
type confirmModel struct {
	question string
	answer   bool
	answered bool
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, confirmKeys.Yes):
			m.answer, m.answered = true, true
			return m, tea.Quit
		case key.Matches(msg, confirmKeys.No):
			m.answered = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.answered {
		answer := StyleWarning.Render("no")
		if m.answer {
			answer = StyleSuccess.Render("yes")
		}
		return fmt.Sprintf("%s %s %s\n", StyleTitle.Render("?"), m.question, answer)
	}
	return fmt.Sprintf("%s %s %s ", StyleTitle.Render("?"), m.question, StyleDim.Render("[y/N]"))
}

// confirm asks question and reads one key from in. It reports false for
// anything but y, and when in closes before an answer.
func confirm(ctx context.Context, in io.Reader, question string) (bool, error) {
	p := tea.NewProgram(confirmModel{question: question},
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(os.Stderr),
	)
	final, err := p.Run()
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, err
	}
	m, ok := final.(confirmModel)
	return ok && m.answer, nil
}
