package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestConfirmModelUpdate(t *testing.T) {
	tests := []struct {
		name       string
		key        tea.KeyMsg
		wantAnswer bool
		wantDone   bool
	}{
		{"y commits", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")}, true, true},
		{"Y commits", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("Y")}, true, true},
		{"n discards", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")}, false, true},
		{"enter discards", tea.KeyMsg{Type: tea.KeyEnter}, false, true},
		{"ctrl+c discards", tea.KeyMsg{Type: tea.KeyCtrlC}, false, true},
		{"other keys are ignored", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, cmd := confirmModel{question: "Commit?"}.Update(tt.key)
			m := next.(confirmModel)

			if m.answer != tt.wantAnswer || m.answered != tt.wantDone {
				t.Errorf("answer=%v answered=%v, want %v %v", m.answer, m.answered, tt.wantAnswer, tt.wantDone)
			}
			if (cmd != nil) != tt.wantDone {
				t.Errorf("quit command = %v, want quit %v", cmd != nil, tt.wantDone)
			}
		})
	}
}

func TestConfirmModelView(t *testing.T) {
	m := confirmModel{question: "Commit these changes?"}
	if v := m.View(); !strings.Contains(v, "Commit these changes?") || !strings.Contains(v, "[y/N]") {
		t.Errorf("View() = %q", v)
	}

	m.answer, m.answered = true, true
	if v := m.View(); !strings.Contains(v, "yes") {
		t.Errorf("answered View() = %q", v)
	}
}

func TestConfirmReadsInput(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y", true},
		{"n", false},
		{"\r", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := confirm(t.Context(), strings.NewReader(tt.input), "Commit?")
			if err != nil {
				t.Fatalf("confirm() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("confirm(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
