package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrPromptCancelled is returned when the user leaves a prompt with Esc or Ctrl+C.
var ErrPromptCancelled = errors.New("prompt cancelled")

// NewSecretInput creates a masked textinput for API keys and passphrases.
func NewSecretInput(placeholder string) textinput.Model {
	input := textinput.New()
	input.Placeholder = placeholder
	input.Width = 50
	input.CharLimit = 512
	input.EchoMode = textinput.EchoPassword
	input.EchoCharacter = '•'
	return input
}

// SecretPrompt asks for one masked value.
type SecretPrompt struct {
	title     string
	detail    string
	input     textinput.Model
	err       string
	cancelled bool
}

func NewSecretPrompt(title, detail, placeholder string) SecretPrompt {
	input := NewSecretInput(placeholder)
	input.Focus()
	return SecretPrompt{title: title, detail: detail, input: input}
}

func (m SecretPrompt) Init() tea.Cmd {
	return textinput.Blink
}

func (m SecretPrompt) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit

		case "enter":
			if strings.TrimSpace(m.input.Value()) == "" {
				m.err = "value cannot be empty"
				return m, nil
			}
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m SecretPrompt) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(m.title) + "\n")
	if m.detail != "" {
		b.WriteString(DimStyle.Render(m.detail) + "\n")
	}
	b.WriteString("\n" + m.input.View() + "\n")
	if m.err != "" {
		b.WriteString(ErrorStyle.Render("⚠ "+m.err) + "\n")
	}
	b.WriteString("\n" + FormatFooter("Enter", "Continue", "Esc", "Cancel") + "\n")
	return b.String()
}

// Value returns the entered text, or "" after a cancel.
func (m SecretPrompt) Value() string {
	if m.cancelled {
		return ""
	}
	return strings.TrimSpace(m.input.Value())
}

func (m SecretPrompt) Cancelled() bool {
	return m.cancelled
}

// PromptSecret runs a SecretPrompt on the terminal.
func PromptSecret(in io.Reader, out io.Writer, title, detail string) (string, error) {
	final, err := tea.NewProgram(NewSecretPrompt(title, detail, "paste here"), tea.WithInput(in), tea.WithOutput(out)).Run()
	if err != nil {
		return "", fmt.Errorf("prompt: %w", err)
	}
	m := final.(SecretPrompt)
	if m.Cancelled() {
		return "", ErrPromptCancelled
	}
	return m.Value(), nil
}
