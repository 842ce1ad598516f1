package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/vvka-141/pgload/pkg/pgload"
)

const maxConfirmFiles = 8

// confirmModel is the full-screen load confirmation. It starts on "Cancel".
type confirmModel struct {
	plan     *pgload.Report
	keys     KeyMap
	yes      bool
	done     bool
	approved bool
	width    int
}

func newConfirmModel(plan *pgload.Report) confirmModel {
	return confirmModel{plan: plan, keys: DefaultKeyMap(), width: 80}
}

// Init implements tea.Model.
func (m confirmModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Yes):
			return m.finish(true)
		case key.Matches(msg, m.keys.No), key.Matches(msg, m.keys.Quit):
			return m.finish(false)
		case key.Matches(msg, m.keys.Toggle):
			m.yes = !m.yes
		case key.Matches(msg, m.keys.Select):
			return m.finish(m.yes)
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	}
	return m, nil
}

func (m confirmModel) finish(approved bool) (tea.Model, tea.Cmd) {
	m.approved = approved
	m.done = true
	return m, tea.Quit
}

// View implements tea.Model.
func (m confirmModel) View() string {
	if m.done {
		if m.approved {
			return SuccessStyle.Render(SymbolCheck+" Confirmed. Loading...") + "\n"
		}
		return ErrorStyle.Render(fmt.Sprintf("%s Load into %s cancelled.", SymbolCross, m.plan.Table)) + "\n"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("Load %d file(s) into %s", len(m.plan.Files), m.plan.Table)))
	b.WriteString("\n")
	b.WriteString(SubtitleStyle.Render(fmt.Sprintf("%d target column(s); rows are appended", m.plan.Columns.Len())))
	b.WriteString("\n\n")

	var files strings.Builder
	for i, f := range m.plan.Files {
		if i == maxConfirmFiles {
			files.WriteString(MutedStyle.Render(fmt.Sprintf("... and %d more", len(m.plan.Files)-maxConfirmFiles)))
			break
		}
		if i > 0 {
			files.WriteString("\n")
		}
		files.WriteString(SymbolBullet + " " + f.Path)
	}
	b.WriteString(BoxStyle.Width(max(m.width-4, 20)).Render(files.String()))
	b.WriteString("\n\n")

	load, cancel := ButtonStyle, ActiveButtonStyle
	if m.yes {
		load, cancel = ActiveButtonStyle, ButtonStyle
	}
	b.WriteString(load.Render("Load"))
	b.WriteString("  ")
	b.WriteString(cancel.Render("Cancel"))
	b.WriteString("\n")
	b.WriteString(HelpStyle.Render(m.keys.HelpText()))
	b.WriteString("\n")
	return b.String()
}

// ConfirmApprover asks for approval on a bubbletea confirmation screen.
type ConfirmApprover struct {
	input  io.Reader
	output io.Writer
}

var _ pgload.Approver = (*ConfirmApprover)(nil)

// NewConfirmApprover creates a ConfirmApprover on the process terminal.
func NewConfirmApprover() *ConfirmApprover {
	return &ConfirmApprover{input: os.Stdin, output: os.Stdout}
}

// RequestApproval shows the plan and waits for the operator's choice.
func (a *ConfirmApprover) RequestApproval(ctx context.Context, plan *pgload.Report) (bool, error) {
	p := tea.NewProgram(newConfirmModel(plan),
		tea.WithContext(ctx),
		tea.WithInput(a.input),
		tea.WithOutput(a.output),
	)

	final, err := p.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		if errors.Is(err, tea.ErrProgramKilled) {
			return false, nil
		}
		return false, fmt.Errorf("confirmation prompt failed: %w", err)
	}

	m, ok := final.(confirmModel)
	if !ok {
		return false, fmt.Errorf("unexpected model %T", final)
	}
	return m.done && m.approved, nil
}
