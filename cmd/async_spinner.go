package cmd

import (
	"fmt"
	"io"

	"github.com/bnema/arthas-cli/internal/domain"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type asyncDoneMsg struct {
	resp domain.Response
}

type asyncSpinnerModel struct {
	spinner spinner.Model
	label   string
	run     tea.Cmd
	resp    domain.Response
	done    bool
}

func newAsyncSpinnerModel(label string, run tea.Cmd) asyncSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return asyncSpinnerModel{
		spinner: s,
		label:   label,
		run:     run,
	}
}

func (m asyncSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run)
}

func (m asyncSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case asyncDoneMsg:
		m.done = true
		m.resp = msg.resp
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m asyncSpinnerModel) View() string {
	if m.done {
		return ""
	}

	return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
}

func runAsyncSpinner(output io.Writer, label string, run func() domain.Response) (domain.Response, error) {
	runCmd := func() tea.Msg {
		return asyncDoneMsg{resp: run()}
	}

	// run observes ctx itself and returns only after the session is released,
	// so the program is not bound to ctx and leaves signals to the caller.
	p := tea.NewProgram(
		newAsyncSpinnerModel(label, runCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithoutSignalHandler(),
	)

	finalModel, err := p.Run()
	if err != nil {
		return domain.Response{}, err
	}

	result, ok := finalModel.(asyncSpinnerModel)
	if !ok {
		return domain.Response{}, fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.resp, nil
}
