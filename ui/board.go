package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"llmkeyring/provider"
)

// BoardRow is one provider on the test board.
type BoardRow struct {
	ID   string
	Name string
}

// BoardResult is the outcome for one row. Err is set when the check could
// not run at all (for example the provider was deleted).
type BoardResult struct {
	Row    BoardRow
	Result provider.TestResult
	Err    error
	Done   bool
}

// ReportFunc receives one finished check. It may be called from several
// goroutines.
type ReportFunc func(id string, res provider.TestResult, err error)

// CheckFunc runs the checks for ids and calls report once per id as each
// finishes. It returns when every check is done and never calls report
// after returning.
type CheckFunc func(ctx context.Context, ids []string, report ReportFunc)

type boardResultMsg struct {
	id     string
	result provider.TestResult
	err    error
}

// TestBoard runs the checks for its rows and shows a spinner per row until
// that row's result arrives. It quits when all rows are done.
type TestBoard struct {
	ctx     context.Context
	cancel  context.CancelFunc
	check   CheckFunc
	results []BoardResult
	index   map[string]int
	pending int
	spinner spinner.Model
	updates chan boardResultMsg

	cancelled bool
}

func NewTestBoard(ctx context.Context, rows []BoardRow, check CheckFunc) TestBoard {
	ctx, cancel := context.WithCancel(ctx)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = HighlightStyle

	results := make([]BoardResult, len(rows))
	index := make(map[string]int, len(rows))
	for i, r := range rows {
		results[i].Row = r
		index[r.ID] = i
	}

	return TestBoard{
		ctx:     ctx,
		cancel:  cancel,
		check:   check,
		results: results,
		index:   index,
		pending: len(rows),
		spinner: s,
		updates: make(chan boardResultMsg, len(rows)),
	}
}

func (m TestBoard) Init() tea.Cmd {
	if m.pending == 0 {
		return tea.Quit
	}
	return tea.Batch(m.spinner.Tick, m.startChecks, m.waitForResult)
}

// startChecks runs the checks off the UI goroutine, feeding m.updates.
func (m TestBoard) startChecks() tea.Msg {
	ids := make([]string, len(m.results))
	for i, r := range m.results {
		ids[i] = r.Row.ID
	}
	m.check(m.ctx, ids, func(id string, res provider.TestResult, err error) {
		select {
		case m.updates <- boardResultMsg{id: id, result: res, err: err}:
		case <-m.ctx.Done():
		}
	})
	close(m.updates)
	return nil
}

// waitForResult waits for the next finished check.
func (m TestBoard) waitForResult() tea.Msg {
	msg, ok := <-m.updates
	if !ok {
		return nil
	}
	return msg
}

func (m TestBoard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.cancelled = true
			m.cancel()
			return m, tea.Quit
		}
		return m, nil

	case boardResultMsg:
		i, ok := m.index[msg.id]
		if !ok || m.results[i].Done {
			return m, m.waitForResult
		}
		m.results[i].Result = msg.result
		m.results[i].Err = msg.err
		m.results[i].Done = true
		m.pending--
		if m.pending == 0 {
			m.cancel()
			return m, tea.Quit
		}
		return m, m.waitForResult

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m TestBoard) View() string {
	var b strings.Builder
	writeRows(&b, m.results, m.spinner.View())
	if m.pending > 0 {
		b.WriteString("\n" + DimStyle.Render(fmt.Sprintf("%d running  ", m.pending)) + FormatFooter("q", "Cancel") + "\n")
	}
	return b.String()
}

// RunChecks runs check for rows without a board and returns the results in
// row order.
func RunChecks(ctx context.Context, rows []BoardRow, check CheckFunc) []BoardResult {
	results := make([]BoardResult, len(rows))
	index := make(map[string]int, len(rows))
	ids := make([]string, len(rows))
	for i, r := range rows {
		results[i].Row = r
		index[r.ID] = i
		ids[i] = r.ID
	}

	var mu sync.Mutex
	check(ctx, ids, func(id string, res provider.TestResult, err error) {
		mu.Lock()
		defer mu.Unlock()
		if i, ok := index[id]; ok {
			results[i].Result, results[i].Err, results[i].Done = res, err, true
		}
	})
	return results
}

// RenderResults writes finished results the way the board shows them, for
// output that is not a terminal.
func RenderResults(w io.Writer, results []BoardResult) error {
	var b strings.Builder
	writeRows(&b, results, DimStyle.Render("…"))
	_, err := io.WriteString(w, b.String())
	return err
}

func writeRows(b *strings.Builder, results []BoardResult, pending string) {
	width := 0
	for _, r := range results {
		width = max(width, runewidth.StringWidth(r.Row.Name))
	}
	width = min(width, nameWidth)

	for _, r := range results {
		name := padRight(r.Row.Name, width)
		switch {
		case !r.Done:
			fmt.Fprintf(b, "%s %s\n", pending, name)
		case r.Err != nil:
			fmt.Fprintf(b, "%s  %s %s\n", name, StatusDot(provider.StatusFailure), ErrorStyle.Render(r.Err.Error()))
		default:
			fmt.Fprintf(b, "%s  %s\n", name, StatusLine(r.Result.Status, r.Result.Message))
		}
	}
}

// Results returns the rows in their original order.
func (m TestBoard) Results() []BoardResult {
	out := make([]BoardResult, len(m.results))
	copy(out, m.results)
	return out
}

// Cancelled reports whether the user quit before every check finished.
func (m TestBoard) Cancelled() bool {
	return m.cancelled
}

// RunTestBoard runs the interactive board to completion.
func RunTestBoard(ctx context.Context, rows []BoardRow, check CheckFunc, in io.Reader, out io.Writer) ([]BoardResult, error) {
	board := NewTestBoard(ctx, rows, check)
	defer board.cancel()

	final, err := tea.NewProgram(board, tea.WithInput(in), tea.WithOutput(out), tea.WithContext(ctx)).Run()
	if err != nil {
		return nil, fmt.Errorf("test board: %w", err)
	}

	m := final.(TestBoard)
	if m.Cancelled() {
		return m.Results(), context.Canceled
	}
	return m.Results(), nil
}
