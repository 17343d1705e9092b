package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"llmkeyring/i18n"
	"llmkeyring/provider"
)

func TestPadRight(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
	}{
		{"short ascii", "abc", 6},
		{"exact", "abcdef", 6},
		{"truncated", "abcdefghij", 6},
		{"cjk", "硅基流动", 6},
		{"cjk truncated", "硅基流动硅基流动", 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := padRight(tt.in, tt.width)
			if w := runewidth.StringWidth(got); w != tt.width {
				t.Errorf("padRight(%q, %d) width = %d, want %d (%q)", tt.in, tt.width, w, tt.width, got)
			}
		})
	}
}

func sampleProviders() []provider.Provider {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return []provider.Provider{
		{
			ID:       "a1",
			Name:     "DeepSeek",
			Kind:     provider.KindOpenAICompatible,
			BaseURL:  "https://api.deepseek.com",
			Enabled:  true,
			Auth:     provider.BearerAuth("prov_A1"),
			LastTest: provider.LastTest{Status: provider.StatusSuccess, At: &at, Message: "HTTP 200"},
		},
		{
			ID:       "b2",
			Name:     "Local Ollama",
			Kind:     provider.KindOllama,
			BaseURL:  "http://localhost:11434",
			Enabled:  false,
			Auth:     provider.NoAuth(),
			LastTest: provider.UnknownTest,
		},
	}
}

func TestRenderProviderTable(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderProviderTable(&buf, sampleProviders(), "a1", i18n.English); err != nil {
		t.Fatalf("RenderProviderTable() error = %v", err)
	}
	out := buf.String()

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), out)
	}
	for _, want := range []string{"NAME", "DeepSeek", "Local Ollama", "https://api.deepseek.com", "key", "none", "2025-03-01"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(lines[1], "*") {
		t.Errorf("default marker missing on first row: %q", lines[1])
	}
	if strings.Contains(lines[2], "*") {
		t.Errorf("unexpected default marker on second row: %q", lines[2])
	}
}

func TestStatusLine(t *testing.T) {
	got := StatusLine(provider.StatusFailure, "HTTP 401\nunauthorized")
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("StatusLine() lines = %d, want 2", len(lines))
	}
	if !strings.Contains(lines[0], "HTTP 401") {
		t.Errorf("first line = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "  ") || !strings.Contains(lines[1], "unauthorized") {
		t.Errorf("continuation line = %q", lines[1])
	}

	if got := StatusLine(provider.StatusUnknown, ""); got != StatusDot(provider.StatusUnknown) {
		t.Errorf("StatusLine() with empty message = %q", got)
	}
}

func TestProviderMarkdown(t *testing.T) {
	p := sampleProviders()[0]
	p.ExtraHeaders = map[string]string{"X-Title": "LLMKeyring", "HTTP-Referer": "https://github.com/"}

	md := ProviderMarkdown(p, true, i18n.English)
	for _, want := range []string{"# DeepSeek (default)", "`a1`", "prov_A1", "HTTP-Referer", "X-Title", "ok", "HTTP 200"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Index(md, "HTTP-Referer") > strings.Index(md, "X-Title") {
		t.Error("headers are not sorted")
	}

	zh := ProviderMarkdown(sampleProviders()[1], false, i18n.New("zh-CN"))
	if !strings.Contains(zh, "未测试") {
		t.Errorf("localized markdown missing status:\n%s", zh)
	}

	rendered := RenderMarkdown(md, 80)
	if !strings.Contains(rendered, "DeepSeek") {
		t.Errorf("RenderMarkdown() lost the title:\n%s", rendered)
	}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestTestBoardUpdate(t *testing.T) {
	rows := []BoardRow{{ID: "a1", Name: "DeepSeek"}, {ID: "b2", Name: "Kimi"}}
	check := func(ctx context.Context, ids []string, report ReportFunc) {
		for _, id := range ids {
			if id == "b2" {
				report(id, provider.TestResult{}, errors.New("provider deleted"))
				continue
			}
			report(id, provider.TestResult{Status: provider.StatusSuccess, Message: "HTTP 200"}, nil)
		}
	}

	board := NewTestBoard(context.Background(), rows, check)
	if !strings.Contains(board.View(), "2 running") {
		t.Errorf("initial view:\n%s", board.View())
	}
	if msg := board.startChecks(); msg != nil {
		t.Fatalf("startChecks() = %v, want nil", msg)
	}

	first := board.waitForResult()
	var m tea.Model = board
	m, next := m.Update(first)
	if next == nil {
		t.Fatal("board stopped listening with a row still pending")
	}

	// A duplicate result for the same row is ignored.
	m, _ = m.Update(first)
	if got := m.(TestBoard).pending; got != 1 {
		t.Fatalf("pending = %d, want 1", got)
	}

	m, cmd := m.Update(next())
	if !isQuit(cmd) {
		t.Fatal("board did not quit after the last result")
	}

	final := m.(TestBoard)
	if final.Cancelled() {
		t.Error("Cancelled() = true after normal completion")
	}
	results := final.Results()
	if !results[0].Done || results[0].Result.Status != provider.StatusSuccess {
		t.Errorf("row 0 = %+v", results[0])
	}
	if !results[1].Done || results[1].Err == nil {
		t.Errorf("row 1 = %+v", results[1])
	}

	view := final.View()
	for _, want := range []string{"HTTP 200", "provider deleted"} {
		if !strings.Contains(view, want) {
			t.Errorf("final view missing %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, "running") {
		t.Errorf("final view still shows progress:\n%s", view)
	}
}

func TestTestBoardCancel(t *testing.T) {
	started := make(chan struct{})
	stopped := make(chan error, 1)
	check := func(ctx context.Context, ids []string, report ReportFunc) {
		close(started)
		<-ctx.Done()
		stopped <- ctx.Err()
		report(ids[0], provider.TestResult{}, ctx.Err())
	}

	board := NewTestBoard(context.Background(), []BoardRow{{ID: "a1", Name: "Slow"}}, check)
	go board.startChecks()
	<-started

	m, cmd := board.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !isQuit(cmd) {
		t.Fatal("ctrl+c did not quit")
	}
	if !m.(TestBoard).Cancelled() {
		t.Error("Cancelled() = false after ctrl+c")
	}

	select {
	case err := <-stopped:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("in-flight check saw %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight check was not cancelled")
	}
}

func TestTestBoardEmpty(t *testing.T) {
	board := NewTestBoard(context.Background(), nil, nil)
	if !isQuit(board.Init()) {
		t.Error("empty board should quit immediately")
	}
}

func TestRunChecks(t *testing.T) {
	rows := []BoardRow{{ID: "a1", Name: "DeepSeek"}, {ID: "b2", Name: "Kimi"}, {ID: "c3", Name: "Groq"}}
	check := func(ctx context.Context, ids []string, report ReportFunc) {
		var wg sync.WaitGroup
		for _, id := range ids {
			wg.Add(1)
			go func() {
				defer wg.Done()
				status := provider.StatusSuccess
				if id == "b2" {
					status = provider.StatusFailure
				}
				report(id, provider.TestResult{Status: status, Message: id}, nil)
			}()
		}
		wg.Wait()
		report("unknown", provider.TestResult{}, nil)
	}

	results := RunChecks(context.Background(), rows, check)
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	for i, r := range results {
		if r.Row != rows[i] || !r.Done || r.Result.Message != rows[i].ID {
			t.Errorf("result %d = %+v", i, r)
		}
	}
	if results[1].Result.OK() {
		t.Error("Kimi should have failed")
	}

	var b bytes.Buffer
	if err := RenderResults(&b, results); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(b.String(), "●"); n != 3 {
		t.Errorf("rendered %d dots, want 3:\n%s", n, b.String())
	}
}

func TestSecretPrompt(t *testing.T) {
	var m tea.Model = NewSecretPrompt("API key", "DeepSeek", "")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if isQuit(cmd) {
		t.Fatal("empty input should not submit")
	}
	if !strings.Contains(m.View(), "cannot be empty") {
		t.Errorf("missing validation message:\n%s", m.View())
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("sk-secret")})
	if strings.Contains(m.View(), "sk-secret") {
		t.Error("view echoes the secret")
	}

	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !isQuit(cmd) {
		t.Fatal("enter did not submit")
	}
	if got := m.(SecretPrompt).Value(); got != "sk-secret" {
		t.Errorf("Value() = %q, want sk-secret", got)
	}

	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if !isQuit(cmd) || !m.(SecretPrompt).Cancelled() {
		t.Error("esc did not cancel")
	}
	if got := m.(SecretPrompt).Value(); got != "" {
		t.Errorf("Value() after cancel = %q", got)
	}
}

func TestCopyToClipboard(t *testing.T) {
	orig := writeClipboard
	t.Cleanup(func() { writeClipboard = orig })

	var got string
	writeClipboard = func(s string) error {
		got = s
		return nil
	}
	err := CopyToClipboard("https://api.deepseek.com")
	if errors.Is(err, ErrClipboardUnavailable) {
		t.Skip("no clipboard utility on this machine")
	}
	if err != nil {
		t.Fatalf("CopyToClipboard() error = %v", err)
	}
	if got != "https://api.deepseek.com" {
		t.Errorf("clipboard = %q", got)
	}

	writeClipboard = func(string) error { return errors.New("exit status 1") }
	if err := CopyToClipboard("x"); !errors.Is(err, ErrClipboardUnavailable) {
		t.Errorf("CopyToClipboard() error = %v, want ErrClipboardUnavailable", err)
	}
}
