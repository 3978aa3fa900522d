package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sv4u/spotifydl/download"
)

const (
	maxErrorsInTUI = 20
	barWidth       = 24
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// downloadMsg is a message from the download service or log tee.
type downloadMsg struct {
	Event   *download.Event
	Summary *download.Summary
	LogErr  string
}

// downloadModel is the Bubble Tea model for the progress view.
type downloadModel struct {
	resource   string
	resources  int
	total      int
	downloaded int
	skipped    int
	failed     int
	active     map[string]float64
	errors     []string
	logPath    string
	cancel     context.CancelFunc
	cancelling bool
	quitEarly  bool
	summary    *download.Summary
	ch         chan downloadMsg
	width      int
}

func newDownloadModel(logPath string, cancel context.CancelFunc, ch chan downloadMsg) *downloadModel {
	return &downloadModel{
		active:  make(map[string]float64),
		errors:  make([]string, 0, maxErrorsInTUI),
		logPath: logPath,
		cancel:  cancel,
		ch:      ch,
	}
}

func (m *downloadModel) Init() tea.Cmd {
	return m.waitForMsg()
}

func (m *downloadModel) waitForMsg() tea.Cmd {
	return func() tea.Msg {
		return <-m.ch
	}
}

func (m *downloadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.cancelling {
				m.quitEarly = true
				return m, tea.Quit
			}
			m.cancelling = true
			m.cancel()
		}
		return m, nil
	case downloadMsg:
		if msg.Summary != nil {
			m.summary = msg.Summary
			return m, tea.Quit
		}
		if msg.LogErr != "" {
			m.addError(msg.LogErr)
		}
		if msg.Event != nil {
			m.apply(*msg.Event)
		}
		return m, m.waitForMsg()
	}
	return m, nil
}

func (m *downloadModel) apply(e download.Event) {
	switch e.Kind {
	case download.EventResourceStart:
		m.resource = e.Name
		m.resources++
		m.total += e.Total
	case download.EventResourceFailed:
		m.addError(e.Locator + ": " + errString(e.Err))
	case download.EventTrackStart:
		m.active[e.Name] = 0
	case download.EventTrackProgress:
		if _, ok := m.active[e.Name]; ok {
			m.active[e.Name] = e.Progress
		}
	case download.EventTrackDone:
		m.downloaded++
		delete(m.active, e.Name)
	case download.EventTrackSkipped:
		m.skipped++
		delete(m.active, e.Name)
	case download.EventTrackFailed:
		m.failed++
		delete(m.active, e.Name)
		m.addError(e.Name + ": " + errString(e.Err))
	}
}

func (m *downloadModel) addError(s string) {
	m.errors = append(m.errors, s)
	if len(m.errors) > maxErrorsInTUI {
		m.errors = m.errors[len(m.errors)-maxErrorsInTUI:]
	}
}

func (m *downloadModel) View() string {
	var b strings.Builder
	b.WriteString("  " + titleStyle.Render("spotifydl") + "\n\n")
	if m.resource != "" {
		b.WriteString("  " + labelStyle.Render("Listing:") + " " + truncate(m.resource, 60) + "\n")
	}
	fmt.Fprintf(&b, "  %s %s  %s  %s  %s\n",
		labelStyle.Render("Tracks:"),
		okStyle.Render(fmt.Sprintf("%d downloaded", m.downloaded)),
		warnStyle.Render(fmt.Sprintf("%d skipped", m.skipped)),
		errStyle.Render(fmt.Sprintf("%d failed", m.failed)),
		fmt.Sprintf("%d total", m.total))
	if m.logPath != "" {
		b.WriteString("  " + labelStyle.Render("Log file:") + " " + m.logPath + "\n")
	}
	b.WriteString("\n")

	names := make([]string, 0, len(m.active))
	for name := range m.active {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "  %s %3.0f%%  %s\n", progressBar(m.active[name], barWidth), m.active[name]*100, truncate(name, 50))
	}

	if len(m.errors) > 0 {
		b.WriteString("\n  " + errStyle.Render("Recent errors:") + "\n")
		start := 0
		if len(m.errors) > 10 {
			start = len(m.errors) - 10
		}
		for i := start; i < len(m.errors); i++ {
			b.WriteString("    • " + truncate(m.errors[i], 70) + "\n")
		}
	}

	if m.cancelling {
		b.WriteString("\n  " + warnStyle.Render("Cancelling... press ctrl+c again to quit now.") + "\n")
	} else {
		b.WriteString("\n  " + labelStyle.Render("Press ctrl+c to cancel.") + "\n")
	}
	return b.String()
}

func progressBar(fraction float64, width int) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction * float64(width))
	return okStyle.Render(strings.Repeat("█", filled)) + labelStyle.Render(strings.Repeat("░", width-filled))
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// RunDownloadTUI runs service over locators behind the progress view and
// returns the run summary. Log lines sent to logErrCh (optional) are shown
// as recent errors. If the user quits before the run ends, ctx is cancelled
// via cancel and the summary of the interrupted run is returned.
func RunDownloadTUI(
	ctx context.Context,
	cancel context.CancelFunc,
	service *download.Service,
	locators []string,
	logPath string,
	logErrCh <-chan string,
) (*download.Summary, error) {
	progressCh := make(chan downloadMsg, 64)
	service.SetObserver(func(e download.Event) {
		progressCh <- downloadMsg{Event: &e}
	})
	go func() {
		progressCh <- downloadMsg{Summary: service.Run(ctx, locators)}
	}()
	if logErrCh != nil {
		go func() {
			for s := range logErrCh {
				progressCh <- downloadMsg{LogErr: s}
			}
		}()
	}

	model := newDownloadModel(logPath, cancel, progressCh)
	p := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := p.Run()

	if dm, ok := finalModel.(*downloadModel); ok && dm.summary != nil {
		return dm.summary, err
	}
	if dm, ok := finalModel.(*downloadModel); ok && dm.quitEarly {
		cancel()
	}
	// The service is still running; keep draining so it never blocks on
	// the observer.
	for msg := range progressCh {
		if msg.Summary != nil {
			return msg.Summary, err
		}
	}
	return nil, err
}
