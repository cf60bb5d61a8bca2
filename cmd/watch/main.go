// Command watch is a terminal client that polls a product's analysis status
// and renders live pipeline progress.
//
// Usage:
//
//	watch -server http://localhost:8080 -product iphone-15-pro
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const pollInterval = 2 * time.Second

var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7D56F4")).
		MarginTop(1).
		MarginBottom(1)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#04B575"))

	errStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FF0000"))

	infoStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#626262"))

	boxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#874BFD")).
		Padding(1, 2)

	barFillStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#7D56F4"))
)

// statusResponse mirrors the status endpoint's JSON.
type statusResponse struct {
	ProductID   string `json:"product_id"`
	Status      string `json:"status"`
	Stage       string `json:"stage"`
	Progress    int    `json:"progress"`
	CurrentStep string `json:"current_step"`
	Error       string `json:"error,omitempty"`
}

type statusMsg struct {
	status *statusResponse
	err    error
}

type tickMsg time.Time

type model struct {
	server    string
	productID string
	client    *http.Client

	status    *statusResponse
	err       error
	connected bool
}

func newModel(server, productID string) model {
	return model{
		server:    strings.TrimSuffix(server, "/"),
		productID: productID,
		client:    &http.Client{Timeout: 5 * time.Second},
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.poll(), tick())
}

func (m model) poll() tea.Cmd {
	return func() tea.Msg {
		url := fmt.Sprintf("%s/api/v1/products/%s/status", m.server, m.productID)
		resp, err := m.client.Get(url)
		if err != nil {
			return statusMsg{err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return statusMsg{err: fmt.Errorf("product %q not found", m.productID)}
		}
		var status statusResponse
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			return statusMsg{err: err}
		}
		return statusMsg{status: &status}
	}
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case statusMsg:
		m.connected = msg.err == nil
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.status = msg.status
			if msg.status.Status == "completed" || msg.status.Status == "failed" {
				return m, tea.Quit
			}
		}
	case tickMsg:
		return m, tea.Batch(m.poll(), tick())
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("reviewlens · " + m.productID))
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(errStyle.Render("connection error: " + m.err.Error()))
	case m.status == nil:
		b.WriteString(infoStyle.Render("connecting..."))
	default:
		s := m.status
		b.WriteString(fmt.Sprintf("status: %s    stage: %s\n\n", renderStatus(s.Status), s.Stage))
		b.WriteString(progressBar(s.Progress) + "\n\n")
		b.WriteString(infoStyle.Render(s.CurrentStep))
		if s.Error != "" {
			b.WriteString("\n" + errStyle.Render("error: "+s.Error))
		}
	}

	b.WriteString("\n\n" + infoStyle.Render("press q to quit"))
	return boxStyle.Render(b.String())
}

func renderStatus(status string) string {
	switch status {
	case "completed":
		return okStyle.Render(status)
	case "failed":
		return errStyle.Render(status)
	default:
		return status
	}
}

func progressBar(progress int) string {
	const width = 40
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	filled := progress * width / 100
	bar := barFillStyle.Render(strings.Repeat("█", filled)) +
		infoStyle.Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("%s %3d%%", bar, progress)
}

func main() {
	server := flag.String("server", "http://localhost:8080", "API server base URL")
	product := flag.String("product", "", "product id to watch")
	flag.Parse()

	if *product == "" {
		fmt.Fprintln(os.Stderr, "usage: watch -server <url> -product <id>")
		os.Exit(2)
	}

	p := tea.NewProgram(newModel(*server, *product))
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "watch: %v\n", err)
		os.Exit(1)
	}
}
