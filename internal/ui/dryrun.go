package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Spinner frames for indeterminate progress
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// DryRunEntry holds one file's place in the dry-run queue
type DryRunEntry struct {
	InputPath  string
	OutputPath string
	Measured   []string // measurement summary lines
	Plan       []string // corrections that would be applied, one line each
	Err        error
	Done       bool
}

// DryRunModel is the Bubbletea model for dry-run mode: each file is
// measured and the corrections that would be applied are listed, but
// nothing is written.
type DryRunModel struct {
	Files        []DryRunEntry
	CurrentIndex int
	StartTime    time.Time
	Done         bool

	// Spinner state
	spinnerIndex int

	// Terminal dimensions
	Width  int
	Height int
}

// DryRunStartMsg signals measurement of one file has started
type DryRunStartMsg struct {
	FileIndex int
}

// DryRunPlanMsg carries the measurements and derived correction plan
// for one file
type DryRunPlanMsg struct {
	FileIndex  int
	OutputPath string
	Measured   []string
	Plan       []string
	Err        error
}

// DryRunAllDoneMsg signals every file has been measured
type DryRunAllDoneMsg struct{}

// tickMsg is sent for spinner/timer animation
type tickMsg time.Time

// NewDryRunModel creates a dry-run UI model for the given input files
func NewDryRunModel(inputFiles []string) DryRunModel {
	files := make([]DryRunEntry, len(inputFiles))
	for i, path := range inputFiles {
		files[i] = DryRunEntry{InputPath: path}
	}

	return DryRunModel{
		Files:        files,
		CurrentIndex: -1,
		StartTime:    time.Now(),
	}
}

// Init initializes the model
func (m DryRunModel) Init() tea.Cmd {
	return tickCmd()
}

// tickCmd returns a command that sends a tick message every 100ms
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages and updates the model
func (m DryRunModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case tickMsg:
		if !m.Done {
			// Advance spinner
			m.spinnerIndex = (m.spinnerIndex + 1) % len(spinnerFrames)
			return m, tickCmd()
		}
		return m, nil

	case DryRunStartMsg:
		if msg.FileIndex >= 0 && msg.FileIndex < len(m.Files) {
			m.CurrentIndex = msg.FileIndex
			m.StartTime = time.Now()
		}
		return m, nil

	case DryRunPlanMsg:
		if msg.FileIndex >= 0 && msg.FileIndex < len(m.Files) {
			entry := &m.Files[msg.FileIndex]
			entry.OutputPath = msg.OutputPath
			entry.Measured = msg.Measured
			entry.Plan = msg.Plan
			entry.Err = msg.Err
			entry.Done = true
		}
		return m, nil

	case DryRunAllDoneMsg:
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the UI
func (m DryRunModel) View() string {
	if m.Width == 0 {
		return "Initializing..."
	}

	var b strings.Builder

	// Header
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#A40000")).
		Render("Remaster 🎛")

	subtitle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Italic(true).
		Render("Dry Run - nothing will be written")

	b.WriteString(title + " " + subtitle)
	b.WriteString("\n\n")

	for i := range m.Files {
		b.WriteString(m.renderDryRunEntry(i))
	}

	if m.Done {
		b.WriteString("\n")
		b.WriteString(strings.Repeat("─", 60))
		b.WriteString(fmt.Sprintf("\nDry run complete - %d file(s) measured\n", len(m.Files)))
	}

	return b.String()
}

// renderDryRunEntry renders one file with its measurement state or plan
func (m DryRunModel) renderDryRunEntry(index int) string {
	entry := m.Files[index]
	fileName := filepath.Base(entry.InputPath)

	var b strings.Builder

	switch {
	case entry.Err != nil:
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#A40000")).Render("✗")
		b.WriteString(fmt.Sprintf(" %s %s\n   Error: %v\n", icon, fileName, entry.Err))

	case entry.Done:
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")).Render("✓")
		b.WriteString(fmt.Sprintf(" %s %s → %s\n", icon, fileName, filepath.Base(entry.OutputPath)))
		measuredStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
		for _, line := range entry.Measured {
			b.WriteString("   " + measuredStyle.Render(line) + "\n")
		}
		if len(entry.Plan) == 0 {
			b.WriteString("   no corrections needed\n")
		}
		for _, line := range entry.Plan {
			b.WriteString("   · " + line + "\n")
		}

	case index == m.CurrentIndex:
		spinnerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#A40000"))
		spinner := spinnerStyle.Render(spinnerFrames[m.spinnerIndex])
		elapsed := time.Since(m.StartTime)
		b.WriteString(fmt.Sprintf(" %s Measuring %s... [%s]\n", spinner, fileName, formatElapsed(elapsed)))

	default:
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render("○")
		b.WriteString(fmt.Sprintf(" %s %s\n", icon, fileName))
	}

	return b.String()
}

// formatElapsed formats elapsed time as MM:SS or HH:MM:SS
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
