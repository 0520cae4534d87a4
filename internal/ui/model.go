// Package ui provides the Bubbletea terminal user interface for remaster
package ui

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

var debugLog *os.File

func init() {
	debugLog, _ = os.OpenFile("remaster-ui-debug.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

func log(format string, args ...interface{}) {
	if debugLog != nil {
		fmt.Fprintf(debugLog, format+"\n", args...)
	}
}

// FileStatus represents the processing state of a single file
type FileStatus int

const (
	StatusQueued FileStatus = iota
	StatusAnalyzing
	StatusProcessing
	StatusComplete
	StatusError
)

// FileProgress tracks progress for a single media file
type FileProgress struct {
	InputPath  string
	OutputPath string
	Kind       MediaKind
	Status     FileStatus

	// Chain tracking
	StageName   string
	StagesDone  int
	StagesTotal int
	FramesDone  int
	FramesTotal int

	// Progress tracking (percentage-based)
	Progress    float64 // 0.0 to 1.0
	StartTime   time.Time
	ElapsedTime time.Duration

	// Completion results
	InputPeakDB  float64
	OutputPeakDB float64
	SNRBefore    float64
	SNRAfter     float64
	InputSize    string
	OutputSize   string
	Frames       int
	StepsApplied []string

	// Error tracking
	Error error
}

// Model is the Bubbletea model for the processing UI
type Model struct {
	// File queue
	Files          []FileProgress
	CurrentIndex   int
	TotalFiles     int
	CompletedFiles int
	FailedFiles    int

	// Global state
	StartTime time.Time
	Done      bool

	// Terminal dimensions
	Width  int
	Height int
}

// NewModel creates a new UI model with the given input files
func NewModel(inputFiles []string) Model {
	files := make([]FileProgress, len(inputFiles))
	for i, path := range inputFiles {
		files[i] = FileProgress{
			InputPath: path,
			Status:    StatusQueued,
		}
	}

	return Model{
		Files:        files,
		CurrentIndex: -1, // No file processing yet
		TotalFiles:   len(inputFiles),
		StartTime:    time.Now(),
	}
}

// Init initializes the model. Progress arrives via Program.Send from the
// processing goroutine, so there is nothing to kick off here.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		log("[DEBUG] Window size: %dx%d", m.Width, m.Height)

	case ProgressMsg:
		log("[DEBUG] ProgressMsg received: index=%d, stage=%s", msg.FileIndex, msg.StageName)
		if msg.FileIndex >= 0 && msg.FileIndex < len(m.Files) {
			m.Files[msg.FileIndex] = updateFileProgress(m.Files[msg.FileIndex], msg)
		}

	case FileStartMsg:
		log("[DEBUG] FileStartMsg received: index=%d, file=%s", msg.FileIndex, msg.FileName)
		if msg.FileIndex >= 0 && msg.FileIndex < len(m.Files) {
			m.CurrentIndex = msg.FileIndex
			m.Files[msg.FileIndex].Status = StatusAnalyzing
			m.Files[msg.FileIndex].StartTime = time.Now()
			m.Files[msg.FileIndex].Kind = msg.Kind
			m.Files[msg.FileIndex].OutputPath = msg.OutputName
		}

	case FileCompleteMsg:
		log("[DEBUG] FileCompleteMsg received: index=%d", msg.FileIndex)
		if msg.FileIndex >= 0 && msg.FileIndex < len(m.Files) {
			fp := &m.Files[msg.FileIndex]
			fp.Status = StatusComplete
			fp.OutputPath = msg.OutputPath
			fp.InputPeakDB = msg.InputPeakDB
			fp.OutputPeakDB = msg.OutputPeakDB
			fp.SNRBefore = msg.SNRBefore
			fp.SNRAfter = msg.SNRAfter
			fp.InputSize = msg.InputSize
			fp.OutputSize = msg.OutputSize
			fp.Frames = msg.Frames
			fp.StepsApplied = msg.StepsApplied
			fp.Error = msg.Error

			if msg.Error != nil {
				fp.Status = StatusError
				m.FailedFiles++
			} else {
				m.CompletedFiles++
			}
		}

	case AllCompleteMsg:
		log("[DEBUG] AllCompleteMsg received")
		// All files processed
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the UI
func (m Model) View() string {
	// Debug: Show basic info even before window size is set
	if m.Width == 0 {
		return fmt.Sprintf("Initializing...\nFiles: %d\nCurrent: %d\n", len(m.Files), m.CurrentIndex)
	}

	// Build the view based on current state
	if m.Done {
		return renderCompletionSummary(m)
	}

	return renderProcessingView(m)
}

// updateFileProgress updates a FileProgress based on a ProgressMsg
func updateFileProgress(fp FileProgress, msg ProgressMsg) FileProgress {
	fp.Status = StatusProcessing
	fp.StageName = msg.StageName
	fp.ElapsedTime = time.Since(fp.StartTime)

	switch fp.Kind {
	case KindAudio:
		fp.StagesDone = msg.StagesDone
		fp.StagesTotal = msg.StagesTotal
		if msg.StagesTotal > 0 {
			fp.Progress = float64(msg.StagesDone) / float64(msg.StagesTotal)
		}
	case KindVideo:
		fp.FramesDone = msg.FramesDone
		fp.FramesTotal = msg.FramesTotal
		if msg.FramesTotal > 0 {
			fp.Progress = float64(msg.FramesDone) / float64(msg.FramesTotal)
		}
	}

	return fp
}
