package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderProcessingView renders the main processing view
func renderProcessingView(m Model) string {
	var b strings.Builder

	// Header
	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")

	// File queue
	b.WriteString(renderFileQueue(m))
	b.WriteString("\n\n")

	// Overall progress
	b.WriteString(renderOverallProgress(m))

	return b.String()
}

// renderHeader renders the application header
func renderHeader(m Model) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#A40000")).
		Render("Remaster 🎛 - Adaptive Media Remastering")

	subtitle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Italic(true).
		Render(fmt.Sprintf("Remastering %d file(s)", m.TotalFiles))

	return title + "\n" + subtitle
}

// renderFileQueue renders the list of files with their status
func renderFileQueue(m Model) string {
	var b strings.Builder

	for i := range m.Files {
		b.WriteString(renderFileEntry(m.Files[i]))
		b.WriteString("\n")
	}

	return b.String()
}

// renderFileEntry renders a single file entry in the queue
func renderFileEntry(file FileProgress) string {
	fileName := filepath.Base(file.InputPath)

	switch file.Status {
	case StatusComplete:
		// ✓ completed file with summary
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")).Render("✓")
		return fmt.Sprintf(" %s %s → %s\n   %s", icon, fileName,
			filepath.Base(file.OutputPath), completionLine(file))

	case StatusAnalyzing:
		// ⚙ measuring the source
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")).Render("⚙")
		return fmt.Sprintf(" %s %s → %s\n   Analyzing...", icon, fileName,
			filepath.Base(file.OutputPath))

	case StatusProcessing:
		// ⚙ active file with detailed progress
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")).Render("⚙")
		return fmt.Sprintf(" %s %s → %s\n%s",
			icon, fileName, filepath.Base(file.OutputPath),
			renderFileDetails(file))

	case StatusError:
		// ✗ failed file
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#A40000")).Render("✗")
		return fmt.Sprintf(" %s %s\n   Error: %v", icon, fileName, file.Error)

	default:
		// ○ queued file
		icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render("○")
		return fmt.Sprintf(" %s %s\n   Queued...", icon, fileName)
	}
}

// completionLine summarises what the chain did to a finished file.
func completionLine(file FileProgress) string {
	if file.Kind == KindVideo {
		line := fmt.Sprintf("%s → %s | %d frames", file.InputSize, file.OutputSize, file.Frames)
		if len(file.StepsApplied) > 0 {
			line += " | " + strings.Join(file.StepsApplied, ", ")
		}
		return line
	}

	return fmt.Sprintf("Peak: %.1f → %.1f dBFS | SNR: %.1f → %.1f dB",
		file.InputPeakDB, file.OutputPeakDB, file.SNRBefore, file.SNRAfter)
}

// renderFileDetails renders detailed progress for the active file
func renderFileDetails(file FileProgress) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#A40000")).
		Padding(0, 1).
		Width(60)

	var content strings.Builder

	// Chain position
	if file.Kind == KindVideo {
		content.WriteString(fmt.Sprintf("Enhancing: frame %d/%d\n", file.FramesDone, file.FramesTotal))
	} else {
		content.WriteString(fmt.Sprintf("Stage %d/%d: %s\n", file.StagesDone, file.StagesTotal, file.StageName))
	}

	// Progress bar
	content.WriteString(renderProgressBar(file.Progress, 40))
	content.WriteString("\n\n")

	// Time estimates
	elapsed := file.ElapsedTime.Seconds()
	var remaining float64
	if file.Progress > 0 {
		remaining = (elapsed / file.Progress) - elapsed
	}
	content.WriteString(fmt.Sprintf("⏱  Elapsed: %.1fs | Remaining: ~%.1fs", elapsed, remaining))

	return box.Render(content.String())
}

// renderProgressBar renders a progress bar
func renderProgressBar(progress float64, width int) string {
	filled := int(progress * float64(width))
	if filled > width {
		filled = width
	}
	empty := width - filled

	bar := strings.Repeat("█", filled) + strings.Repeat("░", empty)
	percentage := int(progress * 100)

	return fmt.Sprintf("%s %d%%", bar, percentage)
}

// renderOverallProgress renders the overall progress footer
func renderOverallProgress(m Model) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#888888")).
		Padding(0, 1).
		Width(60)

	// Show current file being processed
	var content string
	if m.CurrentIndex >= 0 && m.CurrentIndex < len(m.Files) {
		currentFile := m.CurrentIndex + 1 // 1-indexed for display
		content = fmt.Sprintf("Processing file %d of %d (%d complete)",
			currentFile, m.TotalFiles, m.CompletedFiles)
	} else {
		content = fmt.Sprintf("Overall Progress: %d/%d complete", m.CompletedFiles, m.TotalFiles)
	}

	return box.Render(content)
}

// renderCompletionSummary renders the final completion summary
func renderCompletionSummary(m Model) string {
	var b strings.Builder

	// Completion header
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00AA00")).
		Render("✨ Remastering Complete!")
	b.WriteString(header)
	b.WriteString("\n\n")

	// Summary for each file
	for _, file := range m.Files {
		if file.Status == StatusComplete {
			b.WriteString(renderCompletedFile(file))
			b.WriteString("\n")
		}
	}

	// Overall summary
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", 60))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%d of %d file(s) corrected ✓\n", m.CompletedFiles, m.TotalFiles))
	if m.FailedFiles > 0 {
		b.WriteString(fmt.Sprintf("%d file(s) failed - run again with a single file to see details\n", m.FailedFiles))
	}

	return b.String()
}

// renderCompletedFile renders a summary for a completed file
func renderCompletedFile(file FileProgress) string {
	fileName := filepath.Base(file.InputPath)
	outputName := filepath.Base(file.OutputPath)

	icon := lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")).Render("✓")

	summary := fmt.Sprintf(" %s %s → %s\n   %s", icon, fileName, outputName, completionLine(file))
	if file.Kind == KindAudio && len(file.StepsApplied) > 0 {
		summary += "\n   Corrections: " + strings.Join(file.StepsApplied, ", ")
	}
	return summary
}
