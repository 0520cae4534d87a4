// Package logging handles generation of analysis reports for corrected media files

package logging

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/linuxmatters/remaster/internal/enhancer"
	"github.com/linuxmatters/remaster/internal/processor"
)

// ============================================================================
// Audio Interpretation Functions
// ============================================================================
// These functions interpret quality measurements and return human-readable
// descriptions. The bands match the thresholds the adaptive tuner uses, so
// the report explains the decisions in the same terms they were made.

// interpretSNR describes how noisy a recording is from its signal-to-noise ratio.
// Reference values for spoken-word recordings:
// - Broadcast studio: 50+ dB
// - Quiet home recording: 35-50 dB
// - Untreated room with computer fans: 20-35 dB
// - Phone memo next to a motorway: below 20 dB
func interpretSNR(db float64) string {
	switch {
	case db < 15:
		return "very noisy, heavy cleanup needed"
	case db < 25:
		return "noticeable background noise"
	case db < 40:
		return "mild noise, light cleanup"
	default:
		return "clean recording"
	}
}

// interpretNoiseFloor describes the low-level background of a recording.
// The floor is measured as the mean level of the quietest stretch, so
// sustained rumble from traffic, ventilation or handling raises it even
// when the hiss itself is modest.
func interpretNoiseFloor(linear float64) string {
	switch {
	case linear > 0.01:
		return "significant rumble"
	case linear > 0.005:
		return "slight rumble"
	case linear > 0.002:
		return "trace of rumble"
	default:
		return "quiet background"
	}
}

// interpretPeakLevel describes the recording level from its linear peak.
func interpretPeakLevel(linear float64) string {
	switch {
	case linear > 0.99:
		return "clipping likely"
	case linear >= 0.5:
		return "healthy level"
	case linear >= 0.2:
		return "moderate level, gain needed"
	default:
		return "very quiet recording"
	}
}

// interpretHighFreqRatio describes the spectral balance above 8kHz.
// Speech carries little energy up there, so a high ratio usually means
// broadband hiss from a preamp or air conditioning rather than programme.
func interpretHighFreqRatio(ratio float64) string {
	switch {
	case ratio > 0.3:
		return "broadband hiss suspected"
	case ratio > 0.15:
		return "bright, some hiss possible"
	default:
		return "natural brightness"
	}
}

// interpretMainsHum describes the energy found at the mains fundamental and
// its harmonics, relative to the whole spectrum. Ground loops and unbalanced
// cable runs show up here long before they are obvious on a meter.
func interpretMainsHum(ratio float64) string {
	switch {
	case ratio > 0.15:
		return "prominent hum, check cabling and grounding"
	case ratio > 0.05:
		return "audible hum in quiet passages"
	case ratio > 0.01:
		return "faint hum, masked by programme"
	default:
		return "no audible hum expected"
	}
}

// ============================================================================
// Video Interpretation Functions
// ============================================================================

// interpretBrightness describes the exposure from the mean luma (0-255).
func interpretBrightness(mean float64) string {
	switch {
	case mean < 80:
		return "underexposed"
	case mean > 180:
		return "overexposed"
	default:
		return "well exposed"
	}
}

// interpretContrast describes the tonal range from the luma standard deviation.
func interpretContrast(stddev float64) string {
	switch {
	case stddev < 30:
		return "very flat, washed out"
	case stddev < 50:
		return "flat, low contrast"
	default:
		return "good tonal range"
	}
}

// interpretSharpness describes focus quality from the variance of the
// Laplacian. Reference: Pech-Pacheco et al. (2000); Pertuz et al. (2013).
// Well-focused footage scores in the hundreds; defocus collapses the
// variance towards zero.
func interpretSharpness(variance float64) string {
	switch {
	case variance < 100:
		return "blurry"
	case variance < 300:
		return "soft focus"
	case variance < 500:
		return "slightly soft"
	default:
		return "crisp"
	}
}

// interpretGrain describes sensor noise from the temporal luma deviation
// between consecutive frames.
func interpretGrain(stddev float64) string {
	switch {
	case stddev > 15:
		return "heavy grain"
	case stddev > 8:
		return "visible grain"
	case stddev > 4:
		return "mild grain"
	default:
		return "clean"
	}
}

// =============================================================================
// Report Section Formatting Helpers
// =============================================================================

// writeSection writes a section header with title and dashed underline.
// The underline length matches the title length.
func writeSection(f *os.File, title string) {
	fmt.Fprintln(f, title)
	fmt.Fprintln(f, strings.Repeat("-", len(title)))
}

// StageTiming records how long one audio correction stage took and whether
// it changed the audio.
type StageTiming struct {
	Stage   processor.StageID
	Applied bool
	Elapsed time.Duration
}

// ReportData contains all the information needed to generate an analysis report.
// Exactly one of Audio or Video is set.
type ReportData struct {
	InputPath  string
	OutputPath string
	StartTime  time.Time
	EndTime    time.Time
	Stages     []StageTiming // audio correction stages in chain order
	Audio      *processor.ProcessingResult
	Video      *enhancer.EnhancementResult
}

// mediaDuration returns the source duration in seconds, whichever kind of
// media the report covers.
func (data *ReportData) mediaDuration() float64 {
	switch {
	case data.Audio != nil:
		return data.Audio.Duration
	case data.Video != nil && data.Video.Snapshot != nil:
		return data.Video.Snapshot.Duration
	}
	return 0
}

// GenerateReport creates a detailed analysis report and saves it alongside the output file.
// The report filename will be <output>.log
//
// Report structure:
// 1. Header - file info and timestamp
// 2. Processing Summary - stage timings
// 3. Source Measurements - quality snapshot with interpretations
// 4. Correction Chain - adaptive parameters and rationale per stage
// 5. Results - input/output comparison
// 6. Warnings - non-fatal problems, when any
func GenerateReport(data ReportData) error {
	// Generate report filename: take-enhanced.wav → take-enhanced.log
	logPath := strings.TrimSuffix(data.OutputPath, filepath.Ext(data.OutputPath)) + ".log"

	// Create report file
	f, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer f.Close()

	writeReportHeader(f, data)
	writeProcessingSummary(f, data)

	switch {
	case data.Audio != nil:
		writeAudioMeasurements(f, data.Audio.Snapshot)
		writeMainsHumCheck(f, data.Audio.Snapshot)
		writeCorrectionChain(f, data.Audio)
		writeAudioResults(f, data.Audio)
		writeWarnings(f, data.Audio.Warnings)
	case data.Video != nil:
		writeVideoMeasurements(f, data.Video.Snapshot)
		writeEnhancementChain(f, data.Video)
		writeVideoResults(f, data.Video)
		writeWarnings(f, data.Video.Warnings)
	}

	return nil
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60

	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}

// channelName returns a human-readable channel name
func channelName(channels int) string {
	switch channels {
	case 1:
		return "mono"
	case 2:
		return "stereo"
	default:
		return fmt.Sprintf("%d channels", channels)
	}
}

// stageLabel returns the display name for an audio correction stage.
func stageLabel(stage processor.StageID) string {
	switch stage {
	case processor.StageNoiseReduce:
		return "Noise reduction"
	case processor.StageHighpass:
		return "High-pass filter"
	case processor.StageNormalize:
		return "Normalisation"
	case processor.StageLimiter:
		return "Limiter"
	case processor.StageResample:
		return "Resampling"
	case processor.StageRestore:
		return "Channel restore"
	default:
		return string(stage)
	}
}

// =============================================================================
// Shared Section Writers
// =============================================================================

// writeReportHeader outputs the report header with file info and timestamp.
func writeReportHeader(f *os.File, data ReportData) {
	fmt.Fprintln(f, "Remaster Analysis Report")
	fmt.Fprintln(f, "=========================")
	fmt.Fprintf(f, "File: %s\n", filepath.Base(data.InputPath))
	fmt.Fprintf(f, "Processed: %s\n", data.EndTime.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(f, "Duration: %s\n", formatDuration(time.Duration(data.mediaDuration()*float64(time.Second))))
	fmt.Fprintln(f, "")
}

// writeProcessingSummary outputs the per-stage timings and the total.
func writeProcessingSummary(f *os.File, data ReportData) {
	writeSection(f, "Processing Summary")

	for _, st := range data.Stages {
		status := "applied"
		if !st.Applied {
			status = "not needed"
		}
		fmt.Fprintf(f, "%-18s %8s  (%s)\n", stageLabel(st.Stage)+":", formatDuration(st.Elapsed), status)
	}
	if data.Video != nil {
		fmt.Fprintf(f, "%-18s %8d\n", "Frames enhanced:", data.Video.FramesOut)
	}

	totalTime := data.EndTime.Sub(data.StartTime)
	fmt.Fprintf(f, "%-18s %8s", "Total:", formatDuration(totalTime))

	if secs := data.mediaDuration(); secs > 0 && totalTime > 0 {
		mediaTime := time.Duration(secs * float64(time.Second))
		rtf := float64(mediaTime) / float64(totalTime)
		fmt.Fprintf(f, " (%.1fx real-time)", rtf)
	}
	fmt.Fprintln(f, "")
	fmt.Fprintln(f, "")
}

// writeWarnings lists non-fatal problems recorded during processing.
func writeWarnings(f *os.File, warnings []string) {
	if len(warnings) == 0 {
		return
	}

	writeSection(f, "Warnings")
	for _, w := range warnings {
		fmt.Fprintf(f, "  - %s\n", w)
	}
	fmt.Fprintln(f, "")
}

// =============================================================================
// Audio Section Writers
// =============================================================================

// writeAudioMeasurements outputs the quality snapshot the corrections were
// derived from, with one interpretation per metric.
func writeAudioMeasurements(f *os.File, snap *processor.QualitySnapshot) {
	if snap == nil {
		return
	}

	writeSection(f, "Source Measurements")

	table := NewMeasurementTable()
	table.AddRow("Peak level", []string{formatMetricLevel(snap.Peak, 1)}, "dBFS", interpretPeakLevel(snap.Peak))
	table.AddRow("RMS level", []string{formatMetricLevel(snap.RMS, 1)}, "dBFS", "")
	table.AddRow("Noise floor", []string{formatMetricLevel(snap.NoiseFloor, 1)}, "dBFS", interpretNoiseFloor(snap.NoiseFloor))
	table.AddRow("SNR", []string{formatMetricDB(snap.SNR, 1)}, "dB", interpretSNR(snap.SNR))
	table.AddMeasurementRow("HF energy ratio", snap.HighFreqRatio, 3, "", interpretHighFreqRatio(snap.HighFreqRatio))
	fmt.Fprint(f, table.String())
	fmt.Fprintln(f, "")
}

// writeMainsHumCheck outputs the hum diagnostic. Hum never drives the
// correction chain; it is reported so persistent electrical problems get
// fixed at the source instead of in post.
func writeMainsHumCheck(f *os.File, snap *processor.QualitySnapshot) {
	if snap == nil || snap.MainsFrequency <= 0 {
		return
	}

	writeSection(f, "Mains Hum Check")
	fmt.Fprintf(f, "Grid fundamental: %.0f Hz (inferred from system timezone)\n", snap.MainsFrequency)
	fmt.Fprintf(f, "Harmonic energy: %s%% of spectrum\n", formatMetric(snap.MainsHumRatio*100, 2))
	fmt.Fprintf(f, "Assessment: %s\n", interpretMainsHum(snap.MainsHumRatio))
	fmt.Fprintln(f, "")
}

// writeCorrectionChain outputs the correction chain section.
// Iterates over stages in chain order, showing the chosen parameters and
// the adaptive rationale for each stage.
func writeCorrectionChain(f *os.File, result *processor.ProcessingResult) {
	if result.Params == nil || result.Snapshot == nil {
		return
	}

	writeSection(f, "Correction Chain (in processing order)")
	for i, stage := range processor.CorrectionOrder {
		prefix := fmt.Sprintf("%2d. ", i+1)
		formatCorrection(f, stage, result, prefix)
	}
	fmt.Fprintln(f, "")
}

// formatCorrection outputs details for a single correction stage
func formatCorrection(f *os.File, stage processor.StageID, result *processor.ProcessingResult, prefix string) {
	params := result.Params
	snap := result.Snapshot

	switch stage {
	case processor.StageNoiseReduce:
		if params.NoiseReduction <= 0 {
			fmt.Fprintf(f, "%sNoise reduction: not needed\n", prefix)
			return
		}
		fmt.Fprintf(f, "%sNoise reduction: %.0f%% of the measured noise profile\n", prefix, params.NoiseReduction*100)
		fmt.Fprintf(f, "        Rationale: SNR %.1f dB (%s)\n", snap.SNR, interpretSNR(snap.SNR))
		if snap.HighFreqRatio > 0.3 {
			fmt.Fprintf(f, "        Boosted: HF energy ratio %.2f (%s)\n", snap.HighFreqRatio, interpretHighFreqRatio(snap.HighFreqRatio))
		}

	case processor.StageHighpass:
		if params.HighpassCutoff <= 0 {
			fmt.Fprintf(f, "%sHigh-pass filter: not needed\n", prefix)
			return
		}
		fmt.Fprintf(f, "%sHigh-pass filter: %d Hz cutoff (zero-phase)\n", prefix, params.HighpassCutoff)
		fmt.Fprintf(f, "        Rationale: noise floor %s dBFS (%s)\n", formatMetricLevel(snap.NoiseFloor, 1), interpretNoiseFloor(snap.NoiseFloor))

	case processor.StageNormalize:
		fmt.Fprintf(f, "%sNormalisation: peak target %.2f\n", prefix, params.NormalizationTarget)
		fmt.Fprintf(f, "        Rationale: input peak %s dBFS (%s)\n", formatMetricLevel(snap.Peak, 1), interpretPeakLevel(snap.Peak))

	case processor.StageLimiter:
		if !params.NeedsLimiting {
			fmt.Fprintf(f, "%sLimiter: not armed\n", prefix)
			return
		}
		fmt.Fprintf(f, "%sLimiter: ceiling -0.5 dBFS\n", prefix)
		fmt.Fprintf(f, "        Rationale: source was clipping, catching overshoots after gain\n")

	case processor.StageResample:
		if result.InputRate == result.OutputRate {
			fmt.Fprintf(f, "%sResampling: not needed (already %d Hz)\n", prefix, result.OutputRate)
			return
		}
		fmt.Fprintf(f, "%sResampling: %d Hz to %d Hz\n", prefix, result.InputRate, result.OutputRate)

	case processor.StageRestore:
		if result.Channels <= 1 {
			fmt.Fprintf(f, "%sChannel restore: not needed (mono source)\n", prefix)
			return
		}
		fmt.Fprintf(f, "%sChannel restore: %s layout carried to the output\n", prefix, channelName(result.Channels))

	default:
		fmt.Fprintf(f, "%s%s: (unknown stage)\n", prefix, stage)
	}
}

// writeAudioResults outputs the input/output comparison table.
func writeAudioResults(f *os.File, result *processor.ProcessingResult) {
	writeSection(f, "Results")

	in := result.Snapshot
	out := result.Output

	// Missing sides still render, as "-" columns.
	inPeak, inRMS, inFloor, inSNR := math.NaN(), math.NaN(), math.NaN(), math.NaN()
	if in != nil {
		inPeak, inRMS, inFloor, inSNR = in.Peak, in.RMS, in.NoiseFloor, in.SNR
	}
	outPeak, outRMS, outFloor, outSNR := math.NaN(), math.NaN(), math.NaN(), math.NaN()
	if out != nil {
		outPeak, outRMS, outFloor, outSNR = out.Peak, out.RMS, out.NoiseFloor, out.SNR
	}

	table := NewComparisonTable()
	table.AddRow("Peak level", []string{formatMetricLevel(inPeak, 1), formatMetricLevel(outPeak, 1)}, "dBFS", "")
	table.AddRow("RMS level", []string{formatMetricLevel(inRMS, 1), formatMetricLevel(outRMS, 1)}, "dBFS", "")
	table.AddRow("Noise floor", []string{formatMetricLevel(inFloor, 1), formatMetricLevel(outFloor, 1)}, "dBFS", "")
	table.AddRow("SNR", []string{formatMetricDB(inSNR, 1), formatMetricDB(outSNR, 1)}, "dB", "")
	fmt.Fprint(f, table.String())

	if in != nil && out != nil && in.Peak > 0 && out.Peak > 0 {
		gainDB := 20.0 * math.Log10(out.Peak/in.Peak)
		fmt.Fprintf(f, "Gain applied: %s dB\n", formatMetricSigned(gainDB, 1))
	}

	if result.InputRate != result.OutputRate {
		fmt.Fprintf(f, "Sample rate: %d Hz to %d Hz\n", result.InputRate, result.OutputRate)
	} else {
		fmt.Fprintf(f, "Sample rate: %d Hz\n", result.OutputRate)
	}
	fmt.Fprintf(f, "Channels: %s\n", channelName(result.Channels))
	fmt.Fprintf(f, "Output: %s\n", filepath.Base(result.OutputPath))
	fmt.Fprintln(f, "")
}

// =============================================================================
// Video Section Writers
// =============================================================================

// writeVideoMeasurements outputs the sampled quality snapshot the
// enhancements were derived from.
func writeVideoMeasurements(f *os.File, snap *enhancer.QualitySnapshot) {
	if snap == nil {
		return
	}

	writeSection(f, "Source Measurements")
	fmt.Fprintf(f, "Resolution: %dx%d (%.1f fps, %d frames)\n", snap.Width, snap.Height, snap.FPS, snap.FrameCount)
	fmt.Fprintln(f, "")

	table := NewMeasurementTable()
	table.AddMeasurementRow("Brightness", snap.Brightness, 1, "", interpretBrightness(snap.Brightness))
	table.AddMeasurementRow("Contrast", snap.Contrast, 1, "", interpretContrast(snap.Contrast))
	table.AddMeasurementRow("Sharpness", snap.Sharpness, 1, "", interpretSharpness(snap.Sharpness))
	table.AddMeasurementRow("Grain", snap.NoiseEstimate, 1, "", interpretGrain(snap.NoiseEstimate))
	fmt.Fprint(f, table.String())
	fmt.Fprintln(f, "")
}

// writeEnhancementChain outputs the enhancement chain section.
// Iterates over steps in chain order, showing the chosen parameters and
// the adaptive rationale for each step.
func writeEnhancementChain(f *os.File, result *enhancer.EnhancementResult) {
	if result.Params == nil || result.Snapshot == nil {
		return
	}

	writeSection(f, "Enhancement Chain (in processing order)")
	for i, step := range enhancer.EnhancementOrder {
		prefix := fmt.Sprintf("%2d. ", i+1)
		formatEnhancement(f, step, result, prefix)
	}
	fmt.Fprintln(f, "")
}

// formatEnhancement outputs details for a single enhancement step
func formatEnhancement(f *os.File, step enhancer.StepID, result *enhancer.EnhancementResult, prefix string) {
	params := result.Params
	snap := result.Snapshot

	switch step {
	case enhancer.StepDenoise:
		if params.DenoiseStrength <= 0 {
			fmt.Fprintf(f, "%sDenoise: not needed\n", prefix)
			return
		}
		fmt.Fprintf(f, "%sDenoise: bilateral, strength %d\n", prefix, params.DenoiseStrength)
		fmt.Fprintf(f, "        Rationale: grain %.1f (%s)\n", snap.NoiseEstimate, interpretGrain(snap.NoiseEstimate))

	case enhancer.StepUpscale:
		if !params.NeedsUpscaling {
			fmt.Fprintf(f, "%sUpscaling: not needed\n", prefix)
			return
		}
		fmt.Fprintf(f, "%sUpscaling: %.2fx Lanczos to %dx%d\n", prefix, params.UpscaleFactor, result.OutputWidth, result.OutputHeight)
		if snap.Width < 1280 || snap.Height < 720 {
			fmt.Fprintf(f, "        Rationale: source %dx%d below HD\n", snap.Width, snap.Height)
		} else {
			fmt.Fprintf(f, "        Rationale: enlarging to the requested target\n")
		}

	case enhancer.StepSharpen:
		if params.SharpenAmount <= 0 {
			fmt.Fprintf(f, "%sSharpen: not needed\n", prefix)
			return
		}
		fmt.Fprintf(f, "%sSharpen: unsharp mask, amount %.1f\n", prefix, params.SharpenAmount)
		fmt.Fprintf(f, "        Rationale: sharpness %.1f (%s)\n", snap.Sharpness, interpretSharpness(snap.Sharpness))

	case enhancer.StepTone:
		if params.BrightnessAdjust == 0 && params.ContrastAdjust == 1.0 {
			fmt.Fprintf(f, "%sTone: not needed\n", prefix)
			return
		}
		fmt.Fprintf(f, "%sTone: gain %.2f, shift %s\n", prefix, params.ContrastAdjust, formatMetricSigned(float64(params.BrightnessAdjust), 0))
		fmt.Fprintf(f, "        Rationale: brightness %.1f (%s), contrast %.1f (%s)\n",
			snap.Brightness, interpretBrightness(snap.Brightness), snap.Contrast, interpretContrast(snap.Contrast))

	case enhancer.StepSaturate:
		if !params.ColorEnhance {
			fmt.Fprintf(f, "%sColour boost: not needed\n", prefix)
			return
		}
		fmt.Fprintf(f, "%sColour boost: saturation 1.2x\n", prefix)
		fmt.Fprintf(f, "        Rationale: contrast %.1f (%s)\n", snap.Contrast, interpretContrast(snap.Contrast))

	default:
		fmt.Fprintf(f, "%s%s: (unknown step)\n", prefix, step)
	}
}

// writeVideoResults outputs what the enhancement chain produced.
func writeVideoResults(f *os.File, result *enhancer.EnhancementResult) {
	writeSection(f, "Results")

	if snap := result.Snapshot; snap != nil && (snap.Width != result.OutputWidth || snap.Height != result.OutputHeight) {
		fmt.Fprintf(f, "Resolution: %dx%d to %dx%d\n", snap.Width, snap.Height, result.OutputWidth, result.OutputHeight)
	} else {
		fmt.Fprintf(f, "Resolution: %dx%d\n", result.OutputWidth, result.OutputHeight)
	}
	fmt.Fprintf(f, "Frames written: %d\n", result.FramesOut)
	fmt.Fprintf(f, "Steps applied: %s\n", stepList(result.Steps))
	fmt.Fprintf(f, "Output: %s\n", filepath.Base(result.OutputPath))
	fmt.Fprintln(f, "")
}

// stepList renders the applied chain steps as a comma-separated list.
func stepList(steps []enhancer.StepID) string {
	if len(steps) == 0 {
		return "none"
	}
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
