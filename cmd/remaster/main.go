package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/linuxmatters/remaster/internal/audio"
	"github.com/linuxmatters/remaster/internal/cli"
	"github.com/linuxmatters/remaster/internal/config"
	"github.com/linuxmatters/remaster/internal/enhancer"
	"github.com/linuxmatters/remaster/internal/logging"
	"github.com/linuxmatters/remaster/internal/processor"
	"github.com/linuxmatters/remaster/internal/ui"
	"github.com/linuxmatters/remaster/internal/video"
)

var (
	version = "0.0.1"
)

// progressInterval is how many frames pass between video progress
// updates to the UI.
const progressInterval = 30

// CLI defines the command-line interface
type CLI struct {
	Version          bool            `short:"v" help:"Show version information"`
	Config           kong.ConfigFlag `short:"c" help:"Path to TOML config file (optional)"`
	Logs             bool            `help:"Save detailed analysis reports"`
	DryRun           bool            `short:"n" help:"Measure and show the correction plan without writing anything"`
	OutputDir        string          `short:"o" type:"path" help:"Directory for corrected files (default: alongside each input)"`
	OutputSuffix     string          `default:"-enhanced" help:"Suffix appended to output file names"`
	SampleRate       int             `default:"48000" help:"Delivery sample rate for audio output"`
	TargetResolution string          `default:"auto" enum:"auto,1080p,4k" help:"Video output resolution (auto, 1080p or 4k)"`
	Jobs             int             `short:"j" default:"1" help:"Number of files processed concurrently"`
	Files            []string        `arg:"" name:"files" help:"Media files or directories to process" type:"path" optional:""`
}

// audioExtensions lists the audio containers the corrector accepts.
var audioExtensions = map[string]bool{
	".wav": true,
}

// videoExtensions lists the video containers the enhancer accepts.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".mkv":  true,
	".webm": true,
}

func main() {
	cliArgs := &CLI{}
	ctx := kong.Parse(cliArgs,
		kong.Name("remaster"),
		kong.Description("Adaptive audio and video remastering"),
		kong.UsageOnError(),
		kong.Configuration(config.Loader),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	// Handle version flag
	if cliArgs.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	// Validate input
	if len(cliArgs.Files) == 0 {
		cli.PrintError("No input files specified")
		ctx.PrintUsage(false)
		os.Exit(1)
	}

	files, err := collectInputs(cliArgs.Files)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
	if len(files) == 0 {
		cli.PrintError("No supported media found in the given paths")
		os.Exit(1)
	}

	target, err := enhancer.ResolutionByName(cliArgs.TargetResolution)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	jobs := cliArgs.Jobs
	if jobs < 1 {
		jobs = 1
	}

	// Open debug log file
	debugLog, _ := os.Create("remaster-debug.log")
	defer debugLog.Close()
	log := func(format string, args ...interface{}) {
		if debugLog != nil {
			fmt.Fprintf(debugLog, format+"\n", args...)
		}
	}

	if cliArgs.DryRun {
		runDryRun(files, cliArgs, target, log)
		return
	}

	// Create the Bubbletea UI model
	model := ui.NewModel(files)

	// Start the TUI
	p := tea.NewProgram(model, tea.WithAltScreen())

	// Start processing in background, at most jobs files at a time
	go func() {
		sem := make(chan struct{}, jobs)
		var wg sync.WaitGroup
		for i, inputPath := range files {
			wg.Add(1)
			sem <- struct{}{}
			go func(index int, path string) {
				defer wg.Done()
				defer func() { <-sem }()
				processOne(p, index, path, cliArgs, target, log)
			}(i, inputPath)
		}
		wg.Wait()

		// Signal all complete
		log("[MAIN] Sending AllCompleteMsg")
		p.Send(ui.AllCompleteMsg{})
	}()

	// Run the program
	if _, err := p.Run(); err != nil {
		cli.PrintError(fmt.Sprintf("UI error: %v", err))
		os.Exit(1)
	}
}

// mediaKindOf classifies a path by extension, reporting false for
// unsupported types.
func mediaKindOf(path string) (ui.MediaKind, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case audioExtensions[ext]:
		return ui.KindAudio, true
	case videoExtensions[ext]:
		return ui.KindVideo, true
	}
	return 0, false
}

// collectInputs expands the command-line arguments into the list of
// files to process. Directories are walked for supported media; files
// named directly must be a supported type.
func collectInputs(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", arg, err)
		}
		if info.IsDir() {
			found, err := collectDir(arg)
			if err != nil {
				return nil, err
			}
			files = append(files, found...)
			continue
		}
		if _, ok := mediaKindOf(arg); !ok {
			return nil, fmt.Errorf("unsupported file type: %s", arg)
		}
		files = append(files, arg)
	}
	return files, nil
}

func collectDir(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := mediaKindOf(path); ok {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// outputPathFor returns where the corrected version of inputPath will
// be written, using the pipeline matching its media type.
func outputPathFor(inputPath string, kind ui.MediaKind, cliArgs *CLI) string {
	if kind == ui.KindAudio {
		return processor.OutputPath(inputPath, cliArgs.OutputDir, cliArgs.OutputSuffix)
	}
	return enhancer.OutputPath(inputPath, cliArgs.OutputDir, cliArgs.OutputSuffix)
}

// processOne runs a single file through the pipeline for its media type
// and reports progress and completion to the UI.
func processOne(p *tea.Program, index int, inputPath string, cliArgs *CLI, target *enhancer.Resolution, log func(string, ...interface{})) {
	kind, ok := mediaKindOf(inputPath)
	if !ok {
		p.Send(ui.FileCompleteMsg{
			FileIndex: index,
			Error:     fmt.Errorf("unsupported file type: %s", inputPath),
		})
		return
	}

	outputPath := outputPathFor(inputPath, kind, cliArgs)
	if filepath.Clean(outputPath) == filepath.Clean(inputPath) {
		p.Send(ui.FileCompleteMsg{
			FileIndex: index,
			Error:     fmt.Errorf("output would overwrite input: %s", inputPath),
		})
		return
	}

	// Signal file start
	log("[MAIN] Sending FileStartMsg for file %d: %s", index, inputPath)
	p.Send(ui.FileStartMsg{
		FileIndex:  index,
		FileName:   inputPath,
		OutputName: filepath.Base(outputPath),
		Kind:       kind,
	})

	fileStartTime := time.Now()
	if kind == ui.KindAudio {
		processAudioFile(p, index, inputPath, fileStartTime, cliArgs, log)
	} else {
		processVideoFile(p, index, inputPath, fileStartTime, cliArgs, target, log)
	}
}

func processAudioFile(p *tea.Program, index int, inputPath string, fileStartTime time.Time, cliArgs *CLI, log func(string, ...interface{})) {
	// Create stage tracker for progress and report timings
	tracker := &stageTracker{
		p:     p,
		log:   log,
		index: index,
		last:  time.Now(),
	}

	opts := &processor.Options{
		TargetSampleRate: cliArgs.SampleRate,
		OutputDir:        cliArgs.OutputDir,
		OutputSuffix:     cliArgs.OutputSuffix,
	}

	// Process the audio file
	log("[MAIN] Starting ProcessAudio for %s", inputPath)
	result, err := processor.ProcessAudio(inputPath, opts, tracker.notify)
	if err != nil {
		log("[MAIN] ProcessAudio failed: %v", err)
		p.Send(ui.FileCompleteMsg{
			FileIndex: index,
			Error:     err,
		})
		return
	}

	// Generate analysis report if --logs flag is set
	if cliArgs.Logs {
		reportData := logging.ReportData{
			InputPath:  inputPath,
			OutputPath: result.OutputPath,
			StartTime:  fileStartTime,
			EndTime:    time.Now(),
			Stages:     tracker.timings,
			Audio:      result,
		}
		if err := logging.GenerateReport(reportData); err != nil {
			log("[MAIN] Failed to generate log file: %v", err)
		}
	}

	// The output snapshot is missing only when remeasurement failed;
	// fall back to the input values so the summary shows no change
	// rather than zeros.
	out := result.Output
	if out == nil {
		out = result.Snapshot
	}

	// Signal file complete with actual data
	log("[MAIN] Sending FileCompleteMsg for file %d", index)
	p.Send(ui.FileCompleteMsg{
		FileIndex:    index,
		OutputPath:   result.OutputPath,
		InputPeakDB:  processor.LinearToDb(result.Snapshot.Peak),
		OutputPeakDB: processor.LinearToDb(out.Peak),
		SNRBefore:    result.Snapshot.SNR,
		SNRAfter:     out.SNR,
		StepsApplied: tracker.applied,
	})
}

func processVideoFile(p *tea.Program, index int, inputPath string, fileStartTime time.Time, cliArgs *CLI, target *enhancer.Resolution, log func(string, ...interface{})) {
	opts := &enhancer.Options{
		TargetResolution: target,
		OutputDir:        cliArgs.OutputDir,
		OutputSuffix:     cliArgs.OutputSuffix,
	}

	progress := func(done, total int) {
		if done%progressInterval != 0 && done != total {
			return
		}
		p.Send(ui.ProgressMsg{
			FileIndex:   index,
			FramesDone:  done,
			FramesTotal: total,
		})
	}

	// Process the video file
	log("[MAIN] Starting ProcessVideo for %s", inputPath)
	result, err := enhancer.ProcessVideo(inputPath, opts, progress)
	if err != nil {
		log("[MAIN] ProcessVideo failed: %v", err)
		p.Send(ui.FileCompleteMsg{
			FileIndex: index,
			Error:     err,
		})
		return
	}

	// Generate analysis report if --logs flag is set
	if cliArgs.Logs {
		reportData := logging.ReportData{
			InputPath:  inputPath,
			OutputPath: result.OutputPath,
			StartTime:  fileStartTime,
			EndTime:    time.Now(),
			Video:      result,
		}
		if err := logging.GenerateReport(reportData); err != nil {
			log("[MAIN] Failed to generate log file: %v", err)
		}
	}

	steps := make([]string, 0, len(result.Steps))
	for _, step := range result.Steps {
		steps = append(steps, string(step))
	}

	// Signal file complete with actual data
	log("[MAIN] Sending FileCompleteMsg for file %d", index)
	p.Send(ui.FileCompleteMsg{
		FileIndex:    index,
		OutputPath:   result.OutputPath,
		InputSize:    fmt.Sprintf("%dx%d", result.Snapshot.Width, result.Snapshot.Height),
		OutputSize:   fmt.Sprintf("%dx%d", result.OutputWidth, result.OutputHeight),
		Frames:       result.FramesOut,
		StepsApplied: steps,
	})
}

// stageTracker relays correction-chain progress to the UI and records
// per-stage timings for the analysis report.
type stageTracker struct {
	p       *tea.Program
	log     func(string, ...interface{})
	index   int
	last    time.Time
	done    int
	timings []logging.StageTiming
	applied []string
}

func (t *stageTracker) notify(stage processor.StageID, applied bool) {
	now := time.Now()
	t.timings = append(t.timings, logging.StageTiming{
		Stage:   stage,
		Applied: applied,
		Elapsed: now.Sub(t.last),
	})
	t.last = now
	t.done++
	if applied {
		t.applied = append(t.applied, stageName(stage))
	}

	t.log("[MAIN] Sending ProgressMsg: stage %s, applied %v (%d/%d)", stage, applied, t.done, len(processor.CorrectionOrder))
	t.p.Send(ui.ProgressMsg{
		FileIndex:   t.index,
		StageName:   stageName(stage),
		Applied:     applied,
		StagesDone:  t.done,
		StagesTotal: len(processor.CorrectionOrder),
	})
}

// stageName maps a correction stage to its display name.
func stageName(stage processor.StageID) string {
	switch stage {
	case processor.StageNoiseReduce:
		return "noise reduction"
	case processor.StageHighpass:
		return "high-pass filter"
	case processor.StageNormalize:
		return "normalisation"
	case processor.StageLimiter:
		return "limiter"
	case processor.StageResample:
		return "resampling"
	case processor.StageRestore:
		return "channel restore"
	}
	return string(stage)
}

// runDryRun measures every file and shows the corrections that would be
// applied, writing nothing. The program runs inline rather than in the
// alternate screen so the finished plan stays visible.
func runDryRun(files []string, cliArgs *CLI, target *enhancer.Resolution, log func(string, ...interface{})) {
	model := ui.NewDryRunModel(files)
	p := tea.NewProgram(model)

	go func() {
		for i, inputPath := range files {
			log("[MAIN] Dry-run measuring file %d: %s", i, inputPath)
			p.Send(ui.DryRunStartMsg{FileIndex: i})

			outputPath, measured, plan, err := planFile(inputPath, cliArgs, target)
			p.Send(ui.DryRunPlanMsg{
				FileIndex:  i,
				OutputPath: outputPath,
				Measured:   measured,
				Plan:       plan,
				Err:        err,
			})
		}
		p.Send(ui.DryRunAllDoneMsg{})
	}()

	if _, err := p.Run(); err != nil {
		cli.PrintError(fmt.Sprintf("UI error: %v", err))
		os.Exit(1)
	}
}

// planFile measures one file and renders its snapshot plus the
// corrections that would be applied, one line per correction.
func planFile(inputPath string, cliArgs *CLI, target *enhancer.Resolution) (string, []string, []string, error) {
	kind, ok := mediaKindOf(inputPath)
	if !ok {
		return "", nil, nil, fmt.Errorf("unsupported file type: %s", inputPath)
	}
	outputPath := outputPathFor(inputPath, kind, cliArgs)
	if filepath.Clean(outputPath) == filepath.Clean(inputPath) {
		return outputPath, nil, nil, fmt.Errorf("output would overwrite input: %s", inputPath)
	}

	var measured, plan []string
	var err error
	if kind == ui.KindAudio {
		measured, plan, err = planAudio(inputPath, cliArgs)
	} else {
		measured, plan, err = planVideo(inputPath, target)
	}
	return outputPath, measured, plan, err
}

func planAudio(inputPath string, cliArgs *CLI) ([]string, []string, error) {
	buf, meta, err := audio.ReadFile(inputPath)
	if err != nil {
		return nil, nil, err
	}
	snap, err := processor.Analyze(buf)
	if err != nil {
		return nil, nil, err
	}
	params := processor.DeriveParams(snap)

	measured := []string{
		fmt.Sprintf("peak %.1f dBFS, noise floor %.1f dBFS, SNR %.1f dB",
			processor.LinearToDb(snap.Peak), processor.LinearToDb(snap.NoiseFloor), snap.SNR),
		fmt.Sprintf("%d Hz, %s, %.1fs", meta.SampleRate, channelLabel(meta.Channels), meta.Duration),
	}

	var plan []string
	if params.NoiseReduction > 0 {
		plan = append(plan, fmt.Sprintf("noise reduction: %.0f%% of the noise profile", params.NoiseReduction*100))
	}
	if params.HighpassCutoff > 0 {
		plan = append(plan, fmt.Sprintf("high-pass filter: %d Hz cutoff", params.HighpassCutoff))
	}
	plan = append(plan, fmt.Sprintf("normalise: peak target %.2f", params.NormalizationTarget))
	if params.NeedsLimiting {
		plan = append(plan, "limiter: ceiling -0.5 dBFS")
	}
	if meta.SampleRate != cliArgs.SampleRate {
		plan = append(plan, fmt.Sprintf("resample: %d Hz to %d Hz", meta.SampleRate, cliArgs.SampleRate))
	}
	return measured, plan, nil
}

func planVideo(inputPath string, target *enhancer.Resolution) ([]string, []string, error) {
	meta, err := video.Probe(inputPath)
	if err != nil {
		return nil, nil, err
	}
	reader, err := video.OpenReader(inputPath, meta.Width, meta.Height)
	if err != nil {
		return nil, nil, err
	}
	defer reader.Close()

	snap, err := enhancer.Analyze(reader, meta)
	if err != nil {
		return nil, nil, err
	}
	params := enhancer.DeriveParams(snap, target)

	measured := []string{
		fmt.Sprintf("%dx%d, %.1f fps, %d frames", snap.Width, snap.Height, snap.FPS, snap.FrameCount),
		fmt.Sprintf("brightness %.0f, contrast %.0f, sharpness %.0f, grain %.1f",
			snap.Brightness, snap.Contrast, snap.Sharpness, snap.NoiseEstimate),
	}

	var plan []string
	if params.DenoiseStrength > 0 {
		plan = append(plan, fmt.Sprintf("denoise: bilateral, strength %d", params.DenoiseStrength))
	}
	if params.NeedsUpscaling {
		plan = append(plan, fmt.Sprintf("upscale: %.2fx Lanczos", params.UpscaleFactor))
	}
	if params.SharpenAmount > 0 {
		plan = append(plan, fmt.Sprintf("sharpen: unsharp mask, amount %.1f", params.SharpenAmount))
	}
	if params.BrightnessAdjust != 0 || params.ContrastAdjust != 1.0 {
		plan = append(plan, fmt.Sprintf("tone: gain %.2f, shift %+d", params.ContrastAdjust, params.BrightnessAdjust))
	}
	if params.ColorEnhance {
		plan = append(plan, "colour boost: saturation 1.2x")
	}
	return measured, plan, nil
}

// channelLabel names a channel count for display.
func channelLabel(channels int) string {
	switch channels {
	case 1:
		return "mono"
	case 2:
		return "stereo"
	}
	return fmt.Sprintf("%d channels", channels)
}
