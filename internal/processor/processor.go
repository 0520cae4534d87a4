// Package processor handles adaptive audio analysis and correction
package processor

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/linuxmatters/remaster/internal/audio"
)

// Options control how a file is corrected.
type Options struct {
	// TargetSampleRate is the delivery rate. Zero keeps the source rate.
	TargetSampleRate int

	// OutputDir overrides the destination directory. Empty writes the
	// corrected file next to its input.
	OutputDir string

	// OutputSuffix is appended to the input stem to name the output.
	// Empty selects "-enhanced".
	OutputSuffix string

	// ParallelChannels runs the per-channel stages concurrently. The
	// channels are independent, so this only trades memory for speed.
	ParallelChannels bool
}

// StageNotifyFunc receives a callback as each correction stage finishes.
// applied reports whether the stage actually touched the audio.
type StageNotifyFunc func(stage StageID, applied bool)

// ProcessingResult summarises one corrected file.
type ProcessingResult struct {
	OutputPath string
	Snapshot   *QualitySnapshot  // measurements the corrections were derived from
	Output     *QualitySnapshot  // measurements of the corrected audio, nil if remeasurement failed
	Params     *ProcessingParams // corrections that were selected
	Warnings   []string          // stages skipped for non-fatal reasons
	InputRate  int
	OutputRate int
	Channels   int
	Duration   float64 // seconds of source audio
}

// ProcessAudio runs the complete adaptive correction pipeline on one file:
// load, measure, derive parameters, run the correction chain, and save.
//
// The output is 24-bit WAV named <basename>-enhanced.wav (or with
// opts.OutputSuffix) next to the input or in opts.OutputDir. If notify is
// not nil it is called once per stage in chain order.
func ProcessAudio(inputPath string, opts *Options, notify StageNotifyFunc) (*ProcessingResult, error) {
	if opts == nil {
		opts = &Options{}
	}

	buf, meta, err := audio.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", filepath.Base(inputPath), err)
	}

	snap, err := Analyze(buf)
	if err != nil {
		return nil, fmt.Errorf("analyzing %s: %w", filepath.Base(inputPath), err)
	}
	params := DeriveParams(snap)

	exec := &execution{
		buf:            buf,
		params:         params,
		opts:           opts,
		sourceChannels: buf.NumChannels(),
	}
	for _, stage := range CorrectionOrder {
		applied, err := stageRunners[stage](exec)
		if err != nil {
			return nil, fmt.Errorf("%s stage: %w", stage, err)
		}
		if notify != nil {
			notify(stage, applied)
		}
	}

	// Remeasure the corrected audio so callers can show what the chain
	// actually achieved, not just what it aimed for.
	outSnap, err := Analyze(exec.buf)
	if err != nil {
		exec.warnf("output not remeasured: %v", err)
	}

	outputPath := OutputPath(inputPath, opts.OutputDir, opts.OutputSuffix)
	if err := audio.WriteFile(outputPath, exec.buf); err != nil {
		return nil, fmt.Errorf("saving %s: %w", filepath.Base(outputPath), err)
	}

	return &ProcessingResult{
		OutputPath: outputPath,
		Snapshot:   snap,
		Output:     outSnap,
		Params:     params,
		Warnings:   exec.warnings,
		InputRate:  meta.SampleRate,
		OutputRate: exec.buf.SampleRate,
		Channels:   exec.buf.NumChannels(),
		Duration:   meta.Duration,
	}, nil
}

// defaultOutputSuffix names corrected files when no override is given.
const defaultOutputSuffix = "-enhanced"

// OutputPath returns where the corrected version of inputPath is written:
// the input name with the suffix appended and a .wav extension, placed in
// outputDir when given or next to the input otherwise. An empty suffix
// selects "-enhanced".
func OutputPath(inputPath, outputDir, suffix string) string {
	dir := filepath.Dir(inputPath)
	if outputDir != "" {
		dir = outputDir
	}
	if suffix == "" {
		suffix = defaultOutputSuffix
	}
	filename := filepath.Base(inputPath)
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	return filepath.Join(dir, stem+suffix+".wav")
}

// execution carries the working state through the correction chain.
type execution struct {
	buf            *audio.Buffer
	params         *ProcessingParams
	opts           *Options
	sourceChannels int
	warnings       []string
}

func (e *execution) warnf(format string, args ...interface{}) {
	e.warnings = append(e.warnings, fmt.Sprintf(format, args...))
}

// mapChannels applies fn to every channel and returns the transformed
// set. The caller swaps the buffer only on success, so a failure on any
// channel discards all partial work and leaves the audio untouched.
func (e *execution) mapChannels(fn func([]float64) ([]float64, error)) ([][]float64, error) {
	out := make([][]float64, len(e.buf.Channels))
	if !e.opts.ParallelChannels || len(e.buf.Channels) < 2 {
		for i, ch := range e.buf.Channels {
			mapped, err := fn(ch)
			if err != nil {
				return nil, err
			}
			out[i] = mapped
		}
		return out, nil
	}

	errs := make([]error, len(e.buf.Channels))
	var wg sync.WaitGroup
	for i, ch := range e.buf.Channels {
		wg.Add(1)
		go func(i int, ch []float64) {
			defer wg.Done()
			out[i], errs[i] = fn(ch)
		}(i, ch)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// runNoiseReduce applies spectral subtraction to every channel with the
// derived amount. Failure leaves the buffer untouched and records a
// warning rather than aborting the file.
func (e *execution) runNoiseReduce() (bool, error) {
	amount := e.params.NoiseReduction
	if amount <= 0 {
		return false, nil
	}
	reduced, err := e.mapChannels(func(ch []float64) ([]float64, error) {
		return ReduceNoise(ch, amount)
	})
	if err != nil {
		e.warnf("noise reduction skipped: %v", err)
		return false, nil
	}
	e.buf.Channels = reduced
	return true, nil
}

// runHighpass filters rumble below the derived cutoff on every channel.
// Like noise reduction, a failure skips the stage with a warning.
func (e *execution) runHighpass() (bool, error) {
	cutoff := e.params.HighpassCutoff
	if cutoff <= 0 {
		return false, nil
	}
	filtered, err := e.mapChannels(func(ch []float64) ([]float64, error) {
		return HighpassFilter(ch, cutoff, e.buf.SampleRate)
	})
	if err != nil {
		e.warnf("high-pass filter skipped: %v", err)
		return false, nil
	}
	e.buf.Channels = filtered
	return true, nil
}

// runNormalize scales the whole buffer so its peak sits at the derived
// target. Silence stays silent.
func (e *execution) runNormalize() (bool, error) {
	peak := e.buf.Peak()
	if peak == 0 {
		return false, nil
	}
	gain := e.params.NormalizationTarget / peak
	for _, ch := range e.buf.Channels {
		for i := range ch {
			ch[i] *= gain
		}
	}
	return true, nil
}

// runLimiter clips whatever still overshoots the ceiling. Only armed for
// sources that were clipping on the way in.
func (e *execution) runLimiter() (bool, error) {
	if !e.params.NeedsLimiting {
		return false, nil
	}
	ceiling := DbToLinear(limiterThresholdDB)
	for _, ch := range e.buf.Channels {
		for i, v := range ch {
			if v > ceiling {
				ch[i] = ceiling
			} else if v < -ceiling {
				ch[i] = -ceiling
			}
		}
	}
	return true, nil
}

// runResample converts to the delivery rate when one was requested and
// differs from the source.
func (e *execution) runResample() (bool, error) {
	target := e.opts.TargetSampleRate
	if target <= 0 || target == e.buf.SampleRate {
		return false, nil
	}
	if err := Resample(e.buf, target); err != nil {
		return false, err
	}
	return true, nil
}

// runRestore brings back the source channel count if correction collapsed
// the buffer to mono.
func (e *execution) runRestore() (bool, error) {
	if e.buf.NumChannels() != 1 || e.sourceChannels <= 1 {
		return false, nil
	}
	e.buf.RestoreChannels(e.sourceChannels)
	return true, nil
}
