// Package enhancer handles adaptive video analysis and correction
package enhancer

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"

	"github.com/linuxmatters/remaster/internal/video"
)

// Options control how a file is enhanced.
type Options struct {
	// TargetResolution aims upscaling at a fixed size. Nil selects the
	// automatic below-HD rules.
	TargetResolution *Resolution

	// OutputDir overrides the destination directory. Empty writes the
	// enhanced file next to its input.
	OutputDir string

	// OutputSuffix is appended to the input stem to name the output.
	// Empty selects "-enhanced".
	OutputSuffix string
}

// ProgressFunc receives the frame counter as the output is written.
// done never decreases and total is fixed for the whole file.
type ProgressFunc func(done, total int)

// EnhancementResult summarises one enhanced file.
type EnhancementResult struct {
	OutputPath   string
	Snapshot     *QualitySnapshot   // measurements the enhancements were derived from
	Params       *EnhancementParams // enhancements that were selected
	Steps        []StepID           // chain steps that ran on every frame
	Warnings     []string           // problems that did not stop the file
	FramesOut    int
	OutputWidth  int
	OutputHeight int
}

// ProcessVideo runs the complete adaptive enhancement pipeline on one
// file: probe, measure, derive parameters, push every frame through the
// enhancement chain, and encode.
//
// The output keeps the input container and is named
// <basename>-enhanced<ext> (or with opts.OutputSuffix) next to the input
// or in opts.OutputDir. If progress is not nil it is called as frames
// are written.
func ProcessVideo(inputPath string, opts *Options, progress ProgressFunc) (*EnhancementResult, error) {
	if opts == nil {
		opts = &Options{}
	}

	meta, err := video.Probe(inputPath)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", filepath.Base(inputPath), err)
	}
	reader, err := video.OpenReader(inputPath, meta.Width, meta.Height)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", filepath.Base(inputPath), err)
	}
	defer reader.Close()

	snap, err := Analyze(reader, meta)
	if err != nil {
		return nil, fmt.Errorf("analyzing %s: %w", filepath.Base(inputPath), err)
	}
	params := DeriveParams(snap, opts.TargetResolution)
	enh := newEnhancement(snap, params)

	outputPath := OutputPath(inputPath, opts.OutputDir, opts.OutputSuffix)
	writer, err := video.OpenWriter(outputPath, enh.outW, enh.outH, snap.FPS)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", filepath.Base(outputPath), err)
	}
	if err := enh.run(reader, writer, progress); err != nil {
		writer.Close()
		os.Remove(outputPath)
		return nil, fmt.Errorf("enhancing %s: %w", filepath.Base(inputPath), err)
	}
	if err := writer.Close(); err != nil {
		os.Remove(outputPath)
		return nil, fmt.Errorf("saving %s: %w", filepath.Base(outputPath), err)
	}

	return &EnhancementResult{
		OutputPath:   outputPath,
		Snapshot:     snap,
		Params:       params,
		Steps:        enh.steps,
		Warnings:     enh.warnings,
		FramesOut:    writer.Frames(),
		OutputWidth:  enh.outW,
		OutputHeight: enh.outH,
	}, nil
}

// defaultOutputSuffix names enhanced files when no override is given.
const defaultOutputSuffix = "-enhanced"

// OutputPath returns where the enhanced version of inputPath is
// written: the input name with the suffix appended, placed in outputDir
// when given or next to the input otherwise. An empty suffix selects
// "-enhanced". The container extension is kept, except that WebM cannot
// carry the MPEG-4 stream the encoder produces and becomes .mp4.
func OutputPath(inputPath, outputDir, suffix string) string {
	dir := filepath.Dir(inputPath)
	if outputDir != "" {
		dir = outputDir
	}
	if suffix == "" {
		suffix = defaultOutputSuffix
	}
	filename := filepath.Base(inputPath)
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	if strings.EqualFold(ext, ".webm") {
		ext = ".mp4"
	}
	return filepath.Join(dir, stem+suffix+ext)
}

// enhancement carries the working state through the frame loop.
type enhancement struct {
	snap   *QualitySnapshot
	params *EnhancementParams
	outW   int
	outH   int
	steps  []StepID

	warnings      []string
	denoiseFailed bool // warn once, then pass frames through
	sharpenFailed bool
}

func newEnhancement(snap *QualitySnapshot, params *EnhancementParams) *enhancement {
	e := &enhancement{snap: snap, params: params}
	e.outW, e.outH = e.outputSize()
	e.steps = e.planSteps()
	return e
}

func (e *enhancement) warnf(format string, args ...interface{}) {
	e.warnings = append(e.warnings, fmt.Sprintf(format, args...))
}

// outputSize returns the encoded frame dimensions: the source size
// scaled by the upscale factor, aligned down to even values for the
// encoder's chroma layout.
func (e *enhancement) outputSize() (int, int) {
	w, h := e.snap.Width, e.snap.Height
	if e.params.NeedsUpscaling && e.params.UpscaleFactor > 1.0 {
		w = int(math.Round(float64(w) * e.params.UpscaleFactor))
		h = int(math.Round(float64(h) * e.params.UpscaleFactor))
	}
	return w &^ 1, h &^ 1
}

// planSteps fixes the chain for this file. The upscale step keys off
// the final geometry rather than the derived flag alone: even-pixel
// alignment can force a resize on sources the derivation left at their
// own size.
func (e *enhancement) planSteps() []StepID {
	var steps []StepID
	for _, step := range EnhancementOrder {
		active := stepActive(step, e.params)
		if step == StepUpscale {
			active = e.outW != e.snap.Width || e.outH != e.snap.Height
		}
		if active {
			steps = append(steps, step)
		}
	}
	return steps
}

// run feeds every source frame through the active chain steps and
// writes the result. Frame order and count are preserved: each decoded
// frame produces exactly one encoded frame.
func (e *enhancement) run(reader *video.Reader, writer *video.Writer, progress ProgressFunc) error {
	buf := make([]byte, reader.FrameSize())
	total := e.snap.FrameCount
	done := 0
	for {
		err := reader.ReadFrame(buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("decoding frame %d: %w", done, err)
		}

		frame := &Frame{Pix: buf, Width: e.snap.Width, Height: e.snap.Height}
		out, err := e.enhanceFrame(frame)
		if err != nil {
			return fmt.Errorf("enhancing frame %d: %w", done, err)
		}
		if err := writer.WriteFrame(out.Pix); err != nil {
			return fmt.Errorf("encoding frame %d: %w", done, err)
		}
		done++
		if progress != nil {
			progress(done, total)
		}
	}
	if done == 0 {
		return errors.New("no frames decoded")
	}
	return nil
}

// enhanceFrame pushes one frame through the active steps in chain order.
func (e *enhancement) enhanceFrame(f *Frame) (*Frame, error) {
	for _, step := range e.steps {
		out, err := frameOps[step](e, f)
		if err != nil {
			return nil, err
		}
		f = out
	}
	return f, nil
}

// opDenoise smooths grain while holding edges. A failure here must not
// drop or reorder frames, so the unmodified frame passes through and
// the problem is recorded once.
func (e *enhancement) opDenoise(f *Frame) (*Frame, error) {
	out, err := DenoiseFrame(f, e.params.DenoiseStrength)
	if err != nil {
		if !e.denoiseFailed {
			e.denoiseFailed = true
			e.warnf("denoising skipped: %v", err)
		}
		return f, nil
	}
	return out, nil
}

// opUpscale resamples the frame to the output grid with a Lanczos
// kernel.
func (e *enhancement) opUpscale(f *Frame) (*Frame, error) {
	img := resize.Resize(uint(e.outW), uint(e.outH), f.toRGBA(), resize.Lanczos3)
	return frameFromImage(img), nil
}

// opSharpen recovers edge contrast with an unsharp mask. Like
// denoising, a failure passes the frame through unmodified.
func (e *enhancement) opSharpen(f *Frame) (*Frame, error) {
	out, err := SharpenFrame(f, e.params.SharpenAmount)
	if err != nil {
		if !e.sharpenFailed {
			e.sharpenFailed = true
			e.warnf("sharpening skipped: %v", err)
		}
		return f, nil
	}
	return out, nil
}

// opTone applies the affine brightness and contrast correction.
func (e *enhancement) opTone(f *Frame) (*Frame, error) {
	AdjustTone(f, e.params.ContrastAdjust, e.params.BrightnessAdjust)
	return f, nil
}

// opSaturate lifts the colour of a washed-out picture.
func (e *enhancement) opSaturate(f *Frame) (*Frame, error) {
	BoostSaturation(f, saturationBoost)
	return f, nil
}
