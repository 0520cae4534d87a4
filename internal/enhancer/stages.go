// Package enhancer handles adaptive video analysis and correction
package enhancer

// StepID identifies a step in the per-frame enhancement chain
type StepID string

// Step identifiers for the video enhancement chain
const (
	StepDenoise  StepID = "denoise"  // edge-preserving bilateral smoothing
	StepUpscale  StepID = "upscale"  // Lanczos resampling to the output size
	StepSharpen  StepID = "sharpen"  // unsharp masking against a Gaussian blur
	StepTone     StepID = "tone"     // affine brightness and contrast correction
	StepSaturate StepID = "saturate" // saturation boost for dull colour
)

// EnhancementOrder defines the step sequence applied to every frame.
// Order rationale:
// - Denoise first: smoothing before upscaling keeps grain from being enlarged
// - Upscale: resampling before sharpening so the mask tightens real detail
// - Sharpen: edge contrast restored on the final pixel grid
// - Tone: brightness and contrast mapped once luma detail is settled
// - Saturate: colour lifted last, on the corrected tone
var EnhancementOrder = []StepID{
	StepDenoise,
	StepUpscale,
	StepSharpen,
	StepTone,
	StepSaturate,
}

// EnhancementParams holds the per-frame corrections derived from a
// quality snapshot. Zero values disable the optional steps.
type EnhancementParams struct {
	NeedsUpscaling   bool    // resample frames to a larger output grid
	UpscaleFactor    float64 // linear size multiplier when upscaling
	DenoiseStrength  int     // bilateral range width in grey levels (0 disables)
	SharpenAmount    float64 // unsharp mask weight (0 disables)
	BrightnessAdjust int     // flat shift in pixel values (0 disables)
	ContrastAdjust   float64 // pixel gain (1 disables)
	ColorEnhance     bool    // boost saturation on washed-out colour
}

// DefaultEnhancementParams returns the parameters for a clean video.
func DefaultEnhancementParams() *EnhancementParams {
	return &EnhancementParams{
		// Source resolution kept as is
		UpscaleFactor: 1.0,

		// No smoothing until the noise estimate asks for it
		DenoiseStrength: 0,

		// No masking until the sharpness score asks for it
		SharpenAmount: 0.0,

		// Neutral tone mapping
		BrightnessAdjust: 0,
		ContrastAdjust:   1.0,
	}
}

// frameOpFunc applies one enhancement step to a frame and returns the
// frame to hand to the next step. Steps that resize return a new frame;
// the rest modify in place.
type frameOpFunc func(*enhancement, *Frame) (*Frame, error)

// frameOps maps StepID to its per-frame operation.
// This registry centralises step dispatch for the frame loop.
var frameOps = map[StepID]frameOpFunc{
	StepDenoise:  (*enhancement).opDenoise,
	StepUpscale:  (*enhancement).opUpscale,
	StepSharpen:  (*enhancement).opSharpen,
	StepTone:     (*enhancement).opTone,
	StepSaturate: (*enhancement).opSaturate,
}

// activeSteps returns the chain steps the derived parameters switch on,
// in execution order. The selection is fixed per file: every frame of
// the output passes through the same steps.
func activeSteps(p *EnhancementParams) []StepID {
	var steps []StepID
	for _, step := range EnhancementOrder {
		if stepActive(step, p) {
			steps = append(steps, step)
		}
	}
	return steps
}

func stepActive(step StepID, p *EnhancementParams) bool {
	switch step {
	case StepDenoise:
		return p.DenoiseStrength > 0
	case StepUpscale:
		return p.NeedsUpscaling && p.UpscaleFactor > 1.0
	case StepSharpen:
		return p.SharpenAmount > 0
	case StepTone:
		return p.BrightnessAdjust != 0 || p.ContrastAdjust != 1.0
	case StepSaturate:
		return p.ColorEnhance
	}
	return false
}
