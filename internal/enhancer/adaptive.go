// Package enhancer handles adaptive video analysis and correction
package enhancer

import (
	"fmt"
	"math"
	"strings"
)

// Adaptive tuning constants for video enhancement.
// These thresholds control how enhancement parameters adapt to the
// measured quality snapshot.
const (
	// Auto-upscaling resolution boundaries (pixels)
	autoUpscaleTinyWidth = 640  // below: double the frame
	autoUpscaleHDWidth   = 1280 // below this width or HD height: mid upscale
	autoUpscaleHDHeight  = 720

	// Upscale factors matched to how far below HD the source sits
	upscaleFactorTiny = 2.0
	upscaleFactorMid  = 1.5

	// Noise estimate thresholds (luma levels) classifying visible grain
	noiseHeavy    = 15.0 // above: strong smoothing
	noiseModerate = 8.0  // above: medium smoothing
	noiseLight    = 4.0  // above: gentle smoothing, below: none

	// Bilateral smoothing strengths matched to grain severity
	denoiseStrong = 10
	denoiseMedium = 5
	denoiseGentle = 3
	denoiseMax    = 50 // sanity ceiling, far above any derived value

	// Sharpness thresholds (Laplacian variance) classifying focus
	sharpnessBlurry = 100.0 // below: strong masking
	sharpnessSoft   = 300.0 // below: medium masking
	sharpnessGentle = 500.0 // below: gentle masking, above: none

	// Unsharp mask weights matched to how soft the picture is
	sharpenStrong = 1.5
	sharpenMedium = 0.8
	sharpenLight  = 0.3

	// Brightness thresholds (mean luma) and the flat shifts they trigger
	brightnessDark   = 80.0  // below: lift the exposure
	brightnessBright = 180.0 // above: pull the exposure down
	brightnessLift   = 30
	brightnessCut    = -20

	// Contrast thresholds (luma deviation) and the gains they trigger
	contrastFlat     = 30.0 // below: strong contrast stretch
	contrastModerate = 50.0 // below: mild contrast stretch
	contrastGainHigh = 1.3
	contrastGainMild = 1.15

	// Saturation rescue for washed-out colour
	contrastDull = 40.0 // below: boost saturation
)

// DeriveParams calculates the enhancement parameters for a measured
// quality snapshot, optionally aiming for a target resolution. This is
// the main entry point for adaptive tuning: each rule inspects one
// aspect of the snapshot and adjusts the parameters independently.
func DeriveParams(snap *QualitySnapshot, target *Resolution) *EnhancementParams {
	params := DefaultEnhancementParams()

	tuneUpscale(params, snap, target)
	tuneDenoise(params, snap)
	tuneSharpen(params, snap)
	tuneTone(params, snap)

	// Final safety checks
	sanitizeEnhancement(params)
	return params
}

// Resolution is a target output size for the upscaling decision.
type Resolution struct {
	Width  int
	Height int
}

// ResolutionByName maps a target resolution name onto its pixel size.
// "auto" (or empty) returns nil, leaving the upscaling decision to the
// measured source size. Names are case-insensitive.
func ResolutionByName(name string) (*Resolution, error) {
	switch strings.ToLower(name) {
	case "", "auto":
		return nil, nil
	case "1080p":
		return &Resolution{Width: 1920, Height: 1080}, nil
	case "4k":
		return &Resolution{Width: 3840, Height: 2160}, nil
	default:
		return nil, fmt.Errorf("unknown resolution %q", name)
	}
}

// tuneUpscale decides whether and how far to enlarge the frame. With an
// explicit target the factor is whatever reaches it in both dimensions;
// without one, sources below HD get a fixed bump.
func tuneUpscale(params *EnhancementParams, snap *QualitySnapshot, target *Resolution) {
	if target != nil {
		if snap.Width < target.Width || snap.Height < target.Height {
			params.NeedsUpscaling = true
			params.UpscaleFactor = math.Max(
				float64(target.Width)/float64(snap.Width),
				float64(target.Height)/float64(snap.Height),
			)
		}
		return
	}

	if snap.Width >= autoUpscaleHDWidth && snap.Height >= autoUpscaleHDHeight {
		return
	}
	params.NeedsUpscaling = true
	if snap.Width < autoUpscaleTinyWidth {
		params.UpscaleFactor = upscaleFactorTiny
	} else {
		params.UpscaleFactor = upscaleFactorMid
	}
}

// tuneDenoise picks the smoothing strength from the measured grain.
func tuneDenoise(params *EnhancementParams, snap *QualitySnapshot) {
	switch {
	case snap.NoiseEstimate > noiseHeavy:
		params.DenoiseStrength = denoiseStrong
	case snap.NoiseEstimate > noiseModerate:
		params.DenoiseStrength = denoiseMedium
	case snap.NoiseEstimate > noiseLight:
		params.DenoiseStrength = denoiseGentle
	default:
		params.DenoiseStrength = 0
	}
}

// tuneSharpen picks the unsharp mask weight from the measured focus.
func tuneSharpen(params *EnhancementParams, snap *QualitySnapshot) {
	switch {
	case snap.Sharpness < sharpnessBlurry:
		params.SharpenAmount = sharpenStrong
	case snap.Sharpness < sharpnessSoft:
		params.SharpenAmount = sharpenMedium
	case snap.Sharpness < sharpnessGentle:
		params.SharpenAmount = sharpenLight
	default:
		params.SharpenAmount = 0.0
	}
}

// tuneTone corrects exposure and contrast, and arms the saturation
// boost when the picture reads as washed out.
func tuneTone(params *EnhancementParams, snap *QualitySnapshot) {
	switch {
	case snap.Brightness < brightnessDark:
		params.BrightnessAdjust = brightnessLift
	case snap.Brightness > brightnessBright:
		params.BrightnessAdjust = brightnessCut
	}

	switch {
	case snap.Contrast < contrastFlat:
		params.ContrastAdjust = contrastGainHigh
	case snap.Contrast < contrastModerate:
		params.ContrastAdjust = contrastGainMild
	}

	if snap.Contrast < contrastDull {
		params.ColorEnhance = true
	}
}

// sanitizeEnhancement ensures all derived values are safe to hand to
// the per-frame operations, replacing NaN/Inf and out-of-range values.
func sanitizeEnhancement(params *EnhancementParams) {
	factor := sanitizeFloat(params.UpscaleFactor, 1.0)
	if factor < 1.0 {
		factor = 1.0
	}
	params.UpscaleFactor = factor
	if params.UpscaleFactor == 1.0 {
		params.NeedsUpscaling = false
	}

	params.DenoiseStrength = int(clamp(float64(params.DenoiseStrength), 0, denoiseMax))

	params.SharpenAmount = clamp(sanitizeFloat(params.SharpenAmount, 0), 0, sharpenStrong)

	gain := sanitizeFloat(params.ContrastAdjust, 1.0)
	if gain <= 0 {
		gain = 1.0
	}
	params.ContrastAdjust = gain
}

// sanitizeFloat returns defaultVal if val is NaN or Inf, otherwise val
func sanitizeFloat(val, defaultVal float64) float64 {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return defaultVal
	}
	return val
}

// clamp restricts val to the range [min, max]
func clamp(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
