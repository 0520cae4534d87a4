// Package processor handles adaptive audio analysis and correction
package processor

import "math"

// Adaptive tuning constants for audio correction.
// These thresholds control how correction parameters adapt to the measured
// quality snapshot.
const (
	// SNR thresholds (dB) classifying how noisy the recording is
	snrVeryNoisy = 15.0 // below: heavy noise reduction
	snrModerate  = 25.0 // below: medium noise reduction
	snrLight     = 40.0 // below: gentle noise reduction, above: none

	// Noise reduction amounts (proportion of noise removed, 0..1)
	noiseReductionHeavy  = 0.7
	noiseReductionMedium = 0.5
	noiseReductionGentle = 0.3
	noiseReductionBoost  = 0.1 // added when high-frequency hiss is detected
	noiseReductionMax    = 0.8 // upper limit after boosting

	// High-frequency hiss detection
	hfRatioHissy = 0.3 // above: treat the high band as broadband hiss

	// Noise floor thresholds (linear) classifying low-frequency rumble
	noiseFloorHeavyRumble  = 0.01  // above: significant rumble
	noiseFloorSlightRumble = 0.005 // above: slight rumble
	noiseFloorTraceRumble  = 0.002 // above: minimal rumble

	// High-pass cutoff frequencies (Hz) matched to rumble severity
	highpassHeavyFreq  = 80
	highpassSlightFreq = 60
	highpassTraceFreq  = 40

	// Peak thresholds classifying the volume of the recording
	peakClipping = 0.99 // above: clipping likely
	peakVeryLow  = 0.2  // below: very quiet recording
	peakModerate = 0.5  // below: moderate level

	// Normalization targets (linear peak)
	normTargetClipped  = 0.75 // extra headroom after limiting
	normTargetStandard = 0.8  // standard target for quiet recordings
	normTargetGood     = 0.85 // recording already at a healthy level

	// Limiter ceiling applied when clipping was detected
	limiterThresholdDB = -0.5 // dBFS

	// Default fallback values for sanitization
	defaultNormalizationTarget = 0.8
)

// DeriveParams calculates the correction parameters for a measured quality
// snapshot. This is the main entry point for adaptive tuning: each rule
// inspects one aspect of the snapshot and adjusts the parameters, and later
// rules only ever amplify what earlier ones decided.
func DeriveParams(snap *QualitySnapshot) *ProcessingParams {
	params := DefaultProcessingParams()

	// Order matters: noise reduction before the high-frequency boost,
	// rumble and volume rules after.
	tuneNoiseReduction(params, snap)
	tuneHighpass(params, snap)
	tuneNormalization(params, snap)

	// Final safety checks
	sanitizeParams(params)
	return params
}

// tuneNoiseReduction picks the reduction amount from the measured SNR and
// boosts it when the spectrum shows broadband hiss above 8kHz.
func tuneNoiseReduction(params *ProcessingParams, snap *QualitySnapshot) {
	switch {
	case snap.SNR < snrVeryNoisy:
		params.NoiseReduction = noiseReductionHeavy
		params.NeedsProcessing = true
	case snap.SNR < snrModerate:
		params.NoiseReduction = noiseReductionMedium
		params.NeedsProcessing = true
	case snap.SNR < snrLight:
		params.NoiseReduction = noiseReductionGentle
		params.NeedsProcessing = true
	default:
		params.NoiseReduction = 0.0
	}

	// Hiss raises the amount but never past the cap, and a clean SNR with
	// hiss alone does not flag the file for processing.
	if snap.HighFreqRatio > hfRatioHissy {
		params.NoiseReduction = math.Min(params.NoiseReduction+noiseReductionBoost, noiseReductionMax)
	}
}

// tuneHighpass picks the rumble cutoff from the measured noise floor.
// A trace of rumble gets a gentle 40Hz cutoff without flagging the file
// for processing.
func tuneHighpass(params *ProcessingParams, snap *QualitySnapshot) {
	switch {
	case snap.NoiseFloor > noiseFloorHeavyRumble:
		params.HighpassCutoff = highpassHeavyFreq
		params.NeedsProcessing = true
	case snap.NoiseFloor > noiseFloorSlightRumble:
		params.HighpassCutoff = highpassSlightFreq
		params.NeedsProcessing = true
	case snap.NoiseFloor > noiseFloorTraceRumble:
		params.HighpassCutoff = highpassTraceFreq
	default:
		params.HighpassCutoff = 0
	}
}

// tuneNormalization picks the normalization target from the measured peak
// and arms the limiter when the recording was already clipping.
func tuneNormalization(params *ProcessingParams, snap *QualitySnapshot) {
	switch {
	case snap.Peak > peakClipping:
		// Clipped source: limit the overshoots and leave extra headroom.
		params.NeedsLimiting = true
		params.NormalizationTarget = normTargetClipped
		params.NeedsProcessing = true
	case snap.Peak < peakVeryLow:
		params.NormalizationTarget = normTargetStandard
		params.NeedsProcessing = true
	case snap.Peak < peakModerate:
		params.NormalizationTarget = normTargetStandard
	default:
		params.NormalizationTarget = normTargetGood
	}
}

// sanitizeParams ensures all derived values are safe to hand to the
// correction stages, replacing NaN/Inf and out-of-range values.
func sanitizeParams(params *ProcessingParams) {
	params.NoiseReduction = clamp(sanitizeFloat(params.NoiseReduction, 0), 0, noiseReductionMax)

	if params.HighpassCutoff < 0 {
		params.HighpassCutoff = 0
	}

	target := sanitizeFloat(params.NormalizationTarget, defaultNormalizationTarget)
	if target <= 0 || target > 1 {
		target = defaultNormalizationTarget
	}
	params.NormalizationTarget = target
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
