// Package processor handles adaptive audio analysis and correction
package processor

import "math"

// StageID identifies a stage in the correction chain
type StageID string

// Stage identifiers for the audio correction chain
const (
	StageNoiseReduce StageID = "noisereduce" // spectral subtraction noise reduction
	StageHighpass    StageID = "highpass"    // zero-phase rumble removal
	StageNormalize   StageID = "normalize"   // peak normalization to the derived target
	StageLimiter     StageID = "limiter"     // hard ceiling for clipped sources
	StageResample    StageID = "resample"    // conversion to the delivery sample rate
	StageRestore     StageID = "restore"     // channel layout restoration
)

// CorrectionOrder defines the stage sequence for the correction pass.
// Order rationale:
// - NoiseReduce first: the noise profile must be taken before filtering reshapes it
// - Highpass: removes rumble before any level decisions
// - Normalize: brings the cleaned signal to the derived peak target
// - Limiter: catches overshoots after normalizing a clipped source
// - Resample: rate conversion after all sample-domain corrections
// - Restore: channel layout restored last, just before encoding
var CorrectionOrder = []StageID{
	StageNoiseReduce,
	StageHighpass,
	StageNormalize,
	StageLimiter,
	StageResample,
	StageRestore,
}

// ProcessingParams holds the correction parameters derived from a quality
// snapshot. Zero values disable the optional stages.
type ProcessingParams struct {
	NoiseReduction      float64 // proportion of the noise profile to remove (0 disables)
	HighpassCutoff      int     // rumble cutoff in Hz (0 disables)
	NormalizationTarget float64 // linear peak target after correction
	NeedsLimiting       bool    // clip overshoots after normalization
	NeedsProcessing     bool    // corrective work beyond routine normalization selected
}

// DefaultProcessingParams returns the parameters for a clean recording.
func DefaultProcessingParams() *ProcessingParams {
	return &ProcessingParams{
		// No noise reduction until the SNR asks for it
		NoiseReduction: 0.0,

		// No rumble filter until the noise floor asks for it
		HighpassCutoff: 0,

		// Standard peak target
		NormalizationTarget: 0.8,

		// Limiter armed only when clipping was detected
		NeedsLimiting: false,
	}
}

// stageRunnerFunc runs one correction stage against the execution state.
// It reports whether the stage touched the audio. Stages record non-fatal
// problems on the execution and return false; a returned error aborts the
// file.
type stageRunnerFunc func(*execution) (bool, error)

// stageRunners maps StageID to its runner function.
// This registry centralises stage dispatch and avoids per-call map allocation.
var stageRunners = map[StageID]stageRunnerFunc{
	StageNoiseReduce: (*execution).runNoiseReduce,
	StageHighpass:    (*execution).runHighpass,
	StageNormalize:   (*execution).runNormalize,
	StageLimiter:     (*execution).runLimiter,
	StageResample:    (*execution).runResample,
	StageRestore:     (*execution).runRestore,
}

// DbToLinear converts decibel value to linear amplitude.
// Used for limiter ceilings and level maths.
func DbToLinear(db float64) float64 {
	return math.Pow(10, db/20.0)
}

// LinearToDb converts linear amplitude to decibel value.
// Inverse of DbToLinear.
func LinearToDb(linear float64) float64 {
	if linear <= 0 {
		return -120.0 // Practical floor for audio
	}
	return 20.0 * math.Log10(linear)
}
