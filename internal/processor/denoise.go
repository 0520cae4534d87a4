// Package processor handles adaptive audio analysis and correction
package processor

import (
	"fmt"
	"math/cmplx"
	"sort"
)

// Noise reduction constants.
const (
	noiseProfileFraction = 0.10 // quietest fraction of frames forming the noise profile
	spectralFloorRatio   = 0.05 // fraction of the original magnitude kept as a floor
	windowNormFloor      = 1e-8 // minimum window coverage for overlap-add division
)

// ReduceNoise applies stationary spectral subtraction to one channel.
//
// The noise profile is the mean magnitude spectrum of the quietest frames,
// mirroring how the analyzer treats the quietest samples as the noise
// floor. Each frame then has proportion times the profile subtracted from
// its magnitudes, with phases preserved, and the frames are recombined by
// weighted overlap-add. A small fraction of each original magnitude is
// kept as a floor to avoid the hollow artefacts of oversubtraction.
//
// Returns a new slice; the input is not modified.
func ReduceNoise(samples []float64, proportion float64) ([]float64, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples to reduce")
	}
	if proportion <= 0 || proportion > 1 {
		return nil, fmt.Errorf("reduction proportion %.2f out of range (0, 1]", proportion)
	}

	s := newSTFT()
	nFrames := s.numFrames(len(samples))

	// Rank frames by windowed energy. Parseval ties time-domain energy to
	// spectral energy, so the ranking can skip the transform entirely.
	energies := make([]float64, 0, nFrames)
	for start := 0; start < len(samples); start += stftHop {
		s.loadFrame(samples, start)
		var e float64
		for _, v := range s.frame {
			e += v * v
		}
		energies = append(energies, e)
	}

	profileCount := int(float64(nFrames) * noiseProfileFraction)
	if profileCount < 1 {
		profileCount = 1
	}
	sortedEnergies := append([]float64(nil), energies...)
	sort.Float64s(sortedEnergies)
	energyThreshold := sortedEnergies[profileCount-1]

	// Mean magnitude spectrum of the quietest frames.
	profile := make([]float64, s.numBins())
	mags := make([]float64, s.numBins())
	used := 0
	for f, start := 0, 0; start < len(samples); f, start = f+1, start+stftHop {
		if used >= profileCount || energies[f] > energyThreshold {
			continue
		}
		s.magnitudes(samples, start, mags)
		for k := range profile {
			profile[k] += mags[k]
		}
		used++
	}
	for k := range profile {
		profile[k] /= float64(used)
	}

	// Subtract the scaled profile frame by frame and overlap-add the
	// results. The window is applied on both analysis and synthesis, so
	// the accumulated squared window normalises the reconstruction.
	out := make([]float64, len(samples))
	norm := make([]float64, len(samples))
	frameTime := make([]float64, stftSize)
	for start := 0; start < len(samples); start += stftHop {
		coeffs := s.coefficients(samples, start)
		for k, c := range coeffs {
			mag := cmplx.Abs(c)
			reduced := mag - proportion*profile[k]
			if floor := mag * spectralFloorRatio; reduced < floor {
				reduced = floor
			}
			coeffs[k] = cmplx.Rect(reduced, cmplx.Phase(c))
		}
		s.inverse(coeffs, frameTime)
		for j := 0; j < stftSize && start+j < len(samples); j++ {
			w := s.window[j]
			out[start+j] += frameTime[j] * w
			norm[start+j] += w * w
		}
	}
	for i := range out {
		if norm[i] > windowNormFloor {
			out[i] /= norm[i]
		} else {
			// Window coverage vanishes at the outermost samples.
			out[i] = samples[i]
		}
	}
	return out, nil
}
