// Package processor handles adaptive audio analysis and correction
package processor

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/linuxmatters/remaster/internal/audio"
	"github.com/linuxmatters/remaster/internal/mains"
)

// Analysis constants.
const (
	noiseFloorFraction = 0.10 // quietest fraction of samples treated as noise
	signalFraction     = 0.50 // loudest fraction of samples treated as programme

	snrClean = 100.0 // dB - reported when the noise floor is silent

	highFreqSplitHz = 8000.0 // boundary between mid and high band energy
	spectralEpsilon = 1e-10  // guards ratio denominators against silence

	humHarmonics = 4 // mains fundamental plus first three harmonics
)

// QualitySnapshot holds the measurements taken from one audio file before
// any correction is applied. All level fields are linear in [0, 1] unless
// noted otherwise.
type QualitySnapshot struct {
	Peak          float64 // maximum absolute sample value
	RMS           float64 // root mean square level
	NoiseFloor    float64 // mean level of the quietest samples
	SignalLevel   float64 // mean level of the loudest samples
	SNR           float64 // signal-to-noise ratio in dB
	HighFreqRatio float64 // spectral energy above 8kHz relative to below

	// Hum diagnostics, reported but not used for parameter derivation.
	MainsHumRatio  float64 // energy at mains harmonics relative to the full spectrum
	MainsFrequency float64 // assumed mains fundamental in Hz (50 or 60)
}

// Analyze measures the quality of loaded audio. Multi-channel audio is
// collapsed to a mono mix for measurement; the buffer itself is not
// modified.
func Analyze(buf *audio.Buffer) (*QualitySnapshot, error) {
	if buf == nil || buf.NumChannels() == 0 || buf.Frames() == 0 {
		return nil, errors.New("no audio loaded")
	}

	view := buf.AnalysisView()

	var peak, sumSquares float64
	for _, v := range view {
		a := math.Abs(v)
		if a > peak {
			peak = a
		}
		sumSquares += v * v
	}
	rms := math.Sqrt(sumSquares / float64(len(view)))

	// Level distribution: sorting the absolute levels lets the quietest
	// stretch stand in for the noise floor and the loudest for programme.
	sorted := make([]float64, len(view))
	for i, v := range view {
		sorted[i] = math.Abs(v)
	}
	sort.Float64s(sorted)

	var noiseFloor float64
	if n := int(float64(len(sorted)) * noiseFloorFraction); n > 0 {
		noiseFloor = stat.Mean(sorted[:n], nil)
	}
	signalLevel := stat.Mean(sorted[int(float64(len(sorted))*signalFraction):], nil)

	snr := snrClean
	if noiseFloor > 0 {
		snr = 20 * math.Log10(signalLevel/noiseFloor)
	}

	mainsFreq := mains.Frequency()
	hfRatio, humRatio := measureSpectrum(view, buf.SampleRate, mainsFreq)

	return &QualitySnapshot{
		Peak:           peak,
		RMS:            rms,
		NoiseFloor:     noiseFloor,
		SignalLevel:    signalLevel,
		SNR:            snr,
		HighFreqRatio:  hfRatio,
		MainsHumRatio:  humRatio,
		MainsFrequency: mainsFreq,
	}, nil
}

// measureSpectrum walks the STFT of the mono view once, accumulating the
// mean magnitude above and below the high-frequency split and at the bins
// nearest the mains harmonics. Spectrogram frames are never materialised,
// keeping memory flat for long recordings.
func measureSpectrum(view []float64, sampleRate int, mainsFreq float64) (hfRatio, humRatio float64) {
	s := newSTFT()
	bins := s.numBins()
	mags := make([]float64, bins)

	// First bin strictly above the split. Bins are in ascending frequency
	// order, so everything from here up is the high band.
	highStart := bins
	for k := 0; k < bins; k++ {
		if binFrequency(k, sampleRate) > highFreqSplitHz {
			highStart = k
			break
		}
	}

	humBins := humHarmonicBins(mainsFreq, sampleRate)

	var lowSum, highSum, humSum, totalSum float64
	frames := 0
	for start := 0; start < len(view); start += stftHop {
		s.magnitudes(view, start, mags)
		for k, m := range mags {
			if k >= highStart {
				highSum += m
			} else {
				lowSum += m
			}
			totalSum += m
		}
		for _, k := range humBins {
			humSum += mags[k]
		}
		frames++
	}
	if frames == 0 {
		return 0, 0
	}

	var highMean float64
	if highStart < bins {
		highMean = highSum / float64(frames*(bins-highStart))
	}
	var lowMean float64
	if highStart > 0 {
		lowMean = lowSum / float64(frames*highStart)
	}
	hfRatio = highMean / (lowMean + spectralEpsilon)

	totalMean := totalSum / float64(frames*bins)
	if len(humBins) > 0 {
		humMean := humSum / float64(frames*len(humBins))
		humRatio = humMean / (totalMean + spectralEpsilon)
	}
	return hfRatio, humRatio
}

// humHarmonicBins returns the distinct bins nearest the mains fundamental
// and its harmonics, skipping any that land beyond Nyquist.
func humHarmonicBins(mainsFreq float64, sampleRate int) []int {
	nyquist := float64(sampleRate) / 2
	var out []int
	seen := make(map[int]bool)
	for h := 1; h <= humHarmonics; h++ {
		freq := mainsFreq * float64(h)
		if freq >= nyquist {
			break
		}
		k := nearestBin(freq, sampleRate)
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}
