// Package processor handles adaptive audio analysis and correction
package processor

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// STFT framing constants shared by the analyzer and the noise reducer.
const (
	stftSize = 2048 // FFT length per frame
	stftHop  = 512  // samples between successive frames
)

// stft computes short-time Fourier frames over a signal using a Hann
// window. Frames start at multiples of the hop; the final frame is
// zero-padded. The struct owns scratch buffers so repeated calls do not
// allocate.
type stft struct {
	fft    *fourier.FFT
	window []float64
	frame  []float64
	coeffs []complex128
}

func newSTFT() *stft {
	return &stft{
		fft:    fourier.NewFFT(stftSize),
		window: hannWindow(stftSize),
		frame:  make([]float64, stftSize),
		coeffs: make([]complex128, stftSize/2+1),
	}
}

// numBins returns the number of frequency bins per frame (DC through Nyquist).
func (s *stft) numBins() int {
	return stftSize/2 + 1
}

// numFrames returns how many frames cover a signal of the given length.
func (s *stft) numFrames(signalLen int) int {
	if signalLen <= 0 {
		return 0
	}
	return (signalLen + stftHop - 1) / stftHop
}

// loadFrame copies the windowed samples for the frame starting at
// signal[start] into the scratch frame buffer.
func (s *stft) loadFrame(signal []float64, start int) {
	for j := 0; j < stftSize; j++ {
		if start+j < len(signal) {
			s.frame[j] = signal[start+j] * s.window[j]
		} else {
			s.frame[j] = 0
		}
	}
}

// coefficients transforms the frame starting at signal[start] and returns
// the complex spectrum. The returned slice is reused between calls.
func (s *stft) coefficients(signal []float64, start int) []complex128 {
	s.loadFrame(signal, start)
	s.coeffs = s.fft.Coefficients(s.coeffs, s.frame)
	return s.coeffs
}

// magnitudes transforms the frame starting at signal[start] and writes bin
// magnitudes into dst, which must have numBins elements.
func (s *stft) magnitudes(signal []float64, start int, dst []float64) {
	coeffs := s.coefficients(signal, start)
	for k, c := range coeffs {
		dst[k] = cmplx.Abs(c)
	}
}

// inverse reconstructs a time-domain frame from a complex spectrum into
// dst, which must have stftSize elements. The FFT pair is unnormalised,
// so the sequence is scaled by 1/stftSize.
func (s *stft) inverse(coeffs []complex128, dst []float64) {
	s.fft.Sequence(dst, coeffs)
	for j := range dst {
		dst[j] /= stftSize
	}
}

// binFrequency returns the centre frequency in Hz of bin k.
func binFrequency(k, sampleRate int) float64 {
	return float64(k) * float64(sampleRate) / float64(stftSize)
}

// nearestBin returns the bin whose centre frequency is closest to freq,
// clamped to the valid bin range.
func nearestBin(freq float64, sampleRate int) int {
	k := int(freq*float64(stftSize)/float64(sampleRate) + 0.5)
	if k < 0 {
		k = 0
	}
	if k > stftSize/2 {
		k = stftSize / 2
	}
	return k
}

// hannWindow returns an n-point Hann window.
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	return window.Hann(w)
}
