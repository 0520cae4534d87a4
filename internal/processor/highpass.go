// Package processor handles adaptive audio analysis and correction
package processor

import (
	"fmt"
	"math"
)

// biquad is one second-order filter section in direct form II transposed.
// First-order sections leave b2 and a2 zero.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// apply runs the section over x in place. State is seeded for a constant
// input at x[0], which keeps the startup transient down when the padding
// hands over to real samples.
func (s biquad) apply(x []float64) {
	if len(x) == 0 {
		return
	}
	// Steady state for a high-pass section: constant in, zero out.
	z1 := (s.b1 + s.b2) * x[0]
	z2 := s.b2 * x[0]
	for i, v := range x {
		y := s.b0*v + z1
		z1 = s.b1*v - s.a1*y + z2
		z2 = s.b2*v - s.a2*y
		x[i] = y
	}
}

// HighpassFilter applies a zero-phase Butterworth high-pass to one channel
// and returns the filtered copy. The signal is run through the section
// cascade forward and then backward, cancelling the phase shift. The
// lowest cutoffs get a gentler slope so the filter never bites into voice
// fundamentals.
func HighpassFilter(samples []float64, cutoff, sampleRate int) ([]float64, error) {
	nyquist := float64(sampleRate) / 2
	if cutoff <= 0 || float64(cutoff) >= nyquist {
		return nil, fmt.Errorf("cutoff %dHz outside (0, %.0fHz)", cutoff, nyquist)
	}

	order := highpassOrder(cutoff)
	sections := butterworthHighpass(float64(cutoff), float64(sampleRate), order)

	// Odd reflection padding absorbs the filter transients at both ends.
	padLen := 3 * (order + 1)
	if len(samples) <= padLen {
		return nil, fmt.Errorf("%d samples is too short to filter (need more than %d)", len(samples), padLen)
	}
	padded := oddExtend(samples, padLen)

	for _, s := range sections {
		s.apply(padded)
	}
	reverse(padded)
	for _, s := range sections {
		s.apply(padded)
	}
	reverse(padded)

	out := make([]float64, len(samples))
	copy(out, padded[padLen:len(padded)-padLen])
	return out, nil
}

// highpassOrder returns the filter order for a cutoff. Cutoffs at or
// below 60Hz use a gentler second-order slope.
func highpassOrder(cutoff int) int {
	if cutoff <= 60 {
		return 2
	}
	return 3
}

// butterworthHighpass builds the section cascade for an order-n
// Butterworth high-pass. Odd orders contribute a first-order section for
// the real pole; each conjugate pole pair becomes a biquad whose Q
// follows from the pair's angle on the Butterworth circle.
func butterworthHighpass(cutoff, sampleRate float64, order int) []biquad {
	var sections []biquad
	if order%2 == 1 {
		sections = append(sections, firstOrderHighpass(cutoff, sampleRate))
	}
	for k := 0; k < order/2; k++ {
		phi := math.Pi * float64(order-2*k-1) / float64(2*order)
		q := 1 / (2 * math.Cos(phi))
		sections = append(sections, biquadHighpass(cutoff, sampleRate, q))
	}
	return sections
}

// firstOrderHighpass designs a single-pole high-pass via the bilinear
// transform with frequency prewarping.
func firstOrderHighpass(cutoff, sampleRate float64) biquad {
	k := math.Tan(math.Pi * cutoff / sampleRate)
	norm := 1 / (1 + k)
	return biquad{
		b0: norm,
		b1: -norm,
		a1: (k - 1) * norm,
	}
}

// biquadHighpass designs a second-order high-pass section with the given
// Q using the audio EQ cookbook formulation.
func biquadHighpass(cutoff, sampleRate, q float64) biquad {
	w0 := 2 * math.Pi * cutoff / sampleRate
	cosW0 := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)
	a0 := 1 + alpha
	return biquad{
		b0: (1 + cosW0) / 2 / a0,
		b1: -(1 + cosW0) / a0,
		b2: (1 + cosW0) / 2 / a0,
		a1: -2 * cosW0 / a0,
		a2: (1 - alpha) / a0,
	}
}

// oddExtend pads x with padLen reflected samples at each end, pivoting
// around the end values so the extension stays continuous.
func oddExtend(x []float64, padLen int) []float64 {
	out := make([]float64, 0, len(x)+2*padLen)
	first, last := x[0], x[len(x)-1]
	for i := padLen; i >= 1; i-- {
		out = append(out, 2*first-x[i])
	}
	out = append(out, x...)
	for i := 1; i <= padLen; i++ {
		out = append(out, 2*last-x[len(x)-1-i])
	}
	return out
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}
