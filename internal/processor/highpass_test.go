package processor

import (
	"math"
	"testing"
)

// toneMagnitude measures the amplitude of one frequency component by
// correlating against quadrature references.
func toneMagnitude(x []float64, freq float64, sampleRate int) float64 {
	var re, im float64
	for i, v := range x {
		phase := 2 * math.Pi * freq * float64(i) / float64(sampleRate)
		re += v * math.Cos(phase)
		im += v * math.Sin(phase)
	}
	return 2 * math.Hypot(re, im) / float64(len(x))
}

func TestHighpassFilterRemovesRumble(t *testing.T) {
	const rate = 48000
	n := rate

	// 30Hz rumble under a 1kHz tone.
	in := make([]float64, n)
	for i, v := range sineWave(30, rate, n, 0.4) {
		in[i] = v
	}
	for i, v := range sineWave(1000, rate, n, 0.4) {
		in[i] += v
	}

	out, err := HighpassFilter(in, 80, rate)
	if err != nil {
		t.Fatalf("HighpassFilter returned error: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("output length = %d, want %d", len(out), len(in))
	}

	rumbleIn := toneMagnitude(in, 30, rate)
	rumbleOut := toneMagnitude(out, 30, rate)
	if rumbleOut > rumbleIn/10 {
		t.Errorf("30Hz component = %.4f after filtering, want below %.4f", rumbleOut, rumbleIn/10)
	}

	toneIn := toneMagnitude(in, 1000, rate)
	toneOut := toneMagnitude(out, 1000, rate)
	if math.Abs(toneOut-toneIn) > 0.01*toneIn {
		t.Errorf("1kHz component = %.4f after filtering, want about %.4f", toneOut, toneIn)
	}
}

// Filtering forward and backward cancels the phase shift, so a passband
// tone must come through sample-aligned, not just equal in magnitude.
func TestHighpassFilterZeroPhase(t *testing.T) {
	const rate = 48000
	in := sineWave(1000, rate, rate/2, 0.5)

	out, err := HighpassFilter(in, 40, rate)
	if err != nil {
		t.Fatalf("HighpassFilter returned error: %v", err)
	}

	// Compare away from the ends where the reflection padding hands over.
	var maxDiff float64
	for i := rate / 20; i < len(in)-rate/20; i++ {
		if d := math.Abs(out[i] - in[i]); d > maxDiff {
			maxDiff = d
		}
	}
	if maxDiff > 0.01 {
		t.Errorf("max passband deviation = %g, want below 0.01", maxDiff)
	}
}

func TestHighpassFilterValidation(t *testing.T) {
	tests := []struct {
		name       string
		samples    []float64
		cutoff     int
		sampleRate int
	}{
		{name: "zero cutoff", samples: make([]float64, 4096), cutoff: 0, sampleRate: 48000},
		{name: "cutoff at Nyquist", samples: make([]float64, 4096), cutoff: 50, sampleRate: 100},
		{name: "input shorter than padding", samples: make([]float64, 10), cutoff: 80, sampleRate: 48000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := HighpassFilter(tt.samples, tt.cutoff, tt.sampleRate); err == nil {
				t.Error("HighpassFilter did not return an error")
			}
		})
	}
}

func TestHighpassOrder(t *testing.T) {
	tests := []struct {
		name   string
		cutoff int
		want   int
	}{
		{name: "gentle slope at 40Hz", cutoff: 40, want: 2},
		{name: "boundary: exactly at 60Hz", cutoff: 60, want: 2},
		{name: "steeper slope at 80Hz", cutoff: 80, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := highpassOrder(tt.cutoff); got != tt.want {
				t.Errorf("highpassOrder(%d) = %d, want %d", tt.cutoff, got, tt.want)
			}
		})
	}
}

func TestButterworthHighpassSections(t *testing.T) {
	secondOrder := butterworthHighpass(80, 48000, 2)
	if len(secondOrder) != 1 {
		t.Fatalf("order 2 cascade has %d sections, want 1", len(secondOrder))
	}

	thirdOrder := butterworthHighpass(80, 48000, 3)
	if len(thirdOrder) != 2 {
		t.Fatalf("order 3 cascade has %d sections, want 2", len(thirdOrder))
	}
	if thirdOrder[0].b2 != 0 || thirdOrder[0].a2 != 0 {
		t.Error("odd-order cascade did not lead with a first-order section")
	}
	if thirdOrder[1].b2 == 0 {
		t.Error("pole pair section is missing its second-order terms")
	}

	// Every high-pass section must reject DC exactly.
	for _, s := range append(secondOrder, thirdOrder...) {
		if dc := s.b0 + s.b1 + s.b2; math.Abs(dc) > 1e-12 {
			t.Errorf("section DC gain numerator = %g, want 0", dc)
		}
	}
}
