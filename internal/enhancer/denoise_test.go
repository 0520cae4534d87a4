package enhancer

import (
	"bytes"
	"testing"
)

// stepFrame paints a hard vertical edge, black on the left half and
// white on the right.
func stepFrame(width, height int) *Frame {
	f := NewFrame(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var v byte
			if x >= width/2 {
				v = 255
			}
			i := (y*width + x) * 3
			f.Pix[i], f.Pix[i+1], f.Pix[i+2] = v, v, v
		}
	}
	return f
}

func TestDenoiseFrameValidation(t *testing.T) {
	tests := []struct {
		name     string
		frame    *Frame
		strength int
	}{
		{"nil frame", nil, 5},
		{"empty frame", &Frame{}, 5},
		{"zero strength", flatFrame(16, 16, 128, 128, 128), 0},
		{"boundary: strength just past the ceiling", flatFrame(16, 16, 128, 128, 128), denoiseMax + 1},
		{"frame smaller than the kernel", flatFrame(2, 2, 128, 128, 128), 5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DenoiseFrame(tc.frame, tc.strength); err == nil {
				t.Error("DenoiseFrame() succeeded, want error")
			}
		})
	}
}

func TestDenoiseFrameKeepsFlatAreas(t *testing.T) {
	f := flatFrame(32, 24, 90, 140, 200)
	out, err := DenoiseFrame(f, denoiseStrong)
	if err != nil {
		t.Fatalf("DenoiseFrame() error: %v", err)
	}
	if out.Width != f.Width || out.Height != f.Height {
		t.Fatalf("output %dx%d, want %dx%d", out.Width, out.Height, f.Width, f.Height)
	}
	if !bytes.Equal(out.Pix, f.Pix) {
		t.Error("flat frame changed by denoising")
	}
}

func TestDenoiseFramePreservesHardEdges(t *testing.T) {
	f := stepFrame(32, 24)
	out, err := DenoiseFrame(f, denoiseStrong)
	if err != nil {
		t.Fatalf("DenoiseFrame() error: %v", err)
	}
	// Pixels across the edge sit 765 distance units apart, so their
	// range weight vanishes and the edge survives byte for byte.
	if !bytes.Equal(out.Pix, f.Pix) {
		t.Error("hard edge blurred by denoising")
	}
}

func TestDenoiseFrameReducesNoise(t *testing.T) {
	noisy := noisyFrame(48, 36, 4)
	out, err := DenoiseFrame(noisy, denoiseStrong)
	if err != nil {
		t.Fatalf("DenoiseFrame() error: %v", err)
	}
	before := measureFrame(noisy).NoiseEstimate
	after := measureFrame(out).NoiseEstimate
	if before < 1.5 {
		t.Fatalf("fixture too clean to test with: noise %.2f", before)
	}
	if after > before/2 {
		t.Errorf("noise %.2f after denoising, want under half of %.2f", after, before)
	}
}

func TestDenoiseFrameStrengthOrdering(t *testing.T) {
	noisy := noisyFrame(48, 36, 4)
	gentle, err := DenoiseFrame(noisy, denoiseGentle)
	if err != nil {
		t.Fatalf("DenoiseFrame(gentle) error: %v", err)
	}
	strong, err := DenoiseFrame(noisy, denoiseStrong)
	if err != nil {
		t.Fatalf("DenoiseFrame(strong) error: %v", err)
	}
	left := measureFrame(gentle).NoiseEstimate
	right := measureFrame(strong).NoiseEstimate
	if right >= left {
		t.Errorf("noise %.2f at strength %d, %.2f at %d, want the stronger setting lower",
			left, denoiseGentle, right, denoiseStrong)
	}
}
