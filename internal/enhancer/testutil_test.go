package enhancer

import "io"

// fakeSource serves canned frames through the FrameSource contract.
type fakeSource struct {
	frames [][]byte
	pos    int
	reads  int
}

func (s *fakeSource) ReadFrame(dst []byte) error {
	if s.pos >= len(s.frames) {
		return io.EOF
	}
	copy(dst, s.frames[s.pos])
	s.pos++
	s.reads++
	return nil
}

func (s *fakeSource) Seek(index int) error {
	s.pos = index
	return nil
}

func (s *fakeSource) Reset() error {
	s.pos = 0
	return nil
}

// flatFrame fills a frame with a single colour.
func flatFrame(width, height int, r, g, b byte) *Frame {
	f := NewFrame(width, height)
	for i := 0; i < len(f.Pix); i += 3 {
		f.Pix[i], f.Pix[i+1], f.Pix[i+2] = r, g, b
	}
	return f
}

// gradientFrame ramps grey horizontally across the full pixel range.
func gradientFrame(width, height int) *Frame {
	f := NewFrame(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := byte(x * 255 / (width - 1))
			i := (y*width + x) * 3
			f.Pix[i], f.Pix[i+1], f.Pix[i+2] = v, v, v
		}
	}
	return f
}

// checkerFrame alternates black and white per pixel, the sharpest
// picture the pixel grid can hold.
func checkerFrame(width, height int) *Frame {
	f := NewFrame(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var v byte
			if (x+y)%2 == 0 {
				v = 255
			}
			i := (y*width + x) * 3
			f.Pix[i], f.Pix[i+1], f.Pix[i+2] = v, v, v
		}
	}
	return f
}

// noisyFrame adds deterministic pseudo-noise of the given amplitude to
// a mid-grey frame.
func noisyFrame(width, height int, amp int) *Frame {
	f := NewFrame(width, height)
	seed := uint32(1)
	for i := 0; i < len(f.Pix); i += 3 {
		seed = seed*1664525 + 1013904223
		v := byte(128 + int(seed>>16)%(2*amp+1) - amp)
		f.Pix[i], f.Pix[i+1], f.Pix[i+2] = v, v, v
	}
	return f
}

// softEdgeFrame holds a blurred vertical step: dark on the left, light
// on the right, with a gentle ramp between.
func softEdgeFrame(width, height int) *Frame {
	f := NewFrame(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var v byte
			switch {
			case x < width/2-3:
				v = 30
			case x > width/2+3:
				v = 220
			default:
				v = byte(30 + (x-(width/2-3))*190/6)
			}
			i := (y*width + x) * 3
			f.Pix[i], f.Pix[i+1], f.Pix[i+2] = v, v, v
		}
	}
	return f
}
