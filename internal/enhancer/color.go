// Package enhancer handles adaptive video analysis and correction
package enhancer

import "math"

// saturationBoost is the factor colour is lifted by when the saturation
// step is armed.
const saturationBoost = 1.2

// AdjustTone applies the affine map out = gain*in + shift to every
// channel, saturating at the pixel range bounds. The frame is modified
// in place.
func AdjustTone(f *Frame, gain float64, shift int) {
	// One table covers every input value.
	var table [256]byte
	for v := range table {
		table[v] = clampByte(gain*float64(v) + float64(shift))
	}
	for i, p := range f.Pix {
		f.Pix[i] = table[p]
	}
}

// BoostSaturation scales the HSV saturation of every pixel, leaving hue
// and value untouched. The frame is modified in place.
func BoostSaturation(f *Frame, factor float64) {
	for i := 0; i < len(f.Pix); i += 3 {
		h, s, v := rgbToHSV(f.Pix[i], f.Pix[i+1], f.Pix[i+2])
		s = math.Min(s*factor, 1.0)
		f.Pix[i], f.Pix[i+1], f.Pix[i+2] = hsvToRGB(h, s, v)
	}
}

// rgbToHSV converts to hue in degrees and saturation and value in
// [0, 1].
func rgbToHSV(r, g, b byte) (h, s, v float64) {
	rf := float64(r) / 255
	gf := float64(g) / 255
	bf := float64(b) / 255
	max := math.Max(rf, math.Max(gf, bf))
	min := math.Min(rf, math.Min(gf, bf))
	v = max
	delta := max - min
	if delta == 0 {
		return 0, 0, v
	}
	s = delta / max

	switch max {
	case rf:
		h = 60 * math.Mod((gf-bf)/delta, 6)
	case gf:
		h = 60 * ((bf-rf)/delta + 2)
	default:
		h = 60 * ((rf-gf)/delta + 4)
	}
	if h < 0 {
		h += 360
	}
	return h, s, v
}

// hsvToRGB is the inverse of rgbToHSV.
func hsvToRGB(h, s, v float64) (byte, byte, byte) {
	c := v * s
	hp := h / 60
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))

	var rf, gf, bf float64
	switch {
	case hp < 1:
		rf, gf, bf = c, x, 0
	case hp < 2:
		rf, gf, bf = x, c, 0
	case hp < 3:
		rf, gf, bf = 0, c, x
	case hp < 4:
		rf, gf, bf = 0, x, c
	case hp < 5:
		rf, gf, bf = x, 0, c
	default:
		rf, gf, bf = c, 0, x
	}
	m := v - c
	return clampByte((rf + m) * 255), clampByte((gf + m) * 255), clampByte((bf + m) * 255)
}
