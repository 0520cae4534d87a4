// Package enhancer handles adaptive video analysis and correction
package enhancer

import (
	"errors"
	"fmt"
	"math"
)

// Bilateral filter geometry. The spatial kernel is fixed; only the
// range width follows the derived strength.
const (
	bilateralRadius       = 2   // 5x5 neighbourhood
	bilateralSpatialSigma = 2.0 // pixels
)

// DenoiseFrame smooths the frame with a bilateral filter: each pixel
// becomes a weighted mean of its neighbourhood, where neighbours that
// differ strongly in colour contribute little. Flat areas lose grain
// while edges keep their contrast. strength is the range width in grey
// levels.
func DenoiseFrame(f *Frame, strength int) (*Frame, error) {
	if f == nil || len(f.Pix) == 0 {
		return nil, errors.New("no frame to denoise")
	}
	if strength <= 0 || strength > denoiseMax {
		return nil, fmt.Errorf("denoise strength %d out of range", strength)
	}
	if f.Width <= bilateralRadius || f.Height <= bilateralRadius {
		return nil, fmt.Errorf("frame %dx%d too small to denoise", f.Width, f.Height)
	}

	// Spatial weights depend only on the offset and colour weights only
	// on the summed channel difference, so both are table lookups.
	var spatial [2*bilateralRadius + 1][2*bilateralRadius + 1]float64
	for dy := -bilateralRadius; dy <= bilateralRadius; dy++ {
		for dx := -bilateralRadius; dx <= bilateralRadius; dx++ {
			d2 := float64(dx*dx + dy*dy)
			spatial[dy+bilateralRadius][dx+bilateralRadius] = math.Exp(-d2 / (2 * bilateralSpatialSigma * bilateralSpatialSigma))
		}
	}
	rangeSigma := float64(strength)
	colorWeight := make([]float64, 3*255+1)
	for d := range colorWeight {
		colorWeight[d] = math.Exp(-float64(d*d) / (2 * rangeSigma * rangeSigma))
	}

	out := NewFrame(f.Width, f.Height)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			ci := (y*f.Width + x) * 3
			cr := int(f.Pix[ci])
			cg := int(f.Pix[ci+1])
			cb := int(f.Pix[ci+2])

			var sumR, sumG, sumB, sumW float64
			for dy := -bilateralRadius; dy <= bilateralRadius; dy++ {
				ny := reflectIndex(y+dy, f.Height)
				for dx := -bilateralRadius; dx <= bilateralRadius; dx++ {
					nx := reflectIndex(x+dx, f.Width)
					ni := (ny*f.Width + nx) * 3
					nr := int(f.Pix[ni])
					ng := int(f.Pix[ni+1])
					nb := int(f.Pix[ni+2])

					dist := absInt(nr-cr) + absInt(ng-cg) + absInt(nb-cb)
					w := spatial[dy+bilateralRadius][dx+bilateralRadius] * colorWeight[dist]
					sumR += w * float64(nr)
					sumG += w * float64(ng)
					sumB += w * float64(nb)
					sumW += w
				}
			}
			out.Pix[ci] = clampByte(sumR / sumW)
			out.Pix[ci+1] = clampByte(sumG / sumW)
			out.Pix[ci+2] = clampByte(sumB / sumW)
		}
	}
	return out, nil
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
