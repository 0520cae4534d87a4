// Package enhancer handles adaptive video analysis and correction
package enhancer

import (
	"errors"
	"fmt"
	"math"
)

// unsharpSigma is the blur width the detail mask is built from.
const unsharpSigma = 2.0

// SharpenFrame applies an unsharp mask: the frame minus its Gaussian
// blur is the detail layer, and amount controls how much of it is added
// back on top.
func SharpenFrame(f *Frame, amount float64) (*Frame, error) {
	if f == nil || len(f.Pix) == 0 {
		return nil, errors.New("no frame to sharpen")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("sharpen amount %g out of range", amount)
	}

	kernel := gaussianKernel(unsharpSigma)
	radius := len(kernel) / 2
	if f.Width <= radius || f.Height <= radius {
		return nil, fmt.Errorf("frame %dx%d too small to sharpen", f.Width, f.Height)
	}

	planes := splitChannels(f)
	for c := range planes {
		plane := planes[c]
		blurred := blurPlane(plane, f.Width, f.Height, kernel)
		for i := range plane {
			plane[i] = (1+amount)*plane[i] - amount*blurred[i]
		}
	}
	return mergeChannels(f.Width, f.Height, planes), nil
}

// splitChannels unpacks the frame into one float plane per channel.
func splitChannels(f *Frame) [3][]float64 {
	n := f.Width * f.Height
	var planes [3][]float64
	for c := range planes {
		planes[c] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		planes[0][i] = float64(f.Pix[i*3])
		planes[1][i] = float64(f.Pix[i*3+1])
		planes[2][i] = float64(f.Pix[i*3+2])
	}
	return planes
}

// mergeChannels packs float planes back into an RGB24 frame, clamping
// to the pixel range.
func mergeChannels(width, height int, planes [3][]float64) *Frame {
	f := NewFrame(width, height)
	for i := 0; i < width*height; i++ {
		f.Pix[i*3] = clampByte(planes[0][i])
		f.Pix[i*3+1] = clampByte(planes[1][i])
		f.Pix[i*3+2] = clampByte(planes[2][i])
	}
	return f
}

// gaussianKernel builds a normalised 1D kernel wide enough to cover
// three standard deviations each side.
func gaussianKernel(sigma float64) []float64 {
	radius := int(math.Round(3 * sigma))
	if radius < 1 {
		radius = 1
	}
	kernel := make([]float64, 2*radius+1)
	var sum float64
	for i := range kernel {
		d := float64(i - radius)
		kernel[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}
