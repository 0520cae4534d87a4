// Package enhancer handles adaptive video analysis and correction
package enhancer

import (
	"image"
	"image/draw"
)

// Frame is one packed RGB24 image: Width*Height pixels in row-major
// order, three bytes per pixel.
type Frame struct {
	Pix    []byte
	Width  int
	Height int
}

// NewFrame allocates a zeroed frame.
func NewFrame(width, height int) *Frame {
	return &Frame{
		Pix:    make([]byte, width*height*3),
		Width:  width,
		Height: height,
	}
}

// Luma converts the frame to a BT.601 grayscale plane.
func (f *Frame) Luma() []float64 {
	out := make([]float64, f.Width*f.Height)
	for i := range out {
		p := f.Pix[i*3 : i*3+3]
		out[i] = (299*float64(p[0]) + 587*float64(p[1]) + 114*float64(p[2])) / 1000
	}
	return out
}

// toRGBA copies the frame into the image type the resampler consumes.
func (f *Frame) toRGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		src := f.Pix[y*f.Width*3:]
		dst := img.Pix[y*img.Stride:]
		for x := 0; x < f.Width; x++ {
			dst[x*4+0] = src[x*3+0]
			dst[x*4+1] = src[x*3+1]
			dst[x*4+2] = src[x*3+2]
			dst[x*4+3] = 0xff
		}
	}
	return img
}

// frameFromImage packs an image back into RGB24, dropping alpha.
func frameFromImage(img image.Image) *Frame {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(bounds)
		draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	}
	f := NewFrame(bounds.Dx(), bounds.Dy())
	for y := 0; y < f.Height; y++ {
		src := rgba.Pix[y*rgba.Stride:]
		dst := f.Pix[y*f.Width*3:]
		for x := 0; x < f.Width; x++ {
			dst[x*3+0] = src[x*4+0]
			dst[x*3+1] = src[x*4+1]
			dst[x*3+2] = src[x*4+2]
		}
	}
	return f
}

// clampByte rounds v to the nearest representable pixel value.
func clampByte(v float64) byte {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return byte(v + 0.5)
}
