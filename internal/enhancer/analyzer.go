// Package enhancer handles adaptive video analysis and correction
package enhancer

import (
	"errors"
	"fmt"
	"io"

	"gonum.org/v1/gonum/stat"

	"github.com/linuxmatters/remaster/internal/video"
)

// Analysis constants.
const (
	maxSampleFrames = 20   // frames measured per file
	assumedFPS      = 30.0 // stand-in when the container reports no rate
)

// FrameSource is the slice of the video decoder the analyzer needs: a
// sequential frame stream that can seek forward and rewind.
type FrameSource interface {
	ReadFrame(dst []byte) error
	Seek(index int) error
	Reset() error
}

// FrameMetrics holds the measurements taken from a single frame. All of
// them work on the BT.601 luma plane.
type FrameMetrics struct {
	Brightness    float64 // mean luma, 0-255
	Contrast      float64 // luma standard deviation
	Sharpness     float64 // variance of the Laplacian edge response
	NoiseEstimate float64 // deviation of the centre crop from its blur
}

// QualitySnapshot averages FrameMetrics over the sampled frames and
// carries the resolved stream geometry. FPS and FrameCount are reliable
// here even when the container misreported them.
type QualitySnapshot struct {
	Width      int
	Height     int
	FPS        float64
	FrameCount int
	Duration   float64 // seconds

	Brightness    float64
	Contrast      float64
	Sharpness     float64
	NoiseEstimate float64
}

// Analyze measures video quality on a bounded, evenly spread sample of
// frames. src must be positioned at its first frame; it is rewound
// before returning so the caller can replay it from the start.
func Analyze(src FrameSource, meta *video.Metadata) (*QualitySnapshot, error) {
	if meta == nil || meta.Width <= 0 || meta.Height <= 0 {
		return nil, errors.New("no video loaded")
	}

	frameCount := meta.FrameCount
	fps := meta.FPS
	if frameCount <= 0 || fps <= 0 {
		// The container lied or stayed silent. Counting by decoding is
		// slow but the only reliable answer.
		n, err := countFrames(src, meta.Width, meta.Height)
		if err != nil {
			return nil, fmt.Errorf("counting frames: %w", err)
		}
		frameCount = n
		if fps <= 0 {
			fps = assumedFPS
		}
		if err := src.Reset(); err != nil {
			return nil, fmt.Errorf("rewinding video: %w", err)
		}
	}
	if frameCount <= 0 {
		return nil, errors.New("no frames found in video")
	}

	frame := NewFrame(meta.Width, meta.Height)
	var metrics []FrameMetrics
	for _, idx := range sampleIndices(frameCount, maxSampleFrames) {
		if err := src.Seek(idx); err != nil {
			continue
		}
		if err := src.ReadFrame(frame.Pix); err != nil {
			continue
		}
		metrics = append(metrics, measureFrame(frame))
	}
	if len(metrics) == 0 {
		return nil, errors.New("no frames could be sampled")
	}

	brightness := make([]float64, len(metrics))
	contrast := make([]float64, len(metrics))
	sharpness := make([]float64, len(metrics))
	noise := make([]float64, len(metrics))
	for i, m := range metrics {
		brightness[i] = m.Brightness
		contrast[i] = m.Contrast
		sharpness[i] = m.Sharpness
		noise[i] = m.NoiseEstimate
	}

	if err := src.Reset(); err != nil {
		return nil, fmt.Errorf("rewinding video: %w", err)
	}

	return &QualitySnapshot{
		Width:         meta.Width,
		Height:        meta.Height,
		FPS:           fps,
		FrameCount:    frameCount,
		Duration:      float64(frameCount) / fps,
		Brightness:    stat.Mean(brightness, nil),
		Contrast:      stat.Mean(contrast, nil),
		Sharpness:     stat.Mean(sharpness, nil),
		NoiseEstimate: stat.Mean(noise, nil),
	}, nil
}

// countFrames decodes from the current position to the end of the
// stream to establish its true length.
func countFrames(src FrameSource, width, height int) (int, error) {
	buf := make([]byte, width*height*3)
	n := 0
	for {
		err := src.ReadFrame(buf)
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
	}
}

// sampleIndices spreads up to limit indices evenly across the frame
// range, always landing on the first and last frame.
func sampleIndices(frameCount, limit int) []int {
	samples := limit
	if samples > frameCount {
		samples = frameCount
	}
	if samples <= 1 {
		return []int{0}
	}
	step := float64(frameCount-1) / float64(samples-1)
	idx := make([]int, samples)
	for i := range idx {
		idx[i] = int(float64(i) * step)
	}
	// Floating point drift must not drop the final frame.
	idx[samples-1] = frameCount - 1
	return idx
}

// measureFrame computes all per-frame quality metrics.
func measureFrame(f *Frame) FrameMetrics {
	gray := f.Luma()
	return FrameMetrics{
		Brightness:    stat.Mean(gray, nil),
		Contrast:      stat.PopStdDev(gray, nil),
		Sharpness:     laplacianVariance(gray, f.Width, f.Height),
		NoiseEstimate: estimateNoise(gray, f.Width, f.Height),
	}
}

// laplacianVariance scores focus as the variance of the second
// derivative of the luma plane: crisp edges swing the response hard in
// both directions while blur flattens it.
func laplacianVariance(gray []float64, width, height int) float64 {
	if width < 2 || height < 2 {
		return 0
	}
	resp := make([]float64, len(gray))
	for y := 0; y < height; y++ {
		up := reflectIndex(y-1, height) * width
		row := y * width
		down := reflectIndex(y+1, height) * width
		for x := 0; x < width; x++ {
			left := row + reflectIndex(x-1, width)
			right := row + reflectIndex(x+1, width)
			resp[row+x] = gray[up+x] + gray[down+x] + gray[left] + gray[right] - 4*gray[row+x]
		}
	}
	return stat.PopVariance(resp, nil)
}

// gaussian5 is the fixed 5-tap binomial blur kernel.
var gaussian5 = [5]float64{1.0 / 16, 4.0 / 16, 6.0 / 16, 4.0 / 16, 1.0 / 16}

// estimateNoise isolates sensor noise as what a light blur removes from
// the centre of the frame. The border quarter is left out so edge
// artefacts and letterboxing do not inflate the estimate.
func estimateNoise(gray []float64, width, height int) float64 {
	x0, x1 := width/4, 3*width/4
	y0, y1 := height/4, 3*height/4
	cw, ch := x1-x0, y1-y0
	if cw < len(gaussian5) || ch < len(gaussian5) {
		return 0
	}

	crop := make([]float64, cw*ch)
	for y := 0; y < ch; y++ {
		copy(crop[y*cw:(y+1)*cw], gray[(y0+y)*width+x0:(y0+y)*width+x1])
	}

	blurred := blurPlane(crop, cw, ch, gaussian5[:])
	diff := make([]float64, len(crop))
	for i := range crop {
		diff[i] = crop[i] - blurred[i]
	}
	return stat.PopStdDev(diff, nil)
}

// blurPlane runs a separable convolution over one float plane with
// mirrored borders.
func blurPlane(plane []float64, width, height int, kernel []float64) []float64 {
	radius := len(kernel) / 2
	tmp := make([]float64, len(plane))
	out := make([]float64, len(plane))

	for y := 0; y < height; y++ {
		row := plane[y*width : (y+1)*width]
		dst := tmp[y*width : (y+1)*width]
		for x := 0; x < width; x++ {
			var sum float64
			for k, w := range kernel {
				sum += w * row[reflectIndex(x+k-radius, width)]
			}
			dst[x] = sum
		}
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var sum float64
			for k, w := range kernel {
				sum += w * tmp[reflectIndex(y+k-radius, height)*width+x]
			}
			out[y*width+x] = sum
		}
	}
	return out
}

// reflectIndex mirrors an out-of-range index back into [0, n) without
// repeating the border sample.
func reflectIndex(i, n int) int {
	if i < 0 {
		return -i
	}
	if i >= n {
		return 2*n - 2 - i
	}
	return i
}
