// Package audio provides WAV file I/O and the sample buffer model shared
// by the analysis and correction stages.
package audio

// Buffer holds decoded audio as one float64 slice per channel, all of
// equal length, with samples normalised to [-1, 1).
type Buffer struct {
	Channels   [][]float64
	SampleRate int
}

// NumChannels returns the channel count.
func (b *Buffer) NumChannels() int {
	return len(b.Channels)
}

// Frames returns the per-channel sample count.
func (b *Buffer) Frames() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Peak returns the absolute maximum sample value across all channels.
func (b *Buffer) Peak() float64 {
	peak := 0.0
	for _, ch := range b.Channels {
		for _, s := range ch {
			if s < 0 {
				s = -s
			}
			if s > peak {
				peak = s
			}
		}
	}
	return peak
}

// AnalysisView returns a mono reduction (per-frame mean across channels)
// for metric computation. The view is a fresh slice; mutating it never
// touches the buffer. A mono buffer returns a copy of its only channel.
func (b *Buffer) AnalysisView() []float64 {
	frames := b.Frames()
	if frames == 0 {
		return nil
	}
	view := make([]float64, frames)
	if len(b.Channels) == 1 {
		copy(view, b.Channels[0])
		return view
	}
	scale := 1.0 / float64(len(b.Channels))
	for _, ch := range b.Channels {
		for i, s := range ch {
			view[i] += s * scale
		}
	}
	return view
}

// RestoreChannels duplicates a mono buffer across the given channel count.
// Used when intermediate processing collapsed a multi-channel source to
// mono; no stereo image is synthesised. Buffers already at the target
// count (or with no samples) are returned unchanged.
func (b *Buffer) RestoreChannels(count int) {
	if count <= 1 || len(b.Channels) != 1 || b.Frames() == 0 {
		return
	}
	mono := b.Channels[0]
	restored := make([][]float64, count)
	restored[0] = mono
	for c := 1; c < count; c++ {
		dup := make([]float64, len(mono))
		copy(dup, mono)
		restored[c] = dup
	}
	b.Channels = restored
}
