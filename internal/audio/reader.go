package audio

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// Metadata contains audio file metadata captured at decode time.
type Metadata struct {
	Duration   float64 // seconds
	SampleRate int
	Channels   int
	BitDepth   int
}

// ReadFile decodes a WAV file into a float64 buffer, one slice per
// channel, samples normalised by the source bit depth.
func ReadFile(path string) (*Buffer, *Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, nil, fmt.Errorf("not a valid WAV file: %s", path)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read PCM data: %w", err)
	}
	if pcm.Format == nil || pcm.Format.NumChannels <= 0 {
		return nil, nil, fmt.Errorf("missing format information in file: %s", path)
	}
	if len(pcm.Data) == 0 {
		return nil, nil, errors.New("no audio samples in file")
	}

	channels := pcm.Format.NumChannels
	bitDepth := int(pcm.SourceBitDepth)
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := 1.0 / float64(int(1)<<(bitDepth-1))

	// Deinterleave into per-channel normalised float64 slices. A trailing
	// partial frame (truncated file) is dropped.
	frames := len(pcm.Data) / channels
	buf := &Buffer{
		Channels:   make([][]float64, channels),
		SampleRate: pcm.Format.SampleRate,
	}
	for c := 0; c < channels; c++ {
		buf.Channels[c] = make([]float64, frames)
	}
	for i := 0; i < frames; i++ {
		base := i * channels
		for c := 0; c < channels; c++ {
			buf.Channels[c][i] = float64(pcm.Data[base+c]) * scale
		}
	}

	meta := &Metadata{
		Duration:   buf.Duration(),
		SampleRate: buf.SampleRate,
		Channels:   channels,
		BitDepth:   bitDepth,
	}
	return buf, meta, nil
}
