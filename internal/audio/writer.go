package audio

import (
	"errors"
	"fmt"
	"math"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Output bit depth is fixed: enhanced files are always written as 24-bit
// PCM regardless of the source depth.
const outputBitDepth = 24

// WriteFile encodes the buffer as a 24-bit PCM WAV file at the buffer's
// sample rate. A partially written file is removed on any encode error so
// failures never leave a truncated output behind.
func WriteFile(path string, buf *Buffer) error {
	if buf == nil || buf.NumChannels() == 0 || buf.Frames() == 0 {
		return errors.New("no audio data to write")
	}
	if buf.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", buf.SampleRate)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := encodeTo(f, buf); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}

// encodeTo interleaves, quantises and writes the buffer through the WAV
// encoder.
func encodeTo(f *os.File, buf *Buffer) error {
	channels := buf.NumChannels()
	frames := buf.Frames()

	data := make([]int, frames*channels)
	for c, ch := range buf.Channels {
		for i, s := range ch {
			data[i*channels+c] = quantise24(s)
		}
	}

	enc := wav.NewEncoder(f, buf.SampleRate, outputBitDepth, channels, 1)
	pcm := &gaudio.IntBuffer{
		Data: data,
		Format: &gaudio.Format{
			NumChannels: channels,
			SampleRate:  buf.SampleRate,
		},
		SourceBitDepth: outputBitDepth,
	}
	if err := enc.Write(pcm); err != nil {
		enc.Close()
		return fmt.Errorf("failed to write PCM data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalise WAV encoder: %w", err)
	}
	return nil
}

// quantise24 converts a normalised sample to a 24-bit integer with
// saturation at full scale.
func quantise24(s float64) int {
	const fullScale = 1 << 23
	v := int(math.Round(s * fullScale))
	if v > fullScale-1 {
		return fullScale - 1
	}
	if v < -fullScale {
		return -fullScale
	}
	return v
}
