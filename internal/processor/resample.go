// Package processor handles adaptive audio analysis and correction
package processor

import (
	"fmt"

	resampler "github.com/tphakala/go-audio-resampler"

	"github.com/linuxmatters/remaster/internal/audio"
)

// Resample converts the buffer to the target sample rate in place. A
// buffer already at the target rate is left untouched. Stereo pairs are
// converted together so both channels share one band-limited response.
func Resample(buf *audio.Buffer, targetRate int) error {
	if targetRate <= 0 {
		return fmt.Errorf("invalid target sample rate %d", targetRate)
	}
	if buf.SampleRate == targetRate {
		return nil
	}

	switch buf.NumChannels() {
	case 1:
		out, err := resampler.ResampleMono(buf.Channels[0], float64(buf.SampleRate), float64(targetRate), resampler.QualityHigh)
		if err != nil {
			return fmt.Errorf("resampling mono: %w", err)
		}
		buf.Channels[0] = out
	case 2:
		left, right, err := resampler.ResampleStereo(buf.Channels[0], buf.Channels[1], float64(buf.SampleRate), float64(targetRate), resampler.QualityHigh)
		if err != nil {
			return fmt.Errorf("resampling stereo: %w", err)
		}
		buf.Channels[0], buf.Channels[1] = left, right
	default:
		for i, ch := range buf.Channels {
			out, err := resampler.ResampleMono(ch, float64(buf.SampleRate), float64(targetRate), resampler.QualityHigh)
			if err != nil {
				return fmt.Errorf("resampling channel %d: %w", i, err)
			}
			buf.Channels[i] = out
		}
	}
	buf.SampleRate = targetRate
	return nil
}
