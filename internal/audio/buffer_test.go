package audio

import (
	"math"
	"testing"
)

func TestAnalysisView(t *testing.T) {
	tests := []struct {
		name     string
		channels [][]float64
		want     []float64
	}{
		{
			name:     "mono returns copy of channel",
			channels: [][]float64{{0.1, -0.2, 0.3}},
			want:     []float64{0.1, -0.2, 0.3},
		},
		{
			name:     "stereo averages channels",
			channels: [][]float64{{0.2, 0.4}, {0.4, 0.0}},
			want:     []float64{0.3, 0.2},
		},
		{
			name:     "opposite channels cancel",
			channels: [][]float64{{0.5, -0.5}, {-0.5, 0.5}},
			want:     []float64{0.0, 0.0},
		},
		{
			name:     "empty buffer yields nil",
			channels: nil,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &Buffer{Channels: tt.channels, SampleRate: 48000}
			got := buf.AnalysisView()
			if len(got) != len(tt.want) {
				t.Fatalf("AnalysisView() length = %d, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if math.Abs(got[i]-tt.want[i]) > 1e-12 {
					t.Errorf("AnalysisView()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestAnalysisViewDoesNotAliasBuffer(t *testing.T) {
	buf := &Buffer{Channels: [][]float64{{0.1, 0.2}}, SampleRate: 48000}
	view := buf.AnalysisView()
	view[0] = 0.9
	if buf.Channels[0][0] != 0.1 {
		t.Errorf("mutating the view changed the buffer: got %v, want 0.1", buf.Channels[0][0])
	}
}

func TestPeak(t *testing.T) {
	tests := []struct {
		name     string
		channels [][]float64
		want     float64
	}{
		{
			name:     "positive peak",
			channels: [][]float64{{0.1, 0.7, 0.3}},
			want:     0.7,
		},
		{
			name:     "negative excursion dominates",
			channels: [][]float64{{0.1, -0.9}, {0.2, 0.4}},
			want:     0.9,
		},
		{
			name:     "silent buffer",
			channels: [][]float64{{0, 0, 0}},
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &Buffer{Channels: tt.channels}
			if got := buf.Peak(); got != tt.want {
				t.Errorf("Peak() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRestoreChannels(t *testing.T) {
	t.Run("mono duplicated to stereo", func(t *testing.T) {
		buf := &Buffer{Channels: [][]float64{{0.1, 0.2, 0.3}}, SampleRate: 44100}
		buf.RestoreChannels(2)
		if buf.NumChannels() != 2 {
			t.Fatalf("NumChannels() = %d, want 2", buf.NumChannels())
		}
		for i := range buf.Channels[0] {
			if buf.Channels[0][i] != buf.Channels[1][i] {
				t.Errorf("channel mismatch at %d: %v != %v", i, buf.Channels[0][i], buf.Channels[1][i])
			}
		}
	})

	t.Run("stereo left unchanged", func(t *testing.T) {
		buf := &Buffer{Channels: [][]float64{{0.1}, {0.2}}, SampleRate: 44100}
		buf.RestoreChannels(2)
		if buf.NumChannels() != 2 {
			t.Errorf("NumChannels() = %d, want 2", buf.NumChannels())
		}
		if buf.Channels[1][0] != 0.2 {
			t.Errorf("right channel = %v, want 0.2", buf.Channels[1][0])
		}
	})

	t.Run("restored channels do not alias", func(t *testing.T) {
		buf := &Buffer{Channels: [][]float64{{0.5}}, SampleRate: 44100}
		buf.RestoreChannels(2)
		buf.Channels[1][0] = 0.0
		if buf.Channels[0][0] != 0.5 {
			t.Errorf("duplicated channel aliases the source")
		}
	})
}

func TestDuration(t *testing.T) {
	buf := &Buffer{Channels: [][]float64{make([]float64, 48000)}, SampleRate: 48000}
	if got := buf.Duration(); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("Duration() = %v, want 1.0", got)
	}
}
