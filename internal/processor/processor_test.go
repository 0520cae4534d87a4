package processor

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/linuxmatters/remaster/internal/audio"
)

// writeTestWAV saves a synthetic buffer for pipeline tests and returns
// its path.
func writeTestWAV(t *testing.T, dir, name string, buf *audio.Buffer) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := audio.WriteFile(path, buf); err != nil {
		t.Fatalf("writing test input: %v", err)
	}
	return path
}

// gappedTone builds a tone followed by an equal stretch of silence, the
// shape of a clean voice recording with a pause.
func gappedTone(amp float64, sampleRate int) *audio.Buffer {
	samples := sineWave(440, sampleRate, sampleRate, amp)
	for i := len(samples) / 2; i < len(samples); i++ {
		samples[i] = 0
	}
	return monoBuffer(samples, sampleRate)
}

func TestProcessAudio(t *testing.T) {
	dir := t.TempDir()
	input := writeTestWAV(t, dir, "take.wav", gappedTone(0.3, 48000))

	var stages []StageID
	result, err := ProcessAudio(input, &Options{OutputDir: dir}, func(stage StageID, applied bool) {
		stages = append(stages, stage)
	})
	if err != nil {
		t.Fatalf("ProcessAudio failed: %v", err)
	}

	if want := filepath.Join(dir, "take-enhanced.wav"); result.OutputPath != want {
		t.Errorf("OutputPath = %q, want %q", result.OutputPath, want)
	}
	if _, err := os.Stat(result.OutputPath); err != nil {
		t.Fatalf("output file missing: %v", err)
	}

	// Clean quiet input: no noise reduction, no rumble filter, routine
	// normalization to 0.8.
	if result.Params.NoiseReduction != 0 {
		t.Errorf("NoiseReduction = %v, want 0", result.Params.NoiseReduction)
	}
	if result.Params.HighpassCutoff != 0 {
		t.Errorf("HighpassCutoff = %v, want 0", result.Params.HighpassCutoff)
	}
	if result.Params.NeedsProcessing {
		t.Error("NeedsProcessing = true, want false for a clean recording")
	}
	if len(result.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", result.Warnings)
	}

	// The corrected audio is remeasured so the result shows what the
	// chain achieved.
	if result.Output == nil {
		t.Fatal("Output snapshot missing")
	}
	if math.Abs(result.Output.Peak-0.8) > 0.001 {
		t.Errorf("Output.Peak = %.4f, want 0.8", result.Output.Peak)
	}

	// Every stage reports exactly once, in chain order.
	if len(stages) != len(CorrectionOrder) {
		t.Fatalf("notified %d stages, want %d", len(stages), len(CorrectionOrder))
	}
	for i, stage := range CorrectionOrder {
		if stages[i] != stage {
			t.Errorf("stage %d = %s, want %s", i, stages[i], stage)
		}
	}

	out, meta, err := audio.ReadFile(result.OutputPath)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if meta.SampleRate != 48000 {
		t.Errorf("output sample rate = %d, want 48000", meta.SampleRate)
	}
	if got := out.Peak(); math.Abs(got-0.8) > 0.001 {
		t.Errorf("output peak = %.4f, want 0.8", got)
	}
}

// The output peak must land on the derived target across the quiet,
// moderate, and healthy volume bands.
func TestProcessAudioNormalizesToTarget(t *testing.T) {
	tests := []struct {
		name       string
		amp        float64
		wantTarget float64
	}{
		{name: "very quiet input", amp: 0.1, wantTarget: 0.8},
		{name: "moderate input", amp: 0.3, wantTarget: 0.8},
		{name: "healthy input", amp: 0.7, wantTarget: 0.85},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			input := writeTestWAV(t, dir, "level.wav", gappedTone(tt.amp, 48000))

			result, err := ProcessAudio(input, &Options{OutputDir: dir}, nil)
			if err != nil {
				t.Fatalf("ProcessAudio failed: %v", err)
			}
			if math.Abs(result.Params.NormalizationTarget-tt.wantTarget) > 1e-9 {
				t.Fatalf("NormalizationTarget = %.2f, want %.2f",
					result.Params.NormalizationTarget, tt.wantTarget)
			}

			out, _, err := audio.ReadFile(result.OutputPath)
			if err != nil {
				t.Fatalf("reading output: %v", err)
			}
			if got := out.Peak(); math.Abs(got-tt.wantTarget) > 0.001 {
				t.Errorf("output peak = %.4f, want %.2f", got, tt.wantTarget)
			}
		})
	}
}

func TestProcessAudioClippedSource(t *testing.T) {
	dir := t.TempDir()
	input := writeTestWAV(t, dir, "hot.wav", gappedTone(0.999, 48000))

	result, err := ProcessAudio(input, &Options{OutputDir: dir}, nil)
	if err != nil {
		t.Fatalf("ProcessAudio failed: %v", err)
	}

	if !result.Params.NeedsLimiting {
		t.Error("NeedsLimiting = false, want true for a clipped source")
	}
	if math.Abs(result.Params.NormalizationTarget-0.75) > 1e-9 {
		t.Errorf("NormalizationTarget = %.2f, want 0.75", result.Params.NormalizationTarget)
	}

	out, _, err := audio.ReadFile(result.OutputPath)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	ceiling := DbToLinear(limiterThresholdDB)
	if got := out.Peak(); got > ceiling+0.001 {
		t.Errorf("output peak = %.4f, want at most the %.4f ceiling", got, ceiling)
	}
}

func TestProcessAudioResamples(t *testing.T) {
	dir := t.TempDir()
	input := writeTestWAV(t, dir, "cd.wav", gappedTone(0.3, 44100))

	result, err := ProcessAudio(input, &Options{OutputDir: dir, TargetSampleRate: 48000}, nil)
	if err != nil {
		t.Fatalf("ProcessAudio failed: %v", err)
	}
	if result.InputRate != 44100 {
		t.Errorf("InputRate = %d, want 44100", result.InputRate)
	}
	if result.OutputRate != 48000 {
		t.Errorf("OutputRate = %d, want 48000", result.OutputRate)
	}

	out, meta, err := audio.ReadFile(result.OutputPath)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if meta.SampleRate != 48000 {
		t.Errorf("output sample rate = %d, want 48000", meta.SampleRate)
	}

	// Duration carries over within a fraction of a percent.
	wantFrames := 48000
	if got := out.Frames(); math.Abs(float64(got-wantFrames)) > float64(wantFrames)/200 {
		t.Errorf("output frames = %d, want about %d", got, wantFrames)
	}
}

func TestProcessAudioPreservesStereo(t *testing.T) {
	dir := t.TempDir()

	left := sineWave(440, 48000, 48000, 0.3)
	right := sineWave(550, 48000, 48000, 0.25)
	for i := 24000; i < 48000; i++ {
		left[i], right[i] = 0, 0
	}
	buf := &audio.Buffer{Channels: [][]float64{left, right}, SampleRate: 48000}
	input := writeTestWAV(t, dir, "stereo.wav", buf)

	result, err := ProcessAudio(input, &Options{OutputDir: dir}, nil)
	if err != nil {
		t.Fatalf("ProcessAudio failed: %v", err)
	}
	if result.Channels != 2 {
		t.Errorf("Channels = %d, want 2", result.Channels)
	}

	out, _, err := audio.ReadFile(result.OutputPath)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if out.NumChannels() != 2 {
		t.Fatalf("output has %d channels, want 2", out.NumChannels())
	}

	// The two channels carry different tones, so correction must not have
	// collapsed them into one.
	diff := 0.0
	for i := range out.Channels[0] {
		diff += math.Abs(out.Channels[0][i] - out.Channels[1][i])
	}
	if diff == 0 {
		t.Error("stereo channels are identical, want distinct tones preserved")
	}
}

func TestProcessAudioMissingInput(t *testing.T) {
	_, err := ProcessAudio(filepath.Join(t.TempDir(), "absent.wav"), nil, nil)
	if err == nil {
		t.Fatal("ProcessAudio did not return an error for a missing input")
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		outputDir string
		suffix    string
		want      string
	}{
		{
			name:  "next to the input",
			input: filepath.Join("takes", "ep12.wav"),
			want:  filepath.Join("takes", "ep12-enhanced.wav"),
		},
		{
			name:      "redirected to an output directory",
			input:     filepath.Join("takes", "ep12.wav"),
			outputDir: "out",
			want:      filepath.Join("out", "ep12-enhanced.wav"),
		},
		{
			name:  "extension always becomes wav",
			input: "session.flac",
			want:  "session-enhanced.wav",
		},
		{
			name:   "custom suffix",
			input:  "session.wav",
			suffix: "-mastered",
			want:   "session-mastered.wav",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OutputPath(tt.input, tt.outputDir, tt.suffix); got != tt.want {
				t.Errorf("OutputPath = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStageRunnersCoverOrder(t *testing.T) {
	for _, stage := range CorrectionOrder {
		if stageRunners[stage] == nil {
			t.Errorf("no runner registered for stage %s", stage)
		}
	}
}

func TestMapChannels(t *testing.T) {
	double := func(ch []float64) ([]float64, error) {
		out := make([]float64, len(ch))
		for i, v := range ch {
			out[i] = 2 * v
		}
		return out, nil
	}

	buf := &audio.Buffer{
		Channels:   [][]float64{{1, 2, 3}, {4, 5, 6}},
		SampleRate: 48000,
	}

	for _, parallel := range []bool{false, true} {
		e := &execution{buf: buf, opts: &Options{ParallelChannels: parallel}}
		out, err := e.mapChannels(double)
		if err != nil {
			t.Fatalf("mapChannels(parallel=%v) returned error: %v", parallel, err)
		}
		want := [][]float64{{2, 4, 6}, {8, 10, 12}}
		for c := range want {
			for i := range want[c] {
				if out[c][i] != want[c][i] {
					t.Fatalf("mapChannels(parallel=%v) channel %d sample %d = %v, want %v",
						parallel, c, i, out[c][i], want[c][i])
				}
			}
		}
	}

	failing := errors.New("channel failure")
	e := &execution{buf: buf, opts: &Options{}}
	_, err := e.mapChannels(func(ch []float64) ([]float64, error) {
		if ch[0] == 4 {
			return nil, failing
		}
		return ch, nil
	})
	if !errors.Is(err, failing) {
		t.Errorf("mapChannels error = %v, want %v", err, failing)
	}
}
