package enhancer

import (
	"math"
	"testing"
)

func TestTuneUpscale(t *testing.T) {
	tests := []struct {
		name       string
		width      int
		height     int
		target     *Resolution
		wantNeeds  bool
		wantFactor float64
	}{
		{
			name:  "tiny source doubles",
			width: 480, height: 270,
			wantNeeds: true, wantFactor: 2.0,
		},
		{
			name:  "sd source gets the mid step",
			width: 854, height: 480,
			wantNeeds: true, wantFactor: 1.5,
		},
		{
			name:  "boundary: exactly at the tiny width",
			width: 640, height: 360,
			wantNeeds: true, wantFactor: 1.5,
		},
		{
			name:  "hd source untouched",
			width: 1920, height: 1080,
			wantNeeds: false, wantFactor: 1.0,
		},
		{
			name:  "boundary: exactly at hd",
			width: 1280, height: 720,
			wantNeeds: false, wantFactor: 1.0,
		},
		{
			name:  "wide but short source",
			width: 1280, height: 600,
			wantNeeds: true, wantFactor: 1.5,
		},
		{
			name:  "target doubles a quarter frame",
			width: 960, height: 540,
			target:    &Resolution{Width: 1920, Height: 1080},
			wantNeeds: true, wantFactor: 2.0,
		},
		{
			name:  "target short in one dimension only",
			width: 1920, height: 800,
			target:    &Resolution{Width: 1920, Height: 1080},
			wantNeeds: true, wantFactor: 1080.0 / 800.0,
		},
		{
			name:  "target already met",
			width: 3840, height: 2160,
			target:    &Resolution{Width: 1920, Height: 1080},
			wantNeeds: false, wantFactor: 1.0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			params := DefaultEnhancementParams()
			snap := &QualitySnapshot{Width: tc.width, Height: tc.height}
			tuneUpscale(params, snap, tc.target)
			if params.NeedsUpscaling != tc.wantNeeds {
				t.Errorf("NeedsUpscaling = %v, want %v", params.NeedsUpscaling, tc.wantNeeds)
			}
			if math.Abs(params.UpscaleFactor-tc.wantFactor) > 1e-9 {
				t.Errorf("UpscaleFactor = %v, want %v", params.UpscaleFactor, tc.wantFactor)
			}
		})
	}
}

func TestTuneDenoise(t *testing.T) {
	tests := []struct {
		name  string
		noise float64
		want  int
	}{
		{"heavy grain", 20, denoiseStrong},
		{"moderate grain", 10, denoiseMedium},
		{"light grain", 5, denoiseGentle},
		{"clean picture", 2, 0},
		{"boundary: exactly at the heavy threshold", 15, denoiseMedium},
		{"boundary: exactly at the moderate threshold", 8, denoiseGentle},
		{"boundary: exactly at the light threshold", 4, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			params := DefaultEnhancementParams()
			tuneDenoise(params, &QualitySnapshot{NoiseEstimate: tc.noise})
			if params.DenoiseStrength != tc.want {
				t.Errorf("DenoiseStrength = %d, want %d", params.DenoiseStrength, tc.want)
			}
		})
	}
}

func TestTuneSharpen(t *testing.T) {
	tests := []struct {
		name      string
		sharpness float64
		want      float64
	}{
		{"blurry picture", 50, sharpenStrong},
		{"soft picture", 200, sharpenMedium},
		{"slightly soft picture", 400, sharpenLight},
		{"crisp picture", 800, 0},
		{"boundary: exactly at the blurry threshold", 100, sharpenMedium},
		{"boundary: exactly at the soft threshold", 300, sharpenLight},
		{"boundary: exactly at the gentle threshold", 500, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			params := DefaultEnhancementParams()
			tuneSharpen(params, &QualitySnapshot{Sharpness: tc.sharpness})
			if params.SharpenAmount != tc.want {
				t.Errorf("SharpenAmount = %v, want %v", params.SharpenAmount, tc.want)
			}
		})
	}
}

func TestTuneTone(t *testing.T) {
	tests := []struct {
		name       string
		brightness float64
		contrast   float64
		wantShift  int
		wantGain   float64
		wantColor  bool
	}{
		{
			name:       "dark flat picture",
			brightness: 50, contrast: 20,
			wantShift: brightnessLift, wantGain: contrastGainHigh, wantColor: true,
		},
		{
			name:       "blown out picture",
			brightness: 200, contrast: 60,
			wantShift: brightnessCut, wantGain: 1.0, wantColor: false,
		},
		{
			name:       "healthy picture",
			brightness: 120, contrast: 60,
			wantShift: 0, wantGain: 1.0, wantColor: false,
		},
		{
			name:       "moderate contrast gets the mild gain",
			brightness: 120, contrast: 45,
			wantShift: 0, wantGain: contrastGainMild, wantColor: false,
		},
		{
			name:       "dull colour flagged alongside the mild gain",
			brightness: 120, contrast: 35,
			wantShift: 0, wantGain: contrastGainMild, wantColor: true,
		},
		{
			name:       "boundary: exactly at the dark threshold",
			brightness: 80, contrast: 60,
			wantShift: 0, wantGain: 1.0, wantColor: false,
		},
		{
			name:       "boundary: exactly at the bright threshold",
			brightness: 180, contrast: 60,
			wantShift: 0, wantGain: 1.0, wantColor: false,
		},
		{
			name:       "boundary: exactly at the flat threshold",
			brightness: 120, contrast: 30,
			wantShift: 0, wantGain: contrastGainMild, wantColor: true,
		},
		{
			name:       "boundary: exactly at the dull threshold",
			brightness: 120, contrast: 40,
			wantShift: 0, wantGain: contrastGainMild, wantColor: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			params := DefaultEnhancementParams()
			snap := &QualitySnapshot{Brightness: tc.brightness, Contrast: tc.contrast}
			tuneTone(params, snap)
			if params.BrightnessAdjust != tc.wantShift {
				t.Errorf("BrightnessAdjust = %d, want %d", params.BrightnessAdjust, tc.wantShift)
			}
			if params.ContrastAdjust != tc.wantGain {
				t.Errorf("ContrastAdjust = %v, want %v", params.ContrastAdjust, tc.wantGain)
			}
			if params.ColorEnhance != tc.wantColor {
				t.Errorf("ColorEnhance = %v, want %v", params.ColorEnhance, tc.wantColor)
			}
		})
	}
}

func TestDeriveParams(t *testing.T) {
	t.Run("clean hd video needs nothing", func(t *testing.T) {
		snap := &QualitySnapshot{
			Width: 1920, Height: 1080,
			Brightness: 120, Contrast: 60, Sharpness: 600, NoiseEstimate: 2,
		}
		params := DeriveParams(snap, nil)
		if params.NeedsUpscaling || params.UpscaleFactor != 1.0 {
			t.Errorf("upscaling = %v/%v, want off", params.NeedsUpscaling, params.UpscaleFactor)
		}
		if params.DenoiseStrength != 0 || params.SharpenAmount != 0 {
			t.Errorf("denoise/sharpen = %d/%v, want off", params.DenoiseStrength, params.SharpenAmount)
		}
		if params.BrightnessAdjust != 0 || params.ContrastAdjust != 1.0 || params.ColorEnhance {
			t.Errorf("tone = %+v, want neutral", params)
		}
		if steps := activeSteps(params); len(steps) != 0 {
			t.Errorf("activeSteps() = %v, want none", steps)
		}
	})

	t.Run("rough low resolution video gets the full chain", func(t *testing.T) {
		snap := &QualitySnapshot{
			Width: 480, Height: 270,
			Brightness: 60, Contrast: 25, Sharpness: 80, NoiseEstimate: 20,
		}
		params := DeriveParams(snap, nil)
		if !params.NeedsUpscaling || params.UpscaleFactor != upscaleFactorTiny {
			t.Errorf("upscaling = %v/%v, want 2x", params.NeedsUpscaling, params.UpscaleFactor)
		}
		if params.DenoiseStrength != denoiseStrong {
			t.Errorf("DenoiseStrength = %d, want %d", params.DenoiseStrength, denoiseStrong)
		}
		if params.SharpenAmount != sharpenStrong {
			t.Errorf("SharpenAmount = %v, want %v", params.SharpenAmount, sharpenStrong)
		}
		if params.BrightnessAdjust != brightnessLift || params.ContrastAdjust != contrastGainHigh {
			t.Errorf("tone = %d/%v, want %d/%v",
				params.BrightnessAdjust, params.ContrastAdjust, brightnessLift, contrastGainHigh)
		}
		if !params.ColorEnhance {
			t.Error("ColorEnhance = false, want true")
		}
		if steps := activeSteps(params); len(steps) != len(EnhancementOrder) {
			t.Errorf("activeSteps() = %v, want the full chain", steps)
		}
	})
}

func TestSanitizeEnhancement(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*EnhancementParams)
		check  func(*testing.T, *EnhancementParams)
	}{
		{
			name: "nan upscale factor resets to identity",
			mutate: func(p *EnhancementParams) {
				p.NeedsUpscaling = true
				p.UpscaleFactor = math.NaN()
			},
			check: func(t *testing.T, p *EnhancementParams) {
				if p.UpscaleFactor != 1.0 || p.NeedsUpscaling {
					t.Errorf("factor = %v, needs = %v, want identity off", p.UpscaleFactor, p.NeedsUpscaling)
				}
			},
		},
		{
			name: "shrinking factor resets to identity",
			mutate: func(p *EnhancementParams) {
				p.NeedsUpscaling = true
				p.UpscaleFactor = 0.5
			},
			check: func(t *testing.T, p *EnhancementParams) {
				if p.UpscaleFactor != 1.0 || p.NeedsUpscaling {
					t.Errorf("factor = %v, needs = %v, want identity off", p.UpscaleFactor, p.NeedsUpscaling)
				}
			},
		},
		{
			name:   "denoise strength capped",
			mutate: func(p *EnhancementParams) { p.DenoiseStrength = 500 },
			check: func(t *testing.T, p *EnhancementParams) {
				if p.DenoiseStrength != denoiseMax {
					t.Errorf("DenoiseStrength = %d, want %d", p.DenoiseStrength, denoiseMax)
				}
			},
		},
		{
			name:   "negative sharpen amount cleared",
			mutate: func(p *EnhancementParams) { p.SharpenAmount = -1 },
			check: func(t *testing.T, p *EnhancementParams) {
				if p.SharpenAmount != 0 {
					t.Errorf("SharpenAmount = %v, want 0", p.SharpenAmount)
				}
			},
		},
		{
			name:   "non-positive contrast gain resets",
			mutate: func(p *EnhancementParams) { p.ContrastAdjust = -2 },
			check: func(t *testing.T, p *EnhancementParams) {
				if p.ContrastAdjust != 1.0 {
					t.Errorf("ContrastAdjust = %v, want 1.0", p.ContrastAdjust)
				}
			},
		},
		{
			name:   "infinite contrast gain resets",
			mutate: func(p *EnhancementParams) { p.ContrastAdjust = math.Inf(1) },
			check: func(t *testing.T, p *EnhancementParams) {
				if p.ContrastAdjust != 1.0 {
					t.Errorf("ContrastAdjust = %v, want 1.0", p.ContrastAdjust)
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			params := DefaultEnhancementParams()
			tc.mutate(params)
			sanitizeEnhancement(params)
			tc.check(t, params)
		})
	}
}

func TestResolutionByName(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    *Resolution
		wantErr bool
	}{
		{name: "auto leaves the decision to the source", in: "auto", want: nil},
		{name: "empty means auto", in: "", want: nil},
		{name: "1080p", in: "1080p", want: &Resolution{Width: 1920, Height: 1080}},
		{name: "4k", in: "4k", want: &Resolution{Width: 3840, Height: 2160}},
		{name: "names are case-insensitive", in: "4K", want: &Resolution{Width: 3840, Height: 2160}},
		{name: "unknown name rejected", in: "720p", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolutionByName(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ResolutionByName(%q) accepted an unknown name", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolutionByName(%q) failed: %v", tc.in, err)
			}
			if tc.want == nil {
				if got != nil {
					t.Fatalf("ResolutionByName(%q) = %+v, want nil", tc.in, got)
				}
				return
			}
			if got == nil || got.Width != tc.want.Width || got.Height != tc.want.Height {
				t.Errorf("ResolutionByName(%q) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}
