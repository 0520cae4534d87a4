// Package video shells out to ffmpeg for frame-level access to video
// files. Frames cross this boundary as raw RGB24 bytes so the rest of
// the pipeline stays codec-free.
package video

import (
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

const (
	ffmpegBin  = "ffmpeg"
	ffprobeBin = "ffprobe"
)

// Metadata describes the first video stream of a file as reported by
// ffprobe. Containers are free to omit or misreport the frame count and
// rate, so callers must be prepared to recover FrameCount and FPS by
// reading the stream themselves.
type Metadata struct {
	Width      int
	Height     int
	FPS        float64
	FrameCount int
	Duration   float64 // seconds, zero when unknown
	Codec      string
}

// Probe inspects the first video stream in path.
func Probe(path string) (*Metadata, error) {
	cmd := exec.Command(ffprobeBin,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_streams",
		"-show_format",
		"-of", "json",
		path)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	meta, err := parseProbeOutput(out)
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return meta, nil
}

func parseProbeOutput(out []byte) (*Metadata, error) {
	var probe struct {
		Streams []struct {
			CodecName    string `json:"codec_name"`
			Width        int    `json:"width"`
			Height       int    `json:"height"`
			AvgFrameRate string `json:"avg_frame_rate"`
			RFrameRate   string `json:"r_frame_rate"`
			NbFrames     string `json:"nb_frames"`
			Duration     string `json:"duration"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &probe); err != nil {
		return nil, fmt.Errorf("parsing probe output: %w", err)
	}
	if len(probe.Streams) == 0 {
		return nil, errors.New("no video stream")
	}

	s := probe.Streams[0]
	meta := &Metadata{
		Width:      s.Width,
		Height:     s.Height,
		FrameCount: parseInt(s.NbFrames),
		Duration:   parseFloat(s.Duration),
		Codec:      s.CodecName,
	}
	meta.FPS = parseRational(s.AvgFrameRate)
	if meta.FPS <= 0 {
		meta.FPS = parseRational(s.RFrameRate)
	}
	if meta.Duration <= 0 {
		meta.Duration = parseFloat(probe.Format.Duration)
	}
	return meta, nil
}

// parseRational converts an ffprobe frame-rate fraction such as
// "30000/1001" to a float. Malformed input and the "0/0" placeholder
// both come back as zero.
func parseRational(s string) float64 {
	num, den, found := strings.Cut(s, "/")
	if !found {
		return parseFloat(s)
	}
	d := parseFloat(den)
	if d == 0 {
		return 0
	}
	return parseFloat(num) / d
}

func parseInt(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}
