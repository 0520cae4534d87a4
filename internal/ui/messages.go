package ui

// MediaKind distinguishes the two processing pipelines in the queue display
type MediaKind int

const (
	KindAudio MediaKind = iota
	KindVideo
)

// ProgressMsg represents a progress update from a processing pipeline.
// Audio files report completed correction stages; video files report
// frame counts.
type ProgressMsg struct {
	FileIndex   int
	StageName   string // display name of the stage just finished
	Applied     bool   // audio: whether the stage changed the sound
	StagesDone  int    // audio: stages finished so far
	StagesTotal int    // audio: length of the correction chain
	FramesDone  int    // video: frames written so far
	FramesTotal int    // video: frames expected
}

// FileStartMsg indicates a new file has started processing
type FileStartMsg struct {
	FileIndex  int
	FileName   string
	OutputName string
	Kind       MediaKind
}

// FileCompleteMsg indicates a file has finished processing.
// The summary fields for the other media kind stay at their zero values.
type FileCompleteMsg struct {
	FileIndex  int
	OutputPath string
	Error      error

	// Audio summary (dBFS and dB)
	InputPeakDB  float64
	OutputPeakDB float64
	SNRBefore    float64
	SNRAfter     float64

	// Video summary
	InputSize  string // e.g. "854x480"
	OutputSize string
	Frames     int

	// Display names of the corrections that ran
	StepsApplied []string
}

// AllCompleteMsg indicates all files have been processed
type AllCompleteMsg struct{}
