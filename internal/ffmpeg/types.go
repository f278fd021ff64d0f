package ffmpeg

// Default encoding settings
const (
	DefaultCRF        = 23
	DefaultPreset     = "medium"
	DefaultVideoCodec = "libx264"
	DefaultAudioCodec = "aac"
)

// Progress represents ffmpeg progress data
type Progress struct {
	Frame int
	FPS   float64
	Time  string
	Speed string
}

// ProgressFunc is a callback for progress updates during ffmpeg operations
type ProgressFunc func(*Progress)

// RunOptions configures ffmpeg execution
type RunOptions struct {
	Args            []string
	ProgressHandler ProgressFunc
	LogHandler      func(line string)
}

// ProbeInfo contains per-file technical metadata from ffprobe
type ProbeInfo struct {
	Path          string
	Duration      float64
	Width         int
	Height        int
	FrameRateNum  int
	FrameRateDen  int
	CodecName     string
	PixFmt        string
	Colorspace    string
	ColorTRC      string
	HasAudio      bool
	SampleRate    int
	AudioChannels int
	AudioCodec    string
	CreationTime  string
}

// FPS returns the frame rate as a float
func (p *ProbeInfo) FPS() float64 {
	if p.FrameRateDen == 0 {
		return 0
	}
	return float64(p.FrameRateNum) / float64(p.FrameRateDen)
}

// CutOptions defines sub-interval extraction parameters
type CutOptions struct {
	Start        float64 // seconds into the source
	Duration     float64 // seconds
	Output       string
	Width        int // target resolution; 0 keeps the source size
	Height       int
	ProgressFunc ProgressFunc
}

// ConcatOptions defines concatenation parameters
type ConcatOptions struct {
	Inputs       []string
	Output       string
	ReEncode     bool
	ProgressFunc ProgressFunc
}

// FinalizeOptions defines the last encode pass: soundtrack, rotation, output
// format. An empty Audio path produces a silent result.
type FinalizeOptions struct {
	Input        string
	Audio        string
	AudioLength  float64 // seconds; soundtrack is trimmed to this
	FadeOut      float64 // seconds of audio fade at the end
	Rotate       bool    // rotate the whole result by 180 degrees
	Output       string
	FPS          int
	Bitrate      string
	Codec        string
	ProgressFunc ProgressFunc
}
