package mlt

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/alga/collagen/internal/ffmpeg"
)

// Prober supplies per-file technical metadata; *ffmpeg.Executor satisfies it
type Prober interface {
	Probe(ctx context.Context, path string) (*ffmpeg.ProbeInfo, error)
}

// Fallback is the profile substituted when probing fails. Zero fields take
// the broadcast-typical values below.
type Fallback struct {
	Width        int
	Height       int
	FrameRateNum int
	FrameRateDen int
}

func (f Fallback) normalize() Fallback {
	if f.Width <= 0 {
		f.Width = 1920
	}
	if f.Height <= 0 {
		f.Height = 1080
	}
	if f.FrameRateNum <= 0 || f.FrameRateDen <= 0 {
		f.FrameRateNum = 30000
		f.FrameRateDen = 1001
	}
	return f
}

// defaultInfo is substituted when probing fails. The project file still
// opens; the editor corrects the metadata when it re-scans the media.
func defaultInfo(path string, fb Fallback) *ffmpeg.ProbeInfo {
	return &ffmpeg.ProbeInfo{
		Path:          path,
		Width:         fb.Width,
		Height:        fb.Height,
		FrameRateNum:  fb.FrameRateNum,
		FrameRateDen:  fb.FrameRateDen,
		CodecName:     "h264",
		PixFmt:        "yuv420p",
		Colorspace:    "709",
		ColorTRC:      "1",
		HasAudio:      true,
		SampleRate:    48000,
		AudioChannels: 2,
		AudioCodec:    "aac",
		CreationTime:  time.Now().Format("2006-01-02T15:04:05"),
	}
}

// probeCache memoizes probe results per file path for one run, so files
// referenced by multiple placements cost a single external invocation.
type probeCache struct {
	logger   zerolog.Logger
	prober   Prober
	fallback Fallback
	byPath   map[string]*ffmpeg.ProbeInfo
}

func newProbeCache(logger zerolog.Logger, prober Prober, fallback Fallback) *probeCache {
	return &probeCache{
		logger:   logger,
		prober:   prober,
		fallback: fallback,
		byPath:   make(map[string]*ffmpeg.ProbeInfo),
	}
}

// get returns the file's metadata, probing at most once per path. A failed
// probe is non-fatal: the fallback profile is cached and a warning emitted.
func (c *probeCache) get(ctx context.Context, path string) *ffmpeg.ProbeInfo {
	if info, ok := c.byPath[path]; ok {
		return info
	}

	info, err := c.prober.Probe(ctx, path)
	if err != nil {
		c.logger.Warn().
			Str("path", path).
			Err(err).
			Msg("probe failed, substituting fallback metadata")
		info = defaultInfo(path, c.fallback)
	} else {
		fillProbeGaps(info, c.fallback)
	}

	c.byPath[path] = info
	return info
}

// fillProbeGaps backfills fields a sparse container can leave empty
func fillProbeGaps(info *ffmpeg.ProbeInfo, fb Fallback) {
	def := defaultInfo(info.Path, fb)
	if info.Width == 0 {
		info.Width = def.Width
	}
	if info.Height == 0 {
		info.Height = def.Height
	}
	if info.FrameRateNum == 0 || info.FrameRateDen == 0 {
		info.FrameRateNum = def.FrameRateNum
		info.FrameRateDen = def.FrameRateDen
	}
	if info.CodecName == "" {
		info.CodecName = def.CodecName
	}
	if info.PixFmt == "" {
		info.PixFmt = def.PixFmt
	}
	if info.Colorspace == "" {
		info.Colorspace = def.Colorspace
	}
	if info.ColorTRC == "" {
		info.ColorTRC = def.ColorTRC
	}
	if info.SampleRate == 0 {
		info.SampleRate = def.SampleRate
	}
	if info.AudioChannels == 0 {
		info.AudioChannels = def.AudioChannels
	}
	if info.AudioCodec == "" {
		info.AudioCodec = def.AudioCodec
	}
	if info.CreationTime == "" {
		info.CreationTime = def.CreationTime
	}
}
