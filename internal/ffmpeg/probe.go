package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/alga/collagen/pkg/util"
)

// Probe extracts full technical metadata from a media file
func (e *Executor) Probe(ctx context.Context, filePath string) (*ProbeInfo, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path is required")
	}

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	}

	cmd := exec.CommandContext(ctx, e.ffprobePath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed for %s: %w", filePath, err)
	}

	info, err := parseProbePayload(output)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output for %s: %w", filePath, err)
	}
	info.Path = filePath
	return info, nil
}

// Duration reads only the container duration, in seconds. Cheaper than a full
// probe; the footage index calls this once per file.
func (e *Executor) Duration(ctx context.Context, filePath string) (float64, error) {
	cmd := exec.CommandContext(ctx, e.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		filePath,
	)

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed for %s: %w", filePath, err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(out.String()), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration of %s: %w", filePath, err)
	}

	return duration, nil
}

// parseProbePayload decodes the ffprobe JSON document
func parseProbePayload(data []byte) (*ProbeInfo, error) {
	var probe probeResult
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}

	info := &ProbeInfo{}

	if dur, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
		info.Duration = dur
	}
	if ct, ok := probe.Format.Tags["creation_time"]; ok {
		info.CreationTime = ct
	}

	for _, stream := range probe.Streams {
		switch stream.CodecType {
		case "video":
			info.Width = stream.Width
			info.Height = stream.Height
			info.CodecName = stream.CodecName
			info.PixFmt = stream.PixFmt
			info.Colorspace = stream.ColorSpace
			info.ColorTRC = stream.ColorTransfer
			if stream.RFrameRate != "" {
				if num, den, err := util.ParseFrameRate(stream.RFrameRate); err == nil {
					info.FrameRateNum = num
					info.FrameRateDen = den
				}
			}
		case "audio":
			info.HasAudio = true
			info.AudioCodec = stream.CodecName
			info.AudioChannels = stream.Channels
			if sr, err := strconv.Atoi(stream.SampleRate); err == nil {
				info.SampleRate = sr
			}
		}
	}

	return info, nil
}

// probeResult matches ffprobe JSON output structure
type probeResult struct {
	Format struct {
		Duration string            `json:"duration"`
		Tags     map[string]string `json:"tags"`
	} `json:"format"`
	Streams []struct {
		CodecType     string `json:"codec_type"`
		CodecName     string `json:"codec_name"`
		Width         int    `json:"width"`
		Height        int    `json:"height"`
		PixFmt        string `json:"pix_fmt"`
		ColorSpace    string `json:"color_space"`
		ColorTransfer string `json:"color_transfer"`
		RFrameRate    string `json:"r_frame_rate"`
		SampleRate    string `json:"sample_rate"`
		Channels      int    `json:"channels"`
	} `json:"streams"`
}
