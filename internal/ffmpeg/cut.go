package ffmpeg

import (
	"context"
	"fmt"

	"github.com/alga/collagen/pkg/util"
)

// Cut extracts a video-only sub-interval from a source file, re-encoded so
// that every cut is safe to concatenate regardless of source keyframes.
func (e *Executor) Cut(ctx context.Context, input string, opts CutOptions) error {
	if opts.Duration <= 0 {
		return fmt.Errorf("invalid cut duration: %f", opts.Duration)
	}
	if opts.Output == "" {
		return fmt.Errorf("output path is required")
	}

	e.logger.Info().
		Str("input", input).
		Float64("start", opts.Start).
		Float64("duration", opts.Duration).
		Msg("cutting")

	args := []string{
		"-ss", util.FormatSeconds(opts.Start),
		"-t", util.FormatSeconds(opts.Duration),
		"-i", input,
		"-an",
	}

	fb := NewFilterBuilder().Scale(opts.Width, opts.Height)
	if filter := fb.Build(); filter != "" {
		args = append(args, "-vf", filter)
	}

	args = append(args,
		"-c:v", DefaultVideoCodec,
		"-crf", fmt.Sprintf("%d", DefaultCRF),
		"-preset", e.preset,
		opts.Output,
	)

	runOpts := RunOptions{
		Args:            args,
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("cut")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("cut failed for %s: %w", input, err)
	}

	return nil
}
