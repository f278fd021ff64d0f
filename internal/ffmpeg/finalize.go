package ffmpeg

import (
	"context"
	"fmt"
)

// Finalize runs the last encode pass: attaches the soundtrack (trimmed to the
// output length with a fade-out), applies the optional 180-degree rotation and
// writes the output at the requested frame rate, bitrate and codec.
func (e *Executor) Finalize(ctx context.Context, opts FinalizeOptions) error {
	if opts.Input == "" {
		return fmt.Errorf("input path is required")
	}
	if opts.Output == "" {
		return fmt.Errorf("output path is required")
	}

	e.logger.Info().
		Str("input", opts.Input).
		Str("audio", opts.Audio).
		Bool("rotate", opts.Rotate).
		Str("output", opts.Output).
		Msg("finalizing")

	runOpts := RunOptions{
		Args:            buildFinalizeArgs(opts, e.preset),
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("finalize")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("finalize failed: %w", err)
	}

	e.logger.Info().Str("output", opts.Output).Msg("finalize complete")
	return nil
}

// buildFinalizeArgs constructs the argument list for the final encode pass
func buildFinalizeArgs(opts FinalizeOptions, preset string) []string {
	args := []string{"-i", opts.Input}

	hasAudio := opts.Audio != ""
	if hasAudio {
		args = append(args, "-i", opts.Audio)
	}

	if opts.Rotate {
		args = append(args, "-vf", NewFilterBuilder().Rotate180().Build())
	}

	if hasAudio {
		fadeStart := opts.AudioLength - opts.FadeOut
		if fadeStart < 0 {
			fadeStart = 0
		}
		af := fmt.Sprintf("atrim=0:%.3f", opts.AudioLength)
		if opts.FadeOut > 0 {
			af += fmt.Sprintf(",afade=t=out:st=%.3f:d=%.3f", fadeStart, opts.FadeOut)
		}
		args = append(args,
			"-map", "0:v:0",
			"-map", "1:a:0",
			"-af", af,
			"-c:a", DefaultAudioCodec,
			"-shortest",
		)
	} else {
		args = append(args, "-an")
	}

	if opts.FPS > 0 {
		args = append(args, "-r", fmt.Sprintf("%d", opts.FPS))
	}

	codec := opts.Codec
	if codec == "" {
		codec = DefaultVideoCodec
	}
	args = append(args, "-c:v", codec)

	if opts.Bitrate != "" {
		args = append(args, "-b:v", opts.Bitrate)
	}

	args = append(args, "-preset", preset, opts.Output)
	return args
}
