package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Concat merges multiple video files into one, in input order
func (e *Executor) Concat(ctx context.Context, opts ConcatOptions) error {
	if len(opts.Inputs) == 0 {
		return fmt.Errorf("no input files provided")
	}
	if opts.Output == "" {
		return fmt.Errorf("output path is required")
	}

	e.logger.Info().
		Int("inputs", len(opts.Inputs)).
		Str("output", opts.Output).
		Msg("concatenating")

	listFile, err := writeConcatList(opts.Inputs)
	if err != nil {
		return fmt.Errorf("failed to create concat list: %w", err)
	}
	defer os.Remove(listFile)

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
	}

	if opts.ReEncode {
		args = append(args,
			"-c:v", DefaultVideoCodec,
			"-crf", fmt.Sprintf("%d", DefaultCRF),
			"-preset", e.preset,
		)
	} else {
		args = append(args, "-c", "copy")
	}

	args = append(args, opts.Output)

	runOpts := RunOptions{
		Args:            args,
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("concat")
		},
	}

	return e.Run(ctx, runOpts)
}

// writeConcatList generates a temporary file list for the concat demuxer
func writeConcatList(inputs []string) (string, error) {
	tmpFile, err := os.CreateTemp("", "collagen-concat-*.txt")
	if err != nil {
		return "", err
	}
	defer tmpFile.Close()

	for _, input := range inputs {
		absPath, err := filepath.Abs(input)
		if err != nil {
			os.Remove(tmpFile.Name())
			return "", err
		}
		if _, err := fmt.Fprintf(tmpFile, "file '%s'\n", absPath); err != nil {
			os.Remove(tmpFile.Name())
			return "", err
		}
	}

	return tmpFile.Name(), nil
}
