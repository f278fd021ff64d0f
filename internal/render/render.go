// Package render produces the collage as an encoded video file by cutting,
// concatenating and finalizing clips with ffmpeg.
package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/alga/collagen/internal/ffmpeg"
	"github.com/alga/collagen/internal/footage"
	"github.com/alga/collagen/internal/schedule"
	"github.com/alga/collagen/pkg/util"
)

const (
	// DefaultBatchSize is how many cuts are concatenated per intermediate
	DefaultBatchSize = 20
	// DefaultWorkers bounds parallel cuts within a batch
	DefaultWorkers = 4
	// DefaultFadeOut is the soundtrack fade-out in seconds
	DefaultFadeOut = 2.0
)

// Engine is the subset of the ffmpeg executor the renderer drives.
// *ffmpeg.Executor satisfies it.
type Engine interface {
	Cut(ctx context.Context, input string, opts ffmpeg.CutOptions) error
	Concat(ctx context.Context, opts ffmpeg.ConcatOptions) error
	Finalize(ctx context.Context, opts ffmpeg.FinalizeOptions) error
}

// Options controls the encoded output
type Options struct {
	BatchSize int
	Workers   int

	Width  int
	Height int

	FPS     int
	Bitrate string
	Codec   string

	Audio   string // soundtrack path, empty for silent output
	FadeOut float64

	Flip bool // rotate the whole video 180 degrees

	TempDir string
}

func (o *Options) normalize() {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.FadeOut <= 0 {
		o.FadeOut = DefaultFadeOut
	}
	if o.FPS <= 0 {
		o.FPS = 30
	}
	if o.Codec == "" {
		o.Codec = ffmpeg.DefaultVideoCodec
	}
}

// Backend renders placements into a finished video file
type Backend struct {
	logger zerolog.Logger
	engine Engine
	opts   Options
}

// NewBackend creates a render backend over the given engine
func NewBackend(logger zerolog.Logger, engine Engine, opts Options) *Backend {
	opts.normalize()
	return &Backend{
		logger: logger.With().Str("component", "render").Logger(),
		engine: engine,
		opts:   opts,
	}
}

// Realize cuts every placement, concatenates them in batches and writes the
// finished video to dest.
func (b *Backend) Realize(ctx context.Context, ix *footage.Index, placements []schedule.Placement, dest string) error {
	if len(placements) == 0 {
		b.logger.Warn().Msg("no clips scheduled, writing empty output")
		return os.WriteFile(dest, nil, 0644)
	}

	workDir := filepath.Join(b.tempRoot(), "collagen-"+uuid.NewString())
	if err := util.EnsureDir(workDir); err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	b.logger.Info().
		Int("clips", len(placements)).
		Int("batch_size", b.opts.BatchSize).
		Int("workers", b.opts.Workers).
		Str("work_dir", workDir).
		Msg("render started")

	intermediates, err := b.renderBatches(ctx, workDir, placements)
	if err != nil {
		return err
	}

	silent := intermediates[0]
	if len(intermediates) > 1 {
		silent = filepath.Join(workDir, "silent.mp4")
		if err := b.engine.Concat(ctx, ffmpeg.ConcatOptions{
			Inputs:       intermediates,
			Output:       silent,
			ProgressFunc: b.logProgress("join"),
		}); err != nil {
			return fmt.Errorf("join intermediates: %w", err)
		}
	}

	var total float64
	for _, p := range placements {
		total += p.Duration
	}

	if err := b.engine.Finalize(ctx, ffmpeg.FinalizeOptions{
		Input:        silent,
		Audio:        b.opts.Audio,
		AudioLength:  total,
		FadeOut:      b.opts.FadeOut,
		Rotate:       b.opts.Flip,
		Output:       dest,
		FPS:          b.opts.FPS,
		Bitrate:      b.opts.Bitrate,
		Codec:        b.opts.Codec,
		ProgressFunc: b.logProgress("finalize"),
	}); err != nil {
		return fmt.Errorf("finalize output: %w", err)
	}

	b.logger.Info().Str("output", dest).Float64("duration", total).Msg("render finished")
	return nil
}

// renderBatches cuts and concatenates one batch at a time, returning the
// intermediate files in batch order. Cut files are removed as soon as their
// batch is joined so the working set stays small.
func (b *Backend) renderBatches(ctx context.Context, workDir string, placements []schedule.Placement) ([]string, error) {
	batches := planBatches(len(placements), b.opts.BatchSize)
	intermediates := make([]string, 0, len(batches))

	for bi, batch := range batches {
		cuts := make([]string, batch[1]-batch[0])

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(b.opts.Workers)
		for i := batch[0]; i < batch[1]; i++ {
			p := placements[i]
			out := filepath.Join(workDir, fmt.Sprintf("cut_%05d.mp4", i))
			cuts[i-batch[0]] = out
			g.Go(func() error {
				b.logger.Debug().
					Str("source", p.SourcePath).
					Float64("offset", p.SourceOffset).
					Float64("duration", p.Duration).
					Msg("cutting clip")
				return b.engine.Cut(gctx, p.SourcePath, ffmpeg.CutOptions{
					Start:    p.SourceOffset,
					Duration: p.Duration,
					Output:   out,
					Width:    b.opts.Width,
					Height:   b.opts.Height,
				})
			})
		}
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("batch %d: %w", bi, err)
		}

		intermediate := filepath.Join(workDir, fmt.Sprintf("batch_%03d.mp4", bi))
		if err := b.engine.Concat(ctx, ffmpeg.ConcatOptions{
			Inputs: cuts,
			Output: intermediate,
		}); err != nil {
			return nil, fmt.Errorf("join batch %d: %w", bi, err)
		}
		util.CleanupFiles(cuts...)

		intermediates = append(intermediates, intermediate)
		b.logger.Info().
			Int("batch", bi+1).
			Int("batches", len(batches)).
			Int("clips", len(cuts)).
			Msg("batch rendered")
	}

	return intermediates, nil
}

// logProgress reports encoder progress at debug level
func (b *Backend) logProgress(stage string) ffmpeg.ProgressFunc {
	return func(p *ffmpeg.Progress) {
		b.logger.Debug().
			Str("stage", stage).
			Int("frame", p.Frame).
			Float64("fps", p.FPS).
			Str("time", p.Time).
			Str("speed", p.Speed).
			Msg("encoding")
	}
}

func (b *Backend) tempRoot() string {
	if b.opts.TempDir != "" {
		return b.opts.TempDir
	}
	return os.TempDir()
}

// planBatches splits n items into consecutive [start, end) ranges of at most
// size each.
func planBatches(n, size int) [][2]int {
	var batches [][2]int
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		batches = append(batches, [2]int{start, end})
	}
	return batches
}
