// Package collage ties indexing, scheduling and a realization backend into
// one run.
package collage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/alga/collagen/internal/audio"
	"github.com/alga/collagen/internal/footage"
	"github.com/alga/collagen/internal/schedule"
)

// Backend turns a schedule into a concrete artifact: an encoded video or an
// editor project file.
type Backend interface {
	Realize(ctx context.Context, ix *footage.Index, placements []schedule.Placement, dest string) error
}

// Params describes one collage run
type Params struct {
	Sources []string
	Output  string

	// Length of the collage in seconds. Zero means match the soundtrack.
	Length float64

	// Multiplier scales the detected clip period (zero means 1)
	Multiplier float64

	Seed          string
	Shuffle       bool
	DoubleSpacing bool

	// Audio is handed to the period detector and probed for the collage
	// length when Length is zero.
	Audio string
}

// Generator runs the index → schedule → realize pipeline
type Generator struct {
	logger   zerolog.Logger
	reader   footage.DurationReader
	detector audio.PeriodDetector
	backend  Backend
}

// NewGenerator wires a generator over a duration reader, a period detector
// and a backend. audio.FixedPeriod covers the caller-supplied-period case.
func NewGenerator(logger zerolog.Logger, reader footage.DurationReader, detector audio.PeriodDetector, backend Backend) *Generator {
	return &Generator{
		logger:   logger.With().Str("component", "collage").Logger(),
		reader:   reader,
		detector: detector,
		backend:  backend,
	}
}

// Run generates the collage described by params
func (g *Generator) Run(ctx context.Context, params Params) error {
	length, err := g.resolveLength(ctx, params)
	if err != nil {
		return err
	}

	period, err := g.detector.Period(ctx, params.Audio)
	if err != nil {
		return fmt.Errorf("resolve clip period: %w", err)
	}
	if params.Multiplier > 0 {
		period *= params.Multiplier
	}

	ix, err := footage.Load(ctx, g.logger, g.reader, params.Sources)
	if err != nil {
		return err
	}

	placements, err := schedule.Generate(g.logger, ix, schedule.Policy{
		Period:        period,
		TotalLength:   length,
		Seed:          params.Seed,
		Shuffle:       params.Shuffle,
		DoubleSpacing: params.DoubleSpacing,
	})
	if err != nil {
		return err
	}

	g.logger.Info().
		Int("clips", len(placements)).
		Float64("length", length).
		Float64("period", period).
		Msg("schedule ready")

	return g.backend.Realize(ctx, ix, placements, params.Output)
}

// resolveLength returns the explicit length, or the soundtrack duration when
// none is given.
func (g *Generator) resolveLength(ctx context.Context, params Params) (float64, error) {
	if params.Length > 0 {
		return params.Length, nil
	}
	if params.Audio == "" {
		return 0, fmt.Errorf("either a length or a soundtrack is required")
	}

	dur, err := g.reader.Duration(ctx, params.Audio)
	if err != nil {
		return 0, fmt.Errorf("probe soundtrack length: %w", err)
	}

	g.logger.Debug().Str("audio", params.Audio).Float64("duration", dur).Msg("length from soundtrack")
	return dur, nil
}
