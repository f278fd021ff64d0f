// Package footage loads per-file duration metadata and arranges the source
// files on a single virtual timeline used for clip sampling.
package footage

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
)

// Entry is one source file placed on the virtual timeline. Start is the
// running sum of all prior durations; the first entry starts at zero.
type Entry struct {
	Start    float64
	Path     string
	Duration float64
}

// End returns the entry's end offset on the virtual timeline
func (e Entry) End() float64 {
	return e.Start + e.Duration
}

// DurationReader reports a media file's duration in seconds. The production
// implementation shells out to ffprobe; tests substitute a fake.
type DurationReader interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// OpenError marks a source file that could not be indexed. It aborts the
// whole run; a partial index would silently skew sampling.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("cannot open footage %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

// Index is the ordered footage list plus the total virtual-timeline length
type Index struct {
	Entries []Entry
	Total   float64
}

// Load probes each file for its duration, one at a time, and builds the
// virtual timeline in the order given.
func Load(ctx context.Context, logger zerolog.Logger, reader DurationReader, paths []string) (*Index, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no footage files given")
	}

	log := logger.With().Str("component", "footage").Logger()

	ix := &Index{Entries: make([]Entry, 0, len(paths))}
	var offset float64

	for _, path := range paths {
		duration, err := reader.Duration(ctx, path)
		if err != nil {
			return nil, &OpenError{Path: path, Err: err}
		}
		if duration <= 0 {
			return nil, &OpenError{Path: path, Err: fmt.Errorf("non-positive duration %f", duration)}
		}

		ix.Entries = append(ix.Entries, Entry{
			Start:    offset,
			Path:     path,
			Duration: duration,
		})
		offset += duration
	}
	ix.Total = offset

	log.Info().
		Int("files", len(ix.Entries)).
		Float64("total_seconds", ix.Total).
		Msg("footage indexed")

	return ix, nil
}

// At resolves a point on the virtual timeline to the entry covering it: the
// entry with the greatest Start that is <= point.
func (ix *Index) At(point float64) (Entry, bool) {
	if len(ix.Entries) == 0 || point < 0 || point >= ix.Total {
		return Entry{}, false
	}
	// First entry starting beyond the point; the one before covers it.
	i := sort.Search(len(ix.Entries), func(i int) bool {
		return ix.Entries[i].Start > point
	})
	return ix.Entries[i-1], true
}

// MinDuration returns the shortest entry duration
func (ix *Index) MinDuration() float64 {
	if len(ix.Entries) == 0 {
		return 0
	}
	min := ix.Entries[0].Duration
	for _, e := range ix.Entries[1:] {
		if e.Duration < min {
			min = e.Duration
		}
	}
	return min
}
