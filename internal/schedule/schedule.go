// Package schedule picks a reproducible, non-overlapping set of clip
// placements from indexed footage.
package schedule

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"sort"

	"github.com/rs/zerolog"

	"github.com/alga/collagen/internal/footage"
)

// maxDrawAttempts bounds the rejection-sampling loop for a single placement,
// and maxScheduleAttempts bounds full restarts of the schedule when sequential
// draws jam (tightly packed policies can dead-end even though a valid layout
// exists). Together they replace the unbounded retry loop that would otherwise
// spin forever on an unsatisfiable policy.
const (
	maxDrawAttempts     = 1000
	maxScheduleAttempts = 200
)

// Placement is one scheduled clip: a position on the virtual timeline and
// the matching interval inside a specific source file.
type Placement struct {
	TimelineStart float64
	SourcePath    string
	SourceOffset  float64
	Duration      float64
}

// Policy describes one scheduling run
type Policy struct {
	Period        float64
	TotalLength   float64
	Seed          string
	Shuffle       bool
	DoubleSpacing bool
}

// Spacing returns the minimum distance between placement starts
func (p Policy) Spacing() float64 {
	if p.DoubleSpacing {
		return 2 * p.Period
	}
	return p.Period
}

// InfeasibleError reports a policy the footage cannot satisfy
type InfeasibleError struct {
	Reason string
}

func (e *InfeasibleError) Error() string {
	return "scheduling infeasible: " + e.Reason
}

// Generate produces ceil(TotalLength/Period) placements. The first draws walk
// a shrinking bag so every source file is sampled once before any repeats;
// once the bag is empty, draws fall back to uniform points on the virtual
// timeline, which favors longer files by construction. Identical footage and
// policy always yield the identical placement sequence.
func Generate(logger zerolog.Logger, ix *footage.Index, pol Policy) ([]Placement, error) {
	if pol.Period <= 0 {
		return nil, &InfeasibleError{Reason: fmt.Sprintf("period must be positive, got %f", pol.Period)}
	}
	if min := ix.MinDuration(); pol.Period > min {
		return nil, &InfeasibleError{
			Reason: fmt.Sprintf("period %.2fs exceeds shortest footage file (%.2fs)", pol.Period, min),
		}
	}

	count := int(math.Ceil(pol.TotalLength / pol.Period))
	if count <= 0 {
		return []Placement{}, nil
	}

	log := logger.With().Str("component", "schedule").Logger()
	log.Info().
		Int("clips", count).
		Float64("period", pol.Period).
		Bool("shuffle", pol.Shuffle).
		Str("seed", pol.Seed).
		Msg("scheduling clips")

	rng := rand.New(rand.NewSource(seedValue(pol.Seed)))

	var placements []Placement
	for attempt := 0; ; attempt++ {
		if attempt == maxScheduleAttempts {
			return nil, &InfeasibleError{
				Reason: fmt.Sprintf("could not place %d clips of %.2fs with %.2fs spacing in %.2fs of footage",
					count, pol.Period, pol.Spacing(), ix.Total),
			}
		}
		var ok bool
		placements, ok = draw(log, rng, ix, pol, count)
		if ok {
			break
		}
		log.Debug().Int("attempt", attempt+1).Msg("schedule jammed, restarting")
	}

	if !pol.Shuffle {
		sort.Slice(placements, func(a, b int) bool {
			return placements[a].TimelineStart < placements[b].TimelineStart
		})
	}

	return placements, nil
}

// draw attempts one full schedule; false means the sequential sampling
// dead-ended and the caller should restart.
func draw(log zerolog.Logger, rng *rand.Rand, ix *footage.Index, pol Policy, count int) ([]Placement, bool) {
	spacing := pol.Spacing()

	bag := make([]footage.Entry, len(ix.Entries))
	copy(bag, ix.Entries)

	placements := make([]Placement, 0, count)
	starts := make([]float64, 0, count)

	for i := 0; i < count; i++ {
		var placed bool
		for attempt := 0; attempt < maxDrawAttempts; attempt++ {
			var entry footage.Entry
			var offset float64

			if len(bag) > 0 {
				// Round-robin sampler: random entry from the bag, random
				// offset that fits inside it.
				pick := rng.Intn(len(bag))
				entry = bag[pick]
				offset = rng.Float64() * (entry.Duration - pol.Period)
				if !fitsSpacing(starts, entry.Start+offset, spacing) {
					continue
				}
				bag = append(bag[:pick], bag[pick+1:]...)
			} else {
				// Timeline sampler: uniform point on the virtual timeline,
				// resolved to the entry covering it.
				point := rng.Float64() * (ix.Total - pol.Period)
				covering, ok := ix.At(point)
				if !ok {
					continue
				}
				entry = covering
				offset = point - entry.Start
				if offset+pol.Period > entry.Duration {
					continue
				}
				if !fitsSpacing(starts, entry.Start+offset, spacing) {
					continue
				}
			}

			start := entry.Start + offset
			starts = append(starts, start)
			placements = append(placements, Placement{
				TimelineStart: start,
				SourcePath:    entry.Path,
				SourceOffset:  offset,
				Duration:      pol.Period,
			})
			log.Debug().
				Str("source", entry.Path).
				Float64("offset", offset).
				Msg("cutting")
			placed = true
			break
		}
		if !placed {
			return nil, false
		}
	}

	return placements, true
}

// fitsSpacing reports whether a candidate start keeps the minimum distance
// from every accepted start.
func fitsSpacing(starts []float64, candidate, spacing float64) bool {
	for _, s := range starts {
		if math.Abs(s-candidate) < spacing {
			return false
		}
	}
	return true
}

// seedValue hashes a seed string into a deterministic random source
func seedValue(seed string) int64 {
	h := fnv.New64a()
	h.Write([]byte(seed))
	return int64(h.Sum64())
}
