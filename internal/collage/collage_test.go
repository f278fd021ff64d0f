package collage

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/alga/collagen/internal/audio"
	"github.com/alga/collagen/internal/footage"
	"github.com/alga/collagen/internal/schedule"
)

type fakeReader struct {
	durations map[string]float64
}

func (f *fakeReader) Duration(_ context.Context, path string) (float64, error) {
	if d, ok := f.durations[path]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("no such file %s", path)
}

// beatDetector fakes period analysis of the soundtrack
type beatDetector struct {
	period  float64
	gotPath string
}

func (b *beatDetector) Period(_ context.Context, audioPath string) (float64, error) {
	b.gotPath = audioPath
	if b.period <= 0 {
		return 0, fmt.Errorf("no beat found")
	}
	return b.period, nil
}

type captureBackend struct {
	ix         *footage.Index
	placements []schedule.Placement
	dest       string
	err        error
}

func (c *captureBackend) Realize(_ context.Context, ix *footage.Index, placements []schedule.Placement, dest string) error {
	c.ix = ix
	c.placements = placements
	c.dest = dest
	return c.err
}

func TestRunPipeline(t *testing.T) {
	reader := &fakeReader{durations: map[string]float64{
		"/footage/a.mp4": 30,
		"/footage/b.mp4": 20,
	}}
	backend := &captureBackend{}
	g := NewGenerator(zerolog.Nop(), reader, audio.FixedPeriod(2), backend)

	err := g.Run(context.Background(), Params{
		Sources: []string{"/footage/a.mp4", "/footage/b.mp4"},
		Output:  "/out/collage.mp4",
		Length:  12,
		Seed:    "amaze me",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if backend.dest != "/out/collage.mp4" {
		t.Errorf("dest = %q", backend.dest)
	}
	if backend.ix == nil || backend.ix.Total != 50 {
		t.Errorf("index not passed through")
	}
	if len(backend.placements) != 6 {
		t.Errorf("placements = %d, want 6", len(backend.placements))
	}
}

func TestRunLengthFromSoundtrack(t *testing.T) {
	reader := &fakeReader{durations: map[string]float64{
		"/footage/a.mp4":  30,
		"/music/song.m4a": 9,
	}}
	backend := &captureBackend{}
	g := NewGenerator(zerolog.Nop(), reader, audio.FixedPeriod(3), backend)

	err := g.Run(context.Background(), Params{
		Sources: []string{"/footage/a.mp4"},
		Output:  "/out/collage.mp4",
		Seed:    "amaze me",
		Audio:   "/music/song.m4a",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// 9 seconds at a 3 second period is exactly three clips
	if len(backend.placements) != 3 {
		t.Errorf("placements = %d, want 3", len(backend.placements))
	}
}

func TestRunPeriodFromDetector(t *testing.T) {
	reader := &fakeReader{durations: map[string]float64{"/footage/a.mp4": 60}}
	backend := &captureBackend{}
	detector := &beatDetector{period: 3}
	g := NewGenerator(zerolog.Nop(), reader, detector, backend)

	err := g.Run(context.Background(), Params{
		Sources: []string{"/footage/a.mp4"},
		Output:  "/out/collage.mp4",
		Length:  9,
		Seed:    "amaze me",
		Audio:   "/music/song.m4a",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if detector.gotPath != "/music/song.m4a" {
		t.Errorf("detector path = %q, want the soundtrack", detector.gotPath)
	}
	if len(backend.placements) != 3 {
		t.Fatalf("placements = %d, want 3", len(backend.placements))
	}
	for _, p := range backend.placements {
		if p.Duration != 3 {
			t.Errorf("duration = %v, want the detected period", p.Duration)
		}
	}
}

func TestRunDetectorErrorPropagates(t *testing.T) {
	reader := &fakeReader{durations: map[string]float64{"/footage/a.mp4": 60}}
	g := NewGenerator(zerolog.Nop(), reader, &beatDetector{}, &captureBackend{})

	err := g.Run(context.Background(), Params{
		Sources: []string{"/footage/a.mp4"},
		Output:  "/out/collage.mp4",
		Length:  9,
		Seed:    "amaze me",
	})
	if err == nil || !strings.Contains(err.Error(), "period") {
		t.Errorf("err = %v, want period resolution failure", err)
	}
}

func TestRunMultiplierScalesPeriod(t *testing.T) {
	reader := &fakeReader{durations: map[string]float64{"/footage/a.mp4": 60}}
	backend := &captureBackend{}
	g := NewGenerator(zerolog.Nop(), reader, audio.FixedPeriod(2), backend)

	err := g.Run(context.Background(), Params{
		Sources:    []string{"/footage/a.mp4"},
		Output:     "/out/collage.mp4",
		Length:     12,
		Multiplier: 2,
		Seed:       "amaze me",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(backend.placements) != 3 {
		t.Fatalf("placements = %d, want 3", len(backend.placements))
	}
	for _, p := range backend.placements {
		if p.Duration != 4 {
			t.Errorf("duration = %v, want 4", p.Duration)
		}
	}
}

func TestRunNoLengthNoAudio(t *testing.T) {
	g := NewGenerator(zerolog.Nop(), &fakeReader{}, audio.FixedPeriod(2), &captureBackend{})

	err := g.Run(context.Background(), Params{
		Sources: []string{"/footage/a.mp4"},
	})
	if err == nil || !strings.Contains(err.Error(), "length") {
		t.Errorf("err = %v, want length requirement", err)
	}
}

func TestRunUnreadableSoundtrack(t *testing.T) {
	g := NewGenerator(zerolog.Nop(), &fakeReader{}, audio.FixedPeriod(2), &captureBackend{})

	err := g.Run(context.Background(), Params{
		Sources: []string{"/footage/a.mp4"},
		Audio:   "/music/missing.m4a",
	})
	if err == nil || !strings.Contains(err.Error(), "soundtrack") {
		t.Errorf("err = %v, want soundtrack probe failure", err)
	}
}

func TestRunBackendErrorPropagates(t *testing.T) {
	reader := &fakeReader{durations: map[string]float64{"/footage/a.mp4": 30}}
	backend := &captureBackend{err: fmt.Errorf("disk full")}
	g := NewGenerator(zerolog.Nop(), reader, audio.FixedPeriod(2), backend)

	err := g.Run(context.Background(), Params{
		Sources: []string{"/footage/a.mp4"},
		Output:  "/out/collage.mp4",
		Length:  6,
		Seed:    "amaze me",
	})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("err = %v, want backend error", err)
	}
}
