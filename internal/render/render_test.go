package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/alga/collagen/internal/ffmpeg"
	"github.com/alga/collagen/internal/footage"
	"github.com/alga/collagen/internal/schedule"
)

// fakeEngine records every call and creates empty files in place of ffmpeg
// output so concat inputs resolve.
type fakeEngine struct {
	mu sync.Mutex

	cuts      []ffmpeg.CutOptions
	cutInputs []string
	concats   []ffmpeg.ConcatOptions
	finalizes []ffmpeg.FinalizeOptions

	failCutFor string
}

func (f *fakeEngine) Cut(_ context.Context, input string, opts ffmpeg.CutOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCutFor != "" && input == f.failCutFor {
		return fmt.Errorf("cut failed for %s: boom", input)
	}
	f.cutInputs = append(f.cutInputs, input)
	f.cuts = append(f.cuts, opts)
	return os.WriteFile(opts.Output, nil, 0644)
}

func (f *fakeEngine) Concat(_ context.Context, opts ffmpeg.ConcatOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.concats = append(f.concats, opts)
	return os.WriteFile(opts.Output, nil, 0644)
}

func (f *fakeEngine) Finalize(_ context.Context, opts ffmpeg.FinalizeOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finalizes = append(f.finalizes, opts)
	return os.WriteFile(opts.Output, nil, 0644)
}

func testPlacements(n int) []schedule.Placement {
	placements := make([]schedule.Placement, n)
	for i := range placements {
		placements[i] = schedule.Placement{
			TimelineStart: float64(i) * 2,
			SourcePath:    fmt.Sprintf("/footage/clip%02d.mp4", i),
			SourceOffset:  float64(i),
			Duration:      2,
		}
	}
	return placements
}

func testIndex() *footage.Index {
	return &footage.Index{
		Entries: []footage.Entry{{Start: 0, Path: "/footage/clip00.mp4", Duration: 100}},
		Total:   100,
	}
}

func TestPlanBatches(t *testing.T) {
	tests := []struct {
		n, size int
		want    [][2]int
	}{
		{0, 20, nil},
		{1, 20, [][2]int{{0, 1}}},
		{20, 20, [][2]int{{0, 20}}},
		{21, 20, [][2]int{{0, 20}, {20, 21}}},
		{45, 20, [][2]int{{0, 20}, {20, 40}, {40, 45}}},
		{5, 2, [][2]int{{0, 2}, {2, 4}, {4, 5}}},
	}
	for _, tt := range tests {
		got := planBatches(tt.n, tt.size)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("planBatches(%d, %d) = %v, want %v", tt.n, tt.size, got, tt.want)
		}
	}
}

func TestRealizeSingleBatch(t *testing.T) {
	engine := &fakeEngine{}
	b := NewBackend(zerolog.Nop(), engine, Options{
		TempDir: t.TempDir(),
		Bitrate: "5000k",
		Audio:   "/music/track.m4a",
	})

	dest := filepath.Join(t.TempDir(), "out.mp4")
	if err := b.Realize(context.Background(), testIndex(), testPlacements(3), dest); err != nil {
		t.Fatalf("Realize: %v", err)
	}

	if len(engine.cuts) != 3 {
		t.Fatalf("cuts = %d, want 3", len(engine.cuts))
	}
	// Three clips fit in one batch, so there is exactly one concat and no
	// extra join step.
	if len(engine.concats) != 1 {
		t.Fatalf("concats = %d, want 1", len(engine.concats))
	}
	if len(engine.concats[0].Inputs) != 3 {
		t.Errorf("batch inputs = %d, want 3", len(engine.concats[0].Inputs))
	}

	if len(engine.finalizes) != 1 {
		t.Fatalf("finalizes = %d, want 1", len(engine.finalizes))
	}
	fin := engine.finalizes[0]
	if fin.Output != dest {
		t.Errorf("finalize output = %q, want %q", fin.Output, dest)
	}
	if fin.Audio != "/music/track.m4a" {
		t.Errorf("finalize audio = %q", fin.Audio)
	}
	if fin.AudioLength != 6 {
		t.Errorf("finalize audio length = %v, want 6", fin.AudioLength)
	}
	if fin.FadeOut != DefaultFadeOut {
		t.Errorf("finalize fade = %v, want %v", fin.FadeOut, DefaultFadeOut)
	}
	if fin.ProgressFunc == nil {
		t.Errorf("finalize progress handler not set")
	}
}

func TestRealizeBatchesInOrder(t *testing.T) {
	engine := &fakeEngine{}
	b := NewBackend(zerolog.Nop(), engine, Options{
		BatchSize: 2,
		Workers:   1,
		TempDir:   t.TempDir(),
	})

	dest := filepath.Join(t.TempDir(), "out.mp4")
	if err := b.Realize(context.Background(), testIndex(), testPlacements(5), dest); err != nil {
		t.Fatalf("Realize: %v", err)
	}

	// Batches of [2,2,1] plus the final join of the three intermediates
	if len(engine.concats) != 4 {
		t.Fatalf("concats = %d, want 4", len(engine.concats))
	}
	join := engine.concats[3]
	if len(join.Inputs) != 3 {
		t.Fatalf("join inputs = %d, want 3", len(join.Inputs))
	}
	for i, in := range join.Inputs {
		if !strings.Contains(in, fmt.Sprintf("batch_%03d", i)) {
			t.Errorf("join input %d = %q, out of order", i, in)
		}
	}

	// Workers=1 serializes cuts, so sources arrive in placement order
	for i, in := range engine.cutInputs {
		if want := fmt.Sprintf("/footage/clip%02d.mp4", i); in != want {
			t.Errorf("cut %d input = %q, want %q", i, in, want)
		}
	}
}

func TestRealizeCutDimensions(t *testing.T) {
	engine := &fakeEngine{}
	b := NewBackend(zerolog.Nop(), engine, Options{
		Width:   1280,
		Height:  720,
		TempDir: t.TempDir(),
	})

	dest := filepath.Join(t.TempDir(), "out.mp4")
	if err := b.Realize(context.Background(), testIndex(), testPlacements(1), dest); err != nil {
		t.Fatalf("Realize: %v", err)
	}

	cut := engine.cuts[0]
	if cut.Width != 1280 || cut.Height != 720 {
		t.Errorf("cut dimensions = %dx%d, want 1280x720", cut.Width, cut.Height)
	}
	if cut.Start != 0 || cut.Duration != 2 {
		t.Errorf("cut window = %v+%v, want 0+2", cut.Start, cut.Duration)
	}
}

func TestRealizeFailureNamesSource(t *testing.T) {
	engine := &fakeEngine{failCutFor: "/footage/clip01.mp4"}
	b := NewBackend(zerolog.Nop(), engine, Options{
		Workers: 1,
		TempDir: t.TempDir(),
	})

	dest := filepath.Join(t.TempDir(), "out.mp4")
	err := b.Realize(context.Background(), testIndex(), testPlacements(3), dest)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "/footage/clip01.mp4") {
		t.Errorf("error %q does not name the failing source", err)
	}
	if len(engine.finalizes) != 0 {
		t.Errorf("finalize ran after failed batch")
	}
}

func TestRealizeEmptyPlacements(t *testing.T) {
	engine := &fakeEngine{}
	b := NewBackend(zerolog.Nop(), engine, Options{TempDir: t.TempDir()})

	dest := filepath.Join(t.TempDir(), "out.mp4")
	if err := b.Realize(context.Background(), testIndex(), nil, dest); err != nil {
		t.Fatalf("Realize: %v", err)
	}

	if len(engine.cuts)+len(engine.concats)+len(engine.finalizes) != 0 {
		t.Errorf("engine invoked for empty placement list")
	}
	if _, err := os.Stat(dest); err != nil {
		t.Errorf("empty output not written: %v", err)
	}
}

func TestOptionsNormalize(t *testing.T) {
	var o Options
	o.normalize()
	if o.BatchSize != DefaultBatchSize {
		t.Errorf("BatchSize = %d, want %d", o.BatchSize, DefaultBatchSize)
	}
	if o.Workers != DefaultWorkers {
		t.Errorf("Workers = %d, want %d", o.Workers, DefaultWorkers)
	}
	if o.FadeOut != DefaultFadeOut {
		t.Errorf("FadeOut = %v, want %v", o.FadeOut, DefaultFadeOut)
	}
	if o.FPS != 30 {
		t.Errorf("FPS = %d, want 30", o.FPS)
	}
	if o.Codec != ffmpeg.DefaultVideoCodec {
		t.Errorf("Codec = %q, want %q", o.Codec, ffmpeg.DefaultVideoCodec)
	}
}
