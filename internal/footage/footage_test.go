package footage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
)

// fakeReader scripts per-path durations; a negative value means an open error
type fakeReader struct {
	durations map[string]float64
	calls     int
}

func (f *fakeReader) Duration(ctx context.Context, path string) (float64, error) {
	f.calls++
	d, ok := f.durations[path]
	if !ok {
		return 0, errors.New("no such file")
	}
	if d < 0 {
		return 0, errors.New("unreadable")
	}
	return d, nil
}

func TestLoadBuildsRunningOffsets(t *testing.T) {
	reader := &fakeReader{durations: map[string]float64{
		"a.mp4": 10,
		"b.mp4": 5,
		"c.mp4": 2.5,
	}}

	ix, err := Load(context.Background(), zerolog.Nop(), reader, []string{"a.mp4", "b.mp4", "c.mp4"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	wantStarts := []float64{0, 10, 15}
	for i, e := range ix.Entries {
		if e.Start != wantStarts[i] {
			t.Errorf("entry %d start = %v, want %v", i, e.Start, wantStarts[i])
		}
	}
	if ix.Total != 17.5 {
		t.Errorf("total = %v, want 17.5", ix.Total)
	}
	if reader.calls != 3 {
		t.Errorf("reader called %d times, want 3 (one per file)", reader.calls)
	}
}

func TestLoadUnreadableFileIsFatal(t *testing.T) {
	reader := &fakeReader{durations: map[string]float64{
		"a.mp4": 10,
		"b.mp4": -1,
	}}

	_, err := Load(context.Background(), zerolog.Nop(), reader, []string{"a.mp4", "b.mp4"})
	var openErr *OpenError
	if !errors.As(err, &openErr) {
		t.Fatalf("want *OpenError, got %v", err)
	}
	if openErr.Path != "b.mp4" {
		t.Errorf("error names %q, want b.mp4", openErr.Path)
	}
}

func TestLoadZeroDurationIsFatal(t *testing.T) {
	reader := &fakeReader{durations: map[string]float64{"a.mp4": 0}}

	_, err := Load(context.Background(), zerolog.Nop(), reader, []string{"a.mp4"})
	var openErr *OpenError
	if !errors.As(err, &openErr) {
		t.Fatalf("want *OpenError for zero duration, got %v", err)
	}
}

func TestLoadEmptyList(t *testing.T) {
	if _, err := Load(context.Background(), zerolog.Nop(), &fakeReader{}, nil); err == nil {
		t.Error("expected error for empty footage list")
	}
}

func TestAt(t *testing.T) {
	ix := &Index{
		Entries: []Entry{
			{Start: 0, Path: "a.mp4", Duration: 10},
			{Start: 10, Path: "b.mp4", Duration: 5},
		},
		Total: 15,
	}

	cases := []struct {
		point float64
		want  string
		ok    bool
	}{
		{0, "a.mp4", true},
		{9.999, "a.mp4", true},
		{10, "b.mp4", true},
		{14.9, "b.mp4", true},
		{15, "", false},
		{-1, "", false},
	}
	for _, tc := range cases {
		e, ok := ix.At(tc.point)
		if ok != tc.ok {
			t.Errorf("At(%v) ok = %v, want %v", tc.point, ok, tc.ok)
			continue
		}
		if ok && e.Path != tc.want {
			t.Errorf("At(%v) = %q, want %q", tc.point, e.Path, tc.want)
		}
	}
}

func TestMinDuration(t *testing.T) {
	ix := &Index{Entries: []Entry{
		{Duration: 10}, {Duration: 2}, {Duration: 5},
	}}
	if got := ix.MinDuration(); got != 2 {
		t.Errorf("MinDuration = %v, want 2", got)
	}
}

func ExampleIndex_At() {
	ix := &Index{
		Entries: []Entry{
			{Start: 0, Path: "first.mp4", Duration: 10},
			{Start: 10, Path: "second.mp4", Duration: 5},
		},
		Total: 15,
	}
	e, _ := ix.At(12)
	fmt.Println(e.Path)
	// Output: second.mp4
}
