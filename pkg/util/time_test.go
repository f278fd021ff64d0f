package util

import "testing"

func TestFormatSeconds(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "00:00:00.000"},
		{1.5, "00:00:01.500"},
		{61.25, "00:01:01.250"},
		{3723.004, "01:02:03.004"},
	}
	for _, tc := range cases {
		if got := FormatSeconds(tc.in); got != tc.want {
			t.Errorf("FormatSeconds(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTimecodeTruncates(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "00:00:00.000"},
		{5.0, "00:00:05.000"},
		{3599.9999, "00:59:59.999"},
		{12.3456, "00:00:12.345"},
		{-1, "00:00:00.000"},
	}
	for _, tc := range cases {
		if got := Timecode(tc.in); got != tc.want {
			t.Errorf("Timecode(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseFrameRate(t *testing.T) {
	num, den, err := ParseFrameRate("30000/1001")
	if err != nil {
		t.Fatalf("ParseFrameRate: %v", err)
	}
	if num != 30000 || den != 1001 {
		t.Errorf("got %d/%d, want 30000/1001", num, den)
	}

	num, den, err = ParseFrameRate("25")
	if err != nil {
		t.Fatalf("ParseFrameRate: %v", err)
	}
	if num != 25 || den != 1 {
		t.Errorf("got %d/%d, want 25/1", num, den)
	}

	num, den, err = ParseFrameRate("30/0")
	if err != nil {
		t.Fatalf("ParseFrameRate: %v", err)
	}
	if den != 1 {
		t.Errorf("zero denominator should fall back to 1, got %d", den)
	}

	if _, _, err := ParseFrameRate("abc"); err == nil {
		t.Error("expected error for malformed frame rate")
	}
}

func TestGCD(t *testing.T) {
	if got := GCD(1920, 1080); got != 120 {
		t.Errorf("GCD(1920,1080) = %d, want 120", got)
	}
}
