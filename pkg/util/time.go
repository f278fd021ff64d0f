package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatSeconds converts seconds to the ffmpeg timestamp format HH:MM:SS.mmm.
func FormatSeconds(seconds float64) string {
	hours := int(seconds / 3600)
	minutes := int((seconds - float64(hours*3600)) / 60)
	secs := seconds - float64(hours*3600) - float64(minutes*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", hours, minutes, secs)
}

// Timecode converts seconds to the Shotcut timecode format HH:MM:SS.mmm.
// Milliseconds are truncated, not rounded, matching what Shotcut writes.
func Timecode(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := int(seconds / 3600)
	minutes := int(math.Mod(seconds, 3600) / 60)
	secs := int(math.Mod(seconds, 60))
	msecs := int(math.Mod(seconds, 1) * 1000)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, secs, msecs)
}

// ParseFrameRate parses an ffprobe rational frame rate ("30000/1001" or "25")
// into numerator and denominator. A zero or negative denominator falls back to 1.
func ParseFrameRate(s string) (num, den int, err error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	switch len(parts) {
	case 1:
		f, perr := strconv.ParseFloat(parts[0], 64)
		if perr != nil {
			return 0, 0, fmt.Errorf("invalid frame rate %q", s)
		}
		return int(f), 1, nil
	case 2:
		num, err = strconv.Atoi(parts[0])
		if err != nil {
			return 0, 0, fmt.Errorf("invalid frame rate %q", s)
		}
		den, err = strconv.Atoi(parts[1])
		if err != nil {
			return 0, 0, fmt.Errorf("invalid frame rate %q", s)
		}
		if den <= 0 {
			den = 1
		}
		return num, den, nil
	default:
		return 0, 0, fmt.Errorf("invalid frame rate %q", s)
	}
}

// GCD returns the greatest common divisor of two positive integers.
func GCD(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
