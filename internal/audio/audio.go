// Package audio resolves the soundtrack for a run, either from a local file
// or from a remote identifier cached on disk.
package audio

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Downloader fetches the audio stream for a remote identifier into destDir
// and returns the downloaded file's path.
type Downloader interface {
	Download(ctx context.Context, id, destDir string) (string, error)
}

// PeriodDetector reports the beat period of an audio track in seconds.
// Period analysis itself lives outside this tool; FixedPeriod covers the
// common case of a caller-supplied value.
type PeriodDetector interface {
	Period(ctx context.Context, audioPath string) (float64, error)
}

// FixedPeriod is a PeriodDetector that always returns its own value
type FixedPeriod float64

func (p FixedPeriod) Period(ctx context.Context, audioPath string) (float64, error) {
	if p <= 0 {
		return 0, fmt.Errorf("period must be positive, got %f", float64(p))
	}
	return float64(p), nil
}

// Resolver turns a remote identifier into a local audio file, checking the
// cache directory before downloading.
type Resolver struct {
	logger     zerolog.Logger
	cacheDir   string
	downloader Downloader
}

// NewResolver creates a resolver over the given cache directory
func NewResolver(logger zerolog.Logger, cacheDir string, downloader Downloader) *Resolver {
	return &Resolver{
		logger:     logger.With().Str("component", "audio").Logger(),
		cacheDir:   cacheDir,
		downloader: downloader,
	}
}

// Resolve returns a local file for the identifier. A cached file named
// <id>.<any extension> wins; otherwise the downloader is invoked.
func (r *Resolver) Resolve(ctx context.Context, id string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(r.cacheDir, id+".*"))
	if err != nil {
		return "", fmt.Errorf("bad audio cache pattern: %w", err)
	}
	if len(matches) > 0 {
		r.logger.Debug().Str("id", id).Str("path", matches[0]).Msg("audio cache hit")
		return matches[0], nil
	}

	if r.downloader == nil {
		return "", fmt.Errorf("audio %s not cached and no downloader configured", id)
	}

	r.logger.Info().Str("id", id).Msg("downloading audio")
	path, err := r.downloader.Download(ctx, id, r.cacheDir)
	if err != nil {
		return "", fmt.Errorf("audio download failed for %s: %w", id, err)
	}
	return path, nil
}

// YTDLP downloads the audio-only stream of a video with the yt-dlp binary
type YTDLP struct {
	logger zerolog.Logger
	path   string
}

// NewYTDLP locates the yt-dlp binary
func NewYTDLP(logger zerolog.Logger) (*YTDLP, error) {
	path, err := exec.LookPath("yt-dlp")
	if err != nil {
		return nil, fmt.Errorf("yt-dlp not found in PATH: %w", err)
	}
	return &YTDLP{
		logger: logger.With().Str("component", "ytdlp").Logger(),
		path:   path,
	}, nil
}

// Download fetches the best audio-only stream as <id>.<ext> under destDir
func (y *YTDLP) Download(ctx context.Context, id, destDir string) (string, error) {
	template := filepath.Join(destDir, id+".%(ext)s")
	args := []string{
		"-f", "bestaudio",
		"-o", template,
		"--no-playlist",
		"https://www.youtube.com/watch?v=" + id,
	}

	y.logger.Debug().Strs("args", args).Msg("running yt-dlp")

	cmd := exec.CommandContext(ctx, y.path, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("yt-dlp failed: %w: %s", err, out)
	}

	matches, err := filepath.Glob(filepath.Join(destDir, id+".*"))
	if err != nil || len(matches) == 0 {
		return "", fmt.Errorf("yt-dlp produced no file for %s", id)
	}
	return matches[0], nil
}
