package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/alga/collagen/internal/audio"
	"github.com/alga/collagen/internal/collage"
	"github.com/alga/collagen/internal/config"
	"github.com/alga/collagen/internal/ffmpeg"
	"github.com/alga/collagen/internal/logging"
	"github.com/alga/collagen/internal/mlt"
	"github.com/alga/collagen/internal/render"
	"github.com/alga/collagen/pkg/util"
)

var (
	cfgFile string
	verbose bool

	length        float64
	multiplier    float64
	period        float64
	seed          string
	shuffle       bool
	doubleSpacing bool
	flip          bool
	output        string
	bitrate       string
	audioPath     string
	youtubeAudio  string
)

func main() {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "collagen",
	Short: "collagen - randomized highlight collage generator",
	Long:  "Cuts short clips from a pool of footage at random and assembles them into a highlight video or a Shotcut project.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(verbose)

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./collagen.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	for _, cmd := range []*cobra.Command{renderCmd, projectCmd} {
		cmd.Flags().Float64VarP(&length, "length", "l", 0, "collage length in seconds (default: soundtrack length)")
		cmd.Flags().Float64VarP(&multiplier, "multiplier", "m", 1, "clip period multiplier")
		cmd.Flags().Float64VarP(&period, "period", "p", 2, "clip period in seconds")
		cmd.Flags().StringVarP(&seed, "seed", "s", "amaze me", "random seed")
		cmd.Flags().BoolVar(&shuffle, "shuffle", false, "keep clips in draw order instead of chronological")
		cmd.Flags().BoolVar(&doubleSpacing, "double-spacing", false, "keep clips at least two periods apart in the source")
		cmd.Flags().StringVarP(&output, "output", "o", "", "output file")
		cmd.Flags().StringVarP(&audioPath, "audio-path", "a", "", "soundtrack file")
		cmd.Flags().StringVarP(&youtubeAudio, "youtube-audio", "y", "", "soundtrack YouTube id or URL")
		cmd.MarkFlagsMutuallyExclusive("audio-path", "youtube-audio")
		_ = cmd.MarkFlagRequired("output")
	}
	renderCmd.Flags().BoolVarP(&flip, "flip", "f", false, "rotate the whole video 180 degrees")
	renderCmd.Flags().StringVarP(&bitrate, "bitrate", "b", "", "output video bitrate")

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config management commands",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the current configuration to a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		path := cfgFile
		if path == "" {
			path = "collagen.yaml"
		}

		if err := cfg.Save(path); err != nil {
			return err
		}

		log.Info().Str("path", path).Msg("configuration written")
		return nil
	},
}

var renderCmd = &cobra.Command{
	Use:   "render [footage files...]",
	Short: "Render the collage as an encoded video",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		exec, err := ffmpeg.New(log.Logger, cfg.FFmpeg.Threads, cfg.FFmpeg.Preset)
		if err != nil {
			return err
		}

		soundtrack, err := resolveSoundtrack(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		opts := render.Options{
			BatchSize: cfg.Render.BatchSize,
			Workers:   cfg.Render.Workers,
			Width:     cfg.Render.Width,
			Height:    cfg.Render.Height,
			FPS:       cfg.Render.FPS,
			Bitrate:   cfg.Render.Bitrate,
			Codec:     cfg.Render.Codec,
			Audio:     soundtrack,
			Flip:      flip,
			TempDir:   cfg.TempDir,
		}
		if bitrate != "" {
			opts.Bitrate = bitrate
		}

		backend := render.NewBackend(log.Logger, exec, opts)
		gen := collage.NewGenerator(log.Logger, exec, audio.FixedPeriod(period), backend)

		return gen.Run(cmd.Context(), collage.Params{
			Sources:       args,
			Output:        output,
			Length:        length,
			Multiplier:    multiplier,
			Seed:          seed,
			Shuffle:       shuffle,
			DoubleSpacing: doubleSpacing,
			Audio:         soundtrack,
		})
	},
}

var projectCmd = &cobra.Command{
	Use:   "project [footage files...]",
	Short: "Write the collage as a Shotcut project file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		exec, err := ffmpeg.New(log.Logger, cfg.FFmpeg.Threads, cfg.FFmpeg.Preset)
		if err != nil {
			return err
		}

		soundtrack, err := resolveSoundtrack(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		backend := mlt.NewBackend(log.Logger, exec, mlt.Fallback{
			Width:        cfg.Project.Width,
			Height:       cfg.Project.Height,
			FrameRateNum: cfg.Project.FrameRateNum,
			FrameRateDen: cfg.Project.FrameRateDen,
		})
		gen := collage.NewGenerator(log.Logger, exec, audio.FixedPeriod(period), backend)

		return gen.Run(cmd.Context(), collage.Params{
			Sources:       args,
			Output:        output,
			Length:        length,
			Multiplier:    multiplier,
			Seed:          seed,
			Shuffle:       shuffle,
			DoubleSpacing: doubleSpacing,
			Audio:         soundtrack,
		})
	},
}

// resolveSoundtrack maps the audio flags onto a local file: --audio-path is
// used as-is, --youtube-audio goes through the download cache.
func resolveSoundtrack(ctx context.Context, cfg *config.Config) (string, error) {
	if audioPath != "" {
		if !util.FileExists(audioPath) {
			return "", fmt.Errorf("soundtrack %s does not exist", audioPath)
		}
		return audioPath, nil
	}
	if youtubeAudio == "" {
		return "", nil
	}

	dl, err := audio.NewYTDLP(log.Logger)
	if err != nil {
		return "", err
	}

	resolver := audio.NewResolver(log.Logger, cfg.AudioCacheDir, dl)
	return resolver.Resolve(ctx, youtubeAudio)
}
