package config

import (
	"context"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	// Core settings
	TempDir       string `yaml:"temp_dir"`
	AudioCacheDir string `yaml:"audio_cache_dir"`

	// FFmpeg settings
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`

	// Render settings
	Render RenderConfig `yaml:"render"`

	// Project-file settings
	Project ProjectConfig `yaml:"project"`
}

type FFmpegConfig struct {
	Threads int    `yaml:"threads"`
	Preset  string `yaml:"preset"`
}

type RenderConfig struct {
	BatchSize int    `yaml:"batch_size"`
	Workers   int    `yaml:"workers"`
	FPS       int    `yaml:"fps"`
	Bitrate   string `yaml:"bitrate"`
	Codec     string `yaml:"codec"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
}

type ProjectConfig struct {
	// Fallback profile used when the first source file cannot be probed
	Width        int `yaml:"width"`
	Height       int `yaml:"height"`
	FrameRateNum int `yaml:"frame_rate_num"`
	FrameRateDen int `yaml:"frame_rate_den"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func defaultConfig() *Config {
	return &Config{
		TempDir:       os.TempDir(),
		AudioCacheDir: os.TempDir(),
		FFmpeg: FFmpegConfig{
			Threads: 0,
			Preset:  "medium",
		},
		Render: RenderConfig{
			BatchSize: 20,
			Workers:   4,
			FPS:       30,
			Bitrate:   "5000k",
			Codec:     "libx264",
			Width:     1920,
			Height:    1080,
		},
		Project: ProjectConfig{
			Width:        1920,
			Height:       1080,
			FrameRateNum: 30000,
			FrameRateDen: 1001,
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./collagen.yaml",
		"./collagen.yml",
		filepath.Join(os.Getenv("HOME"), ".collagen", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
