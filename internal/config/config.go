// Package config provides configuration for the clipdeck engine.
// Settings are loaded from an optional TOML file, then overridden by
// environment variables.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

const (
	// Environment variable names
	EnvPort        = "CLIPDECK_PORT"
	EnvBind        = "CLIPDECK_BIND"
	EnvDataDir     = "CLIPDECK_DATA_DIR"
	EnvOutputDir   = "CLIPDECK_OUTPUT_DIR"
	EnvLogLevel    = "CLIPDECK_LOG_LEVEL"
	EnvFFmpegPath  = "CLIPDECK_FFMPEG"
	EnvFFprobePath = "CLIPDECK_FFPROBE"

	// Default values
	DefaultPort     = 8090
	DefaultBind     = "127.0.0.1"
	DefaultDataDir  = ".clipdeck-engine"
	DefaultLogLevel = "info"

	// Database filename
	DBFilename = "clipdeck.db"

	// ConfigFilename is the config file looked up under the data directory
	// when no explicit path is given.
	ConfigFilename = "config.toml"
)

// Server contains the HTTP listener settings.
type Server struct {
	Bind string `toml:"bind"`
	Port int    `toml:"port"`
}

// Paths contains directory configuration.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	WorkDir   string `toml:"work_dir"`   // Default: <data_dir>/work
	OutputDir string `toml:"output_dir"` // Default: <data_dir>/output
}

// Render contains compositing pipeline settings.
type Render struct {
	SceneWorkers      int    `toml:"scene_workers"`
	JobTimeoutSeconds int    `toml:"job_timeout_seconds"`
	OutputFormat      string `toml:"output_format"`
}

// Media contains external encoder tool settings.
type Media struct {
	FFmpegPath           string `toml:"ffmpeg_path"`
	FFprobePath          string `toml:"ffprobe_path"`
	ProbeTimeoutSeconds  int    `toml:"probe_timeout_seconds"`
	RenderTimeoutSeconds int    `toml:"render_timeout_seconds"`
	ConcatTimeoutSeconds int    `toml:"concat_timeout_seconds"`
}

// Footage contains source-video download settings.
type Footage struct {
	FetchTimeoutSeconds int   `toml:"fetch_timeout_seconds"`
	MaxBytes            int64 `toml:"max_bytes"`
}

// Logging contains log output settings.
type Logging struct {
	Level string `toml:"level"`
}

// Config is the root configuration.
type Config struct {
	Server  Server  `toml:"server"`
	Paths   Paths   `toml:"paths"`
	Render  Render  `toml:"render"`
	Media   Media   `toml:"media"`
	Footage Footage `toml:"footage"`
	Logging Logging `toml:"logging"`
}

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		Server: Server{
			Bind: DefaultBind,
			Port: DefaultPort,
		},
		Paths: Paths{
			DataDir: defaultDataDir(),
		},
		Render: Render{
			SceneWorkers:      3,
			JobTimeoutSeconds: 60,
			OutputFormat:      "mp4",
		},
		Media: Media{
			FFmpegPath:           "ffmpeg",
			FFprobePath:          "ffprobe",
			ProbeTimeoutSeconds:  15,
			RenderTimeoutSeconds: 45,
			ConcatTimeoutSeconds: 30,
		},
		Footage: Footage{
			FetchTimeoutSeconds: 120,
			MaxBytes:            2 * 1024 * 1024 * 1024, // 2GB
		},
		Logging: Logging{
			Level: DefaultLogLevel,
		},
	}
}

// Load builds the configuration: defaults, then the TOML file at path (or
// the default location if path is empty; a missing file is not an error),
// then environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = filepath.Join(cfg.Paths.DataDir, ConfigFilename)
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// No config file; defaults and environment apply.
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.fillDerived()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		c.Server.Port = port
	}
	if b := os.Getenv(EnvBind); b != "" {
		c.Server.Bind = b
	}
	if dd := os.Getenv(EnvDataDir); dd != "" {
		c.Paths.DataDir = dd
	}
	if od := os.Getenv(EnvOutputDir); od != "" {
		c.Paths.OutputDir = od
	}
	if ll := os.Getenv(EnvLogLevel); ll != "" {
		c.Logging.Level = ll
	}
	if ff := os.Getenv(EnvFFmpegPath); ff != "" {
		c.Media.FFmpegPath = ff
	}
	if fp := os.Getenv(EnvFFprobePath); fp != "" {
		c.Media.FFprobePath = fp
	}
	return nil
}

func (c *Config) fillDerived() {
	if c.Paths.WorkDir == "" {
		c.Paths.WorkDir = filepath.Join(c.Paths.DataDir, "work")
	}
	if c.Paths.OutputDir == "" {
		c.Paths.OutputDir = filepath.Join(c.Paths.DataDir, "output")
	}
}

// Validate reports the first invalid setting found.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir is required")
	}
	if c.Render.SceneWorkers < 1 {
		return fmt.Errorf("render.scene_workers must be at least 1, got %d", c.Render.SceneWorkers)
	}
	if c.Render.JobTimeoutSeconds < 1 {
		return fmt.Errorf("render.job_timeout_seconds must be at least 1, got %d", c.Render.JobTimeoutSeconds)
	}
	switch c.Render.OutputFormat {
	case "mp4", "mov", "mkv":
	default:
		return fmt.Errorf("render.output_format must be one of mp4, mov, mkv, got %q", c.Render.OutputFormat)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	if c.Footage.MaxBytes < 0 {
		return fmt.Errorf("footage.max_bytes must not be negative, got %d", c.Footage.MaxBytes)
	}
	return nil
}

// DBPath returns the full path to the SQLite database file.
func (c *Config) DBPath() string {
	return filepath.Join(c.Paths.DataDir, DBFilename)
}

// Sample returns the annotated sample configuration file contents.
func Sample() string {
	return sampleConfig
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
