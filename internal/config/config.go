// Package config loads handvolume settings from a JSON file with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ayusman/handvolume/internal/capture"
	"github.com/ayusman/handvolume/internal/detector"
	"github.com/ayusman/handvolume/internal/gesture"
	"github.com/ayusman/handvolume/internal/volume"
)

// FileName is the name of the config file inside the config dir.
const FileName = "config.json"

// EnvPrefix prefixes environment overrides, e.g. HANDVOLUME_VOLUME_SMOOTHINGWINDOW.
const EnvPrefix = "HANDVOLUME"

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// VolumeConfig holds the pinch-to-volume calibration.
type VolumeConfig struct {
	MinDistance        float64 `json:"minDistance"`
	MaxDistance        float64 `json:"maxDistance"`
	MinVolume          float64 `json:"minVolume"`
	MaxVolume          float64 `json:"maxVolume"`
	SmoothingWindow    int     `json:"smoothingWindow"`
	PinchLandmarks     []int   `json:"pinchLandmarks"`
	MinChangeThreshold int     `json:"minChangeThreshold"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Enabled   bool   `json:"enabled"`
	Addr      string `json:"addr"`
	StaticDir string `json:"staticDir"`
}

// LoggingConfig controls log level and log files.
type LoggingConfig struct {
	Level     string
	Dir       string
	Retention time.Duration
}

// Config wraps a viper instance holding the merged file, env and default settings.
type Config struct {
	v   *viper.Viper
	dir string
}

// DefaultDir returns ~/.handvolume, or .handvolume when the home dir is unknown.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".handvolume"
	}
	return filepath.Join(home, ".handvolume")
}

// Load reads dir/config.json. A missing file is not an error: defaults apply.
func Load(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v, dir)

	v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
	v.SetConfigType("json")
	v.AddConfigPath(dir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return &Config{v: v, dir: dir}, nil
}

func setDefaults(v *viper.Viper, dir string) {
	v.SetDefault("logLevel", "info")
	v.SetDefault("logsDir", filepath.Join(dir, "logs"))
	v.SetDefault("logRetention", "168h")
	v.SetDefault("dataDir", dir)

	v.SetDefault("volume.minDistance", 0.02)
	v.SetDefault("volume.maxDistance", 0.3)
	v.SetDefault("volume.minVolume", 0)
	v.SetDefault("volume.maxVolume", 100)
	v.SetDefault("volume.smoothingWindow", 5)
	v.SetDefault("volume.pinchLandmarks", []int{detector.ThumbTip, detector.IndexTip})
	v.SetDefault("volume.minChangeThreshold", 2)

	v.SetDefault("camera.id", 0)
	v.SetDefault("camera.width", capture.DefaultWidth)
	v.SetDefault("camera.height", capture.DefaultHeight)
	v.SetDefault("camera.fps", capture.DefaultFPS)
	v.SetDefault("camera.flipHorizontal", true)

	v.SetDefault("detector.maxHands", 1)
	v.SetDefault("detector.minConfidence", 0.5)
	v.SetDefault("detector.minTrackingConfidence", 0.5)
	v.SetDefault("detector.idleTimeout", "30s")

	v.SetDefault("sink.type", volume.SinkAuto)
	v.SetDefault("sink.plugin", "system-control")
	v.SetDefault("sink.pluginDir", filepath.Join(dir, "plugins"))
	v.SetDefault("sink.timeout", "5s")

	v.SetDefault("server.enabled", true)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.staticDir", "")

	v.SetDefault("tray.enabled", false)
}

// Dir returns the directory the config was loaded from.
func (c *Config) Dir() string { return c.dir }

// Volume returns the volume calibration section.
func (c *Config) Volume() VolumeConfig {
	return VolumeConfig{
		MinDistance:        c.v.GetFloat64("volume.minDistance"),
		MaxDistance:        c.v.GetFloat64("volume.maxDistance"),
		MinVolume:          c.v.GetFloat64("volume.minVolume"),
		MaxVolume:          c.v.GetFloat64("volume.maxVolume"),
		SmoothingWindow:    c.v.GetInt("volume.smoothingWindow"),
		PinchLandmarks:     c.v.GetIntSlice("volume.pinchLandmarks"),
		MinChangeThreshold: c.v.GetInt("volume.minChangeThreshold"),
	}
}

// GestureConfig converts the volume section into a controller config.
// A malformed pinchLandmarks list leaves out-of-range indices that Validate reports.
func (c *Config) GestureConfig() gesture.Config {
	vol := c.Volume()
	from, to := -1, -1
	if len(vol.PinchLandmarks) == 2 {
		from, to = vol.PinchLandmarks[0], vol.PinchLandmarks[1]
	}
	return gesture.Config{
		SmoothingWindow: vol.SmoothingWindow,
		Distance:        gesture.Range{Min: vol.MinDistance, Max: vol.MaxDistance},
		Volume:          gesture.Range{Min: vol.MinVolume, Max: vol.MaxVolume},
		PinchFrom:       from,
		PinchTo:         to,
	}
}

// Camera returns the capture settings.
func (c *Config) Camera() capture.Config {
	return capture.Config{
		DeviceID:       c.v.GetInt("camera.id"),
		Width:          c.v.GetInt("camera.width"),
		Height:         c.v.GetInt("camera.height"),
		FPS:            c.v.GetInt("camera.fps"),
		FlipHorizontal: c.v.GetBool("camera.flipHorizontal"),
	}
}

// Detector returns the pose detector settings.
func (c *Config) Detector() detector.Config {
	return detector.Config{
		MaxHands:        c.v.GetInt("detector.maxHands"),
		MinConfidence:   c.v.GetFloat64("detector.minConfidence"),
		MinTrackingConf: c.v.GetFloat64("detector.minTrackingConfidence"),
		IdleTimeout:     c.v.GetDuration("detector.idleTimeout"),
	}
}

// Sink returns the volume sink settings.
func (c *Config) Sink() volume.Config {
	return volume.Config{
		Type:      strings.ToLower(c.v.GetString("sink.type")),
		Plugin:    c.v.GetString("sink.plugin"),
		PluginDir: c.v.GetString("sink.pluginDir"),
		Timeout:   c.v.GetDuration("sink.timeout"),
	}
}

// Server returns the HTTP server settings.
func (c *Config) Server() ServerConfig {
	return ServerConfig{
		Enabled:   c.v.GetBool("server.enabled"),
		Addr:      c.v.GetString("server.addr"),
		StaticDir: c.v.GetString("server.staticDir"),
	}
}

// Logging returns the logging settings.
func (c *Config) Logging() LoggingConfig {
	return LoggingConfig{
		Level:     c.v.GetString("logLevel"),
		Dir:       c.v.GetString("logsDir"),
		Retention: c.v.GetDuration("logRetention"),
	}
}

// TrayEnabled reports whether the system tray menu should be shown.
func (c *Config) TrayEnabled() bool {
	return c.v.GetBool("tray.enabled")
}

// DataDir is where the session database lives.
func (c *Config) DataDir() string {
	return c.v.GetString("dataDir")
}

// Set overrides a single key for this process.
func (c *Config) Set(key string, value any) {
	c.v.Set(key, value)
}

// Validate checks everything that would otherwise fail later at startup.
func (c *Config) Validate() error {
	if n := len(c.Volume().PinchLandmarks); n != 2 {
		return fmt.Errorf("%w: volume.pinchLandmarks needs 2 indices, got %d", ErrInvalidConfig, n)
	}
	if err := c.GestureConfig().Validate(); err != nil {
		return fmt.Errorf("%w: volume: %w", ErrInvalidConfig, err)
	}
	if c.Volume().MinChangeThreshold < 0 {
		return fmt.Errorf("%w: volume.minChangeThreshold must not be negative", ErrInvalidConfig)
	}

	cam := c.Camera()
	if cam.FPS <= 0 {
		return fmt.Errorf("%w: camera.fps must be positive, got %d", ErrInvalidConfig, cam.FPS)
	}
	if cam.Width <= 0 || cam.Height <= 0 {
		return fmt.Errorf("%w: camera size %dx%d", ErrInvalidConfig, cam.Width, cam.Height)
	}

	det := c.Detector()
	if det.MaxHands < 1 {
		return fmt.Errorf("%w: detector.maxHands must be at least 1", ErrInvalidConfig)
	}
	for name, v := range map[string]float64{
		"detector.minConfidence":         det.MinConfidence,
		"detector.minTrackingConfidence": det.MinTrackingConf,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s must be within 0..1, got %g", ErrInvalidConfig, name, v)
		}
	}

	if err := c.Sink().Validate(); err != nil {
		return fmt.Errorf("%w: sink: %w", ErrInvalidConfig, err)
	}

	return nil
}

// Save writes the current settings to dir/config.json.
func (c *Config) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := c.v.WriteConfigAs(filepath.Join(dir, FileName)); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
