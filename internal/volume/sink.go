// Package volume sends volume levels to the operating system.
package volume

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultTimeout bounds a single plugin or mixer call when the config does not set one.
const DefaultTimeout = 5 * time.Second

// Sink types.
const (
	SinkAuto    = "auto"
	SinkCommand = "command"
	SinkPlugin  = "plugin"
	SinkNone    = "none"
)

var (
	// ErrUnsupportedPlatform is returned when no volume command is known for the OS.
	ErrUnsupportedPlatform = errors.New("volume control not supported on this platform")

	// ErrTimeout is returned when the mixer command does not finish in time.
	ErrTimeout = errors.New("volume command timeout")

	// ErrUnknownSink is returned for a sink type other than auto, command, plugin or none.
	ErrUnknownSink = errors.New("unknown sink type")
)

// Sink sets the system output volume.
type Sink interface {
	// SetVolume sets the output volume to level percent. Out-of-range levels are clamped.
	SetVolume(ctx context.Context, level int) error

	// Name identifies the sink in logs.
	Name() string
}

// Config selects and configures a Sink.
type Config struct {
	Type      string        `json:"type"`
	Plugin    string        `json:"plugin"`
	PluginDir string        `json:"pluginDir"`
	Timeout   time.Duration `json:"timeout"`
}

// Validate checks the sink type.
func (c Config) Validate() error {
	switch strings.ToLower(c.Type) {
	case SinkAuto, SinkCommand, SinkPlugin, SinkNone:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSink, c.Type)
	}
}

// Clamp limits level to 0..100.
func Clamp(level int) int {
	return max(0, min(100, level))
}

// NopSink discards every level.
type NopSink struct{}

func (NopSink) SetVolume(context.Context, int) error { return nil }
func (NopSink) Name() string                         { return SinkNone }
