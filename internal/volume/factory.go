package volume

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ayusman/handvolume/internal/plugin"
)

// NewSink builds the sink cfg asks for.
//
// "auto" prefers the configured plugin when it is installed and supports
// set-volume, then the platform mixer command, and falls back to NopSink
// with a warning. An empty plugin name picks the first installed plugin
// that supports set-volume.
func NewSink(cfg Config, log zerolog.Logger) (Sink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch strings.ToLower(cfg.Type) {
	case SinkNone:
		return NopSink{}, nil
	case SinkCommand:
		return sinkOrErr(NewCommandSink(cfg.Timeout))
	case SinkPlugin:
		return sinkOrErr(newPluginSink(cfg, log))
	}

	ps, err := newPluginSink(cfg, log)
	if err == nil {
		return ps, nil
	}
	log.Debug().Err(err).Str("plugin", cfg.Plugin).Msg("volume plugin unavailable")

	cs, err := NewCommandSink(cfg.Timeout)
	if err == nil {
		return cs, nil
	}
	if !errors.Is(err, ErrUnsupportedPlatform) {
		return nil, err
	}

	log.Warn().Err(err).Msg("no volume sink available, volume changes will only be displayed")
	return NopSink{}, nil
}

func newPluginSink(cfg Config, log zerolog.Logger) (*PluginSink, error) {
	manager := plugin.NewManager(cfg.PluginDir, log)
	if err := manager.Discover(); err != nil {
		return nil, fmt.Errorf("discover plugins: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	name := cfg.Plugin
	if name == "" {
		candidates := manager.Supporting(plugin.ActionSetVolume)
		if len(candidates) == 0 {
			return nil, fmt.Errorf("%w: none supports %s", plugin.ErrPluginNotFound, plugin.ActionSetVolume)
		}
		name = candidates[0].Manifest.Name
	}
	return NewPluginSink(manager, plugin.NewExecutor(timeout), name)
}

// sinkOrErr keeps a failed constructor from returning a non-nil Sink holding a nil pointer.
func sinkOrErr[S Sink](s S, err error) (Sink, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
