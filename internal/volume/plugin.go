package volume

import (
	"context"
	"fmt"

	"github.com/ayusman/handvolume/internal/plugin"
)

// PluginSink delegates volume changes to a plugin supporting set-volume.
type PluginSink struct {
	plugin   *plugin.Plugin
	executor *plugin.Executor
}

// NewPluginSink looks up name in manager and checks it supports set-volume.
func NewPluginSink(manager *plugin.Manager, executor *plugin.Executor, name string) (*PluginSink, error) {
	p, err := manager.Get(name)
	if err != nil {
		return nil, err
	}
	if !p.Manifest.Supports(plugin.ActionSetVolume) {
		return nil, fmt.Errorf("plugin %s does not support %s", name, plugin.ActionSetVolume)
	}
	return &PluginSink{plugin: p, executor: executor}, nil
}

// SetVolume sends a set-volume request to the plugin.
func (s *PluginSink) SetVolume(ctx context.Context, level int) error {
	req, err := plugin.NewVolumeRequest(Clamp(level))
	if err != nil {
		return err
	}
	return s.executor.Run(ctx, s.plugin, req)
}

// Name returns "plugin:<name>".
func (s *PluginSink) Name() string { return SinkPlugin + ":" + s.plugin.Manifest.Name }
