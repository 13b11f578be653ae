// Package plugin discovers and runs external helper programs that perform
// OS actions for handvolume, such as setting the system volume.
package plugin

import "encoding/json"

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Actions      []string        `json:"actions"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Supports reports whether the manifest lists action.
func (m Manifest) Supports(action string) bool {
	for _, a := range m.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Request represents a request sent to a plugin for execution.
type Request struct {
	Action string          `json:"action"`
	Pose   string          `json:"pose,omitempty"`
	Config json.RawMessage `json:"config,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response represents the response from a plugin execution.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// ActionSetVolume asks a plugin to set the output volume.
// Params: {"level": 0..100}.
const ActionSetVolume = "set-volume"

// VolumeParams are the params of a set-volume request.
type VolumeParams struct {
	Level int `json:"level"`
}

// NewVolumeRequest builds a set-volume request for level.
func NewVolumeRequest(level int) (*Request, error) {
	params, err := json.Marshal(VolumeParams{Level: level})
	if err != nil {
		return nil, err
	}
	return &Request{Action: ActionSetVolume, Params: params}, nil
}
