// Package main provides the system control plugin.
// It sets the output volume on macOS and Linux and handles media and
// brightness keys on macOS via AppleScript.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/ayusman/handvolume/internal/plugin"
	"github.com/ayusman/handvolume/internal/volume"
)

// actionHandler defines a function type for handling specific actions.
type actionHandler func(ctx context.Context, params json.RawMessage) error

// actionHandlers maps action names to their handler functions.
var actionHandlers = map[string]actionHandler{
	plugin.ActionSetVolume: setVolume,
	"volume-up":            appleScript(`set volume output volume ((output volume of (get volume settings)) + 10)`),
	"volume-down":          appleScript(`set volume output volume ((output volume of (get volume settings)) - 10)`),
	"volume-mute":          appleScript(`set volume output muted (not (output muted of (get volume settings)))`),
	"brightness-up":        keyCode(144),
	"brightness-down":      keyCode(145),
	"media-play-pause":     keyCode(100),
	"media-next":           keyCode(101),
	"media-prev":           keyCode(98),
}

func main() {
	var req plugin.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(plugin.Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	handler, ok := actionHandlers[req.Action]
	if !ok {
		writeResponse(plugin.Response{Error: fmt.Sprintf("unknown action: %s", req.Action)})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := handler(ctx, req.Params); err != nil {
		writeResponse(plugin.Response{Error: fmt.Sprintf("action %s failed: %v", req.Action, err)})
		return
	}

	writeResponse(plugin.Response{Success: true})
}

func writeResponse(resp plugin.Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}

// setVolume sets an absolute output level from {"level": N}.
func setVolume(ctx context.Context, params json.RawMessage) error {
	var p plugin.VolumeParams
	if len(params) == 0 {
		return fmt.Errorf("missing level")
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}

	name, args, err := volume.Command(runtime.GOOS, p.Level)
	if err != nil {
		return err
	}
	return run(ctx, name, args...)
}

// appleScript returns a handler that runs script with osascript.
func appleScript(script string) actionHandler {
	return func(ctx context.Context, _ json.RawMessage) error {
		if runtime.GOOS != "darwin" {
			return volume.ErrUnsupportedPlatform
		}
		return run(ctx, "osascript", "-e", script)
	}
}

// keyCode returns a handler that presses a media or brightness key.
func keyCode(code int) actionHandler {
	return appleScript(fmt.Sprintf("tell application \"System Events\"\n\tkey code %d\nend tell", code))
}

func run(ctx context.Context, name string, args ...string) error {
	output, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
