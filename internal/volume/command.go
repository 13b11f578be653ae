package volume

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"time"
)

// Command returns the program and arguments that set the volume to level on goos.
// The level is clamped first.
func Command(goos string, level int) (string, []string, error) {
	level = Clamp(level)
	switch goos {
	case "darwin":
		return "osascript", []string{"-e", "set volume output volume " + strconv.Itoa(level)}, nil
	case "linux":
		return "amixer", []string{"-D", "pulse", "sset", "Master", strconv.Itoa(level) + "%"}, nil
	default:
		return "", nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, goos)
	}
}

// Supported reports whether Command knows goos.
func Supported(goos string) bool {
	_, _, err := Command(goos, 0)
	return err == nil
}

// runFunc runs a program and returns its combined output.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// CommandSink sets the volume by running the platform's mixer command.
type CommandSink struct {
	goos    string
	run     runFunc
	timeout time.Duration
}

// NewCommandSink returns a CommandSink for the running OS. Each mixer call is
// killed after timeout; a timeout <= 0 means DefaultTimeout.
func NewCommandSink(timeout time.Duration) (*CommandSink, error) {
	return newCommandSink(runtime.GOOS, execRun, timeout)
}

func newCommandSink(goos string, run runFunc, timeout time.Duration) (*CommandSink, error) {
	if !Supported(goos) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, goos)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &CommandSink{goos: goos, run: run, timeout: timeout}, nil
}

// SetVolume runs the mixer command for level.
func (s *CommandSink) SetVolume(ctx context.Context, level int) error {
	name, args, err := Command(s.goos, level)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.run(ctx, name, args...)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w after %s", name, ErrTimeout, s.timeout)
	}
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, out)
	}
	return nil
}

// Name returns "command".
func (s *CommandSink) Name() string { return SinkCommand }
