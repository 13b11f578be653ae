// Package app wires the camera, the pose detector, the gesture controller and
// the volume sink into a running controller.
package app

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ayusman/handvolume/internal/capture"
	"github.com/ayusman/handvolume/internal/detector"
	"github.com/ayusman/handvolume/internal/gesture"
	"github.com/ayusman/handvolume/internal/logging"
	"github.com/ayusman/handvolume/internal/perf"
	"github.com/ayusman/handvolume/internal/store"
	"github.com/ayusman/handvolume/internal/volume"
)

// Config holds configuration options for the application.
type Config struct {
	Gesture         gesture.Config
	Camera          capture.Config
	Detector        detector.Config
	Sink            volume.Config
	ChangeThreshold int

	// Store is optional. When set, a session report is saved on Stop.
	Store *store.Store
}

// State is what observers see after each processed frame.
type State struct {
	gesture.Output
	Enabled bool      `json:"enabled"`
	FPS     float64   `json:"fps"`
	Time    time.Time `json:"time"`
}

// Listener receives every published State. It is called from the frame loop
// and must not block.
type Listener func(State)

// App is the main application that turns hand poses into volume changes.
type App struct {
	config Config
	log    zerolog.Logger
	// frameLog is sampled so a failing camera does not flood the log.
	frameLog zerolog.Logger

	camera     capture.Camera
	detector   detector.Detector
	controller *gesture.Controller
	filter     *volume.ChangeFilter
	monitor    *perf.Monitor
	preview    *capture.Preview

	enabled bool
	mu      sync.RWMutex
	stopCh  chan struct{}
	doneCh  chan struct{}
	started time.Time

	// procMu serializes ProcessHands; the controller keeps one smoothing window.
	procMu sync.Mutex

	stateMu   sync.RWMutex
	state     State
	listeners []Listener
}

// New creates a new App instance with the given configuration.
func New(config Config, log zerolog.Logger) (*App, error) {
	controller, err := gesture.NewController(config.Gesture)
	if err != nil {
		return nil, err
	}

	sink, err := volume.NewSink(config.Sink, log)
	if err != nil {
		return nil, fmt.Errorf("volume sink: %w", err)
	}

	monitor, err := perf.New(perf.DefaultWindow)
	if err != nil {
		return nil, err
	}

	log = log.With().Str("component", "app").Logger()

	a := &App{
		config:     config,
		log:        log,
		frameLog:   logging.Sampled(log),
		camera:     capture.NewCamera(config.Camera),
		controller: controller,
		filter:     volume.NewChangeFilter(sink, config.ChangeThreshold, log),
		monitor:    monitor,
		preview:    capture.NewPreview(),
	}
	a.state = State{Output: gesture.Output{Volume: controller.Volume(), Pose: gesture.PoseNone}}

	// Try MediaPipe first, fall back to mock detector
	if mp, err := detector.NewMediaPipeDetector(config.Detector, log); err == nil {
		a.detector = mp
		log.Info().Msg("using MediaPipe hand detection")
	} else {
		log.Warn().Err(err).Msg("MediaPipe not available, using mock detector")
		a.detector = detector.NewMockDetector()
	}

	return a, nil
}

// SetEnabled enables or disables gesture control. While disabled the frame
// loop keeps running but no frames are read and the volume is left alone.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	changed := a.enabled != enabled
	a.enabled = enabled
	a.mu.Unlock()

	if changed {
		a.log.Info().Bool("enabled", enabled).Msg("gesture control toggled")
		a.stateMu.Lock()
		a.state.Enabled = enabled
		state := a.state
		a.stateMu.Unlock()
		a.notify(state)
	}
}

// IsEnabled returns whether gesture control is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector sets the hand detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// SetCamera replaces the camera. It must be called before Start.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// SetSink replaces the volume sink and forgets the last level sent.
func (a *App) SetSink(sink volume.Sink) {
	a.procMu.Lock()
	defer a.procMu.Unlock()
	a.filter = volume.NewChangeFilter(sink, a.config.ChangeThreshold, a.log)
}

// AddListener registers fn to receive every published State.
func (a *App) AddListener(fn Listener) {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// State returns the most recently published State.
func (a *App) State() State {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.state
}

// ProcessHands runs one frame's detections through the controller and the
// sink. Only the first hand is used; extra hands are ignored. With no hand the
// held volume is reported and nothing is sent to the sink.
//
// A malformed hand is rejected with detector.ErrMalformedHand and leaves the
// controller and the published state unchanged. Sink failures are logged and
// retried on the next frame.
func (a *App) ProcessHands(ctx context.Context, hands []detector.Hand) (gesture.Output, error) {
	a.procMu.Lock()
	defer a.procMu.Unlock()

	var hand *detector.Hand
	if len(hands) > 0 {
		hand = &hands[0]
	}

	start := time.Now()
	out, err := a.controller.Process(hand)
	a.monitor.Record(perf.StageGesture, time.Since(start))
	if err != nil {
		return out, err
	}

	if out.HandPresent {
		start = time.Now()
		if _, err := a.filter.Apply(ctx, out.Volume); err != nil {
			a.frameLog.Warn().Err(err).Int("level", out.Volume).Msg("failed to set volume")
		}
		a.monitor.Record(perf.StageVolume, time.Since(start))
	}

	a.publish(out)
	return out, nil
}

func (a *App) publish(out gesture.Output) {
	a.stateMu.Lock()
	a.state = State{
		Output:  out,
		Enabled: a.IsEnabled(),
		FPS:     a.monitor.FPS(),
		Time:    time.Now(),
	}
	state := a.state
	a.stateMu.Unlock()

	a.notify(state)
}

func (a *App) notify(state State) {
	a.stateMu.RLock()
	listeners := a.listeners
	a.stateMu.RUnlock()

	for _, fn := range listeners {
		fn(state)
	}
}

// Start opens the camera and begins the frame loop.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}

	fps := a.camera.FPS()
	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	a.started = time.Now()
	go a.runPipeline(a.stopCh, a.doneCh, fps)

	a.log.Info().Int("fps", fps).Msg("frame loop started")
	return nil
}

// Stop halts the frame loop, releases the camera and the detector, and saves
// a session report when a store is configured.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	started := a.started
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-doneCh
	}

	if err := a.Camera().Close(); err != nil {
		a.log.Error().Err(err).Msg("error closing camera")
	}

	if d := a.Detector(); d != nil {
		if err := d.Close(); err != nil {
			a.log.Error().Err(err).Msg("error closing detector")
		}
	}

	if stopCh != nil {
		a.saveSession(started, time.Now())
		a.log.Info().Msg("frame loop stopped")
	}
}

// runPipeline reads frames at the camera rate until stopCh is closed.
func (a *App) runPipeline(stopCh <-chan struct{}, doneCh chan<- struct{}, fps int) {
	defer close(doneCh)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ticker := time.NewTicker(time.Second / time.Duration(max(1, fps)))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}
			a.processFrame(ctx)
		}
	}
}

// processFrame reads, detects and processes a single camera frame.
func (a *App) processFrame(ctx context.Context) {
	start := time.Now()

	frame, err := a.Camera().ReadFrame()
	if err != nil {
		a.frameLog.Warn().Err(err).Msg("error reading frame")
		a.processNoHand(ctx, start)
		return
	}

	if err := a.preview.Publish(frame); err != nil {
		a.frameLog.Debug().Err(err).Msg("preview encode failed")
	}

	hands, err := a.Detector().Detect(frame)
	frame.Close()
	if err != nil {
		a.frameLog.Warn().Err(err).Msg("error detecting hands")
		a.processNoHand(ctx, start)
		return
	}

	out, err := a.ProcessHands(ctx, hands)
	if err != nil {
		a.frameLog.Warn().Err(err).Msg("dropping frame")
		return
	}

	a.monitor.RecordFrame(time.Since(start), out.HandPresent)
}

// processNoHand publishes a frame that produced no usable hand: the volume is
// held and the finger count drops to zero.
func (a *App) processNoHand(ctx context.Context, start time.Time) {
	if _, err := a.ProcessHands(ctx, nil); err != nil {
		a.frameLog.Warn().Err(err).Msg("dropping frame")
		return
	}
	a.monitor.RecordFrame(time.Since(start), false)
}

func (a *App) saveSession(started, ended time.Time) {
	if a.config.Store == nil {
		return
	}

	summary := a.monitor.Summary()

	a.procMu.Lock()
	level := a.controller.Volume()
	a.procMu.Unlock()

	sess := &store.Session{
		StartedAt:  started,
		EndedAt:    ended,
		Frames:     summary.TotalFrames,
		HandFrames: summary.HandFrames,
		AvgFPS:     summary.FPS,
		AvgFrameMs: summary.FrameTimeMs,
		LastVolume: level,
	}
	if err := a.config.Store.Sessions().Create(sess); err != nil {
		a.log.Error().Err(err).Msg("failed to save session report")
		return
	}
	if err := a.config.Store.Settings().Set(store.SettingLastVolume, strconv.Itoa(level)); err != nil {
		a.log.Error().Err(err).Msg("failed to save last volume")
	}

	a.log.Info().
		Str("session", sess.ID).
		Int64("frames", sess.Frames).
		Float64("fps", sess.AvgFPS).
		Int("volume", level).
		Msg("session saved")
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.camera
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// Monitor returns the frame timing monitor.
func (a *App) Monitor() *perf.Monitor {
	return a.monitor
}

// Preview returns the JPEG preview fed by the frame loop.
func (a *App) Preview() *capture.Preview {
	return a.preview
}
