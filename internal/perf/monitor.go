// Package perf tracks frame loop timing and exports it as OpenTelemetry metrics.
package perf

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ayusman/handvolume/internal/gesture"
)

const instrumentationName = "github.com/ayusman/handvolume/internal/perf"

// DefaultWindow is how many recent samples the rolling averages cover.
const DefaultWindow = 30

// Stage is a timed part of the frame loop.
type Stage string

const (
	StageFrame   Stage = "frame"
	StageGesture Stage = "gesture"
	StageVolume  Stage = "volume"
)

// Summary is a snapshot of the monitor.
type Summary struct {
	FPS           float64 `json:"fps"`
	FrameTimeMs   float64 `json:"frameTimeMs"`
	GestureTimeMs float64 `json:"gestureTimeMs"`
	VolumeTimeMs  float64 `json:"volumeTimeMs"`
	TotalFrames   int64   `json:"totalFrames"`
	HandFrames    int64   `json:"handFrames"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
}

// Monitor keeps rolling averages of stage durations. It is safe for concurrent use.
type Monitor struct {
	mu         sync.Mutex
	stages     map[Stage]*gesture.Smoother
	frames     int64
	handFrames int64
	start      time.Time
	now        func() time.Time

	frameCounter metric.Int64Counter
	durations    metric.Float64Histogram
	fpsGauge     metric.Float64ObservableGauge
}

// New creates a Monitor averaging over the last window samples per stage.
// Metrics go to the global meter provider, which is a no-op unless one is installed.
func New(window int) (*Monitor, error) {
	return newMonitor(window, time.Now)
}

func newMonitor(window int, now func() time.Time) (*Monitor, error) {
	m := &Monitor{
		stages: make(map[Stage]*gesture.Smoother, 3),
		start:  now(),
		now:    now,
	}
	for _, s := range []Stage{StageFrame, StageGesture, StageVolume} {
		sm, err := gesture.NewSmoother(window)
		if err != nil {
			return nil, fmt.Errorf("perf window: %w", err)
		}
		m.stages[s] = sm
	}

	meter := otel.Meter(instrumentationName)

	var err error
	m.frameCounter, err = meter.Int64Counter(
		"handvolume.frames",
		metric.WithDescription("Frames processed, by whether a hand was present"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating frame counter: %w", err)
	}

	m.durations, err = meter.Float64Histogram(
		"handvolume.stage.duration",
		metric.WithDescription("Time spent per frame loop stage"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	m.fpsGauge, err = meter.Float64ObservableGauge(
		"handvolume.fps",
		metric.WithDescription("Frames per second over the rolling window"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fps gauge: %w", err)
	}

	_, err = meter.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveFloat64(m.fpsGauge, m.FPS())
			return nil
		},
		m.fpsGauge,
	)
	if err != nil {
		return nil, fmt.Errorf("registering fps callback: %w", err)
	}

	return m, nil
}

// RecordFrame records the total time one frame took.
func (m *Monitor) RecordFrame(d time.Duration, handPresent bool) {
	m.mu.Lock()
	m.stages[StageFrame].Push(d.Seconds())
	m.frames++
	if handPresent {
		m.handFrames++
	}
	m.mu.Unlock()

	ctx := context.Background()
	m.frameCounter.Add(ctx, 1, metric.WithAttributes(attribute.Bool("hand", handPresent)))
	m.durations.Record(ctx, ms(d.Seconds()), metric.WithAttributes(attribute.String("stage", string(StageFrame))))
}

// Record records the time one non-frame stage took.
func (m *Monitor) Record(stage Stage, d time.Duration) {
	m.mu.Lock()
	sm, ok := m.stages[stage]
	if ok {
		sm.Push(d.Seconds())
	}
	m.mu.Unlock()

	if ok {
		m.durations.Record(context.Background(), ms(d.Seconds()),
			metric.WithAttributes(attribute.String("stage", string(stage))))
	}
}

// FPS returns frames per second derived from the average frame time.
func (m *Monitor) FPS() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fpsLocked()
}

func (m *Monitor) fpsLocked() float64 {
	avg := m.stages[StageFrame].Value()
	if avg <= 0 {
		return 0
	}
	return 1 / avg
}

// Summary returns a snapshot of all averages and counters.
func (m *Monitor) Summary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Summary{
		FPS:           m.fpsLocked(),
		FrameTimeMs:   ms(m.stages[StageFrame].Value()),
		GestureTimeMs: ms(m.stages[StageGesture].Value()),
		VolumeTimeMs:  ms(m.stages[StageVolume].Value()),
		TotalFrames:   m.frames,
		HandFrames:    m.handFrames,
		UptimeSeconds: m.now().Sub(m.start).Seconds(),
	}
}

func ms(seconds float64) float64 {
	return seconds * 1000
}
