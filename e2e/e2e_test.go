package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/handvolume/internal/app"
	"github.com/ayusman/handvolume/internal/capture"
	"github.com/ayusman/handvolume/internal/detector"
	"github.com/ayusman/handvolume/internal/gesture"
	"github.com/ayusman/handvolume/internal/server"
	"github.com/ayusman/handvolume/internal/store"
	"github.com/ayusman/handvolume/internal/volume"
)

type recordingSink struct {
	mu     sync.Mutex
	levels []int
}

func (s *recordingSink) SetVolume(_ context.Context, level int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels = append(s.levels, level)
	return nil
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Levels() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.levels...)
}

// blankCamera serves empty frames; the mock detector decides what is seen.
type blankCamera struct {
	mu   sync.Mutex
	open bool
}

func (c *blankCamera) Open() error  { c.set(true); return nil }
func (c *blankCamera) Close() error { c.set(false); return nil }
func (c *blankCamera) SetFPS(int)   {}
func (c *blankCamera) FPS() int     { return 60 }

func (c *blankCamera) set(open bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = open
}

func (c *blankCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *blankCamera) ReadFrame() (*gocv.Mat, error) {
	if !c.IsOpen() {
		return nil, capture.ErrCameraNotOpen
	}
	m := gocv.NewMat()
	return &m, nil
}

type stateMsg struct {
	Volume      int    `json:"volume"`
	Fingers     int    `json:"fingers"`
	HandPresent bool   `json:"handPresent"`
	Pose        string `json:"pose"`
	Enabled     bool   `json:"enabled"`
}

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	s, err := store.New(filepath.Join(t.TempDir(), "data.db"))
	require.NoError(t, err)
	defer s.Close()

	application, err := app.New(app.Config{
		Gesture:         gesture.DefaultConfig(),
		Camera:          capture.DefaultConfig(),
		Detector:        detector.DefaultConfig(),
		Sink:            volume.Config{Type: volume.SinkNone},
		ChangeThreshold: 2,
		Store:           s,
	}, zerolog.Nop())
	require.NoError(t, err)

	sink := &recordingSink{}
	application.SetSink(sink)
	mockDetector := detector.NewMockDetector()
	application.SetDetector(mockDetector)
	application.SetCamera(&blankCamera{})

	hub := server.NewHub(zerolog.Nop(), func() any { return application.State() })
	application.AddListener(func(st app.State) { hub.Broadcast(st) })

	srv := server.New(server.Config{
		Store:   s,
		App:     application,
		Monitor: application.Monitor(),
		Preview: application.Preview(),
		Hub:     hub,
	})
	ts := httptest.NewServer(srv)
	defer ts.Close()
	client := ts.Client()

	getState := func(t *testing.T) stateMsg {
		t.Helper()
		resp, err := client.Get(ts.URL + "/api/state")
		require.NoError(t, err)
		defer resp.Body.Close()
		var st stateMsg
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
		return st
	}

	t.Run("InitialState", func(t *testing.T) {
		st := getState(t)
		assert.Equal(t, 0, st.Volume)
		assert.False(t, st.HandPresent)
		assert.Equal(t, "none", st.Pose)
	})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	require.NoError(t, err, "snapshot on connect")
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, application.Start())

	t.Run("EnableViaAPI", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/enabled", strings.NewReader(`{"enabled":true}`))
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.True(t, application.IsEnabled())
	})

	t.Run("OpenPalmRaisesVolume", func(t *testing.T) {
		mockDetector.SetHands(detector.OpenPalmHand())

		require.Eventually(t, func() bool {
			st := getState(t)
			return st.HandPresent && st.Volume == 96
		}, 2*time.Second, 10*time.Millisecond)

		st := getState(t)
		assert.Equal(t, 5, st.Fingers)
	})

	t.Run("WebsocketSeesFrames", func(t *testing.T) {
		deadline := time.Now().Add(2 * time.Second)
		for {
			conn.SetReadDeadline(deadline)
			_, data, err := conn.ReadMessage()
			require.NoError(t, err)
			var msg stateMsg
			require.NoError(t, json.Unmarshal(data, &msg))
			if msg.HandPresent && msg.Volume == 96 {
				break
			}
		}
	})

	t.Run("ClosedPinchLowersVolume", func(t *testing.T) {
		mockDetector.SetHands(detector.PinchHand(0.01))

		require.Eventually(t, func() bool {
			return getState(t).Volume == 0
		}, 2*time.Second, 10*time.Millisecond)

		st := getState(t)
		// Thumb and index touch while the other fingers stay up.
		assert.Equal(t, string(gesture.PoseOK), st.Pose)
	})

	t.Run("HandLeavesVolumeHeld", func(t *testing.T) {
		mockDetector.SetHands()

		require.Eventually(t, func() bool {
			return !getState(t).HandPresent
		}, 2*time.Second, 10*time.Millisecond)

		st := getState(t)
		assert.Equal(t, 0, st.Volume)
		assert.Equal(t, 0, st.Fingers)
	})

	application.Stop()

	t.Run("SinkSawRiseAndFall", func(t *testing.T) {
		levels := sink.Levels()
		require.NotEmpty(t, levels)
		assert.Equal(t, 96, levels[0])
		assert.Equal(t, 0, levels[len(levels)-1])
		for i := 1; i < len(levels); i++ {
			assert.NotEqual(t, levels[i-1], levels[i], "repeated level sent")
		}
	})

	t.Run("SessionSaved", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/sessions")
		require.NoError(t, err)
		defer resp.Body.Close()

		var list struct {
			Sessions []store.Session `json:"sessions"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
		require.Len(t, list.Sessions, 1)
		assert.Equal(t, 0, list.Sessions[0].LastVolume)
		assert.Positive(t, list.Sessions[0].HandFrames)
	})
}
