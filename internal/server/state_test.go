package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/handvolume/internal/app"
	"github.com/ayusman/handvolume/internal/gesture"
	"github.com/ayusman/handvolume/internal/perf"
)

type fakeController struct {
	mu      sync.Mutex
	state   app.State
	enabled bool
}

func (c *fakeController) State() app.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Enabled = c.enabled
	return s
}

func (c *fakeController) IsEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

func (c *fakeController) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}

func TestServer_State(t *testing.T) {
	ctrl := &fakeController{state: app.State{
		Output: gesture.Output{
			Volume:      57,
			Fingers:     2,
			FingerState: gesture.FingerState{false, true, true, false, false},
			HandPresent: true,
			Pose:        gesture.PosePeace,
		},
		FPS:  29.7,
		Time: time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC),
	}}

	monitor, err := perf.New(perf.DefaultWindow)
	require.NoError(t, err)
	monitor.RecordFrame(25*time.Millisecond, true)

	s := New(Config{App: ctrl, Monitor: monitor})

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got struct {
		Volume      int             `json:"volume"`
		Fingers     int             `json:"fingers"`
		FingerState map[string]bool `json:"fingerState"`
		HandPresent bool            `json:"handPresent"`
		Pose        string          `json:"pose"`
		Enabled     bool            `json:"enabled"`
		FPS         float64         `json:"fps"`
		Perf        *perf.Summary   `json:"perf"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))

	assert.Equal(t, 57, got.Volume)
	assert.Equal(t, 2, got.Fingers)
	assert.True(t, got.FingerState["index"])
	assert.False(t, got.FingerState["thumb"])
	assert.True(t, got.HandPresent)
	assert.Equal(t, "peace", got.Pose)
	assert.False(t, got.Enabled)
	assert.InDelta(t, 29.7, got.FPS, 1e-9)
	require.NotNil(t, got.Perf)
	assert.Equal(t, int64(1), got.Perf.TotalFrames)
	assert.InDelta(t, 40, got.Perf.FPS, 1e-6)
}

func TestServer_State_MethodNotAllowed(t *testing.T) {
	s := New(Config{App: &fakeController{}})

	req := httptest.NewRequest(http.MethodPost, "/api/state", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_Enabled(t *testing.T) {
	ctrl := &fakeController{}
	s := New(Config{App: ctrl})

	do := func(method, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/api/enabled", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodGet, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"enabled":false}`, rec.Body.String())

	rec = do(http.MethodPut, `{"enabled":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"enabled":true}`, rec.Body.String())
	assert.True(t, ctrl.IsEnabled())

	for _, body := range []string{"", "{}", `{"enabled":"yes"}`} {
		rec = do(http.MethodPut, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
	}
	assert.True(t, ctrl.IsEnabled(), "bad requests must not toggle")

	rec = do(http.MethodDelete, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
