package detector

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
)

func pointsOf(h Hand) []Landmark {
	out := make([]Landmark, NumLandmarks)
	copy(out, h.Landmarks[:])
	return out
}

func TestNewHand(t *testing.T) {
	t.Run("accepts exactly 21 landmarks", func(t *testing.T) {
		h, err := NewHand(pointsOf(OpenPalmHand()), Left, 0.8)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if h.Handedness != Left {
			t.Errorf("expected Left, got %s", h.Handedness)
		}
		if h.Score != 0.8 {
			t.Errorf("expected score 0.8, got %f", h.Score)
		}
		if h.Landmarks[IndexTip] != OpenPalmHand().Landmarks[IndexTip] {
			t.Errorf("landmarks were not copied in order")
		}
	})

	counts := []int{0, 1, 20, 22, 42}
	for _, n := range counts {
		t.Run("rejects wrong landmark count", func(t *testing.T) {
			_, err := NewHand(make([]Landmark, n), Right, 1)
			if !errors.Is(err, ErrMalformedHand) {
				t.Errorf("count %d: expected ErrMalformedHand, got %v", n, err)
			}
		})
	}

	t.Run("rejects zero handedness", func(t *testing.T) {
		_, err := NewHand(pointsOf(OpenPalmHand()), 0, 1)
		if !errors.Is(err, ErrMalformedHand) {
			t.Errorf("expected ErrMalformedHand, got %v", err)
		}
	})

	t.Run("rejects non-finite coordinates", func(t *testing.T) {
		points := pointsOf(OpenPalmHand())
		points[ThumbTip].X = math.NaN()
		_, err := NewHand(points, Right, 1)
		if !errors.Is(err, ErrMalformedHand) {
			t.Errorf("expected ErrMalformedHand for NaN, got %v", err)
		}

		points = pointsOf(OpenPalmHand())
		points[Wrist].Y = math.Inf(1)
		_, err = NewHand(points, Right, 1)
		if !errors.Is(err, ErrMalformedHand) {
			t.Errorf("expected ErrMalformedHand for Inf, got %v", err)
		}
	})
}

func TestHandedness(t *testing.T) {
	tests := []struct {
		input   string
		want    Handedness
		wantErr bool
	}{
		{"Left", Left, false},
		{"Right", Right, false},
		{"left", Left, false},
		{" RIGHT ", Right, false},
		{"", 0, true},
		{"both", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseHandedness(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedHand) {
					t.Errorf("expected ErrMalformedHand, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}

	t.Run("mirror swaps sides", func(t *testing.T) {
		if Left.Mirror() != Right || Right.Mirror() != Left {
			t.Error("Mirror did not swap Left and Right")
		}
	})

	t.Run("json round trip uses labels", func(t *testing.T) {
		data, err := json.Marshal(struct {
			H Handedness `json:"h"`
		}{Right})
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if string(data) != `{"h":"Right"}` {
			t.Errorf("unexpected json %s", data)
		}

		var out struct {
			H Handedness `json:"h"`
		}
		if err := json.Unmarshal([]byte(`{"h":"left"}`), &out); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if out.H != Left {
			t.Errorf("expected Left, got %s", out.H)
		}
	})
}

func TestHand_Mirrored(t *testing.T) {
	h := OpenPalmHand()
	m := h.Mirrored()

	if m.Handedness != Left {
		t.Errorf("expected mirrored handedness Left, got %s", m.Handedness)
	}
	for i := range h.Landmarks {
		if math.Abs(m.Landmarks[i].X-(1-h.Landmarks[i].X)) > 1e-12 {
			t.Errorf("landmark %d: x not reflected", i)
		}
		if m.Landmarks[i].Y != h.Landmarks[i].Y {
			t.Errorf("landmark %d: y changed", i)
		}
	}

	back := m.Mirrored()
	if back.Handedness != h.Handedness {
		t.Errorf("double mirror changed handedness")
	}
}

func TestDecodeResponse(t *testing.T) {
	handJSON := func(n int, handedness string) string {
		points := make([]string, n)
		for i := range points {
			points[i] = `{"x":0.5,"y":0.5,"z":0}`
		}
		return `{"points":[` + strings.Join(points, ",") + `],"handedness":"` + handedness + `","score":0.9}`
	}

	t.Run("no hands", func(t *testing.T) {
		hands, err := DecodeResponse([]byte(`{"hands":[]}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 0 {
			t.Errorf("expected no hands, got %d", len(hands))
		}
	})

	t.Run("one valid hand", func(t *testing.T) {
		hands, err := DecodeResponse([]byte(`{"hands":[` + handJSON(21, "Left") + `]}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 1 {
			t.Fatalf("expected 1 hand, got %d", len(hands))
		}
		if hands[0].Handedness != Left {
			t.Errorf("expected Left, got %s", hands[0].Handedness)
		}
		if hands[0].Score != 0.9 {
			t.Errorf("expected score 0.9, got %f", hands[0].Score)
		}
	})

	t.Run("wrong landmark count is malformed", func(t *testing.T) {
		_, err := DecodeResponse([]byte(`{"hands":[` + handJSON(20, "Right") + `]}`))
		if !errors.Is(err, ErrMalformedHand) {
			t.Errorf("expected ErrMalformedHand, got %v", err)
		}
	})

	t.Run("unknown handedness is malformed", func(t *testing.T) {
		_, err := DecodeResponse([]byte(`{"hands":[` + handJSON(21, "Middle") + `]}`))
		if !errors.Is(err, ErrMalformedHand) {
			t.Errorf("expected ErrMalformedHand, got %v", err)
		}
	})

	t.Run("service error", func(t *testing.T) {
		_, err := DecodeResponse([]byte(`{"error":"model not loaded"}`))
		if err == nil || !strings.Contains(err.Error(), "model not loaded") {
			t.Errorf("expected service error, got %v", err)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		if _, err := DecodeResponse([]byte(`{not json`)); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestMockDetector(t *testing.T) {
	m := NewMockDetector()

	hands, err := m.Detect(nil)
	if err != nil || hands != nil {
		t.Errorf("expected no hands and no error, got %v, %v", hands, err)
	}

	m.SetHands(OpenPalmHand())
	hands, err = m.Detect(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hands) != 1 || hands[0].Handedness != Right {
		t.Errorf("expected one right hand, got %+v", hands)
	}

	want := errors.New("camera gone")
	m.SetError(want)
	if _, err := m.Detect(nil); !errors.Is(err, want) {
		t.Errorf("expected configured error, got %v", err)
	}

	if m.Calls() != 3 {
		t.Errorf("expected 3 calls, got %d", m.Calls())
	}
	if err := m.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestPresets_AreValid(t *testing.T) {
	presets := map[string]Hand{
		"open palm": OpenPalmHand(),
		"fist":      FistHand(),
		"thumbs up": ThumbsUpHand(),
		"peace":     PeaceHand(),
		"pinch":     PinchHand(0.01),
	}
	for name, h := range presets {
		t.Run(name, func(t *testing.T) {
			if err := h.Validate(); err != nil {
				t.Errorf("preset invalid: %v", err)
			}
			m := h.Mirrored()
			if err := m.Validate(); err != nil {
				t.Errorf("mirrored preset invalid: %v", err)
			}
		})
	}
}
