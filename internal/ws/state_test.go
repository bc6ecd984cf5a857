package ws

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embedfield/ov7670"
)

// fakeCam records control calls and serves a constant frame.
type fakeCam struct {
	preset   ov7670.Preset
	captures int
	pattern  ov7670.TestPattern
	night    ov7670.NightMode
	flipX    bool
	flipY    bool
	fail     error
}

func (f *fakeCam) Capture(buf []byte) error {
	if f.fail != nil {
		return f.fail
	}
	f.captures++
	for i := range buf {
		buf[i] = byte(i)
	}
	return nil
}

func (f *fakeCam) Preset() ov7670.Preset { return f.preset }

func (f *fakeCam) SetPreset(p ov7670.Preset) error {
	f.preset = p
	return nil
}

func (f *fakeCam) SetTestPattern(t ov7670.TestPattern) error {
	f.pattern = t
	return nil
}

func (f *fakeCam) SetNightMode(m ov7670.NightMode) error {
	f.night = m
	return nil
}

func (f *fakeCam) SetFlip(mirror, vflip bool) error {
	f.flipX, f.flipY = mirror, vflip
	return nil
}

func newTestState() (*State, *fakeCam) {
	cam := &fakeCam{preset: ov7670.Preset{Size: ov7670.SizeQQQQVGA, Format: ov7670.FormatRGB565}}
	return NewState(cam, 5), cam
}

func TestApplyControlPreset(t *testing.T) {
	s, cam := newTestState()

	s.applyControl(map[string]any{"size": "qvga", "format": "yuv422"})
	assert.Equal(t, ov7670.SizeQVGA, cam.preset.Size)
	assert.Equal(t, ov7670.FormatYUV422, cam.preset.Format)
	assert.Len(t, s.buf, cam.preset.FrameBytes(), "capture buffer resized")
}

func TestApplyControlIgnoresUnknownPreset(t *testing.T) {
	s, cam := newTestState()
	before := cam.preset

	s.applyControl(map[string]any{"size": "cinemascope"})
	assert.Equal(t, before, cam.preset)
}

func TestApplyControlFeatures(t *testing.T) {
	s, cam := newTestState()

	s.applyControl(map[string]any{"testPattern": "colorbar"})
	assert.Equal(t, ov7670.TestPatternColorBar, cam.pattern)

	s.applyControl(map[string]any{"night": "1/4"})
	assert.Equal(t, ov7670.NightModeQuarter, cam.night)

	s.applyControl(map[string]any{"flipX": true, "flipY": false})
	assert.True(t, cam.flipX)
	assert.False(t, cam.flipY)
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestState()
	s.frameID = 7
	s.captured = 7
	s.timeouts = 2

	rec := httptest.NewRecorder()
	s.HandleHealth(rec, httptest.NewRequest("GET", "/health", nil))

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, 7, resp["frame_id"])
	assert.EqualValues(t, 2, resp["timeouts"])
	assert.Equal(t, "qqqqvga/rgb565", resp["preset"])
	assert.EqualValues(t, 40, resp["width"])
	assert.EqualValues(t, 30, resp["height"])
}
