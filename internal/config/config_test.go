package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	c := &Config{
		I2CBus:         "1",
		I2CAddr:        0x21,
		Size:           "qqqvga",
		Format:         "rgb565",
		FrameTimeoutMs: 1000,
		MCLKHz:         16000000,
		Pins: Pins{
			Data:  [8]string{"GPIO5", "GPIO6", "GPIO7", "GPIO8", "GPIO9", "GPIO10", "GPIO11", "GPIO12"},
			PCLK:  "GPIO13",
			VSync: "GPIO19",
			HRef:  "GPIO26",
			MCLK:  "GPIO18",
		},
		FPS:  5,
		Addr: ":8080",
	}

	path := filepath.Join(t.TempDir(), "camera.yaml")
	require.NoError(t, Save(path, c))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestLoadPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camera.yaml")
	require.NoError(t, os.WriteFile(path, []byte("size: qvga\nfps: 10\n"), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "qvga", c.Size)
	assert.Equal(t, 10, c.FPS)
	assert.Empty(t, c.Pins.PCLK)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camera.yaml")
	require.NoError(t, os.WriteFile(path, []byte("size: [unclosed"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}
