package ov7670

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var allSizes = []Size{SizeVGA, SizeQVGA, SizeQQVGA, SizeQQQVGA, SizeQQQQVGA}
var allFormats = []Format{FormatRGB565, FormatYUV422}

func TestPresetGeometry(t *testing.T) {
	cases := []struct {
		size   Size
		width  int
		height int
	}{
		{SizeVGA, 640, 480},
		{SizeQVGA, 320, 240},
		{SizeQQVGA, 160, 120},
		{SizeQQQVGA, 80, 60},
		{SizeQQQQVGA, 40, 30},
	}
	for _, c := range cases {
		p := Preset{Size: c.size, Format: FormatRGB565}
		assert.Equal(t, c.width, p.Width(), "%v width", c.size)
		assert.Equal(t, c.height, p.Height(), "%v height", c.size)
		assert.Equal(t, 2, p.BytesPerPixel())
		assert.Equal(t, c.width*c.height*2, p.FrameBytes())
	}
}

func TestPresetTableAddressesUnique(t *testing.T) {
	for _, s := range allSizes {
		for _, f := range allFormats {
			p := Preset{Size: s, Format: f}
			addr, dup := presetOps(p, 0, 0).dupAddr()
			assert.False(t, dup, "%s writes 0x%02X twice", p, addr)
		}
	}
}

func TestSizeOpsWindowMath(t *testing.T) {
	// 40x30 exercises every branch: DCW, the 1:16 zoom scaler, clamped
	// downsample ratio and a wrapped horizontal stop.
	ops := sizeOps(SizeQQQQVGA, 0, 0)
	want := map[uint8]uint8{
		regCOM3:           com3DCWEn | com3ScaleEn,
		regCOM14:          0x1C,
		regScalingDCWCtr:  0x33,
		regScalingPCLKDiv: 0xF4,
		regScalingXSC:     0x40,
		regScalingYSC:     0x40,
		regHStart:         252 >> 3,
		regHStop:          ((252 + 640) % 784) >> 3,
		regHRef:           3<<6 | (108&0b111)<<3 | (252 & 0b111),
		regVStart:         15 >> 2,
		regVStop:          (15 + 480) >> 2,
		regVRef:           ((15+480)&0b11)<<2 | (15 & 0b11),
		regScalingPCLKDly: 2,
	}
	got := map[uint8]uint8{}
	for _, op := range ops {
		got[op.Addr] = op.Value
	}
	assert.Equal(t, want, got)
}

func TestSizeOpsVGA(t *testing.T) {
	ops := sizeOps(SizeVGA, 0, 0)
	got := map[uint8]uint8{}
	for _, op := range ops {
		got[op.Addr] = op.Value
	}
	// No downsampling at full size.
	assert.Equal(t, uint8(0), got[regCOM3])
	assert.Equal(t, uint8(0), got[regCOM14])
	assert.Equal(t, uint8(0x08), got[regScalingPCLKDiv])
	assert.Equal(t, uint8(0x20), got[regScalingXSC])
}

func TestSizeOpsPreservesTestPatternBits(t *testing.T) {
	ops := sizeOps(SizeQVGA, scalingTestPattern, 0)
	got := map[uint8]uint8{}
	for _, op := range ops {
		got[op.Addr] = op.Value
	}
	assert.Equal(t, uint8(scalingTestPattern|0x20), got[regScalingXSC])
	assert.Equal(t, uint8(0x20), got[regScalingYSC])
}

func TestFormatOps(t *testing.T) {
	rgb := formatOps(FormatRGB565)
	assert.Equal(t, RegOp{regCOM7, com7RGB}, rgb[0])
	assert.Equal(t, RegOp{regCOM15, com15RGB565 | com15R00FF}, rgb[len(rgb)-1])

	yuv := formatOps(FormatYUV422)
	assert.Equal(t, RegOp{regCOM7, com7YUV}, yuv[0])
	assert.Equal(t, RegOp{regCOM15, com15R00FF}, yuv[1])
}

func TestParseSize(t *testing.T) {
	for _, s := range allSizes {
		got, err := ParseSize(s.String())
		assert.NoError(t, err)
		assert.Equal(t, s, got)
	}
	got, err := ParseSize("320x240")
	assert.NoError(t, err)
	assert.Equal(t, SizeQVGA, got)
	_, err = ParseSize("cif")
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	got, err := ParseFormat("yuv422")
	assert.NoError(t, err)
	assert.Equal(t, FormatYUV422, got)
	_, err = ParseFormat("bayer")
	assert.Error(t, err)
}

func TestInitOpsEnablesAGCLate(t *testing.T) {
	// COM8 appears twice on purpose: limits first, then AGC/AEC on.
	var com8 []uint8
	for _, op := range initOps {
		if op.Addr == regCOM8 {
			com8 = append(com8, op.Value)
		}
	}
	if assert.Len(t, com8, 2) {
		assert.Zero(t, com8[0]&(com8AGC|com8AEC))
		assert.Equal(t, uint8(com8AGC|com8AEC), com8[1]&(com8AGC|com8AEC))
	}
}
