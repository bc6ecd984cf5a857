package ov7670

import (
	"fmt"
	"strings"
)

// RegOp is a single register write.
type RegOp struct {
	Addr  uint8
	Value uint8
}

// RegisterTable is an ordered sequence of register writes applied as a unit.
// Order matters: the sensor latches some settings only after later writes.
type RegisterTable []RegOp

// dupAddr returns the first address that appears more than once in t.
func (t RegisterTable) dupAddr() (uint8, bool) {
	var seen [256]bool
	for _, op := range t {
		if seen[op.Addr] {
			return op.Addr, true
		}
		seen[op.Addr] = true
	}
	return 0, false
}

// Size selects the output resolution as a power-of-two division of VGA.
type Size uint8

const (
	SizeVGA     Size = iota // 640x480
	SizeQVGA                // 320x240
	SizeQQVGA               // 160x120
	SizeQQQVGA              // 80x60
	SizeQQQQVGA             // 40x30
)

var sizeNames = map[Size]string{
	SizeVGA:     "vga",
	SizeQVGA:    "qvga",
	SizeQQVGA:   "qqvga",
	SizeQQQVGA:  "qqqvga",
	SizeQQQQVGA: "qqqqvga",
}

func (s Size) String() string {
	if n, ok := sizeNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Size(%d)", uint8(s))
}

// ParseSize accepts a preset name ("qvga") or a dimension string ("320x240").
func ParseSize(s string) (Size, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vga", "640x480":
		return SizeVGA, nil
	case "qvga", "320x240":
		return SizeQVGA, nil
	case "qqvga", "160x120":
		return SizeQQVGA, nil
	case "qqqvga", "80x60":
		return SizeQQQVGA, nil
	case "qqqqvga", "40x30":
		return SizeQQQQVGA, nil
	}
	return 0, fmt.Errorf("ov7670: unknown size %q", s)
}

// Format selects the pixel format. Both supported formats are 2 bytes/pixel.
type Format uint8

const (
	FormatRGB565 Format = iota // RGB565, big-endian
	FormatYUV422               // YUV/YCbCr 4:2:2, big-endian
)

func (f Format) String() string {
	switch f {
	case FormatRGB565:
		return "rgb565"
	case FormatYUV422:
		return "yuv422"
	}
	return fmt.Sprintf("Format(%d)", uint8(f))
}

// ParseFormat accepts "rgb565" or "yuv422".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rgb565", "rgb":
		return FormatRGB565, nil
	case "yuv422", "yuv":
		return FormatYUV422, nil
	}
	return 0, fmt.Errorf("ov7670: unknown format %q", s)
}

// Preset names a resolution and pixel format pair. Selecting a preset on the
// device rebuilds and writes its full register table; presets are never
// merged with the previous configuration.
type Preset struct {
	Size   Size
	Format Format
}

func (p Preset) String() string { return p.Size.String() + "/" + p.Format.String() }

// Width returns the frame width in pixels.
func (p Preset) Width() int { return 640 >> p.Size }

// Height returns the frame height in pixels.
func (p Preset) Height() int { return 480 >> p.Size }

// BytesPerPixel returns the size of one pixel on the wire.
func (p Preset) BytesPerPixel() int { return 2 }

// FrameBytes returns the exact buffer size one captured frame occupies.
func (p Preset) FrameBytes() int { return p.Width() * p.Height() * p.BytesPerPixel() }

// window holds per-size frame placement values. The start offsets are
// empirical: the sensor's array does not line up with the nominal window, so
// each downsample factor needs its own tweak.
type window struct {
	vstart     int
	hstart     int
	edgeOffset uint8
	pclkDelay  uint8
}

var windows = [...]window{
	SizeVGA:     {9, 162, 2, 2},
	SizeQVGA:    {10, 174, 0, 2},
	SizeQQVGA:   {11, 186, 2, 2},
	SizeQQQVGA:  {12, 210, 0, 2},
	SizeQQQQVGA: {15, 252, 3, 2},
}

// formatOps returns the manual output format writes for f, using the full
// 00-FF output range.
func formatOps(f Format) RegisterTable {
	if f == FormatRGB565 {
		return RegisterTable{
			{regCOM7, com7RGB},
			{0x8C, 0x00}, // RGB444 off
			{regCOM15, com15RGB565 | com15R00FF},
		}
	}
	return RegisterTable{
		{regCOM7, com7YUV},
		{regCOM15, com15R00FF},
	}
}

// sizeOps returns the downsample and window placement writes for s. xsc and
// ysc are the current SCALING_XSC/YSC values; their test pattern bits (bit 7)
// are carried over so switching size does not cancel a test pattern.
func sizeOps(s Size, xsc, ysc uint8) RegisterTable {
	w := windows[s]

	// Downsampling below VGA, plus the zoom scaler at 1:16.
	var com3 uint8
	if s > SizeVGA {
		com3 = com3DCWEn
	}
	if s == SizeQQQQVGA {
		com3 |= com3ScaleEn
	}

	// PCLK division below VGA: 2,4,8,16 -> 0x19..0x1C.
	var com14 uint8
	if s > SizeVGA {
		com14 = 0x18 + uint8(s)
	}

	// Horizontal and vertical downsample ratio, 1:8 max.
	dcw := uint8(s)
	if s > SizeQQQVGA {
		dcw = uint8(SizeQQQVGA)
	}

	// Scaler pixel clock divider below VGA.
	pclkDiv := uint8(0x08)
	if s > SizeVGA {
		pclkDiv = 0xF0 + uint8(s)
	}

	// 0.5x digital zoom at 1:16, 1.0x otherwise.
	scale := uint8(0x20)
	if s == SizeQQQQVGA {
		scale = 0x40
	}

	// Stops follow from the starts; horizontal wraps at the 784 pixel line.
	vstop := w.vstart + 480
	hstop := (w.hstart + 640) % 784

	return RegisterTable{
		{regCOM3, com3},
		{regCOM14, com14},
		{regScalingDCWCtr, dcw * 0x11},
		{regScalingPCLKDiv, pclkDiv},
		{regScalingXSC, xsc&scalingTestPattern | scale},
		{regScalingYSC, ysc&scalingTestPattern | scale},
		{regHStart, uint8(w.hstart >> 3)},
		{regHStop, uint8(hstop >> 3)},
		{regHRef, w.edgeOffset<<6 | uint8(hstop&0b111)<<3 | uint8(w.hstart&0b111)},
		{regVStart, uint8(w.vstart >> 2)},
		{regVStop, uint8(vstop >> 2)},
		{regVRef, uint8(vstop&0b11)<<2 | uint8(w.vstart&0b11)},
		{regScalingPCLKDly, w.pclkDelay},
	}
}

// presetOps builds the complete ordered table for p. xsc and ysc are the
// current SCALING_XSC/YSC register values.
func presetOps(p Preset, xsc, ysc uint8) RegisterTable {
	ops := make(RegisterTable, 0, 16)
	ops = append(ops, formatOps(p.Format)...)
	ops = append(ops, sizeOps(p.Size, xsc, ysc)...)
	return ops
}

// initOps is the power-up register sequence, applied once by New after
// reset. It configures gamma, AGC/AEC, white balance, the color matrix and
// an assortment of reserved registers the vendor recommends. Unlike a
// preset, this sequence intentionally writes COM8 twice: automatic gain and
// exposure are switched on only after their operating limits are set.
var initOps = RegisterTable{
	{regTSLB, tslbYLast},
	{regCOM10, com10VSyncNeg},
	{regSlop, 0x20},
	{regGamBase + 0, 0x1C},
	{regGamBase + 1, 0x28},
	{regGamBase + 2, 0x3C},
	{regGamBase + 3, 0x55},
	{regGamBase + 4, 0x68},
	{regGamBase + 5, 0x76},
	{regGamBase + 6, 0x80},
	{regGamBase + 7, 0x88},
	{regGamBase + 8, 0x8F},
	{regGamBase + 9, 0x96},
	{regGamBase + 10, 0xA3},
	{regGamBase + 11, 0xAF},
	{regGamBase + 12, 0xC4},
	{regGamBase + 13, 0xD7},
	{regGamBase + 14, 0xE8},
	{regCOM8, com8FastAEC | com8AECStep | com8Banding},
	{regGain, 0x00},
	{regAECH, 0x00},
	{regCOM4, 0x00},
	{regCOM9, 0x20}, // max AGC value
	{regBD50Max, 0x05},
	{regBD60Max, 0x07},
	{regAEW, 0x75},
	{regAEB, 0x63},
	{regVPT, 0xA5},
	{regHAECC1, 0x78},
	{regHAECC2, 0x68},
	{0xA1, 0x03}, // reserved
	{regHAECC3, 0xDF},
	{regHAECC4, 0xDF},
	{regHAECC5, 0xF0},
	{regHAECC6, 0x90},
	{regHAECC7, 0x94},
	{regCOM8, com8FastAEC | com8AECStep | com8Banding | com8AGC | com8AEC},
	{regCOM5, 0x61},
	{regCOM6, 0x4B},
	{0x16, 0x02}, // reserved
	{regMVFP, 0x07},
	{regADCCtr1, 0x02},
	{regADCCtr2, 0x91},
	{0x29, 0x07}, // reserved
	{regCHLF, 0x0B},
	{0x35, 0x0B}, // reserved
	{regADC, 0x1D},
	{regACom, 0x71},
	{regOFON, 0x2A},
	{regCOM12, 0x78},
	{0x4D, 0x40}, // reserved
	{0x4E, 0x20}, // reserved
	{regGFix, 0x5D},
	{regReg74, 0x19},
	{0x8D, 0x4F}, // reserved
	{0x8E, 0x00}, // reserved
	{0x8F, 0x00}, // reserved
	{0x90, 0x00}, // reserved
	{0x91, 0x00}, // reserved
	{regDMLnL, 0x00},
	{0x96, 0x00}, // reserved
	{0x9A, 0x80}, // reserved
	{0xB0, 0x84}, // reserved
	{regABLC1, 0x0C},
	{0xB2, 0x0E}, // reserved
	{regTHLSt, 0x82},
	{0xB8, 0x0A}, // reserved
	{regAWBC1, 0x14},
	{regAWBC2, 0xF0},
	{regAWBC3, 0x34},
	{regAWBC4, 0x58},
	{regAWBC5, 0x28},
	{regAWBC6, 0x3A},
	{0x59, 0x88}, // reserved
	{0x5A, 0x88}, // reserved
	{0x5B, 0x44}, // reserved
	{0x5C, 0x67}, // reserved
	{0x5D, 0x49}, // reserved
	{0x5E, 0x0E}, // reserved
	{regLCC3, 0x04},
	{regLCC4, 0x20},
	{regLCC5, 0x05},
	{regLCC6, 0x04},
	{regLCC7, 0x08},
	{regAWBCtr3, 0x0A},
	{regAWBCtr2, 0x55},
	{regMTX1, 0x80},
	{regMTX2, 0x80},
	{regMTX3, 0x00},
	{regMTX4, 0x22},
	{regMTX5, 0x5E},
	{regMTX6, 0x80},
	{regAWBCtr1, 0x11},
	{regAWBCtr0, 0x9F},
	{regBright, 0x00},
	{regContrast, 0x40},
	{regContrastCenter, 0x80},
}
