package ov7670

import "fmt"

// TestPattern selects one of the sensor's built-in test images.
type TestPattern uint8

const (
	TestPatternNone         TestPattern = iota // normal operation
	TestPatternShifting1                       // "shifting 1" pattern
	TestPatternColorBar                        // 8 color bars
	TestPatternColorBarFade                    // color bars fading to white
)

func (t TestPattern) String() string {
	switch t {
	case TestPatternNone:
		return "none"
	case TestPatternShifting1:
		return "shifting1"
	case TestPatternColorBar:
		return "colorbar"
	case TestPatternColorBarFade:
		return "colorbarfade"
	}
	return fmt.Sprintf("TestPattern(%d)", uint8(t))
}

// ParseTestPattern accepts the names reported by TestPattern.String.
func ParseTestPattern(s string) (TestPattern, error) {
	for _, t := range []TestPattern{TestPatternNone, TestPatternShifting1, TestPatternColorBar, TestPatternColorBarFade} {
		if s == t.String() {
			return t, nil
		}
	}
	return 0, fmt.Errorf("ov7670: unknown test pattern %q", s)
}

// SetTestPattern enables or disables a test image. The selector bits share
// SCALING_XSC/YSC with the zoom factor, so only bit 7 of each is touched.
func (d *Dev) SetTestPattern(t TestPattern) error {
	xsc, err := d.readRegister(regScalingXSC)
	if err != nil {
		return err
	}
	ysc, err := d.readRegister(regScalingYSC)
	if err != nil {
		return err
	}
	xsc &^= scalingTestPattern
	ysc &^= scalingTestPattern
	if t&1 != 0 {
		xsc |= scalingTestPattern
	}
	if t&2 != 0 {
		ysc |= scalingTestPattern
	}
	if err := d.writeRegister(regScalingXSC, xsc); err != nil {
		return err
	}
	if err := d.writeRegister(regScalingYSC, ysc); err != nil {
		return err
	}
	d.pattern = t
	return nil
}

// TestPattern returns the last applied test pattern.
func (d *Dev) TestPattern() TestPattern { return d.pattern }

// NightMode trades frame rate for low-light sensitivity. The values are the
// COM11 bit patterns for the supported frame rate dividers; the sensor's
// "same frame rate" night mode is not useful and is skipped.
type NightMode uint8

const (
	NightModeOff     NightMode = 0
	NightModeHalf    NightMode = 0b1010_0000 // 1/2 frame rate
	NightModeQuarter NightMode = 0b1100_0000 // 1/4 frame rate
	NightModeEighth  NightMode = 0b1110_0000 // 1/8 frame rate
)

// SetNightMode switches night mode via read-modify-write of COM11, leaving
// the banding filter bits alone.
func (d *Dev) SetNightMode(m NightMode) error {
	com11, err := d.readRegister(regCOM11)
	if err != nil {
		return err
	}
	com11 = com11&^com11NightMask | uint8(m)
	if err := d.writeRegister(regCOM11, com11); err != nil {
		return err
	}
	d.night = m
	return nil
}

// NightMode returns the last applied night mode.
func (d *Dev) NightMode() NightMode { return d.night }

// SetFlip mirrors the image horizontally and/or flips it vertically.
func (d *Dev) SetFlip(mirror, vflip bool) error {
	mvfp, err := d.readRegister(regMVFP)
	if err != nil {
		return err
	}
	mvfp &^= mvfpMirror | mvfpVFlip
	if mirror {
		mvfp |= mvfpMirror
	}
	if vflip {
		mvfp |= mvfpVFlip
	}
	if err := d.writeRegister(regMVFP, mvfp); err != nil {
		return err
	}
	d.flipX, d.flipY = mirror, vflip
	return nil
}

// Flip returns the last applied mirror/flip state.
func (d *Dev) Flip() (mirror, vflip bool) { return d.flipX, d.flipY }

// ProductID reads the PID register. A live OV7670 reports 0x76.
func (d *Dev) ProductID() (uint8, error) { return d.readRegister(regPID) }

// ProductVersion reads the VER register. A live OV7670 reports 0x73.
func (d *Dev) ProductVersion() (uint8, error) { return d.readRegister(regVer) }
