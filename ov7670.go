// Package ov7670 controls an OmniVision OV7670 camera sensor.
//
// The sensor has two independent interfaces: an SCCB (I²C compatible) control
// port for register configuration, and a parallel pixel port that emits one
// byte per pixel clock pulse, framed by the vsync and href lines. Register
// traffic goes over an i2c.Bus; pixel traffic goes through the PixelBus
// interface, so a simulated bus can stand in for hardware (see the captest
// package) and real pins are driven by the gpiocap package.
//
// A Dev is not safe for concurrent use. One goroutine owns configuration and
// capture for the lifetime of the device; Capture blocks that goroutine until
// a full frame is in the buffer, the frame is cut short, or the sync timeout
// expires.
//
// Datasheet
//
// http://web.mit.edu/6.111/www/f2016/tools/OV7670_2006.pdf
package ov7670

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// DefaultAddr is the sensor's fixed SCCB address.
const DefaultAddr = 0x21

// RegisterWriteError reports a register write the sensor did not acknowledge.
// A failed preset application leaves the device in a mixed configuration;
// re-apply the preset or reset the device before capturing.
type RegisterWriteError struct {
	Addr uint8
	Err  error
}

func (e *RegisterWriteError) Error() string {
	return fmt.Sprintf("ov7670: writing register 0x%02X: %v", e.Addr, e.Err)
}

func (e *RegisterWriteError) Unwrap() error { return e.Err }

// Opts holds the construction options. The zero value of optional fields
// falls back to DefaultOpts.
type Opts struct {
	// Addr is the SCCB address, almost always DefaultAddr.
	Addr uint16
	// Size and Format select the initial preset.
	Size   Size
	Format Format
	// FrameTimeout bounds how long Capture waits for a sync signal.
	FrameTimeout time.Duration
	// MCLK, if set, is driven as the sensor's master clock at MCLKFreq.
	// Leave nil when the clock is generated externally.
	MCLK     gpio.PinIO
	MCLKFreq physic.Frequency
	// Shutdown (PWDN) and Reset are optional control pins. When Reset is
	// nil, New falls back to an SCCB soft reset.
	Shutdown gpio.PinIO
	Reset    gpio.PinIO
}

// DefaultOpts is the recommended default configuration: 80x60 RGB565 with a
// 16MHz master clock, matching the sensor's reset behavior closely enough to
// come up on marginal wiring.
var DefaultOpts = Opts{
	Addr:         DefaultAddr,
	Size:         SizeQQQVGA,
	Format:       FormatRGB565,
	FrameTimeout: time.Second,
	MCLKFreq:     16 * physic.MegaHertz,
}

// Dev is a handle to an OV7670. It owns its bus and pin bindings from New
// until Halt.
type Dev struct {
	c       i2c.Dev
	pix     PixelBus
	mclk    gpio.PinIO
	shut    gpio.PinIO
	timeout time.Duration

	preset  Preset
	pattern TestPattern
	night   NightMode
	flipX   bool
	flipY   bool
}

// New resets and probes the sensor, applies the power-up register sequence
// and the preset named in opts, and returns a ready-to-capture device.
//
// bus carries the SCCB control traffic; pix carries pixel data. Pin bindings
// passed in opts are held until Halt.
func New(bus i2c.Bus, pix PixelBus, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	o := *opts
	if o.Addr == 0 {
		o.Addr = DefaultAddr
	}
	if o.FrameTimeout == 0 {
		o.FrameTimeout = DefaultOpts.FrameTimeout
	}
	if o.MCLKFreq == 0 {
		o.MCLKFreq = DefaultOpts.MCLKFreq
	}
	if pix == nil {
		return nil, errors.New("ov7670: nil pixel bus")
	}

	d := &Dev{
		c:       i2c.Dev{Bus: bus, Addr: o.Addr},
		pix:     pix,
		mclk:    o.MCLK,
		shut:    o.Shutdown,
		timeout: o.FrameTimeout,
	}

	if o.MCLK != nil {
		if err := o.MCLK.PWM(gpio.DutyHalf, o.MCLKFreq); err != nil {
			return nil, fmt.Errorf("ov7670: starting master clock: %w", err)
		}
	}
	if o.Shutdown != nil {
		// Power cycle: PWDN high puts the sensor to sleep, low wakes it.
		// The long settle covers the sensor's internal regulator ramp.
		if err := o.Shutdown.Out(gpio.High); err != nil {
			return nil, fmt.Errorf("ov7670: shutdown pin: %w", err)
		}
		time.Sleep(time.Millisecond)
		if err := o.Shutdown.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("ov7670: shutdown pin: %w", err)
		}
		time.Sleep(300 * time.Millisecond)
	}
	if o.Reset != nil {
		if err := o.Reset.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("ov7670: reset pin: %w", err)
		}
		time.Sleep(time.Millisecond)
		if err := o.Reset.Out(gpio.High); err != nil {
			return nil, fmt.Errorf("ov7670: reset pin: %w", err)
		}
	} else if err := d.writeRegister(regCOM7, com7Reset); err != nil {
		return nil, err
	}
	time.Sleep(time.Millisecond)

	pid, err := d.readRegister(regPID)
	if err != nil {
		return nil, err
	}
	if pid != productID {
		return nil, fmt.Errorf("ov7670: unexpected product ID 0x%02X, no OV7670 at address 0x%02X?", pid, o.Addr)
	}

	if err := d.writeTable(initOps); err != nil {
		return nil, err
	}
	if err := d.SetPreset(Preset{Size: o.Size, Format: o.Format}); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("ov7670{%s, %s}", d.c.String(), d.preset)
}

// Preset returns the preset currently applied to the sensor.
func (d *Dev) Preset() Preset { return d.preset }

// Width returns the configured frame width in pixels.
func (d *Dev) Width() int { return d.preset.Width() }

// Height returns the configured frame height in pixels.
func (d *Dev) Height() int { return d.preset.Height() }

// BytesPerPixel returns the configured pixel size on the wire.
func (d *Dev) BytesPerPixel() int { return d.preset.BytesPerPixel() }

// FrameBytes returns the buffer size Capture requires.
func (d *Dev) FrameBytes() int { return d.preset.FrameBytes() }

// SetPreset rebuilds and writes the full register table for p. It fails fast
// on the first unacknowledged write with a RegisterWriteError and performs no
// rollback; the previous preset remains reported until a preset applies
// cleanly.
func (d *Dev) SetPreset(p Preset) error {
	if int(p.Size) >= len(windows) {
		return fmt.Errorf("ov7670: invalid size %v", p.Size)
	}
	// The scaling registers double as test pattern selectors; read them so
	// the preset write keeps the pattern bits intact.
	xsc, err := d.readRegister(regScalingXSC)
	if err != nil {
		return err
	}
	ysc, err := d.readRegister(regScalingYSC)
	if err != nil {
		return err
	}
	if err := d.writeTable(presetOps(p, xsc, ysc)); err != nil {
		return err
	}
	d.preset = p
	return nil
}

// SetSize switches resolution, keeping the current pixel format.
func (d *Dev) SetSize(s Size) error {
	return d.SetPreset(Preset{Size: s, Format: d.preset.Format})
}

// SetFormat switches pixel format, keeping the current resolution.
func (d *Dev) SetFormat(f Format) error {
	return d.SetPreset(Preset{Size: d.preset.Size, Format: f})
}

// Halt puts the sensor into soft sleep and releases the pins held by the
// device. The handle must not be used afterwards.
func (d *Dev) Halt() error {
	err := d.writeRegister(regCOM2, com2SSleep)
	if d.mclk != nil {
		if e := d.mclk.Halt(); err == nil {
			err = e
		}
	}
	if d.shut != nil {
		if e := d.shut.Out(gpio.High); err == nil {
			err = e
		}
	}
	if h, ok := d.pix.(interface{ Halt() error }); ok {
		if e := h.Halt(); err == nil {
			err = e
		}
	}
	return err
}

// writeTable applies ops in order, failing fast on the first unacknowledged
// write. The inter-write delay gives the sensor's register file time to
// settle; the sensor drops back-to-back SCCB writes while it is busy.
func (d *Dev) writeTable(ops RegisterTable) error {
	for _, op := range ops {
		if err := d.writeRegister(op.Addr, op.Value); err != nil {
			return err
		}
		time.Sleep(time.Millisecond)
	}
	return nil
}

func (d *Dev) writeRegister(reg, value uint8) error {
	if err := d.c.Tx([]byte{reg, value}, nil); err != nil {
		return &RegisterWriteError{Addr: reg, Err: err}
	}
	return nil
}

// readRegister performs an SCCB read: a one byte write selecting the
// register, then a separate one byte read. SCCB has no repeated start, so
// the two phases must be distinct transactions.
func (d *Dev) readRegister(reg uint8) (uint8, error) {
	if err := d.c.Tx([]byte{reg}, nil); err != nil {
		return 0, fmt.Errorf("ov7670: selecting register 0x%02X: %w", reg, err)
	}
	var b [1]byte
	if err := d.c.Tx(nil, b[:]); err != nil {
		return 0, fmt.Errorf("ov7670: reading register 0x%02X: %w", reg, err)
	}
	return b[0], nil
}
