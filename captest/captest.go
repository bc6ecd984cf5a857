// Package captest provides deterministic in-memory stand-ins for the two
// buses an OV7670 hangs off: an SCCB register file behind the i2c.Bus
// interface and a scripted parallel pixel bus behind ov7670.PixelBus. Both
// are meant for tests and simulators; neither sleeps or touches real time,
// so sync misbehavior (withheld vsync, short frames) is reproducible.
package captest

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	"github.com/embedfield/ov7670"
)

// Write records one register write seen by the SCCB fake.
type Write struct {
	Addr  uint8
	Value uint8
}

// SCCB is an in-memory OV7670 register file. It answers the driver's probe
// with the genuine PID/VER values and stores every write, so read-modify-
// write sequences behave like hardware.
type SCCB struct {
	// Regs is the register file. Mutate it directly to stage read values.
	Regs [256]uint8
	// Writes is every write applied, in order.
	Writes []Write
	// FailAddr, when non-negative, makes the write to that register address
	// fail, simulating a missing ACK.
	FailAddr int

	selected uint8
}

// NewSCCB returns a register file that probes as an OV7670.
func NewSCCB() *SCCB {
	s := &SCCB{FailAddr: -1}
	s.Regs[0x0A] = 0x76 // PID
	s.Regs[0x0B] = 0x73 // VER
	s.Regs[0x1C] = 0x7F // MIDH
	s.Regs[0x1D] = 0xA2 // MIDL
	return s
}

// Tx implements i2c.Bus with SCCB semantics: a two byte write sets a
// register, a one byte write selects one, a bare read returns the selected
// register.
func (s *SCCB) Tx(addr uint16, w, r []byte) error {
	switch {
	case len(w) == 2 && len(r) == 0:
		if s.FailAddr >= 0 && w[0] == uint8(s.FailAddr) {
			return fmt.Errorf("captest: register 0x%02X not acknowledged", w[0])
		}
		s.Regs[w[0]] = w[1]
		s.Writes = append(s.Writes, Write{Addr: w[0], Value: w[1]})
		return nil
	case len(w) == 1 && len(r) == 0:
		s.selected = w[0]
		return nil
	case len(w) == 0 && len(r) > 0:
		for i := range r {
			r[i] = s.Regs[s.selected+uint8(i)]
		}
		return nil
	}
	return fmt.Errorf("captest: unsupported transaction w=%d r=%d", len(w), len(r))
}

// Value returns the current content of a register.
func (s *SCCB) Value(addr uint8) uint8 { return s.Regs[addr] }

func (s *SCCB) String() string { return "captest.SCCB" }

// SetSpeed implements i2c.Bus; the fake has no clock to set.
func (s *SCCB) SetSpeed(f physic.Frequency) error { return nil }

var _ i2c.Bus = &SCCB{}

// Pattern produces the byte at (row, col) of a frame. frame counts captured
// frames, so animated simulator output is a closure away.
type Pattern func(frame, row, col int) byte

// Gradient is the default pattern: a diagonal byte ramp that shifts by one
// column per frame.
func Gradient(frame, row, col int) byte { return byte(row + col + frame) }

// Bus is a scripted parallel pixel bus. The zero value is not usable; set
// Rows and RowBytes (or use NewBus).
type Bus struct {
	// RowBytes and Rows give the frame geometry in bus bytes, i.e.
	// width*bytesPerPixel by height.
	RowBytes int
	Rows     int
	// Pattern generates pixel data; nil means Gradient.
	Pattern Pattern

	// HoldVSync withholds the frame start, so waits report timeouts.
	HoldVSync bool
	// CutAfterRows, when positive, ends every frame after that many rows,
	// producing truncated captures.
	CutAfterRows int

	frame int
	row   int
	col   int
}

// NewBus returns a bus scripted for one preset's geometry.
func NewBus(p ov7670.Preset) *Bus {
	return &Bus{
		RowBytes: p.Width() * p.BytesPerPixel(),
		Rows:     p.Height(),
	}
}

// Frames returns how many frames have started.
func (b *Bus) Frames() int { return b.frame }

// WaitFrameStart implements ov7670.PixelBus. When vsync is withheld it fails
// immediately instead of sleeping the timeout away; the driver treats any
// wait failure as a timeout, so tests stay fast and deterministic.
func (b *Bus) WaitFrameStart(timeout time.Duration) error {
	if b.HoldVSync {
		return errVSyncWithheld
	}
	b.frame++
	b.row = 0
	b.col = 0
	return nil
}

// WaitLineStart implements ov7670.PixelBus.
func (b *Bus) WaitLineStart(timeout time.Duration) (bool, error) {
	if b.CutAfterRows > 0 && b.row >= b.CutAfterRows {
		return false, nil
	}
	if b.row >= b.Rows {
		return false, nil
	}
	return true, nil
}

// ReadByte implements ov7670.PixelBus.
func (b *Bus) ReadByte() byte {
	p := b.Pattern
	if p == nil {
		p = Gradient
	}
	v := p(b.frame-1, b.row, b.col)
	b.col++
	if b.col >= b.RowBytes {
		b.col = 0
		b.row++
	}
	return v
}

var errVSyncWithheld = errors.New("captest: vsync withheld")

var _ ov7670.PixelBus = &Bus{}
