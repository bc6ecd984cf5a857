// Package gpiocap drives an OV7670 parallel pixel bus with GPIO pins.
//
// It bit-bangs the capture: vsync and href are watched with edge waits and
// level polls, and each byte is assembled from the eight data pins after a
// pclk rising edge. On a non-realtime host this keeps up with heavily
// divided pixel clocks only; it is meant for the small presets (80x60,
// 40x30) on a Raspberry Pi class board, the same best-effort stance the
// usual bit-banged LED drivers take.
package gpiocap

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/embedfield/ov7670"
)

// pollSlice bounds a single edge wait so the other sync line is re-checked
// at a reasonable rate while blocked.
const pollSlice = 500 * time.Microsecond

// Pins binds the capture side of the sensor. All pins are required.
type Pins struct {
	// Data are the eight data lines, D0 (least significant) through D7.
	Data [8]gpio.PinIO
	// PCLK is the pixel clock output by the sensor.
	PCLK gpio.PinIO
	// VSync marks frame boundaries.
	VSync gpio.PinIO
	// HRef marks the active part of each scan line.
	HRef gpio.PinIO
}

// Bus implements ov7670.PixelBus on GPIO pins.
type Bus struct {
	p Pins
}

var _ ov7670.PixelBus = &Bus{}

// New configures the pins as inputs and returns the bus. The pins stay bound
// to the bus until Halt.
func New(p Pins) (*Bus, error) {
	for i, d := range p.Data {
		if d == nil {
			return nil, fmt.Errorf("gpiocap: data pin D%d is nil", i)
		}
		if err := d.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("gpiocap: configuring %s: %w", d, err)
		}
	}
	for _, s := range []struct {
		pin  gpio.PinIO
		name string
		edge gpio.Edge
	}{
		{p.PCLK, "pclk", gpio.BothEdges},
		{p.VSync, "vsync", gpio.BothEdges},
		{p.HRef, "href", gpio.RisingEdge},
	} {
		if s.pin == nil {
			return nil, fmt.Errorf("gpiocap: %s pin is nil", s.name)
		}
		if err := s.pin.In(gpio.PullNoChange, s.edge); err != nil {
			return nil, fmt.Errorf("gpiocap: configuring %s: %w", s.pin, err)
		}
	}
	return &Bus{p: p}, nil
}

func (b *Bus) String() string {
	return fmt.Sprintf("gpiocap{pclk=%s vsync=%s href=%s}", b.p.PCLK, b.p.VSync, b.p.HRef)
}

var errDeadline = errors.New("gpiocap: wait deadline exceeded")

// WaitFrameStart implements ov7670.PixelBus. A frame already in flight is
// let pass so the capture starts on a clean vsync assertion.
func (b *Bus) WaitFrameStart(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for b.p.VSync.Read() == gpio.High {
		if !waitEdge(b.p.VSync, deadline) {
			return errDeadline
		}
	}
	for b.p.VSync.Read() == gpio.Low {
		if !waitEdge(b.p.VSync, deadline) {
			return errDeadline
		}
	}
	return nil
}

// WaitLineStart implements ov7670.PixelBus. It watches href and vsync
// together: href asserting starts the line, vsync deasserting ends the
// frame.
func (b *Bus) WaitLineStart(timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		if b.p.HRef.Read() == gpio.High {
			return true, nil
		}
		if b.p.VSync.Read() == gpio.Low {
			return false, nil
		}
		if time.Now().After(deadline) {
			return false, errDeadline
		}
		b.p.HRef.WaitForEdge(pollSlice)
	}
}

// ReadByte implements ov7670.PixelBus: wait out the current pclk pulse, wait
// for the next rising edge, then sample the data lines. A stuck clock makes
// this return the current line state after pollSlice rather than hang.
func (b *Bus) ReadByte() byte {
	if b.p.PCLK.Read() == gpio.High {
		b.p.PCLK.WaitForEdge(pollSlice)
	}
	if b.p.PCLK.Read() == gpio.Low {
		b.p.PCLK.WaitForEdge(pollSlice)
	}
	return b.sample()
}

// sample assembles one byte from the data pins, D7 down to D0.
func (b *Bus) sample() byte {
	var v byte
	for i := 7; i >= 0; i-- {
		v <<= 1
		if b.p.Data[i].Read() == gpio.High {
			v |= 1
		}
	}
	return v
}

func waitEdge(p gpio.PinIO, deadline time.Time) bool {
	d := time.Until(deadline)
	if d <= 0 {
		return false
	}
	if d > pollSlice {
		d = pollSlice
	}
	p.WaitForEdge(d)
	return true
}

// Halt releases the pins.
func (b *Bus) Halt() error {
	var err error
	for _, d := range b.p.Data {
		if e := d.Halt(); err == nil {
			err = e
		}
	}
	for _, s := range []gpio.PinIO{b.p.PCLK, b.p.VSync, b.p.HRef} {
		if e := s.Halt(); err == nil {
			err = e
		}
	}
	return err
}
