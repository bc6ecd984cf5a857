package ov7670

import (
	"errors"
	"time"
)

// Capture errors. Capture never returns a partially valid frame silently: on
// any error the buffer contents are unspecified and the frame must be
// discarded. The device stays usable; a later Capture may succeed.
var (
	// ErrTimeout means a sync signal did not arrive within the configured
	// frame timeout.
	ErrTimeout = errors.New("ov7670: timed out waiting for sync")
	// ErrTruncated means vsync deasserted before the configured row count
	// was captured (short frame).
	ErrTruncated = errors.New("ov7670: frame ended before expected row count")
	// ErrBufferTooSmall means the supplied buffer cannot hold one frame for
	// the current preset. The buffer is not touched.
	ErrBufferTooSmall = errors.New("ov7670: buffer smaller than frame size")
)

// PixelBus is the parallel capture side of the camera: the vsync, href and
// pclk synchronization lines plus eight data lines sampled one byte per
// clock pulse. The driver sequences a frame through it; implementations only
// provide the waits and the sampling.
//
// The waits fail only when their timeout elapses. Implementations are driven
// from a single goroutine and need no internal locking.
type PixelBus interface {
	// WaitFrameStart blocks until vsync asserts at the start of a fresh
	// frame.
	WaitFrameStart(timeout time.Duration) error
	// WaitLineStart blocks until href asserts for the next scan line. It
	// returns false with a nil error when vsync deasserted first, i.e. the
	// frame ended.
	WaitLineStart(timeout time.Duration) (bool, error)
	// ReadByte samples the data lines on the next pclk pulse.
	ReadByte() byte
}

// Capture blocks until one full frame for the current preset has been
// written into buf.
//
// buf must hold at least FrameBytes bytes; Capture never writes beyond that
// count. On ErrTimeout nothing has been written. On ErrTruncated the frame
// ended short and buf holds an unspecified prefix.
func (d *Dev) Capture(buf []byte) error {
	need := d.preset.FrameBytes()
	if len(buf) < need {
		return ErrBufferTooSmall
	}
	if err := d.pix.WaitFrameStart(d.timeout); err != nil {
		return ErrTimeout
	}
	rowBytes := d.preset.Width() * d.preset.BytesPerPixel()
	off := 0
	for row := 0; row < d.preset.Height(); row++ {
		ok, err := d.pix.WaitLineStart(d.timeout)
		if err != nil {
			return ErrTimeout
		}
		if !ok {
			return ErrTruncated
		}
		for col := 0; col < rowBytes; col++ {
			buf[off] = d.pix.ReadByte()
			off++
		}
	}
	return nil
}
