package ov7670_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/embedfield/ov7670"
	"github.com/embedfield/ov7670/captest"
)

func newCaptureSim(t *testing.T, size ov7670.Size) (*ov7670.Dev, *captest.Bus) {
	t.Helper()
	d, _, b := newSim(t, &ov7670.Opts{
		Size:         size,
		Format:       ov7670.FormatRGB565,
		FrameTimeout: 10 * time.Millisecond,
	})
	return d, b
}

func TestCaptureFillsExactFrame(t *testing.T) {
	d, _ := newCaptureSim(t, ov7670.SizeQQQQVGA)
	if got := d.FrameBytes(); got != 2400 {
		t.Fatalf("FrameBytes = %d, want 2400", got)
	}

	buf := make([]byte, 2400)
	if err := d.Capture(buf); err != nil {
		t.Fatal(err)
	}

	// First frame of the default gradient: byte(row+col).
	rowBytes := d.Width() * d.BytesPerPixel()
	for row := 0; row < d.Height(); row++ {
		for col := 0; col < rowBytes; col++ {
			if got, want := buf[row*rowBytes+col], byte(row+col); got != want {
				t.Fatalf("buf[%d][%d] = %#x, want %#x", row, col, got, want)
			}
		}
	}
}

func TestCaptureAdvancesFrames(t *testing.T) {
	d, b := newCaptureSim(t, ov7670.SizeQQQQVGA)
	buf := make([]byte, d.FrameBytes())

	for i := 0; i < 3; i++ {
		if err := d.Capture(buf); err != nil {
			t.Fatal(err)
		}
		if got, want := buf[0], byte(i); got != want {
			t.Fatalf("frame %d: buf[0] = %#x, want %#x", i, got, want)
		}
	}
	if b.Frames() != 3 {
		t.Fatalf("Frames = %d, want 3", b.Frames())
	}
}

func TestCaptureBufferTooSmall(t *testing.T) {
	d, b := newCaptureSim(t, ov7670.SizeQQQQVGA)
	buf := make([]byte, d.FrameBytes()-1)

	if err := d.Capture(buf); !errors.Is(err, ov7670.ErrBufferTooSmall) {
		t.Fatalf("err = %v, want ErrBufferTooSmall", err)
	}
	// Nothing consumed, nothing written.
	if b.Frames() != 0 {
		t.Fatalf("Frames = %d, want 0", b.Frames())
	}
	if !bytes.Equal(buf, make([]byte, len(buf))) {
		t.Fatal("buffer was written despite ErrBufferTooSmall")
	}
}

func TestCaptureTimeout(t *testing.T) {
	d, b := newCaptureSim(t, ov7670.SizeQQQQVGA)
	b.HoldVSync = true

	buf := make([]byte, d.FrameBytes())
	if err := d.Capture(buf); !errors.Is(err, ov7670.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if !bytes.Equal(buf, make([]byte, len(buf))) {
		t.Fatal("buffer was written despite ErrTimeout")
	}
}

func TestCaptureTruncated(t *testing.T) {
	d, b := newCaptureSim(t, ov7670.SizeQQQQVGA)
	b.CutAfterRows = 10

	buf := make([]byte, d.FrameBytes())
	if err := d.Capture(buf); !errors.Is(err, ov7670.ErrTruncated) {
		t.Fatalf("err = %v, want ErrTruncated", err)
	}

	// The rows delivered before the cut are intact.
	rowBytes := d.Width() * d.BytesPerPixel()
	for col := 0; col < rowBytes; col++ {
		if got, want := buf[9*rowBytes+col], byte(9+col); got != want {
			t.Fatalf("row 9 col %d = %#x, want %#x", col, got, want)
		}
	}
}

func TestCaptureNeverWritesPastFrame(t *testing.T) {
	d, _ := newCaptureSim(t, ov7670.SizeQQQQVGA)

	buf := make([]byte, d.FrameBytes()+16)
	for i := d.FrameBytes(); i < len(buf); i++ {
		buf[i] = 0xEE
	}
	if err := d.Capture(buf); err != nil {
		t.Fatal(err)
	}
	for i := d.FrameBytes(); i < len(buf); i++ {
		if buf[i] != 0xEE {
			t.Fatalf("byte %d past frame end was overwritten", i)
		}
	}
}

func TestCaptureAfterPresetChange(t *testing.T) {
	d, b := newCaptureSim(t, ov7670.SizeQQQVGA)
	if err := d.SetSize(ov7670.SizeQQQQVGA); err != nil {
		t.Fatal(err)
	}
	// The scripted bus keeps its geometry; resize it the way a simulator
	// front end would.
	b.RowBytes = d.Width() * d.BytesPerPixel()
	b.Rows = d.Height()

	buf := make([]byte, d.FrameBytes())
	if err := d.Capture(buf); err != nil {
		t.Fatal(err)
	}
}
