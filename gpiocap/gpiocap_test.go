package gpiocap

import (
	"errors"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// testPins returns a fully wired pin set. The sync pins get buffered edge
// channels so tests can script transitions ahead of the wait.
func testPins() (Pins, *gpiotest.Pin, *gpiotest.Pin, *gpiotest.Pin) {
	p := Pins{}
	for i := range p.Data {
		p.Data[i] = &gpiotest.Pin{N: "D" + string(rune('0'+i)), Num: i}
	}
	pclk := &gpiotest.Pin{N: "PCLK", Num: 8, EdgesChan: make(chan gpio.Level, 8)}
	vsync := &gpiotest.Pin{N: "VSYNC", Num: 9, EdgesChan: make(chan gpio.Level, 8)}
	href := &gpiotest.Pin{N: "HREF", Num: 10, EdgesChan: make(chan gpio.Level, 8)}
	p.PCLK, p.VSync, p.HRef = pclk, vsync, href
	return p, pclk, vsync, href
}

func TestNewRejectsNilPins(t *testing.T) {
	p, _, _, _ := testPins()
	p.Data[3] = nil
	if _, err := New(p); err == nil {
		t.Fatal("nil data pin accepted")
	}

	p, _, _, _ = testPins()
	p.HRef = nil
	if _, err := New(p); err == nil {
		t.Fatal("nil href pin accepted")
	}
}

func TestSampleAssemblesByte(t *testing.T) {
	p, _, _, _ := testPins()
	b, err := New(p)
	if err != nil {
		t.Fatal(err)
	}
	// 0b10110010: D1, D4, D5, D7 high.
	for _, i := range []int{1, 4, 5, 7} {
		p.Data[i].(*gpiotest.Pin).L = gpio.High
	}
	if got := b.sample(); got != 0xB2 {
		t.Fatalf("sample = %#x, want 0xb2", got)
	}
}

func TestReadByteStuckClock(t *testing.T) {
	p, pclk, _, _ := testPins()
	b, err := New(p)
	if err != nil {
		t.Fatal(err)
	}
	pclk.L = gpio.Low
	p.Data[0].(*gpiotest.Pin).L = gpio.High

	// With no clock edges the read falls back to the line state after one
	// poll slice instead of hanging.
	start := time.Now()
	if got := b.ReadByte(); got != 0x01 {
		t.Fatalf("ReadByte = %#x, want 0x01", got)
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("ReadByte hung on a stuck clock")
	}
}

func TestWaitFrameStartLetsInFlightFramePass(t *testing.T) {
	p, _, vsync, _ := testPins()
	b, err := New(p)
	if err != nil {
		t.Fatal(err)
	}
	// Mid-frame at call time: the wait must see the frame end, then the next
	// assertion.
	vsync.L = gpio.High
	vsync.EdgesChan <- gpio.Low
	vsync.EdgesChan <- gpio.High

	if err := b.WaitFrameStart(time.Second); err != nil {
		t.Fatal(err)
	}
	if vsync.Read() != gpio.High {
		t.Fatal("vsync not high after frame start")
	}
}

func TestWaitFrameStartDeadline(t *testing.T) {
	p, _, vsync, _ := testPins()
	b, err := New(p)
	if err != nil {
		t.Fatal(err)
	}
	vsync.L = gpio.Low

	if err := b.WaitFrameStart(2 * time.Millisecond); !errors.Is(err, errDeadline) {
		t.Fatalf("err = %v, want deadline", err)
	}
}

func TestWaitLineStart(t *testing.T) {
	p, _, vsync, href := testPins()
	b, err := New(p)
	if err != nil {
		t.Fatal(err)
	}

	// Line active.
	vsync.L = gpio.High
	href.L = gpio.High
	if ok, err := b.WaitLineStart(time.Second); !ok || err != nil {
		t.Fatalf("ok=%v err=%v, want line start", ok, err)
	}

	// Frame ended.
	vsync.L = gpio.Low
	href.L = gpio.Low
	if ok, err := b.WaitLineStart(time.Second); ok || err != nil {
		t.Fatalf("ok=%v err=%v, want frame end", ok, err)
	}

	// Neither line moves: deadline.
	vsync.L = gpio.High
	if ok, err := b.WaitLineStart(2 * time.Millisecond); ok || !errors.Is(err, errDeadline) {
		t.Fatalf("ok=%v err=%v, want deadline", ok, err)
	}
}

func TestHalt(t *testing.T) {
	p, _, _, _ := testPins()
	b, err := New(p)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Halt(); err != nil {
		t.Fatal(err)
	}
}
