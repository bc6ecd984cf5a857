// capsim runs the driver against the simulated capture bus and renders each
// frame as a color strip in the terminal. Useful for eyeballing the capture
// path without a sensor attached.
package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"time"

	"periph.io/x/extra/devices/screen"

	"github.com/embedfield/ov7670"
	"github.com/embedfield/ov7670/captest"
	"github.com/embedfield/ov7670/internal/pixfmt"
)

func main() {
	var (
		size   = flag.String("size", "qqqqvga", "preset size")
		format = flag.String("format", "rgb565", "preset format")
		fps    = flag.Int("fps", 10, "simulation frames per second")
		frames = flag.Int("frames", 100, "frames to render before exiting, 0 = forever")
		width  = flag.Int("strip", 80, "terminal strip width")
	)
	flag.Parse()

	sz, err := ov7670.ParseSize(*size)
	if err != nil {
		log.Fatalf("size: %v", err)
	}
	f, err := ov7670.ParseFormat(*format)
	if err != nil {
		log.Fatalf("format: %v", err)
	}

	preset := ov7670.Preset{Size: sz, Format: f}
	bus := captest.NewBus(preset)
	dev, err := ov7670.New(captest.NewSCCB(), bus, &ov7670.Opts{Size: sz, Format: f})
	if err != nil {
		log.Fatalf("init: %v", err)
	}

	drawer := screen.New(*width)
	buf := make([]byte, dev.FrameBytes())

	ticker := time.NewTicker(time.Second / time.Duration(*fps))
	defer ticker.Stop()

	n := 0
	for range ticker.C {
		if err := dev.Capture(buf); err != nil {
			log.Fatalf("capture: %v", err)
		}
		im, err := pixfmt.Decode(buf, dev.Preset())
		if err != nil {
			log.Fatalf("decode: %v", err)
		}
		strip := pixfmt.Strip(im, *width)
		if err := drawer.Draw(drawer.Bounds(), strip, image.Point{}); err != nil {
			log.Fatalf("draw: %v", err)
		}
		fmt.Printf("\n")

		n++
		if *frames > 0 && n >= *frames {
			fmt.Printf("rendered %d frames (%dx%d %s)\n", n, dev.Width(), dev.Height(), dev.Preset().Format)
			os.Exit(0)
		}
	}
}
