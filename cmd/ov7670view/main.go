// ov7670view mirrors the camera onto a small display: an SSD1306 OLED when
// one answers on the I2C bus, otherwise a color strip in the terminal.
package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"time"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/extra/devices/screen"

	"github.com/embedfield/ov7670/internal/config"
	"github.com/embedfield/ov7670/internal/hw"
	"github.com/embedfield/ov7670/internal/pixfmt"
)

func main() {
	var (
		configPath = flag.String("config", "camera.yaml", "path to camera config")
		displayBus = flag.String("display-bus", "", "I2C bus of the SSD1306; empty = first available")
		fps        = flag.Int("fps", 5, "refresh rate")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	dev, closer, err := hw.Open(cfg)
	if err != nil {
		log.Fatalf("camera: %v", err)
	}
	defer closer()

	drawer := initDrawer(*displayBus)

	buf := make([]byte, dev.FrameBytes())
	ticker := time.NewTicker(time.Second / time.Duration(*fps))
	defer ticker.Stop()
	for range ticker.C {
		if err := dev.Capture(buf); err != nil {
			log.Printf("capture: %v", err)
			continue
		}
		im, err := pixfmt.Decode(buf, dev.Preset())
		if err != nil {
			log.Fatalf("decode: %v", err)
		}
		if err := draw(drawer, im); err != nil {
			log.Fatalf("draw: %v", err)
		}
	}
}

// initDrawer opens the OLED, falling back to the terminal when the display
// bus or the controller is absent.
func initDrawer(busName string) display.Drawer {
	bus, err := i2creg.Open(busName)
	if err != nil {
		fmt.Printf("No display bus, printing at the console:\n")
		return screen.New(100)
	}
	d, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		fmt.Printf("No SSD1306 found, printing at the console:\n")
		bus.Close()
		return screen.New(100)
	}
	return d
}

func draw(drawer display.Drawer, im *image.NRGBA) error {
	b := drawer.Bounds()
	if b.Dy() == 1 {
		// Terminal strip: condense the frame to one row.
		return drawer.Draw(b, pixfmt.Strip(im, b.Dx()), image.Point{})
	}
	return drawer.Draw(b, pixfmt.Gray(im), image.Point{})
}

