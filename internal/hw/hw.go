// Package hw wires a config file to real buses and pins for the commands.
package hw

import (
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/embedfield/ov7670"
	"github.com/embedfield/ov7670/gpiocap"
	"github.com/embedfield/ov7670/internal/config"
)

// Preset extracts the preset named in cfg, defaulting to 80x60 RGB565.
func Preset(cfg *config.Config) ov7670.Preset {
	p := ov7670.Preset{Size: ov7670.SizeQQQVGA, Format: ov7670.FormatRGB565}
	if cfg.Size != "" {
		if s, err := ov7670.ParseSize(cfg.Size); err == nil {
			p.Size = s
		}
	}
	if cfg.Format != "" {
		if f, err := ov7670.ParseFormat(cfg.Format); err == nil {
			p.Format = f
		}
	}
	return p
}

// Open initializes the host, opens the buses and pins named in cfg and
// constructs the device. The returned closer halts the device and releases
// the control bus.
func Open(cfg *config.Config) (*ov7670.Dev, func(), error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, err
	}
	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return nil, nil, err
	}
	dev, err := NewFromBus(bus, cfg)
	if err != nil {
		bus.Close()
		return nil, nil, err
	}
	return dev, func() {
		_ = dev.Halt()
		bus.Close()
	}, nil
}

// NewFromBus builds the device on an already opened control bus.
func NewFromBus(bus i2c.Bus, cfg *config.Config) (*ov7670.Dev, error) {
	var pins gpiocap.Pins
	for i, name := range cfg.Pins.Data {
		pins.Data[i] = gpioreg.ByName(name)
	}
	pins.PCLK = gpioreg.ByName(cfg.Pins.PCLK)
	pins.VSync = gpioreg.ByName(cfg.Pins.VSync)
	pins.HRef = gpioreg.ByName(cfg.Pins.HRef)
	pix, err := gpiocap.New(pins)
	if err != nil {
		return nil, err
	}

	preset := Preset(cfg)
	opts := ov7670.DefaultOpts
	opts.Addr = cfg.I2CAddr
	opts.Size = preset.Size
	opts.Format = preset.Format
	if cfg.FrameTimeoutMs > 0 {
		opts.FrameTimeout = time.Duration(cfg.FrameTimeoutMs) * time.Millisecond
	}
	if cfg.MCLKHz > 0 {
		opts.MCLKFreq = physic.Frequency(cfg.MCLKHz) * physic.Hertz
	}
	opts.MCLK = optionalPin(cfg.Pins.MCLK)
	opts.Shutdown = optionalPin(cfg.Pins.Shutdown)
	opts.Reset = optionalPin(cfg.Pins.Reset)
	return ov7670.New(bus, pix, &opts)
}

func optionalPin(name string) gpio.PinIO {
	if name == "" {
		return nil
	}
	return gpioreg.ByName(name)
}
