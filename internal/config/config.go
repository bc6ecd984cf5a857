package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Pins names the GPIO bindings by the names gpioreg resolves, e.g. "GPIO17".
type Pins struct {
	Data     [8]string `yaml:"data"` // D0..D7
	PCLK     string    `yaml:"pclk"`
	VSync    string    `yaml:"vsync"`
	HRef     string    `yaml:"href"`
	MCLK     string    `yaml:"mclk,omitempty"`
	Shutdown string    `yaml:"shutdown,omitempty"`
	Reset    string    `yaml:"reset,omitempty"`
}

type Config struct {
	I2CBus  string `yaml:"i2c_bus"` // e.g. "1" or "/dev/i2c-1"; empty = first available
	I2CAddr uint16 `yaml:"i2c_addr"`

	Size   string `yaml:"size"`   // "vga" .. "qqqqvga" or "WxH"
	Format string `yaml:"format"` // "rgb565" | "yuv422"

	FrameTimeoutMs int `yaml:"frame_timeout_ms"`
	MCLKHz         int `yaml:"mclk_hz"`

	Pins Pins `yaml:"pins"`

	FPS  int    `yaml:"fps"`            // capture loop rate for streaming
	Addr string `yaml:"addr,omitempty"` // HTTP listen address
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
