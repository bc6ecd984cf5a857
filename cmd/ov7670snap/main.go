// ov7670snap captures a single frame from an OV7670 and writes it to a file,
// raw or decoded to PNG.
package main

import (
	"flag"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/embedfield/ov7670/internal/config"
	"github.com/embedfield/ov7670/internal/hw"
	"github.com/embedfield/ov7670/internal/pixfmt"
)

func main() {
	var (
		configPath = flag.String("config", "camera.yaml", "path to camera config")
		size       = flag.String("size", "", "override size (vga..qqqqvga or WxH)")
		format     = flag.String("format", "", "override format (rgb565 | yuv422)")
		out        = flag.String("out", "frame.png", "output file (.png decodes, anything else is raw)")
		timeout    = flag.Duration("timeout", 0, "override frame timeout")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("config load failed")
	}
	if *size != "" {
		cfg.Size = *size
	}
	if *format != "" {
		cfg.Format = *format
	}
	if *timeout > 0 {
		cfg.FrameTimeoutMs = int(timeout.Milliseconds())
	}

	dev, closer, err := hw.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("camera init failed")
	}
	defer closer()

	buf := make([]byte, dev.FrameBytes())
	start := time.Now()
	if err := dev.Capture(buf); err != nil {
		log.Fatal().Err(err).Msg("capture failed")
	}
	log.Info().
		Int("width", dev.Width()).
		Int("height", dev.Height()).
		Int("bytes", len(buf)).
		Dur("took", time.Since(start)).
		Msg("frame captured")

	if strings.EqualFold(filepath.Ext(*out), ".png") {
		im, err := pixfmt.Decode(buf, dev.Preset())
		if err != nil {
			log.Fatal().Err(err).Msg("decode failed")
		}
		f, err := os.Create(*out)
		if err != nil {
			log.Fatal().Err(err).Msg("create output")
		}
		defer f.Close()
		if err := png.Encode(f, im); err != nil {
			log.Fatal().Err(err).Msg("png encode")
		}
	} else if err := os.WriteFile(*out, buf, 0644); err != nil {
		log.Fatal().Err(err).Msg("write output")
	}
	log.Info().Str("out", *out).Msg("written")
}
