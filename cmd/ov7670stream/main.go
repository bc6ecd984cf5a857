// ov7670stream serves captured frames over websockets, with a control socket
// for preset and sensor features and a diag socket for capture health.
package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/embedfield/ov7670"
	"github.com/embedfield/ov7670/captest"
	"github.com/embedfield/ov7670/internal/config"
	"github.com/embedfield/ov7670/internal/hw"
	"github.com/embedfield/ov7670/internal/ws"
)

func main() {
	var (
		configPath = flag.String("config", "camera.yaml", "path to camera config")
		addr       = flag.String("addr", ":8080", "HTTP listen address")
		fps        = flag.Int("fps", 10, "capture loop frames per second")
		driver     = flag.String("driver", "gpio", "capture driver: gpio | sim")
		simOnly    = flag.Bool("sim-only", false, "force simulation (no hardware)")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	var cfg *config.Config
	if c, err := config.Load(*configPath); err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with flags")
		cfg = &config.Config{}
	} else {
		cfg = c
	}
	if cfg.FPS > 0 {
		*fps = cfg.FPS
	}
	if cfg.Addr != "" {
		*addr = cfg.Addr
	}

	selected := *driver
	if *simOnly {
		selected = "sim"
	}

	var cam ws.Camera
	switch selected {
	case "gpio":
		dev, closer, err := hw.Open(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("hardware init failed; falling back to SIM")
			cam = simCamera(cfg)
			selected = "sim"
		} else {
			defer closer()
			cam = dev
		}
	case "sim":
		cam = simCamera(cfg)
	default:
		log.Warn().Str("driver", selected).Msg("unknown driver; using SIM")
		cam = simCamera(cfg)
		selected = "sim"
	}

	state := ws.NewState(cam, *fps)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", state.HandleFramesWS)
	mux.HandleFunc("/diag", state.HandleDiagWS)
	mux.HandleFunc("/control", state.HandleControlWS)
	mux.HandleFunc("/health", state.HandleHealth)

	srv := &http.Server{
		Addr:         *addr,
		Handler:      withCORS(mux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go state.RunCaptureLoop()
	go func() {
		log.Info().Str("addr", *addr).Str("driver", selected).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server crashed")
		}
	}()

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	s := <-ch
	log.Info().Str("signal", s.String()).Msg("shutting down")
	_ = srv.Close()
	if h, ok := cam.(interface{ Halt() error }); ok {
		_ = h.Halt()
	}
}

// simCamera builds a fully simulated device: a register file on the control
// side and a moving gradient on the pixel side.
func simCamera(cfg *config.Config) ws.Camera {
	preset := hw.Preset(cfg)
	bus := captest.NewBus(preset)
	dev, err := ov7670.New(captest.NewSCCB(), bus, &ov7670.Opts{
		Size:   preset.Size,
		Format: preset.Format,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("simulated camera init failed")
	}
	return &simResize{Dev: dev, bus: bus}
}

// simResize keeps the simulated pixel bus geometry in step with preset
// changes coming over the control socket.
type simResize struct {
	*ov7670.Dev
	bus *captest.Bus
}

func (s *simResize) SetPreset(p ov7670.Preset) error {
	if err := s.Dev.SetPreset(p); err != nil {
		return err
	}
	s.bus.RowBytes = p.Width() * p.BytesPerPixel()
	s.bus.Rows = p.Height()
	return nil
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h.ServeHTTP(w, r)
	})
}
