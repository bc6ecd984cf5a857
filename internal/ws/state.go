package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/embedfield/ov7670"
	diag "github.com/embedfield/ov7670/internal/diagnostics"
)

// Camera is the slice of *ov7670.Dev the streaming layer drives. Keeping it
// an interface lets the simulator command plug in without hardware.
type Camera interface {
	Capture(buf []byte) error
	Preset() ov7670.Preset
	SetPreset(p ov7670.Preset) error
	SetTestPattern(t ov7670.TestPattern) error
	SetNightMode(m ov7670.NightMode) error
	SetFlip(mirror, vflip bool) error
}

// State owns the camera, runs the capture loop, and fans frames and
// diagnostics out to websocket clients. All camera access is serialized
// through its mutex; the device itself is single-owner.
type State struct {
	mu  sync.RWMutex
	Cam Camera
	FPS int

	buf         []byte
	frameID     uint64
	startTime   time.Time
	captured    uint64
	timeouts    uint64
	truncated   uint64
	clients     map[*websocket.Conn]bool
	diagClients map[*websocket.Conn]bool
}

func NewState(cam Camera, fps int) *State {
	return &State{
		Cam:         cam,
		FPS:         fps,
		buf:         make([]byte, cam.Preset().FrameBytes()),
		startTime:   time.Now(),
		clients:     map[*websocket.Conn]bool{},
		diagClients: map[*websocket.Conn]bool{},
	}
}

// RunCaptureLoop captures frames at the configured rate and broadcasts them.
// Capture errors are pushed to the diag socket and the loop keeps going; the
// device stays usable after a failed frame.
func (s *State) RunCaptureLoop() {
	ticker := time.NewTicker(time.Second / time.Duration(max(1, s.FPS)))
	defer ticker.Stop()
	for range ticker.C {
		s.mu.Lock()
		p := s.Cam.Preset()
		if len(s.buf) < p.FrameBytes() {
			s.buf = make([]byte, p.FrameBytes())
		}
		err := s.Cam.Capture(s.buf[:p.FrameBytes()])
		var frame []byte
		if err == nil {
			s.frameID++
			s.captured++
			frame = append([]byte{}, s.buf[:p.FrameBytes()]...)
		}
		s.mu.Unlock()

		switch {
		case err == nil:
			s.broadcastFrame(frame, p)
		case errors.Is(err, ov7670.ErrTimeout):
			s.mu.Lock()
			s.timeouts++
			s.mu.Unlock()
			s.pushDiag(diag.CaptureTimeout())
		case errors.Is(err, ov7670.ErrTruncated):
			s.mu.Lock()
			s.truncated++
			s.mu.Unlock()
			s.pushDiag(diag.CaptureTruncated(p.Height()))
		default:
			log.Warn().Err(err).Msg("capture failed")
		}
	}
}

func (s *State) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()
	s.sendTopology(conn)

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.clients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *State) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.diagClients[conn] = true
	s.mu.Unlock()
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.diagClients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *State) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg map[string]any
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		s.applyControl(msg)
		s.sendTopology(conn)
	}
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.Cam.Preset()
	resp := map[string]any{
		"frame_id":  s.frameID,
		"uptime_s":  time.Since(s.startTime).Seconds(),
		"captured":  s.captured,
		"timeouts":  s.timeouts,
		"truncated": s.truncated,
		"preset":    p.String(),
		"width":     p.Width(),
		"height":    p.Height(),
		"fps":       s.FPS,
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *State) applyControl(msg map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.Cam.Preset()
	apply := false
	if v, ok := msg["size"].(string); ok {
		if sz, err := ov7670.ParseSize(v); err == nil {
			p.Size = sz
			apply = true
		} else {
			s.pushDiagLocked(diag.Diagnostic{Severity: diag.Warn, Code: "CONTROL.SIZE", Summary: "unknown size", Evidence: map[string]any{"size": v}})
		}
	}
	if v, ok := msg["format"].(string); ok {
		if f, err := ov7670.ParseFormat(v); err == nil {
			p.Format = f
			apply = true
		} else {
			s.pushDiagLocked(diag.Diagnostic{Severity: diag.Warn, Code: "CONTROL.FORMAT", Summary: "unknown format", Evidence: map[string]any{"format": v}})
		}
	}
	if apply {
		if err := s.Cam.SetPreset(p); err != nil {
			s.diagRegisterErrLocked(err)
		} else {
			s.buf = make([]byte, p.FrameBytes())
		}
	}
	if v, ok := msg["testPattern"].(string); ok {
		if t, err := ov7670.ParseTestPattern(v); err == nil {
			if err := s.Cam.SetTestPattern(t); err != nil {
				s.diagRegisterErrLocked(err)
			}
		}
	}
	if v, ok := msg["night"].(string); ok {
		m := ov7670.NightModeOff
		switch v {
		case "1/2":
			m = ov7670.NightModeHalf
		case "1/4":
			m = ov7670.NightModeQuarter
		case "1/8":
			m = ov7670.NightModeEighth
		}
		if err := s.Cam.SetNightMode(m); err != nil {
			s.diagRegisterErrLocked(err)
		}
	}
	fx, okx := msg["flipX"].(bool)
	fy, oky := msg["flipY"].(bool)
	if okx || oky {
		if err := s.Cam.SetFlip(fx, fy); err != nil {
			s.diagRegisterErrLocked(err)
		}
	}
}

func (s *State) diagRegisterErrLocked(err error) {
	var rwe *ov7670.RegisterWriteError
	if errors.As(err, &rwe) {
		s.pushDiagLocked(diag.RegisterWriteFailed(rwe.Addr))
		return
	}
	log.Warn().Err(err).Msg("control write failed")
}

func (s *State) sendTopology(conn *websocket.Conn) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.Cam.Preset()
	top := map[string]any{
		"preset":        p.String(),
		"width":         p.Width(),
		"height":        p.Height(),
		"bytesPerPixel": p.BytesPerPixel(),
		"format":        p.Format.String(),
		"fps":           s.FPS,
	}
	b, _ := json.Marshal(top)
	_ = conn.WriteMessage(websocket.TextMessage, b)
}

func (s *State) broadcastFrame(raw []byte, p ov7670.Preset) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	type frame struct {
		T       int64  `json:"t"`
		FrameID uint64 `json:"frame_id"`
		Width   int    `json:"width"`
		Height  int    `json:"height"`
		Format  string `json:"format"`
		Data    []byte `json:"data"` // base64 on the wire
	}
	b, _ := json.Marshal(frame{
		T:       time.Now().UnixNano(),
		FrameID: s.frameID,
		Width:   p.Width(),
		Height:  p.Height(),
		Format:  p.Format.String(),
		Data:    raw,
	})
	for c := range s.clients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("write frame")
		}
	}
}

func (s *State) pushDiag(d diag.Diagnostic) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.pushDiagLocked(d)
}

func (s *State) pushDiagLocked(d diag.Diagnostic) {
	b, _ := json.Marshal(d)
	for c := range s.diagClients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		_ = c.WriteMessage(websocket.TextMessage, b)
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
