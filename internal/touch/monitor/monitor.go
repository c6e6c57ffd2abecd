// Package monitor serves debugging and diagnostic views over HTTP: a JSON
// status endpoint, go-echarts scatter panels for the latest scan and live
// tracks, and periodic PNG snapshots written to disk. Fed by the best-effort
// visualization channel each pipeline publishes on.
package monitor

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/jithumediapro/lidar-touch/internal/touch"
	"github.com/jithumediapro/lidar-touch/internal/touch/pipeline"
	"github.com/jithumediapro/lidar-touch/internal/touch/sensor"
)

// Logf is the package-level diagnostic logger, replaceable by tests.
var Logf func(format string, v ...interface{}) = log.Printf

// SensorStatus is one sensor's connection state as reported by its Source.
type SensorStatus struct {
	SensorID           string    `json:"sensor_id"`
	Connection         string    `json:"connection"`
	LastFrameAt        time.Time `json:"last_frame_at"`
	BackgroundState    string    `json:"background_state"`
	BackgroundProgress float64   `json:"background_progress"`
	LastFrameSeq       int64     `json:"last_frame_seq"`
	ActiveTracks       int       `json:"active_tracks"`
}

// StatusSnapshot is the full /status JSON payload.
type StatusSnapshot struct {
	Sensors   []SensorStatus `json:"sensors"`
	UptimeS   float64        `json:"uptime_s"`
	SettingsV uint64         `json:"settings_version"`
}

// Server exposes monitoring endpoints for a running daemon. It never
// touches the processing hot path directly: every view is built from the
// latest FrameResult each pipeline publishes on its visualization sink,
// plus connection status strings from each sensor Source.
type Server struct {
	mu        sync.Mutex
	started   time.Time
	versionOf func() uint64
	latest    map[string]pipeline.FrameResult
	status    map[string]string
	http      *http.Server
}

// NewServer creates a monitor server. versionOf, if non-nil, is polled for
// the settings version reported in /status.
func NewServer(addr string, versionOf func() uint64) *Server {
	if versionOf == nil {
		versionOf = func() uint64 { return 0 }
	}
	s := &Server{
		started:   time.Now(),
		versionOf: versionOf,
		latest:    make(map[string]pipeline.FrameResult),
		status:    make(map[string]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/view/scan", s.handleScanView)
	mux.HandleFunc("/view/tracks", s.handleTracksView)
	s.http = &http.Server{Addr: addr, Handler: mux}
	return s
}

// ListenAndServe blocks serving the monitor's HTTP handlers.
func (s *Server) ListenAndServe() error {
	return s.http.ListenAndServe()
}

// Shutdown closes the HTTP server's listeners and open connections
// immediately, without waiting for in-flight requests.
func (s *Server) Shutdown() error {
	return s.http.Close()
}

// WatchSensorStatus drains a sensor's status channel into the server's
// view of that sensor's connection state until the channel closes.
func (s *Server) WatchSensorStatus(sensorID string, ch <-chan string) {
	go func() {
		for st := range ch {
			s.mu.Lock()
			s.status[sensorID] = st
			s.mu.Unlock()
		}
	}()
}

// WatchPipeline drains a pipeline's visualization sink, keeping only the
// most recent FrameResult per sensor for rendering.
func (s *Server) WatchPipeline(sensorID string, ch <-chan pipeline.FrameResult) {
	go func() {
		for fr := range ch {
			s.mu.Lock()
			s.latest[sensorID] = fr
			s.mu.Unlock()
		}
	}()
}

func (s *Server) snapshot() StatusSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool)
	out := make([]SensorStatus, 0, len(s.latest)+len(s.status))
	add := func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true
		st := SensorStatus{
			SensorID:   id,
			Connection: s.status[id],
		}
		if fr, ok := s.latest[id]; ok {
			st.BackgroundState = backgroundStateName(fr.BackgroundState)
			st.BackgroundProgress = fr.BackgroundProgress
			st.LastFrameSeq = fr.FrameSeq
			st.ActiveTracks = len(fr.Tracks)
		}
		out = append(out, st)
	}
	for id := range s.status {
		add(id)
	}
	for id := range s.latest {
		add(id)
	}

	return StatusSnapshot{
		Sensors:   out,
		UptimeS:   time.Since(s.started).Seconds(),
		SettingsV: s.versionOf(),
	}
}

func backgroundStateName(st touch.BackgroundState) string {
	switch st {
	case touch.BackgroundLearning:
		return "learning"
	case touch.BackgroundLearned:
		return "learned"
	default:
		return "unlearned"
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.snapshot()); err != nil {
		Logf("monitor: encoding status: %v", err)
	}
}

// SensorSourceStatus adapts a sensor.Source's Status channel for
// WatchSensorStatus, kept here so callers in cmd/ don't need to import
// both packages just to wire status plumbing.
func SensorSourceStatus(src sensor.Source) <-chan string { return src.Status() }
