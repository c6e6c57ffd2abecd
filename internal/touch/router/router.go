// Package router combines raw per-sensor touch sets into per-screen
// normalized touch frames: for every configured screen it tests each
// incoming touch for world-space containment and, if contained, emits a
// normalized copy carrying the same session id, velocity and age.
package router

import (
	"context"
	"sync"

	"github.com/jithumediapro/lidar-touch/internal/touch"
	"github.com/jithumediapro/lidar-touch/internal/touch/pipeline"
)

// NormalizedTouch is a routed touch, position expressed in [0, 1] screen
// space rather than sensor-local millimetres.
type NormalizedTouch struct {
	SessionID    int64
	Position     touch.Point
	VelocityMMPS touch.Point
	Age          int
	FramesUnseen int
}

// ScreenFrame is the router's per-screen, per-incoming-frame output. It is
// emitted even when Touches is empty, so the output emitter can publish an
// authoritative alive list.
type ScreenFrame struct {
	ScreenName string
	SensorID   string
	FrameSeq   int64
	Touches    []NormalizedTouch
}

// SettingsSource resolves the sensor poses and screen list the router
// needs. Version must change whenever any sensor or screen configuration
// is mutated, so the router knows to invalidate its mapper cache.
type SettingsSource interface {
	Version() uint64
	SensorPose(sensorID string) (touch.Pose, bool)
	Screens() []touch.ScreenConfig
}

// Sink receives routed screen frames, typically an output emitter.
type Sink interface {
	EmitScreenFrame(ScreenFrame)
}

type mapperKey struct {
	sensorID string
	screen   string
}

// Router is single-threaded by design: Run should be driven by exactly one
// goroutine so that per-pipeline emission order is preserved.
type Router struct {
	settings SettingsSource
	sinks    []Sink

	mu       sync.Mutex
	mappers  map[mapperKey]*touch.Mapper
	version  uint64
}

// NewRouter builds a router reading sensor/screen configuration from settings.
func NewRouter(settings SettingsSource) *Router {
	return &Router{
		settings: settings,
		mappers:  make(map[mapperKey]*touch.Mapper),
	}
}

// AddSink registers an output destination. Sinks are called in registration
// order for every screen frame.
func (r *Router) AddSink(s Sink) {
	r.sinks = append(r.sinks, s)
}

// Run consumes raw touch sets from in until ctx is cancelled, routing each
// one to every registered sink.
func (r *Router) Run(ctx context.Context, in <-chan pipeline.RawTouchSet) {
	for {
		select {
		case <-ctx.Done():
			return
		case set, ok := <-in:
			if !ok {
				return
			}
			for _, frame := range r.Route(set) {
				for _, sink := range r.sinks {
					sink.EmitScreenFrame(frame)
				}
			}
		}
	}
}

// Route maps one raw touch set into per-screen normalized frames, screens
// visited in the order Screens() returns them.
func (r *Router) Route(set pipeline.RawTouchSet) []ScreenFrame {
	pose, ok := r.settings.SensorPose(set.SensorID)
	if !ok {
		return nil
	}
	screens := r.settings.Screens()
	frames := make([]ScreenFrame, 0, len(screens))

	for _, screen := range screens {
		mapper := r.mapperFor(set.SensorID, pose, screen)

		var touches []NormalizedTouch
		for _, tr := range set.Touches {
			world := mapper.ToWorld(tr.Centroid)
			if !mapper.Contains(world) {
				continue
			}
			touches = append(touches, NormalizedTouch{
				SessionID:    tr.SessionID,
				Position:     mapper.Normalize(world),
				VelocityMMPS: tr.VelocityMMPS,
				Age:          tr.Age,
				FramesUnseen: tr.FramesUnseen,
			})
		}

		frames = append(frames, ScreenFrame{
			ScreenName: screen.Name,
			SensorID:   set.SensorID,
			FrameSeq:   set.FrameSeq,
			Touches:    touches,
		})
	}
	return frames
}

// mapperFor returns the cached (sensor, screen) mapper, rebuilding the
// whole cache whenever the settings version advances.
func (r *Router) mapperFor(sensorID string, pose touch.Pose, screen touch.ScreenConfig) *touch.Mapper {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v := r.settings.Version(); v != r.version {
		r.mappers = make(map[mapperKey]*touch.Mapper)
		r.version = v
	}

	key := mapperKey{sensorID: sensorID, screen: screen.Name}
	if m, ok := r.mappers[key]; ok {
		return m
	}
	m := touch.NewMapper(pose, screen)
	r.mappers[key] = m
	return m
}
