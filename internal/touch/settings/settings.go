// Package settings holds the single process-wide mutable configuration
// record: sensors, screens, outputs and the global processing parameters
// the pipeline resamples every frame. Every accessor and mutator performs
// an atomic copy-in/copy-out under one mutex; the store never notifies
// observers, matching the teacher's TuningConfig load/validate shape but
// generalized from a static file load to a live, mutable record.
package settings

import (
	"fmt"
	"sync"

	"github.com/jithumediapro/lidar-touch/internal/touch"
	"github.com/jithumediapro/lidar-touch/internal/touch/pipeline"
)

// SensorConfig describes one physical LiDAR sensor: its placement on the
// world plane and its admissible detection zone.
type SensorConfig struct {
	Name   string            `json:"name"`
	Pose   touch.Pose        `json:"pose"`
	Filter touch.FilterParams `json:"filter"`
}

// OutputConfig describes one wire-protocol destination.
type OutputConfig struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
}

// ProcessingParams is the set of global processing parameters shared by
// every pipeline: background learning, clustering and tracking tuning.
type ProcessingParams struct {
	BackgroundNumLearningFrames int                 `json:"background_num_learning_frames"`
	BackgroundThresholdMM       float64             `json:"background_threshold_mm"`
	Cluster                     touch.ClusterParams `json:"cluster"`
	Tracker                     touch.TrackerParams `json:"tracker"`
}

// Record is the full settings snapshot: three lists plus global
// processing parameters, the shape described for the persistence
// collaborator's input contract.
type Record struct {
	Sensors    []SensorConfig      `json:"sensors"`
	Screens    []touch.ScreenConfig `json:"screens"`
	Outputs    []OutputConfig      `json:"outputs"`
	Processing ProcessingParams    `json:"processing"`
}

// LegacyFlatRecord is the single-sensor/single-screen/single-output record
// produced by an older persistence layer (one physical installation per
// process). MigrateLegacyFlat promotes it to the list-based Record the
// core expects.
type LegacyFlatRecord struct {
	SensorName        string  `json:"sensor_name"`
	SensorXOffsetMM   float64 `json:"sensor_x_offset_mm"`
	SensorYOffsetMM   float64 `json:"sensor_y_offset_mm"`
	SensorZRotation   float64 `json:"sensor_z_rotation_deg"`
	SensorXFlip       bool    `json:"sensor_x_flip"`
	SensorYFlip       bool    `json:"sensor_y_flip"`
	MinDistanceMM     float64 `json:"min_distance_mm"`
	MaxDistanceMM     float64 `json:"max_distance_mm"`
	MinAngleRad       float64 `json:"min_angle_rad"`
	MaxAngleRad       float64 `json:"max_angle_rad"`

	BGLearningFrames     int     `json:"bg_learning_frames"`
	BGThresholdMM        float64 `json:"bg_subtraction_threshold_mm"`
	ClusterEpsMM         float64 `json:"cluster_eps_mm"`
	ClusterMinSamples    int     `json:"cluster_min_samples"`
	ClusterMinSize       int     `json:"min_cluster_size"`
	MaxTrackingDistanceMM float64 `json:"max_tracking_distance_mm"`
	TimeoutFrames        int     `json:"touch_timeout_frames"`

	ScreenName      string  `json:"screen_name"`
	ScreenWidthMM   float64 `json:"screen_width_mm"`
	ScreenHeightMM  float64 `json:"screen_height_mm"`
	ScreenOffsetX   float64 `json:"screen_offset_x"`
	ScreenOffsetY   float64 `json:"screen_offset_y"`

	OutputHost    string `json:"tuio_host"`
	OutputPort    int    `json:"tuio_port"`
	OutputEnabled bool   `json:"tuio_enabled"`
}

// MigrateLegacyFlat promotes a single-sensor/screen/output flat record
// into the list-based Record the core consumes. It never fails: every
// legacy field has a direct destination.
func MigrateLegacyFlat(legacy LegacyFlatRecord) Record {
	return Record{
		Sensors: []SensorConfig{{
			Name: legacy.SensorName,
			Pose: touch.Pose{
				XOffsetMM:    legacy.SensorXOffsetMM,
				YOffsetMM:    legacy.SensorYOffsetMM,
				ZRotationDeg: legacy.SensorZRotation,
				XFlip:        legacy.SensorXFlip,
				YFlip:        legacy.SensorYFlip,
			},
			Filter: touch.FilterParams{
				MinDistanceMM: legacy.MinDistanceMM,
				MaxDistanceMM: legacy.MaxDistanceMM,
				MinAngleRad:   legacy.MinAngleRad,
				MaxAngleRad:   legacy.MaxAngleRad,
			},
		}},
		Screens: []touch.ScreenConfig{{
			Name: legacy.ScreenName,
			Screen: touch.Rect{
				WidthMM:  legacy.ScreenWidthMM,
				HeightMM: legacy.ScreenHeightMM,
				OffsetX:  legacy.ScreenOffsetX,
				OffsetY:  legacy.ScreenOffsetY,
			},
		}},
		Outputs: []OutputConfig{{
			Name:    "default",
			Enabled: legacy.OutputEnabled,
			Host:    legacy.OutputHost,
			Port:    legacy.OutputPort,
		}},
		Processing: ProcessingParams{
			BackgroundNumLearningFrames: legacy.BGLearningFrames,
			BackgroundThresholdMM:       legacy.BGThresholdMM,
			Cluster: touch.ClusterParams{
				EpsMM:          legacy.ClusterEpsMM,
				MinSamples:     legacy.ClusterMinSamples,
				MinClusterSize: legacy.ClusterMinSize,
			},
			Tracker: touch.TrackerParams{
				MaxDistanceMM: legacy.MaxTrackingDistanceMM,
				TimeoutFrames: legacy.TimeoutFrames,
			},
		},
	}
}

// Store is the single process-wide settings record, guarded by one mutex.
// Every method copies in or out under the lock; critical sections never do
// I/O or block on anything but memory.
type Store struct {
	mu      sync.Mutex
	version uint64
	record  Record
}

// NewStore creates a store seeded with an initial record.
func NewStore(initial Record) *Store {
	return &Store{record: initial, version: 1}
}

// Snapshot returns a deep copy of the entire record.
func (s *Store) Snapshot() Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRecord(s.record)
}

// Version returns a counter that advances on every mutation. Consumers
// that cache derived state (e.g. the router's coordinate mappers) use this
// to know when to invalidate.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Sensors returns a copy of the current sensor list.
func (s *Store) Sensors() []SensorConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SensorConfig(nil), s.record.Sensors...)
}

// Screens returns a copy of the current screen list.
func (s *Store) Screens() []touch.ScreenConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]touch.ScreenConfig(nil), s.record.Screens...)
}

// Outputs returns a copy of the current output list.
func (s *Store) Outputs() []OutputConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]OutputConfig(nil), s.record.Outputs...)
}

// Processing returns a copy of the current global processing parameters.
func (s *Store) Processing() ProcessingParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record.Processing
}

// SensorPose implements router.SettingsSource.
func (s *Store) SensorPose(name string) (touch.Pose, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sensor := range s.record.Sensors {
		if sensor.Name == name {
			return sensor.Pose, true
		}
	}
	return touch.Pose{}, false
}

// PipelineParams implements pipeline.ParamsSource: it resolves the filter
// for the named sensor plus the shared cluster/tracker/background tuning.
func (s *Store) PipelineParams(sensorID string) pipeline.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	var filter touch.FilterParams
	for _, sensor := range s.record.Sensors {
		if sensor.Name == sensorID {
			filter = sensor.Filter
			break
		}
	}
	return pipeline.Params{
		Filter:                      filter,
		Cluster:                     s.record.Processing.Cluster,
		Tracker:                     s.record.Processing.Tracker,
		BackgroundThresholdMM:       s.record.Processing.BackgroundThresholdMM,
		BackgroundNumLearningFrames: s.record.Processing.BackgroundNumLearningFrames,
	}
}

// UpsertSensor adds or replaces the sensor with the given name and bumps
// Version.
func (s *Store) UpsertSensor(cfg SensorConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sensor := range s.record.Sensors {
		if sensor.Name == cfg.Name {
			s.record.Sensors[i] = cfg
			s.version++
			return
		}
	}
	s.record.Sensors = append(s.record.Sensors, cfg)
	s.version++
}

// RemoveSensor deletes the named sensor, if present, and bumps Version.
func (s *Store) RemoveSensor(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sensor := range s.record.Sensors {
		if sensor.Name == name {
			s.record.Sensors = append(s.record.Sensors[:i], s.record.Sensors[i+1:]...)
			s.version++
			return
		}
	}
}

// UpsertScreen adds or replaces the screen with the given name and bumps
// Version.
func (s *Store) UpsertScreen(cfg touch.ScreenConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, screen := range s.record.Screens {
		if screen.Name == cfg.Name {
			s.record.Screens[i] = cfg
			s.version++
			return
		}
	}
	s.record.Screens = append(s.record.Screens, cfg)
	s.version++
}

// RemoveScreen deletes the named screen, if present, and bumps Version.
func (s *Store) RemoveScreen(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, screen := range s.record.Screens {
		if screen.Name == name {
			s.record.Screens = append(s.record.Screens[:i], s.record.Screens[i+1:]...)
			s.version++
			return
		}
	}
}

// UpsertOutput adds or replaces the output with the given name.
func (s *Store) UpsertOutput(cfg OutputConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, out := range s.record.Outputs {
		if out.Name == cfg.Name {
			s.record.Outputs[i] = cfg
			s.version++
			return
		}
	}
	s.record.Outputs = append(s.record.Outputs, cfg)
	s.version++
}

// SetProcessing replaces the global processing parameters wholesale.
func (s *Store) SetProcessing(p ProcessingParams) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record.Processing = p
	s.version++
}

// SensorByName returns a copy of one sensor's configuration, and an error
// if it does not exist — a configuration error per the error taxonomy:
// rejected at the boundary, no state mutation.
func (s *Store) SensorByName(name string) (SensorConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sensor := range s.record.Sensors {
		if sensor.Name == name {
			return sensor, nil
		}
	}
	return SensorConfig{}, fmt.Errorf("settings: no such sensor %q", name)
}

func cloneRecord(r Record) Record {
	screens := append([]touch.ScreenConfig(nil), r.Screens...)
	for i := range screens {
		screens[i].ExcludeZones = append([]touch.Rect(nil), screens[i].ExcludeZones...)
	}
	return Record{
		Sensors:    append([]SensorConfig(nil), r.Sensors...),
		Screens:    screens,
		Outputs:    append([]OutputConfig(nil), r.Outputs...),
		Processing: r.Processing,
	}
}
