package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jithumediapro/lidar-touch/internal/touch"
)

func TestMigrateLegacyFlat_ProducesSingleEntryLists(t *testing.T) {
	legacy := LegacyFlatRecord{
		SensorName:            "lidar0",
		MinDistanceMM:         20,
		MaxDistanceMM:         1500,
		BGLearningFrames:      30,
		BGThresholdMM:         40,
		ClusterEpsMM:          30,
		ClusterMinSamples:     3,
		ClusterMinSize:        3,
		MaxTrackingDistanceMM: 50,
		TimeoutFrames:         3,
		ScreenName:            "Screen 1",
		ScreenWidthMM:         1920,
		ScreenHeightMM:        1080,
		OutputHost:            "127.0.0.1",
		OutputPort:            3333,
		OutputEnabled:         true,
	}

	record := MigrateLegacyFlat(legacy)
	require.Len(t, record.Sensors, 1)
	require.Len(t, record.Screens, 1)
	require.Len(t, record.Outputs, 1)

	assert.Equal(t, "lidar0", record.Sensors[0].Name)
	assert.Equal(t, 1500.0, record.Sensors[0].Filter.MaxDistanceMM)
	assert.Equal(t, "Screen 1", record.Screens[0].Name)
	assert.Equal(t, 1920.0, record.Screens[0].Screen.WidthMM)
	assert.True(t, record.Outputs[0].Enabled)
	assert.Equal(t, 3333, record.Outputs[0].Port)
	assert.Equal(t, 30, record.Processing.BackgroundNumLearningFrames)
}

func TestStore_SnapshotIsADeepCopy(t *testing.T) {
	s := NewStore(Record{Sensors: []SensorConfig{{Name: "a"}}})
	snap := s.Snapshot()
	snap.Sensors[0].Name = "mutated"

	again := s.Snapshot()
	assert.Equal(t, "a", again.Sensors[0].Name, "mutating a snapshot must not affect the store")
}

func TestStore_UpsertSensorBumpsVersion(t *testing.T) {
	s := NewStore(Record{})
	v0 := s.Version()

	s.UpsertSensor(SensorConfig{Name: "lidar0"})
	assert.Greater(t, s.Version(), v0)

	pose, ok := s.SensorPose("lidar0")
	require.True(t, ok)
	assert.Equal(t, touch.Pose{}, pose)

	_, ok = s.SensorPose("ghost")
	assert.False(t, ok)
}

func TestStore_UpsertSensorReplacesByName(t *testing.T) {
	s := NewStore(Record{})
	s.UpsertSensor(SensorConfig{Name: "lidar0", Filter: touch.FilterParams{MaxDistanceMM: 1000}})
	s.UpsertSensor(SensorConfig{Name: "lidar0", Filter: touch.FilterParams{MaxDistanceMM: 2000}})

	sensors := s.Sensors()
	require.Len(t, sensors, 1)
	assert.Equal(t, 2000.0, sensors[0].Filter.MaxDistanceMM)
}

func TestStore_PipelineParamsResolvesPerSensorFilter(t *testing.T) {
	s := NewStore(Record{})
	s.UpsertSensor(SensorConfig{Name: "lidar0", Filter: touch.FilterParams{MaxDistanceMM: 1500}})
	s.SetProcessing(ProcessingParams{BackgroundNumLearningFrames: 30, BackgroundThresholdMM: 40})

	params := s.PipelineParams("lidar0")
	assert.Equal(t, 1500.0, params.Filter.MaxDistanceMM)
	assert.Equal(t, 30, params.BackgroundNumLearningFrames)

	unknown := s.PipelineParams("ghost")
	assert.Equal(t, touch.FilterParams{}, unknown.Filter)
}

func TestStore_SensorByNameRejectsUnknownSensor(t *testing.T) {
	s := NewStore(Record{})
	_, err := s.SensorByName("ghost")
	assert.Error(t, err)
}

func TestStore_RemoveSensorIsANoOpWhenAbsent(t *testing.T) {
	s := NewStore(Record{})
	v0 := s.Version()
	s.RemoveSensor("ghost")
	assert.Equal(t, v0, s.Version())
}
