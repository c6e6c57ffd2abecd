package sensor

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jithumediapro/lidar-touch/internal/touch"
)

func writeTestRecording(t *testing.T, path string, frames []touch.ScanFrame) {
	t.Helper()
	w, err := NewRecordingWriter(path)
	require.NoError(t, err)
	for _, f := range frames {
		require.NoError(t, w.Write(f))
	}
	require.NoError(t, w.Close())
}

func TestReplaySource_ReplaysFramesInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.gob")
	writeTestRecording(t, path, []touch.ScanFrame{
		{SensorID: "s1", TimestampS: 0, Distances: []float64{1}},
		{SensorID: "s1", TimestampS: 0.01, Distances: []float64{2}},
	})

	src := NewReplaySource(path, 100, false)
	require.NoError(t, src.Start(context.Background()))
	defer src.Stop()

	assert.Equal(t, StatusConnected, <-src.Status())

	f1 := <-src.Frames()
	assert.Equal(t, []float64{1}, f1.Distances)
	f2 := <-src.Frames()
	assert.Equal(t, []float64{2}, f2.Distances)
}

func TestReplaySource_DisconnectsAtEndWhenNotLooping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.gob")
	writeTestRecording(t, path, []touch.ScanFrame{{SensorID: "s1", Distances: []float64{1}}})

	src := NewReplaySource(path, 1000, false)
	require.NoError(t, src.Start(context.Background()))
	defer src.Stop()

	<-src.Status()
	<-src.Frames()

	select {
	case status := <-src.Status():
		assert.Equal(t, StatusDisconnected, status)
	case <-time.After(time.Second):
		t.Fatal("no disconnected status reported")
	}
}

func TestReplaySource_LoopsWhenConfigured(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.gob")
	writeTestRecording(t, path, []touch.ScanFrame{{SensorID: "s1", Distances: []float64{7}}})

	src := NewReplaySource(path, 1000, true)
	require.NoError(t, src.Start(context.Background()))
	defer src.Stop()

	<-src.Status()
	first := <-src.Frames()
	second := <-src.Frames()
	assert.Equal(t, first.Distances, second.Distances)
}
