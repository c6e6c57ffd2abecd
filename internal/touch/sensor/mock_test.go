package sensor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockSource_ReportsMockStatusOnce(t *testing.T) {
	m := NewMockSource(1, 1)
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	select {
	case status := <-m.Status():
		assert.Equal(t, StatusMock, status)
	case <-time.After(time.Second):
		t.Fatal("no status reported")
	}

	select {
	case <-m.Status():
		t.Fatal("mock source must report status exactly once")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMockSource_FrameShapeIsStable(t *testing.T) {
	m := NewMockSource(7, 2)
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	<-m.Status()

	select {
	case frame := <-m.Frames():
		require.Len(t, frame.Angles, mockNumPoints)
		require.Len(t, frame.Distances, mockNumPoints)
		for _, d := range frame.Distances {
			assert.GreaterOrEqual(t, d, mockMinRangeMM)
			assert.LessOrEqual(t, d, mockMaxRangeMM)
		}
		assert.Less(t, frame.Angles[0], frame.Angles[len(frame.Angles)-1])
	case <-time.After(2 * time.Second):
		t.Fatal("no frame produced")
	}
}

func TestMockSource_ZeroSeedFallsBackToDefault(t *testing.T) {
	m := NewMockSource(0, 1)
	assert.Equal(t, int64(42), m.seed)
}

func TestMockSource_StopClosesChannels(t *testing.T) {
	m := NewMockSource(3, 1)
	require.NoError(t, m.Start(context.Background()))
	<-m.Status()
	m.Stop()

	_, ok := <-m.Frames()
	assert.False(t, ok, "Frames channel must be closed after Stop")
}
