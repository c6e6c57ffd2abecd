package touch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_BirthAssignsIncreasingSessionIDs(t *testing.T) {
	tr := NewTracker(TrackerParams{MaxDistanceMM: 50, TimeoutFrames: 3})

	out := tr.Update([]Blob{{Centroid: Point{X: 0, Y: 0}, Count: 5}}, 0.025)
	require.Len(t, out, 1)
	assert.Equal(t, int64(1), out[0].SessionID)
	assert.Equal(t, 1, out[0].Age)

	out = tr.Update([]Blob{{Centroid: Point{X: 1, Y: 0}, Count: 5}}, 0.025)
	require.Len(t, out, 1)
	assert.Equal(t, int64(1), out[0].SessionID)
	assert.Equal(t, 2, out[0].Age)
}

func TestTracker_LiftoffTimesOutThenFreesID(t *testing.T) {
	tr := NewTracker(TrackerParams{MaxDistanceMM: 50, TimeoutFrames: 3})

	tr.Update([]Blob{{Centroid: Point{X: 0, Y: 0}, Count: 5}}, 0.025) // frame 1: birth, id 1

	// Frames 2-4: blob disappears.
	for i := 0; i < 3; i++ {
		out := tr.Update(nil, 0.025)
		assert.Empty(t, out, "track must not be reported while unseen")
	}

	// After timeout_frames=3 consecutive misses, the track must be gone:
	// a fresh blob gets the next session id, not a re-used one.
	out := tr.Update([]Blob{{Centroid: Point{X: 500, Y: 500}, Count: 5}}, 0.025)
	require.Len(t, out, 1)
	assert.Equal(t, int64(2), out[0].SessionID)
}

func TestTracker_TwoBlobsSeparatingKeepDistinctIDs(t *testing.T) {
	tr := NewTracker(TrackerParams{MaxDistanceMM: 50, TimeoutFrames: 3})

	out := tr.Update([]Blob{
		{Centroid: Point{X: -20, Y: 0}, Count: 5},
		{Centroid: Point{X: 20, Y: 0}, Count: 5},
	}, 0.025)
	require.Len(t, out, 2)
	idLeft, idRight := out[0].SessionID, out[1].SessionID
	assert.NotEqual(t, idLeft, idRight)

	// Move apart at 500 mm/s for a few frames; ids must remain stable and
	// each track's trajectory must stay monotonic away from centre.
	prevLeftX, prevRightX := -20.0, 20.0
	leftX, rightX := -20.0, 20.0
	for i := 0; i < 5; i++ {
		leftX -= 500 * 0.025
		rightX += 500 * 0.025
		out = tr.Update([]Blob{
			{Centroid: Point{X: leftX, Y: 0}, Count: 5},
			{Centroid: Point{X: rightX, Y: 0}, Count: 5},
		}, 0.025)
		require.Len(t, out, 2)
		for _, tt := range out {
			if tt.SessionID == idLeft {
				assert.Less(t, tt.Centroid.X, prevLeftX)
			} else {
				assert.Equal(t, idRight, tt.SessionID)
				assert.Greater(t, tt.Centroid.X, prevRightX)
			}
		}
		prevLeftX, prevRightX = leftX, rightX
	}
}

func TestTracker_MinAgeFramesSuppressesEarlyReport(t *testing.T) {
	tr := NewTracker(TrackerParams{MaxDistanceMM: 50, TimeoutFrames: 3, MinAgeFrames: 2})

	out := tr.Update([]Blob{{Centroid: Point{X: 0, Y: 0}, Count: 5}}, 0.025)
	assert.Empty(t, out, "birth frame withheld until MinAgeFrames is reached")

	out = tr.Update([]Blob{{Centroid: Point{X: 1, Y: 0}, Count: 5}}, 0.025)
	require.Len(t, out, 1)
	assert.Equal(t, int64(1), out[0].SessionID, "session id is stable across the suppression window")
}

func TestTracker_ResetClearsTracksAndIDAllocator(t *testing.T) {
	tr := NewTracker(TrackerParams{MaxDistanceMM: 50, TimeoutFrames: 3})
	tr.Update([]Blob{{Centroid: Point{X: 0, Y: 0}, Count: 5}}, 0.025)

	tr.Reset()
	out := tr.Update([]Blob{{Centroid: Point{X: 0, Y: 0}, Count: 5}}, 0.025)
	require.Len(t, out, 1)
	assert.Equal(t, int64(1), out[0].SessionID)
}
