package touch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectBlobs_FewerThanMinSamplesReturnsEmpty(t *testing.T) {
	pts := []Point{{X: 0, Y: 0}, {X: 1, Y: 1}}
	blobs := DetectBlobs(pts, ClusterParams{EpsMM: 30, MinSamples: 3, MinClusterSize: 1})
	assert.Empty(t, blobs)
}

func TestDetectBlobs_SingleDenseCluster(t *testing.T) {
	pts := []Point{
		{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 0, Y: 5}, {X: 5, Y: 5}, {X: 2, Y: 2},
	}
	blobs := DetectBlobs(pts, ClusterParams{EpsMM: 10, MinSamples: 3, MinClusterSize: 3})
	require.Len(t, blobs, 1)
	assert.Equal(t, 5, blobs[0].Count)
}

func TestDetectBlobs_TwoSeparatedClusters(t *testing.T) {
	var pts []Point
	for i := 0; i < 4; i++ {
		pts = append(pts, Point{X: float64(i), Y: 0})
	}
	for i := 0; i < 4; i++ {
		pts = append(pts, Point{X: 1000 + float64(i), Y: 0})
	}
	blobs := DetectBlobs(pts, ClusterParams{EpsMM: 5, MinSamples: 3, MinClusterSize: 3})
	require.Len(t, blobs, 2)
}

func TestDetectBlobs_MaxExtentRejectsLargeClusters(t *testing.T) {
	pts := []Point{
		{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 0, Y: 100}, {X: 100, Y: 100}, {X: 50, Y: 50},
	}
	blobs := DetectBlobs(pts, ClusterParams{EpsMM: 150, MinSamples: 3, MinClusterSize: 3, MaxExtentMM: 10})
	assert.Empty(t, blobs)
}

func TestDetectBlobs_MinClusterSizeDropsSmallGroups(t *testing.T) {
	pts := []Point{{X: 0, Y: 0}, {X: 1, Y: 0}}
	blobs := DetectBlobs(pts, ClusterParams{EpsMM: 10, MinSamples: 2, MinClusterSize: 5})
	assert.Empty(t, blobs)
}
