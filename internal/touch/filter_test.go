package touch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyFilter_RejectsZeroAndOutOfBounds(t *testing.T) {
	params := FilterParams{MinDistanceMM: 20, MaxDistanceMM: 1500, MinAngleRad: -1, MaxAngleRad: 1}
	angles := []float64{0, 0, 0, 1.5, -1.5}
	distances := []float64{0, 10, 100, 100, 100}

	mask := ApplyFilter(angles, distances, params)

	assert.Equal(t, []bool{false, false, true, false, false}, mask)
}

func TestApplyFilter_LengthMismatchPanics(t *testing.T) {
	assert.Panics(t, func() {
		ApplyFilter([]float64{0, 1}, []float64{1}, FilterParams{MaxDistanceMM: 1000})
	})
}
