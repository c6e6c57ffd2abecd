package touch

import "fmt"

// FilterParams bounds the admissible detection zone for a single sensor.
type FilterParams struct {
	MinDistanceMM float64 `json:"min_distance_mm"`
	MaxDistanceMM float64 `json:"max_distance_mm"`
	MinAngleRad   float64 `json:"min_angle_rad"`
	MaxAngleRad   float64 `json:"max_angle_rad"`
}

// ApplyFilter returns a length-N boolean mask: true where the ray's
// distance falls strictly between MinDistanceMM and MaxDistanceMM, its
// angle falls within [MinAngleRad, MaxAngleRad], and the reading is not a
// no-return (zero distance).
//
// Panics if angles and distances disagree in length; that indicates a
// programmer error upstream (a malformed scan frame), not a runtime
// condition callers should recover from.
func ApplyFilter(angles, distances []float64, p FilterParams) []bool {
	if len(angles) != len(distances) {
		panic(fmt.Sprintf("touch: angles/distances length mismatch: %d vs %d", len(angles), len(distances)))
	}

	mask := make([]bool, len(distances))
	for i, d := range distances {
		if d <= 0 || d <= p.MinDistanceMM || d >= p.MaxDistanceMM {
			continue
		}
		a := angles[i]
		if a < p.MinAngleRad || a > p.MaxAngleRad {
			continue
		}
		mask[i] = true
	}
	return mask
}
