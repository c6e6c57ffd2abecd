// Package touch implements the per-frame processing chain that turns a
// raw 2D LiDAR scan into stable, ID-tagged touch points: scan filtering,
// background learning/subtraction, density clustering, and greedy
// predictive tracking. Coordinates through this package are sensor-local
// Cartesian millimetres unless noted otherwise; normalization to screen
// space is done by Mapper (coord.go), which the router package applies.
package touch

import "math"

// ScanFrame is one complete sweep of rays from a single sensor.
// Angles and Distances must have equal length; that length (N) is fixed
// for the lifetime of a sensor session.
type ScanFrame struct {
	SensorID    string
	TimestampS  float64   // seconds, monotonic within a sensor's session
	Angles      []float64 // radians, monotonically increasing within the FOV
	Distances   []float64 // millimetres; 0 means no return
}

// Point is a 2D Cartesian point in sensor-local millimetres.
type Point struct {
	X, Y float64
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return math.Hypot(dx, dy)
}

// Blob is one ephemeral cluster detected in a single frame.
type Blob struct {
	Centroid Point
	Count    int
	ExtentMM float64 // max centroid-to-member distance
	Indices  []int   // indices into the foreground point slice; visualization only
}

// Track is a persistent touch identity, alive across frames.
type Track struct {
	SessionID     int64
	Centroid      Point
	VelocityMMPS  Point
	Age           int // frames since birth, incremented on each match
	FramesUnseen  int // 0 when matched this frame
	PointCount    int
}
