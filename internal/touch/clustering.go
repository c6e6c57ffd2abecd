package touch

import "math"

// PolarToCartesian converts a ray's (angle, distance) into sensor-local
// Cartesian millimetres: x = d*cos(theta), y = d*sin(theta).
func PolarToCartesian(angles, distances []float64) []Point {
	pts := make([]Point, len(distances))
	for i, d := range distances {
		pts[i] = Point{X: d * math.Cos(angles[i]), Y: d * math.Sin(angles[i])}
	}
	return pts
}

// spatialIndex accelerates eps-radius neighbour queries for DBSCAN by
// bucketing points into a regular grid whose cell size matches eps.
// Grounded on the teacher's internal/lidar SpatialIndex, simplified to
// 2D and to plain squared-integer cell keys (no negative-coordinate
// pairing function is needed since cell coordinates are used as map
// keys directly rather than packed into one int64).
type spatialIndex struct {
	cellSize float64
	grid     map[[2]int64][]int
}

func newSpatialIndex(cellSize float64) *spatialIndex {
	return &spatialIndex{cellSize: cellSize, grid: make(map[[2]int64][]int)}
}

func (si *spatialIndex) cellOf(p Point) [2]int64 {
	return [2]int64{int64(math.Floor(p.X / si.cellSize)), int64(math.Floor(p.Y / si.cellSize))}
}

func (si *spatialIndex) build(points []Point) {
	si.grid = make(map[[2]int64][]int, len(points)/4+1)
	for i, p := range points {
		c := si.cellOf(p)
		si.grid[c] = append(si.grid[c], i)
	}
}

// regionQuery returns indices of points within eps of points[idx],
// scanning the 3x3 neighbourhood of grid cells around it.
func (si *spatialIndex) regionQuery(points []Point, idx int, eps float64) []int {
	p := points[idx]
	c := si.cellOf(p)
	eps2 := eps * eps

	var neighbors []int
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			cell := [2]int64{c[0] + dx, c[1] + dy}
			for _, cand := range si.grid[cell] {
				if p.Dist(points[cand])*p.Dist(points[cand]) <= eps2 {
					neighbors = append(neighbors, cand)
				}
			}
		}
	}
	return neighbors
}

// ClusterParams configures DBSCAN-equivalent density clustering.
type ClusterParams struct {
	EpsMM          float64 `json:"cluster_eps_mm"`            // neighbourhood radius
	MinSamples     int     `json:"cluster_min_samples"`       // neighbour count required for a core point
	MinClusterSize int     `json:"cluster_min_size"`          // post-filter on cluster membership
	MaxExtentMM    float64 `json:"cluster_max_extent_mm"`     // post-filter on cluster radius; 0 disables
}

// DetectBlobs clusters foreground points using a DBSCAN-equivalent
// density algorithm: core points have at least MinSamples neighbours
// within EpsMM; clusters grow transitively through core points; points
// that are neither core nor a neighbour of one are noise and discarded.
// Clusters smaller than MinClusterSize, or (when MaxExtentMM > 0) whose
// extent exceeds it, are discarded.
//
// Returns empty when there are fewer points than MinSamples. Output
// order is unspecified.
func DetectBlobs(points []Point, p ClusterParams) []Blob {
	n := len(points)
	if n < p.MinSamples {
		return nil
	}

	si := newSpatialIndex(p.EpsMM)
	si.build(points)

	labels := make([]int, n) // 0 = unvisited, -1 = noise, >0 = cluster id
	clusterID := 0

	for i := 0; i < n; i++ {
		if labels[i] != 0 {
			continue
		}
		neighbors := si.regionQuery(points, i, p.EpsMM)
		if len(neighbors) < p.MinSamples {
			labels[i] = -1
			continue
		}
		clusterID++
		expandCluster(points, si, labels, neighbors, clusterID, p.EpsMM, p.MinSamples)
		labels[i] = clusterID
	}

	return buildBlobs(points, labels, clusterID, p)
}

func expandCluster(points []Point, si *spatialIndex, labels []int, seedNeighbors []int, clusterID int, eps float64, minSamples int) {
	queue := append([]int(nil), seedNeighbors...)
	for j := 0; j < len(queue); j++ {
		idx := queue[j]
		if labels[idx] == -1 {
			labels[idx] = clusterID // border point reclaimed from noise
		}
		if labels[idx] != 0 {
			continue
		}
		labels[idx] = clusterID
		more := si.regionQuery(points, idx, eps)
		if len(more) >= minSamples {
			queue = append(queue, more...)
		}
	}
}

func buildBlobs(points []Point, labels []int, maxID int, p ClusterParams) []Blob {
	buckets := make([][]int, maxID+1)
	for i, l := range labels {
		if l >= 1 {
			buckets[l] = append(buckets[l], i)
		}
	}

	blobs := make([]Blob, 0, maxID)
	for id := 1; id <= maxID; id++ {
		idxs := buckets[id]
		if len(idxs) < p.MinClusterSize {
			continue
		}

		var sx, sy float64
		for _, i := range idxs {
			sx += points[i].X
			sy += points[i].Y
		}
		centroid := Point{X: sx / float64(len(idxs)), Y: sy / float64(len(idxs))}

		extent := 0.0
		for _, i := range idxs {
			if d := centroid.Dist(points[i]); d > extent {
				extent = d
			}
		}
		if p.MaxExtentMM > 0 && extent > p.MaxExtentMM {
			continue
		}

		blobs = append(blobs, Blob{
			Centroid: centroid,
			Count:    len(idxs),
			ExtentMM: extent,
			Indices:  idxs,
		})
	}
	return blobs
}
