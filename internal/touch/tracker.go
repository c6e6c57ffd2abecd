package touch

import "sort"

// TrackerParams configures the greedy nearest-neighbour blob tracker.
type TrackerParams struct {
	MaxDistanceMM float64 `json:"max_tracking_distance_mm"` // matching gate; pairs beyond this are never assigned
	TimeoutFrames int     `json:"timeout_frames"`           // consecutive unseen frames before a track is dropped
	MinAgeFrames  int     `json:"min_age_frames"`           // a track is reported only once Age >= this
}

// Tracker maintains an ordered list of persistent touch tracks, matching
// each frame's detected blobs against them with greedy nearest-neighbour
// assignment over velocity-predicted positions. Session ids are
// allocated strictly increasing and are never reused until Reset.
type Tracker struct {
	params TrackerParams
	tracks []*Track
	nextID int64
}

// NewTracker creates a Tracker with the given parameters and an empty
// track list. Session ids start at 1.
func NewTracker(params TrackerParams) *Tracker {
	if params.MinAgeFrames < 1 {
		params.MinAgeFrames = 1
	}
	return &Tracker{params: params, nextID: 1}
}

// SetParams updates matching parameters for subsequent Update calls.
func (t *Tracker) SetParams(params TrackerParams) {
	if params.MinAgeFrames < 1 {
		params.MinAgeFrames = 1
	}
	t.params = params
}

type candidatePair struct {
	dist     float64
	trackIdx int
	blobIdx  int
}

// Update matches blobs against existing tracks for one frame separated
// from the previous by dt seconds (falls back to 0.025s if dt <= 0),
// ages unmatched tracks, births tracks for unmatched blobs, evicts
// tracks that have timed out, and returns the tracks that are visible
// this frame (FramesUnseen == 0) and old enough to report
// (Age >= MinAgeFrames).
func (t *Tracker) Update(blobs []Blob, dt float64) []Track {
	if dt <= 0 {
		dt = 0.025
	}

	predicted := make([]Point, len(t.tracks))
	for i, tr := range t.tracks {
		predicted[i] = Point{
			X: tr.Centroid.X + tr.VelocityMMPS.X*dt,
			Y: tr.Centroid.Y + tr.VelocityMMPS.Y*dt,
		}
	}

	var pairs []candidatePair
	for ti, pred := range predicted {
		for bi, b := range blobs {
			d := pred.Dist(b.Centroid)
			if d <= t.params.MaxDistanceMM {
				pairs = append(pairs, candidatePair{dist: d, trackIdx: ti, blobIdx: bi})
			}
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].dist < pairs[j].dist })

	matchedTrack := make([]bool, len(t.tracks))
	matchedBlob := make([]bool, len(blobs))
	assignment := make(map[int]int, len(t.tracks)) // trackIdx -> blobIdx

	for _, pr := range pairs {
		if matchedTrack[pr.trackIdx] || matchedBlob[pr.blobIdx] {
			continue
		}
		assignment[pr.trackIdx] = pr.blobIdx
		matchedTrack[pr.trackIdx] = true
		matchedBlob[pr.blobIdx] = true
	}

	for ti, bi := range assignment {
		tr := t.tracks[ti]
		blob := blobs[bi]
		old := tr.Centroid
		tr.Centroid = blob.Centroid
		tr.VelocityMMPS = Point{X: (blob.Centroid.X - old.X) / dt, Y: (blob.Centroid.Y - old.Y) / dt}
		tr.PointCount = blob.Count
		tr.Age++
		tr.FramesUnseen = 0
	}

	// Age unmatched tracks before any births, so a newborn track is never
	// aged in the frame it was created.
	for ti, tr := range t.tracks {
		if !matchedTrack[ti] {
			tr.FramesUnseen++
		}
	}

	for bi, b := range blobs {
		if matchedBlob[bi] {
			continue
		}
		t.tracks = append(t.tracks, &Track{
			SessionID:    t.allocID(),
			Centroid:     b.Centroid,
			PointCount:   b.Count,
			Age:          1,
			FramesUnseen: 0,
		})
	}

	kept := t.tracks[:0]
	for _, tr := range t.tracks {
		if tr.FramesUnseen <= t.params.TimeoutFrames {
			kept = append(kept, tr)
		}
	}
	t.tracks = kept

	var out []Track
	for _, tr := range t.tracks {
		if tr.FramesUnseen == 0 && tr.Age >= t.params.MinAgeFrames {
			out = append(out, *tr)
		}
	}
	return out
}

func (t *Tracker) allocID() int64 {
	id := t.nextID
	t.nextID++
	return id
}

// Reset clears all tracks and resets the session id allocator to 1.
func (t *Tracker) Reset() {
	t.tracks = nil
	t.nextID = 1
}
