// Package pipeline runs the per-sensor worker that owns a Background model
// and Tracker, consumes scan frames through a single-slot latest-wins
// queue, and emits a RawTouchSet per consumed frame for the router plus an
// optional FrameResult for diagnostics.
package pipeline

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jithumediapro/lidar-touch/internal/touch"
)

// Logf is the package-level diagnostic logger, replaceable by tests.
var Logf func(format string, v ...interface{}) = log.Printf

// pollInterval bounds how long Run can block on an empty queue before it
// re-checks for a stop request.
const pollInterval = 100 * time.Millisecond

// Params is the subset of settings a pipeline resamples every frame.
type Params struct {
	Filter                      touch.FilterParams
	Cluster                     touch.ClusterParams
	Tracker                     touch.TrackerParams
	BackgroundThresholdMM       float64
	BackgroundNumLearningFrames int
}

// ParamsSource resolves the current parameters for a sensor. The settings
// store implements this; tests can supply a static stub.
type ParamsSource interface {
	PipelineParams(sensorID string) Params
}

// FrameResult is the visualization-oriented output of one consumed frame:
// every intermediate array produced along filter -> background -> cluster
// -> track, for the diagnostics monitor.
type FrameResult struct {
	SensorID           string
	FrameSeq           int64
	Angles             []float64
	Distances          []float64
	ForegroundMask     []bool
	Points             []touch.Point
	ClusterLabels      []int // per-point blob index, -1 when not clustered
	Blobs              []touch.Blob
	Tracks             []touch.Track
	ProcessingTime     time.Duration
	BackgroundState    touch.BackgroundState
	BackgroundProgress float64
}

// RawTouchSet is the router-facing output of one consumed frame: tracked
// touches in sensor-local mm, tagged with sensor id and a strictly
// increasing per-pipeline sequence number.
type RawTouchSet struct {
	SensorID string
	FrameSeq int64
	Touches  []touch.Track
}

// Pipeline is one sensor's worker: filter, background, cluster, track.
type Pipeline struct {
	sensorID     string
	paramsSource ParamsSource
	touchOut     chan<- RawTouchSet

	background *touch.Background
	tracker    *touch.Tracker

	queue chan touch.ScanFrame

	visMu sync.Mutex
	visOut chan<- FrameResult

	frameSeq       int64
	lastTimestampS float64
	haveLast       bool

	pendingLearn atomic.Bool
	pendingReset atomic.Bool
	stopped      atomic.Bool
}

// NewPipeline builds a pipeline for one sensor. touchOut must be read by a
// single consumer (the router); sends to it never block.
func NewPipeline(sensorID string, paramsSource ParamsSource, touchOut chan<- RawTouchSet) *Pipeline {
	p := &Pipeline{
		sensorID:     sensorID,
		paramsSource: paramsSource,
		touchOut:     touchOut,
		background:   touch.NewBackground(60, 40),
		tracker:      touch.NewTracker(touch.TrackerParams{MaxDistanceMM: 80, TimeoutFrames: 5, MinAgeFrames: 1}),
		queue:        make(chan touch.ScanFrame, 1),
	}
	p.pendingLearn.Store(true) // auto-request a background learn on startup
	return p
}

// SetVisualizationSink wires an optional, best-effort output for the
// diagnostics monitor. Passing nil disables it.
func (p *Pipeline) SetVisualizationSink(ch chan<- FrameResult) {
	p.visMu.Lock()
	p.visOut = ch
	p.visMu.Unlock()
}

// RequestLearn schedules a background relearn on the next consumed frame.
func (p *Pipeline) RequestLearn() { p.pendingLearn.Store(true) }

// RequestReset schedules a background and tracker reset on the next
// consumed frame.
func (p *Pipeline) RequestReset() { p.pendingReset.Store(true) }

// Enqueue offers a scan frame to the pipeline's single-slot queue. If the
// slot already holds an unconsumed frame, that older frame is dropped:
// freshness wins over completeness.
func (p *Pipeline) Enqueue(frame touch.ScanFrame) {
	select {
	case p.queue <- frame:
		return
	default:
	}
	select {
	case <-p.queue:
	default:
	}
	select {
	case p.queue <- frame:
	default:
		// Lost a race with another Enqueue; the newer frame already won.
	}
}

// Stop requests the worker loop to exit. Run terminates within one
// pollInterval.
func (p *Pipeline) Stop() { p.stopped.Store(true) }

// Run drives the worker loop until ctx is cancelled or Stop is called.
// It blocks on the input queue with a bounded timeout so a stop request is
// never delayed by more than pollInterval.
func (p *Pipeline) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-p.queue:
			p.processFrame(frame)
		case <-time.After(pollInterval):
			if p.stopped.Load() {
				return
			}
		}
		if p.stopped.Load() {
			return
		}
	}
}

func (p *Pipeline) processFrame(frame touch.ScanFrame) {
	start := time.Now()

	params := p.paramsSource.PipelineParams(p.sensorID)
	p.background.SetParams(params.BackgroundNumLearningFrames, params.BackgroundThresholdMM)
	p.tracker.SetParams(params.Tracker)

	if p.pendingReset.Swap(false) {
		p.background.Reset()
		p.tracker.Reset()
	}
	if p.pendingLearn.Swap(false) {
		p.background.StartLearning()
	}

	filterMask := touch.ApplyFilter(frame.Angles, frame.Distances, params.Filter)

	fgMask := make([]bool, len(frame.Distances))
	if p.background.State() == touch.BackgroundLearning {
		p.background.FeedLearningFrame(frame.Distances)
		// Nothing is reported as foreground while the background is
		// still being learned.
	} else {
		bgMask := p.background.Subtract(frame.Distances)
		for i := range fgMask {
			fgMask[i] = filterMask[i] && bgMask[i]
		}
	}

	allPoints := touch.PolarToCartesian(frame.Angles, frame.Distances)

	var fgPoints []touch.Point
	var fgIndices []int
	for i, keep := range fgMask {
		if keep {
			fgPoints = append(fgPoints, allPoints[i])
			fgIndices = append(fgIndices, i)
		}
	}

	blobs := touch.DetectBlobs(fgPoints, params.Cluster)
	for bi := range blobs {
		remapped := make([]int, len(blobs[bi].Indices))
		for j, localIdx := range blobs[bi].Indices {
			remapped[j] = fgIndices[localIdx]
		}
		blobs[bi].Indices = remapped
	}

	dt := 0.0
	if p.haveLast {
		dt = frame.TimestampS - p.lastTimestampS
	}
	p.lastTimestampS = frame.TimestampS
	p.haveLast = true

	tracks := p.tracker.Update(blobs, dt)
	p.frameSeq++

	clusterLabels := make([]int, len(allPoints))
	for i := range clusterLabels {
		clusterLabels[i] = -1
	}
	for bi, b := range blobs {
		for _, idx := range b.Indices {
			clusterLabels[idx] = bi
		}
	}

	result := FrameResult{
		SensorID:           p.sensorID,
		FrameSeq:           p.frameSeq,
		Angles:             frame.Angles,
		Distances:          frame.Distances,
		ForegroundMask:     fgMask,
		Points:             allPoints,
		ClusterLabels:      clusterLabels,
		Blobs:              blobs,
		Tracks:             tracks,
		ProcessingTime:     time.Since(start),
		BackgroundState:    p.background.State(),
		BackgroundProgress: p.background.Progress(),
	}
	p.publishVisualization(result)

	set := RawTouchSet{SensorID: p.sensorID, FrameSeq: p.frameSeq, Touches: tracks}
	select {
	case p.touchOut <- set:
	default:
		Logf("pipeline[%s]: dropped touch set for frame %d, router is not keeping up", p.sensorID, p.frameSeq)
	}
}

// publishVisualization offers result to the diagnostics sink with the same
// latest-wins drop policy as the sensor input queue, so a slow HTTP client
// can never stall processing.
func (p *Pipeline) publishVisualization(result FrameResult) {
	p.visMu.Lock()
	out := p.visOut
	p.visMu.Unlock()
	if out == nil {
		return
	}
	select {
	case out <- result:
		return
	default:
	}
	select {
	case <-out:
	default:
	}
	select {
	case out <- result:
	default:
	}
}
