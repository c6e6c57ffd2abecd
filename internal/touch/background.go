package touch

import (
	"sort"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// BackgroundState is one of the three states in the per-sensor background
// learning state machine.
type BackgroundState int

const (
	// BackgroundUnlearned is the initial state: no baseline yet.
	BackgroundUnlearned BackgroundState = iota
	// BackgroundLearning is accumulating frames toward a baseline.
	BackgroundLearning
	// BackgroundLearned holds a frozen, immutable baseline.
	BackgroundLearned
)

// Background learns a per-ray baseline distance vector and subtracts it
// from subsequent scans to produce a foreground mask. Once learned the
// baseline is frozen until Reset; there is no drift correction, by
// design (a breathing user at the edge of the scan must never become a
// ghost touch).
type Background struct {
	mu sync.Mutex

	numLearningFrames int
	thresholdMM       float64

	state       BackgroundState
	accumulator [][]float64 // raw distance vectors collected while Learning
	baseline    []float64   // nil until Learned
}

// NewBackground creates a Background in the Unlearned state.
func NewBackground(numLearningFrames int, thresholdMM float64) *Background {
	if numLearningFrames < 1 {
		numLearningFrames = 1
	}
	return &Background{
		numLearningFrames: numLearningFrames,
		thresholdMM:       thresholdMM,
	}
}

// SetParams updates the learning frame count and subtraction threshold.
// Safe to call between frames. A changed frame count also applies to a
// learn already in progress: it completes once the accumulator reaches
// the new count.
func (b *Background) SetParams(numLearningFrames int, thresholdMM float64) {
	if numLearningFrames < 1 {
		numLearningFrames = 1
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.numLearningFrames = numLearningFrames
	b.thresholdMM = thresholdMM
}

// State returns the current state.
func (b *Background) State() BackgroundState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// StartLearning transitions to Learning and resets the accumulator,
// regardless of the current state.
func (b *Background) StartLearning() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = BackgroundLearning
	b.accumulator = b.accumulator[:0]
	b.baseline = nil
}

// Progress returns the learning progress in [0, 1]: accumulator length
// over capacity while Learning, 1.0 once Learned, 0.0 while Unlearned.
func (b *Background) Progress() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case BackgroundLearned:
		return 1.0
	case BackgroundLearning:
		return float64(len(b.accumulator)) / float64(b.numLearningFrames)
	default:
		return 0.0
	}
}

// FeedLearningFrame appends a distance vector to the accumulator while
// Learning. Returns true exactly once, on the frame that completes
// learning and freezes the baseline. A no-op (returns false) outside the
// Learning state.
func (b *Background) FeedLearningFrame(distances []float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != BackgroundLearning {
		return false
	}

	cp := make([]float64, len(distances))
	copy(cp, distances)
	b.accumulator = append(b.accumulator, cp)

	if len(b.accumulator) < b.numLearningFrames {
		return false
	}

	b.baseline = medianPerRay(b.accumulator)
	b.state = BackgroundLearned
	b.accumulator = nil
	return true
}

// medianPerRay computes, for each ray index, the median of the
// accumulated samples at that index, excluding zero (no-return) samples
// as missing. gonum's Empirical quantile needs its input sorted.
func medianPerRay(frames [][]float64) []float64 {
	n := len(frames[0])
	out := make([]float64, n)
	col := make([]float64, 0, len(frames))
	for ray := 0; ray < n; ray++ {
		col = col[:0]
		for _, f := range frames {
			if f[ray] > 0 {
				col = append(col, f[ray])
			}
		}
		if len(col) == 0 {
			out[ray] = 0
			continue
		}
		sort.Float64s(col)
		out[ray] = stat.Quantile(0.5, stat.Empirical, col, nil)
	}
	return out
}

// Subtract returns a length-N boolean mask: true where the current reading
// is closer than the baseline by more than the threshold, and the
// reading is not a no-return. Outside the Learned state every element is
// false.
func (b *Background) Subtract(distances []float64) []bool {
	b.mu.Lock()
	baseline := b.baseline
	threshold := b.thresholdMM
	learned := b.state == BackgroundLearned
	b.mu.Unlock()

	mask := make([]bool, len(distances))
	if !learned {
		return mask
	}
	for i, d := range distances {
		if d <= 0 {
			continue
		}
		if baseline[i]-d > threshold {
			mask[i] = true
		}
	}
	return mask
}

// Baseline returns a copy of the learned baseline, or nil if not Learned.
// Intended for diagnostics/visualization only.
func (b *Background) Baseline() []float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.baseline == nil {
		return nil
	}
	cp := make([]float64, len(b.baseline))
	copy(cp, b.baseline)
	return cp
}

// Reset returns the model to Unlearned, discarding any baseline or
// in-progress accumulation.
func (b *Background) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = BackgroundUnlearned
	b.accumulator = nil
	b.baseline = nil
}
