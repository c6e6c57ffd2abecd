package sensor

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/jithumediapro/lidar-touch/internal/touch"
)

const (
	mockNumPoints     = 1081
	mockAngleMinDeg   = -135.0
	mockAngleMaxDeg   = 135.0
	mockScanHz        = 40.0
	mockWallMM        = 1000.0
	mockNoiseSigmaMM  = 3.0
	mockMinRangeMM    = 20.0
	mockMaxRangeMM    = 5000.0
)

// touchBlob is one simulated finger: a Gaussian depression in the wall
// profile that oscillates back and forth across a fixed angular span.
type touchBlob struct {
	centerAngle float64 // radians, midpoint of the oscillation
	swingRad    float64 // radians, half the oscillation width
	speedRadPS  float64 // radians per second
	widthRad    float64 // angular width (sigma) of the depression
	depthMM     float64 // how far the touch pulls the surface toward the sensor
}

func (b touchBlob) angleAt(t float64) float64 {
	return b.centerAngle + b.swingRad*math.Sin(b.speedRadPS*t)
}

// MockSource synthesizes scan frames without any hardware, grounded on the
// flat-wall-plus-oscillating-depressions simulation used for development
// and demos. Deterministic for a given seed: identical seeds produce
// byte-identical angle/distance sequences.
type MockSource struct {
	seed      int64
	numTouches int
	frames    chan touch.ScanFrame
	status    chan string
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewMockSource creates a mock source with numTouches oscillating touch
// blobs. A seed of 0 is replaced with a fixed default so behaviour stays
// reproducible unless the caller explicitly asks for variety.
func NewMockSource(seed int64, numTouches int) *MockSource {
	if seed == 0 {
		seed = 42
	}
	return &MockSource{
		seed:       seed,
		numTouches: numTouches,
		frames:     make(chan touch.ScanFrame, 4),
		status:     make(chan string, 1),
	}
}

func (m *MockSource) Frames() <-chan touch.ScanFrame { return m.frames }
func (m *MockSource) Status() <-chan string          { return m.status }

// Start launches the generator goroutine. A mock source never reconnects
// and never errors; it reports StatusMock once and runs until ctx is
// cancelled or Stop is called.
func (m *MockSource) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	angles := make([]float64, mockNumPoints)
	minRad := mockAngleMinDeg * math.Pi / 180
	maxRad := mockAngleMaxDeg * math.Pi / 180
	step := (maxRad - minRad) / float64(mockNumPoints-1)
	for i := range angles {
		angles[i] = minRad + float64(i)*step
	}

	rng := rand.New(rand.NewSource(m.seed))
	blobs := make([]touchBlob, m.numTouches)
	for i := range blobs {
		blobs[i] = touchBlob{
			centerAngle: minRad + rng.Float64()*(maxRad-minRad),
			swingRad:    (10 + rng.Float64()*20) * math.Pi / 180,
			speedRadPS:  0.2 + rng.Float64()*0.6,
			widthRad:    (2 + rng.Float64()*4) * math.Pi / 180,
			depthMM:     150 + rng.Float64()*300,
		}
	}

	go m.run(runCtx, angles, blobs, rng)

	m.status <- StatusMock
	return nil
}

func (m *MockSource) run(ctx context.Context, angles []float64, blobs []touchBlob, rng *rand.Rand) {
	defer close(m.done)
	defer close(m.frames)

	ticker := time.NewTicker(time.Duration(float64(time.Second) / mockScanHz))
	defer ticker.Stop()

	var frameIdx int64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		// Nominal time from the frame count, not the wall clock, so blob
		// positions depend only on the seed and the frame index.
		frameIdx++
		elapsed := float64(frameIdx) / mockScanHz
		distances := make([]float64, mockNumPoints)
		for i, a := range angles {
			d := mockWallMM + rng.NormFloat64()*mockNoiseSigmaMM
			for _, b := range blobs {
				da := angularDelta(a, b.angleAt(elapsed))
				d -= b.depthMM * math.Exp(-(da*da)/(2*b.widthRad*b.widthRad))
			}
			distances[i] = clampMM(d, mockMinRangeMM, mockMaxRangeMM)
		}

		frame := touch.ScanFrame{
			SensorID:   "mock",
			TimestampS: elapsed,
			Angles:     angles,
			Distances:  distances,
		}

		select {
		case m.frames <- frame:
		case <-ctx.Done():
			return
		}
	}
}

func angularDelta(a, b float64) float64 {
	d := a - b
	for d > math.Pi {
		d -= 2 * math.Pi
	}
	for d < -math.Pi {
		d += 2 * math.Pi
	}
	return d
}

func clampMM(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Stop cancels the generator goroutine and waits for it to exit.
func (m *MockSource) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	if m.done != nil {
		<-m.done
	}
}
