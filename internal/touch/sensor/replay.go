package sensor

import (
	"context"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/jithumediapro/lidar-touch/internal/touch"
)

// ReplayRecord is one gob-encoded entry in a recording file. SessionID
// identifies the recording run that produced it, so frames from two
// concatenated recordings are never mistaken for one continuous session.
type ReplayRecord struct {
	SessionID string
	Frame     touch.ScanFrame
}

// RecordingWriter appends scan frames to a gob-encoded recording file, for
// later deterministic replay in regression tests or offline tuning.
type RecordingWriter struct {
	f         *os.File
	enc       *gob.Encoder
	sessionID string
}

// NewRecordingWriter creates (or truncates) a recording file at path and
// tags every record with a freshly generated session id.
func NewRecordingWriter(path string) (*RecordingWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("sensor: creating recording %q: %w", path, err)
	}
	return &RecordingWriter{f: f, enc: gob.NewEncoder(f), sessionID: uuid.NewString()}, nil
}

// Write appends one frame.
func (w *RecordingWriter) Write(frame touch.ScanFrame) error {
	return w.enc.Encode(ReplayRecord{SessionID: w.sessionID, Frame: frame})
}

// Close flushes and closes the underlying file.
func (w *RecordingWriter) Close() error { return w.f.Close() }

// ReplaySource replays a gob-encoded recording as a Source, pacing frames
// by the recorded TimestampS deltas scaled by speed (a speed <= 0 is
// treated as 1.0). Reports StatusConnected once and StatusDisconnected when the
// recording is exhausted; never reconnects since there is no transport to
// recover.
type ReplaySource struct {
	path   string
	speed  float64
	loop   bool
	frames chan touch.ScanFrame
	status chan string
	cancel context.CancelFunc
	done   chan struct{}
}

// NewReplaySource creates a replay source. speed scales playback rate
// (1.0 = real-time, 2.0 = double speed); loop restarts from the beginning
// once the recording is exhausted instead of disconnecting.
func NewReplaySource(path string, speed float64, loop bool) *ReplaySource {
	if speed <= 0 {
		speed = 1.0
	}
	return &ReplaySource{
		path:   path,
		speed:  speed,
		loop:   loop,
		frames: make(chan touch.ScanFrame, 4),
		status: make(chan string, 1),
	}
}

func (r *ReplaySource) Frames() <-chan touch.ScanFrame { return r.frames }
func (r *ReplaySource) Status() <-chan string           { return r.status }

// Start opens the recording file and launches the paced playback loop.
func (r *ReplaySource) Start(ctx context.Context) error {
	f, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("sensor: opening recording %q: %w", r.path, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	r.status <- StatusConnected
	go r.run(runCtx, f)
	return nil
}

func (r *ReplaySource) run(ctx context.Context, f *os.File) {
	defer close(r.done)
	defer close(r.frames)
	defer f.Close()

	var lastTimestampS float64
	var lastSessionID string
	haveLast := false
	dec := gob.NewDecoder(f)

	for {
		var rec ReplayRecord
		err := dec.Decode(&rec)
		if err == io.EOF {
			if !r.loop {
				trySend(r.status, StatusDisconnected)
				return
			}
			if _, seekErr := f.Seek(0, io.SeekStart); seekErr != nil {
				Logf("sensor: replay rewind failed: %v", seekErr)
				trySend(r.status, StatusDisconnected)
				return
			}
			dec = gob.NewDecoder(f)
			haveLast = false
			continue
		}
		if err != nil {
			Logf("sensor: replay decode failed: %v", err)
			trySend(r.status, StatusDisconnected)
			return
		}

		// A new recording session starts its own pacing timeline.
		if rec.SessionID != lastSessionID {
			haveLast = false
			lastSessionID = rec.SessionID
		}
		if haveLast {
			dt := rec.Frame.TimestampS - lastTimestampS
			if dt > 0 {
				select {
				case <-time.After(time.Duration(dt / r.speed * float64(time.Second))):
				case <-ctx.Done():
					return
				}
			}
		}
		lastTimestampS = rec.Frame.TimestampS
		haveLast = true

		select {
		case r.frames <- rec.Frame:
		case <-ctx.Done():
			return
		}
	}
}

// Stop cancels playback and waits for the goroutine to exit.
func (r *ReplaySource) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	if r.done != nil {
		<-r.done
	}
}
