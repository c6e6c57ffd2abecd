// Package sensor produces scan frames behind one Source interface, with
// mock, serial and recording-replay implementations sharing the same
// reconnect and status-reporting conventions.
package sensor

import (
	"context"
	"log"

	"github.com/jithumediapro/lidar-touch/internal/touch"
)

// Logf is the package-level diagnostic logger, replaceable by tests.
var Logf func(format string, v ...interface{}) = log.Printf

// Status strings reported on a Source's Status channel. A real or replay
// source transitions connected -> (error:<msg> -> reconnected)* ->
// disconnected; a mock source reports mock once and nothing else.
const (
	StatusMock         = "mock"
	StatusConnected    = "connected"
	StatusReconnected  = "reconnected"
	StatusDisconnected = "disconnected"
)

// Source produces a continuous stream of scan frames from one physical or
// simulated sensor. The Frames channel is closed when the source
// terminates (either Stop was called or the underlying transport gave up
// permanently); the Status channel is never closed.
type Source interface {
	Frames() <-chan touch.ScanFrame
	Status() <-chan string
	Start(ctx context.Context) error
	Stop()
}
