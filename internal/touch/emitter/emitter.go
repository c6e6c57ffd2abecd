// Package emitter encodes routed touch frames as OSC bundles and sends
// them over UDP under the /tuio/2Dcur address, mirroring the wire shape a
// TUIO-style touch receiver expects.
package emitter

import (
	"log"
	"sync"
	"time"

	osc "github.com/hypebeast/go-osc/osc"

	"github.com/jithumediapro/lidar-touch/internal/touch/router"
)

// Logf is the package-level diagnostic logger, replaceable by tests.
var Logf func(format string, v ...interface{}) = log.Printf

const oscAddress = "/tuio/2Dcur"

// oscSender abstracts osc.Client.Send so tests can substitute a capturing
// fake without opening a socket.
type oscSender interface {
	Send(packet osc.Packet) error
}

// Emitter is a stateless per-frame UDP encoder: building and sending a
// bundle never depends on a previous call, so one Emitter can be shared by
// every screen it's registered against. A send error is logged and
// swallowed; the emitter is a leaf and must never fault the pipeline.
type Emitter struct {
	sourceName string

	mu      sync.Mutex
	enabled bool
	client  oscSender
}

// NewEmitter creates a disabled emitter identifying itself as sourceName in
// every "source" message.
func NewEmitter(sourceName string) *Emitter {
	return &Emitter{sourceName: sourceName}
}

// Reconfigure changes the enabled flag and destination host:port at
// runtime. Disabling clears the underlying client; re-enabling rebuilds it.
func (e *Emitter) Reconfigure(enabled bool, host string, port int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = enabled
	if !enabled {
		e.client = nil
		return
	}
	e.client = osc.NewClient(host, port)
}

// EmitScreenFrame implements router.Sink. It builds one OSC bundle per
// call: source, alive, one set per touch, fseq — in that order.
func (e *Emitter) EmitScreenFrame(frame router.ScreenFrame) {
	e.mu.Lock()
	enabled, client, source := e.enabled, e.client, e.sourceName
	e.mu.Unlock()
	if !enabled || client == nil {
		return
	}

	bundle := osc.NewBundle(time.Now())

	sourceMsg := osc.NewMessage(oscAddress)
	sourceMsg.Append("source")
	sourceMsg.Append(source)
	bundle.Append(sourceMsg)

	aliveMsg := osc.NewMessage(oscAddress)
	aliveMsg.Append("alive")
	for _, t := range frame.Touches {
		aliveMsg.Append(int32(t.SessionID))
	}
	bundle.Append(aliveMsg)

	for _, t := range frame.Touches {
		setMsg := osc.NewMessage(oscAddress)
		setMsg.Append("set")
		setMsg.Append(int32(t.SessionID))
		setMsg.Append(float32(t.Position.X))
		setMsg.Append(float32(t.Position.Y))
		setMsg.Append(float32(t.VelocityMMPS.X))
		setMsg.Append(float32(t.VelocityMMPS.Y))
		setMsg.Append(float32(0)) // acceleration magnitude, unused
		bundle.Append(setMsg)
	}

	fseqMsg := osc.NewMessage(oscAddress)
	fseqMsg.Append("fseq")
	fseqMsg.Append(int32(frame.FrameSeq))
	bundle.Append(fseqMsg)

	if err := client.Send(bundle); err != nil {
		Logf("emitter[%s]: send failed: %v", source, err)
	}
}
