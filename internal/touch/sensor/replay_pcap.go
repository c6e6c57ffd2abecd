//go:build pcap
// +build pcap

package sensor

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"github.com/jithumediapro/lidar-touch/internal/touch"
)

// NewPCAPReplaySource opens a pcap capture of UDP datagrams whose payload
// is one gob-encoded ReplayRecord per packet, and replays them as a
// Source. Requires the pcap build tag (libpcap headers) to compile.
func NewPCAPReplaySource(pcapFile string, udpPort int, speed float64, loop bool) (*PCAPReplaySource, error) {
	handle, err := pcap.OpenOffline(pcapFile)
	if err != nil {
		return nil, fmt.Errorf("sensor: opening pcap file %q: %w", pcapFile, err)
	}
	filter := fmt.Sprintf("udp port %d", udpPort)
	if err := handle.SetBPFFilter(filter); err != nil {
		handle.Close()
		return nil, fmt.Errorf("sensor: setting BPF filter %q: %w", filter, err)
	}
	if speed <= 0 {
		speed = 1.0
	}
	return &PCAPReplaySource{
		handle: handle,
		speed:  speed,
		loop:   loop,
		frames: make(chan touch.ScanFrame, 4),
		status: make(chan string, 1),
	}, nil
}

// PCAPReplaySource decodes gob-encoded frames out of UDP payloads captured
// in a pcap file, for byte-for-byte regression testing against a real
// capture rather than a synthetic recording.
type PCAPReplaySource struct {
	handle *pcap.Handle
	speed  float64
	loop   bool
	frames chan touch.ScanFrame
	status chan string
	cancel context.CancelFunc
	done   chan struct{}
}

func (p *PCAPReplaySource) Frames() <-chan touch.ScanFrame { return p.frames }
func (p *PCAPReplaySource) Status() <-chan string           { return p.status }

func (p *PCAPReplaySource) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.status <- StatusConnected
	go p.run(runCtx)
	return nil
}

func (p *PCAPReplaySource) run(ctx context.Context) {
	defer close(p.done)
	defer close(p.frames)
	defer p.handle.Close()

	source := gopacket.NewPacketSource(p.handle, p.handle.LinkType())
	for {
		select {
		case <-ctx.Done():
			return
		case packet, ok := <-source.Packets():
			if !ok {
				trySend(p.status, StatusDisconnected)
				return
			}
			udp, ok := packet.Layer(layers.LayerTypeUDP).(*layers.UDP)
			if !ok {
				continue
			}
			var rec ReplayRecord
			if err := gob.NewDecoder(bytes.NewReader(udp.Payload)).Decode(&rec); err != nil {
				Logf("sensor: pcap payload decode failed: %v", err)
				continue
			}
			select {
			case p.frames <- rec.Frame:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (p *PCAPReplaySource) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	if p.done != nil {
		<-p.done
	}
}
