//go:build !pcap
// +build !pcap

package sensor

import "fmt"

// PCAPReplaySource is a stub when pcap support is not compiled in.
type PCAPReplaySource struct{}

// NewPCAPReplaySource returns an error unless built with the pcap tag
// (requires libpcap headers).
func NewPCAPReplaySource(pcapFile string, udpPort int, speed float64, loop bool) (*PCAPReplaySource, error) {
	return nil, fmt.Errorf("sensor: pcap replay support not compiled in (requires pcap build tag)")
}
