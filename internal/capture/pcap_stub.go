//go:build !pcap
// +build !pcap

package capture

import "context"

const pcapAvailable = false

// Run is a stub implementation when PCAP support is disabled.
// Build with -tags=pcap to enable live capture.
func Run(ctx context.Context, cfg Config, obs PacketObserver) error {
	return errUnavailable
}

// ReplayFile is a stub implementation when PCAP support is disabled.
// Build with -tags=pcap to enable PCAP file replay.
func ReplayFile(ctx context.Context, pcapFile string, cfg Config, obs PacketObserver) error {
	return errUnavailable
}
