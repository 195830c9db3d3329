package capture

import "fmt"

// PacketObserver consumes one observation per captured packet: the TCP
// payload length in bytes. Implementations must tolerate delivery from the
// capture goroutine concurrently with their other callers.
type PacketObserver interface {
	Observe(payloadLen int)
}

// Config contains configuration options for a capture session.
type Config struct {
	// Interface is the device to capture on. Empty picks the first
	// non-loopback device with an address.
	Interface string

	// SnapLen is the per-packet capture length. Zero defaults to 65535.
	SnapLen int

	// Promiscuous enables promiscuous mode on the device.
	Promiscuous bool

	// SessionID tags log lines from this session for correlation.
	SessionID string

	// Filter selects which packets are delivered.
	Filter FilterConfig
}

func (c Config) sessionTag() string {
	if c.SessionID == "" {
		return "capture"
	}
	return fmt.Sprintf("capture[%s]", c.SessionID)
}

var errUnavailable = fmt.Errorf("pcap support not enabled: rebuild with -tags=pcap to enable live capture")

// Available reports whether this binary was built with live capture support.
func Available() bool { return pcapAvailable }
