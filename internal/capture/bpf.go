// Package capture is the live-traffic collaborator: it watches a TCP port
// with a BPF filter and reports the payload length of each matching packet
// to an observer. Live capture requires the 'pcap' build tag; the filter
// construction below is plain Go and always available.
package capture

import (
	"fmt"
	"strings"
)

// FilterConfig describes which packets the capture session should deliver.
// Flag-level qualification (the PSH bit) happens here, at capture time; the
// minimum-payload filter is a separate concern applied downstream by the
// ingest observer.
type FilterConfig struct {
	// Port is the TCP port to monitor in either direction.
	Port int

	// Host optionally restricts capture to traffic to or from one address.
	Host string

	// PushOnly restricts capture to segments with the PSH flag set, which
	// excludes bare ACKs and handshake traffic.
	PushOnly bool
}

// Validate checks the filter for a usable port.
func (f FilterConfig) Validate() error {
	if f.Port < 1 || f.Port > 65535 {
		return fmt.Errorf("capture: port must be in 1..65535, got %d", f.Port)
	}
	return nil
}

// BPF renders the filter as a BPF expression. tcp[13] is the TCP flags
// byte; 0x08 is the PSH bit.
func (f FilterConfig) BPF() string {
	clauses := []string{fmt.Sprintf("tcp port %d", f.Port)}
	if f.PushOnly {
		clauses = append(clauses, "tcp[13] & 0x08 != 0")
	}
	if f.Host != "" {
		clauses = append(clauses, fmt.Sprintf("host %s", f.Host))
	}
	return strings.Join(clauses, " and ")
}
