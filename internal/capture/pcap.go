//go:build pcap
// +build pcap

package capture

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"github.com/banshee-data/traffic.pulse/internal/monitoring"
)

const pcapAvailable = true

// Run opens a live capture session and delivers the payload length of every
// matching packet to obs until ctx is canceled or the capture fails.
// This function is only available when building with the 'pcap' build tag.
func Run(ctx context.Context, cfg Config, obs PacketObserver) error {
	if err := cfg.Filter.Validate(); err != nil {
		return err
	}

	iface := cfg.Interface
	if iface == "" {
		var err error
		iface, err = defaultInterface()
		if err != nil {
			return fmt.Errorf("failed to select capture interface: %w", err)
		}
	}

	snapLen := cfg.SnapLen
	if snapLen == 0 {
		snapLen = 65535
	}

	if os.Geteuid() != 0 {
		monitoring.Logf("%s: not running as root, packet capture may fail", cfg.sessionTag())
	}

	handle, err := pcap.OpenLive(iface, int32(snapLen), cfg.Promiscuous, pcap.BlockForever)
	if err != nil {
		return fmt.Errorf("failed to open capture on %s: %w", iface, err)
	}
	defer handle.Close()

	filter := cfg.Filter.BPF()
	if err := handle.SetBPFFilter(filter); err != nil {
		return fmt.Errorf("failed to set BPF filter %q: %w", filter, err)
	}
	monitoring.Logf("%s: listening on %s with filter %q", cfg.sessionTag(), iface, filter)

	src := gopacket.NewPacketSource(handle, handle.LinkType())
	return pump(ctx, cfg, src, obs)
}

// ReplayFile delivers packets from a PCAP file instead of a live device,
// applying the same filter. Useful for offline testing of the detection
// pipeline without privileges.
func ReplayFile(ctx context.Context, pcapFile string, cfg Config, obs PacketObserver) error {
	if err := cfg.Filter.Validate(); err != nil {
		return err
	}

	handle, err := pcap.OpenOffline(pcapFile)
	if err != nil {
		return fmt.Errorf("failed to open PCAP file %s: %w", pcapFile, err)
	}
	defer handle.Close()

	filter := cfg.Filter.BPF()
	if err := handle.SetBPFFilter(filter); err != nil {
		return fmt.Errorf("failed to set BPF filter %q: %w", filter, err)
	}
	monitoring.Logf("%s: replaying %s with filter %q", cfg.sessionTag(), pcapFile, filter)

	src := gopacket.NewPacketSource(handle, handle.LinkType())
	return pump(ctx, cfg, src, obs)
}

// pump forwards payload lengths from the packet source to the observer until
// the source drains or ctx is canceled.
func pump(ctx context.Context, cfg Config, src *gopacket.PacketSource, obs PacketObserver) error {
	packetCount := 0
	startTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			monitoring.Logf("%s: stopping after %d packets (context canceled)", cfg.sessionTag(), packetCount)
			return ctx.Err()
		case packet := <-src.Packets():
			if packet == nil {
				// Source drained (end of PCAP file or closed handle).
				monitoring.Logf("%s: source drained, %d packets in %v",
					cfg.sessionTag(), packetCount, time.Since(startTime).Round(time.Millisecond))
				return nil
			}

			tcpLayer := packet.Layer(layers.LayerTypeTCP)
			if tcpLayer == nil {
				continue // shouldn't happen with the BPF filter in place
			}
			tcp, ok := tcpLayer.(*layers.TCP)
			if !ok {
				continue
			}

			packetCount++
			obs.Observe(len(tcp.Payload))
		}
	}
}

// defaultInterface picks the first non-loopback device that has an address,
// matching the "just capture somewhere sensible" default of the CLI.
func defaultInterface() (string, error) {
	devs, err := pcap.FindAllDevs()
	if err != nil {
		return "", err
	}
	for _, dev := range devs {
		if dev.Flags&0x01 != 0 { // PCAP_IF_LOOPBACK
			continue
		}
		if len(dev.Addresses) == 0 {
			continue
		}
		return dev.Name, nil
	}
	return "", fmt.Errorf("no capturable interface found (of %d devices)", len(devs))
}
