package detect

import "fmt"

// TrafficStatsInterface provides packet statistics management for the ingest
// path. A nil implementation is substituted with a no-op.
type TrafficStatsInterface interface {
	AddPacket(bytes int)
	AddDiscarded()
}

// noopTrafficStats is a TrafficStatsInterface implementation that does
// nothing. It is used as a safe default when no stats collector is provided.
type noopTrafficStats struct{}

func (noopTrafficStats) AddPacket(bytes int) {}
func (noopTrafficStats) AddDiscarded()       {}

// ObserverConfig contains configuration options for an Observer.
type ObserverConfig struct {
	Detector *Detector
	Stats    TrafficStatsInterface
	Logf     func(format string, v ...interface{})
}

// Observer is the ingest boundary between the capture collaborator and the
// Detector. It applies the minimum-payload filter and forwards qualifying
// events. The capture backend may deliver observations from multiple
// goroutines; Observe is safe for concurrent use because the Detector
// serializes all state changes internally and the filter itself is
// immutable.
type Observer struct {
	det   *Detector
	min   uint64
	stats TrafficStatsInterface
	logf  func(format string, v ...interface{})
}

// NewObserver creates an Observer feeding the given detector. The minimum
// payload filter is taken from the detector's construction config.
func NewObserver(cfg ObserverConfig) (*Observer, error) {
	if cfg.Detector == nil {
		return nil, fmt.Errorf("detect: observer requires a detector")
	}
	stats := cfg.Stats
	if stats == nil {
		stats = noopTrafficStats{}
	}
	logf := cfg.Logf
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	return &Observer{
		det:   cfg.Detector,
		min:   cfg.Detector.minPayload,
		stats: stats,
		logf:  logf,
	}, nil
}

// Observe is invoked once per captured packet with its payload length.
// Packets below the minimum payload filter are discarded silently: no
// counter change, no timer re-arm, no notification.
func (o *Observer) Observe(payloadLen int) {
	o.stats.AddPacket(payloadLen)

	if o.min > 0 && uint64(payloadLen) < o.min {
		o.stats.AddDiscarded()
		o.logf("discarded %d byte payload below %d byte filter", payloadLen, o.min)
		return
	}

	o.det.OnEvent(uint64(payloadLen))
}
