// Package stats tracks per-interval traffic counters for the capture path.
// Counters reset on every report; nothing is retained across intervals.
package stats

import (
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/banshee-data/traffic.pulse/internal/monitoring"
)

// Snapshot represents one reporting interval of traffic statistics.
type Snapshot struct {
	PacketsPerSec float64
	BytesPerSec   float64
	Discarded     int64
	Timestamp     time.Time
}

// TrafficStats tracks packet statistics with thread-safe operations.
type TrafficStats struct {
	mu             sync.Mutex
	packetCount    int64
	byteCount      int64
	discardedCount int64
	lastReset      time.Time
	startTime      time.Time
	latestSnapshot *Snapshot
}

// NewTrafficStats creates a new TrafficStats instance.
func NewTrafficStats() *TrafficStats {
	now := time.Now()
	return &TrafficStats{
		lastReset: now,
		startTime: now,
	}
}

// AddPacket increments packet count and byte count.
func (ts *TrafficStats) AddPacket(bytes int) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.packetCount++
	ts.byteCount += int64(bytes)
}

// AddDiscarded increments the count of packets swallowed by the payload filter.
func (ts *TrafficStats) AddDiscarded() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.discardedCount++
}

// GetAndReset returns current counters and resets them for the next interval.
func (ts *TrafficStats) GetAndReset() (packets, bytes, discarded int64, duration time.Duration) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	now := time.Now()
	duration = now.Sub(ts.lastReset)
	packets = ts.packetCount
	bytes = ts.byteCount
	discarded = ts.discardedCount

	ts.packetCount = 0
	ts.byteCount = 0
	ts.discardedCount = 0
	ts.lastReset = now

	return
}

// LogStats logs formatted statistics for the interval since the last call and
// stores the snapshot for later inspection.
func (ts *TrafficStats) LogStats() {
	packets, bytes, discarded, duration := ts.GetAndReset()
	if packets == 0 {
		return
	}

	secs := duration.Seconds()
	if secs <= 0 {
		secs = 1
	}
	packetsPerSec := float64(packets) / secs
	bytesPerSec := float64(bytes) / secs

	ts.mu.Lock()
	ts.latestSnapshot = &Snapshot{
		PacketsPerSec: packetsPerSec,
		BytesPerSec:   bytesPerSec,
		Discarded:     discarded,
		Timestamp:     time.Now(),
	}
	ts.mu.Unlock()

	monitoring.Logf("Traffic: %.1f packets/sec, %s/sec, %d below payload filter (uptime %v)",
		packetsPerSec, humanize.IBytes(uint64(bytesPerSec)), discarded,
		time.Since(ts.startTime).Round(time.Second))
}

// LatestSnapshot returns the most recent interval snapshot, or nil when no
// interval with traffic has completed yet.
func (ts *TrafficStats) LatestSnapshot() *Snapshot {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.latestSnapshot
}
