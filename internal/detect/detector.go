// Package detect implements the threshold-triggered activity detector: it
// accumulates payload bytes reported by a capture collaborator and emits
// edge-triggered start/stop notifications based on a byte threshold and an
// inactivity timeout.
package detect

import (
	"fmt"
	"sync"
	"time"
)

// Sink receives the activity edge notifications. Implementations live
// outside this package (LED agents, logs); only the two-method contract
// matters here. Calls are made with the detector lock released, so a slow
// sink does not block packet ingestion, but implementations should still
// return promptly.
type Sink interface {
	Start()
	Stop()
}

// Config contains configuration options for a Detector.
type Config struct {
	// ThresholdBytes is the cumulative payload volume that triggers a
	// start notification. Must be > 0.
	ThresholdBytes uint64

	// InactivityTimeout is how long the detector waits without a
	// qualifying event before declaring the burst over. Must be > 0.
	InactivityTimeout time.Duration

	// MinPayloadBytes is the minimum payload length an event must carry
	// to qualify. Zero disables the filter. Applied by Observer, not by
	// OnEvent; it is recorded here so construction carries the full
	// detection tuning in one place.
	MinPayloadBytes uint64

	// Sink receives start/stop notifications. Nil gets a no-op sink.
	Sink Sink

	// Scheduler provides the single-shot inactivity timer. Nil gets the
	// runtime timer implementation.
	Scheduler Scheduler

	// Logf receives trace output. Nil mutes it.
	Logf func(format string, v ...interface{})
}

// Detector owns the byte counter, the activity flag and the single pending
// inactivity timer. It holds no per-packet data beyond the running counter,
// so memory stays O(1) regardless of traffic volume.
//
// Packet events and timer expiries may arrive on different goroutines; all
// state transitions are serialized under one mutex. At most one timer is
// outstanding at any instant: each qualifying event cancels the previous
// timer and arms a fresh one. A timer that loses the cancel race observes a
// stale generation number and returns without effect, so only the most
// recently armed timer can ever complete a timeout.
type Detector struct {
	threshold  uint64
	timeout    time.Duration
	minPayload uint64
	sched      Scheduler
	sink       Sink
	logf       func(format string, v ...interface{})

	mu      sync.Mutex
	volume  uint64
	active  bool
	pending Handle
	gen     uint64
	closed  bool
}

// noopSink is the safe default when no notification sink is provided.
type noopSink struct{}

func (noopSink) Start() {}
func (noopSink) Stop()  {}

// New validates the configuration and returns a Detector in the idle state.
func New(cfg Config) (*Detector, error) {
	if cfg.ThresholdBytes == 0 {
		return nil, fmt.Errorf("detect: threshold must be > 0 bytes")
	}
	if cfg.InactivityTimeout <= 0 {
		return nil, fmt.Errorf("detect: inactivity timeout must be > 0, got %v", cfg.InactivityTimeout)
	}

	sink := cfg.Sink
	if sink == nil {
		sink = noopSink{}
	}
	sched := cfg.Scheduler
	if sched == nil {
		sched = TimerScheduler{}
	}
	logf := cfg.Logf
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}

	return &Detector{
		threshold:  cfg.ThresholdBytes,
		timeout:    cfg.InactivityTimeout,
		minPayload: cfg.MinPayloadBytes,
		sched:      sched,
		sink:       sink,
		logf:       logf,
	}, nil
}

// OnEvent records size accumulated bytes from one qualifying packet. If the
// running volume crosses the threshold while the detector is idle, the sink's
// Start fires exactly once for this activation; further events while active
// never re-fire it. Every call re-arms the inactivity timer, replacing any
// previously pending one. After Close, OnEvent is a no-op.
func (d *Detector) OnEvent(size uint64) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}

	d.volume += size

	fireStart := false
	if !d.active && d.volume >= d.threshold {
		d.active = true
		fireStart = true
	}

	// Replace the pending timer. Bumping the generation first invalidates
	// a timer that already expired and is waiting on the lock.
	if d.pending != nil {
		d.pending.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = d.sched.Schedule(d.timeout, func() { d.onTimeout(gen) })

	volume := d.volume
	active := d.active
	d.mu.Unlock()

	if fireStart {
		d.logf("activity started: volume=%d bytes (threshold=%d)", volume, d.threshold)
		d.sink.Start()
	} else {
		d.logf("accumulated %d bytes, volume=%d/%d active=%v", size, volume, d.threshold, active)
	}
}

// onTimeout runs when the inactivity timer armed with generation gen expires
// without being replaced first. The volume resets unconditionally; a stop
// notification fires only if an activation was in progress.
func (d *Detector) onTimeout(gen uint64) {
	d.mu.Lock()
	if d.closed || gen != d.gen {
		// A newer event re-armed the timer (or the detector shut down)
		// after this one expired but before it got the lock.
		d.mu.Unlock()
		return
	}

	fireStop := d.active
	d.active = false
	d.volume = 0
	d.pending = nil
	d.mu.Unlock()

	if fireStop {
		d.logf("activity stopped: no qualifying traffic for %v", d.timeout)
		d.sink.Stop()
	} else {
		d.logf("volume reset after %v of inactivity", d.timeout)
	}
}

// Snapshot returns the current accumulated volume and activity flag.
func (d *Detector) Snapshot() (volume uint64, active bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.volume, d.active
}

// Close cancels any pending timer and makes all subsequent OnEvent calls
// no-ops. It does not fire a stop notification: session teardown is the
// owner's concern, not a traffic edge. Close is idempotent.
func (d *Detector) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
	// Invalidate any expired timer still waiting on the lock.
	d.gen++
}
