// Package sink provides notification sinks for activity edges. A sink is
// anything with Start and Stop; the detector calls them at most once per
// activation edge.
package sink

import "github.com/banshee-data/traffic.pulse/internal/monitoring"

// Sink receives activity start/stop notifications.
type Sink interface {
	Start()
	Stop()
}

// LogSink writes each edge to the package logger.
type LogSink struct{}

func (LogSink) Start() { monitoring.Logf("activity: START") }
func (LogSink) Stop()  { monitoring.Logf("activity: STOP") }

// Multi fans one edge out to several sinks, in order.
type Multi []Sink

func (m Multi) Start() {
	for _, s := range m {
		s.Start()
	}
}

func (m Multi) Stop() {
	for _, s := range m {
		s.Stop()
	}
}
