package stats

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/banshee-data/traffic.pulse/internal/monitoring"
)

func TestGetAndReset(t *testing.T) {
	ts := NewTrafficStats()

	ts.AddPacket(100)
	ts.AddPacket(250)
	ts.AddDiscarded()

	packets, bytes, discarded, duration := ts.GetAndReset()
	assert.Equal(t, int64(2), packets)
	assert.Equal(t, int64(350), bytes)
	assert.Equal(t, int64(1), discarded)
	assert.Greater(t, duration.Nanoseconds(), int64(0))

	// Counters reset after the read.
	packets, bytes, discarded, _ = ts.GetAndReset()
	assert.Equal(t, int64(0), packets)
	assert.Equal(t, int64(0), bytes)
	assert.Equal(t, int64(0), discarded)
}

func TestLogStats(t *testing.T) {
	var mu sync.Mutex
	var lines []string
	monitoring.SetLogger(func(format string, v ...interface{}) {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	defer monitoring.SetLogger(nil)

	ts := NewTrafficStats()

	// No traffic: nothing logged, no snapshot.
	ts.LogStats()
	mu.Lock()
	assert.Empty(t, lines)
	mu.Unlock()
	assert.Nil(t, ts.LatestSnapshot())

	ts.AddPacket(2048)
	ts.AddDiscarded()
	ts.LogStats()

	mu.Lock()
	assert.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "Traffic:"))
	mu.Unlock()

	snap := ts.LatestSnapshot()
	assert.NotNil(t, snap)
	assert.Equal(t, int64(1), snap.Discarded)
	assert.Greater(t, snap.BytesPerSec, 0.0)
}

func TestConcurrentCounters(t *testing.T) {
	ts := NewTrafficStats()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				ts.AddPacket(10)
				ts.AddDiscarded()
			}
		}()
	}
	wg.Wait()

	packets, bytes, discarded, _ := ts.GetAndReset()
	assert.Equal(t, int64(4000), packets)
	assert.Equal(t, int64(40000), bytes)
	assert.Equal(t, int64(4000), discarded)
}
