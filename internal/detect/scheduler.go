package detect

import "time"

// Handle represents a single scheduled callback that may be canceled.
type Handle interface {
	// Stop cancels the callback. It returns false if the callback has
	// already fired or been stopped. A stopped callback whose timer had
	// already expired may still be mid-flight; the Detector guards
	// against that with a generation check under its lock.
	Stop() bool
}

// Scheduler provides single-shot delayed callbacks. The production
// implementation wraps time.AfterFunc; tests substitute a manual fake so
// timer expiry can be driven deterministically.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) Handle
}

// TimerScheduler is the Scheduler backed by the runtime timer facility.
type TimerScheduler struct{}

func (TimerScheduler) Schedule(d time.Duration, fn func()) Handle {
	return timerHandle{time.AfterFunc(d, fn)}
}

type timerHandle struct {
	t *time.Timer
}

func (h timerHandle) Stop() bool { return h.t.Stop() }
