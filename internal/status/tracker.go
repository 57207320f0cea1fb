// internal/status/tracker.go
package status

import (
	"math"

	"github.com/tamzrod/ups-replicator/internal/megatec"
)

// Tracker owns the device-level status truth for one unit.
// It is driven by poll outcomes and a 1 Hz tick. Not safe for
// concurrent use: the orchestrator goroutine owns it.
type Tracker struct {
	snap Snapshot
}

// NewTracker starts in HealthUnknown.
func NewTracker() *Tracker {
	return &Tracker{snap: Snapshot{Health: HealthUnknown}}
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Snapshot { return t.snap }

// Observe folds one poll result into the snapshot.
// Returns true if anything changed.
func (t *Tracker) Observe(r *megatec.Reading, err error) bool {
	prev := t.snap

	if err == nil && r != nil {
		// Recovery / OK
		t.snap.Health = HealthOK
		t.snap.LastErrorCode = 0
		t.snap.SecondsInError = 0
		t.snap.BatteryLevel = scaleUnsigned(r.BatteryLevel, 100)
	} else {
		t.snap.Health = HealthError
		t.snap.LastErrorCode = megatec.Code(err)
		t.snap.BatteryLevel = 0
		// NOTE: seconds_in_error increments on Tick only.
	}

	return t.snap != prev
}

// Tick advances seconds_in_error while not OK.
// Returns true if the counter moved.
func (t *Tracker) Tick() bool {
	if t.snap.Health == HealthOK {
		return false
	}
	if t.snap.SecondsInError >= SecondsInErrorMax {
		return false
	}
	t.snap.SecondsInError++
	return true
}

func scaleUnsigned(v, factor float64) uint16 {
	x := math.Round(v * factor)
	if x < 0 {
		return 0
	}
	if x > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(x)
}
