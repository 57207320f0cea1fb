// internal/poller/types.go
package poller

import (
	"errors"
	"time"

	"github.com/tamzrod/ups-replicator/internal/megatec"
)

// ErrNotReady means the coordinator never completed its first poll.
// The owner must discard it and build a new one.
var ErrNotReady = errors.New("poller: not ready")

// State is the coordinator lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StatePolling
	StateDegraded
	StateFailedInit
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StatePolling:
		return "polling"
	case StateDegraded:
		return "degraded"
	case StateFailedInit:
		return "failed_init"
	default:
		return "unknown"
	}
}

// Outcome is the result of the most recent poll.
// Exactly one of Reading and Err is set.
type Outcome struct {
	UnitID string
	At     time.Time

	Reading *megatec.Reading
	Err     error

	// LastSuccess is the completion time of the last successful poll.
	// Zero if none. Kept for staleness checks only; the reading itself
	// is discarded on failure.
	LastSuccess time.Time
}

// OK reports whether the outcome carries a reading.
func (o Outcome) OK() bool {
	return o.Err == nil && o.Reading != nil
}
