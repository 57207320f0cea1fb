// internal/replicator/unit.go
package replicator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tamzrod/ups-replicator/internal/config"
	"github.com/tamzrod/ups-replicator/internal/poller"
)

// unit is one configured UPS and its supervisor.
// coord is nil until setup succeeds.
type unit struct {
	mu  sync.RWMutex
	cfg config.UnitConfig

	coord atomic.Pointer[poller.Coordinator]

	cancel context.CancelFunc
	done   chan struct{}
}

func (u *unit) config() config.UnitConfig {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.cfg
}

// setInterval applies an interval-only change in place.
func (u *unit) setInterval(c config.UnitConfig) {
	u.mu.Lock()
	u.cfg = c
	u.mu.Unlock()

	if coord := u.coord.Load(); coord != nil {
		coord.SetInterval(c.Interval())
	}
}

// ---- api.Unit ----

func (u *unit) ID() string { return u.config().ID }

func (u *unit) Name() string { return u.config().DisplayName() }

func (u *unit) State() poller.State {
	if c := u.coord.Load(); c != nil {
		return c.State()
	}
	return poller.StateUninitialized
}

func (u *unit) Current() poller.Outcome {
	if c := u.coord.Load(); c != nil {
		return c.Current()
	}
	return poller.Outcome{UnitID: u.ID(), Err: poller.ErrNotReady}
}

func (u *unit) RefreshNow(ctx context.Context) poller.Outcome {
	if c := u.coord.Load(); c != nil {
		return c.RefreshNow(ctx)
	}
	return poller.Outcome{UnitID: u.ID(), At: time.Now(), Err: poller.ErrNotReady}
}
