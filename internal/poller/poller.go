// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tamzrod/ups-replicator/internal/megatec"
)

// Client abstracts the UPS exchange needed by the coordinator.
type Client interface {
	Poll(ctx context.Context) (megatec.Reading, error)
}

const DefaultInterval = 3 * time.Second

// minInterval is a var so tests can run fast cadences.
var minInterval = time.Second

// Config is the minimal runtime config the coordinator needs.
type Config struct {
	UnitID   string
	Interval time.Duration
}

// Coordinator polls one UPS on a fixed cadence and caches the last outcome.
// At most one exchange is in flight at any time.
type Coordinator struct {
	unitID string
	client Client
	log    zerolog.Logger

	interval atomic.Int64

	group   singleflight.Group
	busy    atomic.Bool
	ticking atomic.Bool
	skipped atomic.Uint64

	mu          sync.RWMutex
	state       State
	outcome     Outcome
	lastSuccess time.Time
}

// New creates a coordinator in StateUninitialized. Call Init before use.
func New(cfg Config, client Client, log zerolog.Logger) (*Coordinator, error) {
	if cfg.UnitID == "" {
		return nil, errors.New("poller: unit id required")
	}
	if client == nil {
		return nil, errors.New("poller: client required")
	}

	c := &Coordinator{
		unitID: cfg.UnitID,
		client: client,
		log:    log,
		state:  StateUninitialized,
	}
	c.outcome = Outcome{UnitID: cfg.UnitID, Err: ErrNotReady}
	c.SetInterval(cfg.Interval)
	return c, nil
}

// UnitID returns the unit this coordinator polls.
func (c *Coordinator) UnitID() string { return c.unitID }

// SetInterval changes the cadence. Zero selects DefaultInterval; values
// under one second are raised. Takes effect on the next cycle.
func (c *Coordinator) SetInterval(d time.Duration) {
	if d == 0 {
		d = DefaultInterval
	}
	if d < minInterval {
		d = minInterval
	}
	c.interval.Store(int64(d))
}

// Interval returns the current cadence.
func (c *Coordinator) Interval() time.Duration {
	return time.Duration(c.interval.Load())
}

// Init performs the first poll synchronously.
// Failure is terminal for this coordinator and wraps ErrNotReady.
func (c *Coordinator) Init(ctx context.Context) error {
	c.mu.RLock()
	st := c.state
	c.mu.RUnlock()
	if st != StateUninitialized {
		return errors.New("poller: already initialized")
	}

	res := c.refresh(ctx)
	if res.Err != nil {
		return fmt.Errorf("%w: %w", ErrNotReady, res.Err)
	}
	return nil
}

// Current returns the cached outcome. Never blocks on I/O.
func (c *Coordinator) Current() Outcome {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.outcome
}

// State returns the lifecycle state.
func (c *Coordinator) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Ready reports whether the first poll succeeded.
func (c *Coordinator) Ready() bool {
	switch c.State() {
	case StateReady, StatePolling, StateDegraded:
		return true
	}
	return false
}

// Skipped returns how many ticks were dropped because a poll was in flight.
func (c *Coordinator) Skipped() uint64 { return c.skipped.Load() }

// RefreshNow forces a poll and returns its outcome. A caller arriving
// while a poll is in flight waits for and shares that poll's outcome.
func (c *Coordinator) RefreshNow(ctx context.Context) Outcome {
	if !c.Ready() {
		return Outcome{UnitID: c.unitID, At: time.Now(), Err: ErrNotReady}
	}
	return c.refresh(ctx)
}

// refresh runs one exchange through the single-flight group.
func (c *Coordinator) refresh(ctx context.Context) Outcome {
	v, _, _ := c.group.Do(c.unitID, func() (any, error) {
		c.busy.Store(true)
		defer c.busy.Store(false)
		return c.pollOnce(ctx), nil
	})
	return v.(Outcome)
}

// pollOnce performs exactly one exchange and commits it.
// All-or-nothing: a failure replaces the previous reading.
func (c *Coordinator) pollOnce(ctx context.Context) Outcome {
	c.mu.Lock()
	prev := c.state
	if prev == StateReady || prev == StateDegraded {
		c.state = StatePolling
	}
	c.mu.Unlock()

	r, err := c.client.Poll(ctx)
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	res := Outcome{UnitID: c.unitID, At: now}

	if err != nil {
		res.Err = err
		res.LastSuccess = c.lastSuccess

		if prev == StateUninitialized {
			c.state = StateFailedInit
			c.log.Warn().Err(err).Msg("first poll failed")
		} else {
			c.state = StateDegraded
			if prev != StateDegraded {
				c.log.Warn().Err(err).Msg("ups unavailable")
			} else {
				c.log.Debug().Err(err).Msg("poll failed")
			}
		}
	} else {
		c.lastSuccess = now
		res.Reading = &r
		res.LastSuccess = now

		c.state = StateReady
		if prev != StateReady {
			c.log.Info().Str("from", prev.String()).Msg("ups ready")
		}
	}

	c.outcome = res
	return res
}
