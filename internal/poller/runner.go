// internal/poller/runner.go
package poller

import (
	"context"
	"sync"
	"time"
)

// Run starts the ticker loop and emits each scheduled Outcome on out.
// One goroutine per unit. No overlap. No retries.
// A tick that fires while a poll is in flight is dropped.
// A slow consumer never holds back polling: undelivered outcomes are
// replaced by newer ones.
// Returns ErrNotReady if Init did not succeed.
func (c *Coordinator) Run(ctx context.Context, out chan<- Outcome) error {
	if !c.Ready() {
		return ErrNotReady
	}

	cur := c.Interval()
	ticker := time.NewTicker(cur)
	defer ticker.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	var pending chan Outcome
	if out != nil {
		pending = make(chan Outcome, 1)
		wg.Add(1)
		go func() {
			defer wg.Done()
			forward(ctx, pending, out)
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if d := c.Interval(); d != cur {
				ticker.Reset(d)
				cur = d
				c.log.Info().Dur("interval", d).Msg("poll interval changed")
			}

			wg.Add(1)
			go func() {
				defer wg.Done()
				c.tick(ctx, pending)
			}()
		}
	}
}

// tick runs one scheduled poll unless one is already in flight.
// The guard covers the exchange only; emission never blocks.
func (c *Coordinator) tick(ctx context.Context, pending chan Outcome) {
	if !c.ticking.CompareAndSwap(false, true) {
		c.skip()
		return
	}
	if c.busy.Load() {
		c.ticking.Store(false)
		c.skip()
		return
	}

	res := c.refresh(ctx)
	if pending != nil {
		latest(pending, res)
	}
	c.ticking.Store(false)
}

// latest stores res in the 1-slot buffer, evicting an undelivered outcome.
func latest(pending chan Outcome, res Outcome) {
	for {
		select {
		case pending <- res:
			return
		default:
		}
		select {
		case <-pending:
		default:
		}
	}
}

// forward relays buffered outcomes to the consumer until ctx ends.
func forward(ctx context.Context, pending <-chan Outcome, out chan<- Outcome) {
	for {
		select {
		case <-ctx.Done():
			return
		case o := <-pending:
			select {
			case out <- o:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (c *Coordinator) skip() {
	c.skipped.Add(1)
	c.log.Debug().Msg("poll in flight, tick skipped")
}
