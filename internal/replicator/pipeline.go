// internal/replicator/pipeline.go
package replicator

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/ups-replicator/internal/poller"
	"github.com/tamzrod/ups-replicator/internal/status"
	"github.com/tamzrod/ups-replicator/internal/writer"
)

// pipeline is the per-unit orchestrator: it owns the status tracker and
// fans every scheduled outcome out to the writers.
type pipeline struct {
	coord   *poller.Coordinator
	writers []writer.Writer
	status  []writer.StatusWriter
	tracker *status.Tracker
	log     zerolog.Logger
}

func newPipeline(coord *poller.Coordinator, writers []writer.Writer, sws []writer.StatusWriter, log zerolog.Logger) *pipeline {
	return &pipeline{
		coord:   coord,
		writers: writers,
		status:  sws,
		tracker: status.NewTracker(),
		log:     log,
	}
}

// run blocks until ctx ends. The coordinator must be Ready.
func (p *pipeline) run(ctx context.Context) {
	out := make(chan poller.Outcome)

	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := p.coord.Run(ctx, out); err != nil {
			p.log.Error().Err(err).Msg("poll loop stopped")
		}
	}()

	secTicker := time.NewTicker(time.Second)
	defer secTicker.Stop()

	// Full block write on start (identity re-assert) if enabled.
	p.writeStatus()

	// deliver the Init poll so targets have data before the first tick
	p.deliver(p.coord.Current())

	for {
		select {
		case <-ctx.Done():
			return

		case o := <-out:
			p.deliver(o)

		case <-secTicker.C:
			p.tick()
		}
	}
}

// deliver fans one outcome out to every writer and folds it into status.
func (p *pipeline) deliver(o poller.Outcome) {
	for _, w := range p.writers {
		if err := w.Write(o); err != nil {
			p.log.Warn().Err(err).Msg("writer error")
		}
	}

	if p.tracker.Observe(o.Reading, o.Err) {
		p.writeStatus()
	}
}

// tick advances seconds_in_error at 1 Hz while not OK.
func (p *pipeline) tick() {
	if p.tracker.Tick() {
		p.writeStatus()
	}
}

func (p *pipeline) writeStatus() {
	snap := p.tracker.Snapshot()
	for _, sw := range p.status {
		if err := sw.WriteStatus(snap); err != nil {
			p.log.Warn().Err(err).Msg("status write failed")
		}
	}
}
