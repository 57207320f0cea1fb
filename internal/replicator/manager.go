// internal/replicator/manager.go
package replicator

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/ups-replicator/internal/api"
	"github.com/tamzrod/ups-replicator/internal/config"
	"github.com/tamzrod/ups-replicator/internal/poller"
	"github.com/tamzrod/ups-replicator/internal/writer"
	wmqtt "github.com/tamzrod/ups-replicator/internal/writer/mqtt"
)

type Options struct {
	// MQTT is optional; nil disables the MQTT exporter.
	MQTT        wmqtt.Client
	TopicPrefix string
}

// Manager owns one supervised pipeline per configured unit and applies
// configuration reloads.
type Manager struct {
	opts Options
	log  zerolog.Logger

	apply sync.Mutex // serializes Apply and Stop

	mu    sync.RWMutex
	units map[string]*unit
	order []string
	setup config.SetupConfig
}

func NewManager(opts Options, log zerolog.Logger) *Manager {
	return &Manager{
		opts:  opts,
		log:   log,
		units: make(map[string]*unit),
	}
}

// Apply reconciles running units with cfg.
// Interval-only changes are applied in place; any other change to a unit,
// or to the setup section, recreates its pipeline. A replacement starts
// once its predecessor has stopped. cfg must be validated and normalized.
func (m *Manager) Apply(ctx context.Context, cfg *config.Config) {
	m.apply.Lock()
	defer m.apply.Unlock()

	r := cfg.Replicator

	want := make(map[string]config.UnitConfig, len(r.Units))
	order := make([]string, 0, len(r.Units))
	for _, u := range r.Units {
		want[u.ID] = u
		order = append(order, u.ID)
	}

	var stopped []*unit

	m.mu.Lock()

	setupChanged := m.setup != r.Setup
	m.setup = r.Setup

	// ---- removed ----
	for id, e := range m.units {
		if _, keep := want[id]; keep {
			continue
		}
		e.cancel()
		stopped = append(stopped, e)
		delete(m.units, id)
		m.log.Info().Str("unit", id).Msg("unit removed")
	}

	// ---- added / changed ----
	for _, id := range order {
		u := want[id]
		e, exists := m.units[id]

		switch {
		case !exists:
			m.units[id] = m.start(ctx, u, r.Setup, nil)
			m.log.Info().Str("unit", id).Msg("unit added")

		case !setupChanged && reflect.DeepEqual(e.config(), u):
			// unchanged

		case !setupChanged && intervalOnly(e.config(), u):
			e.setInterval(u)
			m.log.Info().Str("unit", id).Dur("interval", u.Interval()).Msg("unit interval updated")

		default:
			e.cancel()
			m.units[id] = m.start(ctx, u, r.Setup, e.done)
			m.log.Info().Str("unit", id).Msg("unit reconfigured")
		}
	}

	m.order = order
	m.mu.Unlock()

	// wait outside the lock; readers keep working while exporters drain
	for _, e := range stopped {
		<-e.done
	}
}

// Stop shuts every unit down and waits for their pipelines.
func (m *Manager) Stop() {
	m.apply.Lock()
	defer m.apply.Unlock()

	m.mu.Lock()
	units := make([]*unit, 0, len(m.units))
	for id, e := range m.units {
		e.cancel()
		units = append(units, e)
		delete(m.units, id)
	}
	m.order = nil
	m.mu.Unlock()

	for _, e := range units {
		<-e.done
	}
}

// ---- api.Registry ----

func (m *Manager) Units() []api.Unit {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]api.Unit, 0, len(m.order))
	for _, id := range m.order {
		if e, ok := m.units[id]; ok {
			out = append(out, e)
		}
	}
	return out
}

func (m *Manager) Unit(id string) (api.Unit, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.units[id]
	if !ok {
		return nil, false
	}
	return e, true
}

// ---- supervision ----

// start launches the supervisor of u. A non-nil after delays setup until
// the previous pipeline of the same unit has stopped.
func (m *Manager) start(parent context.Context, u config.UnitConfig, s config.SetupConfig, after <-chan struct{}) *unit {
	ctx, cancel := context.WithCancel(parent)
	e := &unit{
		cfg:    u,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		if after != nil {
			// predecessor is already cancelled; done covers both pipelines
			<-after
		}
		if ctx.Err() != nil {
			close(e.done)
			return
		}
		m.supervise(ctx, e, s)
	}()
	return e
}

// supervise retries not-ready setup every retry delay, then runs the
// pipeline until ctx ends. Permanent setup errors abandon the unit.
func (m *Manager) supervise(ctx context.Context, e *unit, s config.SetupConfig) {
	defer close(e.done)

	log := m.log.With().Str("unit", e.ID()).Logger()

	delay := s.RetryDelay()
	if delay <= 0 {
		delay = time.Duration(config.DefaultRetrySeconds) * time.Second
	}

	var coord *poller.Coordinator
	for {
		c, err := Setup(ctx, e.config(), s.ProbeTimeout(), log)
		if err == nil {
			coord = c
			break
		}
		if !errors.Is(err, poller.ErrNotReady) {
			log.Error().Err(err).Msg("unit setup failed")
			return
		}

		log.Warn().Err(err).Dur("retry_in", delay).Msg("unit not ready")
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}

	// a reload may have changed the interval while setup ran
	coord.SetInterval(e.config().Interval())
	e.coord.Store(coord)

	u := e.config()

	set, err := writer.Build(u)
	if err != nil {
		log.Error().Err(err).Msg("writer build failed")
		return
	}
	defer func() {
		if err := set.Close(); err != nil {
			log.Debug().Err(err).Msg("writer close")
		}
	}()

	writers := []writer.Writer{set.Data}
	if m.opts.MQTT != nil {
		writers = append(writers, wmqtt.NewPublisher(m.opts.MQTT, m.opts.TopicPrefix, u.ID))
	}

	log.Info().Msg("unit ready")
	newPipeline(coord, writers, set.Status, log).run(ctx)
}

// intervalOnly reports whether a and b differ only in poll interval.
func intervalOnly(a, b config.UnitConfig) bool {
	a.Poll, b.Poll = config.PollConfig{}, config.PollConfig{}
	return reflect.DeepEqual(a, b)
}
