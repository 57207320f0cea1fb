// internal/api/types.go
package api

import (
	"context"
	"time"

	"github.com/tamzrod/ups-replicator/internal/megatec"
	"github.com/tamzrod/ups-replicator/internal/poller"
	"github.com/tamzrod/ups-replicator/internal/sensor"
)

// Unit is the read side of one configured UPS as seen by the adapters.
type Unit interface {
	ID() string
	Name() string
	State() poller.State
	Current() poller.Outcome
	RefreshNow(ctx context.Context) poller.Outcome
}

// Registry lists the configured units.
type Registry interface {
	Units() []Unit
	Unit(id string) (Unit, bool)
}

// OutcomeView is the JSON form of a unit's latest outcome.
type OutcomeView struct {
	Unit        string           `json:"unit"`
	Name        string           `json:"name"`
	State       string           `json:"state"`
	OK          bool             `json:"ok"`
	Error       string           `json:"error,omitempty"`
	ErrorCode   uint16           `json:"error_code,omitempty"`
	At          *time.Time       `json:"at,omitempty"`
	LastSuccess *time.Time       `json:"last_success,omitempty"`
	Reading     *megatec.Reading `json:"reading,omitempty"`
}

// SensorView is one metric value.
type SensorView struct {
	UniqueID  string      `json:"unique_id"`
	Name      string      `json:"name"`
	Key       sensor.Key  `json:"key"`
	Unit      sensor.Unit `json:"unit,omitempty"`
	Icon      string      `json:"icon"`
	Available bool        `json:"available"`
	Value     any         `json:"value"`
}

// ViewOf renders an outcome.
func ViewOf(u Unit, o poller.Outcome) OutcomeView {
	v := OutcomeView{
		Unit:    u.ID(),
		Name:    u.Name(),
		State:   u.State().String(),
		OK:      o.OK(),
		Reading: o.Reading,
	}
	if o.Err != nil {
		v.Error = o.Err.Error()
		v.ErrorCode = megatec.Code(o.Err)
	}
	if !o.At.IsZero() {
		at := o.At
		v.At = &at
	}
	if !o.LastSuccess.IsZero() {
		ls := o.LastSuccess
		v.LastSuccess = &ls
	}
	return v
}

// SensorsOf renders the metrics of a unit. Disabled-by-default metrics
// are included only when all is set. Every view comes from one outcome.
func SensorsOf(u Unit, all bool) []SensorView {
	snap := sensor.Fixed(u.Current())

	out := make([]SensorView, 0, len(sensor.Definitions))
	for _, h := range sensor.NewHandles(u.ID(), u.Name(), snap) {
		if !h.EnabledByDefault && !all {
			continue
		}
		v, ok := h.Value()
		out = append(out, SensorView{
			UniqueID:  h.UniqueID(),
			Name:      h.DisplayName(),
			Key:       h.Key,
			Unit:      h.Unit,
			Icon:      h.CurrentIcon(),
			Available: ok,
			Value:     v,
		})
	}
	return out
}
