// internal/writer/builder.go
package writer

import (
	"errors"

	cfg "github.com/tamzrod/ups-replicator/internal/config"
	wmodbus "github.com/tamzrod/ups-replicator/internal/writer/modbus"
)

// BuildPlan converts one unit config into a Writer Plan.
// Assumes config has already passed conflict validation.
func BuildPlan(u cfg.UnitConfig) (Plan, error) {
	if u.ID == "" {
		return Plan{}, errors.New("writer: unit.id required")
	}

	plan := Plan{UnitID: u.ID}

	for _, t := range u.Targets {
		plan.Targets = append(plan.Targets, TargetEndpoint{
			TargetID: t.ID,
			Endpoint: t.Endpoint,
			UnitID:   t.UnitID,
			Address:  t.Address,
		})

		// status is opt-in per unit and per target
		if u.Source.StatusSlot == nil || t.StatusUnitID == nil {
			continue
		}
		plan.Status = append(plan.Status, StatusPlan{
			Endpoint:   t.Endpoint,
			UnitID:     *t.StatusUnitID,
			BaseSlot:   *u.Source.StatusSlot,
			DeviceName: u.Source.DeviceName,
		})
	}

	return plan, nil
}

// BuildEndpointClients creates one TCP client per unique endpoint.
func BuildEndpointClients(u cfg.UnitConfig) (map[string]*wmodbus.EndpointClient, func() error, error) {
	unique := map[string]struct{}{}
	for _, t := range u.Targets {
		unique[t.Endpoint] = struct{}{}
	}

	clients := make(map[string]*wmodbus.EndpointClient)
	var closers []func() error

	for endpoint := range unique {
		c, err := wmodbus.NewEndpointClient(wmodbus.Config{
			Endpoint: endpoint,
			Timeout:  u.Timeout(),
		})
		if err != nil {
			for _, fn := range closers {
				_ = fn()
			}
			return nil, nil, err
		}
		clients[endpoint] = c
		closers = append(closers, c.Close)
	}

	closeAll := func() error {
		var last error
		for _, fn := range closers {
			if err := fn(); err != nil {
				last = err
			}
		}
		return last
	}

	return clients, closeAll, nil
}

// Set is every Modbus writer of one unit plus the closer of their clients.
type Set struct {
	Data   Writer
	Status []StatusWriter
	Close  func() error
}

// Build wires plan, clients and writers for one unit.
func Build(u cfg.UnitConfig) (*Set, error) {
	plan, err := BuildPlan(u)
	if err != nil {
		return nil, err
	}

	mc, closeAll, err := BuildEndpointClients(u)
	if err != nil {
		return nil, err
	}

	clients := make(map[string]endpointClient, len(mc))
	for ep, c := range mc {
		clients[ep] = c
	}

	return &Set{
		Data:   New(plan, clients),
		Status: NewDeviceStatusWriters(plan, clients),
		Close:  closeAll,
	}, nil
}
