// internal/writer/types.go
package writer

import "github.com/tamzrod/ups-replicator/internal/poller"

// TargetEndpoint is one register mirror destination (TCP) for a unit.
type TargetEndpoint struct {
	TargetID uint32
	Endpoint string
	UnitID   uint8  // data memory
	Address  uint16 // first reading register
}

// StatusPlan is one device status block destination.
type StatusPlan struct {
	Endpoint   string
	UnitID     uint8
	BaseSlot   uint16
	DeviceName string
}

// Plan is the fully-built write plan for one unit.
type Plan struct {
	UnitID  string
	Targets []TargetEndpoint
	Status  []StatusPlan // empty => status disabled
}

// Writer delivers poll outcomes downstream.
type Writer interface {
	Write(o poller.Outcome) error
}
