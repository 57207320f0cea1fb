// internal/writer/writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/ups-replicator/internal/poller"
	"github.com/tamzrod/ups-replicator/internal/status"
)

// endpointClient is the exact contract the writers use.
// IMPORTANT: There must be NO other version of this interface anywhere.
type endpointClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

type writerImpl struct {
	plan    Plan
	clients map[string]endpointClient
}

func New(plan Plan, clients map[string]endpointClient) Writer {
	return &writerImpl{
		plan:    plan,
		clients: clients,
	}
}

// Write mirrors one outcome into every target.
// Success writes the full reading block. Failure writes only the
// validity flag so stale values are never presented as current.
func (w *writerImpl) Write(o poller.Outcome) error {
	var errs []string

	for _, tgt := range w.plan.Targets {
		cli := w.clients[tgt.Endpoint]
		if cli == nil {
			errs = append(errs, fmt.Sprintf(
				"writer: missing client for endpoint %s",
				tgt.Endpoint,
			))
			continue
		}

		addr := tgt.Address
		var regs []uint16

		if o.OK() {
			regs = status.EncodeReading(o.Reading)
		} else {
			addr += status.RegValid
			regs = []uint16{0}
		}

		if err := cli.WriteRegisters(tgt.UnitID, addr, regs); err != nil {
			errs = append(errs, fmt.Sprintf(
				"writer: ep=%s unit=%d addr=%d err=%v",
				tgt.Endpoint, tgt.UnitID, addr, err,
			))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, " | "))
	}

	return nil
}
