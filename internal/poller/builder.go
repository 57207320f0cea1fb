// internal/poller/builder.go
package poller

import (
	"github.com/rs/zerolog"

	cfg "github.com/tamzrod/ups-replicator/internal/config"
	"github.com/tamzrod/ups-replicator/internal/megatec"
)

// Build constructs an uninitialized Coordinator for one unit.
// Each poll dials its own connection; there is no client to close.
// No retries, no loops.
func Build(u cfg.UnitConfig, log zerolog.Logger) (*Coordinator, error) {
	client, err := megatec.New(megatec.Config{
		Target:  u.Target(),
		Timeout: u.Timeout(),
		Bounds:  u.Bounds(),
	})
	if err != nil {
		return nil, err
	}

	return New(
		Config{
			UnitID:   u.ID,
			Interval: u.Interval(),
		},
		client,
		log.With().Str("unit", u.ID).Str("endpoint", u.Target().Endpoint()).Logger(),
	)
}
