// internal/replicator/setup.go
package replicator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/ups-replicator/internal/config"
	"github.com/tamzrod/ups-replicator/internal/megatec"
	"github.com/tamzrod/ups-replicator/internal/poller"
)

// Setup brings one unit to Ready.
//
// Errors wrapping poller.ErrNotReady are transient: the UPS did not
// answer and setup may be retried later. Any other error is permanent
// for this configuration.
func Setup(ctx context.Context, u config.UnitConfig, probeTimeout time.Duration, log zerolog.Logger) (*poller.Coordinator, error) {
	t := u.Target()
	if t.Protocol != megatec.ProtocolQ1 {
		return nil, &megatec.UnsupportedProtocolError{Protocol: t.Protocol}
	}

	// ---- pre-check: is anything listening ----
	if probeTimeout <= 0 {
		probeTimeout = megatec.DefaultTimeout
	}
	if err := megatec.Probe(ctx, t.Endpoint(), probeTimeout); err != nil {
		return nil, fmt.Errorf("%w: %w", poller.ErrNotReady, err)
	}

	// ---- coordinator ----
	c, err := poller.Build(u, log)
	if err != nil {
		return nil, err
	}

	// first poll must succeed; a failed coordinator is discarded
	if err := c.Init(ctx); err != nil {
		return nil, err
	}

	return c, nil
}
