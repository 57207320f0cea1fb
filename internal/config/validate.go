// internal/config/validate.go
package config

import (
	"fmt"
	"strings"

	"github.com/tamzrod/ups-replicator/internal/megatec"
	"github.com/tamzrod/ups-replicator/internal/status"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil")
	}

	r := cfg.Replicator

	switch strings.ToLower(r.LogLevel) {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q: want trace|debug|info|warn|error", r.LogLevel)
	}
	switch r.LogFormat {
	case "", "json", "console":
	default:
		return fmt.Errorf("log_format %q: want json|console", r.LogFormat)
	}

	if len(r.Units) == 0 {
		return fmt.Errorf("no units configured")
	}

	// ------------------------------------------------------------
	// UNIT IDENTITY + SOURCE
	// ------------------------------------------------------------

	ids := make(map[string]struct{})
	keys := make(map[string]string)

	for _, u := range r.Units {
		if u.ID == "" {
			return fmt.Errorf("unit with empty id")
		}
		if _, dup := ids[u.ID]; dup {
			return fmt.Errorf("unit %q: duplicate id", u.ID)
		}
		ids[u.ID] = struct{}{}

		if u.Source.Host == "" {
			return fmt.Errorf("unit %q: source.host required", u.ID)
		}
		if u.Source.Port < 0 || u.Source.Port > 65535 {
			return fmt.Errorf("unit %q: source.port %d out of range 1..65535", u.ID, u.Source.Port)
		}
		if p := u.Source.Protocol; p != "" && p != string(megatec.ProtocolQ1) {
			return fmt.Errorf("unit %q: %w", u.ID, &megatec.UnsupportedProtocolError{Protocol: megatec.Protocol(p)})
		}
		if u.Source.TimeoutMs < 0 {
			return fmt.Errorf("unit %q: source.timeout_ms must be >= 0", u.ID)
		}
		if u.Poll.IntervalSeconds < 0 {
			return fmt.Errorf("unit %q: poll.interval_seconds must be >= 0", u.ID)
		}

		b := u.Battery.withDefaults()
		if b.LowVoltage < 0 || b.FullVoltage < 0 {
			return fmt.Errorf("unit %q: battery voltages must be positive", u.ID)
		}
		if b.LowVoltage >= b.FullVoltage {
			return fmt.Errorf(
				"unit %q: battery.low_voltage (%g) must be below battery.full_voltage (%g)",
				u.ID, b.LowVoltage, b.FullVoltage,
			)
		}

		// same physical UPS configured twice
		port := u.Source.Port
		if port == 0 {
			port = DefaultPort
		}
		key := fmt.Sprintf("%s_%d", u.Source.Host, port)
		if prev, exists := keys[key]; exists {
			return fmt.Errorf("unit %q: source %s already polled by unit %q", u.ID, key, prev)
		}
		keys[key] = u.ID

		for _, t := range u.Targets {
			if t.Endpoint == "" {
				return fmt.Errorf("unit %q: target %d has no endpoint", u.ID, t.ID)
			}
		}
	}

	// ------------------------------------------------------------
	// DEVICE STATUS BLOCK VALIDATION (PER-TARGET, OPT-IN)
	// ------------------------------------------------------------

	// key = endpoint | status_unit_id | status_slot
	statusOwner := make(map[string]string)

	for _, u := range r.Units {
		// device_name sanity (ASCII only)
		if u.Source.DeviceName != "" {
			for i := 0; i < len(u.Source.DeviceName); i++ {
				if u.Source.DeviceName[i] > 0x7F {
					return fmt.Errorf(
						"unit %q: device_name must contain ASCII characters only",
						u.ID,
					)
				}
			}
		}

		// status is opt-in
		if u.Source.StatusSlot == nil {
			continue
		}

		// status requires at least one target
		if len(u.Targets) == 0 {
			return fmt.Errorf(
				"unit %q: status_slot is set but no targets are defined",
				u.ID,
			)
		}

		slot := *u.Source.StatusSlot

		// block must fit the 16-bit register space
		if (uint32(slot)+1)*status.SlotsPerDevice > 0x10000 {
			return fmt.Errorf(
				"unit %q: status_slot %d places the status block past register 65535",
				u.ID,
				slot,
			)
		}

		for _, t := range u.Targets {
			// each target must declare status_unit_id
			if t.StatusUnitID == nil {
				return fmt.Errorf(
					"unit %q: status_slot is set but target %q has no status_unit_id",
					u.ID,
					t.Endpoint,
				)
			}

			key := fmt.Sprintf(
				"%s|%d|%d",
				t.Endpoint,
				*t.StatusUnitID,
				slot,
			)

			if prev, exists := statusOwner[key]; exists {
				return fmt.Errorf(
					"status_slot collision: endpoint=%s status_unit_id=%d slot=%d used by units %q and %q",
					t.Endpoint,
					*t.StatusUnitID,
					slot,
					prev,
					u.ID,
				)
			}

			statusOwner[key] = u.ID
		}
	}

	// ------------------------------------------------------------
	// DESTINATION REGISTER GEOMETRY VALIDATION
	// ------------------------------------------------------------

	type span struct {
		start uint32
		end   uint32
		unit  string
	}

	// key = endpoint | unit_id
	spans := make(map[string][]span)

	for _, u := range r.Units {
		for _, t := range u.Targets {
			start := uint32(t.Address)
			end := start + uint32(status.ReadingRegisterCount) - 1
			if end > 0xFFFF {
				return fmt.Errorf(
					"unit %q: target %s address %d leaves no room for %d registers",
					u.ID, t.Endpoint, t.Address, status.ReadingRegisterCount,
				)
			}

			key := fmt.Sprintf("%s|%d", t.Endpoint, t.UnitID)

			for _, s := range spans[key] {
				// overlap check (inclusive)
				if !(end < s.start || start > s.end) {
					return fmt.Errorf(
						"register overlap: endpoint=%s unit_id=%d range=%d-%d overlaps with unit=%s range=%d-%d",
						t.Endpoint,
						t.UnitID,
						start,
						end,
						s.unit,
						s.start,
						s.end,
					)
				}
			}

			spans[key] = append(spans[key], span{start: start, end: end, unit: u.ID})
		}
	}

	return nil
}
