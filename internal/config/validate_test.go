// internal/config/validate_test.go
package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/tamzrod/ups-replicator/internal/megatec"
)

// helper to build a unit quickly
func unit(id, host, endpoint string, unitID uint8, addr uint16) UnitConfig {
	return UnitConfig{
		ID:     id,
		Source: SourceConfig{Host: host},
		Targets: []TargetConfig{
			{
				ID:       1,
				Endpoint: endpoint,
				UnitID:   unitID,
				Address:  addr,
			},
		},
	}
}

func cfgOf(units ...UnitConfig) *Config {
	return &Config{Replicator: ReplicatorConfig{Units: units}}
}

func u8(v uint8) *uint8    { return &v }
func u16(v uint16) *uint16 { return &v }

// ---- tests ----

func TestValidate_NoOverlapDifferentEndpoints(t *testing.T) {
	cfg := cfgOf(
		unit("u1", "10.0.0.1", "ep1", 1, 0),
		unit("u2", "10.0.0.2", "ep2", 1, 0),
	)

	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_NoOverlapDifferentUnitID(t *testing.T) {
	cfg := cfgOf(
		unit("u1", "10.0.0.1", "ep1", 1, 0),
		unit("u2", "10.0.0.2", "ep1", 2, 0),
	)

	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_AdjacentBlocks(t *testing.T) {
	cfg := cfgOf(
		unit("u1", "10.0.0.1", "ep1", 1, 0),
		unit("u2", "10.0.0.2", "ep1", 1, 9),
	)

	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_OverlapSameEndpointSameUnitID(t *testing.T) {
	cfg := cfgOf(
		unit("u1", "10.0.0.1", "ep1", 1, 0),
		unit("u2", "10.0.0.2", "ep1", 1, 8),
	)

	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "register overlap") {
		t.Fatalf("expected overlap error, got %v", err)
	}
}

func TestValidate_AddressTooHigh(t *testing.T) {
	if err := Validate(cfgOf(unit("u1", "10.0.0.1", "ep1", 1, 0xFFFA))); err == nil {
		t.Fatalf("expected error for block past 0xFFFF")
	}
}

func Test_Validate_UnitCases(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"empty id", func(c *Config) { c.Replicator.Units[0].ID = "" }, "empty id"},
		{"missing host", func(c *Config) { c.Replicator.Units[0].Source.Host = "" }, "source.host required"},
		{"port range", func(c *Config) { c.Replicator.Units[0].Source.Port = 70000 }, "out of range"},
		{"negative timeout", func(c *Config) { c.Replicator.Units[0].Source.TimeoutMs = -1 }, "timeout_ms"},
		{"negative interval", func(c *Config) { c.Replicator.Units[0].Poll.IntervalSeconds = -1 }, "interval_seconds"},
		{"inverted bounds", func(c *Config) {
			c.Replicator.Units[0].Battery = BatteryConfig{LowVoltage: 27, FullVoltage: 24}
		}, "must be below"},
		{"equal bounds", func(c *Config) {
			c.Replicator.Units[0].Battery = BatteryConfig{LowVoltage: 26, FullVoltage: 26}
		}, "must be below"},
		{"low above default full", func(c *Config) {
			c.Replicator.Units[0].Battery = BatteryConfig{LowVoltage: 30}
		}, "must be below"},
		{"target without endpoint", func(c *Config) { c.Replicator.Units[0].Targets[0].Endpoint = "" }, "no endpoint"},
		{"bad log level", func(c *Config) { c.Replicator.LogLevel = "loud" }, "log_level"},
		{"bad log format", func(c *Config) { c.Replicator.LogFormat = "xml" }, "log_format"},
		{"non ascii device name", func(c *Config) { c.Replicator.Units[0].Source.DeviceName = "Büro" }, "ASCII"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := cfgOf(unit("u1", "10.0.0.1", "ep1", 1, 0))
			tc.mutate(cfg)

			err := Validate(cfg)
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestValidate_NoUnits(t *testing.T) {
	if err := Validate(&Config{}); err == nil {
		t.Fatalf("expected error for empty unit list")
	}
	if err := Validate(nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

func TestValidate_DuplicateID(t *testing.T) {
	err := Validate(cfgOf(
		unit("u1", "10.0.0.1", "ep1", 1, 0),
		unit("u1", "10.0.0.2", "ep1", 1, 20),
	))
	if err == nil || !strings.Contains(err.Error(), "duplicate id") {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
}

func TestValidate_SameSourceTwice(t *testing.T) {
	a := unit("u1", "10.0.0.1", "ep1", 1, 0)
	b := unit("u2", "10.0.0.1", "ep1", 1, 20)
	b.Source.Port = DefaultPort // explicit default collides with implicit

	err := Validate(cfgOf(a, b))
	if err == nil || !strings.Contains(err.Error(), "already polled") {
		t.Fatalf("expected duplicate source error, got %v", err)
	}
}

func TestValidate_UnsupportedProtocol(t *testing.T) {
	cfg := cfgOf(unit("u1", "10.0.0.1", "ep1", 1, 0))
	cfg.Replicator.Units[0].Source.Protocol = "Voltronic"

	err := Validate(cfg)
	var ue *megatec.UnsupportedProtocolError
	if !errors.As(err, &ue) || ue.Protocol != "Voltronic" {
		t.Fatalf("expected UnsupportedProtocolError, got %v", err)
	}

	cfg.Replicator.Units[0].Source.Protocol = string(megatec.ProtocolQ1)
	if err := Validate(cfg); err != nil {
		t.Fatalf("Q1 must be accepted: %v", err)
	}
}

// ---- device status block ----

func TestValidate_StatusSlotRequiresStatusUnitID(t *testing.T) {
	cfg := cfgOf(unit("u1", "10.0.0.1", "ep1", 1, 0))
	cfg.Replicator.Units[0].Source.StatusSlot = u16(0)

	if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "status_unit_id") {
		t.Fatalf("expected status_unit_id error, got %v", err)
	}
}

func TestValidate_StatusSlotCollision(t *testing.T) {
	a := unit("u1", "10.0.0.1", "ep1", 1, 0)
	a.Source.StatusSlot = u16(1)
	a.Targets[0].StatusUnitID = u8(100)

	b := unit("u2", "10.0.0.2", "ep1", 1, 20)
	b.Source.StatusSlot = u16(1)
	b.Targets[0].StatusUnitID = u8(100)

	if err := Validate(cfgOf(a, b)); err == nil || !strings.Contains(err.Error(), "collision") {
		t.Fatalf("expected collision, got %v", err)
	}

	b.Source.StatusSlot = u16(2)
	if err := Validate(cfgOf(a, b)); err != nil {
		t.Fatalf("distinct slots must pass: %v", err)
	}
}

func TestValidate_StatusSlotAddressSpace(t *testing.T) {
	cfg := cfgOf(unit("u1", "10.0.0.1", "ep1", 1, 0))
	cfg.Replicator.Units[0].Targets[0].StatusUnitID = u8(100)

	// base 3277*20 wraps uint16
	cfg.Replicator.Units[0].Source.StatusSlot = u16(3277)
	if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "past register 65535") {
		t.Fatalf("expected address space error, got %v", err)
	}

	// block 65520..65539 runs past the end
	cfg.Replicator.Units[0].Source.StatusSlot = u16(3276)
	if err := Validate(cfg); err == nil {
		t.Fatalf("slot 3276 ends at 65539 and must be rejected")
	}

	// block 65500..65519 fits
	cfg.Replicator.Units[0].Source.StatusSlot = u16(3275)
	if err := Validate(cfg); err != nil {
		t.Fatalf("slot 3275 fits: %v", err)
	}
}
