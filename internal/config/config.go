// internal/config/config.go
package config

import (
	"time"

	"github.com/tamzrod/ups-replicator/internal/megatec"
)

// Defaults applied by Normalize.
const (
	DefaultPort            = 502
	DefaultProtocol        = string(megatec.ProtocolQ1)
	DefaultTimeoutMs       = 3000
	DefaultIntervalSeconds = 3
	MinIntervalSeconds     = 1
	DefaultLowVoltage      = 24
	DefaultFullVoltage     = 27
	DefaultRetrySeconds    = 30
	DefaultProbeTimeoutMs  = 10000
	DefaultLogLevel        = "info"
	DefaultHTTPListen      = ":8080"
	DefaultTopicPrefix     = "ups"
	DefaultMQTTClientID    = "ups-replicator"
)

type Config struct {
	Replicator ReplicatorConfig `yaml:"replicator"`
}

type ReplicatorConfig struct {
	LogLevel  string       `yaml:"log_level"`
	LogFormat string       `yaml:"log_format"` // "json" (default) or "console"
	HTTP      HTTPConfig   `yaml:"http"`
	MQTT      MQTTConfig   `yaml:"mqtt"`
	Setup     SetupConfig  `yaml:"setup"`
	Units     []UnitConfig `yaml:"units"`
}

// ---- SURFACES ----

type HTTPConfig struct {
	Listen string `yaml:"listen"` // empty disables the HTTP surface
	MCP    bool   `yaml:"mcp"`
}

type MQTTConfig struct {
	Broker      string `yaml:"broker"` // empty disables MQTT
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
}

type SetupConfig struct {
	RetrySeconds   int `yaml:"retry_seconds"`
	ProbeTimeoutMs int `yaml:"probe_timeout_ms"`
}

// ---- UNIT ----

type UnitConfig struct {
	ID      string         `yaml:"id"`
	Name    string         `yaml:"name"`
	Source  SourceConfig   `yaml:"source"`
	Battery BatteryConfig  `yaml:"battery"`
	Poll    PollConfig     `yaml:"poll"`
	Targets []TargetConfig `yaml:"targets"`
}

// ---- SOURCE ----

type SourceConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Protocol  string `yaml:"protocol"`
	TimeoutMs int    `yaml:"timeout_ms"`

	// Device status block (optional, opt-in)
	StatusSlot *uint16 `yaml:"status_slot"`
	DeviceName string  `yaml:"device_name"`
}

// ---- CALIBRATION ----

type BatteryConfig struct {
	LowVoltage  float64 `yaml:"low_voltage"`
	FullVoltage float64 `yaml:"full_voltage"`
}

// ---- TARGET (Modbus register mirror) ----

type TargetConfig struct {
	ID           uint32  `yaml:"id"`
	Endpoint     string  `yaml:"endpoint"`
	UnitID       uint8   `yaml:"unit_id"`        // data memory
	Address      uint16  `yaml:"address"`        // first data register
	StatusUnitID *uint8  `yaml:"status_unit_id"` // per-target status memory (optional)
}

// ---- POLL ----

type PollConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
}

// ---- derived runtime values ----

// Target returns the immutable connection target of the unit.
func (u UnitConfig) Target() megatec.Target {
	return megatec.Target{
		Host:     u.Source.Host,
		Port:     u.Source.Port,
		Protocol: megatec.Protocol(u.Source.Protocol),
	}
}

// Bounds returns the battery calibration of the unit.
func (u UnitConfig) Bounds() megatec.Bounds {
	return megatec.Bounds{Low: u.Battery.LowVoltage, Full: u.Battery.FullVoltage}
}

func (u UnitConfig) Timeout() time.Duration {
	return time.Duration(u.Source.TimeoutMs) * time.Millisecond
}

func (u UnitConfig) Interval() time.Duration {
	return time.Duration(u.Poll.IntervalSeconds) * time.Second
}

// DisplayName falls back to the unit id.
func (u UnitConfig) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.ID
}

// UniqueKey identifies one physical UPS entry: host_port_id.
func (u UnitConfig) UniqueKey() string {
	return u.Target().Endpoint() + "_" + u.ID
}

func (s SetupConfig) RetryDelay() time.Duration {
	return time.Duration(s.RetrySeconds) * time.Second
}

func (s SetupConfig) ProbeTimeout() time.Duration {
	return time.Duration(s.ProbeTimeoutMs) * time.Millisecond
}
