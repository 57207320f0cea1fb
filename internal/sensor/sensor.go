// Package sensor exposes the latest UPS reading as individual metrics.
// A Handle never owns data: it reads the coordinator's cached outcome on
// every access and reports unavailable when there is no current reading.
package sensor

import (
	"fmt"
	"math"

	"github.com/tamzrod/ups-replicator/internal/megatec"
	"github.com/tamzrod/ups-replicator/internal/poller"
)

// Unit of measurement advertised per metric.
type Unit string

const (
	UnitNone    Unit = ""
	UnitVolt    Unit = "V"
	UnitPercent Unit = "%"
	UnitHertz   Unit = "Hz"
	UnitCelsius Unit = "°C"
)

// Key names one metric.
type Key string

const (
	KeyRaw            Key = "raw"
	KeyInputVoltage   Key = "input_voltage"
	KeyFaultVoltage   Key = "fault_voltage"
	KeyOutputVoltage  Key = "output_voltage"
	KeyLoad           Key = "load"
	KeyFrequency      Key = "frequency"
	KeyBatteryVoltage Key = "battery_voltage"
	KeyTemperature    Key = "temperature"
	KeyBatteryLevel   Key = "battery_level"
)

// Descriptor is the static metadata of one metric.
type Descriptor struct {
	Key              Key    `json:"key"`
	Name             string `json:"name"`
	Unit             Unit   `json:"unit"`
	Icon             string `json:"icon"`
	EnabledByDefault bool   `json:"enabled_by_default"`
}

// Definitions lists every metric in display order.
var Definitions = []Descriptor{
	{Key: KeyRaw, Name: "Raw", Unit: UnitNone, Icon: "mdi:text-box-outline", EnabledByDefault: false},
	{Key: KeyInputVoltage, Name: "Input Voltage", Unit: UnitVolt, Icon: "mdi:flash", EnabledByDefault: true},
	{Key: KeyFaultVoltage, Name: "Fault Voltage", Unit: UnitVolt, Icon: "mdi:flash-off", EnabledByDefault: true},
	{Key: KeyOutputVoltage, Name: "Output Voltage", Unit: UnitVolt, Icon: "mdi:flash", EnabledByDefault: true},
	{Key: KeyLoad, Name: "Load", Unit: UnitPercent, Icon: "mdi:gauge", EnabledByDefault: true},
	{Key: KeyFrequency, Name: "Frequency", Unit: UnitHertz, Icon: "mdi:current-ac", EnabledByDefault: true},
	{Key: KeyBatteryVoltage, Name: "Battery Voltage", Unit: UnitVolt, Icon: "mdi:battery", EnabledByDefault: true},
	{Key: KeyTemperature, Name: "Temperature", Unit: UnitCelsius, Icon: "mdi:thermometer", EnabledByDefault: true},
	{Key: KeyBatteryLevel, Name: "Battery Level", Unit: UnitPercent, Icon: "mdi:battery", EnabledByDefault: true},
}

// Lookup returns the descriptor for key.
func Lookup(key Key) (Descriptor, bool) {
	for _, d := range Definitions {
		if d.Key == key {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Source is the read side of a coordinator.
type Source interface {
	Current() poller.Outcome
}

// Fixed is a Source pinned to one outcome, so several handles can be
// read against the same poll.
type Fixed poller.Outcome

func (f Fixed) Current() poller.Outcome { return poller.Outcome(f) }

// Handle is a read-only view of one metric of one unit.
type Handle struct {
	Descriptor

	unitID   string
	unitName string
	src      Source
}

// NewHandles builds one handle per metric for a unit.
func NewHandles(unitID, unitName string, src Source) []Handle {
	out := make([]Handle, 0, len(Definitions))
	for _, d := range Definitions {
		out = append(out, Handle{Descriptor: d, unitID: unitID, unitName: unitName, src: src})
	}
	return out
}

// UniqueID is <unit id>_<key>.
func (h Handle) UniqueID() string {
	return fmt.Sprintf("%s_%s", h.unitID, h.Key)
}

// DisplayName is "<unit name> <metric name>".
func (h Handle) DisplayName() string {
	return fmt.Sprintf("%s %s", h.unitName, h.Name)
}

// Value returns the current value and whether it is available.
// float64 for numeric metrics, string for raw.
func (h Handle) Value() (any, bool) {
	o := h.src.Current()
	if !o.OK() {
		return nil, false
	}
	return Extract(h.Key, o.Reading)
}

// CurrentIcon is the icon for the current value. Battery level picks
// a bucketed battery glyph.
func (h Handle) CurrentIcon() string {
	if h.Key != KeyBatteryLevel {
		return h.Icon
	}
	v, ok := h.Value()
	if !ok {
		return h.Icon
	}
	return BatteryIcon(v.(float64))
}

// Extract reads one metric out of a reading.
func Extract(key Key, r *megatec.Reading) (any, bool) {
	if r == nil {
		return nil, false
	}
	switch key {
	case KeyRaw:
		return r.Raw, true
	case KeyInputVoltage:
		return r.InputVoltage, true
	case KeyFaultVoltage:
		return r.FaultVoltage, true
	case KeyOutputVoltage:
		return r.OutputVoltage, true
	case KeyLoad:
		return r.Load, true
	case KeyFrequency:
		return r.Frequency, true
	case KeyBatteryVoltage:
		return r.BatteryVoltage, true
	case KeyTemperature:
		return r.Temperature, true
	case KeyBatteryLevel:
		return r.BatteryLevel, true
	}
	return nil, false
}

// BatteryIcon buckets a 0..100 level into tens.
func BatteryIcon(level float64) string {
	switch {
	case level >= 100:
		return "mdi:battery"
	case level < 10:
		return "mdi:battery-alert-variant-outline"
	default:
		return fmt.Sprintf("mdi:battery-%d", int(math.Floor(level/10))*10)
	}
}
