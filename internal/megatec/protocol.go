// internal/megatec/protocol.go
package megatec

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Protocol identifies the wire dialect spoken by the UPS.
type Protocol string

// ProtocolQ1 is the only dialect implemented.
const ProtocolQ1 Protocol = "Megatec/Q1"

// Wire constants.
const (
	CommandQ1   = "Q1\r"
	MaxReplyLen = 1024
	FieldCount  = 7
)

// Bounds maps battery voltage onto a 0..100 level.
type Bounds struct {
	Low  float64 `json:"low_voltage"`
	Full float64 `json:"full_voltage"`
}

// Reading is one fully parsed Q1 reply. It is never partially populated.
type Reading struct {
	Raw            string  `json:"raw"`
	InputVoltage   float64 `json:"input_voltage"`
	FaultVoltage   float64 `json:"fault_voltage"`
	OutputVoltage  float64 `json:"output_voltage"`
	Load           float64 `json:"load"`
	Frequency      float64 `json:"frequency"`
	BatteryVoltage float64 `json:"battery_voltage"`
	Temperature    float64 `json:"temperature"`
	BatteryLevel   float64 `json:"battery_level"`
}

// Parse validates a raw Q1 reply and converts it into a Reading.
//
// Layout: "(" then space separated decimals in fixed order
// input, fault, output, load, frequency, battery voltage, temperature.
// Anything after the seventh field is ignored.
func Parse(raw string, b Bounds) (Reading, error) {
	text := strings.TrimRightFunc(raw, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	})

	if len(text) < 2 || text[0] != '(' {
		return Reading{}, invalidResponse(text)
	}

	// drop "(" and the trailing terminator byte
	fields := strings.Split(text[1:len(text)-1], " ")
	if len(fields) < FieldCount {
		return Reading{}, invalidResponse(text)
	}

	var vals [FieldCount]float64
	for i := 0; i < FieldCount; i++ {
		tok := fields[i]
		// the closing paren may sit inside the last field when trailer bytes follow it
		if j := strings.IndexByte(tok, ')'); j >= 0 {
			tok = tok[:j]
		}

		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return Reading{}, &ProtocolError{
				Msg: fmt.Sprintf("invalid response: field %d %q: %s", i, fields[i], text),
				Raw: text,
				Err: err,
			}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Reading{}, &ProtocolError{
				Msg: fmt.Sprintf("invalid response: field %d %q is not finite: %s", i, fields[i], text),
				Raw: text,
			}
		}
		vals[i] = v
	}

	level, err := BatteryLevel(vals[5], b)
	if err != nil {
		return Reading{}, err
	}

	return Reading{
		Raw:            text,
		InputVoltage:   vals[0],
		FaultVoltage:   vals[1],
		OutputVoltage:  vals[2],
		Load:           vals[3],
		Frequency:      vals[4],
		BatteryVoltage: vals[5],
		Temperature:    vals[6],
		BatteryLevel:   level,
	}, nil
}

// BatteryLevel returns the clamped 0..100 level for voltage v, rounded to
// two decimals. Equal bounds are rejected.
func BatteryLevel(v float64, b Bounds) (float64, error) {
	span := b.Full - b.Low
	if span == 0 {
		return 0, &ProtocolError{
			Msg: fmt.Sprintf("degenerate battery calibration: low=%g full=%g", b.Low, b.Full),
		}
	}

	frac := (v - b.Low) / span
	frac = math.Max(0, math.Min(1, frac))

	return math.Round(frac*10000) / 100, nil
}
