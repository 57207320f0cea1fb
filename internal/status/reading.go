// internal/status/reading.go
package status

import (
	"math"

	"github.com/tamzrod/ups-replicator/internal/megatec"
)

// Reading register layout, relative to a target's base address.
// Values are fixed-point signed 16-bit.
const (
	RegInputVoltage   = iota // x10
	RegFaultVoltage          // x10
	RegOutputVoltage         // x10
	RegLoad                  // x10
	RegFrequency             // x10
	RegBatteryVoltage        // x100
	RegTemperature           // x10
	RegBatteryLevel          // x100
	RegValid                 // 1 = reading current, 0 = unavailable

	ReadingRegisterCount
)

// EncodeReading maps a reading onto ReadingRegisterCount registers.
// A nil reading yields an all-zero block with RegValid = 0.
func EncodeReading(r *megatec.Reading) []uint16 {
	regs := make([]uint16, ReadingRegisterCount)
	if r == nil {
		return regs
	}

	regs[RegInputVoltage] = scaleSigned(r.InputVoltage, 10)
	regs[RegFaultVoltage] = scaleSigned(r.FaultVoltage, 10)
	regs[RegOutputVoltage] = scaleSigned(r.OutputVoltage, 10)
	regs[RegLoad] = scaleSigned(r.Load, 10)
	regs[RegFrequency] = scaleSigned(r.Frequency, 10)
	regs[RegBatteryVoltage] = scaleSigned(r.BatteryVoltage, 100)
	regs[RegTemperature] = scaleSigned(r.Temperature, 10)
	regs[RegBatteryLevel] = scaleSigned(r.BatteryLevel, 100)
	regs[RegValid] = 1

	return regs
}

// scaleSigned stores round(v*factor) as int16 two's complement, saturating.
func scaleSigned(v, factor float64) uint16 {
	x := math.Round(v * factor)
	if x > math.MaxInt16 {
		x = math.MaxInt16
	}
	if x < math.MinInt16 {
		x = math.MinInt16
	}
	return uint16(int16(x))
}
