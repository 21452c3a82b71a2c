package radio

import (
	"fmt"
	"strings"
)

// PowerLevel selects one of the fixed PA_TABLE output settings
type PowerLevel uint8

const (
	PowerMin PowerLevel = iota
	PowerLow
	PowerMedium
	PowerHigh
	PowerMax
)

// PA_TABLE0 values for 433 MHz OOK on CC1101-family chips
var paTable = map[PowerLevel]uint8{
	PowerMin:    0x03, // about -30 dBm
	PowerLow:    0x0E, // about -20 dBm
	PowerMedium: 0x1D, // about -10 dBm
	PowerHigh:   0x60, // about 0 dBm
	PowerMax:    0xC0, // about +10 dBm
}

var powerNames = map[PowerLevel]string{
	PowerMin:    "min",
	PowerLow:    "low",
	PowerMedium: "medium",
	PowerHigh:   "high",
	PowerMax:    "max",
}

func (p PowerLevel) String() string {
	if name, ok := powerNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PowerLevel(%d)", uint8(p))
}

// PATable returns the PA_TABLE0 byte for the level; unknown levels map to max
func (p PowerLevel) PATable() uint8 {
	if v, ok := paTable[p]; ok {
		return v
	}
	return paTable[PowerMax]
}

// ParsePowerLevel maps a case-insensitive name to a PowerLevel.
// Unrecognized names yield PowerMax and ok=false.
func ParsePowerLevel(name string) (PowerLevel, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	for level, s := range powerNames {
		if s == n {
			return level, true
		}
	}
	return PowerMax, false
}
