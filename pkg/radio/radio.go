// Package radio defines the capability surface a sub-GHz OOK transceiver
// driver must provide, plus the exclusive handle every capture and transmit
// operation goes through.
package radio

// Mode is the coarse radio state tracked by drivers
type Mode uint8

const (
	ModeIdle Mode = iota
	ModeRX
	ModeTX
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "IDLE"
	case ModeRX:
		return "RX"
	case ModeTX:
		return "TX"
	default:
		return "UNKNOWN"
	}
}

// Transceiver is the minimal OOK radio used by capture and transmit.
// Frequencies are in MHz, RSSI in dBm.
type Transceiver interface {
	SetFrequency(mhz float64) error
	SetPower(level PowerLevel) error
	EnterRX() error
	EnterTX() error
	Idle() error
	// ReadPin returns the demodulated data line, 0 or 1
	ReadPin() (uint8, error)
	ReadRSSI() (float64, error)
	Close() error
}

// DataWriter is implemented by drivers that can key the carrier per sample.
// Drivers without it transmit a constant carrier while in TX.
type DataWriter interface {
	WritePin(state uint8) error
}
