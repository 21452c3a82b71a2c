package yardstick

import (
	"fmt"
	"math"

	"github.com/google/gousb"

	"github.com/herlein/piflip/pkg/logger"
	"github.com/herlein/piflip/pkg/radio"
)

// Radio adapts a Device to radio.Transceiver. The CC1111 is put in
// asynchronous OOK mode so GDO0 carries the demodulated data line.
type Radio struct {
	dev *Device
	usb *gousb.Context
	log *logger.Logger
	amp bool
}

// Compile-time checks
var (
	_ radio.Transceiver = (*Radio)(nil)
	_ radio.DataWriter  = (*Radio)(nil)
)

// Open finds the selected YardStick One and configures it for OOK
func Open(sel Selector, log *logger.Logger) (*Radio, error) {
	usb := gousb.NewContext()
	dev, err := SelectDevice(usb, sel)
	if err != nil {
		usb.Close()
		return nil, err
	}
	r := NewRadio(dev, log)
	r.usb = usb
	if err := r.Configure(); err != nil {
		r.Close()
		return nil, err
	}
	logger.OrNop(log).Infof("opened %s", dev)
	return r, nil
}

// NewRadio wraps an already opened device
func NewRadio(dev *Device, log *logger.Logger) *Radio {
	return &Radio{dev: dev, log: logger.OrNop(log)}
}

// Configure selects OOK modulation, async serial packet mode and GDO0 data output
func (r *Radio) Configure() error {
	if err := r.dev.SetRFMode(StrobeSIDLE); err != nil {
		return err
	}
	steps := []struct {
		name string
		addr uint16
		val  uint8
	}{
		{"MDMCFG2", RegMDMCFG2, modASKOOK},
		{"PKTCTRL0", RegPKTCTRL0, pktAsyncSerial},
		{"IOCFG0", RegIOCFG0, gdoSerialData},
		{"FREND0", RegFREND0, frendPATable0},
	}
	for _, s := range steps {
		if err := r.dev.PokeByte(s.addr, s.val); err != nil {
			return fmt.Errorf("failed to set %s: %w", s.name, err)
		}
	}
	return nil
}

// FrequencyWord is the 24-bit FREQ2:FREQ1:FREQ0 value for mhz
func FrequencyWord(mhz float64) uint32 {
	return uint32(math.Round(mhz*1e6*65536/CrystalHz)) & 0xFFFFFF
}

// WordToMHz inverts FrequencyWord
func WordToMHz(word uint32) float64 {
	return float64(word) * CrystalHz / 65536 / 1e6
}

// RSSIToDBm converts the signed RSSI register, in half-dB steps, to dBm
func RSSIToDBm(raw uint8) float64 {
	return float64(int8(raw))*rssiStepDB - rssiOffsetDB
}

func (r *Radio) SetFrequency(mhz float64) error {
	w := FrequencyWord(mhz)
	if err := r.dev.Poke(RegFREQ2, []byte{uint8(w >> 16), uint8(w >> 8), uint8(w)}); err != nil {
		return fmt.Errorf("failed to set frequency %.3f MHz: %w", mhz, err)
	}
	r.log.Debugf("tuned to %.3f MHz (FREQ=0x%06X)", mhz, w)
	return nil
}

// SetPower writes PA_TABLE0 and enables the front-end amplifiers for the
// top two levels
func (r *Radio) SetPower(level radio.PowerLevel) error {
	if err := r.dev.PokeByte(RegPATABLE0, level.PATable()); err != nil {
		return fmt.Errorf("failed to set PA table: %w", err)
	}
	amp := level >= radio.PowerHigh
	if amp == r.amp {
		return nil
	}
	mode := uint8(AmpModeOff)
	if amp {
		mode = AmpModeOn
	}
	if err := r.dev.SetAmpMode(mode); err != nil {
		return err
	}
	r.amp = amp
	return nil
}

func (r *Radio) EnterRX() error { return r.dev.SetRFMode(StrobeSRX) }
func (r *Radio) EnterTX() error { return r.dev.SetRFMode(StrobeSTX) }
func (r *Radio) Idle() error    { return r.dev.SetRFMode(StrobeSIDLE) }

// ReadPin samples GDO0 from PKTSTATUS bit 0
func (r *Radio) ReadPin() (uint8, error) {
	v, err := r.dev.PeekByte(RegPKTSTATUS)
	if err != nil {
		return 0, err
	}
	return v & 0x01, nil
}

func (r *Radio) ReadRSSI() (float64, error) {
	v, err := r.dev.PeekByte(RegRSSI)
	if err != nil {
		return 0, fmt.Errorf("failed to read RSSI: %w", err)
	}
	return RSSIToDBm(v), nil
}

// WritePin keys the carrier with STX/SIDLE strobes
func (r *Radio) WritePin(state uint8) error {
	strobe := uint8(StrobeSIDLE)
	if state != 0 {
		strobe = StrobeSTX
	}
	return r.dev.PokeByte(RegRFST, strobe)
}

// MarcStateName names the states Status reports most often
func MarcStateName(state uint8) string {
	switch state {
	case MarcStateIdle:
		return "IDLE"
	case MarcStateRX:
		return "RX"
	case MarcStateTX:
		return "TX"
	}
	return fmt.Sprintf("0x%02X", state)
}

// Status is a snapshot of the radio registers
type Status struct {
	FrequencyMHz float64
	MarcState    uint8
	RSSI         float64
	PktStatus    uint8
	Firmware     string
}

// Status reads the tuned frequency, state machine and RSSI
func (r *Radio) Status() (*Status, error) {
	freq, err := r.dev.Peek(RegFREQ2, 3)
	if err != nil {
		return nil, err
	}
	regs, err := r.dev.Peek(RegRSSI, 3)
	if err != nil {
		return nil, err
	}
	fw, _ := r.dev.BuildType()
	word := uint32(freq[0])<<16 | uint32(freq[1])<<8 | uint32(freq[2])
	return &Status{
		FrequencyMHz: WordToMHz(word),
		RSSI:         RSSIToDBm(regs[0]),
		MarcState:    regs[1] & 0x1F,
		PktStatus:    regs[2],
		Firmware:     fw,
	}, nil
}

// Close idles the radio and releases the device
func (r *Radio) Close() error {
	err := r.dev.Close()
	if r.usb != nil {
		if cerr := r.usb.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
