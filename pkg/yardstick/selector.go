package yardstick

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/gousb"
)

// ErrNoDevice indicates no attached YardStick One matched
var ErrNoDevice = errors.New("no YardStick One found")

// Selector picks one device when several are attached:
//
//	""         first device
//	"009a"     serial number
//	"1:10"     USB bus:address
//	"#1"       index, 0-based
type Selector string

type selectBy int

const (
	byFirst selectBy = iota
	bySerial
	byBusAddr
	byIndex
)

type match struct {
	by     selectBy
	serial string
	bus    int
	addr   int
	index  int
}

func (s Selector) parse() (match, error) {
	v := strings.TrimSpace(string(s))
	switch {
	case v == "":
		return match{by: byFirst}, nil
	case strings.HasPrefix(v, "#"):
		i, err := strconv.Atoi(v[1:])
		if err != nil || i < 0 {
			return match{}, fmt.Errorf("invalid device index %q", v)
		}
		return match{by: byIndex, index: i}, nil
	case strings.Contains(v, ":"):
		busStr, addrStr, _ := strings.Cut(v, ":")
		bus, err := strconv.Atoi(busStr)
		if err != nil {
			return match{}, fmt.Errorf("invalid bus number %q", busStr)
		}
		addr, err := strconv.Atoi(addrStr)
		if err != nil {
			return match{}, fmt.Errorf("invalid address %q", addrStr)
		}
		return match{by: byBusAddr, bus: bus, addr: addr}, nil
	}
	return match{by: bySerial, serial: v}, nil
}

// pick returns the index into devices chosen by m, or -1
func (m match) pick(devices []*Device) (int, error) {
	switch m.by {
	case byFirst:
		if len(devices) > 0 {
			return 0, nil
		}
	case byIndex:
		if m.index < len(devices) {
			return m.index, nil
		}
		return -1, fmt.Errorf("%w: index %d out of range (found %d)", ErrNoDevice, m.index, len(devices))
	case byBusAddr:
		for i, d := range devices {
			if d.Bus == m.bus && d.Address == m.addr {
				return i, nil
			}
		}
		return -1, fmt.Errorf("%w at bus %d address %d", ErrNoDevice, m.bus, m.addr)
	case bySerial:
		hit := -1
		for i, d := range devices {
			if d.Serial != m.serial {
				continue
			}
			if hit >= 0 {
				return -1, fmt.Errorf("several devices share serial %s; select by bus:addr or #index", m.serial)
			}
			hit = i
		}
		if hit >= 0 {
			return hit, nil
		}
		return -1, fmt.Errorf("%w with serial %s", ErrNoDevice, m.serial)
	}
	return -1, ErrNoDevice
}

// SelectDevice opens the device matching sel and closes every other one
func SelectDevice(usb *gousb.Context, sel Selector) (*Device, error) {
	m, err := sel.parse()
	if err != nil {
		return nil, err
	}
	devices, err := FindAllDevices(usb)
	if err != nil {
		return nil, err
	}

	idx, err := m.pick(devices)
	for i, d := range devices {
		if i != idx {
			d.Close()
		}
	}
	if err != nil {
		return nil, err
	}
	return devices[idx], nil
}

// SelectorUsage documents the --device flag
const SelectorUsage = `YardStick One to use: serial, bus:addr, or #index (default first found)`
