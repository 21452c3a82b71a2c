// Package yardstick drives a YardStick One (CC1111) over USB as an OOK
// transceiver.
package yardstick

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/gousb"
)

type inEndpoint interface {
	ReadContext(ctx context.Context, buf []byte) (int, error)
}

type outEndpoint interface {
	WriteContext(ctx context.Context, buf []byte) (int, error)
}

// Device is one opened YardStick One
type Device struct {
	in      inEndpoint
	out     outEndpoint
	release func() error

	Serial       string
	Manufacturer string
	Product      string
	Bus          int
	Address      int

	mu  sync.Mutex
	buf []byte
}

// FindAllDevices opens every attached YardStick One
func FindAllDevices(usb *gousb.Context) ([]*Device, error) {
	found, err := usb.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == gousb.ID(VendorID) && desc.Product == gousb.ID(ProductID)
	})
	if err != nil && len(found) == 0 {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	var devices []*Device
	for _, d := range found {
		dev, err := claim(d)
		if err != nil {
			d.Close()
			continue
		}
		devices = append(devices, dev)
	}
	return devices, nil
}

// claim takes configuration 1 interface 0 and both EP5 endpoints
func claim(d *gousb.Device) (*Device, error) {
	manufacturer, _ := d.Manufacturer()
	product, _ := d.Product()
	serial, _ := d.SerialNumber()

	d.SetAutoDetach(true)
	cfg, err := d.Config(1)
	if err != nil {
		return nil, fmt.Errorf("failed to get configuration: %w", err)
	}
	iface, err := cfg.Interface(0, 0)
	if err != nil {
		cfg.Close()
		return nil, fmt.Errorf("failed to claim interface: %w", err)
	}
	in, err := iface.InEndpoint(EP5Endpoint)
	if err != nil {
		iface.Close()
		cfg.Close()
		return nil, fmt.Errorf("failed to get IN endpoint: %w", err)
	}
	out, err := iface.OutEndpoint(EP5Endpoint)
	if err != nil {
		iface.Close()
		cfg.Close()
		return nil, fmt.Errorf("failed to get OUT endpoint: %w", err)
	}

	dev := &Device{
		in:  in,
		out: out,
		release: func() error {
			iface.Close()
			cfg.Close()
			return d.Close()
		},
		Serial:       serial,
		Manufacturer: manufacturer,
		Product:      product,
		Bus:          d.Desc.Bus,
		Address:      d.Desc.Address,
		buf:          make([]byte, 0, EP5OutBufferSize),
	}
	dev.drain()
	return dev, nil
}

// drain discards anything a previous session left in the IN endpoint
func (d *Device) drain() {
	scratch := make([]byte, 512)
	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		n, err := d.in.ReadContext(ctx, scratch)
		cancel()
		if err != nil || n == 0 {
			break
		}
	}
	d.buf = d.buf[:0]
}

func (d *Device) String() string {
	return fmt.Sprintf("%s %s (serial %s, bus %d addr %d)", d.Manufacturer, d.Product, d.Serial, d.Bus, d.Address)
}

// Close strobes the radio idle and releases the USB handles
func (d *Device) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	d.out.WriteContext(ctx, encodeCommand(AppSystem, SysCmdPoke, pokePayload(RegRFST, []byte{StrobeSIDLE})))
	cancel()
	if d.release == nil {
		return nil
	}
	return d.release()
}

// Send writes one command and waits for its reply
func (d *Device) Send(app, cmd uint8, payload []byte, timeout time.Duration) ([]byte, error) {
	if timeout == 0 {
		timeout = USBDefaultTimeout
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	pkt := encodeCommand(app, cmd, payload)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	n, err := d.out.WriteContext(ctx, pkt)
	cancel()
	if err != nil {
		if ctx.Err() != nil || transient(err) {
			return nil, fmt.Errorf("write timeout: %w", err)
		}
		return nil, fmt.Errorf("failed to write to EP5: %w", err)
	}
	if n != len(pkt) {
		return nil, fmt.Errorf("short write: wrote %d of %d bytes", n, len(pkt))
	}
	return d.recv(app, cmd, timeout)
}

// recv reads until a frame for app/cmd is buffered; caller holds mu
func (d *Device) recv(app, cmd uint8, timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	scratch := make([]byte, 512)

	for {
		payload, rest, err := decodeFrame(d.buf, app, cmd)
		if err == nil {
			d.buf = rest
			return payload, nil
		}
		if errors.Is(err, errFrameMismatch) {
			d.buf = rest
			continue
		}

		left := time.Until(deadline)
		if left <= 0 {
			return nil, fmt.Errorf("timeout waiting for response to 0x%02X/0x%02X", app, cmd)
		}
		if left > readSlice {
			left = readSlice
		}

		ctx, cancel := context.WithTimeout(context.Background(), left)
		n, err := d.in.ReadContext(ctx, scratch)
		cancel()
		if err != nil {
			if ctx.Err() != nil || transient(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read from EP5: %w", err)
		}
		d.buf = append(d.buf, scratch[:n]...)
	}
}

// transient reports libusb errors that only mean "nothing yet"
func transient(err error) bool {
	s := strings.ToLower(err.Error())
	for _, frag := range []string{"timeout", "timed out", "cancel"} {
		if strings.Contains(s, frag) {
			return true
		}
	}
	return false
}

// Ping echoes data through the firmware
func (d *Device) Ping(data []byte) error {
	resp, err := d.Send(AppSystem, SysCmdPing, data, USBDefaultTimeout)
	if err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	if string(resp) != string(data) {
		return fmt.Errorf("ping echoed %X, sent %X", resp, data)
	}
	return nil
}

// Peek reads count bytes of XDATA at addr
func (d *Device) Peek(addr, count uint16) ([]byte, error) {
	resp, err := d.Send(AppSystem, SysCmdPeek, peekPayload(addr, count), USBDefaultTimeout)
	if err != nil {
		return nil, fmt.Errorf("peek failed at 0x%04X: %w", addr, err)
	}
	if len(resp) < int(count) {
		return nil, fmt.Errorf("peek at 0x%04X returned %d of %d bytes", addr, len(resp), count)
	}
	return resp, nil
}

func (d *Device) PeekByte(addr uint16) (uint8, error) {
	b, err := d.Peek(addr, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Poke writes data to XDATA at addr
func (d *Device) Poke(addr uint16, data []byte) error {
	resp, err := d.Send(AppSystem, SysCmdPoke, pokePayload(addr, data), USBDefaultTimeout)
	if err != nil {
		return fmt.Errorf("poke failed at 0x%04X: %w", addr, err)
	}
	if len(resp) >= 2 {
		if left := binary.LittleEndian.Uint16(resp[0:2]); left != 0 {
			return fmt.Errorf("poke at 0x%04X incomplete: %d bytes left", addr, left)
		}
	}
	return nil
}

func (d *Device) PokeByte(addr uint16, v uint8) error {
	return d.Poke(addr, []byte{v})
}

// SetRFMode asks the firmware to switch radio state with one of the strobes
func (d *Device) SetRFMode(strobe uint8) error {
	if _, err := d.Send(AppSystem, SysCmdRFMode, []byte{strobe}, USBDefaultTimeout); err != nil {
		return fmt.Errorf("failed to set RF mode 0x%02X: %w", strobe, err)
	}
	return nil
}

// SetAmpMode switches the front-end amplifiers on or off
func (d *Device) SetAmpMode(mode uint8) error {
	if _, err := d.Send(AppNIC, NICSetAmpMode, []byte{mode}, USBDefaultTimeout); err != nil {
		return fmt.Errorf("failed to set amplifier mode: %w", err)
	}
	return nil
}

// BuildType returns the firmware build string
func (d *Device) BuildType() (string, error) {
	resp, err := d.Send(AppSystem, SysCmdBuildType, nil, USBDefaultTimeout)
	if err != nil {
		return "", fmt.Errorf("failed to get build type: %w", err)
	}
	if i := strings.IndexByte(string(resp), 0); i >= 0 {
		resp = resp[:i]
	}
	return string(resp), nil
}

// ResetAll issues a USB port reset to every attached YardStick One, which
// recovers devices left stuck by an interrupted session
func ResetAll(usb *gousb.Context) (int, error) {
	found, err := usb.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == gousb.ID(VendorID) && desc.Product == gousb.ID(ProductID)
	})
	defer func() {
		for _, d := range found {
			d.Close()
		}
	}()
	if err != nil && len(found) == 0 {
		return 0, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	n := 0
	for _, d := range found {
		if err := d.Reset(); err != nil {
			return n, fmt.Errorf("failed to reset bus %d addr %d: %w", d.Desc.Bus, d.Desc.Address, err)
		}
		n++
	}
	return n, nil
}
