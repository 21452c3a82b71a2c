package yardstick

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/herlein/piflip/pkg/radio"
)

// fakeFirmware answers EP5 commands against a 64K XDATA image
type fakeFirmware struct {
	mu      sync.Mutex
	mem     [65536]byte
	pending []byte
	rfModes []uint8
	amp     []uint8
	junk    []byte
}

func (f *fakeFirmware) WriteContext(_ context.Context, pkt []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	app, cmd := pkt[0], pkt[1]
	n := binary.LittleEndian.Uint16(pkt[2:4])
	payload := pkt[headerLen : headerLen+int(n)]

	var reply []byte
	switch {
	case app == AppSystem && cmd == SysCmdPeek:
		count := binary.LittleEndian.Uint16(payload[0:2])
		addr := binary.LittleEndian.Uint16(payload[2:4])
		reply = append(reply, f.mem[addr:int(addr)+int(count)]...)
	case app == AppSystem && cmd == SysCmdPoke:
		addr := binary.LittleEndian.Uint16(payload[0:2])
		copy(f.mem[addr:], payload[2:])
		if addr == RegRFST {
			f.rfModes = append(f.rfModes, payload[2])
		}
		reply = []byte{0, 0}
	case app == AppSystem && cmd == SysCmdRFMode:
		f.rfModes = append(f.rfModes, payload[0])
	case app == AppSystem && cmd == SysCmdPing:
		reply = payload
	case app == AppSystem && cmd == SysCmdBuildType:
		reply = []byte("YARDSTICKONE r0543\x00")
	case app == AppNIC && cmd == NICSetAmpMode:
		f.amp = append(f.amp, payload[0])
	}

	f.pending = append(f.pending, f.junk...)
	f.junk = nil
	head := []byte{ResponseMarker, app, cmd, 0, 0}
	binary.LittleEndian.PutUint16(head[3:5], uint16(len(reply)))
	f.pending = append(f.pending, head...)
	f.pending = append(f.pending, reply...)
	return len(pkt), nil
}

func (f *fakeFirmware) ReadContext(ctx context.Context, buf []byte) (int, error) {
	f.mu.Lock()
	if len(f.pending) > 0 {
		n := copy(buf, f.pending)
		f.pending = f.pending[n:]
		f.mu.Unlock()
		return n, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return 0, ctx.Err()
}

func setupRadio() (*Radio, *fakeFirmware) {
	fw := &fakeFirmware{}
	dev := &Device{in: fw, out: fw, Serial: "009a"}
	return NewRadio(dev, nil), fw
}

func TestDecodeFrame(t *testing.T) {
	frame := []byte{0x00, 0x13, ResponseMarker, AppSystem, SysCmdPeek, 2, 0, 0xAB, 0xCD, 0x99}

	payload, rest, err := decodeFrame(frame, AppSystem, SysCmdPeek)
	if err != nil {
		t.Fatalf("decodeFrame: %v", err)
	}
	if !bytes.Equal(payload, []byte{0xAB, 0xCD}) || !bytes.Equal(rest, []byte{0x99}) {
		t.Errorf("payload %X rest %X", payload, rest)
	}

	if _, _, err := decodeFrame(frame[:6], AppSystem, SysCmdPeek); !errors.Is(err, errNoFrame) {
		t.Errorf("truncated frame = %v", err)
	}
	if _, rest, err := decodeFrame(frame, AppNIC, 0x01); !errors.Is(err, errFrameMismatch) || rest[0] != AppSystem {
		t.Errorf("mismatch = %v, rest %X", err, rest)
	}
}

func TestEncodeCommand(t *testing.T) {
	got := encodeCommand(AppSystem, SysCmdPoke, pokePayload(RegRFST, []byte{StrobeSIDLE}))
	want := []byte{0xFF, 0x81, 3, 0, 0xE1, 0xDF, 0x04}
	if !bytes.Equal(got, want) {
		t.Errorf("encodeCommand = % X, want % X", got, want)
	}
}

func TestFrequencyWord(t *testing.T) {
	tests := []struct {
		mhz  float64
		want uint32
	}{
		{433.92, 0x12147B},
		{315.0, 0x0D2000},
		{868.0, 0x242AAB},
	}
	for _, tt := range tests {
		if got := FrequencyWord(tt.mhz); got != tt.want {
			t.Errorf("FrequencyWord(%v) = 0x%06X, want 0x%06X", tt.mhz, got, tt.want)
		}
		if back := WordToMHz(tt.want); math.Abs(back-tt.mhz) > 0.001 {
			t.Errorf("WordToMHz(0x%06X) = %v", tt.want, back)
		}
	}
}

func TestRSSIToDBm(t *testing.T) {
	tests := []struct {
		raw  uint8
		want float64
	}{
		{0x00, -74},
		{0x14, -64},
		{0xEC, -84},
		{0x80, -138},
	}
	for _, tt := range tests {
		if got := RSSIToDBm(tt.raw); got != tt.want {
			t.Errorf("RSSIToDBm(0x%02X) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestRadioSetFrequency(t *testing.T) {
	r, fw := setupRadio()
	if err := r.SetFrequency(433.92); err != nil {
		t.Fatalf("SetFrequency: %v", err)
	}
	got := fw.mem[RegFREQ2 : RegFREQ0+1]
	if !bytes.Equal(got, []byte{0x12, 0x14, 0x7B}) {
		t.Errorf("FREQ registers = % X", got)
	}
}

func TestRadioConfigure(t *testing.T) {
	r, fw := setupRadio()
	if err := r.Configure(); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if fw.mem[RegMDMCFG2] != modASKOOK || fw.mem[RegPKTCTRL0] != pktAsyncSerial || fw.mem[RegIOCFG0] != gdoSerialData {
		t.Errorf("OOK config not applied: MDMCFG2=%02X PKTCTRL0=%02X IOCFG0=%02X",
			fw.mem[RegMDMCFG2], fw.mem[RegPKTCTRL0], fw.mem[RegIOCFG0])
	}
}

func TestRadioReadPinAndRSSI(t *testing.T) {
	r, fw := setupRadio()
	fw.mem[RegPKTSTATUS] = 0x41
	fw.mem[RegRSSI] = 0x14

	pin, err := r.ReadPin()
	if err != nil || pin != 1 {
		t.Errorf("ReadPin = %d, %v", pin, err)
	}
	fw.mem[RegPKTSTATUS] = 0x40
	if pin, _ := r.ReadPin(); pin != 0 {
		t.Errorf("ReadPin with GDO0 low = %d", pin)
	}
	if rssi, _ := r.ReadRSSI(); rssi != -64 {
		t.Errorf("ReadRSSI = %v", rssi)
	}
}

func TestRadioPowerAndAmp(t *testing.T) {
	r, fw := setupRadio()
	if err := r.SetPower(radio.PowerMax); err != nil {
		t.Fatalf("SetPower: %v", err)
	}
	if fw.mem[RegPATABLE0] != 0xC0 {
		t.Errorf("PA_TABLE0 = %02X", fw.mem[RegPATABLE0])
	}
	r.SetPower(radio.PowerHigh)
	r.SetPower(radio.PowerLow)
	if !bytes.Equal(fw.amp, []byte{AmpModeOn, AmpModeOff}) {
		t.Errorf("amp modes = %v", fw.amp)
	}
}

func TestRadioModesAndKeying(t *testing.T) {
	r, fw := setupRadio()
	r.EnterTX()
	r.WritePin(1)
	r.WritePin(0)
	r.Idle()
	want := []uint8{StrobeSTX, StrobeSTX, StrobeSIDLE, StrobeSIDLE}
	if !bytes.Equal(fw.rfModes, want) {
		t.Errorf("strobes = %v, want %v", fw.rfModes, want)
	}
}

func TestDeviceSkipsStaleFrames(t *testing.T) {
	r, fw := setupRadio()
	fw.junk = []byte{0x01, ResponseMarker, AppNIC, 0x01, 1, 0, 0xEE}
	fw.mem[0xF000] = 0x5A
	v, err := r.dev.PeekByte(0xF000)
	if err != nil || v != 0x5A {
		t.Errorf("PeekByte = %02X, %v", v, err)
	}
	if err := r.dev.Ping([]byte{0x55, 0xAA}); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestRadioStatus(t *testing.T) {
	r, fw := setupRadio()
	r.SetFrequency(315.0)
	fw.mem[RegRSSI] = 0x00
	fw.mem[RegMARCSTATE] = MarcStateRX
	st, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if math.Abs(st.FrequencyMHz-315.0) > 0.001 || st.MarcState != MarcStateRX || st.RSSI != -74 {
		t.Errorf("status = %+v", st)
	}
	if st.Firmware != "YARDSTICKONE r0543" {
		t.Errorf("firmware = %q", st.Firmware)
	}
}

func TestSelectorParse(t *testing.T) {
	tests := []struct {
		in      string
		want    match
		wantErr bool
	}{
		{"", match{by: byFirst}, false},
		{"#2", match{by: byIndex, index: 2}, false},
		{"1:10", match{by: byBusAddr, bus: 1, addr: 10}, false},
		{"009a", match{by: bySerial, serial: "009a"}, false},
		{"#x", match{}, true},
		{"a:10", match{}, true},
	}
	for _, tt := range tests {
		got, err := Selector(tt.in).parse()
		if (err != nil) != tt.wantErr {
			t.Errorf("parse(%q) err = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parse(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestSelectorPick(t *testing.T) {
	devices := []*Device{
		{Serial: "009a", Bus: 1, Address: 4},
		{Serial: "00b1", Bus: 1, Address: 10},
		{Serial: "009a", Bus: 2, Address: 3},
	}
	tests := []struct {
		sel     Selector
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"#1", 1, false},
		{"2:3", 2, false},
		{"00b1", 1, false},
		{"009a", -1, true},
		{"#5", -1, true},
		{"ffff", -1, true},
	}
	for _, tt := range tests {
		m, _ := tt.sel.parse()
		got, err := m.pick(devices)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("pick(%q) = %d, %v", tt.sel, got, err)
		}
	}
	m, _ := Selector("").parse()
	if _, err := m.pick(nil); !errors.Is(err, ErrNoDevice) {
		t.Errorf("pick with no devices = %v", err)
	}
}

func TestMarcStateName(t *testing.T) {
	if got := MarcStateName(MarcStateRX); got != "RX" {
		t.Errorf("MarcStateName(RX) = %q", got)
	}
	if got := MarcStateName(0x08); got != "0x08" {
		t.Errorf("MarcStateName(0x08) = %q", got)
	}
}
