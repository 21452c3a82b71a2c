// Package serialbridge talks to a microcontroller that fronts a CC1101 over
// a serial line, one ASCII command per line.
//
//	FREQ 433.920000   tune, MHz
//	RX | TX | IDLE    radio state
//	PIN?              -> PIN 0|1
//	PIN 0|1           key the carrier
//	RSSI?             -> RSSI -61.5
//	PA C0             PA_TABLE0 byte, hex
//
// Every command answers OK, ERR <message>, or <KEY> <value>.
package serialbridge

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tarm/serial"

	"github.com/herlein/piflip/pkg/logger"
	"github.com/herlein/piflip/pkg/radio"
)

// Defaults for Open
const (
	DefaultBaud        = 115200
	DefaultReadTimeout = 500 * time.Millisecond
)

var (
	// ErrRejected wraps an ERR reply from the bridge
	ErrRejected = errors.New("bridge rejected command")

	// ErrBadReply indicates a reply that does not parse
	ErrBadReply = errors.New("malformed bridge reply")
)

// Bridge is a radio.Transceiver behind a serial line
type Bridge struct {
	mu   sync.Mutex
	port io.ReadWriteCloser
	r    *bufio.Reader
	log  *logger.Logger
}

var (
	_ radio.Transceiver = (*Bridge)(nil)
	_ radio.DataWriter  = (*Bridge)(nil)
)

// Open opens the serial device and verifies the bridge answers
func Open(name string, baud int, log *logger.Logger) (*Bridge, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	port, err := serial.OpenPort(&serial.Config{Name: name, Baud: baud, ReadTimeout: DefaultReadTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	b := New(port, log)
	if err := b.Idle(); err != nil {
		port.Close()
		return nil, fmt.Errorf("bridge on %s not responding: %w", name, err)
	}
	b.log.Infof("opened serial bridge on %s at %d baud", name, baud)
	return b, nil
}

// New wraps an already open port
func New(port io.ReadWriteCloser, log *logger.Logger) *Bridge {
	return &Bridge{port: port, r: bufio.NewReader(port), log: logger.OrNop(log)}
}

// exchange sends one line and returns the reply line, trimmed
func (b *Bridge) exchange(cmd string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := io.WriteString(b.port, cmd+"\n"); err != nil {
		return "", fmt.Errorf("failed to write %q: %w", cmd, err)
	}
	line, err := b.r.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("no reply to %q: %w", cmd, err)
	}
	line = strings.TrimSpace(line)
	b.log.Debugf("bridge %q -> %q", cmd, line)

	if msg, ok := strings.CutPrefix(line, "ERR"); ok {
		return "", fmt.Errorf("%s: %w: %s", cmd, ErrRejected, strings.TrimSpace(msg))
	}
	return line, nil
}

// do sends a command that must answer OK
func (b *Bridge) do(cmd string) error {
	reply, err := b.exchange(cmd)
	if err != nil {
		return err
	}
	if reply != "OK" {
		return fmt.Errorf("%s: %w: %q", cmd, ErrBadReply, reply)
	}
	return nil
}

// query sends cmd and returns the value of a "<key> <value>" reply
func (b *Bridge) query(cmd, key string) (string, error) {
	reply, err := b.exchange(cmd)
	if err != nil {
		return "", err
	}
	got, value, ok := strings.Cut(reply, " ")
	if !ok || got != key {
		return "", fmt.Errorf("%s: %w: %q", cmd, ErrBadReply, reply)
	}
	return value, nil
}

func (b *Bridge) SetFrequency(mhz float64) error {
	return b.do(fmt.Sprintf("FREQ %.6f", mhz))
}

func (b *Bridge) SetPower(level radio.PowerLevel) error {
	return b.do(fmt.Sprintf("PA %02X", level.PATable()))
}

func (b *Bridge) EnterRX() error { return b.do("RX") }
func (b *Bridge) EnterTX() error { return b.do("TX") }
func (b *Bridge) Idle() error    { return b.do("IDLE") }

func (b *Bridge) ReadPin() (uint8, error) {
	v, err := b.query("PIN?", "PIN")
	if err != nil {
		return 0, err
	}
	switch v {
	case "0":
		return 0, nil
	case "1":
		return 1, nil
	}
	return 0, fmt.Errorf("PIN?: %w: %q", ErrBadReply, v)
}

func (b *Bridge) WritePin(state uint8) error {
	if state != 0 {
		state = 1
	}
	return b.do(fmt.Sprintf("PIN %d", state))
}

func (b *Bridge) ReadRSSI() (float64, error) {
	v, err := b.query("RSSI?", "RSSI")
	if err != nil {
		return 0, err
	}
	rssi, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("RSSI?: %w: %v", ErrBadReply, err)
	}
	return rssi, nil
}

// Close idles the radio, best effort, and closes the port
func (b *Bridge) Close() error {
	if err := b.Idle(); err != nil {
		b.log.Warnf("failed to idle bridge on close: %v", err)
	}
	return b.port.Close()
}
