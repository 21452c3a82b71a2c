package yardstick

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	errNoFrame       = errors.New("no complete frame buffered")
	errFrameMismatch = errors.New("frame for another command")
)

// encodeCommand builds an EP5 request: app, cmd, payload length (LE), payload
func encodeCommand(app, cmd uint8, payload []byte) []byte {
	pkt := make([]byte, headerLen+len(payload))
	pkt[0] = app
	pkt[1] = cmd
	binary.LittleEndian.PutUint16(pkt[2:4], uint16(len(payload)))
	copy(pkt[headerLen:], payload)
	return pkt
}

// decodeFrame looks for '@' app cmd len(LE) payload in buf. It returns the
// payload and what follows it. On errFrameMismatch the returned remainder
// skips past the foreign frame's marker; on errNoFrame buf is returned as is.
func decodeFrame(buf []byte, app, cmd uint8) (payload, rest []byte, err error) {
	start := -1
	for i, b := range buf {
		if b == ResponseMarker {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, buf, errNoFrame
	}

	data := buf[start:]
	if len(data) < responseHeadLen {
		return nil, buf, errNoFrame
	}
	n := int(binary.LittleEndian.Uint16(data[3:5]))
	end := responseHeadLen + n
	if len(data) < end {
		return nil, buf, errNoFrame
	}
	if data[1] != app || data[2] != cmd {
		return nil, buf[start+1:], fmt.Errorf("%w: app=0x%02X cmd=0x%02X", errFrameMismatch, data[1], data[2])
	}

	payload = make([]byte, n)
	copy(payload, data[responseHeadLen:end])
	return payload, data[end:], nil
}

// peekPayload is bytecount(LE) then address(LE)
func peekPayload(addr, count uint16) []byte {
	p := make([]byte, 4)
	binary.LittleEndian.PutUint16(p[0:2], count)
	binary.LittleEndian.PutUint16(p[2:4], addr)
	return p
}

// pokePayload is address(LE) then the data
func pokePayload(addr uint16, data []byte) []byte {
	p := make([]byte, 2+len(data))
	binary.LittleEndian.PutUint16(p[0:2], addr)
	copy(p[2:], data)
	return p
}
