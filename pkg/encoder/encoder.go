// Package encoder builds transmit-ready timing sequences from logical codes
// for common fixed-code remote protocols.
package encoder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/herlein/piflip/pkg/timing"
)

// Protocol names
const (
	PT2262 = "PT2262"
	PT2264 = "PT2264"
	HCS301 = "HCS301"
	Custom = "custom"
)

// Protocol describes the pulse widths and framing of a fixed-code protocol
type Protocol struct {
	Name        string
	Description string
	ShortUS     uint32
	LongUS      uint32

	// SyncGapUS is the low time after the sync pulse; 0 means no sync framing
	SyncGapUS uint32

	// Tristate allows 'F' (floating) symbols
	Tristate bool

	// PreambleCycles is the number of short high/low cycles sent first
	PreambleCycles int

	encode func(p Protocol, code string) timing.Sequence
}

var protocols = map[string]Protocol{
	PT2262: {
		Name:        PT2262,
		Description: "Princeton PT2262 tri-state fixed code, common on 315/433 MHz remotes",
		ShortUS:     350,
		LongUS:      1050,
		SyncGapUS:   10850,
		Tristate:    true,
		encode:      encodePWM,
	},
	PT2264: {
		Name:        PT2264,
		Description: "Princeton PT2264 binary fixed code, slower timing than PT2262",
		ShortUS:     450,
		LongUS:      1350,
		SyncGapUS:   13950,
		encode:      encodePWM,
	},
	HCS301: {
		Name:           HCS301,
		Description:    "KeeLoq HCS301 framing only; no rolling-code cipher is applied",
		ShortUS:        400,
		LongUS:         400,
		PreambleCycles: 12,
		encode:         encodeHCS301,
	},
	Custom: {
		Name:        Custom,
		Description: "Pulse-width code with caller supplied short/long widths",
		ShortUS:     350,
		LongUS:      1050,
		encode:      encodePWM,
	},
}

// Lookup returns the protocol definition for a case-insensitive name
func Lookup(name string) (Protocol, error) {
	n := strings.TrimSpace(name)
	for key, p := range protocols {
		if strings.EqualFold(key, n) {
			return p, nil
		}
	}
	return Protocol{}, fmt.Errorf("%q: %w", name, ErrInvalidProtocol)
}

// ParseProtocol returns the canonical spelling of a protocol name
func ParseProtocol(name string) (string, error) {
	p, err := Lookup(name)
	if err != nil {
		return "", err
	}
	return p.Name, nil
}

// Names lists the supported protocols, sorted
func Names() []string {
	names := make([]string, 0, len(protocols))
	for k := range protocols {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Frame is a request to encode a code word with a protocol. ShortUS and
// LongUS are only honored for the custom protocol.
type Frame struct {
	Protocol string `json:"protocol"`
	Code     string `json:"code"`
	ShortUS  uint32 `json:"short_us,omitempty"`
	LongUS   uint32 `json:"long_us,omitempty"`
}

// Encode validates the whole code and returns its timing sequence
func Encode(f Frame) (timing.Sequence, error) {
	p, err := Lookup(f.Protocol)
	if err != nil {
		return nil, err
	}
	if p.Name == Custom {
		if f.ShortUS > 0 {
			p.ShortUS = f.ShortUS
		}
		if f.LongUS > 0 {
			p.LongUS = f.LongUS
		}
	}
	if err := p.Validate(f.Code); err != nil {
		return nil, err
	}
	return p.encode(p, f.Code), nil
}

// Validate checks code uses only symbols the protocol accepts
func (p Protocol) Validate(code string) error {
	if code == "" {
		return fmt.Errorf("%s: %w", p.Name, ErrEmptyCode)
	}
	for i, c := range code {
		switch c {
		case '0', '1':
		case 'F', 'f':
			if !p.Tristate {
				return fmt.Errorf("%s: position %d: %w", p.Name, i, ErrTristateUnsupported)
			}
		default:
			return fmt.Errorf("%s: position %d %q: %w", p.Name, i, c, ErrInvalidCode)
		}
	}
	return nil
}

func encodePWM(p Protocol, code string) timing.Sequence {
	seq := make(timing.Sequence, 0, len(code)*2+4)
	if p.SyncGapUS > 0 {
		seq = append(seq, timing.High(p.ShortUS), timing.Low(p.SyncGapUS))
	}
	for _, c := range code {
		switch c {
		case '0':
			seq = append(seq, timing.High(p.ShortUS), timing.Low(p.LongUS))
		case '1':
			seq = append(seq, timing.High(p.LongUS), timing.Low(p.ShortUS))
		case 'F', 'f':
			seq = append(seq,
				timing.High(p.ShortUS), timing.Low(p.ShortUS),
				timing.High(p.ShortUS), timing.Low(p.LongUS))
		}
	}
	if p.SyncGapUS > 0 {
		seq = append(seq, timing.High(p.ShortUS), timing.Low(p.SyncGapUS))
	}
	return seq
}

func encodeHCS301(p Protocol, code string) timing.Sequence {
	te := p.ShortUS
	seq := make(timing.Sequence, 0, p.PreambleCycles*2+len(code)*2)
	for i := 0; i < p.PreambleCycles; i++ {
		seq = append(seq, timing.High(te), timing.Low(te))
	}
	for _, c := range code {
		if c == '1' {
			seq = append(seq, timing.Low(te), timing.High(te))
		} else {
			seq = append(seq, timing.High(te), timing.Low(te))
		}
	}
	return seq
}
