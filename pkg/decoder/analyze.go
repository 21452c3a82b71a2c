package decoder

import (
	"errors"

	"github.com/herlein/piflip/pkg/fault"
	"github.com/herlein/piflip/pkg/timing"
)

// ErrUnclassifiable indicates the sequence has too few usable pulses or only one width
var ErrUnclassifiable = errors.New("could not classify pulse widths")

// Analysis is the full decode of one sequence
type Analysis struct {
	Alphabet *Alphabet `json:"alphabet"`
	Stats    *Stats    `json:"stats"`
	Decoded  *Decoded  `json:"-"`
	Encoding Encoding  `json:"encoding"`
	Patterns []Pattern `json:"patterns"`
}

// BitCount is the number of per-sample bits
func (a *Analysis) BitCount() int {
	return len(a.Decoded.Pulses)
}

// Analyzer turns a timing sequence into an Analysis. The built-in
// implementation is Default; external tools can be adapted to it.
type Analyzer interface {
	Analyze(seq timing.Sequence) (*Analysis, error)
}

// Default is the in-process Analyzer
type Default struct{}

func (Default) Analyze(seq timing.Sequence) (*Analysis, error) {
	return Analyze(seq)
}

// Analyze classifies, decodes and inspects seq. Encoding and repeat
// detection run over the per-sample bits.
func Analyze(seq timing.Sequence) (*Analysis, error) {
	alphabet, stats, ok := classify(seq)
	if !ok {
		return nil, fault.New(fault.InsufficientData, "analyze", ErrUnclassifiable)
	}
	decoded := Decode(seq, alphabet)
	return &Analysis{
		Alphabet: alphabet,
		Stats:    stats,
		Decoded:  decoded,
		Encoding: DetectEncoding(decoded.Pulses),
		Patterns: FindRepeatingPatterns(decoded.Pulses),
	}, nil
}
