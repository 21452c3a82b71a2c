package decoder

import (
	"fmt"
	"sort"
	"strconv"
)

// Encoding is the line-coding style guessed from bit transitions
type Encoding string

const (
	EncodingUnknown    Encoding = "unknown"
	EncodingManchester Encoding = "Manchester"
	EncodingPWM        Encoding = "PWM (Pulse Width Modulation)"
	EncodingSimpleOOK  Encoding = "Simple OOK"
)

// DetectEncoding classifies by the ratio of bit transitions to length
func DetectEncoding(bits string) Encoding {
	if len(bits) < 8 {
		return EncodingUnknown
	}
	transitions := 0
	for i := 1; i < len(bits); i++ {
		if bits[i] != bits[i-1] {
			transitions++
		}
	}
	ratio := float64(transitions) / float64(len(bits))
	switch {
	case ratio > 0.8:
		return EncodingManchester
	case ratio > 0.4:
		return EncodingPWM
	default:
		return EncodingSimpleOOK
	}
}

// PatternLengths are the frame sizes searched for repeats
var PatternLengths = []int{8, 12, 16, 24, 32}

// Pattern is a chunk seen more than once at aligned offsets
type Pattern struct {
	Pattern string `json:"pattern"`
	Length  int    `json:"length"`
	Repeats int    `json:"repeats"`
	Hex     string `json:"hex"`
}

// FindRepeatingPatterns splits bits into aligned, full-length chunks for each
// of PatternLengths and reports up to three of the most frequent chunks per
// length that occur at least twice. Ties keep first-occurrence order.
func FindRepeatingPatterns(bits string) []Pattern {
	var out []Pattern
	for _, length := range PatternLengths {
		if len(bits) < length*2 {
			continue
		}

		counts := map[string]int{}
		var order []string
		for i := 0; i+length <= len(bits); i += length {
			chunk := bits[i : i+length]
			if counts[chunk] == 0 {
				order = append(order, chunk)
			}
			counts[chunk]++
		}

		sort.SliceStable(order, func(i, j int) bool {
			return counts[order[i]] > counts[order[j]]
		})
		if len(order) > 3 {
			order = order[:3]
		}
		for _, chunk := range order {
			if counts[chunk] < 2 {
				continue
			}
			out = append(out, Pattern{
				Pattern: chunk,
				Length:  length,
				Repeats: counts[chunk],
				Hex:     toHex(chunk),
			})
		}
	}
	return out
}

func toHex(bits string) string {
	v, err := strconv.ParseUint(bits, 2, 64)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%0*X", len(bits)/4, v)
}
