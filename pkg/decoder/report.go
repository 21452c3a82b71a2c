package decoder

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ReportHeader carries the signal metadata printed above an analysis
type ReportHeader struct {
	Name         string
	FrequencyMHz float64
	Duration     time.Duration
}

const rule = "--------------------------------------------------"

// WriteReport prints a human-readable decode summary
func WriteReport(w io.Writer, h ReportHeader, a *Analysis) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Signal:       %s\n", h.Name)
	fmt.Fprintf(&b, "Frequency:    %.3f MHz\n", h.FrequencyMHz)
	fmt.Fprintf(&b, "Duration:     %s\n\n", h.Duration)

	b.WriteString(rule + "\nPULSE WIDTHS:\n")
	fmt.Fprintf(&b, "  Short: %dus (%d pulses, %d-%d)\n",
		a.Alphabet.Short.Avg, a.Alphabet.Short.Count, a.Alphabet.Short.Min, a.Alphabet.Short.Max)
	fmt.Fprintf(&b, "  Long:  %dus (%d pulses, %d-%d)\n",
		a.Alphabet.Long.Avg, a.Alphabet.Long.Count, a.Alphabet.Long.Min, a.Alphabet.Long.Max)
	if a.Stats != nil {
		fmt.Fprintf(&b, "  Range: %d-%dus, avg %dus over %d samples\n",
			a.Stats.MinUS, a.Stats.MaxUS, a.Stats.AvgUS, a.Stats.TotalPulses)
	}
	if a.Decoded.UnknownCount > 0 {
		fmt.Fprintf(&b, "  Unclassified: %d samples\n", a.Decoded.UnknownCount)
	}
	b.WriteString("\n")

	b.WriteString(rule + "\nBINARY DATA:\n")
	for _, line := range groupBits(a.Decoded.Pulses, 8, 32) {
		fmt.Fprintf(&b, "  %s\n", line)
	}
	fmt.Fprintf(&b, "\nTotal bits: %d\n", a.BitCount())
	if a.Decoded.Bits != "" {
		fmt.Fprintf(&b, "Pair-decoded: %s (%d bits)\n", a.Decoded.Bits, len(a.Decoded.Bits))
	}
	b.WriteString("\n")

	b.WriteString(rule + "\nPROTOCOL:\n")
	b.WriteString("  Type:     OOK\n")
	fmt.Fprintf(&b, "  Encoding: %s\n", a.Encoding)

	if len(a.Patterns) > 0 {
		b.WriteString("\nREPEATING PATTERNS:\n")
		for i, p := range a.Patterns {
			if i == 3 {
				break
			}
			fmt.Fprintf(&b, "  %d. %s (hex: %s)\n", i+1, p.Pattern, p.Hex)
			fmt.Fprintf(&b, "     Repeats: %dx, Length: %d bits\n", p.Repeats, p.Length)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// groupBits splits bits into lines of perLine characters, spaced every group
func groupBits(bits string, group, perLine int) []string {
	var lines []string
	for i := 0; i < len(bits); i += perLine {
		end := i + perLine
		if end > len(bits) {
			end = len(bits)
		}
		chunk := bits[i:end]
		var parts []string
		for j := 0; j < len(chunk); j += group {
			e := j + group
			if e > len(chunk) {
				e = len(chunk)
			}
			parts = append(parts, chunk[j:e])
		}
		lines = append(lines, strings.Join(parts, " "))
	}
	return lines
}
