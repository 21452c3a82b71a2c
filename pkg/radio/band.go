package radio

import "fmt"

// Band is a contiguous tunable frequency range in MHz
type Band struct {
	Name     string
	StartMHz float64
	EndMHz   float64
}

// Bands supported by the CC1101/CC1111 synthesizer
var Bands = []Band{
	{Name: "300-348 MHz", StartMHz: 300, EndMHz: 348},
	{Name: "387-464 MHz", StartMHz: 387, EndMHz: 464},
	{Name: "779-928 MHz", StartMHz: 779, EndMHz: 928},
}

// IsValidFrequency checks if a frequency is within a supported band
func IsValidFrequency(mhz float64) bool {
	return FrequencyBand(mhz) != ""
}

// FrequencyBand returns the band name for a frequency, or "" when unsupported
func FrequencyBand(mhz float64) string {
	for _, b := range Bands {
		if mhz >= b.StartMHz && mhz <= b.EndMHz {
			return b.Name
		}
	}
	return ""
}

// ValidateFrequency returns ErrFrequencyOutOfRange for unsupported frequencies
func ValidateFrequency(mhz float64) error {
	if !IsValidFrequency(mhz) {
		return fmt.Errorf("%.3f MHz: %w", mhz, ErrFrequencyOutOfRange)
	}
	return nil
}
