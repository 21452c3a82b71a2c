// Package decoder infers the short/long pulse alphabet of a captured OOK
// signal and turns its timings into bit strings.
package decoder

import (
	"sort"

	"github.com/herlein/piflip/pkg/timing"
)

// Durations outside (MinPulseUS, MaxPulseUS) are treated as noise or gaps
const (
	MinPulseUS = 50
	MaxPulseUS = 50000

	// MinSamples is the fewest samples a classifiable sequence may have
	MinSamples = 4

	// Tolerance is the fractional band around each cluster average
	Tolerance = 0.3

	// SingleWidthSpread is how close to the median every duration must be
	// for the signal to count as one width
	SingleWidthSpread = 0.05
)

// Cluster is one pulse-width class with its acceptance band
type Cluster struct {
	Avg   int `json:"avg"`
	Min   int `json:"min"`
	Max   int `json:"max"`
	Count int `json:"count"`
}

// Contains reports whether d falls within the band, inclusive
func (c Cluster) Contains(d uint32) bool {
	return int(d) >= c.Min && int(d) <= c.Max
}

func (c Cluster) distance(d uint32) int {
	diff := int(d) - c.Avg
	if diff < 0 {
		return -diff
	}
	return diff
}

// Alphabet is the two-width vocabulary inferred from one signal. The bands
// may overlap; a duration inside both goes to the nearer average.
type Alphabet struct {
	Short  Cluster `json:"short"`
	Long   Cluster `json:"long"`
	Median float64 `json:"median"`
}

// Stats summarizes the durations that survived filtering
type Stats struct {
	MinUS       int `json:"min_duration"`
	MaxUS       int `json:"max_duration"`
	AvgUS       int `json:"avg_duration"`
	TotalPulses int `json:"total_pulses"`
}

// Classify splits the sequence's durations at their median into short and
// long clusters. It reports false when there are fewer than four samples,
// fewer than four in-range durations, or only one width, meaning every
// duration lies within SingleWidthSpread of the median.
//
// Encodings with three or more pulse widths are forced into two clusters.
func Classify(seq timing.Sequence) (*Alphabet, bool) {
	a, _, ok := classify(seq)
	return a, ok
}

func classify(seq timing.Sequence) (*Alphabet, *Stats, bool) {
	if len(seq) < MinSamples {
		return nil, nil, false
	}

	filtered := make([]int, 0, len(seq))
	for _, s := range seq {
		if s.DurationUS > MinPulseUS && s.DurationUS < MaxPulseUS {
			filtered = append(filtered, int(s.DurationUS))
		}
	}
	if len(filtered) < MinSamples {
		return nil, nil, false
	}
	sort.Ints(filtered)

	median := medianOf(filtered)
	spread := median * SingleWidthSpread
	if float64(filtered[0]) >= median-spread && float64(filtered[len(filtered)-1]) <= median+spread {
		return nil, nil, false
	}

	var short, long []int
	for _, d := range filtered {
		if float64(d) < median {
			short = append(short, d)
		} else {
			long = append(long, d)
		}
	}
	if len(short) == 0 || len(long) == 0 {
		return nil, nil, false
	}

	stats := &Stats{
		MinUS:       filtered[0],
		MaxUS:       filtered[len(filtered)-1],
		AvgUS:       mean(filtered),
		TotalPulses: len(seq),
	}
	return &Alphabet{
		Short:  cluster(short),
		Long:   cluster(long),
		Median: median,
	}, stats, true
}

// Kind assigns d to a cluster. Overlap resolves to the nearer average;
// durations outside both bands are Unknown.
func (a *Alphabet) Kind(d uint32) Kind {
	if a == nil {
		return Unknown
	}
	inShort, inLong := a.Short.Contains(d), a.Long.Contains(d)
	switch {
	case inShort && inLong:
		if a.Long.distance(d) < a.Short.distance(d) {
			return Long
		}
		return Short
	case inShort:
		return Short
	case inLong:
		return Long
	}
	return Unknown
}

func cluster(durations []int) Cluster {
	avg := mean(durations)
	tol := int(float64(avg) * Tolerance)
	return Cluster{Avg: avg, Min: avg - tol, Max: avg + tol, Count: len(durations)}
}

// medianOf expects sorted input
func medianOf(sorted []int) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return float64(sorted[n/2])
	}
	return float64(sorted[n/2-1]+sorted[n/2]) / 2
}

func mean(values []int) int {
	var sum int64
	for _, v := range values {
		sum += int64(v)
	}
	return int(sum / int64(len(values)))
}
