package timeline

import (
	"math"
	"sort"
)

// Epsilon is the tolerance for cut-point equality. Media elements report
// playback time with floating-point drift, so all membership checks on the
// cut set compare within this bound.
const Epsilon = 1e-3

// PlaybackRates is the fixed cycle of supported playback multipliers.
var PlaybackRates = []float64{1, 0.5, 0.25}

// roundMs rounds a timestamp to millisecond precision.
func roundMs(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// clampTime clamps v to [0, duration]. With no known duration only the lower
// bound applies.
func clampTime(v float64, duration *float64) float64 {
	if duration != nil && *duration > 0 {
		return math.Min(math.Max(v, 0), *duration)
	}
	return math.Max(v, 0)
}

// NormalizeCuts sorts ascending, drops non-finite values, and merges values
// closer than Epsilon. The result is a valid cut-point sequence.
func NormalizeCuts(values []float64) []float64 {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sorted = append(sorted, v)
	}
	sort.Float64s(sorted)

	if len(sorted) == 0 {
		return nil
	}

	unique := sorted[:1]
	for _, v := range sorted[1:] {
		if math.Abs(v-unique[len(unique)-1]) >= Epsilon {
			unique = append(unique, v)
		}
	}
	return unique
}

// indexWithin returns the index of the value matching t within Epsilon, or -1.
func indexWithin(values []float64, t float64) int {
	for i, v := range values {
		if math.Abs(v-t) < Epsilon {
			return i
		}
	}
	return -1
}

func containsWithin(values []float64, t float64) bool {
	return indexWithin(values, t) >= 0
}

func removeWithin(values []float64, t float64) []float64 {
	next := make([]float64, 0, len(values))
	for _, v := range values {
		if math.Abs(v-t) >= Epsilon {
			next = append(next, v)
		}
	}
	return next
}

// Segment is one partition of [0, duration] between adjacent cut points.
type Segment struct {
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	Hidden bool    `json:"hidden"`
}

// SegmentsFor pairs adjacent cuts into segments, marking those whose start
// cut is in the hidden set.
func SegmentsFor(cuts, hidden []float64) []Segment {
	if len(cuts) < 2 {
		return nil
	}
	segments := make([]Segment, 0, len(cuts)-1)
	for i := 0; i+1 < len(cuts); i++ {
		segments = append(segments, Segment{
			Start:  cuts[i],
			End:    cuts[i+1],
			Hidden: containsWithin(hidden, cuts[i]),
		})
	}
	return segments
}
