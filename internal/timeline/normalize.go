// Package timeline holds the time-range arithmetic of the compositing
// engine: clamping candidate footage segments against the real source
// duration, and mapping template scenes onto slices of source footage.
package timeline

import "errors"

// MinSegmentSeconds is the minimum usable segment length. Anything at or
// below this floor would produce a single-frame or empty clip downstream.
const MinSegmentSeconds = 0.05

// ErrNoValidSegments means every candidate range was degenerate after
// normalization. The pipeline never synthesizes placeholder footage.
var ErrNoValidSegments = errors.New("no valid segments after normalization")

// SegmentRange is a source-footage interval selected by a user or an
// upstream planner. Raw values may exceed the true source duration or be
// inverted; NormalizeSegments establishes the invariants.
type SegmentRange struct {
	SourceStart float64 `json:"source_start"`
	SourceEnd   float64 `json:"source_end"`
}

// Duration returns the segment length in seconds.
func (r SegmentRange) Duration() float64 {
	return r.SourceEnd - r.SourceStart
}

// NormalizeSegments clamps each candidate against the authoritative source
// duration and drops degenerate ranges. Kept entries satisfy
// 0 <= start, start+MinSegmentSeconds <= end <= sourceDuration and
// end-start > MinSegmentSeconds. Ranges that cannot meet the floor are
// dropped, never expanded. Returns ErrNoValidSegments when nothing survives.
func NormalizeSegments(candidates []SegmentRange, sourceDuration float64) ([]SegmentRange, error) {
	kept := make([]SegmentRange, 0, len(candidates))
	for _, c := range candidates {
		start := clamp(c.SourceStart, 0, sourceDuration)
		end := clamp(c.SourceEnd, start+MinSegmentSeconds, sourceDuration)
		if end-start > MinSegmentSeconds {
			kept = append(kept, SegmentRange{SourceStart: start, SourceEnd: end})
		}
	}
	if len(kept) == 0 {
		return nil, ErrNoValidSegments
	}
	return kept, nil
}

// clamp bounds v to [lo, hi]. hi wins when the bounds cross, so a value
// past the end of the footage always lands on the footage end.
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return v
}
