package timeline

import (
	"errors"
	"math"
	"testing"
)

func TestNormalizeSegments(t *testing.T) {
	tests := []struct {
		name       string
		candidates []SegmentRange
		duration   float64
		want       []SegmentRange
		wantErr    error
	}{
		{
			"in-range kept as-is",
			[]SegmentRange{{1, 4}},
			10,
			[]SegmentRange{{1, 4}},
			nil,
		},
		{
			"negative start clamped to zero",
			[]SegmentRange{{-2, 3}},
			10,
			[]SegmentRange{{0, 3}},
			nil,
		},
		{
			"end clamped to source duration",
			[]SegmentRange{{8, 15}},
			10,
			[]SegmentRange{{8, 10}},
			nil,
		},
		{
			"start past duration dropped",
			[]SegmentRange{{12, 15}},
			10,
			nil,
			ErrNoValidSegments,
		},
		{
			"inverted range dropped",
			[]SegmentRange{{5, 2}},
			10,
			nil,
			ErrNoValidSegments,
		},
		{
			"near-end sliver cannot meet floor and is dropped",
			[]SegmentRange{{9.98, 10.5}},
			10,
			nil,
			ErrNoValidSegments,
		},
		{
			"exactly at floor dropped",
			[]SegmentRange{{1, 1.05}},
			10,
			nil,
			ErrNoValidSegments,
		},
		{
			"just above floor kept",
			[]SegmentRange{{1, 1.06}},
			10,
			[]SegmentRange{{1, 1.06}},
			nil,
		},
		{
			"mixed list keeps only valid entries in order",
			[]SegmentRange{{0, 2}, {50, 60}, {3, 3.01}, {4, 9}},
			10,
			[]SegmentRange{{0, 2}, {4, 9}},
			nil,
		},
		{
			"empty candidate list",
			nil,
			10,
			nil,
			ErrNoValidSegments,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeSegments(tt.candidates, tt.duration)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NormalizeSegments() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeSegments() unexpected error: %v", err)
			}

			if len(got) != len(tt.want) {
				t.Fatalf("NormalizeSegments() kept %d segments, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if !closeTo(got[i].SourceStart, tt.want[i].SourceStart) || !closeTo(got[i].SourceEnd, tt.want[i].SourceEnd) {
					t.Errorf("segment %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

// Every kept segment must be longer than the floor and end on or before the
// source duration, for any input.
func TestNormalizeSegments_Invariants(t *testing.T) {
	candidates := []SegmentRange{
		{-5, -1}, {-5, 100}, {0, 0}, {0.01, 0.02}, {3, 7}, {9.9, 10.4}, {7, 3},
	}
	const duration = 10.0

	kept, err := NormalizeSegments(candidates, duration)
	if err != nil {
		t.Fatalf("NormalizeSegments() error = %v", err)
	}
	for i, s := range kept {
		if s.SourceStart < 0 {
			t.Errorf("segment %d start %g < 0", i, s.SourceStart)
		}
		if s.SourceEnd > duration {
			t.Errorf("segment %d end %g > duration %g", i, s.SourceEnd, duration)
		}
		if s.Duration() <= MinSegmentSeconds {
			t.Errorf("segment %d duration %g <= floor %g", i, s.Duration(), MinSegmentSeconds)
		}
	}
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
