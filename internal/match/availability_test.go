package match

import (
	"math"
	"testing"

	"crewmatch/internal/domain"
)

func period(workerID, start, end string) domain.AvailabilityPeriod {
	return domain.AvailabilityPeriod{WorkerID: workerID, StartDate: start, EndDate: end}
}

func TestIndexHasOverlap(t *testing.T) {
	ix := NewIndex([]domain.AvailabilityPeriod{
		period("w1", "2025-06-01", "2025-06-10"),
		period("w1", "2025-07-01", "2025-07-05"),
	})
	cases := []struct {
		start, end string
		want       bool
	}{
		{"2025-06-05", "2025-06-07", true},
		{"2025-06-10", "2025-06-15", true}, // touches last covered day
		{"2025-06-11", "2025-06-30", false},
		{"2025-06-20", "2025-07-01", true},
		{"2025-08-01", "2025-08-02", false},
	}
	for _, c := range cases {
		if got := ix.HasOverlap("w1", mustRange(t, c.start, c.end)); got != c.want {
			t.Errorf("HasOverlap(%s..%s) = %v, want %v", c.start, c.end, got, c.want)
		}
	}
	if ix.HasOverlap("unknown", mustRange(t, "2025-06-05", "2025-06-07")) {
		t.Errorf("unknown worker must have no overlap")
	}
}

func TestCoverageFractionUnion(t *testing.T) {
	// Overlapping declarations must not double-count days.
	ix := NewIndex([]domain.AvailabilityPeriod{
		period("w1", "2025-06-01", "2025-06-03"),
		period("w1", "2025-06-02", "2025-06-04"),
		period("w1", "2025-06-08", "2025-06-09"),
	})
	window := mustRange(t, "2025-06-01", "2025-06-10")
	// Covered: 01..04 (4 days) plus 08..09 (2 days) of 10.
	want := 0.6
	if got := ix.CoverageFraction("w1", window); math.Abs(got-want) > 1e-9 {
		t.Fatalf("coverage = %v, want %v", got, want)
	}
}

func TestCoverageFractionBounds(t *testing.T) {
	ix := NewIndex([]domain.AvailabilityPeriod{
		period("w1", "2025-01-01", "2025-12-31"),
	})
	window := mustRange(t, "2025-06-01", "2025-06-05")
	if got := ix.CoverageFraction("w1", window); got != 1 {
		t.Fatalf("full coverage = %v, want 1", got)
	}
	if got := ix.CoverageFraction("nobody", window); got != 0 {
		t.Fatalf("no periods coverage = %v, want 0", got)
	}
}

func TestIndexSkipsMalformedRows(t *testing.T) {
	ix := NewIndex([]domain.AvailabilityPeriod{
		period("w1", "garbage", "2025-06-05"),
		period("w1", "2025-06-10", "2025-06-01"),
		period("w1", "2025-06-01", "2025-06-05"),
	})
	if !ix.HasOverlap("w1", mustRange(t, "2025-06-03", "2025-06-04")) {
		t.Fatalf("valid row must survive malformed neighbors")
	}
	if got := ix.CoverageFraction("w1", mustRange(t, "2025-06-01", "2025-06-05")); got != 1 {
		t.Fatalf("coverage = %v, want 1", got)
	}
}
