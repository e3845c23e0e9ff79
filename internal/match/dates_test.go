package match

import "testing"

func mustRange(t *testing.T, start, end string) DateRange {
	t.Helper()
	r, err := ParseRange(start, end)
	if err != nil {
		t.Fatalf("parse range %s..%s: %v", start, end, err)
	}
	return r
}

func TestParseRangeRejectsInvertedDates(t *testing.T) {
	if _, err := ParseRange("2025-06-10", "2025-06-01"); err == nil {
		t.Fatalf("expected error for end before start")
	}
	if _, err := ParseRange("not-a-date", "2025-06-01"); err == nil {
		t.Fatalf("expected error for malformed start")
	}
	if _, err := ParseRange("2025-06-01", "2025-13-01"); err == nil {
		t.Fatalf("expected error for malformed end")
	}
}

func TestDaysIsInclusive(t *testing.T) {
	if got := mustRange(t, "2025-06-01", "2025-06-01").Days(); got != 1 {
		t.Fatalf("single day range: got %d days", got)
	}
	if got := mustRange(t, "2025-06-01", "2025-06-05").Days(); got != 5 {
		t.Fatalf("five day range: got %d days", got)
	}
}

func TestOverlapsTouchingEndpoints(t *testing.T) {
	a := mustRange(t, "2025-06-01", "2025-06-05")
	b := mustRange(t, "2025-06-05", "2025-06-10")
	if !a.Overlaps(b) || !b.Overlaps(a) {
		t.Fatalf("ranges sharing a day must overlap")
	}
	c := mustRange(t, "2025-06-06", "2025-06-10")
	if a.Overlaps(c) {
		t.Fatalf("adjacent but disjoint ranges must not overlap")
	}
}

func TestClip(t *testing.T) {
	bounds := mustRange(t, "2025-06-03", "2025-06-08")
	clipped, ok := mustRange(t, "2025-06-01", "2025-06-05").Clip(bounds)
	if !ok {
		t.Fatalf("expected overlap")
	}
	if clipped.Days() != 3 {
		t.Fatalf("clip 01..05 into 03..08: got %d days, want 3", clipped.Days())
	}
	if _, ok := mustRange(t, "2025-07-01", "2025-07-02").Clip(bounds); ok {
		t.Fatalf("disjoint range must not clip")
	}
}
