package match

import (
	"fmt"
	"time"
)

// DayFormat is the wire format for calendar dates. Ranges built from it are
// inclusive on both ends.
const DayFormat = "2006-01-02"

// DateRange is a closed interval of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDay parses a calendar date, normalized to UTC midnight.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DayFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t.UTC(), nil
}

// ParseRange parses an inclusive date range, rejecting end before start.
func ParseRange(start, end string) (DateRange, error) {
	s, err := ParseDay(start)
	if err != nil {
		return DateRange{}, err
	}
	e, err := ParseDay(end)
	if err != nil {
		return DateRange{}, err
	}
	if e.Before(s) {
		return DateRange{}, fmt.Errorf("end date %s before start date %s", end, start)
	}
	return DateRange{Start: s, End: e}, nil
}

// Days returns the inclusive day count of the range (start == end is 1).
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// Overlaps reports whether two closed ranges intersect. Touching endpoints
// count as overlap.
func (r DateRange) Overlaps(o DateRange) bool {
	return !r.End.Before(o.Start) && !o.End.Before(r.Start)
}

// Clip returns the part of r inside bounds and whether anything remains.
func (r DateRange) Clip(bounds DateRange) (DateRange, bool) {
	if !r.Overlaps(bounds) {
		return DateRange{}, false
	}
	out := r
	if out.Start.Before(bounds.Start) {
		out.Start = bounds.Start
	}
	if out.End.After(bounds.End) {
		out.End = bounds.End
	}
	return out, true
}
