package match

import (
	"sort"

	"crewmatch/internal/domain"
)

// Index answers availability queries over a snapshot of availability
// periods. It is read-only after construction and safe for concurrent use.
// A worker's own periods may overlap each other; queries work on the union.
type Index struct {
	byWorker map[string][]DateRange
}

// NewIndex builds an index from a periods snapshot. Rows with unparseable or
// inverted dates are skipped; the boundary validates dates on create, so
// such rows should not exist.
func NewIndex(periods []domain.AvailabilityPeriod) *Index {
	ix := &Index{byWorker: make(map[string][]DateRange)}
	for _, p := range periods {
		r, err := ParseRange(p.StartDate, p.EndDate)
		if err != nil {
			continue
		}
		ix.byWorker[p.WorkerID] = append(ix.byWorker[p.WorkerID], r)
	}
	for id := range ix.byWorker {
		rs := ix.byWorker[id]
		sort.Slice(rs, func(i, j int) bool { return rs[i].Start.Before(rs[j].Start) })
	}
	return ix
}

// HasOverlap reports whether at least one of the worker's periods intersects
// the given range.
func (ix *Index) HasOverlap(workerID string, r DateRange) bool {
	for _, p := range ix.byWorker[workerID] {
		if p.Start.After(r.End) {
			break
		}
		if p.Overlaps(r) {
			return true
		}
	}
	return false
}

// CoverageFraction returns the fraction of the range's days covered by the
// union of the worker's periods, in [0,1].
func (ix *Index) CoverageFraction(workerID string, r DateRange) float64 {
	total := r.Days()
	if total <= 0 {
		return 0
	}
	covered := 0
	// Periods are sorted by start; walk them merging coverage inside r.
	cursor := r.Start
	for _, p := range ix.byWorker[workerID] {
		clipped, ok := p.Clip(r)
		if !ok {
			if p.Start.After(r.End) {
				break
			}
			continue
		}
		if clipped.Start.Before(cursor) {
			clipped.Start = cursor
		}
		if clipped.End.Before(clipped.Start) {
			continue
		}
		covered += clipped.Days()
		cursor = clipped.End.AddDate(0, 0, 1)
		if cursor.After(r.End) {
			break
		}
	}
	return float64(covered) / float64(total)
}
