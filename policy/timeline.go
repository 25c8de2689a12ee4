package policy

import "sort"

// timelineEntry is one reservation's footprint on the PE capacity
// timeline, covering both PENDING and COMMITTED reservations: a PENDING
// entry still claims capacity so two concurrent creates can't double
// book the same window before either commits (spec.md §3 "AR timeline"
// states the Σcommitted-PEs invariant; holding PENDING entries too is a
// deliberately stronger admission-control policy, documented here since
// the spec is silent on PENDING's effect on capacity).
type timelineEntry struct {
	reservationID int64
	start, end    float64
	pe            int
}

// Timeline is the per-resource ordered collection of reservation
// footprints spec.md §3 describes. Grounded on the teacher's
// sim/cluster/scheduleboard.go interval-list admission check, adapted
// from GPU-minute intervals to PE-second intervals.
type Timeline struct {
	entries []timelineEntry
	totalPE int
}

// NewTimeline creates an empty Timeline over a resource with totalPE PEs.
func NewTimeline(totalPE int) *Timeline {
	return &Timeline{totalPE: totalPE}
}

// Add records a reservation's footprint.
func (t *Timeline) Add(reservationID int64, start, end float64, pe int) {
	t.entries = append(t.entries, timelineEntry{reservationID: reservationID, start: start, end: end, pe: pe})
}

// Remove drops a reservation's footprint (cancel, expiry, or modify).
func (t *Timeline) Remove(reservationID int64) {
	out := t.entries[:0]
	for _, e := range t.entries {
		if e.reservationID != reservationID {
			out = append(out, e)
		}
	}
	t.entries = out
}

// FreePEsDuring returns the minimum number of PEs free at every instant
// within [from, to), i.e. totalPE minus the peak concurrent reservation
// footprint in that window.
func (t *Timeline) FreePEsDuring(from, to float64) int {
	return t.totalPE - t.peakOverlap(from, to)
}

// CanFit reports whether pe PEs are free for the entire [from, to) window.
func (t *Timeline) CanFit(from, to float64, pe int) bool {
	if to <= from {
		return false
	}
	return t.FreePEsDuring(from, to) >= pe
}

func (t *Timeline) peakOverlap(from, to float64) int {
	type point struct {
		at    float64
		delta int
	}
	var points []point
	for _, e := range t.entries {
		if e.end <= from || e.start >= to {
			continue
		}
		points = append(points, point{at: maxF(e.start, from), delta: e.pe})
		points = append(points, point{at: minF(e.end, to), delta: -e.pe})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].at < points[j].at })

	peak, cur := 0, 0
	for _, p := range points {
		cur += p.delta
		if cur > peak {
			peak = cur
		}
	}
	return peak
}

// NextFreeMoment finds the earliest start time t >= from such that
// [t, t+duration) has pe PEs free, searching only at entry boundaries
// plus the horizon cutoff, since the free-capacity function is piecewise
// constant between boundary points (classic interval admission-control
// scan). Returns ok=false if nothing within the horizon fits, in which
// case the caller (ARPolicy.failToFit) reports the largest bucket.
func (t *Timeline) NextFreeMoment(from, duration float64, pe int, horizon float64) (float64, bool) {
	if duration <= 0 {
		return from, t.CanFit(from, from+1e-9, pe)
	}
	candidates := []float64{from}
	for _, e := range t.entries {
		if e.end > from && e.end <= from+horizon {
			candidates = append(candidates, e.end)
		}
		if e.start > from && e.start <= from+horizon {
			candidates = append(candidates, e.start)
		}
	}
	sort.Float64s(candidates)
	for _, c := range candidates {
		if t.CanFit(c, c+duration, pe) {
			return c, true
		}
	}
	return 0, false
}

// occupancySegments partitions [from, to) into maximal sub-intervals of
// constant PE occupancy (same sweep-line technique as peakOverlap, but
// keeping the running total at every boundary instead of only its peak),
// so callers can recover exactly how many PEs are busy — or free — during
// each sub-interval rather than a single flattened busy/idle range.
func (t *Timeline) occupancySegments(from, to float64) []TimeSlot {
	if to <= from {
		return nil
	}
	type point struct {
		at    float64
		delta int
	}
	var points []point
	bounds := map[float64]bool{from: true, to: true}
	for _, e := range t.entries {
		s, en := maxF(e.start, from), minF(e.end, to)
		if en <= s {
			continue
		}
		points = append(points, point{at: s, delta: e.pe})
		points = append(points, point{at: en, delta: -e.pe})
		bounds[s] = true
		bounds[en] = true
	}
	sort.Slice(points, func(i, j int) bool { return points[i].at < points[j].at })

	times := make([]float64, 0, len(bounds))
	for b := range bounds {
		times = append(times, b)
	}
	sort.Float64s(times)

	var segments []TimeSlot
	cur, pi := 0, 0
	for i := 0; i+1 < len(times); i++ {
		segStart, segEnd := times[i], times[i+1]
		if segEnd <= segStart {
			continue
		}
		for pi < len(points) && points[pi].at <= segStart {
			cur += points[pi].delta
			pi++
		}
		if n := len(segments); n > 0 && segments[n-1].PE == cur && segments[n-1].End == segStart {
			segments[n-1].End = segEnd
		} else {
			segments = append(segments, TimeSlot{Start: segStart, End: segEnd, PE: cur})
		}
	}
	return segments
}

// busyTimeSlots returns the occupied sub-intervals of [from, to), each
// carrying the PE count occupied during it.
func (t *Timeline) busyTimeSlots(from, to float64) []TimeSlot {
	var busy []TimeSlot
	for _, seg := range t.occupancySegments(from, to) {
		if seg.PE > 0 {
			busy = append(busy, seg)
		}
	}
	return busy
}

// freeTimeSlots returns the sub-intervals of [from, to) with spare
// capacity, each carrying totalPE minus the PE count occupied during it.
func (t *Timeline) freeTimeSlots(from, to float64) []TimeSlot {
	var free []TimeSlot
	for _, seg := range t.occupancySegments(from, to) {
		if freePE := t.totalPE - seg.PE; freePE > 0 {
			free = append(free, TimeSlot{Start: seg.Start, End: seg.End, PE: freePE})
		}
	}
	return free
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
