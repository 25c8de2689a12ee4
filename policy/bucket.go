package policy

import "fmt"

// Bucket is one entry of the "busy for N units" rounding table advance
// reservation admission failures report (spec.md §4.6 "bucketed failure
// codes"). SPEC_FULL.md supplemented feature #4: this table is
// configurable, not hardcoded: a caller of NewAR can pass its own table to
// narrow or widen the granularity. Scenarios loaded by the config package
// always use DefaultBuckets.
type Bucket struct {
	Seconds float64
	Unit    string // "SEC", "MIN", or "HOUR"
	Value   int    // the unit-scaled magnitude, e.g. 45 for "45_HOUR"
}

// DefaultBuckets reproduces the original GridSim AR admission control's
// 18-entry table: {1,5,10,15,30,45} seconds, minutes, and hours.
func DefaultBuckets() []Bucket {
	mk := func(unit string, seconds float64) func(int) Bucket {
		return func(v int) Bucket {
			return Bucket{Seconds: float64(v) * seconds, Unit: unit, Value: v}
		}
	}
	sec, min, hour := mk("SEC", 1), mk("MIN", 60), mk("HOUR", 3600)
	steps := []int{1, 5, 10, 15, 30, 45}
	var buckets []Bucket
	for _, s := range steps {
		buckets = append(buckets, sec(s))
	}
	for _, s := range steps {
		buckets = append(buckets, min(s))
	}
	for _, s := range steps {
		buckets = append(buckets, hour(s))
	}
	return buckets
}

// Label renders a bucket as the "<N>_<UNIT>" suffix (e.g. "10_SEC") that
// ARPolicy appends to "FAIL_RESOURCE_FULL_IN_" in spec.md §4.6 failure
// codes.
func (b Bucket) Label() string {
	return fmt.Sprintf("%d_%s", b.Value, b.Unit)
}

// RoundUp finds the smallest configured bucket whose duration is >= wait
// seconds, assuming buckets is sorted ascending by Seconds (as
// DefaultBuckets returns it). If wait exceeds every bucket, the largest
// bucket is returned instead (the original GridSim behavior of capping
// the reported wait at "busy for 45 hours" rather than reporting
// unbounded waits).
func RoundUp(buckets []Bucket, wait float64) Bucket {
	if len(buckets) == 0 {
		return Bucket{Seconds: wait, Unit: "SEC", Value: int(wait)}
	}
	for _, b := range buckets {
		if b.Seconds >= wait {
			return b
		}
	}
	return buckets[len(buckets)-1]
}
