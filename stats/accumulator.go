// Package stats implements the statistics sink entity and the Accumulator
// it and the allocation policies use for running summaries
// (spec.md §3 "Accumulator", §4.8).
package stats

import "gonum.org/v1/gonum/stat"

// Accumulator maintains incremental count/mean/sum-of-squares-mean/min/max/
// last over a stream of values (spec.md §3 "Accumulator"). The update
// formulas match spec.md §4.8 exactly: for a batch of k identical values v,
//
//	n' = n + k; mean' = (n·mean + k·v)/n'; sqrMean' = (n·sqrMean + k·v²)/n'
type Accumulator struct {
	n       int64
	mean    float64
	sqrMean float64
	min     float64
	max     float64
	last    float64
}

// NewAccumulator returns an empty Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Add folds k copies of v into the accumulator.
func (a *Accumulator) Add(v float64, k int64) {
	if k <= 0 {
		return
	}
	if a.n == 0 {
		a.min, a.max = v, v
	} else {
		if v < a.min {
			a.min = v
		}
		if v > a.max {
			a.max = v
		}
	}
	newN := a.n + k
	a.mean = (float64(a.n)*a.mean + float64(k)*v) / float64(newN)
	a.sqrMean = (float64(a.n)*a.sqrMean + float64(k)*v*v) / float64(newN)
	a.n = newN
	a.last = v
}

// AddOne folds a single value into the accumulator.
func (a *Accumulator) AddOne(v float64) { a.Add(v, 1) }

func (a *Accumulator) Count() int64   { return a.n }
func (a *Accumulator) Mean() float64  { return a.mean }
func (a *Accumulator) Min() float64   { return a.min }
func (a *Accumulator) Max() float64   { return a.max }
func (a *Accumulator) Last() float64  { return a.last }

// Variance returns sqrMean - mean^2 (spec.md §3 Accumulator invariant).
func (a *Accumulator) Variance() float64 {
	v := a.sqrMean - a.mean*a.mean
	if v < 0 {
		// Floating point drift can push this marginally negative for
		// near-zero-variance batches; clamp rather than report a
		// nonsensical negative variance.
		return 0
	}
	return v
}

// FromValues builds an Accumulator from a raw value list by folding each
// value in with AddOne. It does no cross-check itself:
// stats/accumulator_test.go compares its mean/variance against
// referenceMeanVariance below, the one place GridSim uses
// gonum.org/v1/gonum (see SPEC_FULL.md DOMAIN STACK).
func FromValues(values []float64) *Accumulator {
	a := NewAccumulator()
	for _, v := range values {
		a.AddOne(v)
	}
	return a
}

// referenceMeanVariance computes mean/variance directly via gonum, used
// only by tests to validate the incremental Accumulator formulas.
func referenceMeanVariance(values []float64) (mean, variance float64) {
	if len(values) == 0 {
		return 0, 0
	}
	weights := make([]float64, len(values))
	for i := range weights {
		weights[i] = 1
	}
	mean, variance = stat.PopMeanVariance(values, weights)
	return mean, variance
}
