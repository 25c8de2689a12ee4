package job

import "github.com/krfmo/gridsim-sub001/grid"

// Resident wraps a Job with the bookkeeping a resource's allocation
// policy needs while the job lives on that resource (spec.md §3
// "Resident Job record"). Grounded on the teacher's
// sim/cluster/instance.go wrapper-around-a-core-type shape.
type Resident struct {
	Job *Job

	ArrivalTime         float64
	FirstExecStartTime  float64
	LatestExecStartTime float64
	HasExecStarted      bool

	// AccumulatedCompletion is the sum of (resume-segment end - resume-
	// segment begin) across every pause/resume cycle (spec.md §3
	// invariant).
	AccumulatedCompletion float64

	// currentSegmentStart holds the start time of the segment in progress
	// while CurrentlyRunning is true (it is 0 for a segment that starts at
	// t=0); pausing folds the elapsed segment into AccumulatedCompletion.
	currentSegmentStart float64
	CurrentlyRunning    bool

	Machines []grid.MachineID
	PEs      []grid.PEID

	ReservationID    int64 // 0 = none
	ReservationStart float64
	ReservationDur   float64

	RequiredPEs int
}

// NewResident creates a Resident for job j arriving at t.
func NewResident(j *Job, t float64, requiredPEs int) *Resident {
	return &Resident{
		Job:         j,
		ArrivalTime: t,
		RequiredPEs: requiredPEs,
	}
}

// StartSegment marks the beginning of an execution segment at time t,
// recording the first-ever exec-start time exactly once (spec.md §4.5
// resume contract: "the first-ever exec-start time must be preserved
// across pause/resume cycles").
func (r *Resident) StartSegment(t float64) {
	if !r.HasExecStarted {
		r.FirstExecStartTime = t
		r.HasExecStarted = true
	}
	r.LatestExecStartTime = t
	r.currentSegmentStart = t
	r.CurrentlyRunning = true
}

// EndSegment closes the currently running execution segment at time t,
// folding its duration into AccumulatedCompletion.
func (r *Resident) EndSegment(t float64) {
	if !r.CurrentlyRunning {
		return
	}
	r.AccumulatedCompletion += t - r.currentSegmentStart
	r.CurrentlyRunning = false
}

// WallClock returns the total elapsed time from arrival to t.
func (r *Resident) WallClock(t float64) float64 {
	return t - r.ArrivalTime
}

// ElapsedSinceSegmentStart returns how long the current execution segment
// has been running as of t, or zero if the resident isn't currently
// running. Policies use this to fold partial-segment progress into
// FinishedSoFar before pausing, cancelling, or completing a job.
func (r *Resident) ElapsedSinceSegmentStart(t float64) float64 {
	if !r.CurrentlyRunning {
		return 0
	}
	d := t - r.currentSegmentStart
	if d < 0 {
		return 0
	}
	return d
}
