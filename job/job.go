// Package job defines the Job (Gridlet) and its resident bookkeeping as it
// moves through a resource's allocation policy (spec.md §3).
package job

import "github.com/krfmo/gridsim-sub001/engine"

// Status is the lifecycle state of a Job (spec.md §3, §4.5 state machine).
type Status string

const (
	StatusCreated  Status = "CREATED"
	StatusReady    Status = "READY"
	StatusQueued   Status = "QUEUED"
	StatusInExec   Status = "INEXEC"
	StatusPaused   Status = "PAUSED"
	StatusResumed  Status = "RESUMED"
	StatusSuccess  Status = "SUCCESS"
	StatusFailed   Status = "FAILED"
	StatusCanceled Status = "CANCELED"
)

// terminal reports whether a Status is one of the three end states after
// which FinishedSoFar may no longer advance (spec.md §3 Job invariant).
func (s Status) terminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusCanceled
}

// Job models a single unit of work (a "Gridlet" in the source domain's
// vocabulary), carrying the fields spec.md §3 names plus the cost
// parameters SPEC_FULL.md's supplemented feature #2 adds.
type Job struct {
	ID      string
	OwnerID engine.EntityID

	Length        float64 // total work, in millions of instructions (MI)
	InputSize     int64   // bytes
	OutputSize    int64   // bytes
	RequestedPEs  int
	ClassType     int
	ServiceLevel  int

	SubmissionTime float64
	ExecStartTime  float64
	FinishTime     float64

	Status         Status
	FinishedSoFar  float64 // MI completed; monotonic non-decreasing until terminal
	CostPerSec     float64 // copied from the owning resource at submit time
	CostSoFar      float64 // SPEC_FULL.md supplemented feature #2

	// ReservationID is set when the job was submitted against a committed
	// advance reservation (spec.md §4.6); zero value means none.
	ReservationID int64
}

// Remaining returns the MI left to execute.
func (j *Job) Remaining() float64 {
	r := j.Length - j.FinishedSoFar
	if r < 0 {
		return 0
	}
	return r
}

// AdvanceFinished moves FinishedSoFar forward by delta MI, clamped to
// Length, and is a no-op once the job has reached a terminal status
// (spec.md §3: "once SUCCESS/FAILED/CANCELED, length-finished-so-far ≤
// total length" — also implies it stops changing).
func (j *Job) AdvanceFinished(delta float64) {
	if j.Status.terminal() || delta <= 0 {
		return
	}
	j.FinishedSoFar += delta
	if j.FinishedSoFar > j.Length {
		j.FinishedSoFar = j.Length
	}
}

// AccrueCost adds to CostSoFar based on elapsed wall-clock seconds at the
// job's CostPerSec rate (SPEC_FULL.md supplemented feature #2).
func (j *Job) AccrueCost(wallClockSeconds float64) {
	if wallClockSeconds <= 0 {
		return
	}
	j.CostSoFar += wallClockSeconds * j.CostPerSec
}

// Clone returns a shallow copy, used when a resource needs to hand back a
// snapshot of a Job (e.g. in a cancel-ack) without exposing its live
// resident record to the caller.
func (j *Job) Clone() *Job {
	cp := *j
	return &cp
}
