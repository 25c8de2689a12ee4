// Package policy implements the allocation-policy and advance-reservation
// capability sets a GridResource dispatches to (spec.md §4.5, §4.6).
// Grounded on the teacher's sim/policy/admission.go interface+factory
// idiom, generalized from admission control to full job lifecycle and
// reservation management.
package policy

import (
	"github.com/krfmo/gridsim-sub001/engine"
	"github.com/krfmo/gridsim-sub001/job"
)

// SubmitMsg is the TagSubmit payload.
type SubmitMsg struct {
	Job *job.Job
	Ack bool
}

// SubmitAckMsg is the TagSubmitAck reply payload (spec.md §4.5 submit).
type SubmitAckMsg struct {
	JobID   string
	Success bool
}

// CancelMsg is the TagCancel payload.
type CancelMsg struct {
	JobID   string
	OwnerID engine.EntityID
}

// PauseMsg is the TagPause payload.
type PauseMsg struct {
	JobID   string
	OwnerID engine.EntityID
	Ack     bool
}

// PauseAckMsg is the TagPauseAck reply payload.
type PauseAckMsg struct {
	JobID   string
	Success bool
}

// ResumeMsg is the TagResume payload.
type ResumeMsg struct {
	JobID   string
	OwnerID engine.EntityID
	Ack     bool
}

// ResumeAckMsg is the TagResumeAck reply payload.
type ResumeAckMsg struct {
	JobID   string
	Success bool
}

// StatusMsg is the TagStatus request payload.
type StatusMsg struct {
	JobID string
}

// StatusReplyMsg is the TagStatus reply payload sent back from the
// resource to the querying entity (spec.md §4.5 status). An unknown job
// is reported with Found false rather than a −1 code.
type StatusReplyMsg struct {
	JobID  string
	Status job.Status
	Found  bool
}

// MoveMsg is the TagMove request payload.
type MoveMsg struct {
	JobID   string
	OwnerID engine.EntityID
	Dest    engine.EntityID
}

// MoveReplyMsg is the TagMove reply payload.
type MoveReplyMsg struct {
	JobID   string
	Success bool
	Failed  *job.Job // set when Success is false and the job had already finished
}

// CompletionPayload is the TagJobComplete payload a resource's own policy
// schedules against itself. It never crosses a real entity boundary —
// source and destination are the same GridResource — but it is exported
// so the resource package can type-assert ev.Payload against the exact
// type Base.scheduleCompletion used to schedule it.
type CompletionPayload struct {
	JobID string
	Seq   uint64
}
