package policy

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/krfmo/gridsim-sub001/engine"
	"github.com/krfmo/gridsim-sub001/grid"
	"github.com/krfmo/gridsim-sub001/job"
	"github.com/krfmo/gridsim-sub001/stats"
)

// AllocationPolicy is the non-AR capability set every GridResource's
// policy must implement (spec.md §4.5). Grounded on the teacher's
// sim/policy/admission.go AdmissionPolicy interface, generalized from a
// single admit-or-reject decision to the full job lifecycle.
type AllocationPolicy interface {
	Submit(ctx *engine.Context, j *job.Job, ack bool)
	Cancel(ctx *engine.Context, jobID string) *job.Job
	Pause(ctx *engine.Context, jobID string) bool
	Resume(ctx *engine.Context, jobID string) bool
	Status(jobID string) (job.Status, bool)
	Move(ctx *engine.Context, jobID string, dest engine.EntityID) (bool, *job.Job)
}

// FailureAware is the optional capability a policy implements if it wants
// to react to machine-level failure transitions (spec.md §4.7 "setJobsFailed
// / setJobsResumed"). A GridResource type-asserts for it rather than
// requiring every AllocationPolicy to implement it (spec.md §9
// capability-set polymorphism).
type FailureAware interface {
	SetJobsFailed(ctx *engine.Context, machineID grid.MachineID)
	SetJobsResumed(ctx *engine.Context, machineID grid.MachineID) bool
}

// jobRuntime is the bookkeeping Base keeps per job it currently owns,
// whether queued, running, or paused.
type jobRuntime struct {
	resident *job.Resident
	rate     float64 // MI/sec currently applied while running
	seq      uint64  // sequence of the last scheduled TagJobComplete event
}

// scheduler is the strategy a Base delegates PE-placement decisions to;
// SpaceShared and TimeShared are its two concrete implementations
// (spec.md §3 "AllocationModel").
type scheduler interface {
	name() string
	// admit attempts to place rt into execution. It must either start it
	// running (Job.Status = InExec, resident.StartSegment called) or
	// leave it in the waiting queue with its status unchanged (Queued after
	// Submit, Resumed after Resume) for a later onDeparture retry.
	admit(b *Base, ctx *engine.Context, rt *jobRuntime)
	// release reclaims whatever resources a running rt held (PEs, for
	// space-sharing) before it leaves the running set for any reason.
	release(b *Base, ctx *engine.Context, rt *jobRuntime)
	// onDeparture is called after a running job leaves (completes, is
	// cancelled, or is paused) so the strategy can admit queued work or
	// recompute shares of what remains.
	onDeparture(b *Base, ctx *engine.Context)
}

// Base implements the mechanics every AllocationPolicy shares: job
// bookkeeping, load accounting (spec.md §4.5), and the cancel/pause/
// resume/status/move verbs, deferring only the placement strategy.
// Grounded on the teacher's sim/policy/admission.go concrete-struct
// pattern; NewAllocationPolicy below is its NewAdmissionPolicy-style
// factory.
type Base struct {
	Resource *grid.Characteristics
	Calendar *grid.Calendar
	Sink     *stats.Sink

	strategy scheduler

	residents map[string]*jobRuntime
	running   map[string]*jobRuntime
	waiting   []*jobRuntime // space-shared queue; unused by time-shared

	loadAcc *stats.Accumulator

	// time-shared processor-sharing bookkeeping
	lastRecompute    float64
	lastRunningWeight float64
	lastTotalMIPS    float64

	log *logrus.Entry
}

func newBase(resource *grid.Characteristics, calendar *grid.Calendar, sink *stats.Sink) *Base {
	return &Base{
		Resource:  resource,
		Calendar:  calendar,
		Sink:      sink,
		residents: make(map[string]*jobRuntime),
		running:   make(map[string]*jobRuntime),
		loadAcc:   stats.NewAccumulator(),
		log:       logrus.WithField("component", "policy"),
	}
}

// NewAllocationPolicy is the factory the teacher's NewAdmissionPolicy
// idiom generalizes into: kind selects the scheduling discipline
// (spec.md §3 AllocationModel), mirroring grid.AllocationModel's String().
func NewAllocationPolicy(kind grid.AllocationModel, resource *grid.Characteristics, calendar *grid.Calendar, sink *stats.Sink) (*Base, error) {
	b := newBase(resource, calendar, sink)
	switch kind {
	case grid.SpaceShared:
		b.strategy = spaceShared{}
	case grid.TimeShared:
		b.strategy = timeShared{}
	default:
		return nil, fmt.Errorf("policy: unsupported allocation model %v", kind)
	}
	return b, nil
}

func totalMIPS(r *grid.Characteristics) float64 {
	var sum float64
	for _, pe := range r.AllPEs() {
		if pe.Status != grid.PEFailed {
			sum += pe.MIPSRating
		}
	}
	return sum
}

// recordLoad implements spec.md §4.5's load-accounting formula:
//
//	load = 1 − (1 − backgroundLoad) / ceil((inExecCount + 1) / totalPE)
//
// clamped to [0, 1], sampled after every admission and departure.
func (b *Base) recordLoad(ctx *engine.Context) {
	totalPE := b.Resource.TotalPEs()
	if totalPE <= 0 {
		totalPE = 1
	}
	bg := b.Calendar.BackgroundLoadAt(ctx.Now())
	denom := math.Ceil(float64(len(b.running)+1) / float64(totalPE))
	if denom <= 0 {
		denom = 1
	}
	load := 1 - (1-bg)/denom
	if load < 0 {
		load = 0
	}
	if load > 1 {
		load = 1
	}
	b.loadAcc.AddOne(load)
	if b.Sink != nil {
		b.Sink.Record(stats.Stat{Time: ctx.Now(), Category: "load." + b.Resource.ResourceID, Name: "utilization", Data: load})
	}
}

// LoadAccumulator exposes the running load summary (spec.md §4.8).
func (b *Base) LoadAccumulator() *stats.Accumulator { return b.loadAcc }

// Submit admits a Job (spec.md §4.5 "submit"): creates its Resident record
// and hands placement to the configured scheduler. Submission always
// succeeds in the sense of being accepted (queued or running); ack only
// controls whether a SubmitAckMsg is sent back to the owner.
func (b *Base) Submit(ctx *engine.Context, j *job.Job, ack bool) {
	rt := &jobRuntime{resident: job.NewResident(j, ctx.Now(), j.RequestedPEs)}
	j.Status = job.StatusQueued
	b.residents[j.ID] = rt
	b.strategy.admit(b, ctx, rt)
	b.recordLoad(ctx)
	if ack {
		ctx.Schedule(j.OwnerID, 0, engine.TagSubmitAck, SubmitAckMsg{JobID: j.ID, Success: true})
	}
}

// scheduleCompletion schedules a fresh TagJobComplete wake-up for rt at
// its current rate, bumping its staleness sequence so any previously
// scheduled completion event for this job becomes a no-op on arrival.
func (b *Base) scheduleCompletion(ctx *engine.Context, rt *jobRuntime) {
	if rt.rate <= 0 {
		return
	}
	rt.seq++
	delay := rt.resident.Job.Remaining() / rt.rate
	ctx.Schedule(ctx.ID(), delay, engine.TagJobComplete, CompletionPayload{JobID: rt.resident.Job.ID, Seq: rt.seq})
}

// finishSegment folds the elapsed running segment into the job's progress
// and cost, and ends it. Call before any status transition away from
// InExec (pause, cancel, completion, failure).
func (b *Base) finishSegment(ctx *engine.Context, rt *jobRuntime) {
	elapsed := rt.resident.ElapsedSinceSegmentStart(ctx.Now())
	rt.resident.Job.AdvanceFinished(elapsed * rt.rate)
	rt.resident.Job.AccrueCost(elapsed)
	rt.resident.EndSegment(ctx.Now())
}

// HandleCompletion processes a TagJobComplete event (spec.md §4.5 job
// completion). Stale events (superseded by a later recompute) and events
// for jobs no longer running are dropped silently.
func (b *Base) HandleCompletion(ctx *engine.Context, payload CompletionPayload) {
	rt, ok := b.residents[payload.JobID]
	if !ok || rt.seq != payload.Seq {
		return
	}
	if _, running := b.running[payload.JobID]; !running {
		return
	}
	b.finishSegment(ctx, rt)
	if rt.resident.Job.Remaining() > 1e-6 {
		// Rate changed between scheduling and firing (can happen under
		// time-sharing races); just reschedule at the current rate.
		rt.resident.StartSegment(ctx.Now())
		b.scheduleCompletion(ctx, rt)
		return
	}
	rt.resident.Job.Status = job.StatusSuccess
	rt.resident.Job.FinishTime = ctx.Now()
	b.strategy.release(b, ctx, rt)
	b.removeJob(payload.JobID)
	if b.Sink != nil {
		b.Sink.Record(stats.Stat{Time: ctx.Now(), Category: "job." + b.Resource.ResourceID, Name: "completed", Data: rt.resident.Job.Length})
	}
	ctx.Schedule(rt.resident.Job.OwnerID, 0, engine.TagReturn, rt.resident.Job)
	b.strategy.onDeparture(b, ctx)
	b.recordLoad(ctx)
}

func (b *Base) removeJob(jobID string) {
	delete(b.running, jobID)
	delete(b.residents, jobID)
}

func (b *Base) removeFromWaiting(rt *jobRuntime) {
	for i, w := range b.waiting {
		if w == rt {
			b.waiting = append(b.waiting[:i], b.waiting[i+1:]...)
			return
		}
	}
}

// Cancel implements spec.md §4.5 "cancel": always replies with either the
// cancelled Job or a synthetic FAILED Job if the id is unknown or already
// terminal.
func (b *Base) Cancel(ctx *engine.Context, jobID string) *job.Job {
	rt, ok := b.residents[jobID]
	if !ok {
		return &job.Job{ID: jobID, Status: job.StatusFailed}
	}
	j := rt.resident.Job
	switch j.Status {
	case job.StatusInExec:
		b.finishSegment(ctx, rt)
		b.strategy.release(b, ctx, rt)
		b.removeJob(jobID)
	case job.StatusQueued, job.StatusPaused, job.StatusResumed:
		b.removeFromWaiting(rt)
		delete(b.residents, jobID)
	default:
		return j.Clone()
	}
	j.Status = job.StatusCanceled
	j.FinishTime = ctx.Now()
	b.strategy.onDeparture(b, ctx)
	b.recordLoad(ctx)
	return j
}

// Pause implements spec.md §4.5 "pause": only a running job can be
// paused.
func (b *Base) Pause(ctx *engine.Context, jobID string) bool {
	rt, ok := b.residents[jobID]
	if !ok || rt.resident.Job.Status != job.StatusInExec {
		return false
	}
	b.finishSegment(ctx, rt)
	b.strategy.release(b, ctx, rt)
	rt.resident.Job.Status = job.StatusPaused
	delete(b.running, jobID)
	b.strategy.onDeparture(b, ctx)
	b.recordLoad(ctx)
	return true
}

// Resume implements spec.md §4.5 "resume": a paused job re-enters the
// placement strategy, preserving its original FirstExecStartTime.
func (b *Base) Resume(ctx *engine.Context, jobID string) bool {
	rt, ok := b.residents[jobID]
	if !ok || rt.resident.Job.Status != job.StatusPaused {
		return false
	}
	rt.resident.Job.Status = job.StatusResumed
	b.strategy.admit(b, ctx, rt)
	b.recordLoad(ctx)
	return true
}

// Status implements spec.md §4.5 "status": a pure query, no side effects.
func (b *Base) Status(jobID string) (job.Status, bool) {
	rt, ok := b.residents[jobID]
	if !ok {
		return "", false
	}
	return rt.resident.Job.Status, true
}

// Move implements spec.md §4.5 "move": withdraws the job from this
// resource and resubmits it at dest. Fails if the job is unknown or
// already terminal.
func (b *Base) Move(ctx *engine.Context, jobID string, dest engine.EntityID) (bool, *job.Job) {
	rt, ok := b.residents[jobID]
	if !ok {
		return false, nil
	}
	j := rt.resident.Job
	switch j.Status {
	case job.StatusInExec:
		b.finishSegment(ctx, rt)
		b.strategy.release(b, ctx, rt)
		b.removeJob(jobID)
	case job.StatusQueued, job.StatusPaused, job.StatusResumed:
		b.removeFromWaiting(rt)
		delete(b.residents, jobID)
	default:
		return false, j.Clone()
	}
	b.strategy.onDeparture(b, ctx)
	b.recordLoad(ctx)
	j.Status = job.StatusReady
	ctx.Schedule(dest, 0, engine.TagSubmit, SubmitMsg{Job: j, Ack: true})
	return true, nil
}

// SetJobsFailed implements the FailureAware capability (spec.md §4.7):
// every resident bound to machineID is moved to FAILED and returned to
// its owner. The PEs themselves are marked FAILED by the GridResource
// (handleNodeUnavailable) before it calls this, not here.
func (b *Base) SetJobsFailed(ctx *engine.Context, machineID grid.MachineID) {
	for id, rt := range b.residents {
		if !boundTo(rt, machineID) {
			continue
		}
		if _, running := b.running[id]; running {
			b.finishSegment(ctx, rt)
			b.strategy.release(b, ctx, rt)
		} else {
			b.removeFromWaiting(rt)
		}
		b.removeJob(id)
		rt.resident.Job.Status = job.StatusFailed
		rt.resident.Job.FinishTime = ctx.Now()
		ctx.Schedule(rt.resident.Job.OwnerID, 0, engine.TagReturn, rt.resident.Job)
	}
	b.strategy.onDeparture(b, ctx)
	b.recordLoad(ctx)
}

// SetJobsResumed implements the FailureAware capability: machineID has
// recovered, so the strategy gets another chance to admit whatever is
// still waiting. Returns false if nothing was promoted ("no resumable
// jobs exist").
func (b *Base) SetJobsResumed(ctx *engine.Context, machineID grid.MachineID) bool {
	before := len(b.running)
	b.strategy.onDeparture(b, ctx)
	b.recordLoad(ctx)
	return len(b.running) > before
}

func boundTo(rt *jobRuntime, machineID grid.MachineID) bool {
	for _, m := range rt.resident.Machines {
		if m == machineID {
			return true
		}
	}
	return false
}
