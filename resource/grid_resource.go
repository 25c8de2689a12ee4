// Package resource implements the GridResource entity: the wiring
// between inbound protocol events and a resource's AllocationPolicy
// (spec.md §4, table row "Grid resource").
package resource

import (
	"github.com/sirupsen/logrus"

	"github.com/krfmo/gridsim-sub001/engine"
	"github.com/krfmo/gridsim-sub001/grid"
	"github.com/krfmo/gridsim-sub001/job"
	"github.com/krfmo/gridsim-sub001/policy"
)

// GridResource dispatches events addressed to a resource entity to its
// embedded allocation policy, guarding verbs the policy doesn't support
// (spec.md §9 capability-set polymorphism: AR verbs on a non-AR resource
// fail cleanly rather than panicking).
type GridResource struct {
	Characteristics *grid.Characteristics
	Policy          policy.AllocationPolicy

	log *logrus.Entry
}

// New wires a GridResource around characteristics and an already
// constructed policy (spec.md §3: a resource's AllocationModel determines
// which policy.NewAllocationPolicy/NewAR it was built with).
func New(characteristics *grid.Characteristics, p policy.AllocationPolicy) *GridResource {
	return &GridResource{
		Characteristics: characteristics,
		Policy:          p,
		log:             logrus.WithField("resource", characteristics.ResourceID),
	}
}

// arCapable type-asserts the embedded policy for the AR capability set
// (spec.md §9).
func (g *GridResource) arCapable() (policy.ARCapable, bool) {
	ar, ok := g.Policy.(policy.ARCapable)
	return ar, ok
}

// failureAware type-asserts the embedded policy for the failure-injection
// capability set (spec.md §4.7).
func (g *GridResource) failureAware() (policy.FailureAware, bool) {
	fa, ok := g.Policy.(policy.FailureAware)
	return fa, ok
}

// Body is the entity routine a GridResource runs once registered on an
// engine (spec.md §4 "Grid resource" row).
func (g *GridResource) Body(ctx *engine.Context) {
	for {
		ev := ctx.GetNextEvent(nil)
		switch ev.Tag {
		case engine.TagSubmit:
			g.handleSubmit(ctx, ev)
		case engine.TagCancel:
			g.handleCancel(ctx, ev)
		case engine.TagPause:
			g.handlePause(ctx, ev)
		case engine.TagResume:
			g.handleResume(ctx, ev)
		case engine.TagStatus:
			g.handleStatus(ctx, ev)
		case engine.TagMove:
			g.handleMove(ctx, ev)
		case engine.TagJobComplete:
			if payload, ok := ev.Payload.(policy.CompletionPayload); ok {
				g.handleCompletion(ctx, payload)
			}
		case engine.TagARCreate:
			g.handleARCreate(ctx, ev, false)
		case engine.TagARCreateImmediate:
			g.handleARCreate(ctx, ev, true)
		case engine.TagARModify:
			g.handleARModify(ctx, ev)
		case engine.TagARCancel:
			g.handleARCancel(ctx, ev)
		case engine.TagARCommitOnly, engine.TagARCommitWithGridlet:
			g.handleARCommit(ctx, ev)
		case engine.TagARQueryStatus:
			g.handleARQuery(ctx, ev)
		case engine.TagARListBusyTime:
			g.handleARBusyFree(ctx, ev, true)
		case engine.TagARListFreeTime:
			g.handleARBusyFree(ctx, ev, false)
		case engine.TagNodeUnavailable:
			g.handleNodeUnavailable(ctx, ev)
		case engine.TagNodeAvailable:
			g.handleNodeAvailable(ctx, ev)
		case engine.TagReservationExpiry:
			if ar, ok := g.arCapable(); ok {
				if id, ok := ev.Payload.(int64); ok {
					ar.HandleExpiry(id)
				}
			}
		case engine.TagEndOfSimulation:
			ctx.Terminate()
			return
		default:
			g.log.Debugf("grid resource %s: ignoring unhandled tag %s", g.Characteristics.ResourceID, ev.Tag)
		}
	}
}

func (g *GridResource) handleSubmit(ctx *engine.Context, ev engine.Event) {
	msg, ok := ev.Payload.(policy.SubmitMsg)
	if !ok {
		return
	}
	msg.Job.CostPerSec = g.Characteristics.CostPerSec
	g.Policy.Submit(ctx, msg.Job, msg.Ack)
}

func (g *GridResource) handleCancel(ctx *engine.Context, ev engine.Event) {
	msg, ok := ev.Payload.(policy.CancelMsg)
	if !ok {
		return
	}
	j := g.Policy.Cancel(ctx, msg.JobID)
	ctx.Schedule(msg.OwnerID, 0, engine.TagCancelAck, j)
}

func (g *GridResource) handlePause(ctx *engine.Context, ev engine.Event) {
	msg, ok := ev.Payload.(policy.PauseMsg)
	if !ok {
		return
	}
	success := g.Policy.Pause(ctx, msg.JobID)
	if msg.Ack {
		ctx.Schedule(msg.OwnerID, 0, engine.TagPauseAck, policy.PauseAckMsg{JobID: msg.JobID, Success: success})
	}
}

func (g *GridResource) handleResume(ctx *engine.Context, ev engine.Event) {
	msg, ok := ev.Payload.(policy.ResumeMsg)
	if !ok {
		return
	}
	success := g.Policy.Resume(ctx, msg.JobID)
	if msg.Ack {
		ctx.Schedule(msg.OwnerID, 0, engine.TagResumeAck, policy.ResumeAckMsg{JobID: msg.JobID, Success: success})
	}
}

func (g *GridResource) handleStatus(ctx *engine.Context, ev engine.Event) {
	msg, ok := ev.Payload.(policy.StatusMsg)
	if !ok {
		return
	}
	status, found := g.Policy.Status(msg.JobID)
	ctx.Schedule(ev.SourceID, 0, engine.TagStatus, policy.StatusReplyMsg{JobID: msg.JobID, Status: status, Found: found})
}

func (g *GridResource) handleMove(ctx *engine.Context, ev engine.Event) {
	msg, ok := ev.Payload.(policy.MoveMsg)
	if !ok {
		return
	}
	success, failed := g.Policy.Move(ctx, msg.JobID, msg.Dest)
	ctx.Schedule(msg.OwnerID, 0, engine.TagMove, policy.MoveReplyMsg{JobID: msg.JobID, Success: success, Failed: failed})
}

// completer is implemented by *policy.Base (and, via embedding, by
// *policy.ARPolicy), exposing the single entry point a resource needs for
// its own self-addressed TagJobComplete wake-ups without depending on the
// unexported jobRuntime bookkeeping behind it.
type completer interface {
	HandleCompletion(ctx *engine.Context, payload policy.CompletionPayload)
}

func (g *GridResource) handleCompletion(ctx *engine.Context, payload policy.CompletionPayload) {
	if c, ok := g.Policy.(completer); ok {
		c.HandleCompletion(ctx, payload)
	}
}

func (g *GridResource) handleARCreate(ctx *engine.Context, ev engine.Event, immediate bool) {
	ar, ok := g.arCapable()
	if !ok {
		return
	}
	req, ok := ev.Payload.(policy.ARRequest)
	if !ok {
		return
	}
	var result policy.ARCreateResult
	if immediate {
		result = ar.ImmediateReservation(ctx, req)
	} else {
		result = ar.CreateReservation(ctx, req)
	}
	ctx.Schedule(ev.SourceID, 0, engine.TagReturnARCreate, result)
}

func (g *GridResource) handleARModify(ctx *engine.Context, ev engine.Event) {
	ar, ok := g.arCapable()
	if !ok {
		return
	}
	req, ok := ev.Payload.(policy.ARModifyRequest)
	if !ok {
		return
	}
	result := ar.ModifyReservation(ctx, req)
	ctx.Schedule(ev.SourceID, 0, engine.TagReturnARModify, result)
}

func (g *GridResource) handleARCancel(ctx *engine.Context, ev engine.Event) {
	ar, ok := g.arCapable()
	if !ok {
		return
	}
	req, ok := ev.Payload.(policy.ARCancelRequest)
	if !ok {
		return
	}
	result := ar.CancelReservation(ctx, req)
	ctx.Schedule(ev.SourceID, 0, engine.TagReturnARCancel, result)
}

// ARCommitRequest is the TagARCommitOnly / TagARCommitWithGridlet
// payload; Jobs is empty for a commit-only request. TransactionID is
// echoed back on the ARCommitResult reply so the initiator can match it
// to this request (spec.md §4.6).
type ARCommitRequest struct {
	TransactionID int64
	ReservationID int64
	Jobs          []*job.Job
}

func (g *GridResource) handleARCommit(ctx *engine.Context, ev engine.Event) {
	ar, ok := g.arCapable()
	if !ok {
		return
	}
	req, ok := ev.Payload.(ARCommitRequest)
	if !ok {
		return
	}
	result := ar.CommitReservation(ctx, req.TransactionID, req.ReservationID, req.Jobs)
	ctx.Schedule(ev.SourceID, 0, engine.TagReturnARCommit, result)
}

func (g *GridResource) handleARQuery(ctx *engine.Context, ev engine.Event) {
	ar, ok := g.arCapable()
	if !ok {
		return
	}
	req, ok := ev.Payload.(policy.ARQueryRequest)
	if !ok {
		return
	}
	result := ar.QueryReservation(req)
	ctx.Schedule(ev.SourceID, 0, engine.TagReturnARQueryStatus, result)
}

// ARTimeWindow is the TagARListBusyTime / TagARListFreeTime payload.
type ARTimeWindow struct {
	From, To float64
}

func (g *GridResource) handleARBusyFree(ctx *engine.Context, ev engine.Event, busy bool) {
	ar, ok := g.arCapable()
	if !ok {
		return
	}
	w, ok := ev.Payload.(ARTimeWindow)
	if !ok {
		return
	}
	replyTag := engine.TagReturnARListFreeTime
	var slots []policy.TimeSlot
	if busy {
		replyTag = engine.TagReturnARListBusyTime
		slots = ar.QueryBusyTime(w.From, w.To)
	} else {
		slots = ar.QueryFreeTime(w.From, w.To)
	}
	ctx.Schedule(ev.SourceID, 0, replyTag, slots)
}

func (g *GridResource) handleNodeUnavailable(ctx *engine.Context, ev engine.Event) {
	machineID, ok := ev.Payload.(grid.MachineID)
	if !ok {
		return
	}
	m := g.Characteristics.MachineByID(machineID)
	if m == nil {
		return
	}
	m.SetAllStatus(grid.PEFailed)
	if fa, ok := g.failureAware(); ok {
		fa.SetJobsFailed(ctx, machineID)
	}
}

func (g *GridResource) handleNodeAvailable(ctx *engine.Context, ev engine.Event) {
	machineID, ok := ev.Payload.(grid.MachineID)
	if !ok {
		return
	}
	m := g.Characteristics.MachineByID(machineID)
	if m == nil {
		return
	}
	m.SetAllStatus(grid.PEFree)
	if fa, ok := g.failureAware(); ok {
		fa.SetJobsResumed(ctx, machineID)
	}
}
