package policy

import (
	"github.com/krfmo/gridsim-sub001/engine"
	"github.com/krfmo/gridsim-sub001/job"
)

// timeShared implements processor-sharing (spec.md §3 AllocationModel
// TIME_SHARED): every INEXEC job gets an equal-weighted slice of the
// resource's aggregate MIPS capacity, proportional to its requested PE
// count, recomputed whenever the running set changes. Grounded on the
// teacher's sim/cluster/fairshare.go weighted-share recompute loop,
// adapted from GPU-second shares to MIPS-second shares.
type timeShared struct{}

func (timeShared) name() string { return "TIME_SHARED" }

// admit under time-sharing never queues: the resource always "fits" a new
// job by giving every running job a smaller slice of the same capacity.
func (timeShared) admit(b *Base, ctx *engine.Context, rt *jobRuntime) {
	rt.resident.Job.Status = job.StatusInExec
	rt.resident.Job.ExecStartTime = ctx.Now()
	rt.resident.StartSegment(ctx.Now())
	b.running[rt.resident.Job.ID] = rt
	recomputeShares(b, ctx)
}

func (timeShared) release(b *Base, ctx *engine.Context, rt *jobRuntime) {
	// No exclusive PE binding under time-sharing; nothing to reclaim.
}

func (timeShared) onDeparture(b *Base, ctx *engine.Context) {
	recomputeShares(b, ctx)
}

// recomputeShares advances every currently running job's progress up to
// now at its previous rate, then assigns fresh rates proportional to
// RequiredPEs and reschedules each job's completion event. This is the
// classic processor-sharing re-evaluation: rates only ever change at
// admission/departure instants, so progress between two recomputes is
// exactly linear and can be folded in closed form.
func recomputeShares(b *Base, ctx *engine.Context) {
	now := ctx.Now()
	elapsed := now - b.lastRecompute
	if elapsed > 0 && b.lastRunningWeight > 0 {
		for _, rt := range b.running {
			if !rt.resident.CurrentlyRunning {
				continue
			}
			// A job admitted at this instant started its segment at now and
			// has no progress at the previous rate to fold in.
			seg := rt.resident.ElapsedSinceSegmentStart(now)
			share := float64(rt.resident.RequiredPEs) / b.lastRunningWeight
			rt.resident.Job.AdvanceFinished(seg * b.lastTotalMIPS * share)
			rt.resident.Job.AccrueCost(seg)
		}
	}
	// Reset every running job's segment clock to now: progress up to this
	// instant has just been folded in above, so elapsed-since-segment-start
	// bookkeeping (used by pause/cancel/completion) must start counting
	// fresh from here rather than from the job's last admission time.
	for _, rt := range b.running {
		rt.resident.StartSegment(now)
	}

	var weight float64
	for _, rt := range b.running {
		w := float64(rt.resident.RequiredPEs)
		if w <= 0 {
			w = 1
		}
		weight += w
	}
	total := totalMIPS(b.Resource)
	b.lastRecompute = now
	b.lastRunningWeight = weight
	b.lastTotalMIPS = total

	if weight <= 0 || total <= 0 {
		return
	}
	for _, rt := range b.running {
		w := float64(rt.resident.RequiredPEs)
		if w <= 0 {
			w = 1
		}
		rt.rate = total * w / weight
		b.scheduleCompletion(ctx, rt)
	}
}
