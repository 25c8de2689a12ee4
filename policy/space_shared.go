package policy

import (
	"github.com/krfmo/gridsim-sub001/engine"
	"github.com/krfmo/gridsim-sub001/grid"
	"github.com/krfmo/gridsim-sub001/job"
)

// spaceShared binds a job to a fixed set of PEs for its entire run
// (spec.md §3 AllocationModel SPACE_SHARED); jobs that don't fit queue
// FIFO until enough PEs free up. Grounded on the teacher's
// sim/cluster/placement.go bin-packing-over-a-slice shape, adapted from
// GPU-slot packing to PE packing.
type spaceShared struct{}

func (spaceShared) name() string { return "SPACE_SHARED" }

func (spaceShared) admit(b *Base, ctx *engine.Context, rt *jobRuntime) {
	need := rt.resident.RequiredPEs
	if need <= 0 {
		need = 1
	}
	picked := pickFreePEs(b.Resource, need)
	if len(picked) < need {
		b.waiting = append(b.waiting, rt)
		return
	}
	bindPEs(rt, picked)
	rt.rate = sumMIPS(pesOf(picked))
	rt.resident.Job.Status = job.StatusInExec
	rt.resident.Job.ExecStartTime = ctx.Now()
	rt.resident.StartSegment(ctx.Now())
	b.running[rt.resident.Job.ID] = rt
	b.scheduleCompletion(ctx, rt)
}

func (spaceShared) release(b *Base, ctx *engine.Context, rt *jobRuntime) {
	for _, pe := range resolvePEs(b.Resource, rt.resident.PEs) {
		if pe.Status == grid.PEBusy {
			pe.Status = grid.PEFree
		}
	}
	rt.resident.PEs = nil
	rt.resident.Machines = nil
}

func (spaceShared) onDeparture(b *Base, ctx *engine.Context) {
	for len(b.waiting) > 0 {
		next := b.waiting[0]
		need := next.resident.RequiredPEs
		if need <= 0 {
			need = 1
		}
		picked := pickFreePEs(b.Resource, need)
		if len(picked) < need {
			return
		}
		b.waiting = b.waiting[1:]
		bindPEs(next, picked)
		next.rate = sumMIPS(pesOf(picked))
		next.resident.Job.Status = job.StatusInExec
		next.resident.Job.ExecStartTime = ctx.Now()
		next.resident.StartSegment(ctx.Now())
		b.running[next.resident.Job.ID] = next
		b.scheduleCompletion(ctx, next)
	}
}

// pePick pairs a free PE with the machine it belongs to, since PE itself
// carries no back-reference to its owning machine.
type pePick struct {
	machine grid.MachineID
	pe      *grid.PE
}

func pickFreePEs(r *grid.Characteristics, n int) []pePick {
	var picked []pePick
	for _, m := range r.Machines {
		for _, pe := range m.PEs {
			if pe.Status != grid.PEFree {
				continue
			}
			picked = append(picked, pePick{machine: m.ID, pe: pe})
			if len(picked) == n {
				return picked
			}
		}
	}
	return picked
}

func pesOf(picks []pePick) []*grid.PE {
	pes := make([]*grid.PE, len(picks))
	for i, p := range picks {
		pes[i] = p.pe
	}
	return pes
}

func resolvePEs(r *grid.Characteristics, ids []grid.PEID) []*grid.PE {
	want := make(map[grid.PEID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var found []*grid.PE
	for _, pe := range r.AllPEs() {
		if want[pe.ID] {
			found = append(found, pe)
		}
	}
	return found
}

func bindPEs(rt *jobRuntime, picks []pePick) {
	machines := map[grid.MachineID]bool{}
	ids := make([]grid.PEID, len(picks))
	for i, p := range picks {
		p.pe.Status = grid.PEBusy
		ids[i] = p.pe.ID
		machines[p.machine] = true
	}
	rt.resident.PEs = ids
	for mid := range machines {
		rt.resident.Machines = append(rt.resident.Machines, mid)
	}
}

func sumMIPS(pes []*grid.PE) float64 {
	var sum float64
	for _, pe := range pes {
		sum += pe.MIPSRating
	}
	return sum
}
