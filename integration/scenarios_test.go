// Package integration exercises full scenarios against a real
// engine.Engine wiring resource, policy, and failure together, covering
// spec.md §8's worked examples end to end.
package integration

import (
	"testing"

	"github.com/krfmo/gridsim-sub001/engine"
	"github.com/krfmo/gridsim-sub001/failure"
	"github.com/krfmo/gridsim-sub001/grid"
	"github.com/krfmo/gridsim-sub001/job"
	"github.com/krfmo/gridsim-sub001/policy"
	"github.com/krfmo/gridsim-sub001/resource"
)

func fourPESpaceShared() *grid.Characteristics {
	return &grid.Characteristics{
		ResourceID:      "r0",
		Machines:        []*grid.Machine{grid.NewMachine("m0", 4, 1000)},
		AllocationModel: grid.SpaceShared,
	}
}

// S1 — Plain submit.
func TestS1PlainSubmit(t *testing.T) {
	eng := engine.NewEngine()
	characteristics := fourPESpaceShared()
	base, err := policy.NewAllocationPolicy(grid.SpaceShared, characteristics, grid.NewCalendar(1), nil)
	if err != nil {
		t.Fatalf("NewAllocationPolicy: %v", err)
	}
	gr := resource.New(characteristics, base)

	var resourceID engine.EntityID
	ret := make(chan *job.Job, 1)
	_, err = eng.AddEntity("owner", func(ctx *engine.Context) {
		j := &job.Job{ID: "j1", OwnerID: ctx.ID(), Length: 4000, RequestedPEs: 1}
		ctx.Schedule(resourceID, 0, engine.TagSubmit, policy.SubmitMsg{Job: j, Ack: false})
		ev := ctx.GetNextEvent(func(e engine.Event) bool { return e.Tag == engine.TagReturn })
		ret <- ev.Payload.(*job.Job)
	})
	if err != nil {
		t.Fatalf("AddEntity owner: %v", err)
	}
	resourceID, err = eng.AddEntity("r0", gr.Body)
	if err != nil {
		t.Fatalf("AddEntity r0: %v", err)
	}

	if err := eng.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	j := <-ret
	if j.Status != job.StatusSuccess {
		t.Fatalf("expected SUCCESS, got %v", j.Status)
	}
	if j.FinishedSoFar != 4000 {
		t.Fatalf("expected finished-so-far 4000, got %v", j.FinishedSoFar)
	}
	if eng.Clock() != 4.0 {
		t.Fatalf("expected return at t=4.0, got %v", eng.Clock())
	}
}

// S2 — Pause then resume.
func TestS2PauseThenResume(t *testing.T) {
	eng := engine.NewEngine()
	characteristics := fourPESpaceShared()
	base, err := policy.NewAllocationPolicy(grid.SpaceShared, characteristics, grid.NewCalendar(1), nil)
	if err != nil {
		t.Fatalf("NewAllocationPolicy: %v", err)
	}
	gr := resource.New(characteristics, base)

	var resourceID engine.EntityID
	ret := make(chan *job.Job, 1)
	_, err = eng.AddEntity("owner", func(ctx *engine.Context) {
		j := &job.Job{ID: "j1", OwnerID: ctx.ID(), Length: 8000, RequestedPEs: 1}
		ctx.Schedule(resourceID, 0, engine.TagSubmit, policy.SubmitMsg{Job: j, Ack: false})

		ctx.Pause(2)
		ctx.Schedule(resourceID, 0, engine.TagPause, policy.PauseMsg{JobID: "j1", OwnerID: ctx.ID(), Ack: false})

		ctx.Pause(3)
		ctx.Schedule(resourceID, 0, engine.TagResume, policy.ResumeMsg{JobID: "j1", OwnerID: ctx.ID(), Ack: false})

		ev := ctx.GetNextEvent(func(e engine.Event) bool { return e.Tag == engine.TagReturn })
		ret <- ev.Payload.(*job.Job)
	})
	if err != nil {
		t.Fatalf("AddEntity owner: %v", err)
	}
	resourceID, err = eng.AddEntity("r0", gr.Body)
	if err != nil {
		t.Fatalf("AddEntity r0: %v", err)
	}

	if err := eng.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	j := <-ret
	if j.Status != job.StatusSuccess {
		t.Fatalf("expected SUCCESS, got %v", j.Status)
	}
	if eng.Clock() != 11 {
		t.Fatalf("expected return at t=11, got %v", eng.Clock())
	}
}

// S3 — AR create & commit happy path.
func TestS3ARCreateAndCommit(t *testing.T) {
	eng := engine.NewEngine()
	characteristics := &grid.Characteristics{
		ResourceID:      "r0",
		Machines:        []*grid.Machine{grid.NewMachine("m0", 4, 1000)},
		AllocationModel: grid.AdvanceReservation,
	}
	ar := policy.NewAR(characteristics, grid.NewCalendar(1), nil, nil, 0)
	gr := resource.New(characteristics, ar)

	var resourceID engine.EntityID
	createResult := make(chan policy.ARCreateResult, 1)
	commitResult := make(chan policy.ARCommitResult, 1)
	ret := make(chan *job.Job, 1)

	_, err := eng.AddEntity("owner", func(ctx *engine.Context) {
		req := policy.ARRequest{TransactionID: 1, UserID: ctx.ID(), StartTime: ctx.Now() + 10, Duration: 5, RequestedPE: 2}
		ctx.Schedule(resourceID, 0, engine.TagARCreate, req)
		createEv := ctx.GetNextEvent(func(e engine.Event) bool { return e.Tag == engine.TagReturnARCreate })
		result := createEv.Payload.(policy.ARCreateResult)
		createResult <- result

		ctx.Pause(10)

		j := &job.Job{ID: "arjob", OwnerID: ctx.ID(), Length: 5000, RequestedPEs: 1}
		ctx.Schedule(resourceID, 0, engine.TagARCommitWithGridlet, resource.ARCommitRequest{TransactionID: 2, ReservationID: result.ReservationID, Jobs: []*job.Job{j}})
		commitEv := ctx.GetNextEvent(func(e engine.Event) bool { return e.Tag == engine.TagReturnARCommit })
		commitResult <- commitEv.Payload.(policy.ARCommitResult)

		retEv := ctx.GetNextEvent(func(e engine.Event) bool { return e.Tag == engine.TagReturn })
		ret <- retEv.Payload.(*job.Job)
	})
	if err != nil {
		t.Fatalf("AddEntity owner: %v", err)
	}
	resourceID, err = eng.AddEntity("r0", gr.Body)
	if err != nil {
		t.Fatalf("AddEntity r0: %v", err)
	}

	if err := eng.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	res := <-createResult
	if res.Code != policy.ARCreateOK {
		t.Fatalf("expected AR_CREATE_OK, got %v", res.Code)
	}
	if res.ExpiryTime != 10 {
		t.Fatalf("expected AR_CREATE_OK(rid=%d, expiry=10), got expiry=%v", res.ReservationID, res.ExpiryTime)
	}
	commit := <-commitResult
	if commit.Code != policy.ARCreateOK {
		t.Fatalf("expected commit OK, got %v", commit.Code)
	}
	if commit.TransactionID != 2 {
		t.Fatalf("expected commit reply to echo TransactionID 2, got %d", commit.TransactionID)
	}
	j := <-ret
	if j.Status != job.StatusSuccess {
		t.Fatalf("expected SUCCESS, got %v", j.Status)
	}
	if eng.Clock() != 15 {
		t.Fatalf("expected completion at t=15, got %v", eng.Clock())
	}
}

// S4 — AR create when full.
func TestS4ARCreateWhenFull(t *testing.T) {
	eng := engine.NewEngine()
	characteristics := &grid.Characteristics{
		ResourceID:      "r0",
		Machines:        []*grid.Machine{grid.NewMachine("m0", 4, 1000)},
		AllocationModel: grid.AdvanceReservation,
	}
	ar := policy.NewAR(characteristics, grid.NewCalendar(1), nil, nil, 0)
	gr := resource.New(characteristics, ar)

	var resourceID engine.EntityID
	results := make(chan policy.ARCreateResult, 2)

	_, err := eng.AddEntity("owner", func(ctx *engine.Context) {
		first := policy.ARRequest{TransactionID: 1, UserID: ctx.ID(), StartTime: ctx.Now() + 10, Duration: 10, RequestedPE: 4}
		ctx.Schedule(resourceID, 0, engine.TagARCreate, first)
		ev1 := ctx.GetNextEvent(func(e engine.Event) bool { return e.Tag == engine.TagReturnARCreate })
		results <- ev1.Payload.(policy.ARCreateResult)

		second := policy.ARRequest{TransactionID: 2, UserID: ctx.ID(), StartTime: ctx.Now() + 12, Duration: 2, RequestedPE: 1}
		ctx.Schedule(resourceID, 0, engine.TagARCreate, second)
		ev2 := ctx.GetNextEvent(func(e engine.Event) bool { return e.Tag == engine.TagReturnARCreate })
		results <- ev2.Payload.(policy.ARCreateResult)
	})
	if err != nil {
		t.Fatalf("AddEntity owner: %v", err)
	}
	resourceID, err = eng.AddEntity("r0", gr.Body)
	if err != nil {
		t.Fatalf("AddEntity r0: %v", err)
	}

	if err := eng.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	first := <-results
	if first.Code != policy.ARCreateOK {
		t.Fatalf("expected first AR_CREATE_OK, got %v", first.Code)
	}
	second := <-results
	if second.Code != "FAIL_RESOURCE_FULL_IN_10_SEC" {
		t.Fatalf("expected FAIL_RESOURCE_FULL_IN_10_SEC, got %v", second.Code)
	}
}

// S5 — Cancel mid-execution.
func TestS5CancelMidExecution(t *testing.T) {
	eng := engine.NewEngine()
	characteristics := fourPESpaceShared()
	base, err := policy.NewAllocationPolicy(grid.SpaceShared, characteristics, grid.NewCalendar(1), nil)
	if err != nil {
		t.Fatalf("NewAllocationPolicy: %v", err)
	}
	gr := resource.New(characteristics, base)

	var resourceID engine.EntityID
	ret := make(chan *job.Job, 1)

	_, err = eng.AddEntity("owner", func(ctx *engine.Context) {
		j := &job.Job{ID: "j1", OwnerID: ctx.ID(), Length: 8000, RequestedPEs: 1}
		ctx.Schedule(resourceID, 0, engine.TagSubmit, policy.SubmitMsg{Job: j, Ack: false})

		ctx.Pause(3)
		ctx.Schedule(resourceID, 0, engine.TagCancel, policy.CancelMsg{JobID: "j1", OwnerID: ctx.ID()})
		ev := ctx.GetNextEvent(func(e engine.Event) bool { return e.Tag == engine.TagCancelAck })
		ret <- ev.Payload.(*job.Job)
	})
	if err != nil {
		t.Fatalf("AddEntity owner: %v", err)
	}
	resourceID, err = eng.AddEntity("r0", gr.Body)
	if err != nil {
		t.Fatalf("AddEntity r0: %v", err)
	}

	if err := eng.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	j := <-ret
	if j.Status != job.StatusCanceled {
		t.Fatalf("expected CANCELED, got %v", j.Status)
	}
	if j.FinishedSoFar != 3000 {
		t.Fatalf("expected finished-so-far 3000, got %v", j.FinishedSoFar)
	}
	if j.FinishTime != 3 {
		t.Fatalf("expected cancel at t=3, got %v", j.FinishTime)
	}
}

// S6 — Failure injection.
func TestS6FailureInjection(t *testing.T) {
	eng := engine.NewEngine()
	characteristics := &grid.Characteristics{
		ResourceID:      "r0",
		Machines:        []*grid.Machine{grid.NewMachine("m0", 2, 1000)},
		AllocationModel: grid.SpaceShared,
	}
	base, err := policy.NewAllocationPolicy(grid.SpaceShared, characteristics, grid.NewCalendar(1), nil)
	if err != nil {
		t.Fatalf("NewAllocationPolicy: %v", err)
	}
	gr := resource.New(characteristics, base)

	var resourceID engine.EntityID
	rets := make(chan *job.Job, 2)

	_, err = eng.AddEntity("owner", func(ctx *engine.Context) {
		j1 := &job.Job{ID: "j1", OwnerID: ctx.ID(), Length: 100000, RequestedPEs: 1}
		j2 := &job.Job{ID: "j2", OwnerID: ctx.ID(), Length: 100000, RequestedPEs: 1}
		ctx.Schedule(resourceID, 0, engine.TagSubmit, policy.SubmitMsg{Job: j1, Ack: false})
		ctx.Schedule(resourceID, 0, engine.TagSubmit, policy.SubmitMsg{Job: j2, Ack: false})

		for i := 0; i < 2; i++ {
			ev := ctx.GetNextEvent(func(e engine.Event) bool { return e.Tag == engine.TagReturn })
			rets <- ev.Payload.(*job.Job)
		}
	})
	if err != nil {
		t.Fatalf("AddEntity owner: %v", err)
	}
	resourceID, err = eng.AddEntity("r0", gr.Body)
	if err != nil {
		t.Fatalf("AddEntity r0: %v", err)
	}

	trace := failure.Trace{
		"m0": {
			{NodeID: "m0", Type: failure.Unavailable, StartTime: 5, EndTime: 10},
			{NodeID: "m0", Type: failure.Available, StartTime: 10, EndTime: 10},
		},
	}
	resolve := func(nodeID string) (engine.EntityID, grid.MachineID, bool) {
		if nodeID == "m0" {
			return resourceID, grid.MachineID("m0"), true
		}
		return 0, "", false
	}
	inj := failure.New(trace, resolve)
	if _, err := eng.AddEntity("injector", inj.Body); err != nil {
		t.Fatalf("AddEntity injector: %v", err)
	}

	if err := eng.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	j1 := <-rets
	j2 := <-rets
	if j1.Status != job.StatusFailed || j2.Status != job.StatusFailed {
		t.Fatalf("expected both jobs FAILED, got %v and %v", j1.Status, j2.Status)
	}
	for _, m := range characteristics.Machines {
		for _, pe := range m.PEs {
			if pe.Status != grid.PEFree {
				t.Fatalf("expected PE %s to be FREE after recovery, got %v", pe.ID, pe.Status)
			}
		}
	}
}
