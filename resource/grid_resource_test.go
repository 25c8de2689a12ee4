package resource

import (
	"testing"

	"github.com/krfmo/gridsim-sub001/engine"
	"github.com/krfmo/gridsim-sub001/grid"
	"github.com/krfmo/gridsim-sub001/job"
	"github.com/krfmo/gridsim-sub001/policy"
)

func TestSubmitAckAndCompletionReturnToOwner(t *testing.T) {
	eng := engine.NewEngine()

	characteristics := &grid.Characteristics{
		ResourceID:      "res0",
		Machines:        []*grid.Machine{grid.NewMachine("m0", 1, 100)},
		AllocationModel: grid.SpaceShared,
	}

	var resourceID engine.EntityID
	var err error

	received := make(chan engine.Event, 4)
	ownerID, err := eng.AddEntity("owner", func(ctx *engine.Context) {
		j := &job.Job{ID: "j1", OwnerID: ctx.ID(), Length: 100, RequestedPEs: 1}
		ctx.Schedule(resourceID, 0, engine.TagSubmit, policy.SubmitMsg{Job: j, Ack: true})

		ack := ctx.GetNextEvent(func(e engine.Event) bool { return e.Tag == engine.TagSubmitAck })
		received <- ack

		ret := ctx.GetNextEvent(func(e engine.Event) bool { return e.Tag == engine.TagReturn })
		received <- ret
	})
	if err != nil {
		t.Fatalf("AddEntity owner: %v", err)
	}

	base, err := policy.NewAllocationPolicy(grid.SpaceShared, characteristics, grid.NewCalendar(1), nil)
	if err != nil {
		t.Fatalf("NewAllocationPolicy: %v", err)
	}
	gr := New(characteristics, base)
	resourceID, err = eng.AddEntity("res0", gr.Body)
	if err != nil {
		t.Fatalf("AddEntity resource: %v", err)
	}

	if err := eng.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	_ = ownerID

	ack := <-received
	ackMsg, ok := ack.Payload.(policy.SubmitAckMsg)
	if !ok || !ackMsg.Success {
		t.Fatalf("expected successful submit ack, got %+v", ack.Payload)
	}

	ret := <-received
	j, ok := ret.Payload.(*job.Job)
	if !ok || j.Status != job.StatusSuccess {
		t.Fatalf("expected returned job with SUCCESS status, got %+v", ret.Payload)
	}
}
