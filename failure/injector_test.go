package failure

import (
	"testing"

	"github.com/krfmo/gridsim-sub001/engine"
	"github.com/krfmo/gridsim-sub001/grid"
)

// TestInjectorSchedulesUnavailableAndAvailable covers a node whose trace
// alternates an Unavailable row with a later Available row (spec.md §3:
// "per node, unavailable and available intervals alternate"): each row
// dispatches exactly the transition its own Type names, at its own
// StartTime.
func TestInjectorSchedulesUnavailableAndAvailable(t *testing.T) {
	eng := engine.NewEngine()

	events := map[string][]Event{
		"node1": {
			{NodeID: "node1", Type: Unavailable, StartTime: 5, EndTime: 10},
			{NodeID: "node1", Type: Available, StartTime: 10, EndTime: 10},
		},
	}

	received := make(chan []engine.Event, 1)
	resourceID, err := eng.AddEntity("resource0", func(ctx *engine.Context) {
		var got []engine.Event
		for len(got) < 2 {
			ev := ctx.GetNextEvent(nil)
			got = append(got, ev)
		}
		received <- got
		ctx.Terminate()
	})
	if err != nil {
		t.Fatalf("AddEntity resource0: %v", err)
	}

	resolve := func(nodeID string) (engine.EntityID, grid.MachineID, bool) {
		if nodeID == "node1" {
			return resourceID, grid.MachineID("m0"), true
		}
		return 0, "", false
	}

	inj := New(events, resolve)
	if _, err := eng.AddEntity("injector", inj.Body); err != nil {
		t.Fatalf("AddEntity injector: %v", err)
	}

	if err := eng.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := <-received
	if len(got) != 2 {
		t.Fatalf("expected 2 events delivered to the resource, got %d", len(got))
	}
	if got[0].Tag != engine.TagNodeUnavailable || got[0].DeliveryTime != 5 {
		t.Fatalf("unexpected first event: %+v", got[0])
	}
	if got[1].Tag != engine.TagNodeAvailable || got[1].DeliveryTime != 10 {
		t.Fatalf("unexpected second event: %+v", got[1])
	}
	if mid, ok := got[0].Payload.(grid.MachineID); !ok || mid != grid.MachineID("m0") {
		t.Fatalf("unexpected payload: %+v", got[0].Payload)
	}
}

// TestInjectorAvailableRowSchedulesOnlyRecovery proves a lone
// Available-typed row dispatches a single TagNodeAvailable at its own
// StartTime, not an unavailable/available pair — unlike a plain
// EventType-blind reading of (StartTime, EndTime).
func TestInjectorAvailableRowSchedulesOnlyRecovery(t *testing.T) {
	eng := engine.NewEngine()

	events := map[string][]Event{
		"node1": {{NodeID: "node1", Type: Available, StartTime: 5, EndTime: 8}},
	}

	received := make(chan engine.Event, 1)
	resourceID, err := eng.AddEntity("resource0", func(ctx *engine.Context) {
		received <- ctx.GetNextEvent(nil)
		ctx.Terminate()
	})
	if err != nil {
		t.Fatalf("AddEntity resource0: %v", err)
	}

	resolve := func(nodeID string) (engine.EntityID, grid.MachineID, bool) {
		if nodeID == "node1" {
			return resourceID, grid.MachineID("m0"), true
		}
		return 0, "", false
	}

	inj := New(events, resolve)
	if _, err := eng.AddEntity("injector", inj.Body); err != nil {
		t.Fatalf("AddEntity injector: %v", err)
	}

	if err := eng.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	ev := <-received
	if ev.Tag != engine.TagNodeAvailable || ev.DeliveryTime != 5 {
		t.Fatalf("expected a single TagNodeAvailable at t=5, got %+v", ev)
	}
	if eng.Clock() != 5 {
		t.Fatalf("expected the engine to settle at t=5 with no further events, got %v", eng.Clock())
	}
}

func TestInjectorSkipsUnknownNode(t *testing.T) {
	eng := engine.NewEngine()

	events := map[string][]Event{
		"ghost": {{NodeID: "ghost", Type: Unavailable, StartTime: 1, EndTime: 2}},
	}
	resolve := func(nodeID string) (engine.EntityID, grid.MachineID, bool) { return 0, "", false }

	inj := New(events, resolve)
	if _, err := eng.AddEntity("injector", inj.Body); err != nil {
		t.Fatalf("AddEntity injector: %v", err)
	}

	if err := eng.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
