package engine

import (
	"testing"
)

// TestPingPong verifies two entities exchanging events observe strictly
// monotonic delivery times and a bounded number of round trips.
func TestPingPong(t *testing.T) {
	e := NewEngine()

	const rounds = 5
	var pongReceived int

	pingID, err := e.AddEntity("ping", func(ctx *Context) {
		var pongID EntityID
		ev := ctx.GetNextEvent(nil) // "start" kick
		pongID = EntityID(ev.Payload.(int))
		for i := 0; i < rounds; i++ {
			ctx.Schedule(pongID, 1, TagInternalNoOp, "ping")
			ctx.GetNextEvent(func(e Event) bool { return e.Tag == TagInternalNoOp })
		}
		ctx.Terminate()
	})
	if err != nil {
		t.Fatal(err)
	}

	var lastClock float64
	pongID, err := e.AddEntity("pong", func(ctx *Context) {
		for i := 0; i < rounds; i++ {
			ev := ctx.GetNextEvent(func(e Event) bool { return e.Tag == TagInternalNoOp })
			if ctx.Now() < lastClock {
				t.Errorf("clock went backwards: %v < %v", ctx.Now(), lastClock)
			}
			lastClock = ctx.Now()
			pongReceived++
			ctx.Schedule(ev.SourceID, 1, TagInternalNoOp, "pong")
		}
		ctx.Terminate()
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := e.Start(); err != nil {
		t.Fatal(err)
	}
	e.Inject(pingID, 0, TagInternalNoOp, int(pongID))

	if err := e.Run(); err != nil {
		t.Fatal(err)
	}

	if pongReceived != rounds {
		t.Errorf("expected %d pong deliveries, got %d", rounds, pongReceived)
	}
}

// TestDeferredQueuePreservation checks that an event not matching the
// current predicate survives to be observed by a later matching receive
// (spec.md §8 property 3).
func TestDeferredQueuePreservation(t *testing.T) {
	e := NewEngine()

	var observedTags []Tag
	_, err := e.AddEntity("receiver", func(ctx *Context) {
		// First wait specifically for TagSubmit, letting TagCancel sit in
		// the deferred queue.
		ev := ctx.GetNextEvent(func(e Event) bool { return e.Tag == TagSubmit })
		observedTags = append(observedTags, ev.Tag)

		ev2 := ctx.GetNextEvent(func(e Event) bool { return e.Tag == TagCancel })
		observedTags = append(observedTags, ev2.Tag)
		ctx.Terminate()
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := e.Start(); err != nil {
		t.Fatal(err)
	}

	id, _ := e.Resolve("receiver")
	// Cancel arrives first but doesn't match the first predicate.
	e.Inject(id, 0, TagCancel, nil)
	e.Inject(id, 0, TagSubmit, nil)

	if err := e.Run(); err != nil {
		t.Fatal(err)
	}

	if len(observedTags) != 2 || observedTags[0] != TagSubmit || observedTags[1] != TagCancel {
		t.Fatalf("expected [Submit, Cancel], got %v", observedTags)
	}
}

// TestPauseDelaysExactly verifies Pause suspends for exactly the requested
// delay and cannot be interrupted by unrelated deliveries.
func TestPauseDelaysExactly(t *testing.T) {
	e := NewEngine()

	var resumedAt float64
	selfID, err := e.AddEntity("sleeper", func(ctx *Context) {
		ctx.Pause(10)
		resumedAt = ctx.Now()
		ctx.Terminate()
	})
	if err != nil {
		t.Fatal(err)
	}
	e.Inject(selfID, 3, TagSubmit, nil)

	if err := e.Run(); err != nil {
		t.Fatal(err)
	}

	if resumedAt != 10 {
		t.Errorf("expected resume at t=10, got t=%v", resumedAt)
	}
}

// TestScheduleToUnknownEntityPanics enforces spec.md §4.1: scheduling to an
// unknown id is a hard (programmer) error.
func TestScheduleToUnknownEntityPanics(t *testing.T) {
	e := NewEngine()
	_, err := e.AddEntity("only", func(ctx *Context) {
		defer func() {
			r := recover()
			if r == nil {
				t.Errorf("expected panic scheduling to unknown entity")
			}
			ctx.Terminate()
		}()
		ctx.Schedule(EntityID(999), 0, TagInternalNoOp, nil)
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Run(); err != nil {
		t.Fatal(err)
	}
}

// TestUndeliverableEventIsDroppedNotFatal verifies terminated entities'
// in-flight events are logged and dropped rather than crashing the engine.
func TestUndeliverableEventIsDroppedNotFatal(t *testing.T) {
	e := NewEngine()

	id, err := e.AddEntity("shortlived", func(ctx *Context) {
		ctx.Schedule(ctx.ID(), 5, TagInternalNoOp, nil)
		ctx.Terminate()
	})
	if err != nil {
		t.Fatal(err)
	}
	_ = id

	if err := e.Run(); err != nil {
		t.Fatal(err)
	}
}
