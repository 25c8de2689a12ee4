// Package engine implements the discrete-event simulation kernel:
// a global priority queue of timestamped events, a table of named
// entities, and predicate-matched receive for each entity's cooperative
// body (spec.md §4.1, §4.2, §5).
//
// Entities run as goroutines, but the engine hands off control to exactly
// one at a time via an unbuffered-channel rendezvous: after delivering an
// event, the engine blocks until that entity suspends again (by calling
// GetNextEvent, Pause, or returning). This gives the single-threaded
// cooperative semantics spec.md §5 requires without an explicit global
// lock — at most one goroutine is ever doing real work.
package engine

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// systemSourceID is used for events injected from outside any entity body
// (scenario setup, test harnesses), before or between turns.
const systemSourceID EntityID = -1

// Engine owns the event queue, the entity table, and the virtual clock.
// It is the explicit simulation context spec.md §9 calls for in place of
// an ambient singleton: callers construct one Engine per run and pass it
// (or entities registered on it) wherever simulation state is needed.
type Engine struct {
	clock float64
	queue *eventQueue

	entities         map[EntityID]*entity
	nameToID         map[string]EntityID
	registrationOrder []EntityID
	nextEntityID     EntityID
	nextSeq          uint64

	started bool

	log *logrus.Entry
}

// NewEngine creates an Engine with an empty entity table and clock at 0.
func NewEngine() *Engine {
	return &Engine{
		queue:    newEventQueue(),
		entities: make(map[EntityID]*entity),
		nameToID: make(map[string]EntityID),
		log:      logrus.WithField("component", "engine"),
	}
}

// Clock returns the engine's current virtual time.
func (e *Engine) Clock() float64 { return e.clock }

// AddEntity registers a new entity with a unique name and body routine.
// Entities must be registered before Start/Run (spec.md §3: "Created at
// simulation setup before startSimulation").
func (e *Engine) AddEntity(name string, body Body) (EntityID, error) {
	if e.started {
		return 0, fmt.Errorf("engine: cannot add entity %q after simulation has started", name)
	}
	if name == "" {
		return 0, fmt.Errorf("engine: entity name must not be empty")
	}
	if _, exists := e.nameToID[name]; exists {
		return 0, fmt.Errorf("engine: entity name %q already registered", name)
	}
	if body == nil {
		return 0, fmt.Errorf("engine: entity %q requires a non-nil body", name)
	}

	id := e.nextEntityID
	e.nextEntityID++

	rec := newEntityRecord(id, name, body)
	e.entities[id] = rec
	e.nameToID[name] = id
	e.registrationOrder = append(e.registrationOrder, id)

	return id, nil
}

// Resolve looks up an entity's id by its registered name.
func (e *Engine) Resolve(name string) (EntityID, bool) {
	id, ok := e.nameToID[name]
	return id, ok
}

// Name returns the registered name for an entity id, or "" if unknown.
func (e *Engine) Name(id EntityID) string {
	if rec, ok := e.entities[id]; ok {
		return rec.name
	}
	return ""
}

// schedule is the single internal path all scheduling goes through,
// whether called from Context.Schedule (an active entity turn) or from
// Inject (pre-run setup). Returns the sequence number assigned to the
// event, which callers use to build exact-match predicates (Pause does
// this against its own internal wake-up).
func (e *Engine) schedule(src, dest EntityID, delay float64, tag Tag, payload any) uint64 {
	if delay < 0 {
		e.log.Warnf("schedule: negative delay %v from %d to %d clamped to 0", delay, src, dest)
		delay = 0
	}
	if _, ok := e.entities[dest]; !ok {
		panic(fmt.Sprintf("engine: schedule to unknown entity id %d (tag=%v)", dest, tag))
	}

	seq := e.nextSeq
	e.nextSeq++

	ev := &Event{
		SourceID:     src,
		DestID:       dest,
		SendTime:     e.clock,
		DeliveryTime: e.clock + delay,
		Tag:          tag,
		Payload:      payload,
		Sequence:     seq,
	}
	e.queue.Schedule(ev)
	e.log.Debugf("scheduled %s from=%d to=%d at t=%v (delay=%v)", tag, src, dest, ev.DeliveryTime, delay)
	return seq
}

// Inject schedules an event from outside any entity body. Intended for
// simulation setup (the first arrivals of a workload) or test harnesses,
// and must only be called before Run/Start or between two calls to Run
// when no entity turn is in progress; it is not safe to call concurrently
// with a running simulation.
func (e *Engine) Inject(dest EntityID, delay float64, tag Tag, payload any) {
	e.schedule(systemSourceID, dest, delay, tag, payload)
}

// Start launches every registered entity's body and lets each run to its
// first suspension point, in registration order, before any event is
// delivered. This matches spec.md §3's "created... before startSimulation"
// ordering and keeps setup itself single-threaded.
func (e *Engine) Start() error {
	if e.started {
		return fmt.Errorf("engine: already started")
	}
	e.started = true
	for _, id := range e.registrationOrder {
		rec := e.entities[id]
		e.launch(rec)
	}
	return nil
}

func (e *Engine) launch(rec *entity) {
	ctx := &Context{engine: e, rec: rec}
	go func() {
		rec.body(ctx)
		if !rec.terminated {
			rec.terminated = true
			rec.state = StateTerminated
			rec.yieldCh <- struct{}{}
		}
	}()
	<-rec.yieldCh
}

// Run drains the event queue, advancing the clock strictly monotonically
// and delivering exactly one event at a time, until no future events
// remain (spec.md §4.1). It calls Start automatically if the simulation
// has not yet been started.
func (e *Engine) Run() error {
	if !e.started {
		if err := e.Start(); err != nil {
			return err
		}
	}

	for {
		ev := e.queue.PopNext()
		if ev == nil {
			break
		}
		if ev.DeliveryTime < e.clock {
			panic(fmt.Sprintf("engine: clock moved backwards delivering %s at %v (clock=%v)", ev.Tag, ev.DeliveryTime, e.clock))
		}
		e.clock = ev.DeliveryTime

		rec, ok := e.entities[ev.DestID]
		if !ok || rec.terminated {
			e.log.Warnf("dropping undeliverable %s for entity %d at t=%v", ev.Tag, ev.DestID, e.clock)
			continue
		}

		rec.deferred = append(rec.deferred, *ev)
		e.tryDeliver(rec)
	}

	e.log.Infof("simulation halted at t=%v, %d entities remain", e.clock, e.liveEntityCount())
	return nil
}

// tryDeliver hands the earliest matching deferred event to rec if rec is
// currently waiting and a match exists, and blocks until rec suspends
// again (spec.md §4.1 main loop: "resumes any entity blocked... one at a
// time"). If rec is not waiting, or no deferred event matches, it is a
// no-op: the event stays queued for a later GetNextEvent call.
func (e *Engine) tryDeliver(rec *entity) {
	if rec.state != StateWaitingForEvent && rec.state != StateWaitingPredicate && rec.state != StatePaused {
		return
	}
	ev, ok := rec.takeMatching(rec.predicate)
	if !ok {
		return
	}
	rec.state = StateRunnable
	rec.eventCh <- ev
	<-rec.yieldCh
}

func (e *Engine) liveEntityCount() int {
	n := 0
	for _, rec := range e.entities {
		if !rec.terminated {
			n++
		}
	}
	return n
}
