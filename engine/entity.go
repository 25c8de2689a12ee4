package engine

// EntityState is the lifecycle state of an Entity (spec.md §3 "Entity").
type EntityState int

const (
	StateRunnable EntityState = iota
	StateWaitingForEvent
	StateWaitingPredicate
	StatePaused
	StateTerminated
)

func (s EntityState) String() string {
	switch s {
	case StateRunnable:
		return "runnable"
	case StateWaitingForEvent:
		return "waiting-for-event"
	case StateWaitingPredicate:
		return "waiting-with-predicate"
	case StatePaused:
		return "paused-until-t"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Predicate selects which deferred event a GetNextEvent call is willing to
// accept. A nil Predicate matches any event.
type Predicate func(Event) bool

// Body is the entity's coroutine-shaped main routine. It runs on its own
// goroutine but the engine guarantees only one Body is ever actively
// executing at a time (spec.md §5): a Body may only suspend by calling
// Context.GetNextEvent, Context.Pause, or returning (implicit Terminate).
type Body func(ctx *Context)

// entity is the engine's private bookkeeping record for one registered
// Entity. Only ever touched by the single actively-running goroutine
// (either the engine's main loop, or the one entity body currently
// holding the turn), so it needs no internal locking.
type entity struct {
	id   EntityID
	name string
	body Body

	deferred  []Event
	state     EntityState
	predicate Predicate

	pausedUntil float64
	terminated  bool

	eventCh chan Event
	yieldCh chan struct{}
}

func newEntityRecord(id EntityID, name string, body Body) *entity {
	return &entity{
		id:       id,
		name:     name,
		body:     body,
		deferred: make([]Event, 0, 4),
		state:    StateRunnable,
		eventCh:  make(chan Event),
		yieldCh:  make(chan struct{}),
	}
}

// takeMatching removes and returns the earliest deferred event matching
// pred, preserving the arrival order of the events left behind
// (spec.md §8 property 3, "deferred-queue preservation").
func (e *entity) takeMatching(pred Predicate) (Event, bool) {
	for i, ev := range e.deferred {
		if pred == nil || pred(ev) {
			e.deferred = append(e.deferred[:i], e.deferred[i+1:]...)
			return ev, true
		}
	}
	return Event{}, false
}

// Context is the handle a Body uses to talk to the engine. It is the only
// way a Body observes or affects simulation state.
type Context struct {
	engine *Engine
	rec    *entity
}

// ID returns the entity's stable identifier.
func (c *Context) ID() EntityID { return c.rec.id }

// Name returns the entity's unique registered name.
func (c *Context) Name() string { return c.rec.name }

// Now returns the engine's current virtual clock.
func (c *Context) Now() float64 { return c.engine.clock }

// Schedule enqueues an event addressed to dest, delivered delay time units
// from now (spec.md §4.1 "schedule"). Negative delay is clamped to zero
// with a warning; scheduling to an unknown entity is a programmer error.
func (c *Context) Schedule(dest EntityID, delay float64, tag Tag, payload any) {
	c.engine.schedule(c.rec.id, dest, delay, tag, payload)
}

// GetNextEvent suspends the calling Body until an event matching pred is
// available, either already sitting in the deferred queue or delivered in
// the future (spec.md §4.1 "getNextEvent"). A nil pred matches any event.
func (c *Context) GetNextEvent(pred Predicate) Event {
	if ev, ok := c.rec.takeMatching(pred); ok {
		return ev
	}
	c.rec.predicate = pred
	if pred == nil {
		c.rec.state = StateWaitingForEvent
	} else {
		c.rec.state = StateWaitingPredicate
	}
	c.rec.yieldCh <- struct{}{}
	ev := <-c.rec.eventCh
	c.rec.state = StateRunnable
	return ev
}

// Pause suspends the calling Body for delay time units (spec.md §4.1
// "pause"). It is implemented as a self-addressed internal event plus a
// predicate receive that accepts only that event, so it shares the same
// single suspension primitive as GetNextEvent.
func (c *Context) Pause(delay float64) {
	c.rec.state = StatePaused
	c.rec.pausedUntil = c.engine.clock + delay
	seq := c.engine.schedule(c.rec.id, c.rec.id, delay, TagInternalNoOp, nil)
	c.GetNextEvent(func(e Event) bool {
		return e.Tag == TagInternalNoOp && e.Sequence == seq
	})
}

// Terminate marks the entity terminated (spec.md §4.1 "terminate"). Any
// event already in flight toward this entity becomes undeliverable and is
// logged and dropped by the engine. The Body should return immediately
// after calling Terminate.
func (c *Context) Terminate() {
	if c.rec.terminated {
		return
	}
	c.rec.terminated = true
	c.rec.state = StateTerminated
	c.rec.yieldCh <- struct{}{}
}
