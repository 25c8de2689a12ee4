package engine

import "container/heap"

// eventQueue implements a priority queue ordered by (DeliveryTime, Sequence),
// the deterministic ordering spec.md §3 requires for tie-breaking: "sequence
// breaks ties on equal deliveryTime in FIFO order of insertion."
//
// Structurally this mirrors the teacher's sim/cluster/event_heap.go
// (container/heap.Interface wrapper with Schedule/PopNext/Peek helpers);
// the tie-break itself is simpler here because spec.md does not call for a
// type-priority table, only send order.
type eventQueue struct {
	events []*Event
}

func newEventQueue() *eventQueue {
	q := &eventQueue{events: make([]*Event, 0)}
	heap.Init(q)
	return q
}

func (q *eventQueue) Len() int { return len(q.events) }

func (q *eventQueue) Less(i, j int) bool {
	ei, ej := q.events[i], q.events[j]
	if ei.DeliveryTime != ej.DeliveryTime {
		return ei.DeliveryTime < ej.DeliveryTime
	}
	return ei.Sequence < ej.Sequence
}

func (q *eventQueue) Swap(i, j int) {
	q.events[i], q.events[j] = q.events[j], q.events[i]
}

func (q *eventQueue) Push(x any) {
	q.events = append(q.events, x.(*Event))
}

func (q *eventQueue) Pop() any {
	old := q.events
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	q.events = old[:n-1]
	return item
}

// Schedule inserts an event into the queue.
func (q *eventQueue) Schedule(e *Event) {
	heap.Push(q, e)
}

// PopNext removes and returns the earliest event, or nil if the queue is empty.
func (q *eventQueue) PopNext() *Event {
	if q.Len() == 0 {
		return nil
	}
	return heap.Pop(q).(*Event)
}

// Peek returns the earliest event without removing it, or nil if empty.
func (q *eventQueue) Peek() *Event {
	if q.Len() == 0 {
		return nil
	}
	return q.events[0]
}
