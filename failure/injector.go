package failure

import (
	"github.com/sirupsen/logrus"

	"github.com/krfmo/gridsim-sub001/engine"
	"github.com/krfmo/gridsim-sub001/grid"
)

// NodeResolver maps a trace nodeId to the resource entity that owns it
// and the MachineID within that resource's Characteristics, since the
// trace format (spec.md §6) only knows node identifiers, not engine
// ids.
type NodeResolver func(nodeID string) (resourceID engine.EntityID, machineID grid.MachineID, ok bool)

// Injector schedules TagNodeUnavailable / TagNodeAvailable events against
// the owning resource for every parsed trace Event (spec.md §4.7).
// Grounded on the teacher's sim/trace/replayer.go upfront-schedule-then-
// terminate shape: every event time is already known, so the injector
// does all its scheduling in one pass and exits rather than waiting.
type Injector struct {
	Events  Trace
	Resolve NodeResolver

	log *logrus.Entry
}

// New builds an Injector over a parsed trace and a node resolver.
func New(events Trace, resolve NodeResolver) *Injector {
	return &Injector{Events: events, Resolve: resolve, log: logrus.WithField("component", "failure")}
}

// Body is the entity routine an Injector runs once registered on an
// engine (spec.md §4.7). Each trace row is a single transition, not a
// down-then-up interval: an Unavailable row schedules only
// TagNodeUnavailable at StartTime, and an Available row schedules only
// TagNodeAvailable at StartTime (spec.md §3 models "available-start" and
// "unavailable-start" as distinct transition types, each dispatching its
// own policy action per §4.7 — setJobsFailed vs setJobsResumed — so a
// row's EndTime is not itself a second transition to schedule).
func (inj *Injector) Body(ctx *engine.Context) {
	now := ctx.Now()
	for nodeID, evs := range inj.Events {
		resourceID, machineID, ok := inj.Resolve(nodeID)
		if !ok {
			inj.log.Warnf("failure: trace references unknown node %q, skipping", nodeID)
			continue
		}
		for _, ev := range evs {
			if ev.StartTime < now {
				inj.log.Warnf("failure: dropping out-of-order event for node %q: %+v", nodeID, ev)
				continue
			}
			switch ev.Type {
			case Unavailable:
				ctx.Schedule(resourceID, ev.StartTime-now, engine.TagNodeUnavailable, machineID)
			case Available:
				ctx.Schedule(resourceID, ev.StartTime-now, engine.TagNodeAvailable, machineID)
			default:
				inj.log.Warnf("failure: dropping event with unknown type %q for node %q", ev.Type, nodeID)
			}
		}
	}
	ctx.Terminate()
}
