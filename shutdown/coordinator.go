// Package shutdown implements the shutdown coordinator entity
// (spec.md §4.4): it waits for every user entity to finish, then cascades
// END_OF_SIMULATION through GIS and, if one is configured, a report writer
// (config.Build passes the statistics sink as that report writer).
package shutdown

import (
	"github.com/sirupsen/logrus"

	"github.com/krfmo/gridsim-sub001/engine"
)

// Coordinator blocks until it has received N END_OF_SIMULATION messages
// from user entities, then triggers the GIS fan-out and, after a short
// quiesce pause, notifies the report writer if one is configured
// before terminating itself (spec.md §4.4).
//
// Invariant (documented usage contract, spec.md §4.4): if N does not
// match the number of user entities that will actually send
// END_OF_SIMULATION, the simulator deadlocks. Grounded on the teacher's
// sim/cluster/coordinator.go N-of-M barrier shape.
type Coordinator struct {
	N              int
	GIS            engine.EntityID
	ReportWriter   engine.EntityID
	HasReportWriter bool
	QuiescePause   float64

	log *logrus.Entry
}

// New builds a Coordinator waiting for n user entities to finish.
func New(n int, gisID engine.EntityID, quiescePause float64) *Coordinator {
	return &Coordinator{
		N:            n,
		GIS:          gisID,
		QuiescePause: quiescePause,
		log:          logrus.WithField("component", "shutdown"),
	}
}

// WithReportWriter configures the entity notified after GIS quiesces.
// Without one, the coordinator notifies only GIS.
func (c *Coordinator) WithReportWriter(id engine.EntityID) *Coordinator {
	c.ReportWriter = id
	c.HasReportWriter = true
	return c
}

// Body is the entity routine a Coordinator runs once registered on an
// engine (spec.md §4.4).
func (c *Coordinator) Body(ctx *engine.Context) {
	received := 0
	for received < c.N {
		ctx.GetNextEvent(func(e engine.Event) bool { return e.Tag == engine.TagEndOfSimulation })
		received++
		c.log.Debugf("shutdown: received %d/%d end-of-simulation signals", received, c.N)
	}

	ctx.Schedule(c.GIS, 0, engine.TagEndOfSimulation, nil)
	if c.QuiescePause > 0 {
		ctx.Pause(c.QuiescePause)
	}

	if c.HasReportWriter {
		ctx.Schedule(c.ReportWriter, 0, engine.TagEndOfSimulation, nil)
	}
	ctx.Terminate()
}
