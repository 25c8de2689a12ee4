// Package gis implements the Grid Information Service: the singleton
// registry entity resources and network entities register with, and the
// fan-out point for END_OF_SIMULATION (spec.md §4.3).
package gis

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/krfmo/gridsim-sub001/engine"
)

// RegisterMsg is the TagRegisterResource / TagRegisterResourceAR /
// TagRegisterLink / TagRegisterRouter payload: the registering entity's
// own id, since GIS has no other way to learn it.
type RegisterMsg struct {
	ID engine.EntityID
}

// RegisterRegionalGISMsg is the TagRegisterRegionalGIS payload.
type RegisterRegionalGISMsg struct {
	ID engine.EntityID
}

// ListReplyMsg is the TagResourceList / TagResourceListAR reply payload.
type ListReplyMsg struct {
	IDs []engine.EntityID
}

// GIS is the registry entity (spec.md §4.3). A simulation registers
// exactly one. Grounded on the teacher's sim/cluster/registry.go
// id-set-plus-fan-out shape, generalized from a GPU-pool registry to a
// grid resource registry.
type GIS struct {
	resources   map[engine.EntityID]bool
	arResources map[engine.EntityID]bool
	networks    map[engine.EntityID]bool
	regionals   []engine.EntityID

	log *logrus.Entry
}

// New returns an empty GIS.
func New() *GIS {
	return &GIS{
		resources:   make(map[engine.EntityID]bool),
		arResources: make(map[engine.EntityID]bool),
		networks:    make(map[engine.EntityID]bool),
		log:         logrus.WithField("component", "gis"),
	}
}

func sortedKeys(m map[engine.EntityID]bool) []engine.EntityID {
	ids := make([]engine.EntityID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Body is the entity routine a GIS runs once registered on an engine
// (spec.md §4.3).
func (g *GIS) Body(ctx *engine.Context) {
	for {
		ev := ctx.GetNextEvent(nil)
		switch ev.Tag {
		case engine.TagRegisterResource:
			if msg, ok := ev.Payload.(RegisterMsg); ok {
				g.resources[msg.ID] = true
			}
		case engine.TagRegisterResourceAR:
			if msg, ok := ev.Payload.(RegisterMsg); ok {
				g.resources[msg.ID] = true
				g.arResources[msg.ID] = true
			}
		case engine.TagRegisterLink, engine.TagRegisterRouter:
			if msg, ok := ev.Payload.(RegisterMsg); ok {
				g.networks[msg.ID] = true
			}
		case engine.TagRegisterRegionalGIS:
			if msg, ok := ev.Payload.(RegisterRegionalGISMsg); ok {
				g.regionals = append(g.regionals, msg.ID)
			}
		case engine.TagResourceList:
			g.replyList(ctx, ev.SourceID, engine.TagResourceList, g.resources)
		case engine.TagResourceListAR:
			g.replyList(ctx, ev.SourceID, engine.TagResourceListAR, g.arResources)
		case engine.TagEndOfSimulation:
			g.fanOut(ctx)
			ctx.Terminate()
			return
		default:
			g.processOtherEvent(ctx, ev)
		}
	}
}

// replyList answers a RESOURCE_LIST[_AR] query, forwarding the request to
// every regional GIS first and merging their answers (SPEC_FULL.md
// supplemented feature #1: a hierarchy of regional GIS entities, grounded
// on the original GridSim's top-level/regional GIS split that the
// distilled spec.md collapses to a single registry).
func (g *GIS) replyList(ctx *engine.Context, requester engine.EntityID, tag engine.Tag, set map[engine.EntityID]bool) {
	ids := sortedKeys(set)
	for _, regional := range g.regionals {
		ctx.Schedule(regional, 0, tag, struct{}{})
		reply := ctx.GetNextEvent(func(e engine.Event) bool { return e.Tag == tag && e.SourceID == regional })
		if list, ok := reply.Payload.(ListReplyMsg); ok {
			ids = append(ids, list.IDs...)
		}
	}
	ctx.Schedule(requester, 0, tag, ListReplyMsg{IDs: ids})
}

// fanOut sends END_OF_SIMULATION to every registered resource, network
// entity, and regional GIS exactly once, then clears GIS's own sets
// (spec.md §4.3).
func (g *GIS) fanOut(ctx *engine.Context) {
	seen := make(map[engine.EntityID]bool)
	send := func(id engine.EntityID) {
		if seen[id] {
			return
		}
		seen[id] = true
		ctx.Schedule(id, 0, engine.TagEndOfSimulation, nil)
	}
	for id := range g.resources {
		send(id)
	}
	for id := range g.networks {
		send(id)
	}
	for _, id := range g.regionals {
		send(id)
	}
	g.resources = make(map[engine.EntityID]bool)
	g.arResources = make(map[engine.EntityID]bool)
	g.networks = make(map[engine.EntityID]bool)
	g.regionals = nil
}

// processOtherEvent is the hook spec.md §4.3 names for tags GIS doesn't
// otherwise recognize; it only logs, matching the original GridSim's
// silent-ignore-with-debug-log default.
func (g *GIS) processOtherEvent(ctx *engine.Context, ev engine.Event) {
	g.log.Debugf("gis: ignoring unrecognized tag %s from %d", ev.Tag, ev.SourceID)
}
