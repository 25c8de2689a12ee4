package gis

import (
	"testing"

	"github.com/krfmo/gridsim-sub001/engine"
)

func dummyResource(eng *engine.Engine, name string, t *testing.T) engine.EntityID {
	id, err := eng.AddEntity(name, func(ctx *engine.Context) {
		ctx.GetNextEvent(func(e engine.Event) bool { return e.Tag == engine.TagEndOfSimulation })
		ctx.Terminate()
	})
	if err != nil {
		t.Fatalf("AddEntity %s: %v", name, err)
	}
	return id
}

func TestRegisterAndListResources(t *testing.T) {
	eng := engine.NewEngine()
	g := New()

	gisID, err := eng.AddEntity("gis", g.Body)
	if err != nil {
		t.Fatalf("AddEntity gis: %v", err)
	}
	r1 := dummyResource(eng, "r1", t)
	r2 := dummyResource(eng, "r2", t)

	results := make(chan []engine.EntityID, 1)
	_, err = eng.AddEntity("probe", func(ctx *engine.Context) {
		ctx.Schedule(gisID, 0, engine.TagRegisterResource, RegisterMsg{ID: r1})
		ctx.Schedule(gisID, 0, engine.TagRegisterResourceAR, RegisterMsg{ID: r2})
		ctx.Schedule(gisID, 0, engine.TagResourceList, struct{}{})
		reply := ctx.GetNextEvent(func(e engine.Event) bool { return e.Tag == engine.TagResourceList })
		if list, ok := reply.Payload.(ListReplyMsg); ok {
			results <- list.IDs
		}
		ctx.Schedule(gisID, 0, engine.TagEndOfSimulation, nil)
	})
	if err != nil {
		t.Fatalf("AddEntity probe: %v", err)
	}

	if err := eng.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	ids := <-results
	if len(ids) != 2 {
		t.Fatalf("expected 2 registered resources, got %v", ids)
	}
}

func TestARResourceListOnlyIncludesARResources(t *testing.T) {
	eng := engine.NewEngine()
	g := New()

	gisID, err := eng.AddEntity("gis", g.Body)
	if err != nil {
		t.Fatalf("AddEntity gis: %v", err)
	}
	r1 := dummyResource(eng, "r1", t)
	r2 := dummyResource(eng, "r2", t)

	results := make(chan []engine.EntityID, 1)
	_, err = eng.AddEntity("probe", func(ctx *engine.Context) {
		ctx.Schedule(gisID, 0, engine.TagRegisterResource, RegisterMsg{ID: r1})
		ctx.Schedule(gisID, 0, engine.TagRegisterResourceAR, RegisterMsg{ID: r2})
		ctx.Schedule(gisID, 0, engine.TagResourceListAR, struct{}{})
		reply := ctx.GetNextEvent(func(e engine.Event) bool { return e.Tag == engine.TagResourceListAR })
		if list, ok := reply.Payload.(ListReplyMsg); ok {
			results <- list.IDs
		}
		ctx.Schedule(gisID, 0, engine.TagEndOfSimulation, nil)
	})
	if err != nil {
		t.Fatalf("AddEntity probe: %v", err)
	}

	if err := eng.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	ids := <-results
	if len(ids) != 1 || ids[0] != r2 {
		t.Fatalf("expected only r2 in the AR-capable set, got %v", ids)
	}
}
