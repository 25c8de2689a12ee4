package shutdown

import (
	"testing"

	"github.com/krfmo/gridsim-sub001/engine"
)

func TestCoordinatorFansOutAfterNUsersFinish(t *testing.T) {
	eng := engine.NewEngine()

	gisDone := make(chan struct{}, 1)
	reportDone := make(chan struct{}, 1)

	gisID, err := eng.AddEntity("gis", func(ctx *engine.Context) {
		ctx.GetNextEvent(func(e engine.Event) bool { return e.Tag == engine.TagEndOfSimulation })
		gisDone <- struct{}{}
		ctx.Terminate()
	})
	if err != nil {
		t.Fatalf("AddEntity gis: %v", err)
	}

	reportID, err := eng.AddEntity("report", func(ctx *engine.Context) {
		ctx.GetNextEvent(func(e engine.Event) bool { return e.Tag == engine.TagEndOfSimulation })
		reportDone <- struct{}{}
		ctx.Terminate()
	})
	if err != nil {
		t.Fatalf("AddEntity report: %v", err)
	}

	coord := New(2, gisID, 0).WithReportWriter(reportID)
	coordID, err := eng.AddEntity("coordinator", coord.Body)
	if err != nil {
		t.Fatalf("AddEntity coordinator: %v", err)
	}

	for i := 0; i < 2; i++ {
		name := "user0"
		if i == 1 {
			name = "user1"
		}
		_, err := eng.AddEntity(name, func(ctx *engine.Context) {
			ctx.Schedule(coordID, float64(i), engine.TagEndOfSimulation, nil)
			ctx.Terminate()
		})
		if err != nil {
			t.Fatalf("AddEntity %s: %v", name, err)
		}
	}

	if err := eng.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	select {
	case <-gisDone:
	default:
		t.Fatal("gis never received END_OF_SIMULATION")
	}
	select {
	case <-reportDone:
	default:
		t.Fatal("report writer never received END_OF_SIMULATION")
	}
}

func TestCoordinatorWithoutReportWriterTerminates(t *testing.T) {
	eng := engine.NewEngine()

	gisDone := make(chan struct{}, 1)
	gisID, err := eng.AddEntity("gis", func(ctx *engine.Context) {
		ctx.GetNextEvent(func(e engine.Event) bool { return e.Tag == engine.TagEndOfSimulation })
		gisDone <- struct{}{}
		ctx.Terminate()
	})
	if err != nil {
		t.Fatalf("AddEntity gis: %v", err)
	}

	coord := New(1, gisID, 0)
	coordID, err := eng.AddEntity("coordinator", coord.Body)
	if err != nil {
		t.Fatalf("AddEntity coordinator: %v", err)
	}

	_, err = eng.AddEntity("user0", func(ctx *engine.Context) {
		ctx.Schedule(coordID, 0, engine.TagEndOfSimulation, nil)
		ctx.Terminate()
	})
	if err != nil {
		t.Fatalf("AddEntity user0: %v", err)
	}

	if err := eng.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	select {
	case <-gisDone:
	default:
		t.Fatal("gis never received END_OF_SIMULATION")
	}
	if coord.HasReportWriter {
		t.Fatal("expected HasReportWriter to remain false")
	}
}
