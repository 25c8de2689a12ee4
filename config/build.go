package config

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/krfmo/gridsim-sub001/engine"
	"github.com/krfmo/gridsim-sub001/failure"
	"github.com/krfmo/gridsim-sub001/gis"
	"github.com/krfmo/gridsim-sub001/grid"
	"github.com/krfmo/gridsim-sub001/job"
	"github.com/krfmo/gridsim-sub001/policy"
	"github.com/krfmo/gridsim-sub001/resource"
	"github.com/krfmo/gridsim-sub001/shutdown"
	"github.com/krfmo/gridsim-sub001/stats"
)

// Simulation is a fully wired scenario, ready for Engine.Run.
type Simulation struct {
	Engine *engine.Engine
	Sink   *stats.Sink
}

// Build constructs an Engine and every entity a Scenario names: one
// GridResource per resource, a GIS, a shutdown coordinator, one user
// entity per UserConfig, a statistics sink, and (if configured) a
// failure injector (spec.md §4 table, "Grid resource" / "Grid
// information service" / "Shutdown coordinator" / "Statistics sink" /
// "Failure injection" rows).
func Build(s *Scenario) (*Simulation, error) {
	eng := engine.NewEngine()

	sink, err := stats.NewSink(stats.Config{LogPath: s.Stats.LogPath})
	if err != nil {
		return nil, fmt.Errorf("config: building stats sink: %w", err)
	}
	sinkID, err := eng.AddEntity("stats", sink.Body)
	if err != nil {
		return nil, fmt.Errorf("config: registering stats sink: %w", err)
	}

	g := gis.New()
	gisID, err := eng.AddEntity("gis", g.Body)
	if err != nil {
		return nil, fmt.Errorf("config: registering gis: %w", err)
	}

	resourceIDs := make(map[string]engine.EntityID, len(s.Resources))
	characteristicsByID := make(map[string]*grid.Characteristics, len(s.Resources))

	for _, rc := range s.Resources {
		characteristics, err := rc.buildCharacteristics()
		if err != nil {
			return nil, err
		}
		calendar := grid.NewCalendar(0)
		if rc.Calendar != nil {
			calendar = rc.Calendar.build()
		}

		var p policy.AllocationPolicy
		if characteristics.AllocationModel == grid.AdvanceReservation {
			p = policy.NewAR(characteristics, calendar, sink, nil, rc.HorizonSeconds)
		} else {
			p, err = policy.NewAllocationPolicy(characteristics.AllocationModel, characteristics, calendar, sink)
			if err != nil {
				return nil, fmt.Errorf("config: resource %q: %w", rc.ID, err)
			}
		}

		gr := resource.New(characteristics, p)
		id, err := eng.AddEntity(rc.ID, gr.Body)
		if err != nil {
			return nil, fmt.Errorf("config: registering resource %q: %w", rc.ID, err)
		}
		resourceIDs[rc.ID] = id
		characteristicsByID[rc.ID] = characteristics

		tag := engine.TagRegisterResource
		if characteristics.AllocationModel == grid.AdvanceReservation {
			tag = engine.TagRegisterResourceAR
		}
		eng.Inject(gisID, 0, tag, gis.RegisterMsg{ID: id})
	}

	coord := shutdown.New(len(s.Users), gisID, s.Shutdown.QuiescePause).WithReportWriter(sinkID)
	coordID, err := eng.AddEntity("shutdown", coord.Body)
	if err != nil {
		return nil, fmt.Errorf("config: registering shutdown coordinator: %w", err)
	}

	for _, uc := range s.Users {
		uc := uc
		if uc.ID == "" {
			return nil, fmt.Errorf("config: user missing id")
		}
		_, err := eng.AddEntity(uc.ID, func(ctx *engine.Context) {
			runUser(ctx, uc, resourceIDs, coordID)
		})
		if err != nil {
			return nil, fmt.Errorf("config: registering user %q: %w", uc.ID, err)
		}
	}

	if s.Failure != nil {
		trace, err := failure.ReadTrace(s.Failure.TracePath, traceConfig(s.Failure))
		if err != nil {
			return nil, fmt.Errorf("config: loading failure trace: %w", err)
		}
		resolve := func(nodeID string) (engine.EntityID, grid.MachineID, bool) {
			resName, ok := s.Failure.NodeResource[nodeID]
			if !ok {
				return 0, "", false
			}
			resID, ok := resourceIDs[resName]
			if !ok {
				return 0, "", false
			}
			machineName := s.Failure.NodeMachine[nodeID]
			return resID, grid.MachineID(machineName), true
		}
		inj := failure.New(trace, resolve)
		if _, err := eng.AddEntity("failure-injector", inj.Body); err != nil {
			return nil, fmt.Errorf("config: registering failure injector: %w", err)
		}
	}

	return &Simulation{Engine: eng, Sink: sink}, nil
}

func traceConfig(f *FailureConfig) failure.Config {
	cfg := failure.DefaultConfig()
	cfg.TraceStartTime = f.TraceStartTime
	return cfg
}

// runUser plays back a UserConfig's jobs against their target resources in
// submission-time order, then waits for every job it submitted to return
// before notifying the shutdown coordinator (spec.md §4.4 "every user
// entity" precondition).
func runUser(ctx *engine.Context, uc UserConfig, resourceIDs map[string]engine.EntityID, coordID engine.EntityID) {
	pending := 0
	last := 0.0
	jobs := append([]JobConfig(nil), uc.Jobs...)
	sort.SliceStable(jobs, func(a, b int) bool { return jobs[a].SubmitAt < jobs[b].SubmitAt })
	for _, jc := range jobs {
		destID, ok := resourceIDs[jc.Resource]
		if !ok {
			logrus.Warnf("user %s: job %s references unknown resource %q, skipping", uc.ID, jc.ID, jc.Resource)
			continue
		}
		if delay := jc.SubmitAt - last; delay > 0 {
			ctx.Pause(delay)
		}
		last = jc.SubmitAt

		j := &job.Job{
			ID:           jc.ID,
			OwnerID:      ctx.ID(),
			Length:       jc.Length,
			InputSize:    jc.InputSize,
			OutputSize:   jc.OutputSize,
			RequestedPEs: jc.RequestedPEs,
			ClassType:    jc.ClassType,
			ServiceLevel: jc.ServiceLevel,
		}
		ctx.Schedule(destID, 0, engine.TagSubmit, policy.SubmitMsg{Job: j, Ack: jc.Ack})
		pending++
	}

	for pending > 0 {
		ctx.GetNextEvent(func(e engine.Event) bool { return e.Tag == engine.TagReturn })
		pending--
	}

	ctx.Schedule(coordID, 0, engine.TagEndOfSimulation, nil)
}
