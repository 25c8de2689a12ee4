package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleScenario = `
resources:
  - id: r0
    allocation_model: SPACE_SHARED
    cost_per_sec: 0.5
    machines:
      - id: m0
        pes: 2
        mips: 1000

users:
  - id: user0
    jobs:
      - id: job0
        submit_at: 0
        length: 2000
        requested_pes: 1
        resource: r0
        ack: true

stats:
  log_path: ""

shutdown:
  quiesce_pause: 0
`

func TestLoadAndBuildRunsScenarioToCompletion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	if err := os.WriteFile(path, []byte(sampleScenario), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	scenario, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(scenario.Resources) != 1 || scenario.Resources[0].Machines[0].PEs != 2 {
		t.Fatalf("unexpected parsed scenario: %+v", scenario)
	}

	sim, err := Build(scenario)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if err := sim.Engine.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if sim.Engine.Clock() != 2.0 {
		t.Fatalf("expected the engine to settle at t=2.0, got %v", sim.Engine.Clock())
	}

	acc := sim.Sink.AccumulateByCategory("load.r0")
	if acc.Count() == 0 {
		t.Fatalf("expected at least one load sample to have been recorded")
	}
}

func TestLoadRejectsScenarioWithoutResources(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	if err := os.WriteFile(path, []byte("users: []\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for a scenario with no resources")
	}
}
