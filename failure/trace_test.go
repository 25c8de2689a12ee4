package failure

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile %s: %v", path, err)
	}
	return path
}

func TestReadTraceParsesColumnsAndSkipsComments(t *testing.T) {
	dir := t.TempDir()
	content := "# comment line\n" +
		"\n" +
		"1 2 node1 4 5 unavailable-start 100 200 9\n" +
		"1 2 node1 4 5 available-start 200 210 9\n" +
		"1 2 node2 4 5 unavailable-start 50 60 9\n"
	path := writeFile(t, dir, "trace.txt", content)

	events, err := ReadTrace(path, DefaultConfig())
	if err != nil {
		t.Fatalf("ReadTrace: %v", err)
	}

	if len(events["node1"]) != 2 {
		t.Fatalf("expected 2 events for node1, got %d", len(events["node1"]))
	}
	if events["node1"][0].Type != Unavailable || events["node1"][0].StartTime != 100 || events["node1"][0].EndTime != 200 {
		t.Fatalf("unexpected node1[0]: %+v", events["node1"][0])
	}
	if len(events["node2"]) != 1 || events["node2"][0].StartTime != 50 {
		t.Fatalf("unexpected node2 events: %+v", events["node2"])
	}
}

func TestReadTraceDiscardsAndRebasesBeforeTraceStart(t *testing.T) {
	dir := t.TempDir()
	content := "1 2 node1 4 5 unavailable-start 10 20 9\n" +
		"1 2 node1 4 5 available-start 150 250 9\n"
	path := writeFile(t, dir, "trace.txt", content)

	cfg := DefaultConfig()
	cfg.TraceStartTime = 100

	events, err := ReadTrace(path, cfg)
	if err != nil {
		t.Fatalf("ReadTrace: %v", err)
	}
	if len(events["node1"]) != 1 {
		t.Fatalf("expected the early event to be discarded, got %+v", events["node1"])
	}
	ev := events["node1"][0]
	if ev.StartTime != 50 || ev.EndTime != 150 {
		t.Fatalf("expected rebased times 50/150, got %+v", ev)
	}
}

func TestReadTraceRejectsShortRows(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "trace.txt", "1 2 node1 4 5 unavailable-start 10\n")

	if _, err := ReadTrace(path, DefaultConfig()); err == nil {
		t.Fatal("expected an error for a row with too few fields")
	}
}

func TestTraceNodesAffectedBetween(t *testing.T) {
	tr := Trace{
		"node1": {{NodeID: "node1", StartTime: 10, EndTime: 20}},
		"node2": {{NodeID: "node2", StartTime: 100, EndTime: 200}},
	}

	nodes := tr.NodesAffectedBetween(0, 50)
	if len(nodes) != 1 || nodes[0] != "node1" {
		t.Fatalf("expected only node1 affected in [0,50), got %v", nodes)
	}

	nodes = tr.NodesAffectedBetween(0, 1000)
	if len(nodes) != 2 {
		t.Fatalf("expected both nodes affected, got %v", nodes)
	}
}

func TestReadTraceGzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.txt.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte("1 2 node1 4 5 unavailable-start 10 20 9\n")); err != nil {
		t.Fatalf("gzip Write: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip Close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	events, err := ReadTrace(path, DefaultConfig())
	if err != nil {
		t.Fatalf("ReadTrace: %v", err)
	}
	if len(events["node1"]) != 1 {
		t.Fatalf("expected 1 event from gzip trace, got %d", len(events["node1"]))
	}
}
