// Package failure implements the failure trace reader and injector entity
// spec.md §4.7 describes: externally supplied per-node availability
// transitions applied to PEs and machines while jobs are running on them.
package failure

import (
	"archive/zip"
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// EventType is the two-valued failure transition kind spec.md §3
// "Failure event" names.
type EventType string

const (
	Unavailable EventType = "unavailable-start"
	Available   EventType = "available-start"
)

// Event is one parsed trace row (spec.md §3 "Failure event"). Invariant:
// StartTime <= EndTime.
type Event struct {
	NodeID    string
	Type      EventType
	StartTime float64
	EndTime   float64
}

// Config controls trace parsing: 1-based column positions in the file,
// matching spec.md §6 "Trace formats" defaults, plus the offset used to
// discard/rebase early events.
type Config struct {
	NodeIDField    int // default 3
	EventTypeField int // default 6
	StartTimeField int // default 7
	EndTimeField   int // default 8
	MaxField       int // default 9; minimum column count a row must have

	// TraceStartTime: rows whose StartTime is earlier are discarded;
	// surviving rows have TraceStartTime subtracted from both StartTime
	// and EndTime, rebasing the trace onto the simulation's own clock
	// (spec.md §6 is silent on discard-vs-rebase; rebasing is the
	// original GridSim FailureGenerator behavior this follows).
	TraceStartTime float64
}

// DefaultConfig returns spec.md §6's default column layout.
func DefaultConfig() Config {
	return Config{NodeIDField: 3, EventTypeField: 6, StartTimeField: 7, EndTimeField: 8, MaxField: 9}
}

// Trace is a parsed failure trace, keyed by node id.
type Trace map[string][]Event

// NodesAffectedBetween returns the ids of nodes with at least one event
// overlapping [from, to) (SPEC_FULL.md supplemented feature #5). Only
// tests call it; the stats package does not use it.
func (t Trace) NodesAffectedBetween(from, to float64) []string {
	var nodes []string
	for nodeID, evs := range t {
		for _, ev := range evs {
			if ev.StartTime < to && ev.EndTime > from {
				nodes = append(nodes, nodeID)
				break
			}
		}
	}
	sort.Strings(nodes)
	return nodes
}

// ReadTrace parses a failure trace file (plain text, gzip, or zip,
// detected by extension) into a per-node event list, preserving file
// order within each node (spec.md §6 "Trace formats"; later events for
// the same node chain onto its existing list rather than becoming
// separate entries).
func ReadTrace(path string, cfg Config) (Trace, error) {
	r, closeFn, err := openTrace(path)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	events := make(Trace)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < cfg.MaxField {
			return nil, fmt.Errorf("failure: trace line %d has %d fields, want >= %d", lineNo, len(fields), cfg.MaxField)
		}

		nodeID := fields[cfg.NodeIDField-1]
		evType := EventType(fields[cfg.EventTypeField-1])
		start, err := strconv.ParseFloat(fields[cfg.StartTimeField-1], 64)
		if err != nil {
			return nil, fmt.Errorf("failure: trace line %d: bad start time: %w", lineNo, err)
		}
		end, err := strconv.ParseFloat(fields[cfg.EndTimeField-1], 64)
		if err != nil {
			return nil, fmt.Errorf("failure: trace line %d: bad end time: %w", lineNo, err)
		}
		if start < cfg.TraceStartTime {
			continue
		}
		ev := Event{NodeID: nodeID, Type: evType, StartTime: start - cfg.TraceStartTime, EndTime: end - cfg.TraceStartTime}
		events[nodeID] = append(events[nodeID], ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failure: reading trace: %w", err)
	}
	return events, nil
}

func openTrace(path string) (io.Reader, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failure: opening trace %q: %w", path, err)
	}
	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, nil, fmt.Errorf("failure: opening gzip trace %q: %w", path, err)
		}
		return gz, func() error { gz.Close(); return f.Close() }, nil
	case strings.HasSuffix(path, ".zip"):
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, nil, err
		}
		zr, err := zip.NewReader(f, info.Size())
		if err != nil {
			f.Close()
			return nil, nil, fmt.Errorf("failure: opening zip trace %q: %w", path, err)
		}
		if len(zr.File) == 0 {
			f.Close()
			return nil, nil, fmt.Errorf("failure: zip trace %q is empty", path)
		}
		rc, err := zr.File[0].Open()
		if err != nil {
			f.Close()
			return nil, nil, err
		}
		return rc, func() error { rc.Close(); return f.Close() }, nil
	default:
		return f, f.Close, nil
	}
}
