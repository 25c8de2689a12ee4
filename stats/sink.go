package stats

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/krfmo/gridsim-sub001/engine"
)

// Stat is a single statistics record (spec.md §4.8).
type Stat struct {
	Time     float64
	Category string
	Name     string
	Data     float64
}

// line renders a Stat in the one-line format spec.md §6 "Statistics
// output" specifies: "<time>\t<category>\t<name>\t<data>".
func (s Stat) line() string {
	return fmt.Sprintf("%v\t%s\t%s\t%v", s.Time, s.Category, s.Name, s.Data)
}

// Config controls which categories the sink excludes from its on-disk
// log and from its in-memory mirror, which may differ (spec.md §4.8).
// Grounded on the teacher's sim/trace/trace.go TraceConfig level-gating
// pattern.
type Config struct {
	LogPath              string
	LogExcludePrefixes    []string
	MemoryExcludePrefixes []string
}

func excluded(category string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(category, p) {
			return true
		}
	}
	return false
}

// Sink is the RECORD_STATISTICS-consuming entity (spec.md §4.8). It keeps
// an append-only in-memory mirror of recorded Stats and, if configured,
// an append-only text log.
type Sink struct {
	cfg    Config
	file   *os.File
	writer *bufio.Writer
	memory []Stat
	log    *logrus.Entry
}

// NewSink opens the configured log file (if any) and returns a ready Sink.
func NewSink(cfg Config) (*Sink, error) {
	s := &Sink{cfg: cfg, log: logrus.WithField("component", "stats")}
	if cfg.LogPath != "" {
		f, err := os.OpenFile(cfg.LogPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return nil, fmt.Errorf("stats: opening log %q: %w", cfg.LogPath, err)
		}
		s.file = f
		s.writer = bufio.NewWriter(f)
	}
	return s, nil
}

// Close flushes and closes the log file, if one was opened.
func (s *Sink) Close() error {
	if s.writer == nil {
		return nil
	}
	if err := s.writer.Flush(); err != nil {
		return fmt.Errorf("stats: flushing log: %w", err)
	}
	return s.file.Close()
}

// Record appends a Stat to the in-memory mirror and, unless excluded, the
// on-disk log.
func (s *Sink) Record(rec Stat) {
	if !excluded(rec.Category, s.cfg.MemoryExcludePrefixes) {
		s.memory = append(s.memory, rec)
	}
	if s.writer != nil && !excluded(rec.Category, s.cfg.LogExcludePrefixes) {
		if _, err := fmt.Fprintln(s.writer, rec.line()); err != nil {
			s.log.Warnf("stats: failed to write log line: %v", err)
		}
	}
}

// AccumulateByCategory sorts a snapshot of the in-memory mirror by
// category, and folds every row matching the given category into a fresh
// Accumulator (spec.md §4.8 RETURN_ACC_STATISTICS_BY_CATEGORY).
func (s *Sink) AccumulateByCategory(category string) *Accumulator {
	snapshot := make([]Stat, len(s.memory))
	copy(snapshot, s.memory)
	sort.SliceStable(snapshot, func(i, j int) bool {
		return snapshot[i].Category < snapshot[j].Category
	})

	acc := NewAccumulator()
	for _, rec := range snapshot {
		if rec.Category == category {
			acc.AddOne(rec.Data)
		}
	}
	return acc
}

// Categories returns the distinct categories recorded so far, sorted.
func (s *Sink) Categories() []string {
	seen := make(map[string]bool)
	for _, rec := range s.memory {
		seen[rec.Category] = true
	}
	cats := make([]string, 0, len(seen))
	for c := range seen {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}

// Print writes a one-line mean/min/max/count summary per category to
// stdout (SPEC_FULL.md CLI section: cmd/gridsim's final report step,
// mirroring the teacher's sim/metrics.go Metrics.Print).
func (s *Sink) Print() {
	fmt.Println("=== GridSim Statistics ===")
	for _, cat := range s.Categories() {
		acc := s.AccumulateByCategory(cat)
		fmt.Printf("%-28s count=%-6d mean=%-12.4f min=%-12.4f max=%-12.4f\n",
			cat, acc.Count(), acc.Mean(), acc.Min(), acc.Max())
	}
}

// Body is the entity routine a Sink runs once registered on an engine: it
// consumes RECORD_STATISTICS events and replies to
// RETURN_ACC_STATISTICS_BY_CATEGORY requests, until END_OF_SIMULATION.
func (s *Sink) Body(ctx *engine.Context) {
	for {
		ev := ctx.GetNextEvent(nil)
		switch ev.Tag {
		case engine.TagRecordStatistics:
			if rec, ok := ev.Payload.(Stat); ok {
				s.Record(rec)
			}
		case engine.TagReturnAccStatisticsByCategory:
			category, _ := ev.Payload.(string)
			acc := s.AccumulateByCategory(category)
			ctx.Schedule(ev.SourceID, 0, engine.TagReturnAccStatisticsByCategory, acc)
		case engine.TagEndOfSimulation:
			if err := s.Close(); err != nil {
				s.log.Warnf("stats: error closing log on shutdown: %v", err)
			}
			ctx.Terminate()
			return
		}
	}
}
