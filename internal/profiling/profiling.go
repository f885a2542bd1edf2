// Package profiling accumulates wall time per named section over one tick,
// so a slow tick can be reported with its most expensive parts.
package profiling

import (
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	mu     sync.Mutex
	totals = make(map[string]time.Duration)
	counts = make(map[string]int)
)

// Track returns a stop function that records the elapsed time under name.
// Usage: defer profiling.Track("world.Update")()
func Track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		mu.Lock()
		totals[name] += d
		counts[name]++
		mu.Unlock()
	}
}

// ResetFrame clears the current totals. Drivers call it at the start of
// each tick.
func ResetFrame() {
	mu.Lock()
	clear(totals)
	clear(counts)
	mu.Unlock()
}

// Entry is one section's accumulated time.
type Entry struct {
	Name  string
	Total time.Duration
	Calls int
}

// Snapshot returns the current totals, most expensive first.
func Snapshot() []Entry {
	mu.Lock()
	out := make([]Entry, 0, len(totals))
	for k, v := range totals {
		out = append(out, Entry{Name: k, Total: v, Calls: counts[k]})
	}
	mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// TopN formats the n most expensive sections,
// e.g. "world.Chunk.Generate:42.1ms(2), world.Chunk.BuildMesh:3.2ms(2)".
func TopN(n int) string {
	list := Snapshot()
	n = min(n, len(list))
	parts := make([]string, 0, n)
	for _, e := range list[:n] {
		ms := float64(e.Total.Microseconds()) / 1000
		parts = append(parts, e.Name+":"+strconv.FormatFloat(ms, 'f', 1, 64)+"ms("+strconv.Itoa(e.Calls)+")")
	}
	return strings.Join(parts, ", ")
}

// LogValue lets a snapshot be attached to a structured log record.
func LogValue(n int) slog.Value {
	list := Snapshot()
	n = min(n, len(list))
	attrs := make([]slog.Attr, 0, n)
	for _, e := range list[:n] {
		attrs = append(attrs, slog.Duration(e.Name, e.Total))
	}
	return slog.GroupValue(attrs...)
}
