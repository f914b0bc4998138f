package core

import (
	"sort"
	"sync"
)

// Telemetry is the context handed to every engine system at construction. It
// replaces process-wide logger and memory tracker instances: its lifetime is
// the one of whoever built it (the engine, or a test).
type Telemetry struct {
	Log    *Logger
	Memory *MemoryStats
	Frames *Metrics
}

func NewTelemetry(log *Logger) *Telemetry {
	if log == nil {
		log = NewDiscardLogger()
	}
	return &Telemetry{
		Log:    log,
		Memory: NewMemoryStats(),
		Frames: NewMetrics(),
	}
}

// NewNopTelemetry discards logs. Memory and frame statistics are still kept.
func NewNopTelemetry() *Telemetry {
	return NewTelemetry(nil)
}

type memoryEntry struct {
	bytes       int64
	allocations int64
}

// MemoryStats tracks payload bytes held by tag (usually a resource type
// name). Resources may report from loader goroutines, so it is synchronised.
type MemoryStats struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

func NewMemoryStats() *MemoryStats {
	return &MemoryStats{entries: make(map[string]*memoryEntry)}
}

func (m *MemoryStats) Track(tag string, bytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[tag]
	if !ok {
		e = &memoryEntry{}
		m.entries[tag] = e
	}
	e.bytes += bytes
	e.allocations++
}

func (m *MemoryStats) Release(tag string, bytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[tag]
	if !ok {
		return
	}
	e.bytes -= bytes
	e.allocations--
	if e.allocations <= 0 {
		delete(m.entries, tag)
	}
}

func (m *MemoryStats) Bytes(tag string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[tag]; ok {
		return e.bytes
	}
	return 0
}

func (m *MemoryStats) Allocations(tag string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[tag]; ok {
		return e.allocations
	}
	return 0
}

func (m *MemoryStats) Total() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, e := range m.entries {
		total += e.bytes
	}
	return total
}

// Tags returns the tags currently holding memory, sorted.
func (m *MemoryStats) Tags() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	tags := make([]string, 0, len(m.entries))
	for t := range m.entries {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}
