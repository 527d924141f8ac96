package core

import (
	"sort"
	"sync"
	"time"
)

// BuildStatus is the outcome of a single file build.
type BuildStatus uint8

const (
	StatusAdded BuildStatus = iota
	StatusUpdated
	StatusSkipped
	StatusFailed
)

func (s BuildStatus) String() string {
	switch s {
	case StatusAdded:
		return "ADDED"
	case StatusUpdated:
		return "UPDATED"
	case StatusSkipped:
		return "SKIPPED"
	case StatusFailed:
		return "FAILED"
	}
	return "UNKNOWN"
}

// StageTiming records how long a pipeline stage ran.
type StageTiming struct {
	Name     string
	Files    int
	Duration time.Duration
}

// BuildMetrics aggregates the outcome of one build run.
type BuildMetrics struct {
	mu       sync.Mutex
	statuses map[BuildStatus]int
	kinds    map[string]int
	stages   []StageTiming
	bytes    int64
}

func NewBuildMetrics() *BuildMetrics {
	return &BuildMetrics{
		statuses: make(map[BuildStatus]int),
		kinds:    make(map[string]int),
	}
}

// Record counts one file result. kind is ignored for failed files.
func (m *BuildMetrics) Record(status BuildStatus, kind string, size int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[status]++
	if status != StatusFailed {
		m.kinds[kind]++
		m.bytes += int64(size)
	}
}

// Reclassify turns an already recorded success into a failure.
func (m *BuildMetrics) Reclassify(status BuildStatus, kind string, size int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if status == StatusFailed || m.statuses[status] == 0 {
		return
	}
	m.statuses[status]--
	m.statuses[StatusFailed]++
	if m.kinds[kind]--; m.kinds[kind] <= 0 {
		delete(m.kinds, kind)
	}
	m.bytes -= int64(size)
}

func (m *BuildMetrics) RecordStage(name string, files int, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stages = append(m.stages, StageTiming{Name: name, Files: files, Duration: d})
}

func (m *BuildMetrics) Count(status BuildStatus) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statuses[status]
}

// Produced is the number of assets that made it into the pack.
func (m *BuildMetrics) Produced() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statuses[StatusAdded] + m.statuses[StatusUpdated] + m.statuses[StatusSkipped]
}

func (m *BuildMetrics) Bytes() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bytes
}

// Kinds returns the per-kind asset counts sorted by kind name.
func (m *BuildMetrics) Kinds() []KindCount {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]KindCount, 0, len(m.kinds))
	for k, n := range m.kinds {
		out = append(out, KindCount{Kind: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

func (m *BuildMetrics) Stages() []StageTiming {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]StageTiming(nil), m.stages...)
}

type KindCount struct {
	Kind  string
	Count int
}
