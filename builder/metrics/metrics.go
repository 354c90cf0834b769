// Package metrics tracks build counters and phase timings.
package metrics

import (
	"fmt"
	"sync/atomic"
	"time"
)

// BuildMetrics collects performance data during a build. Counters are
// atomic because post processing fans out across a worker pool; phase
// durations are written only from the build loop.
type BuildMetrics struct {
	StartTime time.Time
	EndTime   time.Time

	ParseTime  time.Duration
	RenderTime time.Duration
	AssetTime  time.Duration
	SyncTime   time.Duration

	PostsProcessed atomic.Int64
	CacheHits      atomic.Int64
	CacheMisses    atomic.Int64
	PagesRendered  atomic.Int64
	CardsGenerated atomic.Int64
	FilesWritten   atomic.Int64
	FilesSkipped   atomic.Int64
}

// NewBuildMetrics creates a metrics instance with the clock started.
func NewBuildMetrics() *BuildMetrics {
	return &BuildMetrics{StartTime: time.Now()}
}

// Reset zeroes every counter and restarts the clock. The dev server
// reuses one metrics instance across rebuilds; Reset runs between
// builds, never while a worker pool is live.
func (m *BuildMetrics) Reset() {
	m.StartTime = time.Now()
	m.EndTime = time.Time{}
	m.ParseTime, m.RenderTime, m.AssetTime, m.SyncTime = 0, 0, 0, 0
	for _, c := range []*atomic.Int64{
		&m.PostsProcessed, &m.CacheHits, &m.CacheMisses, &m.PagesRendered,
		&m.CardsGenerated, &m.FilesWritten, &m.FilesSkipped,
	} {
		c.Store(0)
	}
}

// RecordEnd stops the build clock.
func (m *BuildMetrics) RecordEnd() {
	m.EndTime = time.Now()
}

// TotalDuration is the wall time of the build so far, or of the whole
// build once RecordEnd has run.
func (m *BuildMetrics) TotalDuration() time.Duration {
	end := m.EndTime
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(m.StartTime)
}

// CacheHitRate is the percentage of post renders served from cache.
func (m *BuildMetrics) CacheHitRate() float64 {
	hits := m.CacheHits.Load()
	total := hits + m.CacheMisses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// String returns a single-line build summary.
func (m *BuildMetrics) String() string {
	hits := m.CacheHits.Load()
	total := hits + m.CacheMisses.Load()

	return fmt.Sprintf("📊 Built %d posts in %v (cache: %d/%d hits, %.0f%%, %d files written, %d unchanged)",
		m.PostsProcessed.Load(),
		m.TotalDuration().Round(time.Millisecond),
		hits,
		total,
		m.CacheHitRate(),
		m.FilesWritten.Load(),
		m.FilesSkipped.Load(),
	)
}

// Print outputs the summary to stdout.
func (m *BuildMetrics) Print() {
	fmt.Println(m.String())
}
