package surfacepool

import (
	"fmt"
	"log/slog"
)

// ResourceCache is the graphics-context resource cache whose usage is
// reported alongside pool statistics. It is only ever queried.
type ResourceCache interface {
	// ResourceCacheUsage returns the number of cached resources and their bytes.
	ResourceCacheUsage() (count int, bytes uint64)

	// ResourceCachePurgeableBytes returns the bytes that could be freed now.
	ResourceCachePurgeableBytes() uint64
}

// Statistics is a snapshot of pool usage.
type Statistics struct {
	// Cached is the number of surfaces ready for reuse.
	Cached int

	// CachedBytes is the GPU memory held by available surfaces.
	CachedBytes uint64

	// Pending is the number of surfaces waiting for GPU completion.
	Pending int

	// Created is the number of surfaces allocated since the last report.
	Created int

	// Reused is the number of acquisitions served from the pool since the
	// last report.
	Reused int

	// ResourceCount is the number of resources in the graphics-context cache.
	ResourceCount int

	// ResourceBytes is the memory held by the graphics-context cache.
	ResourceBytes uint64

	// ResourcePurgeableBytes is the purgeable part of ResourceBytes.
	ResourcePurgeableBytes uint64
}

// String returns a compact human-readable summary.
func (s Statistics) String() string {
	return fmt.Sprintf("Surfaces[cached=%d (%d KB), pending=%d, created=%d, reused=%d] Resources[%d, %d KB, %d KB purgeable]",
		s.Cached, s.CachedBytes/1024, s.Pending, s.Created, s.Reused,
		s.ResourceCount, s.ResourceBytes/1024, s.ResourcePurgeableBytes/1024)
}

// LogValue implements slog.LogValuer.
func (s Statistics) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("cached", s.Cached),
		slog.Uint64("cached_bytes", s.CachedBytes),
		slog.Int("pending", s.Pending),
		slog.Int("created", s.Created),
		slog.Int("reused", s.Reused),
		slog.Int("resource_count", s.ResourceCount),
		slog.Uint64("resource_bytes", s.ResourceBytes),
		slog.Uint64("resource_purgeable_bytes", s.ResourcePurgeableBytes),
	)
}

// StatsSink receives statistics snapshots from ReportStatistics.
// Record is called on the pool's owning goroutine and must not block.
type StatsSink interface {
	Record(Statistics)
}

// StatsSinkFunc adapts a function to the StatsSink interface.
type StatsSinkFunc func(Statistics)

// Record calls f(s).
func (f StatsSinkFunc) Record(s Statistics) { f(s) }

// LogSink writes every snapshot to the package logger at Debug level.
type LogSink struct{}

// Record implements StatsSink.
func (LogSink) Record(s Statistics) {
	Logger().Debug("surface pool statistics", "stats", s)
}
