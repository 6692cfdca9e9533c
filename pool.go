package surfacepool

import (
	"context"
	"fmt"
	"slices"
)

// Pool hands out reusable surfaces to a frame loop.
//
// Acquire returns an exact-size surface from the available list or a new
// one from the Factory. Submit hands a drawn surface back; it stays pending
// until the GPU signals that its writes finished, then it is recycled into
// the available list (or destroyed when invalid or when the list is full).
// AgeAndCollect and ShrinkToFit evict stale and oversized surfaces.
//
// Pool is not safe for concurrent use: all methods must be called from the
// goroutine that owns the pool. Writes-finished callbacks may fire on any
// goroutine; they only enqueue the surface identifier, and the owner
// recycles it on its next call (or in Reclaim / WaitForPending).
type Pool struct {
	factory Factory
	opts    poolOptions

	available []Surface
	pending   *pendingSet
	inbox     *completionInbox

	// nextID is never reused, even after the surface is destroyed.
	nextID uint64

	// Per-report counters, reset by ReportStatistics.
	created int
	reused  int

	closed bool
}

// New creates a pool that allocates surfaces through factory.
// Returns ErrNilFactory if factory is nil.
func New(factory Factory, opts ...Option) (*Pool, error) {
	if factory == nil {
		return nil, ErrNilFactory
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &Pool{
		factory:   factory,
		opts:      o,
		available: make([]Surface, 0, o.maxSurfaces),
		pending:   newPendingSet(),
		inbox:     newCompletionInbox(),
	}, nil
}

// MaxSurfaces returns the cap on available surfaces.
func (p *Pool) MaxSurfaces() int { return p.opts.maxSurfaces }

// MaxSurfaceAge returns the aging threshold.
func (p *Pool) MaxSurfaceAge() int { return p.opts.maxSurfaceAge }

// Len returns the number of available surfaces.
func (p *Pool) Len() int { return len(p.available) }

// PendingLen returns the number of surfaces awaiting GPU completion.
func (p *Pool) PendingLen() int { return p.pending.len() }

// PendingIDs returns the identifiers of pending surfaces in ascending order.
func (p *Pool) PendingIDs() []uint64 { return p.pending.ids() }

// Notify returns a channel that receives a value after one or more
// writes-finished signals arrive. Call Reclaim after receiving.
func (p *Pool) Notify() <-chan struct{} { return p.inbox.notify }

// Acquire returns a valid surface of exactly size, reusing an available
// one when possible. The surface's synchronization events are flushed
// before it is returned; if that fails the surface is destroyed and an
// error wrapping ErrSyncFlush is returned. The caller owns the surface
// until it passes it to Submit.
func (p *Pool) Acquire(size Size) (Surface, error) {
	p.Reclaim()
	if p.closed {
		return nil, ErrPoolClosed
	}

	s, err := p.cachedOrCreate(size)
	if err != nil {
		Logger().Debug("could not acquire surface", "size", size, "err", err)
		return nil, err
	}

	if err := s.FlushPendingSyncEvents(); err != nil {
		id := s.ID()
		s.Destroy()
		return nil, fmt.Errorf("%w: surface %d: %w", ErrSyncFlush, id, err)
	}

	return s, nil
}

// cachedOrCreate takes the first valid exact-size match from the available
// list, or creates a new surface.
func (p *Pool) cachedOrCreate(size Size) (Surface, error) {
	i := slices.IndexFunc(p.available, func(s Surface) bool {
		return s.IsValid() && s.Size() == size
	})
	if i >= 0 {
		s := p.available[i]
		p.available = slices.Delete(p.available, i, i+1)
		p.reused++
		Logger().Debug("exact match found", "size", size, "id", s.ID())
		return s, nil
	}

	return p.create(size)
}

// create allocates a new surface with the next identifier.
// This is the only path that grows the number of surfaces.
func (p *Pool) create(size Size) (Surface, error) {
	id := p.nextID
	p.nextID++

	s, err := p.factory.CreateSurface(size, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSurfaceCreate, size, err)
	}
	if s == nil {
		return nil, fmt.Errorf("%w: %s: factory returned no surface", ErrSurfaceCreate, size)
	}
	if !s.IsValid() {
		s.Destroy()
		return nil, fmt.Errorf("%w: %s: %w", ErrSurfaceCreate, size, ErrInvalidSurface)
	}

	p.created++
	return s, nil
}

// Submit takes back a surface the caller has finished drawing into. The
// surface stays pending until its writes-finished signal arrives.
// Submitting the same identifier twice is a no-op. Submit(nil) is a no-op.
func (p *Pool) Submit(s Surface) {
	if s == nil {
		return
	}
	p.Reclaim()
	if p.closed {
		s.Destroy()
		return
	}

	id := s.ID()
	if !p.pending.insert(id, s) {
		return
	}

	inbox := p.inbox
	s.SignalWritesFinished(func() { inbox.push(id) })
}

// Reclaim recycles every pending surface whose writes-finished signal has
// arrived. It returns the number of surfaces taken out of the pending set.
// Every other Pool method calls Reclaim first.
func (p *Pool) Reclaim() int {
	n := 0
	for _, id := range p.inbox.popAll() {
		if p.recyclePending(id) {
			n++
		}
	}
	return n
}

// WaitForPending blocks until the pending set is empty or ctx is done,
// recycling surfaces as their signals arrive.
func (p *Pool) WaitForPending(ctx context.Context) error {
	for {
		p.Reclaim()
		if p.pending.len() == 0 {
			return nil
		}
		select {
		case <-p.inbox.notify:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// recyclePending moves the surface stored under id out of the pending set.
// Late or duplicate signals find nothing and are ignored.
func (p *Pool) recyclePending(id uint64) bool {
	s, ok := p.pending.take(id)
	if !ok {
		Logger().Debug("ignoring completion for unknown surface", "id", id)
		return false
	}
	p.recycle(s)
	return true
}

// recycle returns s to the available list if it is valid and there is room.
// Otherwise s is destroyed.
func (p *Pool) recycle(s Surface) {
	// The surface may have become invalid while pending (fence failure).
	if p.closed || !s.IsValid() {
		s.Destroy()
		return
	}

	if len(p.available) < p.opts.maxSurfaces {
		p.available = append(p.available, s)
		return
	}

	Logger().Debug("too many surfaces in pool, dropping", "id", s.ID(), "size", s.Size())
	s.Destroy()
}

// AgeAndCollect ages every available surface by one pass and destroys the
// ones that are invalid or have reached the age threshold. It then replaces
// at most one oversized surface with a stable size history by a tightly
// allocated surface of the same size.
func (p *Pool) AgeAndCollect() {
	p.Reclaim()

	before := len(p.available)
	p.available = slices.DeleteFunc(p.available, func(s Surface) bool {
		if !s.IsValid() || s.AdvanceAndGetAge() >= p.opts.maxSurfaceAge {
			s.Destroy()
			return true
		}
		return false
	})
	if aged := before - len(p.available); aged > 0 {
		Logger().Debug("collected aged surfaces", "count", aged)
	}

	i := slices.IndexFunc(p.available, func(s Surface) bool {
		return s.IsOversized() && s.HasStableSizeHistory()
	})
	if i < 0 {
		return
	}

	old := p.available[i]
	size := old.Size()
	p.available = slices.Delete(p.available, i, i+1)
	old.Destroy()

	Logger().Debug("replacing surface with smaller one", "id", old.ID(), "size", size)
	replacement, err := p.create(size)
	if err != nil {
		Logger().Warn("failed to create a new shrunk surface", "size", size, "err", err)
		return
	}
	p.available = append(p.available, replacement)
}

// ShrinkToFit replaces every oversized available surface. All oversized
// surfaces are destroyed before any replacement is allocated, so the old
// and new allocations never coexist. Failed replacements are logged and
// leave the pool smaller.
func (p *Pool) ShrinkToFit() {
	p.Reclaim()

	var sizes []Size
	p.available = slices.DeleteFunc(p.available, func(s Surface) bool {
		if !s.IsOversized() {
			return false
		}
		sizes = append(sizes, s.Size())
		s.Destroy()
		return true
	})

	for _, size := range sizes {
		replacement, err := p.create(size)
		if err != nil {
			Logger().Warn("failed to create resized surface", "size", size, "err", err)
			continue
		}
		p.available = append(p.available, replacement)
	}
}

// ReportStatistics returns a usage snapshot, forwards it to every
// configured StatsSink, and resets the created and reused counters.
func (p *Pool) ReportStatistics() Statistics {
	p.Reclaim()

	stats := Statistics{
		Cached:  len(p.available),
		Pending: p.pending.len(),
		Created: p.created,
		Reused:  p.reused,
	}
	for _, s := range p.available {
		stats.CachedBytes += s.AllocationSize()
	}
	if rc := p.opts.resources; rc != nil {
		stats.ResourceCount, stats.ResourceBytes = rc.ResourceCacheUsage()
		stats.ResourcePurgeableBytes = rc.ResourceCachePurgeableBytes()
	}

	p.created = 0
	p.reused = 0

	for _, sink := range p.opts.sinks {
		sink.Record(stats)
	}
	return stats
}

// Close destroys every available and pending surface. Signals that arrive
// later are ignored, Submit destroys what it is given, and Acquire returns
// ErrPoolClosed. Call WaitForPending first if pending surfaces may still be
// in use by the GPU. Close is idempotent.
func (p *Pool) Close() {
	if p.closed {
		return
	}
	p.closed = true

	for _, s := range p.available {
		s.Destroy()
	}
	clear(p.available)
	p.available = p.available[:0]

	for _, s := range p.pending.drain() {
		s.Destroy()
	}
	p.inbox.popAll()

	Logger().Info("surface pool closed")
}
