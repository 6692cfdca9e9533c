package surfacepool

import "fmt"

// Size is the logical extent of a surface in pixels.
// Two sizes match only when both dimensions are equal.
type Size struct {
	Width  uint32
	Height uint32
}

// String returns the size as "WxH".
func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Empty reports whether either dimension is zero.
func (s Size) Empty() bool {
	return s.Width == 0 || s.Height == 0
}

// Surface is a single GPU-backed drawable managed by a Pool.
//
// A Surface is owned by exactly one of the caller, the pool's available
// list, or the pool's pending set. Ownership moves with the value; the
// owner that drops a surface calls Destroy exactly once.
//
// All methods except SignalWritesFinished's callback are invoked from the
// goroutine that owns the Pool.
type Surface interface {
	// ID returns the identifier assigned by the pool at creation.
	ID() uint64

	// IsValid reports whether the surface can still be drawn into.
	// A surface may become invalid asynchronously (for example when a
	// fence wait fails) and must never be reused afterwards.
	IsValid() bool

	// Size returns the current logical size.
	Size() Size

	// AllocationSize returns the bytes of GPU memory backing the surface.
	AllocationSize() uint64

	// AdvanceAndGetAge increments the age counter and returns the new age.
	AdvanceAndGetAge() int

	// IsOversized reports whether the backing allocation is larger than
	// the current logical size requires.
	IsOversized() bool

	// HasStableSizeHistory reports whether the logical size has not
	// changed across recent uses.
	HasStableSizeHistory() bool

	// FlushPendingSyncEvents publishes the acquire/release synchronization
	// events for the surface. It is called once per acquisition.
	FlushPendingSyncEvents() error

	// SignalWritesFinished arranges for done to be called once, from any
	// goroutine, after all GPU writes submitted so far have completed.
	SignalWritesFinished(done func())

	// Destroy releases the GPU resources. Destroy is idempotent.
	Destroy()
}

// Factory creates surfaces for a Pool.
type Factory interface {
	// CreateSurface allocates a surface of the given size tagged with id.
	// It returns an error (or a nil Surface) when allocation fails.
	CreateSurface(size Size, id uint64) (Surface, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(size Size, id uint64) (Surface, error)

// CreateSurface calls f(size, id).
func (f FactoryFunc) CreateSurface(size Size, id uint64) (Surface, error) {
	return f(size, id)
}
