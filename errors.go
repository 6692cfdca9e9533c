package surfacepool

import "errors"

// Pool errors.
var (
	// ErrSurfaceCreate is returned when the factory fails to allocate a surface.
	ErrSurfaceCreate = errors.New("surfacepool: surface creation failed")

	// ErrInvalidSurface is returned when a freshly created surface reports
	// itself invalid. It is always wrapped together with ErrSurfaceCreate.
	ErrInvalidSurface = errors.New("surfacepool: surface invalid after creation")

	// ErrSyncFlush is returned when the post-acquire synchronization flush
	// fails. The surface has already been destroyed.
	ErrSyncFlush = errors.New("surfacepool: could not flush acquire/release events")

	// ErrPoolClosed is returned when operating on a closed pool.
	ErrPoolClosed = errors.New("surfacepool: pool closed")

	// ErrNilFactory is returned by New when no factory is given.
	ErrNilFactory = errors.New("surfacepool: factory cannot be nil")
)
