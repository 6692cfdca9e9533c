// Package surfacepool manages a bounded cache of reusable GPU surfaces for
// a frame-rendering loop.
//
// Each frame the loop acquires a surface of the size it needs, draws into
// it, and submits it back. The pool keeps submitted surfaces pending until
// the GPU reports that their writes finished, then recycles them for later
// frames. Periodic maintenance ages out surfaces that sat unused and swaps
// surfaces whose backing allocation outgrew their size for tighter ones.
//
// # Usage
//
//	pool, err := surfacepool.New(factory,
//	    surfacepool.WithMaxSurfaces(8),
//	    surfacepool.WithMaxSurfaceAge(3),
//	)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	for frame := range frames {
//	    s, err := pool.Acquire(surfacepool.Size{Width: 1920, Height: 1080})
//	    if err != nil {
//	        continue // skip the frame
//	    }
//	    draw(s)
//	    pool.Submit(s)
//	    pool.AgeAndCollect()
//	}
//
// # Completion signals
//
// Surfaces report completion through SignalWritesFinished, which may call
// back on any goroutine. The pool never mutates its state from that
// callback: the identifier is queued, and the owning goroutine recycles it
// on its next call, in Reclaim, or in WaitForPending.
//
// # Surface implementations
//
// Package halsurface provides surfaces and a Factory backed by
// gogpu/wgpu HAL textures and fences.
package surfacepool
