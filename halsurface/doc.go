// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package halsurface implements surfacepool surfaces on top of the
// gogpu/wgpu hardware abstraction layer.
//
// A Surface owns one 2D color texture, its view, and the fences of the
// command buffers submitted against it. Writes-finished signals are
// delivered from a goroutine that waits on those fences, so the pool's
// owning goroutine never blocks on the GPU.
//
// # Sizing
//
// A surface can be resized in place. Shrinking keeps the existing texture
// and only changes the logical size, which leaves the surface oversized
// until the pool replaces it with a tight one. Growing reallocates the
// texture at exactly the new size.
//
// The last four acquisitions are remembered. HasStableSizeHistory reports
// true once all of them saw the current logical size.
//
// # Device
//
// Open creates a standalone device on a named backend ("noop" or
// "vulkan"). Hosts that already own a device pass it through
// NewFactoryFromProvider instead:
//
//	factory, err := halsurface.NewFactoryFromProvider(provider, halsurface.Config{})
//	if err != nil {
//	    return err
//	}
//	pool, err := surfacepool.New(factory)
package halsurface
