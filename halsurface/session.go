// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halsurface

import "github.com/gogpu/surfacepool"

// Session is the compositor session a surface's image is registered with.
// The pool never calls it directly; surfaces use it to announce their
// image and publish acquire/release events each time they are reused.
//
// Implementations must be safe for use from the pool's owning goroutine
// and from Surface.Destroy.
type Session interface {
	// RegisterImage makes the image of surface id known to the compositor.
	RegisterImage(id uint64, size surfacepool.Size) error

	// FlushEvents publishes the acquire/release events for surface id.
	FlushEvents(id uint64) error

	// ReleaseImage forgets the image of surface id.
	ReleaseImage(id uint64)
}

// NopSession is a Session that accepts every call. It is used when no
// compositor is attached, for example in offscreen rendering.
type NopSession struct{}

func (NopSession) RegisterImage(uint64, surfacepool.Size) error { return nil }
func (NopSession) FlushEvents(uint64) error                     { return nil }
func (NopSession) ReleaseImage(uint64)                          {}
