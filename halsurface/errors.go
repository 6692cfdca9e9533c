// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halsurface

import "errors"

var (
	// ErrEmptySize is returned when a surface is created or resized to a
	// size with a zero dimension.
	ErrEmptySize = errors.New("halsurface: surface size must be non-zero")

	// ErrSurfaceDestroyed is returned when operating on a destroyed surface.
	ErrSurfaceDestroyed = errors.New("halsurface: surface has been destroyed")

	// ErrSurfaceInvalid is returned when drawing into a surface that lost
	// validity after a failed fence wait or allocation.
	ErrSurfaceInvalid = errors.New("halsurface: surface is invalid")

	// ErrUnknownBackend is returned by Open for an unsupported backend name.
	ErrUnknownBackend = errors.New("halsurface: unknown backend")

	// ErrNoAdapter is returned by Open when the backend exposes no adapters.
	ErrNoAdapter = errors.New("halsurface: no GPU adapters found")

	// ErrProviderNotHAL is returned when a device provider does not expose
	// HAL device and queue handles.
	ErrProviderNotHAL = errors.New("halsurface: provider does not expose HAL types")
)
