// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halsurface

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/surfacepool"
	"github.com/gogpu/wgpu/hal"
)

// sizeHistoryLen is the number of acquisitions remembered for
// HasStableSizeHistory.
const sizeHistoryLen = 4

// submission is one queue submission against a surface.
type submission struct {
	fence   hal.Fence
	buffers []hal.CommandBuffer
	release []func()
}

// Surface is a surfacepool.Surface backed by a HAL texture.
//
// Surface methods other than IsValid are called from the goroutine that
// owns the surface (the caller between Acquire and Submit, the pool
// otherwise).
type Surface struct {
	device  hal.Device
	queue   hal.Queue
	session Session
	timeout time.Duration
	format  gputypes.TextureFormat
	label   string

	id      uint64
	size    surfacepool.Size // logical
	extent  surfacepool.Size // allocated
	texture hal.Texture
	view    hal.TextureView

	age         int
	history     [sizeHistoryLen]surfacepool.Size
	historyNext int
	historyLen  int

	inflight []submission

	valid     atomic.Bool
	waiters   sync.WaitGroup
	destroyed bool

	// closing stops fence waits that keep timing out.
	closing atomic.Bool
	// abandoned is set when a submission was given up on unsignalled;
	// its resources and the texture are then never freed.
	abandoned atomic.Bool
}

var _ surfacepool.Surface = (*Surface)(nil)

// ID returns the identifier the pool assigned at creation.
func (s *Surface) ID() uint64 { return s.id }

// IsValid reports whether the surface can still be drawn into.
func (s *Surface) IsValid() bool { return s.valid.Load() }

// Size returns the logical size.
func (s *Surface) Size() surfacepool.Size { return s.size }

// Extent returns the allocated texture size, which is at least Size in
// both dimensions.
func (s *Surface) Extent() surfacepool.Size { return s.extent }

// Format returns the texture format.
func (s *Surface) Format() gputypes.TextureFormat { return s.format }

// Texture returns the backing texture.
func (s *Surface) Texture() hal.Texture { return s.texture }

// View returns the texture view used as a render target.
func (s *Surface) View() hal.TextureView { return s.view }

// AllocationSize returns the bytes held by the backing texture.
func (s *Surface) AllocationSize() uint64 {
	return byteSize(s.extent, s.format)
}

// AdvanceAndGetAge increments the age and returns it. The age resets each
// time the surface is acquired.
func (s *Surface) AdvanceAndGetAge() int {
	s.age++
	return s.age
}

// IsOversized reports whether the texture holds more bytes than the
// logical size needs.
func (s *Surface) IsOversized() bool {
	return s.AllocationSize() > byteSize(s.size, s.format)
}

// HasStableSizeHistory reports whether the last sizeHistoryLen
// acquisitions all used the current logical size.
func (s *Surface) HasStableSizeHistory() bool {
	if s.historyLen < sizeHistoryLen {
		return false
	}
	for _, h := range s.history {
		if h != s.size {
			return false
		}
	}
	return true
}

// FlushPendingSyncEvents marks the surface as used, records its size, and
// publishes the acquire/release events to the session.
func (s *Surface) FlushPendingSyncEvents() error {
	if s.destroyed {
		return ErrSurfaceDestroyed
	}
	s.age = 0
	s.recordSize()
	if err := s.session.FlushEvents(s.id); err != nil {
		return fmt.Errorf("flush events for surface %d: %w", s.id, err)
	}
	return nil
}

func (s *Surface) recordSize() {
	s.history[s.historyNext] = s.size
	s.historyNext = (s.historyNext + 1) % sizeHistoryLen
	if s.historyLen < sizeHistoryLen {
		s.historyLen++
	}
}

// Resize changes the logical size. A size that fits the allocated extent
// keeps the texture; a larger one reallocates it at exactly size. A failed
// reallocation invalidates the surface.
func (s *Surface) Resize(size surfacepool.Size) error {
	if s.destroyed {
		return ErrSurfaceDestroyed
	}
	if size.Empty() {
		return ErrEmptySize
	}
	if size.Width <= s.extent.Width && size.Height <= s.extent.Height {
		s.size = size
		return nil
	}

	s.destroyTexture()
	if err := s.allocate(size); err != nil {
		s.valid.Store(false)
		return err
	}
	s.size = size
	slogger().Debug("halsurface: surface reallocated", "id", s.id, "size", size)
	return nil
}

// allocate creates the texture and view at extent size.
func (s *Surface) allocate(size surfacepool.Size) error {
	tex, err := s.device.CreateTexture(&hal.TextureDescriptor{
		Label:         s.label,
		Size:          hal.Extent3D{Width: size.Width, Height: size.Height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        s.format,
		Usage: gputypes.TextureUsageRenderAttachment |
			gputypes.TextureUsageCopySrc |
			gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		return fmt.Errorf("create surface texture: %w", err)
	}

	view, err := s.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: s.label + "_view",
	})
	if err != nil {
		s.device.DestroyTexture(tex)
		return fmt.Errorf("create surface view: %w", err)
	}

	s.texture = tex
	s.view = view
	s.extent = size
	return nil
}

func (s *Surface) destroyTexture() {
	if s.view != nil {
		s.device.DestroyTextureView(s.view)
		s.view = nil
	}
	if s.texture != nil {
		s.device.DestroyTexture(s.texture)
		s.texture = nil
	}
	s.extent = surfacepool.Size{}
}

// Submit submits command buffers that write to the surface. The surface
// takes ownership of the buffers and frees them once the GPU finishes.
// Each release function runs after that, on the goroutine that observes
// completion. On error the buffers are freed and release runs immediately.
func (s *Surface) Submit(buffers []hal.CommandBuffer, release ...func()) error {
	sub := submission{buffers: buffers, release: release}
	switch {
	case s.destroyed:
		s.finishSubmission(sub)
		return ErrSurfaceDestroyed
	case !s.IsValid():
		s.finishSubmission(sub)
		return ErrSurfaceInvalid
	}

	fence, err := s.device.CreateFence()
	if err != nil {
		s.finishSubmission(sub)
		return fmt.Errorf("create fence: %w", err)
	}
	sub.fence = fence

	if err := s.queue.Submit(buffers, fence, 1); err != nil {
		s.valid.Store(false)
		s.finishSubmission(sub)
		return fmt.Errorf("submit: %w", err)
	}
	s.inflight = append(s.inflight, sub)
	return nil
}

// SignalWritesFinished calls done from a new goroutine once every
// submission made so far has completed. A fence wait that times out is
// retried, so done is not called until the GPU finishes. A fence that
// fails invalidates the surface before done is called.
func (s *Surface) SignalWritesFinished(done func()) {
	subs := s.inflight
	s.inflight = nil

	s.waiters.Add(1)
	go func() {
		defer s.waiters.Done()
		if s.await(subs) {
			done()
		}
	}()
}

// await waits for subs in order and releases their resources. It reports
// false when Destroy stopped it before every fence signalled; the
// remaining submissions are then left unreleased.
func (s *Surface) await(subs []submission) bool {
	for i, sub := range subs {
		for {
			ok, err := s.device.Wait(sub.fence, 1, s.timeout)
			if err != nil {
				s.valid.Store(false)
				slogger().Warn("halsurface: fence wait failed, invalidating surface",
					"id", s.id, "err", err)
				break
			}
			if ok {
				break
			}
			if s.closing.Load() {
				s.abandoned.Store(true)
				slogger().Warn("halsurface: abandoning unsignalled submissions",
					"id", s.id, "count", len(subs)-i)
				return false
			}
			slogger().Debug("halsurface: fence wait timed out, retrying",
				"id", s.id, "timeout", s.timeout)
		}
		s.finishSubmission(sub)
	}
	return true
}

func (s *Surface) finishSubmission(sub submission) {
	if sub.fence != nil {
		s.device.DestroyFence(sub.fence)
	}
	for _, b := range sub.buffers {
		s.device.FreeCommandBuffer(b)
	}
	for _, fn := range sub.release {
		fn()
	}
}

// Destroy waits for outstanding fence waits, then releases the texture,
// the compositor image and any submissions never signalled. A fence that
// still has not signalled after one more timeout is abandoned, and the
// texture it may be writing is leaked rather than freed.
// Destroy is idempotent.
func (s *Surface) Destroy() {
	if s.destroyed {
		return
	}
	s.destroyed = true
	s.valid.Store(false)
	s.closing.Store(true)

	s.waiters.Wait()
	s.await(s.inflight)
	s.inflight = nil

	if s.abandoned.Load() {
		slogger().Warn("halsurface: leaking texture of surface with unsignalled work", "id", s.id)
		s.texture = nil
		s.view = nil
		s.extent = surfacepool.Size{}
	} else {
		s.destroyTexture()
	}
	s.session.ReleaseImage(s.id)
	slogger().Debug("halsurface: surface destroyed", "id", s.id)
}

// byteSize returns the bytes a texture of size and format occupies.
func byteSize(size surfacepool.Size, format gputypes.TextureFormat) uint64 {
	return uint64(size.Width) * uint64(size.Height) * bytesPerPixel(format)
}

func bytesPerPixel(format gputypes.TextureFormat) uint64 {
	switch format {
	case gputypes.TextureFormatRGBA16Float:
		return 8
	case gputypes.TextureFormatRGBA32Float:
		return 16
	default:
		return 4
	}
}
