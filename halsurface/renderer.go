// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halsurface

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/surfacepool"
	"github.com/gogpu/surfacepool/rescache"
	"github.com/gogpu/wgpu/hal"
)

// msaaKey identifies a multisample color target.
type msaaKey struct {
	size    surfacepool.Size
	format  gputypes.TextureFormat
	samples uint32
}

// msaaTarget is a multisample color texture resolved into a surface.
type msaaTarget struct {
	tex  hal.Texture
	view hal.TextureView
}

// Renderer records clear passes into surfaces. With more than one sample
// per pixel it renders into a cached multisample texture and resolves into
// the surface; the multisample textures live in a rescache.Cache whose
// usage the pool can report.
type Renderer struct {
	device  hal.Device
	samples uint32
	targets *rescache.Cache[msaaKey, *msaaTarget]
}

// NewRenderer creates a renderer on device. samples of 0 or 1 disables
// multisampling. budget is the byte budget of the multisample target cache
// (0 means unlimited).
func NewRenderer(device hal.Device, samples uint32, budget uint64) *Renderer {
	if samples == 0 {
		samples = 1
	}
	r := &Renderer{device: device, samples: samples}
	r.targets = rescache.New(budget, func(_ msaaKey, t *msaaTarget) {
		device.DestroyTextureView(t.view)
		device.DestroyTexture(t.tex)
	})
	return r
}

// Resources returns the multisample target cache as a resource cache for
// surfacepool.WithResourceCache.
func (r *Renderer) Resources() surfacepool.ResourceCache { return r.targets }

// Clear records a render pass that clears s to color and submits it
// through s. The multisample target stays pinned until the GPU finishes.
func (r *Renderer) Clear(s *Surface, color gputypes.Color) error {
	if !s.IsValid() {
		return ErrSurfaceInvalid
	}

	attachment := hal.RenderPassColorAttachment{
		View:       s.View(),
		LoadOp:     gputypes.LoadOpClear,
		StoreOp:    gputypes.StoreOpStore,
		ClearValue: color,
	}

	var release []func()
	if r.samples > 1 {
		key := msaaKey{size: s.Extent(), format: s.Format(), samples: r.samples}
		target, err := r.targets.Acquire(key, func() (*msaaTarget, uint64, error) {
			return r.createTarget(key)
		})
		if err != nil {
			return fmt.Errorf("acquire msaa target: %w", err)
		}
		release = append(release, func() { r.targets.Release(key) })

		attachment.View = target.view
		attachment.ResolveTarget = s.View()
		attachment.StoreOp = gputypes.StoreOpDiscard
	}

	cmdBuf, err := r.encodeClear(attachment)
	if err != nil {
		for _, fn := range release {
			fn()
		}
		return err
	}
	return s.Submit([]hal.CommandBuffer{cmdBuf}, release...)
}

func (r *Renderer) encodeClear(attachment hal.RenderPassColorAttachment) (hal.CommandBuffer, error) {
	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "surface_clear_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("surface_clear"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label:            "surface_clear_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{attachment},
	})
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	return cmdBuf, nil
}

func (r *Renderer) createTarget(key msaaKey) (*msaaTarget, uint64, error) {
	tex, err := r.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "surface_msaa_color",
		Size:          hal.Extent3D{Width: key.size.Width, Height: key.size.Height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   key.samples,
		Dimension:     gputypes.TextureDimension2D,
		Format:        key.format,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("create MSAA color texture: %w", err)
	}
	view, err := r.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: "surface_msaa_color_view",
	})
	if err != nil {
		r.device.DestroyTexture(tex)
		return nil, 0, fmt.Errorf("create MSAA color view: %w", err)
	}
	return &msaaTarget{tex: tex, view: view}, byteSize(key.size, key.format) * uint64(key.samples), nil
}

// PurgeTargets evicts every multisample target not in use and returns the
// bytes freed.
func (r *Renderer) PurgeTargets() uint64 { return r.targets.PurgeUnlocked() }

// Close destroys every cached multisample target. Surfaces rendered by r
// must have finished on the GPU.
func (r *Renderer) Close() { r.targets.Close() }
