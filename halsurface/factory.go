// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halsurface

import (
	"fmt"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/surfacepool"
	"github.com/gogpu/wgpu/hal"
)

// DefaultFenceTimeout bounds each fence wait behind SignalWritesFinished.
const DefaultFenceTimeout = 5 * time.Second

// Config configures surfaces created by a Factory.
type Config struct {
	// Format is the texture format. Defaults to BGRA8Unorm, or to the
	// provider's surface format for NewFactoryFromProvider.
	Format gputypes.TextureFormat

	// Session receives image registration and sync events.
	// Defaults to NopSession.
	Session Session

	// FenceTimeout bounds each fence wait. Values <= 0 use
	// DefaultFenceTimeout.
	FenceTimeout time.Duration

	// Label prefixes GPU debug labels. Defaults to "surface".
	Label string
}

func (c Config) withDefaults() Config {
	if c.Format == gputypes.TextureFormatUndefined {
		c.Format = gputypes.TextureFormatBGRA8Unorm
	}
	if c.Session == nil {
		c.Session = NopSession{}
	}
	if c.FenceTimeout <= 0 {
		c.FenceTimeout = DefaultFenceTimeout
	}
	if c.Label == "" {
		c.Label = "surface"
	}
	return c
}

// Factory creates HAL-backed surfaces. It implements surfacepool.Factory.
type Factory struct {
	device hal.Device
	queue  hal.Queue
	cfg    Config
}

var _ surfacepool.Factory = (*Factory)(nil)

// NewFactory returns a factory that allocates surfaces on device and
// submits their work to queue.
func NewFactory(device hal.Device, queue hal.Queue, cfg Config) (*Factory, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("halsurface: device and queue are required")
	}
	return &Factory{device: device, queue: queue, cfg: cfg.withDefaults()}, nil
}

// NewFactoryFromProvider returns a factory on the device shared by a host
// application. The provider must implement HalDevice() any and
// HalQueue() any returning hal.Device and hal.Queue. When cfg.Format is
// unset the provider's surface format is used.
func NewFactoryFromProvider(provider gpucontext.DeviceProvider, cfg Config) (*Factory, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrProviderNotHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrProviderNotHAL)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrProviderNotHAL)
	}

	if cfg.Format == gputypes.TextureFormatUndefined {
		cfg.Format = provider.SurfaceFormat()
	}
	return NewFactory(device, queue, cfg)
}

// Device returns the device surfaces are allocated on.
func (f *Factory) Device() hal.Device { return f.device }

// Format returns the texture format of created surfaces.
func (f *Factory) Format() gputypes.TextureFormat { return f.cfg.Format }

// CreateSurface allocates a surface of exactly size and registers its image
// with the session.
func (f *Factory) CreateSurface(size surfacepool.Size, id uint64) (surfacepool.Surface, error) {
	s, err := f.newSurface(size, id)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (f *Factory) newSurface(size surfacepool.Size, id uint64) (*Surface, error) {
	if size.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrEmptySize, size)
	}

	s := &Surface{
		device:  f.device,
		queue:   f.queue,
		session: f.cfg.Session,
		timeout: f.cfg.FenceTimeout,
		format:  f.cfg.Format,
		label:   fmt.Sprintf("%s_%d", f.cfg.Label, id),
		id:      id,
		size:    size,
	}
	if err := s.allocate(size); err != nil {
		return nil, err
	}
	if err := f.cfg.Session.RegisterImage(id, size); err != nil {
		s.destroyTexture()
		return nil, fmt.Errorf("register image for surface %d: %w", id, err)
	}
	s.valid.Store(true)

	slogger().Debug("halsurface: surface created", "id", id, "size", size, "format", f.cfg.Format)
	return s, nil
}
