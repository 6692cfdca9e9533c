// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halsurface

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// Backend names accepted by Open.
const (
	BackendNoop   = "noop"
	BackendVulkan = "vulkan"
)

// Device is a standalone HAL device opened by this package.
// It exposes HalDevice and HalQueue, so it can be handed to any code that
// accepts a gogpu device provider.
type Device struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	adapter  string
	backend  string

	closeOnce sync.Once
}

// Open creates an instance on the named backend and opens a device on the
// first discrete or integrated adapter, falling back to the first adapter.
func Open(backend string) (*Device, error) {
	var (
		instance hal.Instance
		err      error
	)
	switch backend {
	case BackendNoop:
		instance, err = noop.API{}.CreateInstance(nil)
	case BackendVulkan:
		b, ok := hal.GetBackend(gputypes.BackendVulkan)
		if !ok {
			return nil, fmt.Errorf("%w: vulkan backend not available", ErrUnknownBackend)
		}
		instance, err = b.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s instance: %w", backend, err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}

	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}

	slogger().Info("halsurface: device opened", "backend", backend, "adapter", selected.Info.Name)
	return &Device{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
		adapter:  selected.Info.Name,
		backend:  backend,
	}, nil
}

// HalDevice returns the hal.Device.
func (d *Device) HalDevice() any { return d.device }

// HalQueue returns the hal.Queue.
func (d *Device) HalQueue() any { return d.queue }

// Device returns the underlying hal.Device.
func (d *Device) Device() hal.Device { return d.device }

// Queue returns the underlying hal.Queue.
func (d *Device) Queue() hal.Queue { return d.queue }

// AdapterName returns the name of the adapter the device was opened on.
func (d *Device) AdapterName() string { return d.adapter }

// Backend returns the backend name passed to Open.
func (d *Device) Backend() string { return d.backend }

// Close destroys the device and its instance. Every surface created on the
// device must be destroyed first. Close is idempotent.
func (d *Device) Close() {
	d.closeOnce.Do(func() {
		d.device.Destroy()
		d.instance.Destroy()
	})
}
