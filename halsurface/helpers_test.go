// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halsurface

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/surfacepool"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// createNoopDevice opens a device on the noop backend.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

// recordingSession counts Session calls.
type recordingSession struct {
	mu          sync.Mutex
	registered  map[uint64]surfacepool.Size
	flushes     map[uint64]int
	released    map[uint64]int
	flushErr    error
	registerErr error
}

func newRecordingSession() *recordingSession {
	return &recordingSession{
		registered: make(map[uint64]surfacepool.Size),
		flushes:    make(map[uint64]int),
		released:   make(map[uint64]int),
	}
}

func (r *recordingSession) RegisterImage(id uint64, size surfacepool.Size) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.registerErr != nil {
		return r.registerErr
	}
	r.registered[id] = size
	return nil
}

func (r *recordingSession) FlushEvents(id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushes[id]++
	return r.flushErr
}

func (r *recordingSession) ReleaseImage(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.released[id]++
}

var errSessionLost = errors.New("session lost")

// newTestFactory creates a factory on a noop device with a recording session.
func newTestFactory(t *testing.T) (*Factory, *recordingSession) {
	t.Helper()
	device, queue, cleanup := createNoopDevice(t)
	t.Cleanup(cleanup)

	session := newRecordingSession()
	f, err := NewFactory(device, queue, Config{Session: session})
	if err != nil {
		t.Fatalf("NewFactory() error = %v", err)
	}
	return f, session
}

// newTestSurface creates a surface of size through f.
func newTestSurface(t *testing.T, f *Factory, size surfacepool.Size, id uint64) *Surface {
	t.Helper()
	s, err := f.newSurface(size, id)
	if err != nil {
		t.Fatalf("newSurface(%v) error = %v", size, err)
	}
	return s
}

func sizeOf(w, h uint32) surfacepool.Size {
	return surfacepool.Size{Width: w, Height: h}
}

// stalledDevice reports fence waits as timed out until signalAfter waits
// have been made. A zero signalAfter never signals.
type stalledDevice struct {
	hal.Device
	signalAfter int32

	waits    atomic.Int32
	textures atomic.Int32
	fences   atomic.Int32
}

func (d *stalledDevice) Wait(_ hal.Fence, _ uint64, timeout time.Duration) (bool, error) {
	n := d.waits.Add(1)
	if d.signalAfter > 0 && n >= d.signalAfter {
		return true, nil
	}
	time.Sleep(timeout)
	return false, nil
}

func (d *stalledDevice) DestroyTexture(t hal.Texture) {
	d.textures.Add(1)
	d.Device.DestroyTexture(t)
}

func (d *stalledDevice) DestroyFence(f hal.Fence) {
	d.fences.Add(1)
	d.Device.DestroyFence(f)
}

// newStalledFactory creates a factory whose fence waits go through a
// stalledDevice with a 1ms timeout.
func newStalledFactory(t *testing.T, signalAfter int32) (*Factory, *stalledDevice) {
	t.Helper()
	device, queue, cleanup := createNoopDevice(t)
	t.Cleanup(cleanup)

	dev := &stalledDevice{Device: device, signalAfter: signalAfter}
	f, err := NewFactory(dev, queue, Config{FenceTimeout: time.Millisecond})
	if err != nil {
		t.Fatalf("NewFactory() error = %v", err)
	}
	return f, dev
}

// waitFor polls cond until it holds or a second passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		time.Sleep(time.Millisecond)
	}
}
