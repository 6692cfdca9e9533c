// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halsurface

import (
	"errors"
	"testing"

	"github.com/gogpu/wgpu/hal"
)

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open("metal2"); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Open() error = %v, want %v", err, ErrUnknownBackend)
	}
}

func TestOpenNoop(t *testing.T) {
	d, err := Open(BackendNoop)
	if err != nil {
		t.Fatalf("Open(noop) error = %v", err)
	}
	defer d.Close()

	if d.Backend() != BackendNoop {
		t.Errorf("Backend() = %q, want %q", d.Backend(), BackendNoop)
	}
	if _, ok := d.HalDevice().(hal.Device); !ok {
		t.Error("HalDevice() is not a hal.Device")
	}
	if _, ok := d.HalQueue().(hal.Queue); !ok {
		t.Error("HalQueue() is not a hal.Queue")
	}

	f, err := NewFactory(d.Device(), d.Queue(), Config{})
	if err != nil {
		t.Fatal(err)
	}
	s, err := f.CreateSurface(sizeOf(4, 4), 0)
	if err != nil {
		t.Fatalf("CreateSurface() error = %v", err)
	}
	s.Destroy()

	d.Close()
	d.Close()
}
