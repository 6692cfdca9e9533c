// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halsurface

import (
	"context"
	"testing"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/surfacepool"
)

func TestRendererReusesMSAATarget(t *testing.T) {
	f, _ := newTestFactory(t)
	r := NewRenderer(f.Device(), 4, 0)
	defer r.Close()

	size := surfacepool.Size{Width: 32, Height: 32}
	a := newTestSurface(t, f, size, 1)
	b := newTestSurface(t, f, size, 2)
	defer a.Destroy()
	defer b.Destroy()

	if err := r.Clear(a, gputypes.Color{}); err != nil {
		t.Fatal(err)
	}
	if err := r.Clear(b, gputypes.Color{}); err != nil {
		t.Fatal(err)
	}

	count, bytes := r.Resources().ResourceCacheUsage()
	if count != 1 {
		t.Errorf("msaa targets = %d, want 1 shared target", count)
	}
	if want := uint64(32 * 32 * 4 * 4); bytes != want {
		t.Errorf("msaa bytes = %d, want %d", bytes, want)
	}
}

func TestRendererInvalidSurface(t *testing.T) {
	f, _ := newTestFactory(t)
	r := NewRenderer(f.Device(), 1, 0)
	defer r.Close()

	s := newTestSurface(t, f, surfacepool.Size{Width: 4, Height: 4}, 1)
	s.Destroy()
	if err := r.Clear(s, gputypes.Color{}); err == nil {
		t.Error("Clear() on destroyed surface succeeded")
	}
}

func TestRendererPurgeTargets(t *testing.T) {
	f, _ := newTestFactory(t)
	r := NewRenderer(f.Device(), 4, 0)
	defer r.Close()

	s := newTestSurface(t, f, surfacepool.Size{Width: 16, Height: 16}, 1)
	if err := r.Clear(s, gputypes.Color{}); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	s.SignalWritesFinished(func() { close(done) })
	<-done

	if freed := r.PurgeTargets(); freed != 16*16*4*4 {
		t.Errorf("PurgeTargets() = %d, want %d", freed, 16*16*4*4)
	}
	s.Destroy()
}

// TestPoolOnNoopDevice drives a pool with HAL surfaces through a few frames.
func TestPoolOnNoopDevice(t *testing.T) {
	f, session := newTestFactory(t)
	r := NewRenderer(f.Device(), 4, 0)
	defer r.Close()

	pool, err := surfacepool.New(f,
		surfacepool.WithMaxSurfaces(4),
		surfacepool.WithResourceCache(r.Resources()),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	size := surfacepool.Size{Width: 128, Height: 64}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var first uint64
	for frame := range 3 {
		got, err := pool.Acquire(size)
		if err != nil {
			t.Fatalf("frame %d: Acquire() error = %v", frame, err)
		}
		s := got.(*Surface)
		if frame == 0 {
			first = s.ID()
		} else if s.ID() != first {
			t.Errorf("frame %d: got surface %d, want reused %d", frame, s.ID(), first)
		}

		if err := r.Clear(s, gputypes.Color{G: 1, A: 1}); err != nil {
			t.Fatalf("frame %d: Clear() error = %v", frame, err)
		}
		pool.Submit(s)
		if err := pool.WaitForPending(ctx); err != nil {
			t.Fatalf("frame %d: WaitForPending() error = %v", frame, err)
		}
	}

	stats := pool.ReportStatistics()
	if stats.Created != 1 || stats.Reused != 2 {
		t.Errorf("created=%d reused=%d, want 1 and 2", stats.Created, stats.Reused)
	}
	if stats.Cached != 1 || stats.CachedBytes != 128*64*4 {
		t.Errorf("cached=%d bytes=%d, want 1 and %d", stats.Cached, stats.CachedBytes, 128*64*4)
	}
	if stats.ResourceCount != 1 || stats.ResourcePurgeableBytes != stats.ResourceBytes {
		t.Errorf("resource usage = %+v, want one purgeable target", stats)
	}
	if session.flushes[first] != 3 {
		t.Errorf("session flushes = %d, want 3", session.flushes[first])
	}
}

// TestPoolShrinksResizedSurface checks that a surface shrunk in place is
// replaced by a tight allocation once its size history is stable.
func TestPoolShrinksResizedSurface(t *testing.T) {
	f, _ := newTestFactory(t)
	pool, err := surfacepool.New(f, surfacepool.WithMaxSurfaceAge(10))
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	big := surfacepool.Size{Width: 256, Height: 256}
	small := surfacepool.Size{Width: 128, Height: 128}

	got, err := pool.Acquire(big)
	if err != nil {
		t.Fatal(err)
	}
	s := got.(*Surface)
	if err := s.Resize(small); err != nil {
		t.Fatal(err)
	}
	pool.Submit(s)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for range sizeHistoryLen {
		if err := pool.WaitForPending(ctx); err != nil {
			t.Fatal(err)
		}
		got, err := pool.Acquire(small)
		if err != nil {
			t.Fatal(err)
		}
		pool.Submit(got)
	}
	if err := pool.WaitForPending(ctx); err != nil {
		t.Fatal(err)
	}

	pool.AgeAndCollect()

	if pool.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", pool.Len())
	}
	stats := pool.ReportStatistics()
	if stats.CachedBytes != 128*128*4 {
		t.Errorf("CachedBytes = %d, want tight %d", stats.CachedBytes, 128*128*4)
	}
}
