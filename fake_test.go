package surfacepool

import (
	"errors"
	"sync"
)

// fakeSurface is a test double for Surface.
type fakeSurface struct {
	id        uint64
	size      Size
	alloc     uint64
	valid     bool
	age       int
	oversized bool
	stable    bool
	flushErr  error

	flushes   int
	signals   int
	destroyed int

	mu       sync.Mutex
	finished func()
}

func newFakeSurface(id uint64, size Size) *fakeSurface {
	return &fakeSurface{
		id:     id,
		size:   size,
		alloc:  uint64(size.Width) * uint64(size.Height) * 4,
		valid:  true,
		stable: true,
	}
}

func (s *fakeSurface) ID() uint64                 { return s.id }
func (s *fakeSurface) IsValid() bool              { return s.valid }
func (s *fakeSurface) Size() Size                 { return s.size }
func (s *fakeSurface) AllocationSize() uint64     { return s.alloc }
func (s *fakeSurface) IsOversized() bool          { return s.oversized }
func (s *fakeSurface) HasStableSizeHistory() bool { return s.stable }

func (s *fakeSurface) AdvanceAndGetAge() int {
	s.age++
	return s.age
}

func (s *fakeSurface) FlushPendingSyncEvents() error {
	s.flushes++
	return s.flushErr
}

// SignalWritesFinished stores the callback; tests fire it with finish.
func (s *fakeSurface) SignalWritesFinished(done func()) {
	s.mu.Lock()
	s.finished = done
	s.signals++
	s.mu.Unlock()
}

func (s *fakeSurface) Destroy() { s.destroyed++ }

// finish invokes the registered writes-finished callback, if any.
func (s *fakeSurface) finish() bool {
	s.mu.Lock()
	done := s.finished
	s.mu.Unlock()
	if done == nil {
		return false
	}
	done()
	return true
}

var errAllocation = errors.New("out of device memory")

// fakeFactory records every CreateSurface call.
type fakeFactory struct {
	calls   []Size
	ids     []uint64
	created []*fakeSurface

	// fail makes the next CreateSurface calls return errAllocation.
	fail int
	// invalid makes the next CreateSurface calls return invalid surfaces.
	invalid int
	// flushErr is set on every created surface.
	flushErr error
}

func (f *fakeFactory) CreateSurface(size Size, id uint64) (Surface, error) {
	f.calls = append(f.calls, size)
	f.ids = append(f.ids, id)
	if f.fail > 0 {
		f.fail--
		return nil, errAllocation
	}
	s := newFakeSurface(id, size)
	s.flushErr = f.flushErr
	if f.invalid > 0 {
		f.invalid--
		s.valid = false
	}
	f.created = append(f.created, s)
	return s, nil
}

// newTestPool creates a pool around a fresh fakeFactory.
func newTestPool(opts ...Option) (*Pool, *fakeFactory) {
	f := &fakeFactory{}
	p, err := New(f, opts...)
	if err != nil {
		panic(err)
	}
	return p, f
}

// seed puts surfaces straight into the available list.
func seed(p *Pool, surfaces ...*fakeSurface) {
	for _, s := range surfaces {
		p.available = append(p.available, s)
	}
}
